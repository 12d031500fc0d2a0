package kio

import (
	"encoding/gob"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Encoder writes a sequence of objects to one file.
type Encoder interface {
	Encode(v any) error
}

// Decoder reads back what an Encoder wrote, in the same order.
type Decoder interface {
	Decode(v any) error
}

// NewEncoder returns a gob encoder in binary mode and a YAML
// multi-document encoder in text mode.
func NewEncoder(out *Output) Encoder {
	if out.Binary {
		return gob.NewEncoder(out)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	return enc
}

// NewDecoder mirrors NewEncoder for the detected input mode.
func NewDecoder(in *Input) Decoder {
	if in.Binary {
		return gob.NewDecoder(in)
	}
	return yaml.NewDecoder(in)
}

// WriteObjects encodes objs into name and closes it.
func WriteObjects(name string, binary bool, objs ...any) error {
	out, err := CreateObject(name, binary)
	if err != nil {
		return err
	}
	enc := NewEncoder(out)
	for _, o := range objs {
		if err := enc.Encode(o); err != nil {
			out.Close()
			return errors.Wrapf(err, "kio: encode %s", name)
		}
	}
	if c, ok := enc.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			out.Close()
			return errors.Wrapf(err, "kio: encode %s", name)
		}
	}
	return out.Close()
}

// ReadObjects decodes objs, in order, from name.
func ReadObjects(name string, objs ...any) error {
	in, err := OpenObject(name)
	if err != nil {
		return err
	}
	defer in.Close()
	dec := NewDecoder(in)
	for _, o := range objs {
		if err := dec.Decode(o); err != nil {
			return errors.Wrapf(err, "kio: decode %s", name)
		}
	}
	return nil
}
