package confidence

import (
	"io"

	"github.com/ieee0824/asrtools/table"
)

// OpenInputs opens alternating alignment and weight rspecifiers, system 0
// first. System 0's alignments are read sequentially; everything else by key.
func OpenInputs(specs []string) (*Inputs, error) {
	stream, err := table.OpenInt32VectorSequential(specs[0])
	if err != nil {
		return nil, err
	}
	in := &Inputs{Alignments: stream, WeightSpec: specs[1]}
	if in.Weights, err = table.OpenFloatVectorRandomAccess(specs[1]); err != nil {
		stream.Close()
		return nil, err
	}
	for i := 2; i+1 < len(specs); i += 2 {
		sys := &System{Index: i / 2, AliSpec: specs[i], WeightSpec: specs[i+1]}
		if sys.Alignments, err = table.OpenInt32VectorRandomAccess(specs[i]); err != nil {
			stream.Close()
			return nil, err
		}
		if sys.Weights, err = table.OpenFloatVectorRandomAccess(specs[i+1]); err != nil {
			stream.Close()
			return nil, err
		}
		in.Others = append(in.Others, sys)
	}
	return in, nil
}

// Close releases the sequential stream.
func (in *Inputs) Close() error {
	if c, ok := in.Alignments.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
