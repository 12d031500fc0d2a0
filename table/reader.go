package table

import (
	"io"

	"github.com/pkg/errors"

	"github.com/ieee0824/asrtools/internal/kio"
)

// SequentialReader iterates the records of an archive in file order.
//
//	for r.Next() {
//		use(r.Key(), r.Value())
//	}
//	if err := r.Err(); err != nil { ... }
type SequentialReader[T any] struct {
	spec  Spec
	rc    io.ReadCloser
	rr    *recordReader
	codec Codec[T]
	key   string
	val   T
	err   error
	done  bool
}

// OpenSequential opens rspecifier for sequential reading.
func OpenSequential[T any](rspecifier string, codec Codec[T]) (*SequentialReader[T], error) {
	spec, err := ParseRspecifier(rspecifier)
	if err != nil {
		return nil, err
	}
	rc, err := kio.Open(spec.Name)
	if err != nil {
		return nil, err
	}
	return &SequentialReader[T]{spec: spec, rc: rc, rr: newRecordReader(rc), codec: codec}, nil
}

// Next advances to the next record. It returns false at the end of the
// archive or on error.
func (r *SequentialReader[T]) Next() bool {
	if r.done {
		return false
	}
	key, body, err := r.rr.next(r.codec.Framing())
	if err == io.EOF {
		r.done = true
		return false
	}
	if err == nil {
		var v T
		v, err = r.codec.Decode(body)
		if err != nil {
			err = errors.Wrapf(err, "record %q", key)
		} else {
			r.key, r.val = key, v
			return true
		}
	}
	r.done = true
	if r.spec.Permissive {
		return false
	}
	r.err = errors.Wrapf(err, "reading %s", r.spec.Name)
	return false
}

// Key returns the current record's key.
func (r *SequentialReader[T]) Key() string { return r.key }

// Value returns the current record's value.
func (r *SequentialReader[T]) Value() T { return r.val }

// Err returns the first error that stopped iteration.
func (r *SequentialReader[T]) Err() error { return r.err }

// Close releases the underlying stream.
func (r *SequentialReader[T]) Close() error { return r.rc.Close() }

// RandomAccessReader answers point queries by key. The archive is read in
// full when the reader is opened.
type RandomAccessReader[T any] struct {
	spec   Spec
	values map[string]T
}

// OpenRandomAccess reads rspecifier into memory.
func OpenRandomAccess[T any](rspecifier string, codec Codec[T]) (*RandomAccessReader[T], error) {
	seq, err := OpenSequential(rspecifier, codec)
	if err != nil {
		return nil, err
	}
	defer seq.Close()
	ra := &RandomAccessReader[T]{spec: seq.spec, values: make(map[string]T)}
	for seq.Next() {
		if _, dup := ra.values[seq.Key()]; dup {
			return nil, errors.Wrapf(ErrFormat, "%s: duplicate key %q", seq.spec.Name, seq.Key())
		}
		ra.values[seq.Key()] = seq.Value()
	}
	if err := seq.Err(); err != nil {
		return nil, err
	}
	return ra, nil
}

// HasKey reports whether key is present.
func (r *RandomAccessReader[T]) HasKey(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Value returns the value stored under key, or ErrNotFound.
func (r *RandomAccessReader[T]) Value(key string) (T, error) {
	v, ok := r.values[key]
	if !ok {
		return v, errors.Wrapf(ErrNotFound, "%s: %q", r.spec.Name, key)
	}
	return v, nil
}

// Len returns the number of records.
func (r *RandomAccessReader[T]) Len() int { return len(r.values) }
