package table

import (
	"bufio"
	"io"

	"github.com/pkg/errors"

	"github.com/ieee0824/asrtools/internal/kio"
)

// Typed constructors for the archive kinds the tools use.

func OpenInt32VectorSequential(rspecifier string) (*SequentialReader[[]int32], error) {
	return OpenSequential[[]int32](rspecifier, Int32VectorCodec{})
}

func OpenInt32VectorRandomAccess(rspecifier string) (*RandomAccessReader[[]int32], error) {
	return OpenRandomAccess[[]int32](rspecifier, Int32VectorCodec{})
}

func OpenInt32VectorWriter(wspecifier string) (*Writer[[]int32], error) {
	return OpenWriter[[]int32](wspecifier, Int32VectorCodec{})
}

func OpenFloatVectorSequential(rspecifier string) (*SequentialReader[[]float64], error) {
	return OpenSequential[[]float64](rspecifier, FloatVectorCodec{})
}

func OpenFloatVectorRandomAccess(rspecifier string) (*RandomAccessReader[[]float64], error) {
	return OpenRandomAccess[[]float64](rspecifier, FloatVectorCodec{})
}

func OpenFloatVectorWriter(wspecifier string) (*Writer[[]float64], error) {
	return OpenWriter[[]float64](wspecifier, FloatVectorCodec{})
}

func OpenFloatWriter(wspecifier string) (*Writer[float64], error) {
	return OpenWriter[float64](wspecifier, FloatCodec{})
}

func OpenMatrixSequential(rspecifier string) (*SequentialReader[[][]float64], error) {
	return OpenSequential[[][]float64](rspecifier, MatrixCodec{})
}

func OpenMatrixWriter(wspecifier string) (*Writer[[][]float64], error) {
	return OpenWriter[[][]float64](wspecifier, MatrixCodec{})
}

// ReadVector reads a single "[ a b c ]" vector file, as written by WriteVector.
func ReadVector(rxfilename string) ([]float64, error) {
	rc, err := kio.Open(rxfilename)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "reading vector %s", rxfilename)
	}
	t := NewTokens(string(data))
	v, err := t.FloatList()
	if err != nil {
		return nil, errors.Wrapf(err, "reading vector %s", rxfilename)
	}
	if err := finish(t); err != nil {
		return nil, errors.Wrapf(err, "reading vector %s", rxfilename)
	}
	return v, nil
}

// WriteVector writes v to wxfilename as "[ a b c ]".
func WriteVector(wxfilename string, v []float64) error {
	wc, err := kio.Create(wxfilename)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(wc)
	WriteFloatList(bw, v)
	bw.WriteByte('\n')
	if err := bw.Flush(); err != nil {
		wc.Close()
		return errors.Wrapf(err, "writing vector %s", wxfilename)
	}
	return wc.Close()
}
