package table

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Codec converts one value type to and from the text record body.
// Encode writes everything that follows the key, including the final newline.
type Codec[T any] interface {
	Framing() Framing
	Decode(body string) (T, error)
	Encode(w io.Writer, v T) error
}

// Tokens walks the whitespace-separated fields of a record body.
type Tokens struct {
	fields []string
	pos    int
}

// NewTokens splits body into fields.
func NewTokens(body string) *Tokens { return &Tokens{fields: strings.Fields(body)} }

// Done reports whether every field has been consumed.
func (t *Tokens) Done() bool { return t.pos >= len(t.fields) }

// Peek returns the next field without consuming it.
func (t *Tokens) Peek() string {
	if t.Done() {
		return ""
	}
	return t.fields[t.pos]
}

// Next consumes one field.
func (t *Tokens) Next() (string, error) {
	if t.Done() {
		return "", errors.Wrap(ErrFormat, "unexpected end of record")
	}
	s := t.fields[t.pos]
	t.pos++
	return s, nil
}

// Expect consumes one field that must equal want.
func (t *Tokens) Expect(want string) error {
	s, err := t.Next()
	if err != nil {
		return err
	}
	if s != want {
		return errors.Wrapf(ErrFormat, "expected %q, got %q", want, s)
	}
	return nil
}

// Int32 consumes an integer field.
func (t *Tokens) Int32() (int32, error) {
	s, err := t.Next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(ErrFormat, "bad integer %q", s)
	}
	return int32(v), nil
}

// Float consumes a real-valued field.
func (t *Tokens) Float() (float64, error) {
	s, err := t.Next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrFormat, "bad number %q", s)
	}
	return v, nil
}

// FloatList consumes "[ a b ... ]".
func (t *Tokens) FloatList() ([]float64, error) {
	if err := t.Expect("["); err != nil {
		return nil, err
	}
	v := []float64{}
	for t.Peek() != "]" {
		f, err := t.Float()
		if err != nil {
			return nil, err
		}
		v = append(v, f)
	}
	t.pos++
	return v, nil
}

// FormatFloat renders v in the shortest form that parses back exactly.
func FormatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// WriteFloatList writes "[ a b ... ]".
func WriteFloatList(w *bufio.Writer, v []float64) {
	w.WriteString("[ ")
	for _, f := range v {
		w.WriteString(FormatFloat(f))
		w.WriteByte(' ')
	}
	w.WriteByte(']')
}

func finish(t *Tokens) error {
	if !t.Done() {
		return errors.Wrapf(ErrFormat, "trailing field %q", t.Peek())
	}
	return nil
}

// Int32VectorCodec encodes alignments: "key 1 2 3".
type Int32VectorCodec struct{}

func (Int32VectorCodec) Framing() Framing { return FrameBrackets }

func (Int32VectorCodec) Decode(body string) ([]int32, error) {
	t := NewTokens(body)
	v := make([]int32, 0, len(t.fields))
	for !t.Done() {
		x, err := t.Int32()
		if err != nil {
			return nil, err
		}
		v = append(v, x)
	}
	return v, nil
}

func (Int32VectorCodec) Encode(w io.Writer, v []int32) error {
	bw := bufio.NewWriter(w)
	for _, x := range v {
		bw.WriteByte(' ')
		bw.WriteString(strconv.FormatInt(int64(x), 10))
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

// FloatVectorCodec encodes weight vectors: "key [ 0.5 1 ]".
type FloatVectorCodec struct{}

func (FloatVectorCodec) Framing() Framing { return FrameBrackets }

func (FloatVectorCodec) Decode(body string) ([]float64, error) {
	t := NewTokens(body)
	v, err := t.FloatList()
	if err != nil {
		return nil, err
	}
	return v, finish(t)
}

func (FloatVectorCodec) Encode(w io.Writer, v []float64) error {
	bw := bufio.NewWriter(w)
	bw.WriteByte(' ')
	WriteFloatList(bw, v)
	bw.WriteByte('\n')
	return bw.Flush()
}

// FloatCodec encodes one real number per key: "key 0.5".
type FloatCodec struct{}

func (FloatCodec) Framing() Framing { return FrameBrackets }

func (FloatCodec) Decode(body string) (float64, error) {
	t := NewTokens(body)
	v, err := t.Float()
	if err != nil {
		return 0, err
	}
	return v, finish(t)
}

func (FloatCodec) Encode(w io.Writer, v float64) error {
	_, err := io.WriteString(w, " "+FormatFloat(v)+"\n")
	return err
}

// MatrixCodec encodes row-major matrices, one row per line:
//
//	key  [
//	  1 2 3
//	  4 5 6 ]
type MatrixCodec struct{}

func (MatrixCodec) Framing() Framing { return FrameBrackets }

func (MatrixCodec) Decode(body string) ([][]float64, error) {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "[") || !strings.HasSuffix(body, "]") {
		return nil, errors.Wrap(ErrFormat, "matrix must be enclosed in [ ]")
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(body, "["), "]")
	m := [][]float64{}
	cols := -1
	for _, line := range strings.Split(inner, "\n") {
		t := NewTokens(line)
		if t.Done() {
			continue
		}
		row := make([]float64, 0, len(t.fields))
		for !t.Done() {
			f, err := t.Float()
			if err != nil {
				return nil, err
			}
			row = append(row, f)
		}
		if cols >= 0 && len(row) != cols {
			return nil, errors.Wrapf(ErrFormat, "matrix row %d has %d columns, want %d", len(m), len(row), cols)
		}
		cols = len(row)
		m = append(m, row)
	}
	return m, nil
}

func (MatrixCodec) Encode(w io.Writer, m [][]float64) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("  [")
	for _, row := range m {
		bw.WriteString("\n ")
		for _, f := range row {
			bw.WriteByte(' ')
			bw.WriteString(FormatFloat(f))
		}
	}
	bw.WriteString(" ]\n")
	return bw.Flush()
}
