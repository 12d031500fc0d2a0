package posterior

import (
	"bufio"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/ieee0824/asrtools/table"
)

// Codec reads and writes posterior archives: "key [ 3 0.9 5 0.1 ] [ 3 1 ]".
type Codec struct{}

func (Codec) Framing() table.Framing { return table.FrameBrackets }

func (Codec) Decode(body string) (Posterior, error) {
	t := table.NewTokens(body)
	post := Posterior{}
	for !t.Done() {
		if err := t.Expect("["); err != nil {
			return nil, err
		}
		frame := []Pair{}
		for t.Peek() != "]" {
			if t.Done() {
				return nil, errors.Wrap(table.ErrFormat, "unterminated frame")
			}
			l, err := t.Int32()
			if err != nil {
				return nil, err
			}
			w, err := t.Float()
			if err != nil {
				return nil, err
			}
			frame = append(frame, Pair{Label: l, Weight: w})
		}
		t.Next()
		post = append(post, frame)
	}
	return post, nil
}

func (Codec) Encode(w io.Writer, post Posterior) error {
	bw := bufio.NewWriter(w)
	for _, frame := range post {
		bw.WriteString(" [")
		for _, p := range frame {
			bw.WriteByte(' ')
			bw.WriteString(strconv.FormatInt(int64(p.Label), 10))
			bw.WriteByte(' ')
			bw.WriteString(table.FormatFloat(p.Weight))
		}
		bw.WriteString(" ]")
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

func OpenSequential(rspecifier string) (*table.SequentialReader[Posterior], error) {
	return table.OpenSequential[Posterior](rspecifier, Codec{})
}

func OpenWriter(wspecifier string) (*table.Writer[Posterior], error) {
	return table.OpenWriter[Posterior](wspecifier, Codec{})
}
