package lattice

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ieee0824/asrtools/table"
)

// Codec reads and writes lattice archives. Each record is the key on its
// own line, then one line per arc and per final state, then a blank line:
//
//	utt1
//	0	1	12	3	4.5,80.25
//	1	2	7	0	0,41
//	2	0.5,0
//
// The source state of the first line is the start state. A missing weight
// is One.
type Codec struct{}

func (Codec) Framing() table.Framing { return table.FrameBlankLine }

func (Codec) Decode(body string) (*Lattice, error) {
	l := New()
	ensure := func(s int) {
		for len(l.States) <= s {
			l.AddState()
		}
	}
	for n, line := range strings.Split(body, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		src, err := parseState(fields[0])
		if err != nil {
			return nil, errors.Wrapf(err, "lattice line %d", n+1)
		}
		ensure(src)
		if l.Start < 0 {
			l.Start = src
		}
		switch len(fields) {
		case 1, 2:
			w := One
			if len(fields) == 2 {
				if w, err = parseWeight(fields[1]); err != nil {
					return nil, errors.Wrapf(err, "lattice line %d", n+1)
				}
			}
			l.SetFinal(src, w)
		case 4, 5:
			dst, err := parseState(fields[1])
			if err != nil {
				return nil, errors.Wrapf(err, "lattice line %d", n+1)
			}
			ensure(dst)
			il, err1 := strconv.ParseInt(fields[2], 10, 32)
			ol, err2 := strconv.ParseInt(fields[3], 10, 32)
			if err1 != nil || err2 != nil {
				return nil, errors.Wrapf(table.ErrFormat, "lattice line %d: bad labels in %q", n+1, line)
			}
			w := One
			if len(fields) == 5 {
				if w, err = parseWeight(fields[4]); err != nil {
					return nil, errors.Wrapf(err, "lattice line %d", n+1)
				}
			}
			l.AddArc(src, Arc{ILabel: int32(il), OLabel: int32(ol), Weight: w, Next: dst})
		default:
			return nil, errors.Wrapf(table.ErrFormat, "lattice line %d: %d fields in %q", n+1, len(fields), line)
		}
	}
	return l, nil
}

func parseState(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, errors.Wrapf(table.ErrFormat, "bad state %q", s)
	}
	return v, nil
}

func parseWeight(s string) (Weight, error) {
	g, a, ok := strings.Cut(s, ",")
	if !ok {
		return Weight{}, errors.Wrapf(table.ErrFormat, "bad weight %q", s)
	}
	gv, err1 := strconv.ParseFloat(g, 64)
	av, err2 := strconv.ParseFloat(a, 64)
	if err1 != nil || err2 != nil {
		return Weight{}, errors.Wrapf(table.ErrFormat, "bad weight %q", s)
	}
	return Weight{Graph: gv, Acoustic: av}, nil
}

func formatWeight(w Weight) string {
	return table.FormatFloat(w.Graph) + "," + table.FormatFloat(w.Acoustic)
}

func (Codec) Encode(w io.Writer, l *Lattice) error {
	bw := bufio.NewWriter(w)
	bw.WriteByte('\n')
	if !l.Empty() {
		writeState := func(s int) {
			st := &l.States[s]
			src := strconv.Itoa(s)
			for _, a := range st.Arcs {
				bw.WriteString(src)
				bw.WriteByte('\t')
				bw.WriteString(strconv.Itoa(a.Next))
				bw.WriteByte('\t')
				bw.WriteString(strconv.FormatInt(int64(a.ILabel), 10))
				bw.WriteByte('\t')
				bw.WriteString(strconv.FormatInt(int64(a.OLabel), 10))
				bw.WriteByte('\t')
				bw.WriteString(formatWeight(a.Weight))
				bw.WriteByte('\n')
			}
			if st.IsFinal() {
				bw.WriteString(src)
				bw.WriteByte('\t')
				bw.WriteString(formatWeight(st.Final))
				bw.WriteByte('\n')
			}
		}
		writeState(l.Start)
		for s := range l.States {
			if s != l.Start {
				writeState(s)
			}
		}
	}
	bw.WriteByte('\n')
	return bw.Flush()
}

func OpenSequential(rspecifier string) (*table.SequentialReader[*Lattice], error) {
	return table.OpenSequential[*Lattice](rspecifier, Codec{})
}

func OpenWriter(wspecifier string) (*table.Writer[*Lattice], error) {
	return table.OpenWriter[*Lattice](wspecifier, Codec{})
}
