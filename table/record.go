package table

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Framing says how a record ends.
type Framing int

const (
	// FrameBrackets records end at the first line where '[' and ']' balance.
	FrameBrackets Framing = iota
	// FrameBlankLine records start with a key line and end at a blank line.
	FrameBlankLine
)

type recordReader struct {
	br   *bufio.Reader
	line int
}

func newRecordReader(r io.Reader) *recordReader {
	return &recordReader{br: bufio.NewReaderSize(r, 1<<16)}
}

// readLine returns the next line without its terminator; io.EOF only when
// nothing at all was read.
func (r *recordReader) readLine() (string, error) {
	s, err := r.br.ReadString('\n')
	if err == io.EOF && s != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	r.line++
	return strings.TrimRight(s, "\r\n"), nil
}

func (r *recordReader) next(f Framing) (key, body string, err error) {
	var first string
	for {
		first, err = r.readLine()
		if err != nil {
			return "", "", err
		}
		if strings.TrimSpace(first) != "" {
			break
		}
	}
	startLine := r.line

	if f == FrameBlankLine {
		key = strings.TrimSpace(first)
		if strings.ContainsAny(key, " \t") {
			return "", "", errors.Wrapf(ErrFormat, "line %d: key line %q has extra fields", startLine, first)
		}
		var sb strings.Builder
		for {
			l, err := r.readLine()
			if err == io.EOF {
				break
			}
			if err != nil {
				return "", "", err
			}
			if strings.TrimSpace(l) == "" {
				break
			}
			sb.WriteString(l)
			sb.WriteByte('\n')
		}
		return key, sb.String(), nil
	}

	trimmed := strings.TrimLeft(first, " \t")
	cut := strings.IndexAny(trimmed, " \t")
	if cut < 0 {
		return trimmed, "", nil
	}
	key = trimmed[:cut]
	var sb strings.Builder
	sb.WriteString(trimmed[cut+1:])
	depth := strings.Count(trimmed, "[") - strings.Count(trimmed, "]")
	for depth > 0 {
		l, err := r.readLine()
		if err == io.EOF {
			return "", "", errors.Wrapf(ErrFormat, "record %q starting at line %d: unterminated '['", key, startLine)
		}
		if err != nil {
			return "", "", err
		}
		sb.WriteByte('\n')
		sb.WriteString(l)
		depth += strings.Count(l, "[") - strings.Count(l, "]")
	}
	if depth < 0 {
		return "", "", errors.Wrapf(ErrFormat, "record %q at line %d: unbalanced ']'", key, startLine)
	}
	return key, sb.String(), nil
}

// validKey reports whether key can be written as a record key.
func validKey(key string) bool {
	return key != "" && !strings.ContainsAny(key, " \t\r\n")
}
