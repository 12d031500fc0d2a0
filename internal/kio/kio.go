// Package kio opens the input and output streams named on tool command lines.
//
// A name is "-" for stdin/stdout, "cmd |" to read a shell command's output,
// "| cmd" to write into a shell command's input, and a file path otherwise.
package kio

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// BinaryMarker prefixes object files written in binary (gob) mode.
var BinaryMarker = []byte{0, 'B'}

type pipeReader struct {
	io.ReadCloser
	cmd  *exec.Cmd
	name string
}

func (p *pipeReader) Close() error {
	p.ReadCloser.Close()
	if err := p.cmd.Wait(); err != nil {
		return errors.Wrapf(err, "kio: command %q", p.name)
	}
	return nil
}

type pipeWriter struct {
	io.WriteCloser
	cmd  *exec.Cmd
	name string
}

func (p *pipeWriter) Close() error {
	if err := p.WriteCloser.Close(); err != nil {
		return err
	}
	if err := p.cmd.Wait(); err != nil {
		return errors.Wrapf(err, "kio: command %q", p.name)
	}
	return nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func shell(command string) *exec.Cmd {
	cmd := exec.Command("sh", "-c", command)
	cmd.Stderr = os.Stderr
	return cmd
}

// Open opens an input stream.
func Open(name string) (io.ReadCloser, error) {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return nil, errors.New("kio: empty input name")
	case trimmed == "-":
		return io.NopCloser(os.Stdin), nil
	case strings.HasSuffix(trimmed, "|"):
		command := strings.TrimSpace(strings.TrimSuffix(trimmed, "|"))
		cmd := shell(command)
		out, err := cmd.StdoutPipe()
		if err != nil {
			return nil, errors.Wrapf(err, "kio: pipe from %q", command)
		}
		if err := cmd.Start(); err != nil {
			return nil, errors.Wrapf(err, "kio: start %q", command)
		}
		return &pipeReader{ReadCloser: out, cmd: cmd, name: command}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "kio: open")
	}
	return f, nil
}

// Create opens an output stream, truncating files.
func Create(name string) (io.WriteCloser, error) {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return nil, errors.New("kio: empty output name")
	case trimmed == "-":
		return nopWriteCloser{os.Stdout}, nil
	case strings.HasPrefix(trimmed, "|"):
		command := strings.TrimSpace(strings.TrimPrefix(trimmed, "|"))
		cmd := shell(command)
		cmd.Stdout = os.Stdout
		in, err := cmd.StdinPipe()
		if err != nil {
			return nil, errors.Wrapf(err, "kio: pipe to %q", command)
		}
		if err := cmd.Start(); err != nil {
			return nil, errors.Wrapf(err, "kio: start %q", command)
		}
		return &pipeWriter{WriteCloser: in, cmd: cmd, name: command}, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, errors.Wrap(err, "kio: create")
	}
	return f, nil
}

// Input is an opened object file whose encoding has been detected.
type Input struct {
	*bufio.Reader
	Binary bool
	closer io.Closer
}

// Close releases the underlying stream.
func (in *Input) Close() error { return in.closer.Close() }

// OpenObject opens name and consumes the binary marker if present.
func OpenObject(name string) (*Input, error) {
	rc, err := Open(name)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(rc)
	head, err := br.Peek(len(BinaryMarker))
	binary := err == nil && bytes.Equal(head, BinaryMarker)
	if binary {
		br.Discard(len(BinaryMarker))
	}
	return &Input{Reader: br, Binary: binary, closer: rc}, nil
}

// Output is an object file opened for writing in a fixed encoding.
type Output struct {
	*bufio.Writer
	Binary bool
	closer io.Closer
}

// CreateObject opens name for writing; in binary mode the marker is written first.
func CreateObject(name string, binary bool) (*Output, error) {
	wc, err := Create(name)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriter(wc)
	if binary {
		if _, err := bw.Write(BinaryMarker); err != nil {
			wc.Close()
			return nil, errors.Wrap(err, "kio: write marker")
		}
	}
	return &Output{Writer: bw, Binary: binary, closer: wc}, nil
}

// Close flushes and closes the stream.
func (out *Output) Close() error {
	if err := out.Flush(); err != nil {
		out.closer.Close()
		return errors.Wrap(err, "kio: flush")
	}
	return out.closer.Close()
}
