package table

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/ieee0824/asrtools/internal/kio"
)

// Writer appends records to an archive. A Writer opened with an empty
// wspecifier accepts and discards every record.
type Writer[T any] struct {
	spec  Spec
	wc    io.WriteCloser
	bw    *bufio.Writer
	codec Codec[T]
}

// OpenWriter opens wspecifier for writing.
func OpenWriter[T any](wspecifier string, codec Codec[T]) (*Writer[T], error) {
	w := &Writer[T]{codec: codec}
	if strings.TrimSpace(wspecifier) == "" {
		return w, nil
	}
	spec, err := ParseWspecifier(wspecifier)
	if err != nil {
		return nil, err
	}
	wc, err := kio.Create(spec.Name)
	if err != nil {
		return nil, err
	}
	w.spec, w.wc, w.bw = spec, wc, bufio.NewWriter(wc)
	return w, nil
}

// IsOpen reports whether records are actually stored.
func (w *Writer[T]) IsOpen() bool { return w.wc != nil }

// Write appends one record.
func (w *Writer[T]) Write(key string, v T) error {
	if !validKey(key) {
		return errors.Wrapf(ErrFormat, "invalid key %q", key)
	}
	if w.wc == nil {
		return nil
	}
	if _, err := w.bw.WriteString(key); err != nil {
		return errors.Wrapf(err, "writing %s", w.spec.Name)
	}
	if err := w.codec.Encode(w.bw, v); err != nil {
		return errors.Wrapf(err, "writing %s", w.spec.Name)
	}
	return nil
}

// Close flushes and closes the archive. Closing twice is a no-op.
func (w *Writer[T]) Close() error {
	if w.wc == nil {
		return nil
	}
	wc := w.wc
	w.wc = nil
	if err := w.bw.Flush(); err != nil {
		wc.Close()
		return errors.Wrapf(err, "flushing %s", w.spec.Name)
	}
	return wc.Close()
}
