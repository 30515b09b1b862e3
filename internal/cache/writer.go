package cache

import (
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/zstd"
)

// ErrFinished is returned when a Writer is used after Finish.
var ErrFinished = errors.New("cache writer already finished")

// flusher is implemented by buffered downstream writers.
type flusher interface {
	Flush() error
}

// Writer forwards everything to a downstream writer while keeping a zstd
// compressed copy of it, as long as the copy stays within maxCacheSize.
//
// Once the compressed copy grows beyond the limit the encoder is dropped for
// good and the Writer becomes a plain passthrough. A Writer has one owner and
// is not safe for concurrent use.
type Writer struct {
	out          io.Writer
	maxCacheSize int
	enc          *zstd.Encoder
	buf          *bytes.Buffer
	total        int64
	finished     bool
}

// NewWriter wraps out. level is a zstd compression level (1-22).
func NewWriter(out io.Writer, maxCacheSize int, level int) (*Writer, error) {
	buf := &bytes.Buffer{}
	enc, err := zstd.NewWriter(buf,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(1),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		return nil, err
	}
	return &Writer{
		out:          out,
		maxCacheSize: maxCacheSize,
		enc:          enc,
		buf:          buf,
	}, nil
}

// Write feeds p to the encoder, if still live, and forwards it downstream.
func (w *Writer) Write(p []byte) (int, error) {
	if w.finished {
		return 0, ErrFinished
	}
	if w.enc != nil {
		if _, err := w.enc.Write(p); err != nil {
			return 0, err
		}
		w.dropIfOversized()
	}
	n, err := w.out.Write(p)
	w.total += int64(n)
	return n, err
}

// Flush flushes the encoder, if still live, then the downstream writer when
// it supports flushing.
func (w *Writer) Flush() error {
	if w.finished {
		return ErrFinished
	}
	if w.enc != nil {
		if err := w.enc.Flush(); err != nil {
			return err
		}
		w.dropIfOversized()
	}
	if f, ok := w.out.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Finish ends the stream and returns the number of bytes forwarded
// downstream together with the compressed copy. The copy is nil when it grew
// beyond the size limit. Finish may only be called once.
func (w *Writer) Finish() (int64, []byte, error) {
	if w.finished {
		return 0, nil, ErrFinished
	}
	w.finished = true

	if w.enc == nil {
		return w.total, nil, nil
	}
	err := w.enc.Close()
	w.enc = nil
	if err != nil {
		w.buf = nil
		return w.total, nil, err
	}
	blob := w.buf.Bytes()
	w.buf = nil
	if len(blob) > w.maxCacheSize {
		return w.total, nil, nil
	}
	return w.total, blob, nil
}

// BytesWritten is the number of bytes forwarded downstream so far.
func (w *Writer) BytesWritten() int64 {
	return w.total
}

// Caching reports whether the compressed copy is still being kept.
func (w *Writer) Caching() bool {
	return w.enc != nil
}

func (w *Writer) dropIfOversized() {
	if w.buf.Len() <= w.maxCacheSize {
		return
	}
	// The partial frame is useless, Close only releases encoder state.
	_ = w.enc.Close()
	w.enc = nil
	w.buf = nil
}
