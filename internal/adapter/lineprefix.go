package adapter

import (
	"bytes"
	"io"
)

// PrefixWriter writes prefix at the start of every line written through it.
// An empty prefix makes it a plain passthrough.
type PrefixWriter struct {
	w           io.Writer
	prefix      []byte
	atLineStart bool
}

// NewPrefixWriter wraps w.
func NewPrefixWriter(w io.Writer, prefix string) *PrefixWriter {
	return &PrefixWriter{w: w, prefix: []byte(prefix), atLineStart: true}
}

func (pw *PrefixWriter) Write(p []byte) (int, error) {
	if len(pw.prefix) == 0 {
		return pw.w.Write(p)
	}
	written := 0
	for len(p) > 0 {
		if pw.atLineStart {
			if _, err := pw.w.Write(pw.prefix); err != nil {
				return written, err
			}
			pw.atLineStart = false
		}
		chunk := p
		if i := bytes.IndexByte(p, '\n'); i >= 0 {
			chunk = p[:i+1]
			pw.atLineStart = true
		}
		n, err := pw.w.Write(chunk)
		written += n
		if err != nil {
			return written, err
		}
		p = p[len(chunk):]
	}
	return written, nil
}

// CopyPrefixed copies r to w with prefix in front of every line.
func CopyPrefixed(w io.Writer, r io.Reader, prefix string) error {
	_, err := io.Copy(NewPrefixWriter(w, prefix), r)
	return err
}
