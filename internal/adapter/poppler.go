package adapter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PopplerAdapter extracts text from PDF files with pdftotext.
type PopplerAdapter struct {
	meta Metadata
}

// NewPopplerAdapter creates the poppler adapter
func NewPopplerAdapter() *PopplerAdapter {
	return &PopplerAdapter{meta: Metadata{
		Name:         "poppler",
		Version:      1,
		Description:  "Uses pdftotext (from poppler-utils) to extract plain text from PDF files",
		FastMatchers: extensionMatchers("pdf"),
		SlowMatchers: mimeMatchers("application/pdf"),
	}}
}

func (a *PopplerAdapter) Metadata() *Metadata { return &a.meta }

// Binary is the external program the adapter runs.
func (a *PopplerAdapter) Binary() string { return "pdftotext" }

func (a *PopplerAdapter) Adapt(ctx context.Context, ai Info) error {
	return spawn(ctx, ai, command{
		binary:   "pdftotext",
		args:     []string{"-", "-"},
		stdin:    ai.Input,
		postproc: relayPages,
	})
}

// relayPages prefixes every line with its page number. pdftotext separates
// pages with a form feed.
func relayPages(out io.Writer, stdout io.Reader, prefix string) error {
	r := bufio.NewReader(stdout)
	page := 1
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			for strings.HasPrefix(line, "\f") {
				page++
				line = line[1:]
			}
			// the form feed after the last page
			if line != "" {
				if !strings.HasSuffix(line, "\n") {
					line += "\n"
				}
				if _, werr := fmt.Fprintf(out, "%sPage %d: %s", prefix, page, line); werr != nil {
					return werr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
