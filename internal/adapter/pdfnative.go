package adapter

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFNativeAdapter extracts PDF text in-process. It needs no external
// tools but handles fewer PDFs than poppler, so it is disabled by default.
type PDFNativeAdapter struct {
	meta Metadata
}

// NewPDFNativeAdapter creates the pdfnative adapter
func NewPDFNativeAdapter() *PDFNativeAdapter {
	return &PDFNativeAdapter{meta: Metadata{
		Name:         "pdfnative",
		Version:      1,
		Description:  "Extracts plain text from PDF files without external tools",
		FastMatchers: extensionMatchers("pdf"),
		SlowMatchers: mimeMatchers("application/pdf"),
	}}
}

func (a *PDFNativeAdapter) Metadata() *Metadata { return &a.meta }

func (a *PDFNativeAdapter) Adapt(ctx context.Context, ai Info) (err error) {
	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	ra, size, err := readerAt(ai.Input)
	if err != nil {
		return fmt.Errorf("read pdf: %w", err)
	}
	reader, err := pdf.NewReader(ra, size)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}

	w := bufio.NewWriter(ai.Output)
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			ai.logger().Debug("skipping unreadable page", "file", ai.FilepathHint, "page", i, "error", err)
			continue
		}
		prefix := fmt.Sprintf("%sPage %d: ", ai.LinePrefix, i)
		for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
			if _, err := fmt.Fprintf(w, "%s%s\n", prefix, line); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}
