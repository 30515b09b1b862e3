package adapter

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// pandoc input format by file extension
var pandocFormats = map[string]string{
	"epub":  "epub",
	"odt":   "odt",
	"docx":  "docx",
	"fb2":   "fb2",
	"ipynb": "ipynb",
	"rtf":   "rtf",
}

// pandoc input format by detected content type
var pandocMimeFormats = map[string]string{
	"application/epub+zip":                    "epub",
	"application/vnd.oasis.opendocument.text": "odt",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"application/rtf": "rtf",
}

// PandocAdapter converts office and e-book formats to plain text with pandoc.
type PandocAdapter struct {
	meta Metadata
}

// NewPandocAdapter creates the pandoc adapter
func NewPandocAdapter() *PandocAdapter {
	exts := []string{"epub", "odt", "docx", "fb2", "ipynb", "rtf"}

	slow := make([]SlowMatcher, 0, len(pandocMimeFormats)+2)
	for _, m := range []string{
		"application/epub+zip",
		"application/vnd.oasis.opendocument.text",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/rtf",
	} {
		slow = append(slow, MimeType(m))
	}
	// Neither fb2 nor ipynb have a reliable signature.
	slow = append(slow, Fast{FileExtension("fb2")}, Fast{FileExtension("ipynb")})

	return &PandocAdapter{meta: Metadata{
		Name:         "pandoc",
		Version:      3,
		Description:  "Uses pandoc to convert binary/unreadable text documents to plain text markdown-like text",
		FastMatchers: extensionMatchers(exts...),
		SlowMatchers: slow,
	}}
}

func (a *PandocAdapter) Metadata() *Metadata { return &a.meta }

// Binary is the external program the adapter runs.
func (a *PandocAdapter) Binary() string { return "pandoc" }

func (a *PandocAdapter) Adapt(ctx context.Context, ai Info) error {
	format, ok := pandocFormat(ai)
	if !ok {
		return fmt.Errorf("cannot tell pandoc input format of %s", ai.FilepathHint)
	}
	return spawn(ctx, ai, command{
		binary: "pandoc",
		args:   []string{"--from=" + format, "--to=plain", "--wrap=none", "--markdown-headings=atx"},
		stdin:  ai.Input,
	})
}

func pandocFormat(ai Info) (string, bool) {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filepath.ToSlash(ai.FilepathHint))), ".")
	if f, ok := pandocFormats[ext]; ok {
		return f, true
	}
	f, ok := pandocMimeFormats[ai.MimeType]
	return f, ok
}
