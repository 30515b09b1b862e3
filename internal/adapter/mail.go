package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/emersion/go-mbox"
	"github.com/jhillyerd/enmime"
)

var (
	htmlTag   = regexp.MustCompile(`<[^>]*>`)
	mboxGlobs = []FileGlob{Glob("*.mbox"), Glob("mbox")}
)

// MailAdapter prints headers and body text of e-mail messages and recurses
// into their attachments.
type MailAdapter struct {
	meta Metadata
}

// NewMailAdapter creates the mail adapter
func NewMailAdapter() *MailAdapter {
	return &MailAdapter{meta: Metadata{
		Name:         "mail",
		Version:      1,
		Description:  "Reads .eml and mbox files, prints headers and text and recurses into attachments",
		FastMatchers: []FastMatcher{FileExtension("eml"), mboxGlobs[0], mboxGlobs[1]},
		SlowMatchers: []SlowMatcher{
			MimeType("message/rfc822"),
			MimeType("application/mbox"),
			Fast{mboxGlobs[0]},
			Fast{mboxGlobs[1]},
		},
	}}
}

func (a *MailAdapter) Metadata() *Metadata { return &a.meta }

func (a *MailAdapter) Adapt(ctx context.Context, ai Info) error {
	if !isMbox(ai) {
		return writeMessage(ctx, ai, ai.Input, ai.LinePrefix)
	}

	mr := mbox.NewReader(ai.Input)
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := mr.NextMessage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read mbox: %w", err)
		}
		if err := writeMessage(ctx, ai, msg, fmt.Sprintf("%smsg %d: ", ai.LinePrefix, n)); err != nil {
			return err
		}
	}
}

func isMbox(ai Info) bool {
	if ai.MimeType == "application/mbox" {
		return true
	}
	for _, g := range mboxGlobs {
		if g.matchName(ai.FilepathHint) {
			return true
		}
	}
	return false
}

func writeMessage(ctx context.Context, ai Info, r io.Reader, prefix string) error {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return fmt.Errorf("parse message: %w", err)
	}

	var b strings.Builder
	for _, h := range []string{"From", "To", "Cc", "Date", "Subject"} {
		if v := env.GetHeader(h); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", h, v)
		}
	}
	b.WriteString("\n")
	text := env.Text
	if strings.TrimSpace(text) == "" && env.HTML != "" {
		text = html.UnescapeString(htmlTag.ReplaceAllString(env.HTML, " "))
	}
	b.WriteString(strings.TrimRight(text, "\n"))
	b.WriteString("\n")

	if err := CopyPrefixed(ai.Output, strings.NewReader(b.String()), prefix); err != nil {
		return err
	}

	for _, att := range env.Attachments {
		name := att.FileName
		if name == "" {
			continue
		}
		name = path.Base(filepath.ToSlash(name))
		if err := ai.recurse(ctx, name, bytes.NewReader(att.Content), prefix+name+": "); err != nil {
			return err
		}
	}
	return nil
}
