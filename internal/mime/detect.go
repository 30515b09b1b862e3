package mime

import (
	"bytes"
	"net/http"
	"strings"
)

// HeadSize is how many leading bytes of a file Detect wants to see.
const HeadSize = 8192

// signature is a magic byte sequence at a fixed offset
type signature struct {
	mime   string
	offset int
	magic  []byte
}

// signatures ordered by specificity, most specific first
var signatures = []signature{
	// Documents
	{mime: "application/pdf", offset: 0, magic: []byte("%PDF-")},
	{mime: "application/rtf", offset: 0, magic: []byte(`{\rtf`)},
	{mime: "application/x-sqlite3", offset: 0, magic: []byte("SQLite format 3\x00")},

	// Archives - ZIP-based, refined in refine()
	{mime: "application/zip", offset: 0, magic: []byte{0x50, 0x4B, 0x03, 0x04}},
	{mime: "application/zip", offset: 0, magic: []byte{0x50, 0x4B, 0x05, 0x06}}, // Empty ZIP
	{mime: "application/zip", offset: 0, magic: []byte{0x50, 0x4B, 0x07, 0x08}}, // Spanned ZIP

	// Archives - Other
	{mime: "application/gzip", offset: 0, magic: []byte{0x1F, 0x8B}},
	{mime: "application/x-bzip2", offset: 0, magic: []byte("BZh")},
	{mime: "application/zstd", offset: 0, magic: []byte{0x28, 0xB5, 0x2F, 0xFD}},
	{mime: "application/x-xz", offset: 0, magic: []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}},
	{mime: "application/x-tar", offset: 257, magic: []byte("ustar")}, // POSIX tar

	// Audio
	{mime: "audio/mpeg", offset: 0, magic: []byte("ID3")},
	{mime: "audio/mpeg", offset: 0, magic: []byte{0xFF, 0xFB}}, // frame sync
	{mime: "audio/mpeg", offset: 0, magic: []byte{0xFF, 0xF3}},
	{mime: "audio/mpeg", offset: 0, magic: []byte{0xFF, 0xF2}},
	{mime: "audio/flac", offset: 0, magic: []byte("fLaC")},
	{mime: "audio/ogg", offset: 0, magic: []byte("OggS")},

	// Video
	{mime: "video/x-matroska", offset: 0, magic: []byte{0x1A, 0x45, 0xDF, 0xA3}}, // EBML, WebM refined
	{mime: "video/mp4", offset: 4, magic: []byte("ftyp")},
	{mime: "video/x-msvideo", offset: 0, magic: []byte("RIFF")}, // AVI checked at offset 8

	// Mail
	{mime: "application/mbox", offset: 0, magic: []byte("From ")},
}

// mail headers that only show up at the top of a message
var mailHeaders = []string{"return-path:", "received:", "delivered-to:", "message-id:", "mime-version:", "x-mailer:"}

// Detect returns the content type of a file from its first bytes.
// It returns "" for empty input. Parameters such as charset are stripped.
func Detect(head []byte) string {
	if len(head) == 0 {
		return ""
	}
	if m := byMagic(head); m != "" {
		if m = refine(head, m); m != "" {
			return m
		}
	}
	if looksLikeMail(head) {
		return "message/rfc822"
	}

	ct := http.DetectContentType(head)
	if i := strings.Index(ct, ";"); i > 0 {
		ct = ct[:i]
	}
	return ct
}

func byMagic(data []byte) string {
	for _, sig := range signatures {
		if sig.offset+len(sig.magic) > len(data) {
			continue
		}
		if bytes.Equal(data[sig.offset:sig.offset+len(sig.magic)], sig.magic) {
			return sig.mime
		}
	}
	return ""
}

// refine tells apart formats that share magic bytes
func refine(data []byte, m string) string {
	switch m {
	case "application/zip":
		return refineZip(data)

	case "video/x-msvideo":
		if len(data) >= 12 && string(data[8:12]) == "AVI " {
			return m
		}
		return ""

	case "video/x-matroska":
		// DocType element of the EBML header
		if bytes.Contains(data[:min(len(data), 64)], []byte("webm")) {
			return "video/webm"
		}
		return m

	case "video/mp4":
		if len(data) >= 12 {
			switch string(data[8:12]) {
			case "M4A ":
				return "audio/mp4"
			case "qt  ":
				return "video/quicktime"
			}
		}
		return m

	case "application/mbox":
		if looksLikeMail(afterLine(data)) {
			return m
		}
		return ""

	default:
		return m
	}
}

// zip based document formats, recognized by the first member
var zipDocuments = []struct {
	marker string
	mime   string
}{
	{"mimetypeapplication/epub+zip", "application/epub+zip"},
	{"mimetypeapplication/vnd.oasis.opendocument.text", "application/vnd.oasis.opendocument.text"},
	{"mimetypeapplication/vnd.oasis.opendocument.spreadsheet", "application/vnd.oasis.opendocument.spreadsheet"},
	{"word/", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	{"xl/", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	{"ppt/", "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
}

func refineZip(data []byte) string {
	// The first local file header name starts at offset 30.
	if len(data) < 30 {
		return "application/zip"
	}
	content := string(data[30:])
	for _, d := range zipDocuments {
		if strings.HasPrefix(content, d.marker) {
			return d.mime
		}
	}
	// OOXML usually stores [Content_Types].xml first, the part folders follow.
	if strings.HasPrefix(content, "[Content_Types].xml") {
		for _, d := range zipDocuments[3:] {
			if strings.Contains(content, d.marker) {
				return d.mime
			}
		}
	}
	return "application/zip"
}

// looksLikeMail reports whether data starts with an RFC 822 header block
func looksLikeMail(data []byte) bool {
	lower := strings.ToLower(string(data[:min(len(data), 1024)]))
	for _, h := range mailHeaders {
		if strings.HasPrefix(lower, h) {
			return true
		}
	}
	return strings.HasPrefix(lower, "from:") && strings.Contains(lower, "\nsubject:")
}

func afterLine(data []byte) []byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[i+1:]
	}
	return nil
}
