package mime

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipWith(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		require.NoError(t, err)
		_, err = w.Write([]byte("x"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func epub(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write([]byte("application/epub+zip"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func tarball(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "a.txt", Mode: 0o644, Size: 1, Typeflag: tar.TypeReg}))
	_, err := tw.Write([]byte("a"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"empty", nil, ""},
		{"pdf", []byte("%PDF-1.7\n..."), "application/pdf"},
		{"rtf", []byte(`{\rtf1\ansi hello}`), "application/rtf"},
		{"sqlite", []byte("SQLite format 3\x00\x10\x00"), "application/x-sqlite3"},
		{"gzip", []byte{0x1F, 0x8B, 0x08, 0x00}, "application/gzip"},
		{"bzip2", []byte("BZh91AY&SY"), "application/x-bzip2"},
		{"zstd", []byte{0x28, 0xB5, 0x2F, 0xFD, 0x00}, "application/zstd"},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), "audio/flac"},
		{"ogg", []byte("OggS\x00\x02"), "audio/ogg"},
		{"mp3", []byte("ID3\x04\x00"), "audio/mpeg"},
		{"mkv", append([]byte{0x1A, 0x45, 0xDF, 0xA3, 0x9F, 0x42, 0x82, 0x88}, "matroska"...), "video/x-matroska"},
		{"webm", append([]byte{0x1A, 0x45, 0xDF, 0xA3, 0x9F, 0x42, 0x82, 0x84}, "webm"...), "video/webm"},
		{"mp4", []byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00"), "video/mp4"},
		{"m4a", []byte("\x00\x00\x00\x18ftypM4A \x00\x00\x02\x00"), "audio/mp4"},
		{"avi", []byte("RIFF\x00\x00\x00\x00AVI LIST"), "video/x-msvideo"},
		{"wav is not avi", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), "audio/wave"},
		{"mbox", []byte("From alice@example.com Mon Jan  1 00:00:00 2024\nReturn-Path: <a@b>\n"), "application/mbox"},
		{"eml", []byte("Received: from mx\nSubject: hi\n\nbody"), "message/rfc822"},
		{"eml from first", []byte("From: a@b\nTo: c@d\nSubject: hi\n\nbody"), "message/rfc822"},
		{"prose starting with From", []byte("From here on it is plain text.\n"), "text/plain"},
		{"plain text", []byte("just some words\n"), "text/plain"},
		{"html", []byte("<!DOCTYPE html><html></html>"), "text/html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.data))
		})
	}
}

func TestDetectArchives(t *testing.T) {
	assert.Equal(t, "application/zip", Detect(zipWith(t, "notes.txt")))
	assert.Equal(t, "application/epub+zip", Detect(epub(t)))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Detect(zipWith(t, "[Content_Types].xml", "word/document.xml")))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Detect(zipWith(t, "xl/workbook.xml")))
	assert.Equal(t, "application/x-tar", Detect(tarball(t)))
}

func TestDetectTruncatedHead(t *testing.T) {
	data := tarball(t)
	// The ustar magic sits beyond the first 257 bytes.
	assert.NotEqual(t, "application/x-tar", Detect(data[:200]))
}
