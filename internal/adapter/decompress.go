package adapter

import (
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type compression int

const (
	compressionNone compression = iota
	compressionGzip
	compressionBzip2
	compressionZstd
)

// suffix -> (replacement, compression). Longest suffixes first.
var decompressSuffixes = []struct {
	suffix      string
	replacement string
	kind        compression
}{
	{".tgz", ".tar", compressionGzip},
	{".tbz2", ".tar", compressionBzip2},
	{".tbz", ".tar", compressionBzip2},
	{".tzst", ".tar", compressionZstd},
	{".gz", "", compressionGzip},
	{".bz2", "", compressionBzip2},
	{".zst", "", compressionZstd},
}

var decompressMimeTypes = map[string]compression{
	"application/gzip":    compressionGzip,
	"application/x-bzip2": compressionBzip2,
	"application/zstd":    compressionZstd,
}

// DecompressAdapter unwraps single-file compression and hands the result
// back to the preprocessor, so "x.tar.gz" ends up in the tar adapter.
type DecompressAdapter struct {
	meta Metadata
}

// NewDecompressAdapter creates the decompress adapter
func NewDecompressAdapter() *DecompressAdapter {
	return &DecompressAdapter{meta: Metadata{
		Name:         "decompress",
		Version:      1,
		Description:  "Reads compressed file as a stream and runs a different extractor on the contents",
		FastMatchers: extensionMatchers("tgz", "tbz", "tbz2", "tzst", "gz", "bz2", "zst"),
		SlowMatchers: mimeMatchers("application/gzip", "application/x-bzip2", "application/zstd"),
	}}
}

func (a *DecompressAdapter) Metadata() *Metadata { return &a.meta }

func (a *DecompressAdapter) Adapt(ctx context.Context, ai Info) error {
	name, kind := innerName(ai.FilepathHint)
	if kind == compressionNone {
		kind = decompressMimeTypes[ai.MimeType]
	}

	var r io.Reader
	switch kind {
	case compressionGzip:
		zr, err := gzip.NewReader(ai.Input)
		if err != nil {
			return fmt.Errorf("open gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	case compressionBzip2:
		r = bzip2.NewReader(ai.Input)
	case compressionZstd:
		zr, err := zstd.NewReader(ai.Input)
		if err != nil {
			return fmt.Errorf("open zstd: %w", err)
		}
		defer zr.Close()
		r = zr
	default:
		return fmt.Errorf("unknown compression of %s", ai.FilepathHint)
	}

	return ai.recurse(ctx, name, r, ai.LinePrefix)
}

// innerName strips the compression suffix from name.
func innerName(name string) (string, compression) {
	lower := strings.ToLower(name)
	for _, s := range decompressSuffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return name[:len(name)-len(s.suffix)] + s.replacement, s.kind
		}
	}
	return name, compressionNone
}
