package adapter

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
)

// ZipAdapter hands every member of a zip archive back to the preprocessor.
type ZipAdapter struct {
	meta Metadata
}

// NewZipAdapter creates the zip adapter
func NewZipAdapter() *ZipAdapter {
	return &ZipAdapter{meta: Metadata{
		Name:         "zip",
		Version:      1,
		Description:  "Reads a zip file as a stream and recurses down into its contents",
		FastMatchers: extensionMatchers("zip", "jar"),
		SlowMatchers: mimeMatchers("application/zip"),
	}}
}

func (a *ZipAdapter) Metadata() *Metadata { return &a.meta }

func (a *ZipAdapter) Adapt(ctx context.Context, ai Info) error {
	ra, size, err := readerAt(ai.Input)
	if err != nil {
		return fmt.Errorf("read zip: %w", err)
	}
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			continue
		}
		ai.logger().Debug("zip member", "archive", ai.FilepathHint, "member", f.Name, "size", f.UncompressedSize64)

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open member %s: %w", f.Name, err)
		}
		err = ai.recurse(ctx, f.Name, rc, ai.LinePrefix+f.Name+": ")
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// readerAt gives random access to r. Files are used directly, anything else
// is read into memory.
func readerAt(r io.Reader) (io.ReaderAt, int64, error) {
	if f, ok := r.(*os.File); ok {
		if st, err := f.Stat(); err == nil && st.Mode().IsRegular() {
			return f, st.Size(), nil
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), int64(len(data)), nil
}
