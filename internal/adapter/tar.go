package adapter

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
)

// TarAdapter hands every regular file of a tar archive back to the preprocessor.
type TarAdapter struct {
	meta Metadata
}

// NewTarAdapter creates the tar adapter
func NewTarAdapter() *TarAdapter {
	return &TarAdapter{meta: Metadata{
		Name:         "tar",
		Version:      1,
		Description:  "Reads a tar file as a stream and recurses down into its contents",
		FastMatchers: extensionMatchers("tar"),
		SlowMatchers: mimeMatchers("application/x-tar"),
	}}
}

func (a *TarAdapter) Metadata() *Metadata { return &a.meta }

func (a *TarAdapter) Adapt(ctx context.Context, ai Info) error {
	tr := tar.NewReader(ai.Input)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		ai.logger().Debug("tar member", "archive", ai.FilepathHint, "member", hdr.Name, "size", hdr.Size)
		if err := ai.recurse(ctx, hdr.Name, tr, ai.LinePrefix+hdr.Name+": "); err != nil {
			return err
		}
	}
}
