package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/unalkalkan/rgadapt/internal/adapter"
	"github.com/unalkalkan/rgadapt/internal/cache"
	"github.com/unalkalkan/rgadapt/internal/preproc"
	"github.com/unalkalkan/rgadapt/internal/storage"
)

type preprocessFlags struct {
	adapters string
	noCache  bool
	mime     bool
	depth    int
}

func newPreprocessCmd(a *app) *cobra.Command {
	var f preprocessFlags
	cmd := &cobra.Command{
		Use:   "preprocess FILE...",
		Short: "Convert files to text and write it to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("adapters") {
				f.adapters = a.cfg.Adapters.Override
			}
			if !flags.Changed("mime") {
				f.mime = a.cfg.Adapters.SlowMatching
			}
			if !flags.Changed("max-archive-recursion") {
				f.depth = a.cfg.Adapters.MaxArchiveRecursion
			}
			f.noCache = f.noCache || a.cfg.Cache.Disabled

			ctx := cmd.Context()
			p, closeStore, err := a.newPreprocessor(ctx, f)
			if err != nil {
				return err
			}
			defer closeStore()

			out := bufio.NewWriter(cmd.OutOrStdout())
			for _, path := range args {
				if err := preprocessFile(ctx, p, path, out); err != nil {
					out.Flush()
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			return out.Flush()
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.adapters, "adapters", "", `adapter selection, e.g. "-zip,tar", "+mail" or "poppler,zip"`)
	flags.BoolVar(&f.noCache, "no-cache", false, "neither read nor write cached conversions")
	flags.BoolVar(&f.mime, "mime", false, "detect file types from content instead of the extension")
	flags.IntVar(&f.depth, "max-archive-recursion", 0, "how deep to descend into nested archives")
	return cmd
}

func (a *app) newPreprocessor(ctx context.Context, f preprocessFlags) (*preproc.Preprocessor, func(), error) {
	adapters, err := adapter.Select(adapter.ParseOverride(f.adapters))
	if err != nil {
		return nil, nil, err
	}

	var store *cache.Store
	closeStore := func() {}
	if !f.noCache {
		backend, err := storage.New(ctx, a.cfg.Cache.Storage)
		if err != nil {
			return nil, nil, fmt.Errorf("open cache: %w", err)
		}
		store = cache.NewStore(backend, a.logger)
		closeStore = func() { backend.Close() }
	}

	p := preproc.New(adapters, store, preproc.Options{
		SlowMatching:        f.mime,
		MaxArchiveRecursion: f.depth,
		MaxBlobSize:         a.cfg.Cache.MaxBlobSize,
		CompressionLevel:    a.cfg.Cache.CompressionLevel,
	}, a.logger)
	return p, closeStore, nil
}

// preprocessFile converts one file while out drains the text concurrently.
// A failing consumer cancels the conversion.
func preprocessFile(ctx context.Context, p *preproc.Preprocessor, path string, out io.Writer) error {
	g, gctx := errgroup.WithContext(ctx)
	pr, pw := io.Pipe()

	g.Go(func() error {
		err := p.RunFile(gctx, path, pw)
		pw.CloseWithError(err)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(out, pr)
		pr.CloseWithError(err)
		return err
	})
	return g.Wait()
}
