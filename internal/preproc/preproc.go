package preproc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/unalkalkan/rgadapt/internal/adapter"
	"github.com/unalkalkan/rgadapt/internal/cache"
	"github.com/unalkalkan/rgadapt/internal/mime"
)

// DefaultMaxArchiveRecursion is used when Options leave the depth unset.
const DefaultMaxArchiveRecursion = 5

// Options tune a Preprocessor
type Options struct {
	// SlowMatching enables content type detection and slow matchers.
	SlowMatching bool
	// MaxArchiveRecursion is the nesting depth at which files are no longer opened.
	MaxArchiveRecursion int
	// MaxBlobSize bounds the compressed size of a cached conversion.
	MaxBlobSize int
	// CompressionLevel is the zstd level used for cached conversions.
	CompressionLevel int
}

// Preprocessor picks an adapter for every file and streams its text.
// It is safe for concurrent use.
type Preprocessor struct {
	adapters []adapter.Adapter
	store    *cache.Store
	opts     Options
	logger   *slog.Logger
}

// New creates a Preprocessor. adapters are in priority order. A nil store
// disables caching.
func New(adapters []adapter.Adapter, store *cache.Store, opts Options, logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxArchiveRecursion == 0 {
		opts.MaxArchiveRecursion = DefaultMaxArchiveRecursion
	}
	return &Preprocessor{
		adapters: adapters,
		store:    store,
		opts:     opts,
		logger:   logger,
	}
}

// RunFile converts the file at path into out.
func (p *Preprocessor) RunFile(ctx context.Context, path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return p.Run(ctx, adapter.Info{
		FilepathHint: path,
		IsRealFile:   true,
		Input:        f,
		Output:       out,
	})
}

// Open runs the conversion in its own goroutine and returns its output.
// Writes block until the returned reader is read. Closing the reader early
// aborts the conversion.
func (p *Preprocessor) Open(ctx context.Context, ai adapter.Info) io.ReadCloser {
	pr, pw := io.Pipe()
	ai.Output = pw
	go func() {
		pw.CloseWithError(p.Run(ctx, ai))
	}()
	return pr
}

// Run converts one file, possibly nested inside others, into ai.Output.
// Files no adapter matches are copied through as they are.
func (p *Preprocessor) Run(ctx context.Context, ai adapter.Info) error {
	ai.Config = adapter.Config{
		MaxArchiveRecursion: p.opts.MaxArchiveRecursion,
		Recurse:             p.Run,
		Logger:              p.logger,
	}

	if ai.ArchiveRecursionDepth >= p.opts.MaxArchiveRecursion {
		_, err := fmt.Fprintf(ai.Output, "%s[rgadapt: max archive recursion reached]\n", ai.LinePrefix)
		return err
	}

	if p.opts.SlowMatching {
		mimeType, input, err := sniff(ai.Input)
		if err != nil {
			return fmt.Errorf("read %s: %w", ai.FilepathHint, err)
		}
		ai.MimeType, ai.Input = mimeType, input
	}

	match, ok := adapter.Find(p.adapters, adapter.FileMeta{
		LosslessFilename: ai.FilepathHint,
		MimeType:         ai.MimeType,
	}, p.opts.SlowMatching)
	if !ok {
		p.logger.Debug("no adapter, passing through", "file", ai.FilepathHint, "mime", ai.MimeType, "depth", ai.ArchiveRecursionDepth)
		return adapter.CopyPrefixed(ai.Output, ai.Input, ai.LinePrefix)
	}

	meta := match.Adapter.Metadata()
	p.logger.Debug("chose adapter",
		"file", ai.FilepathHint,
		"adapter", meta.Name,
		"rule", match.Rule.String(),
		"depth", ai.ArchiveRecursionDepth,
	)

	if key, ok := p.cacheKey(ai, meta); ok {
		return p.runCached(ctx, ai, match.Adapter, key)
	}
	return adapt(ctx, match.Adapter, ai)
}

func (p *Preprocessor) runCached(ctx context.Context, ai adapter.Info, a adapter.Adapter, key cache.Key) error {
	blob, found, err := p.store.Get(ctx, key)
	if err != nil {
		p.logger.Warn("cache lookup failed", "file", ai.FilepathHint, "error", err)
	}
	if found {
		n, err := cache.Replay(ai.Output, blob)
		if err != nil {
			return fmt.Errorf("replay cached %s: %w", ai.FilepathHint, err)
		}
		p.logger.Debug("cache hit", "file", ai.FilepathHint, "key", key.String(), "bytes", n)
		return nil
	}

	cw, err := cache.NewWriter(ai.Output, p.opts.MaxBlobSize, p.opts.CompressionLevel)
	if err != nil {
		return err
	}
	ai.Output = cw
	// On failure the writer is dropped and nothing is stored.
	if err := adapt(ctx, a, ai); err != nil {
		return err
	}

	total, blob, err := cw.Finish()
	if err != nil {
		return err
	}
	if blob == nil {
		p.logger.Debug("output too large to cache", "file", ai.FilepathHint, "bytes", total)
		return nil
	}
	if err := p.store.Put(ctx, key, blob); err != nil {
		p.logger.Warn("could not store conversion", "file", ai.FilepathHint, "error", err)
	}
	return nil
}

// cacheKey derives the key for ai. Only files on disk at the top level are cached.
func (p *Preprocessor) cacheKey(ai adapter.Info, meta *adapter.Metadata) (cache.Key, bool) {
	if p.store == nil || !ai.IsRealFile || ai.ArchiveRecursionDepth != 0 {
		return cache.Key{}, false
	}
	abs, err := filepath.Abs(ai.FilepathHint)
	if err != nil {
		return cache.Key{}, false
	}
	st, err := os.Stat(abs)
	if err != nil {
		p.logger.Debug("not caching, cannot stat file", "file", ai.FilepathHint, "error", err)
		return cache.Key{}, false
	}
	return cache.Key{
		Adapter: meta.Name,
		Version: meta.Version,
		Path:    abs,
		ModTime: st.ModTime(),
	}, true
}

// adapt runs a and names it in the error. Errors from nested files already
// carry the adapter that failed.
func adapt(ctx context.Context, a adapter.Adapter, ai adapter.Info) error {
	err := a.Adapt(ctx, ai)
	if err == nil {
		return nil
	}
	var ae *adapter.Error
	if errors.As(err, &ae) {
		return err
	}
	return &adapter.Error{Adapter: a.Metadata().Name, Err: err}
}

// sniff detects the content type of r without consuming it. Files are read
// in place so adapters still get random access.
func sniff(r io.Reader) (string, io.Reader, error) {
	if f, ok := r.(*os.File); ok {
		if st, err := f.Stat(); err == nil && st.Mode().IsRegular() {
			head := make([]byte, mime.HeadSize)
			n, err := f.ReadAt(head, 0)
			if err != nil && !errors.Is(err, io.EOF) {
				return "", nil, err
			}
			return mime.Detect(head[:n]), f, nil
		}
	}

	br := bufio.NewReaderSize(r, mime.HeadSize)
	head, err := br.Peek(mime.HeadSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	return mime.Detect(head), br, nil
}
