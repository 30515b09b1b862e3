package preproc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unalkalkan/rgadapt/internal/adapter"
	"github.com/unalkalkan/rgadapt/internal/cache"
	"github.com/unalkalkan/rgadapt/internal/storage"
)

// upperAdapter upper-cases its input and counts its calls.
type upperAdapter struct {
	meta  adapter.Metadata
	calls atomic.Int32
	seen  atomic.Value // last Info.MimeType
}

func newUpper() *upperAdapter {
	return &upperAdapter{meta: adapter.Metadata{
		Name:         "upper",
		Version:      1,
		FastMatchers: []adapter.FastMatcher{adapter.FileExtension("up")},
		SlowMatchers: []adapter.SlowMatcher{
			adapter.MimeType("application/pdf"),
			adapter.Fast{Matcher: adapter.FileExtension("up")},
		},
	}}
}

func (a *upperAdapter) Metadata() *adapter.Metadata { return &a.meta }

func (a *upperAdapter) Adapt(ctx context.Context, ai adapter.Info) error {
	a.calls.Add(1)
	a.seen.Store(ai.MimeType)
	data, err := io.ReadAll(ai.Input)
	if err != nil {
		return err
	}
	return adapter.CopyPrefixed(ai.Output, strings.NewReader(strings.ToUpper(string(data))), ai.LinePrefix)
}

// nestAdapter hands its input back as a nested file of the same name.
type nestAdapter struct{ meta adapter.Metadata }

func (a *nestAdapter) Metadata() *adapter.Metadata { return &a.meta }

func (a *nestAdapter) Adapt(ctx context.Context, ai adapter.Info) error {
	return ai.Config.Recurse(ctx, adapter.Info{
		FilepathHint:          ai.FilepathHint,
		ArchiveRecursionDepth: ai.ArchiveRecursionDepth + 1,
		Input:                 ai.Input,
		Output:                ai.Output,
		LinePrefix:            ai.LinePrefix + "n: ",
		Config:                ai.Config,
	})
}

// failAdapter writes a little and then fails.
type failAdapter struct{ meta adapter.Metadata }

var errBroken = errors.New("broken file")

func (a *failAdapter) Metadata() *adapter.Metadata { return &a.meta }

func (a *failAdapter) Adapt(ctx context.Context, ai adapter.Info) error {
	io.WriteString(ai.Output, "partial\n")
	return errBroken
}

func testAdapters() (*upperAdapter, []adapter.Adapter) {
	up := newUpper()
	return up, []adapter.Adapter{
		up,
		&nestAdapter{meta: adapter.Metadata{Name: "nest", FastMatchers: []adapter.FastMatcher{adapter.FileExtension("nest")}}},
		&failAdapter{meta: adapter.Metadata{Name: "fail", FastMatchers: []adapter.FastMatcher{adapter.FileExtension("fail")}}},
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunPassthrough(t *testing.T) {
	_, adapters := testAdapters()
	p := New(adapters, nil, Options{}, nil)

	var out bytes.Buffer
	err := p.Run(context.Background(), adapter.Info{
		FilepathHint: "notes.txt",
		Input:        strings.NewReader("a\nb\n"),
		Output:       &out,
		LinePrefix:   "x.zip: ",
	})
	require.NoError(t, err)
	assert.Equal(t, "x.zip: a\nx.zip: b\n", out.String())
}

func TestRunAdapter(t *testing.T) {
	up, adapters := testAdapters()
	p := New(adapters, nil, Options{}, nil)

	var out bytes.Buffer
	require.NoError(t, p.Run(context.Background(), adapter.Info{
		FilepathHint: "a.up",
		Input:        strings.NewReader("hello\n"),
		Output:       &out,
	}))
	assert.Equal(t, "HELLO\n", out.String())
	assert.EqualValues(t, 1, up.calls.Load())
}

func TestRunRecursionLimit(t *testing.T) {
	_, adapters := testAdapters()
	p := New(adapters, nil, Options{MaxArchiveRecursion: 2}, nil)

	var out bytes.Buffer
	require.NoError(t, p.Run(context.Background(), adapter.Info{
		FilepathHint: "loop.nest",
		Input:        strings.NewReader("never read\n"),
		Output:       &out,
	}))
	assert.Equal(t, "n: n: [rgadapt: max archive recursion reached]\n", out.String())
}

func TestRunSlowMatching(t *testing.T) {
	up, adapters := testAdapters()
	p := New(adapters, nil, Options{SlowMatching: true}, nil)

	content := "%PDF-1.4\n" + strings.Repeat("x", 10_000) + "\n"
	var out bytes.Buffer
	require.NoError(t, p.Run(context.Background(), adapter.Info{
		FilepathHint: "no-extension",
		Input:        strings.NewReader(content),
		Output:       &out,
	}))
	assert.Equal(t, strings.ToUpper(content), out.String(), "sniffing must not consume input")
	assert.Equal(t, "application/pdf", up.seen.Load())
}

func TestRunSlowMatchingRealFile(t *testing.T) {
	up, adapters := testAdapters()
	p := New(adapters, nil, Options{SlowMatching: true}, nil)
	path := writeFile(t, "doc", "%PDF-1.4\nbody\n")

	var out bytes.Buffer
	require.NoError(t, p.RunFile(context.Background(), path, &out))
	assert.Equal(t, "%PDF-1.4\nBODY\n", out.String())
	assert.Equal(t, "application/pdf", up.seen.Load())
}

func TestRunAdapterError(t *testing.T) {
	_, adapters := testAdapters()
	p := New(adapters, nil, Options{}, nil)

	var out bytes.Buffer
	err := p.Run(context.Background(), adapter.Info{
		FilepathHint: "x.fail",
		Input:        strings.NewReader(""),
		Output:       &out,
	})
	require.Error(t, err)

	var ae *adapter.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "fail", ae.Adapter)
	assert.ErrorIs(t, err, errBroken)
}

func TestRunNestedErrorKeepsInnerAdapter(t *testing.T) {
	_, adapters := testAdapters()
	renamer := &renameAdapter{
		meta: adapter.Metadata{Name: "rename", FastMatchers: []adapter.FastMatcher{adapter.FileExtension("rename")}},
		to:   "inner.fail",
	}
	p := New(append(adapters, renamer), nil, Options{}, nil)

	var out bytes.Buffer
	err := p.Run(context.Background(), adapter.Info{
		FilepathHint: "outer.rename",
		Input:        strings.NewReader(""),
		Output:       &out,
	})

	var ae *adapter.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "fail", ae.Adapter)
	assert.Equal(t, "inner.fail: partial\n", out.String())
}

// renameAdapter hands its input back under another name.
type renameAdapter struct {
	meta adapter.Metadata
	to   string
}

func (a *renameAdapter) Metadata() *adapter.Metadata { return &a.meta }

func (a *renameAdapter) Adapt(ctx context.Context, ai adapter.Info) error {
	return ai.Config.Recurse(ctx, adapter.Info{
		FilepathHint:          a.to,
		ArchiveRecursionDepth: ai.ArchiveRecursionDepth + 1,
		Input:                 ai.Input,
		Output:                ai.Output,
		LinePrefix:            ai.LinePrefix + a.to + ": ",
		Config:                ai.Config,
	})
}

func newStore(t *testing.T) *cache.Store {
	t.Helper()
	backend, err := storage.NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	return cache.NewStore(backend, nil)
}

func TestRunCaches(t *testing.T) {
	up, adapters := testAdapters()
	store := newStore(t)
	p := New(adapters, store, Options{MaxBlobSize: 1 << 16, CompressionLevel: 3}, nil)
	path := writeFile(t, "a.up", "cache me\n")
	ctx := context.Background()

	var first, second bytes.Buffer
	require.NoError(t, p.RunFile(ctx, path, &first))
	require.NoError(t, p.RunFile(ctx, path, &second))

	assert.Equal(t, "CACHE ME\n", first.String())
	assert.Equal(t, first.String(), second.String())
	assert.EqualValues(t, 1, up.calls.Load(), "second run should be served from the cache")

	paths, err := store.Backend().List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestRunSkipsCacheWhenTooLarge(t *testing.T) {
	up, adapters := testAdapters()
	store := newStore(t)
	p := New(adapters, store, Options{MaxBlobSize: 8, CompressionLevel: 3}, nil)
	path := writeFile(t, "a.up", strings.Repeat("some longer text\n", 50))
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, p.RunFile(ctx, path, &out))
	require.NoError(t, p.RunFile(ctx, path, &out))
	assert.EqualValues(t, 2, up.calls.Load())

	paths, err := store.Backend().List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestRunDoesNotCacheFailures(t *testing.T) {
	_, adapters := testAdapters()
	store := newStore(t)
	p := New(adapters, store, Options{MaxBlobSize: 1 << 16, CompressionLevel: 3}, nil)
	path := writeFile(t, "a.fail", "x")
	ctx := context.Background()

	var out bytes.Buffer
	require.Error(t, p.RunFile(ctx, path, &out))

	paths, err := store.Backend().List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestRunDoesNotCacheVirtualFiles(t *testing.T) {
	up, adapters := testAdapters()
	store := newStore(t)
	p := New(adapters, store, Options{MaxBlobSize: 1 << 16, CompressionLevel: 3}, nil)
	ctx := context.Background()

	for range 2 {
		var out bytes.Buffer
		require.NoError(t, p.Run(ctx, adapter.Info{
			FilepathHint: "member.up",
			Input:        strings.NewReader("x\n"),
			Output:       &out,
		}))
	}
	assert.EqualValues(t, 2, up.calls.Load())
}

func TestOpen(t *testing.T) {
	_, adapters := testAdapters()
	p := New(adapters, nil, Options{}, nil)

	rc := p.Open(context.Background(), adapter.Info{
		FilepathHint: "big.up",
		Input:        strings.NewReader(strings.Repeat("abc\n", 100_000)),
	})
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ABC\n", 100_000), string(data))
}

func TestOpenPropagatesError(t *testing.T) {
	_, adapters := testAdapters()
	p := New(adapters, nil, Options{}, nil)

	rc := p.Open(context.Background(), adapter.Info{
		FilepathHint: "x.fail",
		Input:        strings.NewReader(""),
	})
	defer rc.Close()

	data, err := io.ReadAll(rc)
	assert.Equal(t, "partial\n", string(data))
	assert.ErrorIs(t, err, errBroken)
}
