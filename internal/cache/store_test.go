package cache

import (
	"bytes"
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unalkalkan/rgadapt/internal/storage"
)

func TestKey(t *testing.T) {
	mtime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	base := Key{Adapter: "poppler", Version: 1, Path: "/docs/a.pdf", ModTime: mtime}

	assert.Equal(t, base.String(), base.String())
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}$`), base.String())
	assert.Equal(t, base.String()[:2]+"/"+base.String()+".zst", base.StoragePath())

	changed := []Key{
		{Adapter: "pdfnative", Version: 1, Path: "/docs/a.pdf", ModTime: mtime},
		{Adapter: "poppler", Version: 2, Path: "/docs/a.pdf", ModTime: mtime},
		{Adapter: "poppler", Version: 1, Path: "/docs/b.pdf", ModTime: mtime},
		{Adapter: "poppler", Version: 1, Path: "/docs/a.pdf", ModTime: mtime.Add(time.Nanosecond)},
	}
	for _, k := range changed {
		assert.NotEqual(t, base.String(), k.String(), "%+v", k)
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	backend, err := storage.NewLocalBackend(t.TempDir())
	require.NoError(t, err)
	store := NewStore(backend, nil)

	key := Key{Adapter: "zip", Version: 1, Path: "/a.zip", ModTime: time.Unix(100, 0)}

	_, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	var out bytes.Buffer
	w, err := NewWriter(&out, 1<<16, 3)
	require.NoError(t, err)
	_, err = w.Write([]byte("member.txt: hello\n"))
	require.NoError(t, err)
	_, blob, err := w.Finish()
	require.NoError(t, err)
	require.NotNil(t, blob)

	require.NoError(t, store.Put(ctx, key, blob))

	got, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, blob, got)

	var replayed bytes.Buffer
	_, err = Replay(&replayed, got)
	require.NoError(t, err)
	assert.Equal(t, "member.txt: hello\n", replayed.String())

	other := key
	other.Version = 2
	require.NoError(t, store.Put(ctx, other, blob))

	n, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, found, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReplayRejectsGarbage(t *testing.T) {
	var out bytes.Buffer
	_, err := Replay(&out, []byte("definitely not zstd"))
	assert.Error(t, err)
}
