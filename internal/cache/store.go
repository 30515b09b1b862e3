package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/klauspost/compress/zstd"

	"github.com/unalkalkan/rgadapt/internal/storage"
)

// Store keeps conversion artifacts in a storage backend.
type Store struct {
	backend storage.Backend
	logger  *slog.Logger
}

// NewStore creates a store on top of backend.
func NewStore(backend storage.Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, logger: logger}
}

// Get returns the compressed artifact for key. found is false on a miss.
func (s *Store) Get(ctx context.Context, key Key) (blob []byte, found bool, err error) {
	rc, err := s.backend.Get(ctx, key.StoragePath())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer rc.Close()

	blob, err = io.ReadAll(rc)
	if err != nil {
		return nil, false, fmt.Errorf("read artifact %s: %w", key, err)
	}
	return blob, true, nil
}

// Put stores the compressed artifact for key.
func (s *Store) Put(ctx context.Context, key Key, blob []byte) error {
	if err := s.backend.Put(ctx, key.StoragePath(), bytes.NewReader(blob)); err != nil {
		return fmt.Errorf("store artifact %s: %w", key, err)
	}
	s.logger.Debug("stored artifact", "key", key.String(), "adapter", key.Adapter, "size", len(blob))
	return nil
}

// Clear deletes every artifact and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int, error) {
	paths, err := s.backend.List(ctx, "")
	if err != nil {
		return 0, err
	}
	for i, p := range paths {
		if err := s.backend.Delete(ctx, p); err != nil {
			return i, err
		}
	}
	return len(paths), nil
}

// Backend exposes the underlying storage, e.g. for health checks.
func (s *Store) Backend() storage.Backend {
	return s.backend
}

// Replay decompresses blob into w.
func Replay(w io.Writer, blob []byte) (int64, error) {
	dec, err := zstd.NewReader(bytes.NewReader(blob), zstd.WithDecoderConcurrency(1))
	if err != nil {
		return 0, err
	}
	defer dec.Close()
	return io.Copy(w, dec)
}
