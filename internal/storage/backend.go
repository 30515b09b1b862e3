package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when nothing is stored at the path.
var ErrNotFound = errors.New("not found")

// Backend stores cache artifacts by slash separated path.
type Backend interface {
	// Put stores data at the given path, replacing what was there
	Put(ctx context.Context, path string, data io.Reader) error

	// Get retrieves data from the given path. Missing paths yield ErrNotFound.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes data at the given path. Missing paths are not an error.
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)

	// List returns paths matching the given prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Close cleans up any resources
	Close() error
}
