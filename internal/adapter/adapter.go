package adapter

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
)

// Metadata describes an adapter and how it recognizes files.
type Metadata struct {
	// Name is the unique short name of the adapter (a-z0-9 only).
	Name string
	// Version is part of the cache key. Bump it whenever the output format changes.
	Version int
	// Description is shown by `rgadapt adapters`.
	Description string
	// FastMatchers are ORed together.
	FastMatchers []FastMatcher
	// SlowMatchers are used instead of FastMatchers when content type
	// detection is active. They are ORed together. nil means "use the fast ones".
	SlowMatchers []SlowMatcher
}

// Matchers returns the rules a candidate file is tested against.
//
// With slow set and slow matchers configured, the configured slice is yielded
// as is. Otherwise every fast matcher is wrapped into Fast on the fly, so
// callers always see SlowMatcher values.
func (m *Metadata) Matchers(slow bool) iter.Seq[SlowMatcher] {
	if slow && m.SlowMatchers != nil {
		return func(yield func(SlowMatcher) bool) {
			for _, sm := range m.SlowMatchers {
				if !yield(sm) {
					return
				}
			}
		}
	}
	return func(yield func(SlowMatcher) bool) {
		for _, fm := range m.FastMatchers {
			if !yield(Fast{Matcher: fm}) {
				return
			}
		}
	}
}

// Adapter converts one file into a text stream.
//
// Implementations hold no per-call state and are shared between goroutines.
type Adapter interface {
	Metadata() *Metadata
	Adapt(ctx context.Context, ai Info) error
}

// RecurseFunc hands a nested file (archive member, attachment) back to the
// preprocessor.
type RecurseFunc func(ctx context.Context, ai Info) error

// Config is the adapter configuration passed with every call.
type Config struct {
	// MaxArchiveRecursion is the depth at which nested files are no longer opened.
	MaxArchiveRecursion int
	// Recurse processes a nested file. nil means nested files are skipped.
	Recurse RecurseFunc
	Logger  *slog.Logger
}

// Info is created fresh for every Adapt call.
type Info struct {
	// FilepathHint is the file path. It may not be an actual file on the file
	// system (e.g. inside an archive) and is used for matching and display.
	FilepathHint string
	// IsRealFile is true if FilepathHint points at a file on the file system.
	// It does not imply that Input is seekable.
	IsRealFile bool
	// MimeType is the detected content type, empty unless detection ran.
	MimeType string
	// ArchiveRecursionDepth is 0 for files on the file system and grows by
	// one for every container the file is nested in.
	ArchiveRecursionDepth int
	// Input is the raw file content.
	Input io.Reader
	// Output receives the text. It is drained by another goroutine.
	Output io.Writer
	// LinePrefix is prepended to every output line to show where a nested
	// file came from.
	LinePrefix string
	Config     Config
}

func (ai *Info) logger() *slog.Logger {
	if ai.Config.Logger != nil {
		return ai.Config.Logger
	}
	return slog.Default()
}

// recurse hands a nested file to the preprocessor, one level deeper.
func (ai *Info) recurse(ctx context.Context, name string, r io.Reader, prefix string) error {
	if ai.Config.Recurse == nil {
		ai.logger().Debug("no recursion configured, skipping nested file", "file", name)
		return nil
	}
	return ai.Config.Recurse(ctx, Info{
		FilepathHint:          name,
		IsRealFile:            false,
		ArchiveRecursionDepth: ai.ArchiveRecursionDepth + 1,
		Input:                 r,
		Output:                ai.Output,
		LinePrefix:            prefix,
		Config:                ai.Config,
	})
}

// Error is returned when an adapter fails. It names the adapter.
type Error struct {
	Adapter string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("adapter %s: %v", e.Adapter, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BinaryUser is implemented by adapters that run an external program.
type BinaryUser interface {
	Binary() string
}

// Binaries returns the external programs the adapters need, without duplicates.
func Binaries(adapters []Adapter) []string {
	var out []string
	seen := make(map[string]bool)
	for _, a := range adapters {
		b, ok := a.(BinaryUser)
		if !ok || seen[b.Binary()] {
			continue
		}
		seen[b.Binary()] = true
		out = append(out, b.Binary())
	}
	return out
}
