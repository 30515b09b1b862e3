package adapter

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// FileMeta is what a matcher gets to look at
type FileMeta struct {
	// LosslessFilename is the path hint of the file. It may not exist on disk.
	LosslessFilename string
	// MimeType is the detected content type, empty when detection is off
	// or inconclusive.
	MimeType string
}

// FastMatcher is a cheap rule that only looks at the file name.
type FastMatcher interface {
	matchName(filename string) bool
	String() string
}

// SlowMatcher is a rule that may need the detected content type.
// It is either a wrapped FastMatcher (Fast) or a MimeType.
type SlowMatcher interface {
	match(f FileMeta) bool
	String() string
}

// FileExtension matches when the file name ends with "." + the extension,
// ignoring case. Multi-part extensions such as "tar.gz" are allowed.
type FileExtension string

func (e FileExtension) matchName(filename string) bool {
	suffix := "." + strings.ToLower(string(e))
	return strings.HasSuffix(strings.ToLower(filename), suffix)
}

func (e FileExtension) String() string {
	return "." + string(e)
}

// FileGlob matches the base name of the file against a glob pattern.
type FileGlob struct {
	pattern string
	g       glob.Glob
}

// Glob compiles pattern into a FileGlob. It panics on an invalid pattern,
// matchers are static data declared next to their adapter.
func Glob(pattern string) FileGlob {
	return FileGlob{pattern: pattern, g: glob.MustCompile(strings.ToLower(pattern))}
}

func (g FileGlob) matchName(filename string) bool {
	return g.g.Match(strings.ToLower(path.Base(filepath.ToSlash(filename))))
}

func (g FileGlob) String() string {
	return g.pattern
}

// Fast lifts a FastMatcher into the SlowMatcher set.
type Fast struct {
	Matcher FastMatcher
}

func (f Fast) match(meta FileMeta) bool {
	return f.Matcher.matchName(meta.LosslessFilename)
}

func (f Fast) String() string {
	return f.Matcher.String()
}

// MimeType matches the detected content type exactly.
type MimeType string

func (m MimeType) match(meta FileMeta) bool {
	return meta.MimeType != "" && string(m) == meta.MimeType
}

func (m MimeType) String() string {
	return string(m)
}

// Matches reports whether m accepts f.
func Matches(m SlowMatcher, f FileMeta) bool {
	return m.match(f)
}
