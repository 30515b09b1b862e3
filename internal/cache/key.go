package cache

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Key identifies one conversion of one file by one adapter version.
type Key struct {
	Adapter string
	Version int
	// Path is the absolute path of the converted file.
	Path    string
	ModTime time.Time
}

// Sum hashes every field of the key.
func (k Key) Sum() uint64 {
	d := xxhash.New()
	d.WriteString(k.Adapter)
	d.WriteString("\x00")
	d.WriteString(strconv.Itoa(k.Version))
	d.WriteString("\x00")
	d.WriteString(k.Path)
	d.WriteString("\x00")
	d.WriteString(strconv.FormatInt(k.ModTime.UnixNano(), 10))
	return d.Sum64()
}

// String is the hash as 16 hex digits.
func (k Key) String() string {
	return fmt.Sprintf("%016x", k.Sum())
}

// StoragePath is where the artifact for k lives in a storage backend,
// fanned out over 256 directories.
func (k Key) StoragePath() string {
	s := k.String()
	return s[:2] + "/" + s + ".zst"
}
