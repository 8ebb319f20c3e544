package panel

import (
	"path/filepath"
	"strings"
	"time"

	"twinpane/pkg/fsys"
)

// ParentName is the synthetic entry that leads to the parent directory.
const ParentName = ".."

// Entry is one row of a panel listing.
type Entry struct {
	Name       string
	Size       int64
	ModTime    time.Time
	AccessTime time.Time
	IsDir      bool
	IsSymlink  bool
	// HasMeta is false when the entry was listed but could not be stat'ed.
	HasMeta bool
}

// IsParent reports whether e is the ".." entry.
func (e Entry) IsParent() bool { return e.Name == ParentName }

// Extension returns the lowercased text after the last '.' of the name, or "".
func (e Entry) Extension() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(e.Name), "."))
}

func entryFromMeta(name string, meta fsys.Metadata) Entry {
	return Entry{
		Name:       name,
		Size:       meta.Size,
		ModTime:    meta.ModTime,
		AccessTime: meta.AccessTime,
		IsDir:      meta.IsDir,
		IsSymlink:  meta.IsSymlink,
		HasMeta:    true,
	}
}
