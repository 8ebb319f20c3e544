// Package fsys is the filesystem capability consumed by panels: directory
// enumeration, metadata lookup and rename.
package fsys

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Metadata is what a panel needs to know about a single path.
type Metadata struct {
	Size       int64
	ModTime    time.Time
	AccessTime time.Time
	IsDir      bool
	IsSymlink  bool
}

// FS is the filesystem surface panels depend on.
type FS interface {
	// ListEntries returns the names in dir in enumeration order. Like readdir(3),
	// the result includes "." and "..".
	ListEntries(dir string) ([]string, error)

	// Stat follows symlinks for IsDir/Size but reports IsSymlink for the link itself.
	Stat(path string) (Metadata, error)

	Rename(oldPath, newPath string) error
}

// OS implements FS over the host filesystem.
type OS struct{}

// NewOS returns the host filesystem capability.
func NewOS() OS { return OS{} }

func (OS) ListEntries(dir string) ([]string, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names, err := f.Readdirnames(-1)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	out := make([]string, 0, len(names)+2)
	out = append(out, ".")
	// The root's ".." points at itself; leave it out so Into on it is never offered.
	if filepath.Clean(dir) != string(filepath.Separator) {
		out = append(out, "..")
	}
	return append(out, names...), nil
}

func (OS) Stat(path string) (Metadata, error) {
	lst, err := os.Lstat(path)
	if err != nil {
		return Metadata{}, err
	}
	info := lst
	isLink := lst.Mode()&os.ModeSymlink != 0
	if isLink {
		// A dangling link still reports as a (non-directory) link.
		if target, terr := os.Stat(path); terr == nil {
			info = target
		}
	}
	return Metadata{
		Size:       info.Size(),
		ModTime:    info.ModTime(),
		AccessTime: accessTime(info),
		IsDir:      info.IsDir(),
		IsSymlink:  isLink,
	}, nil
}

func (OS) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}
