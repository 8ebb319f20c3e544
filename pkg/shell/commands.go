package shell

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Existing describes what already occupies a target path.
type Existing int

const (
	Absent Existing = iota
	ExistingFile
	ExistingDir
)

// Copy builds the command that copies src to dst. An existing directory
// target is merged into; any other occupant is replaced.
func Copy(src, dst string, recursive bool, existing Existing) string {
	switch {
	case recursive && existing == ExistingDir:
		return "cp -R " + shellquote.Join(strings.TrimRight(src, "/")+"/.", dst)
	case recursive && existing == ExistingFile:
		return Remove(dst) + " && cp -R " + shellquote.Join(src, dst)
	case recursive:
		return "cp -R " + shellquote.Join(src, dst)
	case existing == ExistingDir:
		return Remove(dst) + " && cp " + shellquote.Join(src, dst)
	default:
		return "cp " + shellquote.Join(src, dst)
	}
}

// Remove builds a recursive delete of path.
func Remove(path string) string {
	return "rm -r " + shellquote.Join(path)
}

// Mkdir builds a directory creation, replacing whatever is at path.
func Mkdir(path string, existing Existing) string {
	if existing != Absent {
		return Remove(path) + " && mkdir " + shellquote.Join(path)
	}
	return "mkdir " + shellquote.Join(path)
}

// CreateFile builds an empty-file creation. An existing file is truncated and
// an existing directory is replaced.
func CreateFile(path string, existing Existing) string {
	if existing == ExistingDir {
		return Remove(path) + " && : > " + shellquote.Join(path)
	}
	return ": > " + shellquote.Join(path)
}

// OpenArgs splits an opener command line and appends path as the last
// argument.
func OpenArgs(command, path string) ([]string, error) {
	args, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("invalid opener %q: %w", command, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("invalid opener %q: empty command", command)
	}
	return append(args, path), nil
}

// Open builds the command line launching an opener on path. Detached
// launches return immediately and discard the application's output.
func Open(command, path string, detach bool) (string, error) {
	args, err := OpenArgs(command, path)
	if err != nil {
		return "", err
	}
	line := shellquote.Join(args...)
	if detach {
		line += " >/dev/null 2>&1 &"
	}
	return line, nil
}
