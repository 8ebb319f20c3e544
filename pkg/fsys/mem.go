package fsys

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Mem is an in-memory FS for tests and dry runs. Children are enumerated in
// insertion order followed by "." and "..", so consumers cannot rely on the
// dot entries coming first.
type Mem struct {
	mu    sync.Mutex
	nodes map[string]*memNode
	now   time.Time
}

type memNode struct {
	meta       Metadata
	children   []string
	unreadable bool
}

// NewMem returns a Mem holding only the root directory.
func NewMem() *Mem {
	m := &Mem{
		nodes: map[string]*memNode{},
		now:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	m.nodes["/"] = &memNode{meta: Metadata{IsDir: true, ModTime: m.now, AccessTime: m.now}}
	return m
}

// MkdirAll creates dir and any missing parents.
func (m *Mem) MkdirAll(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(clean(dir))
}

// WriteFile creates or replaces a regular file, creating parents as needed.
func (m *Mem) WriteFile(path string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = clean(path)
	m.mkdirAll(filepath.Dir(path))
	if n, ok := m.nodes[path]; ok {
		n.meta = Metadata{Size: size, ModTime: m.tick(), AccessTime: m.now}
		n.children = nil
		return
	}
	m.attach(path, &memNode{meta: Metadata{Size: size, ModTime: m.tick(), AccessTime: m.now}})
}

// Symlink records path as a link whose metadata mirrors target.
func (m *Mem) Symlink(target, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = clean(path)
	meta := Metadata{IsSymlink: true, ModTime: m.now, AccessTime: m.now}
	if t, ok := m.nodes[clean(target)]; ok {
		meta.IsDir = t.meta.IsDir
		meta.Size = t.meta.Size
	}
	m.mkdirAll(filepath.Dir(path))
	m.attach(path, &memNode{meta: meta})
}

// SetUnreadable makes ListEntries fail for dir.
func (m *Mem) SetUnreadable(dir string, unreadable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[clean(dir)]; ok {
		n.unreadable = unreadable
	}
}

// RemoveAll deletes path and everything below it.
func (m *Mem) RemoveAll(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = clean(path)
	if path == "/" {
		return
	}
	m.detach(path)
	for p := range m.nodes {
		if p == path || strings.HasPrefix(p, path+"/") {
			delete(m.nodes, p)
		}
	}
}

// CopyTree copies src to dst the way `cp -R` does when dst does not exist.
func (m *Mem) CopyTree(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, dst = clean(src), clean(dst)
	n, ok := m.nodes[src]
	if !ok {
		return &os.PathError{Op: "copy", Path: src, Err: os.ErrNotExist}
	}
	m.copyNode(src, dst, n)
	return nil
}

// Exists reports whether path is present.
func (m *Mem) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.nodes[clean(path)]
	return ok
}

func (m *Mem) ListEntries(dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir = clean(dir)
	n, ok := m.nodes[dir]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: dir, Err: os.ErrNotExist}
	}
	if !n.meta.IsDir {
		return nil, &os.PathError{Op: "readdirent", Path: dir, Err: fmt.Errorf("not a directory")}
	}
	if n.unreadable {
		return nil, &os.PathError{Op: "open", Path: dir, Err: os.ErrPermission}
	}
	out := append([]string(nil), n.children...)
	out = append(out, ".")
	if dir != "/" {
		out = append(out, "..")
	}
	return out, nil
}

func (m *Mem) Stat(path string) (Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[clean(path)]
	if !ok {
		return Metadata{}, &os.PathError{Op: "lstat", Path: path, Err: os.ErrNotExist}
	}
	return n.meta, nil
}

func (m *Mem) Rename(oldPath, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	oldPath, newPath = clean(oldPath), clean(newPath)
	n, ok := m.nodes[oldPath]
	if !ok {
		return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: os.ErrNotExist}
	}
	parent, ok := m.nodes[filepath.Dir(newPath)]
	if !ok || !parent.meta.IsDir {
		return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: os.ErrNotExist}
	}
	m.copyNode(oldPath, newPath, n)
	m.detach(oldPath)
	for p := range m.nodes {
		if p == oldPath || strings.HasPrefix(p, oldPath+"/") {
			delete(m.nodes, p)
		}
	}
	return nil
}

func (m *Mem) copyNode(src, dst string, n *memNode) {
	cp := &memNode{meta: n.meta, unreadable: n.unreadable}
	if existing, ok := m.nodes[dst]; ok {
		existing.meta = cp.meta
	} else {
		m.attach(dst, cp)
	}
	for _, child := range n.children {
		if c, ok := m.nodes[filepath.Join(src, child)]; ok {
			m.copyNode(filepath.Join(src, child), filepath.Join(dst, child), c)
		}
	}
}

func (m *Mem) mkdirAll(dir string) {
	if _, ok := m.nodes[dir]; ok {
		return
	}
	m.mkdirAll(filepath.Dir(dir))
	m.attach(dir, &memNode{meta: Metadata{IsDir: true, ModTime: m.tick(), AccessTime: m.now}})
}

func (m *Mem) attach(path string, n *memNode) {
	m.nodes[path] = n
	parent := m.nodes[filepath.Dir(path)]
	if parent == nil {
		return
	}
	name := filepath.Base(path)
	for _, c := range parent.children {
		if c == name {
			return
		}
	}
	parent.children = append(parent.children, name)
}

func (m *Mem) detach(path string) {
	parent := m.nodes[filepath.Dir(path)]
	if parent == nil {
		return
	}
	name := filepath.Base(path)
	for i, c := range parent.children {
		if c == name {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			return
		}
	}
}

func (m *Mem) tick() time.Time {
	m.now = m.now.Add(time.Minute)
	return m.now
}

func clean(p string) string {
	p = filepath.Clean("/" + strings.TrimPrefix(p, "/"))
	return filepath.ToSlash(p)
}
