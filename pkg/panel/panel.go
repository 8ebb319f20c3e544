// Package panel implements a single directory browser: its listing, the
// selection and scroll window, per-panel bookmarks and rename. The shared
// copy source lives in a Clipboard owned by the caller.
package panel

import (
	"path/filepath"
	"strings"

	"twinpane/pkg/fsys"
)

// ID identifies one of the two panels of a session.
type ID int

const (
	A ID = iota
	B
)

func (id ID) String() string {
	if id == B {
		return "B"
	}
	return "A"
}

// Direction selects the target of ChangeDirectory.
type Direction int

const (
	Up Direction = iota
	Into
)

// Panel is a directory browser bound to one directory at a time.
type Panel struct {
	id ID
	fs fsys.FS

	path    string
	entries []Entry

	selected    int
	scroll      int
	visibleRows int

	tabs      [TabCapacity]Tab
	activeTab int
}

// New creates a panel in dir and loads its listing. The panel is usable even
// when the returned error reports an unreadable directory.
func New(id ID, fs fsys.FS, dir string) (*Panel, error) {
	p := &Panel{
		id:          id,
		fs:          fs,
		path:        filepath.Clean(dir),
		visibleRows: 1,
		activeTab:   noTab,
	}
	return p, p.Refresh()
}

func (p *Panel) ID() ID { return p.id }

// Path is the current directory.
func (p *Panel) Path() string { return p.path }

func (p *Panel) Selection() int   { return p.selected }
func (p *Panel) Scroll() int      { return p.scroll }
func (p *Panel) VisibleRows() int { return p.visibleRows }
func (p *Panel) Len() int         { return len(p.entries) }

// Entries returns a copy of the listing, ".." first when present.
func (p *Panel) Entries() []Entry { return append([]Entry(nil), p.entries...) }

// Join resolves name against the current directory.
func (p *Panel) Join(name string) string { return filepath.Join(p.path, name) }

// Visible returns the entries inside the scroll window.
func (p *Panel) Visible() []Entry {
	if len(p.entries) == 0 {
		return nil
	}
	end := min(p.scroll+p.visibleRows, len(p.entries))
	return p.entries[p.scroll:end]
}

// Selected returns the selected entry.
func (p *Panel) Selected() (Entry, bool) {
	if len(p.entries) == 0 {
		return Entry{}, false
	}
	return p.entries[p.selected], true
}

// SelectedPath returns the absolute path of the selected entry.
func (p *Panel) SelectedPath() (string, bool) {
	e, ok := p.Selected()
	if !ok {
		return "", false
	}
	return p.Join(e.Name), true
}

// Refresh re-enumerates the current directory and resets selection and
// scroll. "." is dropped and ".." is moved to the front.
func (p *Panel) Refresh() error {
	p.selected = 0
	p.scroll = 0

	names, err := p.fs.ListEntries(p.path)
	if err != nil {
		p.entries = nil
		return NewError(DirectoryUnreadable, "cannot read directory", p.path, err)
	}

	entries := make([]Entry, 0, len(names))
	hasParent := false
	for _, name := range names {
		switch name {
		case ".":
			continue
		case ParentName:
			hasParent = true
			continue
		}
		entries = append(entries, p.entry(name))
	}
	if hasParent {
		entries = append([]Entry{p.entry(ParentName)}, entries...)
	}
	p.entries = entries
	return nil
}

// Reload re-enumerates like Refresh but keeps the selection on the same name
// and the scroll offset when possible.
func (p *Panel) Reload() error {
	name := ""
	if e, ok := p.Selected(); ok {
		name = e.Name
	}
	scroll := p.scroll

	if err := p.Refresh(); err != nil {
		return err
	}
	for i, e := range p.entries {
		if e.Name == name {
			p.selected = i
			break
		}
	}
	p.scroll = scroll
	p.keepVisible()
	return nil
}

func (p *Panel) entry(name string) Entry {
	target := filepath.Join(p.path, name)
	if name == ParentName {
		target = filepath.Dir(p.path)
	}
	meta, err := p.fs.Stat(target)
	if err != nil {
		return Entry{Name: name}
	}
	return entryFromMeta(name, meta)
}

// MoveSelection moves the selection by delta with wraparound and scrolls the
// minimum amount needed to keep it visible.
func (p *Panel) MoveSelection(delta int) {
	n := len(p.entries)
	if n == 0 {
		return
	}
	p.selected = ((p.selected+delta)%n + n) % n
	p.keepVisible()
}

// SetVisibleRows sets the height of the scroll window, at least one row.
func (p *Panel) SetVisibleRows(rows int) {
	p.visibleRows = max(rows, 1)
	p.keepVisible()
}

func (p *Panel) keepVisible() {
	n := len(p.entries)
	if n == 0 {
		p.selected, p.scroll = 0, 0
		return
	}
	p.selected = clampInt(p.selected, 0, n-1)
	p.scroll = clampInt(p.scroll, 0, max(0, n-p.visibleRows))

	if p.selected < p.scroll {
		p.scroll = p.selected
	} else if p.selected >= p.scroll+p.visibleRows {
		p.scroll = p.selected - p.visibleRows + 1
	}
}

// ChangeDirectory moves to the parent directory or into the selected one.
// Into on ".." behaves like Up.
func (p *Panel) ChangeDirectory(dir Direction) error {
	if dir == Up {
		parent := filepath.Dir(p.path)
		if parent == p.path {
			return nil
		}
		return p.navigate(parent)
	}

	e, ok := p.Selected()
	if !ok {
		return NewError(NavigationFailed, "nothing selected", p.path, nil)
	}
	switch e.Name {
	case ParentName:
		return p.ChangeDirectory(Up)
	case ".":
		return NewError(NavigationFailed, "not a directory", p.Join(e.Name), nil)
	}
	return p.navigate(p.Join(e.Name))
}

// Retreat keeps the panel on an existing directory after its path, or a
// directory above it, was removed or replaced. It moves to the nearest
// ancestor that still is a directory and refreshes; when the path itself
// still exists it reloads in place.
func (p *Panel) Retreat() error {
	dir := p.path
	for {
		if meta, err := p.fs.Stat(dir); err == nil && meta.IsDir {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if dir == p.path {
		return p.Reload()
	}
	p.path = dir
	return p.Refresh()
}

func (p *Panel) navigate(dir string) error {
	if err := p.checkDir(dir); err != nil {
		return err
	}
	p.path = dir
	return p.Refresh()
}

func (p *Panel) checkDir(dir string) error {
	meta, err := p.fs.Stat(dir)
	if err != nil {
		return NewError(NavigationFailed, "cannot enter", dir, err)
	}
	if !meta.IsDir {
		return NewError(NavigationFailed, "not a directory", dir, nil)
	}
	return nil
}

// CheckName rejects names that cannot denote a single entry of the current
// directory.
func CheckName(name string) error {
	switch {
	case name == "":
		return NewError(InvalidName, "name is empty", "", nil)
	case name == "." || name == ParentName:
		return NewError(InvalidName, "reserved name", name, nil)
	case strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator):
		return NewError(InvalidName, "name contains a path separator", name, nil)
	}
	return nil
}

// Rename renames the selected entry. The name is validated against the
// current listing, case-sensitively, before the filesystem is touched.
func (p *Panel) Rename(newName string) error {
	e, ok := p.Selected()
	if !ok || e.IsParent() {
		return NewError(NoSelection, "nothing to rename", p.path, nil)
	}
	if err := CheckName(newName); err != nil {
		return err
	}
	for _, other := range p.entries {
		if other.Name == newName {
			return NewError(InvalidName, "name already exists", p.Join(newName), nil)
		}
	}

	if err := p.fs.Rename(p.Join(e.Name), p.Join(newName)); err != nil {
		return NewError(RenameFailed, "rename failed", p.Join(e.Name), err)
	}
	return p.Refresh()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
