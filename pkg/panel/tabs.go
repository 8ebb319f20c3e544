package panel

// TabCapacity is the number of bookmark slots per panel.
const TabCapacity = 10

const noTab = -1

// Tab is a bookmark slot: either empty or bound to a directory path. The empty
// string is a valid bound path.
type Tab struct {
	path  string
	bound bool
}

// Bound returns a tab bookmarking path.
func Bound(path string) Tab { return Tab{path: path, bound: true} }

// Path returns the bookmarked path and whether the slot is bound.
func (t Tab) Path() (string, bool) { return t.path, t.bound }

// IsEmpty reports whether the slot holds no bookmark.
func (t Tab) IsEmpty() bool { return !t.bound }

// Tabs returns a snapshot of the panel's bookmark slots.
func (p *Panel) Tabs() [TabCapacity]Tab { return p.tabs }

// ActiveTab returns the active slot, if any.
func (p *Panel) ActiveTab() (int, bool) {
	if p.activeTab == noTab {
		return 0, false
	}
	return p.activeTab, true
}

// Bookmark binds the current directory to a slot and makes it active. A
// directory that is already bookmarked re-selects its existing slot.
func (p *Panel) Bookmark() (int, error) {
	for i, t := range p.tabs {
		if path, ok := t.Path(); ok && path == p.path {
			p.activeTab = i
			return i, nil
		}
	}
	for i, t := range p.tabs {
		if t.IsEmpty() {
			p.tabs[i] = Bound(p.path)
			p.activeTab = i
			return i, nil
		}
	}
	return noTab, NewError(TabCapacityExceeded, "all tab slots are in use", p.path, nil)
}

// SwitchTab navigates to the directory bound in slot i. Empty or out of range
// slots are ignored.
func (p *Panel) SwitchTab(i int) error {
	if i < 0 || i >= TabCapacity {
		return nil
	}
	path, ok := p.tabs[i].Path()
	if !ok {
		return nil
	}
	if err := p.checkDir(path); err != nil {
		return err
	}
	p.activeTab = i
	p.path = path
	return p.Refresh()
}

// DeleteTab clears slot i. Slots are never compacted; only the active index
// is renumbered. When the active slot is cleared the panel falls back to slot
// 0, navigating there if it is bound.
//
// Clearing a slot below the active one decrements the active index without
// checking the slot it lands on, so ActiveTab may report an empty slot.
// Callers that display the active tab should check Tabs()[i].IsEmpty().
func (p *Panel) DeleteTab(i int) error {
	if i < 0 || i >= TabCapacity || p.tabs[i].IsEmpty() {
		return nil
	}
	p.tabs[i] = Tab{}

	switch {
	case p.activeTab == i:
		p.activeTab = noTab
		path, ok := p.tabs[0].Path()
		if !ok {
			return nil
		}
		p.activeTab = 0
		return p.navigate(path)
	case p.activeTab > i:
		// Renumbered even if the slot below is empty.
		p.activeTab--
	}
	return nil
}
