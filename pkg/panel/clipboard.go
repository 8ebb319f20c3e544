package panel

import "path/filepath"

// Clipboard holds at most one pending copy source. A Session owns one and
// shares it between both panels.
type Clipboard struct {
	source string
	owner  ID
	set    bool
}

// NewClipboard returns an empty clipboard.
func NewClipboard() *Clipboard { return &Clipboard{} }

// Copy records the selection of p as the pending source, replacing any
// previous one.
func (c *Clipboard) Copy(p *Panel) (string, error) {
	e, ok := p.Selected()
	if !ok || e.IsParent() {
		return "", NewError(NoSelection, "nothing to copy", p.Path(), nil)
	}
	c.source = filepath.Join(p.Path(), e.Name)
	c.owner = p.ID()
	c.set = true
	return c.source, nil
}

// Source returns the pending source path and the panel it was copied from.
func (c *Clipboard) Source() (path string, owner ID, ok bool) {
	return c.source, c.owner, c.set
}

// IsEmpty reports whether nothing has been copied yet.
func (c *Clipboard) IsEmpty() bool { return !c.set }
