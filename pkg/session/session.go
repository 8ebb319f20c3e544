// Package session pairs two panels with the shared clipboard and routes
// operations to the active one. Operations that shell out or touch both
// panels live here.
package session

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"twinpane/pkg/fsys"
	"twinpane/pkg/opener"
	"twinpane/pkg/panel"
	"twinpane/pkg/shell"
)

// PanelChrome is the number of rows a panel box spends outside its listing:
// border top, path line, column header, separator, footer and border bottom.
const PanelChrome = 6

// Options configures a Session. Zero values get host defaults.
type Options struct {
	FS        fsys.FS
	Runner    shell.Runner
	Openers   *opener.Table
	Clipboard *panel.Clipboard
	StartDir  string
	Logger    *slog.Logger
}

// Session holds exactly two panels, one of which is active.
type Session struct {
	panels    [2]*panel.Panel
	active    panel.ID
	clipboard *panel.Clipboard
	runner    shell.Runner
	openers   *opener.Table
	fs        fsys.FS
	log       *slog.Logger

	width, height, statusRows int
}

// New creates both panels in opts.StartDir. The session is usable even when
// the returned error reports that the start directory could not be listed.
func New(opts Options) (*Session, error) {
	s := &Session{
		clipboard: opts.Clipboard,
		runner:    opts.Runner,
		openers:   opts.Openers,
		fs:        opts.FS,
		log:       opts.Logger,
		active:    panel.A,
	}
	if s.fs == nil {
		s.fs = fsys.NewOS()
	}
	if s.runner == nil {
		s.runner = shell.NewExecRunner()
	}
	if s.openers == nil {
		s.openers = opener.New(opener.App{}, nil)
	}
	if s.clipboard == nil {
		s.clipboard = panel.NewClipboard()
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	dir := opts.StartDir
	if dir == "" {
		dir = "."
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	var errs []error
	for _, id := range []panel.ID{panel.A, panel.B} {
		p, err := panel.New(id, s.fs, dir)
		if err != nil {
			errs = append(errs, err)
		}
		s.panels[id] = p
	}
	if len(errs) > 0 {
		return s, errs[0]
	}
	return s, nil
}

// Panel returns the panel with the given id.
func (s *Session) Panel(id panel.ID) *panel.Panel { return s.panels[id] }

func (s *Session) ActiveID() panel.ID { return s.active }

// Active is the panel receiving input.
func (s *Session) Active() *panel.Panel { return s.panels[s.active] }

func (s *Session) Other() *panel.Panel { return s.panels[1-s.active] }

func (s *Session) Clipboard() *panel.Clipboard { return s.clipboard }

// Toggle makes the other panel active.
func (s *Session) Toggle() {
	s.active = 1 - s.active
}

// Layout splits width into two equal columns and sizes both panels' scroll
// windows for height.
func (s *Session) Layout(width, height, statusRows int) {
	s.width, s.height, s.statusRows = width, height, statusRows
	rows := height - statusRows - PanelChrome
	for _, p := range s.panels {
		p.SetVisibleRows(rows)
	}
}

// Relayout reapplies the last layout.
func (s *Session) Relayout() {
	s.Layout(s.width, s.height, s.statusRows)
}

// ColumnWidth is the width of one panel column.
func (s *Session) ColumnWidth() int { return s.width / 2 }

// Size returns the last terminal size given to Layout.
func (s *Session) Size() (int, int) { return s.width, s.height }

// Enter changes into the selected directory. For files it returns an open
// plan the caller launches.
func (s *Session) Enter() (*OpenPlan, error) {
	p := s.Active()
	e, ok := p.Selected()
	if !ok {
		return nil, panel.NewError(panel.NoSelection, "nothing selected", p.Path(), nil)
	}
	if e.IsParent() || e.IsDir {
		return nil, p.ChangeDirectory(panel.Into)
	}
	plan, err := s.Open()
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// Copy records the active panel's selection in the clipboard.
func (s *Session) Copy() (string, error) {
	path, err := s.clipboard.Copy(s.Active())
	if err != nil {
		return "", err
	}
	s.log.Debug("session: copied", slog.String("path", path), slog.String("panel", s.active.String()))
	return path, nil
}

// Reload re-lists every panel showing dir, keeping selections.
func (s *Session) Reload(dir string) error {
	var errs []error
	for _, p := range s.panels {
		if p.Path() == dir {
			if err := p.Reload(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// afterChange refreshes the panel an operation ran in. The other panel is
// moved off target if it shows target or a directory below it, and reloaded
// if it shows dir.
func (s *Session) afterChange(id panel.ID, dir, target string) error {
	err := s.panels[id].Refresh()
	other := s.panels[1-id]
	var rerr error
	switch {
	case within(other.Path(), target):
		rerr = other.Retreat()
	case other.Path() == dir:
		rerr = other.Reload()
	}
	if rerr != nil {
		s.log.Debug("session: reload failed", slog.String("dir", other.Path()), slog.Any("err", rerr))
	}
	return err
}

// within reports whether path is root or lies below it.
func within(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(root, string(filepath.Separator))+string(filepath.Separator))
}

func (s *Session) run(ctx context.Context, command string) error {
	status, err := s.runner.Run(ctx, command)
	if err == nil && status == 0 {
		s.log.Info("session: command", slog.String("command", command))
		return nil
	}
	s.log.Warn("session: command failed", slog.String("command", command), slog.Int("status", status), slog.Any("err", err))
	if err == nil {
		err = errors.New("non-zero exit status")
	}
	return panel.NewError(panel.ExternalCommandFailed, "command failed", command, err)
}

func (s *Session) existing(path string) shell.Existing {
	meta, err := s.fs.Stat(path)
	switch {
	case err != nil:
		return shell.Absent
	case meta.IsDir:
		return shell.ExistingDir
	default:
		return shell.ExistingFile
	}
}
