package session

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"twinpane/pkg/opener"
	"twinpane/pkg/panel"
	"twinpane/pkg/shell"
)

// OpenPlan is a resolved open of the selected file.
type OpenPlan struct {
	Path string
	App  opener.App
	// Args is the opener argv with Path appended.
	Args []string
}

// Open resolves the opener for the active panel's selection without
// launching anything.
func (s *Session) Open() (OpenPlan, error) {
	p := s.Active()
	e, ok := p.Selected()
	if !ok || e.IsParent() {
		return OpenPlan{}, panel.NewError(panel.NoSelection, "nothing to open", p.Path(), nil)
	}
	path := p.Join(e.Name)
	meta, err := s.fs.Stat(path)
	if err != nil {
		return OpenPlan{}, panel.NewError(panel.SourceUnavailable, "cannot stat", path, err)
	}
	if meta.IsDir {
		return OpenPlan{}, panel.NewError(panel.UnsupportedFileType, "cannot open a directory", path, nil)
	}

	app, err := s.openers.Lookup(e.Name)
	if err != nil {
		return OpenPlan{}, err
	}
	args, err := shell.OpenArgs(app.Command, path)
	if err != nil {
		return OpenPlan{}, panel.NewError(panel.ExternalCommandFailed, "", path, err)
	}
	return OpenPlan{Path: path, App: app, Args: args}, nil
}

// CommitOpen launches a non-terminal opener in the background.
func (s *Session) CommitOpen(ctx context.Context, plan OpenPlan) error {
	line, err := shell.Open(plan.App.Command, plan.Path, true)
	if err != nil {
		return panel.NewError(panel.ExternalCommandFailed, "", plan.Path, err)
	}
	return s.run(ctx, line)
}

// Info is the metadata shown for the selection.
type Info struct {
	Name       string
	Extension  string
	Path       string
	Size       int64
	ModTime    time.Time
	AccessTime time.Time
	IsDir      bool
	IsSymlink  bool
}

// Info stats the active panel's selection.
func (s *Session) Info() (Info, error) {
	p := s.Active()
	e, ok := p.Selected()
	if !ok {
		return Info{}, panel.NewError(panel.NoSelection, "nothing selected", p.Path(), nil)
	}
	path := p.Join(e.Name)
	if e.IsParent() {
		path = filepath.Dir(p.Path())
	}
	meta, err := s.fs.Stat(path)
	if err != nil {
		return Info{}, panel.NewError(panel.SourceUnavailable, "cannot stat", path, err)
	}
	return Info{
		Name:       e.Name,
		Extension:  e.Extension(),
		Path:       path,
		Size:       meta.Size,
		ModTime:    meta.ModTime,
		AccessTime: meta.AccessTime,
		IsDir:      meta.IsDir,
		IsSymlink:  meta.IsSymlink,
	}, nil
}

// DeletePlan is a delete waiting for confirmation.
type DeletePlan struct {
	Panel panel.ID
	Dir   string
	Path  string
	Name  string
	IsDir bool
}

// Prompt is the confirmation question for the plan.
func (p DeletePlan) Prompt() string {
	kind := "file"
	if p.IsDir {
		kind = "directory"
	}
	return fmt.Sprintf("Are you sure you want to delete the %s '%s'? (y/n)", kind, p.Name)
}

// PrepareDelete resolves the active panel's selection for deletion.
func (s *Session) PrepareDelete() (DeletePlan, error) {
	p := s.Active()
	e, ok := p.Selected()
	if !ok || e.IsParent() {
		return DeletePlan{}, panel.NewError(panel.NoSelection, "nothing to delete", p.Path(), nil)
	}
	return DeletePlan{
		Panel: p.ID(),
		Dir:   p.Path(),
		Path:  p.Join(e.Name),
		Name:  e.Name,
		IsDir: e.IsDir && !e.IsSymlink,
	}, nil
}

// Delete removes the planned entry and refreshes.
func (s *Session) Delete(ctx context.Context, plan DeletePlan) error {
	runErr := s.run(ctx, shell.Remove(plan.Path))
	refreshErr := s.afterChange(plan.Panel, plan.Dir, plan.Path)
	if runErr != nil {
		return runErr
	}
	return refreshErr
}

// CreatePlan is a file or directory creation in the active panel.
type CreatePlan struct {
	Panel    panel.ID
	Dir      string
	Path     string
	Name     string
	MakeDir  bool
	Existing shell.Existing
}

// Conflict reports whether something already occupies Path.
func (p CreatePlan) Conflict() bool { return p.Existing != shell.Absent }

// Prompt is the confirmation question asked on conflict.
func (p CreatePlan) Prompt() string {
	if !p.MakeDir && p.Existing == shell.ExistingDir {
		return "A directory with the same name exists. Delete it? (y/n)"
	}
	return "Already exists. Overwrite? (y/n)"
}

// PlanCreate validates name and checks what already occupies it.
func (s *Session) PlanCreate(name string, makeDir bool) (CreatePlan, error) {
	if err := panel.CheckName(name); err != nil {
		return CreatePlan{}, err
	}
	p := s.Active()
	path := p.Join(name)
	return CreatePlan{
		Panel:    p.ID(),
		Dir:      p.Path(),
		Path:     path,
		Name:     name,
		MakeDir:  makeDir,
		Existing: s.existing(path),
	}, nil
}

// CommitCreate runs the planned creation, replacing any occupant.
func (s *Session) CommitCreate(ctx context.Context, plan CreatePlan) error {
	cmd := shell.CreateFile(plan.Path, plan.Existing)
	if plan.MakeDir {
		cmd = shell.Mkdir(plan.Path, plan.Existing)
	}
	runErr := s.run(ctx, cmd)
	refreshErr := s.afterChange(plan.Panel, plan.Dir, plan.Path)
	if runErr != nil {
		return runErr
	}
	return refreshErr
}

// MakeDirectory creates name in the active panel without asking.
func (s *Session) MakeDirectory(ctx context.Context, name string) error {
	plan, err := s.PlanCreate(name, true)
	if err != nil {
		return err
	}
	return s.CommitCreate(ctx, plan)
}

// CreateFile creates or truncates name in the active panel without asking.
func (s *Session) CreateFile(ctx context.Context, name string) error {
	plan, err := s.PlanCreate(name, false)
	if err != nil {
		return err
	}
	return s.CommitCreate(ctx, plan)
}
