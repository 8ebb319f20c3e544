package session

import (
	"context"
	"log/slog"
	"path/filepath"

	"twinpane/pkg/panel"
	"twinpane/pkg/shell"
)

// OverwritePrompt is asked before a paste replaces an existing entry.
const OverwritePrompt = "File already exists. Overwrite? (y/n)"

// PastePlan is a resolved paste waiting for commit.
type PastePlan struct {
	Source     string
	Target     panel.ID
	TargetDir  string
	TargetFile string
	Recursive  bool
	Existing   shell.Existing
}

// Conflict reports whether TargetFile already exists.
func (p PastePlan) Conflict() bool { return p.Existing != shell.Absent }

// PreparePaste resolves the clipboard source against the active panel.
func (s *Session) PreparePaste() (PastePlan, error) {
	src, _, ok := s.clipboard.Source()
	if !ok {
		return PastePlan{}, panel.NewError(panel.ClipboardEmpty, "nothing copied", "", nil)
	}
	meta, err := s.fs.Stat(src)
	if err != nil {
		return PastePlan{}, panel.NewError(panel.SourceUnavailable, "copied entry is gone", src, err)
	}

	target := s.Active()
	file := target.Join(filepath.Base(src))
	return PastePlan{
		Source:     src,
		Target:     target.ID(),
		TargetDir:  target.Path(),
		TargetFile: file,
		Recursive:  meta.IsDir,
		Existing:   s.existing(file),
	}, nil
}

// CommitPaste runs the copy and refreshes the target panel, also when the
// copy fails. The clipboard is left as it is.
func (s *Session) CommitPaste(ctx context.Context, plan PastePlan) error {
	cmd := shell.Copy(plan.Source, plan.TargetFile, plan.Recursive, plan.Existing)
	runErr := s.run(ctx, cmd)
	s.log.Debug("session: paste", slog.String("source", plan.Source), slog.String("target", plan.TargetFile))

	refreshErr := s.afterChange(plan.Target, plan.TargetDir, plan.TargetFile)
	if runErr != nil {
		return runErr
	}
	return refreshErr
}
