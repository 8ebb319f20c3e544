package session

import (
	"context"
	"strings"
	"testing"

	"github.com/kballard/go-shellquote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twinpane/pkg/fsys"
	"twinpane/pkg/panel"
	"twinpane/pkg/shell"
)

// simulate applies the command lines built by package shell to a Mem.
func simulate(t *testing.T, m *fsys.Mem) func(string) (int, error) {
	return func(command string) (int, error) {
		for _, part := range strings.Split(command, " && ") {
			words, err := shellquote.Split(part)
			require.NoError(t, err)
			switch {
			case words[0] == "cp" && words[1] == "-R":
				require.NoError(t, m.CopyTree(strings.TrimSuffix(words[2], "/."), words[3]))
			case words[0] == "cp":
				require.NoError(t, m.CopyTree(words[1], words[2]))
			case words[0] == "rm":
				m.RemoveAll(words[2])
			case words[0] == "mkdir":
				m.MkdirAll(words[1])
			case words[0] == ":":
				m.WriteFile(words[2], 0)
			case words[0] == "gedit":
				// launched in the background; nothing to apply
			default:
				t.Fatalf("unexpected command %q", part)
			}
		}
		return 0, nil
	}
}

type fixture struct {
	mem    *fsys.Mem
	runner *shell.RecordingRunner
	s      *Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := fsys.NewMem()
	m.WriteFile("/src/f.txt", 10)
	m.MkdirAll("/src/d")
	m.WriteFile("/src/d/inner", 4)
	m.WriteFile("/src/movie.xyz", 1)
	m.MkdirAll("/dst")

	r := &shell.RecordingRunner{}
	r.Hook = simulate(t, m)
	s, err := New(Options{FS: m, Runner: r, StartDir: "/src"})
	require.NoError(t, err)
	return &fixture{mem: m, runner: r, s: s}
}

// cd points panel id at dir through its parent chain.
func (f *fixture) cd(t *testing.T, id panel.ID, dir string) {
	t.Helper()
	p := f.s.Panel(id)
	for p.Path() != "/" {
		require.NoError(t, p.ChangeDirectory(panel.Up))
	}
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		f.selectName(t, id, part)
		require.NoError(t, p.ChangeDirectory(panel.Into))
	}
	require.Equal(t, dir, p.Path())
}

func (f *fixture) selectName(t *testing.T, id panel.ID, name string) {
	t.Helper()
	p := f.s.Panel(id)
	for i, e := range p.Entries() {
		if e.Name == name {
			p.MoveSelection(i - p.Selection())
			return
		}
	}
	t.Fatalf("%s not listed in %s", name, p.Path())
}

func TestToggleRoutesToActivePanel(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, panel.A, f.s.ActiveID())
	assert.Equal(t, panel.B, f.s.Other().ID())

	f.s.Toggle()
	assert.Equal(t, panel.B, f.s.ActiveID())
	assert.Same(t, f.s.Panel(panel.B), f.s.Active())
	f.s.Toggle()
	assert.Equal(t, panel.A, f.s.ActiveID())
}

func TestPasteTwiceIsNonConsuming(t *testing.T) {
	f := newFixture(t)
	f.cd(t, panel.B, "/dst")

	f.selectName(t, panel.A, "f.txt")
	src, err := f.s.Copy()
	require.NoError(t, err)
	assert.Equal(t, "/src/f.txt", src)

	f.s.Toggle()
	plan, err := f.s.PreparePaste()
	require.NoError(t, err)
	assert.False(t, plan.Conflict())
	assert.Equal(t, "/dst/f.txt", plan.TargetFile)
	assert.Equal(t, panel.B, plan.Target)
	require.NoError(t, f.s.CommitPaste(context.Background(), plan))
	assert.Equal(t, "cp /src/f.txt /dst/f.txt", f.runner.Last())
	assert.True(t, f.mem.Exists("/dst/f.txt"))
	assert.Equal(t, 2, f.s.Active().Len())

	plan, err = f.s.PreparePaste()
	require.NoError(t, err)
	assert.True(t, plan.Conflict())
	require.NoError(t, f.s.CommitPaste(context.Background(), plan))
	assert.Len(t, f.runner.Commands, 2)

	_, owner, ok := f.s.Clipboard().Source()
	assert.True(t, ok)
	assert.Equal(t, panel.A, owner)
}

func TestPasteDirectoryMergesIntoExisting(t *testing.T) {
	f := newFixture(t)
	f.cd(t, panel.B, "/dst")
	f.selectName(t, panel.A, "d")
	_, err := f.s.Copy()
	require.NoError(t, err)
	f.s.Toggle()

	plan, err := f.s.PreparePaste()
	require.NoError(t, err)
	assert.True(t, plan.Recursive)
	require.NoError(t, f.s.CommitPaste(context.Background(), plan))
	assert.Equal(t, "cp -R /src/d /dst/d", f.runner.Last())
	assert.True(t, f.mem.Exists("/dst/d/inner"))

	f.mem.WriteFile("/src/d/extra", 1)
	plan, err = f.s.PreparePaste()
	require.NoError(t, err)
	assert.Equal(t, shell.ExistingDir, plan.Existing)
	require.NoError(t, f.s.CommitPaste(context.Background(), plan))
	assert.Equal(t, "cp -R /src/d/. /dst/d", f.runner.Last())
	assert.True(t, f.mem.Exists("/dst/d/extra"))
	assert.False(t, f.mem.Exists("/dst/d/d"))
}

func TestPasteErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.s.PreparePaste()
	assert.ErrorIs(t, err, panel.ErrClipboardEmpty)

	f.selectName(t, panel.A, "f.txt")
	_, err = f.s.Copy()
	require.NoError(t, err)
	f.mem.RemoveAll("/src/f.txt")
	_, err = f.s.PreparePaste()
	assert.ErrorIs(t, err, panel.ErrSourceUnavailable)
	assert.Empty(t, f.runner.Commands)
}

func TestPasteCommandFailureStillRefreshes(t *testing.T) {
	f := newFixture(t)
	f.cd(t, panel.B, "/dst")
	f.selectName(t, panel.A, "f.txt")
	_, err := f.s.Copy()
	require.NoError(t, err)
	f.s.Toggle()

	plan, err := f.s.PreparePaste()
	require.NoError(t, err)
	f.mem.WriteFile("/dst/partial", 1)
	f.runner.Hook = func(string) (int, error) { return 1, assert.AnError }

	err = f.s.CommitPaste(context.Background(), plan)
	require.Error(t, err)
	assert.Equal(t, panel.ExternalCommandFailed, panel.KindOf(err))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, f.s.Active().Len())
	assert.False(t, f.s.Clipboard().IsEmpty())
}

func TestPasteReloadsOtherPanelInSameDirectory(t *testing.T) {
	f := newFixture(t)
	f.selectName(t, panel.A, "f.txt")
	_, err := f.s.Copy()
	require.NoError(t, err)
	f.cd(t, panel.A, "/dst")
	f.cd(t, panel.B, "/dst")

	plan, err := f.s.PreparePaste()
	require.NoError(t, err)
	assert.Equal(t, panel.A, plan.Target)
	require.NoError(t, f.s.CommitPaste(context.Background(), plan))
	assert.Equal(t, 2, f.s.Panel(panel.A).Len())
	assert.Equal(t, 2, f.s.Panel(panel.B).Len())
}

func TestLayout(t *testing.T) {
	f := newFixture(t)
	f.s.Layout(100, 30, 2)
	assert.Equal(t, 50, f.s.ColumnWidth())
	assert.Equal(t, 22, f.s.Panel(panel.A).VisibleRows())
	assert.Equal(t, 22, f.s.Panel(panel.B).VisibleRows())

	f.s.Layout(40, 3, 2)
	assert.Equal(t, 1, f.s.Active().VisibleRows())

	f.s.Panel(panel.A).SetVisibleRows(9)
	f.s.Relayout()
	assert.Equal(t, 1, f.s.Panel(panel.A).VisibleRows())
	w, h := f.s.Size()
	assert.Equal(t, 40, w)
	assert.Equal(t, 3, h)
}

func TestOpen(t *testing.T) {
	f := newFixture(t)

	f.selectName(t, panel.A, "f.txt")
	plan, err := f.s.Open()
	require.NoError(t, err)
	assert.Equal(t, []string{"gedit", "/src/f.txt"}, plan.Args)
	require.NoError(t, f.s.CommitOpen(context.Background(), plan))
	assert.Equal(t, "gedit /src/f.txt >/dev/null 2>&1 &", f.runner.Last())

	f.runner.Commands = nil
	f.selectName(t, panel.A, "d")
	_, err = f.s.Open()
	assert.ErrorIs(t, err, panel.ErrUnsupportedFileType)
	assert.Contains(t, err.Error(), "cannot open a directory")

	f.selectName(t, panel.A, "movie.xyz")
	_, err = f.s.Open()
	assert.ErrorIs(t, err, panel.ErrUnsupportedFileType)
	assert.Empty(t, f.runner.Commands)
}

func TestEnter(t *testing.T) {
	f := newFixture(t)
	f.selectName(t, panel.A, "d")
	plan, err := f.s.Enter()
	require.NoError(t, err)
	assert.Nil(t, plan)
	assert.Equal(t, "/src/d", f.s.Active().Path())

	f.selectName(t, panel.A, "inner")
	plan, err = f.s.Enter()
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, "/src/d/inner", plan.Path)

	f.selectName(t, panel.A, "..")
	_, err = f.s.Enter()
	require.NoError(t, err)
	assert.Equal(t, "/src", f.s.Active().Path())
}

func TestInfo(t *testing.T) {
	f := newFixture(t)
	f.selectName(t, panel.A, "f.txt")
	info, err := f.s.Info()
	require.NoError(t, err)
	assert.Equal(t, "f.txt", info.Name)
	assert.Equal(t, "txt", info.Extension)
	assert.Equal(t, "/src/f.txt", info.Path)
	assert.Equal(t, int64(10), info.Size)
	assert.False(t, info.ModTime.IsZero())

	f.selectName(t, panel.A, "..")
	info, err = f.s.Info()
	require.NoError(t, err)
	assert.Equal(t, "/", info.Path)
	assert.True(t, info.IsDir)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)

	_, err := f.s.PrepareDelete()
	assert.ErrorIs(t, err, panel.ErrNoSelection)

	f.selectName(t, panel.A, "d")
	plan, err := f.s.PrepareDelete()
	require.NoError(t, err)
	assert.Equal(t, "Are you sure you want to delete the directory 'd'? (y/n)", plan.Prompt())
	require.NoError(t, f.s.Delete(context.Background(), plan))
	assert.Equal(t, "rm -r /src/d", f.runner.Last())
	assert.False(t, f.mem.Exists("/src/d"))
	assert.Equal(t, 3, f.s.Active().Len())

	f.selectName(t, panel.A, "f.txt")
	plan, err = f.s.PrepareDelete()
	require.NoError(t, err)
	assert.Equal(t, "Are you sure you want to delete the file 'f.txt'? (y/n)", plan.Prompt())
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.s.MakeDirectory(ctx, "new"))
	assert.Equal(t, "mkdir /src/new", f.runner.Last())
	assert.True(t, f.mem.Exists("/src/new"))

	require.NoError(t, f.s.CreateFile(ctx, "empty.txt"))
	assert.Equal(t, ": > /src/empty.txt", f.runner.Last())

	plan, err := f.s.PlanCreate("d", false)
	require.NoError(t, err)
	assert.True(t, plan.Conflict())
	assert.Equal(t, "A directory with the same name exists. Delete it? (y/n)", plan.Prompt())
	require.NoError(t, f.s.CommitCreate(ctx, plan))
	assert.Equal(t, "rm -r /src/d && : > /src/d", f.runner.Last())
	assert.False(t, f.mem.Exists("/src/d/inner"))

	plan, err = f.s.PlanCreate("f.txt", true)
	require.NoError(t, err)
	assert.Equal(t, "Already exists. Overwrite? (y/n)", plan.Prompt())
	require.NoError(t, f.s.CommitCreate(ctx, plan))
	assert.Equal(t, "rm -r /src/f.txt && mkdir /src/f.txt", f.runner.Last())

	_, err = f.s.PlanCreate("a/b", true)
	assert.ErrorIs(t, err, panel.ErrInvalidName)
}

func TestReloadKeepsSelection(t *testing.T) {
	f := newFixture(t)
	f.selectName(t, panel.A, "movie.xyz")
	f.mem.WriteFile("/src/zzz", 1)
	require.NoError(t, f.s.Reload("/src"))

	e, ok := f.s.Active().Selected()
	require.True(t, ok)
	assert.Equal(t, "movie.xyz", e.Name)
	assert.Equal(t, 5, f.s.Active().Len())
}

func TestDeleteMovesOtherPanelOffRemovedDirectory(t *testing.T) {
	f := newFixture(t)
	f.mem.MkdirAll("/src/d/e")
	f.cd(t, panel.B, "/src/d/e")

	f.selectName(t, panel.A, "d")
	plan, err := f.s.PrepareDelete()
	require.NoError(t, err)
	require.NoError(t, f.s.Delete(context.Background(), plan))
	require.False(t, f.mem.Exists("/src/d"))

	b := f.s.Panel(panel.B)
	assert.Equal(t, "/src", b.Path())
	var names []string
	for _, e := range b.Entries() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"..", "f.txt", "movie.xyz"}, names)
}

func TestDeleteLeavesUnrelatedOtherPanel(t *testing.T) {
	f := newFixture(t)
	f.mem.MkdirAll("/src/dx")
	f.cd(t, panel.B, "/src/dx")

	f.selectName(t, panel.A, "d")
	plan, err := f.s.PrepareDelete()
	require.NoError(t, err)
	require.NoError(t, f.s.Delete(context.Background(), plan))
	assert.Equal(t, "/src/dx", f.s.Panel(panel.B).Path())
}

func TestReplacingDirectoryReloadsOtherPanelInside(t *testing.T) {
	f := newFixture(t)
	f.cd(t, panel.B, "/src/d")
	require.Equal(t, 2, f.s.Panel(panel.B).Len())

	require.NoError(t, f.s.MakeDirectory(context.Background(), "d"))
	assert.Equal(t, "rm -r /src/d && mkdir /src/d", f.runner.Last())

	b := f.s.Panel(panel.B)
	assert.Equal(t, "/src/d", b.Path())
	assert.Equal(t, 1, b.Len())
}

func TestWithin(t *testing.T) {
	assert.True(t, within("/src/d", "/src/d"))
	assert.True(t, within("/src/d/e", "/src/d"))
	assert.False(t, within("/src/dx", "/src/d"))
	assert.False(t, within("/src", "/src/d"))
	assert.True(t, within("/src", "/"))
}
