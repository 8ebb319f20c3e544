package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"twinpane/pkg/panel"
	"twinpane/pkg/session"
	"twinpane/pkg/watch"
)

// statusRows is the space below the panels: prompt line and status line.
const statusRows = 2

// RunTUI launches the Bubble Tea UI and blocks until the user quits.
func RunTUI(opts UIOptions) error {
	m, err := newModel(opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// UIOptions wires a session into the UI.
type UIOptions struct {
	Session *session.Session

	// Keymap overrides default bindings by action name.
	Keymap map[string][]string

	// Watcher, when set, reloads panels whose directory changes on disk.
	Watcher *watch.Watcher

	// SystemClipboard mirrors copied paths to the desktop clipboard.
	SystemClipboard bool

	Logger *slog.Logger
}

type promptKind int

const (
	promptNone promptKind = iota
	promptRename
	promptPasteConfirm
	promptDeleteConfirm
	promptCreateName
	promptCreateConfirm
	promptDeleteTab
)

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayHelp
	overlayTabs
	overlayInfo
)

type model struct {
	sess    *session.Session
	keys    *keyMap
	watcher *watch.Watcher
	log     *slog.Logger
	ctx     context.Context

	systemClipboard bool

	input       textinput.Model
	prompt      promptKind
	promptLabel string
	createDir   bool

	pendingPaste  session.PastePlan
	pendingDelete session.DeletePlan
	pendingCreate session.CreatePlan

	overlay overlayKind
	info    session.Info

	status      string
	statusUntil time.Time

	width  int
	height int
}

// dirChangedMsg reports a watched directory that changed on disk.
type dirChangedMsg struct{ dir string }

// openDoneMsg is sent when a terminal opener exits.
type openDoneMsg struct {
	path string
	err  error
}

func newModel(opts UIOptions) (model, error) {
	if opts.Session == nil {
		return model{}, errors.New("manager: session is required")
	}
	keys, err := buildKeyMap(opts.Keymap)
	if err != nil {
		return model{}, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 255
	ti.Width = 40
	ti.Blur()

	return model{
		sess:            opts.Session,
		keys:            keys,
		watcher:         opts.Watcher,
		log:             logger,
		ctx:             context.Background(),
		systemClipboard: opts.SystemClipboard,
		input:           ti,
	}, nil
}

func (m model) Init() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	m.syncWatch()
	return m.waitForChange()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = x.Width
		m.height = x.Height
		m.input.Width = clampInt(m.width-len(m.promptLabel)-4, 10, 80)
		m.sess.Layout(m.width, m.height, statusRows)
		return m, nil

	case dirChangedMsg:
		if err := m.sess.Reload(x.dir); err != nil {
			m.log.Debug("tui: reload after change", slog.String("dir", x.dir), slog.Any("err", err))
		}
		return m, m.waitForChange()

	case openDoneMsg:
		if x.err != nil {
			m.reportErr(panel.NewError(panel.ExternalCommandFailed, "opener failed", x.path, x.err))
		} else {
			m.setStatus("closed "+x.path, 1200*time.Millisecond)
		}
		if err := m.sess.Active().Reload(); err != nil {
			m.log.Debug("tui: reload after open", slog.String("path", x.path), slog.Any("err", err))
		}
		return m, nil

	case tea.KeyMsg:
		if m.overlay != overlayNone && m.prompt == promptNone {
			m.overlay = overlayNone
			return m, nil
		}
		var next tea.Model
		var cmd tea.Cmd
		if m.prompt != promptNone {
			next, cmd = m.handlePromptKeys(x)
		} else {
			next, cmd = m.handleGlobalKeys(x)
		}
		if nm, ok := next.(model); ok {
			nm.syncWatch()
			return nm, cmd
		}
		return next, cmd
	}

	if m.prompt != promptNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handlePromptKeys(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.Type {
	case tea.KeyEsc:
		m.closePrompt()
		m.setStatus("cancelled", 1200*time.Millisecond)
		return m, nil
	case tea.KeyEnter:
		return m.submitPrompt(m.input.Value())
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(k)
	return m, cmd
}

func (m model) submitPrompt(value string) (tea.Model, tea.Cmd) {
	switch m.prompt {
	case promptRename:
		name := strings.TrimSpace(value)
		if name == "" {
			m.setStatus("rename: empty name", 1500*time.Millisecond)
			return m, nil
		}
		old, _ := m.sess.Active().Selected()
		if err := m.sess.Active().Rename(name); err != nil {
			m.reportErr(err)
			if panel.KindOf(err) == panel.InvalidName {
				return m, nil
			}
			m.closePrompt()
			return m, nil
		}
		m.closePrompt()
		m.setStatus("renamed "+old.Name+" -> "+name, 1800*time.Millisecond)
		return m, nil

	case promptPasteConfirm:
		plan := m.pendingPaste
		m.closePrompt()
		if !isYes(value) {
			m.setStatus("paste cancelled", 1200*time.Millisecond)
			return m, nil
		}
		m.commitPaste(plan)
		return m, nil

	case promptDeleteConfirm:
		plan := m.pendingDelete
		m.closePrompt()
		if !isYes(value) {
			m.setStatus("delete cancelled", 1200*time.Millisecond)
			return m, nil
		}
		if err := m.sess.Delete(m.ctx, plan); err != nil {
			m.reportErr(err)
			return m, nil
		}
		m.setStatus("deleted "+plan.Name, 1800*time.Millisecond)
		return m, nil

	case promptCreateName:
		name := strings.TrimSpace(value)
		if name == "" {
			m.setStatus("create: empty name", 1500*time.Millisecond)
			return m, nil
		}
		plan, err := m.sess.PlanCreate(name, m.createDir)
		if err != nil {
			m.reportErr(err)
			return m, nil
		}
		if plan.Conflict() {
			m.pendingCreate = plan
			m.openPrompt(promptCreateConfirm, plan.Prompt(), "")
			return m, nil
		}
		m.closePrompt()
		m.commitCreate(plan)
		return m, nil

	case promptCreateConfirm:
		plan := m.pendingCreate
		m.closePrompt()
		if !isYes(value) {
			m.setStatus("create cancelled", 1200*time.Millisecond)
			return m, nil
		}
		m.commitCreate(plan)
		return m, nil

	case promptDeleteTab:
		m.closePrompt()
		i, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || i < 0 || i >= panel.TabCapacity {
			m.setStatus(fmt.Sprintf("delete tab: expected 0-%d", panel.TabCapacity-1), 1500*time.Millisecond)
			return m, nil
		}
		if err := m.sess.Active().DeleteTab(i); err != nil {
			m.reportErr(err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("deleted tab %d", i), 1200*time.Millisecond)
		return m, nil
	}
	m.closePrompt()
	return m, nil
}

func (m model) handleGlobalKeys(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.sess.Active()

	switch {
	case key.Matches(k, m.keys.quit):
		return m, tea.Quit

	case key.Matches(k, m.keys.up):
		p.MoveSelection(-1)
	case key.Matches(k, m.keys.down):
		p.MoveSelection(1)

	case key.Matches(k, m.keys.parent):
		m.reportErr(p.ChangeDirectory(panel.Up))
	case key.Matches(k, m.keys.into):
		m.reportErr(p.ChangeDirectory(panel.Into))

	case key.Matches(k, m.keys.enter):
		plan, err := m.sess.Enter()
		if err != nil {
			m.reportErr(err)
			return m, nil
		}
		if plan != nil {
			return m.launch(*plan)
		}

	case key.Matches(k, m.keys.open):
		plan, err := m.sess.Open()
		if err != nil {
			m.reportErr(err)
			return m, nil
		}
		return m.launch(plan)

	case key.Matches(k, m.keys.switchPanel):
		m.sess.Toggle()

	case key.Matches(k, m.keys.bookmark):
		i, err := p.Bookmark()
		if err != nil {
			m.reportErr(err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("tab %d: %s", i, p.Path()), 1500*time.Millisecond)

	case key.Matches(k, m.keys.listTabs):
		m.overlay = overlayTabs

	case key.Matches(k, m.keys.deleteTab):
		m.openPrompt(promptDeleteTab, fmt.Sprintf("Delete which tab? (0-%d)", panel.TabCapacity-1), "")

	case key.Matches(k, m.keys.rename):
		e, ok := p.Selected()
		if !ok || e.IsParent() {
			m.reportErr(panel.NewError(panel.NoSelection, "nothing to rename", p.Path(), nil))
			return m, nil
		}
		m.openPrompt(promptRename, "Rename '"+e.Name+"' to:", e.Name)

	case key.Matches(k, m.keys.copy):
		path, err := m.sess.Copy()
		if err != nil {
			m.reportErr(err)
			return m, nil
		}
		m.mirrorClipboard(path)
		m.setStatus("copied "+path, 1500*time.Millisecond)

	case key.Matches(k, m.keys.paste):
		plan, err := m.sess.PreparePaste()
		if err != nil {
			m.reportErr(err)
			return m, nil
		}
		if plan.Conflict() {
			m.pendingPaste = plan
			m.openPrompt(promptPasteConfirm, session.OverwritePrompt, "")
			return m, nil
		}
		m.commitPaste(plan)

	case key.Matches(k, m.keys.remove):
		plan, err := m.sess.PrepareDelete()
		if err != nil {
			m.reportErr(err)
			return m, nil
		}
		m.pendingDelete = plan
		m.openPrompt(promptDeleteConfirm, plan.Prompt(), "")

	case key.Matches(k, m.keys.newFile):
		m.createDir = false
		m.openPrompt(promptCreateName, "New file name:", "")
	case key.Matches(k, m.keys.newDir):
		m.createDir = true
		m.openPrompt(promptCreateName, "New directory name:", "")

	case key.Matches(k, m.keys.info):
		info, err := m.sess.Info()
		if err != nil {
			m.reportErr(err)
			return m, nil
		}
		m.info = info
		m.overlay = overlayInfo

	case key.Matches(k, m.keys.help):
		m.overlay = overlayHelp

	case key.Matches(k, m.keys.resize):
		m.sess.Relayout()
		return m, tea.ClearScreen

	default:
		for i, b := range m.keys.tabs {
			if key.Matches(k, b) {
				m.reportErr(p.SwitchTab(i))
				return m, nil
			}
		}
	}
	return m, nil
}

// launch starts an opener. Terminal programs take over the screen until
// they exit; the rest are detached through the shell runner.
func (m model) launch(plan session.OpenPlan) (tea.Model, tea.Cmd) {
	if plan.App.Terminal && len(plan.Args) > 0 {
		m.log.Info("tui: open", slog.String("path", plan.Path), slog.String("command", plan.App.Command))
		c := exec.Command(plan.Args[0], plan.Args[1:]...)
		c.Dir = m.sess.Active().Path()
		path := plan.Path
		return m, tea.ExecProcess(c, func(err error) tea.Msg {
			return openDoneMsg{path: path, err: err}
		})
	}
	if err := m.sess.CommitOpen(m.ctx, plan); err != nil {
		m.reportErr(err)
		return m, nil
	}
	m.setStatus("opened "+plan.Path+" with "+plan.App.Command, 1500*time.Millisecond)
	return m, nil
}

func (m *model) commitPaste(plan session.PastePlan) {
	if err := m.sess.CommitPaste(m.ctx, plan); err != nil {
		m.reportErr(err)
		return
	}
	m.setStatus("pasted "+plan.TargetFile, 1800*time.Millisecond)
}

func (m *model) commitCreate(plan session.CreatePlan) {
	if err := m.sess.CommitCreate(m.ctx, plan); err != nil {
		m.reportErr(err)
		return
	}
	m.setStatus("created "+plan.Name, 1800*time.Millisecond)
}

func (m *model) mirrorClipboard(path string) {
	if !m.systemClipboard {
		return
	}
	if err := clipboard.WriteAll(path); err != nil {
		m.log.Warn("tui: system clipboard", slog.Any("err", err))
	}
}

func (m *model) openPrompt(kind promptKind, label, value string) {
	m.prompt = kind
	m.promptLabel = label
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *model) closePrompt() {
	m.prompt = promptNone
	m.promptLabel = ""
	m.input.SetValue("")
	m.input.Blur()
}

// reportErr shows err as a transient status. Nil is ignored.
func (m *model) reportErr(err error) {
	if err == nil {
		return
	}
	m.log.Warn("tui: operation failed", slog.String("kind", panel.KindOf(err).String()), slog.Any("err", err))
	m.setStatus(err.Error(), 2500*time.Millisecond)
}

func (m *model) setStatus(s string, d time.Duration) {
	m.status = s
	m.statusUntil = time.Now().Add(d)
}

func (m model) syncWatch() {
	if m.watcher == nil {
		return
	}
	a, b := m.sess.Panel(panel.A).Path(), m.sess.Panel(panel.B).Path()
	if err := m.watcher.SetDirectories(a, b); err != nil {
		m.log.Debug("tui: watch", slog.Any("err", err))
	}
}

func (m model) waitForChange() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	ch := m.watcher.Changes()
	return func() tea.Msg {
		dir, ok := <-ch
		if !ok {
			return nil
		}
		return dirChangedMsg{dir: dir}
	}
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	default:
		return false
	}
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
