package manager

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"twinpane/pkg/panel"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	hlStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dirStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	linkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	idleStyle   = lipgloss.NewStyle().Underline(true)
)

const (
	sizeColumn = 9
	timeColumn = 16
	timeLayout = "2006-01-02 15:04"
)

func (m model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "loading..."
	}

	var b strings.Builder
	switch m.overlay {
	case overlayHelp:
		b.WriteString(m.renderOverlay("help", m.keys.helpLines()))
	case overlayTabs:
		b.WriteString(m.renderOverlay("tabs: panel "+m.sess.ActiveID().String(), m.tabLines()))
	case overlayInfo:
		b.WriteString(m.renderOverlay("info", m.infoLines()))
	default:
		left := m.renderPanel(m.sess.Panel(panel.A))
		right := m.renderPanel(m.sess.Panel(panel.B))
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	}
	b.WriteString("\n")

	// Prompt line
	if m.prompt != promptNone {
		label := hlStyle.Render(m.promptLabel)
		if m.prompt == promptDeleteConfirm || m.prompt == promptPasteConfirm || m.prompt == promptCreateConfirm {
			label = warnStyle.Render(m.promptLabel)
		}
		fmt.Fprintf(&b, "%s %s\n", label, m.input.View())
	} else if m.overlay != overlayNone {
		fmt.Fprintf(&b, "%s\n", dimStyle.Render("any key to close"))
	} else {
		fmt.Fprintf(&b, "%s\n", dimStyle.Render("tab switch panel · t bookmark · c copy · v paste · f2 rename · h help · q quit"))
	}

	// Footer / status
	if m.status != "" && time.Now().Before(m.statusUntil) {
		b.WriteString(fit(m.status, m.width))
	} else if src, owner, ok := m.sess.Clipboard().Source(); ok {
		b.WriteString(dimStyle.Render(fit("clipboard: "+src+" (panel "+owner.String()+")", m.width)))
	} else {
		b.WriteString(dimStyle.Render("clipboard: empty"))
	}
	return b.String()
}

// renderPanel draws one column: border, path, header, separator, the scroll
// window and a footer. The row count matches session.PanelChrome.
func (m model) renderPanel(p *panel.Panel) string {
	col := m.sess.ColumnWidth()
	inner := col - 2
	if inner < 4 {
		inner = 4
	}
	active := p.ID() == m.sess.ActiveID()

	nameW := inner - sizeColumn - 1
	showTime := nameW-timeColumn-1 >= 8
	if showTime {
		nameW -= timeColumn + 1
	}
	if nameW < 1 {
		nameW = 1
	}

	lines := make([]string, 0, p.VisibleRows()+4)
	pathLine := fit(p.Path(), inner)
	if active {
		pathLine = titleStyle.Render(pathLine)
	} else {
		pathLine = dimStyle.Render(pathLine)
	}
	lines = append(lines, pathLine)

	header := fit("Name", nameW) + " " + padLeft("Size", sizeColumn)
	if showTime {
		header += " " + fit("Modified", timeColumn)
	}
	lines = append(lines, dimStyle.Render(fit(header, inner)))
	lines = append(lines, dimStyle.Render(strings.Repeat("─", inner)))

	visible := p.Visible()
	for i := 0; i < p.VisibleRows(); i++ {
		if i >= len(visible) {
			lines = append(lines, strings.Repeat(" ", inner))
			continue
		}
		e := visible[i]
		row := fit(entryName(e), nameW) + " " + padLeft(entrySize(e), sizeColumn)
		if showTime {
			row += " " + fit(entryTime(e), timeColumn)
		}
		row = fit(row, inner)

		switch {
		case p.Scroll()+i == p.Selection() && active:
			row = cursorStyle.Render(row)
		case p.Scroll()+i == p.Selection():
			row = idleStyle.Render(row)
		case e.IsSymlink:
			row = linkStyle.Render(row)
		case e.IsDir:
			row = dirStyle.Render(row)
		}
		lines = append(lines, row)
	}

	footer := fmt.Sprintf("%d/%d", p.Selection()+1, p.Len())
	if p.Len() == 0 {
		footer = "empty"
	}
	if i, ok := p.ActiveTab(); ok && !p.Tabs()[i].IsEmpty() {
		footer += fmt.Sprintf("  tab %d", i)
	}
	lines = append(lines, dimStyle.Render(fit(footer, inner)))

	border := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Width(inner)
	if active {
		border = border.BorderForeground(lipgloss.Color("12"))
	} else {
		border = border.BorderForeground(lipgloss.Color("8"))
	}
	return border.Render(strings.Join(lines, "\n"))
}

func (m model) renderOverlay(title string, body []string) string {
	inner := m.width - 2
	if inner < 10 {
		inner = 10
	}
	rows := m.height - statusRows - 2
	lines := []string{hlStyle.Render(fit(title, inner))}
	for _, ln := range body {
		if len(lines) >= rows {
			break
		}
		lines = append(lines, fit(ln, inner))
	}
	for len(lines) < rows {
		lines = append(lines, "")
	}
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Width(inner).Render(strings.Join(lines, "\n"))
}

func (m model) tabLines() []string {
	p := m.sess.Active()
	activeTab, hasActive := p.ActiveTab()
	tabs := p.Tabs()
	out := make([]string, 0, len(tabs))
	for i, t := range tabs {
		mark := " "
		if hasActive && i == activeTab && !t.IsEmpty() {
			mark = "*"
		}
		path, ok := t.Path()
		if !ok {
			path = "(empty)"
		}
		out = append(out, fmt.Sprintf("%s %d  %s", mark, i, path))
	}
	return out
}

func (m model) infoLines() []string {
	in := m.info
	kind := "file"
	switch {
	case in.IsSymlink && in.IsDir:
		kind = "symlink to directory"
	case in.IsSymlink:
		kind = "symlink"
	case in.IsDir:
		kind = "directory"
	}
	ext := in.Extension
	if ext == "" {
		ext = "-"
	}
	return []string{
		"Name:      " + in.Name,
		"Extension: " + ext,
		"Type:      " + kind,
		"Path:      " + in.Path,
		fmt.Sprintf("Size:      %s (%d bytes)", humanize.IBytes(uint64(max(in.Size, 0))), in.Size),
		fmt.Sprintf("Modified:  %s (%s)", in.ModTime.Format(time.DateTime), humanize.Time(in.ModTime)),
		fmt.Sprintf("Accessed:  %s (%s)", in.AccessTime.Format(time.DateTime), humanize.Time(in.AccessTime)),
	}
}

func entryName(e panel.Entry) string {
	switch {
	case e.IsParent():
		return e.Name
	case e.IsDir:
		return e.Name + "/"
	case e.IsSymlink:
		return e.Name + "@"
	default:
		return e.Name
	}
}

func entrySize(e panel.Entry) string {
	switch {
	case !e.HasMeta:
		return "?"
	case e.IsDir:
		return "<DIR>"
	default:
		return humanize.IBytes(uint64(max(e.Size, 0)))
	}
}

func entryTime(e panel.Entry) string {
	if !e.HasMeta || e.ModTime.IsZero() {
		return ""
	}
	return e.ModTime.Format(timeLayout)
}

// fit truncates or pads s to exactly w terminal cells.
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return runewidth.FillRight(runewidth.Truncate(s, w, "…"), w)
}

func padLeft(s string, w int) string {
	return runewidth.FillLeft(runewidth.Truncate(s, w, "…"), w)
}
