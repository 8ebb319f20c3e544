// Package opener maps file extensions to the application that opens them.
package opener

import (
	"path/filepath"
	"sort"
	"strings"

	"twinpane/pkg/panel"
)

// DefaultEditor opens text files and files without an extension.
const DefaultEditor = "gedit"

// App is an opener command line. Terminal apps take over the terminal while
// they run; others are launched in the background.
type App struct {
	Command  string `yaml:"command" json:"command"`
	Terminal bool   `yaml:"terminal" json:"terminal"`
}

// Table resolves file names to apps.
type Table struct {
	apps   map[string]App
	editor App
}

// Defaults returns the built-in extension table with editor bound to text
// extensions.
func Defaults(editor App) map[string]App {
	viewer := func(cmd string) App { return App{Command: cmd} }
	return map[string]App{
		"txt":  editor,
		"c":    editor,
		"cpp":  editor,
		"h":    editor,
		"pdf":  viewer("evince"),
		"jpg":  viewer("eog"),
		"jpeg": viewer("eog"),
		"png":  viewer("eog"),
		"bmp":  viewer("eog"),
		"mp4":  viewer("vlc"),
		"mkv":  viewer("vlc"),
		"avi":  viewer("vlc"),
		"docx": viewer("libreoffice"),
	}
}

// New builds a table from the defaults plus overrides. Override keys are
// matched case-insensitively with or without a leading dot; an empty command
// removes the extension.
func New(editor App, overrides map[string]App) *Table {
	if strings.TrimSpace(editor.Command) == "" {
		editor = App{Command: DefaultEditor}
	}
	apps := Defaults(editor)
	for ext, app := range overrides {
		ext = NormalizeExt(ext)
		if strings.TrimSpace(app.Command) == "" {
			delete(apps, ext)
			continue
		}
		if ext == "" {
			editor = app
			continue
		}
		apps[ext] = app
	}
	return &Table{apps: apps, editor: editor}
}

// Lookup returns the app for name. Names without an extension go to the
// editor.
func (t *Table) Lookup(name string) (App, error) {
	ext := NormalizeExt(filepath.Ext(name))
	if ext == "" {
		return t.editor, nil
	}
	app, ok := t.apps[ext]
	if !ok {
		return App{}, panel.NewError(panel.UnsupportedFileType, "unsupported file type: "+ext, name, nil)
	}
	return app, nil
}

// Extensions lists the mapped extensions in order.
func (t *Table) Extensions() []string {
	out := make([]string, 0, len(t.apps))
	for ext := range t.apps {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// NormalizeExt lowercases ext and strips a leading dot.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
