package manager

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"twinpane/pkg/panel"
)

type keyMap struct {
	up          key.Binding
	down        key.Binding
	parent      key.Binding
	into        key.Binding
	enter       key.Binding
	switchPanel key.Binding
	tabs        [panel.TabCapacity]key.Binding
	bookmark    key.Binding
	listTabs    key.Binding
	deleteTab   key.Binding
	rename      key.Binding
	copy        key.Binding
	paste       key.Binding
	open        key.Binding
	info        key.Binding
	help        key.Binding
	remove      key.Binding
	newFile     key.Binding
	newDir      key.Binding
	resize      key.Binding
	quit        key.Binding
}

type keymapAction struct {
	name     string
	desc     string
	defaults []string
	assign   func(*keyMap, key.Binding)
}

func keymapActions() []keymapAction {
	actions := []keymapAction{
		{name: "up", desc: "move up", defaults: []string{"up"}, assign: func(m *keyMap, b key.Binding) { m.up = b }},
		{name: "down", desc: "move down", defaults: []string{"down"}, assign: func(m *keyMap, b key.Binding) { m.down = b }},
		{name: "parent", desc: "parent directory", defaults: []string{"left", "backspace"}, assign: func(m *keyMap, b key.Binding) { m.parent = b }},
		{name: "into", desc: "enter directory", defaults: []string{"right"}, assign: func(m *keyMap, b key.Binding) { m.into = b }},
		{name: "enter", desc: "enter directory or open file", defaults: []string{"enter"}, assign: func(m *keyMap, b key.Binding) { m.enter = b }},
		{name: "switch_panel", desc: "switch panel", defaults: []string{"tab"}, assign: func(m *keyMap, b key.Binding) { m.switchPanel = b }},
		{name: "bookmark", desc: "bookmark directory as tab", defaults: []string{"t"}, assign: func(m *keyMap, b key.Binding) { m.bookmark = b }},
		{name: "list_tabs", desc: "list tabs", defaults: []string{"T"}, assign: func(m *keyMap, b key.Binding) { m.listTabs = b }},
		{name: "delete_tab", desc: "delete tab", defaults: []string{"f12"}, assign: func(m *keyMap, b key.Binding) { m.deleteTab = b }},
		{name: "rename", desc: "rename", defaults: []string{"f2"}, assign: func(m *keyMap, b key.Binding) { m.rename = b }},
		{name: "copy", desc: "copy", defaults: []string{"c"}, assign: func(m *keyMap, b key.Binding) { m.copy = b }},
		{name: "paste", desc: "paste", defaults: []string{"v"}, assign: func(m *keyMap, b key.Binding) { m.paste = b }},
		{name: "open", desc: "open file", defaults: []string{"o"}, assign: func(m *keyMap, b key.Binding) { m.open = b }},
		{name: "info", desc: "file info", defaults: []string{"i"}, assign: func(m *keyMap, b key.Binding) { m.info = b }},
		{name: "help", desc: "help", defaults: []string{"h"}, assign: func(m *keyMap, b key.Binding) { m.help = b }},
		{name: "delete", desc: "delete", defaults: []string{"delete"}, assign: func(m *keyMap, b key.Binding) { m.remove = b }},
		{name: "new_file", desc: "new file", defaults: []string{"n"}, assign: func(m *keyMap, b key.Binding) { m.newFile = b }},
		{name: "new_dir", desc: "new directory", defaults: []string{"m"}, assign: func(m *keyMap, b key.Binding) { m.newDir = b }},
		{name: "resize", desc: "reset layout", defaults: []string{"f5"}, assign: func(m *keyMap, b key.Binding) { m.resize = b }},
		{name: "quit", desc: "quit", defaults: []string{"q", "ctrl+c"}, assign: func(m *keyMap, b key.Binding) { m.quit = b }},
	}
	for i := 0; i < panel.TabCapacity; i++ {
		i := i
		actions = append(actions, keymapAction{
			name:     fmt.Sprintf("tab_%d", i),
			desc:     fmt.Sprintf("switch to tab %d", i),
			defaults: []string{fmt.Sprint(i)},
			assign:   func(m *keyMap, b key.Binding) { m.tabs[i] = b },
		})
	}
	return actions
}

// buildKeyMap applies overrides (action name to keys) over the defaults.
// Unknown actions and keys bound to two actions are errors.
func buildKeyMap(overrides map[string][]string) (*keyMap, error) {
	actions := keymapActions()
	known := make(map[string]struct{}, len(actions))
	for _, a := range actions {
		known[a.name] = struct{}{}
	}
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("keymap.%s: unknown action", name)
		}
	}

	km := &keyMap{}
	used := make(map[string]string)
	for _, action := range actions {
		keys, err := resolveKeyList(action.name, overrides[action.name], action.defaults)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			if prev, ok := used[k]; ok {
				return nil, fmt.Errorf("keymap.%s: key %q already bound to keymap.%s", action.name, k, prev)
			}
			used[k] = action.name
		}
		binding := key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(strings.Join(keys, "/"), action.desc),
		)
		action.assign(km, binding)
	}
	return km, nil
}

func resolveKeyList(field string, override, defaults []string) ([]string, error) {
	keys := override
	if len(keys) == 0 {
		keys = defaults
	}
	seen := make(map[string]struct{})
	out := make([]string, 0, len(keys))
	for _, raw := range keys {
		k, err := normalizeKey(raw)
		if err != nil {
			return nil, fmt.Errorf("keymap.%s: %w", field, err)
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("keymap.%s: no keys configured", field)
	}
	return out, nil
}

// normalizeKey lowercases modifiers and named keys. Single characters keep
// their case so "t" and "T" stay distinct bindings.
func normalizeKey(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		if raw == " " {
			return " ", nil
		}
		return "", fmt.Errorf("invalid key %q (empty)", raw)
	}
	if value == "+" {
		return value, nil
	}
	parts := strings.Split(value, "+")
	base := strings.TrimSpace(parts[len(parts)-1])
	if base == "" {
		return "", fmt.Errorf("invalid key %q (missing base key)", raw)
	}
	if len([]rune(base)) > 1 {
		base = strings.ToLower(base)
	}
	mods := make([]string, 0, len(parts)-1)
	for _, p := range parts[:len(parts)-1] {
		mod := strings.ToLower(strings.TrimSpace(p))
		switch mod {
		case "ctrl", "control":
			mods = append(mods, "ctrl")
			// terminals cannot tell ctrl+a from ctrl+A
			base = strings.ToLower(base)
		case "alt", "shift":
			mods = append(mods, mod)
		default:
			return "", fmt.Errorf("invalid key %q (unknown modifier %q)", raw, p)
		}
	}
	return strings.Join(append(mods, base), "+"), nil
}

func (m *keyMap) helpLines() []string {
	rows := []key.Binding{
		m.up, m.down, m.parent, m.into, m.enter, m.switchPanel,
		m.bookmark, m.listTabs, m.deleteTab, m.rename, m.copy, m.paste,
		m.open, m.info, m.remove, m.newFile, m.newDir, m.resize, m.help, m.quit,
	}
	out := make([]string, 0, len(rows)+1)
	for _, b := range rows {
		h := b.Help()
		out = append(out, fmt.Sprintf("%-16s %s", h.Key, h.Desc))
	}
	out = append(out, fmt.Sprintf("%-16s %s", "0-9", "switch to tab"))
	return out
}
