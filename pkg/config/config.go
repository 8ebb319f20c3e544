package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"twinpane/pkg/logging"
	"twinpane/pkg/opener"
)

// Config contains runtime configuration resolved from (in priority order):
//  1. Environment variables
//  2. The config file ($TWINPANE_CONFIG or <UserConfigDir>/twinpane/config.yaml)
//  3. Defaults
type Config struct {
	// StartDir is where both panels open. Defaults to the working directory.
	StartDir string

	// Editor opens text files and files without an extension.
	Editor opener.App

	// Shell runs the copy/delete/create command lines. Default: /bin/sh.
	Shell string

	// CommandTimeout kills a shell command that runs longer. Zero means no timeout.
	CommandTimeout time.Duration

	// Watch reloads panels when their directory changes on disk.
	Watch bool

	// SystemClipboard mirrors copied paths to the desktop clipboard.
	SystemClipboard bool

	Debug bool

	// Openers override the built-in extension table.
	Openers map[string]opener.App

	// Keymap overrides default key bindings by action name.
	Keymap map[string][]string

	Log logging.Config

	// ConfigFile is the file that was loaded, if any.
	ConfigFile string
}

// EnvKeys groups supported env variables.
type EnvKeys struct {
	ConfigFile      string
	StartDir        string
	Editor          string
	EditorTerminal  string
	Shell           string
	TimeoutMs       string
	Watch           string
	SystemClipboard string
	Debug           string
}

// DefaultEnvKeys returns the canonical env variable names.
func DefaultEnvKeys() EnvKeys {
	return EnvKeys{
		ConfigFile:      "TWINPANE_CONFIG",
		StartDir:        "TWINPANE_START_DIR",
		Editor:          "TWINPANE_EDITOR",
		EditorTerminal:  "TWINPANE_EDITOR_TERMINAL",
		Shell:           "TWINPANE_SHELL",
		TimeoutMs:       "TWINPANE_COMMAND_TIMEOUT_MS",
		Watch:           "TWINPANE_WATCH",
		SystemClipboard: "TWINPANE_SYSTEM_CLIPBOARD",
		Debug:           "TWINPANE_DEBUG",
	}
}

// Resolve builds a Config from defaults, the config file and env.
func Resolve() (Config, error) {
	return ResolveWithEnv(DefaultEnvKeys())
}

// ResolveWithEnv builds Config using a provided EnvKeys set. A missing config
// file is not an error; an unreadable or invalid one is.
func ResolveWithEnv(keys EnvKeys) (Config, error) {
	cfg := defaultConfig()

	path := strings.TrimSpace(os.Getenv(keys.ConfigFile))
	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		f, err := LoadFile(expandHome(path))
		switch {
		case err == nil:
			cfg = cfg.applyFile(f)
			cfg.ConfigFile = expandHome(path)
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return Config{}, err
		}
	}

	if v := strings.TrimSpace(os.Getenv(keys.StartDir)); v != "" {
		cfg.StartDir = v
	}
	if v := strings.TrimSpace(os.Getenv(keys.Editor)); v != "" {
		cfg.Editor.Command = v
	}
	if v := strings.TrimSpace(os.Getenv(keys.EditorTerminal)); v != "" {
		cfg.Editor.Terminal = parseBool(v, cfg.Editor.Terminal)
	}
	if v := strings.TrimSpace(os.Getenv(keys.Shell)); v != "" {
		cfg.Shell = v
	}
	if v := strings.TrimSpace(os.Getenv(keys.TimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.CommandTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv(keys.Watch)); v != "" {
		cfg.Watch = parseBool(v, cfg.Watch)
	}
	if v := strings.TrimSpace(os.Getenv(keys.SystemClipboard)); v != "" {
		cfg.SystemClipboard = parseBool(v, cfg.SystemClipboard)
	}
	if v := strings.TrimSpace(os.Getenv(keys.Debug)); v != "" {
		cfg.Debug = parseBool(v, cfg.Debug)
	}

	return cfg.withDerivedDefaults(), nil
}

func defaultConfig() Config {
	return Config{
		Shell:   "/bin/sh",
		Openers: map[string]opener.App{},
		Keymap:  map[string][]string{},
	}
}

func (c Config) applyFile(f *File) Config {
	out := c
	if v := strings.TrimSpace(f.StartDir); v != "" {
		out.StartDir = v
	}
	if v := strings.TrimSpace(f.Editor); v != "" {
		out.Editor.Command = v
	}
	if f.EditorTerminal != nil {
		out.Editor.Terminal = *f.EditorTerminal
	}
	if v := strings.TrimSpace(f.Shell); v != "" {
		out.Shell = v
	}
	if f.CommandTimeoutMs > 0 {
		out.CommandTimeout = time.Duration(f.CommandTimeoutMs) * time.Millisecond
	}
	if f.Watch != nil {
		out.Watch = *f.Watch
	}
	if f.SystemClipboard != nil {
		out.SystemClipboard = *f.SystemClipboard
	}
	if f.Debug != nil {
		out.Debug = *f.Debug
	}
	for ext, app := range f.Openers {
		out.Openers[ext] = app
	}
	for action, keys := range f.Keymap {
		out.Keymap[action] = []string(keys)
	}
	out.Log = logging.Merge(out.Log, f.Log)
	return out
}

func (c Config) withDerivedDefaults() Config {
	out := c

	out.StartDir = expandHome(out.StartDir)
	if out.StartDir == "" {
		if wd, err := os.Getwd(); err == nil {
			out.StartDir = wd
		}
	}

	// A terminal editor from the environment beats the GUI default.
	if strings.TrimSpace(out.Editor.Command) == "" {
		for _, env := range []string{"VISUAL", "EDITOR"} {
			if v := strings.TrimSpace(os.Getenv(env)); v != "" {
				out.Editor = opener.App{Command: v, Terminal: true}
				break
			}
		}
	}
	if strings.TrimSpace(out.Editor.Command) == "" {
		out.Editor = opener.App{Command: opener.DefaultEditor}
	}

	if strings.TrimSpace(out.Shell) == "" {
		out.Shell = "/bin/sh"
	}
	if out.CommandTimeout < 0 {
		out.CommandTimeout = 0
	}
	if out.Debug && out.Log.Level == nil {
		level := "debug"
		out.Log.Level = &level
	}
	return out
}

// Helpers

func splitCommaList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func expandHome(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return p
	}
	if p == "~" {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			return home
		}
		return p
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}

func parseBool(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
