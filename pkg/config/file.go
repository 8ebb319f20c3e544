package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"twinpane/pkg/logging"
	"twinpane/pkg/opener"
)

// File is the on-disk config document.
type File struct {
	StartDir         string                `json:"start_dir,omitempty" yaml:"start_dir,omitempty"`
	Editor           string                `json:"editor,omitempty" yaml:"editor,omitempty"`
	EditorTerminal   *bool                 `json:"editor_terminal,omitempty" yaml:"editor_terminal,omitempty"`
	Shell            string                `json:"shell,omitempty" yaml:"shell,omitempty"`
	CommandTimeoutMs int                   `json:"command_timeout_ms,omitempty" yaml:"command_timeout_ms,omitempty"`
	Watch            *bool                 `json:"watch,omitempty" yaml:"watch,omitempty"`
	SystemClipboard  *bool                 `json:"system_clipboard,omitempty" yaml:"system_clipboard,omitempty"`
	Debug            *bool                 `json:"debug,omitempty" yaml:"debug,omitempty"`
	Openers          map[string]opener.App `json:"openers,omitempty" yaml:"openers,omitempty"`
	Keymap           map[string]KeyList    `json:"keymap,omitempty" yaml:"keymap,omitempty"`
	Log              logging.Config        `json:"log,omitempty" yaml:"log,omitempty"`
}

// KeyList is one or more key names. A scalar is accepted as a single key.
type KeyList []string

func (k *KeyList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*k = splitCommaList(node.Value)
		return nil
	case yaml.SequenceNode:
		var keys []string
		if err := node.Decode(&keys); err != nil {
			return err
		}
		*k = keys
		return nil
	default:
		return fmt.Errorf("line %d: keys must be a string or a list", node.Line)
	}
}

func (k *KeyList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*k = splitCommaList(one)
		return nil
	}
	var keys []string
	if err := json.Unmarshal(b, &keys); err != nil {
		return fmt.Errorf("keys must be a string or a list: %w", err)
	}
	*k = keys
	return nil
}

// DefaultPath is the config file used when TWINPANE_CONFIG is unset.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "twinpane", "config.yaml"), nil
}

// LoadFile reads a YAML or JSON config document.
func LoadFile(path string) (*File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("empty path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	var f File
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	default:
		// Heuristic: try YAML then JSON.
		if err := yaml.Unmarshal(b, &f); err != nil {
			if jerr := json.Unmarshal(b, &f); jerr != nil {
				return nil, fmt.Errorf("unknown config file type %q; yaml err: %v; json err: %v", ext, err, jerr)
			}
		}
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

// Validate checks values that cannot be normalized away.
func (f *File) Validate() error {
	if f.CommandTimeoutMs < 0 {
		return fmt.Errorf("command_timeout_ms: must be >= 0, got %d", f.CommandTimeoutMs)
	}
	for ext, app := range f.Openers {
		if strings.ContainsAny(ext, "/ ") {
			return fmt.Errorf("openers: invalid extension %q", ext)
		}
		if strings.TrimSpace(app.Command) == "" && app.Terminal {
			return fmt.Errorf("openers.%s: terminal set without a command", ext)
		}
	}
	if _, err := f.Log.Normalize(); err != nil {
		return err
	}
	return nil
}
