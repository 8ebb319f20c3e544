// Package logging configures the process-wide slog logger. A full-screen TUI
// owns the terminal, so the default sink is a rotating file.
package logging

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type Sink string

const (
	SinkFile   Sink = "file"
	SinkStderr Sink = "stderr"
	SinkNone   Sink = "none"
)

const (
	EnvLogLevel      = "TWINPANE_LOG_LEVEL"
	EnvLogFormat     = "TWINPANE_LOG_FORMAT"
	EnvLogSink       = "TWINPANE_LOG_SINK"
	EnvLogFile       = "TWINPANE_LOG_FILE"
	EnvLogMaxSizeMB  = "TWINPANE_LOG_MAX_SIZE_MB"
	EnvLogMaxBackups = "TWINPANE_LOG_MAX_BACKUPS"
)

// Config is the `log:` section of the config file. Unset fields keep their
// defaults.
type Config struct {
	Level      *string `json:"level,omitempty" yaml:"level,omitempty"`
	Format     *string `json:"format,omitempty" yaml:"format,omitempty"`
	Sink       *string `json:"sink,omitempty" yaml:"sink,omitempty"`
	File       *string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSizeMB  *int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"`
	MaxBackups *int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
	Compress   *bool   `json:"compress,omitempty" yaml:"compress,omitempty"`
}

// DefaultConfig logs info and above as text to the rotating file.
func DefaultConfig() Config {
	level := "info"
	format := string(FormatText)
	sink := string(SinkFile)
	maxSizeMB := 10
	maxBackups := 3
	compress := false
	return Config{
		Level:      &level,
		Format:     &format,
		Sink:       &sink,
		MaxSizeMB:  &maxSizeMB,
		MaxBackups: &maxBackups,
		Compress:   &compress,
	}
}

// Merge returns base with every field set in override applied.
func Merge(base, override Config) Config {
	out := base
	if override.Level != nil {
		out.Level = override.Level
	}
	if override.Format != nil {
		out.Format = override.Format
	}
	if override.Sink != nil {
		out.Sink = override.Sink
	}
	if override.File != nil {
		out.File = override.File
	}
	if override.MaxSizeMB != nil {
		out.MaxSizeMB = override.MaxSizeMB
	}
	if override.MaxBackups != nil {
		out.MaxBackups = override.MaxBackups
	}
	if override.Compress != nil {
		out.Compress = override.Compress
	}
	return out
}

// WithEnv overlays TWINPANE_LOG_* variables.
func (c Config) WithEnv() Config {
	applyString := func(dst **string, env string) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = &v
		}
	}
	applyInt := func(dst **int, env string) {
		raw := strings.TrimSpace(os.Getenv(env))
		if raw == "" {
			return
		}
		if n, err := strconv.Atoi(raw); err == nil {
			*dst = &n
		}
	}

	applyString(&c.Level, EnvLogLevel)
	applyString(&c.Format, EnvLogFormat)
	applyString(&c.Sink, EnvLogSink)
	applyString(&c.File, EnvLogFile)
	applyInt(&c.MaxSizeMB, EnvLogMaxSizeMB)
	applyInt(&c.MaxBackups, EnvLogMaxBackups)
	return c
}

// Normalize lowercases enums, drops blank values and validates.
func (c Config) Normalize() (Config, error) {
	lower := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.ToLower(strings.TrimSpace(*s))
		if v == "" {
			return nil
		}
		return &v
	}
	c.Level = lower(c.Level)
	c.Format = lower(c.Format)
	c.Sink = lower(c.Sink)
	if c.File != nil {
		if v := strings.TrimSpace(*c.File); v == "" {
			c.File = nil
		} else {
			c.File = &v
		}
	}
	if c.MaxSizeMB != nil && *c.MaxSizeMB < 0 {
		zero := 0
		c.MaxSizeMB = &zero
	}
	if c.MaxBackups != nil && *c.MaxBackups < 0 {
		zero := 0
		c.MaxBackups = &zero
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.Level != nil {
		switch *c.Level {
		case "debug", "info", "warn", "warning", "error":
		default:
			return fmt.Errorf("log.level: invalid %q", *c.Level)
		}
	}
	if c.Format != nil {
		switch Format(*c.Format) {
		case FormatText, FormatJSON:
		default:
			return fmt.Errorf("log.format: invalid %q", *c.Format)
		}
	}
	if c.Sink != nil {
		switch Sink(*c.Sink) {
		case SinkFile, SinkStderr, SinkNone:
		default:
			return fmt.Errorf("log.sink: invalid %q", *c.Sink)
		}
	}
	return nil
}
