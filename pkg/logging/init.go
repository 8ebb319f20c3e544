package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options identify the process in every record.
type Options struct {
	App     string
	Version string
}

// Init merges cfg over the defaults, applies the environment, installs the
// resulting logger as slog's default and returns it with its closer.
func Init(cfg Config, opts Options) (*slog.Logger, func() error, error) {
	if opts.App == "" {
		opts.App = "twinpane"
	}
	cfg = Merge(DefaultConfig(), cfg).WithEnv()
	normalized, err := cfg.Normalize()
	if err != nil {
		return nil, nil, err
	}

	logger, closeFn, err := New(normalized, opts)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return logger, closeFn, nil
}

// New builds a logger from a normalized config without touching the default.
func New(cfg Config, opts Options) (*slog.Logger, func() error, error) {
	sink := SinkFile
	if cfg.Sink != nil {
		sink = Sink(*cfg.Sink)
	}
	format := FormatText
	if cfg.Format != nil {
		format = Format(*cfg.Format)
	}

	writer, closeFn, err := resolveWriter(cfg, sink, opts.App)
	if err != nil {
		return nil, nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(writer, handlerOpts)
	default:
		handler = slog.NewTextHandler(writer, handlerOpts)
	}

	logger := slog.New(handler).With(
		slog.String("app", opts.App),
		slog.String("version", opts.Version),
	)
	return logger, closeFn, nil
}

func parseLevel(value *string) slog.Leveler {
	if value == nil {
		return slog.LevelInfo
	}
	switch strings.ToLower(strings.TrimSpace(*value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DefaultFile is where the file sink writes when no file is configured.
func DefaultFile(app string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("logging: locate cache dir: %w", err)
	}
	return filepath.Join(dir, app, app+".log"), nil
}

func resolveWriter(cfg Config, sink Sink, app string) (io.Writer, func() error, error) {
	switch sink {
	case SinkNone:
		return io.Discard, func() error { return nil }, nil
	case SinkStderr:
		return os.Stderr, func() error { return nil }, nil
	case SinkFile:
		path := ""
		if cfg.File != nil {
			path = strings.TrimSpace(*cfg.File)
		}
		if path == "" {
			var err error
			if path, err = DefaultFile(app); err != nil {
				return nil, nil, err
			}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("logging: create log dir: %w", err)
		}
		rot := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    derefInt(cfg.MaxSizeMB, 10),
			MaxBackups: derefInt(cfg.MaxBackups, 3),
			Compress:   cfg.Compress != nil && *cfg.Compress,
		}
		return rot, rot.Close, nil
	default:
		return nil, nil, fmt.Errorf("logging: unknown sink %q", sink)
	}
}

func derefInt(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
