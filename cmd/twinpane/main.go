package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"twinpane/pkg/config"
	"twinpane/pkg/logging"
	"twinpane/pkg/manager"
	"twinpane/pkg/opener"
	"twinpane/pkg/session"
	"twinpane/pkg/shell"
	"twinpane/pkg/watch"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "twinpane",
		Short: "A dual-pane terminal file manager",
		Long: `twinpane shows two directory panels side by side. Copy in one panel,
paste in the other, bookmark directories as tabs and open files with the
application configured for their extension.

Configuration is read from $TWINPANE_CONFIG or <config dir>/twinpane/config.yaml.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func run() error {
	cfg, err := config.Resolve()
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.Init(cfg.Log, logging.Options{App: "twinpane", Version: version})
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer func() { _ = closeLog() }()
	logger.Info("starting", slog.String("dir", cfg.StartDir), slog.String("config", cfg.ConfigFile))

	runner := &shell.ExecRunner{
		Shell:   cfg.Shell,
		Timeout: cfg.CommandTimeout,
		Debug:   cfg.Debug,
		Logger:  logger,
	}
	sess, err := session.New(session.Options{
		Runner:   runner,
		Openers:  opener.New(cfg.Editor, cfg.Openers),
		StartDir: cfg.StartDir,
		Logger:   logger,
	})
	if err != nil {
		// Panels stay usable; the user can navigate away.
		logger.Warn("start directory", slog.Any("err", err))
	}

	var watcher *watch.Watcher
	if cfg.Watch {
		watcher, err = startWatcher(logger)
		if err != nil {
			logger.Warn("watch disabled", slog.Any("err", err))
		} else {
			defer watcher.Stop()
		}
	}

	err = manager.RunTUI(manager.UIOptions{
		Session:         sess,
		Keymap:          cfg.Keymap,
		Watcher:         watcher,
		SystemClipboard: cfg.SystemClipboard,
		Logger:          logger,
	})
	logger.Info("exiting", slog.Any("err", err))
	return err
}

func startWatcher(logger *slog.Logger) (*watch.Watcher, error) {
	w, err := watch.New(logger)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return nil, err
	}
	return w, nil
}
