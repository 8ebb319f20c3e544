// Package shell runs command lines through /bin/sh and builds the command
// lines used for copy, delete, create and open.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Runner executes a shell command line and reports its exit status.
//
// A non-zero exit is returned as a status together with an error carrying the
// captured stderr. Status is -1 when the command could not be started or was
// killed by a timeout.
type Runner interface {
	Run(ctx context.Context, command string) (int, error)
}

// ExecRunner runs commands with `<Shell> -c <command>`.
type ExecRunner struct {
	// Shell is the interpreter path. If empty, defaults to "/bin/sh".
	Shell string

	// Dir is the working directory. Empty means the process working directory.
	Dir string

	// ExtraEnv is appended to the process environment (KEY=VALUE strings).
	ExtraEnv []string

	// Timeout, if > 0, applies a per-command timeout.
	Timeout time.Duration

	// Debug logs captured output of every command, not only failing ones.
	Debug bool

	Logger *slog.Logger
}

// NewExecRunner returns an ExecRunner with defaults.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Shell: "/bin/sh"}
}

func (r *ExecRunner) Run(ctx context.Context, command string) (int, error) {
	if strings.TrimSpace(command) == "" {
		return -1, errors.New("shell runner: empty command")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	sh := strings.TrimSpace(r.Shell)
	if sh == "" {
		sh = "/bin/sh"
	}
	cmd := exec.CommandContext(ctx, sh, "-c", command)
	cmd.Dir = r.Dir
	cmd.Env = append(append([]string{}, os.Environ()...), r.ExtraEnv...)
	// Grandchildren of a killed shell may hold the output pipes open.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log := r.logger()
	log.Debug("shell: exec", slog.String("command", command))

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return -1, fmt.Errorf("shell runner: timed out after %s: %s", r.Timeout, command)
	}

	out := strings.TrimSpace(stdout.String())
	serr := strings.TrimSpace(stderr.String())
	if r.Debug && (out != "" || serr != "") {
		log.Debug("shell: output", slog.String("command", command), slog.String("stdout", out), slog.String("stderr", serr))
	}

	if err != nil {
		status := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			status = exitErr.ExitCode()
		}
		return status, wrapErr(command, err, serr)
	}
	return 0, nil
}

func (r *ExecRunner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func wrapErr(command string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("shell runner: %s: %w", command, err)
	}
	return fmt.Errorf("shell runner: %s: %w (stderr=%q)", command, err, stderr)
}

// RecordingRunner records commands instead of executing them. Hook, when set,
// runs for every command and decides its result.
type RecordingRunner struct {
	mu       sync.Mutex
	Commands []string
	Hook     func(command string) (int, error)
}

func (r *RecordingRunner) Run(_ context.Context, command string) (int, error) {
	r.mu.Lock()
	r.Commands = append(r.Commands, command)
	hook := r.Hook
	r.mu.Unlock()
	if hook != nil {
		return hook(command)
	}
	return 0, nil
}

// Last returns the most recent command, or "".
func (r *RecordingRunner) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Commands) == 0 {
		return ""
	}
	return r.Commands[len(r.Commands)-1]
}
