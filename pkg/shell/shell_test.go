package shell

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyCommands(t *testing.T) {
	assert.Equal(t, "cp /a/f.txt /b/f.txt", Copy("/a/f.txt", "/b/f.txt", false, Absent))
	assert.Equal(t, "cp /a/f.txt /b/f.txt", Copy("/a/f.txt", "/b/f.txt", false, ExistingFile))
	assert.Equal(t, "rm -r /b/f.txt && cp /a/f.txt /b/f.txt", Copy("/a/f.txt", "/b/f.txt", false, ExistingDir))
	assert.Equal(t, "cp -R /a/d /b/d", Copy("/a/d", "/b/d", true, Absent))
	assert.Equal(t, "cp -R /a/d/. /b/d", Copy("/a/d", "/b/d", true, ExistingDir))
	assert.Equal(t, "rm -r /b/d && cp -R /a/d /b/d", Copy("/a/d", "/b/d", true, ExistingFile))
}

func TestCreateCommands(t *testing.T) {
	assert.Equal(t, "rm -r /x", Remove("/x"))
	assert.Equal(t, "mkdir /x", Mkdir("/x", Absent))
	assert.Equal(t, "rm -r /x && mkdir /x", Mkdir("/x", ExistingFile))
	assert.Equal(t, ": > /x", CreateFile("/x", Absent))
	assert.Equal(t, ": > /x", CreateFile("/x", ExistingFile))
	assert.Equal(t, "rm -r /x && : > /x", CreateFile("/x", ExistingDir))
}

func TestCommandsQuoteHostilePaths(t *testing.T) {
	src := "/tmp/it's a $HOME;rm -rf ~"
	words, err := shellquote.Split(Copy(src, "/dst dir/x", false, Absent))
	require.NoError(t, err)
	assert.Equal(t, []string{"cp", src, "/dst dir/x"}, words)
}

func TestOpen(t *testing.T) {
	line, err := Open("code --wait", "/tmp/a b.txt", false)
	require.NoError(t, err)
	words, err := shellquote.Split(line)
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "--wait", "/tmp/a b.txt"}, words)

	line, err = Open("evince", "/tmp/x.pdf", true)
	require.NoError(t, err)
	assert.Equal(t, "evince /tmp/x.pdf >/dev/null 2>&1 &", line)

	_, err = Open("", "/tmp/x", false)
	assert.Error(t, err)
	_, err = Open("vim 'unterminated", "/tmp/x", false)
	assert.Error(t, err)
}

func TestExecRunnerExitStatus(t *testing.T) {
	r := NewExecRunner()

	status, err := r.Run(context.Background(), "true")
	require.NoError(t, err)
	assert.Equal(t, 0, status)

	status, err = r.Run(context.Background(), "echo boom >&2; exit 3")
	require.Error(t, err)
	assert.Equal(t, 3, status)
	assert.Contains(t, err.Error(), `stderr="boom"`)

	status, err = r.Run(context.Background(), "  ")
	assert.Error(t, err)
	assert.Equal(t, -1, status)
}

func TestExecRunnerTimeout(t *testing.T) {
	r := &ExecRunner{Timeout: 50 * time.Millisecond}
	status, err := r.Run(context.Background(), "sleep 5")
	require.Error(t, err)
	assert.Equal(t, -1, status)
	assert.Contains(t, err.Error(), "timed out")
}

func TestExecRunnerCopiesOnDisk(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src dir")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "one.txt"), []byte("1"), 0o644))
	r := &ExecRunner{Dir: dir}

	_, err := r.Run(context.Background(), Copy(src, dst, true, Absent))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dst, "one.txt"))

	require.NoError(t, os.WriteFile(filepath.Join(src, "two.txt"), []byte("2"), 0o644))
	_, err = r.Run(context.Background(), Copy(src, dst, true, ExistingDir))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dst, "two.txt"))
	assert.NoDirExists(t, filepath.Join(dst, "src dir"))

	_, err = r.Run(context.Background(), Mkdir(dst, ExistingDir))
	require.NoError(t, err)
	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecordingRunner(t *testing.T) {
	r := &RecordingRunner{}
	assert.Equal(t, "", r.Last())
	status, err := r.Run(context.Background(), "rm -r /x")
	require.NoError(t, err)
	assert.Zero(t, status)

	r.Hook = func(string) (int, error) { return 1, assert.AnError }
	status, err = r.Run(context.Background(), "mkdir /y")
	assert.Equal(t, 1, status)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"rm -r /x", "mkdir /y"}, r.Commands)
	assert.Equal(t, "mkdir /y", r.Last())
}
