package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case dir, ok := <-ch:
			require.True(t, ok, "changes channel closed unexpectedly")
			if dir == want {
				return
			}
		case <-timeout:
			t.Fatalf("timeout waiting for change in %s", want)
		}
	}
}

func TestWatcherReportsDirectory(t *testing.T) {
	dir := t.TempDir()
	w, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, w.SetDirectories(dir))
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0o644))
	waitFor(t, w.Changes(), dir)

	require.NoError(t, os.Remove(filepath.Join(dir, "new.txt")))
	waitFor(t, w.Changes(), dir)
}

func TestSetDirectoriesRetargets(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	w, err := New(nil)
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, w.SetDirectories(a, a))
	assert.Equal(t, []string{a}, w.Directories())

	require.NoError(t, w.SetDirectories(b))
	assert.Equal(t, []string{b}, w.Directories())

	err = w.SetDirectories(b, filepath.Join(b, "missing"))
	assert.Error(t, err)
	assert.Equal(t, []string{b}, w.Directories())

	file := filepath.Join(b, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, w.SetDirectories(file))
}

func TestStopClosesChanges(t *testing.T) {
	w, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	assert.Error(t, w.Start())

	w.Stop()
	w.Stop()
	_, ok := <-w.Changes()
	assert.False(t, ok)
	assert.Error(t, w.SetDirectories(t.TempDir()))
}

func TestStopWithoutStart(t *testing.T) {
	w, err := New(nil)
	require.NoError(t, err)
	w.Stop()
	_, ok := <-w.Changes()
	assert.False(t, ok)
}
