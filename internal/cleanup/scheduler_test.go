package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRemovesOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "audio_old.m4a")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(dir, "audio_new.m4a")
	require.NoError(t, os.WriteFile(fresh, []byte("new"), 0o644))

	sub := filepath.Join(dir, "keepdir")
	require.NoError(t, os.Mkdir(sub, 0o755))

	s := NewSweeper(dir, time.Hour, time.Hour)
	s.sweep()

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.DirExists(t, sub)
}

func TestStartSweepsImmediately(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "audio_old.m4a")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	s := NewSweeper(dir, time.Hour, time.Hour)
	s.Start()
	defer s.Stop()

	assert.NoFileExists(t, stale)
}

func TestEnsureTempDirExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "temp")

	require.NoError(t, EnsureTempDirExists(dir))
	assert.DirExists(t, dir)

	// Idempotent.
	require.NoError(t, EnsureTempDirExists(dir))
}
