package voteguard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileGuardStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "votes.json")
	g, err := NewFileGuard(path)
	assert.NoError(t, err)
	assert.False(t, g.HasVoted("poll1"))
}

func TestFileGuardPersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "votes.json")
	g, err := NewFileGuard(path)
	assert.NoError(t, err)

	assert.NoError(t, g.MarkVoted("poll1"))
	assert.True(t, g.HasVoted("poll1"))
	assert.False(t, g.HasVoted("poll2"))

	reloaded, err := NewFileGuard(path)
	assert.NoError(t, err)
	assert.True(t, reloaded.HasVoted("poll1"))
	assert.False(t, reloaded.HasVoted("poll2"))
}

func TestFileGuardMarkIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "votes.json")
	g, err := NewFileGuard(path)
	assert.NoError(t, err)

	assert.NoError(t, g.MarkVoted("poll1"))
	assert.NoError(t, g.MarkVoted("poll1"))
	assert.True(t, g.HasVoted("poll1"))
}

func TestFileGuardCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state", "votes.json")
	g, err := NewFileGuard(path)
	assert.NoError(t, err)

	assert.NoError(t, g.MarkVoted("poll1"))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestFileGuardRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "votes.json")
	assert.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileGuard(path)
	assert.Error(t, err)
}

func TestFileGuardRollsBackOnSaveFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission-based failure injection does not work as root")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "votes.json")
	g, err := NewFileGuard(path)
	assert.NoError(t, err)

	// Make the directory unwritable so the save fails
	assert.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	assert.Error(t, g.MarkVoted("poll1"))
	assert.False(t, g.HasVoted("poll1"))
}
