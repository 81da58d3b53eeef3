package gitops

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if !Available() {
		t.Skip("git not on PATH")
	}
}

func TestInit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	assert.False(t, IsRepo(dir))

	require.NoError(t, Init(context.Background(), dir))
	assert.True(t, IsRepo(dir))
	require.NoError(t, Init(context.Background(), dir))
}

func TestCommitAll(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, Init(ctx, dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.csv"), []byte("account_id\n"), 0o644))

	author := Author{Name: "Test Author", Email: "test@example.com"}
	hash, err := CommitAll(ctx, dir, "export accounts", author)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	log := exec.Command("git", "log", "--format=%s|%an <%ae>", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Equal(t, "export accounts|Test Author <test@example.com>\n", string(out))

	_, err = CommitAll(ctx, dir, "again", author)
	assert.ErrorIs(t, err, ErrNothingToCommit)
}

func TestCommitAll_NotARepo(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), nil, 0o644))
	_, err := CommitAll(context.Background(), dir, "msg", Author{Name: "a", Email: "a@b"})
	assert.ErrorContains(t, err, "git add")
}
