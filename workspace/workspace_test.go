package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentbackplane/abp/contract"
	"github.com/stretchr/testify/require"
)

func TestPassThroughReturnsOriginalRoot(t *testing.T) {
	dir := t.TempDir()
	ws, err := Prepare(context.Background(), contract.WorkspaceSpec{Root: dir, Mode: contract.WorkspacePassThrough})
	require.NoError(t, err)
	require.Equal(t, dir, ws.Path())
	require.False(t, ws.Staged())
	require.NoError(t, ws.Close())
}

func TestStagedCopiesIncludedFiles(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "keep.go"), []byte("package x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "vendor", "drop.go"), []byte("package v"), 0o644))

	ws, err := Prepare(context.Background(), contract.WorkspaceSpec{
		Root: src, Mode: contract.WorkspaceStaged, Exclude: []string{"vendor/**"},
	})
	require.NoError(t, err)
	defer ws.Close()

	require.True(t, ws.Staged())
	require.NotEqual(t, src, ws.Path())

	_, err = os.Stat(filepath.Join(ws.Path(), "keep.go"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(ws.Path(), "vendor", "drop.go"))
	require.True(t, os.IsNotExist(err))
}

func TestPrepareMissingRootErrors(t *testing.T) {
	_, err := Prepare(context.Background(), contract.WorkspaceSpec{
		Root: filepath.Join(t.TempDir(), "does-not-exist"), Mode: contract.WorkspacePassThrough,
	})
	require.Error(t, err)
}

func TestCloseOnStagedRemovesDir(t *testing.T) {
	src := t.TempDir()
	ws, err := Prepare(context.Background(), contract.WorkspaceSpec{Root: src, Mode: contract.WorkspaceStaged})
	require.NoError(t, err)
	path := ws.Path()
	require.NoError(t, ws.Close())
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
