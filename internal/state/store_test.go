package state_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/herd/internal/adapter"
	"github.com/temirov/herd/internal/state"
)

func TestNewFileStoreRequiresPath(testInstance *testing.T) {
	_, creationError := state.NewFileStore("  ")
	require.ErrorIs(testInstance, creationError, state.ErrStorePathRequired)
}

func TestFileStoreLoadMissingFile(testInstance *testing.T) {
	store, creationError := state.NewFileStore(filepath.Join(testInstance.TempDir(), "upgrade", state.FileNameConstant))
	require.NoError(testInstance, creationError)

	repositories, found, loadError := store.Load()
	require.NoError(testInstance, loadError)
	require.False(testInstance, found)
	require.Empty(testInstance, repositories)
}

func TestFileStoreSaveThenLoad(testInstance *testing.T) {
	stateDirectory := filepath.Join(testInstance.TempDir(), "upgrade")
	store, creationError := state.NewFileStore(filepath.Join(stateDirectory, state.FileNameConstant))
	require.NoError(testInstance, creationError)

	repositories := []adapter.Repository{
		{Owner: "acme", Name: "api", DefaultBranch: "main"},
		{Owner: "acme", Name: "web"},
	}
	require.NoError(testInstance, store.Save(repositories))

	loaded, found, loadError := store.Load()
	require.NoError(testInstance, loadError)
	require.True(testInstance, found)
	require.Equal(testInstance, repositories, loaded)

	contents, readError := os.ReadFile(store.Path())
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(contents), "default_branch: main")

	entries, listError := os.ReadDir(stateDirectory)
	require.NoError(testInstance, listError)
	require.Len(testInstance, entries, 1)
}

func TestFileStoreSaveEmptyListIsPersisted(testInstance *testing.T) {
	store, creationError := state.NewFileStore(filepath.Join(testInstance.TempDir(), state.FileNameConstant))
	require.NoError(testInstance, creationError)

	require.NoError(testInstance, store.Save(nil))

	loaded, found, loadError := store.Load()
	require.NoError(testInstance, loadError)
	require.True(testInstance, found)
	require.Empty(testInstance, loaded)
}

func TestFileStoreLoadRejectsMalformedDocument(testInstance *testing.T) {
	statePath := filepath.Join(testInstance.TempDir(), state.FileNameConstant)
	require.NoError(testInstance, os.WriteFile(statePath, []byte("repositories: {owner: [\n"), 0o644))
	store, creationError := state.NewFileStore(statePath)
	require.NoError(testInstance, creationError)

	_, found, loadError := store.Load()
	require.Error(testInstance, loadError)
	require.True(testInstance, found)
}
