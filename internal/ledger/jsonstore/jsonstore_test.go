package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dstepanenko/chainvault/internal/ledger"
	"github.com/dstepanenko/chainvault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsEmptyState(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "ledger.json"))
	state, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Blocks)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "ledger.json")
	store := New(path)

	state := &ledger.State{
		Blocks: []models.Block{
			{Index: 0, FileID: "genesis", Owner: "system", PrevHash: "0", BlockHash: "h0"},
			{Index: 1, FileID: "file_aaa", Owner: "alice", AuthorizedUsers: []string{"bob"}, PrevHash: "h0", BlockHash: "h1"},
		},
		Events: map[string][]models.AccessEvent{
			"file_aaa": {{ID: "e1", FileID: "file_aaa", Kind: models.EventUpload, Actor: "alice", Granted: true, PrevHash: "0", Hash: "eh1"}},
		},
	}
	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, state.Blocks, loaded.Blocks)
	assert.Equal(t, state.Events, loaded.Events)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := New(path).Load(context.Background())
	assert.Error(t, err)
}

func TestLedgerOverJSONStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")

	l, err := ledger.New(ctx, New(path), nil)
	require.NoError(t, err)
	require.NoError(t, l.Init(ctx))
	_, err = l.Append(ctx, "file_aaa", "alice", nil, nil)
	require.NoError(t, err)

	reopened, err := ledger.New(ctx, New(path), nil)
	require.NoError(t, err)
	assert.True(t, reopened.VerifyIntegrity(ctx))
}
