package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azureanc-hub/filevault/pkg/registry"
	registrytest "github.com/azureanc-hub/filevault/pkg/registry/testing"
)

func TestBadgerStore_Conformance(t *testing.T) {
	suite := &registrytest.StoreTestSuite{
		NewStore: func(t *testing.T) registry.Store {
			store, err := Open(Options{InMemory: true})
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}

// TestBadgerStore_Persistence verifies records, grants, sequences, and the
// audit feed survive a close and reopen of the same directory.
func TestBadgerStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	owner := registry.Identity("0xaaaa00000000000000000000000000000000a11c")
	grantee := registry.Identity("0xbbbb0000000000000000000000000000000000b0")

	store, err := Open(Options{Dir: dir})
	require.NoError(t, err)

	record, err := store.CreateFile(ctx, owner, registry.NewFileInput{
		FileName:    "durable.txt",
		FileType:    registry.FileTypeDocument,
		ContentHash: "Qmdurable",
	})
	require.NoError(t, err)
	require.NoError(t, store.GrantAccount(ctx, owner, grantee))

	deleted, err := store.CreateFile(ctx, owner, registry.NewFileInput{
		FileName:    "ephemeral.txt",
		FileType:    registry.FileTypeDocument,
		ContentHash: "Qmephemeral",
	})
	require.NoError(t, err)
	require.NoError(t, store.DeleteFile(ctx, deleted.ID, owner))
	require.NoError(t, store.Close())

	reopened, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	defer reopened.Close()

	fetched, err := reopened.GetFile(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "durable.txt", fetched.FileName)

	ok, err := reopened.HasAccess(ctx, record.ID, grantee)
	require.NoError(t, err)
	assert.True(t, ok, "account grant must survive reopen")

	// The ID sequence must continue past the deleted record, not restart.
	next, err := reopened.CreateFile(ctx, owner, registry.NewFileInput{
		FileName:    "post-restart.txt",
		FileType:    registry.FileTypeDocument,
		ContentHash: "Qmrestart",
	})
	require.NoError(t, err)
	assert.Greater(t, next.ID, deleted.ID, "ID sequence must survive restart")

	events, err := reopened.Events(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 5)
	for i, event := range events {
		assert.Equal(t, uint64(i+1), event.Seq, "event sequence must be contiguous across restarts")
	}
}

// TestBadgerStore_DeletedTombstoneSurvivesReopen verifies a deleted record
// stays deleted after restart instead of resurfacing.
func TestBadgerStore_DeletedTombstoneSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	owner := registry.Identity("0xaaaa00000000000000000000000000000000a11c")

	store, err := Open(Options{Dir: dir})
	require.NoError(t, err)

	record, err := store.CreateFile(ctx, owner, registry.NewFileInput{
		FileName:    "gone.txt",
		FileType:    registry.FileTypeOther,
		ContentHash: "Qmgone",
	})
	require.NoError(t, err)
	require.NoError(t, store.DeleteFile(ctx, record.ID, owner))
	require.NoError(t, store.Close())

	reopened, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.GetFile(ctx, record.ID)
	require.Error(t, err)
	code, ok := registry.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, registry.ErrNotFound, code)

	owned, err := reopened.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, owned)
}
