package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

func (suite *StoreTestSuite) RunAuditTests(test *testing.T) {
	test.Run("Events_AppendOrder", suite.TestEvents_AppendOrder)
	test.Run("Events_OnePerCall", suite.TestEvents_OnePerCall)
	test.Run("Events_Pagination", suite.TestEvents_Pagination)
	test.Run("Events_UploadCarriesMetadata", suite.TestEvents_UploadCarriesMetadata)
	test.Run("Events_FailedCallsNotLogged", suite.TestEvents_FailedCallsNotLogged)
}

// TestEvents_AppendOrder verifies the feed reflects commit order with
// contiguous sequence numbers starting at 1.
func (suite *StoreTestSuite) TestEvents_AppendOrder(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	record := mustCreate(test, store, alice, fileInput("audited.txt"))
	require.NoError(test, store.GrantAccount(ctx, alice, bob))
	require.NoError(test, store.GrantFile(ctx, record.ID, alice, carol))
	require.NoError(test, store.DeleteFile(ctx, record.ID, alice))

	events, err := store.Events(ctx, 0, 0)
	require.NoError(test, err)
	require.Len(test, events, 4)

	kinds := make([]registry.EventKind, 0, len(events))
	for i, event := range events {
		assert.Equal(test, uint64(i+1), event.Seq)
		assert.NotEmpty(test, event.ID)
		assert.False(test, event.Timestamp.IsZero())
		kinds = append(kinds, event.Kind)
	}
	assert.Equal(test, []registry.EventKind{
		registry.EventFileUploaded,
		registry.EventAccessGranted,
		registry.EventFileAccessGranted,
		registry.EventFileDeleted,
	}, kinds)
}

// TestEvents_OnePerCall verifies idempotent calls are still logged: the
// feed records calls, not state transitions.
func (suite *StoreTestSuite) TestEvents_OnePerCall(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	require.NoError(test, store.GrantAccount(ctx, alice, bob))
	require.NoError(test, store.GrantAccount(ctx, alice, bob))
	require.NoError(test, store.GrantAccount(ctx, alice, bob))

	events, err := store.Events(ctx, 0, 0)
	require.NoError(test, err)
	require.Len(test, events, 3)
	for _, event := range events {
		assert.Equal(test, registry.EventAccessGranted, event.Kind)
		assert.Equal(test, alice, event.Actor)
		assert.Equal(test, bob, event.Grantee)
	}
}

// TestEvents_Pagination verifies the after cursor and limit.
func (suite *StoreTestSuite) TestEvents_Pagination(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustCreate(test, store, alice, fileInput(uniqueName("page", i)))
	}

	page, err := store.Events(ctx, 0, 2)
	require.NoError(test, err)
	require.Len(test, page, 2)
	assert.Equal(test, uint64(1), page[0].Seq)
	assert.Equal(test, uint64(2), page[1].Seq)

	page, err = store.Events(ctx, 2, 2)
	require.NoError(test, err)
	require.Len(test, page, 2)
	assert.Equal(test, uint64(3), page[0].Seq)

	page, err = store.Events(ctx, 4, 10)
	require.NoError(test, err)
	require.Len(test, page, 1)
	assert.Equal(test, uint64(5), page[0].Seq)

	page, err = store.Events(ctx, 5, 10)
	require.NoError(test, err)
	assert.Empty(test, page)
}

// TestEvents_UploadCarriesMetadata verifies FileUploaded events embed the
// record's name and hash.
func (suite *StoreTestSuite) TestEvents_UploadCarriesMetadata(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	record := mustCreate(test, store, alice, fileInput("tracked.txt"))

	events, err := store.Events(ctx, 0, 0)
	require.NoError(test, err)
	require.Len(test, events, 1)

	event := events[0]
	assert.Equal(test, registry.EventFileUploaded, event.Kind)
	assert.Equal(test, record.ID, event.FileID)
	assert.Equal(test, "tracked.txt", event.FileName)
	assert.Equal(test, record.ContentHash, event.ContentHash)
}

// TestEvents_FailedCallsNotLogged verifies rejected mutations leave no
// trace in the feed.
func (suite *StoreTestSuite) TestEvents_FailedCallsNotLogged(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	record := mustCreate(test, store, alice, fileInput("guarded.txt"))

	requireCode(test, store.DeleteFile(ctx, record.ID, bob), registry.ErrUnauthorized)
	requireCode(test, store.GrantFile(ctx, record.ID, bob, carol), registry.ErrUnauthorized)
	requireCode(test, store.GrantAccount(ctx, alice, alice), registry.ErrSelfGrant)

	events, err := store.Events(ctx, 0, 0)
	require.NoError(test, err)
	require.Len(test, events, 1, "only the successful upload is logged")
}
