package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

func (suite *StoreTestSuite) RunFileTests(test *testing.T) {
	test.Run("Create_AssignsSequentialIDs", suite.TestCreate_AssignsSequentialIDs)
	test.Run("Create_StampsUploadTime", suite.TestCreate_StampsUploadTime)
	test.Run("Create_PreservesTags", suite.TestCreate_PreservesTags)
	test.Run("Create_RejectsMalformedInput", suite.TestCreate_RejectsMalformedInput)
	test.Run("Get_NotFoundForUnknownID", suite.TestGet_NotFoundForUnknownID)
	test.Run("Delete_HidesRecordEverywhere", suite.TestDelete_HidesRecordEverywhere)
	test.Run("Delete_OwnerOnly", suite.TestDelete_OwnerOnly)
	test.Run("Delete_IDNeverReassigned", suite.TestDelete_IDNeverReassigned)
	test.Run("ListByOwner_ScopedToOwner", suite.TestListByOwner_ScopedToOwner)
	test.Run("ListPublic_OnlyPublicRecords", suite.TestListPublic_OnlyPublicRecords)
}

// TestCreate_AssignsSequentialIDs verifies that IDs come from a single
// monotonic sequence.
func (suite *StoreTestSuite) TestCreate_AssignsSequentialIDs(test *testing.T) {
	store := suite.open(test)

	var lastID uint64
	for i := 0; i < 5; i++ {
		record := mustCreate(test, store, alice, fileInput(uniqueName("seq", i)))
		assert.Greater(test, record.ID, lastID, "IDs must be strictly increasing")
		lastID = record.ID
	}
}

// TestCreate_StampsUploadTime verifies the engine assigns the upload time.
func (suite *StoreTestSuite) TestCreate_StampsUploadTime(test *testing.T) {
	store := suite.open(test)

	record := mustCreate(test, store, alice, fileInput("stamped.txt"))
	assert.False(test, record.UploadTime.IsZero(), "upload time must be set by the store")
	assert.Equal(test, alice, record.Owner)
}

// TestCreate_PreservesTags verifies tag order and duplicates survive.
func (suite *StoreTestSuite) TestCreate_PreservesTags(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	input := fileInput("tagged.txt")
	input.Tags = []string{"b", "a", "b", "c"}
	record := mustCreate(test, store, alice, input)

	fetched, err := store.GetFile(ctx, record.ID)
	require.NoError(test, err)
	assert.Equal(test, []string{"b", "a", "b", "c"}, fetched.Tags)
}

// TestCreate_RejectsMalformedInput verifies structural validation.
func (suite *StoreTestSuite) TestCreate_RejectsMalformedInput(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	missingName := fileInput("x")
	missingName.FileName = ""
	_, err := store.CreateFile(ctx, alice, missingName)
	requireCode(test, err, registry.ErrInvalidArgument)

	missingHash := fileInput("nohash.txt")
	missingHash.ContentHash = ""
	_, err = store.CreateFile(ctx, alice, missingHash)
	requireCode(test, err, registry.ErrInvalidArgument)

	badType := fileInput("badtype.txt")
	badType.FileType = "spreadsheet"
	_, err = store.CreateFile(ctx, alice, badType)
	requireCode(test, err, registry.ErrInvalidArgument)
}

// TestGet_NotFoundForUnknownID verifies unknown IDs are a clean miss.
func (suite *StoreTestSuite) TestGet_NotFoundForUnknownID(test *testing.T) {
	store := suite.open(test)

	_, err := store.GetFile(context.Background(), 424242)
	requireCode(test, err, registry.ErrNotFound)
}

// TestDelete_HidesRecordEverywhere verifies a deleted record disappears
// from Get, ListByOwner, and ListPublic for every caller.
func (suite *StoreTestSuite) TestDelete_HidesRecordEverywhere(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	record := mustCreate(test, store, alice, publicInput("doomed.txt"))
	require.NoError(test, store.DeleteFile(ctx, record.ID, alice))

	_, err := store.GetFile(ctx, record.ID)
	requireCode(test, err, registry.ErrNotFound)

	owned, err := store.ListByOwner(ctx, alice)
	require.NoError(test, err)
	assert.NotContains(test, recordIDs(owned), record.ID)

	public, err := store.ListPublic(ctx)
	require.NoError(test, err)
	assert.NotContains(test, recordIDs(public), record.ID)

	// Deleting twice is NotFound, not a second tombstone.
	err = store.DeleteFile(ctx, record.ID, alice)
	requireCode(test, err, registry.ErrNotFound)
}

// TestDelete_OwnerOnly verifies only the owner may delete.
func (suite *StoreTestSuite) TestDelete_OwnerOnly(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	record := mustCreate(test, store, alice, fileInput("mine.txt"))

	err := store.DeleteFile(ctx, record.ID, bob)
	requireCode(test, err, registry.ErrUnauthorized)

	// The failed delete left no side effect.
	fetched, err := store.GetFile(ctx, record.ID)
	require.NoError(test, err)
	assert.Equal(test, record.ID, fetched.ID)
}

// TestDelete_IDNeverReassigned verifies the sequence does not reuse the
// ID of a deleted record.
func (suite *StoreTestSuite) TestDelete_IDNeverReassigned(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	first := mustCreate(test, store, alice, fileInput("first.txt"))
	require.NoError(test, store.DeleteFile(ctx, first.ID, alice))

	second := mustCreate(test, store, alice, fileInput("second.txt"))
	assert.Greater(test, second.ID, first.ID, "deleted IDs must never be reassigned")
}

// TestListByOwner_ScopedToOwner verifies ownership scoping.
func (suite *StoreTestSuite) TestListByOwner_ScopedToOwner(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	aliceFile := mustCreate(test, store, alice, fileInput("alice.txt"))
	bobFile := mustCreate(test, store, bob, fileInput("bob.txt"))

	owned, err := store.ListByOwner(ctx, alice)
	require.NoError(test, err)
	assert.Contains(test, recordIDs(owned), aliceFile.ID)
	assert.NotContains(test, recordIDs(owned), bobFile.ID)

	empty, err := store.ListByOwner(ctx, nobody)
	require.NoError(test, err)
	assert.Empty(test, empty)
}

// TestListPublic_OnlyPublicRecords verifies ListPublic never returns a
// private record.
func (suite *StoreTestSuite) TestListPublic_OnlyPublicRecords(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	private := mustCreate(test, store, alice, fileInput("private.txt"))
	public := mustCreate(test, store, alice, publicInput("public.txt"))

	records, err := store.ListPublic(ctx)
	require.NoError(test, err)
	for _, record := range records {
		assert.True(test, record.IsPublic, "ListPublic returned a private record")
	}
	assert.Contains(test, recordIDs(records), public.ID)
	assert.NotContains(test, recordIDs(records), private.ID)
}
