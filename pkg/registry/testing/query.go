package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

func (suite *StoreTestSuite) RunQueryTests(test *testing.T) {
	test.Run("ListAccessible_DeniesStranger", suite.TestListAccessible_DeniesStranger)
	test.Run("ListAccessible_AccountGrant", suite.TestListAccessible_AccountGrant)
	test.Run("ListAccessible_FileGrantSubset", suite.TestListAccessible_FileGrantSubset)
	test.Run("ListAccessible_PublicWithoutGrant", suite.TestListAccessible_PublicWithoutGrant)
	test.Run("ListAccessible_SelfNeverDenied", suite.TestListAccessible_SelfNeverDenied)
	test.Run("ListAccessible_GrantOnDeletedFileIsInert", suite.TestListAccessible_GrantOnDeletedFileIsInert)
	test.Run("ListAccessible_EmptyWithGrantSucceeds", suite.TestListAccessible_EmptyWithGrantSucceeds)
	test.Run("AccessSummary_Stranger", suite.TestAccessSummary_Stranger)
	test.Run("AccessSummary_FileGrantOnly", suite.TestAccessSummary_FileGrantOnly)
	test.Run("AccessSummary_AccountGrant", suite.TestAccessSummary_AccountGrant)
	test.Run("AccessSummary_CountsPublic", suite.TestAccessSummary_CountsPublic)
}

// TestListAccessible_DeniesStranger verifies the denial condition: no
// readable records and no authorization relation at all.
func (suite *StoreTestSuite) TestListAccessible_DeniesStranger(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	mustCreate(test, store, alice, fileInput("secret.txt"))

	_, err := store.ListAccessible(ctx, alice, stranger)
	requireCode(test, err, registry.ErrAccessDenied)

	// A target with no files at all looks the same to a stranger.
	_, err = store.ListAccessible(ctx, nobody, stranger)
	requireCode(test, err, registry.ErrAccessDenied)
}

// TestListAccessible_AccountGrant verifies the full lifecycle: deny,
// grant, list, revoke, deny again.
func (suite *StoreTestSuite) TestListAccessible_AccountGrant(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	record := mustCreate(test, store, alice, fileInput("report.txt"))

	_, err := store.ListAccessible(ctx, alice, bob)
	requireCode(test, err, registry.ErrAccessDenied)

	require.NoError(test, store.GrantAccount(ctx, alice, bob))
	records, err := store.ListAccessible(ctx, alice, bob)
	require.NoError(test, err)
	assert.Equal(test, []uint64{record.ID}, recordIDs(records))

	require.NoError(test, store.RevokeAccount(ctx, alice, bob))
	_, err = store.ListAccessible(ctx, alice, bob)
	requireCode(test, err, registry.ErrAccessDenied)
}

// TestListAccessible_FileGrantSubset verifies per-file grants expose only
// the granted subset.
func (suite *StoreTestSuite) TestListAccessible_FileGrantSubset(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	visible := mustCreate(test, store, alice, fileInput("visible.txt"))
	mustCreate(test, store, alice, fileInput("hidden.txt"))

	require.NoError(test, store.GrantFile(ctx, visible.ID, alice, bob))

	records, err := store.ListAccessible(ctx, alice, bob)
	require.NoError(test, err)
	assert.Equal(test, []uint64{visible.ID}, recordIDs(records))
}

// TestListAccessible_PublicWithoutGrant verifies public records are
// readable by anyone, with no grant in either layer.
func (suite *StoreTestSuite) TestListAccessible_PublicWithoutGrant(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	public := mustCreate(test, store, alice, publicInput("open.txt"))
	mustCreate(test, store, alice, fileInput("closed.txt"))

	records, err := store.ListAccessible(ctx, alice, stranger)
	require.NoError(test, err)
	assert.Equal(test, []uint64{public.ID}, recordIDs(records))
}

// TestListAccessible_SelfNeverDenied verifies a requester listing their
// own namespace always succeeds, even when empty.
func (suite *StoreTestSuite) TestListAccessible_SelfNeverDenied(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	records, err := store.ListAccessible(ctx, nobody, nobody)
	require.NoError(test, err)
	assert.Empty(test, records)
}

// TestListAccessible_GrantOnDeletedFileIsInert verifies a grant whose file
// was deleted no longer counts as an authorization relation.
func (suite *StoreTestSuite) TestListAccessible_GrantOnDeletedFileIsInert(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	record := mustCreate(test, store, alice, fileInput("erased.txt"))
	mustCreate(test, store, alice, fileInput("remaining.txt"))
	require.NoError(test, store.GrantFile(ctx, record.ID, alice, bob))
	require.NoError(test, store.DeleteFile(ctx, record.ID, alice))

	_, err := store.ListAccessible(ctx, alice, bob)
	requireCode(test, err, registry.ErrAccessDenied)
}

// TestListAccessible_EmptyWithGrantSucceeds verifies an authorized
// requester gets an empty list, not a denial, when nothing is readable.
func (suite *StoreTestSuite) TestListAccessible_EmptyWithGrantSucceeds(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	require.NoError(test, store.GrantAccount(ctx, alice, bob))

	records, err := store.ListAccessible(ctx, alice, bob)
	require.NoError(test, err)
	assert.Empty(test, records)
}

// TestAccessSummary_Stranger verifies the zero-relation summary.
func (suite *StoreTestSuite) TestAccessSummary_Stranger(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	mustCreate(test, store, alice, fileInput("private.txt"))

	summary, err := store.AccessSummary(ctx, alice, stranger)
	require.NoError(test, err)
	assert.False(test, summary.HasGeneralAccess)
	assert.Empty(test, summary.AccessibleFileIDs)
	assert.NotNil(test, summary.AccessibleFileIDs, "must be an empty slice, not nil")
	assert.Zero(test, summary.TotalAccessibleFiles)
}

// TestAccessSummary_FileGrantOnly verifies per-file reach is reported
// without claiming general access.
func (suite *StoreTestSuite) TestAccessSummary_FileGrantOnly(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	granted := mustCreate(test, store, alice, fileInput("single.txt"))
	mustCreate(test, store, alice, fileInput("rest.txt"))
	require.NoError(test, store.GrantFile(ctx, granted.ID, alice, bob))

	summary, err := store.AccessSummary(ctx, alice, bob)
	require.NoError(test, err)
	assert.False(test, summary.HasGeneralAccess)
	assert.Equal(test, []uint64{granted.ID}, summary.AccessibleFileIDs)
	assert.Equal(test, 1, summary.TotalAccessibleFiles)
}

// TestAccessSummary_AccountGrant verifies account-wide reach: all live
// files count, but none appears in the per-file list.
func (suite *StoreTestSuite) TestAccessSummary_AccountGrant(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	mustCreate(test, store, alice, fileInput("a.txt"))
	mustCreate(test, store, alice, fileInput("b.txt"))
	require.NoError(test, store.GrantAccount(ctx, alice, bob))

	summary, err := store.AccessSummary(ctx, alice, bob)
	require.NoError(test, err)
	assert.True(test, summary.HasGeneralAccess)
	assert.Empty(test, summary.AccessibleFileIDs, "account access is not a per-file grant")
	assert.Equal(test, 2, summary.TotalAccessibleFiles)
}

// TestAccessSummary_CountsPublic verifies public files count toward the
// total for requesters with no grants.
func (suite *StoreTestSuite) TestAccessSummary_CountsPublic(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	mustCreate(test, store, alice, publicInput("open.txt"))
	mustCreate(test, store, alice, fileInput("closed.txt"))

	summary, err := store.AccessSummary(ctx, alice, stranger)
	require.NoError(test, err)
	assert.False(test, summary.HasGeneralAccess)
	assert.Empty(test, summary.AccessibleFileIDs)
	assert.Equal(test, 1, summary.TotalAccessibleFiles)
}
