package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

func (suite *StoreTestSuite) RunAccessTests(test *testing.T) {
	test.Run("GrantAccount_OpensAllFiles", suite.TestGrantAccount_OpensAllFiles)
	test.Run("GrantAccount_CoversFutureFiles", suite.TestGrantAccount_CoversFutureFiles)
	test.Run("GrantAccount_RejectsSelf", suite.TestGrantAccount_RejectsSelf)
	test.Run("RevokeAccount_TombstonesRow", suite.TestRevokeAccount_TombstonesRow)
	test.Run("RevokeAccount_AbsentIsNoOp", suite.TestRevokeAccount_AbsentIsNoOp)
	test.Run("GrantFile_OpensSingleFile", suite.TestGrantFile_OpensSingleFile)
	test.Run("GrantFile_OwnerOnly", suite.TestGrantFile_OwnerOnly)
	test.Run("GrantFile_RejectsSelf", suite.TestGrantFile_RejectsSelf)
	test.Run("RevokeFile_ClosesSingleFile", suite.TestRevokeFile_ClosesSingleFile)
	test.Run("LayersAreIndependent", suite.TestLayersAreIndependent)
	test.Run("HasAccess_OwnerAlwaysTrue", suite.TestHasAccess_OwnerAlwaysTrue)
	test.Run("HasAccess_UnknownFile", suite.TestHasAccess_UnknownFile)
	test.Run("ListFileGrants_IncludesDeletedFiles", suite.TestListFileGrants_IncludesDeletedFiles)
	test.Run("Regrant_AfterRevoke", suite.TestRegrant_AfterRevoke)
	test.Run("ColonIdentitiesStayDistinct", suite.TestColonIdentitiesStayDistinct)
}

// TestGrantAccount_OpensAllFiles verifies an account grant covers every
// existing file of the grantor.
func (suite *StoreTestSuite) TestGrantAccount_OpensAllFiles(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	first := mustCreate(test, store, alice, fileInput("one.txt"))
	second := mustCreate(test, store, alice, fileInput("two.txt"))

	ok, err := store.HasAccess(ctx, first.ID, bob)
	require.NoError(test, err)
	assert.False(test, ok, "no grant yet")

	require.NoError(test, store.GrantAccount(ctx, alice, bob))

	for _, id := range []uint64{first.ID, second.ID} {
		ok, err := store.HasAccess(ctx, id, bob)
		require.NoError(test, err)
		assert.True(test, ok)
	}

	grantees, err := store.ListActiveGrantees(ctx, alice)
	require.NoError(test, err)
	assert.Equal(test, []registry.Identity{bob}, grantees)
}

// TestGrantAccount_CoversFutureFiles verifies the grant is monotone over
// files created after it.
func (suite *StoreTestSuite) TestGrantAccount_CoversFutureFiles(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	require.NoError(test, store.GrantAccount(ctx, alice, bob))
	later := mustCreate(test, store, alice, fileInput("later.txt"))

	ok, err := store.HasAccess(ctx, later.ID, bob)
	require.NoError(test, err)
	assert.True(test, ok, "account grant must cover files created after it")
}

// TestGrantAccount_RejectsSelf verifies self-grants fail without side
// effects, on both grant and revoke.
func (suite *StoreTestSuite) TestGrantAccount_RejectsSelf(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	requireCode(test, store.GrantAccount(ctx, alice, alice), registry.ErrSelfGrant)
	requireCode(test, store.RevokeAccount(ctx, alice, alice), registry.ErrSelfGrant)

	rows, err := store.ListAccountGrants(ctx, alice)
	require.NoError(test, err)
	assert.Empty(test, rows, "a rejected self-grant must leave no row")

	events, err := store.Events(ctx, 0, 0)
	require.NoError(test, err)
	assert.Empty(test, events, "a rejected self-grant must not be logged")
}

// TestRevokeAccount_TombstonesRow verifies revocation retains the row with
// Active=false.
func (suite *StoreTestSuite) TestRevokeAccount_TombstonesRow(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	record := mustCreate(test, store, alice, fileInput("guarded.txt"))
	require.NoError(test, store.GrantAccount(ctx, alice, bob))
	require.NoError(test, store.RevokeAccount(ctx, alice, bob))

	ok, err := store.HasAccess(ctx, record.ID, bob)
	require.NoError(test, err)
	assert.False(test, ok)

	rows, err := store.ListAccountGrants(ctx, alice)
	require.NoError(test, err)
	require.Len(test, rows, 1)
	assert.Equal(test, registry.AccountGrant{Grantor: alice, Grantee: bob, Active: false}, rows[0])

	grantees, err := store.ListActiveGrantees(ctx, alice)
	require.NoError(test, err)
	assert.Empty(test, grantees)
}

// TestRevokeAccount_AbsentIsNoOp verifies revoking a grant that was never
// issued succeeds without creating a row, but is still logged.
func (suite *StoreTestSuite) TestRevokeAccount_AbsentIsNoOp(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	require.NoError(test, store.RevokeAccount(ctx, alice, bob))

	rows, err := store.ListAccountGrants(ctx, alice)
	require.NoError(test, err)
	assert.Empty(test, rows, "a no-op revoke must not materialize a tombstone")

	events, err := store.Events(ctx, 0, 0)
	require.NoError(test, err)
	require.Len(test, events, 1)
	assert.Equal(test, registry.EventAccessRevoked, events[0].Kind)
}

// TestGrantFile_OpensSingleFile verifies a file grant opens exactly the
// named file.
func (suite *StoreTestSuite) TestGrantFile_OpensSingleFile(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	granted := mustCreate(test, store, alice, fileInput("granted.txt"))
	other := mustCreate(test, store, alice, fileInput("other.txt"))

	require.NoError(test, store.GrantFile(ctx, granted.ID, alice, bob))

	ok, err := store.HasAccess(ctx, granted.ID, bob)
	require.NoError(test, err)
	assert.True(test, ok)

	ok, err = store.HasAccess(ctx, other.ID, bob)
	require.NoError(test, err)
	assert.False(test, ok, "file grant must not leak to sibling files")
}

// TestGrantFile_OwnerOnly verifies only the owner can manage file grants,
// and that ownership is resolved through the record, not caller claims.
func (suite *StoreTestSuite) TestGrantFile_OwnerOnly(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	record := mustCreate(test, store, alice, fileInput("locked.txt"))

	requireCode(test, store.GrantFile(ctx, record.ID, bob, carol), registry.ErrUnauthorized)
	requireCode(test, store.RevokeFile(ctx, record.ID, bob, carol), registry.ErrUnauthorized)
	requireCode(test, store.GrantFile(ctx, 999999, alice, bob), registry.ErrNotFound)

	ok, err := store.HasAccess(ctx, record.ID, carol)
	require.NoError(test, err)
	assert.False(test, ok, "a rejected grant must leave no access")
}

// TestGrantFile_RejectsSelf verifies per-file self-grants fail too.
func (suite *StoreTestSuite) TestGrantFile_RejectsSelf(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	record := mustCreate(test, store, alice, fileInput("own.txt"))
	requireCode(test, store.GrantFile(ctx, record.ID, alice, alice), registry.ErrSelfGrant)
	requireCode(test, store.RevokeFile(ctx, record.ID, alice, alice), registry.ErrSelfGrant)

	grants, err := store.ListFileGrants(ctx, alice)
	require.NoError(test, err)
	assert.Empty(test, grants)
}

// TestRevokeFile_ClosesSingleFile verifies per-file revocation and its
// tombstone.
func (suite *StoreTestSuite) TestRevokeFile_ClosesSingleFile(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	record := mustCreate(test, store, alice, fileInput("transient.txt"))
	require.NoError(test, store.GrantFile(ctx, record.ID, alice, bob))
	require.NoError(test, store.RevokeFile(ctx, record.ID, alice, bob))

	ok, err := store.HasAccess(ctx, record.ID, bob)
	require.NoError(test, err)
	assert.False(test, ok)

	grants, err := store.ListFileGrants(ctx, alice)
	require.NoError(test, err)
	require.Len(test, grants, 1)
	assert.Equal(test, registry.FileGrant{FileID: record.ID, Grantee: bob, Active: false}, grants[0])
}

// TestLayersAreIndependent verifies account and file grants compose by OR
// and revoking one layer never touches the other.
func (suite *StoreTestSuite) TestLayersAreIndependent(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	record := mustCreate(test, store, alice, fileInput("shared.txt"))

	require.NoError(test, store.GrantAccount(ctx, alice, bob))
	require.NoError(test, store.GrantFile(ctx, record.ID, alice, bob))

	// Revoking the account layer leaves the file layer standing.
	require.NoError(test, store.RevokeAccount(ctx, alice, bob))
	ok, err := store.HasAccess(ctx, record.ID, bob)
	require.NoError(test, err)
	assert.True(test, ok, "file grant must survive account revocation")

	// And the other way around.
	require.NoError(test, store.GrantAccount(ctx, alice, bob))
	require.NoError(test, store.RevokeFile(ctx, record.ID, alice, bob))
	ok, err = store.HasAccess(ctx, record.ID, bob)
	require.NoError(test, err)
	assert.True(test, ok, "account grant must survive file revocation")
}

// TestHasAccess_OwnerAlwaysTrue verifies ownership alone grants access,
// even to private files with no grants at all.
func (suite *StoreTestSuite) TestHasAccess_OwnerAlwaysTrue(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	record := mustCreate(test, store, alice, fileInput("solo.txt"))
	ok, err := store.HasAccess(ctx, record.ID, alice)
	require.NoError(test, err)
	assert.True(test, ok)
}

// TestHasAccess_UnknownFile verifies the predicate reports NotFound for
// unknown and deleted files alike.
func (suite *StoreTestSuite) TestHasAccess_UnknownFile(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	_, err := store.HasAccess(ctx, 31337, alice)
	requireCode(test, err, registry.ErrNotFound)

	record := mustCreate(test, store, alice, fileInput("gone.txt"))
	require.NoError(test, store.DeleteFile(ctx, record.ID, alice))
	_, err = store.HasAccess(ctx, record.ID, alice)
	requireCode(test, err, registry.ErrNotFound)
}

// TestListFileGrants_IncludesDeletedFiles verifies grant history survives
// file deletion even though the grants themselves are inert.
func (suite *StoreTestSuite) TestListFileGrants_IncludesDeletedFiles(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	record := mustCreate(test, store, alice, fileInput("history.txt"))
	require.NoError(test, store.GrantFile(ctx, record.ID, alice, bob))
	require.NoError(test, store.DeleteFile(ctx, record.ID, alice))

	grants, err := store.ListFileGrants(ctx, alice)
	require.NoError(test, err)
	require.Len(test, grants, 1)
	assert.Equal(test, record.ID, grants[0].FileID)
	assert.True(test, grants[0].Active, "the row itself stays active; the file being gone makes it inert")
}

// TestColonIdentitiesStayDistinct verifies that identities containing the
// ":" separator never alias each other. The pairs (a, b:c) and (a:b, c)
// must name different grants, and a's listings must never include a:b's
// files.
func (suite *StoreTestSuite) TestColonIdentitiesStayDistinct(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	const (
		a  = registry.Identity("a")
		ab = registry.Identity("a:b")
		bc = registry.Identity("b:c")
		c  = registry.Identity("c")
	)

	record := mustCreate(test, store, ab, fileInput("composite.txt"))

	// a grants blanket access to b:c. That relation must not read as
	// a:b granting access to c.
	require.NoError(test, store.GrantAccount(ctx, a, bc))

	ok, err := store.HasAccess(ctx, record.ID, c)
	require.NoError(test, err)
	assert.False(test, ok, "grant a->b:c must not open a:b's files to c")

	ok, err = store.HasAccess(ctx, record.ID, bc)
	require.NoError(test, err)
	assert.False(test, ok, "grant a->b:c covers a's files only")

	// Ownership listings must not bleed across the shared prefix.
	owned, err := store.ListByOwner(ctx, a)
	require.NoError(test, err)
	assert.NotContains(test, recordIDs(owned), record.ID, "a must not list a:b's files")

	owned, err = store.ListByOwner(ctx, ab)
	require.NoError(test, err)
	assert.Equal(test, []uint64{record.ID}, recordIDs(owned))

	// The grantee round-trips intact through the grant listings.
	rows, err := store.ListAccountGrants(ctx, a)
	require.NoError(test, err)
	require.Len(test, rows, 1)
	assert.Equal(test, registry.AccountGrant{Grantor: a, Grantee: bc, Active: true}, rows[0])

	rows, err = store.ListAccountGrants(ctx, ab)
	require.NoError(test, err)
	assert.Empty(test, rows, "a:b issued no grants")
}

// TestRegrant_AfterRevoke verifies a tombstoned grant can be reactivated.
func (suite *StoreTestSuite) TestRegrant_AfterRevoke(test *testing.T) {
	store := suite.open(test)
	ctx := context.Background()

	record := mustCreate(test, store, alice, fileInput("cyclic.txt"))

	require.NoError(test, store.GrantAccount(ctx, alice, bob))
	require.NoError(test, store.RevokeAccount(ctx, alice, bob))
	require.NoError(test, store.GrantAccount(ctx, alice, bob))

	ok, err := store.HasAccess(ctx, record.ID, bob)
	require.NoError(test, err)
	assert.True(test, ok)

	// Still a single row, now active again.
	rows, err := store.ListAccountGrants(ctx, alice)
	require.NoError(test, err)
	require.Len(test, rows, 1)
	assert.True(test, rows[0].Active)
}
