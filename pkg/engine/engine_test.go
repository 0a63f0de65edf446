package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azureanc-hub/filevault/pkg/registry"
	"github.com/azureanc-hub/filevault/pkg/registry/memory"
)

const (
	alice    = registry.Identity("0xaaaa00000000000000000000000000000000a11c")
	bob      = registry.Identity("0xbbbb0000000000000000000000000000000000b0")
	carol    = registry.Identity("0xcccc00000000000000000000000000000000ca01")
	stranger = registry.Identity("0xeeee000000000000000000000000000000000000")
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	store := memory.NewStore()
	t.Cleanup(func() { store.Close() })
	return New(store)
}

func addFile(t *testing.T, eng *Engine, owner registry.Identity, name string, public bool) *registry.FileRecord {
	t.Helper()
	record, err := eng.AddFile(context.Background(), owner, registry.NewFileInput{
		FileName:    name,
		FileType:    registry.FileTypeDocument,
		ContentHash: "Qm" + name,
		FileSize:    2048,
		IsPublic:    public,
	})
	require.NoError(t, err)
	return record
}

func assertCode(t *testing.T, err error, code registry.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	got, ok := registry.CodeOf(err)
	require.True(t, ok, "expected StoreError, got %T: %v", err, err)
	assert.Equal(t, code, got)
}

// TestSharingLifecycle walks the account-grant lifecycle end to end:
// stranger denied, grant opens everything, revoke closes it again.
func TestSharingLifecycle(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	record := addFile(t, eng, alice, "report.pdf", false)

	_, err := eng.GetUserFiles(ctx, bob, alice)
	assertCode(t, err, registry.ErrAccessDenied)

	require.NoError(t, eng.GrantAccountAccess(ctx, alice, bob))

	records, err := eng.GetUserFiles(ctx, bob, alice)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, record.ID, records[0].ID)

	fetched, err := eng.GetFile(ctx, bob, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", fetched.FileName)

	require.NoError(t, eng.RevokeAccountAccess(ctx, alice, bob))

	_, err = eng.GetUserFiles(ctx, bob, alice)
	assertCode(t, err, registry.ErrAccessDenied)

	_, err = eng.GetFile(ctx, bob, record.ID)
	assertCode(t, err, registry.ErrNotFound)
}

// TestGetFile_PrivateNotDisclosed verifies an inaccessible private record
// is indistinguishable from a missing one.
func TestGetFile_PrivateNotDisclosed(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	record := addFile(t, eng, alice, "secret.txt", false)

	_, err := eng.GetFile(ctx, stranger, record.ID)
	assertCode(t, err, registry.ErrNotFound)

	_, err = eng.GetFile(ctx, stranger, 999999)
	assertCode(t, err, registry.ErrNotFound)
}

// TestGetFile_PublicReadableByAnyone verifies public records bypass both
// grant layers.
func TestGetFile_PublicReadableByAnyone(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	record := addFile(t, eng, alice, "announcement.txt", true)

	fetched, err := eng.GetFile(ctx, stranger, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, fetched.ID)

	public, err := eng.GetPublicFiles(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, record.ID, public[0].ID)
}

// TestPerFileGrant verifies a single-file grant exposes exactly that file
// and shapes the access summary accordingly.
func TestPerFileGrant(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	granted := addFile(t, eng, alice, "shared.txt", false)
	addFile(t, eng, alice, "private.txt", false)

	require.NoError(t, eng.GrantFileAccess(ctx, alice, granted.ID, bob))

	records, err := eng.GetUserFiles(ctx, bob, alice)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, granted.ID, records[0].ID)

	summary, err := eng.GetAccessSummary(ctx, bob, alice)
	require.NoError(t, err)
	assert.False(t, summary.HasGeneralAccess)
	assert.Equal(t, []uint64{granted.ID}, summary.AccessibleFileIDs)
	assert.Equal(t, 1, summary.TotalAccessibleFiles)

	ok, err := eng.HasFileAccess(ctx, granted.ID, bob)
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestGrantLayersAreIndependent verifies revoking one layer leaves the
// other intact.
func TestGrantLayersAreIndependent(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	record := addFile(t, eng, alice, "both.txt", false)
	require.NoError(t, eng.GrantAccountAccess(ctx, alice, bob))
	require.NoError(t, eng.GrantFileAccess(ctx, alice, record.ID, bob))

	require.NoError(t, eng.RevokeAccountAccess(ctx, alice, bob))
	ok, err := eng.HasFileAccess(ctx, record.ID, bob)
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestAccountGrantCoversFutureFiles verifies the account grant is monotone
// over later uploads.
func TestAccountGrantCoversFutureFiles(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.GrantAccountAccess(ctx, alice, bob))
	record := addFile(t, eng, alice, "later.txt", false)

	records, err := eng.GetUserFiles(ctx, bob, alice)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, record.ID, records[0].ID)
}

// TestSelfGrantRejected verifies self-grants fail at both scopes without
// mutating anything.
func TestSelfGrantRejected(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	record := addFile(t, eng, alice, "own.txt", false)

	assertCode(t, eng.GrantAccountAccess(ctx, alice, alice), registry.ErrSelfGrant)
	assertCode(t, eng.GrantFileAccess(ctx, alice, record.ID, alice), registry.ErrSelfGrant)

	grants, err := eng.GetAccountAccessList(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, grants)

	fileGrants, err := eng.GetFileAccessList(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, fileGrants)
}

// TestDeleteHidesEverywhere verifies deletion removes the record from
// every read path at once.
func TestDeleteHidesEverywhere(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	record := addFile(t, eng, alice, "doomed.txt", true)
	require.NoError(t, eng.GrantAccountAccess(ctx, alice, bob))
	require.NoError(t, eng.DeleteFile(ctx, alice, record.ID))

	_, err := eng.GetFile(ctx, alice, record.ID)
	assertCode(t, err, registry.ErrNotFound)

	mine, err := eng.GetMyFiles(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, mine)

	public, err := eng.GetPublicFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, public)

	shared, err := eng.GetUserFiles(ctx, bob, alice)
	require.NoError(t, err)
	assert.Empty(t, shared, "bob still holds the account grant, so the empty list is not a denial")
}

// TestListingsSortedByID verifies creation-order listings.
func TestListingsSortedByID(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	first := addFile(t, eng, alice, "a.txt", false)
	second := addFile(t, eng, alice, "b.txt", false)
	third := addFile(t, eng, alice, "c.txt", false)

	mine, err := eng.GetMyFiles(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, []uint64{first.ID, second.ID, third.ID},
		[]uint64{mine[0].ID, mine[1].ID, mine[2].ID})
}

// TestListAccessUsers verifies the active-grantee listing tracks revocations.
func TestListAccessUsers(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.GrantAccountAccess(ctx, alice, bob))
	require.NoError(t, eng.GrantAccountAccess(ctx, alice, carol))
	require.NoError(t, eng.RevokeAccountAccess(ctx, alice, bob))

	users, err := eng.ListAccessUsers(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []registry.Identity{carol}, users)

	// The full listing keeps the tombstone.
	grants, err := eng.GetAccountAccessList(ctx, alice)
	require.NoError(t, err)
	require.Len(t, grants, 2)
}

// TestIdempotentGrantLogsEachCall verifies the audit feed records every
// successful call, state change or not.
func TestIdempotentGrantLogsEachCall(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.GrantAccountAccess(ctx, alice, bob))
	require.NoError(t, eng.GrantAccountAccess(ctx, alice, bob))

	events, err := eng.Events(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, event := range events {
		assert.Equal(t, registry.EventAccessGranted, event.Kind)
	}
}

// TestMalformedIdentityRejected verifies boundary validation of
// caller-supplied principals.
func TestMalformedIdentityRejected(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	_, err := eng.GetMyFiles(ctx, registry.Identity(""))
	assertCode(t, err, registry.ErrInvalidIdentity)

	err = eng.GrantAccountAccess(ctx, alice, registry.Identity("has space"))
	assertCode(t, err, registry.ErrInvalidIdentity)
}
