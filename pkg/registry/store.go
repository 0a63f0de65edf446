package registry

import "context"

// ============================================================================
// Store Interface
// ============================================================================

// Store provides transactional storage for file records, access grants,
// and the audit feed.
//
// The interface groups three concerns that must commit together:
//
//   - File records: the durable mapping from file ID to metadata and
//     ownership. IDs come from a single monotonic sequence and are never
//     reused after deletion.
//   - Access grants: the two independent authorization relations
//     (account-wide and per-file). Revoked rows are retained as tombstones.
//   - Audit feed: one append-only event per successful mutation.
//
// Mutations are atomic across all three: a reader never observes a file
// without its ownership, a grant for a file that does not exist, or a
// committed mutation whose audit event is missing. Read operations execute
// against a single consistent snapshot spanning records and grants.
//
// Composition reads (ListAccessible, AccessSummary) live here rather than in
// the engine because only the backend can evaluate the authorization
// predicate and the record listing inside one snapshot.
//
// Error Handling:
// Business failures are returned as *StoreError with a stable ErrorCode;
// infrastructure failures are wrapped with %w. A failed mutation has no
// observable side effect.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type Store interface {
	// ========================================================================
	// File Records
	// ========================================================================

	// CreateFile registers a new file record owned by owner.
	//
	// The store assigns the next ID from the global sequence and stamps
	// UploadTime with the engine clock. A FileUploaded event is appended in
	// the same transaction. Always succeeds for well-formed input; the store
	// enforces no size limits (that is a content-store concern).
	//
	// Returns ErrInvalidArgument for malformed input (empty name, missing
	// content hash, unknown file type).
	CreateFile(ctx context.Context, owner Identity, input NewFileInput) (*FileRecord, error)

	// GetFile returns the record for id.
	//
	// Returns ErrNotFound if the id was never assigned or the record has
	// been deleted; the two cases are indistinguishable.
	GetFile(ctx context.Context, id uint64) (*FileRecord, error)

	// DeleteFile tombstones the record so it no longer appears in any
	// enumeration, and appends a FileDeleted event. File grants referencing
	// the record become inert but are not purged.
	//
	// Returns ErrNotFound for an unknown id and ErrUnauthorized unless
	// actor is the record's owner.
	DeleteFile(ctx context.Context, id uint64, actor Identity) error

	// ListByOwner returns all live records owned by owner, in no particular
	// order. Ordering is a query-engine concern.
	ListByOwner(ctx context.Context, owner Identity) ([]*FileRecord, error)

	// ListPublic returns all live records with IsPublic set, in no
	// particular order.
	ListPublic(ctx context.Context) ([]*FileRecord, error)

	// ========================================================================
	// Access Control
	// ========================================================================

	// GrantAccount activates the account-wide grant grantor→grantee,
	// covering all of grantor's files, present and future. Idempotent:
	// re-granting an active grant succeeds. Every successful call appends
	// an AccessGranted event, idempotent or not.
	//
	// Returns ErrSelfGrant if grantee == grantor, without mutating state.
	GrantAccount(ctx context.Context, grantor, grantee Identity) error

	// RevokeAccount deactivates the account-wide grant grantor→grantee.
	// The row is kept as a tombstone so history remains listable. Revoking
	// an absent or already-revoked grant is a no-op success. Every
	// successful call appends an AccessRevoked event.
	//
	// Returns ErrSelfGrant if grantee == grantor.
	RevokeAccount(ctx context.Context, grantor, grantee Identity) error

	// GrantFile activates the per-file grant (fileID, grantee).
	//
	// Ownership is resolved through the file record inside the same
	// transaction; a caller-asserted ownership claim is never trusted.
	// Returns ErrNotFound for an unknown file, ErrUnauthorized unless actor
	// owns it, and ErrSelfGrant if grantee == actor. Idempotent; each
	// successful call appends a FileAccessGranted event.
	GrantFile(ctx context.Context, fileID uint64, actor, grantee Identity) error

	// RevokeFile deactivates the per-file grant (fileID, grantee), keeping
	// the row as a tombstone. Same authorization rule as GrantFile. Each
	// successful call appends a FileAccessRevoked event.
	RevokeFile(ctx context.Context, fileID uint64, actor, grantee Identity) error

	// HasAccess is the authorization predicate: true iff requester owns the
	// file, OR an active account grant exists from the owner to requester,
	// OR an active file grant exists for (fileID, requester).
	//
	// This three-way OR is the single source of truth used by every read
	// path. Returns ErrNotFound for an unknown or deleted file.
	HasAccess(ctx context.Context, fileID uint64, requester Identity) (bool, error)

	// ListAccountGrants returns all account grant rows issued by grantor,
	// tombstones included.
	ListAccountGrants(ctx context.Context, grantor Identity) ([]AccountGrant, error)

	// ListActiveGrantees returns the identities holding an active account
	// grant from grantor.
	ListActiveGrantees(ctx context.Context, grantor Identity) ([]Identity, error)

	// ListFileGrants returns all per-file grant rows on files owned by
	// owner, tombstones included. Rows for deleted files are still listed:
	// they are part of the owner's grant history.
	ListFileGrants(ctx context.Context, owner Identity) ([]FileGrant, error)

	// ========================================================================
	// Query Composition
	// ========================================================================

	// ListAccessible returns target's live records readable by requester,
	// evaluated against one snapshot: a record is included iff it is public
	// or HasAccess(record.ID, requester) holds.
	//
	// Returns ErrAccessDenied when the result is empty AND requester holds
	// no active account grant from target AND no active file grant on any
	// of target's files. "Target has zero files" and "requester is
	// unauthorized" are deliberately conflated; both are non-fatal.
	ListAccessible(ctx context.Context, target, requester Identity) ([]*FileRecord, error)

	// AccessSummary aggregates requester's read paths toward target:
	// whether an active account grant exists, which of target's live files
	// carry an active file grant for requester, and how many of target's
	// live files requester can read through any layer.
	AccessSummary(ctx context.Context, target, requester Identity) (*AccessSummary, error)

	// ========================================================================
	// Audit Feed
	// ========================================================================

	// Events returns up to limit events with Seq > after, in append order.
	// limit <= 0 means no limit. The feed is append-only: a returned event
	// is never mutated or withdrawn.
	Events(ctx context.Context, after uint64, limit int) ([]AuditEvent, error)

	// ========================================================================
	// Lifecycle
	// ========================================================================

	// Close releases backend resources. The store must not be used after
	// Close returns.
	Close() error
}
