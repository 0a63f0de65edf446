package registry

import "time"

// EventKind is the closed set of audit event variants.
//
// The original dynamic event payloads are replaced by a tagged union with
// fixed fields per kind: every event carries the acting identity, and the
// subject fields (FileID, Grantee) are populated per kind as documented on
// the constants.
type EventKind string

const (
	// EventFileUploaded: Actor created FileID. FileName and ContentHash are
	// carried so indexers need not re-query the record.
	EventFileUploaded EventKind = "FileUploaded"

	// EventFileDeleted: Actor deleted FileID.
	EventFileDeleted EventKind = "FileDeleted"

	// EventAccessGranted: Actor granted account-wide access to Grantee.
	EventAccessGranted EventKind = "AccessGranted"

	// EventAccessRevoked: Actor revoked account-wide access from Grantee.
	EventAccessRevoked EventKind = "AccessRevoked"

	// EventFileAccessGranted: Actor granted Grantee access to FileID.
	EventFileAccessGranted EventKind = "FileAccessGranted"

	// EventFileAccessRevoked: Actor revoked Grantee's access to FileID.
	EventFileAccessRevoked EventKind = "FileAccessRevoked"
)

// AuditEvent is one append-only record of a successful mutation.
//
// Events are ordered by Seq, assigned from the same serialization point as
// the mutation itself, so the feed order matches commit order. Events are
// never mutated or deleted. Idempotent calls (granting an already-active
// grant) still append an event: the feed records calls, not state changes.
type AuditEvent struct {
	// Seq is the append sequence number, starting at 1.
	Seq uint64 `json:"seq"`

	// ID is a globally unique event identifier, independent of Seq, for
	// consumers that deduplicate across feeds.
	ID string `json:"id"`

	Kind  EventKind `json:"kind"`
	Actor Identity  `json:"actor"`

	// Timestamp is assigned by the engine at append time.
	Timestamp time.Time `json:"timestamp"`

	// FileID is set for file-scoped kinds, zero otherwise.
	FileID uint64 `json:"file_id,omitempty"`

	// Grantee is set for grant/revoke kinds, empty otherwise.
	Grantee Identity `json:"grantee,omitempty"`

	// FileName and ContentHash are set for FileUploaded only.
	FileName    string `json:"file_name,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
}
