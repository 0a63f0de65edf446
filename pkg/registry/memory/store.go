package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

// fileData wraps a record with its tombstone flag.
//
// Deleted records stay in the map: the ID sequence is monotonic so an ID is
// never reassigned, and grant rows on deleted files must still resolve their
// owner for grant-history listings. A tombstoned record is invisible to every
// query path.
type fileData struct {
	record  *registry.FileRecord
	deleted bool
}

// grantTable holds one grantor's (or one file's) grant rows.
//
// Rows are kept in insertion order so listings are deterministic, with an
// index map for O(1) predicate checks. Revoked rows flip Active to false and
// stay in place.
type grantTable struct {
	order []registry.Identity
	rows  map[registry.Identity]bool // grantee -> active
}

func newGrantTable() *grantTable {
	return &grantTable{rows: make(map[registry.Identity]bool)}
}

// set activates or deactivates the row for grantee, creating it on first
// grant. Revoking a grantee that has no row is a no-op (no tombstone is
// created for a grant that never existed).
func (t *grantTable) set(grantee registry.Identity, active bool) {
	if _, exists := t.rows[grantee]; !exists {
		if !active {
			return
		}
		t.order = append(t.order, grantee)
	}
	t.rows[grantee] = active
}

// active reports whether grantee holds an active row.
func (t *grantTable) active(grantee registry.Identity) bool {
	return t != nil && t.rows[grantee]
}

// Store implements registry.Store using in-memory data structures.
//
// This implementation is suitable for:
//   - Testing and development environments
//   - Ephemeral registries where persistence is not required
//   - Acting as the reference implementation for the conformance suite
//
// Thread Safety:
// All operations are protected by a single read-write mutex (mu), making the
// store safe for concurrent access from multiple goroutines. The coarse
// lock doubles as the snapshot boundary: a read takes RLock and observes
// either all or none of any mutation, and the ID sequence and audit append
// share the same serialization point as the state they describe. The
// BadgerDB backend provides finer-grained (per-key MVCC) concurrency for
// deployments where unrelated files must not contend.
//
// Identities are assumed to be pre-validated by the caller (the engine
// parses every principal at the boundary).
type Store struct {
	// mu protects all fields in this struct.
	mu sync.RWMutex

	// nextID is the next file ID to assign. Starts at 1 and only grows.
	nextID uint64

	// files maps file ID to record + tombstone flag.
	files map[uint64]*fileData

	// accountGrants maps grantor -> account grant table.
	accountGrants map[registry.Identity]*grantTable

	// fileGrants maps file ID -> per-file grant table.
	fileGrants map[uint64]*grantTable

	// events is the append-only audit feed. events[i].Seq == i+1.
	events []registry.AuditEvent

	// now is the engine clock, replaceable in tests.
	now func() time.Time
}

var _ registry.Store = (*Store)(nil)

// NewStore creates an empty in-memory registry store.
func NewStore() *Store {
	return &Store{
		nextID:        1,
		files:         make(map[uint64]*fileData),
		accountGrants: make(map[registry.Identity]*grantTable),
		fileGrants:    make(map[uint64]*grantTable),
		now:           time.Now,
	}
}

// Close implements registry.Store. No resources to release.
func (s *Store) Close() error {
	return nil
}

// liveFile returns the record for id if it exists and is not tombstoned.
// Caller must hold at least a read lock.
func (s *Store) liveFile(id uint64) (*registry.FileRecord, bool) {
	data, ok := s.files[id]
	if !ok || data.deleted {
		return nil, false
	}
	return data.record, true
}

// hasAccessLocked evaluates the three-way authorization predicate for a live
// record. Caller must hold at least a read lock.
func (s *Store) hasAccessLocked(rec *registry.FileRecord, requester registry.Identity) bool {
	if requester == rec.Owner {
		return true
	}
	if s.accountGrants[rec.Owner].active(requester) {
		return true
	}
	return s.fileGrants[rec.ID].active(requester)
}

// ownedLiveIDs returns the ascending IDs of owner's live files.
// Caller must hold at least a read lock.
func (s *Store) ownedLiveIDs(owner registry.Identity) []uint64 {
	var ids []uint64
	for id, data := range s.files {
		if !data.deleted && data.record.Owner == owner {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
