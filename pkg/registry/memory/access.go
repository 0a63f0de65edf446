package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

// selfGrantError is returned for the degenerate case of a principal
// granting or revoking against itself.
func selfGrantError(id registry.Identity) error {
	return &registry.StoreError{
		Code:    registry.ErrSelfGrant,
		Message: "cannot grant or revoke access to yourself",
		Subject: id.String(),
	}
}

// GrantAccount activates the blanket grant grantor→grantee. Idempotent; the
// event is appended on every successful call so the feed records calls, not
// state transitions.
func (s *Store) GrantAccount(ctx context.Context, grantor, grantee registry.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if grantor == grantee {
		return selfGrantError(grantee)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.accountGrants[grantor]
	if !ok {
		table = newGrantTable()
		s.accountGrants[grantor] = table
	}
	table.set(grantee, true)

	s.appendEventLocked(registry.AuditEvent{
		Kind:    registry.EventAccessGranted,
		Actor:   grantor,
		Grantee: grantee,
	})
	return nil
}

// RevokeAccount deactivates the blanket grant grantor→grantee, keeping the
// row as a tombstone. Revoking a grant that never existed is a no-op
// success and leaves no row behind.
func (s *Store) RevokeAccount(ctx context.Context, grantor, grantee registry.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if grantor == grantee {
		return selfGrantError(grantee)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if table, ok := s.accountGrants[grantor]; ok {
		table.set(grantee, false)
	}

	s.appendEventLocked(registry.AuditEvent{
		Kind:    registry.EventAccessRevoked,
		Actor:   grantor,
		Grantee: grantee,
	})
	return nil
}

// resolveOwnedFile looks up the live record for id and checks that actor
// owns it. Caller must hold the write lock.
func (s *Store) resolveOwnedFile(id uint64, actor registry.Identity) (*registry.FileRecord, error) {
	record, ok := s.liveFile(id)
	if !ok {
		return nil, &registry.StoreError{
			Code:    registry.ErrNotFound,
			Message: "file not found",
			Subject: fmt.Sprintf("%d", id),
		}
	}
	if record.Owner != actor {
		return nil, &registry.StoreError{
			Code:    registry.ErrUnauthorized,
			Message: "only the owner may manage file access",
			Subject: fmt.Sprintf("%d", id),
		}
	}
	return record, nil
}

// GrantFile activates the per-file grant (fileID, grantee). Ownership is
// resolved through the record inside the same critical section; a
// caller-asserted ownership claim is never trusted.
func (s *Store) GrantFile(ctx context.Context, fileID uint64, actor, grantee registry.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if actor == grantee {
		return selfGrantError(grantee)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.resolveOwnedFile(fileID, actor); err != nil {
		return err
	}

	table, ok := s.fileGrants[fileID]
	if !ok {
		table = newGrantTable()
		s.fileGrants[fileID] = table
	}
	table.set(grantee, true)

	s.appendEventLocked(registry.AuditEvent{
		Kind:    registry.EventFileAccessGranted,
		Actor:   actor,
		FileID:  fileID,
		Grantee: grantee,
	})
	return nil
}

// RevokeFile deactivates the per-file grant (fileID, grantee), keeping the
// row as a tombstone.
func (s *Store) RevokeFile(ctx context.Context, fileID uint64, actor, grantee registry.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if actor == grantee {
		return selfGrantError(grantee)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.resolveOwnedFile(fileID, actor); err != nil {
		return err
	}

	if table, ok := s.fileGrants[fileID]; ok {
		table.set(grantee, false)
	}

	s.appendEventLocked(registry.AuditEvent{
		Kind:    registry.EventFileAccessRevoked,
		Actor:   actor,
		FileID:  fileID,
		Grantee: grantee,
	})
	return nil
}

// HasAccess evaluates the three-way authorization predicate.
func (s *Store) HasAccess(ctx context.Context, fileID uint64, requester registry.Identity) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.liveFile(fileID)
	if !ok {
		return false, &registry.StoreError{
			Code:    registry.ErrNotFound,
			Message: "file not found",
			Subject: fmt.Sprintf("%d", fileID),
		}
	}
	return s.hasAccessLocked(record, requester), nil
}

// ListAccountGrants returns grantor's account grant rows in insertion
// order, tombstones included.
func (s *Store) ListAccountGrants(ctx context.Context, grantor registry.Identity) ([]registry.AccountGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	table, ok := s.accountGrants[grantor]
	if !ok {
		return nil, nil
	}

	grants := make([]registry.AccountGrant, 0, len(table.order))
	for _, grantee := range table.order {
		grants = append(grants, registry.AccountGrant{
			Grantor: grantor,
			Grantee: grantee,
			Active:  table.rows[grantee],
		})
	}
	return grants, nil
}

// ListActiveGrantees returns the identities holding an active account grant
// from grantor, in insertion order.
func (s *Store) ListActiveGrantees(ctx context.Context, grantor registry.Identity) ([]registry.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	table, ok := s.accountGrants[grantor]
	if !ok {
		return nil, nil
	}

	var grantees []registry.Identity
	for _, grantee := range table.order {
		if table.rows[grantee] {
			grantees = append(grantees, grantee)
		}
	}
	return grantees, nil
}

// ListFileGrants returns the grant rows on files owned by owner, tombstones
// included, ordered by file ID then row insertion order. Rows on deleted
// files are listed too: they are part of the owner's grant history even
// though the grants themselves are inert.
func (s *Store) ListFileGrants(ctx context.Context, owner registry.Identity) ([]registry.FileGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []uint64
	for id := range s.fileGrants {
		data, ok := s.files[id]
		if ok && data.record.Owner == owner {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var grants []registry.FileGrant
	for _, id := range ids {
		table := s.fileGrants[id]
		for _, grantee := range table.order {
			grants = append(grants, registry.FileGrant{
				FileID:  id,
				Grantee: grantee,
				Active:  table.rows[grantee],
			})
		}
	}
	return grants, nil
}
