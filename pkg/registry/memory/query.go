package memory

import (
	"context"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

// ListAccessible returns target's live records readable by requester,
// evaluated under one read lock so the record set and the grant tables
// belong to the same snapshot.
func (s *Store) ListAccessible(ctx context.Context, target, requester registry.Identity) ([]*registry.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var accessible []*registry.FileRecord
	ids := s.ownedLiveIDs(target)
	for _, id := range ids {
		record := s.files[id].record
		if record.IsPublic || s.hasAccessLocked(record, requester) {
			accessible = append(accessible, record.Clone())
		}
	}
	if len(accessible) > 0 || requester == target {
		return accessible, nil
	}

	// Empty result: deny unless some grant gives requester a read path.
	// "Target has zero files" and "requester is unauthorized" are
	// deliberately conflated; both are non-fatal to callers.
	if s.accountGrants[target].active(requester) {
		return nil, nil
	}
	for _, id := range ids {
		if s.fileGrants[id].active(requester) {
			return nil, nil
		}
	}
	return nil, &registry.StoreError{
		Code:    registry.ErrAccessDenied,
		Message: "no read path to this user's files",
		Subject: target.String(),
	}
}

// AccessSummary aggregates requester's read paths toward target under one
// read lock.
func (s *Store) AccessSummary(ctx context.Context, target, requester registry.Identity) (*registry.AccessSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &registry.AccessSummary{
		HasGeneralAccess:  s.accountGrants[target].active(requester),
		AccessibleFileIDs: []uint64{},
	}
	for _, id := range s.ownedLiveIDs(target) {
		record := s.files[id].record
		if s.fileGrants[id].active(requester) {
			summary.AccessibleFileIDs = append(summary.AccessibleFileIDs, id)
		}
		if record.IsPublic || s.hasAccessLocked(record, requester) {
			summary.TotalAccessibleFiles++
		}
	}
	return summary, nil
}
