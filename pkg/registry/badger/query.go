package badger

import (
	"context"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

// ListAccessible returns target's live records readable by requester. The
// whole composition (record listing, the authorization predicate per
// record, and the denial aggregation) runs inside one View transaction, so
// it observes a single MVCC snapshot and can never see a half-applied
// grant.
func (s *Store) ListAccessible(ctx context.Context, target, requester registry.Identity) ([]*registry.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var accessible []*registry.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		owned, err := listByIndex(txn, keyOwnerPrefix(target))
		if err != nil {
			return err
		}

		anyGrant := false
		for _, record := range owned {
			if record.IsPublic {
				accessible = append(accessible, record)
				continue
			}
			granted, err := hasAccessTxn(txn, record, requester)
			if err != nil {
				return err
			}
			if granted {
				accessible = append(accessible, record)
			}
		}
		if len(accessible) > 0 || requester == target {
			return nil
		}

		// Empty result: deny unless some grant gives requester a read
		// path. "Target has zero files" and "requester is unauthorized"
		// are deliberately conflated; both are non-fatal to callers.
		anyGrant, err = grantActive(txn, keyAccountGrant(target, requester))
		if err != nil {
			return err
		}
		if !anyGrant {
			for _, record := range owned {
				active, err := grantActive(txn, keyFileGrant(record.ID, requester))
				if err != nil {
					return err
				}
				if active {
					anyGrant = true
					break
				}
			}
		}
		if !anyGrant {
			return &registry.StoreError{
				Code:    registry.ErrAccessDenied,
				Message: "no read path to this user's files",
				Subject: target.String(),
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accessible, nil
}

// AccessSummary aggregates requester's read paths toward target within one
// snapshot.
func (s *Store) AccessSummary(ctx context.Context, target, requester registry.Identity) (*registry.AccessSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := &registry.AccessSummary{AccessibleFileIDs: []uint64{}}
	err := s.db.View(func(txn *badger.Txn) error {
		general, err := grantActive(txn, keyAccountGrant(target, requester))
		if err != nil {
			return err
		}
		summary.HasGeneralAccess = general

		owned, err := listByIndex(txn, keyOwnerPrefix(target))
		if err != nil {
			return err
		}
		for _, record := range owned {
			perFile, err := grantActive(txn, keyFileGrant(record.ID, requester))
			if err != nil {
				return err
			}
			if perFile {
				summary.AccessibleFileIDs = append(summary.AccessibleFileIDs, record.ID)
			}
			if record.IsPublic || requester == record.Owner || general || perFile {
				summary.TotalAccessibleFiles++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}
