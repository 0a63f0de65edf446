package badger

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

func selfGrantError(id registry.Identity) error {
	return &registry.StoreError{
		Code:    registry.ErrSelfGrant,
		Message: "cannot grant or revoke access to yourself",
		Subject: id.String(),
	}
}

// grantActive reads a grant row within txn. Missing rows and tombstoned
// rows both read as inactive.
func grantActive(txn *badger.Txn, key []byte) (bool, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read grant row: %w", err)
	}

	var active bool
	err = item.Value(func(val []byte) error {
		active = decodeGrantFlag(val)
		return nil
	})
	return active, err
}

// grantExists reports whether a grant row (active or tombstoned) exists.
func grantExists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read grant row: %w", err)
	}
	return true, nil
}

// GrantAccount writes the active account grant row and its event in one
// transaction. Idempotent; every successful call logs.
func (s *Store) GrantAccount(ctx context.Context, grantor, grantee registry.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if grantor == grantee {
		return selfGrantError(grantee)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(keyAccountGrant(grantor, grantee), encodeGrantFlag(true)); err != nil {
			return fmt.Errorf("failed to store account grant: %w", err)
		}
		return s.appendEventTxn(txn, registry.AuditEvent{
			Kind:    registry.EventAccessGranted,
			Actor:   grantor,
			Grantee: grantee,
		})
	})
}

// RevokeAccount tombstones the account grant row if it exists. Revoking a
// grant that was never issued leaves no row behind but still logs.
func (s *Store) RevokeAccount(ctx context.Context, grantor, grantee registry.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if grantor == grantee {
		return selfGrantError(grantee)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		key := keyAccountGrant(grantor, grantee)
		exists, err := grantExists(txn, key)
		if err != nil {
			return err
		}
		if exists {
			if err := txn.Set(key, encodeGrantFlag(false)); err != nil {
				return fmt.Errorf("failed to tombstone account grant: %w", err)
			}
		}
		return s.appendEventTxn(txn, registry.AuditEvent{
			Kind:    registry.EventAccessRevoked,
			Actor:   grantor,
			Grantee: grantee,
		})
	})
}

// resolveOwnedFile loads the live record for id and verifies actor owns it.
// Ownership comes from the stored record, never from the caller.
func resolveOwnedFile(txn *badger.Txn, id uint64, actor registry.Identity) (*registry.FileRecord, error) {
	record, err := getLiveFile(txn, id)
	if err != nil {
		return nil, err
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

// GrantFile writes the active per-file grant row and its event in one
// transaction.
func (s *Store) GrantFile(ctx context.Context, fileID uint64, actor, grantee registry.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if actor == grantee {
		return selfGrantError(grantee)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := resolveOwnedFile(txn, fileID, actor); err != nil {
			return err
		}
		if err := txn.Set(keyFileGrant(fileID, grantee), encodeGrantFlag(true)); err != nil {
			return fmt.Errorf("failed to store file grant: %w", err)
		}
		return s.appendEventTxn(txn, registry.AuditEvent{
			Kind:    registry.EventFileAccessGranted,
			Actor:   actor,
			FileID:  fileID,
			Grantee: grantee,
		})
	})
}

// RevokeFile tombstones the per-file grant row.
func (s *Store) RevokeFile(ctx context.Context, fileID uint64, actor, grantee registry.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if actor == grantee {
		return selfGrantError(grantee)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := resolveOwnedFile(txn, fileID, actor); err != nil {
			return err
		}
		key := keyFileGrant(fileID, grantee)
		exists, err := grantExists(txn, key)
		if err != nil {
			return err
		}
		if exists {
			if err := txn.Set(key, encodeGrantFlag(false)); err != nil {
				return fmt.Errorf("failed to tombstone file grant: %w", err)
			}
		}
		return s.appendEventTxn(txn, registry.AuditEvent{
			Kind:    registry.EventFileAccessRevoked,
			Actor:   actor,
			FileID:  fileID,
			Grantee: grantee,
		})
	})
}

// hasAccessTxn evaluates the three-way authorization predicate for a live
// record within txn.
func hasAccessTxn(txn *badger.Txn, record *registry.FileRecord, requester registry.Identity) (bool, error) {
	if requester == record.Owner {
		return true, nil
	}
	active, err := grantActive(txn, keyAccountGrant(record.Owner, requester))
	if err != nil || active {
		return active, err
	}
	return grantActive(txn, keyFileGrant(record.ID, requester))
}

// HasAccess evaluates the authorization predicate against one snapshot.
func (s *Store) HasAccess(ctx context.Context, fileID uint64, requester registry.Identity) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var granted bool
	err := s.db.View(func(txn *badger.Txn) error {
		record, err := getLiveFile(txn, fileID)
		if err != nil {
			return err
		}
		granted, err = hasAccessTxn(txn, record, requester)
		return err
	})
	if err != nil {
		return false, err
	}
	return granted, nil
}

// ListAccountGrants returns grantor's rows, tombstones included, in
// lexicographic grantee order (a property of the key layout).
func (s *Store) ListAccountGrants(ctx context.Context, grantor registry.Identity) ([]registry.AccountGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var grants []registry.AccountGrant
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := keyAccountGrantPrefix(grantor)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			grantee, err := granteeFromGrantKey(item.Key(), prefix)
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				grants = append(grants, registry.AccountGrant{
					Grantor: grantor,
					Grantee: grantee,
					Active:  decodeGrantFlag(val),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grants, nil
}

// ListActiveGrantees returns identities holding an active account grant
// from grantor.
func (s *Store) ListActiveGrantees(ctx context.Context, grantor registry.Identity) ([]registry.Identity, error) {
	grants, err := s.ListAccountGrants(ctx, grantor)
	if err != nil {
		return nil, err
	}

	var grantees []registry.Identity
	for _, grant := range grants {
		if grant.Active {
			grantees = append(grantees, grant.Grantee)
		}
	}
	return grantees, nil
}

// ListFileGrants scans the whole fg: namespace and keeps rows whose file is
// owned by owner, deleted files included. Grant rows are the owner's
// history, not a view over live files.
func (s *Store) ListFileGrants(ctx context.Context, owner registry.Identity) ([]registry.FileGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var grants []registry.FileGrant
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixFileGr)
		it := txn.NewIterator(opts)
		defer it.Close()

		lastID := uint64(0)
		ownsLast := false
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.Key()
			fileID := idFromGrantKey(key)

			// Rows for one file are contiguous; resolve ownership once.
			if fileID != lastID {
				data, err := getFileData(txn, fileID)
				if err != nil {
					return err
				}
				lastID = fileID
				ownsLast = data.Record.Owner == owner
			}
			if !ownsLast {
				continue
			}

			grantee, err := granteeFromGrantKey(key, keyFileGrantPrefix(fileID))
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				grants = append(grants, registry.FileGrant{
					FileID:  fileID,
					Grantee: grantee,
					Active:  decodeGrantFlag(val),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grants, nil
}
