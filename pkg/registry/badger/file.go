package badger

import (
	"context"
	"fmt"
	"slices"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

// getFileData reads the stored record for id within txn. Returns a
// NotFound StoreError if the ID was never assigned; the caller decides how
// to treat tombstones.
func getFileData(txn *badger.Txn, id uint64) (*fileData, error) {
	item, err := txn.Get(keyFile(id))
	if err == badger.ErrKeyNotFound {
		return nil, &registry.StoreError{
			Code:    registry.ErrNotFound,
			Message: "file not found",
			Subject: fmt.Sprintf("%d", id),
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file record: %w", err)
	}

	var data *fileData
	err = item.Value(func(val []byte) error {
		d, derr := decodeFileData(val)
		data = d
		return derr
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// getLiveFile reads the record for id, treating tombstones as NotFound.
func getLiveFile(txn *badger.Txn, id uint64) (*registry.FileRecord, error) {
	data, err := getFileData(txn, id)
	if err != nil {
		return nil, err
	}
	if data.Deleted {
		return nil, &registry.StoreError{
			Code:    registry.ErrNotFound,
			Message: "file not found",
			Subject: fmt.Sprintf("%d", id),
		}
	}
	return data.Record, nil
}

// CreateFile assigns the next file ID from the persisted counter and writes
// the record, its indexes, and the FileUploaded event in one transaction.
func (s *Store) CreateFile(
	ctx context.Context,
	owner registry.Identity,
	input registry.NewFileInput,
) (*registry.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var record *registry.FileRecord
	err := s.db.Update(func(txn *badger.Txn) error {
		id, err := nextCounter(txn, []byte(keyFileSeq))
		if err != nil {
			return err
		}

		record = &registry.FileRecord{
			ID:          id,
			Owner:       owner,
			FileName:    input.FileName,
			Description: input.Description,
			FileType:    input.FileType,
			ContentHash: input.ContentHash,
			FileSize:    input.FileSize,
			UploadTime:  s.now(),
			IsPublic:    input.IsPublic,
			Tags:        slices.Clone(input.Tags),
		}

		encoded, err := encodeFileData(&fileData{Record: record})
		if err != nil {
			return err
		}
		if err := txn.Set(keyFile(id), encoded); err != nil {
			return fmt.Errorf("failed to store file record: %w", err)
		}
		if err := txn.Set(keyOwner(owner, id), nil); err != nil {
			return fmt.Errorf("failed to store ownership index: %w", err)
		}
		if record.IsPublic {
			if err := txn.Set(keyPublic(id), nil); err != nil {
				return fmt.Errorf("failed to store public index: %w", err)
			}
		}

		return s.appendEventTxn(txn, registry.AuditEvent{
			Kind:        registry.EventFileUploaded,
			Actor:       owner,
			FileID:      id,
			FileName:    record.FileName,
			ContentHash: record.ContentHash,
		})
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetFile returns the live record for id.
func (s *Store) GetFile(ctx context.Context, id uint64) (*registry.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var record *registry.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		r, err := getLiveFile(txn, id)
		record = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteFile flips the tombstone flag and prunes the ownership and public
// indexes. Grant rows on the file are left in place; they become inert.
func (s *Store) DeleteFile(ctx context.Context, id uint64, actor registry.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		record, err := getLiveFile(txn, id)
		if err != nil {
			return err
		}
		if record.Owner != actor {
			return &registry.StoreError{
				Code:    registry.ErrUnauthorized,
				Message: "only the owner may delete a file",
				Subject: fmt.Sprintf("%d", id),
			}
		}

		encoded, err := encodeFileData(&fileData{Record: record, Deleted: true})
		if err != nil {
			return err
		}
		if err := txn.Set(keyFile(id), encoded); err != nil {
			return fmt.Errorf("failed to tombstone file record: %w", err)
		}
		if err := txn.Delete(keyOwner(record.Owner, id)); err != nil {
			return fmt.Errorf("failed to prune ownership index: %w", err)
		}
		if record.IsPublic {
			if err := txn.Delete(keyPublic(id)); err != nil {
				return fmt.Errorf("failed to prune public index: %w", err)
			}
		}

		return s.appendEventTxn(txn, registry.AuditEvent{
			Kind:   registry.EventFileDeleted,
			Actor:  actor,
			FileID: id,
		})
	})
}

// listByIndex scans an index prefix and loads the referenced records.
func listByIndex(txn *badger.Txn, prefix []byte) ([]*registry.FileRecord, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var records []*registry.FileRecord
	for it.Rewind(); it.Valid(); it.Next() {
		id := idFromIndexKey(it.Item().Key())
		record, err := getLiveFile(txn, id)
		if err != nil {
			// Index entries are pruned in the same transaction as the
			// tombstone, so a dangling entry is a corruption bug.
			return nil, fmt.Errorf("dangling index entry for file %d: %w", id, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// ListByOwner returns owner's live records (ascending ID, a property of the
// big-endian index keys that callers should not rely on).
func (s *Store) ListByOwner(ctx context.Context, owner registry.Identity) ([]*registry.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []*registry.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		r, err := listByIndex(txn, keyOwnerPrefix(owner))
		records = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListPublic returns all live public records.
func (s *Store) ListPublic(ctx context.Context) ([]*registry.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []*registry.FileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		r, err := listByIndex(txn, []byte(prefixPublic))
		records = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
