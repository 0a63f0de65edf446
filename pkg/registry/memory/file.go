package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

// CreateFile registers a new record under the next ID in the global
// sequence and appends the FileUploaded event inside the same critical
// section, so no reader can observe the record without its event or vice
// versa.
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

	record := &registry.FileRecord{
		ID:          s.nextID,
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
	s.nextID++

	s.files[record.ID] = &fileData{record: record}
	s.appendEventLocked(registry.AuditEvent{
		Kind:        registry.EventFileUploaded,
		Actor:       owner,
		FileID:      record.ID,
		FileName:    record.FileName,
		ContentHash: record.ContentHash,
	})

	return record.Clone(), nil
}

// GetFile returns a copy of the record for id. Deleted records are
// indistinguishable from records that never existed.
func (s *Store) GetFile(ctx context.Context, id uint64) (*registry.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.liveFile(id)
	if !ok {
		return nil, &registry.StoreError{
			Code:    registry.ErrNotFound,
			Message: "file not found",
			Subject: fmt.Sprintf("%d", id),
		}
	}
	return record.Clone(), nil
}

// DeleteFile tombstones the record. The entry stays in the map so the ID is
// provably never reassigned and grant rows on the file can still resolve
// their owner for history listings.
func (s *Store) DeleteFile(ctx context.Context, id uint64, actor registry.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.files[id]
	if !ok || data.deleted {
		return &registry.StoreError{
			Code:    registry.ErrNotFound,
			Message: "file not found",
			Subject: fmt.Sprintf("%d", id),
		}
	}
	if data.record.Owner != actor {
		return &registry.StoreError{
			Code:    registry.ErrUnauthorized,
			Message: "only the owner may delete a file",
			Subject: fmt.Sprintf("%d", id),
		}
	}

	data.deleted = true
	s.appendEventLocked(registry.AuditEvent{
		Kind:   registry.EventFileDeleted,
		Actor:  actor,
		FileID: id,
	})
	return nil
}

// ListByOwner returns copies of all live records owned by owner.
func (s *Store) ListByOwner(ctx context.Context, owner registry.Identity) ([]*registry.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*registry.FileRecord
	for _, data := range s.files {
		if !data.deleted && data.record.Owner == owner {
			records = append(records, data.record.Clone())
		}
	}
	return records, nil
}

// ListPublic returns copies of all live public records.
func (s *Store) ListPublic(ctx context.Context) ([]*registry.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*registry.FileRecord
	for _, data := range s.files {
		if !data.deleted && data.record.IsPublic {
			records = append(records, data.record.Clone())
		}
	}
	return records, nil
}
