package registry

import (
	"slices"
	"time"
)

// FileType is the coarse content category of a file record.
//
// The category is derived client-side from the file extension at upload time
// and stored verbatim; the engine never re-derives or second-guesses it.
type FileType string

const (
	FileTypeImage    FileType = "image"
	FileTypeDocument FileType = "document"
	FileTypeVideo    FileType = "video"
	FileTypeAudio    FileType = "audio"
	FileTypeOther    FileType = "other"
)

// Valid reports whether the file type is one of the known categories.
func (t FileType) Valid() bool {
	switch t {
	case FileTypeImage, FileTypeDocument, FileTypeVideo, FileTypeAudio, FileTypeOther:
		return true
	}
	return false
}

// FileRecord is the metadata for one registered file.
//
// The record never carries file bytes: ContentHash is an opaque reference
// into an external content-addressed blob store, and the engine neither
// fetches nor validates the content it points at.
//
// Every field except IsPublic is immutable after creation. The ID is assigned
// from a monotonic global sequence and is never reused, even after deletion.
type FileRecord struct {
	// ID uniquely and permanently identifies the record.
	ID uint64 `json:"id"`

	// Owner is the identity that created the record. It never changes.
	Owner Identity `json:"owner"`

	// FileName is the caller-supplied display name. Required.
	FileName string `json:"file_name"`

	// Description is free text. Optional.
	Description string `json:"description,omitempty"`

	// FileType is the caller-derived content category.
	FileType FileType `json:"file_type"`

	// ContentHash references the file bytes in the external blob store.
	ContentHash string `json:"content_hash"`

	// FileSize is the byte count as reported by the caller. Not verified
	// against actual content.
	FileSize uint64 `json:"file_size"`

	// UploadTime is assigned by the engine at creation.
	UploadTime time.Time `json:"upload_time"`

	// IsPublic marks the record visible to every caller. Mutable by the
	// owner only.
	IsPublic bool `json:"is_public"`

	// Tags preserve insertion order; duplicates are permitted.
	Tags []string `json:"tags,omitempty"`
}

// Clone returns a deep copy of the record so callers can never mutate
// store-owned state through a returned pointer.
func (r *FileRecord) Clone() *FileRecord {
	cp := *r
	cp.Tags = slices.Clone(r.Tags)
	return &cp
}

// NewFileInput carries the caller-supplied fields for file creation.
// ID, Owner, and UploadTime are assigned by the engine, never by the caller.
type NewFileInput struct {
	FileName    string
	FileType    FileType
	ContentHash string
	FileSize    uint64
	IsPublic    bool
	Description string
	Tags        []string
}

// Validate checks the structural requirements for creating a file record.
func (in *NewFileInput) Validate() error {
	if in.FileName == "" {
		return &StoreError{
			Code:    ErrInvalidArgument,
			Message: "file name is required",
		}
	}
	if in.ContentHash == "" {
		return &StoreError{
			Code:    ErrInvalidArgument,
			Message: "content hash is required",
			Subject: in.FileName,
		}
	}
	if !in.FileType.Valid() {
		return &StoreError{
			Code:    ErrInvalidArgument,
			Message: "unknown file type",
			Subject: string(in.FileType),
		}
	}
	return nil
}

// AccountGrant is one row of the account-wide authorization relation.
//
// An active grant gives Grantee read access to all of Grantor's files,
// present and future. Revoked rows are kept as tombstones (Active=false) so
// grant history stays visible in listings.
type AccountGrant struct {
	Grantor Identity `json:"grantor"`
	Grantee Identity `json:"grantee"`
	Active  bool     `json:"active"`
}

// FileGrant is one row of the per-file authorization relation.
//
// Independent of AccountGrant: the two layers compose by logical OR and are
// never coupled. Rows referencing a deleted file become inert but are not
// purged; the file ID is never reused so they can never resurrect.
type FileGrant struct {
	FileID  uint64   `json:"file_id"`
	Grantee Identity `json:"grantee"`
	Active  bool     `json:"active"`
}

// AccessSummary aggregates the read paths one requester holds toward one
// target, so clients can pre-flight whether listing the target's files is
// worth issuing.
type AccessSummary struct {
	// HasGeneralAccess is true if an active account grant exists from the
	// target to the requester.
	HasGeneralAccess bool `json:"has_general_access"`

	// AccessibleFileIDs lists the target's live files reachable through a
	// per-file grant, in ascending ID order.
	AccessibleFileIDs []uint64 `json:"accessible_file_ids"`

	// TotalAccessibleFiles is the count of the target's live files the
	// requester can read through any layer.
	TotalAccessibleFiles int `json:"total_accessible_files"`
}
