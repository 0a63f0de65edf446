// Package engine exposes the file registry and access-control engine as a
// synchronous request/response API.
//
// The engine composes the record store and the two authorization relations
// behind the operations clients actually issue (add/delete file, grant and
// revoke at account or file scope, the filtered listings, the access
// summary, and the audit feed). It owns boundary validation and result
// ordering; atomicity and snapshot consistency are the store's contract.
//
// Every operation either completes or fails fast with a typed
// registry.StoreError. There are no internal retries, queues, or
// background tasks.
package engine

import (
	"context"
	"sort"

	"github.com/azureanc-hub/filevault/internal/logger"
	"github.com/azureanc-hub/filevault/pkg/registry"
)

// Engine is the request/response surface over a registry.Store.
//
// The zero value is not usable; construct with New. Engine is stateless
// apart from the store reference and safe for concurrent use.
type Engine struct {
	store registry.Store
}

// New creates an engine over store.
func New(store registry.Store) *Engine {
	return &Engine{store: store}
}

// checkIdentity rejects structurally malformed principals before they reach
// the store. The caller identity arrives pre-verified from the
// authentication boundary, but verification upstream is about who the
// caller is, not about the shape of identities the caller names in
// arguments, so those are validated here.
func checkIdentity(id registry.Identity) error {
	if !id.Valid() {
		return &registry.StoreError{
			Code:    registry.ErrInvalidIdentity,
			Message: "malformed identity",
			Subject: id.String(),
		}
	}
	return nil
}

// sortByID orders records by ascending ID. Creation order is the only
// ordering the engine guarantees; any presentation ordering (name, size,
// date) is a client-side concern.
func sortByID(records []*registry.FileRecord) []*registry.FileRecord {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

// ============================================================================
// File Operations
// ============================================================================

// AddFile registers a new file record owned by caller and returns it with
// its assigned ID.
func (e *Engine) AddFile(ctx context.Context, caller registry.Identity, input registry.NewFileInput) (*registry.FileRecord, error) {
	if err := checkIdentity(caller); err != nil {
		return nil, err
	}

	record, err := e.store.CreateFile(ctx, caller, input)
	if err != nil {
		return nil, err
	}
	logger.Debug("file %d registered by %s (%s, %d bytes)", record.ID, caller, record.FileName, record.FileSize)
	return record, nil
}

// DeleteFile removes the record from every future enumeration. Owner-only.
func (e *Engine) DeleteFile(ctx context.Context, caller registry.Identity, fileID uint64) error {
	if err := checkIdentity(caller); err != nil {
		return err
	}

	if err := e.store.DeleteFile(ctx, fileID, caller); err != nil {
		return err
	}
	logger.Debug("file %d deleted by %s", fileID, caller)
	return nil
}

// GetFile returns a single record if the caller has a read path to it.
// Callers without access get NotFound, not AccessDenied: the existence of a
// private record is itself not disclosed.
func (e *Engine) GetFile(ctx context.Context, caller registry.Identity, fileID uint64) (*registry.FileRecord, error) {
	if err := checkIdentity(caller); err != nil {
		return nil, err
	}

	record, err := e.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if record.IsPublic {
		return record, nil
	}
	granted, err := e.store.HasAccess(ctx, fileID, caller)
	if err != nil {
		return nil, err
	}
	if !granted {
		return nil, &registry.StoreError{
			Code:    registry.ErrNotFound,
			Message: "file not found",
		}
	}
	return record, nil
}

// ============================================================================
// Listings
// ============================================================================

// GetMyFiles returns the caller's own live records in creation order. No
// access check: owners always see their own files.
func (e *Engine) GetMyFiles(ctx context.Context, caller registry.Identity) ([]*registry.FileRecord, error) {
	if err := checkIdentity(caller); err != nil {
		return nil, err
	}

	records, err := e.store.ListByOwner(ctx, caller)
	if err != nil {
		return nil, err
	}
	return sortByID(records), nil
}

// GetUserFiles returns target's records readable by caller, in creation
// order. Returns AccessDenied when the result is empty and no grant of
// either layer gives caller a read path.
func (e *Engine) GetUserFiles(ctx context.Context, caller, target registry.Identity) ([]*registry.FileRecord, error) {
	if err := checkIdentity(caller); err != nil {
		return nil, err
	}
	if err := checkIdentity(target); err != nil {
		return nil, err
	}

	records, err := e.store.ListAccessible(ctx, target, caller)
	if err != nil {
		return nil, err
	}
	return sortByID(records), nil
}

// GetPublicFiles returns every live public record in creation order. No
// access check.
func (e *Engine) GetPublicFiles(ctx context.Context) ([]*registry.FileRecord, error) {
	records, err := e.store.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	return sortByID(records), nil
}

// ============================================================================
// Access Control
// ============================================================================

// GrantAccountAccess gives grantee read access to all of the caller's
// files, present and future. Idempotent.
func (e *Engine) GrantAccountAccess(ctx context.Context, caller, grantee registry.Identity) error {
	if err := checkIdentity(caller); err != nil {
		return err
	}
	if err := checkIdentity(grantee); err != nil {
		return err
	}

	if err := e.store.GrantAccount(ctx, caller, grantee); err != nil {
		return err
	}
	logger.Debug("account access granted %s -> %s", caller, grantee)
	return nil
}

// RevokeAccountAccess withdraws grantee's blanket access to the caller's
// files. Independent per-file grants are untouched.
func (e *Engine) RevokeAccountAccess(ctx context.Context, caller, grantee registry.Identity) error {
	if err := checkIdentity(caller); err != nil {
		return err
	}
	if err := checkIdentity(grantee); err != nil {
		return err
	}

	if err := e.store.RevokeAccount(ctx, caller, grantee); err != nil {
		return err
	}
	logger.Debug("account access revoked %s -> %s", caller, grantee)
	return nil
}

// GrantFileAccess gives grantee read access to one of the caller's files.
// Owner-only; ownership is resolved by the store, never asserted.
func (e *Engine) GrantFileAccess(ctx context.Context, caller registry.Identity, fileID uint64, grantee registry.Identity) error {
	if err := checkIdentity(caller); err != nil {
		return err
	}
	if err := checkIdentity(grantee); err != nil {
		return err
	}

	if err := e.store.GrantFile(ctx, fileID, caller, grantee); err != nil {
		return err
	}
	logger.Debug("file %d access granted %s -> %s", fileID, caller, grantee)
	return nil
}

// RevokeFileAccess withdraws grantee's per-file access. An account-level
// grant covering the same file is untouched.
func (e *Engine) RevokeFileAccess(ctx context.Context, caller registry.Identity, fileID uint64, grantee registry.Identity) error {
	if err := checkIdentity(caller); err != nil {
		return err
	}
	if err := checkIdentity(grantee); err != nil {
		return err
	}

	if err := e.store.RevokeFile(ctx, fileID, caller, grantee); err != nil {
		return err
	}
	logger.Debug("file %d access revoked %s -> %s", fileID, caller, grantee)
	return nil
}

// HasFileAccess reports whether user currently has a read path to fileID.
func (e *Engine) HasFileAccess(ctx context.Context, fileID uint64, user registry.Identity) (bool, error) {
	if err := checkIdentity(user); err != nil {
		return false, err
	}
	return e.store.HasAccess(ctx, fileID, user)
}

// GetAccountAccessList returns the caller's account grant history,
// revoked entries included.
func (e *Engine) GetAccountAccessList(ctx context.Context, caller registry.Identity) ([]registry.AccountGrant, error) {
	if err := checkIdentity(caller); err != nil {
		return nil, err
	}
	return e.store.ListAccountGrants(ctx, caller)
}

// ListAccessUsers returns the identities currently holding an active
// account grant from the caller.
func (e *Engine) ListAccessUsers(ctx context.Context, caller registry.Identity) ([]registry.Identity, error) {
	if err := checkIdentity(caller); err != nil {
		return nil, err
	}
	return e.store.ListActiveGrantees(ctx, caller)
}

// GetFileAccessList returns per-file grant rows on the caller's files,
// revoked entries included.
func (e *Engine) GetFileAccessList(ctx context.Context, caller registry.Identity) ([]registry.FileGrant, error) {
	if err := checkIdentity(caller); err != nil {
		return nil, err
	}
	return e.store.ListFileGrants(ctx, caller)
}

// GetAccessSummary aggregates the caller's read paths toward target, so
// clients can pre-flight whether a GetUserFiles call is worth issuing.
func (e *Engine) GetAccessSummary(ctx context.Context, caller, target registry.Identity) (*registry.AccessSummary, error) {
	if err := checkIdentity(caller); err != nil {
		return nil, err
	}
	if err := checkIdentity(target); err != nil {
		return nil, err
	}
	return e.store.AccessSummary(ctx, target, caller)
}

// ============================================================================
// Audit Feed
// ============================================================================

// Events returns up to limit audit events with Seq > after, in append
// order. External observers poll this to follow mutations without
// re-querying full state.
func (e *Engine) Events(ctx context.Context, after uint64, limit int) ([]registry.AuditEvent, error) {
	return e.store.Events(ctx, after, limit)
}
