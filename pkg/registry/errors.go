package registry

import "errors"

// StoreError represents a domain error from registry operations.
//
// These are business logic errors (file not found, caller is not the owner,
// no read path to a target's files) as opposed to infrastructure errors
// (disk failure, corrupted value). Transport layers translate ErrorCode to
// their own status codes; infrastructure errors are wrapped with %w and
// surface as opaque internal failures.
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Subject identifies the entity related to the error (a file ID or an
	// identity), when applicable. This helps with debugging and reporting.
	Subject string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Subject != "" {
		return e.Message + ": " + e.Subject
	}
	return e.Message
}

// ErrorCode represents the category of a registry error.
type ErrorCode int

const (
	// ErrNotFound indicates the requested file record does not exist or has
	// been deleted. Deleted records are indistinguishable from records that
	// never existed.
	ErrNotFound ErrorCode = iota

	// ErrUnauthorized indicates the actor attempted an owner-only mutation
	// (delete, grant, revoke) on a resource it does not own. This is a
	// rejected operation, not a read miss, and callers should surface it as an
	// actionable error.
	ErrUnauthorized

	// ErrAccessDenied indicates the requester has no read path to the
	// target's files: no ownership, no account grant, no file grant. This is
	// a non-fatal read outcome, rendered by clients as "no files".
	ErrAccessDenied

	// ErrSelfGrant indicates a grant or revoke targeting the caller itself.
	// Self-grants are degenerate (owners always have access) and always
	// rejected without mutating state.
	ErrSelfGrant

	// ErrInvalidIdentity indicates a malformed principal identifier.
	ErrInvalidIdentity

	// ErrInvalidArgument indicates invalid parameters were provided.
	// Examples: empty file name, missing content hash.
	ErrInvalidArgument
)

// String returns the symbolic name of the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "NOT_FOUND"
	case ErrUnauthorized:
		return "UNAUTHORIZED"
	case ErrAccessDenied:
		return "ACCESS_DENIED"
	case ErrSelfGrant:
		return "SELF_GRANT"
	case ErrInvalidIdentity:
		return "INVALID_IDENTITY"
	case ErrInvalidArgument:
		return "INVALID_ARGUMENT"
	default:
		return "UNKNOWN"
	}
}

// CodeOf extracts the ErrorCode from an error. The second return value is
// false if the error is not a StoreError (infrastructure failure).
func CodeOf(err error) (ErrorCode, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

// IsNotFound reports whether err is a NotFound domain error.
func IsNotFound(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrNotFound
}

// IsUnauthorized reports whether err is an Unauthorized domain error.
func IsUnauthorized(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrUnauthorized
}

// IsAccessDenied reports whether err is an AccessDenied domain error.
func IsAccessDenied(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrAccessDenied
}
