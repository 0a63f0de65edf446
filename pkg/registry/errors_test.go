package registry

import (
	"errors"
	"fmt"
	"testing"
)

func TestStoreError_Error(t *testing.T) {
	withSubject := &StoreError{Code: ErrNotFound, Message: "file not found", Subject: "42"}
	if got := withSubject.Error(); got != "file not found: 42" {
		t.Errorf("Error() = %q", got)
	}

	withoutSubject := &StoreError{Code: ErrSelfGrant, Message: "cannot grant to self"}
	if got := withoutSubject.Error(); got != "cannot grant to self" {
		t.Errorf("Error() = %q", got)
	}
}

func TestCodeOf(t *testing.T) {
	direct := &StoreError{Code: ErrUnauthorized, Message: "not the owner"}
	code, ok := CodeOf(direct)
	if !ok || code != ErrUnauthorized {
		t.Errorf("CodeOf(direct) = %v, %v", code, ok)
	}

	// CodeOf must see through wrapping.
	wrapped := fmt.Errorf("handling request: %w", direct)
	code, ok = CodeOf(wrapped)
	if !ok || code != ErrUnauthorized {
		t.Errorf("CodeOf(wrapped) = %v, %v", code, ok)
	}

	if _, ok := CodeOf(errors.New("disk on fire")); ok {
		t.Error("CodeOf must not classify infrastructure errors")
	}
	if _, ok := CodeOf(nil); ok {
		t.Error("CodeOf(nil) must report no code")
	}
}

func TestErrorCodeString(t *testing.T) {
	cases := map[ErrorCode]string{
		ErrNotFound:        "NOT_FOUND",
		ErrUnauthorized:    "UNAUTHORIZED",
		ErrAccessDenied:    "ACCESS_DENIED",
		ErrSelfGrant:       "SELF_GRANT",
		ErrInvalidIdentity: "INVALID_IDENTITY",
		ErrInvalidArgument: "INVALID_ARGUMENT",
		ErrorCode(99):      "UNKNOWN",
	}
	for code, want := range cases {
		if got := code.String(); got != want {
			t.Errorf("ErrorCode(%d).String() = %q, want %q", code, got, want)
		}
	}
}

func TestPredicates(t *testing.T) {
	if !IsNotFound(&StoreError{Code: ErrNotFound}) {
		t.Error("IsNotFound should match")
	}
	if IsNotFound(&StoreError{Code: ErrAccessDenied}) {
		t.Error("IsNotFound should not match AccessDenied")
	}
	if !IsUnauthorized(&StoreError{Code: ErrUnauthorized}) {
		t.Error("IsUnauthorized should match")
	}
	if !IsAccessDenied(fmt.Errorf("wrapped: %w", &StoreError{Code: ErrAccessDenied})) {
		t.Error("IsAccessDenied should see through wrapping")
	}
}
