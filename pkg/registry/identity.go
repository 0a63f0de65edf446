package registry

import "strings"

// Identity is an opaque principal identifier.
//
// Identities are minted and authenticated upstream of the engine (wallet
// addresses, service accounts, API keys, the engine does not care). The only
// operations the engine performs on an Identity are equality comparison and
// map indexing, so the underlying representation is a plain string.
//
// The zero value is not a valid identity.
type Identity string

// maxIdentityLen bounds identity length so malformed or hostile input cannot
// inflate keys in the persistent store. 128 comfortably covers hex-encoded
// addresses and public key fingerprints.
const maxIdentityLen = 128

// ParseIdentity validates and normalizes a caller-supplied principal string.
//
// Validation is purely structural: the identity must be non-empty, free of
// whitespace and control characters, and within the length bound. Leading and
// trailing whitespace is trimmed and the result is lowercased so that
// case-variant spellings of the same principal compare equal.
//
// Returns ErrInvalidIdentity if the input is malformed.
func ParseIdentity(raw string) (Identity, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", &StoreError{
			Code:    ErrInvalidIdentity,
			Message: "identity must not be empty",
		}
	}
	if len(s) > maxIdentityLen {
		return "", &StoreError{
			Code:    ErrInvalidIdentity,
			Message: "identity exceeds maximum length",
			Subject: s[:16] + "...",
		}
	}
	for _, r := range s {
		if r <= ' ' || r == 0x7f {
			return "", &StoreError{
				Code:    ErrInvalidIdentity,
				Message: "identity contains whitespace or control characters",
				Subject: s,
			}
		}
	}
	return Identity(strings.ToLower(s)), nil
}

// String returns the identity as a plain string.
func (id Identity) String() string {
	return string(id)
}

// Valid reports whether the identity is structurally well-formed.
func (id Identity) Valid() bool {
	parsed, err := ParseIdentity(string(id))
	return err == nil && parsed == id
}
