package badger

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so we use prefixed keys to organize the
// registry's data types into logical namespaces. This design:
//   - Prevents key collisions between data types
//   - Enables efficient range scans (an owner's files, a grantor's grants,
//     the audit feed tail)
//   - Makes the database structure self-documenting
//
// File IDs are uint64 values from a persisted counter, encoded big-endian
// inside keys so lexicographic key order equals numeric ID order and range
// scans come back already sorted.
//
// Key Namespace Prefixes:
//
// Data Type           Prefix  Key Format                    Value
// =========================================================================
// File Records        "f:"    f:<id8>                       fileData (JSON)
// Ownership Index     "own:"  own:<hex(owner)>:<id8>        empty
// Public Index        "pub:"  pub:<id8>                     empty
// Account Grants      "ag:"   ag:<hex(grantor)>:<hex(grantee)>  1/0 (active)
// File Grants         "fg:"   fg:<id8>:<hex(grantee)>       1/0 (active)
// Audit Events        "ev:"   ev:<seq8>                     AuditEvent (JSON)
// Counters            "seq:"  seq:file | seq:event          uint64 (binary)
//
// Key Design Rationale:
//
// 1. File Records (f:)
//    - One entry per record, kept after deletion with a tombstone flag so
//      the ID is provably never reassigned and grant history can resolve
//      owners of deleted files.
//
// 2. Ownership Index (own:)
//    - One entry per live file per owner; pruned on delete.
//    - Listing an owner's files is a range scan over "own:<owner>:".
//
// 3. Public Index (pub:)
//    - One entry per live public file; pruned on delete.
//    - Listing public files is a range scan over "pub:".
//
// 4. Account Grants (ag:) / File Grants (fg:)
//    - One entry per ordered pair; revokes flip the value to 0 (tombstone)
//      rather than deleting the key, so grant history stays listable.
//    - Predicate checks are point lookups; listings are prefix scans.
//
// 5. Audit Events (ev:)
//    - Append-only; seq comes from the seq:event counter advanced inside
//      the same transaction as the mutation it describes.
//    - The feed tail is a range scan from "ev:<after+1>".
//
// Identities may contain any non-whitespace characters, ":" included (see
// registry.ParseIdentity), so they are hex-encoded before being embedded in
// keys. Hex never produces ":", which keeps the separator unambiguous:
// without the encoding, ag:<grantor>:<grantee> for the pairs (a, b:c) and
// (a:b, c) would collide on the same bytes and one principal's grant would
// read as another's.

const (
	prefixFile    = "f:"
	prefixOwner   = "own:"
	prefixPublic  = "pub:"
	prefixAccount = "ag:"
	prefixFileGr  = "fg:"
	prefixEvent   = "ev:"

	keyFileSeq  = "seq:file"
	keyEventSeq = "seq:event"
)

// id8 encodes a file ID (or event seq) big-endian so key order matches
// numeric order.
func id8(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return buf[:]
}

// encodeIdentity hex-encodes an identity for use as a key segment. Hex
// contains no ":", so encoded segments can never collide with the key
// separator.
func encodeIdentity(id registry.Identity) string {
	return hex.EncodeToString([]byte(id))
}

// decodeIdentity reverses encodeIdentity. A decode failure means the key
// was not written by this store.
func decodeIdentity(segment []byte) (registry.Identity, error) {
	raw, err := hex.DecodeString(string(segment))
	if err != nil {
		return "", fmt.Errorf("malformed identity key segment: %w", err)
	}
	return registry.Identity(raw), nil
}

func keyFile(id uint64) []byte {
	return append([]byte(prefixFile), id8(id)...)
}

func keyOwner(owner registry.Identity, id uint64) []byte {
	key := []byte(prefixOwner + encodeIdentity(owner) + ":")
	return append(key, id8(id)...)
}

func keyOwnerPrefix(owner registry.Identity) []byte {
	return []byte(prefixOwner + encodeIdentity(owner) + ":")
}

func keyPublic(id uint64) []byte {
	return append([]byte(prefixPublic), id8(id)...)
}

func keyAccountGrant(grantor, grantee registry.Identity) []byte {
	return []byte(prefixAccount + encodeIdentity(grantor) + ":" + encodeIdentity(grantee))
}

func keyAccountGrantPrefix(grantor registry.Identity) []byte {
	return []byte(prefixAccount + encodeIdentity(grantor) + ":")
}

func keyFileGrant(fileID uint64, grantee registry.Identity) []byte {
	key := append([]byte(prefixFileGr), id8(fileID)...)
	key = append(key, ':')
	return append(key, encodeIdentity(grantee)...)
}

func keyFileGrantPrefix(fileID uint64) []byte {
	key := append([]byte(prefixFileGr), id8(fileID)...)
	return append(key, ':')
}

func keyEvent(seq uint64) []byte {
	return append([]byte(prefixEvent), id8(seq)...)
}

// idFromIndexKey extracts the trailing 8-byte ID from an index key
// (own:<owner>:<id8> or pub:<id8>).
func idFromIndexKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}

// idFromGrantKey extracts the file ID from a file grant key
// (fg:<id8>:<grantee>).
func idFromGrantKey(key []byte) uint64 {
	off := len(prefixFileGr)
	return binary.BigEndian.Uint64(key[off : off+8])
}

// granteeFromGrantKey decodes the grantee suffix following prefix.
func granteeFromGrantKey(key, prefix []byte) (registry.Identity, error) {
	return decodeIdentity(key[len(prefix):])
}
