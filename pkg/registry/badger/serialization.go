package badger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

// Serialization Strategy
// ======================
//
// Complex values (file records, audit events) are JSON-encoded: readable,
// debuggable, and tolerant of field additions. Counters and grant flags use
// compact binary encodings where the schema is a single number.

// fileData is the stored representation of a record with its tombstone
// flag. Deleted records stay in the database so IDs are never reassigned
// and grant rows on deleted files can still resolve their owner.
type fileData struct {
	Record  *registry.FileRecord `json:"record"`
	Deleted bool                 `json:"deleted,omitempty"`
}

func encodeFileData(data *fileData) ([]byte, error) {
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode file record: %w", err)
	}
	return bytes, nil
}

func decodeFileData(bytes []byte) (*fileData, error) {
	var data fileData
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("failed to decode file record: %w", err)
	}
	return &data, nil
}

func encodeEvent(event *registry.AuditEvent) ([]byte, error) {
	bytes, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit event: %w", err)
	}
	return bytes, nil
}

func decodeEvent(bytes []byte) (*registry.AuditEvent, error) {
	var event registry.AuditEvent
	if err := json.Unmarshal(bytes, &event); err != nil {
		return nil, fmt.Errorf("failed to decode audit event: %w", err)
	}
	return &event, nil
}

// Grant rows store a single active/tombstone byte.

func encodeGrantFlag(active bool) []byte {
	if active {
		return []byte{1}
	}
	return []byte{0}
}

func decodeGrantFlag(bytes []byte) bool {
	return len(bytes) == 1 && bytes[0] == 1
}

// Counters are big-endian uint64.

func encodeCounter(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

func decodeCounter(bytes []byte) (uint64, error) {
	if len(bytes) != 8 {
		return 0, fmt.Errorf("malformed counter value (%d bytes)", len(bytes))
	}
	return binary.BigEndian.Uint64(bytes), nil
}
