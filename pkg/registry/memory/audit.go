package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

// appendEventLocked stamps and appends an audit event. Caller must hold the
// write lock: the sequence number shares the mutation's serialization point
// so feed order matches commit order.
func (s *Store) appendEventLocked(event registry.AuditEvent) {
	event.Seq = uint64(len(s.events)) + 1
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	s.events = append(s.events, event)
}

// Events returns up to limit events with Seq > after, in append order.
func (s *Store) Events(ctx context.Context, after uint64, limit int) ([]registry.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if after >= uint64(len(s.events)) {
		return nil, nil
	}
	tail := s.events[after:]
	if limit > 0 && limit < len(tail) {
		tail = tail[:limit]
	}

	out := make([]registry.AuditEvent, len(tail))
	copy(out, tail)
	return out, nil
}
