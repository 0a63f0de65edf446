package badger

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

// appendEventTxn stamps and writes an audit event inside the mutation's own
// transaction. The event sequence counter advances under the same store
// mutex as the mutation, so feed order equals commit order and the feed can
// never diverge from state.
func (s *Store) appendEventTxn(txn *badger.Txn, event registry.AuditEvent) error {
	seq, err := nextCounter(txn, []byte(keyEventSeq))
	if err != nil {
		return err
	}
	event.Seq = seq
	event.ID = uuid.NewString()
	event.Timestamp = s.now()

	encoded, err := encodeEvent(&event)
	if err != nil {
		return err
	}
	if err := txn.Set(keyEvent(seq), encoded); err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

// Events returns up to limit events with Seq > after, in append order. The
// big-endian seq key layout makes the tail a single forward range scan.
func (s *Store) Events(ctx context.Context, after uint64, limit int) ([]registry.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var events []registry.AuditEvent
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixEvent)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(keyEvent(after + 1)); it.Valid(); it.Next() {
			if limit > 0 && len(events) >= limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				event, derr := decodeEvent(val)
				if derr != nil {
					return derr
				}
				events = append(events, *event)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
