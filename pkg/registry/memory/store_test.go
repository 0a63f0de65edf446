package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azureanc-hub/filevault/pkg/registry"
	registrytest "github.com/azureanc-hub/filevault/pkg/registry/testing"
)

func TestMemoryStore_Conformance(t *testing.T) {
	suite := &registrytest.StoreTestSuite{
		NewStore: func(t *testing.T) registry.Store {
			return NewStore()
		},
	}
	suite.Run(t)
}

// TestMemoryStore_CloneIsolation verifies callers cannot mutate stored
// records through returned pointers.
func TestMemoryStore_CloneIsolation(t *testing.T) {
	store := NewStore()
	defer store.Close()
	ctx := context.Background()

	owner := registry.Identity("0xaaaa00000000000000000000000000000000a11c")
	record, err := store.CreateFile(ctx, owner, registry.NewFileInput{
		FileName:    "immutable.txt",
		FileType:    registry.FileTypeDocument,
		ContentHash: "Qmimmutable",
		Tags:        []string{"one"},
	})
	require.NoError(t, err)

	record.FileName = "tampered.txt"
	record.Tags[0] = "tampered"

	fetched, err := store.GetFile(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "immutable.txt", fetched.FileName)
	assert.Equal(t, []string{"one"}, fetched.Tags)
}

// TestMemoryStore_ConcurrentCreates verifies ID uniqueness under
// concurrent writers.
func TestMemoryStore_ConcurrentCreates(t *testing.T) {
	store := NewStore()
	defer store.Close()
	ctx := context.Background()

	owner := registry.Identity("0xaaaa00000000000000000000000000000000a11c")
	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	ids := make(chan uint64, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				record, err := store.CreateFile(ctx, owner, registry.NewFileInput{
					FileName:    "concurrent.txt",
					FileType:    registry.FileTypeOther,
					ContentHash: "Qmconcurrent",
				})
				if err != nil {
					t.Error(err)
					return
				}
				ids <- record.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate ID %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*perWorker)
}

// TestMemoryStore_ContextCancellation verifies operations respect an
// already-cancelled context.
func TestMemoryStore_ContextCancellation(t *testing.T) {
	store := NewStore()
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ListPublic(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
