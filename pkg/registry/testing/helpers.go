// Package testing provides a reusable conformance suite for registry.Store
// implementations.
package testing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

// Test principals used throughout the suite.
const (
	alice    = registry.Identity("0xaaaa00000000000000000000000000000000a11c")
	bob      = registry.Identity("0xbbbb0000000000000000000000000000000000b0")
	carol    = registry.Identity("0xcccc00000000000000000000000000000000ca01")
	nobody   = registry.Identity("0xdddd000000000000000000000000000000000000")
	stranger = registry.Identity("0xeeee000000000000000000000000000000000000")
)

// fileInput builds a minimal valid creation input.
func fileInput(name string) registry.NewFileInput {
	return registry.NewFileInput{
		FileName:    name,
		FileType:    registry.FileTypeDocument,
		ContentHash: "Qm" + name,
		FileSize:    1024,
	}
}

// publicInput builds a public creation input.
func publicInput(name string) registry.NewFileInput {
	in := fileInput(name)
	in.IsPublic = true
	return in
}

// mustCreate creates a record and fails the test on error.
func mustCreate(t *testing.T, store registry.Store, owner registry.Identity, input registry.NewFileInput) *registry.FileRecord {
	t.Helper()
	record, err := store.CreateFile(context.Background(), owner, input)
	require.NoError(t, err)
	require.NotNil(t, record)
	return record
}

// requireCode asserts err is a StoreError with the given code.
func requireCode(t *testing.T, err error, code registry.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	got, ok := registry.CodeOf(err)
	require.True(t, ok, "expected a registry.StoreError, got %T: %v", err, err)
	require.Equal(t, code, got, "expected %s, got %s (%v)", code, got, err)
}

// recordIDs extracts the IDs from a record slice.
func recordIDs(records []*registry.FileRecord) []uint64 {
	ids := make([]uint64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

// uniqueName generates distinct file names for bulk creation.
func uniqueName(prefix string, i int) string {
	return fmt.Sprintf("%s-%d.txt", prefix, i)
}
