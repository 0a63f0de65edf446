package testing

import (
	"testing"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

// StoreTestSuite is a conformance test suite for registry.Store
// implementations. It tests the interface contract, not implementation
// details, making it reusable across backends (memory, badger, future
// replicated stores).
type StoreTestSuite struct {
	// NewStore is a factory that creates a fresh Store for each test,
	// ensuring test isolation. The suite closes each store it creates.
	NewStore func(t *testing.T) registry.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(test *testing.T) {
	test.Run("File", suite.RunFileTests)
	test.Run("Access", suite.RunAccessTests)
	test.Run("Query", suite.RunQueryTests)
	test.Run("Audit", suite.RunAuditTests)
}

// open creates a store and registers its cleanup.
func (suite *StoreTestSuite) open(t *testing.T) registry.Store {
	t.Helper()
	store := suite.NewStore(t)
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return store
}
