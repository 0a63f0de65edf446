package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/azureanc-hub/filevault/pkg/registry"
	badgerstore "github.com/azureanc-hub/filevault/pkg/registry/badger"
	memorystore "github.com/azureanc-hub/filevault/pkg/registry/memory"
)

// CreateStore creates a registry store based on configuration.
//
// This factory uses the Type field to determine which implementation to
// create, decodes the type-specific options map into the backend's config
// struct, and hands it to the backend's constructor.
//
// Supported types:
//   - "memory": in-memory store, nothing survives a restart
//   - "badger": BadgerDB-backed persistent store
func CreateStore(cfg *StoreConfig) (registry.Store, error) {
	switch cfg.Type {
	case "memory":
		return memorystore.NewStore(), nil
	case "badger":
		return createBadgerStore(cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown store type: %q", cfg.Type)
	}
}

// createBadgerStore creates a BadgerDB-backed store.
func createBadgerStore(options map[string]any) (registry.Store, error) {
	type BadgerStoreConfig struct {
		Dir        string `mapstructure:"dir"`
		SyncWrites bool   `mapstructure:"sync_writes"`
		InMemory   bool   `mapstructure:"in_memory"`
	}

	var storeCfg BadgerStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger store config: %w", err)
	}

	if storeCfg.Dir == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger store: dir is required")
	}

	store, err := badgerstore.Open(badgerstore.Options{
		Dir:        storeCfg.Dir,
		SyncWrites: storeCfg.SyncWrites,
		InMemory:   storeCfg.InMemory,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger store: %w", err)
	}

	return store, nil
}
