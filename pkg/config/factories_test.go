package config

import (
	"context"
	"testing"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

func TestCreateStore_Memory(t *testing.T) {
	cfg := &StoreConfig{Type: "memory"}

	store, err := CreateStore(cfg)
	if err != nil {
		t.Fatalf("Failed to create memory store: %v", err)
	}
	defer store.Close()

	// Sanity check: the store is usable
	if _, err := store.ListPublic(context.Background()); err != nil {
		t.Errorf("Memory store not usable: %v", err)
	}
}

func TestCreateStore_BadgerInMemory(t *testing.T) {
	cfg := &StoreConfig{
		Type: "badger",
		Badger: map[string]any{
			"in_memory": true,
		},
	}

	store, err := CreateStore(cfg)
	if err != nil {
		t.Fatalf("Failed to create badger store: %v", err)
	}
	defer store.Close()

	owner := registry.Identity("0xaaaa00000000000000000000000000000000a11c")
	record, err := store.CreateFile(context.Background(), owner, registry.NewFileInput{
		FileName:    "probe.txt",
		FileType:    registry.FileTypeOther,
		ContentHash: "Qmprobe",
	})
	if err != nil {
		t.Fatalf("Badger store not usable: %v", err)
	}
	if record.ID == 0 {
		t.Error("Expected a nonzero file ID")
	}
}

func TestCreateStore_BadgerOnDisk(t *testing.T) {
	cfg := &StoreConfig{
		Type: "badger",
		Badger: map[string]any{
			"dir": t.TempDir(),
		},
	}

	store, err := CreateStore(cfg)
	if err != nil {
		t.Fatalf("Failed to create badger store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Failed to close badger store: %v", err)
	}
}

func TestCreateStore_UnknownType(t *testing.T) {
	cfg := &StoreConfig{Type: "cassandra"}

	if _, err := CreateStore(cfg); err == nil {
		t.Fatal("Expected error for unknown store type, got nil")
	}
}

func TestCreateStore_BadgerMissingDir(t *testing.T) {
	cfg := &StoreConfig{Type: "badger", Badger: map[string]any{}}

	if _, err := CreateStore(cfg); err == nil {
		t.Fatal("Expected error when badger dir is missing, got nil")
	}
}
