package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileCheckpointStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "checkpoint.json")
	store := &FileCheckpointStore{Path: path}
	ctx := context.Background()

	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("expected no checkpoint, got ok=%v err=%v", ok, err)
	}

	if err := store.Save(ctx, 42); err != nil {
		t.Fatalf("save: %v", err)
	}
	last, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok || last != 42 {
		t.Fatalf("expected 42, got %d ok=%v", last, ok)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind")
	}
}

func TestFileCheckpointStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := &FileCheckpointStore{Path: path}
	if _, _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFileCheckpointStoreEmptyPath(t *testing.T) {
	store := &FileCheckpointStore{}
	if err := store.Save(context.Background(), 1); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok, err := store.Load(context.Background()); err != nil || ok {
		t.Fatalf("expected disabled store, got ok=%v err=%v", ok, err)
	}
}
