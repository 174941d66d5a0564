package kv

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "desk.json")

	store := NewFile(path)
	if err := store.Set(ctx, "auth:access_token", "tok-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "auth:identifier", "operator-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A fresh store on the same path must see the persisted data.
	reloaded := NewFile(path)
	v, ok, err := reloaded.Get(ctx, "auth:access_token")
	if err != nil || !ok || v != "tok-1" {
		t.Errorf("Get after reload = (%q, %v, %v), want (tok-1, true, nil)", v, ok, err)
	}
}

func TestFile_DelRemovesKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "desk.json")

	store := NewFile(path)
	store.Set(ctx, "a", "1")
	store.Set(ctx, "b", "2")
	if err := store.Del(ctx, "a", "b"); err != nil {
		t.Fatalf("Del: %v", err)
	}

	reloaded := NewFile(path)
	if _, ok, _ := reloaded.Get(ctx, "a"); ok {
		t.Error("deleted key survived a reload")
	}
}

func TestFile_MissingFileStartsEmpty(t *testing.T) {
	store := NewFile(filepath.Join(t.TempDir(), "never-written.json"))
	if _, ok, _ := store.Get(context.Background(), "anything"); ok {
		t.Error("missing file must start the store empty")
	}
}

func TestFile_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desk.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	ctx := context.Background()
	store := NewFile(path)
	if _, ok, _ := store.Get(ctx, "anything"); ok {
		t.Error("corrupt file must start the store empty")
	}

	// Writes must recover the file.
	if err := store.Set(ctx, "a", "1"); err != nil {
		t.Fatalf("Set after corrupt load: %v", err)
	}
	if v, ok, _ := NewFile(path).Get(ctx, "a"); !ok || v != "1" {
		t.Error("store did not recover after corrupt file")
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Set(ctx, "shared", "v")
			store.Get(ctx, "shared")
			store.Del(ctx, "other")
		}()
	}
	wg.Wait()

	if v, ok, _ := store.Get(ctx, "shared"); !ok || v != "v" {
		t.Errorf("Get = (%q, %v), want (v, true)", v, ok)
	}
}
