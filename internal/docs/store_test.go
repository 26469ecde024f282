package docs

import (
	"testing"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestStore_StartsWithBundledData(t *testing.T) {
	store := newTestStore(t)

	ds := store.Current()
	if ds == nil {
		t.Fatal("store should never return a nil dataset")
	}
	if len(ds.Instructions()) == 0 {
		t.Error("bundled dataset should not be empty")
	}
}

func TestStore_ReloadIdempotent(t *testing.T) {
	store := newTestStore(t)

	if err := store.Reload([]byte(testDocument)); err != nil {
		t.Fatalf("first reload failed: %v", err)
	}
	first, _ := store.Current().Instruction("git")

	if err := store.Reload([]byte(testDocument)); err != nil {
		t.Fatalf("second reload failed: %v", err)
	}
	second, ok := store.Current().Instruction("git")
	if !ok {
		t.Fatal("git lost after second reload")
	}

	if first.Description != second.Description || first.URL != second.URL {
		t.Errorf("reloading the same document changed lookup results: %+v vs %+v", first, second)
	}
	if len(first.Parameters) != len(second.Parameters) {
		t.Errorf("parameter count changed across identical reloads")
	}
}

func TestStore_FailedReloadKeepsPrevious(t *testing.T) {
	store := newTestStore(t)

	if err := store.Reload([]byte(testDocument)); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	before := store.Current()

	if err := store.Reload([]byte(`{"date": "x"}`)); err == nil {
		t.Fatal("expected reload of malformed document to fail")
	}

	if store.Current() != before {
		t.Error("failed reload must keep the previous dataset active")
	}
}

func TestStore_ReloadFileMissing(t *testing.T) {
	store := newTestStore(t)
	before := store.Current()

	if err := store.ReloadFile("/nonexistent/jenkins_data.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
	if store.Current() != before {
		t.Error("unreadable file must keep the previous dataset active")
	}
}

func TestStore_ReloadDefault(t *testing.T) {
	store := newTestStore(t)

	if err := store.Reload([]byte(testDocument)); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if err := store.ReloadDefault(); err != nil {
		t.Fatalf("ReloadDefault failed: %v", err)
	}
	if _, ok := store.Current().Instruction("sh"); !ok {
		t.Error("expected bundled dataset after ReloadDefault")
	}
}
