package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryGetPutNotFound(t *testing.T) {
	m := NewMemory()
	if _, ok, err := m.Get([]byte("missing")); err != nil || ok {
		t.Fatalf("expected not-found, got ok=%v err=%v", ok, err)
	}
	if err := m.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok, err := m.Get([]byte("k"))
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("get mismatch: v=%q ok=%v err=%v", v, ok, err)
	}
}

func TestLevelDBGetPutNotFound(t *testing.T) {
	dir, err := os.MkdirTemp("", "pocdb-leveldb-*")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	defer os.RemoveAll(dir)

	db, err := OpenLevelDB(filepath.Join(dir, "db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, ok, err := db.Get([]byte("missing")); err != nil || ok {
		t.Fatalf("expected not-found, got ok=%v err=%v", ok, err)
	}
	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok, err := db.Get([]byte("k"))
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("get mismatch: v=%q ok=%v err=%v", v, ok, err)
	}
}
