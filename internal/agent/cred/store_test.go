package cred

import (
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := s.Set(KeyBusID, "BUS001"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(KeyAuthToken, "token-1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	// a fresh store over the same file sees the persisted values
	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if v, ok := reopened.Get(KeyBusID); !ok || v != "BUS001" {
		t.Fatalf("unexpected bus id: %q %v", v, ok)
	}
	if v, ok := reopened.Get(KeyAuthToken); !ok || v != "token-1" {
		t.Fatalf("unexpected token: %q %v", v, ok)
	}
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := s.Set(KeyLoggedIn, "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, ok := reopened.Get(KeyLoggedIn); ok {
		t.Fatalf("expected cleared store")
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, ok := s.Get(KeyBusID); ok {
		t.Fatalf("expected empty store")
	}
}

func TestFileStoreLastWriteWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	_ = s.Set(KeyDriverName, "Alex")
	_ = s.Set(KeyDriverName, "Sam")

	if v, _ := s.Get(KeyDriverName); v != "Sam" {
		t.Fatalf("expected last write, got %q", v)
	}
}

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	if err := s.Set(KeyBusID, "BUS001"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok := s.Get(KeyBusID); !ok || v != "BUS001" {
		t.Fatalf("unexpected value: %q %v", v, ok)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := s.Get(KeyBusID); ok {
		t.Fatalf("expected cleared store")
	}
}
