package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestFileStore_CreatesAndReuses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session")

	s := NewFileStore(path)
	id, err := s.ID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected a uuid, got %q", id)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected session file to exist: %v", err)
	}
	if strings.TrimSpace(string(data)) != id {
		t.Errorf("file holds %q, want %q", data, id)
	}

	// A second store over the same file sees the same cart.
	again, err := NewFileStore(path).ID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != id {
		t.Errorf("expected %q, got %q", id, again)
	}
}

func TestFileStore_Reset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	s := NewFileStore(path)

	first, _ := s.ID()
	if err := s.Reset(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected session file to be removed")
	}
	second, _ := s.ID()
	if first == second {
		t.Error("expected a new id after Reset")
	}

	// Resetting twice is fine.
	if err := s.Reset(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("unexpected error on second reset: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore("fixed")
	id, _ := s.ID()
	if id != "fixed" {
		t.Errorf("expected fixed, got %q", id)
	}
	s.Reset()
	id, _ = s.ID()
	if id == "fixed" || id == "" {
		t.Errorf("expected a generated id after reset, got %q", id)
	}
}
