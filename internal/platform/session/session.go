// Package session keeps the cart session identifier that the backend uses to
// find an anonymous cart. It plays the role the browser's local storage
// plays for the web storefront.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Header carries the cart session identifier.
const Header = "x-session-id"

// Store yields a stable session identifier, creating one on first use.
type Store interface {
	ID() (string, error)
	Reset() error
}

// FileStore persists the identifier in a single file.
type FileStore struct {
	mu   sync.Mutex
	path string
	id   string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) ID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id != "" {
		return s.id, nil
	}

	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if id := strings.TrimSpace(string(data)); id != "" {
			s.id = id
			return id, nil
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("read session file: %w", err)
	}

	id := uuid.New().String()
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", fmt.Errorf("create session dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write session file: %w", err)
	}
	s.id = id
	return id, nil
}

// Reset forgets the identifier so the next ID call starts a new cart.
func (s *FileStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = ""
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// MemoryStore holds the identifier for the lifetime of the process.
type MemoryStore struct {
	mu sync.Mutex
	id string
}

// NewMemoryStore returns a store seeded with id; an empty id is generated
// lazily.
func NewMemoryStore(id string) *MemoryStore {
	return &MemoryStore{id: id}
}

func (s *MemoryStore) ID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == "" {
		s.id = uuid.New().String()
	}
	return s.id, nil
}

func (s *MemoryStore) Reset() error {
	s.mu.Lock()
	s.id = ""
	s.mu.Unlock()
	return nil
}
