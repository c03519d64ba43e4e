package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"wishlist-shopify-layer/internal/domain"
	"wishlist-shopify-layer/internal/ports"
)

// FileSessionStore persists sessions as a single JSON document mapping shop
// domain to record. The whole-collection read-modify-write is serialized by
// an in-process mutex, which closes the concurrent-installer race within
// one process; multi-process deployments should use the redis or mongo
// store instead.
type FileSessionStore struct {
	mu   sync.Mutex
	path string
}

// NewFileSessionStore creates the storage file (and parent directory) on
// first use.
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

var _ ports.SessionStore = (*FileSessionStore)(nil)

func (s *FileSessionStore) Store(ctx context.Context, shop string, session *domain.ShopSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return err
	}
	record := *session
	record.UpdatedAt = time.Now().UTC()
	sessions[shop] = &record
	return s.save(sessions)
}

func (s *FileSessionStore) Get(ctx context.Context, shop string) (*domain.ShopSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return nil, err
	}
	return sessions[shop], nil
}

func (s *FileSessionStore) Delete(ctx context.Context, shop string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := sessions[shop]; !ok {
		return nil
	}
	delete(sessions, shop)
	return s.save(sessions)
}

func (s *FileSessionStore) GetAll(ctx context.Context) (map[string]*domain.ShopSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileSessionStore) load() (map[string]*domain.ShopSession, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]*domain.ShopSession{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if len(data) == 0 {
		return map[string]*domain.ShopSession{}, nil
	}

	sessions := map[string]*domain.ShopSession{}
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return sessions, nil
}

func (s *FileSessionStore) save(sessions map[string]*domain.ShopSession) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sessions: %w", err)
	}
	// Write-then-rename keeps a crashed write from truncating the store.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
