// Package session keeps the signed-in user between requests.
package session

import (
	"fmt"
	"sync"

	"billed/internal/core"
)

// UserKey is the item holding the JSON-encoded current user.
const UserKey = "user"

// Storage is a string key/value session store.
type Storage interface {
	GetItem(key string) (string, bool)
	SetItem(key, value string)
	RemoveItem(key string)
}

// MemoryStorage is a map-backed Storage.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (s *MemoryStorage) GetItem(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

func (s *MemoryStorage) SetItem(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

func (s *MemoryStorage) RemoveItem(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// CurrentUser returns the signed-in user, nil when nobody is signed in.
func CurrentUser(s Storage) (*core.SessionUser, error) {
	if s == nil {
		return nil, nil
	}
	raw, ok := s.GetItem(UserKey)
	if !ok || raw == "" {
		return nil, nil
	}
	u, err := core.DecodeSessionUser(raw)
	if err != nil {
		return nil, fmt.Errorf("decode session user: %w", err)
	}
	return u, nil
}

// SetUser records the signed-in user.
func SetUser(s Storage, u core.SessionUser) error {
	raw, err := u.Encode()
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	s.SetItem(UserKey, raw)
	return nil
}
