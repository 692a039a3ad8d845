package tokens

import (
	"context"
	"sync"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore is an in-memory implementation of Store
type InMemoryStore struct {
	mu    sync.RWMutex
	slots map[string]map[string]string // browserID -> key -> token
}

// NewInMemoryStore creates a new in-memory token store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		slots: make(map[string]map[string]string),
	}
}

func (s *InMemoryStore) Get(_ context.Context, browserID, key string) (string, error) {
	if err := checkKey(browserID, key); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.slots[browserID][key], nil
}

func (s *InMemoryStore) Set(_ context.Context, browserID, key, value string) error {
	if err := checkKey(browserID, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[browserID]; !ok {
		s.slots[browserID] = make(map[string]string)
	}
	s.slots[browserID][key] = value
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, browserID, key string) error {
	if err := checkKey(browserID, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	browserSlots, ok := s.slots[browserID]
	if !ok {
		return nil // Already doesn't exist, no error
	}
	delete(browserSlots, key)

	// Clean up empty browser map
	if len(browserSlots) == 0 {
		delete(s.slots, browserID)
	}
	return nil
}
