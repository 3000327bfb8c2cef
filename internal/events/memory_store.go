package events

import (
	"context"
	"sync"
)

// MemoryProcessedStore is the in-process ProcessedStore used in development.
type MemoryProcessedStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryProcessedStore() *MemoryProcessedStore {
	return &MemoryProcessedStore{seen: make(map[string]struct{})}
}

func (s *MemoryProcessedStore) AlreadyProcessed(_ context.Context, provider, eventID string) (bool, error) {
	key, err := memoryKey(provider, eventID)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[key]
	return ok, nil
}

func (s *MemoryProcessedStore) MarkProcessed(_ context.Context, provider, eventID string) (bool, error) {
	key, err := memoryKey(provider, eventID)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}

func (s *MemoryProcessedStore) Forget(_ context.Context, provider, eventID string) error {
	key, err := memoryKey(provider, eventID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, key)
	return nil
}

func memoryKey(provider, eventID string) (string, error) {
	provider, eventID, err := normalizeKey(provider, eventID)
	if err != nil {
		return "", err
	}
	return provider + ":" + eventID, nil
}
