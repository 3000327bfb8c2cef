package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mchlbschmdt/ai-concierge/internal/memory"
)

// MemoryStore keeps conversations in process memory. Values are copied in
// and out so callers never share context slices with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*Conversation
	now   func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*Conversation), now: time.Now}
}

func (s *MemoryStore) GetConversation(_ context.Context, phone string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[strings.TrimSpace(phone)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyConversation(c), nil
}

func (s *MemoryStore) CreateConversation(_ context.Context, phone string) (*Conversation, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.items[phone]; ok {
		return copyConversation(c), nil
	}
	now := s.now().UTC()
	c := &Conversation{
		ID:          uuid.NewString(),
		PhoneNumber: phone,
		State:       StateAwaitingPropertyID,
		Context:     memory.New(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.items[phone] = c
	return copyConversation(c), nil
}

func (s *MemoryStore) UpdateConversation(_ context.Context, phone string, u Update) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[strings.TrimSpace(phone)]
	if !ok {
		return nil, ErrNotFound
	}
	u.Apply(c)
	if u.Context != nil {
		c.Context = copyContext(*u.Context)
	}
	c.UpdatedAt = s.now().UTC()
	return copyConversation(c), nil
}

// Len reports how many conversations are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func copyConversation(c *Conversation) *Conversation {
	out := *c
	out.Context = copyContext(c.Context)
	return &out
}

// copyContext deep-copies through the persisted encoding.
func copyContext(c memory.Context) memory.Context {
	raw, err := memory.Encode(c)
	if err != nil {
		return memory.New()
	}
	return memory.Decode(raw)
}
