package convo

import (
	"context"
	"sync"

	"github.com/MoonshotAI/kosong/chat"
)

// MemoryStorage is a LinearStorage that keeps messages in memory only,
// mutex-guarded the same way llm/internal/common/state.go guards a
// provider's message history.
type MemoryStorage struct {
	mu       sync.Mutex
	messages []chat.Message
}

var _ LinearStorage = (*MemoryStorage)(nil)

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// ListMessages returns a snapshot copy of the history.
func (s *MemoryStorage) ListMessages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]chat.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// AppendMessage appends message to the in-memory history.
func (s *MemoryStorage) AppendMessage(_ context.Context, message chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, message)
	return nil
}
