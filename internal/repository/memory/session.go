// Package memory implements the in-process conversation session registry.
package memory

import (
	"sync"
	"time"

	"perfume-chat/internal/domain"

	"github.com/patrickmn/go-cache"
)

// session holds one conversation transcript. The first message is always the
// system prompt and is never mutated after seeding.
type session struct {
	mu       sync.Mutex
	messages []domain.ChatMessage
}

// SessionRegistry maps conversation ids to transcripts. Entries expire after
// the configured idle TTL so abandoned conversations do not accumulate for
// the process lifetime. Implements domain.SessionStore.
type SessionRegistry struct {
	cache        *cache.Cache
	systemPrompt string
}

// NewSessionRegistry creates a registry seeding every new transcript with
// systemPrompt. ttl <= 0 disables expiry.
func NewSessionRegistry(systemPrompt string, ttl time.Duration) *SessionRegistry {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &SessionRegistry{
		cache:        cache.New(ttl, 10*time.Minute),
		systemPrompt: systemPrompt,
	}
}

// GetOrCreate ensures a transcript exists for the conversation id, returning
// true when this call created it.
func (r *SessionRegistry) GetOrCreate(conversationID string) bool {
	s := &session{
		messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: r.systemPrompt},
		},
	}
	// Add fails when the key already exists, which doubles as the
	// created-or-not signal without a separate existence check.
	err := r.cache.Add(conversationID, s, cache.DefaultExpiration)
	return err == nil
}

// Append adds one message to the transcript. A message for an expired or
// unknown conversation re-creates the transcript first.
func (r *SessionRegistry) Append(conversationID string, msg domain.ChatMessage) {
	s := r.get(conversationID)
	if s == nil {
		r.GetOrCreate(conversationID)
		s = r.get(conversationID)
		if s == nil {
			return
		}
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	// Sliding expiry: activity keeps the conversation alive.
	r.cache.SetDefault(conversationID, s)
}

// Messages returns a copy of the transcript, or nil for an unknown
// conversation.
func (r *SessionRegistry) Messages(conversationID string) []domain.ChatMessage {
	s := r.get(conversationID)
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (r *SessionRegistry) get(conversationID string) *session {
	if x, found := r.cache.Get(conversationID); found {
		return x.(*session)
	}
	return nil
}
