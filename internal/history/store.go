package history

import (
	"errors"
	"sync"

	"pulse/assistant/internal/types"
)

var (
	ErrConversationExists  = errors.New("conversation already exists")
	ErrUnknownConversation = errors.New("unknown conversation")
)

// Store owns every conversation history. It is the one piece of state mutated
// by more than one component, so all writes go through read-latest-then-update
// methods under the store lock; callers never hold a reference into the live
// slice.
type Store struct {
	mu    sync.RWMutex
	convs map[string]*conversation
}

type conversation struct {
	entries   []types.ChatEntry
	reactions map[string]types.Reaction
}

func New() *Store {
	return &Store{convs: make(map[string]*conversation)}
}

// Create registers a conversation seeded with the given welcome entry.
func (s *Store) Create(id string, welcome types.ChatEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.convs[id]; ok {
		return ErrConversationExists
	}
	s.convs[id] = &conversation{
		entries:   []types.ChatEntry{welcome},
		reactions: make(map[string]types.Reaction),
	}
	return nil
}

func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.convs[id]
	return ok
}

// Entries returns a copy of the conversation history in display order.
func (s *Store) Entries(id string) []types.ChatEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.convs[id]
	if c == nil {
		return nil
	}
	out := make([]types.ChatEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// AppendTurn appends the user entry and its pending placeholder as one atomic
// update, so no reader ever observes the user entry without its placeholder.
func (s *Store) AppendTurn(id string, user, pending types.ChatEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.convs[id]
	if c == nil {
		return ErrUnknownConversation
	}
	c.entries = append(c.entries, user, pending)
	return nil
}

// UpdateEntry applies fn to the entry with the given id against the latest
// history, keeping its position. Returns false if the entry is gone.
func (s *Store) UpdateEntry(id, entryID string, fn func(*types.ChatEntry)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.convs[id]
	if c == nil {
		return false
	}
	for i := range c.entries {
		if c.entries[i].ID == entryID {
			fn(&c.entries[i])
			return true
		}
	}
	return false
}

// Entry returns a copy of a single entry.
func (s *Store) Entry(id, entryID string) (types.ChatEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.convs[id]
	if c == nil {
		return types.ChatEntry{}, false
	}
	for i := range c.entries {
		if c.entries[i].ID == entryID {
			return c.entries[i], true
		}
	}
	return types.ChatEntry{}, false
}

// SetReaction records a like/dislike for a message; an empty reaction clears
// it. Reactions are presentational only and never touch entry state.
func (s *Store) SetReaction(id, entryID string, r types.Reaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.convs[id]
	if c == nil {
		return
	}
	if r == "" {
		delete(c.reactions, entryID)
		return
	}
	c.reactions[entryID] = r
}

func (s *Store) Reactions(id string) map[string]types.Reaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.convs[id]
	if c == nil {
		return nil
	}
	out := make(map[string]types.Reaction, len(c.reactions))
	for k, v := range c.reactions {
		out[k] = v
	}
	return out
}

func (s *Store) ListConversationIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.convs))
	for id := range s.convs {
		out = append(out, id)
	}
	return out
}
