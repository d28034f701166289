package bizdata

import (
	"sync"

	"pulse/assistant/internal/types"
)

// Store holds the current business snapshot the assistant answers about. The
// host application replaces it wholesale; everything else only reads.
type Store struct {
	mu   sync.RWMutex
	snap types.Snapshot
}

func New(currency string) *Store {
	return &Store{snap: types.Snapshot{Currency: currency}}
}

func (s *Store) Replace(snap types.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Currency == "" {
		snap.Currency = s.snap.Currency
	}
	s.snap = snap
}

// Snapshot returns a copy; slices are shared but treated as read-only.
func (s *Store) Snapshot() types.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
