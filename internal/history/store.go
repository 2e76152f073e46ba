// Package history holds conversation state for the agent: a bounded
// in-memory store shared by all connections, and an optional SQLite
// archive that persists every turn across restarts.
package history

import "sync"

// Turn roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single conversation entry.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store is a bounded FIFO log of conversation turns. It is shared by all
// connections; every operation is serialized by a single mutex so no
// partial view is ever observable.
type Store struct {
	mu       sync.Mutex
	turns    []Turn
	capacity int
}

// NewStore creates a store that keeps at most capacity turns. Once full,
// the oldest turn is evicted before a new one is appended.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = 20
	}
	return &Store{
		turns:    make([]Turn, 0, capacity),
		capacity: capacity,
	}
}

// Append adds a turn, evicting the oldest entry first if the store is at
// capacity. Eviction and insertion are atomic.
func (s *Store) Append(turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.turns) >= s.capacity {
		overflow := len(s.turns) - s.capacity + 1
		s.turns = append(s.turns[:0], s.turns[overflow:]...)
	}
	s.turns = append(s.turns, turn)
}

// Snapshot returns an independent copy of the current turns in
// chronological order. A concurrent Append cannot mutate the copy.
func (s *Store) Snapshot() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Clear removes all turns.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = s.turns[:0]
}

// Len returns the current number of turns.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Capacity returns the maximum number of turns the store keeps.
func (s *Store) Capacity() int {
	return s.capacity
}
