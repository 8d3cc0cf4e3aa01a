package history

import (
	"slices"
	"sync"
	"time"

	"github.com/use-agent/dicepool/models"
)

// Store keeps the most recent scored rolls of each user in memory.
// It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	byUser     map[string][]models.HistoryEntry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	done       chan struct{}
	closeOnce  sync.Once
}

// New creates a Store keeping at most maxEntries outcomes per user.
// A background goroutine runs every 5 minutes to drop outcomes older
// than ttl; Close stops it.
func New(maxEntries int, ttl time.Duration) *Store {
	s := &Store{
		byUser:     make(map[string][]models.HistoryEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		done:       make(chan struct{}),
	}

	go s.cleanupLoop()
	return s
}

// Record appends an outcome for userID, dropping the oldest one when the
// user is at capacity. CreatedAt is filled in when zero.
func (s *Store) Record(userID string, e models.HistoryEntry) {
	if e.CreatedAt == 0 {
		e.CreatedAt = s.now().Unix()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.byUser[userID], e)
	if over := len(entries) - s.maxEntries; over > 0 {
		entries = slices.Delete(entries, 0, over)
	}
	s.byUser[userID] = entries
}

// List returns the unexpired outcomes of userID, newest first.
func (s *Store) List(userID string) []models.HistoryEntry {
	cutoff := s.now().Add(-s.ttl).Unix()

	s.mu.RLock()
	entries := s.byUser[userID]
	out := make([]models.HistoryEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].CreatedAt >= cutoff {
			out = append(out, entries[i])
		}
	}
	s.mu.RUnlock()

	return out
}

// Users reports how many users currently have history.
func (s *Store) Users() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUser)
}

// Close stops the cleanup goroutine.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// cleanupLoop evicts expired outcomes every 5 minutes.
func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *Store) evictExpired() {
	cutoff := s.now().Add(-s.ttl).Unix()
	s.mu.Lock()
	defer s.mu.Unlock()
	for user, entries := range s.byUser {
		kept := slices.DeleteFunc(entries, func(e models.HistoryEntry) bool {
			return e.CreatedAt < cutoff
		})
		if len(kept) == 0 {
			delete(s.byUser, user)
			continue
		}
		s.byUser[user] = kept
	}
}
