// Package cooldown suppresses repeat notifications for fingerprints that
// were already handled inside the cooldown window.
package cooldown

import (
	"context"
	"log"
	"sync"
	"time"
)

// Store is the only mutable state shared across monitor goroutines. Every
// operation takes the mutex for the map access only; nothing blocking runs
// under it.
type Store struct {
	mu      sync.Mutex
	entries map[string]time.Time // fingerprint -> expires_at
	now     func() time.Time
}

func New() *Store {
	return &Store{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Seen reports whether fp has an unexpired entry. Expired entries are
// removed on the way out so a stale map never suppresses a fresh lead.
func (s *Store) Seen(fp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.entries[fp]
	if !ok {
		return false
	}
	if s.now().After(exp) {
		delete(s.entries, fp)
		return false
	}
	return true
}

// Record marks fp handled until now+ttl, refreshing any earlier entry.
func (s *Store) Record(fp string, ttl time.Duration) {
	s.mu.Lock()
	s.entries[fp] = s.now().Add(ttl)
	s.mu.Unlock()
}

// Len is for status reporting.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops every expired entry. Seen already expires lazily; the sweep
// bounds memory for fingerprints that are never looked up again.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for fp, exp := range s.entries {
		if now.After(exp) {
			delete(s.entries, fp)
			removed++
		}
	}
	return removed
}

// StartSweeper sweeps every interval until ctx is done.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("[cooldown] swept %d expired entries, %d live", n, s.Len())
			}
		}
	}
}
