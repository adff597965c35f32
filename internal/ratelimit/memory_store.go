package ratelimit

import (
	"context"
	"sync"
	"time"

	"contact-relay/internal/models"
)

// Clock returns the current time. Tests swap it for a fixed clock.
type Clock func() time.Time

// MemoryStore keeps the rate-limit table in process memory. Entries are
// never evicted; a stale entry is reset on the next hit for its key. The
// table is lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*models.RateLimitEntry
	now     Clock
}

func NewMemoryStore(clock Clock) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]*models.RateLimitEntry),
		now:     clock,
	}
}

// Hit runs the read-compare-increment sequence for key under one lock.
func (s *MemoryStore) Hit(_ context.Context, key string, limit int, window time.Duration) (models.RateLimitDecision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.Expired(now) {
		entry = &models.RateLimitEntry{Count: 0, ResetTime: now.Add(window)}
		s.entries[key] = entry
	}

	decision := models.RateLimitDecision{
		Count:     entry.Count,
		Limit:     limit,
		ResetTime: entry.ResetTime,
	}
	if entry.Count >= limit {
		return decision, nil
	}

	entry.Count++
	decision.Allowed = true
	decision.Count = entry.Count
	return decision, nil
}

// Entry returns a copy of the entry for key.
func (s *MemoryStore) Entry(key string) (models.RateLimitEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return models.RateLimitEntry{}, false
	}
	return *entry, true
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) HealthCheck(context.Context) error {
	return nil
}

func (s *MemoryStore) Name() string {
	return "memory"
}
