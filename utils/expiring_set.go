package utils

import (
	"sync"
	"time"
)

// expiringSet is the single-instance fallback for keys that would otherwise
// live in Redis with a TTL.
type expiringSet struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func newExpiringSet() *expiringSet {
	return &expiringSet{items: map[string]time.Time{}}
}

func (s *expiringSet) add(key string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.items[key] = time.Now().Add(ttl)
}

func (s *expiringSet) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.items[key]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(s.items, key)
		return false
	}
	return true
}

// take reports whether key was present and unexpired, removing it either way.
func (s *expiringSet) take(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.items[key]
	delete(s.items, key)
	return ok && time.Now().Before(exp)
}

func (s *expiringSet) sweepLocked() {
	now := time.Now()
	for k, exp := range s.items {
		if now.After(exp) {
			delete(s.items, k)
		}
	}
}
