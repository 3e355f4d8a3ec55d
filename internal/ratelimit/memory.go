package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore - счётчики в памяти процесса. Подходит для одного инстанса.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Hit удаляет все истёкшие окна и учитывает запрос по key.
func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration, now time.Time) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.entries {
		if e.ResetAt.Before(now) {
			delete(s.entries, k)
		}
	}

	e, ok := s.entries[key]
	if !ok || e.ResetAt.Before(now) {
		e = &Entry{ResetAt: now.Add(window)}
		s.entries[key] = e
	}

	e.Count++

	return *e, nil
}

// Len - число живых окон (для тестов и отладки).
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}
