package credstore

import (
	"context"
	"sync"
	"time"
)

// memoryStore — хранилище в памяти процесса. Используется в тестах и для
// эфемерных сессий (значения не переживают перезапуск).
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	value     string
	expiresAt time.Time // нулевое значение — без срока
}

// NewMemory создаёт пустое in-memory хранилище.
func NewMemory() Store {
	return &memoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", ErrNotFound
	}

	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return "", ErrNotFound
	}

	return e.value, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.entries[key] = e
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *memoryStore) Close() error { return nil }
