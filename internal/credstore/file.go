package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// fileStore — файловое хранилище: один JSON-файл с записями и сроками.
// Файл создаётся с правами 0600, запись идёт через временный файл с
// атомарным rename, чтобы частично записанный файл не читался как пустой.
type fileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

type fileEntry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// NewFile создаёт файловое хранилище по указанному пути.
// Родительский каталог создаётся при необходимости.
func NewFile(path string) (Store, error) {
	const op = "credstore.NewFile"

	if path == "" {
		return nil, fmt.Errorf("%s: empty path", op)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &fileStore{path: path, now: time.Now}, nil
}

func (s *fileStore) Get(_ context.Context, key string) (string, error) {
	const op = "credstore.file.Get"

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	e, ok := entries[key]
	if !ok {
		return "", ErrNotFound
	}

	if !e.ExpiresAt.IsZero() && !s.now().Before(e.ExpiresAt) {
		delete(entries, key)
		if err := s.save(entries); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		return "", ErrNotFound
	}

	return e.Value, nil
}

func (s *fileStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	const op = "credstore.file.Set"

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	e := fileEntry{Value: value}
	if ttl > 0 {
		e.ExpiresAt = s.now().Add(ttl)
	}
	entries[key] = e

	if err := s.save(entries); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *fileStore) Delete(_ context.Context, key string) error {
	const op = "credstore.file.Delete"

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)

	if err := s.save(entries); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *fileStore) Close() error { return nil }

// load читает все записи; отсутствующий файл — пустое хранилище.
func (s *fileStore) load() (map[string]fileEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]fileEntry), nil
		}
		return nil, err
	}

	if len(data) == 0 {
		return make(map[string]fileEntry), nil
	}

	var entries map[string]fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = make(map[string]fileEntry)
	}

	return entries, nil
}

func (s *fileStore) save(entries map[string]fileEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}
