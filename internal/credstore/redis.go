package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore — хранилище в Redis: для развёртываний, где одна сессия
// разделяется несколькими процессами (например, воркеры выгрузки).
// TTL ключей обеспечивает сам Redis.
type redisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis создаёт хранилище из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "pomnesh:cred:".
func NewRedis(redisURL, prefix string) (Store, error) {
	const op = "credstore.NewRedis"

	if prefix == "" {
		prefix = "pomnesh:cred:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &redisStore{rdb: rdb, prefix: prefix}, nil
}

func (s *redisStore) key(k string) string { return s.prefix + k }

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	const op = "credstore.redis.Get"

	value, err := s.rdb.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return value, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	const op = "credstore.redis.Set"

	if ttl < 0 {
		ttl = 0
	}

	if err := s.rdb.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	const op = "credstore.redis.Delete"

	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *redisStore) Close() error { return s.rdb.Close() }
