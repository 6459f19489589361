// credstore — durable-хранилище учётных данных клиента (аналог cookie-store
// браузера): три строковых пары ключ/значение с независимыми сроками жизни.
//
// Основные аспекты:
//   - хранилище — единственный источник истины по токенам: транспорт
//     перечитывает access-токен перед каждым запросом и не держит
//     долгоживущей копии в памяти;
//   - запись выполняется только тремя сценариями: логин, обновление пары
//     токенов, логаут; взаимное исключение конкурентных писателей
//     обеспечивает протокол refresh на уровне транспорта;
//   - просроченная запись неотличима от отсутствующей (ErrNotFound).
package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Ключи хранилища. Имена повторяют cookie веб-клиента.
const (
	KeyBearerToken  = "bearer_token"
	KeyRefreshToken = "refresh_token"
	KeyUserID       = "pomnesh_user_id"
)

// Сроки жизни по умолчанию: access — 7 дней, refresh и user id — 30 дней.
const (
	DefaultAccessTTL  = 7 * 24 * time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
	DefaultUserIDTTL  = 30 * 24 * time.Hour
)

// ErrNotFound — ключ отсутствует либо его срок жизни истёк.
var ErrNotFound = errors.New("credential not found")

// Store — минимальный контракт хранилища учётных данных.
type Store interface {
	// Get возвращает значение ключа или ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set сохраняет значение с TTL; ttl <= 0 означает «без срока».
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete удаляет ключ; отсутствие ключа — не ошибка.
	Delete(ctx context.Context, key string) error
	// Close освобождает ресурсы хранилища.
	Close() error
}

// Clear удаляет все три персистентных поля (логаут, провал refresh).
func Clear(ctx context.Context, s Store) error {
	const op = "credstore.Clear"

	var errs []error
	for _, key := range []string{KeyBearerToken, KeyRefreshToken, KeyUserID} {
		if err := s.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
