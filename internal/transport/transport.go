// transport — авторизованный HTTP-транспорт клиента pomnesh.
//
// Основные аспекты:
//   - экземпляр Client создаётся один раз на процесс и передаётся
//     зависимостям явно; скрытого глобального состояния нет;
//   - access-токен перечитывается из credstore перед каждым запросом,
//     долгоживущей копии в памяти транспорт не держит;
//   - истечение access-токена (HTTP 401) восстанавливается прозрачно
//     и ровно один раз на запрос: сколько бы запросов ни получили 401
//     одновременно, сетевой вызов /auth/refresh выполняется один, все
//     ожидающие повторяют свои исходные запросы уже с новым токеном;
//   - провал самого refresh — конец сессии: учётные данные очищаются,
//     все ожидающие получают ErrSessionExpired.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pomnesh/pomnesh-go/internal/credstore"
	"github.com/pomnesh/pomnesh-go/internal/pkg/log"
)

var (
	// ErrInvalidResponseFormat — тело ответа присутствует, но не парсится
	// как JSON, либо в успешном ответе нет обязательных полей.
	// Фатальна, не ретраится.
	ErrInvalidResponseFormat = errors.New("invalid response format")

	// ErrSessionExpired — refresh-токен отсутствует или отвергнут бэкендом.
	// Сессия завершена принудительно, учётные данные очищены; слой UI
	// обязан вернуть пользователя на аутентификацию.
	ErrSessionExpired = errors.New("session expired")

	// ErrMissingSession — операция требует сохранённый идентификатор
	// пользователя, а его нет. Нарушение предусловия, не ретраится.
	ErrMissingSession = errors.New("missing session")

	// ErrAuthRejected — эндпойнт логина явно отверг учётные данные.
	// Показывается пользователю, не ретраится.
	ErrAuthRejected = errors.New("authentication rejected")
)

// Ключ singleflight: refresh на процесс один, независимо от того,
// какой запрос его инициировал.
const refreshKey = "refresh"

// Options — параметры сборки транспорта.
type Options struct {
	// BaseURL — корень API с версией, например
	// "https://pomnesh-backend.hps-2.ru/api/v1".
	BaseURL string

	// HTTPClient — нижележащий клиент; nil означает клиент с таймаутом
	// 30 секунд. Таймаут клиента — единственный предел времени refresh,
	// поэтому клиент без таймаута не рекомендуется.
	HTTPClient *http.Client

	// Creds — durable-хранилище учётных данных (обязательно).
	Creds credstore.Store

	// Header — дополнительные заголовки поверх умолчаний. Authorization
	// всегда строится из хранилища и здесь не переопределяется.
	Header http.Header

	// Сроки жизни сохраняемых полей; нули — умолчания credstore.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	UserIDTTL  time.Duration
}

// Client — авторизованный транспорт. Безопасен для конкурентного
// использования из разных горутин.
type Client struct {
	baseURL string
	http    *http.Client
	creds   credstore.Store
	header  http.Header

	accessTTL  time.Duration
	refreshTTL time.Duration
	userIDTTL  time.Duration

	refresh singleflight.Group
}

// New создаёт транспорт. BaseURL и Creds обязательны.
func New(opts Options) (*Client, error) {
	const op = "transport.New"

	if opts.BaseURL == "" {
		return nil, fmt.Errorf("%s: empty base url", op)
	}
	if opts.Creds == nil {
		return nil, fmt.Errorf("%s: nil credential store", op)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		http:       httpClient,
		creds:      opts.Creds,
		header:     opts.Header.Clone(),
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		userIDTTL:  opts.UserIDTTL,
	}

	if c.accessTTL <= 0 {
		c.accessTTL = credstore.DefaultAccessTTL
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = credstore.DefaultRefreshTTL
	}
	if c.userIDTTL <= 0 {
		c.userIDTTL = credstore.DefaultUserIDTTL
	}

	return c, nil
}

// Request выполняет авторизованный запрос и возвращает сырой JSON тела.
//
// Поведение:
//   - заголовки: Content-Type: application/json и Authorization: Bearer
//     из хранилища (опускается, если токена нет); Header из Options
//     накладывается поверх, кроме Authorization;
//   - пустое тело ответа — nil;
//   - непарсящееся тело — ErrInvalidResponseFormat;
//   - HTTP 401 — протокол refresh и единственный повтор исходного
//     запроса с новым токеном; повторный 401 — ErrSessionExpired;
//   - прочие HTTP-статусы ошибкой транспорта не считаются: маркеры
//     ошибок живут в конвертах конкретных эндпойнтов.
func (c *Client) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	const op = "transport.Request"

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		payload = data
	}

	token, err := c.creds.Get(ctx, credstore.KeyBearerToken)
	if err != nil && !errors.Is(err, credstore.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	raw, status, err := c.do(ctx, method, path, payload, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if status != http.StatusUnauthorized {
		return decodeBody(op, raw)
	}

	// 401: единственная попытка восстановиться через refresh.
	newToken, err := c.refreshToken(ctx)
	if err != nil {
		return nil, err
	}

	raw, status, err = c.do(ctx, method, path, payload, newToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if status == http.StatusUnauthorized {
		// Свежий токен тоже отвергнут — второй повтор запрещён.
		return nil, fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	return decodeBody(op, raw)
}

// do — один сетевой вызов с уже известным токеном.
func (c *Client) do(ctx context.Context, method, path string, body []byte, token string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	for k, vs := range c.header {
		if http.CanonicalHeaderKey(k) == "Authorization" {
			continue
		}
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}

	return data, resp.StatusCode, nil
}

// decodeBody проверяет сырое тело: пусто — nil, не-JSON — фатально.
func decodeBody(op string, raw []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidResponseFormat)
	}

	return json.RawMessage(raw), nil
}

// refreshToken — точка входа протокола refresh для запросов, получивших 401.
// singleflight гарантирует не более одного сетевого вызова /auth/refresh:
// первый вошедший выполняет обновление, остальные ждут его результата.
// Новая пара токенов сохраняется в хранилище до того, как хоть один
// ожидающий получит ответ, поэтому повторы всегда видят свежий токен.
func (c *Client) refreshToken(ctx context.Context) (string, error) {
	const op = "transport.refreshToken"

	ch := c.refresh.DoChan(refreshKey, func() (any, error) {
		// Отмена контекста инициатора не должна ронять refresh,
		// результата которого ждут другие запросы.
		return c.doRefresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", fmt.Errorf("%s: %w", op, res.Err)
		}

		token, ok := res.Val.(string)
		if !ok || token == "" {
			return "", fmt.Errorf("%s: %w", op, ErrSessionExpired)
		}

		return token, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshEnvelope struct {
	Payload *struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	} `json:"payload"`
}

// doRefresh — сам сетевой цикл обновления. Выполняется под singleflight.
// Любой провал здесь означает конец сессии.
func (c *Client) doRefresh(ctx context.Context) (string, error) {
	const op = "transport.doRefresh"

	lg := log.From(ctx).With("op", op)

	refresh, err := c.creds.Get(ctx, credstore.KeyRefreshToken)
	if err != nil {
		lg.Warn("refresh_token_missing")
		return "", c.expireSession(ctx, op)
	}

	body, err := json.Marshal(refreshRequest{RefreshToken: refresh})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Дальше любой исход, кроме валидной новой пары токенов, означает
	// конец сессии: ретраев у refresh нет, ожидающие не должны зависнуть
	// в полуразобранном состоянии.
	resp, err := c.http.Do(req)
	if err != nil {
		lg.Warn("refresh_call_failed", slog.String("err", err.Error()))
		return "", c.expireSession(ctx, op)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		lg.Warn("refresh_read_failed", slog.String("err", err.Error()))
		return "", c.expireSession(ctx, op)
	}

	if resp.StatusCode != http.StatusOK {
		lg.Warn("refresh_rejected", slog.Int("status", resp.StatusCode))
		return "", c.expireSession(ctx, op)
	}

	var env refreshEnvelope
	if err := json.Unmarshal(data, &env); err != nil || env.Payload == nil ||
		env.Payload.Token == "" || env.Payload.RefreshToken == "" {
		lg.Warn("refresh_payload_malformed")
		return "", c.expireSession(ctx, op)
	}

	// Порядок существенен: сначала персистим, потом отдаём результат
	// ожидающим — повторы запросов обязаны видеть новый токен.
	if err := c.creds.Set(ctx, credstore.KeyBearerToken, env.Payload.Token, c.accessTTL); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := c.creds.Set(ctx, credstore.KeyRefreshToken, env.Payload.RefreshToken, c.refreshTTL); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	lg.Debug("refresh_ok")

	return env.Payload.Token, nil
}

// expireSession — принудительный выход: чистим учётные данные и отдаём
// ErrSessionExpired. Ошибка очистки сессию не спасает, только логируется.
func (c *Client) expireSession(ctx context.Context, op string) error {
	if err := credstore.Clear(ctx, c.creds); err != nil {
		log.From(ctx).Warn("credentials_clear_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	return fmt.Errorf("%s: %w", op, ErrSessionExpired)
}
