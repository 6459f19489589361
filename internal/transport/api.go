package transport

// Типизированные обёртки над Request: по одной на эндпойнт бэкенда.
// Каждый ответ описан явным конвертом и валидируется на границе
// транспорта — битый payload падает как ErrInvalidResponseFormat,
// а не просачивается дальше пустыми полями.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pomnesh/pomnesh-go/internal/credstore"
	"github.com/pomnesh/pomnesh-go/internal/models"
	"github.com/pomnesh/pomnesh-go/internal/pkg/log"
	"github.com/pomnesh/pomnesh-go/internal/pkg/redact"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginEnvelope struct {
	Payload *struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
		ID           int64  `json:"id"`
	} `json:"payload"`
	Error string `json:"error"`
}

// Login выполняет вход по логину/паролю и сохраняет учётные данные.
//
// Вызов неавторизованный и идёт мимо Request: 401 здесь означает
// неверный пароль (ErrAuthRejected), а не истёкший access-токен.
// Маркер ошибки в теле ответа также маппится в ErrAuthRejected.
// Возвращает идентификатор пользователя.
func (c *Client) Login(ctx context.Context, username, password string) (int64, error) {
	const op = "transport.Login"

	lg := log.From(ctx).With("op", op, "username", username)

	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var env loginEnvelope
	if len(data) > 0 {
		if err := json.Unmarshal(data, &env); err != nil {
			return 0, fmt.Errorf("%s: %w", op, ErrInvalidResponseFormat)
		}
	}

	if env.Error != "" || resp.StatusCode == http.StatusUnauthorized {
		lg.Info("login_rejected", slog.Int("status", resp.StatusCode))
		return 0, fmt.Errorf("%s: %w", op, ErrAuthRejected)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	if env.Payload == nil || env.Payload.Token == "" || env.Payload.RefreshToken == "" {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidResponseFormat)
	}

	if err := c.creds.Set(ctx, credstore.KeyBearerToken, env.Payload.Token, c.accessTTL); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.creds.Set(ctx, credstore.KeyRefreshToken, env.Payload.RefreshToken, c.refreshTTL); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.creds.Set(ctx, credstore.KeyUserID, strconv.FormatInt(env.Payload.ID, 10), c.userIDTTL); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("login_ok", slog.Int64("user_id", env.Payload.ID))

	return env.Payload.ID, nil
}

// Logout удаляет все сохранённые учётные данные.
func (c *Client) Logout(ctx context.Context) error {
	const op = "transport.Logout"

	if err := credstore.Clear(ctx, c.creds); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Authenticated сообщает, есть ли живой access-токен в хранилище
// (восстановление сессии без повторного логина).
func (c *Client) Authenticated(ctx context.Context) bool {
	_, err := c.creds.Get(ctx, credstore.KeyBearerToken)
	return err == nil
}

type meEnvelope struct {
	Payload *models.VKBinding `json:"payload"`
}

// Me возвращает текущую привязку VK-аккаунта.
func (c *Client) Me(ctx context.Context) (*models.VKBinding, error) {
	const op = "transport.Me"

	raw, err := c.Request(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var env meEnvelope
	if raw == nil || json.Unmarshal(raw, &env) != nil || env.Payload == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidResponseFormat)
	}

	return env.Payload, nil
}

type chatsEnvelope struct {
	Payload *struct {
		Items      []models.Chat `json:"items"`
		TotalCount int64         `json:"totalCount"`
	} `json:"payload"`
}

// UserChats возвращает страницу списка диалогов (offset-пагинация).
func (c *Client) UserChats(ctx context.Context, offset, count int) (*models.ChatPage, error) {
	const op = "transport.UserChats"

	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("count", strconv.Itoa(count))

	raw, err := c.Request(ctx, http.MethodGet, "/user/chats?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var env chatsEnvelope
	if raw == nil || json.Unmarshal(raw, &env) != nil || env.Payload == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidResponseFormat)
	}

	return &models.ChatPage{
		Items:      env.Payload.Items,
		TotalCount: env.Payload.TotalCount,
	}, nil
}

// AttachmentsParams — параметры запроса страницы вложений.
type AttachmentsParams struct {
	PeerID          int64
	Count           int
	IncludeForwards bool
	// StartFrom — непрозрачный курсор продолжения; пустая строка — с начала.
	StartFrom string
	// Types — серверный фильтр по типам; пусто — все типы.
	Types []models.AttachmentType
}

type attachmentsEnvelope struct {
	Payload *struct {
		Items    []models.Attachment `json:"items"`
		NextFrom string              `json:"nextFrom"`
	} `json:"payload"`
}

// Attachments возвращает страницу ленты вложений (курсорная пагинация).
func (c *Client) Attachments(ctx context.Context, p AttachmentsParams) (*models.AttachmentPage, error) {
	const op = "transport.Attachments"

	log.From(ctx).Debug("attachments_page",
		slog.String("op", op),
		slog.Int64("peer_id", p.PeerID),
		slog.String("start_from", redact.Cursor(p.StartFrom)),
	)

	types := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		types = append(types, string(t))
	}

	q := url.Values{}
	q.Set("peerId", strconv.FormatInt(p.PeerID, 10))
	q.Set("count", strconv.Itoa(p.Count))
	q.Set("includeForwards", strconv.FormatBool(p.IncludeForwards))
	q.Set("startFrom", p.StartFrom)
	q.Set("types", strings.Join(types, ","))

	raw, err := c.Request(ctx, http.MethodGet, "/vk/getAttachments?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var env attachmentsEnvelope
	if raw == nil || json.Unmarshal(raw, &env) != nil || env.Payload == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidResponseFormat)
	}

	return &models.AttachmentPage{
		Items:    env.Payload.Items,
		NextFrom: env.Payload.NextFrom,
	}, nil
}

type updateUserRequest struct {
	ID      int64  `json:"id"`
	VKID    int64  `json:"vkId"`
	VKToken string `json:"vkToken"`
}

// UpdateUser обновляет привязку VK-аккаунта текущего пользователя.
// Требует сохранённый идентификатор пользователя: его отсутствие —
// нарушение предусловия (ErrMissingSession). Бэкенд может вернуть
// пустое тело — тогда результат nil, nil.
func (c *Client) UpdateUser(ctx context.Context, vkID int64, vkToken string) (*models.User, error) {
	const op = "transport.UpdateUser"

	idStr, err := c.creds.Get(ctx, credstore.KeyUserID)
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrMissingSession)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingSession)
	}

	raw, err := c.Request(ctx, http.MethodPut, "/user/", updateUserRequest{
		ID:      id,
		VKID:    vkID,
		VKToken: vkToken,
	})
	if err != nil {
		return nil, err
	}

	if raw == nil {
		return nil, nil
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidResponseFormat)
	}

	return &user, nil
}
