package transport

// Тесты типизированных обёрток (internal/transport/api.go).
//
// Проверяем:
//   - логин: сохранение трёх полей сессии, маркер ошибки, 401;
//   - параметры запросов чатов и вложений (query);
//   - валидацию конвертов (битый payload -> ErrInvalidResponseFormat);
//   - UpdateUser: предусловие сохранённого user id, пустой ответ;
//   - логаут и восстановление сессии.

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/pomnesh/pomnesh-go/internal/credstore"
	"github.com/pomnesh/pomnesh-go/internal/models"
)

// Сценарий: успешный логин сохраняет bearer_token=T1, refresh_token=R1,
// pomnesh_user_id=7.
func TestLogin_PersistsCredentials(t *testing.T) {
	t.Parallel()

	var gotBody loginRequest
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&gotBody))
		writeJSON(w, http.StatusOK, map[string]any{
			"payload": map[string]any{"token": "T1", "refreshToken": "R1", "id": 7},
		})
	})

	c, creds := newTestClient(t, r)

	userID, err := c.Login(context.Background(), "a", "b")
	require.NoError(t, err)
	require.Equal(t, int64(7), userID)
	require.Equal(t, loginRequest{Username: "a", Password: "b"}, gotBody)

	ctx := context.Background()
	access, err := creds.Get(ctx, credstore.KeyBearerToken)
	require.NoError(t, err)
	require.Equal(t, "T1", access)

	refresh, err := creds.Get(ctx, credstore.KeyRefreshToken)
	require.NoError(t, err)
	require.Equal(t, "R1", refresh)

	id, err := creds.Get(ctx, credstore.KeyUserID)
	require.NoError(t, err)
	require.Equal(t, "7", id)

	require.True(t, c.Authenticated(ctx))
}

// Маркер ошибки в теле — неправильный пароль, ничего не сохраняем.
func TestLogin_ErrorMarker(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"error": "wrong credentials"})
	})

	c, creds := newTestClient(t, r)

	_, err := c.Login(context.Background(), "a", "bad")
	require.ErrorIs(t, err, ErrAuthRejected)

	_, err = creds.Get(context.Background(), credstore.KeyBearerToken)
	require.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestLogin_Unauthorized(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, _ := newTestClient(t, r)

	_, err := c.Login(context.Background(), "a", "bad")
	require.ErrorIs(t, err, ErrAuthRejected)
}

// Успешный HTTP-статус без обязательных полей в payload — битый ответ.
func TestLogin_MalformedPayload(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"payload": map[string]any{"token": "T1"},
		})
	})

	c, _ := newTestClient(t, r)

	_, err := c.Login(context.Background(), "a", "b")
	require.ErrorIs(t, err, ErrInvalidResponseFormat)
}

func TestMe_OK(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/auth/me", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"payload": map[string]any{"vkToken": "VKT", "vkId": 42},
		})
	})

	c, creds := newTestClient(t, r)
	seedSession(t, creds, "T1", "R1", "7")

	binding, err := c.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, &models.VKBinding{VKToken: "VKT", VKID: 42}, binding)
}

func TestUserChats_Query(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/user/chats", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		require.Equal(t, "20", q.Get("offset"))
		require.Equal(t, "10", q.Get("count"))
		writeJSON(w, http.StatusOK, map[string]any{
			"payload": map[string]any{
				"items":      []map[string]any{{"id": 1, "title": "Ivan Petrov"}},
				"totalCount": 45,
			},
		})
	})

	c, creds := newTestClient(t, r)
	seedSession(t, creds, "T1", "R1", "7")

	page, err := c.UserChats(context.Background(), 20, 10)
	require.NoError(t, err)
	require.Equal(t, int64(45), page.TotalCount)
	require.Len(t, page.Items, 1)
	require.Equal(t, int64(1), page.Items[0].ID)
}

func TestAttachments_Query(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/vk/getAttachments", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		require.Equal(t, "100", q.Get("peerId"))
		require.Equal(t, "12", q.Get("count"))
		require.Equal(t, "true", q.Get("includeForwards"))
		require.Equal(t, "abc", q.Get("startFrom"))
		require.Equal(t, "photo,video", q.Get("types"))
		writeJSON(w, http.StatusOK, map[string]any{
			"payload": map[string]any{
				"items":    []map[string]any{{"id": "a1", "type": "photo"}},
				"nextFrom": "def",
			},
		})
	})

	c, creds := newTestClient(t, r)
	seedSession(t, creds, "T1", "R1", "7")

	page, err := c.Attachments(context.Background(), AttachmentsParams{
		PeerID:          100,
		Count:           12,
		IncludeForwards: true,
		StartFrom:       "abc",
		Types:           []models.AttachmentType{models.AttachmentPhoto, models.AttachmentVideo},
	})
	require.NoError(t, err)
	require.Equal(t, "def", page.NextFrom)
	require.Len(t, page.Items, 1)
	require.Equal(t, models.AttachmentPhoto, page.Items[0].Type)
}

// Сервер не вернул nextFrom — курсора продолжения нет.
func TestAttachments_NoCursor(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Get("/vk/getAttachments", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"payload": map[string]any{"items": []map[string]any{{"id": "a1", "type": "doc"}}},
		})
	})

	c, creds := newTestClient(t, r)
	seedSession(t, creds, "T1", "R1", "7")

	page, err := c.Attachments(context.Background(), AttachmentsParams{PeerID: 1, Count: 10})
	require.NoError(t, err)
	require.Empty(t, page.NextFrom)
}

func TestUpdateUser_MissingSession(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, chi.NewRouter())

	_, err := c.UpdateUser(context.Background(), 42, "VKT")
	require.ErrorIs(t, err, ErrMissingSession)
}

func TestUpdateUser_SendsStoredID(t *testing.T) {
	t.Parallel()

	var gotBody updateUserRequest
	r := chi.NewRouter()
	r.Put("/user/", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&gotBody))
		writeJSON(w, http.StatusOK, map[string]any{"id": 7, "vkId": 42, "vkToken": "VKT"})
	})

	c, creds := newTestClient(t, r)
	seedSession(t, creds, "T1", "R1", "7")

	user, err := c.UpdateUser(context.Background(), 42, "VKT")
	require.NoError(t, err)
	require.Equal(t, updateUserRequest{ID: 7, VKID: 42, VKToken: "VKT"}, gotBody)
	require.Equal(t, &models.User{ID: 7, VKID: 42, VKToken: "VKT"}, user)
}

// Бэкенд вправе подтвердить обновление пустым телом.
func TestUpdateUser_EmptyResponse(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Put("/user/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c, creds := newTestClient(t, r)
	seedSession(t, creds, "T1", "R1", "7")

	user, err := c.UpdateUser(context.Background(), 42, "VKT")
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestLogout_ClearsEverything(t *testing.T) {
	t.Parallel()

	c, creds := newTestClient(t, chi.NewRouter())
	seedSession(t, creds, "T1", "R1", "7")

	ctx := context.Background()
	require.True(t, c.Authenticated(ctx))
	require.NoError(t, c.Logout(ctx))
	require.False(t, c.Authenticated(ctx))

	for _, key := range []string{credstore.KeyBearerToken, credstore.KeyRefreshToken, credstore.KeyUserID} {
		_, err := creds.Get(ctx, key)
		require.ErrorIs(t, err, credstore.ErrNotFound, key)
	}
}
