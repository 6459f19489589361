// Package models содержит доменные сущности клиента pomnesh.
package models

// AttachmentType — тип вложения в терминах VK API.
type AttachmentType string

const (
	AttachmentPhoto AttachmentType = "photo"
	AttachmentVideo AttachmentType = "video"
	AttachmentDoc   AttachmentType = "doc"
	AttachmentAudio AttachmentType = "audio"
	AttachmentLink  AttachmentType = "link"
)

// Chat — диалог пользователя из списка переписок.
// Важно:
//   - ID — peer_id переписки в терминах VK; используется как параметр
//     при запросе вложений (peerId);
//   - LastMessage — превью последнего сообщения для списка диалогов.
type Chat struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	LastMessage string `json:"lastMessage,omitempty"`
}

// Attachment — вложение из переписки, полученное с бэкенда.
// Поля отдаются «как есть» для слоя отображения: клиент не нормализует
// и не дедуплицирует вложения (порядок сервера сохраняется).
type Attachment struct {
	ID        string         `json:"id"`
	Type      AttachmentType `json:"type"`
	URL       string         `json:"url"`
	OwnerID   int64          `json:"ownerId"`
	Date      int64          `json:"date"`
	Forwarded bool           `json:"forwarded,omitempty"`
}

// VKBinding — привязка VK-аккаунта к профилю pomnesh (ответ /auth/me).
type VKBinding struct {
	VKToken string `json:"vkToken"`
	VKID    int64  `json:"vkId"`
}

// User — профиль pomnesh-пользователя (ответ PUT /user/).
type User struct {
	ID      int64  `json:"id"`
	VKID    int64  `json:"vkId"`
	VKToken string `json:"vkToken"`
}

// TokenPair — пара access+refresh токенов, выданных бэкендом.
// Access-токен короткоживущий, refresh — долгоживущий и используется
// исключительно для выпуска новой пары.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// ChatPage — страница списка диалогов (offset-пагинация).
type ChatPage struct {
	Items      []Chat
	TotalCount int64
}

// AttachmentPage — страница ленты вложений (курсорная пагинация).
// NextFrom — непрозрачный курсор продолжения; пустая строка означает,
// что сервер курсор не вернул и дальнейших страниц нет.
type AttachmentPage struct {
	Items    []Attachment
	NextFrom string
}
