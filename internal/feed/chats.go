package feed

import (
	"context"

	"github.com/pomnesh/pomnesh-go/internal/models"
	"github.com/pomnesh/pomnesh-go/internal/transport"
)

// DefaultChatPageSize — размер страницы списка диалогов по умолчанию.
const DefaultChatPageSize = 20

// ChatSource — часть транспорта, нужная ленте диалогов.
type ChatSource interface {
	UserChats(ctx context.Context, offset, count int) (*models.ChatPage, error)
}

// NewChats создаёт ленту списка диалогов: offset-пагинация, сервер
// сообщает totalCount.
func NewChats(src ChatSource, pageSize int) *Controller[models.Chat] {
	if pageSize <= 0 {
		pageSize = DefaultChatPageSize
	}

	return NewOffset(func(ctx context.Context, req PageRequest) (Page[models.Chat], error) {
		p, err := src.UserChats(ctx, req.Offset, pageSize)
		if err != nil {
			return Page[models.Chat]{}, err
		}

		return Page[models.Chat]{Items: p.Items, Total: p.TotalCount}, nil
	})
}

// Убеждаемся, что транспорт покрывает контракт источника.
var _ ChatSource = (*transport.Client)(nil)
