package feed

import (
	"context"
	"sync"

	"github.com/pomnesh/pomnesh-go/internal/models"
	"github.com/pomnesh/pomnesh-go/internal/transport"
)

// DefaultAttachmentPageSize — размер страницы ленты вложений по умолчанию.
// Сетка вложений плотнее списка диалогов, поэтому страница крупнее.
const DefaultAttachmentPageSize = 24

// AttachmentFilter — выборка ленты вложений. Смена любого поля — это
// новая лента с точки зрения состояния (см. SetFilter).
type AttachmentFilter struct {
	PeerID          int64
	Types           []models.AttachmentType
	IncludeForwards bool
}

// AttachmentSource — часть транспорта, нужная ленте вложений.
type AttachmentSource interface {
	Attachments(ctx context.Context, p transport.AttachmentsParams) (*models.AttachmentPage, error)
}

// Attachments — лента вложений одного выбранного диалога: курсорная
// пагинация с серверным фильтром по типам и пересланным сообщениям.
type Attachments struct {
	*Controller[models.Attachment]

	mu     sync.Mutex
	filter AttachmentFilter
}

// NewAttachments создаёт ленту вложений под начальную выборку.
func NewAttachments(src AttachmentSource, pageSize int, filter AttachmentFilter) *Attachments {
	if pageSize <= 0 {
		pageSize = DefaultAttachmentPageSize
	}

	a := &Attachments{filter: filter}

	a.Controller = NewCursor(func(ctx context.Context, req PageRequest) (Page[models.Attachment], error) {
		// Снимок фильтра берётся в момент выдачи запроса; если к приходу
		// ответа фильтр сменился, ответ отбросит контроллер по поколению.
		a.mu.Lock()
		f := a.filter
		a.mu.Unlock()

		p, err := src.Attachments(ctx, transport.AttachmentsParams{
			PeerID:          f.PeerID,
			Count:           pageSize,
			IncludeForwards: f.IncludeForwards,
			StartFrom:       req.Cursor,
			Types:           f.Types,
		})
		if err != nil {
			return Page[models.Attachment]{}, err
		}

		return Page[models.Attachment]{Items: p.Items, Total: -1, Next: p.NextFrom}, nil
	})

	return a
}

// Filter возвращает текущую выборку.
func (a *Attachments) Filter() AttachmentFilter {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.filter
}

// SetFilter переключает ленту на новую выборку: состояние сбрасывается
// до запроса первой страницы под новым фильтром. Запрос старой выборки,
// если он в полёте, не прерывается — его ответ будет отброшен.
func (a *Attachments) SetFilter(f AttachmentFilter) {
	a.mu.Lock()
	a.filter = f
	a.mu.Unlock()

	a.Reset()
}

var _ AttachmentSource = (*transport.Client)(nil)
