// feed — обобщённый контроллер инкрементальной подгрузки: машина
// состояний между триггером прокрутки и транспортом.
//
// Основные аспекты:
//   - на одну ленту — не более одного запроса в полёте: повторный триггер
//     при loading=true молча отбрасывается (не ставится в очередь — в
//     отличие от протокола refresh, где ожидающие обязаны дождаться);
//   - страницы сливаются строго append-only в порядке сервера; клиент не
//     пересортировывает и не дедуплицирует;
//   - смена фильтра/выборки сбрасывает состояние и повышает поколение:
//     ответ запроса, выданного при старом поколении, по прибытии
//     отбрасывается, а не вливается в чужое состояние;
//   - ленты независимы: два контроллера могут грузиться одновременно.
package feed

import (
	"context"
	"sync"
)

// PageRequest — параметры очередной страницы.
type PageRequest struct {
	// Offset — число уже загруженных элементов (offset-пагинация).
	Offset int
	// Cursor — непрозрачный курсор продолжения; пустая строка — с начала.
	Cursor string
}

// Page — результат загрузки одной страницы.
type Page[T any] struct {
	Items []T
	// Total — известное серверу общее число элементов; -1, если сервер
	// счётчик не сообщил.
	Total int64
	// Next — курсор продолжения; пустая строка означает, что сервер
	// курсор не вернул.
	Next string
}

// PageFunc загружает одну страницу через транспорт.
type PageFunc[T any] func(ctx context.Context, req PageRequest) (Page[T], error)

// Controller — состояние одной ленты. Безопасен для конкурентного
// использования; все операции неблокирующие, кроме самого сетевого вызова.
type Controller[T any] struct {
	mu     sync.Mutex
	fetch  PageFunc[T]
	opaque bool // true — курсорная пагинация, false — offset

	items   []T
	total   int64 // -1 — неизвестно
	cursor  string
	loading bool
	hasMore bool
	gen     uint64
	err     error // последняя ошибка загрузки для слоя отображения
}

// NewOffset создаёт контроллер offset-пагинации: следующая страница
// запрашивается со смещением len(items).
func NewOffset[T any](fetch PageFunc[T]) *Controller[T] {
	return &Controller[T]{fetch: fetch, total: -1, hasMore: true}
}

// NewCursor создаёт контроллер курсорной пагинации: следующая страница
// запрашивается с курсора, который вернул сервер; отсутствие курсора в
// ответе означает исчерпание ленты.
func NewCursor[T any](fetch PageFunc[T]) *Controller[T] {
	return &Controller[T]{fetch: fetch, opaque: true, total: -1, hasMore: true}
}

// LoadNext загружает следующую страницу.
//
// No-op (false, nil), если загрузка уже идёт или страниц больше нет.
// Ошибка загрузки возвращается вызывающему и запоминается в Err();
// автоматических ретраев нет. Флаг загрузки снимается безусловно —
// и при успехе, и при ошибке, и при устаревшем ответе.
func (c *Controller[T]) LoadNext(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.loading || !c.more() {
		c.mu.Unlock()
		return false, nil
	}

	c.loading = true
	gen := c.gen
	req := PageRequest{Offset: len(c.items), Cursor: c.cursor}
	first := req.Offset == 0 && req.Cursor == ""
	c.mu.Unlock()

	page, err := c.fetch(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.loading = false

	if gen != c.gen {
		// Фильтр сменился, пока запрос был в полёте: ответ устарел.
		// Ни элементы, ни ошибка в новое состояние не попадают.
		return false, nil
	}

	if err != nil {
		if first {
			c.items = nil
		}
		c.hasMore = false
		c.err = err
		return false, err
	}

	c.err = nil

	if len(page.Items) == 0 {
		c.hasMore = false
		return true, nil
	}

	c.items = append(c.items, page.Items...)

	if page.Total >= 0 {
		c.total = page.Total
	}

	if c.opaque {
		if page.Next != "" {
			c.cursor = page.Next
		} else {
			c.hasMore = false
		}
	}

	return true, nil
}

// Reset сбрасывает ленту под новую выборку: элементы и курсор очищаются,
// hasMore возвращается в true, поколение повышается. Текущая загрузка не
// прерывается — её ответ будет отброшен по несовпадению поколения.
func (c *Controller[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.cursor = ""
	c.total = -1
	c.hasMore = true
	c.err = nil
	c.gen++
}

// more — условие продолжения. Известный total главнее hasMore:
// даже если устаревший ответ оставил hasMore=true, при
// len(items) >= total лента считается исчерпанной.
func (c *Controller[T]) more() bool {
	if !c.hasMore {
		return false
	}

	if c.total >= 0 && int64(len(c.items)) >= c.total {
		return false
	}

	return true
}

// Items возвращает снимок загруженных элементов в порядке сервера.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len — число загруженных элементов.
func (c *Controller[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Total — известное общее число элементов; -1, если сервер не сообщал.
func (c *Controller[T]) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// HasMore сообщает, имеет ли смысл очередной LoadNext.
func (c *Controller[T]) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.more()
}

// Loading — идёт ли загрузка страницы прямо сейчас.
func (c *Controller[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err — последняя ошибка загрузки (nil после успешной страницы или Reset).
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
