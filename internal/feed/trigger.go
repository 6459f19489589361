package feed

// Триггерный контракт прокрутки: слой отображения зовёт LoadNext, когда
// позиция пересекает порог. Пороги — настройка плотности, а не правило:
// простому списку хватает отступа в пикселях от низа, плотной сетке
// вложений — доли высоты прокрутки.

// DefaultBottomPad — отступ от низа списка диалогов, px.
const DefaultBottomPad = 50.0

// DefaultScrollRatio — доля высоты прокрутки для сетки вложений.
const DefaultScrollRatio = 0.7

// NearBottom — пора ли подгружать список: до низа осталось не больше pad.
func NearBottom(scrollTop, viewport, contentHeight, pad float64) bool {
	return scrollTop+viewport >= contentHeight-pad
}

// PastRatio — пора ли подгружать сетку: прокручено не меньше доли ratio.
func PastRatio(scrollTop, viewport, contentHeight, ratio float64) bool {
	if contentHeight <= 0 {
		return true
	}

	return (scrollTop+viewport)/contentHeight >= ratio
}
