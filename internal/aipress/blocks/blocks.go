// Пакет blocks реализует блочную модель документа: разбор блочной разметки
// в дерево узлов, фильтрацию текстовых прокладок, подготовку дерева к выдаче
// наружу и обратную сериализацию дерева в разметку.
//
// Основные возможности:
//   - Разбор разметки с блочными разделителями в дерево BlockNode (Parse).
//   - Фильтрация прокладок между блоками (FilterFiller).
//   - Очистка дерева для выдачи агенту (CleanBlock, ReadBlocks).
//   - Сериализация дерева обратно в разметку (Serialize).
//   - Редактирование документа на уровне верхних блоков (Apply).
package blocks

// BlockNode - узел дерева блоков. Узел без имени является прокладкой:
// текстом между блоками, который не принадлежит ни одному блоку.
type BlockNode struct {
	// Имя блока вида "name" или "namespace/name". Пустое у прокладок.
	Name string

	// Атрибуты из JSON-объекта разделителя. nil, если атрибуты не заданы.
	Attrs map[string]interface{}

	// Исходный текст между открывающим и закрывающим разделителями,
	// включая разметку вложенных блоков. Сохраняется как есть,
	// чтобы сериализация восстанавливала содержимое блока дословно.
	InnerContent string

	// HTML-содержимое блока без разметки вложенных блоков.
	InnerHTML string

	// Вложенные блоки в порядке появления.
	Children []BlockNode
}

// IsFiller возвращает true, если узел является прокладкой между блоками.
func (n BlockNode) IsFiller() bool {
	return n.Name == ""
}

// CleanedBlock - блок, подготовленный к выдаче агенту: без прокладок,
// со сквозными индексами на каждом уровне и атрибутами, всегда
// представленными объектом.
type CleanedBlock struct {
	Index       int                    `json:"index"`
	BlockName   string                 `json:"blockName"`
	Attrs       map[string]interface{} `json:"attrs"`
	InnerHTML   string                 `json:"innerHTML"`
	InnerBlocks []CleanedBlock         `json:"innerBlocks"`
}

// FilterFiller удаляет прокладки из списка узлов. Фильтруется только
// переданный уровень, вложенные блоки не затрагиваются.
func FilterFiller(nodes []BlockNode) []BlockNode {
	res := make([]BlockNode, 0, len(nodes))
	for _, n := range nodes {
		if n.IsFiller() {
			continue
		}
		res = append(res, n)
	}
	return res
}

// CleanBlock преобразует узел в форму для выдачи. Атрибуты без значения
// заменяются пустым объектом, вложенные прокладки отбрасываются,
// индексы детей идут подряд от нуля.
func CleanBlock(node BlockNode, index int) CleanedBlock {
	attrs := node.Attrs
	if attrs == nil {
		attrs = map[string]interface{}{}
	}

	children := FilterFiller(node.Children)
	inner := make([]CleanedBlock, 0, len(children))
	for i, child := range children {
		inner = append(inner, CleanBlock(child, i))
	}

	return CleanedBlock{
		Index:       index,
		BlockName:   node.Name,
		Attrs:       attrs,
		InnerHTML:   node.InnerHTML,
		InnerBlocks: inner,
	}
}

// ReadBlocks разбирает разметку и возвращает очищенный список верхних блоков.
// Результат всегда не nil: пустая или безблочная разметка дает пустой список.
func ReadBlocks(text string) []CleanedBlock {
	nodes := FilterFiller(Parse(text))
	res := make([]CleanedBlock, 0, len(nodes))
	for i, n := range nodes {
		res = append(res, CleanBlock(n, i))
	}
	return res
}
