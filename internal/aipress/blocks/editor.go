package blocks

import (
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/apierrors"
)

// Операции над блоками верхнего уровня документа.
const (
	OpReplaceAll = "replace_all"
	OpInsert     = "insert"
	OpRemove     = "remove"
	OpReplace    = "replace"
)

// Operation - одна операция редактирования документа. Поля Content и Index
// обязательны или нет в зависимости от вида операции; отсутствие
// обязательного поля выражается nil-значением.
type Operation struct {
	Kind    string  `json:"operation"`
	Content *string `json:"content,omitempty"`
	Index   *int    `json:"index,omitempty"`
}

// Apply применяет операцию к тексту документа и возвращает новый текст.
// Операции адресуют только блоки верхнего уровня после фильтрации прокладок.
// Каждый вызов - полный цикл разбор-изменение-сериализация, состояние
// между вызовами не переносится.
//
// Семантика операций:
//   - replace_all: текст документа заменяется содержимым content как есть.
//   - insert: блоки из content вставляются по индексу со сдвигом последующих;
//     индекс больше длины прижимается к длине (вставка в конец).
//   - remove: блок по индексу удаляется; индекс за границами - ошибка.
//   - replace: блок по индексу заменяется блоками из content (возможно,
//     несколькими или ни одним); индекс за границами - ошибка.
func Apply(text string, op Operation) (string, error) {
	switch op.Kind {
	case OpReplaceAll:
		if op.Content == nil {
			return "", apierrors.ErrContentRequired
		}
		return *op.Content, nil

	case OpInsert:
		if op.Content == nil {
			return "", apierrors.ErrContentRequired
		}
		if op.Index == nil {
			return "", apierrors.ErrIndexRequired
		}
		nodes := FilterFiller(Parse(text))
		inserted := FilterFiller(Parse(*op.Content))

		idx := *op.Index
		if idx < 0 {
			idx = 0
		}
		if idx > len(nodes) {
			idx = len(nodes)
		}
		return Serialize(splice(nodes, idx, idx, inserted)), nil

	case OpRemove:
		if op.Index == nil {
			return "", apierrors.ErrIndexRequired
		}
		nodes := FilterFiller(Parse(text))

		idx := *op.Index
		if idx < 0 || idx >= len(nodes) {
			return "", apierrors.ErrBlockIndexOutOfRange
		}
		return Serialize(splice(nodes, idx, idx+1, nil)), nil

	case OpReplace:
		if op.Content == nil {
			return "", apierrors.ErrContentRequired
		}
		if op.Index == nil {
			return "", apierrors.ErrIndexRequired
		}
		nodes := FilterFiller(Parse(text))
		replacement := FilterFiller(Parse(*op.Content))

		idx := *op.Index
		if idx < 0 || idx >= len(nodes) {
			return "", apierrors.ErrBlockIndexOutOfRange
		}
		return Serialize(splice(nodes, idx, idx+1, replacement)), nil

	case "":
		return "", apierrors.ErrOperationRequired
	default:
		return "", apierrors.ErrUnknownOperation
	}
}

// splice возвращает новый список: nodes[:from] + insert + nodes[to:].
func splice(nodes []BlockNode, from, to int, insert []BlockNode) []BlockNode {
	res := make([]BlockNode, 0, len(nodes)-(to-from)+len(insert))
	res = append(res, nodes[:from]...)
	res = append(res, insert...)
	res = append(res, nodes[to:]...)
	return res
}
