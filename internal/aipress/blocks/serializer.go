package blocks

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Serialize превращает список узлов обратно в блочную разметку.
// Блоки верхнего уровня разделяются пустой строкой. Побайтовое совпадение
// с исходным текстом не гарантируется, но повторный разбор результата
// дает ту же последовательность блоков: имена, атрибуты и содержимое
// совпадают на всех уровнях.
func Serialize(nodes []BlockNode) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, serializeNode(n))
	}
	return strings.Join(parts, "\n\n")
}

func serializeNode(n BlockNode) string {
	if n.IsFiller() {
		return n.InnerContent
	}

	var sb strings.Builder
	sb.WriteString("<!-- ")
	sb.WriteString(n.Name)
	if len(n.Attrs) > 0 {
		sb.WriteString(" ")
		sb.Write(marshalAttrs(n.Attrs))
	}

	inner := n.InnerContent
	if inner == "" && (n.InnerHTML != "" || len(n.Children) > 0) {
		// Узел собран программно, а не разбором: восстанавливаем
		// содержимое из HTML и детей.
		var ib strings.Builder
		ib.WriteString(n.InnerHTML)
		for _, child := range n.Children {
			ib.WriteString(serializeNode(child))
		}
		inner = ib.String()
	}

	if inner == "" {
		sb.WriteString(" /-->")
		return sb.String()
	}

	sb.WriteString(" -->")
	sb.WriteString(inner)
	sb.WriteString("<!-- /")
	sb.WriteString(n.Name)
	sb.WriteString(" -->")
	return sb.String()
}

// marshalAttrs кодирует атрибуты блока в JSON. Символы <, > и & экранируются,
// чтобы значения атрибутов не могли породить ложный конец разделителя.
func marshalAttrs(attrs map[string]interface{}) []byte {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(attrs); err != nil {
		return []byte("{}")
	}
	return bytes.TrimSpace(buf.Bytes())
}
