package blocks

import (
	"encoding/json"
	"strings"
)

// Предельная глубина вложенности блоков. Разделители глубже предела
// не интерпретируются и остаются обычным текстом.
const maxNestingDepth = 64

type tokenKind int

const (
	tokenOpener tokenKind = iota // <!-- name attrs -->
	tokenCloser                  // <!-- /name -->
	tokenVoid                    // <!-- name attrs /-->
)

// token - распознанный блочный разделитель в исходном тексте.
type token struct {
	kind  tokenKind
	name  string
	attrs map[string]interface{}
	start int // смещение начала "<!--"
	end   int // смещение сразу за "-->"
}

// frame - открытый блок на стеке разбора.
type frame struct {
	node       BlockNode
	rawStart   int // смещение открывающего разделителя
	innerStart int // смещение сразу за открывающим разделителем
	htmlParts  []string
	children   []BlockNode
}

// Parse разбирает блочную разметку в список узлов верхнего уровня.
// Разбор тотален: любой вход дает результат, ошибок не бывает.
// Некорректные разделители (без имени, с битым JSON, незакрытые,
// с несовпадающим закрывающим именем) остаются обычным текстом
// и попадают в прокладки либо в содержимое объемлющего блока.
func Parse(text string) []BlockNode {
	var out []BlockNode
	var stack []*frame

	// Имена подавленных открывающих разделителей глубже предела вложенности.
	// Их парные закрывающие разделители тоже остаются текстом.
	var deep []string

	pos := 0
	cursor := 0
	for {
		tok, ok := nextToken(text, pos)
		if !ok {
			break
		}
		pos = tok.end
		lead := text[cursor:tok.start]

		switch tok.kind {
		case tokenVoid:
			if len(stack) >= maxNestingDepth {
				continue
			}
			flushLiteral(lead, stack, &out)
			cursor = tok.end
			appendNode(BlockNode{Name: tok.name, Attrs: tok.attrs}, stack, &out)

		case tokenOpener:
			if len(stack) >= maxNestingDepth {
				deep = append(deep, tok.name)
				continue
			}
			flushLiteral(lead, stack, &out)
			cursor = tok.end
			stack = append(stack, &frame{
				node:       BlockNode{Name: tok.name, Attrs: tok.attrs},
				rawStart:   tok.start,
				innerStart: tok.end,
			})

		case tokenCloser:
			if len(deep) > 0 {
				if deep[len(deep)-1] == tok.name {
					deep = deep[:len(deep)-1]
				}
				continue
			}
			if len(stack) == 0 || stack[len(stack)-1].node.Name != tok.name {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if lead != "" {
				top.htmlParts = append(top.htmlParts, lead)
			}
			cursor = tok.end

			node := top.node
			node.InnerContent = text[top.innerStart:tok.start]
			node.InnerHTML = strings.Join(top.htmlParts, "")
			node.Children = top.children
			appendNode(node, stack, &out)
		}
	}

	// Незакрытые блоки деградируют: их текст от открывающего разделителя
	// до конца входа становится прокладкой верхнего уровня.
	if len(stack) > 0 {
		tail := text[stack[0].rawStart:]
		if tail != "" {
			out = append(out, BlockNode{InnerContent: tail, InnerHTML: tail})
		}
	} else if cursor < len(text) {
		tail := text[cursor:]
		out = append(out, BlockNode{InnerContent: tail, InnerHTML: tail})
	}

	return out
}

func flushLiteral(lead string, stack []*frame, out *[]BlockNode) {
	if lead == "" {
		return
	}
	if len(stack) == 0 {
		*out = append(*out, BlockNode{InnerContent: lead, InnerHTML: lead})
		return
	}
	top := stack[len(stack)-1]
	top.htmlParts = append(top.htmlParts, lead)
}

func appendNode(node BlockNode, stack []*frame, out *[]BlockNode) {
	if len(stack) == 0 {
		*out = append(*out, node)
		return
	}
	top := stack[len(stack)-1]
	top.children = append(top.children, node)
}

// nextToken ищет ближайший корректный блочный разделитель начиная с from.
// Последовательности "<!--", не образующие разделитель, пропускаются.
func nextToken(text string, from int) (token, bool) {
	for from < len(text) {
		rel := strings.Index(text[from:], "<!--")
		if rel < 0 {
			return token{}, false
		}
		start := from + rel
		if tok, ok := parseDelimiter(text, start); ok {
			return tok, true
		}
		from = start + 4
	}
	return token{}, false
}

// parseDelimiter пытается разобрать разделитель по смещению start,
// указывающему на "<!--".
func parseDelimiter(text string, start int) (token, bool) {
	pos := skipSpace(text, start+4)
	if pos == start+4 {
		return token{}, false
	}

	closer := false
	if pos < len(text) && text[pos] == '/' {
		closer = true
		pos++
	}

	nameEnd := scanName(text, pos)
	if nameEnd == pos {
		return token{}, false
	}
	name := text[pos:nameEnd]

	pos = skipSpace(text, nameEnd)
	if pos == nameEnd {
		return token{}, false
	}

	var attrs map[string]interface{}
	if pos < len(text) && text[pos] == '{' {
		if closer {
			return token{}, false
		}
		jsonEnd := scanJSONObject(text, pos)
		if jsonEnd < 0 {
			return token{}, false
		}
		if err := json.Unmarshal([]byte(text[pos:jsonEnd]), &attrs); err != nil {
			return token{}, false
		}
		afterAttrs := skipSpace(text, jsonEnd)
		if afterAttrs == jsonEnd {
			return token{}, false
		}
		pos = afterAttrs
	}

	void := false
	if pos < len(text) && text[pos] == '/' {
		if closer {
			return token{}, false
		}
		void = true
		pos++
	}

	if !strings.HasPrefix(text[pos:], "-->") {
		return token{}, false
	}

	tok := token{name: name, attrs: attrs, start: start, end: pos + 3}
	switch {
	case closer:
		tok.kind = tokenCloser
	case void:
		tok.kind = tokenVoid
	default:
		tok.kind = tokenOpener
	}
	return tok, true
}

func skipSpace(text string, pos int) int {
	for pos < len(text) {
		switch text[pos] {
		case ' ', '\t', '\n', '\r', '\f':
			pos++
		default:
			return pos
		}
	}
	return pos
}

// scanName считывает имя блока вида "name" или "namespace/name":
// первый символ сегмента [a-z], далее [a-z0-9_-].
func scanName(text string, pos int) int {
	end := scanNameSegment(text, pos)
	if end == pos {
		return pos
	}
	if end < len(text) && text[end] == '/' {
		second := scanNameSegment(text, end+1)
		if second > end+1 {
			return second
		}
	}
	return end
}

func scanNameSegment(text string, pos int) int {
	if pos >= len(text) || text[pos] < 'a' || text[pos] > 'z' {
		return pos
	}
	end := pos + 1
	for end < len(text) {
		c := text[end]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '-' {
			end++
			continue
		}
		break
	}
	return end
}

// scanJSONObject находит конец сбалансированного JSON-объекта, начинающегося
// по смещению pos. Скобки внутри строковых литералов не учитываются.
// Возвращает смещение сразу за закрывающей скобкой либо -1.
func scanJSONObject(text string, pos int) int {
	depth := 0
	inString := false
	escaped := false
	for i := pos; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}
