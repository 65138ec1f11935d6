// Определяет политики безопасности для обработки HTML-содержимого постов. Политики применяются к HTML-фрагментам блоков и обеспечивают контроль над разрешенными тегами, атрибутами и стилями, чтобы предотвратить XSS и другие уязвимости.
//
// Основные возможности:
//   - Разрешение/запрет определенных атрибутов для конкретных элементов.
//   - Ограничение допустимых значений атрибутов с помощью регулярных выражений.
//   - Полная очистка HTML до простого текста (StripTagsPolicy) для выдержек и поиска.
//   - Построение текстовой выдержки из HTML-фрагмента.
package policy

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/microcosm-cc/bluemonday"
)

var StripTagsPolicy *bluemonday.Policy = bluemonday.StrictPolicy()
var UgcPolicy *bluemonday.Policy = bluemonday.UGCPolicy()

func init() {
	colorRegexp := regexp.MustCompile(`^(#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})|rgb\((\d+),\s*(\d+),\s*(\d+)\)|inherit)$`)
	sizeRegexp := regexp.MustCompile(`^(\d+(px|em|rem|pt|vh|vw)?|auto|inherit|initial|unset)$`)
	alignRegexp := regexp.MustCompile(`^(right|left|center)$`)

	UgcPolicy.AllowAttrs("class").Globally()
	UgcPolicy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")

	UgcPolicy.AllowStyles("color", "background-color").Matching(colorRegexp).Globally()
	UgcPolicy.AllowStyles("width", "height", "font-size").Matching(sizeRegexp).Globally()
	UgcPolicy.AllowStyles("text-align").Matching(bluemonday.CellAlign).Globally()

	UgcPolicy.AllowStyles("float").Matching(alignRegexp).OnElements("img", "figure")
	UgcPolicy.AllowAttrs("start").Matching(regexp.MustCompile(`^\d+$`)).OnElements("ol")
	UgcPolicy.AllowAttrs("colspan", "rowspan").Matching(regexp.MustCompile(`^\d+$`)).OnElements("td", "th")
}

// Excerpt строит текстовую выдержку из HTML-фрагмента: разбирает HTML, собирает текстовые узлы и обрезает результат до limit рун по границе слова.
func Excerpt(htmlContent string, limit int) string {
	if htmlContent == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return truncateWords(StripTagsPolicy.Sanitize(htmlContent), limit)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		// Блочные элементы отделяются пробелом, чтобы текст не склеивался
		if node.Type == html.ElementNode {
			switch node.Data {
			case "p", "div", "li", "br", "h1", "h2", "h3", "h4", "h5", "h6", "tr":
				sb.WriteString(" ")
			}
		}
	}
	walk(doc)

	return truncateWords(strings.Join(strings.Fields(sb.String()), " "), limit)
}

func truncateWords(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	cut := limit
	for cut > 0 && runes[cut-1] != ' ' {
		cut--
	}
	if cut == 0 {
		cut = limit
	}
	return strings.TrimSpace(string(runes[:cut])) + "…"
}
