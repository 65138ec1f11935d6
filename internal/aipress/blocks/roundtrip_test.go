package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// equalTrees сравнивает последовательности блоков по именам, атрибутам,
// HTML-содержимому и структуре детей, игнорируя исходное форматирование.
func equalTrees(t *testing.T, expected, actual []CleanedBlock) {
	t.Helper()
	require.Equal(t, len(expected), len(actual))
	for i := range expected {
		assert.Equal(t, expected[i].BlockName, actual[i].BlockName)
		assert.Equal(t, expected[i].Attrs, actual[i].Attrs)
		assert.Equal(t, expected[i].InnerHTML, actual[i].InnerHTML)
		equalTrees(t, expected[i].InnerBlocks, actual[i].InnerBlocks)
	}
}

func TestRoundTrip(t *testing.T) {
	docs := map[string]string{
		"простой документ": `<!-- core/paragraph {"id":1} -->Hello<!-- /core/paragraph -->`,
		"несколько блоков": "<!-- core/heading {\"level\":2} -->Título<!-- /core/heading -->\n\n<!-- core/paragraph -->Текст параграфа<!-- /core/paragraph -->\n\n<!-- core/separator /-->",
		"вложенность":      `<!-- core/columns {"count":2} --><!-- core/column --><!-- core/paragraph -->Левая<!-- /core/paragraph --><!-- /core/column --><!-- core/column -->Правая<!-- /core/column --><!-- /core/columns -->`,
		"с прокладками":    "мусор до\n<!-- core/paragraph -->A<!-- /core/paragraph -->\nмусор между\n<!-- core/quote --><p>Б</p><!-- core/cite -->В<!-- /core/cite --><!-- /core/quote -->\nмусор после",
		"сложные атрибуты": `<!-- core/gallery {"ids":[3,1,2],"meta":{"caption":"a \"b\" c","nested":{"x":null}},"reverse":true} /-->`,
		"пустой парный":    `<!-- core/group --><!-- /core/group -->`,
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			original := FilterFiller(Parse(doc))
			reparsed := FilterFiller(Parse(Serialize(original)))

			clean := func(nodes []BlockNode) []CleanedBlock {
				res := make([]CleanedBlock, 0, len(nodes))
				for i, n := range nodes {
					res = append(res, CleanBlock(n, i))
				}
				return res
			}
			equalTrees(t, clean(original), clean(reparsed))
		})
	}
}

func TestSerialize(t *testing.T) {
	t.Run("разобранный блок сериализуется с исходным содержимым", func(t *testing.T) {
		doc := `<!-- core/paragraph -->Hello <b>world</b><!-- /core/paragraph -->`
		got := Serialize(FilterFiller(Parse(doc)))
		assert.Equal(t, doc, got)
	})

	t.Run("самозакрывающаяся форма для пустых блоков", func(t *testing.T) {
		got := Serialize([]BlockNode{{Name: "core/separator"}})
		assert.Equal(t, "<!-- core/separator /-->", got)
	})

	t.Run("атрибуты попадают в разделитель", func(t *testing.T) {
		got := Serialize([]BlockNode{{
			Name:  "core/heading",
			Attrs: map[string]interface{}{"level": float64(3)},
		}})
		assert.Equal(t, `<!-- core/heading {"level":3} /-->`, got)

		res := ReadBlocks(got)
		require.Len(t, res, 1)
		assert.Equal(t, map[string]interface{}{"level": float64(3)}, res[0].Attrs)
	})

	t.Run("блоки верхнего уровня разделяются пустой строкой", func(t *testing.T) {
		got := Serialize([]BlockNode{
			{Name: "core/paragraph", InnerContent: "A", InnerHTML: "A"},
			{Name: "core/paragraph", InnerContent: "B", InnerHTML: "B"},
		})
		assert.Equal(t, "<!-- core/paragraph -->A<!-- /core/paragraph -->\n\n<!-- core/paragraph -->B<!-- /core/paragraph -->", got)
	})

	t.Run("программно собранный узел восстанавливается из детей", func(t *testing.T) {
		node := BlockNode{
			Name:      "core/quote",
			InnerHTML: "<p>цитата</p>",
			Children: []BlockNode{
				{Name: "core/cite", InnerContent: "автор", InnerHTML: "автор"},
			},
		}

		res := ReadBlocks(Serialize([]BlockNode{node}))
		require.Len(t, res, 1)
		assert.Equal(t, "core/quote", res[0].BlockName)
		require.Len(t, res[0].InnerBlocks, 1)
		assert.Equal(t, "core/cite", res[0].InnerBlocks[0].BlockName)
	})

	t.Run("опасные значения атрибутов не ломают разделитель", func(t *testing.T) {
		got := Serialize([]BlockNode{{
			Name:  "core/html",
			Attrs: map[string]interface{}{"raw": "x --> y"},
		}})

		res := ReadBlocks(got)
		require.Len(t, res, 1)
		assert.Equal(t, "x --> y", res[0].Attrs["raw"])
	})
}
