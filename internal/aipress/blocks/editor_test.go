package blocks

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisa-it/aipress/aipress.go/internal/aipress/apierrors"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

const twoBlocksDoc = "<!-- core/paragraph -->Первый<!-- /core/paragraph -->\n\n<!-- core/paragraph -->Второй<!-- /core/paragraph -->"

func TestApplyReplaceAll(t *testing.T) {
	t.Run("заменяет документ целиком", func(t *testing.T) {
		content := `<!-- core/heading -->Новый<!-- /core/heading -->`
		got, err := Apply(twoBlocksDoc, Operation{Kind: OpReplaceAll, Content: strPtr(content)})

		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("содержимое сохраняется как есть, без нормализации", func(t *testing.T) {
		content := "произвольный текст без блоков"
		got, err := Apply(twoBlocksDoc, Operation{Kind: OpReplaceAll, Content: strPtr(content)})

		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("без content возвращает ошибку", func(t *testing.T) {
		_, err := Apply(twoBlocksDoc, Operation{Kind: OpReplaceAll})
		assert.True(t, errors.Is(err, apierrors.ErrContentRequired))
	})
}

func TestApplyInsert(t *testing.T) {
	t.Run("вставка в начало сдвигает блоки вправо", func(t *testing.T) {
		content := `<!-- core/heading {"level":1} -->Заголовок<!-- /core/heading -->`
		got, err := Apply(twoBlocksDoc, Operation{Kind: OpInsert, Content: strPtr(content), Index: intPtr(0)})
		require.NoError(t, err)

		res := ReadBlocks(got)
		require.Len(t, res, 3)
		assert.Equal(t, "core/heading", res[0].BlockName)
		assert.Equal(t, 0, res[0].Index)
		assert.Equal(t, "Первый", res[1].InnerHTML)
		assert.Equal(t, 1, res[1].Index)
		assert.Equal(t, "Второй", res[2].InnerHTML)
		assert.Equal(t, 2, res[2].Index)
	})

	t.Run("вставка в середину", func(t *testing.T) {
		got, err := Apply(twoBlocksDoc, Operation{Kind: OpInsert, Content: strPtr("<!-- core/separator /-->"), Index: intPtr(1)})
		require.NoError(t, err)

		res := ReadBlocks(got)
		require.Len(t, res, 3)
		assert.Equal(t, "core/separator", res[1].BlockName)
	})

	t.Run("индекс равный длине добавляет в конец", func(t *testing.T) {
		got, err := Apply(twoBlocksDoc, Operation{Kind: OpInsert, Content: strPtr("<!-- core/separator /-->"), Index: intPtr(2)})
		require.NoError(t, err)

		res := ReadBlocks(got)
		require.Len(t, res, 3)
		assert.Equal(t, "core/separator", res[2].BlockName)
	})

	t.Run("индекс больше длины прижимается к длине", func(t *testing.T) {
		atLength, err := Apply(twoBlocksDoc, Operation{Kind: OpInsert, Content: strPtr("<!-- core/separator /-->"), Index: intPtr(2)})
		require.NoError(t, err)

		beyond, err := Apply(twoBlocksDoc, Operation{Kind: OpInsert, Content: strPtr("<!-- core/separator /-->"), Index: intPtr(100)})
		require.NoError(t, err)

		assert.Equal(t, atLength, beyond)
	})

	t.Run("вставка нескольких блоков разом", func(t *testing.T) {
		content := "<!-- core/heading -->A<!-- /core/heading --><!-- core/paragraph -->B<!-- /core/paragraph -->"
		got, err := Apply(twoBlocksDoc, Operation{Kind: OpInsert, Content: strPtr(content), Index: intPtr(1)})
		require.NoError(t, err)

		res := ReadBlocks(got)
		require.Len(t, res, 4)
		assert.Equal(t, "core/heading", res[1].BlockName)
		assert.Equal(t, "B", res[2].InnerHTML)
	})

	t.Run("вставка в пустой документ", func(t *testing.T) {
		got, err := Apply("", Operation{Kind: OpInsert, Content: strPtr("<!-- core/paragraph -->X<!-- /core/paragraph -->"), Index: intPtr(0)})
		require.NoError(t, err)

		res := ReadBlocks(got)
		require.Len(t, res, 1)
	})

	t.Run("без content или index возвращает ошибку", func(t *testing.T) {
		_, err := Apply(twoBlocksDoc, Operation{Kind: OpInsert, Index: intPtr(0)})
		assert.True(t, errors.Is(err, apierrors.ErrContentRequired))

		_, err = Apply(twoBlocksDoc, Operation{Kind: OpInsert, Content: strPtr("x")})
		assert.True(t, errors.Is(err, apierrors.ErrIndexRequired))
	})
}

func TestApplyRemove(t *testing.T) {
	t.Run("удаляет блок по индексу", func(t *testing.T) {
		got, err := Apply(twoBlocksDoc, Operation{Kind: OpRemove, Index: intPtr(0)})
		require.NoError(t, err)

		res := ReadBlocks(got)
		require.Len(t, res, 1)
		assert.Equal(t, "Второй", res[0].InnerHTML)
		assert.Equal(t, 0, res[0].Index)
	})

	t.Run("индекс за границами - ошибка, без прижатия", func(t *testing.T) {
		_, err := Apply(twoBlocksDoc, Operation{Kind: OpRemove, Index: intPtr(5)})
		assert.True(t, errors.Is(err, apierrors.ErrBlockIndexOutOfRange))

		_, err = Apply(twoBlocksDoc, Operation{Kind: OpRemove, Index: intPtr(2)})
		assert.True(t, errors.Is(err, apierrors.ErrBlockIndexOutOfRange))
	})

	t.Run("без index возвращает ошибку", func(t *testing.T) {
		_, err := Apply(twoBlocksDoc, Operation{Kind: OpRemove})
		assert.True(t, errors.Is(err, apierrors.ErrIndexRequired))
	})
}

func TestApplyReplace(t *testing.T) {
	t.Run("заменяет один блок", func(t *testing.T) {
		got, err := Apply(twoBlocksDoc, Operation{
			Kind:    OpReplace,
			Content: strPtr(`<!-- core/heading -->Вместо первого<!-- /core/heading -->`),
			Index:   intPtr(0),
		})
		require.NoError(t, err)

		res := ReadBlocks(got)
		require.Len(t, res, 2)
		assert.Equal(t, "core/heading", res[0].BlockName)
		assert.Equal(t, "Второй", res[1].InnerHTML)
	})

	t.Run("замена на несколько блоков расширяет документ", func(t *testing.T) {
		content := "<!-- core/paragraph -->A<!-- /core/paragraph --><!-- core/paragraph -->B<!-- /core/paragraph -->"
		got, err := Apply(twoBlocksDoc, Operation{Kind: OpReplace, Content: strPtr(content), Index: intPtr(1)})
		require.NoError(t, err)

		res := ReadBlocks(got)
		require.Len(t, res, 3)
		assert.Equal(t, "A", res[1].InnerHTML)
		assert.Equal(t, "B", res[2].InnerHTML)
	})

	t.Run("замена на пустое содержимое удаляет блок", func(t *testing.T) {
		got, err := Apply(twoBlocksDoc, Operation{Kind: OpReplace, Content: strPtr(""), Index: intPtr(0)})
		require.NoError(t, err)

		res := ReadBlocks(got)
		require.Len(t, res, 1)
		assert.Equal(t, "Второй", res[0].InnerHTML)
	})

	t.Run("индекс за границами - ошибка", func(t *testing.T) {
		_, err := Apply(twoBlocksDoc, Operation{Kind: OpReplace, Content: strPtr("x"), Index: intPtr(2)})
		assert.True(t, errors.Is(err, apierrors.ErrBlockIndexOutOfRange))
	})

	t.Run("без обязательных полей возвращает ошибку", func(t *testing.T) {
		_, err := Apply(twoBlocksDoc, Operation{Kind: OpReplace, Index: intPtr(0)})
		assert.True(t, errors.Is(err, apierrors.ErrContentRequired))

		_, err = Apply(twoBlocksDoc, Operation{Kind: OpReplace, Content: strPtr("x")})
		assert.True(t, errors.Is(err, apierrors.ErrIndexRequired))
	})
}

func TestApplyUnknownOperation(t *testing.T) {
	_, err := Apply(twoBlocksDoc, Operation{Kind: "rotate"})
	assert.True(t, errors.Is(err, apierrors.ErrUnknownOperation))

	_, err = Apply(twoBlocksDoc, Operation{})
	assert.True(t, errors.Is(err, apierrors.ErrOperationRequired))
}
