package tools

import (
	"context"
	"testing"

	"github.com/aisa-it/aipress/aipress.go/internal/aipress/blocks"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/types"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBlocksDoc = `<!-- core/heading {"level":2} -->
<h2>Заголовок</h2>
<!-- /core/heading -->

<!-- core/paragraph -->
<p>Первый абзац</p>
<!-- /core/paragraph -->`

func TestGetPostBlocks(t *testing.T) {
	t.Run("возвращает блочную структуру записи", func(t *testing.T) {
		db := setupTestDB(t)

		authorId := uuid.Must(uuid.NewV4())
		insertUser(t, db, authorId, types.AuthorRole)

		postId := uuid.Must(uuid.NewV4())
		insertPost(t, db, postId, authorId, "blocks-post", types.StatusPublished, testBlocksDoc)

		result, err := PostReadMiddleware(getPostBlocks)(context.Background(), db, testReader(uuid.Must(uuid.NewV4())), createTestRequest(map[string]interface{}{
			"post_id": postId.String(),
		}))

		assert.NoError(t, err)
		assert.False(t, result.IsError)

		var res blocksResult
		unmarshalResult(t, result, &res)
		assert.Equal(t, postId, res.PostId)
		require.Len(t, res.Blocks, 2)
		assert.Equal(t, 0, res.Blocks[0].Index)
		assert.Equal(t, "core/heading", res.Blocks[0].BlockName)
		assert.Equal(t, float64(2), res.Blocks[0].Attrs["level"])
		assert.Equal(t, 1, res.Blocks[1].Index)
		assert.Equal(t, "core/paragraph", res.Blocks[1].BlockName)
		assert.NotNil(t, res.Blocks[1].Attrs)
	})

	t.Run("запись без блоков возвращает пустой список", func(t *testing.T) {
		db := setupTestDB(t)

		authorId := uuid.Must(uuid.NewV4())
		insertUser(t, db, authorId, types.AuthorRole)

		postId := uuid.Must(uuid.NewV4())
		insertPost(t, db, postId, authorId, "empty-post", types.StatusPublished, "просто текст без разметки")

		result, err := PostReadMiddleware(getPostBlocks)(context.Background(), db, testReader(uuid.Must(uuid.NewV4())), createTestRequest(map[string]interface{}{
			"post_id": postId.String(),
		}))

		assert.NoError(t, err)
		assert.False(t, result.IsError)

		var res blocksResult
		unmarshalResult(t, result, &res)
		assert.Empty(t, res.Blocks)
	})
}

func TestEditPostBlocks(t *testing.T) {
	editBlocks := PostEditMiddleware(editPostBlocks)

	t.Run("insert добавляет блок и сдвигает индексы", func(t *testing.T) {
		db := setupTestDB(t)

		authorId := uuid.Must(uuid.NewV4())
		insertUser(t, db, authorId, types.AuthorRole)

		postId := uuid.Must(uuid.NewV4())
		insertPost(t, db, postId, authorId, "edit-post", types.StatusDraft, testBlocksDoc)

		result, err := editBlocks(context.Background(), db, testAuthor(authorId), createTestRequest(map[string]interface{}{
			"post_id":   postId.String(),
			"operation": blocks.OpInsert,
			"content":   "<!-- core/separator /-->",
			"index":     float64(1),
		}))

		assert.NoError(t, err)
		assert.False(t, result.IsError)

		var res blocksResult
		unmarshalResult(t, result, &res)
		require.Len(t, res.Blocks, 3)
		assert.Equal(t, "core/heading", res.Blocks[0].BlockName)
		assert.Equal(t, "core/separator", res.Blocks[1].BlockName)
		assert.Equal(t, "core/paragraph", res.Blocks[2].BlockName)
		assert.Equal(t, 1, res.Blocks[1].Index)

		// Изменения сохранены в БД
		var stored string
		require.NoError(t, db.Raw(`SELECT content FROM posts WHERE id = ?`, postId.String()).Scan(&stored).Error)
		assert.Contains(t, stored, "core/separator")
	})

	t.Run("remove удаляет блок по индексу", func(t *testing.T) {
		db := setupTestDB(t)

		authorId := uuid.Must(uuid.NewV4())
		insertUser(t, db, authorId, types.AuthorRole)

		postId := uuid.Must(uuid.NewV4())
		insertPost(t, db, postId, authorId, "edit-post", types.StatusDraft, testBlocksDoc)

		result, err := editBlocks(context.Background(), db, testAuthor(authorId), createTestRequest(map[string]interface{}{
			"post_id":   postId.String(),
			"operation": blocks.OpRemove,
			"index":     float64(0),
		}))

		assert.NoError(t, err)
		assert.False(t, result.IsError)

		var res blocksResult
		unmarshalResult(t, result, &res)
		require.Len(t, res.Blocks, 1)
		assert.Equal(t, "core/paragraph", res.Blocks[0].BlockName)
		assert.Equal(t, 0, res.Blocks[0].Index)
	})

	t.Run("replace заменяет блок", func(t *testing.T) {
		db := setupTestDB(t)

		authorId := uuid.Must(uuid.NewV4())
		insertUser(t, db, authorId, types.AuthorRole)

		postId := uuid.Must(uuid.NewV4())
		insertPost(t, db, postId, authorId, "edit-post", types.StatusDraft, testBlocksDoc)

		result, err := editBlocks(context.Background(), db, testAuthor(authorId), createTestRequest(map[string]interface{}{
			"post_id":   postId.String(),
			"operation": blocks.OpReplace,
			"content":   "<!-- core/quote -->\n<blockquote>Цитата</blockquote>\n<!-- /core/quote -->",
			"index":     float64(1),
		}))

		assert.NoError(t, err)
		assert.False(t, result.IsError)

		var res blocksResult
		unmarshalResult(t, result, &res)
		require.Len(t, res.Blocks, 2)
		assert.Equal(t, "core/quote", res.Blocks[1].BlockName)
	})

	t.Run("replace_all заменяет документ целиком", func(t *testing.T) {
		db := setupTestDB(t)

		authorId := uuid.Must(uuid.NewV4())
		insertUser(t, db, authorId, types.AuthorRole)

		postId := uuid.Must(uuid.NewV4())
		insertPost(t, db, postId, authorId, "edit-post", types.StatusDraft, testBlocksDoc)

		newDoc := "<!-- core/paragraph -->\n<p>Единственный блок</p>\n<!-- /core/paragraph -->"
		result, err := editBlocks(context.Background(), db, testAuthor(authorId), createTestRequest(map[string]interface{}{
			"post_id":   postId.String(),
			"operation": blocks.OpReplaceAll,
			"content":   newDoc,
		}))

		assert.NoError(t, err)
		assert.False(t, result.IsError)

		var res blocksResult
		unmarshalResult(t, result, &res)
		require.Len(t, res.Blocks, 1)
		assert.Equal(t, "core/paragraph", res.Blocks[0].BlockName)

		// Документ сохранен дословно
		var stored string
		require.NoError(t, db.Raw(`SELECT content FROM posts WHERE id = ?`, postId.String()).Scan(&stored).Error)
		assert.Equal(t, newDoc, stored)
	})

	t.Run("remove за границами возвращает ошибку и не меняет документ", func(t *testing.T) {
		db := setupTestDB(t)

		authorId := uuid.Must(uuid.NewV4())
		insertUser(t, db, authorId, types.AuthorRole)

		postId := uuid.Must(uuid.NewV4())
		insertPost(t, db, postId, authorId, "edit-post", types.StatusDraft, testBlocksDoc)

		result, err := editBlocks(context.Background(), db, testAuthor(authorId), createTestRequest(map[string]interface{}{
			"post_id":   postId.String(),
			"operation": blocks.OpRemove,
			"index":     float64(10),
		}))

		assert.NoError(t, err)
		assert.True(t, result.IsError)

		var stored string
		require.NoError(t, db.Raw(`SELECT content FROM posts WHERE id = ?`, postId.String()).Scan(&stored).Error)
		assert.Equal(t, testBlocksDoc, stored)
	})

	t.Run("неизвестная операция возвращает ошибку", func(t *testing.T) {
		db := setupTestDB(t)

		authorId := uuid.Must(uuid.NewV4())
		insertUser(t, db, authorId, types.AuthorRole)

		postId := uuid.Must(uuid.NewV4())
		insertPost(t, db, postId, authorId, "edit-post", types.StatusDraft, testBlocksDoc)

		result, err := editBlocks(context.Background(), db, testAuthor(authorId), createTestRequest(map[string]interface{}{
			"post_id":   postId.String(),
			"operation": "rotate",
		}))

		assert.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("дробный index возвращает ошибку и не меняет документ", func(t *testing.T) {
		db := setupTestDB(t)

		authorId := uuid.Must(uuid.NewV4())
		insertUser(t, db, authorId, types.AuthorRole)

		postId := uuid.Must(uuid.NewV4())
		insertPost(t, db, postId, authorId, "edit-post", types.StatusDraft, testBlocksDoc)

		result, err := editBlocks(context.Background(), db, testAuthor(authorId), createTestRequest(map[string]interface{}{
			"post_id":   postId.String(),
			"operation": blocks.OpRemove,
			"index":     float64(1.7),
		}))

		assert.NoError(t, err)
		assert.True(t, result.IsError)

		var stored string
		require.NoError(t, db.Raw(`SELECT content FROM posts WHERE id = ?`, postId.String()).Scan(&stored).Error)
		assert.Equal(t, testBlocksDoc, stored)
	})

	t.Run("insert без content возвращает ошибку", func(t *testing.T) {
		db := setupTestDB(t)

		authorId := uuid.Must(uuid.NewV4())
		insertUser(t, db, authorId, types.AuthorRole)

		postId := uuid.Must(uuid.NewV4())
		insertPost(t, db, postId, authorId, "edit-post", types.StatusDraft, testBlocksDoc)

		result, err := editBlocks(context.Background(), db, testAuthor(authorId), createTestRequest(map[string]interface{}{
			"post_id":   postId.String(),
			"operation": blocks.OpInsert,
			"index":     float64(0),
		}))

		assert.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("читатель не может редактировать блоки", func(t *testing.T) {
		db := setupTestDB(t)

		authorId := uuid.Must(uuid.NewV4())
		insertUser(t, db, authorId, types.AuthorRole)

		postId := uuid.Must(uuid.NewV4())
		insertPost(t, db, postId, authorId, "edit-post", types.StatusPublished, testBlocksDoc)

		result, err := editBlocks(context.Background(), db, testReader(uuid.Must(uuid.NewV4())), createTestRequest(map[string]interface{}{
			"post_id":   postId.String(),
			"operation": blocks.OpRemove,
			"index":     float64(0),
		}))

		assert.NoError(t, err)
		assert.True(t, result.IsError)
	})
}
