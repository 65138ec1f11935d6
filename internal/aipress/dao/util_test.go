package dao

import (
	"strings"
	"testing"
	"time"

	"github.com/aisa-it/aipress/aipress.go/internal/aipress/types"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSlugify(t *testing.T) {
	t.Run("транслитерация кириллицы", func(t *testing.T) {
		assert.Equal(t, "privet-mir", Slugify("Привет мир"))
		assert.Equal(t, "schuka-i-ersh", Slugify("Щука и ёрш"))
	})

	t.Run("латиница и цифры сохраняются", func(t *testing.T) {
		assert.Equal(t, "go-1-25-release", Slugify("Go 1.25 Release"))
	})

	t.Run("повторные разделители схлопываются", func(t *testing.T) {
		assert.Equal(t, "a-b", Slugify("a --- b"))
		assert.Equal(t, "abc", Slugify("  abc!!!"))
	})

	t.Run("заголовок без пригодных символов дает случайный slug", func(t *testing.T) {
		slug := Slugify("!!!")
		assert.True(t, strings.HasPrefix(slug, "post-"))
		assert.True(t, ValidSlug(slug), slug)
	})
}

func TestValidSlug(t *testing.T) {
	valid := []string{"post", "hello-world", "go-1-25", "a"}
	for _, s := range valid {
		assert.True(t, ValidSlug(s), s)
	}

	invalid := []string{"", "-post", "post-", "po--st", "Post", "при вет", "a_b", "a.b"}
	for _, s := range invalid {
		assert.False(t, ValidSlug(s), s)
	}
}

func TestComparePassword(t *testing.T) {
	t.Run("совпадающий пароль", func(t *testing.T) {
		hash := GenPasswordHash("secret123")
		assert.True(t, ComparePassword(hash, "secret123"))
	})

	t.Run("неверный пароль", func(t *testing.T) {
		hash := GenPasswordHash("secret123")
		assert.False(t, ComparePassword(hash, "secret124"))
	})

	t.Run("некорректный формат хеша", func(t *testing.T) {
		assert.False(t, ComparePassword("plain", "plain"))
		assert.False(t, ComparePassword("md5$1$salt$hash", "plain"))
		assert.False(t, ComparePassword("pbkdf2_sha256$abc$salt$hash", "plain"))
	})
}

func setupPostsDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE posts (
			id TEXT PRIMARY KEY,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME,
			author_id TEXT,
			title TEXT,
			slug TEXT,
			type TEXT DEFAULT 'post',
			status TEXT DEFAULT 'draft',
			content TEXT,
			excerpt TEXT,
			schedule_at DATETIME,
			published_at DATETIME
		)
	`).Error
	require.NoError(t, err)

	return db
}

func TestPublishDuePosts(t *testing.T) {
	t.Run("публикуются только записи с наступившим временем", func(t *testing.T) {
		db := setupPostsDB(t)

		past := time.Now().Add(-time.Hour)
		future := time.Now().Add(time.Hour)

		due := Post{ID: GenUUID(), Title: "Due", Slug: "due", Status: types.StatusScheduled, ScheduleAt: &past}
		notYet := Post{ID: GenUUID(), Title: "Not yet", Slug: "not-yet", Status: types.StatusScheduled, ScheduleAt: &future}
		draft := Post{ID: GenUUID(), Title: "Draft", Slug: "draft", Status: types.StatusDraft}
		require.NoError(t, db.Create(&due).Error)
		require.NoError(t, db.Create(&notYet).Error)
		require.NoError(t, db.Create(&draft).Error)

		published, err := PublishDuePosts(db)
		require.NoError(t, err)
		assert.EqualValues(t, 1, published)

		// Для каждого чтения нужна свежая структура: gorm добавляет уже
		// заполненный первичный ключ получателя в условие запроса
		var gotDue Post
		require.NoError(t, db.First(&gotDue, "id = ?", due.ID.String()).Error)
		assert.Equal(t, types.StatusPublished, gotDue.Status)
		assert.Nil(t, gotDue.ScheduleAt)
		require.NotNil(t, gotDue.PublishedAt)

		var gotNotYet Post
		require.NoError(t, db.First(&gotNotYet, "id = ?", notYet.ID.String()).Error)
		assert.Equal(t, types.StatusScheduled, gotNotYet.Status)

		var gotDraft Post
		require.NoError(t, db.First(&gotDraft, "id = ?", draft.ID.String()).Error)
		assert.Equal(t, types.StatusDraft, gotDraft.Status)
	})

	t.Run("повторный запуск ничего не публикует", func(t *testing.T) {
		db := setupPostsDB(t)

		past := time.Now().Add(-time.Minute)
		post := Post{ID: GenUUID(), Title: "Once", Slug: "once", Status: types.StatusScheduled, ScheduleAt: &past}
		require.NoError(t, db.Create(&post).Error)

		published, err := PublishDuePosts(db)
		require.NoError(t, err)
		assert.EqualValues(t, 1, published)

		published, err = PublishDuePosts(db)
		require.NoError(t, err)
		assert.EqualValues(t, 0, published)
	})
}

func TestPostExcerptHook(t *testing.T) {
	t.Run("выдержка собирается из текста без разметки", func(t *testing.T) {
		db := setupPostsDB(t)

		post := Post{
			ID:     GenUUID(),
			Title:  "Запись",
			Slug:   "zapis",
			Status: types.StatusDraft,
			Content: types.BlockMarkup{Body: `<!-- core/paragraph -->
<p>Первое <b>предложение</b> записи.</p>
<!-- /core/paragraph -->`},
		}
		require.NoError(t, db.Create(&post).Error)

		var got Post
		require.NoError(t, db.First(&got, "id = ?", post.ID.String()).Error)
		assert.Equal(t, "Первое предложение записи.", got.Excerpt)
		assert.NotContains(t, got.Excerpt, "core/paragraph")
	})
}

func TestPostByIDOrSlug(t *testing.T) {
	setupFull := func(t *testing.T) *gorm.DB {
		db := setupPostsDB(t)
		for _, ddl := range []string{
			`CREATE TABLE users (id TEXT PRIMARY KEY, deleted_at DATETIME, role INTEGER DEFAULT 10)`,
			`CREATE TABLE categories (id TEXT PRIMARY KEY, created_at DATETIME, updated_at DATETIME, name TEXT, slug TEXT, description TEXT)`,
			`CREATE TABLE tags (id TEXT PRIMARY KEY, created_at DATETIME, updated_at DATETIME, name TEXT, slug TEXT)`,
			`CREATE TABLE post_categories (post_id TEXT, category_id TEXT)`,
			`CREATE TABLE post_tags (post_id TEXT, tag_id TEXT)`,
		} {
			require.NoError(t, db.Exec(ddl).Error)
		}
		return db
	}

	t.Run("поиск по UUID и по slug", func(t *testing.T) {
		db := setupFull(t)

		id := GenUUID()
		require.NoError(t, db.Exec(`INSERT INTO posts (id, title, slug, status) VALUES (?, 'A', 'my-slug', 'draft')`, id.String()).Error)

		byId, err := PostByIDOrSlug(db, id.String())
		require.NoError(t, err)
		require.NotNil(t, byId)
		assert.Equal(t, "my-slug", byId.Slug)

		bySlug, err := PostByIDOrSlug(db, "my-slug")
		require.NoError(t, err)
		require.NotNil(t, bySlug)
		assert.Equal(t, id, bySlug.ID)
	})

	t.Run("не найденная запись возвращает nil без ошибки", func(t *testing.T) {
		db := setupFull(t)

		post, err := PostByIDOrSlug(db, uuid.Must(uuid.NewV4()).String())
		require.NoError(t, err)
		assert.Nil(t, post)

		post, err = PostByIDOrSlug(db, "missing")
		require.NoError(t, err)
		assert.Nil(t, post)
	})
}
