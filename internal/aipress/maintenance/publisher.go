// Package maintenance содержит фоновые задачи обслуживания контента,
// запускаемые периодически по cron-расписанию.
//
// Задачи:
//   - Publisher — публикация отложенных записей, время которых наступило
//   - PostsCleaner — hard delete записей с deleted_at != NULL
//
// Soft delete → hard delete реализует двухэтапное удаление:
// сначала запись помечается удаленной (для возможности восстановления),
// затем физически удаляется фоновой задачей.
package maintenance

import (
	"log/slog"

	"github.com/aisa-it/aipress/aipress.go/internal/aipress/dao"
	"gorm.io/gorm"
)

type Publisher struct {
	db *gorm.DB
}

func NewPublisher(db *gorm.DB) *Publisher {
	return &Publisher{db: db}
}

// PublishScheduled переводит в published все отложенные записи,
// время публикации которых уже наступило.
func (p *Publisher) PublishScheduled() {
	n, err := dao.PublishDuePosts(p.db)
	if err != nil {
		slog.Error("Publish scheduled posts", "err", err)
		return
	}
	if n > 0 {
		slog.Info("Scheduled posts published", "count", n)
	}
}

type PostsCleaner struct {
	db *gorm.DB
}

func NewPostsCleaner(db *gorm.DB) *PostsCleaner {
	return &PostsCleaner{db: db}
}

// CleanPosts физически удаляет записи, помеченные удаленными.
func (pc *PostsCleaner) CleanPosts() {
	slog.Info("Start hard delete posts")
	var posts []dao.Post
	if err := pc.db.Unscoped().Where("deleted_at is not NULL").Limit(50).Find(&posts).Error; err != nil {
		slog.Error("Get soft deleted posts", "err", err)
		return
	}

	for _, post := range posts {
		if err := pc.db.Unscoped().Select("Categories", "Tags").Delete(&post).Error; err != nil {
			slog.Error("Hard delete post", "postId", post.ID, "err", err)
		}
	}
	slog.Info("Finish hard delete posts")
}
