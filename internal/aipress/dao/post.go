// DAO для работы с записями: постами и страницами.
//
// Основные возможности:
//   - Модель записи с блочной разметкой содержимого.
//   - Хуки генерации идентификаторов, выдержек и постоянных ссылок.
//   - Публикация отложенных записей по расписанию.
package dao

import (
	"errors"
	"path"
	"time"

	"github.com/aisa-it/aipress/aipress.go/internal/aipress/dto"
	policy "github.com/aisa-it/aipress/aipress.go/internal/aipress/redactor-policy"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/types"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const excerptLimit = 300

// Записи: посты и страницы
type Post struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	AuthorId string `json:"author_id" gorm:"index"`

	Title  string `json:"title"`
	Slug   string `json:"slug" gorm:"uniqueIndex:,where:deleted_at is NULL"`
	Type   string `json:"type" gorm:"default:'post'"`
	Status string `json:"status" gorm:"default:'draft'"`

	Content types.BlockMarkup `json:"content" gorm:"type:text"`
	Excerpt string            `json:"excerpt"`

	ScheduleAt  *time.Time `json:"schedule_at" gorm:"index"`
	PublishedAt *time.Time `json:"published_at"`

	URL *types.JsonURL `json:"url" gorm:"-"`

	Author     *User      `json:"-" gorm:"foreignKey:AuthorId"`
	Categories []Category `json:"-" gorm:"many2many:post_categories;constraint:OnDelete:CASCADE"`
	Tags       []Tag      `json:"-" gorm:"many2many:post_tags;constraint:OnDelete:CASCADE"`
}

// Возвращает имя таблицы для данного типа структуры.
func (Post) TableName() string { return "posts" }

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID.IsNil() {
		p.ID = GenUUID()
	}
	return nil
}

func (p *Post) BeforeSave(tx *gorm.DB) error {
	// Блочные разделители - HTML-комментарии, в текст выдержки они не попадают
	p.Excerpt = policy.Excerpt(p.Content.Body, excerptLimit)
	return nil
}

func (p *Post) AfterFind(tx *gorm.DB) error {
	if Config != nil && Config.WebURL != nil {
		u := *Config.WebURL
		u.Path = path.Join(u.Path, p.Slug)
		p.URL = &types.JsonURL{Url: &u}
	}
	return nil
}

func (p *Post) ToLightDTO() *dto.PostLight {
	if p == nil {
		return nil
	}
	return &dto.PostLight{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Type:        p.Type,
		Status:      p.Status,
		Excerpt:     p.Excerpt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		ScheduleAt:  p.ScheduleAt,
		PublishedAt: p.PublishedAt,
		URL:         p.URL,
		Author:      p.Author.ToLightDTO(),
	}
}

func (p *Post) ToDTO() *dto.Post {
	if p == nil {
		return nil
	}

	categories := make([]dto.CategoryLight, 0, len(p.Categories))
	for _, c := range p.Categories {
		categories = append(categories, c.ToLightDTO())
	}
	tags := make([]dto.TagLight, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.ToLightDTO())
	}

	return &dto.Post{
		PostLight:  *p.ToLightDTO(),
		Content:    p.Content.Body,
		Categories: categories,
		Tags:       tags,
	}
}

// PostByIDOrSlug находит запись по UUID либо по ЧПУ-идентификатору.
// Возвращает nil без ошибки, если запись не найдена.
func PostByIDOrSlug(db *gorm.DB, idOrSlug string) (*Post, error) {
	var post Post
	query := db.Preload("Author").Preload("Categories").Preload("Tags")
	if _, err := uuid.FromString(idOrSlug); err == nil {
		query = query.Where("posts.id = ?", idOrSlug)
	} else {
		query = query.Where("posts.slug = ?", idOrSlug)
	}

	if err := query.First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// PublishDuePosts публикует отложенные записи, время которых наступило.
// Возвращает количество опубликованных записей.
func PublishDuePosts(db *gorm.DB) (int64, error) {
	now := time.Now()
	res := db.Model(&Post{}).
		Where("status = ?", types.StatusScheduled).
		Where("schedule_at IS NOT NULL AND schedule_at <= ?", now).
		Updates(map[string]interface{}{
			"status":       types.StatusPublished,
			"published_at": now,
			"schedule_at":  nil,
		})
	return res.RowsAffected, res.Error
}
