// DAO для работы с таксономией: рубриками и метками записей.
package dao

import (
	"time"

	"github.com/aisa-it/aipress/aipress.go/internal/aipress/dto"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// Рубрики
type Category struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	Name        string `json:"name"`
	Slug        string `json:"slug" gorm:"uniqueIndex"`
	Description string `json:"description"`

	PostsCount int64 `json:"posts_count" gorm:"->;-:migration"`

	Posts []Post `json:"-" gorm:"many2many:post_categories"`
}

// Возвращает имя таблицы для данного типа структуры.
func (Category) TableName() string { return "categories" }

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID.IsNil() {
		c.ID = GenUUID()
	}
	return nil
}

func (c Category) ToLightDTO() dto.CategoryLight {
	return dto.CategoryLight{
		ID:   c.ID,
		Name: c.Name,
		Slug: c.Slug,
	}
}

func (c Category) ToDTO() dto.Category {
	return dto.Category{
		CategoryLight: c.ToLightDTO(),
		Description:   c.Description,
		PostsCount:    c.PostsCount,
	}
}

// Метки
type Tag struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid" json:"id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	Name string `json:"name"`
	Slug string `json:"slug" gorm:"uniqueIndex"`

	PostsCount int64 `json:"posts_count" gorm:"->;-:migration"`

	Posts []Post `json:"-" gorm:"many2many:post_tags"`
}

// Возвращает имя таблицы для данного типа структуры.
func (Tag) TableName() string { return "tags" }

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID.IsNil() {
		t.ID = GenUUID()
	}
	return nil
}

func (t Tag) ToLightDTO() dto.TagLight {
	return dto.TagLight{
		ID:   t.ID,
		Name: t.Name,
		Slug: t.Slug,
	}
}

func (t Tag) ToDTO() dto.Tag {
	return dto.Tag{
		TagLight:   t.ToLightDTO(),
		PostsCount: t.PostsCount,
	}
}

// CategoriesCountQuery добавляет к запросу подсчет привязанных записей.
func CategoriesCountQuery(db *gorm.DB) *gorm.DB {
	return db.Model(&Category{}).
		Select("categories.*, (SELECT count(*) FROM post_categories pc WHERE pc.category_id = categories.id) AS posts_count")
}

// TagsCountQuery добавляет к запросу подсчет привязанных записей.
func TagsCountQuery(db *gorm.DB) *gorm.DB {
	return db.Model(&Tag{}).
		Select("tags.*, (SELECT count(*) FROM post_tags pt WHERE pt.tag_id = tags.id) AS posts_count")
}
