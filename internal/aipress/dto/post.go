package dto

import (
	"time"

	"github.com/aisa-it/aipress/aipress.go/internal/aipress/types"
	"github.com/gofrs/uuid"
)

// PostLight - краткое представление записи для списков.
type PostLight struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Slug   string    `json:"slug"`
	Type   string    `json:"type"`
	Status string    `json:"status"`

	Excerpt string `json:"excerpt"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ScheduleAt  *time.Time `json:"schedule_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	URL *types.JsonURL `json:"url,omitempty"`

	Author *UserLight `json:"author,omitempty"`
}

// Post - полное представление записи, включая блочную разметку.
type Post struct {
	PostLight

	Content string `json:"content"`

	Categories []CategoryLight `json:"categories"`
	Tags       []TagLight      `json:"tags"`
}
