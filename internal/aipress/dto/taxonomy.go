package dto

import (
	"github.com/gofrs/uuid"
)

type CategoryLight struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type Category struct {
	CategoryLight

	Description string `json:"description,omitempty"`
	PostsCount  int64  `json:"posts_count"`
}

type TagLight struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type Tag struct {
	TagLight

	PostsCount int64 `json:"posts_count"`
}
