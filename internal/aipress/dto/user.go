// Пакет dto содержит структуры передачи данных, в которых сущности
// приложения отдаются наружу: в ответы MCP инструментов и HTTP API.
package dto

import (
	"time"

	"github.com/gofrs/uuid"
)

type UserLight struct {
	ID        uuid.UUID `json:"id"`
	Username  *string   `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`

	CreatedAt  time.Time  `json:"created_at"`
	LastActive *time.Time `json:"last_active,omitempty"`

	IsSuperuser bool `json:"is_superuser"`
	IsActive    bool `json:"is_active"`

	Role int `json:"role"`
}

type User struct {
	UserLight
}
