// DAO для работы с данными пользователей.
//
// Основные возможности:
//   - Модель пользователя с ролями доступа к контенту.
//   - Аутентификация по персональному токену.
package dao

import (
	"errors"
	"time"

	"github.com/aisa-it/aipress/aipress.go/internal/aipress/dto"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/types"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// Пользователи
type User struct {
	ID uuid.UUID `gorm:"column:id;primaryKey;type:text" json:"id"`

	Password  string  `json:"-"`
	Username  *string `json:"username" gorm:"uniqueIndex:,where:deleted_at is NULL"`
	Email     string  `json:"email" gorm:"uniqueIndex:,where:deleted_at is NULL and email <> ''"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	IsSuperuser bool `json:"is_superuser"`
	IsActive    bool `json:"is_active" gorm:"default:true"`

	AuthToken      *string    `json:"-" gorm:"uniqueIndex"`
	TokenUpdatedAt *time.Time `json:"-"`

	LastActive      *time.Time `json:"last_active"`
	LastLoginTime   *time.Time `json:"-"`
	LastLoginIp     string     `json:"-"`
	LastLoginUagent string     `json:"-"`

	// Роль доступа к контенту, см. константы в пакете types
	Role int `json:"role" gorm:"default:10"`
}

// Возвращает имя таблицы для данного типа структуры.
func (User) TableName() string { return "users" }

func (u User) GetId() string {
	return u.ID.String()
}

// CanManageContent возвращает true, если пользователь может создавать
// и редактировать чужие записи.
func (u User) CanManageContent() bool {
	return u.IsSuperuser || u.Role >= types.EditorRole
}

// CanWrite возвращает true, если пользователь может создавать собственные записи.
func (u User) CanWrite() bool {
	return u.IsSuperuser || u.Role >= types.AuthorRole
}

// CanEditPost возвращает true, если пользователь может изменять указанную запись.
func (u User) CanEditPost(post *Post) bool {
	if u.CanManageContent() {
		return true
	}
	return u.CanWrite() && post.AuthorId == u.ID.String()
}

func (u *User) ToLightDTO() *dto.UserLight {
	if u == nil {
		return nil
	}
	return &dto.UserLight{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		CreatedAt:   u.CreatedAt,
		LastActive:  u.LastActive,
		IsSuperuser: u.IsSuperuser,
		IsActive:    u.IsActive,
		Role:        u.Role,
	}
}

func (u *User) ToDTO() *dto.User {
	if u == nil {
		return nil
	}
	return &dto.User{UserLight: *u.ToLightDTO()}
}

// UpdateUserLastActivityTime отмечает время последней активности пользователя.
// Обновление не чаще раза в минуту, чтобы не нагружать базу на каждом запросе.
func UpdateUserLastActivityTime(db *gorm.DB, user *User) error {
	now := time.Now()
	if user.LastActive != nil && now.Sub(*user.LastActive) < time.Minute {
		return nil
	}
	user.LastActive = &now
	return db.Model(user).UpdateColumn("last_active", now).Error
}

// UserByAuthToken находит активного пользователя по персональному токену.
// Возвращает nil без ошибки, если токен никому не принадлежит.
func UserByAuthToken(db *gorm.DB, token string) (*User, error) {
	var user User
	if err := db.Where("auth_token = ?", token).Where("is_active = true").First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
