// Пакет types содержит общие типы данных приложения aipress: роли пользователей, типы и статусы записей, хранимый тип блочной разметки.
//
// Основные возможности:
//   - Константы ролей пользователей и статусов записей.
//   - Тип BlockMarkup для хранения блочной разметки поста в базе данных.
//   - Вспомогательные типы для сериализации (JsonURL).
package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	policy "github.com/aisa-it/aipress/aipress.go/internal/aipress/redactor-policy"
)

// Роли пользователей. Используются для определения прав доступа к контенту.
const (
	ReaderRole = 5  // только чтение опубликованного
	AuthorRole = 10 // создание и редактирование собственных записей
	EditorRole = 15 // полный доступ к контенту
)

// Типы записей.
const (
	PostType = "post"
	PageType = "page"
)

// Статусы записей.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusScheduled = "scheduled"
)

// ValidPostType возвращает true, если переданная строка является допустимым типом записи.
func ValidPostType(t string) bool {
	return t == PostType || t == PageType
}

// ValidPostStatus возвращает true, если переданная строка является допустимым статусом записи.
func ValidPostStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished || s == StatusScheduled
}

// BlockMarkup хранит блочную разметку записи как есть.
// Разметка содержит блочные разделители в виде HTML-комментариев,
// поэтому содержимое НЕ прогоняется через санитайзер при записи:
// политика bluemonday удалила бы комментарии и разрушила бы документ.
// Очистка применяется только к производному тексту (выдержки, поиск).
type BlockMarkup struct {
	Body     string
	stripped string
}

func (m BlockMarkup) Value() (driver.Value, error) {
	return m.Body, nil
}

func (m *BlockMarkup) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		m.Body = ""
	case string:
		m.Body = v
	case []byte:
		m.Body = string(v)
	default:
		return errors.New("unsupported type")
	}
	return nil
}

func (m BlockMarkup) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(m.Body); err != nil {
		return nil, err
	}

	return bytes.TrimSpace(buf.Bytes()), nil
}

func (m *BlockMarkup) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &m.Body); err != nil {
		return err
	}
	m.Body = RemoveInvisibleChars(m.Body)

	return nil
}

// StripTags возвращает текст разметки без тегов и блочных разделителей. Результат кешируется.
func (m *BlockMarkup) StripTags() string {
	if m.stripped == "" {
		m.stripped = policy.StripTagsPolicy.Sanitize(m.Body)
	}
	return m.stripped
}

func (m BlockMarkup) String() string {
	return m.Body
}

func (BlockMarkup) GormDataType() string {
	return "text"
}

func RemoveInvisibleChars(s string) string {
	invisible := []string{
		"\u200B",
		"\u200C",
		"\u200D",
		"\uFEFF",
	}

	for _, ch := range invisible {
		s = strings.ReplaceAll(s, ch, "")
	}
	return s
}

// JsonURL type
type JsonURL struct {
	Url *url.URL
}

func (u *JsonURL) MarshalJSON() ([]byte, error) {
	if u == nil || u.Url == nil {
		return []byte("null"), nil
	}
	return []byte("\"" + u.Url.String() + "\""), nil
}
