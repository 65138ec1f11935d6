// DAO (Data Access Object) - предоставляет методы для взаимодействия с базой данных.
// Содержит модели и функции для работы с пользователями, записями и таксономией.
//
// Основные возможности:
//   - Работа с пользователями: создание, аутентификация по токену, получение информации.
//   - Работа с записями: модели постов и страниц, хуки генерации идентификаторов и выдержек.
//   - Работа с таксономией: рубрики, метки и их привязка к записям.
//   - Генерация UUID, паролей и ЧПУ-идентификаторов (slug).
//   - Пагинация списочных запросов.
package dao

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/aisa-it/aipress/aipress.go/internal/aipress/config"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/types"
	"github.com/gofrs/uuid"
	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/pbkdf2"
	"gorm.io/gorm"
)

var Config *config.Config

// GenID генерирует уникальный идентификатор в формате UUID.
// Не принимает параметров и возвращает строку, представляющую собой UUID.
func GenID() string {
	u2, _ := uuid.NewV4()
	return u2.String()
}

// GenUUID генерирует уникальный идентификатор в формате UUID. Не принимает параметров и возвращает UUID.
//
// Возвращает:
//   - uuid.UUID: UUID, представляющий собой уникальный идентификатор.
func GenUUID() uuid.UUID {
	u2, _ := uuid.NewV4()
	return u2
}

type PaginationResponse struct {
	Count  int64 `json:"count"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
	Result any   `json:"result"`
}

// PaginationRequest выполняет списочный запрос с подсчетом общего количества
// строк и выборкой страницы offset/limit в target.
func PaginationRequest(offset int, limit int, query *gorm.DB, target any) (res PaginationResponse, err error) {
	// Count query
	if err := query.Session(&gorm.Session{}).Model(target).Count(&res.Count).Error; err != nil {
		return res, err
	}

	// Data query
	if err := query.Offset(offset).Limit(limit).Find(target).Error; err != nil {
		return res, err
	}

	res.Result = target
	res.Limit = limit
	res.Offset = offset

	return res, nil
}

// AddDefaultUser создает администратора по умолчанию, если пользователя
// с указанным email еще нет в базе.
func AddDefaultUser(db *gorm.DB, email string) {
	var count int64
	if err := db.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil || count > 0 {
		return
	}

	pass := "pbkdf2_sha256$260000$QM9bPwqeyc3Ed2LYppRoNN$BRt1aWr5wV3uqY/14k24Fnhaj1+TWExblkXUjFJKHDw=" // password123
	ubx := "admin"
	tm := time.Now()
	token := GenPassword() + GenPassword()
	user := User{
		ID:              GenUUID(),
		Email:           email,
		Password:        pass,
		Username:        &ubx,
		AuthToken:       &token,
		LastActive:      &tm,
		LastLoginTime:   &tm,
		LastLoginIp:     "0.0.0.0",
		LastLoginUagent: "golang",
		TokenUpdatedAt:  &tm,
		IsActive:        true,
		IsSuperuser:     true,
		Role:            types.EditorRole,
	}

	if err := db.Create(&user).Error; err != nil {
		log.Println(err)
	} else {
		log.Println("User created")
	}
}

func GenPassword() string {
	return password.MustGenerate(12, 6, 0, false, false)
}

func GenPasswordHash(password string) string {
	letters := []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	salt := make([]rune, 32)
	for i := range salt {
		nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		salt[i] = letters[nBig.Int64()]
	}

	return fmt.Sprintf("pbkdf2_sha256$260000$%s$%s",
		string(salt),
		base64.StdEncoding.EncodeToString(pbkdf2.Key([]byte(password), []byte(string(salt)), 260000, 32, sha256.New)),
	)
}

// ComparePassword сверяет пароль с хешем формата pbkdf2_sha256$iter$salt$hash.
func ComparePassword(hash string, password string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 4 || parts[0] != "pbkdf2_sha256" {
		return false
	}

	var iterations int
	if _, err := fmt.Sscanf(parts[1], "%d", &iterations); err != nil || iterations <= 0 {
		return false
	}

	expected, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return false
	}

	actual := pbkdf2.Key([]byte(password), []byte(parts[2]), iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(expected, actual) == 1
}

var (
	slugRegexp    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9]+`)
	translitTable = map[rune]string{
		'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
		'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
		'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
		'ф': "f", 'х': "h", 'ц': "c", 'ч': "ch", 'ш': "sh", 'щ': "sch",
		'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	}
)

// ValidSlug возвращает true, если строка является допустимым ЧПУ-идентификатором:
// латинские буквы в нижнем регистре, цифры и одиночные дефисы между ними.
func ValidSlug(slug string) bool {
	return slugRegexp.MatchString(slug)
}

// Slugify строит ЧПУ-идентификатор из произвольного заголовка:
// кириллица транслитерируется, остальное приводится к [a-z0-9-].
// Для заголовков без пригодных символов возвращается случайный суффикс.
func Slugify(title string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		if tr, ok := translitTable[r]; ok {
			sb.WriteString(tr)
			continue
		}
		sb.WriteRune(r)
	}

	slug := nonSlugChars.ReplaceAllString(sb.String(), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "post-" + strings.ToLower(password.MustGenerate(8, 4, 0, true, false))
	}
	return slug
}
