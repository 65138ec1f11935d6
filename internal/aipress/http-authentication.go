// Пакет для аутентификации и авторизации пользователей в приложении AIPress.
// Обеспечивает безопасный доступ к ресурсам, используя JWT, куки и персональные токены.
//
// Основные возможности:
//   - Аутентификация пользователей по email и паролю.
//   - Генерация и проверка токенов доступа (JWT).
//   - Доступ по персональному токену (Bearer) для интеграций и MCP клиентов.
//   - Регистрация новых пользователей (если включена).
package aipress

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aisa-it/aipress/aipress.go/internal/aipress/apierrors"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/dao"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

// Срок жизни токена доступа
const accessTokenExpiresPeriod = 24 * time.Hour

type Authentication struct {
	db     *gorm.DB
	secret []byte
}

type Token struct {
	SignedString string
	Type         string
	JWT          *jwt.Token
}

type AuthContext struct {
	echo.Context
	User        *dao.User
	AccessToken *Token
	TokenAuth   bool
}

type AuthConfig struct {
	Secret  []byte
	DB      *gorm.DB
	Skipper middleware.Skipper
}

// AuthMiddleware аутентифицирует запрос по персональному токену (Bearer)
// либо по JWT из заголовка Authorization или куки access_token.
// Аутентифицированный пользователь кладется в контекст под ключом "user".
func AuthMiddleware(config AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == "OPTIONS" {
				return c.NoContent(http.StatusOK)
			}

			if config.Skipper != nil && config.Skipper(c) {
				return next(c)
			}

			accessToken := new(Token)

			schema, tokenString, ok := strings.Cut(c.Request().Header.Get("Authorization"), " ")
			if ok {
				accessToken.Type = strings.TrimSpace(schema)
				accessToken.SignedString = strings.TrimSpace(tokenString)
			} else {
				// Cookie token
				accessCookie, err := c.Cookie("access_token")
				if err != nil || accessCookie == nil {
					return EErrorDefined(c, apierrors.ErrTokenInvalid)
				}
				accessToken.Type = "Cookies"
				accessToken.SignedString = accessCookie.Value
			}

			// Персональный токен
			if accessToken.Type == "Basic" || accessToken.Type == "Bearer" {
				user, err := dao.UserByAuthToken(config.DB, accessToken.SignedString)
				if err != nil {
					return EError(c, err)
				}
				if user != nil {
					if err := dao.UpdateUserLastActivityTime(config.DB, user); err != nil {
						EError(c, err)
					}
					c.Set("user", user)
					return next(AuthContext{c, user, accessToken, true})
				}
			}

			keyFunc := func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return config.Secret, nil
			}

			var parseError error
			accessToken.JWT, parseError = jwt.Parse(accessToken.SignedString, keyFunc)
			if parseError != nil {
				if errors.Is(parseError, jwt.ErrTokenExpired) {
					return EErrorDefined(c, apierrors.ErrTokenExpired)
				}
				return EErrorDefined(c, apierrors.ErrTokenInvalid)
			}

			claims, ok := accessToken.JWT.Claims.(jwt.MapClaims)
			if !ok || !accessToken.JWT.Valid {
				return EErrorDefined(c, apierrors.ErrTokenInvalid)
			}

			userId, ok := claims["user_id"].(string)
			if !ok {
				return EErrorDefined(c, apierrors.ErrTokenInvalid)
			}

			user := new(dao.User)
			if err := config.DB.Where("id = ?", userId).First(user).Error; err != nil {
				return EErrorDefined(c, apierrors.ErrTokenInvalid)
			}

			if !user.IsActive {
				return EErrorDefined(c, apierrors.ErrTokenInvalid)
			}

			if err := dao.UpdateUserLastActivityTime(config.DB, user); err != nil {
				EError(c, err)
			}

			c.Set("user", user)
			return next(AuthContext{c, user, accessToken, false})
		}
	}
}

// AddAuthenticationServices регистрирует публичные маршруты аутентификации.
func AddAuthenticationServices(db *gorm.DB, g *echo.Echo, secret []byte) *Authentication {
	ret := &Authentication{db, secret}

	g.POST("api/sign-in/", ret.emailLogin)
	g.POST("api/sign-up/", ret.signUp)
	return ret
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// issueAccessToken выпускает JWT доступа для пользователя.
func (a *Authentication) issueAccessToken(user *dao.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID.String(),
		"iat":     now.Unix(),
		"exp":     now.Add(accessTokenExpiresPeriod).Unix(),
	})
	return token.SignedString(a.secret)
}

// emailLogin аутентифицирует пользователя по email и паролю.
// Возвращает токен доступа и информацию о пользователе, ставит куку access_token.
func (a *Authentication) emailLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}

	if req.Email == "" || req.Password == "" {
		return EErrorDefined(c, apierrors.ErrLoginCredentialsRequired)
	}

	var user dao.User
	if err := a.db.Where("email = ?", strings.ToLower(req.Email)).Where("is_active = true").First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EErrorDefined(c, apierrors.ErrFailedLogin)
		}
		return EError(c, err)
	}

	if !dao.ComparePassword(user.Password, req.Password) {
		return EErrorDefined(c, apierrors.ErrFailedLogin)
	}

	signed, err := a.issueAccessToken(&user)
	if err != nil {
		return EError(c, err)
	}

	now := time.Now()
	user.LastLoginTime = &now
	user.LastLoginIp = c.RealIP()
	user.LastLoginUagent = c.Request().UserAgent()
	if err := a.db.Model(&user).
		Select("LastLoginTime", "LastLoginIp", "LastLoginUagent").
		Updates(&user).Error; err != nil {
		slog.Error("Update last login info", "userId", user.ID, "err", err)
	}

	c.SetCookie(&http.Cookie{
		Name:     "access_token",
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(accessTokenExpiresPeriod),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"access_token": signed,
		"user":         user.ToDTO(),
	})
}

type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// signUp регистрирует нового пользователя с ролью автора.
func (a *Authentication) signUp(c echo.Context) error {
	if cfg == nil || !cfg.SignUpEnable {
		return EErrorDefined(c, apierrors.ErrSignupDisabled)
	}

	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		return EError(c, err)
	}

	if req.Email == "" || req.Password == "" || !ValidateEmail(req.Email) {
		return EErrorDefined(c, apierrors.ErrLoginCredentialsRequired)
	}
	email := strings.ToLower(req.Email)

	var count int64
	if err := a.db.Model(&dao.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return EError(c, err)
	}
	if count > 0 {
		return EErrorDefined(c, apierrors.ErrUserAlreadyExist)
	}

	token := dao.GenPassword() + dao.GenPassword()
	user := dao.User{
		ID:        dao.GenUUID(),
		Email:     email,
		Password:  dao.GenPasswordHash(req.Password),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		AuthToken: &token,
		IsActive:  true,
		Role:      types.AuthorRole,
	}

	if err := a.db.Create(&user).Error; err != nil {
		return EError(c, err)
	}

	return c.JSON(http.StatusCreated, user.ToDTO())
}
