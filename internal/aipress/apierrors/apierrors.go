// Пакет содержит определения ошибок, используемых в приложении aipress для обработки различных ситуаций, возникающих при работе с базой данных, контентом и пользовательским интерфейсом.  Каждая ошибка имеет код, статус HTTP и описание, что позволяет удобно обрабатывать исключения и предоставлять информативные сообщения пользователю.
//
// Основные возможности:
//   - Определение типов ошибок, связанных с авторизацией, постами, страницами, рубриками, метками и блочными операциями.
//   - Предоставление кодов ошибок, соответствующих кодам HTTP статусов.
//   - Преобразование ошибок в формат результата MCP инструмента.
//   - Функция для форматирования сообщений об ошибках с использованием аргументов.
package apierrors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

// MCPError преобразует ошибку в результат MCP инструмента. Дополнительные подсказки добавляются к сообщению через ": ".
func (e DefinedError) MCPError(hints ...string) *mcp.CallToolResult {
	msg := e.Err
	if len(hints) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(hints, "; "))
	}
	return mcp.NewToolResultError(msg)
}

var (
	// 1*** - auth errors
	ErrFailedLogin              = DefinedError{Code: 1001, StatusCode: http.StatusUnauthorized, Err: "invalid credentials", RuErr: "Неправильный email или пароль"}
	ErrLoginCredentialsRequired = DefinedError{Code: 1002, StatusCode: http.StatusUnauthorized, Err: "both email and password are required", RuErr: "Поля email и пароль не могут быть пустыми"}
	ErrSignupDisabled           = DefinedError{Code: 1003, StatusCode: http.StatusForbidden, Err: "sign up disabled", RuErr: "Регистрация отключена администратором"}
	ErrUserAlreadyExist         = DefinedError{Code: 1004, Err: "user already exist", RuErr: "Пользователь с указанным email уже зарегистрирован в системе"}
	ErrTokenExpired             = DefinedError{Code: 1005, StatusCode: http.StatusUnauthorized, Err: "token expired", RuErr: "Срок действия токена истек"}
	ErrTokenInvalid             = DefinedError{Code: 1006, StatusCode: http.StatusUnauthorized, Err: "invalid token", RuErr: "Неверный токен"}

	// 2*** - post/page errors
	ErrPostNotFound        = DefinedError{Code: 2001, StatusCode: http.StatusNotFound, Err: "post not found", RuErr: "Пост не найден"}
	ErrPostForbidden       = DefinedError{Code: 2002, StatusCode: http.StatusForbidden, Err: "not have permissions to perform this action", RuErr: "Недостаточно прав для совершения действия"}
	ErrPostTitleRequired   = DefinedError{Code: 2003, StatusCode: http.StatusBadRequest, Err: "post must have a title", RuErr: "Поле заголовок поста не может быть пустым"}
	ErrPostSlugConflict    = DefinedError{Code: 2004, StatusCode: http.StatusConflict, Err: "post with that slug already exists", RuErr: "Пост с таким идентификатором уже существует"}
	ErrForbiddenSlug       = DefinedError{Code: 2005, StatusCode: http.StatusBadRequest, Err: "forbidden slug", RuErr: "Идентификатор содержит недопустимые символы"}
	ErrInvalidPostType     = DefinedError{Code: 2006, StatusCode: http.StatusBadRequest, Err: "invalid post type", RuErr: "Указан некорректный тип записи"}
	ErrInvalidPostStatus   = DefinedError{Code: 2007, StatusCode: http.StatusBadRequest, Err: "invalid post status", RuErr: "Указан некорректный статус записи"}
	ErrScheduleAtRequired  = DefinedError{Code: 2008, StatusCode: http.StatusBadRequest, Err: "schedule_at is required for scheduled posts", RuErr: "Для отложенной публикации необходимо указать время"}
	ErrPostUpdateNoFields  = DefinedError{Code: 2009, StatusCode: http.StatusBadRequest, Err: "at least one field to update is required", RuErr: "Необходимо указать хотя бы одно поле для обновления"}

	// 3*** - taxonomy errors
	ErrCategoryNotFound     = DefinedError{Code: 3001, StatusCode: http.StatusNotFound, Err: "category not found", RuErr: "Рубрика не найдена"}
	ErrTagNotFound          = DefinedError{Code: 3002, StatusCode: http.StatusNotFound, Err: "tag not found", RuErr: "Метка не найдена"}
	ErrCategoryNameRequired = DefinedError{Code: 3003, StatusCode: http.StatusBadRequest, Err: "category must have a name", RuErr: "Поле имя рубрики не может быть пустым"}
	ErrTagNameRequired      = DefinedError{Code: 3004, StatusCode: http.StatusBadRequest, Err: "tag must have a name", RuErr: "Поле имя метки не может быть пустым"}
	ErrTermSlugConflict     = DefinedError{Code: 3005, StatusCode: http.StatusConflict, Err: "term with that slug already exists", RuErr: "Элемент таксономии с таким идентификатором уже существует"}

	// 4*** - block operation errors
	ErrOperationRequired     = DefinedError{Code: 4001, StatusCode: http.StatusBadRequest, Err: "operation is required", RuErr: "Не указана операция над блоками"}
	ErrUnknownOperation      = DefinedError{Code: 4002, StatusCode: http.StatusBadRequest, Err: "unknown operation", RuErr: "Неизвестная операция над блоками"}
	ErrContentRequired       = DefinedError{Code: 4003, StatusCode: http.StatusBadRequest, Err: "content is required for this operation", RuErr: "Для этой операции необходимо поле content"}
	ErrIndexRequired         = DefinedError{Code: 4004, StatusCode: http.StatusBadRequest, Err: "index is required for this operation", RuErr: "Для этой операции необходимо поле index"}
	ErrBlockIndexOutOfRange  = DefinedError{Code: 4005, StatusCode: http.StatusBadRequest, Err: "block index out of range", RuErr: "Индекс блока выходит за границы документа"}

	// 9*** - generic errors
	ErrGeneric       = DefinedError{Code: 9001, StatusCode: http.StatusBadRequest, Err: "generic error", RuErr: "Непредвиденная ошибка"}
	ErrEntityToLarge = DefinedError{Code: 9002, StatusCode: http.StatusRequestEntityTooLarge, Err: "entity too large", RuErr: "Превышен допустимый размер данных"}
)

// WithFormattedMessage возвращает копию ошибки с сообщением, отформатированным с использованием переданных аргументов.
func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	e.Err = fmt.Sprintf(e.Err, args...)
	if e.RuErr != "" {
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	}
	return e
}
