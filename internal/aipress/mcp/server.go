package mcp

import (
	"context"
	"log/slog"

	"github.com/aisa-it/aipress/aipress.go/internal/aipress/mcp/tools"
	"github.com/labstack/echo/v4"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gorm.io/gorm"
)

// mcpInstructions содержит описание MCP сервера для LLM-моделей.
const mcpInstructions = `MCP сервер для управления контентом системы АИПресс

## Структура данных

### Сущности
- Post (запись) — пост или страница с заголовком, slug и блочным содержимым
- Category (рубрика) и Tag (метка) — таксономия записей

### Роли пользователей (role)
- 5 (Reader) — только чтение опубликованного
- 10 (Author) — создание и редактирование собственных записей
- 15 (Editor) — полный доступ к контенту и таксономии

### Статусы записей (status)
- draft — черновик, виден автору и редакторам
- published — опубликована
- scheduled — отложенная публикация в момент schedule_at

## Блочная разметка
Содержимое записи состоит из блоков, оформленных HTML-комментариями:
- парный блок: <!-- core/paragraph {"key":"value"} -->текст<!-- /core/paragraph -->
- самозакрывающийся блок: <!-- core/separator /-->
Атрибуты блока — JSON-объект между именем и концом разделителя.

Структуру блоков записи возвращает get_post_blocks: каждый блок имеет
index (позиция на своем уровне, пересчитывается при каждом чтении),
blockName, attrs, innerHTML и innerBlocks. Точечные правки выполняются
через edit_post_blocks операциями insert/remove/replace/replace_all
по индексам верхнего уровня.

## Идентификаторы записей
Записи можно получать по UUID (например: 595aaa46-f5ec-423d-8272-eb29b602ee08)
или по slug (например: moya-pervaya-zapis).
`

// NewMCPServer создаёт MCP сервер с доступом к БД.
func NewMCPServer(db *gorm.DB) echo.HandlerFunc {
	hooks := &server.Hooks{}
	hooks.AddOnError(ErrorLoggerHook)

	srv := server.NewMCPServer(
		"aipress-mcp",
		"version",
		server.WithInstructions(mcpInstructions),
		server.WithHooks(hooks),
	)
	srv.AddTools(tools.GetPostsTools(db)...)
	srv.AddTools(tools.GetBlocksTools(db)...)
	srv.AddTools(tools.GetTaxonomyTools(db)...)

	httpServer := server.NewStreamableHTTPServer(srv)
	return func(c echo.Context) error {
		sessionCtx := context.WithValue(c.Request().Context(), "user", c.Get("user"))
		httpServer.ServeHTTP(c.Response(), c.Request().WithContext(sessionCtx))
		return nil
	}
}

func ErrorLoggerHook(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
	user := ctx.Value("user")
	slog.Error("MCP Error", "user", user, "id", id, "method", method, "message", message, "err", err)
}
