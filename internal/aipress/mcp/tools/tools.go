package tools

import (
	"context"
	"errors"

	"github.com/aisa-it/aipress/aipress.go/internal/aipress/dao"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gorm.io/gorm"
)

// ToolHandler определяет сигнатуру функции-обработчика MCP инструмента.
// Получает контекст, соединение с БД, текущего пользователя и параметры запроса.
type ToolHandler func(ctx context.Context, db *gorm.DB, user *dao.User, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Tool представляет MCP инструмент с его обработчиком.
type Tool struct {
	Tool    mcp.Tool
	Handler ToolHandler
}

// WrapTool оборачивает обработчик инструмента, извлекая пользователя из контекста.
func WrapTool(db *gorm.DB, handler ToolHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userRaw := ctx.Value("user")
		if userRaw == nil {
			return nil, errors.New("user not provided")
		}
		user := userRaw.(*dao.User)
		return handler(ctx, db, user, request)
	}
}

// parsePagination извлекает offset/limit из параметров запроса.
// Лимит по умолчанию 10, максимум 100.
func parsePagination(args map[string]interface{}) (offset int, limit int) {
	limit = 10
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}
	if limit > 100 {
		limit = 100
	}
	if v, ok := args["offset"].(float64); ok && v > 0 {
		offset = int(v)
	}
	return offset, limit
}

// parseStringSlice извлекает массив строк из параметров запроса.
func parseStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	res := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			res = append(res, s)
		}
	}
	return res
}
