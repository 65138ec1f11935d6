package tools

import (
	"context"
	"math"

	"github.com/aisa-it/aipress/aipress.go/internal/aipress/blocks"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/dao"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/mcp/logger"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/types"
	"github.com/gofrs/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// blocksTools содержит список MCP инструментов для работы с блочной
// структурой записей.
var blocksTools = []Tool{
	{
		mcp.NewTool(
			"get_post_blocks",
			mcp.WithDescription("Получение блочной структуры записи: список блоков верхнего уровня с индексами, именами, атрибутами и вложенными блоками"),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("post_id",
				mcp.Required(),
				mcp.Description("ID записи (UUID) или её slug"),
			),
		),
		PostReadMiddleware(getPostBlocks),
	},
	{
		mcp.NewTool(
			"edit_post_blocks",
			mcp.WithDescription("Редактирование блоков записи по индексам верхнего уровня без пересылки всего документа. Индексы пересчитываются после каждой операции - сверяйтесь с актуальной структурой через get_post_blocks"),
			mcp.WithIdempotentHintAnnotation(false),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithString("post_id",
				mcp.Required(),
				mcp.Description("ID записи (UUID) или её slug"),
			),
			mcp.WithString("operation",
				mcp.Required(),
				mcp.Description("Операция над блоками"),
				mcp.Enum(blocks.OpReplaceAll, blocks.OpInsert, blocks.OpRemove, blocks.OpReplace),
			),
			mcp.WithString("content",
				mcp.Description("Блочная разметка: для insert и replace - вставляемые блоки, для replace_all - новый документ целиком"),
			),
			mcp.WithNumber("index",
				mcp.Description("Индекс блока верхнего уровня; для insert больше длины - добавление в конец, для remove и replace за границами - ошибка"),
			),
		),
		PostEditMiddleware(editPostBlocks),
	},
}

// GetBlocksTools возвращает список MCP инструментов для работы с блоками записей.
func GetBlocksTools(db *gorm.DB) []server.ServerTool {
	result := make([]server.ServerTool, 0, len(blocksTools))
	for _, t := range blocksTools {
		result = append(result, server.ServerTool{
			Tool:    t.Tool,
			Handler: WrapTool(db, t.Handler),
		})
	}
	return result
}

// blocksResult - ответ инструментов блочной структуры.
type blocksResult struct {
	PostId uuid.UUID             `json:"post_id"`
	Blocks []blocks.CleanedBlock `json:"blocks"`
}

// getPostBlocks возвращает очищенную блочную структуру записи.
func getPostBlocks(ctx context.Context, _ *gorm.DB, _ *dao.User, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	postCtx := ctx.Value(postContextKey{}).(postContext)

	return mcp.NewToolResultJSON(blocksResult{
		PostId: postCtx.Post.ID,
		Blocks: blocks.ReadBlocks(postCtx.Post.Content.Body),
	})
}

// parseOperation собирает операцию над блоками из параметров запроса.
// Отсутствующие поля остаются nil: их обязательность зависит от вида
// операции и проверяется при применении. Дробный index - ошибка,
// а не молчаливое усечение к соседнему блоку.
func parseOperation(args map[string]interface{}) (blocks.Operation, *mcp.CallToolResult) {
	var op blocks.Operation
	op.Kind, _ = args["operation"].(string)

	if v, ok := args["content"].(string); ok {
		content := types.RemoveInvisibleChars(v)
		op.Content = &content
	}
	if v, ok := args["index"].(float64); ok {
		if v != math.Trunc(v) {
			return op, mcp.NewToolResultError("index должен быть целым числом")
		}
		idx := int(v)
		op.Index = &idx
	}
	return op, nil
}

// editPostBlocks применяет одну операцию к блокам записи и сохраняет
// результат. Каждый вызов - полный цикл чтения-изменения-записи;
// при конкурирующих вызовах выигрывает последний сохранивший.
func editPostBlocks(ctx context.Context, db *gorm.DB, _ *dao.User, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	postCtx := ctx.Value(postContextKey{}).(postContext)
	post := postCtx.Post

	op, errResult := parseOperation(request.GetArguments())
	if errResult != nil {
		return errResult, nil
	}

	newText, err := blocks.Apply(post.Content.Body, op)
	if err != nil {
		return logger.Error(err), nil
	}

	post.Content = types.BlockMarkup{Body: newText}
	if err := db.Omit(clause.Associations).Save(&post).Error; err != nil {
		return logger.Error(err), nil
	}

	return mcp.NewToolResultJSON(blocksResult{
		PostId: post.ID,
		Blocks: blocks.ReadBlocks(newText),
	})
}
