// Пакет tools содержит MCP инструменты для работы с контентом:
// записями, их блочной структурой и таксономией.
// Предоставляет функциональность для чтения и изменения контента
// с проверкой прав доступа.
package tools

import (
	"context"
	"strings"
	"time"

	"github.com/aisa-it/aipress/aipress.go/internal/aipress/apierrors"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/dao"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/mcp/logger"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/types"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// postContextKey - типизированный ключ для контекста записи.
type postContextKey struct{}

// postContext хранит запись, загруженную middleware проверки прав.
type postContext struct {
	Post dao.Post
}

const maxTitleLen = 200

// postsTools содержит список MCP инструментов для работы с записями.
var postsTools = []Tool{
	{
		mcp.NewTool(
			"get_post",
			mcp.WithDescription("Получение записи (поста или страницы) по ID или slug"),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("post_id",
				mcp.Required(),
				mcp.Description("ID записи (UUID) или её slug"),
			),
		),
		PostReadMiddleware(getPost),
	},
	{
		mcp.NewTool(
			"list_posts",
			mcp.WithDescription("Список записей с фильтрацией и пагинацией"),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("type",
				mcp.Description("Фильтр по типу записи"),
				mcp.Enum(types.PostType, types.PageType),
			),
			mcp.WithString("status",
				mcp.Description("Фильтр по статусу записи"),
				mcp.Enum(types.StatusDraft, types.StatusPublished, types.StatusScheduled),
			),
			mcp.WithString("search_query",
				mcp.Description("Поиск по заголовку и выдержке (регистронезависимый)"),
			),
			mcp.WithString("category",
				mcp.Description("Фильтр по slug рубрики"),
			),
			mcp.WithString("tag",
				mcp.Description("Фильтр по slug метки"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Лимит записей (по умолчанию 10, максимум 100)"),
			),
			mcp.WithNumber("offset",
				mcp.Description("Смещение для пагинации"),
			),
		),
		listPosts,
	},
	{
		mcp.NewTool(
			"create_post",
			mcp.WithDescription("Создание записи (поста или страницы)"),
			mcp.WithIdempotentHintAnnotation(false),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("Заголовок записи (макс. 200 символов)"),
			),
			mcp.WithString("content",
				mcp.Description("Содержимое в блочной разметке: блоки оформляются HTML-комментариями вида <!-- core/paragraph -->текст<!-- /core/paragraph -->"),
			),
			mcp.WithString("type",
				mcp.Description("Тип записи: post (по умолчанию) или page"),
				mcp.Enum(types.PostType, types.PageType),
			),
			mcp.WithString("status",
				mcp.Description("Статус записи: draft (по умолчанию), published или scheduled"),
				mcp.Enum(types.StatusDraft, types.StatusPublished, types.StatusScheduled),
			),
			mcp.WithString("slug",
				mcp.Description("ЧПУ-идентификатор записи; по умолчанию строится из заголовка"),
			),
			mcp.WithString("schedule_at",
				mcp.Description("Время отложенной публикации в формате RFC3339; обязательно для статуса scheduled"),
			),
		),
		createPost,
	},
	{
		mcp.NewTool(
			"update_post",
			mcp.WithDescription("Обновление записи по ID или slug"),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithString("post_id",
				mcp.Required(),
				mcp.Description("ID записи (UUID) или её slug"),
			),
			mcp.WithString("title",
				mcp.Description("Новый заголовок записи"),
			),
			mcp.WithString("content",
				mcp.Description("Новое содержимое в блочной разметке (заменяет документ целиком; для точечных правок используйте edit_post_blocks)"),
			),
			mcp.WithString("status",
				mcp.Description("Новый статус записи"),
				mcp.Enum(types.StatusDraft, types.StatusPublished, types.StatusScheduled),
			),
			mcp.WithString("slug",
				mcp.Description("Новый ЧПУ-идентификатор записи"),
			),
			mcp.WithString("schedule_at",
				mcp.Description("Время отложенной публикации в формате RFC3339"),
			),
		),
		PostEditMiddleware(updatePost),
	},
	{
		mcp.NewTool(
			"delete_post",
			mcp.WithDescription("Удаление записи по ID или slug"),
			mcp.WithIdempotentHintAnnotation(false),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithString("post_id",
				mcp.Required(),
				mcp.Description("ID записи (UUID) или её slug"),
			),
		),
		PostEditMiddleware(deletePost),
	},
}

// GetPostsTools возвращает список MCP инструментов для работы с записями.
func GetPostsTools(db *gorm.DB) []server.ServerTool {
	result := make([]server.ServerTool, 0, len(postsTools))
	for _, t := range postsTools {
		result = append(result, server.ServerTool{
			Tool:    t.Tool,
			Handler: WrapTool(db, t.Handler),
		})
	}
	return result
}

// parsePostId извлекает post_id из параметров запроса.
func parsePostId(request mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	idRaw, ok := request.GetArguments()["post_id"]
	if !ok {
		return "", mcp.NewToolResultError("post_id обязателен")
	}
	idStr, ok := idRaw.(string)
	if !ok || idStr == "" {
		return "", mcp.NewToolResultError("post_id должен быть непустой строкой")
	}
	return idStr, nil
}

// canReadPost проверяет право пользователя на чтение записи:
// опубликованные записи доступны всем, остальные - автору и редакторам.
func canReadPost(post *dao.Post, user *dao.User) bool {
	if post.Status == types.StatusPublished {
		return true
	}
	return user.CanEditPost(post)
}

// PostReadMiddleware находит запись по post_id и проверяет право на чтение.
// Загруженная запись сохраняется в контексте для обработчика.
func PostReadMiddleware(handler ToolHandler) ToolHandler {
	return func(ctx context.Context, db *gorm.DB, user *dao.User, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		idOrSlug, errResult := parsePostId(request)
		if errResult != nil {
			return errResult, nil
		}

		post, err := dao.PostByIDOrSlug(db, idOrSlug)
		if err != nil {
			return logger.Error(err), nil
		}
		if post == nil {
			return apierrors.ErrPostNotFound.MCPError(), nil
		}

		if !canReadPost(post, user) {
			return apierrors.ErrPostForbidden.MCPError(), nil
		}

		ctx = context.WithValue(ctx, postContextKey{}, postContext{Post: *post})
		return handler(ctx, db, user, request)
	}
}

// PostEditMiddleware находит запись по post_id и проверяет право на изменение.
func PostEditMiddleware(handler ToolHandler) ToolHandler {
	return func(ctx context.Context, db *gorm.DB, user *dao.User, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		idOrSlug, errResult := parsePostId(request)
		if errResult != nil {
			return errResult, nil
		}

		post, err := dao.PostByIDOrSlug(db, idOrSlug)
		if err != nil {
			return logger.Error(err), nil
		}
		if post == nil {
			return apierrors.ErrPostNotFound.MCPError(), nil
		}

		if !user.CanEditPost(post) {
			return apierrors.ErrPostForbidden.MCPError(), nil
		}

		ctx = context.WithValue(ctx, postContextKey{}, postContext{Post: *post})
		return handler(ctx, db, user, request)
	}
}

// getPost возвращает полную информацию о записи.
func getPost(ctx context.Context, _ *gorm.DB, _ *dao.User, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	postCtx := ctx.Value(postContextKey{}).(postContext)
	return mcp.NewToolResultJSON(postCtx.Post.ToDTO())
}

// listPosts возвращает страницу списка записей с фильтрацией.
// Пользователи без прав редактора видят только опубликованное и свои записи.
func listPosts(_ context.Context, db *gorm.DB, user *dao.User, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	offset, limit := parsePagination(args)

	query := db.Model(&dao.Post{}).Preload("Author").Order("posts.created_at DESC")

	if !user.CanManageContent() {
		query = query.Where("posts.status = ? OR posts.author_id = ?", types.StatusPublished, user.ID.String())
	}

	if v, ok := args["type"].(string); ok && v != "" {
		if !types.ValidPostType(v) {
			return apierrors.ErrInvalidPostType.MCPError(), nil
		}
		query = query.Where("posts.type = ?", v)
	}
	if v, ok := args["status"].(string); ok && v != "" {
		if !types.ValidPostStatus(v) {
			return apierrors.ErrInvalidPostStatus.MCPError(), nil
		}
		query = query.Where("posts.status = ?", v)
	}
	if v, ok := args["search_query"].(string); ok && v != "" {
		pattern := "%" + strings.ToLower(v) + "%"
		query = query.Where("lower(posts.title) LIKE ? OR lower(posts.excerpt) LIKE ?", pattern, pattern)
	}
	if v, ok := args["category"].(string); ok && v != "" {
		query = query.
			Joins("JOIN post_categories pc ON pc.post_id = posts.id").
			Joins("JOIN categories c ON c.id = pc.category_id").
			Where("c.slug = ?", v)
	}
	if v, ok := args["tag"].(string); ok && v != "" {
		query = query.
			Joins("JOIN post_tags pt ON pt.post_id = posts.id").
			Joins("JOIN tags t ON t.id = pt.tag_id").
			Where("t.slug = ?", v)
	}

	var posts []dao.Post
	res, err := dao.PaginationRequest(offset, limit, query, &posts)
	if err != nil {
		return logger.Error(err), nil
	}

	result := make([]interface{}, 0, len(posts))
	for i := range posts {
		result = append(result, posts[i].ToLightDTO())
	}
	res.Result = result

	return mcp.NewToolResultJSON(res)
}

// createPostParams содержит параметры для создания записи.
type createPostParams struct {
	title      string
	content    string
	postType   string
	status     string
	slug       string
	scheduleAt *time.Time
}

// parseCreatePostParams извлекает и валидирует параметры из запроса.
func parseCreatePostParams(args map[string]interface{}) (*createPostParams, *mcp.CallToolResult) {
	title, ok := args["title"].(string)
	if !ok {
		return nil, apierrors.ErrPostTitleRequired.MCPError()
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apierrors.ErrPostTitleRequired.MCPError()
	}
	if len([]rune(title)) > maxTitleLen {
		return nil, mcp.NewToolResultError("title не должен превышать 200 символов")
	}

	params := &createPostParams{
		title:    title,
		postType: types.PostType,
		status:   types.StatusDraft,
	}
	params.content, _ = args["content"].(string)
	params.slug, _ = args["slug"].(string)

	if v, ok := args["type"].(string); ok && v != "" {
		if !types.ValidPostType(v) {
			return nil, apierrors.ErrInvalidPostType.MCPError()
		}
		params.postType = v
	}
	if v, ok := args["status"].(string); ok && v != "" {
		if !types.ValidPostStatus(v) {
			return nil, apierrors.ErrInvalidPostStatus.MCPError()
		}
		params.status = v
	}

	if v, ok := args["schedule_at"].(string); ok && v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, mcp.NewToolResultError("некорректный формат schedule_at (ожидается RFC3339)")
		}
		params.scheduleAt = &t
	}
	if params.status == types.StatusScheduled && params.scheduleAt == nil {
		return nil, apierrors.ErrScheduleAtRequired.MCPError()
	}

	return params, nil
}

// resolveSlug валидирует заданный slug либо строит его из заголовка,
// и проверяет уникальность среди неудаленных записей.
func resolveSlug(db *gorm.DB, slug string, title string, excludeId string) (string, *mcp.CallToolResult) {
	if slug == "" {
		slug = dao.Slugify(title)
	} else if !dao.ValidSlug(slug) {
		return "", apierrors.ErrForbiddenSlug.MCPError()
	}

	query := db.Model(&dao.Post{}).Where("slug = ?", slug)
	if excludeId != "" {
		query = query.Where("id <> ?", excludeId)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return "", logger.Error(err)
	}
	if count > 0 {
		return "", apierrors.ErrPostSlugConflict.MCPError()
	}
	return slug, nil
}

// createPost создает новую запись.
func createPost(_ context.Context, db *gorm.DB, user *dao.User, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !user.CanWrite() {
		return apierrors.ErrPostForbidden.MCPError(), nil
	}

	params, errResult := parseCreatePostParams(request.GetArguments())
	if errResult != nil {
		return errResult, nil
	}

	slug, errResult := resolveSlug(db, params.slug, params.title, "")
	if errResult != nil {
		return errResult, nil
	}

	post := dao.Post{
		ID:         dao.GenUUID(),
		AuthorId:   user.ID.String(),
		Title:      params.title,
		Slug:       slug,
		Type:       params.postType,
		Status:     params.status,
		Content:    types.BlockMarkup{Body: params.content},
		ScheduleAt: params.scheduleAt,
	}
	if post.Status == types.StatusPublished {
		now := time.Now()
		post.PublishedAt = &now
	}

	if err := db.Create(&post).Error; err != nil {
		return logger.Error(err), nil
	}

	created, err := dao.PostByIDOrSlug(db, post.ID.String())
	if err != nil || created == nil {
		return logger.Error(err), nil
	}
	return mcp.NewToolResultJSON(created.ToDTO())
}

// updatePost изменяет поля существующей записи.
func updatePost(ctx context.Context, db *gorm.DB, _ *dao.User, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	postCtx := ctx.Value(postContextKey{}).(postContext)
	post := postCtx.Post
	args := request.GetArguments()

	updated := false

	if v, ok := args["title"].(string); ok {
		v = strings.TrimSpace(v)
		if v == "" {
			return apierrors.ErrPostTitleRequired.MCPError(), nil
		}
		if len([]rune(v)) > maxTitleLen {
			return mcp.NewToolResultError("title не должен превышать 200 символов"), nil
		}
		post.Title = v
		updated = true
	}

	if v, ok := args["content"].(string); ok {
		post.Content = types.BlockMarkup{Body: types.RemoveInvisibleChars(v)}
		updated = true
	}

	if v, ok := args["slug"].(string); ok && v != "" {
		slug, errResult := resolveSlug(db, v, post.Title, post.ID.String())
		if errResult != nil {
			return errResult, nil
		}
		post.Slug = slug
		updated = true
	}

	if v, ok := args["schedule_at"].(string); ok && v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return mcp.NewToolResultError("некорректный формат schedule_at (ожидается RFC3339)"), nil
		}
		post.ScheduleAt = &t
		updated = true
	}

	if v, ok := args["status"].(string); ok && v != "" {
		if !types.ValidPostStatus(v) {
			return apierrors.ErrInvalidPostStatus.MCPError(), nil
		}
		if v == types.StatusScheduled && post.ScheduleAt == nil {
			return apierrors.ErrScheduleAtRequired.MCPError(), nil
		}
		if v == types.StatusPublished && post.PublishedAt == nil {
			now := time.Now()
			post.PublishedAt = &now
		}
		post.Status = v
		updated = true
	}

	if !updated {
		return apierrors.ErrPostUpdateNoFields.MCPError(), nil
	}

	// Привязки таксономии меняются отдельным инструментом
	if err := db.Omit(clause.Associations).Save(&post).Error; err != nil {
		return logger.Error(err), nil
	}

	saved, err := dao.PostByIDOrSlug(db, post.ID.String())
	if err != nil || saved == nil {
		return logger.Error(err), nil
	}
	return mcp.NewToolResultJSON(saved.ToDTO())
}

// deletePost удаляет запись (мягкое удаление).
func deletePost(ctx context.Context, db *gorm.DB, _ *dao.User, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	postCtx := ctx.Value(postContextKey{}).(postContext)

	if err := db.Delete(&postCtx.Post).Error; err != nil {
		return logger.Error(err), nil
	}
	return mcp.NewToolResultText("запись удалена"), nil
}
