package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/aisa-it/aipress/aipress.go/internal/aipress/apierrors"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/dao"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/mcp/logger"
	"github.com/gofrs/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gorm.io/gorm"
)

// taxonomyTools содержит список MCP инструментов для работы с рубриками и метками.
var taxonomyTools = []Tool{
	{
		mcp.NewTool(
			"list_categories",
			mcp.WithDescription("Список рубрик с количеством привязанных записей"),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("search_query",
				mcp.Description("Поиск по названию рубрики (регистронезависимый)"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Лимит записей (по умолчанию 10, максимум 100)"),
			),
			mcp.WithNumber("offset",
				mcp.Description("Смещение для пагинации"),
			),
		),
		listCategories,
	},
	{
		mcp.NewTool(
			"create_category",
			mcp.WithDescription("Создание рубрики"),
			mcp.WithIdempotentHintAnnotation(false),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Название рубрики"),
			),
			mcp.WithString("slug",
				mcp.Description("ЧПУ-идентификатор; по умолчанию строится из названия"),
			),
			mcp.WithString("description",
				mcp.Description("Описание рубрики"),
			),
		),
		createCategory,
	},
	{
		mcp.NewTool(
			"delete_category",
			mcp.WithDescription("Удаление рубрики по ID или slug; привязки записей снимаются"),
			mcp.WithIdempotentHintAnnotation(false),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithString("category_id",
				mcp.Required(),
				mcp.Description("ID рубрики (UUID) или её slug"),
			),
		),
		deleteCategory,
	},
	{
		mcp.NewTool(
			"list_tags",
			mcp.WithDescription("Список меток с количеством привязанных записей"),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("search_query",
				mcp.Description("Поиск по названию метки (регистронезависимый)"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Лимит записей (по умолчанию 10, максимум 100)"),
			),
			mcp.WithNumber("offset",
				mcp.Description("Смещение для пагинации"),
			),
		),
		listTags,
	},
	{
		mcp.NewTool(
			"create_tag",
			mcp.WithDescription("Создание метки"),
			mcp.WithIdempotentHintAnnotation(false),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Название метки"),
			),
			mcp.WithString("slug",
				mcp.Description("ЧПУ-идентификатор; по умолчанию строится из названия"),
			),
		),
		createTag,
	},
	{
		mcp.NewTool(
			"delete_tag",
			mcp.WithDescription("Удаление метки по ID или slug; привязки записей снимаются"),
			mcp.WithIdempotentHintAnnotation(false),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithString("tag_id",
				mcp.Required(),
				mcp.Description("ID метки (UUID) или её slug"),
			),
		),
		deleteTag,
	},
	{
		mcp.NewTool(
			"set_post_terms",
			mcp.WithDescription("Привязка рубрик и меток к записи. Переданные списки заменяют текущие привязки целиком"),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(true),
			mcp.WithString("post_id",
				mcp.Required(),
				mcp.Description("ID записи (UUID) или её slug"),
			),
			mcp.WithArray("categories",
				mcp.Description("Список рубрик (UUID или slug); пустой список снимает все рубрики"),
				mcp.Items(map[string]interface{}{"type": "string"}),
			),
			mcp.WithArray("tags",
				mcp.Description("Список меток (UUID или slug); пустой список снимает все метки"),
				mcp.Items(map[string]interface{}{"type": "string"}),
			),
		),
		PostEditMiddleware(setPostTerms),
	},
}

// GetTaxonomyTools возвращает список MCP инструментов для работы с таксономией.
func GetTaxonomyTools(db *gorm.DB) []server.ServerTool {
	result := make([]server.ServerTool, 0, len(taxonomyTools))
	for _, t := range taxonomyTools {
		result = append(result, server.ServerTool{
			Tool:    t.Tool,
			Handler: WrapTool(db, t.Handler),
		})
	}
	return result
}

// termQuery строит условие поиска элемента таксономии по UUID либо slug.
func termQuery(db *gorm.DB, idOrSlug string) *gorm.DB {
	if _, err := uuid.FromString(idOrSlug); err == nil {
		return db.Where("id = ?", idOrSlug)
	}
	return db.Where("slug = ?", idOrSlug)
}

// listCategories возвращает страницу списка рубрик.
func listCategories(_ context.Context, db *gorm.DB, _ *dao.User, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	offset, limit := parsePagination(args)

	query := dao.CategoriesCountQuery(db).Order("categories.name")
	if v, ok := args["search_query"].(string); ok && v != "" {
		query = query.Where("lower(categories.name) LIKE ?", "%"+strings.ToLower(v)+"%")
	}

	var categories []dao.Category
	res, err := dao.PaginationRequest(offset, limit, query, &categories)
	if err != nil {
		return logger.Error(err), nil
	}

	result := make([]interface{}, 0, len(categories))
	for _, c := range categories {
		result = append(result, c.ToDTO())
	}
	res.Result = result

	return mcp.NewToolResultJSON(res)
}

// createCategory создает новую рубрику.
func createCategory(_ context.Context, db *gorm.DB, user *dao.User, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !user.CanManageContent() {
		return apierrors.ErrPostForbidden.MCPError(), nil
	}

	args := request.GetArguments()
	name, _ := args["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return apierrors.ErrCategoryNameRequired.MCPError(), nil
	}

	slug, _ := args["slug"].(string)
	if slug == "" {
		slug = dao.Slugify(name)
	} else if !dao.ValidSlug(slug) {
		return apierrors.ErrForbiddenSlug.MCPError(), nil
	}

	var count int64
	if err := db.Model(&dao.Category{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return logger.Error(err), nil
	}
	if count > 0 {
		return apierrors.ErrTermSlugConflict.MCPError(), nil
	}

	category := dao.Category{
		ID:   dao.GenUUID(),
		Name: name,
		Slug: slug,
	}
	category.Description, _ = args["description"].(string)

	if err := db.Create(&category).Error; err != nil {
		return logger.Error(err), nil
	}
	return mcp.NewToolResultJSON(category.ToDTO())
}

// deleteCategory удаляет рубрику вместе с привязками к записям.
func deleteCategory(_ context.Context, db *gorm.DB, user *dao.User, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !user.CanManageContent() {
		return apierrors.ErrPostForbidden.MCPError(), nil
	}

	idOrSlug, _ := request.GetArguments()["category_id"].(string)
	if idOrSlug == "" {
		return mcp.NewToolResultError("category_id обязателен"), nil
	}

	var category dao.Category
	if err := termQuery(db, idOrSlug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierrors.ErrCategoryNotFound.MCPError(), nil
		}
		return logger.Error(err), nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&category).Association("Posts").Clear(); err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		return logger.Error(err), nil
	}
	return mcp.NewToolResultText("рубрика удалена"), nil
}

// listTags возвращает страницу списка меток.
func listTags(_ context.Context, db *gorm.DB, _ *dao.User, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	offset, limit := parsePagination(args)

	query := dao.TagsCountQuery(db).Order("tags.name")
	if v, ok := args["search_query"].(string); ok && v != "" {
		query = query.Where("lower(tags.name) LIKE ?", "%"+strings.ToLower(v)+"%")
	}

	var tags []dao.Tag
	res, err := dao.PaginationRequest(offset, limit, query, &tags)
	if err != nil {
		return logger.Error(err), nil
	}

	result := make([]interface{}, 0, len(tags))
	for _, t := range tags {
		result = append(result, t.ToDTO())
	}
	res.Result = result

	return mcp.NewToolResultJSON(res)
}

// createTag создает новую метку.
func createTag(_ context.Context, db *gorm.DB, user *dao.User, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !user.CanManageContent() {
		return apierrors.ErrPostForbidden.MCPError(), nil
	}

	args := request.GetArguments()
	name, _ := args["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return apierrors.ErrTagNameRequired.MCPError(), nil
	}

	slug, _ := args["slug"].(string)
	if slug == "" {
		slug = dao.Slugify(name)
	} else if !dao.ValidSlug(slug) {
		return apierrors.ErrForbiddenSlug.MCPError(), nil
	}

	var count int64
	if err := db.Model(&dao.Tag{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return logger.Error(err), nil
	}
	if count > 0 {
		return apierrors.ErrTermSlugConflict.MCPError(), nil
	}

	tag := dao.Tag{
		ID:   dao.GenUUID(),
		Name: name,
		Slug: slug,
	}

	if err := db.Create(&tag).Error; err != nil {
		return logger.Error(err), nil
	}
	return mcp.NewToolResultJSON(tag.ToDTO())
}

// deleteTag удаляет метку вместе с привязками к записям.
func deleteTag(_ context.Context, db *gorm.DB, user *dao.User, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !user.CanManageContent() {
		return apierrors.ErrPostForbidden.MCPError(), nil
	}

	idOrSlug, _ := request.GetArguments()["tag_id"].(string)
	if idOrSlug == "" {
		return mcp.NewToolResultError("tag_id обязателен"), nil
	}

	var tag dao.Tag
	if err := termQuery(db, idOrSlug).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierrors.ErrTagNotFound.MCPError(), nil
		}
		return logger.Error(err), nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&tag).Association("Posts").Clear(); err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
	if err != nil {
		return logger.Error(err), nil
	}
	return mcp.NewToolResultText("метка удалена"), nil
}

// findCategories находит рубрики по списку UUID либо slug.
func findCategories(db *gorm.DB, refs []string) ([]dao.Category, *mcp.CallToolResult) {
	categories := make([]dao.Category, 0, len(refs))
	for _, ref := range refs {
		var category dao.Category
		if err := termQuery(db, ref).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierrors.ErrCategoryNotFound.MCPError(ref)
			}
			return nil, logger.Error(err)
		}
		categories = append(categories, category)
	}
	return categories, nil
}

// findTags находит метки по списку UUID либо slug.
func findTags(db *gorm.DB, refs []string) ([]dao.Tag, *mcp.CallToolResult) {
	tags := make([]dao.Tag, 0, len(refs))
	for _, ref := range refs {
		var tag dao.Tag
		if err := termQuery(db, ref).First(&tag).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierrors.ErrTagNotFound.MCPError(ref)
			}
			return nil, logger.Error(err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// setPostTerms заменяет привязки рубрик и меток записи на переданные.
// Непереданный список не трогает соответствующие привязки.
func setPostTerms(ctx context.Context, db *gorm.DB, _ *dao.User, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	postCtx := ctx.Value(postContextKey{}).(postContext)
	post := postCtx.Post
	args := request.GetArguments()

	_, hasCategories := args["categories"]
	_, hasTags := args["tags"]
	if !hasCategories && !hasTags {
		return apierrors.ErrPostUpdateNoFields.MCPError("categories или tags"), nil
	}

	var categories []dao.Category
	var tags []dao.Tag
	var errResult *mcp.CallToolResult

	if hasCategories {
		categories, errResult = findCategories(db, parseStringSlice(args, "categories"))
		if errResult != nil {
			return errResult, nil
		}
	}
	if hasTags {
		tags, errResult = findTags(db, parseStringSlice(args, "tags"))
		if errResult != nil {
			return errResult, nil
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if hasCategories {
			if err := tx.Model(&post).Association("Categories").Replace(categories); err != nil {
				return err
			}
		}
		if hasTags {
			if err := tx.Model(&post).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return logger.Error(err), nil
	}

	saved, err := dao.PostByIDOrSlug(db, post.ID.String())
	if err != nil || saved == nil {
		return logger.Error(err), nil
	}
	return mcp.NewToolResultJSON(saved.ToDTO())
}
