// Пакет aipress предоставляет основные компоненты системы управления контентом:
// HTTP сервер, аутентификацию, MCP поверхность для автоматизированных агентов
// и фоновые задачи обслуживания контента.
//
// Основные возможности:
//   - Управление записями (постами и страницами) с блочной разметкой.
//   - Таксономия: рубрики и метки записей.
//   - MCP сервер для доступа агентов к операциям над контентом.
//   - Отложенная публикация записей по расписанию.
package aipress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aisa-it/aipress/aipress.go/internal/aipress/apierrors"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/config"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/cronmanager"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/dao"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/maintenance"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/mcp"
	"github.com/aisa-it/aipress/aipress.go/internal/aipress/types"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type Services struct {
	db *gorm.DB
}

var cfg *config.Config
var appVersion string

// ServerHeader middleware adds a `Server` header to the response.
func ServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "AIPress")
		return next(c)
	}
}

func Server(db *gorm.DB, c *config.Config, version string) {
	cfg = c
	appVersion = version

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		// Ignore 404
		if code == http.StatusNotFound {
			c.NoContent(http.StatusNotFound)
			return
		}
		slog.Error("Unhandled error in endpoint", "url", c.Request().URL, "err", err)
		EErrorMsgStatus(c, nil, code)
	}

	jobRegistry := cronmanager.JobRegistry{
		"publish_scheduled": cronmanager.Job{
			Func:     maintenance.NewPublisher(db).PublishScheduled,
			Schedule: fmt.Sprintf("*/%d * * * *", cfg.PublisherPeriod),
		},
		"posts_clean": cronmanager.Job{
			Func:     maintenance.NewPostsCleaner(db).CleanPosts,
			Schedule: "0 2 * * *", // daily at 02:00
		},
	}

	cronManager := cronmanager.NewCronManager(jobRegistry)
	if err := cronManager.LoadJobs(); err != nil {
		slog.Error("Failed to load cron jobs", "err", err)
		os.Exit(1)
	}

	s := &Services{db: db}

	cronManager.Start()

	// Create a channel to handle termination signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down gracefully, press Ctrl+C again to force")
		cronManager.Stop()
		os.Exit(0)
	}()

	// Global middlewares
	e.Use(ServerHeader)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit("5M"))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     9,
		MinLength: 2048,
	}))
	e.Use(echoprometheus.NewMiddleware("aipress"))
	e.Pre(middleware.AddTrailingSlash())

	e.Validator = NewRequestValidator()

	AddAuthenticationServices(db, e, []byte(cfg.SecretKey))

	apiGroup := e.Group("/api/")

	authGroup := apiGroup.Group("auth/",
		AuthMiddleware(AuthConfig{
			Secret: []byte(cfg.SecretKey),
			DB:     db,
		}),
	)

	// MCP endpoint для автоматизированных агентов
	authGroup.Any("mcp/", mcp.NewMCPServer(db))

	AddUserServices(authGroup)
	s.AddPostServices(authGroup)

	// Version endpoint
	apiGroup.GET("version/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"version": version,
			"sign_up": cfg.SignUpEnable,
			"demo":    cfg.Demo,
		})
	})

	// Health endpoint
	apiGroup.GET("_health/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// Prometheus metrics
	if !cfg.MetricsDisabled {
		go func() {
			bootTimeGauge := prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "aipress",
				Name:      "boot_time",
				Help:      "Server startup time",
			})
			bootTimeGauge.Set(float64(time.Now().UnixMilli()))

			if err := prometheus.Register(bootTimeGauge); err != nil {
				slog.Error("Register boot time gauge", "err", err)
				os.Exit(1)
			}

			metrics := echo.New()
			metrics.HideBanner = true
			metrics.GET("/metrics", echoprometheus.NewHandler())
			if err := metrics.Start(":2112"); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server fail", "err", err)
			}
		}()
	}

	if err := e.Start(":8080"); err != nil {
		slog.Error("Server fail", "err", err)
	}
}

// AddUserServices регистрирует маршруты текущего пользователя.
func AddUserServices(g *echo.Group) {
	g.GET("users/me/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, c.(AuthContext).User.ToDTO())
	})
}

// AddPostServices регистрирует HTTP маршруты чтения контента.
// Изменение контента выполняется через MCP инструменты.
func (s *Services) AddPostServices(g *echo.Group) {
	g.GET("posts/", s.getPostList)
	g.GET("posts/:postIdOrSlug/", s.getPost)
}

// getPostList возвращает страницу списка записей.
func (s *Services) getPostList(c echo.Context) error {
	user := c.(AuthContext).User

	offset := 0
	limit := 10
	if err := echo.QueryParamsBinder(c).
		Int("offset", &offset).
		Int("limit", &limit).
		BindError(); err != nil {
		return EError(c, err)
	}
	if limit > 100 {
		limit = 100
	}

	query := s.db.Model(&dao.Post{}).Preload("Author").Order("posts.created_at DESC")
	if !user.CanManageContent() {
		query = query.Where("posts.status = ? OR posts.author_id = ?", types.StatusPublished, user.ID.String())
	}

	var posts []dao.Post
	res, err := dao.PaginationRequest(offset, limit, query, &posts)
	if err != nil {
		return EError(c, err)
	}

	result := make([]interface{}, 0, len(posts))
	for i := range posts {
		result = append(result, posts[i].ToLightDTO())
	}
	res.Result = result

	return c.JSON(http.StatusOK, res)
}

// getPost возвращает запись по UUID или slug.
func (s *Services) getPost(c echo.Context) error {
	user := c.(AuthContext).User

	post, err := dao.PostByIDOrSlug(s.db, c.Param("postIdOrSlug"))
	if err != nil {
		return EError(c, err)
	}
	if post == nil {
		return EErrorDefined(c, apierrors.ErrPostNotFound)
	}

	if post.Status != types.StatusPublished && !user.CanEditPost(post) {
		return EErrorDefined(c, apierrors.ErrPostForbidden)
	}

	return c.JSON(http.StatusOK, post.ToDTO())
}
