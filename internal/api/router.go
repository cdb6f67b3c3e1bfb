package api

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ashifa-1/cms-backend/internal/api/handler"
	"github.com/ashifa-1/cms-backend/internal/api/middleware"
	"github.com/ashifa-1/cms-backend/internal/core/domain"
	"github.com/ashifa-1/cms-backend/internal/core/service"
	"github.com/ashifa-1/cms-backend/internal/infrastructure/cache"
	"github.com/ashifa-1/cms-backend/internal/infrastructure/config"
	"github.com/ashifa-1/cms-backend/internal/infrastructure/db/postgres"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(pool *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("cms"))

	// --- Dependencies ---
	userRepo := postgres.NewUserRepository(pool)
	postRepo := postgres.NewPostRepository(pool)
	postCache := cache.NewPostCache(rdb, cfg.CacheTTL, log)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL, cfg.BcryptCost)
	postService := service.NewPostService(postRepo, postCache, service.Pagination{
		DefaultLimit: cfg.PaginationDefaultLimit,
		MaxLimit:     cfg.PaginationMaxLimit,
	}, log)

	authHandler := handler.NewAuthHandler(authService)
	postHandler := handler.NewPostHandler(postService)
	publicHandler := handler.NewPublicHandler(postService)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Author routes (JWT + author role) ---
	authors := e.Group("/posts", middleware.Auth(cfg.JWTSecret), middleware.RBAC(domain.RoleAuthor))
	authors.POST("", postHandler.Create)
	authors.GET("", postHandler.ListMine)
	authors.GET("/:id", postHandler.Get)
	authors.PUT("/:id", postHandler.Update)
	authors.DELETE("/:id", postHandler.Delete)
	authors.POST("/:id/schedule", postHandler.Schedule)
	authors.POST("/:id/publish", postHandler.Publish)
	authors.POST("/:id/unschedule", postHandler.Unschedule)
	authors.GET("/:id/revisions", postHandler.ListRevisions)
	authors.POST("/:id/restore/:revision_id", postHandler.Restore)

	// --- Public routes ---
	e.GET("/public/posts", publicHandler.List)
	e.GET("/public/posts/:id_or_slug", publicHandler.Get)
	e.GET("/public/search", publicHandler.Search)

	// --- Media (uploads land on the shared volume out of band) ---
	e.Static("/media", cfg.UploadDir)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(pool, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
