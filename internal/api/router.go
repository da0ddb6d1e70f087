package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/opsdeck/platform/internal/api/handler"
	"github.com/opsdeck/platform/internal/api/middleware"
	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
	"github.com/opsdeck/platform/internal/core/service"
	"github.com/opsdeck/platform/internal/infrastructure/config"
	mongodb "github.com/opsdeck/platform/internal/infrastructure/db/mongo"
	rediscache "github.com/opsdeck/platform/internal/infrastructure/db/redis"
	"github.com/opsdeck/platform/internal/infrastructure/upload"
)

// Deps carries the externally-owned resources the router wires into
// handlers. The sync queue and activity log are constructed in main so their
// lifecycle (worker start/stop, snapshot on shutdown) stays with the process.
type Deps struct {
	DB       *mongo.Database
	Redis    *redis.Client
	Config   *config.Config
	Sync     ports.SyncQueue
	Activity ports.ActivityLog
	Logger   zerolog.Logger
}

// NewRouter builds the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("ops_platform"))

	cfg := deps.Config

	// --- Repositories ---
	userRepo := mongodb.NewUserRepository(deps.DB)
	clientRepo := mongodb.NewClientRepository(deps.DB)
	projectRepo := mongodb.NewProjectRepository(deps.DB)
	identityCache := rediscache.NewIdentityCache(deps.Redis, cfg.IdentityTTL, deps.Logger)

	// --- Services ---
	resolver := service.NewSlugResolverService(clientRepo, projectRepo, cfg.SlugCacheTTL, deps.Logger)
	gate := service.NewGate(clientRepo, projectRepo, resolver, deps.Activity, deps.Logger)
	userService := service.NewUserService(userRepo, identityCache, cfg.JWTSecret, cfg.TokenTTL, deps.Logger)
	projectService := service.NewProjectService(projectRepo, resolver, deps.Sync, deps.Logger)
	clientService := service.NewClientService(clientRepo, resolver, deps.Sync, deps.Logger)
	taskService := service.NewTaskService(projectRepo, deps.Logger)
	limiter := upload.NewLimiter(cfg.UploadSlots)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(userService, gate)
	resolveHandler := handler.NewResolveHandler(resolver, gate)
	projectHandler := handler.NewProjectHandler(projectService, gate)
	clientHandler := handler.NewClientHandler(clientService, gate)
	taskHandler := handler.NewTaskHandler(taskService, gate)
	uploadHandler := handler.NewUploadHandler(projectService, gate, limiter)
	userHandler := handler.NewUserHandler(userService, gate)
	activityHandler := handler.NewActivityHandler(deps.Activity, gate)
	webhookHandler := handler.NewWebhookHandler(cfg.WebhookSecret, deps.Logger)

	authn := middleware.Auth(cfg.JWTSecret, identityCache, userRepo)

	// --- Public routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/webhooks/crm", webhookHandler.CRM)

	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.DB, deps.Redis)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Authenticated routes ---
	auth := e.Group("", authn)
	auth.POST("/auth/register", authHandler.Register)
	auth.POST("/auth/change-password", authHandler.ChangePassword)

	auth.GET("/p/:slug", resolveHandler.Project)
	auth.GET("/c/:slug", resolveHandler.Client)

	auth.POST("/projects", projectHandler.Create)
	auth.GET("/projects/:id", projectHandler.Get)
	auth.POST("/projects/:id/clone", projectHandler.Clone)
	auth.PUT("/projects/:id/slug", projectHandler.Rename)
	auth.PUT("/projects/:id/access", projectHandler.SetAccess)
	auth.PUT("/projects/:id/status", projectHandler.SetStatus)

	auth.POST("/projects/:id/tasks", taskHandler.Add)
	auth.PATCH("/projects/:id/tasks", taskHandler.BulkUpdate)
	auth.DELETE("/projects/:id/tasks/:taskID", taskHandler.Delete)
	auth.POST("/projects/:id/tasks/delete", taskHandler.BulkDelete)

	auth.POST("/projects/:id/uploads", uploadHandler.Upload)

	auth.POST("/clients", clientHandler.Create)
	auth.GET("/clients", clientHandler.List)
	auth.PUT("/clients/:id/slug", clientHandler.Rename)

	// Admin routes carry a coarse role filter before the per-action gate.
	admin := e.Group("/admin", authn, middleware.RequireRole(domain.RoleAdmin, domain.RoleManager))
	admin.GET("/users", userHandler.List)
	admin.POST("/users", authHandler.Register)
	admin.PATCH("/users/:id", userHandler.Update)
	admin.GET("/activity", activityHandler.List)

	return e
}
