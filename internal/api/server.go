package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"catalogsync/internal/api/handlers"
	"catalogsync/internal/api/middleware"
	"catalogsync/internal/config"
	"catalogsync/internal/logger"
	"catalogsync/internal/services/webhook"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SyncService is the orchestrator surface the HTTP API drives.
type SyncService interface {
	handlers.ItemSyncer
	handlers.IntegrationService
}

type Dependencies struct {
	Items      handlers.ItemStore
	Categories handlers.CategoryStore
	Sync       SyncService
	Intake     *webhook.Intake
	Settings   *config.Store
	// Enqueuer is optional; without it queue mode syncs inline.
	Enqueuer handlers.Enqueuer
}

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, deps Dependencies) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger, "/metrics", "/healthz"))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Initialize handlers
	itemHandler := handlers.NewItemHandler(deps.Items, deps.Sync, deps.Enqueuer, deps.Settings, logger)
	integrationHandler := handlers.NewIntegrationHandler(deps.Sync, deps.Settings, logger)
	webhookHandler := handlers.NewWebhookHandler(deps.Intake, logger)
	categoryHandler := handlers.NewCategoryHandler(deps.Categories, logger)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Routes
	v1 := router.Group("/api/v1")
	{
		// Items
		items := v1.Group("/items")
		{
			items.POST("/sync", itemHandler.SyncBatch)
			items.GET("/:code", itemHandler.Get)
			items.PUT("/:code", itemHandler.Upsert)
			items.DELETE("/:code", itemHandler.Delete)
			items.GET("/:code/remote", itemHandler.Remote)
			items.POST("/:code/sync", itemHandler.Sync)
		}

		// Category mappings
		categories := v1.Group("/category-mappings")
		{
			categories.GET("", categoryHandler.List)
			categories.PUT("/:group", categoryHandler.Put)
		}

		// Integration
		integration := v1.Group("/integration")
		{
			integration.GET("/health", integrationHandler.Health)
			integration.POST("/test-connection", integrationHandler.TestConnection)
			integration.GET("/logs", integrationHandler.Logs)
			integration.POST("/settings/reload", integrationHandler.ReloadSettings)
			integration.POST("/maintenance/cleanup-logs", integrationHandler.CleanupLogs)
			integration.POST("/maintenance/recover-stalled", integrationHandler.RecoverStalled)
		}

		// Webhooks
		v1.POST("/webhooks/wix", webhookHandler.Wix)
	}

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}
}

// WriteTimeout bounds a response, including an inline sync that runs every
// retry at the largest accepted timeout.
func WriteTimeout() time.Duration {
	return config.MaxSyncBudget() + 30*time.Second
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	// Settings can be reloaded at runtime, so the write timeout covers the
	// slowest inline sync any valid settings allow.
	writeTimeout := WriteTimeout()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
