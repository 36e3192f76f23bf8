package app

import (
	"context"
	"time"

	"catalogsync/internal/config"
	"catalogsync/internal/database"
	"catalogsync/internal/logger"
	"catalogsync/internal/services/productsync"
	"catalogsync/internal/services/wix"

	"github.com/redis/go-redis/v9"
)

// App holds the components shared by the API and the worker.
type App struct {
	DB         *database.Database
	Settings   *config.Store
	Items      *database.ItemRepository
	Categories *database.CategoryRepository
	Service    *productsync.Service

	redis *redis.Client
}

// NewLogger picks JSON output in production unless LOG_FORMAT says otherwise.
func NewLogger(cfg *config.Config) *logger.Logger {
	format := cfg.LogFormat
	if format == "" {
		format = "console"
		if cfg.Env == "production" {
			format = "json"
		}
	}
	return logger.NewWithFormat(cfg.LogLevel, format)
}

// Build opens the database and wires the sync service. Per-item locks go
// through Redis when REDIS_URL is set, otherwise they are process-local.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := database.New(cfg.DatabaseURL, log.IsDebug())
	if err != nil {
		return nil, err
	}

	a := &App{
		DB:         db,
		Settings:   config.NewStore(cfg.Integration),
		Items:      database.NewItemRepository(db.DB),
		Categories: database.NewCategoryRepository(db.DB),
	}

	var locker productsync.Locker
	if cfg.RedisURL != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		redisLocker, client, err := productsync.NewRedisLockerFromURL(pingCtx, cfg.RedisURL, productsync.DefaultLockTTL)
		cancel()
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		a.redis = client
		locker = redisLocker
		log.Info("Using Redis for sync locks")
	} else {
		locker = productsync.NewMemoryLocker()
		log.Warn("REDIS_URL not set, sync locks are local to this process")
	}

	if missing := cfg.Integration.MissingCredentials(); cfg.Integration.Enabled && len(missing) > 0 {
		log.Warn("Wix integration is enabled but missing credentials: %v", missing)
	}

	a.Service = productsync.NewService(
		a.Settings,
		a.Items,
		database.NewLogRepository(db.DB),
		a.Categories,
		wix.NewClient(a.Settings, log),
		locker,
		log,
	)
	return a, nil
}

func (a *App) Close() error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	return a.DB.Close()
}
