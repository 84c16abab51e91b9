package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/yukikurage/daily-task-api/internal/cache"
	"github.com/yukikurage/daily-task-api/internal/config"
	"github.com/yukikurage/daily-task-api/internal/database"
	"github.com/yukikurage/daily-task-api/internal/logger"
	"github.com/yukikurage/daily-task-api/internal/repository"
	"github.com/yukikurage/daily-task-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "daily-task-api",
	Short:         "Daily task service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the dependencies shared by every subcommand
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	db    *gorm.DB
	store repository.Store
	cache cache.LeaderboardCache

	closers []func()
}

// bootstrap loads configuration, builds the logger and opens the database
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})

	db, err := database.Connect(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	a := &app{
		cfg:   cfg,
		log:   log,
		db:    db,
		store: repository.NewStore(db),
		cache: cache.NoopLeaderboardCache{},
	}
	a.closers = append(a.closers, func() { _ = log.Sync() })
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })
	}

	return a, nil
}

// useRedisCache swaps the no-op leaderboard cache for Redis unless the TTL is
// zero. Connection failures are logged and leave caching off.
func (a *app) useRedisCache() {
	if a.cfg.LeaderboardCacheTTL <= 0 {
		return
	}

	client, err := cache.NewRedisClient(a.cfg.RedisAddr())
	if err != nil {
		a.log.Warn("redis unavailable, leaderboard cache disabled", zap.Error(err))
		return
	}
	a.cache = cache.NewRedisLeaderboardCache(client, a.cfg.LeaderboardCacheTTL)
	a.closers = append(a.closers, client.Close)
}

func (a *app) progressService() *services.ProgressService {
	return services.NewProgressService(a.store, a.cache, a.log, services.ProgressOptions{
		Location:            a.cfg.Location(),
		LeaderboardMinRated: a.cfg.LeaderboardMinRated,
	})
}

func (a *app) taskService(progress *services.ProgressService) *services.TaskService {
	opts := services.TaskServiceOptions{SystemActorID: a.cfg.SystemActorID}
	if a.cfg.OpenAIAPIKey != "" {
		opts.Generator = services.NewAIService(a.cfg.OpenAIAPIKey)
	}
	return services.NewTaskService(a.store, progress, a.log, opts)
}

// Close releases resources in reverse acquisition order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
