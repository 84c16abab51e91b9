package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yukikurage/daily-task-api/internal/database"
	"github.com/yukikurage/daily-task-api/internal/handlers"
	"github.com/yukikurage/daily-task-api/internal/services"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Runs migrations, then serves the daily task HTTP API until SIGINT or SIGTERM",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		gin.SetMode(a.cfg.GinMode)

		if err := database.MigrateDatabase(a.db, a.log); err != nil {
			a.log.Error("migration failed", zap.Error(err))
			return err
		}

		a.useRedisCache()

		store, err := redisStore.NewStore(
			10,    // Redis pool size
			"tcp", // network type
			a.cfg.RedisAddr(),
			"", // username (empty for default user)
			"", // password (empty = no password)
			[]byte(a.cfg.SessionSecret),
		)
		if err != nil {
			a.log.Error("failed to create redis session store", zap.Error(err))
			return err
		}
		store.Options(sessions.Options{
			Path:     "/",
			MaxAge:   86400 * 7, // 7 days
			HttpOnly: true,
			Secure:   a.cfg.IsProduction(),
			SameSite: http.SameSiteLaxMode,
		})

		progress := a.progressService()
		router := handlers.NewRouter(handlers.RouterDeps{
			Store:         a.store,
			SessionStore:  store,
			Logger:        a.log,
			Auth:          services.NewAuthService(a.store.Users(), a.log),
			Organizations: services.NewOrganizationService(a.store, progress, a.log),
			Tasks:         a.taskService(progress),
			Progress:      progress,
		})

		srv := &http.Server{
			Addr:    a.cfg.HTTPAddr,
			Handler: router,
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			a.log.Info("HTTP server listening", zap.String("addr", a.cfg.HTTPAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				a.log.Error("server stopped", zap.Error(err))
				return err
			}
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("graceful shutdown failed", zap.Error(err))
			return err
		}

		a.log.Info("HTTP server shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
