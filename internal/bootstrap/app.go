package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/healapp/mealtrack/internal/domain/profile"
	"github.com/healapp/mealtrack/internal/infra/config"
)

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	profiles *profile.Store
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, profiles *profile.Store) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, profiles: profiles}
}

// Run restores persisted registration state, starts the HTTP server and
// blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	restoreCtx, cancelRestore := context.WithTimeout(ctx, 10*time.Second)
	a.profiles.Restore(restoreCtx)
	cancelRestore()

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
