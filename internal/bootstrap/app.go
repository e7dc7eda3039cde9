package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/faq-clustering/internal/infra/config"
)

const shutdownTimeout = 10 * time.Second

// Cleanup releases backend connections once the server has drained.
type Cleanup func()

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
	cleanup Cleanup
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, cleanup Cleanup) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, cleanup: cleanup}
}

// Run serves until ctx ends or the listener fails, then drains in-flight
// requests and releases backends.
func (a *App) Run(ctx context.Context) error {
	defer a.release()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting",
			"address", a.cfg.HTTP.Address,
			"postgres", a.cfg.Storage.Postgres.DSN != "",
			"sqlite", a.cfg.Storage.SQLite.Path != "",
			"valkey", a.cfg.Storage.Valkey.Enabled,
			"openai_embeddings", a.cfg.LLM.APIKey != "",
		)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutdown signal received")
		return a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) release() {
	if a.cleanup == nil {
		return
	}
	a.cleanup()
	a.logger.Info("backends released")
}
