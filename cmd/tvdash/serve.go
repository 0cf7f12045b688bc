package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/npezzotti/tvdash/internal/api"
	"github.com/npezzotti/tvdash/internal/assets"
	"github.com/npezzotti/tvdash/internal/registry"
	"github.com/npezzotti/tvdash/internal/server"
	"github.com/npezzotti/tvdash/internal/stats"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the WebSocket hub",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	store, err := assets.NewStore(cfg.UploadDir, cfg.MaxUploadBytes, logger)
	if err != nil {
		return fmt.Errorf("asset store: %w", err)
	}

	mux := http.NewServeMux()
	statsUpdater := stats.NewStatsUpdater(mux)

	reg := registry.NewMemory(registry.WithIDPolicy(cfg.Policy()))
	hub := server.NewHub(logger, reg, statsUpdater)
	dashboard := server.NewDashboard(logger, reg, hub, statsUpdater)

	srv := api.NewTVDashApp(mux, logger, dashboard, hub, store, cfg)

	statsUpdater.Run()

	go hub.Run()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ServerAddr), zap.String("env", cfg.Env))
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigs:
		logger.Info("received signal", zap.Stringer("signal", sig))
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server: %w", err)
		}
	}

	if err := shutdown(logger, srv, hub, statsUpdater.Stop, shutdownTimeout); err != nil {
		return errors.Join(runErr, err)
	}

	logger.Info("shutdown complete")
	return runErr
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// shutdown stops the HTTP server, then the hub, then the stats updater. The
// hub is stopped even when the HTTP server fails to drain, and stopStats
// only runs once the hub can no longer report metrics.
func shutdown(logger *zap.Logger, srv, hub shutdowner, stopStats func(), timeout time.Duration) error {
	var errs []error

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	}

	// separate budget, the HTTP drain may have used up ctx
	hubCtx, hubCancel := context.WithTimeout(context.Background(), timeout)
	defer hubCancel()
	logger.Info("shutting down hub")
	if err := hub.Shutdown(hubCtx); err != nil {
		errs = append(errs, fmt.Errorf("hub shutdown: %w", err))
		return errors.Join(errs...)
	}

	stopStats()
	return errors.Join(errs...)
}
