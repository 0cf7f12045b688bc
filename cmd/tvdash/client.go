package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/npezzotti/tvdash/internal/reconcile"
	"github.com/npezzotti/tvdash/internal/tvclient"
	"github.com/npezzotti/tvdash/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var displayCmd = &cobra.Command{
	Use:   "display <tv-id>",
	Short: "Follow one TV the way its screen does and log what it shows",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisplay,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Mirror the TV list the way the dashboard does",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

var zoomCmd = &cobra.Command{
	Use:       "zoom <tv-id> <command>",
	Short:     "Send a presentation command to the screens showing a TV",
	ValidArgs: []string{"zoomIn", "zoomOut", "resetZoom", "fitToScreen", "stretchToScreen"},
	Args:      cobra.ExactArgs(2),
	RunE:      runZoom,
}

func init() {
	addServerFlag(displayCmd)
	addServerFlag(watchCmd)
	addServerFlag(zoomCmd)
}

func parseTVId(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid tv id %q", s)
	}
	return id, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runDisplay(cmd *cobra.Command, args []string) error {
	tvId, err := parseTVId(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	r := tvclient.NewDisplayRunner(serverURL, tvId, cfg.RefreshInterval, logger)

	// SIGUSR1 and SIGUSR2 stand in for the screen going to the background
	// and coming back
	vis := make(chan os.Signal, 1)
	signal.Notify(vis, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(vis)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-vis:
				if sig == syscall.SIGUSR1 {
					r.Suspend()
				} else {
					r.Resume()
				}
			}
		}
	}()

	return ignoreCanceled(r.Run(ctx))
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	var w *tvclient.Watcher
	w = tvclient.NewWatcher(serverURL, logger, func(c reconcile.Change) {
		if tv, ok := w.Mirror().Get(c.TVId); ok {
			logger.Debug("tv", zap.Int("tv_id", tv.Id), zap.String("name", tv.Name), zap.Stringp("image", tv.Image))
		}
	})
	return ignoreCanceled(w.Run(ctx))
}

func runZoom(cmd *cobra.Command, args []string) error {
	tvId, err := parseTVId(args[0])
	if err != nil {
		return err
	}
	zoom, err := types.ParseZoomCommand(args[1])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	delivered, err := tvclient.SendZoom(ctx, serverURL, tvId, zoom, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s delivered to %d display(s) of %s\n", zoom, delivered, types.RoomName(tvId))
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
