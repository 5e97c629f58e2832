package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"mcpbridge/pkg/logging"

	"github.com/coreos/go-systemd/v22/daemon"
)

// runServe bootstraps the registry, listens on the configured port and
// serves until SIGINT, SIGTERM or ctx cancellation.
func runServe(ctx context.Context, cfg *Config, services *Services) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", cfg.Bridge.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logging.Error("Serve", err, "Failed to listen on %s", addr)
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if cfg.ConfigPath != "" {
		watcher, err := NewConfigWatcher(cfg.ConfigPath, 0, func(ctx context.Context) {
			if err := services.Reload(ctx, cfg.ConfigPath); err != nil {
				logging.Error("Serve", err, "Keeping current transports")
			}
		})
		if err == nil {
			err = watcher.Start(ctx)
		}
		if err != nil {
			// Hot reload is a convenience; serving without it is still correct.
			logging.Warn("Serve", "Configuration changes will require a restart: %v", err)
		} else {
			defer watcher.Stop()
		}
	}

	return serve(ctx, ln, services, cfg.Bridge.Server.ShutdownTimeout)
}

// serve runs the HTTP surface on ln. The registry is bootstrapped before the
// first connection is accepted so that early requests see the connected
// transports; transport failures never prevent serving.
func serve(ctx context.Context, ln net.Listener, services *Services, shutdownTimeout time.Duration) error {
	defer services.Close()

	registry := services.Manager.Rebootstrap(ctx)
	snap := registry.Snapshot()
	logging.Info("Serve", "Registry ready: %d providers (%d hosted, %d connected, %d failed)",
		snap.Count, len(snap.Hosted), snap.Connected, snap.Failed)

	errCh := make(chan error, 1)
	go func() {
		errCh <- services.Server.Serve(ln)
	}()

	notifySystemd(daemon.SdNotifyReady)
	logging.Info("Serve", "Serving. Press Ctrl+C to stop.")

	select {
	case err := <-errCh:
		if err != nil {
			logging.Error("Serve", err, "HTTP server stopped unexpectedly")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info("Serve", "Shutting down")
	notifySystemd(daemon.SdNotifyStopping)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := services.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	if err := <-errCh; err != nil {
		return err
	}

	logging.Info("Serve", "Shutdown complete")
	return nil
}
