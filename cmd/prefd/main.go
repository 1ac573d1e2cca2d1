// Package main implements the prefd daemon: an adaptive feedback engine
// that learns per-(agent, user, task-type) preferences from recommendation
// feedback and serves adapted recommendations over HTTP and NATS.
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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prefd/internal/boltsnap"
	"github.com/fyrsmithlabs/prefd/internal/config"
	"github.com/fyrsmithlabs/prefd/internal/engine"
	"github.com/fyrsmithlabs/prefd/internal/httpapi"
	"github.com/fyrsmithlabs/prefd/internal/ingest"
	"github.com/fyrsmithlabs/prefd/internal/logging"
)

var (
	// configPath is the optional YAML config file.
	configPath string
	// version information, set at build time.
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "prefd",
	Short: "Adaptive feedback preference daemon",
	Long: `prefd learns user preferences from recommendation feedback and applies
them to future recommendations: re-ranking, suppression, delivery timing,
and style hints, plus learning reports for dashboards.`,
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the preference daemon",
	Long: `Run the prefd HTTP server and, when configured, the NATS feedback
ingest bridge and the bbolt snapshot store.

Examples:
  # Run with defaults (localhost:8710, in-memory only)
  prefd serve

  # Run with a config file
  prefd serve --config /etc/prefd/config.yaml

  # Override any setting through the environment
  PREFD_SERVER_PORT=9000 prefd serve`,
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the prefd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("prefd %s\n", version)
	},
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	eng, err := engine.NewService(cfg.Adaptation, nil, logger)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	// Restore persisted preference state before accepting traffic.
	var snap *boltsnap.Store
	if cfg.Snapshot.Path != "" {
		snap, err = boltsnap.NewStore(cfg.Snapshot.Path)
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
		defer func() { _ = snap.Close() }()

		restored, err := snap.Load()
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		eng.RestoreAll(restored)
	}

	if cfg.NATS.URL != "" {
		bridge, err := ingest.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix, eng, logger)
		if err != nil {
			return fmt.Errorf("connect ingest bridge: %w", err)
		}
		defer func() { _ = bridge.Close() }()
	}

	server, err := httpapi.NewServer(eng, logger, &httpapi.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stopSnapshots := make(chan struct{})
	if snap != nil && cfg.Snapshot.Interval.Duration() > 0 {
		go periodicSnapshots(eng, snap, cfg.Snapshot.Interval.Duration(), stopSnapshots, logger)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("http server failed", zap.Error(err))
		return err
	}

	close(stopSnapshots)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	// Final snapshot so nothing learned since the last tick is lost.
	if snap != nil {
		if err := snap.Save(eng.SnapshotAll()); err != nil {
			logger.Error("final snapshot failed", zap.Error(err))
			return err
		}
		logger.Info("saved final snapshot", zap.String("path", cfg.Snapshot.Path))
	}

	return nil
}

// periodicSnapshots saves preference state on a fixed interval until stop
// closes.
func periodicSnapshots(eng *engine.Service, snap *boltsnap.Store, interval time.Duration, stop <-chan struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := snap.Save(eng.SnapshotAll()); err != nil {
				logger.Warn("periodic snapshot failed", zap.Error(err))
			}
		case <-stop:
			return
		}
	}
}
