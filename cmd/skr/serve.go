package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/skyrecords/internal/config"
	"github.com/alfredjeanlab/skyrecords/internal/events"
	"github.com/alfredjeanlab/skyrecords/internal/server"
	"github.com/alfredjeanlab/skyrecords/internal/store/postgres"
	"github.com/alfredjeanlab/skyrecords/internal/store/sqlite"
	"github.com/alfredjeanlab/skyrecords/internal/store/sqlstore"
	skrsync "github.com/alfredjeanlab/skyrecords/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the skyrecords HTTP and gRPC server",
	GroupID: "system",
	// The server does not need an API client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := cfg.NewLogger(os.Stderr)
		slog.SetDefault(logger)

		backend, err := openBackend(cfg)
		if err != nil {
			return err
		}
		logger.Info("backend opened", "backend", cfg.Backend, "storage_group", cfg.StorageGroup)

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				backend.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (SKR_NATS_URL not set)")
		}

		registry := prom.NewRegistry()
		srv := server.New(backend, server.Options{
			Publisher: publisher,
			Registry:  registry,
			Logger:    logger,
		})
		grpcServer := srv.NewGRPCServer(cfg.AuthToken)

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			publisher.Close()
			backend.Close()
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go srv.WatchBackend(ctx, cfg.HealthInterval)

		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "error", err)
			}
		}()

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "error", err)
			}
		}()

		var scheduler *skrsync.Scheduler
		if cfg.SyncInterval > 0 {
			dests := syncDestinations(ctx, cfg, logger)
			if len(dests) > 0 {
				src := skrsync.Source{
					Templates:   srv.Templates(),
					Aliases:     srv.Aliases(),
					AliasWindow: cfg.SyncAliasWindow,
				}
				scheduler = skrsync.NewScheduler(src, dests, cfg.SyncInterval, logger).WithMetrics(srv.Metrics())
				scheduler.Start(ctx)
				logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
			}
		}

		logger.Info("skyrecords server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		// Marks the health service NOT_SERVING before the listeners close.
		cancel()

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "error", err)
		}
		if err := backend.Close(); err != nil {
			logger.Error("error closing backend", "error", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// openBackend opens the storage backend cfg selects.
func openBackend(cfg *config.Config) (*sqlstore.Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		return postgres.New(cfg.DatabaseURL, cfg.StorageGroup)
	case config.BackendSQLite:
		return sqlite.New(cfg.SQLitePath, cfg.StorageGroup)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// syncDestinations builds the export destinations cfg enables. A
// destination that fails to initialise is logged and skipped.
func syncDestinations(ctx context.Context, cfg *config.Config, logger *slog.Logger) []skrsync.Destination {
	var dests []skrsync.Destination

	if cfg.SyncS3Bucket != "" {
		s3Dest, err := skrsync.NewS3Destination(ctx, cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "error", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}

	if cfg.SyncGitRepo != "" {
		dests = append(dests, skrsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}

	return dests
}
