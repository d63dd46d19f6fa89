package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/raderre/cresite/internal/cache"
	"github.com/raderre/cresite/internal/config"
	"github.com/raderre/cresite/internal/events"
	"github.com/raderre/cresite/internal/server"
	"github.com/raderre/cresite/internal/store"
	"github.com/raderre/cresite/internal/store/postgres"
	cresync "github.com/raderre/cresite/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:               "serve",
	Short:             "Start the listings HTTP and gRPC servers",
	GroupID:           "system",
	Args:              cobra.NoArgs,
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		pg, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()

		var st store.Store = pg
		if cfg.RedisAddr != "" {
			rc := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL)
			defer rc.Close()
			pingCtx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
			if err := rc.Ping(pingCtx); err != nil {
				logger.Warn("redis unreachable, property cache disabled", "addr", cfg.RedisAddr, "err", err)
			} else {
				st = cache.Wrap(pg, rc)
				logger.Info("property cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.RedisTTL)
			}
			cancel()
		}

		var publisher events.Publisher = events.NoopPublisher{}
		var feedSub events.Subscriber
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return err
			}
			publisher = pub
			sub, err := events.NewNATSSubscriber(cfg.NATSURL,
				nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
					logger.Warn("nats disconnected", "err", err)
				}),
				nats.ReconnectHandler(func(_ *nats.Conn) {
					logger.Info("nats reconnected")
				}),
			)
			if err != nil {
				publisher.Close()
				return err
			}
			defer sub.Close()
			feedSub = sub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			logger.Info("events in-process only (CRESITE_NATS_URL not set)")
		}
		defer publisher.Close()

		ls := server.NewListingsServer(st, publisher, server.Options{
			FeaturedLimit:  cfg.FeaturedLimit,
			FeedSubscriber: feedSub,
			WebhookToken:   cfg.WebhookToken,
		})
		defer ls.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ls.LoadFeatured(ctx)
		go func() {
			if err := ls.RunFeed(ctx); err != nil {
				logger.Error("featured feed stopped", "err", err)
			}
		}()

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		grpcServer := server.NewGRPCServer(ls, cfg.AuthToken)
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           handlers.LoggingHandler(os.Stderr, ls.NewHTTPHandler(cfg.AuthToken, cfg.CORSOrigins...)),
			ReadHeaderTimeout: 10 * time.Second,
			// Streaming handlers end when ctx is cancelled.
			BaseContext: func(net.Listener) context.Context { return ctx },
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
				stop()
			}
		}()

		scheduler := startSync(cfg, st, logger)

		if cfg.AuthToken == "" {
			logger.Warn("CRESITE_AUTH_TOKEN not set, admin endpoints are open")
		}
		logger.Info("cresite server started", "grpc_addr", cfg.GRPCAddr, "http_addr", cfg.HTTPAddr)

		<-ctx.Done()
		logger.Info("shutting down")

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	},
}

// startSync starts the backup scheduler when an interval and at least one
// destination are configured. It returns nil otherwise.
func startSync(cfg *config.Config, src cresync.Source, logger *slog.Logger) *cresync.Scheduler {
	if cfg.SyncInterval <= 0 {
		return nil
	}
	var dests []cresync.Destination

	if cfg.SyncS3Bucket != "" {
		s3Dest, err := cresync.NewS3Destination(context.Background(),
			cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}
	if cfg.SyncGitRepo != "" {
		dests = append(dests, cresync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}
	if len(dests) == 0 {
		return nil
	}

	scheduler := cresync.NewScheduler(src, dests, cfg.SyncInterval, logger)
	scheduler.Start()
	logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
	return scheduler
}
