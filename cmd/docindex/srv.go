package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"docindex/internal/blobstore"
	"docindex/internal/cache"
	"docindex/internal/config"
	"docindex/internal/notify"
	"docindex/internal/server"
	"docindex/internal/store"
)

const shutdownTimeout = 15 * time.Second

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the docindex API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger := slog.Default().With("component", "server")

			logger.Info("opening database", "path", cfg.DBPath)
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			blobs, err := blobstore.NewLocalStore(cfg.BlobRoot)
			if err != nil {
				return err
			}

			responses, closeCache, err := openResponseCache(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeCache()

			var metrics *server.Metrics
			if cfg.Metrics.Enabled {
				metrics = server.NewMetrics()
			}

			var telegram notify.Sender
			if cfg.TelegramEnabled() {
				client, err := notify.NewTelegramClient(cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken)
				if err != nil {
					return err
				}
				telegram = client
				logger.Info("telegram bridge enabled")
			}

			srv := server.New(st, blobs, server.Options{
				Addr:                  cfg.ListenAddr,
				PublicURL:             cfg.PublicURL,
				Resolver:              cfg.Resolver(),
				Logger:                logger,
				Cache:                 responses,
				CacheTTL:              time.Duration(cfg.Cache.TTLSeconds) * time.Second,
				CacheMaxObjectBytes:   cfg.Cache.MaxObjectBytes,
				UploadMaxBytes:        cfg.Upload.MaxBytes,
				MultipartMaxMemory:    cfg.Upload.MultipartMaxMemory,
				Telegram:              telegram,
				TelegramWebhookSecret: cfg.Telegram.WebhookSecret,
				Metrics:               metrics,
			})
			return runServer(cmd.Context(), srv, logger)
		},
	}
}

// openResponseCache picks the cache backend. The returned close func is
// always safe to call.
func openResponseCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.ResponseCache, func(), error) {
	noop := func() {}
	if !cfg.Cache.Enabled {
		logger.Info("response cache disabled")
		return nil, noop, nil
	}
	if cfg.Cache.RedisAddr == "" {
		logger.Info("using in-memory response cache", "max_entries", cfg.Cache.MaxEntries)
		return cache.NewMemoryCache(cfg.Cache.MaxEntries), noop, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	redisCache, err := cache.NewRedisCache(pingCtx, cache.RedisOptions{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	if err != nil {
		return nil, noop, err
	}
	logger.Info("using redis response cache", "addr", cfg.Cache.RedisAddr)
	return redisCache, func() { _ = redisCache.Close() }, nil
}

func runServer(ctx context.Context, srv *server.Server, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-shutdownCtx.Done():
	}
	return nil
}
