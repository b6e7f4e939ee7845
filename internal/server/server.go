package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"docindex/internal/auth"
	"docindex/internal/blobstore"
	"docindex/internal/cache"
	"docindex/internal/notify"
	"docindex/internal/store"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second

	defaultBackgroundTimeout   = 10 * time.Second
	defaultCacheTTL            = 4 * time.Hour
	defaultCacheMaxObjectBytes = 8 << 20   // 8 MiB
	defaultUploadMaxBytes      = 100 << 20 // 100 MiB
	defaultMultipartMemory     = 8 << 20   // 8 MiB
)

// Options configures a Server. Zero values select defaults; a nil Cache,
// Telegram or Metrics disables that feature.
type Options struct {
	Addr      string
	PublicURL string
	Resolver  auth.Resolver
	Logger    *slog.Logger

	Cache               cache.ResponseCache
	CacheTTL            time.Duration
	CacheMaxObjectBytes int64

	UploadMaxBytes     int64
	MultipartMaxMemory int64

	Telegram              notify.Sender
	TelegramWebhookSecret string

	Metrics           *Metrics
	BackgroundTimeout time.Duration
}

// Server wraps HTTP handlers for the docindex API.
type Server struct {
	addr      string
	publicURL string
	store     store.FileStore
	files     *FileService
	resolver  auth.Resolver
	logger    *slog.Logger
	metrics   *Metrics

	cache               cache.ResponseCache
	cacheTTL            time.Duration
	cacheMaxObjectBytes int64

	uploadMaxBytes     int64
	multipartMaxMemory int64

	telegram      notify.Sender
	webhookSecret string
	linkToken     string

	loginLimiter *loginRateLimiter

	background        sync.WaitGroup
	backgroundTimeout time.Duration

	mu         sync.Mutex
	httpServer *http.Server
}

// New creates a new server instance.
func New(fileStore store.FileStore, blobs blobstore.BlobStore, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:                opts.Addr,
		publicURL:           strings.TrimRight(strings.TrimSpace(opts.PublicURL), "/"),
		store:               fileStore,
		resolver:            opts.Resolver,
		logger:              logger,
		metrics:             opts.Metrics,
		cache:               opts.Cache,
		cacheTTL:            opts.CacheTTL,
		cacheMaxObjectBytes: opts.CacheMaxObjectBytes,
		uploadMaxBytes:      opts.UploadMaxBytes,
		multipartMaxMemory:  opts.MultipartMaxMemory,
		telegram:            opts.Telegram,
		webhookSecret:       strings.TrimSpace(opts.TelegramWebhookSecret),
		loginLimiter:        newDefaultLoginRateLimiter(),
		backgroundTimeout:   opts.BackgroundTimeout,
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = defaultCacheTTL
	}
	if s.cacheMaxObjectBytes <= 0 {
		s.cacheMaxObjectBytes = defaultCacheMaxObjectBytes
	}
	if s.uploadMaxBytes <= 0 {
		s.uploadMaxBytes = defaultUploadMaxBytes
	}
	if s.multipartMaxMemory <= 0 {
		s.multipartMaxMemory = defaultMultipartMemory
	}
	if s.backgroundTimeout <= 0 {
		s.backgroundTimeout = defaultBackgroundTimeout
	}
	if token, ok := opts.Resolver.Team.Plaintext(); ok {
		s.linkToken = token
	}

	s.files = NewFileService(fileStore, blobs, opts.Cache, logger)
	return s
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// ListenAndServe starts the HTTP server. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) ListenAndServe() error {
	if strings.TrimSpace(s.addr) == "" {
		return fmt.Errorf("listen address is required")
	}
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	s.mu.Lock()
	s.httpServer = server
	s.mu.Unlock()

	return server.ListenAndServe()
}

// Shutdown stops accepting requests, then waits for in-flight background
// tasks until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.httpServer
	s.mu.Unlock()

	var errs []error
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.waitBackground(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// goBackground runs fn detached from the request lifecycle. The task keeps
// the request's values but not its cancellation, and gets its own timeout.
// Failures are logged only.
func (s *Server) goBackground(parent context.Context, name string, fn func(ctx context.Context) error) {
	ctx := context.WithoutCancel(parent)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer func() {
			if rec := recover(); rec != nil {
				s.log().Error("background task panic", "task", name, "panic", rec)
			}
		}()

		ctx, cancel := context.WithTimeout(ctx, s.backgroundTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			s.log().Warn("background task failed", "task", name, "error", err)
		}
	}()
}

func (s *Server) waitBackground(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background tasks: %w", ctx.Err())
	}
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
