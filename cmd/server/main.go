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

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/time/rate"

	"news-chat/internal/adapter/gemini"
	rag_http "news-chat/internal/adapter/rag_http"
	"news-chat/internal/adapter/repository"
	"news-chat/internal/di"
	"news-chat/internal/infra"
	"news-chat/internal/infra/config"
	"news-chat/internal/infra/logger"
	"news-chat/internal/infra/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server_exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Config
	cfg := config.Load()

	// 2. Telemetry and logger
	shutdownOTel, err := telemetry.Setup(ctx, cfg.Telemetry, cfg.Env)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(shutdownCtx); err != nil {
			slog.Warn("otel_shutdown_failed", slog.String("error", err.Error()))
		}
	}()

	log := logger.New(logger.Options{Level: cfg.LogLevel, ExportOTel: cfg.Telemetry.Enabled})
	slog.SetDefault(log)

	// 3. Stores
	store, closeStore, err := di.NewCacheStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect cache store: %w", err)
	}
	defer func() { _ = closeStore() }()

	dsn := cfg.DB.DSN()
	if err := infra.EnsureVectorExtension(ctx, dsn); err != nil {
		return fmt.Errorf("prepare vector store: %w", err)
	}
	dbPool, err := infra.NewPostgresDB(ctx, dsn, infra.PoolConfig{MaxConns: cfg.DB.MaxConns, MinConns: cfg.DB.MinConns})
	if err != nil {
		return fmt.Errorf("connect vector store: %w", err)
	}
	defer dbPool.Close()

	articleRepo := repository.NewArticleRepository(dbPool)
	if err := articleRepo.EnsureSchema(ctx, cfg.Embedder.Dimensions); err != nil {
		return err
	}

	// 4. Generator
	generator, err := gemini.NewGenerator(ctx, cfg.Generator.APIKey, cfg.Generator.Model, log)
	if err != nil {
		return err
	}
	defer func() { _ = generator.Close() }()

	// 5. Usecases, handler and worker
	app := di.NewApplicationComponents(cfg, store, articleRepo, generator, log)

	if app.Worker != nil {
		app.Worker.Start()
		defer app.Worker.Stop()
	}

	// 6. Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(otelecho.Middleware(cfg.Telemetry.ServiceName))
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	var chatMiddleware []echo.MiddlewareFunc
	if cfg.HTTP.ChatRateLimit > 0 {
		limiter := rag_http.NewRateLimiter(rate.Limit(cfg.HTTP.ChatRateLimit), cfg.HTTP.ChatBurst)
		go limiter.RunCleanup(ctx)
		chatMiddleware = append(chatMiddleware, limiter.Middleware())
	}
	rag_http.RegisterRoutes(e, app.Handler, chatMiddleware...)

	// 7. Serve until signalled
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("server_starting", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
