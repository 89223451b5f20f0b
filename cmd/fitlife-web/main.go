package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"fitlife-ai/internal/app"
	"fitlife-ai/internal/config"
	"fitlife-ai/internal/database"
	"fitlife-ai/internal/llm"
	"fitlife-ai/internal/logger"
	"fitlife-ai/internal/metrics"
	"fitlife-ai/internal/planner"
	"fitlife-ai/internal/telegram"
	"fitlife-ai/internal/web"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	webhookPath   = "/telegram/webhook"
	sweepInterval = 10 * time.Minute
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		// The logger depends on config; fall back to a default one.
		logger.New(logger.Config{}).Fatal("failed to load config", zap.Error(err))
	}

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: !cfg.IsProduction(),
	})
	defer log.Sync()

	// 2. Error reporting (optional)
	sentryEnabled := false
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.AppEnv,
			Release:          version,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Warn("sentry initialization failed", zap.Error(err))
		} else {
			sentryEnabled = true
			log.Info("sentry initialized", zap.String("environment", cfg.AppEnv), zap.String("release", version))
		}
	}

	ctx := context.Background()

	// 3. Language model. A missing key is logged; generation fails later.
	client, err := llm.NewFromConfig(ctx, cfg)
	modelReady := err == nil
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			log.Error("no API key configured; plan generation will fail", zap.String("provider", cfg.LLMProvider))
		} else {
			log.Error("failed to create language model client", zap.Error(err))
		}
	}
	defer client.Close()

	// 4. Metrics persistence
	db, err := database.NewDB(cfg.DatabasePath, log.Named("database"))
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	metricsStore := metrics.NewStore(db.SQL)
	collectors := metrics.NewCollectors()
	recorder := metrics.NewRecorder(metricsStore, collectors, log.Named("metrics"))

	// 5. Per-session controllers
	registry := app.NewRegistry(app.Deps{
		Planner:  planner.NewPlanner(client),
		Chat:     client,
		Observer: recorder,
		Logger:   log.Named("controller"),
	})
	collectors.RegisterSessionGauge(func() float64 { return float64(registry.Len()) })

	dataDir := filepath.Dir(cfg.DatabasePath)
	health := func() metrics.SysHealth {
		return metrics.GetSysHealth(dataDir, registry.Len(), modelReady)
	}

	sessions, err := web.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	if err != nil {
		log.Fatal("failed to initialize sessions", zap.Error(err))
	}
	if cfg.SessionSecret == "" {
		log.Warn("SESSION_SECRET not set; sessions will not survive a restart")
	}

	opts := web.Options{
		Registry:   registry,
		Sessions:   sessions,
		Collectors: collectors,
		Health:     health,
		Logger:     log,
	}

	// 6. Telegram Bot (optional)
	if cfg.TelegramBotToken != "" {
		bot, err := telegram.NewBot(cfg, registry, metricsStore, health, log)
		if err != nil {
			log.Fatal("failed to initialize telegram bot", zap.Error(err))
		}
		opts.WebhookPath = webhookPath
		opts.Webhook = bot.WebhookHandler()
	}

	server, err := web.NewServer(opts)
	if err != nil {
		log.Fatal("failed to initialize web server", zap.Error(err))
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepSessions(sweepCtx, registry, cfg.SessionTTL, log)

	// 7. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Plan generation is synchronous within POST /plan.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if sentryEnabled {
		sentry.Flush(2 * time.Second)
	}

	log.Info("server exiting")
}

// sweepSessions discards sessions idle for longer than the cookie lifetime.
func sweepSessions(ctx context.Context, registry *app.Registry, maxIdle time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := registry.Sweep(maxIdle); n > 0 {
				log.Info("swept idle sessions", zap.Int("removed", n), zap.Int("remaining", registry.Len()))
			}
		}
	}
}
