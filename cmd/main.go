package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"ticallbot/internal/config"
	"ticallbot/internal/i18n"
	"ticallbot/internal/infrastructure"
	"ticallbot/internal/interfaces"
	httpiface "ticallbot/internal/interfaces/http"
	"ticallbot/internal/metrics"
	"ticallbot/internal/repository"
	"ticallbot/internal/usecases"
)

func main() {
	// Load .env file if present (production uses real env vars)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	// A phrase missing from the catalog is a deploy error, not something to
	// discover mid-conversation.
	catalog := i18n.NewCatalog()
	if err := catalog.Validate(i18n.RequiredKeys...); err != nil {
		logger.Error("phrase catalog invalid", "error", err)
		os.Exit(1)
	}

	// Storage: Postgres when configured, local SQLite otherwise.
	var (
		logStore  interfaces.LogStore
		langStore interfaces.LanguageStore
		userStore interfaces.UserStore
	)
	if cfg.DatabaseURL != "" {
		pgClient, err := infrastructure.NewPostgresClient(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pgClient.Close()
		logStore = repository.NewLogRepository(pgClient.Pool)
		langStore = repository.NewLanguageRepository(pgClient.Pool, logger)
		userStore = repository.NewUserRepository(pgClient.Pool)
		logger.Info("using postgres storage")
	} else {
		sqliteStore, err := infrastructure.NewSQLiteStore(cfg.SQLitePath, logger)
		if err != nil {
			logger.Error("failed to open sqlite database", "error", err)
			os.Exit(1)
		}
		defer sqliteStore.Close()
		logStore = sqliteStore
		langStore = sqliteStore
		userStore = sqliteStore
		logger.Info("using sqlite storage", "path", cfg.SQLitePath)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Spreadsheet mirror is optional; the bot runs fine without it.
	var exporter interfaces.SheetExporter
	if cfg.MirrorEnabled() {
		sheetExporter, err := infrastructure.NewSheetExporter(ctx, infrastructure.SheetExporterConfig{
			Endpoint:    cfg.ExportEndpoint,
			AccessKeyID: cfg.ExportAccessKeyID,
			SecretKey:   cfg.ExportSecretKey,
			Bucket:      cfg.ExportBucket,
			ObjectKey:   cfg.ExportObjectKey,
		})
		if err != nil {
			logger.Error("failed to initialize sheet exporter", "error", err)
			os.Exit(1)
		}
		exporter = sheetExporter
		logger.Info("spreadsheet mirror enabled", "bucket", cfg.ExportBucket, "key", cfg.ExportObjectKey)
	}

	sink := usecases.NewAuditSink(logStore, exporter, cfg.AuditQueueSize,
		cfg.MirrorFlushWait, cfg.MirrorBatchSize, logger, m)
	sink.Start(context.Background()) // outlives request contexts, drained on shutdown

	whatsapp := infrastructure.NewWhatsAppClient(infrastructure.WhatsAppConfig{
		BaseURL:       cfg.GraphBaseURL,
		APIVersion:    cfg.APIVersion,
		PhoneNumberID: cfg.PhoneNumberID,
		AccessToken:   cfg.AccessToken,
	}, logger)

	dispatcher := usecases.NewDispatcher(catalog, whatsapp, langStore, sink, m, cfg.GreetingImageURL, logger)

	authUsecase := usecases.NewAuthUsecase(userStore, cfg.JWTSecret)
	if err := authUsecase.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Warn("failed to ensure admin user", "error", err)
	}
	dashboardUsecase := usecases.NewDashboardUsecase(logStore)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	handler := httpiface.NewHandler(dispatcher, dashboardUsecase, cfg.VerifyToken, logger, m)
	httpiface.SetupRoutes(r, handler, authUsecase, httpiface.NewMiddleware(cfg.JWTSecret), registry)

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	// Drain pending audit writes before the process exits.
	sink.Close()
	logger.Info("shutdown complete")
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
