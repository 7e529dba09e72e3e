package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/optica/eyecare-backend/api/routes"
	"github.com/optica/eyecare-backend/internal/backup"
	"github.com/optica/eyecare-backend/internal/lifecycle"
	"github.com/optica/eyecare-backend/internal/records"
	"github.com/optica/eyecare-backend/pkg/config"
	"github.com/optica/eyecare-backend/pkg/db"
	"github.com/optica/eyecare-backend/pkg/logger"
	"github.com/optica/eyecare-backend/pkg/metrics"
	"github.com/optica/eyecare-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	// Stack traces on warnings are always on in dev builds.
	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack || cfg.App.IsDev(),
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if cfg.DB.AutoMigrate {
		sqlDB, err := dbClient.SQLDB()
		if err != nil {
			logg.Error(context.Background(), "failed to get sql handle", err)
			os.Exit(1)
		}
		if err := migrate.Up(context.Background(), sqlDB); err != nil {
			logg.Error(context.Background(), "failed to run migrations", err)
			os.Exit(1)
		}
	}

	registry := prometheus.NewRegistry()
	storeMetrics := metrics.NewStoreMetrics(registry)

	repo := records.NewRepository(dbClient)

	recordsService, err := records.NewService(repo, storeMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create records service", err)
		os.Exit(1)
	}
	lifecycleService, err := lifecycle.NewService(repo, storeMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create lifecycle service", err)
		os.Exit(1)
	}
	backupService, err := backup.NewService(repo, storeMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create backup service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
		"db":   cfg.DB.Path,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, recordsService, lifecycleService, backupService, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
