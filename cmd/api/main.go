package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/clipdeck-backend/api/controllers"
	"github.com/angelmondragon/clipdeck-backend/api/routes"
	"github.com/angelmondragon/clipdeck-backend/internal/clips"
	"github.com/angelmondragon/clipdeck-backend/internal/processing"
	"github.com/angelmondragon/clipdeck-backend/pkg/blobstore"
	"github.com/angelmondragon/clipdeck-backend/pkg/config"
	"github.com/angelmondragon/clipdeck-backend/pkg/db"
	"github.com/angelmondragon/clipdeck-backend/pkg/logger"
	"github.com/angelmondragon/clipdeck-backend/pkg/metrics"
	"github.com/angelmondragon/clipdeck-backend/pkg/migrate"
	"github.com/angelmondragon/clipdeck-backend/pkg/postbridge"
	"github.com/angelmondragon/clipdeck-backend/pkg/redis"
	"github.com/angelmondragon/clipdeck-backend/pkg/vizard"
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

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	pingers := map[string]controllers.Pinger{}

	var store clips.Store
	switch {
	case cfg.Storage.IsBlob():
		blobClient, blobErr := blobstore.NewClient(cfg.Storage, logg)
		if blobErr != nil {
			logg.Error(context.Background(), "failed to bootstrap blob storage", blobErr)
			os.Exit(1)
		}
		store = clips.NewBlobStore(blobClient, cfg.Storage.BlobDocument, logg)
		pingers["blob"] = blobClient

	default:
		dbClient, dbErr := db.New(context.Background(), cfg.DB, logg)
		if dbErr != nil {
			logg.Error(context.Background(), "failed to bootstrap database", dbErr)
			os.Exit(1)
		}
		defer func() {
			if closeErr := dbClient.Close(); closeErr != nil {
				logg.Error(context.Background(), "error closing database", closeErr)
			}
		}()

		if migErr := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); migErr != nil {
			logg.Error(context.Background(), "failed to run dev migrations", migErr)
			os.Exit(1)
		}

		store = clips.NewSQLStore(dbClient.DB(), logg)
		pingers["db"] = dbClient
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			logg.Error(context.Background(), "error closing redis", closeErr)
		}
	}()
	pingers["redis"] = redisClient

	publisher, err := postbridge.NewClient(cfg.PostBridge, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap post bridge client", err)
		os.Exit(1)
	}

	vizardClient, err := vizard.NewClient(cfg.Vizard, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap vizard client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	clipService := clips.NewService(store, publisher, metrics.NewPublishMetrics(registry), logg)
	processingService := processing.NewService(vizardClient, redisClient, logg, cfg.Vizard.PollTimeout, cfg.Vizard.CacheTTL)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"backend": cfg.Storage.Backend,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			Clips:      clipService,
			Processing: processingService,
			Idem:       redisClient,
			Registry:   registry,
			Pingers:    pingers,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
