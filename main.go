package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"cityevents/internal/cache"
	"cityevents/internal/config"
	"cityevents/internal/database/migrations"
	"cityevents/internal/events"
	event_db "cityevents/internal/events/db"
	"cityevents/internal/events/events_api"
	"cityevents/internal/importer"
	"cityevents/internal/logger"
	"cityevents/internal/sources"
	source_db "cityevents/internal/sources/db"
	"cityevents/internal/sources/sources_api"
	"cityevents/internal/stats"
	"cityevents/internal/stats/stats_api"
	syncsvc "cityevents/internal/sync"
	user_db "cityevents/internal/users/db"
)

func openDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	sqldb, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open SQLite database: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to reach SQLite database: %v", err))
	}

	log.Info("DATABASE", fmt.Sprintf("✅ SQLite database opened at %s", cfg.Database.Path))
	return bun.NewDB(sqldb, sqlitedialect.New())
}

func openRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		log.Info("CACHE", "Redis disabled, using in-memory cache only")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("CACHE", fmt.Sprintf("Redis unreachable (%v), using in-memory cache only", err))
		client.Close()
		return nil
	}

	log.Info("CACHE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))
	return client
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting City Events board initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	if cfg.Admin.Code == "" {
		log.Warn("CONFIG", "ADMIN_CODE not set, privileged operations will be refused")
	}

	ctx := context.Background()

	bunDB := openDatabase(cfg, log)
	defer bunDB.Close()

	// Schema bootstrap is an explicit, awaited phase: nothing serves until
	// migrations have completed.
	runner := migrations.NewRunner(bunDB)
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
	if version, err := runner.Version(); err == nil {
		log.Info("DATABASE", fmt.Sprintf("✅ Schema ready at version %d", version))
	}

	redisClient := openRedis(ctx, cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	eventDB := &event_db.DB{Bun: bunDB}
	sourceDB := &source_db.DB{Bun: bunDB}
	userDB := &user_db.DB{Bun: bunDB}

	cityCache := cache.New(redisClient, 5*time.Minute, log)

	eventService := events.NewService(eventDB, cityCache, log, cfg.Admin.Code, cfg.Board.PublicBaseURL)
	sourceService := sources.NewService(sourceDB, log, cfg.Admin.Code)
	icsImporter := importer.New(cfg.Sync.FetchTimeout, log)
	syncService := syncsvc.NewService(sourceDB, icsImporter, syncsvc.NewUpserter(eventDB), log, cfg.Admin.Code)
	statsService := stats.NewService(eventDB, sourceDB, userDB, log)

	eventHandler := events_api.NewHandler(eventService, log)
	sourceHandler := sources_api.NewHandler(sourceService, syncService, log)
	statsHandler := stats_api.NewHandler(statsService, log)

	log.Info("HTTP", "Setting up router")
	r := chi.NewRouter()

	r.Get("/health", statsHandler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventHandler.ListApproved)
			r.Post("/", eventHandler.SubmitEvent)
			r.Get("/calendar", eventHandler.MonthCalendar)
			r.Get("/pending", eventHandler.ListPending)
			r.Post("/{eventId}/approve", eventHandler.ApproveEvent)
			r.Delete("/{eventId}", eventHandler.RejectEvent)
			r.Get("/{eventId}/qr", eventHandler.EventQR)
		})
		log.Info("ROUTER", "Event routes registered under /api/events")

		r.Get("/cities", eventHandler.ListCities)

		r.Route("/sources", func(r chi.Router) {
			r.Get("/", sourceHandler.ListSources)
			r.Post("/", sourceHandler.AddSource)
			r.Post("/bulk", sourceHandler.BulkAddSources)
			r.Delete("/{sourceId}", sourceHandler.RemoveSource)
		})
		r.Post("/sync", sourceHandler.RunSync)
		log.Info("ROUTER", "Source and sync routes registered under /api")
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 City Events board running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "✅ City Events board shutdown complete")
	}
}
