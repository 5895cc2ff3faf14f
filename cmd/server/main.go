package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"crisiswatch/config"
	"crisiswatch/internal/server"
	"crisiswatch/internal/simulation"
	"crisiswatch/internal/storage"
	"crisiswatch/internal/storage/memory"
	"crisiswatch/internal/storage/postgres"
	ws "crisiswatch/internal/websocket"
	"crisiswatch/pkg/log"
)

// @title       CrisisWatch
// @description Real-time disaster monitoring service - simulated social media
// @description event stream over WebSocket with a REST dashboard API
// @version     1.0
// @host        localhost:8080
// @schemes     ws http
// @BasePath    /
func main() {
	// Load .env if present; environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config:", err)
		return
	}

	logger := log.Init(log.ZapConfig{
		Level:    cfg.Logger.Level,
		Mode:     cfg.Logger.Mode,
		Encoding: cfg.Logger.Encoding,
	})

	ctx := context.Background()
	logger.Info(ctx, "Starting CrisisWatch...")

	// Select the storage backend. Without DATABASE_URL the service runs on
	// the in-memory store seeded with demo data.
	var store storage.Store
	if cfg.Postgres.URL != "" {
		db, err := postgres.Connect(ctx, cfg.Postgres)
		if err != nil {
			logger.Errorf(ctx, "Failed to connect to PostgreSQL: %v", err)
			return
		}
		defer db.Close()
		store = postgres.New(db, logger)
		logger.Info(ctx, "PostgreSQL connected successfully")
	} else {
		memStore := memory.New()
		if _, err := memStore.SeedDemoData(ctx); err != nil {
			logger.Errorf(ctx, "Failed to seed demo data: %v", err)
			return
		}
		store = memStore
		logger.Info(ctx, "Using in-memory store with demo data")
	}

	// Simulation engines share one locked random source and one aggregator.
	rng := simulation.NewRand()
	aggregator := simulation.NewSentimentAggregator()
	aggregator.SeedDemoData(rng)

	hub := ws.NewHub(store, logger)
	logger.Info(ctx, "WebSocket hub started")

	scheduler := simulation.NewScheduler(
		store,
		simulation.NewSynthesizer(aggregator, rng),
		simulation.NewAlertEngine(aggregator, rng),
		simulation.NewDriftEngine(store, rng),
		aggregator,
		hub,
		rng,
		clockwork.NewRealClock(),
		logger,
		simulation.SchedulerConfig{
			FastInterval: cfg.Simulation.FastInterval,
			SlowInterval: cfg.Simulation.SlowInterval,
		},
	)

	if cfg.Simulation.AutoStart {
		scheduler.Start(ctx, cfg.Simulation.DemoDisasterID)
	}

	wsHandler := ws.NewHandler(hub, logger, cfg.WebSocket)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	srv := server.New(server.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		Router:    router,
		Logger:    logger,
		Hub:       hub,
		WSHandler: wsHandler,
		Store:     store,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "Server error: %v", err)
		}
	}()

	logger.Infof(ctx, "CrisisWatch listening on %s:%d", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown components in order: stop producing, then disconnect clients,
	// then stop accepting requests.
	scheduler.Shutdown()
	hub.Shutdown(shutdownCtx)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "Error shutting down server: %v", err)
	}

	logger.Info(ctx, "Server shutdown complete")
}
