package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/alexvidal/safewalk/internal/adapters/http"
	"github.com/alexvidal/safewalk/internal/adapters/mapview"
	natsadapter "github.com/alexvidal/safewalk/internal/adapters/nats"
	openaiadapter "github.com/alexvidal/safewalk/internal/adapters/openai"
	"github.com/alexvidal/safewalk/internal/adapters/valkey"
	"github.com/alexvidal/safewalk/internal/core/domain"
	"github.com/alexvidal/safewalk/internal/core/ports"
	"github.com/alexvidal/safewalk/internal/core/usecases"
	"github.com/alexvidal/safewalk/internal/pkg/config"
	"github.com/alexvidal/safewalk/internal/pkg/logging"
	"github.com/alexvidal/safewalk/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("safewalk-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, running without score cache", "error", err)
		cache = nil
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	// NATS publisher: assessment events over JetStream, view commands plain
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		events = pub
		defer pub.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Inference client
	inference := openaiadapter.New(openaiadapter.Config{
		APIKey:  cfg.Inference.APIKey,
		BaseURL: cfg.Inference.BaseURL,
		Model:   cfg.Inference.Model,
	}, slog.Default())

	// Core engine
	start := domain.Coordinate{Lat: cfg.Start.Lat, Lng: cfg.Start.Lng}
	var dest *domain.Coordinate
	if cfg.Start.DestLat != 0 || cfg.Start.DestLng != 0 {
		dest = &domain.Coordinate{Lat: cfg.Start.DestLat, Lng: cfg.Start.DestLng}
	}
	state := usecases.NewAssessmentState(start, dest)

	var view ports.MapView
	if events != nil {
		view = mapview.New(events, slog.Default())
	}
	rec := usecases.NewReconciler(view, slog.Default())

	retry := usecases.NewRetryPolicy(cfg.Inference.MaxRetries,
		time.Duration(cfg.Inference.InitialBackoffMS)*time.Millisecond)
	orch := usecases.NewOrchestrator(state, inference, cacheSvc, events, rec, retry,
		time.Duration(cfg.Inference.StageDelayMS)*time.Millisecond, slog.Default())
	chat := usecases.NewChatService(state, inference, slog.Default())

	deps := &http.Dependencies{
		State:        state,
		Orchestrator: orch,
		Reconciler:   rec,
		Chat:         chat,
		NATS:         natsConn,
		Cache:        cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "SafeWalk API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Kick off the first assessment so the dashboard has data on load.
	if cfg.Inference.APIKey != "" {
		if err := orch.Start(); err != nil {
			slog.Warn("initial assessment start failed", "error", err)
		}
	} else {
		slog.Warn("inference api key not set, skipping initial assessment")
	}

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
