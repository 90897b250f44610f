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

	"github.com/samirrijal/youthcenters/internal/adapters/http"
	natsadapter "github.com/samirrijal/youthcenters/internal/adapters/nats"
	"github.com/samirrijal/youthcenters/internal/bootstrap"
	"github.com/samirrijal/youthcenters/internal/core/domain"
	"github.com/samirrijal/youthcenters/internal/pkg/config"
	"github.com/samirrijal/youthcenters/internal/pkg/logging"
	"github.com/samirrijal/youthcenters/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("youthcenters-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	rt, err := bootstrap.New(ctx, cfg, bootstrap.Options{Cache: true, Events: true})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer rt.Close()

	deps := &http.Dependencies{
		Centers: rt.Centers,
		Limits:  http.Limits{Default: cfg.Finder.DefaultLimit, Max: cfg.Finder.MaxLimit},

		AdminToken: cfg.Server.AdminToken,
	}
	if deps.AdminToken == "" {
		slog.Info("dataset import endpoint disabled, set server.admin_token to enable it")
	}
	if rt.DB != nil {
		deps.DB = rt.DB
		go rt.DB.ReportPoolStats(ctx, 15*time.Second)
	}
	if rt.Cache != nil {
		deps.Cache = rt.Cache
	}
	if rt.Publisher != nil {
		deps.NATS = rt.Publisher.Conn()

		// Imports done by the ingestor or refresher land in the shared
		// database; drop cached rankings when they announce it.
		sub, err := natsadapter.NewSubscriber(rt.Publisher.Conn())
		if err == nil {
			err = sub.SubscribeDatasetUpdated(ctx, func(ctx context.Context, e *domain.DatasetEvent) error {
				slog.Info("dataset updated", "source", e.Source, "centers", e.Centers)
				rt.Centers.Invalidate(ctx, e.Version)
				return nil
			})
		}
		if err != nil {
			slog.Warn("dataset subscription unavailable", "error", err)
		} else {
			defer sub.Close()
		}
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    4 * 1024 * 1024, // CSV imports
		AppName:      "Youth Centers API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Session-ID",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "source", cfg.Data.Source)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
