package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ejjonny/bort/internal/catalog"
	"github.com/ejjonny/bort/internal/config"
	"github.com/ejjonny/bort/internal/database"
	"github.com/ejjonny/bort/internal/discord"
	"github.com/ejjonny/bort/internal/handler"
	"github.com/ejjonny/bort/internal/logger"
	"github.com/ejjonny/bort/internal/middleware"
	"github.com/ejjonny/bort/internal/repository"
	"github.com/ejjonny/bort/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	// Database
	pool, err := database.NewPool(context.Background(), cfg.DatabaseURL, zl)
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.CreateSchema(context.Background(), pool); err != nil {
		zl.Fatal("failed to create schema", zap.Error(err))
	}

	// Item catalog
	items, err := catalog.Load(cfg.CargoDataFile, cfg.ItemDataFile)
	if err != nil {
		zl.Fatal("failed to load item catalog", zap.Error(err))
	}
	zl.Info("item catalog loaded", zap.Int("items", items.Len()))

	// Wiring
	listingRepo := repository.NewListingRepository(pool)
	listingSvc := service.NewListingService(listingRepo, items)

	// Expiry sweeper
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sweeper := service.NewSweeper(listingRepo, cfg.SweepInterval, cfg.ListingTTL, zl.Named("sweeper"))
	go sweeper.Run(sweepCtx)

	// Discord bot
	bot, err := discord.NewBot(cfg.DiscordToken, cfg.GuildID, listingSvc, items, cfg.ListingTTL, zl.Named("bot"))
	if err != nil {
		zl.Fatal("failed to create bot", zap.Error(err))
	}
	if err := bot.Start(); err != nil {
		zl.Fatal("failed to start bot", zap.Error(err))
	}

	// Health endpoints
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	})
	app.Use(recover.New())
	app.Use(middleware.Logger(zl.Named("http")))

	healthH := handler.NewHealthHandler(pool)
	app.Get("/health", healthH.Health)
	app.Get("/ready", healthH.Ready)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zl.Fatal("http server error", zap.Error(err))
		}
	}()

	zl.Info("bort running", zap.String("port", cfg.Port), zap.String("env", cfg.Env))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down")
	stopSweep()
	bot.Stop()
	_ = app.ShutdownWithTimeout(5 * time.Second)
	zl.Info("stopped")
}
