package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/de-inherit/backend/internal/chain"
	"github.com/de-inherit/backend/internal/config"
	"github.com/de-inherit/backend/internal/db"
	"github.com/de-inherit/backend/internal/events"
	apphttp "github.com/de-inherit/backend/internal/http"
	"github.com/de-inherit/backend/internal/http/handlers"
	"github.com/de-inherit/backend/internal/repositories"
	"github.com/de-inherit/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	vaultRepo := repositories.NewVaultRepo(pool)
	approvalRepo := repositories.NewApprovalRepo(pool)
	eventRepo := repositories.NewEventRepo(pool)
	proofRepo := repositories.NewProofRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Chain access for ghost mode
	activity, err := chain.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to connect to lite server", zap.Error(err))
	}

	// Services
	limiter := services.NewRedisLimiter(rdb)
	vaultService := services.NewVaultService(vaultRepo, eventRepo, cfg, log)
	heartbeatService := services.NewHeartbeatService(vaultRepo, eventRepo, publisher, activity, limiter, cfg, log)
	guardianService := services.NewGuardianService(vaultRepo, approvalRepo, eventRepo, publisher, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(proofRepo, cfg, log)
	vaultHandler := handlers.NewVaultHandler(vaultService, log)
	heartbeatHandler := handlers.NewHeartbeatHandler(heartbeatService, log)
	guardianHandler := handlers.NewGuardianHandler(guardianService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, vaultHandler, heartbeatHandler, guardianHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
