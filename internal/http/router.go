package http

import (
	"time"

	"github.com/de-inherit/backend/internal/config"
	"github.com/de-inherit/backend/internal/http/handlers"
	"github.com/de-inherit/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	vaultHandler *handlers.VaultHandler,
	heartbeatHandler *handlers.HeartbeatHandler,
	guardianHandler *handlers.GuardianHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Rate-limited public endpoints
	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Wallet-proof auth (public)
	api.Post("/auth/proof-payload", authHandler.ProofPayload)
	api.Post("/auth/wallet", authHandler.WalletAuth)

	// Liveness read for external pollers (public)
	api.Get("/pulse", vaultHandler.Pulse)

	// Guardian gate (public; votes are validated against the vault's
	// guardian list)
	api.Post("/guardians/approvals", guardianHandler.RecordApproval)
	api.Get("/guardians/approvals", guardianHandler.GetApprovals)

	// Owner endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	protected.Post("/vault", vaultHandler.CreateVault)
	protected.Get("/vault", vaultHandler.GetVault)
	protected.Delete("/vault", vaultHandler.DeleteVault)

	protected.Post("/heartbeat", heartbeatHandler.Heartbeat)
	protected.Post("/ghost-mode/check", heartbeatHandler.GhostCheck)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
