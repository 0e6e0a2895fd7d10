package middleware

import (
	"strings"

	"github.com/de-inherit/backend/internal/auth"
	"github.com/de-inherit/backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const CtxWallet = "wallet_address"

func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(CtxWallet, claims.WalletAddress)

		return c.Next()
	}
}

// GetWallet returns the normalized wallet address bound to the session.
func GetWallet(c *fiber.Ctx) string {
	w, _ := c.Locals(CtxWallet).(string)
	return w
}
