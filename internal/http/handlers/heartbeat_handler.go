package handlers

import (
	"github.com/de-inherit/backend/internal/http/dto"
	"github.com/de-inherit/backend/internal/middleware"
	"github.com/de-inherit/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type HeartbeatHandler struct {
	heartbeatService *services.HeartbeatService
	log              *zap.Logger
}

func NewHeartbeatHandler(heartbeatService *services.HeartbeatService, log *zap.Logger) *HeartbeatHandler {
	return &HeartbeatHandler{heartbeatService: heartbeatService, log: log}
}

// Heartbeat renews the authenticated wallet's liveness signal. The
// timestamp is the server clock; the request body is ignored.
// POST /heartbeat
func (h *HeartbeatHandler) Heartbeat(c *fiber.Ctx) error {
	v, err := h.heartbeatService.RecordHeartbeat(c.Context(), middleware.GetWallet(c))
	if err != nil {
		return c.Status(statusForErr(err)).JSON(dto.ErrorResponse{Error: errorBody(err)})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: v})
}

// GhostCheck triggers an on-demand ghost-mode probe for the
// authenticated wallet, on top of the periodic worker sweep.
// POST /ghost-mode/check
func (h *HeartbeatHandler) GhostCheck(c *fiber.Ctx) error {
	renewed, v, err := h.heartbeatService.CheckGhostMode(c.Context(), middleware.GetWallet(c))
	if err != nil {
		return c.Status(statusForErr(err)).JSON(dto.ErrorResponse{Error: errorBody(err)})
	}
	return c.JSON(dto.GhostCheckResponse{Renewed: renewed, Vault: v})
}
