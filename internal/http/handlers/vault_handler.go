package handlers

import (
	"github.com/de-inherit/backend/internal/http/dto"
	"github.com/de-inherit/backend/internal/middleware"
	"github.com/de-inherit/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type VaultHandler struct {
	vaultService *services.VaultService
	log          *zap.Logger
}

func NewVaultHandler(vaultService *services.VaultService, log *zap.Logger) *VaultHandler {
	return &VaultHandler{vaultService: vaultService, log: log}
}

// CreateVault registers the authenticated wallet's vault.
// POST /vault
func (h *VaultHandler) CreateVault(c *fiber.Ctx) error {
	var req dto.CreateVaultRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	v, err := h.vaultService.Create(c.Context(), services.CreateVaultRequest{
		WalletAddress:        middleware.GetWallet(c),
		ProtectedDataAddress: req.ProtectedDataAddress,
		HeirEmail:            req.HeirEmail,
		HeirName:             req.HeirName,
		VideoIPFSHash:        req.VideoIPFSHash,
		ThresholdDays:        req.ThresholdDays,
		GhostModeEnabled:     req.GhostModeEnabled,
		GuardianAddresses:    req.GuardianAddresses,
		RequiredApprovals:    req.RequiredApprovals,
	})
	if err != nil {
		h.log.Debug("vault creation rejected", zap.Error(err))
		return c.Status(statusForErr(err)).JSON(dto.ErrorResponse{Error: errorBody(err)})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: v})
}

// GetVault returns the authenticated wallet's vault.
// GET /vault
func (h *VaultHandler) GetVault(c *fiber.Ctx) error {
	v, err := h.vaultService.Get(c.Context(), middleware.GetWallet(c))
	if err != nil {
		return c.Status(statusForErr(err)).JSON(dto.ErrorResponse{Error: errorBody(err)})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: v})
}

// DeleteVault removes the authenticated wallet's vault.
// DELETE /vault
func (h *VaultHandler) DeleteVault(c *fiber.Ctx) error {
	if err := h.vaultService.Delete(c.Context(), middleware.GetWallet(c)); err != nil {
		return c.Status(statusForErr(err)).JSON(dto.ErrorResponse{Error: errorBody(err)})
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// Pulse is the public liveness read for any wallet; external pollers use
// it to decide whether a release should be attempted.
// GET /pulse?wallet=0:abc...
func (h *VaultHandler) Pulse(c *fiber.Ctx) error {
	w := c.Query("wallet")
	if w == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "wallet query parameter is required"})
	}

	status, err := h.vaultService.Pulse(c.Context(), w)
	if err != nil {
		return c.Status(statusForErr(err)).JSON(dto.ErrorResponse{Error: errorBody(err)})
	}
	return c.JSON(status)
}
