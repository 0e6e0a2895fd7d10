package handlers

import (
	"github.com/de-inherit/backend/internal/http/dto"
	"github.com/de-inherit/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GuardianHandler struct {
	guardianService *services.GuardianService
	log             *zap.Logger
}

func NewGuardianHandler(guardianService *services.GuardianService, log *zap.Logger) *GuardianHandler {
	return &GuardianHandler{guardianService: guardianService, log: log}
}

// RecordApproval upserts one guardian's vote on a vault.
// POST /guardians/approvals
func (h *GuardianHandler) RecordApproval(c *fiber.Ctx) error {
	var req dto.GuardianApprovalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	vaultID, err := uuid.Parse(req.VaultID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid vault_id"})
	}
	if req.GuardianAddress == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "guardian_address is required"})
	}
	approved := true
	if req.Approved != nil {
		approved = *req.Approved
	}

	state, err := h.guardianService.RecordApproval(c.Context(), vaultID, req.GuardianAddress, approved)
	if err != nil {
		h.log.Debug("guardian approval rejected", zap.Error(err))
		return c.Status(statusForErr(err)).JSON(dto.ErrorResponse{Error: errorBody(err)})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: state})
}

// GetApprovals returns the full guardian gate state of a vault.
// GET /guardians/approvals?vault_id=...
func (h *GuardianHandler) GetApprovals(c *fiber.Ctx) error {
	vaultID, err := uuid.Parse(c.Query("vault_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid vault_id"})
	}

	status, err := h.guardianService.GetApprovals(c.Context(), vaultID)
	if err != nil {
		return c.Status(statusForErr(err)).JSON(dto.ErrorResponse{Error: errorBody(err)})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: status})
}
