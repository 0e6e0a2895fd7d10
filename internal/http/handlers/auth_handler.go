package handlers

import (
	"errors"

	"github.com/de-inherit/backend/internal/auth"
	"github.com/de-inherit/backend/internal/config"
	"github.com/de-inherit/backend/internal/http/dto"
	"github.com/de-inherit/backend/internal/models"
	"github.com/de-inherit/backend/internal/repositories"
	"github.com/de-inherit/backend/internal/wallet"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler implements wallet-proof login. The wallet address is the
// only identity in the system, so proving control of the wallet IS the
// authentication.
type AuthHandler struct {
	proofRepo *repositories.ProofRepo
	cfg       *config.Config
	log       *zap.Logger
}

func NewAuthHandler(proofRepo *repositories.ProofRepo, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{proofRepo: proofRepo, cfg: cfg, log: log}
}

// ProofPayload issues a single-use nonce the wallet must sign.
// POST /auth/proof-payload
func (h *AuthHandler) ProofPayload(c *fiber.Ctx) error {
	p, err := h.proofRepo.CreatePayload(c.Context(), h.cfg.ProofMaxAge)
	if err != nil {
		h.log.Error("failed to create proof payload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(fiber.Map{"payload": p.Payload})
}

// WalletAuth verifies a signed proof and returns a session token.
// POST /auth/wallet
func (h *AuthHandler) WalletAuth(c *fiber.Ctx) error {
	var req dto.AuthWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Address == "" || req.PublicKey == "" || req.Proof.Signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "address, public_key, and proof.signature are required"})
	}
	if req.Network != "" && req.Network != h.cfg.TONNetwork {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "wrong network"})
	}

	// The nonce burns here; a replayed proof fails before any crypto runs.
	if _, err := h.proofRepo.ConsumePayload(c.Context(), req.Proof.Payload); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "unknown or expired proof payload"})
		}
		h.log.Error("failed to consume proof payload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	workchain, addrHash, err := wallet.ParseRaw(req.Address)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid wallet address"})
	}

	if err := wallet.VerifyProof(req.PublicKey, addrHash, workchain, req.Proof, h.cfg.ProofAllowedDomains, h.cfg.ProofMaxAge); err != nil {
		h.log.Debug("wallet proof verification failed", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	owner, err := wallet.NormalizeRaw(req.Address)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid wallet address"})
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, owner, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("failed to generate jwt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.AuthResponse{Token: token, WalletAddress: owner})
}
