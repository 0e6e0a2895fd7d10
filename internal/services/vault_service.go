package services

import (
	"context"
	"fmt"
	"time"

	"github.com/de-inherit/backend/internal/config"
	"github.com/de-inherit/backend/internal/liveness"
	"github.com/de-inherit/backend/internal/models"
	"github.com/de-inherit/backend/internal/wallet"
	"go.uber.org/zap"
)

type VaultService struct {
	vaults VaultStore
	events EventLogger
	cfg    *config.Config
	log    *zap.Logger
}

func NewVaultService(vaults VaultStore, events EventLogger, cfg *config.Config, log *zap.Logger) *VaultService {
	return &VaultService{vaults: vaults, events: events, cfg: cfg, log: log}
}

// CreateVaultRequest lists every recognized option explicitly; unset
// optionals get the documented defaults (threshold 30 days, ghost mode off,
// no guardians).
type CreateVaultRequest struct {
	WalletAddress        string
	ProtectedDataAddress string
	HeirEmail            string
	HeirName             *string
	VideoIPFSHash        *string
	ThresholdDays        int
	GhostModeEnabled     bool
	GuardianAddresses    []string
	RequiredApprovals    int
}

func (s *VaultService) Create(ctx context.Context, req CreateVaultRequest) (*models.Vault, error) {
	owner, err := wallet.NormalizeRaw(req.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
	}
	if req.ProtectedDataAddress == "" {
		return nil, fmt.Errorf("%w: protected_data_address is required", models.ErrInvalidConfig)
	}
	if err := models.ValidateHeirEmail(req.HeirEmail); err != nil {
		return nil, err
	}

	if req.ThresholdDays == 0 {
		req.ThresholdDays = models.DefaultThresholdDays
	}

	guardians := make([]string, 0, len(req.GuardianAddresses))
	for _, g := range req.GuardianAddresses {
		norm, err := wallet.NormalizeRaw(g)
		if err != nil {
			return nil, fmt.Errorf("%w: guardian %q: %v", models.ErrInvalidConfig, g, err)
		}
		guardians = append(guardians, norm)
	}

	if err := models.ValidateVaultConfig(req.ThresholdDays, guardians, req.RequiredApprovals); err != nil {
		return nil, err
	}

	v := &models.Vault{
		WalletAddress:        owner,
		ProtectedDataAddress: req.ProtectedDataAddress,
		HeirEmail:            req.HeirEmail,
		HeirName:             req.HeirName,
		VideoIPFSHash:        req.VideoIPFSHash,
		ThresholdDays:        req.ThresholdDays,
		GhostModeEnabled:     req.GhostModeEnabled,
		GuardianAddresses:    guardians,
		RequiredApprovals:    req.RequiredApprovals,
	}

	if err := s.vaults.Create(ctx, v); err != nil {
		return nil, err
	}

	_ = s.events.Log(ctx, models.VaultEvent{
		ActorWallet: &owner,
		ActorType:   "owner",
		Action:      "vault_created",
		VaultID:     &v.ID,
		Meta: map[string]any{
			"threshold_days": v.ThresholdDays,
			"ghost_mode":     v.GhostModeEnabled,
			"guardians":      len(v.GuardianAddresses),
		},
	})

	s.log.Info("vault created",
		zap.String("wallet", owner),
		zap.Int("threshold_days", v.ThresholdDays),
	)
	return v, nil
}

func (s *VaultService) Get(ctx context.Context, rawWallet string) (*models.Vault, error) {
	owner, err := wallet.NormalizeRaw(rawWallet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
	}
	return s.vaults.GetByWallet(ctx, owner)
}

func (s *VaultService) Delete(ctx context.Context, rawWallet string) error {
	owner, err := wallet.NormalizeRaw(rawWallet)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
	}
	if err := s.vaults.Delete(ctx, owner); err != nil {
		return err
	}

	_ = s.events.Log(ctx, models.VaultEvent{
		ActorWallet: &owner,
		ActorType:   "owner",
		Action:      "vault_deleted",
	})
	return nil
}

// PulseStatus is the liveness surface an external poller consumes to decide
// whether to trigger release.
type PulseStatus struct {
	Wallet        string     `json:"wallet"`
	IsDead        bool       `json:"is_dead"`
	DeadSince     *time.Time `json:"dead_since"`
	IsReleased    bool       `json:"is_released"`
	LastHeartbeat time.Time  `json:"last_heartbeat"`
	ThresholdDays int        `json:"threshold_days"`
}

func (s *VaultService) Pulse(ctx context.Context, rawWallet string) (*PulseStatus, error) {
	v, err := s.Get(ctx, rawWallet)
	if err != nil {
		return nil, err
	}

	verdict := liveness.Evaluate(v, time.Now().UTC())
	return &PulseStatus{
		Wallet:        v.WalletAddress,
		IsDead:        verdict.Status == liveness.StatusDead,
		DeadSince:     verdict.DeadSince,
		IsReleased:    v.IsReleased,
		LastHeartbeat: v.LastHeartbeat,
		ThresholdDays: v.ThresholdDays,
	}, nil
}
