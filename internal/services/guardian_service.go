package services

import (
	"context"
	"fmt"
	"time"

	"github.com/de-inherit/backend/internal/events"
	"github.com/de-inherit/backend/internal/models"
	"github.com/de-inherit/backend/internal/wallet"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GuardianService struct {
	vaults    VaultStore
	approvals ApprovalStore
	eventLog  EventLogger
	publisher events.Publisher
	log       *zap.Logger
}

func NewGuardianService(
	vaults VaultStore,
	approvals ApprovalStore,
	eventLog EventLogger,
	publisher events.Publisher,
	log *zap.Logger,
) *GuardianService {
	return &GuardianService{
		vaults:    vaults,
		approvals: approvals,
		eventLog:  eventLog,
		publisher: publisher,
		log:       log,
	}
}

// RecordApproval upserts a guardian's vote and returns the resulting gate
// state. A guardian may flip their vote any number of times; only the
// latest vote counts, so re-approving never double-counts.
func (s *GuardianService) RecordApproval(ctx context.Context, vaultID uuid.UUID, rawGuardian string, approved bool) (*models.ApprovalState, error) {
	guardian, err := wallet.NormalizeRaw(rawGuardian)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
	}

	v, err := s.vaults.GetByID(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if !v.IsGuardian(guardian) {
		return nil, fmt.Errorf("%w: %s is not a guardian of this vault", models.ErrInvalidConfig, guardian)
	}

	if _, err := s.approvals.Upsert(ctx, vaultID, guardian, approved, time.Now().UTC()); err != nil {
		return nil, err
	}

	count, err := s.approvals.CountApproved(ctx, vaultID)
	if err != nil {
		return nil, err
	}

	state := &models.ApprovalState{
		ApprovalCount: count,
		Required:      v.RequiredApprovals,
		ThresholdMet:  count >= v.RequiredApprovals,
	}

	_ = s.eventLog.Log(ctx, models.VaultEvent{
		ActorWallet: &guardian,
		ActorType:   "guardian",
		Action:      "guardian_approval",
		VaultID:     &vaultID,
		Meta:        map[string]any{"approved": approved, "approval_count": count},
	})
	_ = s.publisher.Publish(ctx, events.StreamVault, events.Event{
		Type: events.EventGuardianApproval,
		Payload: map[string]any{
			"vault_id":       vaultID.String(),
			"guardian":       guardian,
			"approved":       approved,
			"approval_count": count,
			"threshold_met":  state.ThresholdMet,
		},
	})

	return state, nil
}

// ApprovalStatus is the read-only view of a vault's guardian gate.
type ApprovalStatus struct {
	Approvals         []models.GuardianApproval `json:"approvals"`
	RequiredApprovals int                       `json:"required_approvals"`
	GuardianAddresses []string                  `json:"guardian_addresses"`
}

func (s *GuardianService) GetApprovals(ctx context.Context, vaultID uuid.UUID) (*ApprovalStatus, error) {
	v, err := s.vaults.GetByID(ctx, vaultID)
	if err != nil {
		return nil, err
	}

	approvals, err := s.approvals.ListByVault(ctx, vaultID)
	if err != nil {
		return nil, err
	}

	return &ApprovalStatus{
		Approvals:         approvals,
		RequiredApprovals: v.RequiredApprovals,
		GuardianAddresses: v.GuardianAddresses,
	}, nil
}

// State summarizes the gate for the release dispatcher.
func (s *GuardianService) State(ctx context.Context, v *models.Vault) (models.ApprovalState, error) {
	count, err := s.approvals.CountApproved(ctx, v.ID)
	if err != nil {
		return models.ApprovalState{}, err
	}
	return models.ApprovalState{
		ApprovalCount: count,
		Required:      v.RequiredApprovals,
		ThresholdMet:  count >= v.RequiredApprovals,
	}, nil
}
