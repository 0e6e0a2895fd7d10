package services

import (
	"context"
	"fmt"
	"time"

	"github.com/de-inherit/backend/internal/config"
	"github.com/de-inherit/backend/internal/events"
	"github.com/de-inherit/backend/internal/liveness"
	"github.com/de-inherit/backend/internal/models"
	"go.uber.org/zap"
)

// ReleaseService is the sole writer of the released flag. It turns an
// evaluator verdict plus guardian state into a release decision and, on
// release, performs the one-way transition followed by the external
// follow-ups (payload release, heir notification).
type ReleaseService struct {
	vaults    VaultStore
	approvals ApprovalStore
	eventLog  EventLogger
	publisher events.Publisher
	payload   PayloadReleaser
	notifier  HeirNotifier
	cfg       *config.Config
	log       *zap.Logger
}

func NewReleaseService(
	vaults VaultStore,
	approvals ApprovalStore,
	eventLog EventLogger,
	publisher events.Publisher,
	payload PayloadReleaser,
	notifier HeirNotifier,
	cfg *config.Config,
	log *zap.Logger,
) *ReleaseService {
	return &ReleaseService{
		vaults:    vaults,
		approvals: approvals,
		eventLog:  eventLog,
		publisher: publisher,
		payload:   payload,
		notifier:  notifier,
		cfg:       cfg,
		log:       log,
	}
}

// Dispatch evaluates one vault and releases it if the policy allows.
//
// The released flag flips via a conditional write, so concurrent dispatches
// of the same vault produce exactly one release: the loser's zero-row
// update is normalized to DecisionAlreadyReleased, never an error and never
// a second payload release or email.
//
// Follow-up failures after the flip are returned (wrapped as upstream
// errors) but the flag stays set: the vault is released-but-unnotified and
// the retry sweep picks it up later.
func (s *ReleaseService) Dispatch(ctx context.Context, v *models.Vault) (string, error) {
	now := time.Now().UTC()
	verdict := liveness.Evaluate(v, now)

	var approvalState models.ApprovalState
	if v.HasGuardians() && verdict.Status == liveness.StatusDead && !v.IsReleased {
		count, err := s.approvals.CountApproved(ctx, v.ID)
		if err != nil {
			return liveness.DecisionWait, fmt.Errorf("count approvals: %w", err)
		}
		approvalState = models.ApprovalState{
			ApprovalCount: count,
			Required:      v.RequiredApprovals,
			ThresholdMet:  count >= v.RequiredApprovals,
		}
	}

	decision := liveness.Decide(v, verdict, approvalState)
	if decision != liveness.DecisionRelease {
		return decision, nil
	}

	flipped, err := s.vaults.MarkReleased(ctx, v.ID, now)
	if err != nil {
		return liveness.DecisionWait, fmt.Errorf("mark released: %w", err)
	}
	if !flipped {
		// Race lost: another dispatcher released first.
		return liveness.DecisionAlreadyReleased, nil
	}

	_ = s.eventLog.Log(ctx, models.VaultEvent{
		ActorType: "system",
		Action:    "vault_released",
		VaultID:   &v.ID,
		Meta:      map[string]any{"dead_since": verdict.DeadSince},
	})
	_ = s.publisher.Publish(ctx, events.StreamVault, events.Event{
		Type: events.EventVaultReleased,
		Payload: map[string]any{
			"wallet":     v.WalletAddress,
			"vault_id":   v.ID.String(),
			"dead_since": verdict.DeadSince,
		},
	})

	s.log.Info("vault released",
		zap.String("wallet", v.WalletAddress),
		zap.Timep("dead_since", verdict.DeadSince),
	)

	if err := s.runFollowups(ctx, v); err != nil {
		return liveness.DecisionRelease, err
	}
	return liveness.DecisionRelease, nil
}

// RetryFollowups re-runs payload release and heir notification for a vault
// that is already released but not yet confirmed notified. Both delegates
// are idempotent on their side, so re-attempting is safe.
func (s *ReleaseService) RetryFollowups(ctx context.Context, v *models.Vault) error {
	if !v.IsReleased {
		return fmt.Errorf("vault %s is not released", v.WalletAddress)
	}
	return s.runFollowups(ctx, v)
}

func (s *ReleaseService) runFollowups(ctx context.Context, v *models.Vault) error {
	relCtx, cancel := context.WithTimeout(ctx, s.cfg.UpstreamTimeout)
	defer cancel()

	if err := s.payload.Release(relCtx, v.ProtectedDataAddress, v.HeirEmail); err != nil {
		s.log.Error("payload release failed, vault stays released for retry",
			zap.String("wallet", v.WalletAddress), zap.Error(err))
		return fmt.Errorf("release payload: %w", err)
	}

	notifyCtx, cancel := context.WithTimeout(ctx, s.cfg.UpstreamTimeout)
	defer cancel()

	heirName := ""
	if v.HeirName != nil {
		heirName = *v.HeirName
	}
	messageID, err := s.notifier.Notify(notifyCtx, NotifyRequest{
		HeirEmail:   v.HeirEmail,
		HeirName:    heirName,
		OwnerWallet: v.WalletAddress,
		ClaimURL:    fmt.Sprintf("%s?vault=%s", s.cfg.ClaimBaseURL, v.ID),
	})
	if err != nil {
		s.log.Error("heir notification failed, vault stays released for retry",
			zap.String("wallet", v.WalletAddress), zap.Error(err))
		return fmt.Errorf("notify heir: %w", err)
	}

	if err := s.vaults.MarkNotified(ctx, v.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}

	s.log.Info("heir notified",
		zap.String("wallet", v.WalletAddress),
		zap.String("message_id", messageID),
	)
	return nil
}
