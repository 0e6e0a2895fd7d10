package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/de-inherit/backend/internal/config"
	"github.com/de-inherit/backend/internal/events"
	"github.com/de-inherit/backend/internal/models"
	"github.com/de-inherit/backend/internal/wallet"
	"go.uber.org/zap"
)

type HeartbeatService struct {
	vaults    VaultStore
	eventLog  EventLogger
	publisher events.Publisher
	activity  ActivitySource
	limiter   Limiter
	cfg       *config.Config
	log       *zap.Logger
}

func NewHeartbeatService(
	vaults VaultStore,
	eventLog EventLogger,
	publisher events.Publisher,
	activity ActivitySource,
	limiter Limiter,
	cfg *config.Config,
	log *zap.Logger,
) *HeartbeatService {
	return &HeartbeatService{
		vaults:    vaults,
		eventLog:  eventLog,
		publisher: publisher,
		activity:  activity,
		limiter:   limiter,
		cfg:       cfg,
		log:       log,
	}
}

// RecordHeartbeat renews the vault's liveness signal. The timestamp is
// always the server's own clock at the moment of the call; callers cannot
// backdate. Has no effect on release state.
func (s *HeartbeatService) RecordHeartbeat(ctx context.Context, rawWallet string) (*models.Vault, error) {
	owner, err := wallet.NormalizeRaw(rawWallet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
	}

	now := time.Now().UTC()
	v, err := s.vaults.RecordHeartbeat(ctx, owner, now)
	if err != nil {
		return nil, err
	}

	_ = s.eventLog.Log(ctx, models.VaultEvent{
		ActorWallet: &owner,
		ActorType:   "owner",
		Action:      "heartbeat_recorded",
		VaultID:     &v.ID,
	})
	_ = s.publisher.Publish(ctx, events.StreamVault, events.Event{
		Type: events.EventHeartbeatRecorded,
		Payload: map[string]any{
			"wallet":         owner,
			"last_heartbeat": v.LastHeartbeat,
		},
	})

	return v, nil
}

// CheckGhostMode renews the heartbeat automatically when fresh on-chain
// activity is observed for the wallet.
//
// It is a no-op when ghost mode is disabled, the vault is released, no
// activity exists, or the activity is not newer than the current heartbeat.
// Chain errors are fail-safe: logged and treated as no activity observed.
// On renewal the heartbeat is set to the detection time, not the activity's
// own timestamp — renewal is anchored to when the system saw it.
func (s *HeartbeatService) CheckGhostMode(ctx context.Context, rawWallet string) (bool, *models.Vault, error) {
	owner, err := wallet.NormalizeRaw(rawWallet)
	if err != nil {
		return false, nil, fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
	}

	v, err := s.vaults.GetByWallet(ctx, owner)
	if err != nil {
		return false, nil, err
	}
	if v.IsReleased || !v.GhostModeEnabled {
		return false, v, nil
	}

	if !s.limiter.AllowOnce(ctx, "ghost:checked:"+owner, s.cfg.GhostCheckThrottle) {
		return false, v, nil
	}

	actCtx, cancel := context.WithTimeout(ctx, s.cfg.UpstreamTimeout)
	defer cancel()

	activityAt, err := s.activity.LatestActivity(actCtx, owner)
	if err != nil {
		s.log.Warn("on-chain activity lookup failed, treating as no activity",
			zap.String("wallet", owner), zap.Error(err))
		return false, v, nil
	}
	if activityAt == nil || !activityAt.After(v.LastHeartbeat) {
		return false, v, nil
	}

	now := time.Now().UTC()
	updated, err := s.vaults.ApplyGhostRenewal(ctx, owner, now, *activityAt)
	if err != nil {
		// Vault released between the read and the write; ghost mode is
		// inert post-release.
		if errors.Is(err, models.ErrNotFound) {
			return false, v, nil
		}
		return false, v, err
	}

	_ = s.eventLog.Log(ctx, models.VaultEvent{
		ActorType: "system",
		Action:    "ghost_renewal",
		VaultID:   &updated.ID,
		Meta:      map[string]any{"activity_at": activityAt},
	})
	_ = s.publisher.Publish(ctx, events.StreamVault, events.Event{
		Type: events.EventGhostRenewal,
		Payload: map[string]any{
			"wallet":         owner,
			"last_heartbeat": updated.LastHeartbeat,
			"activity_at":    activityAt,
		},
	})

	s.log.Info("heartbeat auto-renewed via ghost mode",
		zap.String("wallet", owner),
		zap.Time("activity_at", *activityAt),
	)
	return true, updated, nil
}
