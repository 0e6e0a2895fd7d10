package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/de-inherit/backend/internal/chain"
	"github.com/de-inherit/backend/internal/config"
	"github.com/de-inherit/backend/internal/db"
	"github.com/de-inherit/backend/internal/events"
	"github.com/de-inherit/backend/internal/liveness"
	"github.com/de-inherit/backend/internal/repositories"
	"github.com/de-inherit/backend/internal/services"
	"go.uber.org/zap"
)

const sweepBatchSize = 200

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	vaultRepo := repositories.NewVaultRepo(pool)
	approvalRepo := repositories.NewApprovalRepo(pool)
	eventRepo := repositories.NewEventRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	limiter := services.NewRedisLimiter(rdb)

	activity, err := chain.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to connect to lite server", zap.Error(err))
	}

	payloadClient := services.NewPayloadClient(cfg.PayloadGatewayURL, cfg.PayloadGatewayKey, log)
	notifierClient := services.NewNotifierClient(cfg.MailerURL, cfg.MailerKey, cfg.MailerFrom, log)
	heartbeatService := services.NewHeartbeatService(vaultRepo, eventRepo, publisher, activity, limiter, cfg, log)
	releaseService := services.NewReleaseService(vaultRepo, approvalRepo, eventRepo, publisher, payloadClient, notifierClient, cfg, log)

	log.Info("worker started")

	// Run jobs on tickers
	sweepTicker := time.NewTicker(cfg.SweepInterval)
	ghostTicker := time.NewTicker(cfg.GhostSweepInterval)
	retryTicker := time.NewTicker(cfg.RetrySweepInterval)
	defer sweepTicker.Stop()
	defer ghostTicker.Stop()
	defer retryTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			// One worker instance sweeps per interval; the release write
			// itself is conditional, so the lock is only load shedding.
			if limiter.AllowOnce(ctx, "sweep:liveness", cfg.SweepInterval/2) {
				runLivenessSweep(ctx, vaultRepo, releaseService, log)
			}
		case <-ghostTicker.C:
			if limiter.AllowOnce(ctx, "sweep:ghost", cfg.GhostSweepInterval/2) {
				runGhostSweep(ctx, vaultRepo, heartbeatService, log)
			}
		case <-retryTicker.C:
			if limiter.AllowOnce(ctx, "sweep:retry", cfg.RetrySweepInterval/2) {
				runRetrySweep(ctx, vaultRepo, releaseService, log)
			}
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

// runLivenessSweep dispatches every vault whose deadline has passed.
func runLivenessSweep(ctx context.Context, vaultRepo *repositories.VaultRepo, releaseService *services.ReleaseService, log *zap.Logger) {
	vaults, err := vaultRepo.ListDue(ctx, time.Now().UTC(), sweepBatchSize)
	if err != nil {
		log.Error("failed to list due vaults", zap.Error(err))
		return
	}

	for i := range vaults {
		v := &vaults[i]
		decision, err := releaseService.Dispatch(ctx, v)
		if err != nil {
			log.Error("release dispatch failed",
				zap.String("wallet", v.WalletAddress),
				zap.String("decision", decision),
				zap.Error(err),
			)
			continue
		}
		if decision == liveness.DecisionRelease {
			log.Info("vault released by sweep", zap.String("wallet", v.WalletAddress))
		}
	}
}

// runGhostSweep probes on-chain activity for every ghost-mode vault. The
// per-wallet throttle inside CheckGhostMode keeps RPC volume bounded.
func runGhostSweep(ctx context.Context, vaultRepo *repositories.VaultRepo, heartbeatService *services.HeartbeatService, log *zap.Logger) {
	vaults, err := vaultRepo.ListGhostEnabled(ctx, sweepBatchSize)
	if err != nil {
		log.Error("failed to list ghost-mode vaults", zap.Error(err))
		return
	}

	for i := range vaults {
		v := &vaults[i]
		renewed, _, err := heartbeatService.CheckGhostMode(ctx, v.WalletAddress)
		if err != nil {
			log.Error("ghost check failed", zap.String("wallet", v.WalletAddress), zap.Error(err))
			continue
		}
		if renewed {
			log.Info("ghost mode renewed heartbeat", zap.String("wallet", v.WalletAddress))
		}
	}
}

// runRetrySweep finishes follow-ups for vaults that are released but whose
// payload release or heir notification has not been confirmed yet.
func runRetrySweep(ctx context.Context, vaultRepo *repositories.VaultRepo, releaseService *services.ReleaseService, log *zap.Logger) {
	// Skip releases from the last minute; their first attempt may still be
	// in flight.
	cutoff := time.Now().UTC().Add(-time.Minute)
	vaults, err := vaultRepo.ListUnnotified(ctx, cutoff, sweepBatchSize)
	if err != nil {
		log.Error("failed to list unnotified vaults", zap.Error(err))
		return
	}

	for i := range vaults {
		v := &vaults[i]
		if err := releaseService.RetryFollowups(ctx, v); err != nil {
			log.Warn("follow-up retry failed", zap.String("wallet", v.WalletAddress), zap.Error(err))
			continue
		}
		log.Info("follow-ups completed on retry", zap.String("wallet", v.WalletAddress))
	}
}
