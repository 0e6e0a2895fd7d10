package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/de-inherit/backend/internal/config"
	"github.com/de-inherit/backend/internal/events"
	"github.com/de-inherit/backend/internal/models"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		GhostCheckThrottle: 10 * time.Minute,
		UpstreamTimeout:    5 * time.Second,
		ClaimBaseURL:       "https://claim.example.com/claim",
	}
}

func newHeartbeatService(vaults *fakeVaultStore, activity *fakeActivity, limiter Limiter) (*HeartbeatService, *fakePublisher) {
	pub := &fakePublisher{}
	svc := NewHeartbeatService(vaults, &fakeEventLog{}, pub, activity, limiter, testConfig(), zap.NewNop())
	return svc, pub
}

func TestRecordHeartbeatUsesServerTime(t *testing.T) {
	vaults := newFakeVaultStore()
	owner := testWallet(1)
	stale := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	vaults.add(&models.Vault{WalletAddress: owner, ThresholdDays: 30, LastHeartbeat: stale})

	svc, pub := newHeartbeatService(vaults, &fakeActivity{}, allowAllLimiter{})

	before := time.Now().UTC()
	v, err := svc.RecordHeartbeat(context.Background(), owner)
	if err != nil {
		t.Fatalf("RecordHeartbeat: %v", err)
	}
	if v.LastHeartbeat.Before(before) {
		t.Errorf("last_heartbeat %v predates the call at %v", v.LastHeartbeat, before)
	}
	if got := pub.count(events.EventHeartbeatRecorded); got != 1 {
		t.Errorf("published %d heartbeat events, want 1", got)
	}
}

func TestRecordHeartbeatUnknownVault(t *testing.T) {
	svc, _ := newHeartbeatService(newFakeVaultStore(), &fakeActivity{}, allowAllLimiter{})

	_, err := svc.RecordHeartbeat(context.Background(), testWallet(9))
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestCheckGhostModeRenewsOnFreshActivity(t *testing.T) {
	vaults := newFakeVaultStore()
	owner := testWallet(2)
	hb := time.Now().UTC().Add(-20 * 24 * time.Hour)
	vaults.add(&models.Vault{
		WalletAddress:    owner,
		ThresholdDays:    30,
		LastHeartbeat:    hb,
		GhostModeEnabled: true,
	})

	activityAt := time.Now().UTC().Add(-1 * time.Hour)
	svc, pub := newHeartbeatService(vaults, &fakeActivity{at: &activityAt}, allowAllLimiter{})

	renewed, v, err := svc.CheckGhostMode(context.Background(), owner)
	if err != nil {
		t.Fatalf("CheckGhostMode: %v", err)
	}
	if !renewed {
		t.Fatal("expected renewal for activity newer than the heartbeat")
	}
	// Renewal is anchored to detection time, not the transaction's time.
	if !v.LastHeartbeat.After(activityAt) {
		t.Errorf("last_heartbeat %v should be the detection time, after activity at %v", v.LastHeartbeat, activityAt)
	}
	if v.LastOnChainActivity == nil || !v.LastOnChainActivity.Equal(activityAt) {
		t.Errorf("last_on_chain_activity = %v, want %v", v.LastOnChainActivity, activityAt)
	}
	if got := pub.count(events.EventGhostRenewal); got != 1 {
		t.Errorf("published %d ghost renewal events, want 1", got)
	}
}

func TestCheckGhostModeStaleActivity(t *testing.T) {
	vaults := newFakeVaultStore()
	owner := testWallet(3)
	hb := time.Now().UTC().Add(-1 * time.Hour)
	vaults.add(&models.Vault{
		WalletAddress:    owner,
		ThresholdDays:    30,
		LastHeartbeat:    hb,
		GhostModeEnabled: true,
	})

	stale := hb.Add(-48 * time.Hour)
	svc, _ := newHeartbeatService(vaults, &fakeActivity{at: &stale}, allowAllLimiter{})

	renewed, v, err := svc.CheckGhostMode(context.Background(), owner)
	if err != nil {
		t.Fatalf("CheckGhostMode: %v", err)
	}
	if renewed {
		t.Fatal("activity older than the heartbeat must not renew")
	}
	if !v.LastHeartbeat.Equal(hb) {
		t.Errorf("last_heartbeat changed to %v", v.LastHeartbeat)
	}
}

func TestCheckGhostModeNoActivity(t *testing.T) {
	vaults := newFakeVaultStore()
	owner := testWallet(4)
	vaults.add(&models.Vault{
		WalletAddress:    owner,
		ThresholdDays:    30,
		LastHeartbeat:    time.Now().UTC().Add(-40 * 24 * time.Hour),
		GhostModeEnabled: true,
	})

	svc, _ := newHeartbeatService(vaults, &fakeActivity{at: nil}, allowAllLimiter{})

	renewed, _, err := svc.CheckGhostMode(context.Background(), owner)
	if err != nil {
		t.Fatalf("CheckGhostMode: %v", err)
	}
	if renewed {
		t.Fatal("no on-chain activity must not renew")
	}
}

func TestCheckGhostModeChainErrorFailsSafe(t *testing.T) {
	vaults := newFakeVaultStore()
	owner := testWallet(5)
	hb := time.Now().UTC().Add(-40 * 24 * time.Hour)
	vaults.add(&models.Vault{
		WalletAddress:    owner,
		ThresholdDays:    30,
		LastHeartbeat:    hb,
		GhostModeEnabled: true,
	})

	svc, _ := newHeartbeatService(vaults, &fakeActivity{err: errors.New("lite server timeout")}, allowAllLimiter{})

	renewed, v, err := svc.CheckGhostMode(context.Background(), owner)
	if err != nil {
		t.Fatalf("chain errors must not surface: %v", err)
	}
	if renewed {
		t.Fatal("chain error must be treated as no activity observed")
	}
	if !v.LastHeartbeat.Equal(hb) {
		t.Errorf("last_heartbeat changed to %v on a failed lookup", v.LastHeartbeat)
	}
}

func TestCheckGhostModeDisabled(t *testing.T) {
	vaults := newFakeVaultStore()
	owner := testWallet(6)
	vaults.add(&models.Vault{
		WalletAddress: owner,
		ThresholdDays: 30,
		LastHeartbeat: time.Now().UTC().Add(-40 * 24 * time.Hour),
	})

	activityAt := time.Now().UTC()
	svc, _ := newHeartbeatService(vaults, &fakeActivity{at: &activityAt}, allowAllLimiter{})

	renewed, _, err := svc.CheckGhostMode(context.Background(), owner)
	if err != nil {
		t.Fatalf("CheckGhostMode: %v", err)
	}
	if renewed {
		t.Fatal("ghost mode disabled must never renew")
	}
}

func TestCheckGhostModeInertAfterRelease(t *testing.T) {
	vaults := newFakeVaultStore()
	owner := testWallet(7)
	released := time.Now().UTC().Add(-time.Hour)
	vaults.add(&models.Vault{
		WalletAddress:    owner,
		ThresholdDays:    30,
		LastHeartbeat:    time.Now().UTC().Add(-60 * 24 * time.Hour),
		GhostModeEnabled: true,
		IsReleased:       true,
		ReleasedAt:       &released,
	})

	activityAt := time.Now().UTC()
	svc, _ := newHeartbeatService(vaults, &fakeActivity{at: &activityAt}, allowAllLimiter{})

	renewed, v, err := svc.CheckGhostMode(context.Background(), owner)
	if err != nil {
		t.Fatalf("CheckGhostMode: %v", err)
	}
	if renewed {
		t.Fatal("released vault must never auto-renew")
	}
	if !v.IsReleased {
		t.Fatal("released flag must survive the check")
	}
}

func TestCheckGhostModeThrottled(t *testing.T) {
	vaults := newFakeVaultStore()
	owner := testWallet(8)
	vaults.add(&models.Vault{
		WalletAddress:    owner,
		ThresholdDays:    30,
		LastHeartbeat:    time.Now().UTC().Add(-40 * 24 * time.Hour),
		GhostModeEnabled: true,
	})

	activityAt := time.Now().UTC()
	svc, _ := newHeartbeatService(vaults, &fakeActivity{at: &activityAt}, denyLimiter{})

	renewed, _, err := svc.CheckGhostMode(context.Background(), owner)
	if err != nil {
		t.Fatalf("CheckGhostMode: %v", err)
	}
	if renewed {
		t.Fatal("throttled check must skip the chain lookup")
	}
}
