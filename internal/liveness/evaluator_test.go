package liveness

import (
	"testing"
	"time"

	"github.com/de-inherit/backend/internal/models"
)

func vaultAt(lastHeartbeat time.Time, thresholdDays int) *models.Vault {
	return &models.Vault{
		WalletAddress: "0:ab",
		LastHeartbeat: lastHeartbeat,
		ThresholdDays: thresholdDays,
	}
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestEvaluate(t *testing.T) {
	hb := ts("2024-01-01T00:00:00Z")

	tests := []struct {
		name          string
		vault         *models.Vault
		now           time.Time
		wantStatus    string
		wantDeadSince string
	}{
		{
			name:       "well before deadline",
			vault:      vaultAt(hb, 30),
			now:        ts("2024-01-15T12:00:00Z"),
			wantStatus: StatusAlive,
		},
		{
			name:       "one second before deadline",
			vault:      vaultAt(hb, 30),
			now:        ts("2024-01-30T23:59:59Z"),
			wantStatus: StatusAlive,
		},
		{
			name:       "exactly at deadline is still alive",
			vault:      vaultAt(hb, 30),
			now:        ts("2024-01-31T00:00:00Z"),
			wantStatus: StatusAlive,
		},
		{
			name:          "one second past deadline",
			vault:         vaultAt(hb, 30),
			now:           ts("2024-01-31T00:00:01Z"),
			wantStatus:    StatusDead,
			wantDeadSince: "2024-01-31T00:00:00Z",
		},
		{
			name:          "long dead",
			vault:         vaultAt(hb, 30),
			now:           ts("2024-06-01T00:00:00Z"),
			wantStatus:    StatusDead,
			wantDeadSince: "2024-01-31T00:00:00Z",
		},
		{
			name:          "one day threshold",
			vault:         vaultAt(hb, 1),
			now:           ts("2024-01-02T00:00:01Z"),
			wantStatus:    StatusDead,
			wantDeadSince: "2024-01-02T00:00:00Z",
		},
		{
			name:          "calendar month boundary",
			vault:         vaultAt(ts("2024-02-28T10:00:00Z"), 2),
			now:           ts("2024-03-01T10:00:01Z"),
			wantStatus:    StatusDead,
			wantDeadSince: "2024-03-01T10:00:00Z",
		},
		{
			name:       "leap day keeps it alive",
			vault:      vaultAt(ts("2024-02-28T10:00:00Z"), 2),
			now:        ts("2024-03-01T10:00:00Z"),
			wantStatus: StatusAlive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.vault, tt.now)
			if got.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.Status, tt.wantStatus)
			}
			if tt.wantDeadSince == "" {
				if got.DeadSince != nil {
					t.Errorf("dead_since = %v, want nil", got.DeadSince)
				}
			} else {
				if got.DeadSince == nil {
					t.Fatalf("dead_since = nil, want %s", tt.wantDeadSince)
				}
				if !got.DeadSince.Equal(ts(tt.wantDeadSince)) {
					t.Errorf("dead_since = %v, want %s", got.DeadSince, tt.wantDeadSince)
				}
			}
		})
	}
}

func TestEvaluateReleasedShortCircuits(t *testing.T) {
	v := vaultAt(ts("2020-01-01T00:00:00Z"), 7)
	v.IsReleased = true

	for _, now := range []time.Time{
		ts("2020-01-02T00:00:00Z"), // would be alive
		ts("2025-01-01T00:00:00Z"), // would be long dead
	} {
		got := Evaluate(v, now)
		if got.Status != StatusReleased {
			t.Errorf("Evaluate(released, %v).Status = %s, want %s", now, got.Status, StatusReleased)
		}
		if got.DeadSince != nil {
			t.Errorf("Evaluate(released, %v).DeadSince = %v, want nil", now, got.DeadSince)
		}
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	v := vaultAt(ts("2024-01-01T00:00:00Z"), 30)
	now := ts("2024-03-01T00:00:00Z")

	first := Evaluate(v, now)
	for i := 0; i < 5; i++ {
		again := Evaluate(v, now)
		if again.Status != first.Status {
			t.Fatalf("verdict changed between identical calls: %s vs %s", again.Status, first.Status)
		}
	}
	if v.IsReleased || !v.LastHeartbeat.Equal(ts("2024-01-01T00:00:00Z")) {
		t.Error("Evaluate mutated the vault")
	}
}
