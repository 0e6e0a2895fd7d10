// Package liveness holds the dead-man's-switch decision logic: the pure
// rules that turn a vault's heartbeat state into an alive/dead/released
// verdict and a release decision. Nothing here touches storage or clocks;
// callers pass the vault and the current time.
package liveness

import (
	"time"

	"github.com/de-inherit/backend/internal/models"
)

// Vault liveness statuses.
const (
	StatusAlive    = "alive"
	StatusDead     = "dead"
	StatusReleased = "released"
)

// Verdict is the evaluator's answer for one vault at one instant.
type Verdict struct {
	Status    string     `json:"status"`
	DeadSince *time.Time `json:"dead_since,omitempty"`
}

// Deadline returns the instant after which the vault counts as dead:
// the last heartbeat plus the threshold in UTC calendar days. AddDate is
// deliberate — the threshold is "N days added to a date", not N*24h, and
// pinning to UTC keeps DST out of the arithmetic.
func Deadline(v *models.Vault) time.Time {
	return v.LastHeartbeat.UTC().AddDate(0, 0, v.ThresholdDays)
}

// Evaluate computes the liveness verdict for a vault at time now.
// Pure and deterministic: same inputs, same verdict, no side effects.
// A released vault is reported as released regardless of its heartbeat;
// release is a terminal state, not a liveness computation.
// The boundary is strict: now == deadline is still alive.
func Evaluate(v *models.Vault, now time.Time) Verdict {
	if v.IsReleased {
		return Verdict{Status: StatusReleased}
	}

	deadline := Deadline(v)
	if now.After(deadline) {
		return Verdict{Status: StatusDead, DeadSince: &deadline}
	}
	return Verdict{Status: StatusAlive}
}
