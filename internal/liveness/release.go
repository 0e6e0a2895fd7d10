package liveness

import "github.com/de-inherit/backend/internal/models"

// Release decisions.
const (
	DecisionRelease         = "release"
	DecisionWait            = "wait"
	DecisionAlreadyReleased = "already_released"
)

// Decide is the release dispatcher's policy: given the evaluator's verdict
// and the guardian gate state, should the vault be released now?
//
// Guardians are an additional gate, not a replacement for the heartbeat:
// a vault with guardians configured releases only when it is both dead
// AND the approval quorum is met. Guardians can therefore withhold release
// indefinitely past the deadline. Pure function; the caller owns the
// conditional write that makes the transition at-most-once.
func Decide(v *models.Vault, verdict Verdict, approvals models.ApprovalState) string {
	if v.IsReleased || verdict.Status == StatusReleased {
		return DecisionAlreadyReleased
	}
	if verdict.Status != StatusDead {
		return DecisionWait
	}
	if v.HasGuardians() && !approvals.ThresholdMet {
		return DecisionWait
	}
	return DecisionRelease
}
