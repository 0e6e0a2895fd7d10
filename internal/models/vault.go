package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Vault default configuration values applied at creation.
const (
	DefaultThresholdDays = 30
	MaxThresholdDays     = 3650
)

// Vault is one wallet's inheritance configuration and liveness state.
// The secret payload itself never touches this table — only the address of
// the externally protected data.
type Vault struct {
	ID                   uuid.UUID  `json:"id"`
	WalletAddress        string     `json:"wallet_address"` // normalized raw form: "0:<hex>"
	ProtectedDataAddress string     `json:"protected_data_address"`
	HeirEmail            string     `json:"heir_email"`
	HeirName             *string    `json:"heir_name,omitempty"`
	VideoIPFSHash        *string    `json:"video_ipfs_hash,omitempty"`
	LastHeartbeat        time.Time  `json:"last_heartbeat"`
	ThresholdDays        int        `json:"threshold_days"`
	GhostModeEnabled     bool       `json:"ghost_mode_enabled"`
	LastOnChainActivity  *time.Time `json:"last_onchain_activity,omitempty"`
	GuardianAddresses    []string   `json:"guardian_addresses"`
	RequiredApprovals    int        `json:"required_approvals"`
	IsReleased           bool       `json:"is_released"`
	ReleasedAt           *time.Time `json:"released_at,omitempty"`
	NotifiedAt           *time.Time `json:"notified_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// HasGuardians reports whether release is additionally gated on guardian quorum.
func (v *Vault) HasGuardians() bool {
	return len(v.GuardianAddresses) > 0
}

// IsGuardian reports whether addr (already normalized) is listed on the vault.
func (v *Vault) IsGuardian(addr string) bool {
	for _, g := range v.GuardianAddresses {
		if g == addr {
			return true
		}
	}
	return false
}

// GuardianApproval is the latest vote of one guardian on one vault.
// Upsert semantics: at most one row per (vault, guardian), last write wins.
type GuardianApproval struct {
	ID              uuid.UUID `json:"id"`
	VaultID         uuid.UUID `json:"vault_id"`
	GuardianAddress string    `json:"guardian_address"`
	Approved        bool      `json:"approved"`
	ApprovedAt      time.Time `json:"approved_at"`
}

// ApprovalState is the guardian gate summary the release dispatcher consumes.
type ApprovalState struct {
	ApprovalCount int  `json:"approval_count"`
	Required      int  `json:"required_approvals"`
	ThresholdMet  bool `json:"threshold_met"`
}

// ValidateVaultConfig checks the mutable configuration invariants before
// anything is persisted. Addresses are expected to be normalized already.
func ValidateVaultConfig(thresholdDays int, guardians []string, requiredApprovals int) error {
	if thresholdDays < 1 || thresholdDays > MaxThresholdDays {
		return fmt.Errorf("%w: threshold_days must be between 1 and %d, got %d",
			ErrInvalidConfig, MaxThresholdDays, thresholdDays)
	}

	seen := make(map[string]struct{}, len(guardians))
	for _, g := range guardians {
		if strings.TrimSpace(g) == "" {
			return fmt.Errorf("%w: empty guardian address", ErrInvalidConfig)
		}
		if _, dup := seen[g]; dup {
			return fmt.Errorf("%w: duplicate guardian address %s", ErrInvalidConfig, g)
		}
		seen[g] = struct{}{}
	}

	if len(guardians) == 0 {
		if requiredApprovals != 0 {
			return fmt.Errorf("%w: required_approvals must be 0 without guardians, got %d",
				ErrInvalidConfig, requiredApprovals)
		}
		return nil
	}

	if requiredApprovals < 1 || requiredApprovals > len(guardians) {
		return fmt.Errorf("%w: required_approvals must be between 1 and %d, got %d",
			ErrInvalidConfig, len(guardians), requiredApprovals)
	}
	return nil
}

// ValidateHeirEmail is a shallow sanity check; real deliverability is the
// mailer's problem.
func ValidateHeirEmail(email string) error {
	at := strings.IndexByte(email, '@')
	if at < 1 || at == len(email)-1 || strings.ContainsAny(email, " \t\n") {
		return fmt.Errorf("%w: invalid heir email %q", ErrInvalidConfig, email)
	}
	return nil
}
