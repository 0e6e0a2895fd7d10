package dto

import "github.com/de-inherit/backend/internal/wallet"

// AuthWalletRequest carries a signed wallet proof over a server-issued
// nonce. The address is the raw form "workchain:hex".
type AuthWalletRequest struct {
	Address   string       `json:"address"`
	Network   string       `json:"network"`
	PublicKey string       `json:"public_key"`
	Proof     wallet.Proof `json:"proof"`
}

type CreateVaultRequest struct {
	ProtectedDataAddress string   `json:"protected_data_address"`
	HeirEmail            string   `json:"heir_email"`
	HeirName             *string  `json:"heir_name,omitempty"`
	VideoIPFSHash        *string  `json:"video_ipfs_hash,omitempty"`
	ThresholdDays        int      `json:"threshold_days,omitempty"`
	GhostModeEnabled     bool     `json:"ghost_mode_enabled,omitempty"`
	GuardianAddresses    []string `json:"guardian_addresses,omitempty"`
	RequiredApprovals    int      `json:"required_approvals,omitempty"`
}

type GuardianApprovalRequest struct {
	VaultID         string `json:"vault_id"`
	GuardianAddress string `json:"guardian_address"`
	Approved        *bool  `json:"approved,omitempty"` // omitted means approve
}
