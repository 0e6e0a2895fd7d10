package models

import (
	"time"

	"github.com/google/uuid"
)

// VaultEvent is one audit-log entry for a vault. Written on every state
// transition so a released-but-unnotified vault has a traceable history.
type VaultEvent struct {
	ID          uuid.UUID  `json:"id"`
	ActorWallet *string    `json:"actor_wallet,omitempty"`
	ActorType   string     `json:"actor_type"` // owner/guardian/system/worker
	Action      string     `json:"action"`
	VaultID     *uuid.UUID `json:"vault_id,omitempty"`
	Meta        any        `json:"meta,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
