package events

import "context"

// Event types published on the vault stream.
const (
	EventHeartbeatRecorded = "heartbeat_recorded"
	EventGhostRenewal      = "ghost_renewal"
	EventGuardianApproval  = "guardian_approval"
	EventVaultReleased     = "vault_released"
)

// StreamVault is the redis channel all vault events go to.
const StreamVault = "events:vault"

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
