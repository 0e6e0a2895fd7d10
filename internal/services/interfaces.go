package services

import (
	"context"
	"time"

	"github.com/de-inherit/backend/internal/models"
	"github.com/google/uuid"
)

// Store interfaces are defined on the consumer side so tests can substitute
// in-memory fakes; the pgx repositories are the production implementations.

type VaultStore interface {
	Create(ctx context.Context, v *models.Vault) error
	GetByWallet(ctx context.Context, wallet string) (*models.Vault, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Vault, error)
	Delete(ctx context.Context, wallet string) error
	RecordHeartbeat(ctx context.Context, wallet string, now time.Time) (*models.Vault, error)
	ApplyGhostRenewal(ctx context.Context, wallet string, detectedAt, activityAt time.Time) (*models.Vault, error)
	MarkReleased(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error
}

type ApprovalStore interface {
	Upsert(ctx context.Context, vaultID uuid.UUID, guardian string, approved bool, at time.Time) (*models.GuardianApproval, error)
	CountApproved(ctx context.Context, vaultID uuid.UUID) (int, error)
	ListByVault(ctx context.Context, vaultID uuid.UUID) ([]models.GuardianApproval, error)
}

type EventLogger interface {
	Log(ctx context.Context, entry models.VaultEvent) error
}

// ActivitySource answers one question: when did this wallet last transact?
// nil time means no activity on record. An error means the chain could not
// be consulted and must be treated as no activity observed.
type ActivitySource interface {
	LatestActivity(ctx context.Context, wallet string) (*time.Time, error)
}

// PayloadReleaser asks the confidential-computing gateway to release the
// protected payload to the heir. The core only ever holds the opaque
// protected-data address, never plaintext.
type PayloadReleaser interface {
	Release(ctx context.Context, protectedDataAddress, heirEmail string) error
}

type NotifyRequest struct {
	HeirEmail   string
	HeirName    string
	OwnerWallet string
	ClaimURL    string
}

type HeirNotifier interface {
	Notify(ctx context.Context, req NotifyRequest) (messageID string, err error)
}

// Limiter gates repeated expensive calls, keyed arbitrarily.
type Limiter interface {
	AllowOnce(ctx context.Context, key string, ttl time.Duration) bool
}
