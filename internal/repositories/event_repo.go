package repositories

import (
	"context"

	"github.com/de-inherit/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepo is the vault audit log. Best-effort: callers ignore write
// failures rather than failing the operation being audited.
type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func (r *EventRepo) Log(ctx context.Context, entry models.VaultEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO vault_events (actor_wallet, actor_type, action, vault_id, meta)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ActorWallet, entry.ActorType, entry.Action, entry.VaultID, entry.Meta)
	return err
}

func (r *EventRepo) GetByVault(ctx context.Context, vaultID uuid.UUID, limit, offset int) ([]models.VaultEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, actor_wallet, actor_type, action, vault_id, meta, created_at
		FROM vault_events WHERE vault_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, vaultID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.VaultEvent
	for rows.Next() {
		var e models.VaultEvent
		if err := rows.Scan(&e.ID, &e.ActorWallet, &e.ActorType, &e.Action, &e.VaultID, &e.Meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
