package repositories

import (
	"context"
	"time"

	"github.com/de-inherit/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ApprovalRepo struct {
	pool *pgxpool.Pool
}

func NewApprovalRepo(pool *pgxpool.Pool) *ApprovalRepo {
	return &ApprovalRepo{pool: pool}
}

// Upsert records a guardian's latest vote. One row per (vault, guardian),
// last write wins; no approval history is kept.
func (r *ApprovalRepo) Upsert(ctx context.Context, vaultID uuid.UUID, guardian string, approved bool, at time.Time) (*models.GuardianApproval, error) {
	var a models.GuardianApproval
	err := r.pool.QueryRow(ctx, `
		INSERT INTO guardian_approvals (vault_id, guardian_address, approved, approved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (vault_id, guardian_address) DO UPDATE SET
			approved = EXCLUDED.approved,
			approved_at = EXCLUDED.approved_at
		RETURNING id, vault_id, guardian_address, approved, approved_at
	`, vaultID, guardian, approved, at).Scan(
		&a.ID, &a.VaultID, &a.GuardianAddress, &a.Approved, &a.ApprovedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ApprovalRepo) CountApproved(ctx context.Context, vaultID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM guardian_approvals
		WHERE vault_id = $1 AND approved = true
	`, vaultID).Scan(&count)
	return count, err
}

func (r *ApprovalRepo) ListByVault(ctx context.Context, vaultID uuid.UUID) ([]models.GuardianApproval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, vault_id, guardian_address, approved, approved_at
		FROM guardian_approvals
		WHERE vault_id = $1
		ORDER BY approved_at DESC
	`, vaultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var approvals []models.GuardianApproval
	for rows.Next() {
		var a models.GuardianApproval
		if err := rows.Scan(&a.ID, &a.VaultID, &a.GuardianAddress, &a.Approved, &a.ApprovedAt); err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}
