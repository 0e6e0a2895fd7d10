package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/de-inherit/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type VaultRepo struct {
	pool *pgxpool.Pool
}

func NewVaultRepo(pool *pgxpool.Pool) *VaultRepo {
	return &VaultRepo{pool: pool}
}

const vaultColumns = `
	id, wallet_address, protected_data_address, heir_email, heir_name, video_ipfs_hash,
	last_heartbeat, threshold_days, ghost_mode_enabled, last_onchain_activity,
	guardian_addresses, required_approvals, is_released, released_at, notified_at,
	created_at, updated_at`

func scanVault(row pgx.Row) (*models.Vault, error) {
	var v models.Vault
	err := row.Scan(
		&v.ID, &v.WalletAddress, &v.ProtectedDataAddress, &v.HeirEmail, &v.HeirName, &v.VideoIPFSHash,
		&v.LastHeartbeat, &v.ThresholdDays, &v.GhostModeEnabled, &v.LastOnChainActivity,
		&v.GuardianAddresses, &v.RequiredApprovals, &v.IsReleased, &v.ReleasedAt, &v.NotifiedAt,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// Create inserts a new vault. One vault per wallet: a second insert for the
// same wallet surfaces models.ErrAlreadyExists.
func (r *VaultRepo) Create(ctx context.Context, v *models.Vault) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO vaults (
			wallet_address, protected_data_address, heir_email, heir_name, video_ipfs_hash,
			threshold_days, ghost_mode_enabled, guardian_addresses, required_approvals
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, last_heartbeat, created_at, updated_at
	`, v.WalletAddress, v.ProtectedDataAddress, v.HeirEmail, v.HeirName, v.VideoIPFSHash,
		v.ThresholdDays, v.GhostModeEnabled, v.GuardianAddresses, v.RequiredApprovals,
	).Scan(&v.ID, &v.LastHeartbeat, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *VaultRepo) GetByWallet(ctx context.Context, wallet string) (*models.Vault, error) {
	return scanVault(r.pool.QueryRow(ctx,
		`SELECT`+vaultColumns+` FROM vaults WHERE wallet_address = $1`, wallet))
}

func (r *VaultRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Vault, error) {
	return scanVault(r.pool.QueryRow(ctx,
		`SELECT`+vaultColumns+` FROM vaults WHERE id = $1`, id))
}

func (r *VaultRepo) Delete(ctx context.Context, wallet string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vaults WHERE wallet_address = $1`, wallet)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// RecordHeartbeat renews the liveness timestamp. GREATEST keeps the column
// monotonically non-decreasing even if replicas disagree on the clock.
// Release state is untouched: heart-beating a released vault is allowed and
// changes nothing about the release.
func (r *VaultRepo) RecordHeartbeat(ctx context.Context, wallet string, now time.Time) (*models.Vault, error) {
	return scanVault(r.pool.QueryRow(ctx, `
		UPDATE vaults
		SET last_heartbeat = GREATEST(last_heartbeat, $2), updated_at = now()
		WHERE wallet_address = $1
		RETURNING`+vaultColumns, wallet, now))
}

// ApplyGhostRenewal advances the heartbeat to the detection time and records
// the observed on-chain activity. Conditional on the vault still being
// unreleased; renewing a released vault is a silent no-op at the SQL level
// and surfaces as ErrNotFound to the caller, which treats it as inert.
func (r *VaultRepo) ApplyGhostRenewal(ctx context.Context, wallet string, detectedAt, activityAt time.Time) (*models.Vault, error) {
	return scanVault(r.pool.QueryRow(ctx, `
		UPDATE vaults
		SET last_heartbeat = GREATEST(last_heartbeat, $2),
		    last_onchain_activity = $3,
		    updated_at = now()
		WHERE wallet_address = $1 AND is_released = false
		RETURNING`+vaultColumns, wallet, detectedAt, activityAt))
}

// MarkReleased flips is_released exactly once. The WHERE clause makes the
// transition a conditional write: of N concurrent callers exactly one sees
// released=true, everyone else gets false (race lost, already released).
func (r *VaultRepo) MarkReleased(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE vaults
		SET is_released = true, released_at = $2, updated_at = now()
		WHERE id = $1 AND is_released = false
	`, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkNotified records that release follow-ups (payload release + heir
// email) completed, ending the released-but-unnotified retry window.
func (r *VaultRepo) MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE vaults SET notified_at = $2, updated_at = now()
		WHERE id = $1 AND notified_at IS NULL
	`, id, at)
	return err
}

func (r *VaultRepo) listVaults(ctx context.Context, query string, args ...any) ([]models.Vault, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vaults []models.Vault
	for rows.Next() {
		v, err := scanVault(rows)
		if err != nil {
			return nil, err
		}
		vaults = append(vaults, *v)
	}
	return vaults, rows.Err()
}

// ListDue returns unreleased vaults whose deadline may have passed. The SQL
// filter is a coarse cut (interval arithmetic); the evaluator makes the
// authoritative calendar-day decision in Go.
func (r *VaultRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]models.Vault, error) {
	if limit <= 0 {
		limit = 200
	}
	return r.listVaults(ctx, `
		SELECT`+vaultColumns+` FROM vaults
		WHERE is_released = false
		  AND last_heartbeat + (threshold_days || ' days')::interval <= $1
		ORDER BY last_heartbeat ASC LIMIT $2
	`, now, limit)
}

func (r *VaultRepo) ListGhostEnabled(ctx context.Context, limit int) ([]models.Vault, error) {
	if limit <= 0 {
		limit = 200
	}
	return r.listVaults(ctx, `
		SELECT`+vaultColumns+` FROM vaults
		WHERE ghost_mode_enabled = true AND is_released = false
		ORDER BY last_heartbeat ASC LIMIT $1
	`, limit)
}

// ListUnnotified returns vaults released before cutoff whose follow-ups
// (payload release, heir email) have not been confirmed yet.
func (r *VaultRepo) ListUnnotified(ctx context.Context, cutoff time.Time, limit int) ([]models.Vault, error) {
	if limit <= 0 {
		limit = 200
	}
	return r.listVaults(ctx, `
		SELECT`+vaultColumns+` FROM vaults
		WHERE is_released = true AND notified_at IS NULL AND released_at <= $1
		ORDER BY released_at ASC LIMIT $2
	`, cutoff, limit)
}
