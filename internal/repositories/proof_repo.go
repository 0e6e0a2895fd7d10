package repositories

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/de-inherit/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProofRepo issues and consumes single-use wallet-proof nonces.
type ProofRepo struct {
	pool *pgxpool.Pool
}

func NewProofRepo(pool *pgxpool.Pool) *ProofRepo {
	return &ProofRepo{pool: pool}
}

func (r *ProofRepo) CreatePayload(ctx context.Context, ttl time.Duration) (*models.ProofPayload, error) {
	p := &models.ProofPayload{Payload: generateNonce(32)}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO proof_payloads (payload, expires_at)
		VALUES ($1, now() + $2::interval)
		RETURNING id, created_at, expires_at
	`, p.Payload, ttl.String()).Scan(&p.ID, &p.CreatedAt, &p.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ConsumePayload burns a nonce. The conditional UPDATE makes each payload
// usable exactly once; replays and expired nonces get ErrNotFound.
func (r *ProofRepo) ConsumePayload(ctx context.Context, payload string) (*models.ProofPayload, error) {
	var p models.ProofPayload
	err := r.pool.QueryRow(ctx, `
		UPDATE proof_payloads
		SET used = true
		WHERE payload = $1 AND used = false AND expires_at > now()
		RETURNING id, payload, created_at, expires_at, used
	`, payload).Scan(&p.ID, &p.Payload, &p.CreatedAt, &p.ExpiresAt, &p.Used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func generateNonce(bytes int) string {
	b := make([]byte, bytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
