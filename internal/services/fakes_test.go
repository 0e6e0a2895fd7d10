package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/de-inherit/backend/internal/events"
	"github.com/de-inherit/backend/internal/models"
	"github.com/google/uuid"
)

// testWallet builds a valid raw-form address from a single distinguishing byte.
func testWallet(b byte) string {
	return "0:" + strings.Repeat("0", 62) + string("0123456789abcdef"[b>>4]) + string("0123456789abcdef"[b&0x0f])
}

type fakeVaultStore struct {
	mu       sync.Mutex
	byWallet map[string]*models.Vault
}

func newFakeVaultStore() *fakeVaultStore {
	return &fakeVaultStore{byWallet: make(map[string]*models.Vault)}
}

func (s *fakeVaultStore) add(v *models.Vault) *models.Vault {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	s.byWallet[v.WalletAddress] = v
	return v
}

func (s *fakeVaultStore) Create(ctx context.Context, v *models.Vault) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byWallet[v.WalletAddress]; ok {
		return models.ErrAlreadyExists
	}
	v.ID = uuid.New()
	now := time.Now().UTC()
	v.LastHeartbeat = now
	v.CreatedAt = now
	v.UpdatedAt = now
	cp := *v
	s.byWallet[v.WalletAddress] = &cp
	return nil
}

func (s *fakeVaultStore) GetByWallet(ctx context.Context, wallet string) (*models.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byWallet[wallet]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *fakeVaultStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.byWallet {
		if v.ID == id {
			cp := *v
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeVaultStore) Delete(ctx context.Context, wallet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byWallet[wallet]; !ok {
		return models.ErrNotFound
	}
	delete(s.byWallet, wallet)
	return nil
}

func (s *fakeVaultStore) RecordHeartbeat(ctx context.Context, wallet string, now time.Time) (*models.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byWallet[wallet]
	if !ok {
		return nil, models.ErrNotFound
	}
	if now.After(v.LastHeartbeat) {
		v.LastHeartbeat = now
	}
	v.UpdatedAt = now
	cp := *v
	return &cp, nil
}

func (s *fakeVaultStore) ApplyGhostRenewal(ctx context.Context, wallet string, detectedAt, activityAt time.Time) (*models.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byWallet[wallet]
	if !ok || v.IsReleased {
		return nil, models.ErrNotFound
	}
	if detectedAt.After(v.LastHeartbeat) {
		v.LastHeartbeat = detectedAt
	}
	act := activityAt
	v.LastOnChainActivity = &act
	v.UpdatedAt = detectedAt
	cp := *v
	return &cp, nil
}

func (s *fakeVaultStore) MarkReleased(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.byWallet {
		if v.ID == id {
			if v.IsReleased {
				return false, nil
			}
			v.IsReleased = true
			released := at
			v.ReleasedAt = &released
			return true, nil
		}
	}
	return false, models.ErrNotFound
}

func (s *fakeVaultStore) MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.byWallet {
		if v.ID == id && v.NotifiedAt == nil {
			notified := at
			v.NotifiedAt = &notified
		}
	}
	return nil
}

type fakeApprovalStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]map[string]models.GuardianApproval
}

func newFakeApprovalStore() *fakeApprovalStore {
	return &fakeApprovalStore{rows: make(map[uuid.UUID]map[string]models.GuardianApproval)}
}

func (s *fakeApprovalStore) Upsert(ctx context.Context, vaultID uuid.UUID, guardian string, approved bool, at time.Time) (*models.GuardianApproval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows[vaultID] == nil {
		s.rows[vaultID] = make(map[string]models.GuardianApproval)
	}
	a, ok := s.rows[vaultID][guardian]
	if !ok {
		a = models.GuardianApproval{ID: uuid.New(), VaultID: vaultID, GuardianAddress: guardian}
	}
	a.Approved = approved
	a.ApprovedAt = at
	s.rows[vaultID][guardian] = a
	cp := a
	return &cp, nil
}

func (s *fakeApprovalStore) CountApproved(ctx context.Context, vaultID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, a := range s.rows[vaultID] {
		if a.Approved {
			count++
		}
	}
	return count, nil
}

func (s *fakeApprovalStore) ListByVault(ctx context.Context, vaultID uuid.UUID) ([]models.GuardianApproval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.GuardianApproval
	for _, a := range s.rows[vaultID] {
		out = append(out, a)
	}
	return out, nil
}

type fakeEventLog struct {
	mu      sync.Mutex
	entries []models.VaultEvent
}

func (l *fakeEventLog) Log(ctx context.Context, entry models.VaultEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) Publish(ctx context.Context, stream string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type fakeActivity struct {
	at  *time.Time
	err error
}

func (a *fakeActivity) LatestActivity(ctx context.Context, wallet string) (*time.Time, error) {
	return a.at, a.err
}

type fakePayload struct {
	mu       sync.Mutex
	calls    int
	failures int // fail the first N calls
}

func (p *fakePayload) Release(ctx context.Context, protectedDataAddress, heirEmail string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		return models.ErrUpstreamUnavailable
	}
	return nil
}

func (p *fakePayload) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (n *fakeNotifier) Notify(ctx context.Context, req NotifyRequest) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.fail {
		return "", models.ErrUpstreamUnavailable
	}
	return "msg-1", nil
}

func (n *fakeNotifier) callCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

type allowAllLimiter struct{}

func (allowAllLimiter) AllowOnce(ctx context.Context, key string, ttl time.Duration) bool {
	return true
}

type denyLimiter struct{}

func (denyLimiter) AllowOnce(ctx context.Context, key string, ttl time.Duration) bool {
	return false
}
