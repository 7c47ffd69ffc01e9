package repository

import (
	"context"
	"sync"
	"time"

	"github.com/donr-app/go-services/internal/donation"
	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Repository used in unit tests. Claim and
// Distribute check preconditions and mutate under one lock, mirroring the
// per-document atomicity of the Mongo implementation.
type MemoryRepo struct {
	mu    sync.Mutex
	store map[string]*donation.Donation
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*donation.Donation)}
}

func (m *MemoryRepo) Create(ctx context.Context, d *donation.Donation) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	cp := *d
	m.store[d.ID] = &cp
	return d.ID, nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*donation.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.store[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) ListAvailable(ctx context.Context) ([]*donation.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*donation.Donation{}
	for _, d := range m.store {
		if d.Status == donation.StatusAvailable {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryRepo) Claim(ctx context.Context, id, distributorID string, at time.Time) (*donation.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	if d.Status != donation.StatusAvailable {
		return nil, ErrConflict
	}
	d.Status = donation.StatusClaimed
	d.DistributorID = distributorID
	t := at
	d.ClaimedAt = &t
	cp := *d
	return &cp, nil
}

func (m *MemoryRepo) Distribute(ctx context.Context, id, distributorID string, at time.Time) (*donation.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	if d.Status != donation.StatusClaimed || d.DistributorID != distributorID {
		return nil, ErrConflict
	}
	d.Status = donation.StatusDistributed
	t := at
	d.DistributedAt = &t
	cp := *d
	return &cp, nil
}

func (m *MemoryRepo) SetPhotoKey(ctx context.Context, id, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	d.PhotoKey = key
	return nil
}
