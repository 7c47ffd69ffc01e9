package repository

import (
	"context"
	"errors"
	"time"

	"github.com/donr-app/go-services/internal/donation"
)

var (
	// ErrNotFound means the donation id matched no document.
	ErrNotFound = errors.New("donation not found")
	// ErrConflict means the donation exists but its state blocked the
	// conditional update (wrong status, or wrong distributor on distribute).
	ErrConflict = errors.New("donation state conflict")
)

// Repository defines persistence operations for donations. Claim and
// Distribute are conditional single-document updates: the status (and, for
// Distribute, the distributor) precondition is checked atomically with the
// mutation, so two concurrent claims cannot both succeed.
type Repository interface {
	Create(ctx context.Context, d *donation.Donation) (string, error)
	Get(ctx context.Context, id string) (*donation.Donation, error)
	ListAvailable(ctx context.Context) ([]*donation.Donation, error)
	Claim(ctx context.Context, id, distributorID string, at time.Time) (*donation.Donation, error)
	Distribute(ctx context.Context, id, distributorID string, at time.Time) (*donation.Donation, error)
	SetPhotoKey(ctx context.Context, id, key string) error
}
