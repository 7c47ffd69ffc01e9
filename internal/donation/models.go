package donation

import (
	"time"

	"github.com/donr-app/go-services/internal/geo"
)

// Status of a donation. Transitions only move forward:
// available -> claimed -> distributed.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusClaimed     Status = "claimed"
	StatusDistributed Status = "distributed"
)

// Donation is the persistent donation model. DistributorID is set exactly
// when status is claimed or distributed, and only the claim transition sets
// it.
type Donation struct {
	ID             string           `bson:"_id,omitempty" json:"id"`
	DonatorID      string           `bson:"donatorId" json:"donatorId"`
	DonorName      string           `bson:"donorName,omitempty" json:"donorName,omitempty"`
	DistributorID  string           `bson:"distributorId,omitempty" json:"distributorId,omitempty"`
	FoodType       string           `bson:"foodType" json:"foodType"`
	Quantity       string           `bson:"quantity" json:"quantity"`
	ExpirationDate time.Time        `bson:"expirationDate" json:"expirationDate"`
	Status         Status           `bson:"status" json:"status"`
	Location       *geo.Coordinates `bson:"location,omitempty" json:"location,omitempty"`
	Address        string           `bson:"address,omitempty" json:"address,omitempty"`
	PhotoKey       string           `bson:"photoKey,omitempty" json:"photoKey,omitempty"`
	CreatedAt      time.Time        `bson:"createdAt" json:"createdAt"`
	ClaimedAt      *time.Time       `bson:"claimedAt,omitempty" json:"claimedAt,omitempty"`
	DistributedAt  *time.Time       `bson:"distributedAt,omitempty" json:"distributedAt,omitempty"`
}

// Expired is the single expiry predicate used by every read path and by the
// claim precondition. A donation whose expiration equals now is expired.
func (d *Donation) Expired(now time.Time) bool {
	return !d.ExpirationDate.After(now)
}
