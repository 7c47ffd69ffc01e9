package request

import (
	"time"

	"github.com/donr-app/go-services/internal/geo"
)

// Status of a food request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusFulfilled, StatusCancelled:
		return true
	}
	return false
}

// Urgency of a food request.
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyUrgent Urgency = "urgent"
)

func ValidUrgency(u Urgency) bool { return u == UrgencyNormal || u == UrgencyUrgent }

// Request is an acceptor's ask for food of a given type near a location.
type Request struct {
	ID         string          `bson:"_id" json:"id"`
	AcceptorID string          `bson:"acceptorId" json:"acceptorId"`
	FoodType   string          `bson:"foodType" json:"foodType"`
	Quantity   string          `bson:"quantity,omitempty" json:"quantity,omitempty"`
	Urgency    Urgency         `bson:"urgency" json:"urgency"`
	Status     Status          `bson:"status" json:"status"`
	Location   geo.Coordinates `bson:"location" json:"location"`
	CreatedAt  time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time       `bson:"updatedAt" json:"updatedAt"`
}
