package models

import (
	"time"

	"github.com/donr-app/go-services/internal/geo"
)

// Role of a user. A profile carries exactly one role for its lifetime; there
// is no transition for changing it after signup.
type Role string

const (
	RoleDonator     Role = "donator"
	RoleDistributor Role = "distributor"
	RoleAcceptor    Role = "acceptor"
)

// ValidRole reports whether r is one of the three known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleDonator, RoleDistributor, RoleAcceptor:
		return true
	}
	return false
}

// User represents an application user profile keyed by the verified identity
// (the token subject).
type User struct {
	ID        string           `bson:"_id,omitempty" json:"id"`
	Name      string           `bson:"name" json:"name"`
	Email     string           `bson:"email,omitempty" json:"email,omitempty"`
	Role      Role             `bson:"role" json:"role"`
	Location  *geo.Coordinates `bson:"location,omitempty" json:"location,omitempty"`
	FCMToken  string           `bson:"fcmToken,omitempty" json:"fcmToken,omitempty"`
	CreatedAt time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time        `bson:"updatedAt" json:"updatedAt"`
}
