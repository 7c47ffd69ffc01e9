package matching

import (
	"context"
	"sort"

	"github.com/donr-app/go-services/internal/apperr"
	"github.com/donr-app/go-services/internal/donation"
	"github.com/donr-app/go-services/internal/geo"
	"github.com/donr-app/go-services/internal/models"
)

// DefaultRadiusMiles is the fallback search radius when the configuration
// does not set one.
const DefaultRadiusMiles = 10.0

// UserSource is the slice of the user repository the matcher needs.
type UserSource interface {
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)
}

// DonationSource is the slice of the donation repository the matcher needs.
type DonationSource interface {
	ListAvailable(ctx context.Context) ([]*donation.Donation, error)
}

// DistributorMatch is a distributor annotated with its distance (miles,
// rounded to two decimals) from the reference point.
type DistributorMatch struct {
	models.User
	Distance float64 `json:"distance"`
}

// DonationMatch is an available donation annotated with its distance from
// the reference point. Expiry is deliberately not filtered here; callers
// apply the expiry predicate against their own notion of "now".
type DonationMatch struct {
	donation.Donation
	Distance float64 `json:"distance"`
}

// Matcher ranks distributors and donations by proximity to a reference
// point.
type Matcher struct {
	users     UserSource
	donations DonationSource
	radius    float64
}

func NewMatcher(users UserSource, donations DonationSource, radiusMiles float64) *Matcher {
	if radiusMiles <= 0 {
		radiusMiles = DefaultRadiusMiles
	}
	return &Matcher{users: users, donations: donations, radius: radiusMiles}
}

// Radius returns the configured default radius in miles.
func (m *Matcher) Radius() float64 { return m.radius }

// NearbyDistributors returns all distributors with a recorded home location
// within the default radius of (lat, lng), closest first. foodType is
// accepted for call-site compatibility but not applied: distributor profiles
// carry no food preference to filter on.
func (m *Matcher) NearbyDistributors(ctx context.Context, lat, lng float64, foodType string) ([]DistributorMatch, error) {
	_ = foodType

	distributors, err := m.users.ListByRole(ctx, models.RoleDistributor)
	if err != nil {
		return nil, apperr.Upstream(err, "list distributors")
	}

	ref := geo.Coordinates{Lat: lat, Lng: lng}
	out := []DistributorMatch{}
	for _, u := range distributors {
		if u.Location == nil {
			continue
		}
		d := geo.Miles(ref, *u.Location)
		if d <= m.radius {
			out = append(out, DistributorMatch{User: *u, Distance: geo.Round2(d)})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out, nil
}

// NearbyDonations returns all available donations with a recorded location
// within radiusMiles of (lat, lng), closest first; equal distances surface
// the soonest-expiring donation first. radiusMiles <= 0 selects the default.
func (m *Matcher) NearbyDonations(ctx context.Context, lat, lng, radiusMiles float64) ([]DonationMatch, error) {
	if radiusMiles <= 0 {
		radiusMiles = m.radius
	}

	available, err := m.donations.ListAvailable(ctx)
	if err != nil {
		return nil, apperr.Upstream(err, "list available donations")
	}

	ref := geo.Coordinates{Lat: lat, Lng: lng}
	out := []DonationMatch{}
	for _, d := range available {
		if d.Location == nil {
			continue
		}
		dist := geo.Miles(ref, *d.Location)
		if dist <= radiusMiles {
			out = append(out, DonationMatch{Donation: *d, Distance: geo.Round2(dist)})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ExpirationDate.Before(out[j].ExpirationDate)
	})
	return out, nil
}
