package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/donr-app/go-services/internal/donation"
	donrepo "github.com/donr-app/go-services/internal/donation/repository"
	"github.com/donr-app/go-services/internal/geo"
	"github.com/donr-app/go-services/internal/models"
	"github.com/donr-app/go-services/internal/users"
	"github.com/stretchr/testify/require"
)

// reference point used throughout: (40.0, -74.0). At this latitude one
// degree of latitude is ~69 miles, so 0.13 degrees is ~9 miles and 0.16 is
// ~11 miles.
const refLat, refLng = 40.0, -74.0

func distributor(id string, loc *geo.Coordinates) *models.User {
	return &models.User{ID: id, Name: id, Role: models.RoleDistributor, Location: loc}
}

func TestNearbyDistributorsRadiusFilter(t *testing.T) {
	ur := users.NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, ur.Create(ctx, distributor("near", &geo.Coordinates{Lat: refLat + 0.13, Lng: refLng})))
	require.NoError(t, ur.Create(ctx, distributor("far", &geo.Coordinates{Lat: refLat + 0.16, Lng: refLng})))
	require.NoError(t, ur.Create(ctx, distributor("homeless", nil)))
	// a donator at the reference point must never match
	require.NoError(t, ur.Create(ctx, &models.User{ID: "donator", Role: models.RoleDonator, Location: &geo.Coordinates{Lat: refLat, Lng: refLng}}))

	m := NewMatcher(ur, donrepo.NewMemoryRepo(), 10)
	got, err := m.NearbyDistributors(ctx, refLat, refLng, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "near", got[0].ID)
	require.LessOrEqual(t, got[0].Distance, 10.0)
	require.Greater(t, got[0].Distance, 0.0)
}

func TestNearbyDistributorsSortedByDistance(t *testing.T) {
	ur := users.NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, ur.Create(ctx, distributor("d-5mi", &geo.Coordinates{Lat: refLat + 0.072, Lng: refLng})))
	require.NoError(t, ur.Create(ctx, distributor("d-1mi", &geo.Coordinates{Lat: refLat + 0.014, Lng: refLng})))
	require.NoError(t, ur.Create(ctx, distributor("d-8mi", &geo.Coordinates{Lat: refLat + 0.115, Lng: refLng})))

	m := NewMatcher(ur, donrepo.NewMemoryRepo(), 10)
	got, err := m.NearbyDistributors(ctx, refLat, refLng, "Bread")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "d-1mi", got[0].ID)
	require.Equal(t, "d-5mi", got[1].ID)
	require.Equal(t, "d-8mi", got[2].ID)
	for i := 1; i < len(got); i++ {
		require.GreaterOrEqual(t, got[i].Distance, got[i-1].Distance)
	}
}

func addDonation(t *testing.T, dr *donrepo.MemoryRepo, id string, loc *geo.Coordinates, status donation.Status, exp time.Time) {
	t.Helper()
	_, err := dr.Create(context.Background(), &donation.Donation{
		ID:             id,
		DonatorID:      "don-1",
		FoodType:       "Bread",
		Quantity:       "5 lbs",
		ExpirationDate: exp,
		Status:         status,
		Location:       loc,
	})
	require.NoError(t, err)
}

func TestNearbyDonationsFilterAndOrder(t *testing.T) {
	dr := donrepo.NewMemoryRepo()
	ctx := context.Background()
	tomorrow := time.Now().Add(24 * time.Hour)

	addDonation(t, dr, "close", &geo.Coordinates{Lat: refLat + 0.03, Lng: refLng}, donation.StatusAvailable, tomorrow)
	addDonation(t, dr, "closer", &geo.Coordinates{Lat: refLat + 0.01, Lng: refLng}, donation.StatusAvailable, tomorrow)
	addDonation(t, dr, "outside", &geo.Coordinates{Lat: refLat + 1.0, Lng: refLng}, donation.StatusAvailable, tomorrow)
	addDonation(t, dr, "claimed", &geo.Coordinates{Lat: refLat, Lng: refLng}, donation.StatusClaimed, tomorrow)
	addDonation(t, dr, "nowhere", nil, donation.StatusAvailable, tomorrow)

	m := NewMatcher(users.NewMemoryRepository(), dr, 10)
	got, err := m.NearbyDonations(ctx, refLat, refLng, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "closer", got[0].ID)
	require.Equal(t, "close", got[1].ID)
	for _, g := range got {
		require.Equal(t, donation.StatusAvailable, g.Status)
		require.LessOrEqual(t, g.Distance, 10.0)
	}
}

func TestNearbyDonationsTieBreakByExpiration(t *testing.T) {
	dr := donrepo.NewMemoryRepo()
	loc := &geo.Coordinates{Lat: refLat + 0.02, Lng: refLng}
	later := time.Now().Add(48 * time.Hour)
	sooner := time.Now().Add(2 * time.Hour)

	addDonation(t, dr, "later", loc, donation.StatusAvailable, later)
	addDonation(t, dr, "sooner", loc, donation.StatusAvailable, sooner)

	m := NewMatcher(users.NewMemoryRepository(), dr, 10)
	got, err := m.NearbyDonations(context.Background(), refLat, refLng, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, got[0].Distance, got[1].Distance)
	require.Equal(t, "sooner", got[0].ID)
	require.Equal(t, "later", got[1].ID)
}

func TestNearbyDonationsKeepsExpired(t *testing.T) {
	// expiry is the caller's read-time concern, not the matcher's
	dr := donrepo.NewMemoryRepo()
	addDonation(t, dr, "stale", &geo.Coordinates{Lat: refLat, Lng: refLng}, donation.StatusAvailable, time.Now().Add(-time.Hour))

	m := NewMatcher(users.NewMemoryRepository(), dr, 10)
	got, err := m.NearbyDonations(context.Background(), refLat, refLng, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

type failingUserSource struct{}

func (failingUserSource) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	return nil, errors.New("store down")
}

type failingDonationSource struct{}

func (failingDonationSource) ListAvailable(ctx context.Context) ([]*donation.Donation, error) {
	return nil, errors.New("store down")
}

func TestFetchErrorsPropagate(t *testing.T) {
	m := NewMatcher(failingUserSource{}, failingDonationSource{}, 10)

	_, err := m.NearbyDistributors(context.Background(), refLat, refLng, "")
	require.Error(t, err)

	_, err = m.NearbyDonations(context.Background(), refLat, refLng, 10)
	require.Error(t, err)
}

func TestDefaultRadius(t *testing.T) {
	m := NewMatcher(users.NewMemoryRepository(), donrepo.NewMemoryRepo(), 0)
	require.Equal(t, DefaultRadiusMiles, m.Radius())
}
