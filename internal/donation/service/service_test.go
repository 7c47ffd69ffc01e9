package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/donr-app/go-services/internal/apperr"
	"github.com/donr-app/go-services/internal/donation"
	"github.com/donr-app/go-services/internal/donation/repository"
	"github.com/donr-app/go-services/internal/geo"
	"github.com/donr-app/go-services/internal/matching"
	"github.com/donr-app/go-services/internal/models"
	"github.com/donr-app/go-services/internal/users"
)

type stubGeocoder struct {
	loc geo.Coordinates
	err error
}

func (g *stubGeocoder) AddressToCoordinates(ctx context.Context, address string) (geo.Coordinates, error) {
	return g.loc, g.err
}

func (g *stubGeocoder) CoordinatesToAddress(ctx context.Context, lat, lng float64) (string, error) {
	return "", nil
}

type recordingNotifier struct {
	mu             sync.Mutex
	newDonationIDs []string
	distributedTo  []string
}

func (n *recordingNotifier) NotifyNewDonation(ctx context.Context, distributorIDs []string, donationID, foodType string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.newDonationIDs = append(n.newDonationIDs, distributorIDs...)
}

func (n *recordingNotifier) NotifyDistributed(ctx context.Context, donatorID, donationID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.distributedTo = append(n.distributedTo, donatorID)
}

func newFixture(t *testing.T) (*Service, *repository.MemoryRepo, *users.MemoryRepository, *recordingNotifier) {
	t.Helper()
	repo := repository.NewMemoryRepo()
	userRepo := users.NewMemoryRepository()
	notifier := &recordingNotifier{}
	matcher := matching.NewMatcher(userRepo, repo, 10)
	svc := NewService(repo, userRepo, &stubGeocoder{loc: geo.Coordinates{Lat: 40.0, Lng: -74.0}}, matcher, notifier)
	svc.SetClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) })
	return svc, repo, userRepo, notifier
}

func seedUser(t *testing.T, repo *users.MemoryRepository, id string, role models.Role, loc *geo.Coordinates) {
	t.Helper()
	err := repo.Create(context.Background(), &models.User{
		ID: id, Name: "user-" + id, Email: id + "@example.com", Role: role, Location: loc,
	})
	require.NoError(t, err)
}

func seedDonation(t *testing.T, repo repository.Repository, d *donation.Donation) *donation.Donation {
	t.Helper()
	_, err := repo.Create(context.Background(), d)
	require.NoError(t, err)
	return d
}

func TestCreateDonation(t *testing.T) {
	svc, repo, userRepo, _ := newFixture(t)
	ctx := context.Background()
	seedUser(t, userRepo, "don1", models.RoleDonator, nil)

	d, err := svc.Create(ctx, "don1", CreateInput{
		FoodType:       "Bread",
		Quantity:       "10 lbs",
		ExpirationDate: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		Location:       &geo.Coordinates{Lat: 40.0, Lng: -74.0},
	})
	require.NoError(t, err)
	require.Equal(t, donation.StatusAvailable, d.Status)
	require.Equal(t, 40.0, d.Location.Lat)
	require.Equal(t, -74.0, d.Location.Lng)
	require.Empty(t, d.DistributorID)
	require.Equal(t, "user-don1", d.DonorName)

	stored, err := repo.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, donation.StatusAvailable, stored.Status)
}

func TestCreateDonationExpiredDate(t *testing.T) {
	svc, repo, userRepo, _ := newFixture(t)
	ctx := context.Background()
	seedUser(t, userRepo, "don1", models.RoleDonator, nil)

	_, err := svc.Create(ctx, "don1", CreateInput{
		FoodType:       "Bread",
		Quantity:       "10 lbs",
		ExpirationDate: time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC),
		Location:       &geo.Coordinates{Lat: 40.0, Lng: -74.0},
	})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)

	list, err := repo.ListAvailable(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestCreateDonationMissingFields(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	_, err := svc.Create(context.Background(), "don1", CreateInput{Quantity: "5"})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCreateDonationLocationResolution(t *testing.T) {
	ctx := context.Background()

	t.Run("geocodes address when no coordinates", func(t *testing.T) {
		svc, _, userRepo, _ := newFixture(t)
		seedUser(t, userRepo, "don1", models.RoleDonator, nil)
		d, err := svc.Create(ctx, "don1", CreateInput{
			FoodType:       "Soup",
			Quantity:       "2 qt",
			ExpirationDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			Address:        "123 Main St",
		})
		require.NoError(t, err)
		require.Equal(t, 40.0, d.Location.Lat)
	})

	t.Run("falls back to profile location", func(t *testing.T) {
		svc, _, userRepo, _ := newFixture(t)
		seedUser(t, userRepo, "don1", models.RoleDonator, &geo.Coordinates{Lat: 41.0, Lng: -73.0})
		d, err := svc.Create(ctx, "don1", CreateInput{
			FoodType:       "Soup",
			Quantity:       "2 qt",
			ExpirationDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		require.Equal(t, 41.0, d.Location.Lat)
	})

	t.Run("rejects when nothing to resolve from", func(t *testing.T) {
		svc, _, userRepo, _ := newFixture(t)
		seedUser(t, userRepo, "don1", models.RoleDonator, nil)
		_, err := svc.Create(ctx, "don1", CreateInput{
			FoodType:       "Soup",
			Quantity:       "2 qt",
			ExpirationDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		})
		var verr *apperr.ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestClaim(t *testing.T) {
	svc, repo, userRepo, _ := newFixture(t)
	ctx := context.Background()
	seedUser(t, userRepo, "don1", models.RoleDonator, nil)

	d := seedDonation(t, repo, &donation.Donation{
		DonatorID:      "don1",
		FoodType:       "Bread",
		Quantity:       "10 lbs",
		ExpirationDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:         donation.StatusAvailable,
		Location:       &geo.Coordinates{Lat: 40, Lng: -74},
	})

	claimed, err := svc.Claim(ctx, "distX", d.ID)
	require.NoError(t, err)
	require.Equal(t, donation.StatusClaimed, claimed.Status)
	require.Equal(t, "distX", claimed.DistributorID)
	require.NotNil(t, claimed.ClaimedAt)

	_, err = svc.Claim(ctx, "distY", d.ID)
	var cerr *apperr.ConflictError
	require.ErrorAs(t, err, &cerr)
	require.Contains(t, err.Error(), "already claimed")
}

func TestClaimExpired(t *testing.T) {
	svc, repo, _, _ := newFixture(t)
	ctx := context.Background()

	d := seedDonation(t, repo, &donation.Donation{
		DonatorID:      "don1",
		FoodType:       "Bread",
		Quantity:       "10 lbs",
		ExpirationDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:         donation.StatusAvailable,
		Location:       &geo.Coordinates{Lat: 40, Lng: -74},
	})

	_, err := svc.Claim(ctx, "distX", d.ID)
	var cerr *apperr.ConflictError
	require.ErrorAs(t, err, &cerr)
	require.Contains(t, err.Error(), "expired")
}

func TestClaimNotFound(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	_, err := svc.Claim(context.Background(), "distX", "missing")
	var nerr *apperr.NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestDistribute(t *testing.T) {
	svc, repo, userRepo, notifier := newFixture(t)
	ctx := context.Background()
	seedUser(t, userRepo, "don1", models.RoleDonator, nil)

	d := seedDonation(t, repo, &donation.Donation{
		DonatorID:      "don1",
		FoodType:       "Bread",
		Quantity:       "10 lbs",
		ExpirationDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:         donation.StatusAvailable,
		Location:       &geo.Coordinates{Lat: 40, Lng: -74},
	})
	_, err := svc.Claim(ctx, "distX", d.ID)
	require.NoError(t, err)

	// non-claimant is rejected
	_, err = svc.Distribute(ctx, "distZ", d.ID)
	var ferr *apperr.ForbiddenError
	require.ErrorAs(t, err, &ferr)

	done, err := svc.Distribute(ctx, "distX", d.ID)
	require.NoError(t, err)
	require.Equal(t, donation.StatusDistributed, done.Status)
	require.NotNil(t, done.DistributedAt)

	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.distributedTo) == 1 && notifier.distributedTo[0] == "don1"
	}, time.Second, 10*time.Millisecond)
}

func TestDistributeRequiresClaim(t *testing.T) {
	svc, repo, _, _ := newFixture(t)
	ctx := context.Background()

	d := seedDonation(t, repo, &donation.Donation{
		DonatorID:      "don1",
		FoodType:       "Bread",
		Quantity:       "10 lbs",
		ExpirationDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:         donation.StatusAvailable,
		Location:       &geo.Coordinates{Lat: 40, Lng: -74},
	})

	_, err := svc.Distribute(ctx, "distX", d.ID)
	var ferr *apperr.ForbiddenError
	require.ErrorAs(t, err, &ferr)
}

func TestConcurrentClaimsSingleWinner(t *testing.T) {
	svc, repo, _, _ := newFixture(t)
	ctx := context.Background()

	d := seedDonation(t, repo, &donation.Donation{
		DonatorID:      "don1",
		FoodType:       "Bread",
		Quantity:       "10 lbs",
		ExpirationDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:         donation.StatusAvailable,
		Location:       &geo.Coordinates{Lat: 40, Lng: -74},
	})

	const n = 8
	var wg sync.WaitGroup
	wins := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			if _, err := svc.Claim(ctx, id, d.ID); err == nil {
				wins <- id
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	require.Len(t, winners, 1)

	cur, err := repo.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, donation.StatusClaimed, cur.Status)
	require.Equal(t, winners[0], cur.DistributorID)
}

func TestCreateNotifiesNearbyDistributors(t *testing.T) {
	svc, _, userRepo, notifier := newFixture(t)
	ctx := context.Background()
	seedUser(t, userRepo, "don1", models.RoleDonator, nil)
	// ~9 miles north: inside the default 10 mile radius
	seedUser(t, userRepo, "near", models.RoleDistributor, &geo.Coordinates{Lat: 40.13, Lng: -74.0})
	// ~11 miles north: outside
	seedUser(t, userRepo, "far", models.RoleDistributor, &geo.Coordinates{Lat: 40.16, Lng: -74.0})

	_, err := svc.Create(ctx, "don1", CreateInput{
		FoodType:       "Bread",
		Quantity:       "10 lbs",
		ExpirationDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Location:       &geo.Coordinates{Lat: 40.0, Lng: -74.0},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.newDonationIDs) == 1 && notifier.newDonationIDs[0] == "near"
	}, time.Second, 10*time.Millisecond)
}

func TestNearbyFiltersExpired(t *testing.T) {
	svc, repo, _, _ := newFixture(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &donation.Donation{
		DonatorID: "don1", FoodType: "Fresh", Quantity: "1",
		ExpirationDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:         donation.StatusAvailable,
		Location:       &geo.Coordinates{Lat: 40.01, Lng: -74.0},
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &donation.Donation{
		DonatorID: "don1", FoodType: "Stale", Quantity: "1",
		ExpirationDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:         donation.StatusAvailable,
		Location:       &geo.Coordinates{Lat: 40.01, Lng: -74.0},
	})
	require.NoError(t, err)

	matches, err := svc.Nearby(ctx, 40.0, -74.0, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "Fresh", matches[0].FoodType)
}

func TestAttachPhoto(t *testing.T) {
	svc, repo, _, _ := newFixture(t)
	ctx := context.Background()

	d := seedDonation(t, repo, &donation.Donation{
		DonatorID: "don1", FoodType: "Bread", Quantity: "1",
		ExpirationDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:         donation.StatusAvailable,
		Location:       &geo.Coordinates{Lat: 40, Lng: -74},
	})

	err := svc.AttachPhoto(ctx, "someone-else", d.ID, "photos/x.jpg")
	var ferr *apperr.ForbiddenError
	require.ErrorAs(t, err, &ferr)

	require.NoError(t, svc.AttachPhoto(ctx, "don1", d.ID, "photos/x.jpg"))
	cur, err := repo.Get(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "photos/x.jpg", cur.PhotoKey)
}
