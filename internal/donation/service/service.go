package service

import (
	"context"
	"time"

	"github.com/donr-app/go-services/internal/apperr"
	"github.com/donr-app/go-services/internal/donation"
	"github.com/donr-app/go-services/internal/donation/repository"
	"github.com/donr-app/go-services/internal/geo"
	"github.com/donr-app/go-services/internal/geocode"
	"github.com/donr-app/go-services/internal/matching"
	"github.com/donr-app/go-services/internal/models"
	"github.com/donr-app/go-services/pkg/logger"
	"github.com/donr-app/go-services/pkg/metrics"
)

// UserSource is the slice of the user repository the lifecycle needs.
type UserSource interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Notifier is the outbound notification surface used for best-effort side
// effects.
type Notifier interface {
	NotifyNewDonation(ctx context.Context, distributorIDs []string, donationID, foodType string)
	NotifyDistributed(ctx context.Context, donatorID, donationID string)
}

// Matcher finds candidates near a reference point.
type Matcher interface {
	NearbyDistributors(ctx context.Context, lat, lng float64, foodType string) ([]matching.DistributorMatch, error)
	NearbyDonations(ctx context.Context, lat, lng, radiusMiles float64) ([]matching.DonationMatch, error)
}

// Service enforces the donation lifecycle: available -> claimed ->
// distributed. Every transition re-reads persisted state; claims and
// distributions commit through conditional updates so concurrent transitions
// on one donation cannot both succeed.
type Service struct {
	repo     repository.Repository
	users    UserSource
	geocoder geocode.Geocoder
	matcher  Matcher
	notifier Notifier
	now      func() time.Time
}

func NewService(repo repository.Repository, users UserSource, gc geocode.Geocoder, m Matcher, n Notifier) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		geocoder: gc,
		matcher:  m,
		notifier: n,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source (tests only).
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// CreateInput is the payload for donation creation.
type CreateInput struct {
	FoodType       string
	Quantity       string
	ExpirationDate time.Time
	Address        string
	Location       *geo.Coordinates
}

// Create validates and persists a new donation for the donator, then kicks
// off the best-effort match-and-notify side effect. The returned donation is
// the persisted state; side-effect failures never surface here.
func (s *Service) Create(ctx context.Context, donatorID string, in CreateInput) (*donation.Donation, error) {
	if in.FoodType == "" || in.Quantity == "" || in.ExpirationDate.IsZero() {
		return nil, apperr.Validation("Missing required fields: foodType, quantity, expirationDate")
	}
	now := s.now()
	if !in.ExpirationDate.After(now) {
		return nil, apperr.Validation("Expiration date cannot be in the past")
	}

	loc, err := s.resolveLocation(ctx, donatorID, in)
	if err != nil {
		return nil, err
	}

	donorName := "Anonymous"
	if u, err := s.users.GetByID(ctx, donatorID); err == nil && u != nil && u.Name != "" {
		donorName = u.Name
	}

	d := &donation.Donation{
		DonatorID:      donatorID,
		DonorName:      donorName,
		FoodType:       in.FoodType,
		Quantity:       in.Quantity,
		ExpirationDate: in.ExpirationDate,
		Status:         donation.StatusAvailable,
		Location:       &loc,
		Address:        in.Address,
		CreatedAt:      now,
	}
	if _, err := s.repo.Create(ctx, d); err != nil {
		return nil, apperr.Upstream(err, "create donation")
	}
	metrics.DonationsCreated.Inc()

	// Detached unit of work with its own context and error sink; a failure
	// here must never fail or roll back the creation.
	go s.matchAndNotify(d)

	return d, nil
}

func (s *Service) resolveLocation(ctx context.Context, donatorID string, in CreateInput) (geo.Coordinates, error) {
	if in.Location != nil && in.Location.Valid() {
		return *in.Location, nil
	}
	if in.Address != "" {
		loc, err := s.geocoder.AddressToCoordinates(ctx, in.Address)
		if err != nil {
			return geo.Coordinates{}, err
		}
		return loc, nil
	}
	u, err := s.users.GetByID(ctx, donatorID)
	if err != nil {
		return geo.Coordinates{}, apperr.Upstream(err, "load donator profile")
	}
	if u == nil || u.Location == nil {
		return geo.Coordinates{}, apperr.Validation("Location or address required")
	}
	return *u.Location, nil
}

func (s *Service) matchAndNotify(d *donation.Donation) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	matches, err := s.matcher.NearbyDistributors(ctx, d.Location.Lat, d.Location.Lng, d.FoodType)
	if err != nil {
		logger.Errorf("matching failed for donation %s: %v", d.ID, err)
		return
	}
	if len(matches) == 0 {
		logger.Infof("no distributors within range of donation %s", d.ID)
		return
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	s.notifier.NotifyNewDonation(ctx, ids, d.ID, d.FoodType)
}

// Claim moves an available, unexpired donation to claimed on behalf of the
// distributor. Exactly one of two concurrent claims can succeed; the loser
// observes a conflict.
func (s *Service) Claim(ctx context.Context, distributorID, id string) (*donation.Donation, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperr.NotFound("Donation not found")
		}
		return nil, apperr.Upstream(err, "load donation")
	}
	if d.Status != donation.StatusAvailable {
		return nil, apperr.Conflict("Donation is already %s", d.Status)
	}
	now := s.now()
	if d.Expired(now) {
		return nil, apperr.Conflict("Donation has expired")
	}

	claimed, err := s.repo.Claim(ctx, id, distributorID, now)
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return nil, apperr.NotFound("Donation not found")
		case repository.ErrConflict:
			// another claim won between our read and the update
			if cur, gerr := s.repo.Get(ctx, id); gerr == nil {
				return nil, apperr.Conflict("Donation is already %s", cur.Status)
			}
			return nil, apperr.Conflict("Donation is already claimed")
		default:
			return nil, apperr.Upstream(err, "claim donation")
		}
	}
	metrics.DonationsClaimed.Inc()
	return claimed, nil
}

// Distribute moves a claimed donation to distributed. Only the claiming
// distributor may do this; the donator is notified best-effort afterwards.
func (s *Service) Distribute(ctx context.Context, distributorID, id string) (*donation.Donation, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperr.NotFound("Donation not found")
		}
		return nil, apperr.Upstream(err, "load donation")
	}
	if d.DistributorID != distributorID {
		return nil, apperr.Forbidden("Only the claiming distributor can mark as distributed")
	}
	if d.Status != donation.StatusClaimed {
		return nil, apperr.Conflict("Donation must be claimed before distribution")
	}

	done, err := s.repo.Distribute(ctx, id, distributorID, s.now())
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return nil, apperr.NotFound("Donation not found")
		case repository.ErrConflict:
			return nil, apperr.Conflict("Donation must be claimed before distribution")
		default:
			return nil, apperr.Upstream(err, "distribute donation")
		}
	}
	metrics.DonationsDistributed.Inc()

	go func(donatorID, donationID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.notifier.NotifyDistributed(ctx, donatorID, donationID)
	}(done.DonatorID, done.ID)

	return done, nil
}

// Get loads a donation by id.
func (s *Service) Get(ctx context.Context, id string) (*donation.Donation, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperr.NotFound("Donation not found")
		}
		return nil, apperr.Upstream(err, "load donation")
	}
	return d, nil
}

// AuthorizePhoto checks that the donation exists and belongs to donatorID.
// The handler runs this before writing anything to object storage; the keys
// are deterministic, so an unauthorized upload would clobber the owner's
// object even if the attach itself were rejected.
func (s *Service) AuthorizePhoto(ctx context.Context, donatorID, id string) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if d.DonatorID != donatorID {
		return apperr.Forbidden("Only the donator can attach a photo")
	}
	return nil
}

// AttachPhoto records the storage key of an uploaded donation photo. Only
// the owning donator may attach one.
func (s *Service) AttachPhoto(ctx context.Context, donatorID, id, key string) error {
	if err := s.AuthorizePhoto(ctx, donatorID, id); err != nil {
		return err
	}
	if err := s.repo.SetPhotoKey(ctx, id, key); err != nil {
		return apperr.Upstream(err, "store photo key")
	}
	return nil
}

// Nearby runs the proximity matcher from the given reference point and then
// drops donations that have expired as of now. Expiry is a view-time filter
// applied on top of the radius filter, not a state transition.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusMiles float64) ([]matching.DonationMatch, error) {
	matches, err := s.matcher.NearbyDonations(ctx, lat, lng, radiusMiles)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := matches[:0]
	for _, m := range matches {
		if !m.Expired(now) {
			out = append(out, m)
		}
	}
	return out, nil
}
