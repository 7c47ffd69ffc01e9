package request

import (
	"context"
	"time"

	"github.com/donr-app/go-services/internal/apperr"
	"github.com/donr-app/go-services/internal/geo"
)

// Service encapsulates food-request business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: func() time.Time { return time.Now().UTC() }}
}

// CreateInput is the payload for request creation.
type CreateInput struct {
	FoodType string
	Quantity string
	Urgency  Urgency
	Location *geo.Coordinates
}

func (s *Service) Create(ctx context.Context, acceptorID string, in CreateInput) (*Request, error) {
	if in.FoodType == "" || in.Location == nil || !in.Location.Valid() {
		return nil, apperr.Validation("Missing required fields: foodType, lat, lng")
	}
	urgency := in.Urgency
	if urgency == "" {
		urgency = UrgencyNormal
	}
	if !ValidUrgency(urgency) {
		return nil, apperr.Validation("Invalid urgency. Must be: normal or urgent")
	}
	r := &Request{
		AcceptorID: acceptorID,
		FoodType:   in.FoodType,
		Quantity:   in.Quantity,
		Urgency:    urgency,
		Status:     StatusPending,
		Location:   *in.Location,
	}
	if _, err := s.repo.Create(ctx, r); err != nil {
		return nil, apperr.Upstream(err, "create request")
	}
	return r, nil
}

func (s *Service) List(ctx context.Context) ([]*Request, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Upstream(err, "list requests")
	}
	return out, nil
}

// UpdateStatus moves a request to any member of the status set. Unlike the
// donation lifecycle there is no ordering constraint between statuses.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Request, error) {
	if !ValidStatus(status) {
		return nil, apperr.Validation("Invalid status. Must be: pending, accepted, fulfilled, or cancelled")
	}
	r, err := s.repo.UpdateStatus(ctx, id, status, s.now())
	if err != nil {
		if err == ErrNotFound {
			return nil, apperr.NotFound("Request not found")
		}
		return nil, apperr.Upstream(err, "update request status")
	}
	return r, nil
}
