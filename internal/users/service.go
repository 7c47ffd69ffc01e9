package users

import (
	"context"
	"strings"

	"github.com/donr-app/go-services/internal/apperr"
	"github.com/donr-app/go-services/internal/geo"
	"github.com/donr-app/go-services/internal/models"
)

// Service encapsulates user-profile business logic.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// CreateProfileInput is the payload for profile creation after the identity
// provider has registered the account.
type CreateProfileInput struct {
	Name     string
	Role     models.Role
	Location *geo.Coordinates
	FCMToken string
}

// CreateProfile stores a new profile for the verified identity. The role is
// fixed once the profile exists.
func (s *Service) CreateProfile(ctx context.Context, id, email string, in CreateProfileInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Role == "" {
		return nil, apperr.Validation("Missing required fields: name, role")
	}
	if !models.ValidRole(in.Role) {
		return nil, apperr.Validation("Invalid role. Must be: donator, distributor, or acceptor")
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Upstream(err, "load user profile")
	}
	if existing != nil {
		return nil, apperr.Validation("User profile already exists")
	}

	u := &models.User{
		ID:       id,
		Name:     name,
		Email:    email,
		Role:     in.Role,
		Location: in.Location,
		FCMToken: in.FCMToken,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, apperr.Upstream(err, "create user profile")
	}
	return u, nil
}

// Get loads a profile by identity.
func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Upstream(err, "load user profile")
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	return u, nil
}

// UpdateProfile applies the mutable fields. The update shape carries no role,
// so a role change cannot be expressed.
func (s *Service) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*models.User, error) {
	u, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, apperr.Upstream(err, "update user profile")
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	return u, nil
}

// RoleOf resolves the caller's role for authorization checks.
func (s *Service) RoleOf(ctx context.Context, id string) (models.Role, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}
