package service

import (
	"context"
	"net/mail"
	"strings"

	"qr-kitchen/internal/model"
	"qr-kitchen/internal/repository"

	"github.com/rs/zerolog"
)

type restaurantService struct {
	restaurantRepo repository.RestaurantRepository
	logger         zerolog.Logger
}

// NewRestaurantService creates a new restaurant profile service.
func NewRestaurantService(restaurantRepo repository.RestaurantRepository, logger zerolog.Logger) RestaurantService {
	return &restaurantService{
		restaurantRepo: restaurantRepo,
		logger:         logger.With().Str("service", "restaurant").Logger(),
	}
}

// Get returns the caller's restaurant. Any other id is reported as not
// found so account ids cannot be enumerated across tenants.
func (s *restaurantService) Get(ctx context.Context, callerID, id int64) (*model.Restaurant, error) {
	if id != callerID {
		return nil, model.ErrRestaurantNotFound
	}

	restaurant, err := s.restaurantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, model.ErrRestaurantNotFound
	}

	return restaurant, nil
}

// Update applies a partial profile update to the caller's restaurant.
func (s *restaurantService) Update(ctx context.Context, callerID, id int64, req *model.RestaurantUpdateRequest) (*model.Restaurant, error) {
	if req == nil {
		return nil, model.NewValidationError("restaurant update is empty")
	}

	restaurant, err := s.Get(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, model.NewValidationError("restaurant name cannot be blank")
		}
		restaurant.Name = name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, model.NewValidationError("a valid email is required")
		}
		restaurant.Email = email
	}
	if req.Phone != nil {
		restaurant.Phone = optionalText(*req.Phone)
	}
	if req.Address != nil {
		restaurant.Address = optionalText(*req.Address)
	}
	if req.Active != nil {
		restaurant.Active = *req.Active
	}

	if err := s.restaurantRepo.Update(ctx, restaurant); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("restaurant_id", restaurant.ID).
		Bool("active", restaurant.Active).
		Msg("restaurant profile updated")

	return restaurant, nil
}

// optionalText trims v and maps an empty result to nil.
func optionalText(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
