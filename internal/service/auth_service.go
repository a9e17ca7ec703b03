package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"qr-kitchen/internal/model"
	"qr-kitchen/internal/repository"
	"qr-kitchen/internal/tenant"

	"github.com/matthewhartstonge/argon2"
	"github.com/rs/zerolog"
)

const minPasswordLength = 8

// TokenIssuer mints bearer credentials.
type TokenIssuer interface {
	Issue(tenantID int64, identity string, at time.Time) string
}

type authService struct {
	restaurantRepo repository.RestaurantRepository
	issuer         TokenIssuer
	argon          argon2.Config
	now            func() time.Time
	logger         zerolog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(restaurantRepo repository.RestaurantRepository, issuer TokenIssuer, logger zerolog.Logger) AuthService {
	return &authService{
		restaurantRepo: restaurantRepo,
		issuer:         issuer,
		argon:          argon2.DefaultConfig(),
		now:            time.Now,
		logger:         logger.With().Str("service", "auth").Logger(),
	}
}

// Register creates an active restaurant account and logs it in.
func (s *authService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	if req == nil {
		return nil, model.NewValidationError("registration request is empty")
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if name == "" {
		return nil, model.NewValidationError("restaurant name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, model.NewValidationError("a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, model.NewValidationError("password must be at least %d characters", minPasswordLength)
	}

	hash, err := s.argon.HashEncoded([]byte(req.Password))
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	restaurant := &model.Restaurant{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Active:       true,
	}

	if err := s.restaurantRepo.Create(ctx, restaurant); err != nil {
		return nil, err
	}

	return &model.AuthResponse{
		Token:        s.issuer.Issue(restaurant.ID, restaurant.Email, s.now()),
		RestaurantID: restaurant.ID,
		Email:        restaurant.Email,
		Message:      "restaurant registered",
	}, nil
}

// Login checks credentials and issues a token. Unknown emails, wrong
// passwords and inactive accounts all fail the same way.
func (s *authService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	if req == nil || req.Email == "" || req.Password == "" {
		return nil, model.NewValidationError("email and password are required")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	restaurant, err := s.restaurantRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if restaurant == nil || !restaurant.Active {
		s.logger.Warn().Str("email", email).Msg("login refused")
		return nil, model.ErrBadCredentials
	}

	ok, err := argon2.VerifyEncoded([]byte(req.Password), []byte(restaurant.PasswordHash))
	if err != nil || !ok {
		s.logger.Warn().Int64("restaurant_id", restaurant.ID).Msg("login refused")
		return nil, model.ErrBadCredentials
	}

	s.logger.Info().Int64("restaurant_id", restaurant.ID).Msg("login succeeded")

	return &model.AuthResponse{
		Token:        s.issuer.Issue(restaurant.ID, restaurant.Email, s.now()),
		RestaurantID: restaurant.ID,
		Email:        restaurant.Email,
	}, nil
}

// Verify describes the account behind an authenticated context.
func (s *authService) Verify(ctx context.Context, tc tenant.Context) (*model.VerifyResponse, error) {
	if !tc.Authenticated {
		return nil, model.ErrUnauthorised
	}

	restaurant, err := s.restaurantRepo.GetByID(ctx, tc.TenantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil || !restaurant.Active {
		return nil, model.ErrUnauthorised
	}

	return &model.VerifyResponse{
		RestaurantID: restaurant.ID,
		Email:        restaurant.Email,
	}, nil
}
