package repository

import (
	"context"
	"errors"
	"fmt"

	"qr-kitchen/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const restaurantColumns = `id, name, email, password_hash, phone, address, active, created_at`

type restaurantRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewRestaurantRepository creates a new PostgreSQL-backed restaurant repository.
func NewRestaurantRepository(pool *pgxpool.Pool, logger zerolog.Logger) RestaurantRepository {
	return &restaurantRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "restaurant").Logger(),
	}
}

// Create inserts a restaurant. A duplicate name or email is ErrConflict.
func (r *restaurantRepository) Create(ctx context.Context, restaurant *model.Restaurant) error {
	query := `
		INSERT INTO restaurants (name, email, password_hash, phone, address, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		restaurant.Name,
		restaurant.Email,
		restaurant.PasswordHash,
		restaurant.Phone,
		restaurant.Address,
		restaurant.Active,
	).Scan(&restaurant.ID, &restaurant.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return model.NewDomainError(model.ErrCodeConflict, "restaurant name or email already registered")
		}
		r.logger.Error().Err(err).Str("email", restaurant.Email).Msg("failed to create restaurant")
		return fmt.Errorf("failed to create restaurant: %w", err)
	}

	r.logger.Info().Int64("restaurant_id", restaurant.ID).Msg("restaurant registered")

	return nil
}

// GetByEmail looks an account up by its login email.
func (r *restaurantRepository) GetByEmail(ctx context.Context, email string) (*model.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE email = $1`
	return r.getOne(ctx, query, email)
}

// GetByID looks an account up by id.
func (r *restaurantRepository) GetByID(ctx context.Context, id int64) (*model.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// Update writes the profile fields and the active flag. A name or email
// taken by another restaurant is ErrConflict.
func (r *restaurantRepository) Update(ctx context.Context, restaurant *model.Restaurant) error {
	query := `
		UPDATE restaurants
		SET name = $2, email = $3, phone = $4, address = $5, active = $6
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		restaurant.ID,
		restaurant.Name,
		restaurant.Email,
		restaurant.Phone,
		restaurant.Address,
		restaurant.Active,
	)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return model.NewDomainError(model.ErrCodeConflict, "restaurant name or email already registered")
		}
		r.logger.Error().Err(err).Int64("restaurant_id", restaurant.ID).Msg("failed to update restaurant")
		return fmt.Errorf("failed to update restaurant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRestaurantNotFound
	}

	return nil
}

func (r *restaurantRepository) getOne(ctx context.Context, query string, arg any) (*model.Restaurant, error) {
	var rest model.Restaurant
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&rest.ID,
		&rest.Name,
		&rest.Email,
		&rest.PasswordHash,
		&rest.Phone,
		&rest.Address,
		&rest.Active,
		&rest.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query restaurant")
		return nil, fmt.Errorf("failed to query restaurant: %w", err)
	}

	return &rest, nil
}
