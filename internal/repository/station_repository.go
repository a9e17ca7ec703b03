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

type stationRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewStationRepository creates a new PostgreSQL-backed station repository.
func NewStationRepository(pool *pgxpool.Pool, logger zerolog.Logger) StationRepository {
	return &stationRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "station").Logger(),
	}
}

// List returns a restaurant's stations ordered by name.
func (r *stationRepository) List(ctx context.Context, restaurantID int64) ([]model.Station, error) {
	query := `
		SELECT id, restaurant_id, name, description, color
		FROM stations
		WHERE restaurant_id = $1
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, restaurantID)
	if err != nil {
		r.logger.Error().Err(err).Int64("restaurant_id", restaurantID).Msg("failed to query stations")
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	stations := []model.Station{}
	for rows.Next() {
		var s model.Station
		if err := rows.Scan(&s.ID, &s.RestaurantID, &s.Name, &s.Description, &s.Color); err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}
		stations = append(stations, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stations: %w", err)
	}

	return stations, nil
}

// Create inserts a station. A duplicate name within the restaurant is a conflict.
func (r *stationRepository) Create(ctx context.Context, station *model.Station) error {
	query := `
		INSERT INTO stations (restaurant_id, name, description, color)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		station.RestaurantID,
		station.Name,
		station.Description,
		station.Color,
	).Scan(&station.ID)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return model.NewDomainError(model.ErrCodeConflict, fmt.Sprintf("station %q already exists", station.Name))
		case pgForeignKeyViolation:
			return model.NewValidationError("unknown restaurant %d", station.RestaurantID)
		}
		r.logger.Error().Err(err).Str("name", station.Name).Msg("failed to create station")
		return fmt.Errorf("failed to create station: %w", err)
	}

	return nil
}

// Delete removes a station unless a product still references it by name.
func (r *stationRepository) Delete(ctx context.Context, restaurantID, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var name string
	err = tx.QueryRow(ctx,
		`SELECT name FROM stations WHERE id = $1 AND restaurant_id = $2 FOR UPDATE`,
		id, restaurantID,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrStationNotFound
		}
		return fmt.Errorf("failed to lock station: %w", err)
	}

	var inUse bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE restaurant_id = $1 AND station = $2)`,
		restaurantID, name,
	).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("failed to check station usage: %w", err)
	}
	if inUse {
		return model.ErrStationInUse
	}

	if _, err := tx.Exec(ctx, `DELETE FROM stations WHERE id = $1`, id); err != nil {
		r.logger.Error().Err(err).Int64("station_id", id).Msg("failed to delete station")
		return fmt.Errorf("failed to delete station: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
