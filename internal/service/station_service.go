package service

import (
	"context"
	"regexp"
	"strings"

	"qr-kitchen/internal/model"
	"qr-kitchen/internal/repository"

	"github.com/rs/zerolog"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type stationService struct {
	stationRepo repository.StationRepository
	logger      zerolog.Logger
}

// NewStationService creates a new station service.
func NewStationService(stationRepo repository.StationRepository, logger zerolog.Logger) StationService {
	return &stationService{
		stationRepo: stationRepo,
		logger:      logger.With().Str("service", "station").Logger(),
	}
}

func (s *stationService) List(ctx context.Context, restaurantID int64) ([]model.Station, error) {
	return s.stationRepo.List(ctx, restaurantID)
}

// Create validates and stores a station. The color defaults to
// model.DefaultStationColor.
func (s *stationService) Create(ctx context.Context, restaurantID int64, req *model.StationRequest) (*model.Station, error) {
	if req == nil {
		return nil, model.NewValidationError("station request is empty")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.NewValidationError("station name is required")
	}

	color := strings.TrimSpace(req.Color)
	if color == "" {
		color = model.DefaultStationColor
	}
	if !hexColor.MatchString(color) {
		return nil, model.NewValidationError("color must look like #rrggbb")
	}

	station := &model.Station{
		RestaurantID: restaurantID,
		Name:         name,
		Description:  strings.TrimSpace(req.Description),
		Color:        color,
	}

	if err := s.stationRepo.Create(ctx, station); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("restaurant_id", restaurantID).
		Int64("station_id", station.ID).
		Str("name", station.Name).
		Msg("station created")

	return station, nil
}

func (s *stationService) Delete(ctx context.Context, restaurantID, id int64) error {
	if err := s.stationRepo.Delete(ctx, restaurantID, id); err != nil {
		return err
	}

	s.logger.Info().Int64("restaurant_id", restaurantID).Int64("station_id", id).Msg("station deleted")
	return nil
}
