package service

import (
	"context"
	"fmt"

	"qr-kitchen/internal/model"
	"qr-kitchen/internal/repository"

	"github.com/rs/zerolog"
)

const (
	defaultProductPageSize = 50
	maxProductPageSize     = 200
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// GetAll lists a restaurant's menu with pagination.
func (s *productService) GetAll(ctx context.Context, restaurantID int64, limit, offset int) ([]model.Product, error) {
	if limit <= 0 {
		limit = defaultProductPageSize
	}
	if limit > maxProductPageSize {
		limit = maxProductPageSize
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.productRepo.GetAll(ctx, restaurantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int64("restaurant_id", restaurantID).
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product.
func (s *productService) GetByID(ctx context.Context, restaurantID, id int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, restaurantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		return nil, model.ErrProductNotFound
	}

	return product, nil
}
