package feed

import (
	"context"
	"fmt"
	"time"

	"qr-kitchen/internal/model"

	"github.com/rs/zerolog"
)

// SnapshotSource lists the active orders of a restaurant.
type SnapshotSource interface {
	ListActive(ctx context.Context, restaurantID int64) ([]model.Order, error)
}

// Publisher produces the active-order snapshots sent to kitchen displays.
type Publisher struct {
	source SnapshotSource
	logger zerolog.Logger
}

// NewPublisher creates a snapshot publisher over source.
func NewPublisher(source SnapshotSource, logger zerolog.Logger) *Publisher {
	return &Publisher{
		source: source,
		logger: logger.With().Str("component", "feed-publisher").Logger(),
	}
}

// Poll returns the full active snapshot for a restaurant, never a diff.
// since only feeds the debug count of orders touched after it. The result
// is never nil so it always encodes as a JSON array.
func (p *Publisher) Poll(ctx context.Context, restaurantID int64, since time.Time) ([]model.Order, error) {
	orders, err := p.source.ListActive(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to poll active orders: %w", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}

	if e := p.logger.Debug(); e.Enabled() {
		e.Int64("restaurant_id", restaurantID).
			Int("active", len(orders)).
			Int("changed", len(ChangedSince(orders, since))).
			Msg("snapshot polled")
	}

	return orders, nil
}

// ChangedSince returns the orders updated strictly after since.
func ChangedSince(orders []model.Order, since time.Time) []model.Order {
	var out []model.Order
	for _, o := range orders {
		if o.UpdatedAt.After(since) {
			out = append(out, o)
		}
	}
	return out
}
