package repository

import (
	"context"

	"qr-kitchen/internal/model"

	"github.com/jackc/pgx/v5"
)

// OrderRepository defines data access for orders. Every read and write is
// scoped by restaurant; a row owned by another restaurant behaves as absent.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order with its items. It returns nil, nil when no
	// order with that id belongs to the restaurant.
	GetByID(ctx context.Context, restaurantID int64, id string) (*model.Order, error)

	// List returns orders newest first, optionally restricted to statuses.
	List(ctx context.Context, restaurantID int64, statuses []model.OrderStatus) ([]model.Order, error)

	// ListActive returns pending, preparing and ready orders oldest first.
	ListActive(ctx context.Context, restaurantID int64) ([]model.Order, error)

	// LockStatus reads the current status and locks the row until tx ends.
	LockStatus(ctx context.Context, tx pgx.Tx, restaurantID int64, id string) (model.OrderStatus, error)

	// UpdateStatus writes a new status. Zero matched rows is ErrOrderNotFound.
	UpdateStatus(ctx context.Context, tx pgx.Tx, restaurantID int64, id string, status model.OrderStatus) error

	// LogStatusChange appends to the order's status history.
	LogStatusChange(ctx context.Context, tx pgx.Tx, change model.OrderStatusChange) error

	// StatusHistory returns applied transitions oldest first.
	StatusHistory(ctx context.Context, restaurantID int64, id string) ([]model.OrderStatusChange, error)

	// ReleaseTable clears the table number. It is idempotent.
	ReleaseTable(ctx context.Context, restaurantID int64, id string) error
}

// ProductRepository defines read access to the menu catalogue.
type ProductRepository interface {
	// GetAll retrieves a restaurant's products with pagination support.
	GetAll(ctx context.Context, restaurantID int64, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product, or nil if absent.
	GetByID(ctx context.Context, restaurantID, id int64) (*model.Product, error)
}

// RestaurantRepository defines data access for tenant accounts.
type RestaurantRepository interface {
	// Create inserts a restaurant and fills in its ID and CreatedAt.
	Create(ctx context.Context, restaurant *model.Restaurant) error

	// GetByEmail returns nil, nil when no account uses the email.
	GetByEmail(ctx context.Context, email string) (*model.Restaurant, error)

	// GetByID returns nil, nil when absent.
	GetByID(ctx context.Context, id int64) (*model.Restaurant, error)

	// Update returns ErrRestaurantNotFound when the id is unknown.
	Update(ctx context.Context, restaurant *model.Restaurant) error
}

// StationRepository defines data access for kitchen stations.
type StationRepository interface {
	List(ctx context.Context, restaurantID int64) ([]model.Station, error)
	Create(ctx context.Context, station *model.Station) error
	// Delete removes a station unless a product still references its name.
	Delete(ctx context.Context, restaurantID, id int64) error
}
