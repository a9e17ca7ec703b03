package service

import (
	"context"

	"qr-kitchen/internal/model"
	"qr-kitchen/internal/tenant"
)

// FieldCipher protects customer fields at rest.
type FieldCipher interface {
	EncryptPtr(plain *string) (*string, error)
	DecryptPtr(value *string) *string
}

// ChangeNotifier is told about every committed order mutation.
type ChangeNotifier interface {
	Notify(ctx context.Context, restaurantID int64)
}

// OrderService defines the order lifecycle operations. Every operation is
// scoped to one restaurant.
type OrderService interface {
	// CreateOrder validates and stores a new pending order.
	CreateOrder(ctx context.Context, restaurantID int64, req *model.OrderRequest) (*model.CreateOrderResponse, error)

	// GetOrder returns ErrOrderNotFound for absent or foreign orders.
	GetOrder(ctx context.Context, restaurantID int64, id string) (*model.Order, error)

	// ListOrders returns orders newest first, optionally filtered by status.
	ListOrders(ctx context.Context, restaurantID int64, statuses []model.OrderStatus) ([]model.Order, error)

	// ListActive returns the kitchen view snapshot.
	ListActive(ctx context.Context, restaurantID int64) ([]model.Order, error)

	// UpdateStatus applies a transition and returns the updated order.
	UpdateStatus(ctx context.Context, restaurantID int64, id string, status model.OrderStatus, actor string) (*model.Order, error)

	// ReleaseTable clears the order's table number.
	ReleaseTable(ctx context.Context, restaurantID int64, id string) error

	// StatusHistory lists the transitions applied to an order.
	StatusHistory(ctx context.Context, restaurantID int64, id string) ([]model.OrderStatusChange, error)
}

// ProductService defines read operations on the menu.
type ProductService interface {
	GetAll(ctx context.Context, restaurantID int64, limit, offset int) ([]model.Product, error)
	GetByID(ctx context.Context, restaurantID, id int64) (*model.Product, error)
}

// StationService manages kitchen stations.
type StationService interface {
	List(ctx context.Context, restaurantID int64) ([]model.Station, error)
	Create(ctx context.Context, restaurantID int64, req *model.StationRequest) (*model.Station, error)
	Delete(ctx context.Context, restaurantID, id int64) error
}

// RestaurantService reads and edits the caller's own restaurant profile.
type RestaurantService interface {
	Get(ctx context.Context, callerID, id int64) (*model.Restaurant, error)
	Update(ctx context.Context, callerID, id int64, req *model.RestaurantUpdateRequest) (*model.Restaurant, error)
}

// AuthService registers restaurants and issues bearer credentials.
type AuthService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error)
	Verify(ctx context.Context, tc tenant.Context) (*model.VerifyResponse, error)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, int64) {}
