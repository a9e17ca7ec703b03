package handler

import (
	"context"
	"net/http"

	"qr-kitchen/internal/model"
	"qr-kitchen/internal/tenant"

	"github.com/stretchr/testify/mock"
)

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, restaurantID int64, req *model.OrderRequest) (*model.CreateOrderResponse, error) {
	args := m.Called(ctx, restaurantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreateOrderResponse), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, restaurantID int64, id string) (*model.Order, error) {
	args := m.Called(ctx, restaurantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, restaurantID int64, statuses []model.OrderStatus) ([]model.Order, error) {
	args := m.Called(ctx, restaurantID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) ListActive(ctx context.Context, restaurantID int64) ([]model.Order, error) {
	args := m.Called(ctx, restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, restaurantID int64, id string, status model.OrderStatus, actor string) (*model.Order, error) {
	args := m.Called(ctx, restaurantID, id, status, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) ReleaseTable(ctx context.Context, restaurantID int64, id string) error {
	args := m.Called(ctx, restaurantID, id)
	return args.Error(0)
}

func (m *MockOrderService) StatusHistory(ctx context.Context, restaurantID int64, id string) ([]model.OrderStatusChange, error) {
	args := m.Called(ctx, restaurantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderStatusChange), args.Error(1)
}

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) GetAll(ctx context.Context, restaurantID int64, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, restaurantID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, restaurantID, id int64) (*model.Product, error) {
	args := m.Called(ctx, restaurantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

// MockStationService is a mock implementation of StationService.
type MockStationService struct {
	mock.Mock
}

func (m *MockStationService) List(ctx context.Context, restaurantID int64) ([]model.Station, error) {
	args := m.Called(ctx, restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Station), args.Error(1)
}

func (m *MockStationService) Create(ctx context.Context, restaurantID int64, req *model.StationRequest) (*model.Station, error) {
	args := m.Called(ctx, restaurantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Station), args.Error(1)
}

func (m *MockStationService) Delete(ctx context.Context, restaurantID, id int64) error {
	args := m.Called(ctx, restaurantID, id)
	return args.Error(0)
}

// MockRestaurantService is a mock implementation of RestaurantService.
type MockRestaurantService struct {
	mock.Mock
}

func (m *MockRestaurantService) Get(ctx context.Context, callerID, id int64) (*model.Restaurant, error) {
	args := m.Called(ctx, callerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Restaurant), args.Error(1)
}

func (m *MockRestaurantService) Update(ctx context.Context, callerID, id int64, req *model.RestaurantUpdateRequest) (*model.Restaurant, error) {
	args := m.Called(ctx, callerID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Restaurant), args.Error(1)
}

// MockAuthService is a mock implementation of AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Verify(ctx context.Context, tc tenant.Context) (*model.VerifyResponse, error) {
	args := m.Called(ctx, tc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerifyResponse), args.Error(1)
}

var (
	staff    = tenant.Context{TenantID: 7, Identity: "chef@bistro.test", Authenticated: true, CredentialPresented: true}
	customer = tenant.Context{TenantID: 1}
)

func customerOf(id int64) tenant.Context {
	return tenant.Context{TenantID: id}
}

func withTenant(r *http.Request, tc tenant.Context) *http.Request {
	return r.WithContext(tenant.NewContext(r.Context(), tc))
}
