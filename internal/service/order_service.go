package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"qr-kitchen/internal/lifecycle"
	"qr-kitchen/internal/model"
	"qr-kitchen/internal/repository"

	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	cipher    FieldCipher
	notifier  ChangeNotifier
	now       func() time.Time
	logger    zerolog.Logger
}

// NewOrderService creates a new order service. A nil notifier disables
// change notifications.
func NewOrderService(
	orderRepo repository.OrderRepository,
	cipher FieldCipher,
	notifier ChangeNotifier,
	logger zerolog.Logger,
) OrderService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &orderService{
		orderRepo: orderRepo,
		cipher:    cipher,
		notifier:  notifier,
		now:       time.Now,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// NewOrderID returns 128 random bits as 32 lowercase hex characters.
func NewOrderID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to generate order id: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// CreateOrder validates and stores a new order with its items in one transaction.
func (s *orderService) CreateOrder(ctx context.Context, restaurantID int64, req *model.OrderRequest) (*model.CreateOrderResponse, error) {
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	id, err := NewOrderID()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &model.Order{
		ID:           id,
		RestaurantID: restaurantID,
		TableNumber:  req.TableNumber,
		Total:        math.Round(*req.Total*100) / 100,
		Status:       model.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if order.Name, err = s.cipher.EncryptPtr(req.Name); err != nil {
		return nil, fmt.Errorf("failed to encrypt customer name: %w", err)
	}
	if order.Email, err = s.cipher.EncryptPtr(req.Email); err != nil {
		return nil, fmt.Errorf("failed to encrypt customer email: %w", err)
	}
	if order.Phone, err = s.cipher.EncryptPtr(req.Phone); err != nil {
		return nil, fmt.Errorf("failed to encrypt customer phone: %w", err)
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	items := make([]model.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = model.OrderItem{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Int64("restaurant_id", restaurantID).
		Int("item_count", len(items)).
		Msg("order created")

	s.notifier.Notify(ctx, restaurantID)

	return &model.CreateOrderResponse{
		ID:           order.ID,
		Message:      "order created",
		RestaurantID: restaurantID,
	}, nil
}

// GetOrder returns a decrypted order owned by the restaurant.
func (s *orderService) GetOrder(ctx context.Context, restaurantID int64, id string) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, restaurantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	s.decrypt(order)
	return order, nil
}

// ListOrders returns decrypted orders, newest first.
func (s *orderService) ListOrders(ctx context.Context, restaurantID int64, statuses []model.OrderStatus) ([]model.Order, error) {
	orders, err := s.orderRepo.List(ctx, restaurantID, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	for i := range orders {
		s.decrypt(&orders[i])
	}
	return orders, nil
}

// ListActive returns the decrypted kitchen snapshot, oldest first.
func (s *orderService) ListActive(ctx context.Context, restaurantID int64) ([]model.Order, error) {
	orders, err := s.orderRepo.ListActive(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active orders: %w", err)
	}

	for i := range orders {
		s.decrypt(&orders[i])
	}
	return orders, nil
}

// UpdateStatus locks the order row, validates the transition against the
// current status and writes it with a history entry. Concurrent writers on
// one order are serialised by the row lock; the later one is validated
// against the status the earlier one left.
func (s *orderService) UpdateStatus(ctx context.Context, restaurantID int64, id string, status model.OrderStatus, actor string) (*model.Order, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	current, err := s.orderRepo.LockStatus(ctx, tx, restaurantID, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.Transition(current, status)
	if err != nil {
		s.logger.Warn().
			Str("order_id", id).
			Str("from", string(current)).
			Str("to", string(status)).
			Msg("transition rejected")
		return nil, model.NewDomainError(model.ErrCodeInvalidTransition,
			fmt.Sprintf("cannot move order from %s to %s", current, status))
	}

	if err = s.orderRepo.UpdateStatus(ctx, tx, restaurantID, id, next); err != nil {
		return nil, err
	}

	err = s.orderRepo.LogStatusChange(ctx, tx, model.OrderStatusChange{
		OrderID:   id,
		From:      current,
		To:        next,
		ChangedBy: actor,
		ChangedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", id).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info().
		Str("order_id", id).
		Int64("restaurant_id", restaurantID).
		Str("from", string(current)).
		Str("to", string(next)).
		Str("actor", actor).
		Msg("order status updated")

	s.notifier.Notify(ctx, restaurantID)

	return s.GetOrder(ctx, restaurantID, id)
}

// ReleaseTable clears the order's table number.
func (s *orderService) ReleaseTable(ctx context.Context, restaurantID int64, id string) error {
	if err := s.orderRepo.ReleaseTable(ctx, restaurantID, id); err != nil {
		return err
	}

	s.logger.Info().Str("order_id", id).Int64("restaurant_id", restaurantID).Msg("table released")
	s.notifier.Notify(ctx, restaurantID)
	return nil
}

// StatusHistory lists an order's transitions. Foreign orders are not found.
func (s *orderService) StatusHistory(ctx context.Context, restaurantID int64, id string) ([]model.OrderStatusChange, error) {
	if _, err := s.GetOrder(ctx, restaurantID, id); err != nil {
		return nil, err
	}
	return s.orderRepo.StatusHistory(ctx, restaurantID, id)
}

func (s *orderService) decrypt(o *model.Order) {
	o.Name = s.cipher.DecryptPtr(o.Name)
	o.Email = s.cipher.DecryptPtr(o.Email)
	o.Phone = s.cipher.DecryptPtr(o.Phone)
}

// validateOrderRequest checks the request before anything is written.
// The total is trusted as sent; it is not recomputed from the items.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.NewValidationError("order request is empty")
	}

	if len(req.Items) == 0 {
		return model.NewValidationError("order must contain at least one item")
	}

	if req.Total == nil {
		return model.NewValidationError("total is required")
	}

	if *req.Total < 0 || math.IsNaN(*req.Total) || math.IsInf(*req.Total, 0) {
		return model.NewValidationError("total must be a non-negative amount")
	}

	for i, item := range req.Items {
		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Int64("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.NewValidationError("item %d: quantity must be positive", i)
		}
		if item.Price < 0 {
			return model.NewValidationError("item %d: price must not be negative", i)
		}
	}

	return nil
}
