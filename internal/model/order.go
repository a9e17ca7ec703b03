package model

import (
	"strings"
	"time"
)

// OrderStatus is the preparation status of an order.
type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusPreparing       OrderStatus = "preparing"
	StatusReady           OrderStatus = "ready"
	StatusServed          OrderStatus = "served"
	StatusAwaitingPayment OrderStatus = "awaiting_payment"
	StatusCompleted       OrderStatus = "completed"
	StatusCancelled       OrderStatus = "cancelled"
)

// AllStatuses lists every known status literal.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusPreparing,
	StatusReady,
	StatusServed,
	StatusAwaitingPayment,
	StatusCompleted,
	StatusCancelled,
}

// ActiveStatuses are the statuses shown on a kitchen display.
var ActiveStatuses = []OrderStatus{StatusPending, StatusPreparing, StatusReady}

// DefaultStation is reported for items whose product has no station.
const DefaultStation = "general"

// ParseOrderStatus validates a wire literal.
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// ParseStatusFilter parses a comma-separated status list. An empty string
// yields a nil filter.
func ParseStatusFilter(s string) ([]OrderStatus, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var out []OrderStatus
	for _, part := range strings.Split(s, ",") {
		st, err := ParseOrderStatus(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// IsActive reports whether the status belongs on a live kitchen view.
func (s OrderStatus) IsActive() bool {
	for _, st := range ActiveStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// Order represents a customer order. Customer fields hold plaintext once
// read through the service layer.
type Order struct {
	ID           string             `json:"id"`
	RestaurantID int64              `json:"restaurant_id"`
	Name         *string            `json:"name"`
	Email        *string            `json:"email"`
	Phone        *string            `json:"phone"`
	TableNumber  *string            `json:"table_number"`
	Total        float64            `json:"total"`
	Status       OrderStatus        `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Items        []OrderItem        `json:"items"`
	Restaurant   *RestaurantSummary `json:"restaurant,omitempty"`
}

// OrderItem represents a line item in an order. Price is captured at
// order time and never follows later catalogue changes.
type OrderItem struct {
	OrderID   string  `json:"-"`
	ProductID int64   `json:"id"`
	Name      *string `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Station   string  `json:"station"`
}

// OrderStatusChange is one applied transition.
type OrderStatusChange struct {
	OrderID   string      `json:"order_id"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ChangedBy string      `json:"changed_by"`
	ChangedAt time.Time   `json:"changed_at"`
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	Name         *string            `json:"name,omitempty"`
	Email        *string            `json:"email,omitempty"`
	Phone        *string            `json:"phone,omitempty"`
	TableNumber  *string            `json:"table_number,omitempty"`
	RestaurantID *int64             `json:"restaurant_id,omitempty"`
	Items        []OrderItemRequest `json:"items"`
	Total        *float64           `json:"total"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID int64   `json:"id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// CreateOrderResponse is returned after an order is stored.
type CreateOrderResponse struct {
	ID           string `json:"id"`
	Message      string `json:"message"`
	RestaurantID int64  `json:"restaurant_id"`
}

// StatusUpdateRequest is the body of a status change.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
