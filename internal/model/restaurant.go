package model

import "time"

// Restaurant is the tenant root.
type Restaurant struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Phone        *string   `json:"phone" db:"phone"`
	Address      *string   `json:"address" db:"address"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// RegisterRequest is the payload for creating a restaurant account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for staff login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries a freshly issued bearer credential.
type AuthResponse struct {
	Token        string `json:"token"`
	RestaurantID int64  `json:"restaurant_id"`
	Email        string `json:"email"`
	Message      string `json:"message,omitempty"`
}

// VerifyResponse describes the identity behind a valid credential.
type VerifyResponse struct {
	RestaurantID int64  `json:"restaurant_id"`
	Email        string `json:"email"`
}

// RestaurantSummary is the restaurant contact block attached to orders.
type RestaurantSummary struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// RestaurantUpdateRequest is a partial profile update. Nil fields are left
// unchanged; an empty phone or address clears it.
type RestaurantUpdateRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Active  *bool   `json:"active"`
}
