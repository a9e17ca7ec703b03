package model

// DefaultStationColor is used when a station is created without a color.
const DefaultStationColor = "#0d6efd"

// Station is a named kitchen preparation area.
type Station struct {
	ID           int64  `json:"id" db:"id"`
	RestaurantID int64  `json:"restaurant_id" db:"restaurant_id"`
	Name         string `json:"name" db:"name"`
	Description  string `json:"description" db:"description"`
	Color        string `json:"color" db:"color"`
}

// StationRequest is the payload for creating a station.
type StationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}
