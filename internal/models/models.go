package models

import (
	"fmt"
	"time"
)

// Location is a coordinate pair in degrees.
// No range validation is performed.
type Location struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

func (l Location) String() string {
	return fmt.Sprintf("%g %g", l.Longitude, l.Latitude)
}

// ShopRecord holds one coffee shop from the data file.
type ShopRecord struct {
	Name      string
	Longitude float64
	Latitude  float64
}

// Location returns the shop's position.
func (s ShopRecord) Location() Location {
	return Location{Longitude: s.Longitude, Latitude: s.Latitude}
}

// RankedShop is a shop together with its distance from the user.
type RankedShop struct {
	ShopRecord
	DistanceKm float64
}

// Lookup is one recorded address search, kept only when history is enabled.
type Lookup struct {
	ID        string
	Address   string
	Found     bool
	Location  Location
	Results   []RankedShop
	CreatedAt time.Time
}
