// Package rwa defines tokenized real-world-asset listings.
package rwa

import "time"

// Status represents listing availability.
type Status string

const (
	StatusAvailable Status = "available"
	StatusSoldOut   Status = "soldout"
	StatusPending   Status = "pending"
)

// Listing is a tokenized property or unit offered on the marketplace.
type Listing struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	PropertyType    string    `json:"property_type"`
	Location        string    `json:"location"`
	ImageURL        string    `json:"image"`
	TotalTokens     int64     `json:"total_tokens"`
	AvailableTokens int64     `json:"available_tokens"`
	TokenPrice      float64   `json:"token_price"`
	TotalValue      float64   `json:"total_value"`
	APY             float64   `json:"apy"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}
