// Package rwa exposes tokenized real-world-asset listings.
package rwa

import (
	"context"
	"fmt"

	domain "github.com/camp-network/marketplace/internal/app/domain/rwa"
	"github.com/camp-network/marketplace/internal/app/storage"
	"github.com/camp-network/marketplace/pkg/logger"
)

// DefaultListLimit caps listing queries.
const DefaultListLimit = 50

// Service exposes RWA listing operations.
type Service struct {
	store storage.RWAStore
	log   *logger.Logger
}

// NewService creates the rwa service.
func NewService(store storage.RWAStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("rwa")
	}
	return &Service{store: store, log: log}
}

// CreateInput is the listing creation payload.
type CreateInput struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	PropertyType string  `json:"property_type"`
	Location     string  `json:"location"`
	ImageURL     string  `json:"image"`
	TotalTokens  int64   `json:"total_tokens"`
	TokenPrice   float64 `json:"token_price"`
	APY          float64 `json:"apy"`
}

// Create adds a listing with all tokens available.
func (s *Service) Create(ctx context.Context, input CreateInput) (domain.Listing, error) {
	if input.Name == "" {
		return domain.Listing{}, fmt.Errorf("name is required")
	}
	if input.TotalTokens <= 0 {
		return domain.Listing{}, fmt.Errorf("total tokens must be positive")
	}
	if input.TokenPrice <= 0 {
		return domain.Listing{}, fmt.Errorf("token price must be positive")
	}

	created, err := s.store.CreateListing(ctx, domain.Listing{
		Name:            input.Name,
		Description:     input.Description,
		PropertyType:    input.PropertyType,
		Location:        input.Location,
		ImageURL:        input.ImageURL,
		TotalTokens:     input.TotalTokens,
		AvailableTokens: input.TotalTokens,
		TokenPrice:      input.TokenPrice,
		TotalValue:      float64(input.TotalTokens) * input.TokenPrice,
		APY:             input.APY,
		Status:          domain.StatusAvailable,
	})
	if err != nil {
		return domain.Listing{}, err
	}

	s.log.WithField("listing_id", created.ID).Info("listing created")
	return created, nil
}

// Get fetches one listing.
func (s *Service) Get(ctx context.Context, id string) (domain.Listing, error) {
	if id == "" {
		return domain.Listing{}, fmt.Errorf("listing id is required")
	}
	return s.store.GetListing(ctx, id)
}

// List returns listings, newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status domain.Status, limit int) ([]domain.Listing, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	return s.store.ListListings(ctx, status, limit)
}
