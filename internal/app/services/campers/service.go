// Package campers manages scholarship camper profiles.
package campers

import (
	"context"
	"fmt"

	"github.com/camp-network/marketplace/internal/app/domain/camper"
	"github.com/camp-network/marketplace/internal/app/storage"
	"github.com/camp-network/marketplace/pkg/logger"
)

// DefaultListLimit caps camper listings.
const DefaultListLimit = 50

// Service exposes camper profile operations.
type Service struct {
	store storage.CamperStore
	log   *logger.Logger
}

// NewService creates the campers service.
func NewService(store storage.CamperStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("campers")
	}
	return &Service{store: store, log: log}
}

// CreateInput is the camper enrollment payload.
type CreateInput struct {
	Name            string   `json:"name"`
	Age             int      `json:"age"`
	Bio             string   `json:"bio"`
	AvatarURL       string   `json:"avatar"`
	ImpactArea      string   `json:"impact_area"`
	HeroProgram     bool     `json:"hero_program"`
	Skills          []string `json:"skills"`
	SponsorshipGoal float64  `json:"sponsorship_goal"`
}

// Create enrolls a camper pending review.
func (s *Service) Create(ctx context.Context, input CreateInput) (camper.Camper, error) {
	if input.Name == "" {
		return camper.Camper{}, fmt.Errorf("name is required")
	}
	if input.Age < 0 {
		return camper.Camper{}, fmt.Errorf("age must not be negative")
	}
	if input.SponsorshipGoal < 0 {
		return camper.Camper{}, fmt.Errorf("sponsorship goal must not be negative")
	}

	created, err := s.store.CreateCamper(ctx, camper.Camper{
		Name:            input.Name,
		Age:             input.Age,
		Bio:             input.Bio,
		AvatarURL:       input.AvatarURL,
		ImpactArea:      input.ImpactArea,
		HeroProgram:     input.HeroProgram,
		Skills:          input.Skills,
		SponsorshipGoal: input.SponsorshipGoal,
		Status:          camper.StatusPending,
	})
	if err != nil {
		return camper.Camper{}, err
	}

	s.log.WithField("camper_id", created.ID).Info("camper enrolled")
	return created, nil
}

// Get fetches one camper profile.
func (s *Service) Get(ctx context.Context, id string) (camper.Camper, error) {
	if id == "" {
		return camper.Camper{}, fmt.Errorf("camper id is required")
	}
	return s.store.GetCamper(ctx, id)
}

// List returns campers, newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status camper.Status, limit int) ([]camper.Camper, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	return s.store.ListCampers(ctx, status, limit)
}

// RecordSponsorship adds amount to a camper's received total. Status
// transitions stay with the backend; only the running total moves here.
func (s *Service) RecordSponsorship(ctx context.Context, camperID string, amount float64) (camper.Camper, error) {
	if amount <= 0 {
		return camper.Camper{}, fmt.Errorf("amount must be positive")
	}
	c, err := s.store.GetCamper(ctx, camperID)
	if err != nil {
		return camper.Camper{}, err
	}
	c.SponsorshipReceived += amount
	return s.store.UpdateCamper(ctx, c)
}
