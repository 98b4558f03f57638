// Package sponsors manages scholarship sponsorship records.
package sponsors

import (
	"context"
	"fmt"
	"regexp"

	"github.com/camp-network/marketplace/internal/app/domain/sponsor"
	"github.com/camp-network/marketplace/internal/app/storage"
	"github.com/camp-network/marketplace/pkg/logger"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service exposes sponsorship operations.
type Service struct {
	store storage.SponsorStore
	log   *logger.Logger
}

// NewService creates the sponsors service.
func NewService(store storage.SponsorStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("sponsors")
	}
	return &Service{store: store, log: log}
}

// CreateInput is the sponsorship signup payload.
type CreateInput struct {
	UserID        string  `json:"user_id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	WalletAddress string  `json:"wallet_address"`
	CamperID      string  `json:"camper_id"`
	Amount        float64 `json:"amount"`
}

// Create registers a pending sponsorship.
func (s *Service) Create(ctx context.Context, input CreateInput) (sponsor.Sponsor, error) {
	if input.Name == "" {
		return sponsor.Sponsor{}, fmt.Errorf("name is required")
	}
	if !emailPattern.MatchString(input.Email) {
		return sponsor.Sponsor{}, fmt.Errorf("email is invalid")
	}
	if input.Amount <= 0 {
		return sponsor.Sponsor{}, fmt.Errorf("amount must be positive")
	}

	created, err := s.store.CreateSponsor(ctx, sponsor.Sponsor{
		UserID:        input.UserID,
		Name:          input.Name,
		Email:         input.Email,
		WalletAddress: input.WalletAddress,
		CamperID:      input.CamperID,
		Amount:        input.Amount,
		Status:        sponsor.StatusPending,
	})
	if err != nil {
		return sponsor.Sponsor{}, err
	}

	s.log.WithField("sponsor_id", created.ID).WithField("amount", created.Amount).Info("sponsorship created")
	return created, nil
}

// Get fetches one sponsorship record.
func (s *Service) Get(ctx context.Context, id string) (sponsor.Sponsor, error) {
	if id == "" {
		return sponsor.Sponsor{}, fmt.Errorf("sponsor id is required")
	}
	return s.store.GetSponsor(ctx, id)
}

// ListByUser returns a user's sponsorships, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]sponsor.Sponsor, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return s.store.ListSponsorsByUser(ctx, userID)
}

// SetStatus writes a status transition requested by the backend. Only
// membership in the known set is validated; ordering is the backend's
// responsibility.
func (s *Service) SetStatus(ctx context.Context, id string, status sponsor.Status) (sponsor.Sponsor, error) {
	if !status.Known() {
		return sponsor.Sponsor{}, fmt.Errorf("unknown status %q", status)
	}
	sp, err := s.store.GetSponsor(ctx, id)
	if err != nil {
		return sponsor.Sponsor{}, err
	}
	sp.Status = status
	return s.store.UpdateSponsor(ctx, sp)
}
