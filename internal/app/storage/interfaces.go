// Package storage defines persistence interfaces for marketplace entities.
package storage

import (
	"context"
	"errors"

	"github.com/camp-network/marketplace/internal/app/domain/agent"
	"github.com/camp-network/marketplace/internal/app/domain/camper"
	"github.com/camp-network/marketplace/internal/app/domain/rwa"
	"github.com/camp-network/marketplace/internal/app/domain/sponsor"
	"github.com/camp-network/marketplace/internal/app/domain/trade"
)

// ErrNotFound is returned when a record does not exist. Callers surface it
// as a null-result fallback rather than a failure.
var ErrNotFound = errors.New("record not found")

// AgentQuery narrows and orders agent listings.
type AgentQuery struct {
	Status       agent.Status
	SortBy       agent.SortKey
	TrendingOnly bool
	Limit        int
}

// AgentStore persists agent listings.
type AgentStore interface {
	CreateAgent(ctx context.Context, a agent.Agent) (agent.Agent, error)
	UpdateAgent(ctx context.Context, a agent.Agent) (agent.Agent, error)
	GetAgent(ctx context.Context, id string) (agent.Agent, error)
	ListAgents(ctx context.Context, q AgentQuery) ([]agent.Agent, error)
	GetSpotlightAgent(ctx context.Context) (agent.Agent, error)
}

// CamperStore persists scholarship camper profiles.
type CamperStore interface {
	CreateCamper(ctx context.Context, c camper.Camper) (camper.Camper, error)
	UpdateCamper(ctx context.Context, c camper.Camper) (camper.Camper, error)
	GetCamper(ctx context.Context, id string) (camper.Camper, error)
	ListCampers(ctx context.Context, status camper.Status, limit int) ([]camper.Camper, error)
}

// SponsorStore persists sponsorship records.
type SponsorStore interface {
	CreateSponsor(ctx context.Context, s sponsor.Sponsor) (sponsor.Sponsor, error)
	UpdateSponsor(ctx context.Context, s sponsor.Sponsor) (sponsor.Sponsor, error)
	GetSponsor(ctx context.Context, id string) (sponsor.Sponsor, error)
	ListSponsorsByUser(ctx context.Context, userID string) ([]sponsor.Sponsor, error)
}

// RWAStore persists real-world-asset listings.
type RWAStore interface {
	CreateListing(ctx context.Context, l rwa.Listing) (rwa.Listing, error)
	GetListing(ctx context.Context, id string) (rwa.Listing, error)
	ListListings(ctx context.Context, status rwa.Status, limit int) ([]rwa.Listing, error)
}

// TransactionStore persists marketplace transactions.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx trade.Transaction) (trade.Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID string, limit int) ([]trade.Transaction, error)
}

// UserStore persists platform member profiles.
type UserStore interface {
	CreateUser(ctx context.Context, u camper.User) (camper.User, error)
	UpdateUser(ctx context.Context, u camper.User) (camper.User, error)
	GetUser(ctx context.Context, id string) (camper.User, error)
	ListUsers(ctx context.Context) ([]camper.User, error)
}

// Store combines every entity store; the memory, postgres, and docstore
// backends each implement the full set.
type Store interface {
	AgentStore
	CamperStore
	SponsorStore
	RWAStore
	TransactionStore
	UserStore
}
