// Package memory provides a thread-safe in-memory implementation of the
// storage interfaces. It backs tests and the fixture-driven demo mode.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/camp-network/marketplace/internal/app/domain/agent"
	"github.com/camp-network/marketplace/internal/app/domain/camper"
	"github.com/camp-network/marketplace/internal/app/domain/rwa"
	"github.com/camp-network/marketplace/internal/app/domain/sponsor"
	"github.com/camp-network/marketplace/internal/app/domain/trade"
	"github.com/camp-network/marketplace/internal/app/storage"
)

// Store is an in-memory storage.Store.
type Store struct {
	mu           sync.RWMutex
	agents       map[string]agent.Agent
	campers      map[string]camper.Camper
	sponsors     map[string]sponsor.Sponsor
	listings     map[string]rwa.Listing
	transactions map[string]trade.Transaction
	users        map[string]camper.User
}

var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		agents:       make(map[string]agent.Agent),
		campers:      make(map[string]camper.Camper),
		sponsors:     make(map[string]sponsor.Sponsor),
		listings:     make(map[string]rwa.Listing),
		transactions: make(map[string]trade.Transaction),
		users:        make(map[string]camper.User),
	}
}

func newID() string {
	return uuid.NewString()
}

// AgentStore implementation ---------------------------------------------------

func (s *Store) CreateAgent(_ context.Context, a agent.Agent) (agent.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = newID()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	s.agents[a.ID] = a
	return a, nil
}

func (s *Store) UpdateAgent(_ context.Context, a agent.Agent) (agent.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.agents[a.ID]
	if !ok {
		return agent.Agent{}, storage.ErrNotFound
	}
	a.CreatedAt = original.CreatedAt
	a.UpdatedAt = time.Now().UTC()

	s.agents[a.ID] = a
	return a, nil
}

func (s *Store) GetAgent(_ context.Context, id string) (agent.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.agents[id]
	if !ok {
		return agent.Agent{}, storage.ErrNotFound
	}
	return a, nil
}

func (s *Store) ListAgents(_ context.Context, q storage.AgentQuery) ([]agent.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]agent.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		if q.TrendingOnly && !a.IsTrending {
			continue
		}
		result = append(result, a)
	}

	sortAgents(result, q.SortBy)

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

func (s *Store) GetSpotlightAgent(_ context.Context) (agent.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.agents {
		if a.IsSpotlight && a.Status == agent.StatusActive {
			return a, nil
		}
	}
	return agent.Agent{}, storage.ErrNotFound
}

func sortAgents(agents []agent.Agent, key agent.SortKey) {
	switch key {
	case agent.SortVolume:
		sort.SliceStable(agents, func(i, j int) bool {
			return parseAmount(agents[i].Volume24h) > parseAmount(agents[j].Volume24h)
		})
	case agent.SortHolders:
		sort.SliceStable(agents, func(i, j int) bool {
			return agents[i].HoldersCount > agents[j].HoldersCount
		})
	case agent.SortPriceChange:
		sort.SliceStable(agents, func(i, j int) bool {
			return agents[i].PriceChange24h > agents[j].PriceChange24h
		})
	case agent.SortNewest:
		sort.SliceStable(agents, func(i, j int) bool {
			return agents[i].CreatedAt.After(agents[j].CreatedAt)
		})
	default: // market cap
		sort.SliceStable(agents, func(i, j int) bool {
			return parseAmount(agents[i].MarketCap) > parseAmount(agents[j].MarketCap)
		})
	}
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// CamperStore implementation --------------------------------------------------

func (s *Store) CreateCamper(_ context.Context, c camper.Camper) (camper.Camper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.Skills = append([]string(nil), c.Skills...)

	s.campers[c.ID] = c
	return cloneCamper(c), nil
}

func (s *Store) UpdateCamper(_ context.Context, c camper.Camper) (camper.Camper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.campers[c.ID]
	if !ok {
		return camper.Camper{}, storage.ErrNotFound
	}
	c.CreatedAt = original.CreatedAt
	c.Skills = append([]string(nil), c.Skills...)

	s.campers[c.ID] = c
	return cloneCamper(c), nil
}

func (s *Store) GetCamper(_ context.Context, id string) (camper.Camper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.campers[id]
	if !ok {
		return camper.Camper{}, storage.ErrNotFound
	}
	return cloneCamper(c), nil
}

func (s *Store) ListCampers(_ context.Context, status camper.Status, limit int) ([]camper.Camper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]camper.Camper, 0, len(s.campers))
	for _, c := range s.campers {
		if status != "" && c.Status != status {
			continue
		}
		result = append(result, cloneCamper(c))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func cloneCamper(c camper.Camper) camper.Camper {
	c.Skills = append([]string(nil), c.Skills...)
	return c
}

// SponsorStore implementation -------------------------------------------------

func (s *Store) CreateSponsor(_ context.Context, sp sponsor.Sponsor) (sponsor.Sponsor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sp.ID == "" {
		sp.ID = newID()
	}
	sp.CreatedAt = time.Now().UTC()

	s.sponsors[sp.ID] = sp
	return sp, nil
}

func (s *Store) UpdateSponsor(_ context.Context, sp sponsor.Sponsor) (sponsor.Sponsor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.sponsors[sp.ID]
	if !ok {
		return sponsor.Sponsor{}, storage.ErrNotFound
	}
	sp.CreatedAt = original.CreatedAt
	sp.UpdatedAt = time.Now().UTC()

	s.sponsors[sp.ID] = sp
	return sp, nil
}

func (s *Store) GetSponsor(_ context.Context, id string) (sponsor.Sponsor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.sponsors[id]
	if !ok {
		return sponsor.Sponsor{}, storage.ErrNotFound
	}
	return sp, nil
}

func (s *Store) ListSponsorsByUser(_ context.Context, userID string) ([]sponsor.Sponsor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]sponsor.Sponsor, 0)
	for _, sp := range s.sponsors {
		if sp.UserID == userID {
			result = append(result, sp)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// RWAStore implementation -----------------------------------------------------

func (s *Store) CreateListing(_ context.Context, l rwa.Listing) (rwa.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == "" {
		l.ID = newID()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	s.listings[l.ID] = l
	return l, nil
}

func (s *Store) GetListing(_ context.Context, id string) (rwa.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return rwa.Listing{}, storage.ErrNotFound
	}
	return l, nil
}

func (s *Store) ListListings(_ context.Context, status rwa.Status, limit int) ([]rwa.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]rwa.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		if status != "" && l.Status != status {
			continue
		}
		result = append(result, l)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// TransactionStore implementation ---------------------------------------------

func (s *Store) CreateTransaction(_ context.Context, tx trade.Transaction) (trade.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == "" {
		tx.ID = newID()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}

	s.transactions[tx.ID] = tx
	return tx, nil
}

func (s *Store) ListTransactionsByUser(_ context.Context, userID string, limit int) ([]trade.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]trade.Transaction, 0)
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			result = append(result, tx)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u camper.User) (camper.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = newID()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	u.TechBadges = append([]string(nil), u.TechBadges...)

	s.users[u.ID] = u
	return cloneUser(u), nil
}

func (s *Store) UpdateUser(_ context.Context, u camper.User) (camper.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return camper.User{}, storage.ErrNotFound
	}
	u.CreatedAt = original.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	u.TechBadges = append([]string(nil), u.TechBadges...)

	s.users[u.ID] = u
	return cloneUser(u), nil
}

func (s *Store) GetUser(_ context.Context, id string) (camper.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return camper.User{}, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) ListUsers(_ context.Context) ([]camper.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]camper.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, cloneUser(u))
	}
	return result, nil
}

func cloneUser(u camper.User) camper.User {
	u.TechBadges = append([]string(nil), u.TechBadges...)
	return u
}
