package docstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/camp-network/marketplace/internal/app/domain/agent"
	"github.com/camp-network/marketplace/internal/app/domain/camper"
	"github.com/camp-network/marketplace/internal/app/domain/rwa"
	"github.com/camp-network/marketplace/internal/app/domain/sponsor"
	"github.com/camp-network/marketplace/internal/app/domain/trade"
	"github.com/camp-network/marketplace/internal/app/storage"
)

// Collection names on the document backend.
const (
	CollectionAgents       = "agents"
	CollectionCampers      = "campers"
	CollectionSponsors     = "sponsors"
	CollectionRWA          = "rwa"
	CollectionUsers        = "users"
	CollectionTransactions = "transactions"
)

// Store implements storage.Store against the remote document backend.
// Every call is a single-attempt REST request; failures are returned to
// the caller unwrapped except for not-found translation.
type Store struct {
	client *Client
}

var _ storage.Store = (*Store)(nil)

// NewStore wraps a Client in the storage.Store interface.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

func notFoundErr(err error) error {
	if IsNotFound(err) {
		return storage.ErrNotFound
	}
	return err
}

// --- agents ------------------------------------------------------------------

func (s *Store) CreateAgent(ctx context.Context, a agent.Agent) (agent.Agent, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	var out []agent.Agent
	if err := s.client.From(CollectionAgents).Insert(ctx, []agent.Agent{a}, &out); err != nil {
		return agent.Agent{}, err
	}
	if len(out) > 0 {
		return out[0], nil
	}
	return a, nil
}

func (s *Store) UpdateAgent(ctx context.Context, a agent.Agent) (agent.Agent, error) {
	a.UpdatedAt = time.Now().UTC()

	var out []agent.Agent
	err := s.client.From(CollectionAgents).Eq("id", a.ID).Update(ctx, a, &out)
	if err != nil {
		return agent.Agent{}, notFoundErr(err)
	}
	if len(out) == 0 {
		return agent.Agent{}, storage.ErrNotFound
	}
	return out[0], nil
}

func (s *Store) GetAgent(ctx context.Context, id string) (agent.Agent, error) {
	var a agent.Agent
	err := s.client.From(CollectionAgents).Eq("id", id).Single().Get(ctx, &a)
	if err != nil {
		return agent.Agent{}, notFoundErr(err)
	}
	return a, nil
}

// sortColumn maps a sort key to the backing column and direction.
func sortColumn(key agent.SortKey) (string, bool) {
	switch key {
	case agent.SortVolume:
		return "volume_24h", false
	case agent.SortHolders:
		return "holders_count", false
	case agent.SortPriceChange:
		return "price_change_24h", false
	case agent.SortNewest:
		return "created_at", false
	default:
		return "market_cap", false
	}
}

func (s *Store) ListAgents(ctx context.Context, q storage.AgentQuery) ([]agent.Agent, error) {
	query := s.client.From(CollectionAgents)
	if q.Status != "" {
		query = query.Eq("status", q.Status)
	}
	if q.TrendingOnly {
		query = query.Is("is_trending", true)
	}
	column, asc := sortColumn(q.SortBy)
	query = query.Order(column, asc)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var agents []agent.Agent
	if err := query.Get(ctx, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

func (s *Store) GetSpotlightAgent(ctx context.Context) (agent.Agent, error) {
	var agents []agent.Agent
	err := s.client.From(CollectionAgents).
		Is("is_spotlight", true).
		Eq("status", agent.StatusActive).
		Limit(1).
		Get(ctx, &agents)
	if err != nil {
		return agent.Agent{}, err
	}
	if len(agents) == 0 {
		return agent.Agent{}, storage.ErrNotFound
	}
	return agents[0], nil
}

// --- campers -----------------------------------------------------------------

func (s *Store) CreateCamper(ctx context.Context, c camper.Camper) (camper.Camper, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	var out []camper.Camper
	if err := s.client.From(CollectionCampers).Insert(ctx, []camper.Camper{c}, &out); err != nil {
		return camper.Camper{}, err
	}
	if len(out) > 0 {
		return out[0], nil
	}
	return c, nil
}

func (s *Store) UpdateCamper(ctx context.Context, c camper.Camper) (camper.Camper, error) {
	var out []camper.Camper
	err := s.client.From(CollectionCampers).Eq("id", c.ID).Update(ctx, c, &out)
	if err != nil {
		return camper.Camper{}, notFoundErr(err)
	}
	if len(out) == 0 {
		return camper.Camper{}, storage.ErrNotFound
	}
	return out[0], nil
}

func (s *Store) GetCamper(ctx context.Context, id string) (camper.Camper, error) {
	var c camper.Camper
	err := s.client.From(CollectionCampers).Eq("id", id).Single().Get(ctx, &c)
	if err != nil {
		return camper.Camper{}, notFoundErr(err)
	}
	return c, nil
}

func (s *Store) ListCampers(ctx context.Context, status camper.Status, limit int) ([]camper.Camper, error) {
	query := s.client.From(CollectionCampers)
	if status != "" {
		query = query.Eq("status", status)
	}
	query = query.Order("created_at", false)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var campers []camper.Camper
	if err := query.Get(ctx, &campers); err != nil {
		return nil, err
	}
	return campers, nil
}

// --- sponsors ----------------------------------------------------------------

func (s *Store) CreateSponsor(ctx context.Context, sp sponsor.Sponsor) (sponsor.Sponsor, error) {
	if sp.ID == "" {
		sp.ID = uuid.NewString()
	}
	sp.CreatedAt = time.Now().UTC()

	var out []sponsor.Sponsor
	if err := s.client.From(CollectionSponsors).Insert(ctx, []sponsor.Sponsor{sp}, &out); err != nil {
		return sponsor.Sponsor{}, err
	}
	if len(out) > 0 {
		return out[0], nil
	}
	return sp, nil
}

func (s *Store) UpdateSponsor(ctx context.Context, sp sponsor.Sponsor) (sponsor.Sponsor, error) {
	sp.UpdatedAt = time.Now().UTC()

	var out []sponsor.Sponsor
	err := s.client.From(CollectionSponsors).Eq("id", sp.ID).Update(ctx, sp, &out)
	if err != nil {
		return sponsor.Sponsor{}, notFoundErr(err)
	}
	if len(out) == 0 {
		return sponsor.Sponsor{}, storage.ErrNotFound
	}
	return out[0], nil
}

func (s *Store) GetSponsor(ctx context.Context, id string) (sponsor.Sponsor, error) {
	var sp sponsor.Sponsor
	err := s.client.From(CollectionSponsors).Eq("id", id).Single().Get(ctx, &sp)
	if err != nil {
		return sponsor.Sponsor{}, notFoundErr(err)
	}
	return sp, nil
}

func (s *Store) ListSponsorsByUser(ctx context.Context, userID string) ([]sponsor.Sponsor, error) {
	var sponsors []sponsor.Sponsor
	err := s.client.From(CollectionSponsors).
		Eq("user_id", userID).
		Order("created_at", false).
		Get(ctx, &sponsors)
	if err != nil {
		return nil, err
	}
	return sponsors, nil
}

// --- rwa listings ------------------------------------------------------------

func (s *Store) CreateListing(ctx context.Context, l rwa.Listing) (rwa.Listing, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	var out []rwa.Listing
	if err := s.client.From(CollectionRWA).Insert(ctx, []rwa.Listing{l}, &out); err != nil {
		return rwa.Listing{}, err
	}
	if len(out) > 0 {
		return out[0], nil
	}
	return l, nil
}

func (s *Store) GetListing(ctx context.Context, id string) (rwa.Listing, error) {
	var l rwa.Listing
	err := s.client.From(CollectionRWA).Eq("id", id).Single().Get(ctx, &l)
	if err != nil {
		return rwa.Listing{}, notFoundErr(err)
	}
	return l, nil
}

func (s *Store) ListListings(ctx context.Context, status rwa.Status, limit int) ([]rwa.Listing, error) {
	query := s.client.From(CollectionRWA)
	if status != "" {
		query = query.Eq("status", status)
	}
	query = query.Order("created_at", false)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var listings []rwa.Listing
	if err := query.Get(ctx, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// --- transactions ------------------------------------------------------------

func (s *Store) CreateTransaction(ctx context.Context, tx trade.Transaction) (trade.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}

	var out []trade.Transaction
	if err := s.client.From(CollectionTransactions).Insert(ctx, []trade.Transaction{tx}, &out); err != nil {
		return trade.Transaction{}, err
	}
	if len(out) > 0 {
		return out[0], nil
	}
	return tx, nil
}

func (s *Store) ListTransactionsByUser(ctx context.Context, userID string, limit int) ([]trade.Transaction, error) {
	query := s.client.From(CollectionTransactions).
		Eq("user_id", userID).
		Order("timestamp", false)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var txs []trade.Transaction
	if err := query.Get(ctx, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// --- users -------------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u camper.User) (camper.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	var out []camper.User
	if err := s.client.From(CollectionUsers).Insert(ctx, []camper.User{u}, &out); err != nil {
		return camper.User{}, err
	}
	if len(out) > 0 {
		return out[0], nil
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u camper.User) (camper.User, error) {
	u.UpdatedAt = time.Now().UTC()

	var out []camper.User
	err := s.client.From(CollectionUsers).Eq("id", u.ID).Update(ctx, u, &out)
	if err != nil {
		return camper.User{}, notFoundErr(err)
	}
	if len(out) == 0 {
		return camper.User{}, storage.ErrNotFound
	}
	return out[0], nil
}

func (s *Store) GetUser(ctx context.Context, id string) (camper.User, error) {
	var u camper.User
	err := s.client.From(CollectionUsers).Eq("id", id).Single().Get(ctx, &u)
	if err != nil {
		return camper.User{}, notFoundErr(err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]camper.User, error) {
	var users []camper.User
	err := s.client.From(CollectionUsers).Order("created_at", true).Get(ctx, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// MergeWalletAddress patches only the wallet_address field onto a user
// document, leaving every other field untouched.
func (s *Store) MergeWalletAddress(ctx context.Context, userID, address string) error {
	patch := map[string]any{
		"wallet_address": address,
		"updated_at":     time.Now().UTC(),
	}
	return s.client.From(CollectionUsers).Eq("id", userID).Update(ctx, patch, nil)
}
