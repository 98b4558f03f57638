// Package market implements agent listing, launch, and trading logic.
package market

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/camp-network/marketplace/internal/app/domain/agent"
	"github.com/camp-network/marketplace/internal/app/domain/trade"
	"github.com/camp-network/marketplace/internal/app/storage"
	"github.com/camp-network/marketplace/pkg/logger"
)

const (
	// DefaultListLimit caps agent listings.
	DefaultListLimit = 20
	// TrendingLimit caps the trending shelf.
	TrendingLimit = 8
)

// Service exposes marketplace operations over a backing store.
type Service struct {
	store storage.Store
	log   *logger.Logger

	trendingMu sync.RWMutex
	trending   []agent.Agent
	trendingOK bool
}

// NewService creates the market service.
func NewService(store storage.Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("market")
	}
	return &Service{store: store, log: log}
}

// ListAgents returns active agents ordered by q.SortBy. Zero-value query
// fields fall back to active status, market-cap ordering, and the
// default limit.
func (s *Service) ListAgents(ctx context.Context, q storage.AgentQuery) ([]agent.Agent, error) {
	if q.Status == "" {
		q.Status = agent.StatusActive
	}
	if q.SortBy == "" {
		q.SortBy = agent.SortMarketCap
	}
	if q.Limit <= 0 || q.Limit > DefaultListLimit {
		q.Limit = DefaultListLimit
	}
	return s.store.ListAgents(ctx, q)
}

// TrendingAgents returns the trending shelf: flagged agents by 24h
// volume, descending, capped at TrendingLimit. When a refresh cycle has
// populated the cache the cached shelf is served; otherwise the store
// is queried directly.
func (s *Service) TrendingAgents(ctx context.Context) ([]agent.Agent, error) {
	s.trendingMu.RLock()
	if s.trendingOK {
		cached := append([]agent.Agent(nil), s.trending...)
		s.trendingMu.RUnlock()
		return cached, nil
	}
	s.trendingMu.RUnlock()

	return s.queryTrending(ctx)
}

// RefreshTrending re-reads the trending shelf from the store and
// installs it as the served copy. The refresher and the realtime change
// feed both drive this.
func (s *Service) RefreshTrending(ctx context.Context) error {
	agents, err := s.queryTrending(ctx)
	if err != nil {
		return err
	}

	s.trendingMu.Lock()
	s.trending = agents
	s.trendingOK = true
	s.trendingMu.Unlock()

	s.log.WithField("count", len(agents)).Debug("trending shelf refreshed")
	return nil
}

func (s *Service) queryTrending(ctx context.Context) ([]agent.Agent, error) {
	return s.store.ListAgents(ctx, storage.AgentQuery{
		Status:       agent.StatusActive,
		SortBy:       agent.SortVolume,
		TrendingOnly: true,
		Limit:        TrendingLimit,
	})
}

// SpotlightAgent returns the flagged spotlight agent, falling back to
// the top active agent when none is flagged.
func (s *Service) SpotlightAgent(ctx context.Context) (agent.Agent, error) {
	spotlight, err := s.store.GetSpotlightAgent(ctx)
	if err == nil {
		return spotlight, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return agent.Agent{}, err
	}

	agents, err := s.store.ListAgents(ctx, storage.AgentQuery{
		Status: agent.StatusActive,
		SortBy: agent.SortMarketCap,
		Limit:  1,
	})
	if err != nil {
		return agent.Agent{}, err
	}
	if len(agents) == 0 {
		return agent.Agent{}, storage.ErrNotFound
	}
	return agents[0], nil
}

// GetAgent fetches one agent by id.
func (s *Service) GetAgent(ctx context.Context, id string) (agent.Agent, error) {
	if id == "" {
		return agent.Agent{}, fmt.Errorf("agent id is required")
	}
	return s.store.GetAgent(ctx, id)
}

// CreateAgentInput is the launch form payload.
type CreateAgentInput struct {
	Name         string             `json:"name"`
	Symbol       string             `json:"symbol"`
	Description  string             `json:"description"`
	Category     agent.Category     `json:"category"`
	AvatarURL    string             `json:"avatar_url"`
	CreatorID    string             `json:"creator_id"`
	CreatorName  string             `json:"creator_name"`
	RevenueSplit agent.RevenueSplit `json:"revenue_split"`
	WebsiteURL   string             `json:"website_url"`
	GithubURL    string             `json:"github_url"`
}

// CreateAgent launches a new agent listing with placeholder market
// fields. The revenue split must sum to exactly 100; the check lives
// here so every entry path shares it, not only the form.
func (s *Service) CreateAgent(ctx context.Context, input CreateAgentInput) (agent.Agent, error) {
	if input.Name == "" {
		return agent.Agent{}, fmt.Errorf("name is required")
	}
	if input.Symbol == "" {
		return agent.Agent{}, fmt.Errorf("symbol is required")
	}
	if input.CreatorID == "" {
		return agent.Agent{}, fmt.Errorf("creator id is required")
	}
	split := input.RevenueSplit
	if split == (agent.RevenueSplit{}) {
		split = agent.DefaultRevenueSplit
	}
	if total := split.Total(); total != 100 {
		return agent.Agent{}, fmt.Errorf("revenue split must total 100, got %d", total)
	}

	created, err := s.store.CreateAgent(ctx, agent.Agent{
		Name:         input.Name,
		Symbol:       input.Symbol,
		Description:  input.Description,
		Category:     input.Category,
		AvatarURL:    input.AvatarURL,
		CreatorID:    input.CreatorID,
		CreatorName:  input.CreatorName,
		Status:       agent.StatusActive,
		TotalSupply:  agent.DefaultTotalSupply,
		CurrentPrice: agent.DefaultLaunchPrice,
		MarketCap:    "0",
		Volume24h:    "0",
		TotalRevenue: "0",
		RevenueSplit: split,
		WebsiteURL:   input.WebsiteURL,
		GithubURL:    input.GithubURL,
	})
	if err != nil {
		return agent.Agent{}, err
	}

	s.log.WithField("agent_id", created.ID).WithField("symbol", created.Symbol).Info("agent launched")
	return created, nil
}

// Buy records a completed buy of amount tokens at the agent's current
// price. Holdings and supply are not adjusted; the portfolio is derived
// from the transaction log.
func (s *Service) Buy(ctx context.Context, userID, agentID, amount string) (trade.Transaction, error) {
	return s.trade(ctx, trade.TypeBuy, userID, agentID, amount)
}

// Sell records a completed sell of amount tokens at the agent's current
// price.
func (s *Service) Sell(ctx context.Context, userID, agentID, amount string) (trade.Transaction, error) {
	return s.trade(ctx, trade.TypeSell, userID, agentID, amount)
}

func (s *Service) trade(ctx context.Context, kind trade.Type, userID, agentID, amount string) (trade.Transaction, error) {
	if userID == "" {
		return trade.Transaction{}, fmt.Errorf("user id is required")
	}
	qty, err := strconv.ParseFloat(amount, 64)
	if err != nil || qty <= 0 {
		return trade.Transaction{}, fmt.Errorf("amount must be a positive number")
	}

	a, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return trade.Transaction{}, err
	}
	price, err := strconv.ParseFloat(a.CurrentPrice, 64)
	if err != nil {
		return trade.Transaction{}, fmt.Errorf("agent %s has invalid price %q", agentID, a.CurrentPrice)
	}

	tx, err := s.store.CreateTransaction(ctx, trade.Transaction{
		UserID:     userID,
		AgentID:    agentID,
		Type:       kind,
		Amount:     amount,
		Price:      a.CurrentPrice,
		TotalValue: fmt.Sprintf("%.2f", qty*price),
		Status:     trade.StatusCompleted,
		Network:    trade.DefaultNetwork,
	})
	if err != nil {
		return trade.Transaction{}, err
	}

	s.log.WithField("type", kind).
		WithField("agent_id", agentID).
		WithField("total_value", tx.TotalValue).
		Info("trade recorded")
	return tx, nil
}

// Transactions returns the user's transaction history, newest first.
func (s *Service) Transactions(ctx context.Context, userID string, limit int) ([]trade.Transaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return s.store.ListTransactionsByUser(ctx, userID, limit)
}

// Portfolio rebuilds the user's holdings wholesale from the transaction
// log and current agent prices. Nothing is maintained incrementally.
func (s *Service) Portfolio(ctx context.Context, userID string) (trade.Portfolio, error) {
	if userID == "" {
		return trade.Portfolio{}, fmt.Errorf("user id is required")
	}

	txs, err := s.store.ListTransactionsByUser(ctx, userID, 0)
	if err != nil {
		return trade.Portfolio{}, err
	}
	// Replay oldest first so cost basis accumulates in trade order.
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Timestamp.Before(txs[j].Timestamp) })

	type position struct {
		tokens   float64
		invested float64
	}
	positions := make(map[string]*position)
	var order []string

	for _, tx := range txs {
		qty, err := strconv.ParseFloat(tx.Amount, 64)
		if err != nil {
			continue
		}
		pos := positions[tx.AgentID]
		if pos == nil {
			pos = &position{}
			positions[tx.AgentID] = pos
			order = append(order, tx.AgentID)
		}
		switch tx.Type {
		case trade.TypeBuy:
			total, _ := strconv.ParseFloat(tx.TotalValue, 64)
			pos.tokens += qty
			pos.invested += total
		case trade.TypeSell:
			if pos.tokens > 0 {
				// Selling releases cost basis proportionally.
				pos.invested -= pos.invested * (qty / pos.tokens)
			}
			pos.tokens -= qty
			if pos.tokens < 0 {
				pos.tokens = 0
			}
			if pos.invested < 0 {
				pos.invested = 0
			}
		}
	}

	portfolio := trade.Portfolio{
		UserID:      userID,
		Holdings:    []trade.Holding{},
		LastUpdated: time.Now().UTC(),
	}
	var totalValue, totalInvested float64

	for _, agentID := range order {
		pos := positions[agentID]
		if pos.tokens <= 0 {
			continue
		}

		a, err := s.store.GetAgent(ctx, agentID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return trade.Portfolio{}, err
		}
		price, _ := strconv.ParseFloat(a.CurrentPrice, 64)

		currentValue := pos.tokens * price
		pnl := currentValue - pos.invested
		holding := trade.Holding{
			AgentID:       agentID,
			Agent:         &a,
			TokenAmount:   strconv.FormatFloat(pos.tokens, 'f', -1, 64),
			TotalInvested: fmt.Sprintf("%.2f", pos.invested),
			CurrentValue:  fmt.Sprintf("%.2f", currentValue),
			UnrealizedPnL: fmt.Sprintf("%.2f", pnl),
		}
		if pos.tokens > 0 {
			holding.AverageBuyPrice = fmt.Sprintf("%.2f", pos.invested/pos.tokens)
		}
		if pos.invested > 0 {
			holding.UnrealizedPct = pnl / pos.invested * 100
		}
		portfolio.Holdings = append(portfolio.Holdings, holding)

		totalValue += currentValue
		totalInvested += pos.invested
	}

	portfolio.TotalValue = fmt.Sprintf("%.2f", totalValue)
	portfolio.TotalInvested = fmt.Sprintf("%.2f", totalInvested)
	portfolio.TotalPnL = fmt.Sprintf("%.2f", totalValue-totalInvested)
	if totalInvested > 0 {
		portfolio.TotalPnLPct = (totalValue - totalInvested) / totalInvested * 100
	}
	return portfolio, nil
}
