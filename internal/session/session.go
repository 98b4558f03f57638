// Package session holds per-client marketplace state: the signed-in
// user, the cached agent list, and the user's portfolio and transaction
// history. Each Session is constructed for one owner; nothing here is a
// process-wide singleton.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/camp-network/marketplace/internal/analytics"
	"github.com/camp-network/marketplace/internal/app/domain/agent"
	"github.com/camp-network/marketplace/internal/app/domain/camper"
	"github.com/camp-network/marketplace/internal/app/domain/trade"
	"github.com/camp-network/marketplace/internal/app/services/market"
	"github.com/camp-network/marketplace/internal/app/storage"
	"github.com/camp-network/marketplace/pkg/logger"
)

// Market is the slice of the market service the session drives.
type Market interface {
	ListAgents(ctx context.Context, q storage.AgentQuery) ([]agent.Agent, error)
	CreateAgent(ctx context.Context, input market.CreateAgentInput) (agent.Agent, error)
	Buy(ctx context.Context, userID, agentID, amount string) (trade.Transaction, error)
	Sell(ctx context.Context, userID, agentID, amount string) (trade.Transaction, error)
	Transactions(ctx context.Context, userID string, limit int) ([]trade.Transaction, error)
	Portfolio(ctx context.Context, userID string) (trade.Portfolio, error)
}

// UserLookup resolves a profile for an authenticated user id.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (camper.User, error)
}

// list identifies one fenced list in the session.
type list int

const (
	listAgents list = iota
	listPortfolio
	listTransactions
	listCount
)

// Session is a mutable state container. All mutations go through its
// methods; snapshots returned to callers are copies.
//
// Overlapping fetches of the same list are fenced: each fetch takes a
// sequence number and only the latest one may commit, so a slow stale
// response can never overwrite a fresher list.
type Session struct {
	market  Market
	users   UserLookup
	log     *logger.Logger
	tracker *analytics.Tracker

	mu           sync.Mutex
	user         *camper.User
	agents       []agent.Agent
	selected     *agent.Agent
	portfolio    *trade.Portfolio
	transactions []trade.Transaction
	loading      [listCount]bool
	seq          [listCount]uint64
}

// New creates an empty session.
func New(m Market, users UserLookup, log *logger.Logger) *Session {
	if log == nil {
		log = logger.NewDefault("session")
	}
	return &Session{market: m, users: users, log: log}
}

// SetTracker attaches a usage tracker. A nil tracker disables tracking.
func (s *Session) SetTracker(t *analytics.Tracker) {
	s.mu.Lock()
	s.tracker = t
	s.mu.Unlock()
}

func (s *Session) track(name string, properties map[string]any) {
	s.mu.Lock()
	t := s.tracker
	s.mu.Unlock()
	if t != nil {
		t.Track(name, properties)
	}
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	User         *camper.User
	Agents       []agent.Agent
	Selected     *agent.Agent
	Portfolio    *trade.Portfolio
	Transactions []trade.Transaction
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Agents:       append([]agent.Agent(nil), s.agents...),
		Transactions: append([]trade.Transaction(nil), s.transactions...),
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	if s.portfolio != nil {
		p := *s.portfolio
		snap.Portfolio = &p
	}
	if s.selected != nil {
		a := *s.selected
		snap.Selected = &a
	}
	return snap
}

// SelectAgent marks an agent as the one under detail view. A nil-result
// id clears the selection.
func (s *Session) SelectAgent(a *agent.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a == nil {
		s.selected = nil
		return
	}
	copied := *a
	s.selected = &copied
}

// SelectedAgent returns the agent under detail view, or nil.
func (s *Session) SelectedAgent() *agent.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	a := *s.selected
	return &a
}

// Loading reports whether a fetch for the given list is in flight.
func (s *Session) LoadingAgents() bool       { return s.isLoading(listAgents) }
func (s *Session) LoadingPortfolio() bool    { return s.isLoading(listPortfolio) }
func (s *Session) LoadingTransactions() bool { return s.isLoading(listTransactions) }

func (s *Session) isLoading(l list) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading[l]
}

// Login resolves the user's profile and installs it as the session
// user. Portfolio and transactions start empty until fetched.
func (s *Session) Login(ctx context.Context, userID string) (camper.User, error) {
	if userID == "" {
		return camper.User{}, fmt.Errorf("user id is required")
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return camper.User{}, err
	}

	s.mu.Lock()
	s.user = &user
	s.portfolio = nil
	s.transactions = nil
	s.mu.Unlock()

	s.mu.Lock()
	t := s.tracker
	s.mu.Unlock()
	if t != nil {
		t.Identify(user.ID)
		t.Track("login", nil)
	}

	s.log.WithField("user_id", user.ID).Info("session started")
	return user, nil
}

// Logout clears the user and all user-scoped lists. The agent list is
// shared marketplace data and survives.
func (s *Session) Logout() {
	s.mu.Lock()
	s.user = nil
	s.portfolio = nil
	s.transactions = nil
	t := s.tracker
	s.mu.Unlock()

	if t != nil {
		t.Track("logout", nil)
		t.Identify("")
	}
}

// User returns the session user, or nil.
func (s *Session) User() *camper.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// begin opens a fenced fetch and returns its sequence number.
func (s *Session) begin(l list) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[l]++
	s.loading[l] = true
	return s.seq[l]
}

// finish closes a fenced fetch; apply runs only if this fetch is still
// the latest one issued for the list. The loading flag clears either
// way, including on error paths.
func (s *Session) finish(l list, token uint64, apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq[l] != token {
		return false
	}
	s.loading[l] = false
	if apply != nil {
		apply()
	}
	return true
}

// FetchAgents refreshes the cached agent list.
func (s *Session) FetchAgents(ctx context.Context) error {
	token := s.begin(listAgents)

	agents, err := s.market.ListAgents(ctx, storage.AgentQuery{})
	if err != nil {
		s.finish(listAgents, token, nil)
		return err
	}

	s.finish(listAgents, token, func() { s.agents = agents })
	return nil
}

// FetchPortfolio refreshes the session user's portfolio.
func (s *Session) FetchPortfolio(ctx context.Context) error {
	user := s.User()
	if user == nil {
		return fmt.Errorf("not signed in")
	}
	token := s.begin(listPortfolio)

	portfolio, err := s.market.Portfolio(ctx, user.ID)
	if err != nil {
		s.finish(listPortfolio, token, nil)
		return err
	}

	s.finish(listPortfolio, token, func() { s.portfolio = &portfolio })
	return nil
}

// FetchTransactions refreshes the session user's transaction history.
func (s *Session) FetchTransactions(ctx context.Context) error {
	user := s.User()
	if user == nil {
		return fmt.Errorf("not signed in")
	}
	token := s.begin(listTransactions)

	txs, err := s.market.Transactions(ctx, user.ID, 0)
	if err != nil {
		s.finish(listTransactions, token, nil)
		return err
	}

	s.finish(listTransactions, token, func() { s.transactions = txs })
	return nil
}

// CreateAgent launches an agent in the session user's name and prepends
// it to the cached list.
func (s *Session) CreateAgent(ctx context.Context, input market.CreateAgentInput) (agent.Agent, error) {
	user := s.User()
	if user == nil {
		return agent.Agent{}, fmt.Errorf("not signed in")
	}
	input.CreatorID = user.ID
	if input.CreatorName == "" {
		input.CreatorName = user.Username
	}

	created, err := s.market.CreateAgent(ctx, input)
	if err != nil {
		return agent.Agent{}, err
	}

	s.mu.Lock()
	s.agents = append([]agent.Agent{created}, s.agents...)
	s.mu.Unlock()

	s.track("agent_created", map[string]any{"agent_id": created.ID, "symbol": created.Symbol})
	return created, nil
}

// BuyAgent records a buy and prepends the resulting transaction.
func (s *Session) BuyAgent(ctx context.Context, agentID, amount string) (trade.Transaction, error) {
	return s.trade(ctx, trade.TypeBuy, agentID, amount)
}

// SellAgent records a sell and prepends the resulting transaction.
func (s *Session) SellAgent(ctx context.Context, agentID, amount string) (trade.Transaction, error) {
	return s.trade(ctx, trade.TypeSell, agentID, amount)
}

func (s *Session) trade(ctx context.Context, kind trade.Type, agentID, amount string) (trade.Transaction, error) {
	user := s.User()
	if user == nil {
		return trade.Transaction{}, fmt.Errorf("not signed in")
	}

	var (
		tx  trade.Transaction
		err error
	)
	switch kind {
	case trade.TypeBuy:
		tx, err = s.market.Buy(ctx, user.ID, agentID, amount)
	case trade.TypeSell:
		tx, err = s.market.Sell(ctx, user.ID, agentID, amount)
	default:
		return trade.Transaction{}, fmt.Errorf("unsupported trade type %q", kind)
	}
	if err != nil {
		return trade.Transaction{}, err
	}

	s.mu.Lock()
	s.transactions = append([]trade.Transaction{tx}, s.transactions...)
	s.mu.Unlock()

	s.track("trade_executed", map[string]any{
		"agent_id": agentID,
		"type":     string(kind),
		"total":    tx.TotalValue,
	})
	return tx, nil
}
