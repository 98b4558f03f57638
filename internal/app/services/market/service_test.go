package market

import (
	"context"
	"strings"
	"testing"

	"github.com/camp-network/marketplace/internal/app/domain/agent"
	"github.com/camp-network/marketplace/internal/app/domain/trade"
	"github.com/camp-network/marketplace/internal/app/storage"
	"github.com/camp-network/marketplace/internal/app/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewService(store, nil), store
}

func seedAgent(t *testing.T, store *memory.Store, a agent.Agent) agent.Agent {
	t.Helper()
	if a.Status == "" {
		a.Status = agent.StatusActive
	}
	created, err := store.CreateAgent(context.Background(), a)
	if err != nil {
		t.Fatalf("seed agent: %v", err)
	}
	return created
}

func TestTrendingAgentsSortedByVolume(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	a2 := seedAgent(t, store, agent.Agent{Name: "Beta", Symbol: "BETA", Volume24h: "520000", IsTrending: true})
	a1 := seedAgent(t, store, agent.Agent{Name: "Alpha", Symbol: "ALPH", Volume24h: "850000", IsTrending: true})
	seedAgent(t, store, agent.Agent{Name: "Quiet", Symbol: "QUIT", Volume24h: "990000", IsTrending: false})

	got, err := service.TrendingAgents(ctx)
	if err != nil {
		t.Fatalf("TrendingAgents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != a1.ID || got[1].ID != a2.ID {
		t.Errorf("order = [%s %s], want [%s %s]", got[0].ID, got[1].ID, a1.ID, a2.ID)
	}
}

func TestTrendingAgentsLimit(t *testing.T) {
	service, store := newTestService(t)

	for i := 0; i < 12; i++ {
		seedAgent(t, store, agent.Agent{
			Name:       "Agent",
			Symbol:     "AGT",
			Volume24h:  "1000",
			IsTrending: true,
		})
	}

	got, err := service.TrendingAgents(context.Background())
	if err != nil {
		t.Fatalf("TrendingAgents: %v", err)
	}
	if len(got) != TrendingLimit {
		t.Errorf("len = %d, want %d", len(got), TrendingLimit)
	}
}

func TestSpotlightFallsBackToTopAgent(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	top := seedAgent(t, store, agent.Agent{Name: "Top", Symbol: "TOP", MarketCap: "900000"})
	seedAgent(t, store, agent.Agent{Name: "Small", Symbol: "SML", MarketCap: "100"})

	got, err := service.SpotlightAgent(ctx)
	if err != nil {
		t.Fatalf("SpotlightAgent: %v", err)
	}
	if got.ID != top.ID {
		t.Errorf("spotlight = %s, want fallback %s", got.ID, top.ID)
	}

	// A flagged agent takes precedence over the fallback.
	flagged := seedAgent(t, store, agent.Agent{Name: "Star", Symbol: "STAR", IsSpotlight: true})
	got, err = service.SpotlightAgent(ctx)
	if err != nil {
		t.Fatalf("SpotlightAgent: %v", err)
	}
	if got.ID != flagged.ID {
		t.Errorf("spotlight = %s, want flagged %s", got.ID, flagged.ID)
	}
}

func TestCreateAgentValidatesRevenueSplit(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.CreateAgent(ctx, CreateAgentInput{
		Name:         "Atlas",
		Symbol:       "ATLS",
		CreatorID:    "user-1",
		RevenueSplit: agent.RevenueSplit{Creator: 50, Holders: 30, Treasury: 15, Ecosystem: 10},
	})
	if err == nil || !strings.Contains(err.Error(), "revenue split") {
		t.Fatalf("err = %v, want revenue split rejection", err)
	}

	created, err := service.CreateAgent(ctx, CreateAgentInput{
		Name:         "Atlas",
		Symbol:       "ATLS",
		CreatorID:    "user-1",
		RevenueSplit: agent.RevenueSplit{Creator: 40, Holders: 30, Treasury: 20, Ecosystem: 10},
	})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	if created.CurrentPrice != agent.DefaultLaunchPrice {
		t.Errorf("price = %q, want %q", created.CurrentPrice, agent.DefaultLaunchPrice)
	}
	if created.Status != agent.StatusActive {
		t.Errorf("status = %q, want active", created.Status)
	}
}

func TestCreateAgentDefaultsSplit(t *testing.T) {
	service, _ := newTestService(t)

	created, err := service.CreateAgent(context.Background(), CreateAgentInput{
		Name:      "Nova",
		Symbol:    "NOVA",
		CreatorID: "user-1",
	})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	if created.RevenueSplit != agent.DefaultRevenueSplit {
		t.Errorf("split = %+v, want default", created.RevenueSplit)
	}
}

func TestBuyRecordsCompletedTransaction(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	a := seedAgent(t, store, agent.Agent{Name: "Atlas", Symbol: "ATLS", CurrentPrice: "24.50"})

	tx, err := service.Buy(ctx, "user-1", a.ID, "10")
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if tx.TotalValue != "245.00" {
		t.Errorf("total value = %q, want 245.00", tx.TotalValue)
	}
	if tx.Type != trade.TypeBuy || tx.Status != trade.StatusCompleted {
		t.Errorf("tx = %+v", tx)
	}
	if tx.Network != trade.DefaultNetwork {
		t.Errorf("network = %q, want %q", tx.Network, trade.DefaultNetwork)
	}
}

func TestTradeRejectsBadAmount(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	a := seedAgent(t, store, agent.Agent{Name: "Atlas", Symbol: "ATLS", CurrentPrice: "1.00"})

	for _, amount := range []string{"0", "-3", "ten", ""} {
		if _, err := service.Buy(ctx, "user-1", a.ID, amount); err == nil {
			t.Errorf("Buy(%q) accepted, want error", amount)
		}
	}
}

func TestTradeUnknownAgent(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Sell(context.Background(), "user-1", "missing", "5")
	if err != storage.ErrNotFound {
		t.Fatalf("err = %v, want storage.ErrNotFound", err)
	}
}

func TestPortfolioRecompute(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	a := seedAgent(t, store, agent.Agent{Name: "Atlas", Symbol: "ATLS", CurrentPrice: "10.00"})

	if _, err := service.Buy(ctx, "user-1", a.ID, "10"); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if _, err := service.Sell(ctx, "user-1", a.ID, "4"); err != nil {
		t.Fatalf("Sell: %v", err)
	}

	// Price doubles after the trades; unrealized gains follow the
	// remaining 6 tokens.
	a.CurrentPrice = "20.00"
	if _, err := store.UpdateAgent(ctx, a); err != nil {
		t.Fatalf("UpdateAgent: %v", err)
	}

	portfolio, err := service.Portfolio(ctx, "user-1")
	if err != nil {
		t.Fatalf("Portfolio: %v", err)
	}
	if len(portfolio.Holdings) != 1 {
		t.Fatalf("holdings = %d, want 1", len(portfolio.Holdings))
	}

	h := portfolio.Holdings[0]
	if h.TokenAmount != "6" {
		t.Errorf("tokens = %q, want 6", h.TokenAmount)
	}
	if h.TotalInvested != "60.00" {
		t.Errorf("invested = %q, want 60.00", h.TotalInvested)
	}
	if h.CurrentValue != "120.00" {
		t.Errorf("current value = %q, want 120.00", h.CurrentValue)
	}
	if h.UnrealizedPnL != "60.00" {
		t.Errorf("pnl = %q, want 60.00", h.UnrealizedPnL)
	}
	if portfolio.TotalValue != "120.00" || portfolio.TotalPnL != "60.00" {
		t.Errorf("portfolio totals = %+v", portfolio)
	}
}

func TestPortfolioEmptyForNewUser(t *testing.T) {
	service, _ := newTestService(t)

	portfolio, err := service.Portfolio(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Portfolio: %v", err)
	}
	if len(portfolio.Holdings) != 0 {
		t.Errorf("holdings = %d, want 0", len(portfolio.Holdings))
	}
	if portfolio.TotalValue != "0.00" {
		t.Errorf("total value = %q, want 0.00", portfolio.TotalValue)
	}
}

func TestRefreshTrendingInstallsServedShelf(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	seedAgent(t, store, agent.Agent{Name: "Alpha", Symbol: "ALPH", Volume24h: "850000", IsTrending: true})
	seedAgent(t, store, agent.Agent{Name: "Beta", Symbol: "BETA", Volume24h: "520000", IsTrending: true})

	if err := service.RefreshTrending(ctx); err != nil {
		t.Fatalf("RefreshTrending: %v", err)
	}

	// A store write after the refresh is invisible until the next cycle.
	seedAgent(t, store, agent.Agent{Name: "Gamma", Symbol: "GAMA", Volume24h: "990000", IsTrending: true})

	got, err := service.TrendingAgents(ctx)
	if err != nil {
		t.Fatalf("TrendingAgents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 from the refreshed shelf", len(got))
	}

	if err := service.RefreshTrending(ctx); err != nil {
		t.Fatalf("RefreshTrending: %v", err)
	}
	got, err = service.TrendingAgents(ctx)
	if err != nil {
		t.Fatalf("TrendingAgents: %v", err)
	}
	if len(got) != 3 || got[0].Symbol != "GAMA" {
		t.Errorf("shelf after second refresh = %+v, want GAMA first of 3", got)
	}
}
