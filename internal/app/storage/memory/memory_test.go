package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/camp-network/marketplace/internal/app/domain/agent"
	"github.com/camp-network/marketplace/internal/app/domain/trade"
	"github.com/camp-network/marketplace/internal/app/storage"
)

func TestCreateAgentStampsIDAndTimestamps(t *testing.T) {
	s := New()

	created, err := s.CreateAgent(context.Background(), agent.Agent{Name: "X", Symbol: "X"})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Errorf("record not stamped: %+v", created)
	}

	got, err := s.GetAgent(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetAgent: %v", err)
	}
	if got.Name != "X" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestGetAgentNotFound(t *testing.T) {
	s := New()
	if _, err := s.GetAgent(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListAgentsSortsByVolumeNumerically(t *testing.T) {
	s := New()
	ctx := context.Background()

	// String compare would put "900" above "85000"; the sort must be
	// numeric.
	for _, a := range []agent.Agent{
		{Name: "A", Symbol: "A", Status: agent.StatusActive, Volume24h: "900"},
		{Name: "B", Symbol: "B", Status: agent.StatusActive, Volume24h: "85000"},
		{Name: "C", Symbol: "C", Status: agent.StatusActive, Volume24h: "12000"},
	} {
		if _, err := s.CreateAgent(ctx, a); err != nil {
			t.Fatalf("CreateAgent: %v", err)
		}
	}

	got, err := s.ListAgents(ctx, storage.AgentQuery{SortBy: agent.SortVolume})
	if err != nil {
		t.Fatalf("ListAgents: %v", err)
	}
	want := []string{"B", "C", "A"}
	for i, symbol := range want {
		if got[i].Symbol != symbol {
			t.Errorf("got[%d] = %q, want %q", i, got[i].Symbol, symbol)
		}
	}
}

func TestListAgentsTrendingOnlyAndLimit(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		a := agent.Agent{Name: "T", Symbol: "T", Status: agent.StatusActive, IsTrending: i%2 == 0}
		if _, err := s.CreateAgent(ctx, a); err != nil {
			t.Fatalf("CreateAgent: %v", err)
		}
	}

	got, err := s.ListAgents(ctx, storage.AgentQuery{TrendingOnly: true, Limit: 2})
	if err != nil {
		t.Fatalf("ListAgents: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	for _, a := range got {
		if !a.IsTrending {
			t.Errorf("non-trending agent returned: %+v", a)
		}
	}
}

func TestSpotlightFallsBackToErrNotFound(t *testing.T) {
	s := New()
	if _, err := s.GetSpotlightAgent(context.Background()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateAgentMissingReturnsNotFound(t *testing.T) {
	s := New()
	if _, err := s.UpdateAgent(context.Background(), agent.Agent{ID: "missing"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTransactionsScopedToUser(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, userID := range []string{"u1", "u1", "u2"} {
		if _, err := s.CreateTransaction(ctx, trade.Transaction{UserID: userID, Type: trade.TypeBuy}); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	txs, err := s.ListTransactionsByUser(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListTransactionsByUser: %v", err)
	}
	if len(txs) != 2 {
		t.Errorf("len = %d, want 2", len(txs))
	}
}
