// Package trade defines marketplace transactions and portfolio views.
package trade

import (
	"time"

	"github.com/camp-network/marketplace/internal/app/domain/agent"
)

// Type classifies a transaction.
type Type string

const (
	TypeBuy      Type = "buy"
	TypeSell     Type = "sell"
	TypeTransfer Type = "transfer"
	TypeRevenue  Type = "revenue"
	TypeBridge   Type = "bridge"
)

// Status tracks settlement state. Client-originated trades are recorded
// with StatusCompleted directly; there is no asynchronous settlement.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Transaction records a single marketplace operation. Amount, Price, and
// TotalValue are decimal strings; TotalValue is amount x price rounded to
// two decimals at creation time.
type Transaction struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	AgentID    string    `json:"agent_id"`
	Type       Type      `json:"type"`
	Amount     string    `json:"amount"`
	Price      string    `json:"price"`
	TotalValue string    `json:"total_value"`
	TxHash     string    `json:"transaction_hash,omitempty"`
	Status     Status    `json:"status"`
	Network    string    `json:"network"`
	Timestamp  time.Time `json:"timestamp"`
}

// Holding is one agent position inside a portfolio.
type Holding struct {
	AgentID         string      `json:"agent_id"`
	Agent           *agent.Agent `json:"agent,omitempty"`
	TokenAmount     string      `json:"token_amount"`
	AverageBuyPrice string      `json:"average_buy_price"`
	TotalInvested   string      `json:"total_invested"`
	CurrentValue    string      `json:"current_value"`
	UnrealizedPnL   string      `json:"unrealized_pnl"`
	UnrealizedPct   float64     `json:"unrealized_pnl_percent"`
}

// Portfolio aggregates a user's holdings. It is recomputed wholesale on
// each fetch, never incrementally maintained.
type Portfolio struct {
	UserID        string    `json:"user_id"`
	Holdings      []Holding `json:"holdings"`
	TotalValue    string    `json:"total_value"`
	TotalInvested string    `json:"total_invested"`
	TotalPnL      string    `json:"total_pnl"`
	TotalPnLPct   float64   `json:"total_pnl_percent"`
	LastUpdated   time.Time `json:"last_updated"`
}

// DefaultNetwork is stamped on client-originated transactions.
const DefaultNetwork = "base"
