// Package agent defines the tokenized AI-agent listing traded on the marketplace.
package agent

import "time"

// Status represents the lifecycle state of an agent listing.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusSuspended Status = "suspended"
	StatusDelisted  Status = "delisted"
)

// Category groups agents by the kind of work they perform.
type Category string

const (
	CategoryFinance    Category = "Finance"
	CategoryTrading    Category = "Trading"
	CategoryHealthcare Category = "Healthcare"
	CategoryLogistics  Category = "Logistics"
	CategoryLegal      Category = "Legal"
	CategoryCreative   Category = "Creative"
	CategoryMarketing  Category = "Marketing"
	CategoryService    Category = "Service"
)

// RevenueSplit is the four-way percentage split applied to agent revenue.
// The shares are expected to sum to exactly 100; Validate enforces it at
// the service boundary.
type RevenueSplit struct {
	Creator   int `json:"creator"`
	Holders   int `json:"holders"`
	Treasury  int `json:"treasury"`
	Ecosystem int `json:"ecosystem"`
}

// Total returns the sum of the four shares.
func (s RevenueSplit) Total() int {
	return s.Creator + s.Holders + s.Treasury + s.Ecosystem
}

// Agent is a tokenized AI-persona listing with market metrics. Monetary
// fields are decimal strings cached for display; derived values are
// recomputed at read time rather than stored.
type Agent struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Symbol         string       `json:"symbol"`
	Description    string       `json:"description"`
	Category       Category     `json:"category"`
	AvatarURL      string       `json:"avatar_url,omitempty"`
	CreatorID      string       `json:"creator_id"`
	CreatorName    string       `json:"creator_name,omitempty"`
	Status         Status       `json:"status"`
	IsTrending     bool         `json:"is_trending"`
	IsSpotlight    bool         `json:"is_spotlight"`
	ContractAddr   string       `json:"contract_address,omitempty"`
	TokenAddr      string       `json:"token_address,omitempty"`
	TotalSupply    string       `json:"total_supply,omitempty"`
	CurrentPrice   string       `json:"current_price"`   // decimal string, e.g. "24.50"
	PriceChange24h float64      `json:"price_change_24h"` // percent
	MarketCap      string       `json:"market_cap"`
	Volume24h      string       `json:"volume_24h"`
	TotalRevenue   string       `json:"total_revenue"`
	HoldersCount   int          `json:"holders_count"`
	TxCount        int          `json:"transactions_count"`
	RevenueSplit   RevenueSplit `json:"revenue_split"`
	WebsiteURL     string       `json:"website_url,omitempty"`
	GithubURL      string       `json:"github_url,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// SortKey selects the ordering applied when listing agents.
type SortKey string

const (
	SortMarketCap   SortKey = "market_cap"
	SortVolume      SortKey = "volume_24h"
	SortHolders     SortKey = "holders"
	SortPriceChange SortKey = "price_change_24h"
	SortNewest      SortKey = "newest"
)

// Defaults applied to newly launched agents.
const (
	DefaultLaunchPrice = "1.00"
	DefaultTotalSupply = "1000000"
)

// DefaultRevenueSplit is the split suggested by the launch form.
var DefaultRevenueSplit = RevenueSplit{Creator: 40, Holders: 30, Treasury: 20, Ecosystem: 10}
