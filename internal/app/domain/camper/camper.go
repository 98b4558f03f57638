// Package camper defines platform participants and their gamified profile.
package camper

import "time"

// Rank is the display-only tier ladder. There is no promotion logic; ranks
// are written by the backend and rendered as-is.
type Rank string

const (
	RankBronze   Rank = "bronze"
	RankSilver   Rank = "silver"
	RankGold     Rank = "gold"
	RankPlatinum Rank = "platinum"
	RankDiamond  Rank = "diamond"
)

// Role describes what a camper primarily does on the platform.
type Role string

const (
	RoleBuilder    Role = "builder"
	RoleResearcher Role = "researcher"
	RoleMentor     Role = "mentor"
	RoleTrader     Role = "trader"
	RoleCommunity  Role = "community"
)

// Status represents the review state of a scholarship camper profile.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusActive   Status = "active"
)

// CollaborationMetrics summarizes a camper's collaboration history.
type CollaborationMetrics struct {
	Score             int `json:"score"` // 0-100
	ProjectsCompleted int `json:"projects_completed"`
	PartnersCount     int `json:"partners_count"`
	ActiveCollabs     int `json:"active_collabs"`
}

// User is an authenticated platform member.
type User struct {
	ID            string               `json:"id"`
	Email         string               `json:"email"`
	Username      string               `json:"username"`
	FullName      string               `json:"full_name"`
	AvatarURL     string               `json:"avatar_url,omitempty"`
	WalletAddress string               `json:"wallet_address,omitempty"`
	Bio           string               `json:"bio,omitempty"`
	Role          Role                 `json:"camp_role"`
	Rank          Rank                 `json:"camp_rank"`
	Collaboration CollaborationMetrics `json:"collaboration_metrics"`
	ProjectsBuilt int                  `json:"projects_built"`
	TechBadges    []string             `json:"tech_badges"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// Camper is a scholarship participant eligible for sponsorship.
type Camper struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Age                 int       `json:"age"`
	Bio                 string    `json:"bio"`
	AvatarURL           string    `json:"avatar"`
	ImpactArea          string    `json:"impact_area"`
	HeroProgram         bool      `json:"hero_program"`
	Skills              []string  `json:"skills"`
	SponsorshipGoal     float64   `json:"sponsorship_goal"`
	SponsorshipReceived float64   `json:"sponsorship_received"`
	Status              Status    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
}
