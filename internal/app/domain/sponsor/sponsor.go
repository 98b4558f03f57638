// Package sponsor defines scholarship sponsorship records.
package sponsor

import "time"

// Status tracks a sponsorship along pending -> active -> completed.
// Transitions are written by external callers; the service only validates
// that a status is one of the known values.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Known reports whether s is a recognized status value.
func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted:
		return true
	}
	return false
}

// Sponsor is a user funding a camper's scholarship slot.
type Sponsor struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	WalletAddress string    `json:"wallet_address,omitempty"`
	CamperID      string    `json:"camper_id,omitempty"`
	Amount        float64   `json:"amount"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}
