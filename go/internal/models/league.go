package models

import (
	"time"

	"github.com/google/uuid"
)

type LeagueStatus string

const (
	LeagueStatusPending   LeagueStatus = "PENDING"
	LeagueStatusActive    LeagueStatus = "ACTIVE"
	LeagueStatusCompleted LeagueStatus = "COMPLETED"
	LeagueStatusCancelled LeagueStatus = "CANCELLED"
)

// AuctionSettings holds JSONB auction configuration for a league.
type AuctionSettings struct {
	CapBudget          int            `json:"cap_budget"`
	SlotLimits         map[string]int `json:"slot_limits"` // position category -> max roster slots
	BidTimerSec        int            `json:"bid_timer_sec"`
	NominationTimerSec int            `json:"nomination_timer_sec"`
	SlowMode           bool           `json:"slow_mode"`
	PauseOnDisconnect  bool           `json:"pause_on_disconnect"`
	DraftOrder         []uuid.UUID    `json:"draft_order,omitempty"`
	MinBidIncrement    int            `json:"min_bid_increment,omitempty"`
}

// League represents a fantasy sports league for one season.
// Immutable for the lifetime of an auction session; re-fetched at setup.
type League struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	SportID         string          `json:"sport_id"`
	CommissionerID  uuid.UUID       `json:"commissioner_id"`
	TeamCount       int             `json:"team_count"`
	AuctionSettings AuctionSettings `json:"auction_settings"`
	Status          LeagueStatus    `json:"league_status"`
	Season          int             `json:"season"`
	AuctionEndedAt  *time.Time      `json:"auction_ended_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SlotLimit returns the roster-slot limit for a position category,
// or 0 when the category is not configured.
func (l *League) SlotLimit(category string) int {
	return l.AuctionSettings.SlotLimits[category]
}

// TotalSlots is the sum of all configured slot limits.
func (l *League) TotalSlots() int {
	total := 0
	for _, n := range l.AuctionSettings.SlotLimits {
		total += n
	}
	return total
}
