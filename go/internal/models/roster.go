package models

import (
	"time"

	"github.com/google/uuid"
)

// RosterSlot represents the slot a player occupies on a roster.
type RosterSlot string

const (
	RosterSlotStarter RosterSlot = "STARTER"
	RosterSlotBench   RosterSlot = "BENCH"
	RosterSlotIR      RosterSlot = "IR"
)

// AcquisitionType represents how a player was acquired.
type AcquisitionType string

const (
	AcquisitionTypeAuction   AcquisitionType = "AUCTION"
	AcquisitionTypeWaiver    AcquisitionType = "WAIVER"
	AcquisitionTypeTrade     AcquisitionType = "TRADE"
	AcquisitionTypeFreeAgent AcquisitionType = "FREE_AGENT"
)

// Roster is one rostered-player row. Auction sales always land on the
// bench; lineup moves happen outside the auction.
type Roster struct {
	ID              uuid.UUID       `json:"id"`
	FantasyTeamID   uuid.UUID       `json:"fantasy_team_id"`
	PlayerID        uuid.UUID       `json:"player_id"`
	LeagueID        uuid.UUID       `json:"league_id"`
	Slot            RosterSlot      `json:"slot"`
	Position        string          `json:"position"`
	Year            int             `json:"year"`
	Week            int             `json:"week"`
	AcquisitionType AcquisitionType `json:"acquisition_type"`
	AcquiredAt      time.Time       `json:"acquired_at"`
}
