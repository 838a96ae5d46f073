package models

import (
	"time"

	"github.com/google/uuid"
)

// FantasyTeam is a per-league-per-season entity. Remaining cap and open
// roster slots are derived fields owned by the auction session's team
// cache; the persisted record remains authoritative and is updated on
// every completed sale.
type FantasyTeam struct {
	ID            uuid.UUID `json:"id"`
	LeagueID      uuid.UUID `json:"league_id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Name          string    `json:"name"`
	LogoURL       string    `json:"logo_url"`
	DraftPosition int       `json:"draft_position"`
	CreatedAt     time.Time `json:"created_at"`
}
