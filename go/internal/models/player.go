package models

import (
	"time"

	"github.com/google/uuid"
)

// Player represents a sports player available to be nominated.
type Player struct {
	ID         uuid.UUID `json:"id"`
	SportID    string    `json:"sport_id"`
	ExternalID string    `json:"external_id"`
	FullName   string    `json:"full_name"`
	Position   string    `json:"position"` // 'C', 'LW', 'D', 'G', etc.
	Category   string    `json:"category"` // roster-slot category the position counts against
	CreatedAt  time.Time `json:"created_at"`
}
