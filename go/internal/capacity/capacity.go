package capacity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/auctionhouse/go/internal/ledger"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// Snapshot is a team's derived auction capacity: remaining cap budget
// and open roster slots per position category. Computed once at session
// setup, then mutated incrementally in memory as sales complete.
type Snapshot struct {
	TeamID       uuid.UUID      `json:"team_id"`
	RemainingCap int            `json:"remaining_cap"`
	OpenSlots    map[string]int `json:"open_slots"`
}

// TotalOpenSlots sums open slots across all categories.
func (s *Snapshot) TotalOpenSlots() int {
	total := 0
	for _, n := range s.OpenSlots {
		total += n
	}
	return total
}

// HasOpenSlot reports whether the team can roster a player in the
// given position category.
func (s *Snapshot) HasOpenSlot(category string) bool {
	return s.OpenSlots[category] > 0
}

// Clone returns a deep copy so the session can mutate its cache
// without aliasing.
func (s *Snapshot) Clone() *Snapshot {
	slots := make(map[string]int, len(s.OpenSlots))
	for k, v := range s.OpenSlots {
		slots[k] = v
	}
	return &Snapshot{TeamID: s.TeamID, RemainingCap: s.RemainingCap, OpenSlots: slots}
}

// Model computes team capacity from the shared state store.
type Model struct {
	repo ledger.Repository
}

// NewModel creates a capacity model over the given store.
func NewModel(repo ledger.Repository) *Model {
	return &Model{repo: repo}
}

// TeamSnapshot derives a team's remaining cap and open slots for the
// league's season.
func (m *Model) TeamSnapshot(ctx context.Context, league *models.League, teamID uuid.UUID) (*Snapshot, error) {
	remaining, err := m.repo.GetTeamCap(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team cap: %w", err)
	}

	roster, err := m.repo.ListTeamRoster(ctx, teamID, league.Season)
	if err != nil {
		return nil, fmt.Errorf("failed to load team roster: %w", err)
	}

	open := make(map[string]int, len(league.AuctionSettings.SlotLimits))
	for category, limit := range league.AuctionSettings.SlotLimits {
		open[category] = limit
	}
	for _, row := range roster {
		player, err := m.repo.GetPlayer(ctx, row.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load rostered player: %w", err)
		}
		if open[player.Category] > 0 {
			open[player.Category]--
		}
	}

	return &Snapshot{
		TeamID:       teamID,
		RemainingCap: remaining,
		OpenSlots:    open,
	}, nil
}
