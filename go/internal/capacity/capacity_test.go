package capacity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/auctionhouse/go/internal/ledger"
	"github.com/mcdev12/auctionhouse/go/internal/models"
	"github.com/stretchr/testify/require"
)

func TestTeamSnapshotDerivesOpenSlots(t *testing.T) {
	ctx := context.Background()
	repo := ledger.NewMemoryRepository()

	league := models.League{
		ID:     uuid.New(),
		Season: 2026,
		AuctionSettings: models.AuctionSettings{
			CapBudget:  200,
			SlotLimits: map[string]int{"F": 2, "D": 1},
		},
	}
	repo.PutLeague(league)

	team := models.FantasyTeam{ID: uuid.New(), LeagueID: league.ID}
	repo.PutTeam(team, 150)

	forward := models.Player{ID: uuid.New(), Position: "C", Category: "F"}
	repo.PutPlayer(forward)
	_, err := repo.CreateRoster(ctx, ledger.CreateRosterRequest{
		FantasyTeamID: team.ID,
		PlayerID:      forward.ID,
		LeagueID:      league.ID,
		Slot:          models.RosterSlotBench,
		Position:      forward.Position,
		Year:          league.Season,
		Week:          models.AuctionWeek,
	})
	require.NoError(t, err)

	snap, err := NewModel(repo).TeamSnapshot(ctx, &league, team.ID)
	require.NoError(t, err)
	require.Equal(t, 150, snap.RemainingCap)
	require.Equal(t, 1, snap.OpenSlots["F"])
	require.Equal(t, 1, snap.OpenSlots["D"])
	require.Equal(t, 2, snap.TotalOpenSlots())
	require.True(t, snap.HasOpenSlot("F"))
	require.False(t, snap.HasOpenSlot("G"))
}

func TestSnapshotCloneDoesNotAlias(t *testing.T) {
	snap := &Snapshot{
		TeamID:       uuid.New(),
		RemainingCap: 100,
		OpenSlots:    map[string]int{"F": 2},
	}

	clone := snap.Clone()
	clone.RemainingCap = 50
	clone.OpenSlots["F"] = 0

	require.Equal(t, 100, snap.RemainingCap)
	require.Equal(t, 2, snap.OpenSlots["F"])
}
