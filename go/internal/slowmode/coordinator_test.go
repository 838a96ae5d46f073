package slowmode

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testState(eligible ...uuid.UUID) NominationState {
	return NominationState{
		LeagueID:        uuid.New(),
		PlayerID:        uuid.New(),
		InitialBid:      5,
		CurrentBid:      5,
		CurrentBidderID: uuid.New(),
		EligibleTeamIDs: eligible,
	}
}

func TestNominationStateComplete(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	state := testState(a, b)
	require.False(t, state.Complete())

	state.PassedTeamIDs = []uuid.UUID{a}
	require.False(t, state.Complete())

	state.PassedTeamIDs = []uuid.UUID{a, b}
	require.True(t, state.Complete())
}

func TestNominationStateCompleteIgnoresBidder(t *testing.T) {
	a := uuid.New()
	state := testState(a)
	// The high bidder sometimes lands in the eligible set after a
	// recompute; it never has to pass on its own bid.
	state.EligibleTeamIDs = append(state.EligibleTeamIDs, state.CurrentBidderID)

	state.PassedTeamIDs = []uuid.UUID{a}
	require.True(t, state.Complete())
}

func TestNominationStateCompleteWithNoEligibleTeams(t *testing.T) {
	state := testState()
	require.True(t, state.Complete())
}

func TestMemoryCoordinatorLifecycle(t *testing.T) {
	ctx := context.Background()
	coord := NewMemoryCoordinator()

	a := uuid.New()
	b := uuid.New()
	state := testState(a, b)

	require.NoError(t, coord.Open(ctx, state))

	got, err := coord.Get(ctx, state.LeagueID, state.PlayerID)
	require.NoError(t, err)
	require.Equal(t, state.CurrentBid, got.CurrentBid)

	// Recording the same pass twice stays idempotent.
	_, err = coord.RecordPass(ctx, state.LeagueID, state.PlayerID, a)
	require.NoError(t, err)
	got, err = coord.RecordPass(ctx, state.LeagueID, state.PlayerID, a)
	require.NoError(t, err)
	require.Len(t, got.PassedTeamIDs, 1)
	require.False(t, got.Complete())

	got, err = coord.RecordPass(ctx, state.LeagueID, state.PlayerID, b)
	require.NoError(t, err)
	require.True(t, got.Complete())

	// An update after a raise replaces the recorded state wholesale.
	state.CurrentBid = 8
	state.CurrentBidderID = a
	state.EligibleTeamIDs = []uuid.UUID{b}
	state.PassedTeamIDs = nil
	require.NoError(t, coord.Update(ctx, state))
	got, err = coord.Get(ctx, state.LeagueID, state.PlayerID)
	require.NoError(t, err)
	require.Equal(t, 8, got.CurrentBid)
	require.Empty(t, got.PassedTeamIDs)

	require.NoError(t, coord.Close(ctx, state.LeagueID, state.PlayerID))
	_, err = coord.Get(ctx, state.LeagueID, state.PlayerID)
	require.ErrorIs(t, err, ErrNoNomination)
}

func TestMemoryCoordinatorPassOnUnknownNomination(t *testing.T) {
	coord := NewMemoryCoordinator()
	_, err := coord.RecordPass(context.Background(), uuid.New(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrNoNomination)
}
