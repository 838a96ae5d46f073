package auction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/auctionhouse/go/internal/models"
	"github.com/stretchr/testify/require"
)

func newSlowFixture(t *testing.T, mutate func(*models.League)) *fixture {
	return newFixture(t, func(l *models.League) {
		l.AuctionSettings.SlowMode = true
		if mutate != nil {
			mutate(l)
		}
	})
}

func TestSlowModeResolvesWhenAllEligiblePass(t *testing.T) {
	f := newSlowFixture(t, nil)
	f.resume()

	v := f.nominate(f.teamA, f.userA, f.players[0], 5, "c-a")
	require.Equal(t, StateAwaitingBid, v.State)

	state, err := f.coord.Get(context.Background(), f.leagueID, f.players[0])
	require.NoError(t, err)
	require.Equal(t, 5, state.CurrentBid)
	require.Equal(t, f.teamA, state.CurrentBidderID)
	require.ElementsMatch(t, []uuid.UUID{f.teamB, f.teamC}, state.EligibleTeamIDs)

	f.pass(f.teamB, f.userB, f.players[0], "c-b")
	v = f.s.View()
	require.Equal(t, StateAwaitingBid, v.State)

	f.pass(f.teamC, f.userC, f.players[0], "c-c")
	v = f.waitFor(func(v StateView) bool {
		return v.Transactions[0].Kind == models.TransactionKindSale
	})
	require.Equal(t, f.teamA, v.Transactions[0].TeamID)
	require.Equal(t, 5, v.Transactions[0].Value)

	// Resolved nominations leave no coordinator state behind.
	_, err = f.coord.Get(context.Background(), f.leagueID, f.players[0])
	require.Error(t, err)
}

func TestSlowModeBidInvalidatesRecordedPasses(t *testing.T) {
	f := newSlowFixture(t, nil)
	f.resume()

	f.nominate(f.teamA, f.userA, f.players[0], 5, "c-a")
	f.pass(f.teamB, f.userB, f.players[0], "c-b")

	// A raise reopens the question for everyone, B included.
	f.bid(f.teamC, f.userC, f.players[0], 6, "c-c")
	state, err := f.coord.Get(context.Background(), f.leagueID, f.players[0])
	require.NoError(t, err)
	require.Equal(t, 6, state.CurrentBid)
	require.Equal(t, f.teamC, state.CurrentBidderID)
	require.Empty(t, state.PassedTeamIDs)
	require.ElementsMatch(t, []uuid.UUID{f.teamA, f.teamB}, state.EligibleTeamIDs)

	f.pass(f.teamA, f.userA, f.players[0], "c-a")
	f.pass(f.teamB, f.userB, f.players[0], "c-b")

	v := f.waitFor(func(v StateView) bool {
		return v.Transactions[0].Kind == models.TransactionKindSale
	})
	require.Equal(t, f.teamC, v.Transactions[0].TeamID)
	require.Equal(t, 6, v.Transactions[0].Value)
}

func TestSlowModePassFromTopBidderRejected(t *testing.T) {
	f := newSlowFixture(t, nil)
	f.resume()
	f.nominate(f.teamA, f.userA, f.players[0], 5, "c-a")

	f.pass(f.teamA, f.userA, f.players[0], "c-a")
	f.requireLastError("c-a", ReasonInvalidBid)

	state, err := f.coord.Get(context.Background(), f.leagueID, f.players[0])
	require.NoError(t, err)
	require.Empty(t, state.PassedTeamIDs)
}

func TestSlowModePassWithInsufficientCapRejected(t *testing.T) {
	f := newSlowFixture(t, nil)

	// Shrink C's cap below the opening bid after seeding.
	require.NoError(t, f.repo.DecrementTeamCap(context.Background(), f.teamC, 195))
	f.resume()

	f.nominate(f.teamA, f.userA, f.players[0], 50, "c-a")

	// C cannot afford the standing bid, so its pass is meaningless.
	f.pass(f.teamC, f.userC, f.players[0], "c-c")
	f.requireLastError("c-c", ReasonSalaryLimit)

	// Only B is eligible; its pass resolves the nomination.
	f.pass(f.teamB, f.userB, f.players[0], "c-b")
	v := f.waitFor(func(v StateView) bool {
		return v.Transactions[0].Kind == models.TransactionKindSale
	})
	require.Equal(t, f.teamA, v.Transactions[0].TeamID)
}

func TestSlowModeNoTimersArmed(t *testing.T) {
	f := newSlowFixture(t, nil)
	f.resume()
	f.nominate(f.teamA, f.userA, f.players[0], 5, "c-a")

	// Time alone never resolves a slow-mode nomination.
	f.clock.Advance(24 * time.Hour)
	v := f.s.View()
	require.Equal(t, StateAwaitingBid, v.State)
	require.Equal(t, models.TransactionKindBid, v.Transactions[0].Kind)
}

func TestSlowModeCommissionerMayForceNominate(t *testing.T) {
	f := newSlowFixture(t, nil)
	f.resume()

	// Turn order says A, but slow mode lets the commissioner nominate
	// for their team at any point between nominations.
	f.nominate(f.teamA, f.userA, f.players[0], 1, "c-a")
	f.pass(f.teamB, f.userB, f.players[0], "c-b")
	f.pass(f.teamC, f.userC, f.players[0], "c-c")
	f.waitFor(func(v StateView) bool {
		return v.Transactions[0].Kind == models.TransactionKindSale
	})

	// Next turn is B's, yet the commissioner can open the nomination.
	v := f.nominate(f.teamA, f.userA, f.players[1], 1, "c-a")
	require.Equal(t, StateAwaitingBid, v.State)
	require.Equal(t, f.teamA, v.Transactions[0].TeamID)
}

func TestSlowModeProcessingFailureRetriesOnTimer(t *testing.T) {
	f := newSlowFixture(t, nil)
	f.resume()

	f.nominate(f.teamA, f.userA, f.players[0], 5, "c-a")
	f.pass(f.teamB, f.userB, f.players[0], "c-b")

	// The final pass completes the nomination, but the store is down.
	f.repo.RosterErr = errors.New("store down")
	f.pass(f.teamC, f.userC, f.players[0], "c-c")
	f.requireLastError("c-c", ReasonProcessingError)
	v := f.s.View()
	require.Equal(t, StateAwaitingBid, v.State)
	require.Equal(t, models.TransactionKindBid, v.Transactions[0].Kind)

	// No further pass or raise is coming, so the failure path must arm
	// a timer even in slow mode. Once the store recovers, the next
	// timeout resolves the sale.
	f.repo.RosterErr = nil
	f.clock.Advance(testBidTimer)
	v = f.waitFor(func(v StateView) bool {
		return v.Transactions[0].Kind == models.TransactionKindSale
	})
	require.Equal(t, f.teamA, v.Transactions[0].TeamID)
	require.Equal(t, 5, v.Transactions[0].Value)
}

func TestSlowModeCoordinatorFailureFallsBackToTimer(t *testing.T) {
	f := newSlowFixture(t, nil)
	f.coord.OpenErr = errors.New("kv unavailable")
	f.resume()

	v := f.nominate(f.teamA, f.userA, f.players[0], 5, "c-a")
	require.Equal(t, StateAwaitingBid, v.State)

	// With no coordinator state the session degrades to the normal
	// timer-driven resolution.
	f.clock.Advance(testBidTimer)
	v = f.waitFor(func(v StateView) bool {
		return v.Transactions[0].Kind == models.TransactionKindSale
	})
	require.Equal(t, f.teamA, v.Transactions[0].TeamID)
}
