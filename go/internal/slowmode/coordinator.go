package slowmode

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNoNomination is returned when no slow-mode nomination is open for
// the requested league and player.
var ErrNoNomination = errors.New("slowmode: no open nomination")

// NominationState is the live state of a turn-less nomination, keyed by
// player+league. It exists only while the nomination is open and must
// survive process restarts, so it lives in a shared crash-tolerant
// store rather than in the session.
type NominationState struct {
	LeagueID        uuid.UUID   `json:"league_id"`
	PlayerID        uuid.UUID   `json:"player_id"`
	InitialBid      int         `json:"initial_bid"`
	CurrentBid      int         `json:"current_bid"`
	CurrentBidderID uuid.UUID   `json:"current_bidder_id"`
	EligibleTeamIDs []uuid.UUID `json:"eligible_team_ids"`
	PassedTeamIDs   []uuid.UUID `json:"passed_team_ids"`
}

// HasPassed reports whether the team already passed on the current bid.
func (s *NominationState) HasPassed(teamID uuid.UUID) bool {
	for _, id := range s.PassedTeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}

// IsEligible reports whether the team may still respond to the
// current bid.
func (s *NominationState) IsEligible(teamID uuid.UUID) bool {
	for _, id := range s.EligibleTeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}

// Complete reports the coordinator's resolution verdict: every eligible
// team other than the current high bidder has passed on the current bid.
func (s *NominationState) Complete() bool {
	for _, id := range s.EligibleTeamIDs {
		if id == s.CurrentBidderID {
			continue
		}
		if !s.HasPassed(id) {
			return false
		}
	}
	return true
}

// Coordinator is the shared store arbitrating slow-mode nominations.
// The session computes eligibility sets and hands them over; the
// coordinator owns the recorded state and the completion condition.
type Coordinator interface {
	// Open records a fresh nomination, replacing any stale state for
	// the same league+player.
	Open(ctx context.Context, state NominationState) error

	// Get returns the open nomination, or ErrNoNomination.
	Get(ctx context.Context, leagueID, playerID uuid.UUID) (*NominationState, error)

	// Update replaces the state after a new bid. Previously recorded
	// passes are invalidated by the caller before handing the state over.
	Update(ctx context.Context, state NominationState) error

	// RecordPass marks a team as passed on the current bid and returns
	// the updated state.
	RecordPass(ctx context.Context, leagueID, playerID, teamID uuid.UUID) (*NominationState, error)

	// Close removes the nomination once it has resolved.
	Close(ctx context.Context, leagueID, playerID uuid.UUID) error
}
