package slowmode

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryCoordinator is an in-process Coordinator used in tests.
type MemoryCoordinator struct {
	mu     sync.Mutex
	states map[string]NominationState

	// OpenErr, when set, is returned by Open; used to exercise the
	// coordinator-initialization fallback path.
	OpenErr error
}

// NewMemoryCoordinator creates an empty in-memory coordinator.
func NewMemoryCoordinator() *MemoryCoordinator {
	return &MemoryCoordinator{states: make(map[string]NominationState)}
}

func (c *MemoryCoordinator) Open(_ context.Context, state NominationState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.OpenErr != nil {
		return c.OpenErr
	}
	c.states[kvKey(state.LeagueID, state.PlayerID)] = cloneState(state)
	return nil
}

func (c *MemoryCoordinator) Get(_ context.Context, leagueID, playerID uuid.UUID) (*NominationState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.states[kvKey(leagueID, playerID)]
	if !ok {
		return nil, ErrNoNomination
	}
	copied := cloneState(state)
	return &copied, nil
}

func (c *MemoryCoordinator) Update(_ context.Context, state NominationState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[kvKey(state.LeagueID, state.PlayerID)] = cloneState(state)
	return nil
}

func (c *MemoryCoordinator) RecordPass(_ context.Context, leagueID, playerID, teamID uuid.UUID) (*NominationState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.states[kvKey(leagueID, playerID)]
	if !ok {
		return nil, ErrNoNomination
	}
	if !state.HasPassed(teamID) {
		state.PassedTeamIDs = append(state.PassedTeamIDs, teamID)
	}
	c.states[kvKey(leagueID, playerID)] = cloneState(state)
	copied := cloneState(state)
	return &copied, nil
}

func (c *MemoryCoordinator) Close(_ context.Context, leagueID, playerID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, kvKey(leagueID, playerID))
	return nil
}

func cloneState(s NominationState) NominationState {
	copied := s
	copied.EligibleTeamIDs = append([]uuid.UUID(nil), s.EligibleTeamIDs...)
	copied.PassedTeamIDs = append([]uuid.UUID(nil), s.PassedTeamIDs...)
	return copied
}
