package auction

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Registry owns the live sessions, one per league. Get-or-create is
// serialized under a mutex so two clients joining the same league at
// once share a single session.
type Registry struct {
	deps Deps

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:     deps,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Get returns the live session for a league, or nil.
func (r *Registry) Get(leagueID uuid.UUID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[leagueID]
}

// GetOrCreate returns the league's session, reconstructing one from the
// shared state store when none is live. The new session starts paused.
func (r *Registry) GetOrCreate(ctx context.Context, leagueID uuid.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[leagueID]; ok {
		return s, nil
	}

	s := NewSession(leagueID, r.deps)
	if err := s.Setup(ctx); err != nil {
		return nil, err
	}
	s.SetOnEmpty(func() { r.remove(leagueID, s) })
	r.sessions[leagueID] = s
	go s.Run(context.Background())

	log.Info().Str("league_id", leagueID.String()).Msg("auction session created")
	return s, nil
}

// remove tears the session down once its last participant left.
func (r *Registry) remove(leagueID uuid.UUID, s *Session) {
	r.mu.Lock()
	if r.sessions[leagueID] == s {
		delete(r.sessions, leagueID)
	}
	r.mu.Unlock()
	s.Stop()
	log.Info().Str("league_id", leagueID.String()).Msg("auction session removed")
}

// Shutdown stops every live session.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}
