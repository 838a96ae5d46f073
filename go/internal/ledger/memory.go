package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// MemoryRepository is an in-memory Repository used in tests. Error
// injection fields let tests exercise the processing-failure paths.
type MemoryRepository struct {
	mu      sync.RWMutex
	leagues map[uuid.UUID]models.League
	teams   map[uuid.UUID][]models.FantasyTeam
	players map[uuid.UUID]models.Player
	txns    map[uuid.UUID][]models.Transaction // league -> most recent first
	rosters map[uuid.UUID][]models.Roster      // league
	caps    map[uuid.UUID]int                  // team -> remaining cap
	nowFn   func() time.Time
	txnSeq  int
	// error injection for tests
	RosterErr      error
	TransactionErr error
	CapErr         error
}

// NewMemoryRepository creates an empty in-memory ledger.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		leagues: make(map[uuid.UUID]models.League),
		teams:   make(map[uuid.UUID][]models.FantasyTeam),
		players: make(map[uuid.UUID]models.Player),
		txns:    make(map[uuid.UUID][]models.Transaction),
		rosters: make(map[uuid.UUID][]models.Roster),
		caps:    make(map[uuid.UUID]int),
		nowFn:   time.Now,
	}
}

// SetNow overrides the clock used for record timestamps.
func (r *MemoryRepository) SetNow(fn func() time.Time) { r.nowFn = fn }

// PutLeague seeds a league record.
func (r *MemoryRepository) PutLeague(l models.League) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leagues[l.ID] = l
}

// PutTeam seeds a team and its starting cap.
func (r *MemoryRepository) PutTeam(t models.FantasyTeam, startingCap int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teams[t.LeagueID] = append(r.teams[t.LeagueID], t)
	r.caps[t.ID] = startingCap
}

// PutPlayer seeds a player record.
func (r *MemoryRepository) PutPlayer(p models.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[p.ID] = p
}

func (r *MemoryRepository) GetLeague(_ context.Context, leagueID uuid.UUID) (*models.League, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.leagues[leagueID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := l
	return &copied, nil
}

func (r *MemoryRepository) SetAuctionEnded(_ context.Context, leagueID uuid.UUID, endedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leagues[leagueID]
	if !ok {
		return ErrNotFound
	}
	l.AuctionEndedAt = &endedAt
	r.leagues[leagueID] = l
	return nil
}

func (r *MemoryRepository) ListTeams(_ context.Context, leagueID uuid.UUID) ([]models.FantasyTeam, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.FantasyTeam(nil), r.teams[leagueID]...), nil
}

func (r *MemoryRepository) GetPlayer(_ context.Context, playerID uuid.UUID) (*models.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (r *MemoryRepository) ListTransactions(_ context.Context, leagueID uuid.UUID, year int) ([]models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Transaction
	for _, t := range r.txns[leagueID] {
		if t.Year == year {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *MemoryRepository) CreateTransaction(_ context.Context, req CreateTransactionRequest) (*models.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.TransactionErr != nil {
		return nil, r.TransactionErr
	}

	r.txnSeq++
	txn := models.Transaction{
		ID:        uuid.New(),
		UserID:    req.UserID,
		TeamID:    req.TeamID,
		PlayerID:  req.PlayerID,
		LeagueID:  req.LeagueID,
		Value:     req.Value,
		Week:      models.AuctionWeek,
		Year:      req.Year,
		Kind:      req.Kind,
		CreatedAt: r.nowFn().Add(time.Duration(r.txnSeq) * time.Microsecond),
	}
	r.txns[req.LeagueID] = append([]models.Transaction{txn}, r.txns[req.LeagueID]...)
	return &txn, nil
}

func (r *MemoryRepository) CreateRoster(_ context.Context, req CreateRosterRequest) (*models.Roster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RosterErr != nil {
		return nil, r.RosterErr
	}

	roster := models.Roster{
		ID:              uuid.New(),
		FantasyTeamID:   req.FantasyTeamID,
		PlayerID:        req.PlayerID,
		LeagueID:        req.LeagueID,
		Slot:            req.Slot,
		Position:        req.Position,
		Year:            req.Year,
		Week:            req.Week,
		AcquisitionType: models.AcquisitionTypeAuction,
		AcquiredAt:      r.nowFn(),
	}
	r.rosters[req.LeagueID] = append(r.rosters[req.LeagueID], roster)
	return &roster, nil
}

func (r *MemoryRepository) ListTeamRoster(_ context.Context, teamID uuid.UUID, year int) ([]models.Roster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Roster
	for _, rows := range r.rosters {
		for _, row := range rows {
			if row.FantasyTeamID == teamID && row.Year == year {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (r *MemoryRepository) RosteredPlayerIDs(_ context.Context, leagueID uuid.UUID, year int) (map[uuid.UUID]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make(map[uuid.UUID]bool)
	for _, row := range r.rosters[leagueID] {
		if row.Year == year {
			ids[row.PlayerID] = true
		}
	}
	return ids, nil
}

func (r *MemoryRepository) DecrementTeamCap(_ context.Context, teamID uuid.UUID, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CapErr != nil {
		return r.CapErr
	}
	if _, ok := r.caps[teamID]; !ok {
		return ErrNotFound
	}
	r.caps[teamID] -= amount
	return nil
}

func (r *MemoryRepository) GetTeamCap(_ context.Context, teamID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	remaining, ok := r.caps[teamID]
	if !ok {
		return 0, ErrNotFound
	}
	return remaining, nil
}
