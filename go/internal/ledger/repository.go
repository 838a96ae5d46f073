package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("ledger: not found")

// CreateTransactionRequest carries a ledger append.
type CreateTransactionRequest struct {
	UserID   uuid.UUID              `json:"user_id"`
	TeamID   uuid.UUID              `json:"team_id"`
	PlayerID uuid.UUID              `json:"player_id"`
	LeagueID uuid.UUID              `json:"league_id"`
	Value    int                    `json:"value"`
	Year     int                    `json:"year"`
	Kind     models.TransactionKind `json:"kind"`
}

// CreateRosterRequest carries the roster row written when a sale resolves.
type CreateRosterRequest struct {
	FantasyTeamID uuid.UUID         `json:"fantasy_team_id"`
	PlayerID      uuid.UUID         `json:"player_id"`
	LeagueID      uuid.UUID         `json:"league_id"`
	Slot          models.RosterSlot `json:"slot"`
	Position      string            `json:"position"`
	Year          int               `json:"year"`
	Week          int               `json:"week"`
}

// Repository is the shared state store the auction session reads from at
// setup and writes through on every resolution. The store is treated as
// an opaque transactional record store; the session does not depend on
// its schema.
type Repository interface {
	GetLeague(ctx context.Context, leagueID uuid.UUID) (*models.League, error)
	SetAuctionEnded(ctx context.Context, leagueID uuid.UUID, endedAt time.Time) error

	ListTeams(ctx context.Context, leagueID uuid.UUID) ([]models.FantasyTeam, error)
	GetPlayer(ctx context.Context, playerID uuid.UUID) (*models.Player, error)

	// ListTransactions returns the league's auction ledger for a season,
	// most recent first.
	ListTransactions(ctx context.Context, leagueID uuid.UUID, year int) ([]models.Transaction, error)
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*models.Transaction, error)

	CreateRoster(ctx context.Context, req CreateRosterRequest) (*models.Roster, error)
	ListTeamRoster(ctx context.Context, teamID uuid.UUID, year int) ([]models.Roster, error)

	// RosteredPlayerIDs returns every player already rostered league-wide
	// for the season, regardless of team.
	RosteredPlayerIDs(ctx context.Context, leagueID uuid.UUID, year int) (map[uuid.UUID]bool, error)

	// DecrementTeamCap applies a completed sale to the team's persisted
	// remaining cap. The session keeps its own cache; the store stays
	// authoritative.
	DecrementTeamCap(ctx context.Context, teamID uuid.UUID, amount int) error
	GetTeamCap(ctx context.Context, teamID uuid.UUID) (int, error)
}
