package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/auctionhouse/go/internal/models"
	"github.com/mcdev12/auctionhouse/go/internal/sqlutil"
)

// PostgresRepository implements Repository against Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a Postgres-backed ledger repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) GetLeague(ctx context.Context, leagueID uuid.UUID) (*models.League, error) {
	const q = `
		SELECT id, name, sport_id, commissioner_id, team_count, auction_settings,
		       status, season, auction_ended_at, created_at, updated_at
		FROM leagues WHERE id = $1`

	var (
		league       models.League
		settingsJSON []byte
	)
	err := r.pool.QueryRow(ctx, q, leagueID).Scan(
		&league.ID, &league.Name, &league.SportID, &league.CommissionerID,
		&league.TeamCount, &settingsJSON, &league.Status, &league.Season,
		&league.AuctionEndedAt, &league.CreatedAt, &league.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}

	if len(settingsJSON) > 0 {
		if err := json.Unmarshal(settingsJSON, &league.AuctionSettings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal auction settings: %w", err)
		}
	}
	return &league, nil
}

func (r *PostgresRepository) SetAuctionEnded(ctx context.Context, leagueID uuid.UUID, endedAt time.Time) error {
	const q = `UPDATE leagues SET auction_ended_at = $2, updated_at = now() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, leagueID, endedAt); err != nil {
		return fmt.Errorf("failed to set auction end time: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListTeams(ctx context.Context, leagueID uuid.UUID) ([]models.FantasyTeam, error) {
	const q = `
		SELECT id, league_id, owner_id, name, logo_url, draft_position, created_at
		FROM fantasy_teams WHERE league_id = $1
		ORDER BY draft_position`

	rows, err := r.pool.Query(ctx, q, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []models.FantasyTeam
	for rows.Next() {
		var t models.FantasyTeam
		if err := rows.Scan(&t.ID, &t.LeagueID, &t.OwnerID, &t.Name, &t.LogoURL, &t.DraftPosition, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *PostgresRepository) GetPlayer(ctx context.Context, playerID uuid.UUID) (*models.Player, error) {
	const q = `
		SELECT id, sport_id, external_id, full_name, position, category, created_at
		FROM players WHERE id = $1`

	var p models.Player
	err := r.pool.QueryRow(ctx, q, playerID).Scan(
		&p.ID, &p.SportID, &p.ExternalID, &p.FullName, &p.Position, &p.Category, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &p, nil
}

func (r *PostgresRepository) ListTransactions(ctx context.Context, leagueID uuid.UUID, year int) ([]models.Transaction, error) {
	const q = `
		SELECT id, user_id, team_id, player_id, league_id, value, week, year, kind, created_at
		FROM transactions
		WHERE league_id = $1 AND year = $2 AND week = 0
		ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, q, leagueID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.TeamID, &t.PlayerID, &t.LeagueID,
			&t.Value, &t.Week, &t.Year, &t.Kind, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (r *PostgresRepository) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*models.Transaction, error) {
	const q = `
		INSERT INTO transactions (id, user_id, team_id, player_id, league_id, value, week, year, kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING created_at`

	txn := models.Transaction{
		ID:       uuid.New(),
		UserID:   req.UserID,
		TeamID:   req.TeamID,
		PlayerID: req.PlayerID,
		LeagueID: req.LeagueID,
		Value:    req.Value,
		Week:     models.AuctionWeek,
		Year:     req.Year,
		Kind:     req.Kind,
	}
	err := r.pool.QueryRow(ctx, q,
		txn.ID, txn.UserID, txn.TeamID, txn.PlayerID, txn.LeagueID,
		txn.Value, txn.Week, txn.Year, txn.Kind,
	).Scan(&txn.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return &txn, nil
}

func (r *PostgresRepository) CreateRoster(ctx context.Context, req CreateRosterRequest) (*models.Roster, error) {
	const q = `
		INSERT INTO rosters (id, fantasy_team_id, player_id, league_id, slot, position, year, week, acquisition_type, acquired_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING acquired_at`

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
	}
	err := r.pool.QueryRow(ctx, q,
		roster.ID, roster.FantasyTeamID, roster.PlayerID, roster.LeagueID,
		roster.Slot, roster.Position, roster.Year, roster.Week, roster.AcquisitionType,
	).Scan(&roster.AcquiredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create roster row: %w", err)
	}
	return &roster, nil
}

func (r *PostgresRepository) ListTeamRoster(ctx context.Context, teamID uuid.UUID, year int) ([]models.Roster, error) {
	const q = `
		SELECT id, fantasy_team_id, player_id, league_id, slot, position, year, week, acquisition_type, acquired_at
		FROM rosters WHERE fantasy_team_id = $1 AND year = $2`

	rows, err := r.pool.Query(ctx, q, teamID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list team roster: %w", err)
	}
	defer rows.Close()

	var rosters []models.Roster
	for rows.Next() {
		var ro models.Roster
		if err := rows.Scan(&ro.ID, &ro.FantasyTeamID, &ro.PlayerID, &ro.LeagueID,
			&ro.Slot, &ro.Position, &ro.Year, &ro.Week, &ro.AcquisitionType, &ro.AcquiredAt); err != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}
		rosters = append(rosters, ro)
	}
	return rosters, rows.Err()
}

func (r *PostgresRepository) RosteredPlayerIDs(ctx context.Context, leagueID uuid.UUID, year int) (map[uuid.UUID]bool, error) {
	const q = `SELECT player_id FROM rosters WHERE league_id = $1 AND year = $2`

	rows, err := r.pool.Query(ctx, q, leagueID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list rostered players: %w", err)
	}
	defer rows.Close()

	ids := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan rostered player: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// DecrementTeamCap is a read-modify-write on the team's remaining cap,
// serialized with a row lock.
func (r *PostgresRepository) DecrementTeamCap(ctx context.Context, teamID uuid.UUID, amount int) error {
	err := sqlutil.Run(ctx, r.pool, func(tx pgx.Tx) error {
		var remaining int
		if err := tx.QueryRow(ctx, `SELECT remaining_cap FROM team_budgets WHERE fantasy_team_id = $1 FOR UPDATE`, teamID).Scan(&remaining); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE team_budgets SET remaining_cap = $2 WHERE fantasy_team_id = $1`, teamID, remaining-amount)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to decrement team cap: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetTeamCap(ctx context.Context, teamID uuid.UUID) (int, error) {
	var remaining int
	err := r.pool.QueryRow(ctx, `SELECT remaining_cap FROM team_budgets WHERE fantasy_team_id = $1`, teamID).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get team cap: %w", err)
	}
	return remaining, nil
}
