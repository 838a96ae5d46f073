package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/mcdev12/auctionhouse/go/internal/dbconfig"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// Snapshot mirrors the league fixture JSON
type Snapshot struct {
	League  SeedLeague   `json:"league"`
	Users   []SeedUser   `json:"users"`
	Teams   []SeedTeam   `json:"teams"`
	Players []SeedPlayer `json:"players"`
}

type SeedLeague struct {
	ID              uuid.UUID              `json:"id"`
	Name            string                 `json:"name"`
	SportID         string                 `json:"sport_id"`
	CommissionerID  uuid.UUID              `json:"commissioner_id"`
	Season          int                    `json:"season"`
	AuctionSettings models.AuctionSettings `json:"auction_settings"`
}

type SeedUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

type SeedTeam struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Name          string    `json:"name"`
	DraftPosition int       `json:"draft_position"`
}

type SeedPlayer struct {
	ID         uuid.UUID `json:"id"`
	SportID    string    `json:"sport_id"`
	ExternalID string    `json:"external_id"`
	FullName   string    `json:"full_name"`
	Position   string    `json:"position"`
	Category   string    `json:"category"`
}

func main() {
	path := "go/internal/assets/league.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the JSON snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	var inserted, skipped, errs int
	track := func(res sql.Result, err error, what string, id uuid.UUID) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting %s %s: %v\n", what, id, err)
			errs++
			return
		}
		if n, _ := res.RowsAffected(); n == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	// 3) Upsert users, league, teams, players, budgets
	for _, u := range snap.Users {
		res, err := db.Exec(`
            INSERT INTO users (id, username, email)
            VALUES ($1,$2,$3)
            ON CONFLICT (id) DO NOTHING
        `, u.ID, u.Username, u.Email)
		track(res, err, "user", u.ID)
	}

	settings, err := json.Marshal(snap.League.AuctionSettings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal auction settings: %v\n", err)
		os.Exit(1)
	}
	res, err := db.Exec(`
        INSERT INTO leagues (
          id, name, sport_id, commissioner_id, team_count,
          auction_settings, status, season
        ) VALUES ($1,$2,$3,$4,$5,$6,'ACTIVE',$7)
        ON CONFLICT (id) DO NOTHING
    `,
		snap.League.ID, snap.League.Name, snap.League.SportID,
		snap.League.CommissionerID, len(snap.Teams), settings, snap.League.Season,
	)
	track(res, err, "league", snap.League.ID)

	for _, t := range snap.Teams {
		res, err := db.Exec(`
            INSERT INTO fantasy_teams (id, league_id, owner_id, name, logo_url, draft_position)
            VALUES ($1,$2,$3,$4,'',$5)
            ON CONFLICT (id) DO NOTHING
        `, t.ID, snap.League.ID, t.OwnerID, t.Name, t.DraftPosition)
		track(res, err, "team", t.ID)

		res, err = db.Exec(`
            INSERT INTO team_budgets (fantasy_team_id, remaining_cap)
            VALUES ($1,$2)
            ON CONFLICT (fantasy_team_id) DO NOTHING
        `, t.ID, snap.League.AuctionSettings.CapBudget)
		track(res, err, "budget", t.ID)
	}

	for _, p := range snap.Players {
		res, err := db.Exec(`
            INSERT INTO players (id, sport_id, external_id, full_name, position, category)
            VALUES ($1,$2,$3,$4,$5,$6)
            ON CONFLICT (sport_id, external_id) DO NOTHING
        `, p.ID, p.SportID, p.ExternalID, p.FullName, p.Position, p.Category)
		track(res, err, "player", p.ID)
	}

	// 4) Print summary
	fmt.Printf(
		"League seed complete: %d inserted, %d skipped, %d errors\n",
		inserted, skipped, errs,
	)
}
