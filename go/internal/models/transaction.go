package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionKind distinguishes ledger entries. A "bid" covers both
// nominations (carrying the opening value) and subsequent raises; a
// "sale" resolves exactly one preceding uninterrupted streak of bids
// for one player.
type TransactionKind string

const (
	TransactionKindBid  TransactionKind = "bid"
	TransactionKindSale TransactionKind = "sale"
)

// AuctionWeek is the week value recorded on all auction transactions.
const AuctionWeek = 0

// Transaction is an immutable, append-only ledger entry.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	TeamID    uuid.UUID       `json:"team_id"`
	PlayerID  uuid.UUID       `json:"player_id"`
	LeagueID  uuid.UUID       `json:"league_id"`
	Value     int             `json:"value"`
	Week      int             `json:"week"`
	Year      int             `json:"year"`
	Kind      TransactionKind `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
}
