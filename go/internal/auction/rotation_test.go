package auction

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/auctionhouse/go/internal/models"
	"github.com/stretchr/testify/require"
)

func mkTxn(teamID uuid.UUID, kind models.TransactionKind) models.Transaction {
	return models.Transaction{
		ID:     uuid.New(),
		TeamID: teamID,
		Kind:   kind,
	}
}

func TestNominatingTeamID(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()
	order := []uuid.UUID{a, b, c}

	allOpen := func(uuid.UUID) bool { return true }
	only := func(ids ...uuid.UUID) func(uuid.UUID) bool {
		open := make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			open[id] = true
		}
		return func(id uuid.UUID) bool { return open[id] }
	}

	tests := []struct {
		name     string
		txns     []models.Transaction // most recent first
		open     func(uuid.UUID) bool
		wantTeam uuid.UUID
		wantOK   bool
	}{
		{
			name:     "empty history starts with first team",
			txns:     nil,
			open:     allOpen,
			wantTeam: a,
			wantOK:   true,
		},
		{
			name:     "empty history skips full first team",
			txns:     nil,
			open:     only(b, c),
			wantTeam: b,
			wantOK:   true,
		},
		{
			name: "open cycle reports the opener",
			txns: []models.Transaction{
				mkTxn(b, models.TransactionKindBid), // raise
				mkTxn(a, models.TransactionKindBid), // nomination
			},
			open:     allOpen,
			wantTeam: a,
			wantOK:   true,
		},
		{
			name: "after sale the next team in order nominates",
			txns: []models.Transaction{
				mkTxn(b, models.TransactionKindSale),
				mkTxn(b, models.TransactionKindBid),
				mkTxn(a, models.TransactionKindBid), // opener of the sold cycle
			},
			open:     allOpen,
			wantTeam: b,
			wantOK:   true,
		},
		{
			name: "rotation wraps around the order",
			txns: []models.Transaction{
				mkTxn(a, models.TransactionKindSale),
				mkTxn(a, models.TransactionKindBid),
				mkTxn(c, models.TransactionKindBid), // opener was last in order
			},
			open:     allOpen,
			wantTeam: a,
			wantOK:   true,
		},
		{
			name: "full teams are skipped",
			txns: []models.Transaction{
				mkTxn(c, models.TransactionKindSale),
				mkTxn(c, models.TransactionKindBid),
				mkTxn(a, models.TransactionKindBid),
			},
			open:     only(c),
			wantTeam: c,
			wantOK:   true,
		},
		{
			name: "no team with open slots means the auction is over",
			txns: []models.Transaction{
				mkTxn(b, models.TransactionKindSale),
				mkTxn(b, models.TransactionKindBid),
			},
			open:   func(uuid.UUID) bool { return false },
			wantOK: false,
		},
		{
			name: "multiple completed cycles advance past each opener",
			txns: []models.Transaction{
				mkTxn(c, models.TransactionKindSale),
				mkTxn(c, models.TransactionKindBid),
				mkTxn(b, models.TransactionKindBid), // second cycle opened by b
				mkTxn(a, models.TransactionKindSale),
				mkTxn(a, models.TransactionKindBid), // first cycle opened by a
			},
			open:     allOpen,
			wantTeam: c,
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := nominatingTeamID(tt.txns, order, tt.open)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.Equal(t, tt.wantTeam, got)
			}
		})
	}
}

func TestCycleOpener(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	txns := []models.Transaction{
		mkTxn(b, models.TransactionKindBid),
		mkTxn(a, models.TransactionKindBid),
		mkTxn(b, models.TransactionKindBid), // nomination opening the streak
		mkTxn(a, models.TransactionKindSale),
		mkTxn(a, models.TransactionKindBid),
	}

	opener, ok := cycleOpener(txns)
	require.True(t, ok)
	require.Equal(t, b, opener.TeamID)
}
