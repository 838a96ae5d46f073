package auction

import (
	"github.com/google/uuid"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// cycleOpener finds the bid that opened the current (or most recently
// closed) nomination cycle: the most recent "bid" entry whose
// chronological predecessor is absent or a "sale". Transactions are
// most recent first.
func cycleOpener(txns []models.Transaction) (models.Transaction, bool) {
	for i := 0; i < len(txns); i++ {
		if txns[i].Kind != models.TransactionKindBid {
			continue
		}
		if i+1 == len(txns) || txns[i+1].Kind == models.TransactionKindSale {
			return txns[i], true
		}
	}
	return models.Transaction{}, false
}

// nominatingTeamID computes the nominator-of-record from the ledger.
//
// With no history, the first team in draft order with an open slot
// nominates. If the latest entry is a bid the cycle is in progress and
// the cycle's opener is reported. If the latest entry is a sale, the
// next nominator is the first team with an open slot walking the draft
// order from just after the closed cycle's opener, wrapping around.
// When no team qualifies the auction is complete and ok is false.
func nominatingTeamID(txns []models.Transaction, order []uuid.UUID, hasOpenSlot func(uuid.UUID) bool) (uuid.UUID, bool) {
	if len(order) == 0 {
		return uuid.Nil, false
	}

	if len(txns) == 0 {
		return firstWithOpenSlot(order, 0, hasOpenSlot)
	}

	opener, ok := cycleOpener(txns)
	if !ok {
		// Ledger holds only sales; cannot happen for a well-formed
		// stack, but fall back to the top of the order.
		return firstWithOpenSlot(order, 0, hasOpenSlot)
	}

	if txns[0].Kind == models.TransactionKindBid {
		// Cycle in progress: report the opening team for display.
		return opener.TeamID, true
	}

	// Cycle just closed: walk the order starting after the opener.
	start := 0
	for i, id := range order {
		if id == opener.TeamID {
			start = i + 1
			break
		}
	}
	return firstWithOpenSlot(order, start, hasOpenSlot)
}

func firstWithOpenSlot(order []uuid.UUID, start int, hasOpenSlot func(uuid.UUID) bool) (uuid.UUID, bool) {
	for i := 0; i < len(order); i++ {
		id := order[(start+i)%len(order)]
		if hasOpenSlot(id) {
			return id, true
		}
	}
	return uuid.Nil, false
}
