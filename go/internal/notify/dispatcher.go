package notify

import (
	"context"

	"github.com/google/uuid"
)

// Alert is a human-readable notification about auction activity,
// delivered on a best-effort side channel.
type Alert struct {
	LeagueID uuid.UUID `json:"league_id"`
	Kind     string    `json:"kind"` // "sale", "nomination", "complete", ...
	Message  string    `json:"message"`
}

// Dispatcher delivers alerts. Implementations never propagate delivery
// failures; they log and move on.
type Dispatcher interface {
	Dispatch(ctx context.Context, alert Alert)
}

// NopDispatcher discards all alerts.
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(context.Context, Alert) {}
