package auction

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/auctionhouse/go/internal/capacity"
	"github.com/mcdev12/auctionhouse/go/internal/models"
	"github.com/mcdev12/auctionhouse/go/internal/slowmode"
)

// EventType represents the type of auction event sent to clients.
type EventType string

const (
	EventTypeInit                EventType = "INIT"
	EventTypeStart               EventType = "START"
	EventTypePaused              EventType = "PAUSED"
	EventTypeConfig              EventType = "CONFIG"
	EventTypeBid                 EventType = "BID"
	EventTypeProcessed           EventType = "PROCESSED"
	EventTypeNominationInfo      EventType = "NOMINATION_INFO"
	EventTypeComplete            EventType = "COMPLETE"
	EventTypeConnected           EventType = "CONNECTED"
	EventTypeSlowModeStateUpdate EventType = "SLOW_MODE_STATE_UPDATE"
	EventTypeError               EventType = "ERROR"
)

// Event is the envelope broadcast to league connections.
type Event struct {
	ID        string          `json:"id"`
	LeagueID  string          `json:"league_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Outbound pairs an event with an optional targeted recipient. When
// ClientID is set the event goes only to that connection (INIT, ERROR);
// otherwise it fans out to every league connection.
type Outbound struct {
	Event    *Event
	ClientID string
}

// TeamView is a team plus its cached capacity, as shown to clients.
type TeamView struct {
	Team         models.FantasyTeam `json:"team"`
	RemainingCap int                `json:"remaining_cap"`
	OpenSlots    map[string]int     `json:"open_slots"`
}

// InitPayload is the full snapshot sent to a client on join.
type InitPayload struct {
	Transactions       []models.Transaction      `json:"transactions"`
	Paused             bool                      `json:"paused"`
	DraftOrder         []uuid.UUID               `json:"draft_order"`
	Teams              []TeamView                `json:"teams"`
	ConnectedUserIDs   map[string][]uuid.UUID    `json:"connected_user_ids"` // team id -> user ids
	BidTimerSec        int                       `json:"bid_timer_sec"`
	NominationTimerSec int                       `json:"nomination_timer_sec"`
	NominatingTeamID   *uuid.UUID                `json:"nominating_team_id,omitempty"`
	Complete           bool                      `json:"complete"`
	SlowMode           bool                      `json:"slow_mode"`
	SlowModeState      *slowmode.NominationState `json:"slow_mode_state,omitempty"`
	PauseOnDisconnect  bool                      `json:"pause_on_disconnect"`
}

// BidPayload is an accepted bid (nomination or raise) with its
// server-assigned transaction id.
type BidPayload struct {
	Transaction models.Transaction `json:"transaction"`
}

// ProcessedPayload is a resolved sale.
type ProcessedPayload struct {
	Sale         models.Transaction `json:"sale"`
	Roster       models.Roster      `json:"roster"`
	TeamCapacity capacity.Snapshot  `json:"team_capacity"`
}

// NominationInfoPayload announces the next nominator.
type NominationInfoPayload struct {
	NominatingTeamID uuid.UUID `json:"nominating_team_id"`
}

// CompletePayload announces the end of the auction.
type CompletePayload struct {
	EndedAt time.Time `json:"ended_at"`
}

// ConnectedPayload is the per-team connection roster.
type ConnectedPayload struct {
	ConnectedUserIDs map[string][]uuid.UUID `json:"connected_user_ids"`
}

// ConfigPayload carries commissioner-toggled session options.
type ConfigPayload struct {
	PauseOnDisconnect bool `json:"pause_on_disconnect"`
}

// SlowModeStatePayload is the coordinator snapshot broadcast after
// every slow-mode update.
type SlowModeStatePayload struct {
	State slowmode.NominationState `json:"state"`
}

// ErrorPayload is sent to the acting client only.
type ErrorPayload struct {
	Code ReasonCode `json:"code"`
}

func newEvent(leagueID uuid.UUID, eventType EventType, now time.Time, payload any) *Event {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payloads are plain structs; marshal failure is a programming error.
		data = []byte("{}")
	}
	return &Event{
		ID:        uuid.New().String(),
		LeagueID:  leagueID.String(),
		Type:      eventType,
		Timestamp: now,
		Data:      data,
	}
}
