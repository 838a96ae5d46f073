package auction

import (
	"github.com/google/uuid"
	"github.com/mcdev12/auctionhouse/go/internal/capacity"
	"github.com/mcdev12/auctionhouse/go/internal/models"
)

// CommandType represents an inbound client command. Envelopes arrive
// already authenticated and parsed; transport concerns live in the
// gateway.
type CommandType string

const (
	CmdPause                   CommandType = "PAUSE"
	CmdResume                  CommandType = "RESUME"
	CmdTogglePauseOnDisconnect CommandType = "TOGGLE_PAUSE_ON_DISCONNECT"
	CmdSubmitBid               CommandType = "SUBMIT_BID"
	CmdSubmitNomination        CommandType = "SUBMIT_NOMINATION"
	CmdPassNomination          CommandType = "PASS_NOMINATION"
	CmdKeepalive               CommandType = "KEEPALIVE"
)

// Envelope is one inbound command from a connected client.
type Envelope struct {
	Type     CommandType `json:"type"`
	LeagueID uuid.UUID   `json:"league_id"`
	TeamID   uuid.UUID   `json:"team_id"`
	UserID   uuid.UUID   `json:"user_id"`
	ClientID string      `json:"client_id"`
	PlayerID *uuid.UUID  `json:"player_id,omitempty"`
	Value    *int        `json:"value,omitempty"`
}

// sessionMsg is a message on the session mailbox. All mutating work is
// serialized through the run loop, so no two operations ever overlap.
type sessionMsg interface{ isSessionMsg() }

type joinMsg struct {
	TeamID   uuid.UUID
	UserID   uuid.UUID
	ClientID string
}

type leaveMsg struct {
	ClientID string
}

type envelopeMsg struct {
	Env Envelope
}

type timerKind int

const (
	timerNomination timerKind = iota
	timerBid
)

// timerFiredMsg is posted by a timer callback. Gen guards against a
// stale fire racing a restart.
type timerFiredMsg struct {
	Kind timerKind
	Gen  uint64
}

type shutdownMsg struct{}

// stateReqMsg reflects internal state for tests without data races.
type stateReqMsg struct {
	Reply chan StateView
}

func (joinMsg) isSessionMsg()       {}
func (leaveMsg) isSessionMsg()      {}
func (envelopeMsg) isSessionMsg()   {}
func (timerFiredMsg) isSessionMsg() {}
func (shutdownMsg) isSessionMsg()   {}
func (stateReqMsg) isSessionMsg()   {}

// StateView is a read-only snapshot of session internals.
type StateView struct {
	State            State
	Transactions     []models.Transaction
	Teams            map[uuid.UUID]capacity.Snapshot
	DraftOrder       []uuid.UUID
	ConnectedClients int
	NominatingTeamID *uuid.UUID
	NomTimerExpired  bool
}
