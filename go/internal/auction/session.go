package auction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/auctionhouse/go/internal/capacity"
	"github.com/mcdev12/auctionhouse/go/internal/ledger"
	"github.com/mcdev12/auctionhouse/go/internal/models"
	"github.com/mcdev12/auctionhouse/go/internal/notify"
	"github.com/mcdev12/auctionhouse/go/internal/slowmode"
	"github.com/rs/zerolog/log"
)

// State is the auction session state machine.
type State string

const (
	StatePaused             State = "PAUSED"
	StateAwaitingNomination State = "AWAITING_NOMINATION"
	StateAwaitingBid        State = "AWAITING_BID"
	StateComplete           State = "COMPLETE"
)

const (
	defaultBidTimerSec        = 30
	defaultNominationTimerSec = 60
	mailboxSize               = 64
	outboundSize              = 256
)

// Broadcaster delivers outbound events to connected league clients.
type Broadcaster interface {
	Broadcast(leagueID uuid.UUID, event *Event)
	SendTo(clientID string, event *Event)
}

// Deps are the collaborators a session consumes.
type Deps struct {
	Repo        ledger.Repository
	Capacity    *capacity.Model
	Coordinator slowmode.Coordinator
	Dispatcher  notify.Dispatcher
	Broadcaster Broadcaster
	Clock       clockwork.Clock
}

// Session is one league's live auction. It is a single logical actor:
// every mutating operation flows through the mailbox and is handled by
// the run loop, one at a time, so a bid and a timer-driven resolution
// can never interleave mid-operation.
type Session struct {
	leagueID uuid.UUID
	deps     Deps

	inbox    chan sessionMsg
	outbound chan Outbound
	done     chan struct{}
	stopOnce sync.Once

	// Everything below is owned by the run loop.
	league            *models.League
	state             State
	order             []uuid.UUID
	teams             map[uuid.UUID]*capacity.Snapshot
	teamList          []models.FantasyTeam
	txns              []models.Transaction               // most recent first
	nominated         *models.Player                     // player of the open nomination, if loaded
	connected         map[uuid.UUID]map[string]uuid.UUID // team -> client -> user
	clients           map[string]uuid.UUID               // client -> team (join dedup)
	pauseOnDisconnect bool
	slowMode          bool
	nomTimerExpired   bool

	bidTimerDur time.Duration
	nomTimerDur time.Duration
	bidTimer    clockwork.Timer
	nomTimer    clockwork.Timer
	bidGen      uint64
	nomGen      uint64

	ctx     context.Context
	onEmpty func()
}

// NewSession creates a session for one league. Call Setup before Run.
func NewSession(leagueID uuid.UUID, deps Deps) *Session {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = notify.NopDispatcher{}
	}
	s := &Session{
		leagueID:  leagueID,
		deps:      deps,
		inbox:     make(chan sessionMsg, mailboxSize),
		outbound:  make(chan Outbound, outboundSize),
		done:      make(chan struct{}),
		teams:     make(map[uuid.UUID]*capacity.Snapshot),
		connected: make(map[uuid.UUID]map[string]uuid.UUID),
		clients:   make(map[string]uuid.UUID),
		state:     StatePaused,
	}
	return s
}

// SetOnEmpty registers the callback invoked when the last connected
// participant leaves.
func (s *Session) SetOnEmpty(fn func()) { s.onEmpty = fn }

// Setup reconstructs session state from the shared state store.
func (s *Session) Setup(ctx context.Context) error {
	league, err := s.deps.Repo.GetLeague(ctx, s.leagueID)
	if err != nil {
		return fmt.Errorf("failed to load league: %w", err)
	}
	s.league = league
	s.slowMode = league.AuctionSettings.SlowMode
	s.pauseOnDisconnect = league.AuctionSettings.PauseOnDisconnect

	s.bidTimerDur = time.Duration(league.AuctionSettings.BidTimerSec) * time.Second
	if s.bidTimerDur <= 0 {
		s.bidTimerDur = defaultBidTimerSec * time.Second
	}
	s.nomTimerDur = time.Duration(league.AuctionSettings.NominationTimerSec) * time.Second
	if s.nomTimerDur <= 0 {
		s.nomTimerDur = defaultNominationTimerSec * time.Second
	}

	teamList, err := s.deps.Repo.ListTeams(ctx, s.leagueID)
	if err != nil {
		return fmt.Errorf("failed to load teams: %w", err)
	}
	s.teamList = teamList

	if len(league.AuctionSettings.DraftOrder) > 0 {
		s.order = league.AuctionSettings.DraftOrder
	} else {
		s.order = make([]uuid.UUID, 0, len(teamList))
		for _, t := range teamList {
			s.order = append(s.order, t.ID)
		}
	}

	for _, t := range teamList {
		snap, err := s.deps.Capacity.TeamSnapshot(ctx, league, t.ID)
		if err != nil {
			return fmt.Errorf("failed to compute team capacity: %w", err)
		}
		s.teams[t.ID] = snap
	}

	txns, err := s.deps.Repo.ListTransactions(ctx, s.leagueID, league.Season)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	s.txns = txns

	s.state = StatePaused
	if league.AuctionEndedAt != nil || !s.anyOpenSlot() {
		s.state = StateComplete
	}

	log.Info().
		Str("league_id", s.leagueID.String()).
		Int("teams", len(teamList)).
		Int("transactions", len(txns)).
		Bool("slow_mode", s.slowMode).
		Str("state", string(s.state)).
		Msg("auction session reconstructed")
	return nil
}

// Run starts the mailbox loop and the outbound forwarder. It blocks
// until Stop or ctx cancellation.
func (s *Session) Run(ctx context.Context) {
	s.ctx = ctx
	go s.forward(ctx)
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case <-s.done:
			s.shutdown()
			return
		case m := <-s.inbox:
			s.handle(m)
		}
	}
}

// Stop terminates the session.
func (s *Session) Stop() { s.stopOnce.Do(func() { close(s.done) }) }

// Join registers a connected client. Idempotent per client id.
func (s *Session) Join(teamID, userID uuid.UUID, clientID string) {
	s.post(joinMsg{TeamID: teamID, UserID: userID, ClientID: clientID})
}

// Leave removes a connection.
func (s *Session) Leave(clientID string) { s.post(leaveMsg{ClientID: clientID}) }

// Submit delivers an inbound client command.
func (s *Session) Submit(env Envelope) { s.post(envelopeMsg{Env: env}) }

// View returns a read-only snapshot of session internals.
func (s *Session) View() StateView {
	reply := make(chan StateView, 1)
	s.post(stateReqMsg{Reply: reply})
	select {
	case v := <-reply:
		return v
	case <-s.done:
		return StateView{}
	}
}

func (s *Session) post(m sessionMsg) {
	select {
	case s.inbox <- m:
	case <-s.done:
	}
}

func (s *Session) handle(m sessionMsg) {
	switch msg := m.(type) {
	case joinMsg:
		s.handleJoin(msg)
	case leaveMsg:
		s.handleLeave(msg)
	case envelopeMsg:
		s.handleEnvelope(msg.Env)
	case timerFiredMsg:
		s.handleTimerFired(msg)
	case stateReqMsg:
		msg.Reply <- s.stateView()
	case shutdownMsg:
		s.Stop()
	}
}

func (s *Session) handleEnvelope(env Envelope) {
	if env.LeagueID != s.leagueID {
		log.Warn().
			Str("league_id", env.LeagueID.String()).
			Str("session_league_id", s.leagueID.String()).
			Msg("envelope for wrong league dropped")
		return
	}

	switch env.Type {
	case CmdKeepalive:
		// no-op
	case CmdPause:
		if s.requireCommissioner(env) {
			s.pause()
		}
	case CmdResume:
		if s.requireCommissioner(env) {
			s.start()
		}
	case CmdTogglePauseOnDisconnect:
		if s.requireCommissioner(env) {
			s.pauseOnDisconnect = !s.pauseOnDisconnect
			s.broadcast(EventTypeConfig, ConfigPayload{PauseOnDisconnect: s.pauseOnDisconnect})
		}
	case CmdSubmitNomination:
		s.handleNominate(env)
	case CmdSubmitBid:
		s.handleBid(env)
	case CmdPassNomination:
		s.handlePass(env)
	default:
		log.Warn().Str("type", string(env.Type)).Msg("unknown command type dropped")
	}
}

func (s *Session) requireCommissioner(env Envelope) bool {
	if env.UserID == s.league.CommissionerID {
		return true
	}
	log.Warn().
		Str("user_id", env.UserID.String()).
		Str("type", string(env.Type)).
		Msg("commissioner-only command from non-commissioner dropped")
	return false
}

// start resumes the auction. If a player is mid-auction the session
// returns to AWAITING_BID, otherwise to AWAITING_NOMINATION.
func (s *Session) start() {
	if s.state == StateComplete {
		return
	}
	if len(s.txns) > 0 && s.txns[0].Kind == models.TransactionKindBid {
		s.state = StateAwaitingBid
		if !s.slowMode {
			s.startBidTimer()
		}
	} else {
		s.state = StateAwaitingNomination
		if !s.slowMode {
			s.startNominationTimer()
		}
	}
	s.broadcast(EventTypeStart, struct{}{})
}

// pause returns to PAUSED and clears both timers.
func (s *Session) pause() {
	if s.state == StateComplete {
		return
	}
	s.state = StatePaused
	s.stopBidTimer()
	s.stopNominationTimer()
	s.broadcast(EventTypePaused, struct{}{})
}

func (s *Session) handleJoin(msg joinMsg) {
	if _, known := s.clients[msg.ClientID]; !known {
		s.clients[msg.ClientID] = msg.TeamID
		if s.connected[msg.TeamID] == nil {
			s.connected[msg.TeamID] = make(map[string]uuid.UUID)
		}
		s.connected[msg.TeamID][msg.ClientID] = msg.UserID
		s.broadcast(EventTypeConnected, ConnectedPayload{ConnectedUserIDs: s.connectedUsers()})
	}
	s.sendTo(msg.ClientID, EventTypeInit, s.initPayload())
}

func (s *Session) handleLeave(msg leaveMsg) {
	teamID, known := s.clients[msg.ClientID]
	if !known {
		return
	}
	delete(s.clients, msg.ClientID)
	if conns := s.connected[teamID]; conns != nil {
		delete(conns, msg.ClientID)
		if len(conns) == 0 {
			delete(s.connected, teamID)
			if s.pauseOnDisconnect {
				s.pause()
			}
		}
	}
	s.broadcast(EventTypeConnected, ConnectedPayload{ConnectedUserIDs: s.connectedUsers()})

	if len(s.clients) == 0 {
		log.Info().Str("league_id", s.leagueID.String()).Msg("last participant disconnected")
		if s.onEmpty != nil {
			s.onEmpty()
		}
	}
}

// handleNominate puts a player up for bid.
func (s *Session) handleNominate(env Envelope) {
	if s.state != StateAwaitingNomination {
		s.sendError(env.ClientID, ReasonInvalidNomination)
		return
	}

	isCommissioner := env.UserID == s.league.CommissionerID
	turnTeam, hasTurn := nominatingTeamID(s.txns, s.order, s.hasOpenSlot)
	legal := (hasTurn && turnTeam == env.TeamID) ||
		(s.nomTimerExpired && isCommissioner) ||
		(s.slowMode && isCommissioner)
	if !legal {
		s.sendError(env.ClientID, ReasonInvalidNomination)
		return
	}

	if env.PlayerID == nil {
		s.sendError(env.ClientID, ReasonInvalidNomination)
		return
	}
	player, err := s.deps.Repo.GetPlayer(s.ctx, *env.PlayerID)
	if err != nil {
		s.sendError(env.ClientID, ReasonInvalidNomination)
		return
	}

	rostered, err := s.deps.Repo.RosteredPlayerIDs(s.ctx, s.leagueID, s.league.Season)
	if err != nil {
		log.Error().Err(err).Str("league_id", s.leagueID.String()).Msg("failed to load rostered players")
		s.sendError(env.ClientID, ReasonProcessingError)
		return
	}
	if rostered[player.ID] {
		s.sendError(env.ClientID, ReasonInvalidNomination)
		return
	}

	snap := s.teams[env.TeamID]
	if snap == nil {
		s.sendError(env.ClientID, ReasonInvalidNomination)
		return
	}
	if !snap.HasOpenSlot(player.Category) {
		s.sendError(env.ClientID, ReasonRosterLimit)
		return
	}

	value := 0
	if env.Value != nil {
		value = *env.Value
	}
	if value < 0 || value > snap.RemainingCap {
		s.sendError(env.ClientID, ReasonSalaryLimit)
		return
	}

	txn, err := s.deps.Repo.CreateTransaction(s.ctx, ledger.CreateTransactionRequest{
		UserID:   env.UserID,
		TeamID:   env.TeamID,
		PlayerID: player.ID,
		LeagueID: s.leagueID,
		Value:    value,
		Year:     s.league.Season,
		Kind:     models.TransactionKindBid,
	})
	if err != nil {
		log.Error().Err(err).Str("league_id", s.leagueID.String()).Msg("failed to persist nomination")
		s.sendError(env.ClientID, ReasonProcessingError)
		return
	}

	s.txns = append([]models.Transaction{*txn}, s.txns...)
	s.nominated = player
	s.stopNominationTimer()
	s.nomTimerExpired = false
	s.state = StateAwaitingBid

	log.Info().
		Str("league_id", s.leagueID.String()).
		Str("team_id", env.TeamID.String()).
		Str("player_id", player.ID.String()).
		Int("value", value).
		Msg("nomination accepted")
	s.broadcast(EventTypeBid, BidPayload{Transaction: *txn})

	if s.slowMode {
		state := slowmode.NominationState{
			LeagueID:        s.leagueID,
			PlayerID:        player.ID,
			InitialBid:      value,
			CurrentBid:      value,
			CurrentBidderID: env.TeamID,
			EligibleTeamIDs: s.eligibleTeams(value, env.TeamID, player.Category),
		}
		if err := s.deps.Coordinator.Open(s.ctx, state); err != nil {
			// Fall back to a normal bid timer rather than leaving the
			// nomination permanently stuck.
			log.Error().Err(err).Str("league_id", s.leagueID.String()).Msg("slow-mode init failed, falling back to bid timer")
			s.startBidTimer()
			return
		}
		s.broadcast(EventTypeSlowModeStateUpdate, SlowModeStatePayload{State: state})
		if state.Complete() {
			s.sold(env.ClientID)
		}
		return
	}

	s.startBidTimer()
}

// handleBid processes a raise on the open nomination.
func (s *Session) handleBid(env Envelope) {
	if s.state != StateAwaitingBid {
		s.sendError(env.ClientID, ReasonInvalidBid)
		return
	}

	// In normal mode the bid timer is restarted on every rejection as
	// well as every acceptance. Inherited behavior: a flood of invalid
	// bids can delay resolution indefinitely.
	rejectBid := func(code ReasonCode) {
		s.sendError(env.ClientID, code)
		if !s.slowMode {
			s.startBidTimer()
		}
	}

	top := s.txns[0]
	if env.PlayerID == nil || *env.PlayerID != top.PlayerID {
		rejectBid(ReasonInvalidBid)
		return
	}
	if env.Value == nil {
		rejectBid(ReasonInvalidBid)
		return
	}
	value := *env.Value

	snap := s.teams[env.TeamID]
	if snap == nil {
		rejectBid(ReasonInvalidBid)
		return
	}
	player, err := s.openNominationPlayer()
	if err != nil {
		log.Error().Err(err).Str("league_id", s.leagueID.String()).Msg("failed to load nominated player")
		rejectBid(ReasonProcessingError)
		return
	}
	if snap.RemainingCap < value {
		rejectBid(ReasonSalaryLimit)
		return
	}
	if !snap.HasOpenSlot(player.Category) {
		rejectBid(ReasonRosterLimit)
		return
	}
	minIncrement := s.league.AuctionSettings.MinBidIncrement
	if minIncrement < 1 {
		minIncrement = 1
	}
	if value < top.Value+minIncrement {
		rejectBid(ReasonInvalidBid)
		return
	}

	txn, err := s.deps.Repo.CreateTransaction(s.ctx, ledger.CreateTransactionRequest{
		UserID:   env.UserID,
		TeamID:   env.TeamID,
		PlayerID: top.PlayerID,
		LeagueID: s.leagueID,
		Value:    value,
		Year:     s.league.Season,
		Kind:     models.TransactionKindBid,
	})
	if err != nil {
		log.Error().Err(err).Str("league_id", s.leagueID.String()).Msg("failed to persist bid")
		rejectBid(ReasonProcessingError)
		return
	}

	s.txns = append([]models.Transaction{*txn}, s.txns...)
	log.Info().
		Str("league_id", s.leagueID.String()).
		Str("team_id", env.TeamID.String()).
		Int("value", value).
		Msg("bid accepted")
	s.broadcast(EventTypeBid, BidPayload{Transaction: *txn})

	if s.slowMode {
		s.slowModeBidUpdate(env, value, player)
		return
	}
	s.startBidTimer()
}

// slowModeBidUpdate recomputes eligibility at the new price and clears
// all previously recorded passes.
func (s *Session) slowModeBidUpdate(env Envelope, value int, player *models.Player) {
	initial := value
	if prev, err := s.deps.Coordinator.Get(s.ctx, s.leagueID, player.ID); err == nil {
		initial = prev.InitialBid
	}

	state := slowmode.NominationState{
		LeagueID:        s.leagueID,
		PlayerID:        player.ID,
		InitialBid:      initial,
		CurrentBid:      value,
		CurrentBidderID: env.TeamID,
		EligibleTeamIDs: s.eligibleTeams(value, env.TeamID, player.Category),
		PassedTeamIDs:   nil,
	}
	if err := s.deps.Coordinator.Update(s.ctx, state); err != nil {
		log.Error().Err(err).Str("league_id", s.leagueID.String()).Msg("failed to update slow-mode state")
		return
	}
	s.broadcast(EventTypeSlowModeStateUpdate, SlowModeStatePayload{State: state})
	if state.Complete() {
		s.sold(env.ClientID)
	}
}

// handlePass records an explicit slow-mode pass.
func (s *Session) handlePass(env Envelope) {
	if !s.slowMode || s.state != StateAwaitingBid {
		s.sendError(env.ClientID, ReasonInvalidBid)
		return
	}

	top := s.txns[0]
	if env.PlayerID == nil || *env.PlayerID != top.PlayerID {
		s.sendError(env.ClientID, ReasonInvalidBid)
		return
	}

	state, err := s.deps.Coordinator.Get(s.ctx, s.leagueID, top.PlayerID)
	if err != nil {
		log.Error().Err(err).Str("league_id", s.leagueID.String()).Msg("failed to load slow-mode state")
		s.sendError(env.ClientID, ReasonProcessingError)
		return
	}
	if env.TeamID == state.CurrentBidderID {
		s.sendError(env.ClientID, ReasonInvalidBid)
		return
	}

	snap := s.teams[env.TeamID]
	if snap == nil {
		s.sendError(env.ClientID, ReasonInvalidBid)
		return
	}
	player, err := s.openNominationPlayer()
	if err != nil {
		s.sendError(env.ClientID, ReasonProcessingError)
		return
	}
	if snap.RemainingCap < state.CurrentBid {
		s.sendError(env.ClientID, ReasonSalaryLimit)
		return
	}
	if !snap.HasOpenSlot(player.Category) {
		s.sendError(env.ClientID, ReasonRosterLimit)
		return
	}

	updated, err := s.deps.Coordinator.RecordPass(s.ctx, s.leagueID, top.PlayerID, env.TeamID)
	if err != nil {
		log.Error().Err(err).Str("league_id", s.leagueID.String()).Msg("failed to record pass")
		s.sendError(env.ClientID, ReasonProcessingError)
		return
	}

	s.broadcast(EventTypeSlowModeStateUpdate, SlowModeStatePayload{State: *updated})
	if updated.Complete() {
		s.sold(env.ClientID)
	}
}

// sold resolves the open nomination: the top bid wins. Invoked by bid
// timer expiry or slow-mode completion, always on the run loop.
func (s *Session) sold(actorClientID string) {
	if len(s.txns) == 0 || s.txns[0].Kind != models.TransactionKindBid {
		log.Warn().Str("league_id", s.leagueID.String()).Msg("sold invoked with no open nomination")
		return
	}
	top := s.txns[0]

	// Processing failures notify the actor and restart the bid timer so
	// the auction self-heals on the next timeout. Partial writes are
	// not rolled back. The timer is armed even in slow mode: every
	// eligible team has already passed or been outpriced, so without a
	// timeout nothing would ever retry the resolution.
	fail := func(err error, what string) {
		log.Error().Err(err).
			Str("league_id", s.leagueID.String()).
			Str("player_id", top.PlayerID.String()).
			Msg(what)
		if actorClientID != "" {
			s.sendError(actorClientID, ReasonProcessingError)
		}
		s.startBidTimer()
	}

	player, err := s.openNominationPlayer()
	if err != nil {
		fail(err, "failed to load winning player")
		return
	}

	// Re-validate: capacity may have changed since the bid was accepted.
	snap := s.teams[top.TeamID]
	if snap == nil || snap.RemainingCap < top.Value || !snap.HasOpenSlot(player.Category) {
		fail(reject(ReasonProcessingError), "winning team failed re-validation")
		return
	}

	roster, err := s.deps.Repo.CreateRoster(s.ctx, ledger.CreateRosterRequest{
		FantasyTeamID: top.TeamID,
		PlayerID:      top.PlayerID,
		LeagueID:      s.leagueID,
		Slot:          models.RosterSlotBench,
		Position:      player.Position,
		Year:          s.league.Season,
		Week:          models.AuctionWeek,
	})
	if err != nil {
		fail(err, "failed to persist roster row")
		return
	}

	if err := s.deps.Repo.DecrementTeamCap(s.ctx, top.TeamID, top.Value); err != nil {
		fail(err, "failed to persist cap decrement")
		return
	}

	sale, err := s.deps.Repo.CreateTransaction(s.ctx, ledger.CreateTransactionRequest{
		UserID:   top.UserID,
		TeamID:   top.TeamID,
		PlayerID: top.PlayerID,
		LeagueID: s.leagueID,
		Value:    top.Value,
		Year:     s.league.Season,
		Kind:     models.TransactionKindSale,
	})
	if err != nil {
		fail(err, "failed to persist sale")
		return
	}

	// Cache mutations run only after every store write succeeded, so a
	// failed attempt followed by a timer-driven retry charges the team
	// exactly once.
	snap.RemainingCap -= top.Value
	if snap.OpenSlots[player.Category] > 0 {
		snap.OpenSlots[player.Category]--
	}

	s.txns = append([]models.Transaction{*sale}, s.txns...)
	s.nominated = nil
	s.stopBidTimer()

	if s.slowMode {
		if err := s.deps.Coordinator.Close(s.ctx, s.leagueID, top.PlayerID); err != nil {
			log.Warn().Err(err).Str("league_id", s.leagueID.String()).Msg("failed to close slow-mode state")
		}
	}

	log.Info().
		Str("league_id", s.leagueID.String()).
		Str("team_id", top.TeamID.String()).
		Str("player_id", top.PlayerID.String()).
		Int("value", top.Value).
		Msg("sale processed")
	s.broadcast(EventTypeProcessed, ProcessedPayload{
		Sale:         *sale,
		Roster:       *roster,
		TeamCapacity: *snap.Clone(),
	})

	next, ok := nominatingTeamID(s.txns, s.order, s.hasOpenSlot)
	if !ok {
		endedAt := s.deps.Clock.Now()
		if err := s.deps.Repo.SetAuctionEnded(s.ctx, s.leagueID, endedAt); err != nil {
			log.Error().Err(err).Str("league_id", s.leagueID.String()).Msg("failed to persist auction end time")
		}
		s.state = StateComplete
		s.broadcast(EventTypeComplete, CompletePayload{EndedAt: endedAt})
		return
	}

	s.state = StateAwaitingNomination
	s.broadcast(EventTypeNominationInfo, NominationInfoPayload{NominatingTeamID: next})
	if !s.slowMode {
		// Slow mode stays suspended; the next nomination arrives on a
		// team's turn or by commissioner force-nominate.
		s.startNominationTimer()
	}
}

func (s *Session) handleTimerFired(msg timerFiredMsg) {
	switch msg.Kind {
	case timerBid:
		if msg.Gen != s.bidGen || s.state != StateAwaitingBid {
			return
		}
		log.Info().Str("league_id", s.leagueID.String()).Msg("bid timer expired, resolving sale")
		s.sold("")
	case timerNomination:
		if msg.Gen != s.nomGen || s.state != StateAwaitingNomination {
			return
		}
		log.Info().Str("league_id", s.leagueID.String()).Msg("nomination timer expired")
		s.nomTimerExpired = true
	}
}

// Timers are single-shot, cancellable, and exclusive per kind: starting
// one clears any prior instance, and a generation counter drops fires
// from a cancelled instance that already left the clock.

func (s *Session) startBidTimer() {
	s.stopBidTimer()
	gen := s.bidGen
	s.bidTimer = s.deps.Clock.AfterFunc(s.bidTimerDur, func() {
		s.post(timerFiredMsg{Kind: timerBid, Gen: gen})
	})
}

func (s *Session) stopBidTimer() {
	if s.bidTimer != nil {
		s.bidTimer.Stop()
		s.bidTimer = nil
	}
	s.bidGen++
}

func (s *Session) startNominationTimer() {
	s.stopNominationTimer()
	gen := s.nomGen
	s.nomTimer = s.deps.Clock.AfterFunc(s.nomTimerDur, func() {
		s.post(timerFiredMsg{Kind: timerNomination, Gen: gen})
	})
}

func (s *Session) stopNominationTimer() {
	if s.nomTimer != nil {
		s.nomTimer.Stop()
		s.nomTimer = nil
	}
	s.nomGen++
}

// eligibleTeams computes the slow-mode interested set at a price: every
// team with cap covering the bid and an open slot, excluding the
// current high bidder.
func (s *Session) eligibleTeams(bid int, bidderID uuid.UUID, category string) []uuid.UUID {
	var eligible []uuid.UUID
	for _, id := range s.order {
		if id == bidderID {
			continue
		}
		snap := s.teams[id]
		if snap == nil {
			continue
		}
		if snap.RemainingCap >= bid && snap.HasOpenSlot(category) {
			eligible = append(eligible, id)
		}
	}
	return eligible
}

// openNominationPlayer returns the player of the open nomination,
// fetching it when the session was rebuilt mid-auction.
func (s *Session) openNominationPlayer() (*models.Player, error) {
	if s.nominated != nil {
		return s.nominated, nil
	}
	if len(s.txns) == 0 || s.txns[0].Kind != models.TransactionKindBid {
		return nil, fmt.Errorf("no open nomination")
	}
	player, err := s.deps.Repo.GetPlayer(s.ctx, s.txns[0].PlayerID)
	if err != nil {
		return nil, err
	}
	s.nominated = player
	return player, nil
}

func (s *Session) hasOpenSlot(teamID uuid.UUID) bool {
	snap := s.teams[teamID]
	return snap != nil && snap.TotalOpenSlots() > 0
}

func (s *Session) anyOpenSlot() bool {
	for _, id := range s.order {
		if s.hasOpenSlot(id) {
			return true
		}
	}
	return false
}

func (s *Session) connectedUsers() map[string][]uuid.UUID {
	out := make(map[string][]uuid.UUID, len(s.connected))
	for teamID, conns := range s.connected {
		for _, userID := range conns {
			out[teamID.String()] = append(out[teamID.String()], userID)
		}
	}
	return out
}

func (s *Session) initPayload() InitPayload {
	teams := make([]TeamView, 0, len(s.teamList))
	for _, t := range s.teamList {
		view := TeamView{Team: t}
		if snap := s.teams[t.ID]; snap != nil {
			c := snap.Clone()
			view.RemainingCap = c.RemainingCap
			view.OpenSlots = c.OpenSlots
		}
		teams = append(teams, view)
	}

	payload := InitPayload{
		Transactions:       append([]models.Transaction(nil), s.txns...),
		Paused:             s.state == StatePaused,
		DraftOrder:         append([]uuid.UUID(nil), s.order...),
		Teams:              teams,
		ConnectedUserIDs:   s.connectedUsers(),
		BidTimerSec:        int(s.bidTimerDur / time.Second),
		NominationTimerSec: int(s.nomTimerDur / time.Second),
		Complete:           s.state == StateComplete,
		SlowMode:           s.slowMode,
		PauseOnDisconnect:  s.pauseOnDisconnect,
	}
	if nominator, ok := nominatingTeamID(s.txns, s.order, s.hasOpenSlot); ok {
		payload.NominatingTeamID = &nominator
	}
	if s.slowMode && len(s.txns) > 0 && s.txns[0].Kind == models.TransactionKindBid {
		if state, err := s.deps.Coordinator.Get(s.ctx, s.leagueID, s.txns[0].PlayerID); err == nil {
			payload.SlowModeState = state
		}
	}
	return payload
}

func (s *Session) stateView() StateView {
	teams := make(map[uuid.UUID]capacity.Snapshot, len(s.teams))
	for id, snap := range s.teams {
		teams[id] = *snap.Clone()
	}
	view := StateView{
		State:            s.state,
		Transactions:     append([]models.Transaction(nil), s.txns...),
		Teams:            teams,
		DraftOrder:       append([]uuid.UUID(nil), s.order...),
		ConnectedClients: len(s.clients),
		NomTimerExpired:  s.nomTimerExpired,
	}
	if nominator, ok := nominatingTeamID(s.txns, s.order, s.hasOpenSlot); ok {
		view.NominatingTeamID = &nominator
	}
	return view
}

func (s *Session) broadcast(eventType EventType, payload any) {
	s.publish(Outbound{Event: newEvent(s.leagueID, eventType, s.deps.Clock.Now(), payload)})
}

func (s *Session) sendTo(clientID string, eventType EventType, payload any) {
	s.publish(Outbound{
		Event:    newEvent(s.leagueID, eventType, s.deps.Clock.Now(), payload),
		ClientID: clientID,
	})
}

func (s *Session) sendError(clientID string, code ReasonCode) {
	if clientID == "" {
		return
	}
	s.sendTo(clientID, EventTypeError, ErrorPayload{Code: code})
}

// publish enqueues an outbound event. Core transitions never block on
// delivery; a full queue drops the event with a warning.
func (s *Session) publish(out Outbound) {
	select {
	case s.outbound <- out:
	default:
		log.Warn().
			Str("league_id", s.leagueID.String()).
			Str("event_type", string(out.Event.Type)).
			Msg("outbound queue full, dropping event")
	}
}

// forward drains the outbound queue to the broadcaster and the
// best-effort notification dispatcher.
func (s *Session) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case out := <-s.outbound:
			if s.deps.Broadcaster != nil {
				if out.ClientID != "" {
					s.deps.Broadcaster.SendTo(out.ClientID, out.Event)
				} else {
					s.deps.Broadcaster.Broadcast(s.leagueID, out.Event)
				}
			}
			if out.ClientID == "" {
				s.dispatchAlert(out.Event)
			}
		}
	}
}

func (s *Session) dispatchAlert(event *Event) {
	var kind string
	switch event.Type {
	case EventTypeProcessed:
		kind = "sale"
	case EventTypeNominationInfo:
		kind = "nomination"
	case EventTypeComplete:
		kind = "complete"
	default:
		return
	}
	s.deps.Dispatcher.Dispatch(s.ctx, notify.Alert{
		LeagueID: s.leagueID,
		Kind:     kind,
		Message:  string(event.Data),
	})
}

func (s *Session) shutdown() {
	s.stopBidTimer()
	s.stopNominationTimer()
	s.Stop()
	log.Info().Str("league_id", s.leagueID.String()).Msg("auction session stopped")
}
