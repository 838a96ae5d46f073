package gateway

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/mcdev12/auctionhouse/go/internal/auction"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for auction connections
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	registry          *auction.Registry
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, registry *auction.Registry) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		registry:          registry,
	}
}

// HandleAuctionConnection handles WebSocket connections for a league auction
func (h *WebSocketHandler) HandleAuctionConnection(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := parseIDParam(w, r, "league_id")
	if !ok {
		return
	}
	teamID, ok := parseIDParam(w, r, "team_id")
	if !ok {
		return
	}
	// In production user identity would come from a JWT or session.
	userID, ok := parseIDParam(w, r, "user_id")
	if !ok {
		return
	}

	// Get-or-create the league session before upgrading, so a bad
	// league id fails as plain HTTP.
	session, err := h.registry.GetOrCreate(r.Context(), leagueID)
	if err != nil {
		log.Error().
			Err(err).
			Str("league_id", leagueID.String()).
			Msg("failed to create auction session")
		http.Error(w, "failed to load auction", http.StatusNotFound)
		return
	}

	conn, err := h.connectionManager.UpgradeConnection(w, r, leagueID, teamID, userID)
	if err != nil {
		log.Error().
			Err(err).
			Str("league_id", leagueID.String()).
			Str("user_id", userID.String()).
			Msg("failed to upgrade WebSocket connection")
		return
	}

	// Join replies with the INIT snapshot on this connection.
	session.Join(teamID, userID, conn.ID)
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		http.Error(w, name+" is required", http.StatusBadRequest)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "invalid "+name+" format", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	stats := h.connectionManager.GetConnectionStats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// Simple JSON response
	w.Write([]byte("{"))
	w.Write([]byte("\"total_connections\":" + strconv.Itoa(stats["total_connections"].(int)) + ","))
	w.Write([]byte("\"active_leagues\":" + strconv.Itoa(stats["active_leagues"].(int))))
	w.Write([]byte("}"))
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/auction", h.HandleAuctionConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
