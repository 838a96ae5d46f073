package gateway

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/mcdev12/auctionhouse/go/internal/auction"
	"github.com/rs/zerolog/log"
)

// Service is the auction gateway: it owns the WebSocket connection
// manager and routes inbound commands to league sessions. Sessions
// publish back through the manager, which implements auction.Broadcaster.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	registry          *auction.Registry
}

// Config holds configuration for the auction gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
}

// DefaultConfig returns default configuration for the auction gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService wires the connection manager to a session registry. The
// registry must have been built with the same manager as its
// Broadcaster.
func NewService(config Config, cm *ConnectionManager, registry *auction.Registry) *Service {
	cm.SetCommandSink(
		func(env auction.Envelope) {
			if s := registry.Get(env.LeagueID); s != nil {
				s.Submit(env)
			}
		},
		func(leagueID uuid.UUID, clientID string) {
			if s := registry.Get(leagueID); s != nil {
				s.Leave(clientID)
			}
		},
	)

	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, registry),
		registry:          registry,
	}
}

// Start begins the gateway service and blocks until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting auction gateway service")

	go s.connectionManager.Start(ctx)

	<-ctx.Done()

	log.Info().Msg("auction gateway service shutting down")
	s.registry.Shutdown()
	return nil
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("auction gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() map[string]interface{} {
	stats := s.connectionManager.GetConnectionStats()
	stats["service"] = "auction_gateway"
	stats["status"] = "running"
	return stats
}
