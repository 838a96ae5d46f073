package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/auctionhouse/go/internal/auction"
	"github.com/mcdev12/auctionhouse/go/internal/capacity"
	"github.com/mcdev12/auctionhouse/go/internal/gateway"
	"github.com/mcdev12/auctionhouse/go/internal/ledger"
	"github.com/mcdev12/auctionhouse/go/internal/notify"
	"github.com/mcdev12/auctionhouse/go/internal/slowmode"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Repo        ledger.Repository
	Coordinator slowmode.Coordinator
	Registry    *auction.Registry
	Gateway     *gateway.Service

	kvCoordinator *slowmode.KVCoordinator
}

func setupServices(ctx context.Context, pool *pgxpool.Pool, config *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Store layer → capacity model → session registry → gateway

	repo := ledger.NewPostgresRepository(pool)
	capModel := capacity.NewModel(repo)

	s := &Services{Repo: repo}

	// Slow-mode state must survive restarts, so it lives in a JetStream
	// KV bucket. Without a NATS URL we fall back to in-process state,
	// which is fine for a single-node dev setup.
	var dispatcher notify.Dispatcher = notify.NopDispatcher{}
	if config.NATS.URL != "" {
		kvConfig := slowmode.DefaultKVConfig()
		kvConfig.URL = config.NATS.URL
		if config.NATS.Bucket != "" {
			kvConfig.BucketName = config.NATS.Bucket
		}
		kv, err := slowmode.NewKVCoordinator(ctx, kvConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create slow-mode coordinator: %w", err)
		}
		s.kvCoordinator = kv
		s.Coordinator = kv
		dispatcher = notify.NewNATSDispatcher(kv.Conn(), "auction.alerts")
	} else {
		log.Warn().Msg("NATS_URL not set, slow-mode state will not survive restarts")
		s.Coordinator = slowmode.NewMemoryCoordinator()
	}

	connConfig := gateway.DefaultConnectionConfig()
	connConfig.WriteTimeout = config.gatewayTimeout(config.Gateway.WriteTimeoutSec, connConfig.WriteTimeout)
	connConfig.ReadTimeout = config.gatewayTimeout(config.Gateway.ReadTimeoutSec, connConfig.ReadTimeout)
	connConfig.PingInterval = config.gatewayTimeout(config.Gateway.PingIntervalSec, connConfig.PingInterval)
	if config.Gateway.MaxMessageBytes > 0 {
		connConfig.MaxMessageSize = config.Gateway.MaxMessageBytes
	}
	connectionManager := gateway.NewConnectionManager(connConfig)

	s.Registry = auction.NewRegistry(auction.Deps{
		Repo:        repo,
		Capacity:    capModel,
		Coordinator: s.Coordinator,
		Dispatcher:  dispatcher,
		Broadcaster: connectionManager,
		Clock:       clockwork.NewRealClock(),
	})

	s.Gateway = gateway.NewService(gateway.Config{ConnectionConfig: connConfig}, connectionManager, s.Registry)
	return s, nil
}

// Shutdown releases external connections.
func (s *Services) Shutdown() {
	s.Registry.Shutdown()
	if s.kvCoordinator != nil {
		s.kvCoordinator.Shutdown()
	}
}
