package slowmode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// KVConfig holds configuration for the JetStream-backed coordinator.
type KVConfig struct {
	URL        string
	BucketName string
	Replicas   int
}

// DefaultKVConfig returns default coordinator configuration.
func DefaultKVConfig() KVConfig {
	return KVConfig{
		URL:        nats.DefaultURL,
		BucketName: "slow_mode_nominations",
		Replicas:   1,
	}
}

// KVCoordinator stores slow-mode nomination state in a JetStream
// KeyValue bucket so open nominations survive process restarts.
type KVCoordinator struct {
	nc *nats.Conn
	kv jetstream.KeyValue
}

// NewKVCoordinator connects to NATS and creates or binds the bucket.
func NewKVCoordinator(ctx context.Context, config KVConfig) (*KVCoordinator, error) {
	nc, err := nats.Connect(config.URL,
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      config.BucketName,
		Description: "Live slow-mode auction nomination state",
		Replicas:    config.Replicas,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create KV bucket: %w", err)
	}

	return &KVCoordinator{nc: nc, kv: kv}, nil
}

func kvKey(leagueID, playerID uuid.UUID) string {
	return leagueID.String() + "." + playerID.String()
}

func (c *KVCoordinator) Open(ctx context.Context, state NominationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal nomination state: %w", err)
	}
	if _, err := c.kv.Put(ctx, kvKey(state.LeagueID, state.PlayerID), data); err != nil {
		return fmt.Errorf("put nomination state: %w", err)
	}
	return nil
}

func (c *KVCoordinator) Get(ctx context.Context, leagueID, playerID uuid.UUID) (*NominationState, error) {
	entry, err := c.kv.Get(ctx, kvKey(leagueID, playerID))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, ErrNoNomination
	}
	if err != nil {
		return nil, fmt.Errorf("get nomination state: %w", err)
	}

	var state NominationState
	if err := json.Unmarshal(entry.Value(), &state); err != nil {
		return nil, fmt.Errorf("unmarshal nomination state: %w", err)
	}
	return &state, nil
}

func (c *KVCoordinator) Update(ctx context.Context, state NominationState) error {
	return c.Open(ctx, state)
}

func (c *KVCoordinator) RecordPass(ctx context.Context, leagueID, playerID, teamID uuid.UUID) (*NominationState, error) {
	state, err := c.Get(ctx, leagueID, playerID)
	if err != nil {
		return nil, err
	}
	if !state.HasPassed(teamID) {
		state.PassedTeamIDs = append(state.PassedTeamIDs, teamID)
	}
	if err := c.Update(ctx, *state); err != nil {
		return nil, err
	}
	return state, nil
}

func (c *KVCoordinator) Close(ctx context.Context, leagueID, playerID uuid.UUID) error {
	if err := c.kv.Delete(ctx, kvKey(leagueID, playerID)); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete nomination state: %w", err)
	}
	return nil
}

// Conn exposes the underlying NATS connection so other publishers can
// share it.
func (c *KVCoordinator) Conn() *nats.Conn {
	return c.nc
}

// Shutdown closes the NATS connection.
func (c *KVCoordinator) Shutdown() {
	if c.nc != nil {
		c.nc.Close()
	}
}
