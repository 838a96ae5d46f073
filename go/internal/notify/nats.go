package notify

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSDispatcher publishes alerts to a NATS subject per league so
// downstream formatters (email, push, chat bots) can fan out delivery.
type NATSDispatcher struct {
	nc            *nats.Conn
	subjectPrefix string
}

// NewNATSDispatcher creates a dispatcher over an existing connection.
func NewNATSDispatcher(nc *nats.Conn, subjectPrefix string) *NATSDispatcher {
	if subjectPrefix == "" {
		subjectPrefix = "auction.alerts"
	}
	return &NATSDispatcher{nc: nc, subjectPrefix: subjectPrefix}
}

// Dispatch publishes the alert. Failures are logged and swallowed.
func (d *NATSDispatcher) Dispatch(_ context.Context, alert Alert) {
	data, err := json.Marshal(alert)
	if err != nil {
		log.Error().Err(err).Str("league_id", alert.LeagueID.String()).Msg("failed to marshal alert")
		return
	}

	subject := d.subjectPrefix + "." + alert.LeagueID.String()
	if err := d.nc.Publish(subject, data); err != nil {
		log.Warn().
			Err(err).
			Str("league_id", alert.LeagueID.String()).
			Str("kind", alert.Kind).
			Msg("failed to dispatch alert")
	}
}
