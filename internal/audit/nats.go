package audit

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DefaultSubject is the NATS subject audit events are mirrored to.
const DefaultSubject = "securedocs.audit"

// NATSSink publishes audit events as JSON messages for downstream
// consumers (SIEM ingestion, alerting). Publish failures are logged and
// dropped; the Postgres record is the durable copy.
type NATSSink struct {
	conn    *nats.Conn
	subject string
	log     zerolog.Logger
}

// NewNATSSink wires a sink on an established connection. subject
// defaults to DefaultSubject when empty.
func NewNATSSink(conn *nats.Conn, subject string, log zerolog.Logger) *NATSSink {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSSink{conn: conn, subject: subject, log: log}
}

// Emit publishes one event.
func (s *NATSSink) Emit(_ context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Warn().Err(err).Str("action", event.Action).Msg("audit mirror encode failed")
		return
	}
	if err := s.conn.Publish(s.subject, payload); err != nil {
		s.log.Warn().Err(err).Str("action", event.Action).Msg("audit mirror publish failed")
	}
}
