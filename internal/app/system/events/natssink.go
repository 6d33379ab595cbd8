package events

import (
	"context"

	"github.com/nats-io/nats.go"
)

// NATSSink publishes each event on the subject prefix + event name using
// core NATS (at-most-once, no JetStream persistence).
type NATSSink struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSSink returns a sink over conn. The connection is owned by the caller.
func NewNATSSink(conn *nats.Conn, prefix string) *NATSSink {
	return &NATSSink{conn: conn, prefix: prefix}
}

func (s *NATSSink) Name() string { return "nats" }

// Subject returns the subject an event is published on.
func (s *NATSSink) Subject(event string) string { return s.prefix + event }

func (s *NATSSink) Send(ctx context.Context, event string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.conn.Publish(s.Subject(event), body)
}
