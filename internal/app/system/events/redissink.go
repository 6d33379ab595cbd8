package events

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisSink publishes each event on a Redis Pub/Sub channel named
// prefix + event name.
type RedisSink struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisSink returns a sink over client. The client is owned by the caller.
func NewRedisSink(client redis.UniversalClient, prefix string) *RedisSink {
	return &RedisSink{client: client, prefix: prefix}
}

func (s *RedisSink) Name() string { return "redis" }

// Channel returns the channel an event is published on.
func (s *RedisSink) Channel(event string) string { return s.prefix + event }

func (s *RedisSink) Send(ctx context.Context, event string, body []byte) error {
	return s.client.Publish(ctx, s.Channel(event), body).Err()
}
