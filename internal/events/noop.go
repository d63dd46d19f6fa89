package events

import "context"

// NoopPublisher discards every event. The server uses it when no NATS URL is
// configured; in-process consumers are fed by the server's own hub instead.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, topic string, event any) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
