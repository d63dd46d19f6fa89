package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/raderre/cresite/internal/events"
	"github.com/raderre/cresite/internal/feed"
	"github.com/raderre/cresite/internal/model"
	"github.com/raderre/cresite/internal/store"
)

// Options configures a ListingsServer. The zero value is usable.
type Options struct {
	// FeaturedLimit caps the featured feed; non-positive means feed.DefaultLimit.
	FeaturedLimit int

	// FeedSubscriber delivers property inserts to the featured feed. When nil
	// the feed follows this process's own hub, so only inserts made through
	// this server are seen.
	FeedSubscriber events.Subscriber

	// WebhookToken guards POST /v1/webhooks/properties. Empty disables the check.
	WebhookToken string
}

// ListingsServer serves properties, blog posts and the live featured feed
// over HTTP, SSE, WebSocket and gRPC.
type ListingsServer struct {
	store        store.Store
	publisher    events.Publisher
	sseHub       *sseHub
	feed         *feed.Feed
	feedSub      events.Subscriber
	webhookToken string

	// now is the clock used for created/updated/received timestamps.
	now func() time.Time
}

// NewListingsServer returns a server backed by the given store and publisher.
func NewListingsServer(s store.Store, p events.Publisher, opts Options) *ListingsServer {
	hub := newSSEHub()
	sub := opts.FeedSubscriber
	if sub == nil {
		sub = hubSubscriber{hub: hub}
	}
	return &ListingsServer{
		store:        s,
		publisher:    p,
		sseHub:       hub,
		feed:         feed.New(s, sub, opts.FeaturedLimit),
		feedSub:      sub,
		webhookToken: opts.WebhookToken,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Feed exposes the featured feed, mainly for tests and the serve command.
func (s *ListingsServer) Feed() *feed.Feed { return s.feed }

// LoadFeatured runs the featured feed's initial query.
func (s *ListingsServer) LoadFeatured(ctx context.Context) {
	s.feed.InitialLoad(ctx)
}

// RunFeed follows property inserts until ctx is done. Call LoadFeatured first.
func (s *ListingsServer) RunFeed(ctx context.Context) error {
	return s.feed.Run(ctx)
}

// Close stops the featured feed.
func (s *ListingsServer) Close() {
	s.feed.Close()
}

// recordAndPublish persists an event, publishes it on the bus and fans it
// out to SSE clients. Every step is best-effort; failures are logged and
// never reach the caller.
func (s *ListingsServer) recordAndPublish(ctx context.Context, topic, subjectID, actor string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to marshal event", "topic", topic, "subject_id", subjectID, "error", err)
		return
	}
	if err := s.store.RecordEvent(ctx, &model.Event{
		Topic:     topic,
		SubjectID: subjectID,
		Actor:     actor,
		Payload:   payload,
	}); err != nil {
		slog.Warn("failed to record event", "topic", topic, "subject_id", subjectID, "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "subject_id", subjectID, "error", err)
	}
	s.sseHub.broadcast(topic, payload)
}

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }
