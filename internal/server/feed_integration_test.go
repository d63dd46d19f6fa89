package server

import (
	"context"
	"net/http"
	"slices"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/raderre/cresite/internal/events"
	"github.com/raderre/cresite/internal/model"
)

// waitForFeed polls the feed until cond holds or the deadline passes.
func waitForFeed(t *testing.T, s *ListingsServer, cond func([]*model.Property) bool) []*model.Property {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := s.Feed().Snapshot()
		if cond(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("feed did not reach expected state; have %d items", len(snap))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func feedIDs(props []*model.Property) []string {
	ids := make([]string, 0, len(props))
	for _, p := range props {
		ids = append(ids, p.ID)
	}
	return ids
}

// startFeed loads and runs the server's feed until the test ends.
func startFeed(t *testing.T, s *ListingsServer) {
	t.Helper()
	s.LoadFeatured(context.Background())
	if err := s.Feed().Subscribe(); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.RunFeed(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		s.Close()
	})
}

func TestFeed_WebhookInsertsArePrepended(t *testing.T) {
	s, ms, h := newTestServer()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"prop-1", "prop-2", "prop-3", "prop-4", "prop-5", "prop-6"} {
		seedProperty(ms, id, true, base.Add(time.Duration(i)*time.Minute))
	}
	startFeed(t, s)

	initial := feedIDs(s.Feed().Snapshot())
	if want := []string{"prop-6", "prop-5", "prop-4", "prop-3", "prop-2", "prop-1"}; !slices.Equal(initial, want) {
		t.Fatalf("initial feed = %v, want %v", initial, want)
	}

	// A non-featured insert never enters the feed.
	rec := doJSON(t, h, "POST", "/v1/webhooks/properties", map[string]any{"title": "Plain", "address": "1 Side St"})
	requireStatus(t, rec, http.StatusCreated)

	rec = doJSON(t, h, "POST", "/v1/webhooks/properties", map[string]any{"title": "Hot", "address": "2 Main St", "featured": true})
	requireStatus(t, rec, http.StatusCreated)
	var hot model.Property
	decodeJSON(t, rec, &hot)

	snap := waitForFeed(t, s, func(p []*model.Property) bool { return len(p) > 0 && p[0].ID == hot.ID })
	got := feedIDs(snap)
	if want := []string{hot.ID, "prop-6", "prop-5", "prop-4", "prop-3", "prop-2"}; !slices.Equal(got, want) {
		t.Fatalf("feed = %v, want %v", got, want)
	}
}

func TestFeed_WebhookBatchKeepsInputOrder(t *testing.T) {
	s, _, h := newTestServer()
	startFeed(t, s)

	rec := doJSON(t, h, "POST", "/v1/webhooks/properties", map[string]any{
		"properties": []map[string]any{
			{"title": "A", "address": "1 A St", "featured": true},
			{"title": "B", "address": "2 B St", "featured": true},
		},
	})
	requireStatus(t, rec, http.StatusCreated)
	var resp struct {
		Properties []model.Property `json:"properties"`
	}
	decodeJSON(t, rec, &resp)
	if len(resp.Properties) != 2 {
		t.Fatalf("expected 2 created, got %d", len(resp.Properties))
	}
	if !resp.Properties[1].ReceivedAt.After(resp.Properties[0].ReceivedAt) {
		t.Fatal("expected later batch rows to be newer")
	}

	snap := waitForFeed(t, s, func(p []*model.Property) bool { return len(p) == 2 })
	if snap[0].Title != "B" || snap[1].Title != "A" {
		t.Fatalf("expected newest first [B A], got [%s %s]", snap[0].Title, snap[1].Title)
	}
}

func TestFeed_WebhookBatchIsAllOrNothing(t *testing.T) {
	s, ms, h := newTestServer()
	startFeed(t, s)

	rec := doJSON(t, h, "POST", "/v1/webhooks/properties", map[string]any{
		"properties": []map[string]any{
			{"title": "Good", "address": "1 A St", "featured": true},
			{"title": "", "address": "2 B St", "featured": true},
		},
	})
	requireStatus(t, rec, http.StatusBadRequest)
	if len(ms.properties) != 0 {
		t.Fatalf("expected nothing stored, have %d", len(ms.properties))
	}
	if n := len(s.Feed().Snapshot()); n != 0 {
		t.Fatalf("expected empty feed, have %d", n)
	}
}

func TestFeed_WebhookToken(t *testing.T) {
	ms := newMockStore()
	s := NewListingsServer(ms, &events.NoopPublisher{}, Options{WebhookToken: "hook"})
	h := s.NewHTTPHandler("admin-secret")

	body := map[string]any{"title": "T", "address": "A"}
	requireStatus(t, doJSON(t, h, "POST", "/v1/webhooks/properties", body), http.StatusUnauthorized)

	for _, hdr := range []struct{ key, val string }{
		{"X-Webhook-Token", "hook"},
		{"Authorization", "Bearer hook"},
	} {
		req := jsonRequest(t, "POST", "/v1/webhooks/properties", body)
		req.Header.Set(hdr.key, hdr.val)
		rec := serve(h, req)
		requireStatus(t, rec, http.StatusCreated)
	}

	req := jsonRequest(t, "POST", "/v1/webhooks/properties", body)
	req.Header.Set("X-Webhook-Token", "wrong")
	requireStatus(t, serve(h, req), http.StatusUnauthorized)
}

func TestFeed_FollowsNATS(t *testing.T) {
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	ns, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	ns.Start()
	t.Cleanup(ns.Shutdown)
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}

	pub, err := events.NewNATSPublisher(ns.ClientURL())
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	t.Cleanup(func() { pub.Close() })
	sub, err := events.NewNATSSubscriber(ns.ClientURL())
	if err != nil {
		t.Fatalf("subscriber: %v", err)
	}
	t.Cleanup(func() { sub.Close() })

	ms := newMockStore()
	s := NewListingsServer(ms, pub, Options{FeedSubscriber: sub})
	startFeed(t, s)

	// An insert published by another process reaches this feed.
	p := &model.Property{ID: "prop-remote", Title: "Remote", Address: "3 Far Rd", Featured: true, ReceivedAt: time.Now().UTC()}
	if err := pub.Publish(context.Background(), events.TopicPropertyCreated, events.PropertyCreated{New: p}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	snap := waitForFeed(t, s, func(p []*model.Property) bool { return len(p) == 1 })
	if snap[0].ID != "prop-remote" {
		t.Fatalf("expected prop-remote, got %s", snap[0].ID)
	}
}
