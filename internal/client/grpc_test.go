package client

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/raderre/cresite/internal/events"
	"github.com/raderre/cresite/internal/server"
)

// newBufconnClient runs a listings server without a store in memory and
// connects a GRPCClient to it.
func newBufconnClient(t *testing.T, token string, opts ...grpc.DialOption) (*GRPCClient, *server.ListingsServer) {
	t.Helper()
	ls := server.NewListingsServer(nil, events.NoopPublisher{}, server.Options{})
	lis := bufconn.Listen(1024 * 1024)
	srv := server.NewGRPCServer(ls, token)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	opts = append(opts,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	conn, err := grpc.NewClient("passthrough:///bufconn", opts...)
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	c := newGRPCClient(conn)
	t.Cleanup(func() { c.Close() })
	return c, ls
}

func TestGRPCClient_FeaturedEmpty(t *testing.T) {
	c, _ := newBufconnClient(t, "")
	props, err := c.FeaturedProperties(context.Background(), 6)
	if err != nil {
		t.Fatalf("FeaturedProperties: %v", err)
	}
	if len(props) != 0 {
		t.Fatalf("expected empty feed, got %d", len(props))
	}
}

func TestGRPCClient_IngestNeedsToken(t *testing.T) {
	c, _ := newBufconnClient(t, "secret")
	_, err := c.IngestProperty(context.Background(), &PropertyRequest{Title: "A", Address: "B"})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
}

func TestGRPCClient_SubscribeRejectsOtherTopics(t *testing.T) {
	c, _ := newBufconnClient(t, "")
	if _, _, err := c.Subscribe(events.TopicBlogCreated); err == nil {
		t.Fatal("expected error for unsupported topic")
	}
}

func TestGRPCClient_SubscribeCancel(t *testing.T) {
	c, _ := newBufconnClient(t, "")
	ch, cancel, err := c.Subscribe(events.TopicPropertyCreated)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestBearerToken(t *testing.T) {
	md, err := bearerToken("s3cret").GetRequestMetadata(context.Background())
	if err != nil {
		t.Fatalf("GetRequestMetadata: %v", err)
	}
	if md["authorization"] != "Bearer s3cret" {
		t.Fatalf("authorization = %q", md["authorization"])
	}
	if bearerToken("x").RequireTransportSecurity() {
		t.Fatal("expected plaintext allowed")
	}
}
