package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/raderre/cresite/internal/events"
	"github.com/raderre/cresite/internal/listingsrpc"
	"github.com/raderre/cresite/internal/model"
)

// GRPCClient reads the featured feed over gRPC. It implements both
// feed.Source and events.Subscriber, so a feed can run entirely on it.
type GRPCClient struct {
	conn   *grpc.ClientConn
	client listingsrpc.ListingsServiceClient

	mu      sync.Mutex
	cancels map[int]func()
	nextID  int
}

var _ events.Subscriber = (*GRPCClient)(nil)

// NewGRPCClient connects to the given gRPC address and returns a client.
// A non-empty token is sent as a bearer token on every call.
func NewGRPCClient(addr, token string) (*GRPCClient, error) {
	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if token != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(bearerToken(token)))
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return newGRPCClient(conn), nil
}

func newGRPCClient(conn *grpc.ClientConn) *GRPCClient {
	return &GRPCClient{
		conn:    conn,
		client:  listingsrpc.NewListingsServiceClient(conn),
		cancels: make(map[int]func()),
	}
}

// Close cancels open watches and closes the connection.
func (c *GRPCClient) Close() error {
	c.mu.Lock()
	stops := make([]func(), 0, len(c.cancels))
	for _, stop := range c.cancels {
		stops = append(stops, stop)
	}
	c.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
	return c.conn.Close()
}

// FeaturedProperties returns the server's featured snapshot, cut to limit
// when limit is positive.
func (c *GRPCClient) FeaturedProperties(ctx context.Context, limit int) ([]*model.Property, error) {
	lv, err := c.client.ListFeatured(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	props, err := listingsrpc.PropertiesFromList(lv)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(props) > limit {
		props = props[:limit]
	}
	return props, nil
}

func (c *GRPCClient) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	st, err := c.client.GetProperty(ctx, wrapperspb.String(id))
	if err != nil {
		return nil, err
	}
	return listingsrpc.PropertyFromStruct(st)
}

// IngestProperty stores a new property through the gRPC ingestion call.
func (c *GRPCClient) IngestProperty(ctx context.Context, req *PropertyRequest) (*model.Property, error) {
	in, err := listingsrpc.ToStruct(req)
	if err != nil {
		return nil, err
	}
	st, err := c.client.IngestProperty(ctx, in)
	if err != nil {
		return nil, err
	}
	return listingsrpc.PropertyFromStruct(st)
}

// Subscribe watches featured inserts. Only events.TopicPropertyCreated is
// available over gRPC, and only featured rows are delivered.
func (c *GRPCClient) Subscribe(topic string) (<-chan []byte, func(), error) {
	if topic != events.TopicPropertyCreated {
		return nil, nil, fmt.Errorf("topic %q is not available over gRPC", topic)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := c.client.WatchFeatured(ctx, &emptypb.Empty{})
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("watching featured: %w", err)
	}

	ch := make(chan []byte, sseBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(ch)
		for {
			msg, err := stream.Recv()
			if err != nil {
				if err != io.EOF && ctx.Err() == nil {
					slog.Warn("featured watch ended", "error", err)
				}
				return
			}
			data, err := listingsrpc.StructJSON(msg)
			if err != nil {
				slog.Warn("skipping unencodable insert", "error", err)
				continue
			}
			select {
			case ch <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
			c.mu.Lock()
			delete(c.cancels, id)
			c.mu.Unlock()
		})
	}
	c.cancels[id] = stop
	c.mu.Unlock()

	return ch, stop, nil
}

// bearerToken attaches "authorization: Bearer <token>" to every call.
type bearerToken string

func (t bearerToken) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(t)}, nil
}

// RequireTransportSecurity allows plaintext connections.
func (bearerToken) RequireTransportSecurity() bool { return false }
