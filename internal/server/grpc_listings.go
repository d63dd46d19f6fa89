package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/raderre/cresite/internal/events"
	"github.com/raderre/cresite/internal/listingsrpc"
)

var _ listingsrpc.ListingsServiceServer = (*ListingsServer)(nil)

// ListFeatured returns the featured feed snapshot.
func (s *ListingsServer) ListFeatured(_ context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	out := &structpb.ListValue{}
	for _, v := range viewProperties(s.feed.Snapshot()) {
		st, err := listingsrpc.ToStruct(v)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "encoding property: %v", err)
		}
		out.Values = append(out.Values, structpb.NewStructValue(st))
	}
	return out, nil
}

// GetProperty returns one property by ID.
func (s *ListingsServer) GetProperty(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	p, err := s.store.GetProperty(ctx, req.GetValue())
	if err != nil {
		return nil, grpcError(err, "property")
	}
	st, err := listingsrpc.ToStruct(propertyView{Property: p, DisplayPrice: p.DisplayPrice()})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding property: %v", err)
	}
	return st, nil
}

// IngestProperty stores a property sent by an external system.
func (s *ListingsServer) IngestProperty(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in propertyInput
	if err := listingsrpc.FromStruct(req, &in); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid property: %v", err)
	}
	p, err := s.createProperty(ctx, "grpc", in)
	if err != nil {
		return nil, grpcError(err, "property")
	}
	st, err := listingsrpc.ToStruct(p)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding property: %v", err)
	}
	return st, nil
}

// WatchFeatured streams every featured insert until the client goes away.
func (s *ListingsServer) WatchFeatured(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ch, cancel, err := s.feedSub.Subscribe(events.TopicPropertyCreated)
	if err != nil {
		return status.Errorf(codes.Unavailable, "subscribing: %v", err)
	}
	defer cancel()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return status.Error(codes.Unavailable, "event stream closed")
			}
			var ev events.PropertyCreated
			if err := json.Unmarshal(msg, &ev); err != nil || ev.New == nil {
				slog.Warn("skipping undecodable insert", "error", err)
				continue
			}
			if !ev.New.Featured {
				continue
			}
			st, err := listingsrpc.ToStruct(ev)
			if err != nil {
				return status.Errorf(codes.Internal, "encoding insert: %v", err)
			}
			if err := stream.Send(st); err != nil {
				return err
			}
		}
	}
}

// grpcError maps a service error to a status: inputError is
// InvalidArgument, sql.ErrNoRows is NotFound, anything else Internal.
func grpcError(err error, what string) error {
	var ie inputError
	switch {
	case errors.As(err, &ie):
		return status.Error(codes.InvalidArgument, ie.Error())
	case errors.Is(err, sql.ErrNoRows):
		return status.Error(codes.NotFound, what+" not found")
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
