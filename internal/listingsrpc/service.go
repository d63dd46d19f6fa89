// Package listingsrpc describes the cresite.v1.ListingsService gRPC API.
//
// Messages are the protobuf well-known types, so the service needs no
// generated code: properties travel as google.protobuf.Struct values whose
// fields match the JSON form of model.Property.
package listingsrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified service name.
const ServiceName = "cresite.v1.ListingsService"

// Full method names, as seen by interceptors.
const (
	MethodListFeatured   = "/" + ServiceName + "/ListFeatured"
	MethodGetProperty    = "/" + ServiceName + "/GetProperty"
	MethodIngestProperty = "/" + ServiceName + "/IngestProperty"
	MethodWatchFeatured  = "/" + ServiceName + "/WatchFeatured"
)

// ListingsServiceServer is the server API for ListingsService.
type ListingsServiceServer interface {
	// ListFeatured returns the current featured snapshot, newest first.
	ListFeatured(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	// GetProperty returns one property by ID.
	GetProperty(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// IngestProperty stores a new property, stamping received_at.
	IngestProperty(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// WatchFeatured sends {"new": property} for every featured insert.
	WatchFeatured(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

// RegisterListingsServiceServer registers srv on s.
func RegisterListingsServiceServer(s grpc.ServiceRegistrar, srv ListingsServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func listFeaturedHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ListingsServiceServer).ListFeatured(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodListFeatured}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ListingsServiceServer).ListFeatured(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getPropertyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ListingsServiceServer).GetProperty(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetProperty}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ListingsServiceServer).GetProperty(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func ingestPropertyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ListingsServiceServer).IngestProperty(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodIngestProperty}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ListingsServiceServer).IngestProperty(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func watchFeaturedHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ListingsServiceServer).WatchFeatured(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// ServiceDesc is the grpc.ServiceDesc for ListingsService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ListingsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListFeatured", Handler: listFeaturedHandler},
		{MethodName: "GetProperty", Handler: getPropertyHandler},
		{MethodName: "IngestProperty", Handler: ingestPropertyHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchFeatured", Handler: watchFeaturedHandler, ServerStreams: true},
	},
	Metadata: "cresite/v1/listings.proto",
}

// ListingsServiceClient is the client API for ListingsService.
type ListingsServiceClient interface {
	ListFeatured(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
	GetProperty(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	IngestProperty(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	WatchFeatured(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error)
}

type listingsServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewListingsServiceClient returns a client that issues calls on cc.
func NewListingsServiceClient(cc grpc.ClientConnInterface) ListingsServiceClient {
	return &listingsServiceClient{cc: cc}
}

func (c *listingsServiceClient) ListFeatured(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, MethodListFeatured, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *listingsServiceClient) GetProperty(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetProperty, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *listingsServiceClient) IngestProperty(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodIngestProperty, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *listingsServiceClient) WatchFeatured(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], MethodWatchFeatured, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
