package alert

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "alert.v1.AlertStore"
	// GetMethod is the full name of the Get method.
	GetMethod = "/" + ServiceName + "/Get"
	// ReplaceMethod is the full name of the Replace method.
	ReplaceMethod = "/" + ServiceName + "/Replace"
	// SubscribeMethod is the full name of the Subscribe method.
	SubscribeMethod = "/" + ServiceName + "/Subscribe"
)

// AlertStoreServer is the server API of the alert store.
type AlertStoreServer interface {
	// Get returns the current record.
	Get(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	// Replace overwrites the record.
	Replace(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	// Subscribe streams the current record and every later one.
	Subscribe(req *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error
}

// AlertStoreServiceDesc is the grpc.ServiceDesc of the alert store.
//
//nolint:gochecknoglobals // Service descriptors are registered by address.
var AlertStoreServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlertStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Get",
			Handler:    getHandler,
		},
		{
			MethodName: "Replace",
			Handler:    replaceHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "alert/v1/alert_store.proto",
}

// RegisterAlertStoreServer registers the server implementation with the registrar.
func RegisterAlertStoreServer(s grpc.ServiceRegistrar, srv AlertStoreServer) {
	s.RegisterService(&AlertStoreServiceDesc, srv)
}

//nolint:revive // Signature is dictated by grpc.MethodDesc.
func getHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(AlertStoreServer).Get(ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		//nolint:forcetypeassert // Guaranteed by HandlerType.
		return srv.(AlertStoreServer).Get(ctx, req.(*emptypb.Empty))
	}

	return interceptor(ctx, in, info, handler)
}

//nolint:revive // Signature is dictated by grpc.MethodDesc.
func replaceHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(AlertStoreServer).Replace(ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ReplaceMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		//nolint:forcetypeassert // Guaranteed by HandlerType.
		return srv.(AlertStoreServer).Replace(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	//nolint:forcetypeassert // Guaranteed by HandlerType.
	return srv.(AlertStoreServer).Subscribe(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{
		ServerStream: stream,
	})
}

// AlertStoreClient is the client API of the alert store.
type AlertStoreClient struct {
	// cc is the underlying connection.
	cc grpc.ClientConnInterface
}

// NewAlertStoreClient creates a client on top of the connection.
func NewAlertStoreClient(cc grpc.ClientConnInterface) *AlertStoreClient {
	return &AlertStoreClient{
		cc: cc,
	}
}

// Get calls the Get method.
func (c *AlertStoreClient) Get(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Replace calls the Replace method.
func (c *AlertStoreClient) Replace(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, ReplaceMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Subscribe opens the Subscribe stream.
func (c *AlertStoreClient) Subscribe(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &AlertStoreServiceDesc.Streams[0], SubscribeMethod, opts...)
	if err != nil {
		return nil, err
	}

	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{
		ClientStream: stream,
	}

	if err = x.SendMsg(in); err != nil {
		return nil, err
	}

	if err = x.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}
