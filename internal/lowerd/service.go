package lowerd

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// LoweringService exchanges google.protobuf.Struct messages so that clients
// need no generated stubs. Field names match the HTTP JSON bodies.
const (
	LoweringServiceName = "seqcsp.v1.LoweringService"

	LoweringService_Lower_FullMethodName     = "/seqcsp.v1.LoweringService/Lower"
	LoweringService_SubmitJob_FullMethodName = "/seqcsp.v1.LoweringService/SubmitJob"
	LoweringService_GetJob_FullMethodName    = "/seqcsp.v1.LoweringService/GetJob"
	LoweringService_ListJobs_FullMethodName  = "/seqcsp.v1.LoweringService/ListJobs"
	LoweringService_CancelJob_FullMethodName = "/seqcsp.v1.LoweringService/CancelJob"
)

// LoweringServiceServer is the server API for LoweringService.
type LoweringServiceServer interface {
	Lower(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListJobs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelJob(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedLoweringServiceServer can be embedded for forward compatibility.
type UnimplementedLoweringServiceServer struct{}

func (UnimplementedLoweringServiceServer) Lower(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Lower not implemented")
}
func (UnimplementedLoweringServiceServer) SubmitJob(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SubmitJob not implemented")
}
func (UnimplementedLoweringServiceServer) GetJob(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetJob not implemented")
}
func (UnimplementedLoweringServiceServer) ListJobs(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListJobs not implemented")
}
func (UnimplementedLoweringServiceServer) CancelJob(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelJob not implemented")
}

// RegisterLoweringServiceServer registers srv with s.
func RegisterLoweringServiceServer(s grpc.ServiceRegistrar, srv LoweringServiceServer) {
	s.RegisterService(&LoweringService_ServiceDesc, srv)
}

type structMethod func(LoweringServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LoweringServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LoweringServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LoweringService_ServiceDesc is the grpc.ServiceDesc for LoweringService.
var LoweringService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: LoweringServiceName,
	HandlerType: (*LoweringServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Lower",
			Handler:    unaryHandler(LoweringService_Lower_FullMethodName, LoweringServiceServer.Lower),
		},
		{
			MethodName: "SubmitJob",
			Handler:    unaryHandler(LoweringService_SubmitJob_FullMethodName, LoweringServiceServer.SubmitJob),
		},
		{
			MethodName: "GetJob",
			Handler:    unaryHandler(LoweringService_GetJob_FullMethodName, LoweringServiceServer.GetJob),
		},
		{
			MethodName: "ListJobs",
			Handler:    unaryHandler(LoweringService_ListJobs_FullMethodName, LoweringServiceServer.ListJobs),
		},
		{
			MethodName: "CancelJob",
			Handler:    unaryHandler(LoweringService_CancelJob_FullMethodName, LoweringServiceServer.CancelJob),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "seqcsp/v1/lowering.proto",
}

// LoweringServiceClient is the client API for LoweringService.
type LoweringServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewLoweringServiceClient(cc grpc.ClientConnInterface) *LoweringServiceClient {
	return &LoweringServiceClient{cc: cc}
}

func (c *LoweringServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LoweringServiceClient) Lower(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, LoweringService_Lower_FullMethodName, in, opts...)
}

func (c *LoweringServiceClient) SubmitJob(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, LoweringService_SubmitJob_FullMethodName, in, opts...)
}

func (c *LoweringServiceClient) GetJob(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, LoweringService_GetJob_FullMethodName, in, opts...)
}

func (c *LoweringServiceClient) ListJobs(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, LoweringService_ListJobs_FullMethodName, in, opts...)
}

func (c *LoweringServiceClient) CancelJob(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, LoweringService_CancelJob_FullMethodName, in, opts...)
}
