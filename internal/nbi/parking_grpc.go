package nbi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ParkingServiceName is the fully-qualified gRPC service name.
const ParkingServiceName = "parking.v1.ParkingService"

const (
	ParkingService_Configure_FullMethodName  = "/parking.v1.ParkingService/Configure"
	ParkingService_Park_FullMethodName       = "/parking.v1.ParkingService/Park"
	ParkingService_Leave_FullMethodName      = "/parking.v1.ParkingService/Leave"
	ParkingService_GetStatus_FullMethodName  = "/parking.v1.ParkingService/GetStatus"
	ParkingService_GetVehicle_FullMethodName = "/parking.v1.ParkingService/GetVehicle"
)

// ParkingServiceServer is the server API for ParkingService. Payloads are
// types.* values carried in google.protobuf.Struct.
type ParkingServiceServer interface {
	// Configure replaces the facility layout (types.LayoutRequest -> types.LayoutSummary).
	Configure(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Park allocates the nearest slot (types.ParkRequest -> types.ParkResult).
	Park(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Leave frees the vehicle's slot (vehicle ID -> types.LeaveResult).
	Leave(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// GetStatus returns the full facility view (types.Status).
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// GetVehicle returns one parked vehicle (vehicle ID -> types.Vehicle).
	GetVehicle(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// UnimplementedParkingServiceServer can be embedded for forward compatibility.
type UnimplementedParkingServiceServer struct{}

func (UnimplementedParkingServiceServer) Configure(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Configure not implemented")
}
func (UnimplementedParkingServiceServer) Park(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Park not implemented")
}
func (UnimplementedParkingServiceServer) Leave(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Leave not implemented")
}
func (UnimplementedParkingServiceServer) GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetStatus not implemented")
}
func (UnimplementedParkingServiceServer) GetVehicle(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetVehicle not implemented")
}

// RegisterParkingServiceServer attaches srv to s.
func RegisterParkingServiceServer(s grpc.ServiceRegistrar, srv ParkingServiceServer) {
	s.RegisterService(&ParkingService_ServiceDesc, srv)
}

func _ParkingService_Configure_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ParkingServiceServer).Configure(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ParkingService_Configure_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ParkingServiceServer).Configure(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ParkingService_Park_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ParkingServiceServer).Park(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ParkingService_Park_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ParkingServiceServer).Park(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _ParkingService_Leave_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ParkingServiceServer).Leave(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ParkingService_Leave_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ParkingServiceServer).Leave(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _ParkingService_GetStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ParkingServiceServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ParkingService_GetStatus_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ParkingServiceServer).GetStatus(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ParkingService_GetVehicle_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ParkingServiceServer).GetVehicle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ParkingService_GetVehicle_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ParkingServiceServer).GetVehicle(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// ParkingService_ServiceDesc is the grpc.ServiceDesc for ParkingService.
var ParkingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ParkingServiceName,
	HandlerType: (*ParkingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Configure", Handler: _ParkingService_Configure_Handler},
		{MethodName: "Park", Handler: _ParkingService_Park_Handler},
		{MethodName: "Leave", Handler: _ParkingService_Leave_Handler},
		{MethodName: "GetStatus", Handler: _ParkingService_GetStatus_Handler},
		{MethodName: "GetVehicle", Handler: _ParkingService_GetVehicle_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "parking/v1/parking.proto",
}

// ParkingServiceClient is the client API for ParkingService.
type ParkingServiceClient interface {
	Configure(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Park(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Leave(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetVehicle(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type parkingServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewParkingServiceClient wraps a connection.
func NewParkingServiceClient(cc grpc.ClientConnInterface) ParkingServiceClient {
	return &parkingServiceClient{cc}
}

func (c *parkingServiceClient) Configure(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ParkingService_Configure_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *parkingServiceClient) Park(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ParkingService_Park_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *parkingServiceClient) Leave(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ParkingService_Leave_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *parkingServiceClient) GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ParkingService_GetStatus_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *parkingServiceClient) GetVehicle(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ParkingService_GetVehicle_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
