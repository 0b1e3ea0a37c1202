package nbi

import (
	"context"

	"github.com/navan260/dsa-el/internal/nbi/types"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client is a typed wrapper over ParkingServiceClient that hides the Struct
// encoding.
type Client struct {
	raw ParkingServiceClient
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{raw: NewParkingServiceClient(cc)}
}

// Configure installs a new layout.
func (c *Client) Configure(ctx context.Context, req types.LayoutRequest) (types.LayoutSummary, error) {
	var out types.LayoutSummary
	err := c.call(ctx, req, &out, c.raw.Configure)
	return out, err
}

// Park asks for a slot.
func (c *Client) Park(ctx context.Context, req types.ParkRequest) (types.ParkResult, error) {
	var out types.ParkResult
	err := c.call(ctx, req, &out, c.raw.Park)
	return out, err
}

// Leave frees the slot held by vehicleID.
func (c *Client) Leave(ctx context.Context, vehicleID string) (types.LeaveResult, error) {
	var out types.LeaveResult
	resp, err := c.raw.Leave(ctx, wrapperspb.String(vehicleID))
	if err != nil {
		return out, err
	}
	return out, types.FromStruct(resp, &out)
}

// Status fetches the facility view.
func (c *Client) Status(ctx context.Context) (types.Status, error) {
	var out types.Status
	resp, err := c.raw.GetStatus(ctx, &emptypb.Empty{})
	if err != nil {
		return out, err
	}
	return out, types.FromStruct(resp, &out)
}

// Vehicle fetches one parked vehicle.
func (c *Client) Vehicle(ctx context.Context, vehicleID string) (types.Vehicle, error) {
	var out types.Vehicle
	resp, err := c.raw.GetVehicle(ctx, wrapperspb.String(vehicleID))
	if err != nil {
		return out, err
	}
	return out, types.FromStruct(resp, &out)
}

type structCall func(context.Context, *structpb.Struct, ...grpc.CallOption) (*structpb.Struct, error)

func (c *Client) call(ctx context.Context, in, out any, fn structCall) error {
	req, err := types.ToStruct(in)
	if err != nil {
		return err
	}
	resp, err := fn(ctx, req)
	if err != nil {
		return err
	}
	return types.FromStruct(resp, out)
}
