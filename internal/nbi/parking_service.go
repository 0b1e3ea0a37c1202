package nbi

import (
	"context"
	"fmt"

	"github.com/navan260/dsa-el/internal/logging"
	"github.com/navan260/dsa-el/internal/nbi/types"
	"github.com/navan260/dsa-el/internal/parking/state"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ParkingService implements ParkingServiceServer on top of a ParkingState.
type ParkingService struct {
	UnimplementedParkingServiceServer

	state *state.ParkingState
	log   logging.Logger
}

// NewParkingService binds the service to st.
func NewParkingService(st *state.ParkingState, log logging.Logger) *ParkingService {
	if log == nil {
		log = logging.Noop()
	}
	return &ParkingService{state: st, log: log}
}

// Configure replaces the facility layout. Parked vehicles block the swap
// unless the request sets force.
func (s *ParkingService) Configure(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	reqLog := s.requestLog(ctx, "layout", "configure")

	var req types.LayoutRequest
	if err := types.FromStruct(in, &req); err != nil {
		return nil, ToStatusError(fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}
	if err := ValidateLayoutRequest(&req); err != nil {
		reqLog.Debug(ctx, "Configure validation failed", logging.String("reason", err.Error()))
		return nil, ToStatusError(err)
	}

	ctx, span := StartChildSpan(ctx, "layout/configure", "layout", req.Name,
		attribute.Int("layout.rows", len(req.Rows)),
		attribute.Bool("layout.force", req.Force),
	)
	defer span.End()

	summary, err := s.state.Reconfigure(ctx, req.Rows, state.ReconfigureOptions{Name: req.Name, Force: req.Force})
	if err != nil {
		reqLog.Warn(ctx, "Configure failed", logging.Err(err))
		span.RecordError(err)
		return nil, ToStatusError(err)
	}

	reqLog.Info(ctx, "layout configured",
		logging.Int("nodes", summary.Nodes),
		logging.Int64("entrance", summary.Entrance),
	)
	return encode(types.SummaryFromBuild(summary))
}

// Park allocates the nearest free slot of the requested class.
func (s *ParkingService) Park(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	reqLog := s.requestLog(ctx, "vehicle", "park")

	var req types.ParkRequest
	if err := types.FromStruct(in, &req); err != nil {
		return nil, ToStatusError(fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}
	class, err := ValidateParkRequest(&req)
	if err != nil {
		reqLog.Debug(ctx, "Park validation failed", logging.String("reason", err.Error()))
		return nil, ToStatusError(err)
	}

	ctx, span := StartChildSpan(ctx, "vehicle/park", "vehicle", req.VehicleID,
		attribute.String("vehicle.class", class.String()),
	)
	defer span.End()

	res, err := s.state.Park(ctx, req.VehicleID, class)
	if err != nil {
		reqLog.Debug(ctx, "Park rejected", logging.String("entity_id", req.VehicleID), logging.Err(err))
		span.RecordError(err)
		return nil, ToStatusError(err)
	}
	span.SetAttributes(attribute.Int64("slot.id", res.SlotID))

	return encode(types.ParkResultFromAllocation(res))
}

// Leave frees the slot held by the vehicle.
func (s *ParkingService) Leave(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	reqLog := s.requestLog(ctx, "vehicle", "leave")

	id := in.GetValue()
	if err := ValidateVehicleID(id); err != nil {
		return nil, ToStatusError(err)
	}

	ctx, span := StartChildSpan(ctx, "vehicle/leave", "vehicle", id)
	defer span.End()

	slotID, err := s.state.Leave(ctx, id)
	if err != nil {
		reqLog.Debug(ctx, "Leave rejected", logging.String("entity_id", id), logging.Err(err))
		span.RecordError(err)
		return nil, ToStatusError(err)
	}
	span.SetAttributes(attribute.Int64("slot.id", slotID))

	return encode(types.LeaveResultFor(id, slotID))
}

// GetStatus returns every node with its occupancy, every edge and the
// per-class availability. An unconfigured facility is reported, not
// rejected.
func (s *ParkingService) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	return encode(types.StatusFromSnapshot(s.state.Snapshot()))
}

// GetVehicle looks up a parked vehicle.
func (s *ParkingService) GetVehicle(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	id := in.GetValue()
	if err := ValidateVehicleID(id); err != nil {
		return nil, ToStatusError(err)
	}
	rec, err := s.state.Vehicle(id)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return encode(types.VehicleFromRecord(rec))
}

func (s *ParkingService) ensureReady() error {
	if s == nil || s.state == nil {
		return status.Error(codes.FailedPrecondition, "parking state is not configured")
	}
	return nil
}

func (s *ParkingService) requestLog(ctx context.Context, entityType, operation string) logging.Logger {
	return logging.FromContext(ctx, s.log).With(logging.Operation(entityType, operation)...)
}

func encode(v any) (*structpb.Struct, error) {
	out, err := types.ToStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
