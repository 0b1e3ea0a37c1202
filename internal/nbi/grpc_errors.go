package nbi

import (
	"errors"

	"github.com/navan260/dsa-el/internal/parking/state"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToStatusError maps facility errors onto gRPC status codes. Errors that
// already carry a status pass through unchanged.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(StatusCode(err), err.Error())
}

// StatusCode picks the gRPC code for a facility error.
func StatusCode(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, state.ErrNotParked),
		errors.Is(err, state.ErrUnknownSlot):
		return codes.NotFound

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, state.ErrInvalidVehicle),
		errors.Is(err, state.ErrConfiguration):
		return codes.InvalidArgument

	case errors.Is(err, state.ErrAlreadyParked):
		return codes.AlreadyExists

	case errors.Is(err, state.ErrLotFull):
		return codes.ResourceExhausted

	case errors.Is(err, state.ErrNotConfigured),
		errors.Is(err, state.ErrVehiclesParked):
		return codes.FailedPrecondition

	default:
		return codes.Internal
	}
}
