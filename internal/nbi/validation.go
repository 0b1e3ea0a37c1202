package nbi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/navan260/dsa-el/internal/nbi/types"
	"github.com/navan260/dsa-el/model"
)

// ErrInvalidRequest marks malformed payloads rejected before they reach
// the facility.
var ErrInvalidRequest = errors.New("invalid request")

// MaxVehicleIDLength bounds vehicle identifiers accepted over the wire.
const MaxVehicleIDLength = 64

// ValidateVehicleID checks a vehicle identifier.
func ValidateVehicleID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: vehicle_id is required", ErrInvalidRequest)
	}
	if len(id) > MaxVehicleIDLength {
		return fmt.Errorf("%w: vehicle_id longer than %d bytes", ErrInvalidRequest, MaxVehicleIDLength)
	}
	return nil
}

// ValidateParkRequest checks the vehicle ID and resolves the class. An
// empty class means four-wheeler.
func ValidateParkRequest(req *types.ParkRequest) (model.VehicleClass, error) {
	if req == nil {
		return "", fmt.Errorf("%w: park request is required", ErrInvalidRequest)
	}
	if err := ValidateVehicleID(req.VehicleID); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Class) == "" {
		return model.FourWheeler, nil
	}
	class, ok := model.ParseVehicleClass(req.Class)
	if !ok {
		return "", fmt.Errorf("%w: unknown vehicle class %q", ErrInvalidRequest, req.Class)
	}
	return class, nil
}

// ValidateLayoutRequest performs the cheap structural checks; symbol and
// shape errors are reported by the layout parser.
func ValidateLayoutRequest(req *types.LayoutRequest) error {
	if req == nil {
		return fmt.Errorf("%w: layout request is required", ErrInvalidRequest)
	}
	if len(req.Rows) == 0 {
		return fmt.Errorf("%w: rows are required", ErrInvalidRequest)
	}
	return nil
}
