package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/navan260/dsa-el/internal/nbi"
	"github.com/navan260/dsa-el/internal/parking/state"
)

// Client-facing wording for the common rejections. The browser client
// displays detail verbatim.
const (
	detailAlreadyParked = "Vehicle already parked"
	detailLotFull       = "Parking Lot Full"
	detailNotParked     = "Vehicle not found"
)

// statusFor maps a facility error to an HTTP status and detail message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, state.ErrAlreadyParked):
		return http.StatusBadRequest, detailAlreadyParked
	case errors.Is(err, state.ErrLotFull):
		return http.StatusBadRequest, detailLotFull
	case errors.Is(err, state.ErrNotParked):
		return http.StatusNotFound, detailNotParked
	case errors.Is(err, state.ErrUnknownSlot):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, nbi.ErrInvalidRequest),
		errors.Is(err, state.ErrInvalidVehicle),
		errors.Is(err, state.ErrConfiguration):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, state.ErrVehiclesParked):
		return http.StatusConflict, err.Error()
	case errors.Is(err, state.ErrNotConfigured):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// abortWithError writes {"detail": ...} and stops the handler chain.
func abortWithError(c *gin.Context, err error) {
	code, detail := statusFor(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, gin.H{"detail": detail})
}
