// Package httpapi serves the JSON API used by the browser visualisation:
// the facility view, park and leave, layout replacement and lookups.
package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/navan260/dsa-el/internal/logging"
	"github.com/navan260/dsa-el/internal/nbi"
	"github.com/navan260/dsa-el/internal/nbi/types"
	"github.com/navan260/dsa-el/internal/observability"
	"github.com/navan260/dsa-el/internal/parking/state"
	"go.opentelemetry.io/otel/attribute"
)

// Options configures the router. Zero values are usable.
type Options struct {
	// AllowOrigins lists CORS origins; empty or "*" allows any origin.
	AllowOrigins []string
	Logger       logging.Logger
	Metrics      *observability.Collector
}

type handler struct {
	state *state.ParkingState
	log   logging.Logger
}

// NewRouter builds the gin engine for st.
func NewRouter(st *state.ParkingState, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(opts.AllowOrigins)))
	r.Use(requestLogger(log))
	if opts.Metrics != nil {
		r.Use(requestMetrics(opts.Metrics))
	}

	h := &handler{state: st, log: log}
	r.GET("/init", h.status)
	r.GET("/status", h.status)
	r.POST("/park/:vehicle_id", h.park)
	r.POST("/leave/:vehicle_id", h.leave)
	r.POST("/layout", h.layout)
	r.GET("/vehicles/:vehicle_id", h.vehicle)
	r.GET("/route/:slot_id", h.route)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowHeaders = append(config.AllowHeaders, "Authorization", nbi.RequestIDMetadataKey)
	config.ExposeHeaders = []string{nbi.RequestIDMetadataKey}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
		return config
	}
	config.AllowOrigins = origins
	config.AllowCredentials = true
	return config
}

func (h *handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, types.StatusFromSnapshot(h.state.Snapshot()))
}

// parkBody is the optional JSON body of POST /park/:vehicle_id.
type parkBody struct {
	Class string `json:"class"`
}

func (h *handler) park(c *gin.Context) {
	req := types.ParkRequest{
		VehicleID: c.Param("vehicle_id"),
		Class:     c.Query("class"),
	}
	if c.Request.ContentLength > 0 {
		var body parkBody
		if err := c.ShouldBindJSON(&body); err != nil {
			abortWithError(c, badRequest(err))
			return
		}
		if body.Class != "" {
			req.Class = body.Class
		}
	}
	class, err := nbi.ValidateParkRequest(&req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	ctx, span := nbi.StartChildSpan(c.Request.Context(), "vehicle/park", "vehicle", req.VehicleID,
		attribute.String("vehicle.class", class.String()),
	)
	defer span.End()

	res, err := h.state.Park(ctx, req.VehicleID, class)
	if err != nil {
		span.RecordError(err)
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ParkResultFromAllocation(res))
}

func (h *handler) leave(c *gin.Context) {
	id := c.Param("vehicle_id")
	if err := nbi.ValidateVehicleID(id); err != nil {
		abortWithError(c, err)
		return
	}

	ctx, span := nbi.StartChildSpan(c.Request.Context(), "vehicle/leave", "vehicle", id)
	defer span.End()

	slotID, err := h.state.Leave(ctx, id)
	if err != nil {
		span.RecordError(err)
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.LeaveResultFor(id, slotID))
}

func (h *handler) layout(c *gin.Context) {
	var req types.LayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest(err))
		return
	}
	if err := nbi.ValidateLayoutRequest(&req); err != nil {
		abortWithError(c, err)
		return
	}

	ctx, span := nbi.StartChildSpan(c.Request.Context(), "layout/configure", "layout", req.Name,
		attribute.Int("layout.rows", len(req.Rows)),
	)
	defer span.End()

	summary, err := h.state.Reconfigure(ctx, req.Rows, state.ReconfigureOptions{Name: req.Name, Force: req.Force})
	if err != nil {
		span.RecordError(err)
		logging.FromContext(ctx, h.log).Warn(ctx, "layout rejected", logging.Err(err))
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.SummaryFromBuild(summary))
}

func (h *handler) vehicle(c *gin.Context) {
	rec, err := h.state.Vehicle(c.Param("vehicle_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.VehicleFromRecord(rec))
}

func (h *handler) route(c *gin.Context) {
	slotID, err := strconv.ParseInt(strings.TrimSpace(c.Param("slot_id")), 10, 64)
	if err != nil {
		abortWithError(c, badRequest(err))
		return
	}
	r, err := h.state.Route(c.Request.Context(), slotID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.RouteResultFrom(slotID, r))
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", nbi.ErrInvalidRequest, err)
}
