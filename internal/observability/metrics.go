package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Collector bundles the Prometheus metrics for the parking service: request
// counters shared by the gRPC and HTTP surfaces, plus facility gauges driven
// by ParkingState.
type Collector struct {
	gatherer prometheus.Gatherer

	Requests         *prometheus.CounterVec
	RequestDurations *prometheus.HistogramVec

	SlotsTotal     *prometheus.GaugeVec
	SlotsOccupied  *prometheus.GaugeVec
	ActiveVehicles prometheus.Gauge
	Operations     *prometheus.CounterVec
	RouteDurations prometheus.Histogram
}

// NewCollector registers parking metrics against reg, defaulting to the
// global Prometheus registry when nil. Registering twice against the same
// registry returns the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_requests_total",
		Help: "Handled API requests, labeled by service, method, and result code.",
	}, []string{"service", "method", "code"}), "parking_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "parking_request_duration_seconds",
		Help:    "API request latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"service", "method"}), "parking_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	total, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "parking_slots_total",
		Help: "Configured parking slots per vehicle class.",
	}, []string{"class"}), "parking_slots_total")
	if err != nil {
		return nil, err
	}

	occupied, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "parking_slots_occupied",
		Help: "Occupied parking slots per vehicle class.",
	}, []string{"class"}), "parking_slots_occupied")
	if err != nil {
		return nil, err
	}

	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "parking_active_vehicles",
		Help: "Vehicles currently parked in the facility.",
	}), "parking_active_vehicles")
	if err != nil {
		return nil, err
	}

	ops, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_operations_total",
		Help: "Facility state transitions, labeled by operation and result.",
	}, []string{"operation", "result"}), "parking_operations_total")
	if err != nil {
		return nil, err
	}

	routes, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "parking_route_computation_duration_seconds",
		Help:    "Duration of occupancy-aware route computations.",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	}), "parking_route_computation_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:         gatherer,
		Requests:         requests,
		RequestDurations: durations,
		SlotsTotal:       total,
		SlotsOccupied:    occupied,
		ActiveVehicles:   active,
		Operations:       ops,
		RouteDurations:   routes,
	}, nil
}

// ObserveRequest records one handled request on any transport.
func (c *Collector) ObserveRequest(service, method, code string, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.Requests != nil {
		c.Requests.WithLabelValues(service, method, code).Inc()
	}
	if c.RequestDurations != nil {
		c.RequestDurations.WithLabelValues(service, method).Observe(elapsed.Seconds())
	}
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *Collector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		c.ObserveRequest(service, method, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetSlotCounts publishes the per-class slot totals and occupancy.
func (c *Collector) SetSlotCounts(class string, total, occupied int) {
	if c == nil {
		return
	}
	if c.SlotsTotal != nil {
		c.SlotsTotal.WithLabelValues(class).Set(float64(total))
	}
	if c.SlotsOccupied != nil {
		c.SlotsOccupied.WithLabelValues(class).Set(float64(occupied))
	}
}

// SetActiveVehicles publishes the number of parked vehicles.
func (c *Collector) SetActiveVehicles(n int) {
	if c == nil || c.ActiveVehicles == nil {
		return
	}
	c.ActiveVehicles.Set(float64(n))
}

// RecordOperation counts one park, leave, or reconfigure outcome.
func (c *Collector) RecordOperation(operation, result string) {
	if c == nil || c.Operations == nil {
		return
	}
	c.Operations.WithLabelValues(operation, result).Inc()
}

// ObserveRoute records the time spent computing one route.
func (c *Collector) ObserveRoute(elapsed time.Duration) {
	if c == nil || c.RouteDurations == nil {
		return
	}
	c.RouteDurations.Observe(elapsed.Seconds())
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	parts := strings.Split(strings.TrimPrefix(fullMethod, "/"), "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service, method := parts[len(parts)-2], parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	existing, err := register(reg, vec, name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return vec, nil
	}
	if v, ok := existing.(*prometheus.CounterVec); ok {
		return v, nil
	}
	return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	existing, err := register(reg, vec, name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return vec, nil
	}
	if v, ok := existing.(*prometheus.HistogramVec); ok {
		return v, nil
	}
	return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	existing, err := register(reg, h, name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return h, nil
	}
	if v, ok := existing.(prometheus.Histogram); ok {
		return v, nil
	}
	return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	existing, err := register(reg, vec, name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return vec, nil
	}
	if v, ok := existing.(*prometheus.GaugeVec); ok {
		return v, nil
	}
	return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	existing, err := register(reg, gauge, name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return gauge, nil
	}
	if g, ok := existing.(prometheus.Gauge); ok {
		return g, nil
	}
	return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
}

// register returns the previously registered collector when c is a duplicate,
// or nil when c was registered fresh.
func register(reg prometheus.Registerer, c prometheus.Collector, name string) (prometheus.Collector, error) {
	err := reg.Register(c)
	if err == nil {
		return nil, nil
	}
	if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
		return are.ExistingCollector, nil
	}
	return nil, fmt.Errorf("register %s: %w", name, err)
}
