// internal/parking/state/state.go
package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/navan260/dsa-el/alloc"
	"github.com/navan260/dsa-el/core"
	"github.com/navan260/dsa-el/internal/logging"
	"github.com/navan260/dsa-el/model"
)

var (
	// ErrNotConfigured indicates no layout has been loaded yet.
	ErrNotConfigured = errors.New("facility is not configured")
	// ErrInvalidVehicle indicates an empty vehicle ID or unknown class.
	ErrInvalidVehicle = errors.New("invalid vehicle")
	// ErrAlreadyParked indicates the vehicle already holds a slot.
	ErrAlreadyParked = errors.New("vehicle already parked")
	// ErrNotParked indicates the vehicle holds no slot.
	ErrNotParked = errors.New("vehicle not parked")
	// ErrLotFull indicates no free slot of the requested class.
	ErrLotFull = errors.New("lot full")
	// ErrVehiclesParked indicates a reconfigure that would discard parked vehicles.
	ErrVehiclesParked = errors.New("vehicles are still parked")
	// ErrUnknownSlot indicates a slot ID that is not in the current layout.
	ErrUnknownSlot = errors.New("unknown slot")

	// ErrConfiguration is re-exported so callers can depend on state alone.
	ErrConfiguration = core.ErrConfiguration
	// ErrNoPathFound is re-exported so callers can depend on state alone.
	ErrNoPathFound = core.ErrNoPathFound
)

// LotFullError reports which class is exhausted. The other class may still
// have room.
type LotFullError struct {
	Class model.VehicleClass
}

func (e *LotFullError) Error() string {
	return fmt.Sprintf("%s: no free %s slots", ErrLotFull, e.Class)
}

// Is lets errors.Is match ErrLotFull.
func (e *LotFullError) Is(target error) bool { return target == ErrLotFull }

// MetricsRecorder receives facility gauges and operation outcomes.
type MetricsRecorder interface {
	SetSlotCounts(class string, total, occupied int)
	SetActiveVehicles(n int)
	RecordOperation(operation, result string)
	ObserveRoute(elapsed time.Duration)
}

// facility is everything replaced wholesale by Reconfigure.
type facility struct {
	name     string
	graph    *core.Graph
	router   *core.Router
	alloc    *alloc.Allocator
	occupant map[int64]string // slot ID -> vehicle ID
	vehicles map[string]model.VehicleRecord
}

// IsOccupied implements core.Occupancy.
func (f *facility) IsOccupied(id int64) bool {
	_, ok := f.occupant[id]
	return ok
}

// ParkingState owns one facility: its graph, slot occupancy, allocator
// queues and vehicle registry, all guarded by a single lock.
type ParkingState struct {
	// mu guards fac and everything reachable from it. Park, Leave and
	// Reconfigure hold the write lock for their whole transaction.
	mu  sync.RWMutex
	fac *facility

	log     logging.Logger
	metrics MetricsRecorder
	penalty core.PenaltyFunc
	now     func() time.Time
}

// Option customises ParkingState construction.
type Option func(*ParkingState)

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *ParkingState) {
		s.metrics = m
	}
}

// WithPenalty replaces the router's occupancy penalty.
func WithPenalty(p core.PenaltyFunc) Option {
	return func(s *ParkingState) {
		s.penalty = p
	}
}

// WithClock overrides the clock used for parked-at timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *ParkingState) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an unconfigured ParkingState. Call Reconfigure before parking.
func New(log logging.Logger, opts ...Option) *ParkingState {
	if log == nil {
		log = logging.Noop()
	}
	s := &ParkingState{
		log: log,
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// ReconfigureOptions controls how a rebuild treats existing state.
type ReconfigureOptions struct {
	// Name labels the layout in snapshots and logs.
	Name string
	// Force discards parked vehicles instead of rejecting the rebuild.
	Force bool
}

// BuildSummary describes a successfully installed layout.
type BuildSummary struct {
	Name              string
	Rows              int
	Cols              int
	Nodes             int
	Edges             int
	Entrance          int64
	EntranceSource    core.EntranceSource
	Slots             map[model.VehicleClass]int
	UnreachableSlots  int
	DiscardedVehicles int
}

// Allocation is the result of a successful Park.
type Allocation struct {
	VehicleID string
	SlotID    int64
	Class     model.VehicleClass
	Distance  int64
	Path      []int64
	Cost      float64
	ParkedAt  time.Time
}

// Reconfigure parses rows, builds a new facility and swaps it in atomically.
// On failure the previous facility stays active.
func (s *ParkingState) Reconfigure(ctx context.Context, rows []string, opts ReconfigureOptions) (*BuildSummary, error) {
	log := logging.FromContext(ctx, s.log).With(logging.Operation("layout", "reconfigure")...)

	g, err := core.NewGraph(rows)
	if err != nil {
		s.record("reconfigure", err)
		log.Warn(ctx, "layout rejected", logging.Err(err))
		return nil, err
	}
	a, err := alloc.FromGraph(g)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrConfiguration, err)
		s.record("reconfigure", err)
		return nil, err
	}
	next := &facility{
		name:     opts.Name,
		graph:    g,
		router:   core.NewRouter(g, s.penalty),
		alloc:    a,
		occupant: make(map[int64]string),
		vehicles: make(map[string]model.VehicleRecord),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	discarded := 0
	if s.fac != nil {
		discarded = len(s.fac.vehicles)
	}
	if discarded > 0 && !opts.Force {
		err := fmt.Errorf("%w: %d vehicles would be discarded", ErrVehiclesParked, discarded)
		s.record("reconfigure", err)
		return nil, err
	}
	s.fac = next
	s.updateMetricsLocked()
	s.record("reconfigure", nil)

	summary := summarize(next, discarded)
	if discarded > 0 {
		log.Warn(ctx, "reconfigure discarded parked vehicles", logging.Int("vehicles", discarded))
	}
	if summary.EntranceSource != core.EntranceMarked {
		entry, _ := g.Node(g.Entrance())
		log.Warn(ctx, "layout has no entrance marker; using fallback",
			logging.String("entrance_source", string(summary.EntranceSource)),
			logging.Int64("entrance", g.Entrance()),
			logging.String("entrance_kind", string(entry.Kind)),
		)
	}
	log.Info(ctx, "facility configured",
		logging.String("name", opts.Name),
		logging.Int("rows", summary.Rows),
		logging.Int("cols", summary.Cols),
		logging.Int("nodes", summary.Nodes),
		logging.Int("unreachable_slots", summary.UnreachableSlots),
		logging.Bool("forced", opts.Force),
	)
	return summary, nil
}

func summarize(f *facility, discarded int) *BuildSummary {
	g := f.graph
	sum := &BuildSummary{
		Name:              f.name,
		Rows:              g.Rows(),
		Cols:              g.Cols(),
		Nodes:             g.NodeCount(),
		Edges:             len(g.Edges()),
		Entrance:          g.Entrance(),
		EntranceSource:    g.EntranceSource(),
		Slots:             make(map[model.VehicleClass]int, len(model.VehicleClasses)),
		DiscardedVehicles: discarded,
	}
	for _, class := range model.VehicleClasses {
		sum.Slots[class] = f.alloc.Total(class)
	}
	for _, n := range g.Slots() {
		if !g.Distances().Reachable(n.ID) {
			sum.UnreachableSlots++
		}
	}
	return sum
}

// Park assigns vehicleID the nearest free slot of class and returns the route
// to it. Nothing is mutated on failure.
func (s *ParkingState) Park(ctx context.Context, vehicleID string, class model.VehicleClass) (Allocation, error) {
	if strings.TrimSpace(vehicleID) == "" {
		return Allocation{}, fmt.Errorf("%w: vehicle id is empty", ErrInvalidVehicle)
	}
	if !class.Valid() {
		return Allocation{}, fmt.Errorf("%w: unknown vehicle class %q", ErrInvalidVehicle, class)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.parkLocked(vehicleID, class)
	s.record("park", err)
	if err != nil {
		return Allocation{}, err
	}
	s.updateMetricsLocked()
	logging.FromContext(ctx, s.log).With(logging.Operation("vehicle", "park")...).Debug(ctx, "vehicle parked",
		logging.VehicleID(vehicleID),
		logging.Class(class),
		logging.SlotID(res.SlotID),
		logging.Int("path_len", len(res.Path)),
	)
	return res, nil
}

func (s *ParkingState) parkLocked(vehicleID string, class model.VehicleClass) (Allocation, error) {
	f := s.fac
	if f == nil {
		return Allocation{}, ErrNotConfigured
	}
	if rec, ok := f.vehicles[vehicleID]; ok {
		return Allocation{}, fmt.Errorf("%w: %s holds slot %d", ErrAlreadyParked, vehicleID, rec.SlotID)
	}

	key, err := f.alloc.Allocate(class)
	if err != nil {
		if errors.Is(err, alloc.ErrCapacityExhausted) {
			return Allocation{}, &LotFullError{Class: class}
		}
		return Allocation{}, err
	}

	route, err := s.routeLocked(key.NodeID)
	if err != nil {
		if rerr := f.alloc.Release(key.NodeID, class); rerr != nil {
			return Allocation{}, errors.Join(err, rerr)
		}
		return Allocation{}, err
	}

	parkedAt := s.now()
	f.occupant[key.NodeID] = vehicleID
	f.vehicles[vehicleID] = model.VehicleRecord{
		VehicleID: vehicleID,
		SlotID:    key.NodeID,
		Class:     class,
		ParkedAt:  parkedAt,
	}
	return Allocation{
		VehicleID: vehicleID,
		SlotID:    key.NodeID,
		Class:     class,
		Distance:  key.Distance,
		Path:      route.Nodes,
		Cost:      route.Cost,
		ParkedAt:  parkedAt,
	}, nil
}

// Leave frees the slot held by vehicleID and returns its ID.
func (s *ParkingState) Leave(ctx context.Context, vehicleID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slotID, err := s.leaveLocked(vehicleID)
	s.record("leave", err)
	if err != nil {
		return 0, err
	}
	s.updateMetricsLocked()
	logging.FromContext(ctx, s.log).With(logging.Operation("vehicle", "leave")...).Debug(ctx, "vehicle left",
		logging.VehicleID(vehicleID),
		logging.SlotID(slotID),
	)
	return slotID, nil
}

func (s *ParkingState) leaveLocked(vehicleID string) (int64, error) {
	f := s.fac
	if f == nil {
		return 0, ErrNotConfigured
	}
	rec, ok := f.vehicles[vehicleID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotParked, vehicleID)
	}
	if err := f.alloc.Release(rec.SlotID, rec.Class); err != nil {
		return 0, fmt.Errorf("release slot %d: %w", rec.SlotID, err)
	}
	delete(f.occupant, rec.SlotID)
	delete(f.vehicles, vehicleID)
	return rec.SlotID, nil
}

// Vehicle returns the record for a parked vehicle.
func (s *ParkingState) Vehicle(vehicleID string) (model.VehicleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.fac == nil {
		return model.VehicleRecord{}, ErrNotConfigured
	}
	rec, ok := s.fac.vehicles[vehicleID]
	if !ok {
		return model.VehicleRecord{}, fmt.Errorf("%w: %s", ErrNotParked, vehicleID)
	}
	return rec, nil
}

// Route recomputes the live route from the entrance to slotID under the
// current occupancy.
func (s *ParkingState) Route(ctx context.Context, slotID int64) (core.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.fac == nil {
		return core.Route{}, ErrNotConfigured
	}
	if n, ok := s.fac.graph.Node(slotID); !ok || !n.IsSlot() {
		return core.Route{}, fmt.Errorf("%w: %d", ErrUnknownSlot, slotID)
	}
	return s.routeLocked(slotID)
}

// routeLocked runs the router against the current occupancy. Caller must
// hold s.mu.
func (s *ParkingState) routeLocked(target int64) (core.Route, error) {
	start := time.Now()
	route, err := s.fac.router.Route(target, s.fac)
	if s.metrics != nil {
		s.metrics.ObserveRoute(time.Since(start))
	}
	return route, err
}

// updateMetricsLocked publishes gauges. Caller must hold s.mu.
func (s *ParkingState) updateMetricsLocked() {
	if s.metrics == nil || s.fac == nil {
		return
	}
	for _, class := range model.VehicleClasses {
		total := s.fac.alloc.Total(class)
		s.metrics.SetSlotCounts(class.String(), total, total-s.fac.alloc.Available(class))
	}
	s.metrics.SetActiveVehicles(len(s.fac.vehicles))
}

func (s *ParkingState) record(operation string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordOperation(operation, resultLabel(err))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrAlreadyParked):
		return "already_parked"
	case errors.Is(err, ErrNotParked):
		return "not_parked"
	case errors.Is(err, ErrLotFull):
		return "lot_full"
	case errors.Is(err, ErrNoPathFound):
		return "no_path"
	case errors.Is(err, ErrVehiclesParked):
		return "vehicles_parked"
	case errors.Is(err, ErrConfiguration):
		return "invalid_layout"
	default:
		return "error"
	}
}
