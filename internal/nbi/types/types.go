// Package types holds the wire shapes shared by the gRPC and HTTP surfaces,
// plus mappings from ParkingState results and to/from protobuf Structs.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/navan260/dsa-el/core"
	"github.com/navan260/dsa-el/internal/parking/state"
	"github.com/navan260/dsa-el/model"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Struct is the protobuf message every ParkingService payload travels in.
type Struct = structpb.Struct

// Node is one grid cell as drawn by the visualisation client. X is the
// column and Y the row.
type Node struct {
	ID        int64   `json:"id"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Type      string  `json:"type"`
	Class     string  `json:"class,omitempty"`
	Filled    bool    `json:"filled"`
	VehicleID *string `json:"vehicle_id"`
	IsEntry   bool    `json:"is_entry"`
	// Distance is null for nodes with no static path from the entrance.
	Distance *int64 `json:"distance"`
}

// Edge is an undirected adjacency.
type Edge struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
	Weight int64 `json:"weight"`
}

// ClassCounts is the per-class availability summary.
type ClassCounts struct {
	Total     int `json:"total"`
	Occupied  int `json:"occupied"`
	Available int `json:"available"`
}

// Status is the full facility view returned by /init, /status and GetStatus.
type Status struct {
	Name           string                 `json:"name,omitempty"`
	Configured     bool                   `json:"configured"`
	Rows           int                    `json:"rows"`
	Cols           int                    `json:"cols"`
	Entrance       int64                  `json:"entrance"`
	Nodes          []Node                 `json:"nodes"`
	Edges          []Edge                 `json:"edges"`
	Availability   map[string]ClassCounts `json:"availability"`
	ActiveVehicles int                    `json:"active_vehicles"`
}

// ParkRequest asks for a slot.
type ParkRequest struct {
	VehicleID string `json:"vehicle_id"`
	Class     string `json:"class,omitempty"`
}

// ParkResult reports an allocated slot and the route to it.
type ParkResult struct {
	Message   string    `json:"message"`
	VehicleID string    `json:"vehicle_id"`
	SlotID    int64     `json:"slot_id"`
	Class     string    `json:"class"`
	Distance  int64     `json:"distance"`
	Path      []int64   `json:"path"`
	ParkedAt  time.Time `json:"parked_at"`
}

// LeaveResult reports a vacated slot.
type LeaveResult struct {
	Message   string `json:"message"`
	VehicleID string `json:"vehicle_id"`
	SlotID    int64  `json:"slot_id"`
}

// LayoutRequest replaces the facility layout.
type LayoutRequest struct {
	Name  string   `json:"name,omitempty"`
	Rows  []string `json:"rows"`
	Force bool     `json:"force,omitempty"`
}

// LayoutSummary describes an installed layout.
type LayoutSummary struct {
	Name              string         `json:"name,omitempty"`
	Rows              int            `json:"rows"`
	Cols              int            `json:"cols"`
	Nodes             int            `json:"nodes"`
	Edges             int            `json:"edges"`
	Entrance          int64          `json:"entrance"`
	EntranceSource    string         `json:"entrance_source"`
	Slots             map[string]int `json:"slots"`
	UnreachableSlots  int            `json:"unreachable_slots"`
	DiscardedVehicles int            `json:"discarded_vehicles"`
}

// Vehicle is a parked vehicle record.
type Vehicle struct {
	VehicleID string    `json:"vehicle_id"`
	SlotID    int64     `json:"slot_id"`
	Class     string    `json:"class"`
	ParkedAt  time.Time `json:"parked_at"`
}

// RouteResult is a live route from the entrance to a slot under current
// occupancy.
type RouteResult struct {
	SlotID int64   `json:"slot_id"`
	Path   []int64 `json:"path"`
	Cost   float64 `json:"cost"`
}

// StatusFromSnapshot maps a FacilitySnapshot to its wire form. Node and
// edge order is preserved.
func StatusFromSnapshot(snap *state.FacilitySnapshot) Status {
	out := Status{
		Nodes:        []Node{},
		Edges:        []Edge{},
		Availability: make(map[string]ClassCounts),
	}
	if snap == nil {
		return out
	}
	out.Name = snap.Name
	out.Configured = snap.Configured
	out.Rows = snap.Rows
	out.Cols = snap.Cols
	out.Entrance = snap.Entrance
	out.ActiveVehicles = snap.ActiveVehicles

	for _, n := range snap.Nodes {
		node := Node{
			ID:      n.ID,
			X:       n.Col,
			Y:       n.Row,
			Type:    string(n.Kind),
			Class:   string(n.Class),
			Filled:  n.Occupied,
			IsEntry: n.IsEntrance,
		}
		if n.Occupied {
			vid := n.VehicleID
			node.VehicleID = &vid
		}
		if n.Distance != core.UnreachableDistance {
			d := n.Distance
			node.Distance = &d
		}
		out.Nodes = append(out.Nodes, node)
	}
	for _, e := range snap.Edges {
		out.Edges = append(out.Edges, Edge{Source: e.From, Target: e.To, Weight: e.Weight})
	}
	for class, c := range snap.Classes {
		out.Availability[class.String()] = ClassCounts{Total: c.Total, Occupied: c.Occupied, Available: c.Available}
	}
	return out
}

// ParkResultFromAllocation maps a successful Park.
func ParkResultFromAllocation(a state.Allocation) ParkResult {
	path := a.Path
	if path == nil {
		path = []int64{}
	}
	return ParkResult{
		Message:   fmt.Sprintf("Allocated slot %d", a.SlotID),
		VehicleID: a.VehicleID,
		SlotID:    a.SlotID,
		Class:     a.Class.String(),
		Distance:  a.Distance,
		Path:      path,
		ParkedAt:  a.ParkedAt.UTC(),
	}
}

// LeaveResultFor describes a successful Leave.
func LeaveResultFor(vehicleID string, slotID int64) LeaveResult {
	return LeaveResult{
		Message:   fmt.Sprintf("Vehicle %s left slot %d", vehicleID, slotID),
		VehicleID: vehicleID,
		SlotID:    slotID,
	}
}

// SummaryFromBuild maps a Reconfigure result.
func SummaryFromBuild(b *state.BuildSummary) LayoutSummary {
	if b == nil {
		return LayoutSummary{Slots: map[string]int{}}
	}
	slots := make(map[string]int, len(b.Slots))
	for class, n := range b.Slots {
		slots[class.String()] = n
	}
	return LayoutSummary{
		Name:              b.Name,
		Rows:              b.Rows,
		Cols:              b.Cols,
		Nodes:             b.Nodes,
		Edges:             b.Edges,
		Entrance:          b.Entrance,
		EntranceSource:    string(b.EntranceSource),
		Slots:             slots,
		UnreachableSlots:  b.UnreachableSlots,
		DiscardedVehicles: b.DiscardedVehicles,
	}
}

// VehicleFromRecord maps a registry record.
func VehicleFromRecord(rec model.VehicleRecord) Vehicle {
	return Vehicle{
		VehicleID: rec.VehicleID,
		SlotID:    rec.SlotID,
		Class:     rec.Class.String(),
		ParkedAt:  rec.ParkedAt.UTC(),
	}
}

// RouteResultFrom maps a router result.
func RouteResultFrom(slotID int64, r core.Route) RouteResult {
	path := r.Nodes
	if path == nil {
		path = []int64{}
	}
	return RouteResult{SlotID: slotID, Path: path, Cost: r.Cost}
}

// ClassNames returns the availability keys in a stable order.
func (s Status) ClassNames() []string {
	names := make([]string, 0, len(s.Availability))
	for name := range s.Availability {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToStruct encodes v through its JSON form into a protobuf Struct.
func ToStruct(v any) (*Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("encode %T as struct: %w", v, err)
	}
	return out, nil
}

// FromStruct decodes a protobuf Struct into v through its JSON form.
func FromStruct(s *Struct, v any) error {
	if s == nil {
		return errors.New("nil struct")
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode struct: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
