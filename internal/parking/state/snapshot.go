package state

import "github.com/navan260/dsa-el/model"

// NodeState is one node as seen by a snapshot.
type NodeState struct {
	model.Node
	IsEntrance bool
	Occupied   bool
	VehicleID  string
	Distance   int64
}

// ClassCounts aggregates slots of one vehicle class.
type ClassCounts struct {
	Total     int
	Occupied  int
	Available int
}

// FacilitySnapshot is a read-only copy of the facility at one instant.
// Nodes are sorted by ID and edges by (From, To).
type FacilitySnapshot struct {
	Configured     bool
	Name           string
	Rows           int
	Cols           int
	Entrance       int64
	Nodes          []NodeState
	Edges          []model.Edge
	Classes        map[model.VehicleClass]ClassCounts
	ActiveVehicles int
}

// Snapshot returns a consistent copy of the current facility. An
// unconfigured state yields a snapshot with Configured false and zero
// counts for every class.
func (s *ParkingState) Snapshot() *FacilitySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &FacilitySnapshot{
		Classes: make(map[model.VehicleClass]ClassCounts, len(model.VehicleClasses)),
	}
	for _, class := range model.VehicleClasses {
		snap.Classes[class] = ClassCounts{}
	}
	f := s.fac
	if f == nil {
		return snap
	}

	g := f.graph
	snap.Configured = true
	snap.Name = f.name
	snap.Rows = g.Rows()
	snap.Cols = g.Cols()
	snap.Entrance = g.Entrance()
	snap.Edges = g.Edges()
	snap.ActiveVehicles = len(f.vehicles)

	nodes := g.Nodes()
	snap.Nodes = make([]NodeState, 0, len(nodes))
	for _, n := range nodes {
		vehicle, occupied := f.occupant[n.ID]
		snap.Nodes = append(snap.Nodes, NodeState{
			Node:       n,
			IsEntrance: n.ID == g.Entrance(),
			Occupied:   occupied,
			VehicleID:  vehicle,
			Distance:   g.Distance(n.ID),
		})
	}

	for _, class := range model.VehicleClasses {
		total := f.alloc.Total(class)
		free := f.alloc.Available(class)
		snap.Classes[class] = ClassCounts{Total: total, Occupied: total - free, Available: free}
	}
	return snap
}
