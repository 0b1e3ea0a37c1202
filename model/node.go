package model

// NodeKind distinguishes drivable cells from parkable ones. The string
// values match what the visualisation client expects in "type".
type NodeKind string

const (
	KindRoadway NodeKind = "road"
	KindSlot    NodeKind = "slot"
)

// Node is a materialised grid cell.
// ID is derived from the grid position as Row*columns + Col.
type Node struct {
	ID   int64
	Row  int
	Col  int
	Kind NodeKind

	// Class is only set for slots.
	Class VehicleClass
}

// IsSlot reports whether the node can hold a vehicle.
func (n Node) IsSlot() bool { return n.Kind == KindSlot }

// Edge is an undirected connection between two 4-adjacent nodes.
// From is always the lower ID.
type Edge struct {
	From   int64
	To     int64
	Weight int64
}
