// core/router.go
package core

import (
	"errors"
	"fmt"

	"github.com/navan260/dsa-el/model"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

var (
	// ErrNoPathFound indicates the static graph has no path to the target.
	ErrNoPathFound = errors.New("no path found")
	// ErrUnknownNode indicates a node ID that is not part of the graph.
	ErrUnknownNode = errors.New("unknown node")
)

// OccupiedPenalty is added per occupied endpoint of an edge. It dwarfs any
// realistic static path cost.
const OccupiedPenalty = 1e9

// Occupancy is a read-only view of which slots currently hold a vehicle.
type Occupancy interface {
	IsOccupied(id int64) bool
}

// OccupancyFunc adapts a function to Occupancy.
type OccupancyFunc func(id int64) bool

// IsOccupied implements Occupancy.
func (f OccupancyFunc) IsOccupied(id int64) bool { return f(id) }

// PenaltyFunc returns the extra cost of traversing the edge between from and
// to for a route ending at target. It must be pure and non-negative.
type PenaltyFunc func(from, to model.Node, occ Occupancy, target int64) float64

// OccupiedSlotPenalty charges OccupiedPenalty for every endpoint that is
// occupied and is not the route target.
func OccupiedSlotPenalty(from, to model.Node, occ Occupancy, target int64) float64 {
	if occ == nil {
		return 0
	}
	var extra float64
	if from.ID != target && occ.IsOccupied(from.ID) {
		extra += OccupiedPenalty
	}
	if to.ID != target && occ.IsOccupied(to.ID) {
		extra += OccupiedPenalty
	}
	return extra
}

// Route is an ordered walk from the entrance to a target node.
type Route struct {
	Nodes []int64
	Cost  float64
}

// Router computes entrance-to-target routes over a Graph, applying a
// PenaltyFunc at query time. Stored edge weights are never modified.
type Router struct {
	graph   *Graph
	penalty PenaltyFunc
}

// NewRouter binds a router to g. A nil penalty selects OccupiedSlotPenalty.
func NewRouter(g *Graph, penalty PenaltyFunc) *Router {
	if penalty == nil {
		penalty = OccupiedSlotPenalty
	}
	return &Router{graph: g, penalty: penalty}
}

// Route returns the cheapest route from the entrance to target under the
// current occupancy.
func (r *Router) Route(target int64, occ Occupancy) (Route, error) {
	if _, ok := r.graph.nodes[target]; !ok {
		return Route{}, fmt.Errorf("%w: %d", ErrUnknownNode, target)
	}

	view := penalizedGraph{
		WeightedUndirectedGraph: r.graph.weighted,
		graph:                   r.graph,
		occ:                     occ,
		target:                  target,
		penalty:                 r.penalty,
	}
	shortest := path.DijkstraFrom(simple.Node(r.graph.entrance), view)
	nodes, cost := shortest.To(target)
	if len(nodes) == 0 {
		return Route{}, fmt.Errorf("%w: node %d is not reachable from entrance %d", ErrNoPathFound, target, r.graph.entrance)
	}

	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	return Route{Nodes: ids, Cost: cost}, nil
}

// penalizedGraph overrides Weight so the shortest path search sees static
// weight plus the per-query penalty.
type penalizedGraph struct {
	*simple.WeightedUndirectedGraph

	graph   *Graph
	occ     Occupancy
	target  int64
	penalty PenaltyFunc
}

func (p penalizedGraph) Weight(xid, yid int64) (float64, bool) {
	w, ok := p.WeightedUndirectedGraph.Weight(xid, yid)
	if !ok || xid == yid {
		return w, ok
	}
	return w + p.penalty(p.graph.nodes[xid], p.graph.nodes[yid], p.occ, p.target), true
}
