// core/graph.go
package core

import (
	"fmt"
	"math"
	"sort"

	"github.com/navan260/dsa-el/model"
	"gonum.org/v1/gonum/graph/simple"
)

// Static edge weights. Roadway lanes are cheap; stepping onto a slot is
// expensive, and slot-to-slot moves are kept only for connectivity.
const (
	RoadwayWeight    int64 = 1
	SlotAccessWeight int64 = 50
	SlotToSlotWeight int64 = 100
)

// Fallback entrance position used when a layout has no entrance marker.
const (
	DefaultEntranceRow = 1
	DefaultEntranceCol = 1
)

// EntranceSource records how the entrance node was chosen.
type EntranceSource string

const (
	EntranceMarked    EntranceSource = "marker"
	EntranceDefault   EntranceSource = "default-position"
	EntranceFirstNode EntranceSource = "first-node"
)

// Graph is the immutable facility graph built from a Layout, together with
// the static distance table computed at build time.
type Graph struct {
	rows int
	cols int

	entrance       int64
	entranceSource EntranceSource

	nodes map[int64]model.Node
	ids   []int64 // ascending
	edges []model.Edge

	weighted  *simple.WeightedUndirectedGraph
	distances DistanceTable
}

// NewGraph parses rows and builds the facility graph.
func NewGraph(rows []string) (*Graph, error) {
	layout, err := ParseLayout(rows)
	if err != nil {
		return nil, err
	}
	return BuildGraph(layout)
}

// BuildGraph materialises nodes and weighted edges from l, resolves the
// entrance, and precomputes static distances from it.
func BuildGraph(l *Layout) (*Graph, error) {
	if l == nil || len(l.Cells) == 0 {
		return nil, fmt.Errorf("%w: layout has no drivable or parkable cells", ErrConfiguration)
	}

	g := &Graph{
		rows:     l.Rows,
		cols:     l.Cols,
		nodes:    make(map[int64]model.Node, len(l.Cells)),
		ids:      make([]int64, 0, len(l.Cells)),
		weighted: simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
	}

	marked := int64(-1)
	for _, cell := range l.Cells {
		id := g.NodeID(cell.Row, cell.Col)
		node := model.Node{ID: id, Row: cell.Row, Col: cell.Col, Kind: model.KindRoadway}
		switch cell.Type {
		case CellSlot:
			node.Kind = model.KindSlot
			node.Class = cell.Class
		case CellEntrance:
			if marked < 0 {
				marked = id
			}
		}
		g.nodes[id] = node
		g.ids = append(g.ids, id)
		g.weighted.AddNode(simple.Node(id))
	}
	sort.Slice(g.ids, func(i, j int) bool { return g.ids[i] < g.ids[j] })

	// Each pair is visited once: right neighbour, then the one below.
	for _, id := range g.ids {
		node := g.nodes[id]
		if node.Col+1 < g.cols {
			g.connect(node, g.NodeID(node.Row, node.Col+1))
		}
		if node.Row+1 < g.rows {
			g.connect(node, g.NodeID(node.Row+1, node.Col))
		}
	}

	g.entrance, g.entranceSource = g.resolveEntrance(marked)
	g.distances = ComputeDistances(g)
	return g, nil
}

func (g *Graph) connect(from model.Node, toID int64) {
	to, ok := g.nodes[toID]
	if !ok {
		return
	}
	w := EdgeWeight(from, to)
	g.edges = append(g.edges, model.Edge{From: from.ID, To: to.ID, Weight: w})
	g.weighted.SetWeightedEdge(simple.WeightedEdge{
		F: simple.Node(from.ID),
		T: simple.Node(to.ID),
		W: float64(w),
	})
}

func (g *Graph) resolveEntrance(marked int64) (int64, EntranceSource) {
	if marked >= 0 {
		return marked, EntranceMarked
	}
	if DefaultEntranceRow < g.rows && DefaultEntranceCol < g.cols {
		if n, ok := g.nodes[g.NodeID(DefaultEntranceRow, DefaultEntranceCol)]; ok && n.Kind == model.KindRoadway {
			return n.ID, EntranceDefault
		}
	}
	return g.ids[0], EntranceFirstNode
}

// EdgeWeight returns the static weight for an edge between a and b. The rule
// is symmetric.
func EdgeWeight(a, b model.Node) int64 {
	switch {
	case a.IsSlot() && b.IsSlot():
		return SlotToSlotWeight
	case a.IsSlot() || b.IsSlot():
		return SlotAccessWeight
	default:
		return RoadwayWeight
	}
}

// NodeID maps a grid position to its node identity.
func (g *Graph) NodeID(row, col int) int64 {
	return int64(row)*int64(g.cols) + int64(col)
}

// Rows returns the layout height.
func (g *Graph) Rows() int { return g.rows }

// Cols returns the layout width.
func (g *Graph) Cols() int { return g.cols }

// Entrance returns the node all routes originate from.
func (g *Graph) Entrance() int64 { return g.entrance }

// EntranceSource reports how Entrance was chosen.
func (g *Graph) EntranceSource() EntranceSource { return g.entranceSource }

// Node looks up a node by ID.
func (g *Graph) Node(id int64) (model.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeCount returns the number of materialised nodes.
func (g *Graph) NodeCount() int { return len(g.ids) }

// Nodes returns every node sorted by ID.
func (g *Graph) Nodes() []model.Node {
	out := make([]model.Node, 0, len(g.ids))
	for _, id := range g.ids {
		out = append(out, g.nodes[id])
	}
	return out
}

// Slots returns every slot node sorted by ID.
func (g *Graph) Slots() []model.Node {
	var out []model.Node
	for _, id := range g.ids {
		if n := g.nodes[id]; n.IsSlot() {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns every edge sorted by (From, To).
func (g *Graph) Edges() []model.Edge {
	out := make([]model.Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Distance returns the static distance from the entrance to id, or
// UnreachableDistance when no path exists.
func (g *Graph) Distance(id int64) int64 {
	return g.distances.To(id)
}

// Distances returns the precomputed distance table. Callers must not
// modify it.
func (g *Graph) Distances() DistanceTable { return g.distances }
