// core/distance.go
package core

import (
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// UnreachableDistance is the sentinel distance for nodes with no static path
// from the entrance. Such slots stay schedulable but sort last.
const UnreachableDistance int64 = math.MaxInt32

// DistanceTable maps node ID to static shortest distance from the entrance.
type DistanceTable map[int64]int64

// To returns the distance to id, treating unknown IDs as unreachable.
func (d DistanceTable) To(id int64) int64 {
	if dist, ok := d[id]; ok {
		return dist
	}
	return UnreachableDistance
}

// Reachable reports whether id has a finite static distance.
func (d DistanceTable) Reachable(id int64) bool {
	return d.To(id) != UnreachableDistance
}

// ComputeDistances runs a single-source shortest path search from the
// entrance over the static edge weights. Every node gets an entry.
func ComputeDistances(g *Graph) DistanceTable {
	table := make(DistanceTable, len(g.ids))
	shortest := path.DijkstraFrom(simple.Node(g.entrance), g.weighted)
	for _, id := range g.ids {
		w := shortest.WeightTo(id)
		if math.IsInf(w, 1) || w >= float64(UnreachableDistance) {
			table[id] = UnreachableDistance
			continue
		}
		table[id] = int64(w)
	}
	return table
}
