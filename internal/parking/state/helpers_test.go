package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/navan260/dsa-el/core"
	"github.com/navan260/dsa-el/internal/logging"
)

// threeByFive is a slot row, a roadway row entered at column 0, and a
// second slot row.
var threeByFive = []string{
	"SSSSS",
	"ERRRR",
	"SSSSS",
}

func newConfiguredState(t *testing.T, rows []string, opts ...Option) *ParkingState {
	t.Helper()
	s := New(logging.Noop(), opts...)
	if _, err := s.Reconfigure(context.Background(), rows, ReconfigureOptions{Name: t.Name()}); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	return s
}

// checkPartition verifies every slot is either queued in its own class or
// occupied, never both and never neither, and that the vehicle registry
// agrees with slot occupancy.
func checkPartition(t *testing.T, s *ParkingState) {
	t.Helper()
	s.mu.RLock()
	defer s.mu.RUnlock()

	f := s.fac
	queued := make(map[int64]bool)
	for _, n := range f.graph.Slots() {
		for _, k := range f.alloc.Queue(n.Class) {
			if k.NodeID == n.ID {
				queued[n.ID] = true
			}
		}
	}
	for _, n := range f.graph.Slots() {
		_, occupied := f.occupant[n.ID]
		if occupied == queued[n.ID] {
			t.Fatalf("slot %d: occupied=%v queued=%v", n.ID, occupied, queued[n.ID])
		}
	}
	if len(f.occupant) != len(f.vehicles) {
		t.Fatalf("occupant map has %d entries, registry has %d", len(f.occupant), len(f.vehicles))
	}
	for id, rec := range f.vehicles {
		if f.occupant[rec.SlotID] != id {
			t.Fatalf("vehicle %s record points at slot %d occupied by %q", id, rec.SlotID, f.occupant[rec.SlotID])
		}
	}
}

// roadwayDetourExists reports whether target can be reached from the
// entrance while only passing through roadway nodes.
func roadwayDetourExists(g *core.Graph, target int64) bool {
	adj := make(map[int64][]int64)
	for _, e := range g.Edges() {
		adj[e.From] = append(adj[e.From], e.To)
		adj[e.To] = append(adj[e.To], e.From)
	}
	seen := map[int64]bool{g.Entrance(): true}
	queue := []int64{g.Entrance()}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adj[id] {
			if next == target {
				return true
			}
			n, _ := g.Node(next)
			if seen[next] || n.IsSlot() {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return false
}

type operation struct {
	name, result string
}

type fakeMetrics struct {
	mu         sync.Mutex
	total      map[string]int
	occupied   map[string]int
	active     int
	operations []operation
	routes     int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{total: map[string]int{}, occupied: map[string]int{}}
}

func (m *fakeMetrics) SetSlotCounts(class string, total, occupied int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total[class] = total
	m.occupied[class] = occupied
}

func (m *fakeMetrics) SetActiveVehicles(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = n
}

func (m *fakeMetrics) RecordOperation(name, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations = append(m.operations, operation{name, result})
}

func (m *fakeMetrics) ObserveRoute(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes++
}
