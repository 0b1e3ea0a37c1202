package state

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/navan260/dsa-el/core"
	"github.com/navan260/dsa-el/model"
)

func TestParkSelectsNearestSlotAndReturnsPath(t *testing.T) {
	s := newConfiguredState(t, threeByFive)
	ctx := context.Background()

	a, err := s.Park(ctx, "car-1", model.FourWheeler)
	if err != nil {
		t.Fatalf("Park: %v", err)
	}
	if a.SlotID != 0 || a.Distance != 50 {
		t.Fatalf("allocation = slot %d at %d, want slot 0 at 50", a.SlotID, a.Distance)
	}
	if !reflect.DeepEqual(a.Path, []int64{5, 0}) {
		t.Fatalf("path = %v, want [5 0]", a.Path)
	}

	// The slot below the entrance ties on distance and is next in ID order.
	b, err := s.Park(ctx, "car-2", model.FourWheeler)
	if err != nil {
		t.Fatalf("Park car-2: %v", err)
	}
	if b.SlotID != 10 || !reflect.DeepEqual(b.Path, []int64{5, 10}) {
		t.Fatalf("car-2 = slot %d path %v, want slot 10 path [5 10]", b.SlotID, b.Path)
	}

	c, err := s.Park(ctx, "car-3", model.FourWheeler)
	if err != nil {
		t.Fatalf("Park car-3: %v", err)
	}
	if c.SlotID != 1 || !reflect.DeepEqual(c.Path, []int64{5, 6, 1}) {
		t.Fatalf("car-3 = slot %d path %v, want slot 1 path [5 6 1]", c.SlotID, c.Path)
	}
	checkPartition(t, s)
}

func TestLeaveMakesSlotNextOffered(t *testing.T) {
	s := newConfiguredState(t, threeByFive)
	ctx := context.Background()

	before := s.Snapshot()
	a, err := s.Park(ctx, "car-1", model.FourWheeler)
	if err != nil {
		t.Fatalf("Park: %v", err)
	}
	slot, err := s.Leave(ctx, "car-1")
	if err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if slot != a.SlotID {
		t.Fatalf("Leave returned slot %d, want %d", slot, a.SlotID)
	}
	if after := s.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("park+leave did not restore the facility")
	}

	again, err := s.Park(ctx, "car-2", model.FourWheeler)
	if err != nil {
		t.Fatalf("Park car-2: %v", err)
	}
	if again.SlotID != a.SlotID {
		t.Fatalf("next allocation = slot %d, want released slot %d", again.SlotID, a.SlotID)
	}
	checkPartition(t, s)
}

func TestAlreadyParkedLeavesCountsUnchanged(t *testing.T) {
	s := newConfiguredState(t, threeByFive)
	ctx := context.Background()

	if _, err := s.Park(ctx, "car-1", model.FourWheeler); err != nil {
		t.Fatalf("Park: %v", err)
	}
	before := s.Snapshot()

	_, err := s.Park(ctx, "car-1", model.FourWheeler)
	if !errors.Is(err, ErrAlreadyParked) {
		t.Fatalf("second Park error = %v, want ErrAlreadyParked", err)
	}
	_, err = s.Park(ctx, "car-1", model.TwoWheeler)
	if !errors.Is(err, ErrAlreadyParked) {
		t.Fatalf("Park as other class error = %v, want ErrAlreadyParked", err)
	}
	if after := s.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("failed park changed the facility")
	}
}

func TestLotFullIsPerClass(t *testing.T) {
	s := newConfiguredState(t, []string{
		"SB",
		"ER",
	})
	ctx := context.Background()

	if _, err := s.Park(ctx, "car-1", model.FourWheeler); err != nil {
		t.Fatalf("Park car-1: %v", err)
	}
	_, err := s.Park(ctx, "car-2", model.FourWheeler)
	if !errors.Is(err, ErrLotFull) {
		t.Fatalf("Park car-2 error = %v, want ErrLotFull", err)
	}
	var full *LotFullError
	if !errors.As(err, &full) || full.Class != model.FourWheeler {
		t.Fatalf("error = %#v, want *LotFullError{four-wheeler}", err)
	}

	bike, err := s.Park(ctx, "bike-1", model.TwoWheeler)
	if err != nil {
		t.Fatalf("Park bike-1: %v", err)
	}
	if bike.SlotID != 1 {
		t.Fatalf("bike slot = %d, want 1", bike.SlotID)
	}
	if _, err := s.Vehicle("car-2"); !errors.Is(err, ErrNotParked) {
		t.Fatalf("rejected vehicle has a record: %v", err)
	}
	checkPartition(t, s)
}

func TestParkRejectsInvalidVehicle(t *testing.T) {
	s := newConfiguredState(t, threeByFive)
	ctx := context.Background()

	for _, tc := range []struct {
		id    string
		class model.VehicleClass
	}{
		{"", model.FourWheeler},
		{"   ", model.FourWheeler},
		{"truck-1", "truck"},
	} {
		if _, err := s.Park(ctx, tc.id, tc.class); !errors.Is(err, ErrInvalidVehicle) {
			t.Errorf("Park(%q, %q) error = %v, want ErrInvalidVehicle", tc.id, tc.class, err)
		}
	}
}

func TestLeaveNotParked(t *testing.T) {
	s := newConfiguredState(t, threeByFive)
	if _, err := s.Leave(context.Background(), "ghost"); !errors.Is(err, ErrNotParked) {
		t.Fatalf("Leave(ghost) error = %v, want ErrNotParked", err)
	}
}

func TestOperationsBeforeConfigure(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	if _, err := s.Park(ctx, "car-1", model.FourWheeler); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Park error = %v, want ErrNotConfigured", err)
	}
	if _, err := s.Leave(ctx, "car-1"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Leave error = %v, want ErrNotConfigured", err)
	}
	if _, err := s.Vehicle("car-1"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Vehicle error = %v, want ErrNotConfigured", err)
	}
	if _, err := s.Route(ctx, 0); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Route error = %v, want ErrNotConfigured", err)
	}

	snap := s.Snapshot()
	if snap.Configured || len(snap.Nodes) != 0 {
		t.Fatalf("unconfigured snapshot = %+v", snap)
	}
	for _, class := range model.VehicleClasses {
		if snap.Classes[class] != (ClassCounts{}) {
			t.Errorf("class %s counts = %+v, want zero", class, snap.Classes[class])
		}
	}
}

func TestUnreachableSlotRollsBack(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	sum, err := s.Reconfigure(ctx, []string{"E.S"}, ReconfigureOptions{})
	if err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	if sum.UnreachableSlots != 1 {
		t.Fatalf("UnreachableSlots = %d, want 1", sum.UnreachableSlots)
	}

	_, err = s.Park(ctx, "car-1", model.FourWheeler)
	if !errors.Is(err, ErrNoPathFound) {
		t.Fatalf("Park error = %v, want ErrNoPathFound", err)
	}
	snap := s.Snapshot()
	if got := snap.Classes[model.FourWheeler]; got.Available != 1 || got.Occupied != 0 {
		t.Fatalf("four-wheeler counts = %+v, want slot returned to queue", got)
	}
	if snap.ActiveVehicles != 0 {
		t.Fatalf("ActiveVehicles = %d, want 0", snap.ActiveVehicles)
	}
	checkPartition(t, s)
}

func TestRouteNeverCrossesSlotsWhenRoadwayDetourExists(t *testing.T) {
	s := newConfiguredState(t, core.DefaultLayoutRows())
	ctx := context.Background()
	g := s.fac.graph

	for i := 0; ; i++ {
		a, err := s.Park(ctx, fmt.Sprintf("car-%d", i), model.FourWheeler)
		if errors.Is(err, ErrLotFull) {
			break
		}
		if err != nil {
			t.Fatalf("Park #%d: %v", i, err)
		}
		if a.Path[0] != g.Entrance() || a.Path[len(a.Path)-1] != a.SlotID {
			t.Fatalf("path %v does not run entrance %d -> slot %d", a.Path, g.Entrance(), a.SlotID)
		}
		for _, id := range a.Path[1 : len(a.Path)-1] {
			n, _ := g.Node(id)
			if n.IsSlot() && roadwayDetourExists(g, a.SlotID) {
				t.Fatalf("path %v to slot %d crosses slot %d despite a roadway detour", a.Path, a.SlotID, id)
			}
		}
	}

	snap := s.Snapshot()
	if got := snap.Classes[model.FourWheeler]; got.Available != 0 || got.Occupied != got.Total {
		t.Fatalf("four-wheeler counts after filling = %+v", got)
	}
	checkPartition(t, s)
}

func TestSnapshotContents(t *testing.T) {
	parkedAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	s := newConfiguredState(t, threeByFive, WithClock(func() time.Time { return parkedAt }))
	if _, err := s.Park(context.Background(), "car-1", model.FourWheeler); err != nil {
		t.Fatalf("Park: %v", err)
	}

	snap := s.Snapshot()
	if !snap.Configured || snap.Rows != 3 || snap.Cols != 5 || snap.Entrance != 5 {
		t.Fatalf("snapshot header = %+v", snap)
	}
	if len(snap.Nodes) != 15 || len(snap.Edges) != 22 {
		t.Fatalf("snapshot has %d nodes / %d edges, want 15 / 22", len(snap.Nodes), len(snap.Edges))
	}
	for i, n := range snap.Nodes {
		if i > 0 && snap.Nodes[i-1].ID >= n.ID {
			t.Fatalf("nodes not sorted at %d", i)
		}
		switch n.ID {
		case 0:
			if !n.Occupied || n.VehicleID != "car-1" {
				t.Errorf("node 0 = %+v, want occupied by car-1", n)
			}
		case 5:
			if !n.IsEntrance || n.Distance != 0 {
				t.Errorf("node 5 = %+v, want entrance at distance 0", n)
			}
		default:
			if n.Occupied || n.IsEntrance {
				t.Errorf("node %d = %+v, want free non-entrance", n.ID, n)
			}
		}
	}
	if got := snap.Classes[model.FourWheeler]; got != (ClassCounts{Total: 10, Occupied: 1, Available: 9}) {
		t.Errorf("four-wheeler counts = %+v", got)
	}
	if got := snap.Classes[model.TwoWheeler]; got != (ClassCounts{}) {
		t.Errorf("two-wheeler counts = %+v, want zero", got)
	}
	if snap.ActiveVehicles != 1 {
		t.Errorf("ActiveVehicles = %d, want 1", snap.ActiveVehicles)
	}

	if !reflect.DeepEqual(snap, s.Snapshot()) {
		t.Fatalf("consecutive snapshots differ")
	}

	rec, err := s.Vehicle("car-1")
	if err != nil {
		t.Fatalf("Vehicle: %v", err)
	}
	if rec.SlotID != 0 || rec.Class != model.FourWheeler || !rec.ParkedAt.Equal(parkedAt) {
		t.Fatalf("vehicle record = %+v", rec)
	}
}

func TestLiveRoute(t *testing.T) {
	s := newConfiguredState(t, []string{
		"ESS",
		"S.S",
		"SSS",
	})
	ctx := context.Background()

	// Fills slot 1 first (ID tie-break against slot 3).
	if a, err := s.Park(ctx, "car-1", model.FourWheeler); err != nil || a.SlotID != 1 {
		t.Fatalf("Park = (%+v, %v), want slot 1", a, err)
	}
	route, err := s.Route(ctx, 8)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if !reflect.DeepEqual(route.Nodes, []int64{0, 3, 6, 7, 8}) {
		t.Fatalf("live route = %v, want [0 3 6 7 8]", route.Nodes)
	}
	if _, err := s.Route(ctx, 0); !errors.Is(err, ErrUnknownSlot) {
		t.Fatalf("Route(entrance) error = %v, want ErrUnknownSlot", err)
	}
	if _, err := s.Route(ctx, 4); !errors.Is(err, ErrUnknownSlot) {
		t.Fatalf("Route(empty cell) error = %v, want ErrUnknownSlot", err)
	}
}

func TestReconfigure(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects while vehicles parked", func(t *testing.T) {
		s := newConfiguredState(t, threeByFive)
		if _, err := s.Park(ctx, "car-1", model.FourWheeler); err != nil {
			t.Fatalf("Park: %v", err)
		}
		if _, err := s.Reconfigure(ctx, []string{"ES"}, ReconfigureOptions{}); !errors.Is(err, ErrVehiclesParked) {
			t.Fatalf("Reconfigure error = %v, want ErrVehiclesParked", err)
		}
		if _, err := s.Vehicle("car-1"); err != nil {
			t.Fatalf("vehicle lost after rejected reconfigure: %v", err)
		}
	})

	t.Run("force discards vehicles", func(t *testing.T) {
		s := newConfiguredState(t, threeByFive)
		for _, id := range []string{"car-1", "car-2"} {
			if _, err := s.Park(ctx, id, model.FourWheeler); err != nil {
				t.Fatalf("Park %s: %v", id, err)
			}
		}
		sum, err := s.Reconfigure(ctx, []string{"EB"}, ReconfigureOptions{Name: "small", Force: true})
		if err != nil {
			t.Fatalf("Reconfigure: %v", err)
		}
		if sum.DiscardedVehicles != 2 || sum.Name != "small" {
			t.Fatalf("summary = %+v", sum)
		}
		if sum.Rows != 1 || sum.Cols != 2 || sum.Slots[model.TwoWheeler] != 1 || sum.Slots[model.FourWheeler] != 0 {
			t.Fatalf("summary = %+v", sum)
		}
		if _, err := s.Vehicle("car-1"); !errors.Is(err, ErrNotParked) {
			t.Fatalf("Vehicle after force = %v, want ErrNotParked", err)
		}
		if snap := s.Snapshot(); snap.ActiveVehicles != 0 || snap.Name != "small" {
			t.Fatalf("snapshot after force = %+v", snap)
		}
		checkPartition(t, s)
	})

	t.Run("invalid layout keeps previous facility", func(t *testing.T) {
		s := newConfiguredState(t, threeByFive)
		if _, err := s.Park(ctx, "car-1", model.FourWheeler); err != nil {
			t.Fatalf("Park: %v", err)
		}
		before := s.Snapshot()
		for _, rows := range [][]string{nil, {"RX"}, {"RR", "R"}, {".."}} {
			if _, err := s.Reconfigure(ctx, rows, ReconfigureOptions{Force: true}); !errors.Is(err, ErrConfiguration) {
				t.Fatalf("Reconfigure(%q) error = %v, want ErrConfiguration", rows, err)
			}
		}
		if !reflect.DeepEqual(before, s.Snapshot()) {
			t.Fatalf("failed reconfigure changed the facility")
		}
	})

	t.Run("reports fallback entrance", func(t *testing.T) {
		s := New(nil)
		sum, err := s.Reconfigure(ctx, core.DefaultLayoutRows(), ReconfigureOptions{})
		if err != nil {
			t.Fatalf("Reconfigure: %v", err)
		}
		if sum.EntranceSource != core.EntranceDefault || sum.Entrance != 20 {
			t.Fatalf("entrance = %d (%s), want 20 (default-position)", sum.Entrance, sum.EntranceSource)
		}
	})
}

func TestMetricsRecorder(t *testing.T) {
	m := newFakeMetrics()
	s := newConfiguredState(t, threeByFive, WithMetricsRecorder(m))
	ctx := context.Background()

	if _, err := s.Park(ctx, "car-1", model.FourWheeler); err != nil {
		t.Fatalf("Park: %v", err)
	}
	_, _ = s.Park(ctx, "car-1", model.FourWheeler)
	_, _ = s.Leave(ctx, "ghost")

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.total["four-wheeler"] != 10 || m.occupied["four-wheeler"] != 1 || m.active != 1 {
		t.Fatalf("gauges = total %v occupied %v active %d", m.total, m.occupied, m.active)
	}
	want := []operation{
		{"reconfigure", "ok"},
		{"park", "ok"},
		{"park", "already_parked"},
		{"leave", "not_parked"},
	}
	if !reflect.DeepEqual(m.operations, want) {
		t.Fatalf("operations = %v, want %v", m.operations, want)
	}
	if m.routes != 1 {
		t.Fatalf("routes observed = %d, want 1", m.routes)
	}
}

func TestCustomPenalty(t *testing.T) {
	calls := 0
	s := newConfiguredState(t, threeByFive, WithPenalty(func(from, to model.Node, occ core.Occupancy, target int64) float64 {
		calls++
		return 0
	}))
	if _, err := s.Park(context.Background(), "car-1", model.FourWheeler); err != nil {
		t.Fatalf("Park: %v", err)
	}
	if calls == 0 {
		t.Fatalf("configured penalty was not used")
	}
}

// TestConcurrentParkLeave runs parkers and snapshot readers side by side
// and verifies the facility is consistent afterwards.
func TestConcurrentParkLeave(t *testing.T) {
	s := newConfiguredState(t, core.DefaultLayoutRows())
	ctx := context.Background()

	const workers, rounds = 8, 40
	var wg sync.WaitGroup
	errCh := make(chan error, workers+1)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				a, err := s.Park(ctx, id, model.FourWheeler)
				if err != nil {
					errCh <- fmt.Errorf("park %s: %w", id, err)
					return
				}
				if snap := s.Snapshot(); snap.Classes[model.FourWheeler].Occupied < 1 {
					errCh <- fmt.Errorf("snapshot missed parked vehicle %s", id)
					return
				}
				slot, err := s.Leave(ctx, id)
				if err != nil || slot != a.SlotID {
					errCh <- fmt.Errorf("leave %s = (%d, %v), want slot %d", id, slot, err, a.SlotID)
					return
				}
			}
		}(w)
	}

	done := make(chan struct{})
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			snap := s.Snapshot()
			occupied := 0
			for _, n := range snap.Nodes {
				if n.Occupied {
					occupied++
				}
			}
			if occupied != snap.ActiveVehicles {
				errCh <- fmt.Errorf("snapshot occupied=%d active=%d", occupied, snap.ActiveVehicles)
				return
			}
		}
	}()

	wg.Wait()
	close(done)
	readers.Wait()
	close(errCh)
	for err := range errCh {
		t.Error(err)
	}

	if snap := s.Snapshot(); snap.ActiveVehicles != 0 {
		t.Fatalf("ActiveVehicles = %d after all leaves, want 0", snap.ActiveVehicles)
	}
	checkPartition(t, s)
}
