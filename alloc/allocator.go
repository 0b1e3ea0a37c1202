// Package alloc hands out parking slots nearest-first, one independent
// queue per vehicle class.
//
// An Allocator is not safe for concurrent use; the owning state object
// serialises access to it.
package alloc

import (
	"errors"
	"fmt"

	"github.com/google/btree"
	"github.com/navan260/dsa-el/core"
	"github.com/navan260/dsa-el/model"
)

var (
	// ErrCapacityExhausted indicates the queue for a class is empty.
	ErrCapacityExhausted = errors.New("capacity exhausted")
	// ErrUnknownSlot indicates a slot ID the allocator was not built with.
	ErrUnknownSlot = errors.New("unknown slot")
	// ErrClassMismatch indicates a release under a class other than the slot's own.
	ErrClassMismatch = errors.New("vehicle class does not match slot")
	// ErrSlotFree indicates a release of a slot that is already free.
	ErrSlotFree = errors.New("slot is already free")
	// ErrInvalidSlot indicates a bad slot definition at construction time.
	ErrInvalidSlot = errors.New("invalid slot")
)

// CapacityError reports which class ran out of slots.
type CapacityError struct {
	Class model.VehicleClass
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: no free %s slots", ErrCapacityExhausted, e.Class)
}

// Is lets errors.Is match ErrCapacityExhausted.
func (e *CapacityError) Is(target error) bool { return target == ErrCapacityExhausted }

const btreeDegree = 16

// Key orders free slots: static distance first, node ID second.
type Key struct {
	Distance int64
	NodeID   int64
}

// Less reports whether k sorts before o.
func (k Key) Less(o Key) bool {
	if k.Distance != o.Distance {
		return k.Distance < o.Distance
	}
	return k.NodeID < o.NodeID
}

// Slot describes one allocatable slot.
type Slot struct {
	ID       int64
	Class    model.VehicleClass
	Distance int64
}

// Allocator holds one min-ordered queue of free slots per vehicle class.
type Allocator struct {
	queues map[model.VehicleClass]*btree.BTreeG[Key]
	slots  map[int64]Slot
	totals map[model.VehicleClass]int
}

// New builds an allocator with every slot free.
func New(slots []Slot) (*Allocator, error) {
	a := &Allocator{
		queues: make(map[model.VehicleClass]*btree.BTreeG[Key], len(model.VehicleClasses)),
		slots:  make(map[int64]Slot, len(slots)),
		totals: make(map[model.VehicleClass]int, len(model.VehicleClasses)),
	}
	for _, class := range model.VehicleClasses {
		a.queues[class] = btree.NewG(btreeDegree, Key.Less)
	}
	for _, s := range slots {
		if !s.Class.Valid() {
			return nil, fmt.Errorf("%w: slot %d has class %q", ErrInvalidSlot, s.ID, s.Class)
		}
		if _, dup := a.slots[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate slot %d", ErrInvalidSlot, s.ID)
		}
		a.slots[s.ID] = s
		a.totals[s.Class]++
		a.queues[s.Class].ReplaceOrInsert(Key{Distance: s.Distance, NodeID: s.ID})
	}
	return a, nil
}

// FromGraph builds an allocator over every slot in g, keyed by the graph's
// precomputed static distances.
func FromGraph(g *core.Graph) (*Allocator, error) {
	nodes := g.Slots()
	slots := make([]Slot, 0, len(nodes))
	for _, n := range nodes {
		slots = append(slots, Slot{ID: n.ID, Class: n.Class, Distance: g.Distance(n.ID)})
	}
	return New(slots)
}

// Allocate removes and returns the nearest free slot of class.
func (a *Allocator) Allocate(class model.VehicleClass) (Key, error) {
	q, ok := a.queues[class]
	if !ok {
		return Key{}, &CapacityError{Class: class}
	}
	key, ok := q.DeleteMin()
	if !ok {
		return Key{}, &CapacityError{Class: class}
	}
	return key, nil
}

// Release returns slot id to the queue for class, under its original static
// distance. The class must match the slot's own class.
func (a *Allocator) Release(id int64, class model.VehicleClass) error {
	s, ok := a.slots[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSlot, id)
	}
	if s.Class != class {
		return fmt.Errorf("%w: slot %d is %s, got %s", ErrClassMismatch, id, s.Class, class)
	}
	key := Key{Distance: s.Distance, NodeID: id}
	q := a.queues[class]
	if q.Has(key) {
		return fmt.Errorf("%w: %d", ErrSlotFree, id)
	}
	q.ReplaceOrInsert(key)
	return nil
}

// Peek returns the slot the next Allocate(class) would hand out.
func (a *Allocator) Peek(class model.VehicleClass) (Key, bool) {
	q, ok := a.queues[class]
	if !ok {
		return Key{}, false
	}
	return q.Min()
}

// IsFree reports whether id is currently queued.
func (a *Allocator) IsFree(id int64) bool {
	s, ok := a.slots[id]
	if !ok {
		return false
	}
	return a.queues[s.Class].Has(Key{Distance: s.Distance, NodeID: id})
}

// Available returns the number of free slots of class.
func (a *Allocator) Available(class model.VehicleClass) int {
	if q, ok := a.queues[class]; ok {
		return q.Len()
	}
	return 0
}

// Total returns the number of slots of class, free or not.
func (a *Allocator) Total(class model.VehicleClass) int {
	return a.totals[class]
}

// Queue returns the free slots of class in allocation order.
func (a *Allocator) Queue(class model.VehicleClass) []Key {
	q, ok := a.queues[class]
	if !ok {
		return nil
	}
	out := make([]Key, 0, q.Len())
	q.Ascend(func(k Key) bool {
		out = append(out, k)
		return true
	})
	return out
}
