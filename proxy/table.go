// Package proxy implements the two directional registries that let guest
// code hold host objects and host code hold guest objects (C2): a stable,
// reference-counted table mapping opaque integer ids to live objects, with
// lifecycle rules that avoid dangling references under either side's
// memory manager.
package proxy

import (
	"fmt"
	"sync"
)

// Direction distinguishes the two symmetric registries named in §3.
type Direction uint8

const (
	// HostHeldByGuest is the table of host objects the guest holds.
	HostHeldByGuest Direction = iota
	// GuestHeldByHost is the table of guest objects the host holds.
	GuestHeldByHost
)

// Finalizer is called when a slot's ref-count reaches zero and the slot is
// reclaimed. It must tolerate being invoked from either side's collector
// (§9: "Finalizers must tolerate being called from the other side's
// collector").
type Finalizer func(obj interface{})

// ID is an opaque non-negative integer reference into a Table. Id 0 is
// reserved for the host global scope or guest __main__ (§4.2).
type ID uint32

// Ref packs an ID with the generation counter that was valid when the
// caller observed it, so staleness can be detected without a second call.
// The generation width is chosen per the Open Question in SPEC_FULL.md: a
// full uint32, making aliasing after release astronomically unlikely
// within a session.
type Ref struct {
	ID         ID
	Generation uint32
}

type slot struct {
	obj        interface{}
	finalizer  Finalizer
	refCount   uint32
	generation uint32
	live       bool
}

// Table is one directional registry (§4.2). The zero value is not usable;
// construct with New.
type Table struct {
	dir Direction

	mu       sync.Mutex
	slots    []slot
	freeList []ID
	reclaimQ []ID
}

// New creates an empty table. Slot 0 is pre-registered for the reserved
// null/global reference (§4.2) and is never reclaimed.
func New(dir Direction) *Table {
	t := &Table{dir: dir}
	t.slots = append(t.slots, slot{obj: nil, live: true, refCount: 1})

	return t
}

// Direction reports which of the two symmetric tables this is.
func (t *Table) Direction() Direction {
	return t.dir
}

// Add registers obj and returns a stable id for it (P2: "for all ids x
// returned by add(obj) ... get(x) returns the same live object" until
// release). finalizer may be nil.
func (t *Table) Add(obj interface{}, finalizer Finalizer) ID {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.freeList); n > 0 {
		id := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]

		s := &t.slots[id]
		s.obj = obj
		s.finalizer = finalizer
		s.refCount = 1
		s.live = true
		// generation was already bumped at reclaim time.

		return id
	}

	id := ID(len(t.slots))
	t.slots = append(t.slots, slot{obj: obj, finalizer: finalizer, refCount: 1, live: true})

	return id
}

// Get looks up the live object for id. An id that was never allocated fails
// with ErrInvalid; a reclaimed slot not yet reused fails with ErrStale (P3).
// Get carries no generation, so once a slot is reused it resolves to the
// new occupant; use GetRef to reject a superseded generation.
func (t *Table) Get(id ID) (interface{}, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.lookup(id)
	if err != nil {
		return nil, err
	}

	return s.obj, nil
}

// GetRef looks up the object for ref, failing with ErrStale if ref.Generation
// does not match the slot's current generation (the id was recycled since
// ref was observed).
func (t *Table) GetRef(ref Ref) (interface{}, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.lookup(ref.ID)
	if err != nil {
		return nil, err
	}

	if s.generation != ref.Generation {
		return nil, ErrStale
	}

	return s.obj, nil
}

func (t *Table) lookup(id ID) (*slot, error) {
	if int(id) >= len(t.slots) {
		return nil, ErrInvalid
	}

	s := &t.slots[id]
	if !s.live {
		return nil, ErrStale
	}

	return s, nil
}

// GenerationOf reads id's current generation without touching its
// ref-count, for callers building a Ref/triplet for an id they already
// hold a reference to (e.g. immediately after Add).
func (t *Table) GenerationOf(id ID) (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.lookup(id)
	if err != nil {
		return 0, err
	}

	return s.generation, nil
}

// Retain increments id's ref-count, returning the current generation.
func (t *Table) Retain(id ID) (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.lookup(id)
	if err != nil {
		return 0, err
	}

	s.refCount++

	return s.generation, nil
}

// Release decrements id's ref-count; at zero the slot is enqueued for
// reclaim (§4.2). Reclaim is not run inline so that a GC-cycle mark pass
// can still see the slot as live until Reclaim is explicitly invoked by
// the kernel at a top-level boundary (§4.1).
func (t *Table) Release(id ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.lookup(id)
	if err != nil {
		return err
	}

	if s.refCount == 0 {
		return fmt.Errorf("release of id %d with zero refcount: %w", id, ErrInvalid)
	}

	s.refCount--
	if s.refCount == 0 {
		t.reclaimQ = append(t.reclaimQ, id)
	}

	return nil
}

// Reclaim runs finalizers for every slot enqueued by Release since the
// last call, frees the slot, and bumps its generation (P3). It is meant to
// be called from the kernel's top-level collection point (§4.1), never
// mid-call.
func (t *Table) Reclaim() int {
	t.mu.Lock()
	q := t.reclaimQ
	t.reclaimQ = nil
	t.mu.Unlock()

	n := 0

	for _, id := range q {
		t.mu.Lock()
		s := &t.slots[id]
		if s.refCount != 0 || !s.live {
			// Re-retained or already reclaimed between enqueue and now.
			t.mu.Unlock()
			continue
		}

		obj := s.obj
		fin := s.finalizer
		s.obj = nil
		s.finalizer = nil
		s.live = false
		s.generation++
		t.freeList = append(t.freeList, id)
		t.mu.Unlock()

		if fin != nil {
			fin(obj)
		}

		n++
	}

	return n
}

// Roots returns every live object currently held in the table, for the
// guest collector to treat as roots (§4.2: "every live slot in the
// host-holds-guest table is a root").
func (t *Table) Roots() []interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]interface{}, 0, len(t.slots))

	for i := range t.slots {
		if t.slots[i].live && i != 0 {
			out = append(out, t.slots[i].obj)
		}
	}

	return out
}

// Len reports the number of slots ever allocated, including reclaimed
// ones still parked on the free list. Useful for tests and diagnostics.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.slots)
}
