// Package sched implements the cooperative yielding scheduler (C4): the VM
// hook that decides when a single-threaded guest should hand control back
// to the host, the supervisor tick that advances the virtual clock and
// drains background callbacks, and the soft-reset lifecycle.
package sched

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/circuitwasm/pyhost/hwplane"
)

const (
	// defaultHookCheckInterval is K in §4.4: the hook only reads the wall
	// clock every K calls, on the order of 100.
	defaultHookCheckInterval = 100

	// defaultYieldInterval is Y in §4.4, picked at the low end of the
	// 16-100ms range named in the spec for responsiveness.
	defaultYieldInterval = 16 * time.Millisecond
)

// Callback is a background callback registered by peripheral code. It is
// dispatched by ConsumeYield at a yield point, or by Tick when no guest
// call is in progress, never in the middle of a bytecode (§4.4).
type Callback func()

// Scheduler is the embedding core's C4 component. The zero value is not
// usable; construct with New.
type Scheduler struct {
	strategy Strategy
	plane    *hwplane.Plane
	now      func() time.Time

	hookCheckInterval int
	yieldInterval     time.Duration

	mu          sync.Mutex
	hookCalls   int
	lastYield   time.Time
	shouldYield bool
	callbacks   []Callback

	callDepth int32
}

// New builds a Scheduler using strategy to decide how yields are delivered
// to the guest. plane holds the virtual clock Tick advances and the
// yield-count record this scheduler reports through (§6
// wasm_get_yield_count), so the count has one owner instead of two.
func New(strategy Strategy, plane *hwplane.Plane) *Scheduler {
	return &Scheduler{
		strategy:          strategy,
		plane:             plane,
		now:               time.Now,
		hookCheckInterval: defaultHookCheckInterval,
		yieldInterval:     defaultYieldInterval,
		lastYield:         time.Now(),
	}
}

// SetClock overrides the wall clock source, for deterministic tests (P7).
func (s *Scheduler) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = now
	s.lastYield = now()
}

// Strategy reports which yield strategy this scheduler was built with.
func (s *Scheduler) Strategy() Strategy {
	return s.strategy
}

// OnBytecode implements pyvm.Hooks: called by the VM every N bytecodes
// (§4.4 item 1). Every hookCheckInterval calls it samples the wall clock
// and, per strategy, either reports the pending yield immediately
// (StrategyExceptionDriven / StrategyStackUnwind report via ShouldYield
// being consulted by the caller) or is a no-op (StrategyNone never
// requests a yield).
func (s *Scheduler) OnBytecode() bool {
	if s.strategy == StrategyNone {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.hookCalls++
	if s.hookCalls < s.hookCheckInterval {
		return s.shouldYield
	}

	s.hookCalls = 0

	now := s.now()
	if now.Sub(s.lastYield) >= s.yieldInterval {
		s.shouldYield = true
		s.lastYield = now
		s.plane.RecordYield()
	}

	return s.shouldYield
}

// OnGCRoots implements pyvm.Hooks. The scheduler itself holds no guest
// roots; it exists so Scheduler satisfies pyvm.Hooks directly without an
// adapter.
func (s *Scheduler) OnGCRoots() []interface{} {
	return nil
}

// ConsumeYield clears the pending yield flag once the caller has actually
// yielded, and drains the background callback queue in registration order
// (§4.4: "background callbacks ... run at yield points").
func (s *Scheduler) ConsumeYield() {
	s.mu.Lock()
	s.shouldYield = false
	queued := s.callbacks
	s.callbacks = nil
	s.mu.Unlock()

	for _, cb := range queued {
		cb()
	}
}

// ShouldYield reports the current state of the yield flag without
// consuming it.
func (s *Scheduler) ShouldYield() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.shouldYield
}

// YieldCount reports how many times the hook has set the yield flag,
// reading through to the virtual clock's record (§6 wasm_get_yield_count).
func (s *Scheduler) YieldCount() uint64 {
	return s.plane.YieldCount()
}

// ScheduleCallback enqueues a background callback for dispatch at the next
// yield point (§4.4). Called by peripheral code reacting to a hardware
// event (e.g. a bus transaction completing).
func (s *Scheduler) ScheduleCallback(cb Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callbacks = append(s.callbacks, cb)
}

// EnterCall increments the external-call-depth counter the kernel
// maintains across a guest Exec/Import boundary (§4.1 data flow: "C1
// increments the boundary counter and calls C5"), returning the new
// depth. sched owns the counter because the supervisor tick, not the
// kernel, is the thing that must read it on every 1ms tick.
func (s *Scheduler) EnterCall() int32 {
	return atomic.AddInt32(&s.callDepth, 1)
}

// ExitCall decrements the external-call-depth counter, returning the new
// depth. The kernel triggers a top-level collection when this returns 0.
func (s *Scheduler) ExitCall() int32 {
	return atomic.AddInt32(&s.callDepth, -1)
}

// CallDepth reads the current external-call-depth without mutating it.
func (s *Scheduler) CallDepth() int32 {
	return atomic.LoadInt32(&s.callDepth)
}

// Tick is the supervisor entry point a ~1ms host timer invokes (§4.4:
// "supervisor tick"). It advances the virtual clock when in realtime
// mode. If the external-call-depth is > 0 it only updates the clock and
// defers callback dispatch, to avoid reentering the guest VM from a timer
// callback (§5 shared-resource policy).
func (s *Scheduler) Tick() {
	s.plane.AdvanceRealtime(1)

	if s.CallDepth() > 0 {
		return
	}

	s.mu.Lock()
	queued := s.callbacks
	s.callbacks = nil
	s.mu.Unlock()

	for _, cb := range queued {
		cb()
	}
}

// Interrupt requests that the next OnBytecode call report a yield, the way
// a host-initiated KeyboardInterrupt-equivalent reaches the guest at its
// next safe point (§4.4 cancellation).
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shouldYield = true
}

// ResetYieldState clears the yield counters without touching the call
// depth or background queue, mirroring wasm_reset_yield_state (§6).
func (s *Scheduler) ResetYieldState() {
	s.mu.Lock()
	s.hookCalls = 0
	s.shouldYield = false
	s.lastYield = s.now()
	s.mu.Unlock()

	s.plane.ResetYieldState()
}
