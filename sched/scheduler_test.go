package sched_test

import (
	"testing"
	"time"

	"github.com/circuitwasm/pyhost/hwplane"
	"github.com/circuitwasm/pyhost/sched"
)

func TestStrategyNoneNeverYields(t *testing.T) {
	t.Parallel()

	plane := hwplane.New()
	s := sched.New(sched.StrategyNone, plane)

	for i := 0; i < 10000; i++ {
		if s.OnBytecode() {
			t.Fatal("StrategyNone must never request a yield")
		}
	}
}

func TestExceptionDrivenYieldsAfterWallClockAdvance(t *testing.T) {
	t.Parallel()

	plane := hwplane.New()
	s := sched.New(sched.StrategyExceptionDriven, plane)

	now := time.Unix(0, 0)
	s.SetClock(func() time.Time { return now })

	for i := 0; i < 99; i++ {
		if s.OnBytecode() {
			t.Fatalf("unexpected early yield at hook call %d", i)
		}
	}

	now = now.Add(50 * time.Millisecond)

	if !s.OnBytecode() {
		t.Fatal("expected yield after wall clock advanced past the yield interval (P7)")
	}

	if s.YieldCount() != 1 {
		t.Fatalf("YieldCount = %d, want 1", s.YieldCount())
	}
}

func TestConsumeYieldDrainsCallbacksInOrder(t *testing.T) {
	t.Parallel()

	plane := hwplane.New()
	s := sched.New(sched.StrategyExceptionDriven, plane)

	var order []int

	s.ScheduleCallback(func() { order = append(order, 1) })
	s.ScheduleCallback(func() { order = append(order, 2) })

	s.Interrupt()
	if !s.ShouldYield() {
		t.Fatal("expected Interrupt to set the yield flag")
	}

	s.ConsumeYield()

	if s.ShouldYield() {
		t.Fatal("ConsumeYield should clear the yield flag")
	}

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("callback order = %v, want [1 2]", order)
	}
}

func TestTickGatedByCallDepth(t *testing.T) {
	t.Parallel()

	plane := hwplane.New()
	plane.SetMode(hwplane.ClockRealtime)
	s := sched.New(sched.StrategyExceptionDriven, plane)

	var ran bool
	s.ScheduleCallback(func() { ran = true })

	s.EnterCall()
	s.Tick()

	if ran {
		t.Fatal("callback must not run while external-call-depth > 0")
	}

	s.ExitCall()
	s.Tick()

	if !ran {
		t.Fatal("callback should run once external-call-depth returns to 0")
	}
}

type fakeResetter struct{ called bool }

func (f *fakeResetter) SoftReset() error {
	f.called = true
	return nil
}

func TestSoftResetRunsPlaneResetAndDelegates(t *testing.T) {
	t.Parallel()

	plane := hwplane.New()
	if err := plane.ClaimPin(1); err != nil {
		t.Fatal(err)
	}

	s := sched.New(sched.StrategyExceptionDriven, plane)
	next := &fakeResetter{}

	if err := s.SoftReset(sched.SoftResetHostRequested, next); err != nil {
		t.Fatal(err)
	}

	if !next.called {
		t.Fatal("expected SoftReset to delegate to the Resetter")
	}

	p, err := plane.Pin(1)
	if err != nil {
		t.Fatal(err)
	}

	if p.Claimed {
		t.Fatal("expected pin 1 to be unclaimed after soft reset")
	}
}
