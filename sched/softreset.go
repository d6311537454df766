package sched

// SoftResetTrigger identifies what asked for a soft reset (§4.4: "triggered
// by a guest exception type or a host-initiated API").
type SoftResetTrigger int

const (
	// SoftResetHostRequested is a direct host API call.
	SoftResetHostRequested SoftResetTrigger = iota
	// SoftResetGuestException is a guest-raised reset sentinel exception.
	SoftResetGuestException
)

// Resetter is the next stage of a soft reset, run after the
// hardware-plane reset. The kernel passes its pyvm.VM, whose SoftReset
// re-initializes guest-visible module state.
type Resetter interface {
	SoftReset() error
}

// SoftReset runs plane's reset routine (§4.3), clears this scheduler's
// yield state, and then calls next.SoftReset. It does not re-run an
// autorun script. trigger is not used; the reset behavior does not depend
// on it (R2: reset is idempotent regardless of trigger).
func (s *Scheduler) SoftReset(trigger SoftResetTrigger, next Resetter) error {
	s.plane.Reset()
	s.ResetYieldState()

	return next.SoftReset()
}
