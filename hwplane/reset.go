package hwplane

// Reset runs the soft-reset routine (§4.3): every pin and bus without
// never-reset returns to defaults; never-reset records are skipped; the
// virtual clock is never touched (§9, R2, P5).
func (p *Plane) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resetLocked(true)
}

// resetLocked assumes p.mu is already held (or, at construction, that no
// other goroutine can observe p yet).
func (p *Plane) resetLocked(skipClock bool) {
	for i := range p.pins {
		if p.pins[i].NeverReset {
			continue
		}

		p.pins[i] = defaultPin()
	}

	resetBuses(p.i2c)
	resetBuses(p.spi)
	resetBuses(p.uart)

	if !skipClock {
		p.clock = Clock{Mode: ClockRealtime}
	}
	// When skipClock is true (every call after construction), the clock
	// is intentionally left untouched: "do not reset", by analogy to a
	// free-running crystal oscillator (§4.3, §9).
}

func resetBuses(buses []Bus) {
	for i := range buses {
		if buses[i].NeverReset {
			// last-transaction fields MAY be cleared even for
			// never-reset buses (P5); everything else is preserved.
			buses[i].Last = Transaction{}

			continue
		}

		endpoints := buses[i].Endpoints
		buses[i] = Bus{Endpoints: endpoints}
	}
}
