package hwplane

// Pin returns a copy of pin n's current record. Used by guest peripheral
// bindings to read back state they do not own.
func (p *Plane) Pin(n int) (Pin, error) {
	if n < 0 || n >= NumPins {
		return Pin{}, ErrPinOutOfRange
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.pins[n], nil
}

// ClaimPin marks pin n claimed and enabled, the way a guest constructing a
// DigitalInOut/AnalogIn would. claimed implies enabled (§3 invariant).
func (p *Plane) ClaimPin(n int) error {
	if n < 0 || n >= NumPins {
		return ErrPinOutOfRange
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pins[n].Claimed = true
	p.pins[n].Enabled = true

	return nil
}

// ReleasePin clears claimed (but not enabled, which a guest finalizer
// controls separately) on pin n.
func (p *Plane) ReleasePin(n int) error {
	if n < 0 || n >= NumPins {
		return ErrPinOutOfRange
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pins[n].Claimed = false

	return nil
}

// SetDirection is called by guest peripheral code (§4.3: "guest peripheral
// bindings write here").
func (p *Plane) SetDirection(n int, d Direction) error {
	if n < 0 || n >= NumPins {
		return ErrPinOutOfRange
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pins[n].Direction = d

	return nil
}

// SetPull is called by guest peripheral code.
func (p *Plane) SetPull(n int, pull Pull) error {
	if n < 0 || n >= NumPins {
		return ErrPinOutOfRange
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pins[n].Pull = pull

	return nil
}

// SetOutputValue is the guest-side write path for an output pin (§4.3:
// "Host writes to fields owned by the guest... are forbidden"; this is
// the permitted guest-side counterpart).
func (p *Plane) SetOutputValue(n int, v bool) error {
	if n < 0 || n >= NumPins {
		return ErrPinOutOfRange
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pins[n].Value = v

	return nil
}

// SetAnalogOutputValue is the guest-side counterpart to SetOutputValue for
// an AnalogOut pin: it writes AnalogValue unconditionally, unlike
// AnalogSetInputValue which is the host-facing ADC stimulus and is guarded
// against overwriting a pin configured as a DAC output.
func (p *Plane) SetAnalogOutputValue(n int, v uint16) error {
	if n < 0 || n >= NumPins {
		return ErrPinOutOfRange
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pins[n].AnalogValue = v

	return nil
}

// --- Host-facing exported entry points (§6) ---

// GPIOSetInputValue simulates an external stimulus on pin n (§4.3: "Host
// writes to input-only fields ... are allowed without synchronization").
// Out-of-range pins are a silent no-op (B2): it must not corrupt adjacent
// memory, and the ABI gives the host no channel to observe the failure
// anyway since this entry point returns nothing.
func (p *Plane) GPIOSetInputValue(pin int, v bool) {
	if pin < 0 || pin >= NumPins {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pins[pin].Direction == DirectionInput {
		p.pins[pin].Value = v
	}
}

// GPIOGetOutputValue reads pin's current logical level, valid when
// direction is output. Out-of-range pins read as false.
func (p *Plane) GPIOGetOutputValue(pin int) bool {
	if pin < 0 || pin >= NumPins {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.pins[pin].Value
}

// GPIOGetDirection reads pin's direction (0 input, 1 output).
func (p *Plane) GPIOGetDirection(pin int) int {
	if pin < 0 || pin >= NumPins {
		return int(DirectionInput)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	return int(p.pins[pin].Direction)
}

// GPIOGetPull reads pin's pull configuration.
func (p *Plane) GPIOGetPull(pin int) int {
	if pin < 0 || pin >= NumPins {
		return int(PullNone)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	return int(p.pins[pin].Pull)
}

// AnalogSetInputValue simulates an ADC stimulus.
func (p *Plane) AnalogSetInputValue(pin int, v uint16) {
	if pin < 0 || pin >= NumPins {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.pins[pin].AnalogIsOutput {
		p.pins[pin].AnalogValue = v
	}
}

// AnalogGetOutputValue reads the DAC output value of pin.
func (p *Plane) AnalogGetOutputValue(pin int) uint16 {
	if pin < 0 || pin >= NumPins {
		return 0
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.pins[pin].AnalogValue
}

// AnalogIsEnabled reports whether pin's analog function is enabled.
func (p *Plane) AnalogIsEnabled(pin int) bool {
	if pin < 0 || pin >= NumPins {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.pins[pin].Enabled
}

// AnalogIsOutput reports whether pin is configured as a DAC (true) or ADC
// (false).
func (p *Plane) AnalogIsOutput(pin int) bool {
	if pin < 0 || pin >= NumPins {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.pins[pin].AnalogIsOutput
}

// SetAnalogIsOutput is called by guest peripheral bindings constructing an
// AnalogOut rather than AnalogIn.
func (p *Plane) SetAnalogIsOutput(pin int, isOutput bool) error {
	if pin < 0 || pin >= NumPins {
		return ErrPinOutOfRange
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pins[pin].AnalogIsOutput = isOutput

	return nil
}
