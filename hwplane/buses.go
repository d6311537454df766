package hwplane

// BusKind selects which bus array a lookup targets.
type BusKind uint8

const (
	BusI2C BusKind = iota
	BusSPI
	BusUART
)

func (p *Plane) busesFor(kind BusKind) *[]Bus {
	switch kind {
	case BusI2C:
		return &p.i2c
	case BusSPI:
		return &p.spi
	default:
		return &p.uart
	}
}

func busLimit(kind BusKind) int {
	switch kind {
	case BusI2C:
		return NumI2CBuses
	case BusSPI:
		return NumSPIBuses
	default:
		return NumUARTBuses
	}
}

// FindOrCreateBus returns the bus slot for endpoints, creating one if no
// bus with that endpoint tuple exists yet (§4.3: "if a user constructs a
// bus on the same pins twice, the same slot is reused").
func (p *Plane) FindOrCreateBus(kind BusKind, endpoints []uint8, frequency uint32) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	buses := p.busesFor(kind)

	for i := range *buses {
		if endpointsEqual((*buses)[i].Endpoints, endpoints) {
			return i, nil
		}
	}

	if len(*buses) >= busLimit(kind) {
		return -1, ErrBusNotFound
	}

	*buses = append(*buses, Bus{Endpoints: append([]uint8{}, endpoints...), Frequency: frequency, Enabled: true})

	return len(*buses) - 1, nil
}

// FindBus looks up an existing bus by endpoint tuple without creating one.
func (p *Plane) FindBus(kind BusKind, endpoints []uint8) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	buses := p.busesFor(kind)

	for i := range *buses {
		if endpointsEqual((*buses)[i].Endpoints, endpoints) {
			return i, nil
		}
	}

	return -1, ErrBusNotFound
}

// Bus returns a copy of the bus record at index idx.
func (p *Plane) Bus(kind BusKind, idx int) (Bus, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	buses := p.busesFor(kind)
	if idx < 0 || idx >= len(*buses) {
		return Bus{}, ErrBusNotFound
	}

	return (*buses)[idx], nil
}

// TryLock attempts to acquire the advisory lock on a bus (§5: "A failed
// lock does not block; the guest decides"). It returns false rather than
// an error when already locked, matching the non-blocking contract.
func (p *Plane) TryLock(kind BusKind, idx int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	buses := p.busesFor(kind)
	if idx < 0 || idx >= len(*buses) {
		return false, ErrBusNotFound
	}

	b := &(*buses)[idx]
	if b.Locked {
		return false, nil
	}

	b.Locked = true

	return true, nil
}

// Unlock releases the advisory lock unconditionally.
func (p *Plane) Unlock(kind BusKind, idx int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	buses := p.busesFor(kind)
	if idx < 0 || idx >= len(*buses) {
		return ErrBusNotFound
	}

	(*buses)[idx].Locked = false

	return nil
}

// RecordTransaction stores the last transaction on a bus, monotonically
// timestamped (§3 invariant). The caller supplies the timestamp (typically
// the current virtual clock tick) so hwplane does not need a time source
// of its own.
func (p *Plane) RecordTransaction(kind BusKind, idx int, txn Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	buses := p.busesFor(kind)
	if idx < 0 || idx >= len(*buses) {
		return ErrBusNotFound
	}

	b := &(*buses)[idx]
	if txn.Timestamp < b.Last.Timestamp {
		txn.Timestamp = b.Last.Timestamp
	}

	b.Last = txn

	return nil
}

// I2CRegister reads device register slot reg on an I2C bus's scratch
// table (§3: "128-slot device register table for I2C").
func (p *Plane) I2CRegister(idx int, reg uint8) (byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if idx < 0 || idx >= len(p.i2c) {
		return 0, ErrBusNotFound
	}

	return p.i2c[idx].Registers[reg], nil
}

// SetI2CRegister writes device register slot reg on an I2C bus.
func (p *Plane) SetI2CRegister(idx int, reg uint8, value byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if idx < 0 || idx >= len(p.i2c) {
		return ErrBusNotFound
	}

	p.i2c[idx].Registers[reg] = value

	return nil
}

// SetNeverReset marks a bus as exempt from soft-reset (§4.3, P5).
func (p *Plane) SetNeverReset(kind BusKind, idx int, neverReset bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	buses := p.busesFor(kind)
	if idx < 0 || idx >= len(*buses) {
		return ErrBusNotFound
	}

	(*buses)[idx].NeverReset = neverReset

	return nil
}

// SetPinNeverReset marks pin n as exempt from soft-reset.
func (p *Plane) SetPinNeverReset(n int, neverReset bool) error {
	if n < 0 || n >= NumPins {
		return ErrPinOutOfRange
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pins[n].NeverReset = neverReset

	return nil
}
