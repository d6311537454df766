// Package hwplane implements the virtual hardware plane (C3): a
// contiguous, fixed-layout memory region describing pins, buses, and a
// virtual clock, written by guest peripheral bindings and read/written by
// the host without crossing the call boundary.
//
// The layout mirrors how ebda.EBDA encodes a fixed C struct to bytes with
// encoding/binary: every exported field here has a stable position, and
// Bytes() produces the exact byte image a host-side memory view would map.
package hwplane

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
)

// Magic identifies the layout version at offset 0 of the encoded plane.
const Magic = 0x50594857 // "PYHW"

const (
	// NumPins is the maximum number of pins in the pin array (§3).
	NumPins = 64

	// NumI2CBuses, NumSPIBuses, NumUARTBuses bound the per-kind bus arrays.
	NumI2CBuses  = 8
	NumSPIBuses  = 8
	NumUARTBuses = 4

	// I2CRegisterSlots is the per-bus device register scratch table size.
	I2CRegisterSlots = 128
)

var (
	// ErrPinOutOfRange is returned only by APIs that choose to report it;
	// the exported virtual_gpio_* entry points are no-ops instead (B2).
	ErrPinOutOfRange = errors.New("hwplane: pin out of range")

	// ErrBusNotFound indicates no bus matches the given endpoint tuple.
	ErrBusNotFound = errors.New("hwplane: bus not found")

	// ErrBusLocked indicates a write collided with the advisory lock.
	ErrBusLocked = errors.New("hwplane: bus locked")

	// ErrWrongClockMode indicates a manual/fast-forward advance call was
	// made while the clock was in a different mode.
	ErrWrongClockMode = errors.New("hwplane: clock is not in the requested mode")
)

// Direction is a pin's data direction.
type Direction uint8

const (
	DirectionInput Direction = iota
	DirectionOutput
)

// Pull is a pin's input pull configuration.
type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Drive is a pin's output drive configuration.
type Drive uint8

const (
	DrivePushPull Drive = iota
	DriveOpenDrain
)

// pin flag bits, packed into the flags byte of the on-wire layout.
const (
	flagEnabled = 1 << iota
	flagClaimed
	flagNeverReset
	flagAnalogIsOutput
)

// Pin is the in-memory form of a pin record (§3). Index == pin number.
type Pin struct {
	Value           bool
	Direction       Direction
	Pull            Pull
	Drive           Drive
	Enabled         bool
	Claimed         bool
	NeverReset      bool
	Capabilities    uint8
	AnalogValue     uint16
	AnalogIsOutput  bool
}

func (p Pin) encode() [8]byte {
	var b [8]byte

	if p.Value {
		b[0] = 1
	}

	b[1] = uint8(p.Direction)
	b[2] = uint8(p.Pull)
	b[3] = uint8(p.Drive)

	var flags uint8
	if p.Enabled {
		flags |= flagEnabled
	}

	if p.Claimed {
		flags |= flagClaimed
	}

	if p.NeverReset {
		flags |= flagNeverReset
	}

	if p.AnalogIsOutput {
		flags |= flagAnalogIsOutput
	}

	b[4] = flags
	b[5] = p.Capabilities
	binary.LittleEndian.PutUint16(b[6:8], p.AnalogValue)

	return b
}

func decodePin(b [8]byte) Pin {
	flags := b[4]

	return Pin{
		Value:          b[0] != 0,
		Direction:      Direction(b[1]),
		Pull:           Pull(b[2]),
		Drive:          Drive(b[3]),
		Enabled:        flags&flagEnabled != 0,
		Claimed:        flags&flagClaimed != 0,
		NeverReset:     flags&flagNeverReset != 0,
		AnalogIsOutput: flags&flagAnalogIsOutput != 0,
		Capabilities:   b[5],
		AnalogValue:    binary.LittleEndian.Uint16(b[6:8]),
	}
}

func defaultPin() Pin {
	return Pin{Direction: DirectionInput, Pull: PullNone}
}

// Transaction records the last bus transaction (§3).
type Transaction struct {
	Address   uint16
	Write     bool
	Bytes     []byte
	Timestamp uint64
}

// Bus is a generic I2C/SPI/UART bus record (§3). Endpoints identifies the
// bus (e.g. SCL/SDA, or CLK/MOSI/MISO) and is how a repeated construction
// on the same pins resolves to the same slot (§4.3).
type Bus struct {
	Endpoints  []uint8
	Frequency  uint32
	Locked     bool
	Enabled    bool
	NeverReset bool
	Last       Transaction

	// Registers is the 128-slot device register scratch table, populated
	// only for I2C buses (§3).
	Registers [I2CRegisterSlots]byte
}

func endpointsEqual(a, b []uint8) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// ClockMode selects how the virtual clock advances (§3).
type ClockMode uint8

const (
	ClockRealtime ClockMode = iota
	ClockManual
	ClockFastForward
)

// Clock is the single virtual clock register (§3, §6).
type Clock struct {
	Ticks32kHz uint64
	CPUFreq    uint32
	Mode       ClockMode
	Yields     uint64
	HostTicks  uint64
}

// MonotonicMillis returns time.monotonic() in milliseconds, per §4.3:
// "Guest time.monotonic() divides ticks_32kHz by 32 for ms."
func (c Clock) MonotonicMillis() uint64 {
	return c.Ticks32kHz / 32
}

// Plane is the virtual hardware plane: the single process-wide instance
// backing every peripheral binding in the guest and every host read/write
// (§9: "process-wide singletons").
type Plane struct {
	mu sync.RWMutex

	pins  [NumPins]Pin
	i2c   []Bus
	spi   []Bus
	uart  []Bus
	clock Clock
}

// New allocates a zeroed plane with every pin at its reset default and the
// clock stopped at zero, mode realtime.
func New() *Plane {
	p := &Plane{}
	p.resetLocked(false)

	return p
}

// Bytes encodes the plane's current state the way ebda.EBDA.Bytes() does:
// a magic header followed by the fixed-layout pin array. Bus arrays and
// the clock are exposed through dedicated pointers in a real embedding
// (§6: get_virtual_clock_hw_ptr, get_gpio_state_ptr) rather than inlined
// here, since their sizes depend on build-time bus counts; Bytes covers
// the part of the layout that is always fixed size.
func (p *Plane) Bytes() ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	buf := new(bytes.Buffer)

	if err := binary.Write(buf, binary.LittleEndian, uint32(Magic)); err != nil {
		return nil, err
	}

	for _, pin := range p.pins {
		enc := pin.encode()
		if _, err := buf.Write(enc[:]); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// ClockBytes encodes the 32-byte virtual clock record per §6's layout.
func (p *Plane) ClockBytes() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()

	b := make([]byte, 32)
	binary.LittleEndian.PutUint64(b[0:8], p.clock.Ticks32kHz)
	binary.LittleEndian.PutUint32(b[8:12], p.clock.CPUFreq)
	b[12] = uint8(p.clock.Mode)
	binary.LittleEndian.PutUint64(b[13:21], p.clock.Yields)
	binary.LittleEndian.PutUint64(b[21:29], p.clock.HostTicks)

	return b
}
