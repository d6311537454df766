package peripherals

import (
	"fmt"

	"github.com/circuitwasm/pyhost/hwplane"
)

// BusIO is the guest-visible "busio" module: I2C/SPI/UART constructors.
// Grounded on serial.Serial's port-register In/Out multiplexing in the
// teacher repo, generalized from "one fixed COM1 register block" to
// "look up or create a bus slot for this endpoint tuple" the way
// hwplane.Plane.FindOrCreateBus does.
type BusIO struct {
	plane *hwplane.Plane
}

// NewBusIO builds the busio module bound to plane.
func NewBusIO(plane *hwplane.Plane) *BusIO {
	return &BusIO{plane: plane}
}

func (b *BusIO) GetAttr(name string) (interface{}, error) {
	switch name {
	case "I2C":
		return callableFunc(func(args ...interface{}) (interface{}, error) {
			endpoints, freq, err := busCtorArgs(args)
			if err != nil {
				return nil, err
			}

			idx, err := b.plane.FindOrCreateBus(hwplane.BusI2C, endpoints, freq)
			if err != nil {
				return nil, err
			}

			return &I2C{plane: b.plane, idx: idx}, nil
		}), nil
	case "SPI":
		return callableFunc(func(args ...interface{}) (interface{}, error) {
			endpoints, freq, err := busCtorArgs(args)
			if err != nil {
				return nil, err
			}

			idx, err := b.plane.FindOrCreateBus(hwplane.BusSPI, endpoints, freq)
			if err != nil {
				return nil, err
			}

			return &SPI{plane: b.plane, idx: idx}, nil
		}), nil
	case "UART":
		return callableFunc(func(args ...interface{}) (interface{}, error) {
			endpoints, freq, err := busCtorArgs(args)
			if err != nil {
				return nil, err
			}

			idx, err := b.plane.FindOrCreateBus(hwplane.BusUART, endpoints, freq)
			if err != nil {
				return nil, err
			}

			return &UART{plane: b.plane, idx: idx}, nil
		}), nil
	default:
		return nil, fmt.Errorf("busio: %w: %s", ErrNoSuchPin, name)
	}
}

func (b *BusIO) SetAttr(name string, value interface{}) error {
	return fmt.Errorf("busio: %w", ErrReadOnly)
}

// busCtorArgs unpacks (pin, pin, ..., frequency) constructor arguments
// shared by I2C/SPI/UART, the last argument being the bus frequency.
func busCtorArgs(args []interface{}) ([]uint8, uint32, error) {
	if len(args) < 2 {
		return nil, 0, fmt.Errorf("busio: %w", ErrBadArgs)
	}

	endpoints := make([]uint8, 0, len(args)-1)

	for _, a := range args[:len(args)-1] {
		pin, ok := a.(PinID)
		if !ok {
			return nil, 0, fmt.Errorf("busio: %w", ErrBadArgs)
		}

		endpoints = append(endpoints, uint8(pin))
	}

	freq, ok := args[len(args)-1].(int64)
	if !ok {
		return nil, 0, fmt.Errorf("busio: %w", ErrBadArgs)
	}

	return endpoints, uint32(freq), nil
}

// bytesArg unpacks a single []byte/string argument, the shape writeto/
// write calls take.
func bytesArg(args []interface{}) ([]byte, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("busio: %w", ErrBadArgs)
	}

	switch v := args[0].(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("busio: %w", ErrBadArgs)
	}
}

// I2C is the guest-visible "busio.I2C" bus handle: advisory locking plus
// writeto/readfrom_into against the bus's device register scratch table,
// the CircuitPython analog of serial.Serial's COM1 register reads/writes.
type I2C struct {
	plane *hwplane.Plane
	idx   int
}

func (i *I2C) GetAttr(name string) (interface{}, error) {
	switch name {
	case "try_lock":
		return callableFunc(func(args ...interface{}) (interface{}, error) {
			return i.plane.TryLock(hwplane.BusI2C, i.idx)
		}), nil
	case "unlock":
		return callableFunc(func(args ...interface{}) (interface{}, error) {
			return nil, i.plane.Unlock(hwplane.BusI2C, i.idx)
		}), nil
	case "writeto":
		return callableFunc(func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("I2C.writeto: %w", ErrBadArgs)
			}

			addr, ok := args[0].(int64)
			if !ok {
				return nil, fmt.Errorf("I2C.writeto: %w", ErrBadArgs)
			}

			data, err := bytesArg(args[1:])
			if err != nil {
				return nil, err
			}

			for off, b := range data {
				if err := i.plane.SetI2CRegister(i.idx, uint8(off), b); err != nil {
					return nil, err
				}
			}

			return nil, i.plane.RecordTransaction(hwplane.BusI2C, i.idx, hwplane.Transaction{
				Address: uint16(addr), Write: true, Bytes: data,
			})
		}), nil
	case "readfrom_into":
		return callableFunc(func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("I2C.readfrom_into: %w", ErrBadArgs)
			}

			addr, ok := args[0].(int64)
			if !ok {
				return nil, fmt.Errorf("I2C.readfrom_into: %w", ErrBadArgs)
			}

			n, ok := args[1].(int64)
			if !ok {
				return nil, fmt.Errorf("I2C.readfrom_into: %w", ErrBadArgs)
			}

			out := make([]byte, n)

			for off := range out {
				v, err := i.plane.I2CRegister(i.idx, uint8(off))
				if err != nil {
					return nil, err
				}

				out[off] = v
			}

			if err := i.plane.RecordTransaction(hwplane.BusI2C, i.idx, hwplane.Transaction{
				Address: uint16(addr), Write: false, Bytes: out,
			}); err != nil {
				return nil, err
			}

			return out, nil
		}), nil
	default:
		return nil, fmt.Errorf("I2C: %w: %s", ErrNoSuchPin, name)
	}
}

func (i *I2C) SetAttr(name string, value interface{}) error {
	return fmt.Errorf("I2C: %w", ErrReadOnly)
}

// SPI is the guest-visible "busio.SPI" bus handle: advisory locking plus
// write/readinto, recorded the same way I2C transactions are but with no
// per-device register table (SPI has none in hwplane, §3).
type SPI struct {
	plane *hwplane.Plane
	idx   int
}

func (s *SPI) GetAttr(name string) (interface{}, error) {
	switch name {
	case "try_lock":
		return callableFunc(func(args ...interface{}) (interface{}, error) {
			return s.plane.TryLock(hwplane.BusSPI, s.idx)
		}), nil
	case "unlock":
		return callableFunc(func(args ...interface{}) (interface{}, error) {
			return nil, s.plane.Unlock(hwplane.BusSPI, s.idx)
		}), nil
	case "write":
		return callableFunc(func(args ...interface{}) (interface{}, error) {
			data, err := bytesArg(args)
			if err != nil {
				return nil, err
			}

			return nil, s.plane.RecordTransaction(hwplane.BusSPI, s.idx, hwplane.Transaction{
				Write: true, Bytes: data,
			})
		}), nil
	case "readinto":
		return callableFunc(func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("SPI.readinto: %w", ErrBadArgs)
			}

			n, ok := args[0].(int64)
			if !ok {
				return nil, fmt.Errorf("SPI.readinto: %w", ErrBadArgs)
			}

			out := make([]byte, n)

			return out, s.plane.RecordTransaction(hwplane.BusSPI, s.idx, hwplane.Transaction{
				Write: false, Bytes: out,
			})
		}), nil
	default:
		return nil, fmt.Errorf("SPI: %w: %s", ErrNoSuchPin, name)
	}
}

func (s *SPI) SetAttr(name string, value interface{}) error {
	return fmt.Errorf("SPI: %w", ErrReadOnly)
}

// UART is the guest-visible "busio.UART" bus handle: write/read against
// the bus's last-transaction record, mirroring serial.Serial.In/Out's
// THR/RBR byte-at-a-time register pair but against a bus slot instead of
// a fixed COM1 port address.
type UART struct {
	plane *hwplane.Plane
	idx   int
}

func (u *UART) GetAttr(name string) (interface{}, error) {
	switch name {
	case "write":
		return callableFunc(func(args ...interface{}) (interface{}, error) {
			data, err := bytesArg(args)
			if err != nil {
				return nil, err
			}

			return nil, u.plane.RecordTransaction(hwplane.BusUART, u.idx, hwplane.Transaction{
				Write: true, Bytes: data,
			})
		}), nil
	case "read":
		return callableFunc(func(args ...interface{}) (interface{}, error) {
			b, err := u.plane.Bus(hwplane.BusUART, u.idx)
			if err != nil {
				return nil, err
			}

			if b.Last.Write {
				return nil, nil
			}

			return b.Last.Bytes, nil
		}), nil
	default:
		return nil, fmt.Errorf("UART: %w: %s", ErrNoSuchPin, name)
	}
}

func (u *UART) SetAttr(name string, value interface{}) error {
	return fmt.Errorf("UART: %w", ErrReadOnly)
}
