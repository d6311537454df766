package peripherals

import (
	"fmt"

	"github.com/circuitwasm/pyhost/hwplane"
)

// AnalogIO is the guest-visible "analogio" module.
type AnalogIO struct {
	plane *hwplane.Plane
}

// NewAnalogIO builds the analogio module bound to plane.
func NewAnalogIO(plane *hwplane.Plane) *AnalogIO {
	return &AnalogIO{plane: plane}
}

func (a *AnalogIO) GetAttr(name string) (interface{}, error) {
	switch name {
	case "AnalogIn":
		return callableFunc(func(args ...interface{}) (interface{}, error) {
			pin, err := pinArg(args)
			if err != nil {
				return nil, err
			}

			if err := a.plane.ClaimPin(int(pin)); err != nil {
				return nil, err
			}

			if err := a.plane.SetAnalogIsOutput(int(pin), false); err != nil {
				return nil, err
			}

			return &AnalogIn{plane: a.plane, pin: int(pin)}, nil
		}), nil
	case "AnalogOut":
		return callableFunc(func(args ...interface{}) (interface{}, error) {
			pin, err := pinArg(args)
			if err != nil {
				return nil, err
			}

			if err := a.plane.ClaimPin(int(pin)); err != nil {
				return nil, err
			}

			if err := a.plane.SetAnalogIsOutput(int(pin), true); err != nil {
				return nil, err
			}

			return &AnalogOut{plane: a.plane, pin: int(pin)}, nil
		}), nil
	default:
		return nil, fmt.Errorf("analogio: %w: %s", ErrNoSuchPin, name)
	}
}

func (a *AnalogIO) SetAttr(name string, value interface{}) error {
	return fmt.Errorf("analogio: %w", ErrReadOnly)
}

func pinArg(args []interface{}) (PinID, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("analogio: %w", ErrBadArgs)
	}

	pin, ok := args[0].(PinID)
	if !ok {
		return 0, fmt.Errorf("analogio: %w", ErrBadArgs)
	}

	return pin, nil
}

// AnalogIn is a guest-visible ADC input, value in [0, 65535].
type AnalogIn struct {
	plane *hwplane.Plane
	pin   int
}

func (a *AnalogIn) GetAttr(name string) (interface{}, error) {
	if name != "value" {
		return nil, fmt.Errorf("AnalogIn: %w: %s", ErrNoSuchPin, name)
	}

	return int64(a.plane.AnalogGetOutputValue(a.pin)), nil
}

func (a *AnalogIn) SetAttr(name string, value interface{}) error {
	return fmt.Errorf("AnalogIn: %w", ErrReadOnly)
}

// AnalogOut is a guest-visible DAC output, value in [0, 65535].
type AnalogOut struct {
	plane *hwplane.Plane
	pin   int
}

func (a *AnalogOut) GetAttr(name string) (interface{}, error) {
	if name != "value" {
		return nil, fmt.Errorf("AnalogOut: %w: %s", ErrNoSuchPin, name)
	}

	return int64(a.plane.AnalogGetOutputValue(a.pin)), nil
}

func (a *AnalogOut) SetAttr(name string, value interface{}) error {
	if name != "value" {
		return fmt.Errorf("AnalogOut: %w: %s", ErrNoSuchPin, name)
	}

	v, ok := value.(int64)
	if !ok {
		return fmt.Errorf("AnalogOut.value: %w", ErrBadArgs)
	}

	return a.plane.SetAnalogOutputValue(a.pin, uint16(v))
}
