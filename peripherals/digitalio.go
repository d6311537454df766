package peripherals

import (
	"fmt"

	"github.com/circuitwasm/pyhost/hwplane"
)

// enumModule is a read-only bag of named constants, used for
// digitalio.Direction and digitalio.Pull the way a guest-facing enum
// class would be represented.
type enumModule struct {
	values map[string]interface{}
}

func (e *enumModule) GetAttr(name string) (interface{}, error) {
	v, ok := e.values[name]
	if !ok {
		return nil, fmt.Errorf("enum: %w: %s", ErrNoSuchPin, name)
	}

	return v, nil
}

func (e *enumModule) SetAttr(name string, value interface{}) error {
	return fmt.Errorf("enum: %w", ErrReadOnly)
}

// DigitalIO is the guest-visible "digitalio" module: DigitalInOut
// constructor plus the Direction/Pull enums.
type DigitalIO struct {
	plane *hwplane.Plane
}

// NewDigitalIO builds the digitalio module bound to plane.
func NewDigitalIO(plane *hwplane.Plane) *DigitalIO {
	return &DigitalIO{plane: plane}
}

func (d *DigitalIO) GetAttr(name string) (interface{}, error) {
	switch name {
	case "Direction":
		return &enumModule{values: map[string]interface{}{
			"INPUT":  hwplane.DirectionInput,
			"OUTPUT": hwplane.DirectionOutput,
		}}, nil
	case "Pull":
		return &enumModule{values: map[string]interface{}{
			"NONE": hwplane.PullNone,
			"UP":   hwplane.PullUp,
			"DOWN": hwplane.PullDown,
		}}, nil
	case "DigitalInOut":
		return callableFunc(func(args ...interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("DigitalInOut: %w", ErrBadArgs)
			}

			pin, ok := args[0].(PinID)
			if !ok {
				return nil, fmt.Errorf("DigitalInOut: %w", ErrBadArgs)
			}

			if err := d.plane.ClaimPin(int(pin)); err != nil {
				return nil, err
			}

			return &DigitalInOut{plane: d.plane, pin: int(pin)}, nil
		}), nil
	default:
		return nil, fmt.Errorf("digitalio: %w: %s", ErrNoSuchPin, name)
	}
}

func (d *DigitalIO) SetAttr(name string, value interface{}) error {
	return fmt.Errorf("digitalio: %w", ErrReadOnly)
}

// callableFunc adapts a Go func to the Callable contract without
// depending on pyvm/proxy's identical interfaces (avoiding an import
// cycle; both interfaces are structurally identical so Go's interface
// satisfaction still applies at the call site).
type callableFunc func(args ...interface{}) (interface{}, error)

func (f callableFunc) Call(args ...interface{}) (interface{}, error) {
	return f(args...)
}

// DigitalInOut is the guest-visible object a DigitalInOut() call produces,
// backed by one pin on the virtual hardware plane.
type DigitalInOut struct {
	plane *hwplane.Plane
	pin   int
}

func (dio *DigitalInOut) GetAttr(name string) (interface{}, error) {
	switch name {
	case "direction":
		p, err := dio.plane.Pin(dio.pin)
		if err != nil {
			return nil, err
		}

		return p.Direction, nil
	case "pull":
		p, err := dio.plane.Pin(dio.pin)
		if err != nil {
			return nil, err
		}

		return p.Pull, nil
	case "value":
		p, err := dio.plane.Pin(dio.pin)
		if err != nil {
			return nil, err
		}

		return p.Value, nil
	default:
		return nil, fmt.Errorf("DigitalInOut: %w: %s", ErrNoSuchPin, name)
	}
}

func (dio *DigitalInOut) SetAttr(name string, value interface{}) error {
	switch name {
	case "direction":
		dir, ok := value.(hwplane.Direction)
		if !ok {
			return fmt.Errorf("DigitalInOut.direction: %w", ErrBadArgs)
		}

		return dio.plane.SetDirection(dio.pin, dir)
	case "pull":
		pull, ok := value.(hwplane.Pull)
		if !ok {
			return fmt.Errorf("DigitalInOut.pull: %w", ErrBadArgs)
		}

		return dio.plane.SetPull(dio.pin, pull)
	case "value":
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("DigitalInOut.value: %w", ErrBadArgs)
		}

		return dio.plane.SetOutputValue(dio.pin, v)
	default:
		return fmt.Errorf("DigitalInOut: %w: %s", ErrNoSuchPin, name)
	}
}
