package peripherals

import "errors"

var (
	// ErrNoSuchPin indicates an attribute name that the board, module or
	// peripheral object does not have (for board, a name that does not map
	// to a pin).
	ErrNoSuchPin = errors.New("no such pin")

	// ErrReadOnly indicates an attempt to write a read-only module.
	ErrReadOnly = errors.New("module is read-only")

	// ErrBadArgs indicates a constructor/call received the wrong argument
	// shape.
	ErrBadArgs = errors.New("bad arguments")
)
