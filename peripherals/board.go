// Package peripherals implements the guest-visible "board"/"digitalio"/
// "analogio" binding objects a CircuitPython-style guest imports to reach
// the virtual hardware plane (§4.3: "guest peripheral bindings write
// here"). The real guest peripheral modules are out of scope (spec.md §1:
// "Any physical device driver — hardware is purely virtual"); this
// package is the thin Go-side adapter that a real guest import would
// eventually call through C bindings, exposed here as a host module so
// fakevm (or a real embedding) can reach it via the proxy's JsProxy
// pattern (§4.2), the same way serial.Serial multiplexes register reads
// and writes by port offset in the teacher repo.
package peripherals

import (
	"fmt"
)

// Board exposes pin identifiers as attributes (board.D13, board.D2, ...),
// grounded on how pci.PCI multiplexes a single address register across
// many logical targets.
type Board struct {
	names map[string]int
}

// NewBoard builds a Board with D0..D(n-1) bound to pin numbers 0..n-1.
func NewBoard(numPins int) *Board {
	b := &Board{names: map[string]int{}}

	for i := 0; i < numPins; i++ {
		b.names[fmt.Sprintf("D%d", i)] = i
	}

	return b
}

func (b *Board) GetAttr(name string) (interface{}, error) {
	pin, ok := b.names[name]
	if !ok {
		return nil, fmt.Errorf("board: %w: %s", ErrNoSuchPin, name)
	}

	return PinID(pin), nil
}

func (b *Board) SetAttr(name string, value interface{}) error {
	return fmt.Errorf("board: %w", ErrReadOnly)
}

// PinID identifies a board pin by number, the value board.Dn attributes
// resolve to.
type PinID int
