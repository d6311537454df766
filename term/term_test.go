package term_test

import (
	"errors"
	"syscall"
	"testing"

	"github.com/circuitwasm/pyhost/term"
)

func TestSetRawModeOnNonTTYReturnsENOTTY(t *testing.T) {
	t.Parallel()

	// Under `go test`, fd 0 is not a controlling terminal, so this
	// exercises the error path rather than the raw-mode ioctls
	// themselves.
	if _, err := term.SetRawMode(); err != nil && !errors.Is(err, syscall.ENOTTY) {
		t.Fatalf("SetRawMode: got %v, want nil or ENOTTY", err)
	}
}
