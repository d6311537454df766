package peripherals_test

import (
	"testing"

	"github.com/circuitwasm/pyhost/hwplane"
	"github.com/circuitwasm/pyhost/peripherals"
)

func TestBoardResolvesPinID(t *testing.T) {
	t.Parallel()

	b := peripherals.NewBoard(8)

	v, err := b.GetAttr("D3")
	if err != nil {
		t.Fatal(err)
	}

	if v.(peripherals.PinID) != 3 {
		t.Fatalf("board.D3 = %v, want 3", v)
	}

	if _, err := b.GetAttr("D99"); err == nil {
		t.Fatal("expected error for unknown board attribute")
	}
}

func TestDigitalOutRoundTrip(t *testing.T) {
	t.Parallel()

	plane := hwplane.New()
	dio := peripherals.NewDigitalIO(plane)

	ctor, err := dio.GetAttr("DigitalInOut")
	if err != nil {
		t.Fatal(err)
	}

	callable := ctor.(interface {
		Call(args ...interface{}) (interface{}, error)
	})

	obj, err := callable.Call(peripherals.PinID(2))
	if err != nil {
		t.Fatal(err)
	}

	pin := obj.(*peripherals.DigitalInOut)

	outDir, err := dio.GetAttr("Direction")
	if err != nil {
		t.Fatal(err)
	}

	direction, err := outDir.(interface {
		GetAttr(string) (interface{}, error)
	}).GetAttr("OUTPUT")
	if err != nil {
		t.Fatal(err)
	}

	if err := pin.SetAttr("direction", direction); err != nil {
		t.Fatal(err)
	}

	if err := pin.SetAttr("value", true); err != nil {
		t.Fatal(err)
	}

	if !plane.GPIOGetOutputValue(2) {
		t.Fatal("expected pin 2 output value true after DigitalInOut.value = True")
	}
}

func TestAnalogOutRoundTrip(t *testing.T) {
	t.Parallel()

	plane := hwplane.New()
	a := peripherals.NewAnalogIO(plane)

	ctor, err := a.GetAttr("AnalogOut")
	if err != nil {
		t.Fatal(err)
	}

	callable := ctor.(interface {
		Call(args ...interface{}) (interface{}, error)
	})

	obj, err := callable.Call(peripherals.PinID(4))
	if err != nil {
		t.Fatal(err)
	}

	out := obj.(*peripherals.AnalogOut)

	if err := out.SetAttr("value", int64(4096)); err != nil {
		t.Fatal(err)
	}

	got, gerr := out.GetAttr("value")
	if gerr != nil {
		t.Fatal(gerr)
	}

	if got.(int64) != 4096 {
		t.Fatalf("AnalogOut.value = %v, want 4096", got)
	}
}

func TestDigitalInOutRejectsBadConstructorArgs(t *testing.T) {
	t.Parallel()

	plane := hwplane.New()
	dio := peripherals.NewDigitalIO(plane)

	ctor, err := dio.GetAttr("DigitalInOut")
	if err != nil {
		t.Fatal(err)
	}

	callable := ctor.(interface {
		Call(args ...interface{}) (interface{}, error)
	})

	if _, err := callable.Call(); err == nil {
		t.Fatal("expected error for zero-arg DigitalInOut()")
	}

	if _, err := callable.Call("not-a-pin"); err == nil {
		t.Fatal("expected error for non-PinID argument")
	}
}

func busCallable(t *testing.T, obj interface{}, name string) func(args ...interface{}) (interface{}, error) {
	t.Helper()

	getter, ok := obj.(interface {
		GetAttr(string) (interface{}, error)
	})
	if !ok {
		t.Fatalf("%T does not implement GetAttr", obj)
	}

	v, err := getter.GetAttr(name)
	if err != nil {
		t.Fatal(err)
	}

	callable, ok := v.(interface {
		Call(args ...interface{}) (interface{}, error)
	})
	if !ok {
		t.Fatalf("busio.%s is not callable", name)
	}

	return callable.Call
}

func TestI2CWriteThenReadRoundTripsThroughRegisters(t *testing.T) {
	t.Parallel()

	plane := hwplane.New()
	bus := peripherals.NewBusIO(plane)

	newI2C := busCallable(t, bus, "I2C")

	obj, err := newI2C(peripherals.PinID(0), peripherals.PinID(1), int64(100000))
	if err != nil {
		t.Fatal(err)
	}

	i2c := obj.(*peripherals.I2C)

	locked, err := busCallable(t, i2c, "try_lock")()
	if err != nil {
		t.Fatal(err)
	}

	if locked.(bool) != true {
		t.Fatal("expected first try_lock to succeed")
	}

	if _, err := busCallable(t, i2c, "writeto")(int64(0x42), []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	got, err := busCallable(t, i2c, "readfrom_into")(int64(0x42), int64(3))
	if err != nil {
		t.Fatal(err)
	}

	data := got.([]byte)
	if len(data) != 3 || data[0] != 1 || data[1] != 2 || data[2] != 3 {
		t.Fatalf("readfrom_into = %v, want [1 2 3]", data)
	}

	if err := (func() error { _, e := busCallable(t, i2c, "unlock")(); return e })(); err != nil {
		t.Fatal(err)
	}
}

func TestFindOrCreateBusReusesSlotForSameEndpoints(t *testing.T) {
	t.Parallel()

	plane := hwplane.New()
	bus := peripherals.NewBusIO(plane)

	newSPI := busCallable(t, bus, "SPI")

	if _, err := newSPI(peripherals.PinID(5), peripherals.PinID(6), int64(1000000)); err != nil {
		t.Fatal(err)
	}

	if _, err := newSPI(peripherals.PinID(5), peripherals.PinID(6), int64(1000000)); err != nil {
		t.Fatal(err)
	}

	idx, err := plane.FindBus(hwplane.BusSPI, []uint8{5, 6})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := plane.FindOrCreateBus(hwplane.BusSPI, []uint8{5, 6}, 1000000); err != nil {
		t.Fatal(err)
	}

	idx2, err := plane.FindBus(hwplane.BusSPI, []uint8{5, 6})
	if err != nil {
		t.Fatal(err)
	}

	if idx != idx2 {
		t.Fatal("expected constructing SPI on the same pins twice to reuse the bus slot")
	}
}
