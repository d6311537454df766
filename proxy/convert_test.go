package proxy_test

import (
	"errors"
	"testing"

	"github.com/circuitwasm/pyhost/abi"
	"github.com/circuitwasm/pyhost/proxy"
)

func TestConverterScalarRoundTrip(t *testing.T) {
	t.Parallel()

	tab := proxy.New(proxy.HostHeldByGuest)
	conv := proxy.NewConverter(tab)

	for _, v := range []interface{}{nil, true, false, int64(5), 3.5} {
		tr := conv.ToGuest(v)

		got, err := conv.FromGuest(tr)
		if err != nil {
			t.Fatalf("FromGuest(%v): %v", v, err)
		}

		if got != v {
			t.Fatalf("round trip of %v got %v", v, got)
		}
	}
}

func TestConverterBoxesComposite(t *testing.T) {
	t.Parallel()

	tab := proxy.New(proxy.HostHeldByGuest)
	conv := proxy.NewConverter(tab)

	m := map[string]int{"x": 1}

	tr := conv.ToGuest(m)
	if tr.Tag != abi.TagProxy {
		t.Fatalf("map tag = %v, want proxy", tr.Tag)
	}

	got, err := conv.FromGuest(tr)
	if err != nil {
		t.Fatalf("FromGuest: %v", err)
	}

	back, ok := got.(map[string]int)
	if !ok || back["x"] != 1 {
		t.Fatalf("FromGuest() = %v, want original map", got)
	}
}

func TestConverterFromGuestRejectsStaleProxyGeneration(t *testing.T) {
	t.Parallel()

	tab := proxy.New(proxy.HostHeldByGuest)
	conv := proxy.NewConverter(tab)

	tr := conv.ToGuest(map[string]int{"x": 1})

	id := proxy.ID(tr.Payload0)

	if err := tab.Release(id); err != nil {
		t.Fatal(err)
	}

	if n := tab.Reclaim(); n != 1 {
		t.Fatalf("Reclaim() = %d, want 1", n)
	}

	// Reuse the freed slot for an unrelated object, the way the free-list
	// recycles ids under load. The old triplet's id is live again but at a
	// new generation, so it must still be rejected rather than silently
	// resolved against the slot's new occupant.
	tab.Add(map[string]int{"y": 2}, nil)

	if _, err := conv.FromGuest(tr); !errors.Is(err, proxy.ErrStale) {
		t.Fatalf("FromGuest(stale) err = %v, want ErrStale", err)
	}
}

func TestConverterString(t *testing.T) {
	t.Parallel()

	tab := proxy.New(proxy.HostHeldByGuest)
	conv := proxy.NewConverter(tab)

	tr := conv.ToGuest("hi")
	if tr.Tag != abi.TagString {
		t.Fatalf("tag = %v, want string", tr.Tag)
	}

	got, err := conv.FromGuest(tr)
	if err != nil || got != "hi" {
		t.Fatalf("FromGuest() = %v, %v, want hi", got, err)
	}
}
