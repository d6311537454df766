package proxy

import "github.com/circuitwasm/pyhost/abi"

// Converter turns host-side Go values into triplets and back, boxing
// composite values as proxies in the given table when the per-kind policy
// calls for it (§4.2: "Composite objects ... may be copied eagerly or
// boxed as a proxy; the policy is per-kind and documented").
type Converter struct {
	table *Table
}

// NewConverter builds a Converter backed by table for proxying composite
// or opaque values.
func NewConverter(table *Table) *Converter {
	return &Converter{table: table}
}

// ToGuest converts a host value into a triplet, total over every Go value
// this module produces: it never returns an error, falling back to an
// opaque proxy for anything it does not recognize (§4.2: "conversion of
// unsupported type -> opaque proxy with a type tag").
func (c *Converter) ToGuest(v interface{}) abi.Triplet {
	switch val := v.(type) {
	case nil:
		return abi.None()
	case bool:
		return abi.Bool(val)
	case int:
		return abi.SmallInt(int64(val))
	case int32:
		return abi.SmallInt(int64(val))
	case int64:
		return abi.SmallInt(val)
	case float32:
		return abi.Float64(float64(val))
	case float64:
		return abi.Float64(val)
	case string:
		id := c.table.Add(val, nil)
		return abi.StringRef(len(val), uint64(id))
	case []byte:
		id := c.table.Add(val, nil)
		return abi.BytesRef(len(val), uint64(id))
	default:
		// Composite (map/slice/struct) or opaque: always boxed as a proxy,
		// matching §3's "Functions, modules, opaque wrappers - always
		// proxied" and the fallback rule for unsupported types.
		id := c.table.Add(val, nil)

		gen, err := c.table.GenerationOf(id)
		if err != nil {
			// Can't happen: id was just returned by Add on this table.
			gen = 0
		}

		return abi.Proxy(uint32(id), gen, abi.ProxyKindHostHeld)
	}
}

// FromGuest resolves a triplet back into a host value, following the
// inverse of ToGuest. Proxy/string/bytes triplets resolve through table.
func (c *Converter) FromGuest(t abi.Triplet) (interface{}, error) {
	switch t.Tag {
	case abi.TagNone:
		return nil, nil
	case abi.TagTrue:
		return true, nil
	case abi.TagFalse:
		return false, nil
	case abi.TagSmallInt:
		return t.Int(), nil
	case abi.TagFloat64:
		return t.Float(), nil
	case abi.TagString, abi.TagBytes:
		// Payload0 is the length; the table id ToGuest stored is Payload1.
		return c.table.Get(ID(t.Payload1))
	case abi.TagProxy:
		// Unlike strings/bytes, a proxy triplet carries the generation the
		// caller observed (§3 P3), so staleness from a recycled slot must
		// be checked here, not just liveness.
		return c.table.GetRef(Ref{ID: ID(t.Payload0), Generation: uint32(t.Payload1)})
	case abi.TagException:
		obj, err := c.table.Get(ID(t.Payload0))
		if err != nil {
			return nil, err
		}

		return obj, errExceptionValue{obj}
	default:
		return nil, ErrInvalid
	}
}

// errExceptionValue wraps a proxied exception object so FromGuest callers
// can distinguish "got an exception" from "lookup failed" while still
// returning the exception object itself for inspection (§9: exceptions
// are values, never host exceptions thrown on the guest's behalf - this
// error type exists purely as a Go-level signal, not something that
// crosses the boundary).
type errExceptionValue struct {
	obj interface{}
}

func (e errExceptionValue) Error() string {
	return "guest exception"
}
