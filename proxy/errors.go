package proxy

import "errors"

var (
	// ErrInvalid indicates an id that was never allocated in this table,
	// distinct from ErrStale (an id that was allocated but recycled).
	ErrInvalid = errors.New("proxy: invalid id")

	// ErrStale indicates an id from a superseded generation (P3).
	ErrStale = errors.New("proxy: stale reference")

	// ErrNoSuchAttribute indicates attribute lookup/store failed.
	ErrNoSuchAttribute = errors.New("proxy: no such attribute")

	// ErrNoAttributes indicates the held object does not implement
	// Attributed at all, as opposed to simply lacking the named attribute.
	ErrNoAttributes = errors.New("proxy: object has no attributes")

	// ErrNotCallable indicates the held object does not implement Callable.
	ErrNotCallable = errors.New("proxy: object is not callable")
)
