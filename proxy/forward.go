package proxy

import "fmt"

// Attributed is implemented by objects that can be reached through
// lookup_attr/store_attr/call (§4.2). Host "twin" objects that peripheral
// code pushes state into (store_attr firing observers) implement this
// directly; guest objects are wrapped by the pyvm adapter the same way.
type Attributed interface {
	GetAttr(name string) (interface{}, error)
	SetAttr(name string, value interface{}) error
}

// Callable is implemented by proxied functions, modules, and opaque
// wrappers (§3: "Functions, modules, opaque wrappers — always proxied").
type Callable interface {
	Call(args ...interface{}) (interface{}, error)
}

// LookupAttr resolves name on the object held at id. This is the read half
// of the JsProxy pattern described in §4.2.
func (t *Table) LookupAttr(id ID, name string) (interface{}, error) {
	obj, err := t.Get(id)
	if err != nil {
		return nil, err
	}

	a, ok := obj.(Attributed)
	if !ok {
		return nil, fmt.Errorf("id %d: %w", id, ErrNoAttributes)
	}

	v, err := a.GetAttr(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNoSuchAttribute)
	}

	return v, nil
}

// StoreAttr sets name on the object held at id. This is the write half of
// the JsProxy pattern: writing a field on a bus "twin" object is how
// peripheral code notifies host-side observers, via property assignment
// rather than an explicit call (§4.2).
func (t *Table) StoreAttr(id ID, name string, value interface{}) error {
	obj, err := t.Get(id)
	if err != nil {
		return err
	}

	a, ok := obj.(Attributed)
	if !ok {
		return fmt.Errorf("id %d: %w", id, ErrNoAttributes)
	}

	if err := a.SetAttr(name, value); err != nil {
		return fmt.Errorf("%s: %w", name, ErrNoSuchAttribute)
	}

	return nil
}

// CallID invokes the callable held at id with args.
func (t *Table) CallID(id ID, args ...interface{}) (interface{}, error) {
	obj, err := t.Get(id)
	if err != nil {
		return nil, err
	}

	c, ok := obj.(Callable)
	if !ok {
		return nil, fmt.Errorf("id %d: %w", id, ErrNotCallable)
	}

	return c.Call(args...)
}
