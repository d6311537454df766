// Package fakevm is a minimal stand-in for "the Python VM itself" (out of
// scope per spec.md §1, consumed as a library). It implements just enough
// of a Python-shaped expression/statement language — arithmetic, name
// binding, attribute access and assignment, and calls — to exercise the
// rest of this module end to end (kernel, proxy, hwplane, repl) without
// vendoring a real bytecode interpreter. It is not, and is not meant to
// be, a complete Python implementation.
package fakevm

import "fmt"

// Exception is fakevm's guest exception value (§7: "the normal case;
// returned as an exception proxy").
type Exception struct {
	Type    string
	Message string
}

func (e *Exception) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func raise(typ, format string, args ...interface{}) *Exception {
	return &Exception{Type: typ, Message: fmt.Sprintf(format, args...)}
}

// Attributed mirrors proxy.Attributed so host-registered module objects
// can participate in attribute get/set without fakevm importing proxy
// directly (avoiding a dependency cycle; the kernel wires the two
// together).
type Attributed interface {
	GetAttr(name string) (interface{}, error)
	SetAttr(name string, value interface{}) error
}

// Callable mirrors proxy.Callable.
type Callable interface {
	Call(args ...interface{}) (interface{}, error)
}

// Module is a minimal guest module value: a named bag of attributes,
// usable both for host-registered modules (§4.6) and for fakevm's own
// builtins (e.g. "sys").
type Module struct {
	Name  string
	Attrs map[string]interface{}
}

// NewModule builds a Module with the given initial attributes.
func NewModule(name string, attrs map[string]interface{}) *Module {
	if attrs == nil {
		attrs = map[string]interface{}{}
	}

	return &Module{Name: name, Attrs: attrs}
}

func (m *Module) GetAttr(name string) (interface{}, error) {
	v, ok := m.Attrs[name]
	if !ok {
		return nil, raise("AttributeError", "module %q has no attribute %q", m.Name, name)
	}

	return v, nil
}

func (m *Module) SetAttr(name string, value interface{}) error {
	m.Attrs[name] = value

	return nil
}

// NativeFunc adapts a Go function to Callable, for builtins like print.
type NativeFunc func(args ...interface{}) (interface{}, error)

func (f NativeFunc) Call(args ...interface{}) (interface{}, error) {
	return f(args...)
}
