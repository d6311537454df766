// Package pyvm defines the interface boundary to the embedded Python VM
// itself — lexer, parser, compiler, bytecode interpreter, and garbage
// collector. Per spec.md §1, the VM is an external collaborator consumed
// as a library, not specified here; this package describes only the
// contract the rest of this module needs from it, the way device.IODevice
// in the teacher repo describes the contract to a peripheral regardless of
// its concrete backend.
package pyvm

import "context"

// Value is whatever representation the underlying VM uses for a guest
// object. This module never inspects it directly except through Hooks.
type Value = interface{}

// Hooks lets the VM call back into the embedding core at the moments the
// core needs to observe or influence guest execution.
type Hooks interface {
	// OnBytecode is invoked periodically by the VM's bytecode dispatch
	// loop (§4.4: "configured to call a hook every N bytecodes"). Return
	// true to request that the VM yield at its next safe point.
	OnBytecode() (shouldYield bool)

	// OnGCRoots is invoked during a guest collection cycle to collect
	// additional roots this module owns (the host-holds-guest proxy
	// table, §4.2).
	OnGCRoots() []Value
}

// VM is the contract the embedding kernel needs from the Python VM.
// Real implementations wrap an embedded interpreter (e.g. a WASM build of
// CircuitPython); pyvm/fakevm provides a minimal stand-in for tests and
// for linking a runnable cmd/pyhost without vendoring a real interpreter.
type VM interface {
	// Init allocates the VM's heap and stacks. heapBytes/pystackWords
	// mirror the init(pystack_words, heap_bytes) contract (§4.1).
	Init(pystackWords, heapBytes int) error

	// SetHooks installs the embedding core's callback set. Called once,
	// after Init, before any Exec/Import.
	SetHooks(h Hooks)

	// Exec compiles and runs code as a module-scope function (§4.5),
	// returning its result value or, on a raised exception, the
	// exception value with ok=false.
	Exec(ctx context.Context, code string) (result Value, ok bool, err error)

	// Import imports name, returning the module value or, on an import
	// error, the exception value with ok=false.
	Import(ctx context.Context, name string) (module Value, ok bool, err error)

	// RegisterHostModule makes a host-backed module object visible to
	// `import name` inside the guest (§4.6).
	RegisterHostModule(name string, module Value) error

	// SetPath and SetArgv push the embedding core's computed sys.path
	// (colon-separated defaults plus any VFS-mount "/lib" entry, §4.1/§4.6)
	// and sys.argv into the guest's sys module.
	SetPath(path []string) error
	SetArgv(argv []string) error

	// GetAttr/SetAttr/Call forward attribute and call operations onto a
	// guest value, the guest-side half of the JsProxy pattern (§4.2).
	GetAttr(v Value, name string) (Value, error)
	SetAttr(v Value, name string, value Value) error
	Call(v Value, args ...Value) (Value, error)

	// TypeName reports a value's Python type name (used by S6 to check
	// "ZeroDivisionError" on an exception proxy).
	TypeName(v Value) string

	// Collect runs a full garbage collection cycle. The kernel calls this
	// only at a depth-1 boundary (§4.1).
	Collect()

	// Interrupt requests that the VM raise a KeyboardInterrupt-equivalent
	// at its next safe point (§4.4).
	Interrupt()

	// SoftReset re-initializes guest-visible module/REPL state without
	// tearing down the heap (§4.4, §9).
	SoftReset() error
}
