// Package modreg implements the module registry and VFS attachment
// contract (C6): deferred registration of host-provided modules so guest
// `import name` resolves to a host object, the guest-visible `sys.path`/
// `sys.argv` bootstrap lists, and the mount-point capability set a host
// filesystem must implement to be reachable from guest `import`.
package modreg

import (
	"fmt"
	"strings"
	"sync"

	"github.com/circuitwasm/pyhost/proxy"
)

// hostModule is the guest-visible module object register_host_module
// produces: attribute lookups forward to the host object held at id via
// the proxy table's JsProxy pattern (§4.6: "a module whose attribute
// lookup forwards to the host object via C2").
type hostModule struct {
	table *proxy.Table
	id    proxy.ID
}

func (m *hostModule) GetAttr(name string) (interface{}, error) {
	return m.table.LookupAttr(m.id, name)
}

func (m *hostModule) SetAttr(name string, value interface{}) error {
	return m.table.StoreAttr(m.id, name, value)
}

// Registry is the unordered name -> module mapping plus the sys.path/
// sys.argv bootstrap state and VFS mount point described in §4.6.
type Registry struct {
	hostTable *proxy.Table

	mu      sync.Mutex
	modules map[string]*hostModule
	path    []string
	argv    []string

	vfs             VFS
	mounted         bool
	userCodeStarted bool
}

// NewRegistry builds an empty registry bound to hostTable, the table
// register_host_module resolves proxy ids against.
func NewRegistry(hostTable *proxy.Table) *Registry {
	return &Registry{
		hostTable: hostTable,
		modules:   map[string]*hostModule{},
	}
}

// RegisterHostModule sets sys.modules[name] to a module forwarding to the
// host object at id (§4.4: register_host_module(name, ref)). Multiple
// registrations of the same name overwrite (§4.6).
func (r *Registry) RegisterHostModule(name string, id proxy.ID) error {
	if _, err := r.hostTable.Get(id); err != nil {
		return fmt.Errorf("register_host_module %q: %w", name, ErrInvalidHostRef)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.modules[name] = &hostModule{table: r.hostTable, id: id}

	return nil
}

// Lookup resolves name the way guest `import name` would, returning the
// attribute-forwarding module object and whether it is registered.
func (r *Registry) Lookup(name string) (proxy.Attributed, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.modules[name]

	return m, ok
}

// InitPath seeds sys.path with the root-relative "" entry followed by any
// colon-separated default paths (§4.1 init order). Called once during
// kernel bring-up.
func (r *Registry) InitPath(colonSeparatedDefaults string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.path = []string{""}

	for _, p := range strings.Split(colonSeparatedDefaults, ":") {
		if p != "" {
			r.path = append(r.path, p)
		}
	}
}

// Path returns the current sys.path entries.
func (r *Registry) Path() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.path))
	copy(out, r.path)

	return out
}

// InitArgv seeds sys.argv empty (§4.1 init order).
func (r *Registry) InitArgv() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.argv = []string{}
}

// Argv returns the current sys.argv entries.
func (r *Registry) Argv() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.argv))
	copy(out, r.argv)

	return out
}

// MarkUserCodeStarted records that guest user code has begun executing,
// after which Attach refuses further mounts (§4.6: "attach happens ...
// before any user code runs").
func (r *Registry) MarkUserCodeStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.userCodeStarted = true
}
