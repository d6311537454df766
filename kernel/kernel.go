// Package kernel implements the embedding kernel (C1): the single entry
// point for host->guest calls, fixed init order, the external-call-depth
// contract, and the out-of-memory-as-exception-proxy convention. It wires
// together every other component (proxy, hwplane, modreg, sched, repl,
// pyvm) the way vmm.VMM's phased Init -> Setup -> Boot bring-up wires the
// teacher's machine/device/virtio stack.
package kernel

import (
	"context"
	"fmt"
	"sync"

	"github.com/circuitwasm/pyhost/abi"
	"github.com/circuitwasm/pyhost/hwplane"
	"github.com/circuitwasm/pyhost/modreg"
	"github.com/circuitwasm/pyhost/proxy"
	"github.com/circuitwasm/pyhost/pyvm"
	"github.com/circuitwasm/pyhost/repl"
	"github.com/circuitwasm/pyhost/sched"
)

// Kernel is the embedding core's C1 component. The zero value is not
// usable; construct with New.
type Kernel struct {
	vm    pyvm.VM
	Plane *hwplane.Plane

	// GuestHeld holds guest objects the host side references (import/exec
	// results, exception proxies). HostHeld holds host objects the guest
	// references (register_host_module targets, peripheral twins).
	GuestHeld *proxy.Table
	HostHeld  *proxy.Table

	converter *proxy.Converter
	Registry  *modreg.Registry
	Scheduler *sched.Scheduler
	REPL      *repl.Session

	mu           sync.Mutex
	initialized  bool
	bridgeReady  bool
	postInitDone bool
	gcPending    bool
}

// New wires a Kernel around vm, which must not yet be initialized. plane
// should be freshly constructed (hwplane.New()); strategy picks the
// scheduler's yield strategy (§9 Open Question: default is
// StrategyExceptionDriven, see SPEC_FULL.md §5).
func New(vm pyvm.VM, plane *hwplane.Plane, strategy sched.Strategy) *Kernel {
	guestHeld := proxy.New(proxy.GuestHeldByHost)
	hostHeld := proxy.New(proxy.HostHeldByGuest)

	scheduler := sched.New(strategy, plane)

	k := &Kernel{
		vm:        vm,
		Plane:     plane,
		GuestHeld: guestHeld,
		HostHeld:  hostHeld,
		converter: proxy.NewConverter(guestHeld),
		Registry:  modreg.NewRegistry(hostHeld),
		Scheduler: scheduler,
	}

	k.REPL = repl.New(vm, repl.LineBuffered, scheduler)

	return k
}

// SetBridgeReady marks the host side of the proxy bridge as wired, the
// precondition PostInit checks (§4.1: "init() must be safe to call before
// the host has wired its side of the proxy").
func (k *Kernel) SetBridgeReady() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.bridgeReady = true
}

// Init allocates the VM's heap/stacks and runs the fixed bootstrap order
// from §4.1: VM init, hardware plane already zeroed at construction,
// sys.path/sys.argv seeded. Steps that depend on the host-side bridge
// being live are deferred to PostInit.
func (k *Kernel) Init(pystackWords, heapBytes int, defaultPath string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.initialized {
		return abi.ErrAlreadyInitialized
	}

	if err := k.vm.Init(pystackWords, heapBytes); err != nil {
		return fmt.Errorf("%w: %v", abi.ErrFatalInit, err)
	}

	k.vm.SetHooks(k.Scheduler)

	k.Registry.InitPath(defaultPath)
	k.Registry.InitArgv()

	if err := k.vm.SetPath(k.Registry.Path()); err != nil {
		return fmt.Errorf("%w: %v", abi.ErrFatalInit, err)
	}

	if err := k.vm.SetArgv(k.Registry.Argv()); err != nil {
		return fmt.Errorf("%w: %v", abi.ErrFatalInit, err)
	}

	k.initialized = true

	return nil
}

// PostInit is the deferred-initialization step (§4.1): it checks that the
// host bridge was marked ready and records that post-init ran. It fails
// without completing if the bridge was never marked ready. It registers no
// modules and wires no board peripherals itself.
func (k *Kernel) PostInit() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.initialized {
		return fmt.Errorf("post_init: %w", abi.ErrFatalInit)
	}

	if !k.bridgeReady {
		return abi.ErrProxyNotReady
	}

	k.postInitDone = true

	return nil
}

// AttachFilesystem mounts a host filesystem at root (§4.6), delegating to
// the module registry, then re-pushes sys.path to the VM since Attach
// appends a "/lib" entry.
func (k *Kernel) AttachFilesystem(fs modreg.VFS) error {
	if err := k.Registry.Attach(fs); err != nil {
		return err
	}

	return k.vm.SetPath(k.Registry.Path())
}

// RegisterHostModule makes the host object at id visible to guest
// `import name` (§4.4 op register_host_module). Invalid ids return a
// plain Go error, not an exception proxy, per §4.1's op table. Once
// registered with the module registry, the forwarding module object is
// also pushed into the VM's own module table so guest `import name`
// resolves it directly.
func (k *Kernel) RegisterHostModule(name string, id proxy.ID) error {
	k.enter()
	defer k.exit()

	if err := k.Registry.RegisterHostModule(name, id); err != nil {
		return err
	}

	mod, _ := k.Registry.Lookup(name)

	return k.vm.RegisterHostModule(name, mod)
}

func (k *Kernel) enter() int32 {
	return k.Scheduler.EnterCall()
}

// exit decrements the call-depth counter and, when it returns to 0, runs a
// pending collection (§4.1: "transitions 1->0 ... runs a full collection
// at that top-level boundary, never during a nested call") and then
// reclaims every proxy slot released since the last top-level return.
func (k *Kernel) exit() {
	depth := k.Scheduler.ExitCall()
	if depth != 0 {
		return
	}

	k.mu.Lock()
	pending := k.gcPending
	k.gcPending = false
	k.mu.Unlock()

	if pending {
		k.vm.Collect()
	}

	k.GuestHeld.Reclaim()
	k.HostHeld.Reclaim()
}

// requestCollection asks for a collection (§4.1 heap-growth policy: "before
// any import, the kernel requests a collection when at depth 1"). At depth
// 1 it collects immediately; at any deeper level it marks the collection
// pending, and exit runs it at the next depth 1->0 boundary.
func (k *Kernel) requestCollection() {
	k.mu.Lock()
	k.gcPending = true
	k.mu.Unlock()

	if k.Scheduler.CallDepth() == 1 {
		k.vm.Collect()

		k.mu.Lock()
		k.gcPending = false
		k.mu.Unlock()
	}
}

// boxResult converts a VM result into the output triplet convention
// (§6): ok results go through the converter; !ok results (a raised guest
// exception) are boxed explicitly as an exception triplet.
func (k *Kernel) boxResult(result pyvm.Value, ok bool) (abi.Triplet, error) {
	if ok {
		return k.converter.ToGuest(result), nil
	}

	id := k.GuestHeld.Add(result, nil)

	gen, err := k.GuestHeld.GenerationOf(id)
	if err != nil {
		return abi.Triplet{}, err
	}

	return abi.Exception(uint32(id), gen), nil
}

// oomTriplet boxes a MemoryError-equivalent exception the way an
// out-of-memory allocation failure must surface: a catchable exception
// proxy, never a fatal abort (§4.1, §7).
func (k *Kernel) oomTriplet() abi.Triplet {
	id := k.GuestHeld.Add(oomException{}, nil)
	gen, _ := k.GuestHeld.GenerationOf(id)

	return abi.Exception(uint32(id), gen)
}

// oomException is the guest-visible object boxed for ErrOutOfMemory.
type oomException struct{}

func (oomException) Error() string { return "MemoryError" }

// Import is the embedding kernel's import(name) op (§4.1): requests a
// collection if warranted, calls through to the VM, and boxes the result.
func (k *Kernel) Import(ctx context.Context, name string) (abi.Triplet, error) {
	k.enter()
	defer k.exit()

	k.requestCollection()

	// The pyvm.VM contract has no separate fatal-error taxonomy; any error
	// it surfaces here is modeled as the allocation failure §4.1 names as
	// the only fatal-yet-catchable condition ("the kernel returns a
	// catchable out-of-memory exception proxy rather than terminating").
	result, ok, err := k.vm.Import(ctx, name)
	if err != nil {
		return k.oomTriplet(), nil
	}

	return k.boxResult(result, ok)
}

// Exec is the embedding kernel's exec(code, len) op (§4.1).
func (k *Kernel) Exec(ctx context.Context, code string) (abi.Triplet, error) {
	k.enter()
	defer k.exit()

	k.Registry.MarkUserCodeStarted()

	result, ok, err := k.REPL.Exec(ctx, code)
	if err != nil {
		return k.oomTriplet(), nil
	}

	return k.boxResult(result, ok)
}

// SoftReset re-initializes peripheral state and the REPL without tearing
// down the VM heap (§4.4, §9).
func (k *Kernel) SoftReset() error {
	return k.Scheduler.SoftReset(sched.SoftResetHostRequested, k.vm)
}
