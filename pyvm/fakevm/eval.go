package fakevm

import (
	"context"
	"fmt"
	"sync"

	"github.com/circuitwasm/pyhost/pyvm"
)

// bytecodeStride is how often eval calls back into the hook, standing in
// for §4.4's "every N bytecodes" — each AST node visited counts as one
// bytecode for this fake VM's purposes.
const bytecodeStride = 10

// VM is a minimal interpreter satisfying pyvm.VM.
type VM struct {
	mu      sync.Mutex
	globals map[string]interface{}
	hooks   pyvm.Hooks
	stdout  func(string)

	bcCount int

	interrupted bool
}

// New constructs a VM with the builtins print/True/False/None registered,
// the way a real embedding would pre-populate __builtins__.
func New() *VM {
	v := &VM{globals: map[string]interface{}{}}
	v.globals["True"] = true
	v.globals["False"] = false
	v.globals["None"] = nil
	v.globals["print"] = NativeFunc(func(args ...interface{}) (interface{}, error) {
		v.printArgs(args)
		return nil, nil
	})

	v.globals["sys"] = NewModule("sys", map[string]interface{}{
		"path": []interface{}{""},
	})

	return v
}

func (v *VM) printArgs(args []interface{}) {
	if v.stdout == nil {
		return
	}

	s := ""

	for i, a := range args {
		if i > 0 {
			s += " "
		}

		s += fmt.Sprint(a)
	}

	v.stdout(s + "\n")
}

// SetStdout installs the callback used by the builtin print().
func (v *VM) SetStdout(f func(string)) {
	v.stdout = f
}

func (v *VM) Init(pystackWords, heapBytes int) error {
	if pystackWords <= 0 || heapBytes <= 0 {
		return fmt.Errorf("fakevm: invalid init sizes (%d, %d)", pystackWords, heapBytes)
	}

	return nil
}

func (v *VM) SetHooks(h pyvm.Hooks) {
	v.hooks = h
}

func (v *VM) Collect() {}

func (v *VM) Interrupt() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.interrupted = true
}

func (v *VM) SoftReset() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for k := range v.globals {
		if k != "True" && k != "False" && k != "None" && k != "print" && k != "sys" {
			delete(v.globals, k)
		}
	}

	v.interrupted = false

	return nil
}

func (v *VM) RegisterHostModule(name string, module pyvm.Value) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.globals[name] = module

	return nil
}

// sysModule returns the built-in sys module, which New always registers.
func (v *VM) sysModule() *Module {
	return v.globals["sys"].(*Module)
}

// SetPath pushes the embedding core's computed sys.path into the guest.
func (v *VM) SetPath(path []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	entries := make([]interface{}, len(path))
	for i, p := range path {
		entries[i] = p
	}

	return v.sysModule().SetAttr("path", entries)
}

// SetArgv pushes the embedding core's computed sys.argv into the guest.
func (v *VM) SetArgv(argv []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	entries := make([]interface{}, len(argv))
	for i, a := range argv {
		entries[i] = a
	}

	return v.sysModule().SetAttr("argv", entries)
}

// Exec compiles and runs code as a module-scope function (§4.5).
func (v *VM) Exec(ctx context.Context, code string) (pyvm.Value, bool, error) {
	toks := tokenize(code)

	prog, err := newParser(toks).parseProgram()
	if err != nil {
		return v.asException(err), false, nil
	}

	var result interface{}

	for _, s := range prog {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		r, err := v.execStmt(s)
		if err != nil {
			return v.asException(err), false, nil
		}

		result = r
	}

	return result, true, nil
}

func (v *VM) Import(ctx context.Context, name string) (pyvm.Value, bool, error) {
	v.mu.Lock()
	mod, ok := v.globals[name]
	v.mu.Unlock()

	if !ok {
		return v.asException(raise("ImportError", "no module named %q", name)), false, nil
	}

	return mod, true, nil
}

func (v *VM) asException(err error) *Exception {
	if exc, ok := err.(*Exception); ok {
		return exc
	}

	return raise("SyntaxError", "%v", err)
}

func (v *VM) execStmt(s stmt) (interface{}, error) {
	v.tickBytecode()

	switch st := s.(type) {
	case exprStmt:
		return v.evalExpr(st.e)
	case assignStmt:
		val, err := v.evalExpr(st.value)
		if err != nil {
			return nil, err
		}

		if err := v.assign(st.target, val); err != nil {
			return nil, err
		}

		return val, nil
	default:
		return nil, raise("SyntaxError", "unknown statement")
	}
}

func (v *VM) tickBytecode() {
	v.mu.Lock()
	v.bcCount++
	interrupted := v.interrupted
	v.mu.Unlock()

	if interrupted {
		return
	}

	if v.bcCount%bytecodeStride == 0 && v.hooks != nil {
		v.hooks.OnBytecode()
	}
}

func (v *VM) assign(target expr, val interface{}) error {
	switch t := target.(type) {
	case nameRef:
		v.mu.Lock()
		v.globals[t.name] = val
		v.mu.Unlock()

		return nil
	case attrExpr:
		obj, err := v.evalExpr(t.obj)
		if err != nil {
			return err
		}

		a, ok := obj.(Attributed)
		if !ok {
			return raise("AttributeError", "object has no settable attributes")
		}

		if err := a.SetAttr(t.name, val); err != nil {
			return err
		}

		return nil
	default:
		return raise("SyntaxError", "invalid assignment target")
	}
}

func (v *VM) evalExpr(e expr) (interface{}, error) {
	v.tickBytecode()

	switch n := e.(type) {
	case intLit:
		return n.v, nil
	case numLit:
		return n.v, nil
	case strLit:
		return n.v, nil
	case nameRef:
		v.mu.Lock()
		val, ok := v.globals[n.name]
		v.mu.Unlock()

		if !ok {
			return nil, raise("NameError", "name %q is not defined", n.name)
		}

		return val, nil
	case attrExpr:
		obj, err := v.evalExpr(n.obj)
		if err != nil {
			return nil, err
		}

		a, ok := obj.(Attributed)
		if !ok {
			return nil, raise("AttributeError", "object has no attribute %q", n.name)
		}

		return a.GetAttr(n.name)
	case callExpr:
		fn, err := v.evalExpr(n.fn)
		if err != nil {
			return nil, err
		}

		args := make([]interface{}, len(n.args))

		for i, a := range n.args {
			av, err := v.evalExpr(a)
			if err != nil {
				return nil, err
			}

			args[i] = av
		}

		c, ok := fn.(Callable)
		if !ok {
			return nil, raise("TypeError", "object is not callable")
		}

		return c.Call(args...)
	case binOp:
		return v.evalBinOp(n)
	default:
		return nil, raise("SyntaxError", "unknown expression")
	}
}

func (v *VM) evalBinOp(n binOp) (interface{}, error) {
	l, err := v.evalExpr(n.l)
	if err != nil {
		return nil, err
	}

	r, err := v.evalExpr(n.r)
	if err != nil {
		return nil, err
	}

	lf, lInt := asNumber(l)
	rf, rInt := asNumber(r)

	if lf == nil || rf == nil {
		return nil, raise("TypeError", "unsupported operand type(s)")
	}

	isInt := lInt && rInt

	switch n.op {
	case '+':
		return combine(*lf+*rf, isInt), nil
	case '-':
		return combine(*lf-*rf, isInt), nil
	case '*':
		return combine(*lf**rf, isInt), nil
	case '/':
		if *rf == 0 {
			return nil, raise("ZeroDivisionError", "division by zero")
		}

		return *lf / *rf, nil
	default:
		return nil, raise("SyntaxError", "unknown operator")
	}
}

func asNumber(v interface{}) (*float64, bool) {
	switch n := v.(type) {
	case int64:
		f := float64(n)
		return &f, true
	case float64:
		return &n, false
	default:
		return nil, false
	}
}

func combine(f float64, isInt bool) interface{} {
	if isInt {
		return int64(f)
	}

	return f
}

func (v *VM) GetAttr(val pyvm.Value, name string) (pyvm.Value, error) {
	a, ok := val.(Attributed)
	if !ok {
		return nil, raise("AttributeError", "object has no attribute %q", name)
	}

	return a.GetAttr(name)
}

func (v *VM) SetAttr(val pyvm.Value, name string, value pyvm.Value) error {
	a, ok := val.(Attributed)
	if !ok {
		return raise("AttributeError", "object has no attribute %q", name)
	}

	return a.SetAttr(name, value)
}

func (v *VM) Call(val pyvm.Value, args ...pyvm.Value) (pyvm.Value, error) {
	c, ok := val.(Callable)
	if !ok {
		return nil, raise("TypeError", "object is not callable")
	}

	return c.Call(args...)
}

func (v *VM) TypeName(val pyvm.Value) string {
	switch x := val.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case *Exception:
		return x.Type
	case *Module:
		return "module"
	default:
		return fmt.Sprintf("%T", val)
	}
}
