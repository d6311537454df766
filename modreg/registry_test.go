package modreg_test

import (
	"errors"
	"testing"

	"github.com/circuitwasm/pyhost/modreg"
	"github.com/circuitwasm/pyhost/proxy"
)

type stubModule struct {
	attrs map[string]interface{}
}

func (s *stubModule) GetAttr(name string) (interface{}, error) {
	v, ok := s.attrs[name]
	if !ok {
		return nil, errors.New("no such attribute")
	}

	return v, nil
}

func (s *stubModule) SetAttr(name string, value interface{}) error {
	s.attrs[name] = value
	return nil
}

func TestRegisterHostModuleForwardsAttrs(t *testing.T) {
	t.Parallel()

	table := proxy.New(proxy.HostHeldByGuest)
	id := table.Add(&stubModule{attrs: map[string]interface{}{"VERSION": int64(3)}}, nil)

	reg := modreg.NewRegistry(table)

	if err := reg.RegisterHostModule("board", id); err != nil {
		t.Fatal(err)
	}

	mod, ok := reg.Lookup("board")
	if !ok {
		t.Fatal("expected board to be registered")
	}

	v, err := mod.GetAttr("VERSION")
	if err != nil {
		t.Fatal(err)
	}

	if v != int64(3) {
		t.Fatalf("board.VERSION = %v, want 3", v)
	}
}

func TestRegisterHostModuleRejectsInvalidID(t *testing.T) {
	t.Parallel()

	table := proxy.New(proxy.HostHeldByGuest)
	reg := modreg.NewRegistry(table)

	if err := reg.RegisterHostModule("bogus", proxy.ID(999)); !errors.Is(err, modreg.ErrInvalidHostRef) {
		t.Fatalf("err = %v, want ErrInvalidHostRef", err)
	}
}

func TestRegisterHostModuleOverwrites(t *testing.T) {
	t.Parallel()

	table := proxy.New(proxy.HostHeldByGuest)
	id1 := table.Add(&stubModule{attrs: map[string]interface{}{"who": "first"}}, nil)
	id2 := table.Add(&stubModule{attrs: map[string]interface{}{"who": "second"}}, nil)

	reg := modreg.NewRegistry(table)

	if err := reg.RegisterHostModule("m", id1); err != nil {
		t.Fatal(err)
	}

	if err := reg.RegisterHostModule("m", id2); err != nil {
		t.Fatal(err)
	}

	mod, _ := reg.Lookup("m")

	v, err := mod.GetAttr("who")
	if err != nil {
		t.Fatal(err)
	}

	if v != "second" {
		t.Fatalf("m.who = %v, want second (overwrite)", v)
	}
}

func TestInitPathStartsWithRootRelativeEntry(t *testing.T) {
	t.Parallel()

	table := proxy.New(proxy.HostHeldByGuest)
	reg := modreg.NewRegistry(table)

	reg.InitPath("/extra:/more")

	path := reg.Path()
	if len(path) != 3 || path[0] != "" || path[1] != "/extra" || path[2] != "/more" {
		t.Fatalf("path = %v, want [\"\" \"/extra\" \"/more\"]", path)
	}
}

func TestInitArgvEmpty(t *testing.T) {
	t.Parallel()

	table := proxy.New(proxy.HostHeldByGuest)
	reg := modreg.NewRegistry(table)

	reg.InitArgv()

	if len(reg.Argv()) != 0 {
		t.Fatalf("argv = %v, want empty", reg.Argv())
	}
}

type stubVFS struct{}

func (stubVFS) Stat(path string) (modreg.Stat, error)          { return modreg.Stat{}, nil }
func (stubVFS) Open(path string) ([]byte, error)               { return nil, nil }
func (stubVFS) Write(path string, data []byte) error            { return nil }
func (stubVFS) Listdir(path string) ([]modreg.DirEntry, error) { return nil, nil }
func (stubVFS) Mkdir(path string) error                        { return nil }
func (stubVFS) Unlink(path string) error                       { return nil }
func (stubVFS) Rename(oldPath, newPath string) error           { return nil }

func TestAttachAddsLibToPath(t *testing.T) {
	t.Parallel()

	table := proxy.New(proxy.HostHeldByGuest)
	reg := modreg.NewRegistry(table)
	reg.InitPath("")

	if err := reg.Attach(stubVFS{}); err != nil {
		t.Fatal(err)
	}

	path := reg.Path()
	if path[len(path)-1] != "/lib" {
		t.Fatalf("path = %v, want last entry /lib", path)
	}

	if _, mounted := reg.FS(); !mounted {
		t.Fatal("expected FS() to report mounted")
	}
}

func TestAttachTwiceFails(t *testing.T) {
	t.Parallel()

	table := proxy.New(proxy.HostHeldByGuest)
	reg := modreg.NewRegistry(table)

	if err := reg.Attach(stubVFS{}); err != nil {
		t.Fatal(err)
	}

	if err := reg.Attach(stubVFS{}); !errors.Is(err, modreg.ErrAlreadyMounted) {
		t.Fatalf("err = %v, want ErrAlreadyMounted", err)
	}
}

func TestAttachAfterUserCodeStartedFails(t *testing.T) {
	t.Parallel()

	table := proxy.New(proxy.HostHeldByGuest)
	reg := modreg.NewRegistry(table)
	reg.MarkUserCodeStarted()

	if err := reg.Attach(stubVFS{}); !errors.Is(err, modreg.ErrUserCodeAlreadyRan) {
		t.Fatalf("err = %v, want ErrUserCodeAlreadyRan", err)
	}
}
