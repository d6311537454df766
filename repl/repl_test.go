package repl_test

import (
	"context"
	"testing"

	"github.com/circuitwasm/pyhost/pyvm/fakevm"
	"github.com/circuitwasm/pyhost/repl"
)

func TestExecStripsLeadingIndent(t *testing.T) {
	t.Parallel()

	vm := fakevm.New()
	s := repl.New(vm, repl.LineBuffered, nil)

	result, ok, err := s.Exec(context.Background(), "    2+2\n")
	if err != nil {
		t.Fatal(err)
	}

	if !ok {
		t.Fatalf("unexpected exception: %v", result)
	}

	if result != int64(4) {
		t.Fatalf("result = %v, want 4", result)
	}
}

func TestPushLineCompletesSimpleStatement(t *testing.T) {
	t.Parallel()

	vm := fakevm.New()
	s := repl.New(vm, repl.LineBuffered, nil)

	var out string
	s.SetStdout(func(line string) { out += line })

	status, err := s.PushLine(context.Background(), "1+1")
	if err != nil {
		t.Fatal(err)
	}

	if status != repl.StatusNormal {
		t.Fatalf("status = %d, want StatusNormal", status)
	}

	if out != "2\n" {
		t.Fatalf("stdout = %q, want \"2\\n\"", out)
	}
}

func TestPushLineWaitsOnOpenBracket(t *testing.T) {
	t.Parallel()

	vm := fakevm.New()
	s := repl.New(vm, repl.LineBuffered, nil)

	status, err := s.PushLine(context.Background(), "print(1")
	if err != nil {
		t.Fatal(err)
	}

	if status != repl.StatusNeedMore {
		t.Fatalf("status = %d, want StatusNeedMore for an unclosed paren", status)
	}

	if s.Prompt() != "... " {
		t.Fatalf("prompt = %q, want continuation prompt", s.Prompt())
	}

	status, err = s.PushLine(context.Background(), ")")
	if err != nil {
		t.Fatal(err)
	}

	if status != repl.StatusNormal {
		t.Fatalf("status = %d, want StatusNormal once the paren closes", status)
	}

	if s.Prompt() != ">>> " {
		t.Fatalf("prompt = %q, want primary prompt after completion", s.Prompt())
	}
}

type fakeInterrupter struct{ called bool }

func (f *fakeInterrupter) Interrupt() { f.called = true }

func TestPushCharInterruptByteResetsAndSignals(t *testing.T) {
	t.Parallel()

	vm := fakevm.New()
	interrupter := &fakeInterrupter{}
	s := repl.New(vm, repl.LineBuffered, interrupter)

	if _, err := s.PushChar(context.Background(), 'x'); err != nil {
		t.Fatal(err)
	}

	status, err := s.PushChar(context.Background(), 0x03)
	if err != nil {
		t.Fatal(err)
	}

	if status != repl.StatusInterrupt {
		t.Fatalf("status = %d, want StatusInterrupt", status)
	}

	if !interrupter.called {
		t.Fatal("expected Interrupt() to be called on the interrupter")
	}

	if s.Prompt() != ">>> " {
		t.Fatalf("prompt = %q, want primary prompt after an interrupt discards the buffer", s.Prompt())
	}
}

func TestPushCharOneAtATimeMatchesPushLine(t *testing.T) {
	t.Parallel()

	vm := fakevm.New()
	s := repl.New(vm, repl.LineBuffered, nil)

	var out string
	s.SetStdout(func(line string) { out += line })

	for _, ch := range []byte("3+4\n") {
		if _, err := s.PushChar(context.Background(), ch); err != nil {
			t.Fatal(err)
		}
	}

	if out != "7\n" {
		t.Fatalf("stdout = %q, want \"7\\n\"", out)
	}
}
