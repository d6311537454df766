// Package repl implements the one-shot exec and character-driven REPL
// dispatch described in §4.5 (C5): lexing with leading-indent stripping,
// a line buffer and compile-completeness state machine for interactive
// input, and line-buffered or character-mode output callbacks.
package repl

import (
	"context"
	"fmt"
	"strings"

	"github.com/circuitwasm/pyhost/pyvm"
)

// Return codes a PushChar/PushLine call reports, per §4.5.
const (
	// StatusNormal means the input completed a statement; it was
	// compiled and executed, and the primary prompt should show next.
	StatusNormal = 0
	// StatusNeedMore means the input is not complete yet: PushChar
	// reports it for every byte before the newline, and a finished line
	// reports it when a bracket or block is still open.
	StatusNeedMore = 1
	// StatusInterrupt means an interrupt byte was seen; the pending
	// buffer was discarded.
	StatusInterrupt = 2
)

// OutputMode selects how Session delivers guest stdout/stderr.
type OutputMode int

const (
	// LineBuffered delivers output one full line at a time.
	LineBuffered OutputMode = iota
	// CharMode delivers output one byte at a time, as produced.
	CharMode
)

// Interrupter receives the host's interrupt signal; sched.Scheduler
// implements this.
type Interrupter interface {
	Interrupt()
}

const (
	primaryPrompt      = ">>> "
	continuationPrompt = "... "
	interruptByte      = 0x03 // ETX / Ctrl-C
)

// Session is the embedding core's C5 component: one-shot Exec plus the
// character-driven REPL state machine, grounded on serial.Serial's
// byte-at-a-time input channel and io.Writer output, generalized from a
// UART register to a compile-and-execute pipeline.
type Session struct {
	vm          pyvm.VM
	mode        OutputMode
	interrupter Interrupter

	stdout func(string)
	stderr func(string)

	lineBuf      []byte
	stmtBuf      strings.Builder
	bracketDepth int
	inBlock      bool
}

// New builds a Session driving vm. mode selects how output is delivered;
// interrupter (may be nil) receives Interrupt() when an interrupt byte
// arrives mid-buffer.
func New(vm pyvm.VM, mode OutputMode, interrupter Interrupter) *Session {
	return &Session{
		vm:          vm,
		mode:        mode,
		interrupter: interrupter,
		stdout:      func(string) {},
		stderr:      func(string) {},
	}
}

// SetStdout installs the stdout callback.
func (s *Session) SetStdout(f func(string)) { s.stdout = f }

// SetStderr installs the stderr callback.
func (s *Session) SetStderr(f func(string)) { s.stderr = f }

// Prompt reports the prompt the host should display given the REPL's
// current compile state: primary, or continuation mid-statement/block.
func (s *Session) Prompt() string {
	if s.bracketDepth > 0 || s.inBlock || s.stmtBuf.Len() > 0 {
		return continuationPrompt
	}

	return primaryPrompt
}

// Exec is the one-shot exec(code_buf) entry (§4.5): strips a common
// leading indent so snippets copy-pasted from an indented context still
// compile, compiles code as a module-scope function, and runs it.
func (s *Session) Exec(ctx context.Context, code string) (pyvm.Value, bool, error) {
	return s.vm.Exec(ctx, stripLeadingIndent(code))
}

// PushChar feeds one host-supplied byte into the REPL's line buffer
// (§4.5: "the host pushes one character at a time"). It returns one of
// StatusNormal, StatusNeedMore, StatusInterrupt.
func (s *Session) PushChar(ctx context.Context, ch byte) (int, error) {
	if ch == interruptByte {
		s.reset()

		if s.interrupter != nil {
			s.interrupter.Interrupt()
		}

		return StatusInterrupt, nil
	}

	if ch != '\n' {
		s.lineBuf = append(s.lineBuf, ch)

		return StatusNeedMore, nil
	}

	return s.pushLine(ctx, string(s.lineBuf))
}

// PushLine feeds a full line at once, for hosts that buffer a line of
// input before pushing it en bloc (§4.5: "a small buffer sits between the
// host and the REPL").
func (s *Session) PushLine(ctx context.Context, line string) (int, error) {
	return s.pushLine(ctx, line)
}

func (s *Session) pushLine(ctx context.Context, line string) (int, error) {
	s.lineBuf = nil

	s.stmtBuf.WriteString(line)
	s.stmtBuf.WriteByte('\n')

	s.bracketDepth += bracketDelta(line)

	trimmed := strings.TrimRight(line, " \t\r")

	switch {
	case s.bracketDepth > 0:
		return StatusNeedMore, nil
	case strings.HasSuffix(trimmed, ":"):
		s.inBlock = true
		return StatusNeedMore, nil
	case s.inBlock && trimmed != "":
		return StatusNeedMore, nil
	case s.inBlock && trimmed == "":
		s.inBlock = false
	}

	code := s.stmtBuf.String()
	s.stmtBuf.Reset()
	s.bracketDepth = 0
	s.inBlock = false

	return StatusNormal, s.compileAndRun(ctx, code)
}

func (s *Session) compileAndRun(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}

	result, ok, err := s.vm.Exec(ctx, stripLeadingIndent(code))
	if err != nil {
		return err
	}

	if !ok {
		s.emitLine(s.stderr, s.vm.TypeName(result))
		return nil
	}

	if result != nil {
		s.emitLine(s.stdout, repr(result))
	}

	return nil
}

func (s *Session) reset() {
	s.lineBuf = nil
	s.stmtBuf.Reset()
	s.bracketDepth = 0
	s.inBlock = false
}

func (s *Session) emitLine(sink func(string), text string) {
	if s.mode == LineBuffered {
		sink(text + "\n")
		return
	}

	for i := 0; i < len(text); i++ {
		sink(text[i : i+1])
	}

	sink("\n")
}

// bracketDelta counts the net change in nesting depth contributed by
// line's (), [], {} characters. It is a line-local heuristic, not a
// tokenizer: it does not special-case brackets inside string literals.
func bracketDelta(line string) int {
	depth := 0

	for _, r := range line {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}

	return depth
}

// stripLeadingIndent removes the common leading whitespace of every
// non-blank line, so a snippet copied from inside an indented block still
// compiles as top-level code (§4.5).
func stripLeadingIndent(code string) string {
	lines := strings.Split(code, "\n")

	common := -1

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if common == -1 || indent < common {
			common = indent
		}
	}

	if common <= 0 {
		return code
	}

	for i, line := range lines {
		if len(line) >= common {
			lines[i] = line[common:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}

	return strings.Join(lines, "\n")
}

// repr renders a result value for REPL echo. pyvm.Value is an opaque
// interface{}; fmt-style default formatting is the best a generic
// embedding core can do without VM-specific knowledge of guest types.
func repr(v pyvm.Value) string {
	type stringer interface{ String() string }

	if sv, ok := v.(stringer); ok {
		return sv.String()
	}

	return fmt.Sprintf("%v", v)
}
