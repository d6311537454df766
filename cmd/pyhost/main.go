// Command pyhost is the thin CLI launcher the core is embedded behind
// (out of scope per spec.md §1: "a thin argv/stdin wrapper over the core
// API"). It exists so the module is runnable end to end against
// pyvm/fakevm without vendoring a real interpreter.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"

	"github.com/felixge/fgprof"
	"github.com/pkg/profile"

	"github.com/circuitwasm/pyhost/hwplane"
	"github.com/circuitwasm/pyhost/kernel"
	"github.com/circuitwasm/pyhost/pyvm/fakevm"
	"github.com/circuitwasm/pyhost/sched"
	"github.com/circuitwasm/pyhost/term"
)

func main() {
	runArgs, replArgs, err := ParseArgs(os.Args)
	if err != nil {
		log.Fatal(err)
	}

	if runArgs != nil {
		if err := runFile(runArgs); err != nil {
			log.Fatal(err)
		}

		return
	}

	if err := runREPL(replArgs); err != nil {
		log.Fatal(err)
	}
}

func newKernel(heapBytes, pystackWords int, path string) (*kernel.Kernel, error) {
	vm := fakevm.New()
	plane := hwplane.New()
	k := kernel.New(vm, plane, sched.StrategyExceptionDriven)

	if err := k.Init(pystackWords, heapBytes, path); err != nil {
		return nil, err
	}

	k.SetBridgeReady()

	if err := k.PostInit(); err != nil {
		return nil, err
	}

	return k, nil
}

func runFile(args *RunArgs) error {
	if args.CPUProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	if args.FgprofPath != "" {
		f, err := os.Create(args.FgprofPath)
		if err != nil {
			return fmt.Errorf("fgprof: %w", err)
		}
		defer f.Close()

		stop := fgprof.Start(f, fgprof.FormatPprof)
		defer stop()
	}

	src, err := os.ReadFile(args.File)
	if err != nil {
		return err
	}

	k, err := newKernel(args.HeapBytes, args.PystackSize, args.Path)
	if err != nil {
		return err
	}

	k.REPL.SetStdout(func(s string) { fmt.Print(s) })
	k.REPL.SetStderr(func(s string) { fmt.Fprint(os.Stderr, s) })

	triplet, err := k.Exec(context.Background(), string(src))
	if err != nil {
		return err
	}

	if triplet.IsException() {
		return fmt.Errorf("uncaught guest exception (proxy id %d)", triplet.Payload0)
	}

	return nil
}

func runREPL(args *ReplArgs) error {
	k, err := newKernel(args.HeapBytes, args.PystackSize, args.Path)
	if err != nil {
		return err
	}

	// Raw mode so stdin bytes reach Session.PushChar one at a time instead
	// of only after the tty driver sees a newline.
	restore, err := term.SetRawMode()
	if err != nil {
		return err
	}
	defer restore()

	k.REPL.SetStdout(func(s string) { fmt.Print(s) })
	k.REPL.SetStderr(func(s string) { fmt.Fprint(os.Stderr, s) })

	reader := bufio.NewReader(os.Stdin)

	fmt.Print(k.REPL.Prompt())

	for {
		ch, err := reader.ReadByte()
		if err != nil {
			return nil
		}

		status, err := k.REPL.PushChar(context.Background(), ch)
		if err != nil {
			return err
		}

		switch status {
		case 0, 2:
			fmt.Print(k.REPL.Prompt())
		}
	}
}
