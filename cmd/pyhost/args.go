package main

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSubcommand indicates argv[1] was neither "run" nor "repl".
var ErrInvalidSubcommand = errors.New("expected 'run' or 'repl' subcommands")

// RunArgs configures the one-shot `run` subcommand: compile and execute a
// single source file then exit.
type RunArgs struct {
	File        string
	HeapBytes   int
	PystackSize int
	Path        string
	CPUProfile  bool
	FgprofPath  string
}

func parseRunArgs(args []string) (*RunArgs, error) {
	cmd := flag.NewFlagSet("run subcommand", flag.ExitOnError)
	c := &RunArgs{}

	cmd.StringVar(&c.File, "f", "", "source file to execute")
	cmd.StringVar(&c.Path, "I", "", "colon-separated sys.path entries")
	cmd.BoolVar(&c.CPUProfile, "profile", false, "wrap the run in a pkg/profile CPU profile")
	cmd.StringVar(&c.FgprofPath, "fgprof", "", "write an fgprof trace of the scheduler loop to this path")

	heap := cmd.String("heap", "1M", "guest VM heap size: number[kKmMgG]")
	pystack := cmd.String("pystack", "16K", "guest pystack size in words: number[kKmMgG]")

	var err error

	if err = cmd.Parse(args); err != nil {
		return nil, err
	}

	if c.HeapBytes, err = ParseSize(*heap, "m"); err != nil {
		return nil, err
	}

	if c.PystackSize, err = ParseSize(*pystack, "k"); err != nil {
		return nil, err
	}

	return c, nil
}

// ReplArgs configures the interactive `repl` subcommand.
type ReplArgs struct {
	HeapBytes   int
	PystackSize int
	Path        string
}

func parseReplArgs(args []string) (*ReplArgs, error) {
	cmd := flag.NewFlagSet("repl subcommand", flag.ExitOnError)
	c := &ReplArgs{}

	cmd.StringVar(&c.Path, "I", "", "colon-separated sys.path entries")

	heap := cmd.String("heap", "1M", "guest VM heap size: number[kKmMgG]")
	pystack := cmd.String("pystack", "16K", "guest pystack size in words: number[kKmMgG]")

	var err error

	if err = cmd.Parse(args); err != nil {
		return nil, err
	}

	if c.HeapBytes, err = ParseSize(*heap, "m"); err != nil {
		return nil, err
	}

	if c.PystackSize, err = ParseSize(*pystack, "k"); err != nil {
		return nil, err
	}

	return c, nil
}

// ParseArgs dispatches on argv[1], the way flag.ParseArgs picks between
// "boot" and "probe" in the teacher repo.
func ParseArgs(args []string) (*RunArgs, *ReplArgs, error) {
	if len(args) < 2 {
		return nil, nil, ErrInvalidSubcommand
	}

	switch args[1] {
	case "run":
		c, err := parseRunArgs(args[2:])
		return c, nil, err
	case "repl":
		c, err := parseReplArgs(args[2:])
		return nil, c, err
	}

	return nil, nil, ErrInvalidSubcommand
}

// ParseSize parses a size string as number[gGmMkK], matching the teacher's
// flag.ParseSize: the multiplier suffix is optional, defaulting to unit.
func ParseSize(s, unit string) (int, error) {
	sz := strings.TrimRight(s, "gGmMkK")
	if len(sz) == 0 {
		return -1, fmt.Errorf("%q: can't parse as num[gGmMkK]: %w", s, strconv.ErrSyntax)
	}

	amt, err := strconv.ParseUint(sz, 0, 0)
	if err != nil {
		return -1, err
	}

	if len(s) > len(sz) {
		unit = s[len(sz):]
	}

	switch unit {
	case "G", "g":
		return int(amt) << 30, nil
	case "M", "m":
		return int(amt) << 20, nil
	case "K", "k":
		return int(amt) << 10, nil
	case "":
		return int(amt), nil
	}

	return -1, fmt.Errorf("can not parse %q as num[gGmMkK]: %w", s, strconv.ErrSyntax)
}
