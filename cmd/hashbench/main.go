// hashbench is a CLI exercising all three map types (dense, blitz, c): a
// flag-driven batch benchmark mode and an interactive REPL, in the shape of
// the teacher's cmd/sloty (liner REPL) and create.go/ls.go (pflag flags).
//
// Usage:
//
//	hashbench bench [options]           Run a single benchmark and print throughput
//	hashbench bench -c <scenarios.jsonc> Run a named sequence of benchmark scenarios
//	hashbench repl [options]             Open an interactive shell against one map
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()

		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "bench":
		return runBench(args[1:])
	case "repl":
		return runREPL(args[1:])
	case "help", "-h", "--help":
		printUsage()

		return nil
	default:
		printUsage()

		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  hashbench bench [options]            Run a single benchmark")
	fmt.Fprintln(os.Stderr, "  hashbench bench -c <scenarios.jsonc>  Run a scenario file")
	fmt.Fprintln(os.Stderr, "  hashbench repl [options]              Interactive shell")
	fmt.Fprintln(os.Stderr, "\nRun 'hashbench bench --help' or 'hashbench repl --help' for options.")
}
