package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

// replOptions holds parsed `repl` flags.
type replOptions struct {
	variant    string
	capacity   int
	loadFactor float64
}

func runREPL(args []string) error {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)

	opts := replOptions{}

	fs.StringVarP(&opts.variant, "variant", "m", "dense", "map variant: dense, blitz, or c")
	fs.IntVarP(&opts.capacity, "capacity", "n", 16, "initial capacity")
	fs.Float64Var(&opts.loadFactor, "load-factor", 0, "load factor (0 = variant default; ignored by c)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: hashbench repl [options]")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	v, err := newVariant(opts.variant, opts.capacity, opts.loadFactor)
	if err != nil {
		return err
	}

	r := &repl{variant: opts.variant, m: v}

	return r.run()
}

// repl is the interactive command loop, grounded on cmd/sloty's REPL
// (liner-backed readline, put/get/del/scan/len/bench commands).
type repl struct {
	variant string
	m       variant
	liner   *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".hashbench_history")
}

func (r *repl) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		_, _ = r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("hashbench - %s map shell\n", r.variant)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("hashbench> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		cmdArgs := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()

			return nil
		case "help", "?":
			r.printHelp()
		case "put":
			r.cmdPut(cmdArgs)
		case "get":
			r.cmdGet(cmdArgs)
		case "del", "delete":
			r.cmdDel(cmdArgs)
		case "scan", "ls", "list":
			r.cmdScan(cmdArgs)
		case "len", "count":
			r.cmdLen()
		case "bench":
			r.cmdBench(cmdArgs)
		case "clear", "cls":
			r.m.Clear()
			fmt.Println("cleared")
		default:
			fmt.Printf("unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *repl) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}

	if f, err := os.Create(path); err == nil {
		_, _ = r.liner.WriteHistory(f)
		f.Close()
	}
}

func (r *repl) completer(line string) []string {
	commands := []string{
		"put", "get", "del", "delete", "scan", "ls", "list",
		"len", "count", "bench", "clear", "cls",
		"help", "exit", "quit", "q",
	}

	var matches []string

	for _, c := range commands {
		if strings.HasPrefix(c, line) {
			matches = append(matches, c)
		}
	}

	return matches
}

func (r *repl) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  put <key> <value>   Insert or update an entry")
	fmt.Println("  get <key>           Retrieve an entry")
	fmt.Println("  del <key>           Delete an entry")
	fmt.Println("  scan [limit]        List entries (default limit 20)")
	fmt.Println("  len                 Count live entries")
	fmt.Println("  bench <ops>         Benchmark insert+get+remove for <ops> keys")
	fmt.Println("  clear               Reset to empty")
	fmt.Println("  help                Show this help")
	fmt.Println("  exit / quit / q     Exit")
}

func (r *repl) cmdPut(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: put <key> <value>")

		return
	}

	r.m.InsertOrUpdate(args[0], strings.Join(args[1:], " "))
	fmt.Println("ok")
}

func (r *repl) cmdGet(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: get <key>")

		return
	}

	v, ok := r.m.Get(args[0])
	if !ok {
		fmt.Println("(not found)")

		return
	}

	fmt.Println(v)
}

func (r *repl) cmdDel(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: del <key>")

		return
	}

	if r.m.Remove(args[0]) {
		fmt.Println("ok")
	} else {
		fmt.Println("(not found)")
	}
}

func (r *repl) cmdScan(args []string) {
	limit := 20

	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			limit = n
		}
	}

	shown := 0

	r.m.ForEach(func(k, v string) bool {
		if shown >= limit {
			return false
		}

		fmt.Printf("%s = %s\n", k, v)
		shown++

		return true
	})

	if shown == 0 {
		fmt.Println("(empty)")
	}
}

func (r *repl) cmdLen() {
	fmt.Printf("len=%d cap=%d\n", r.m.Len(), r.m.Cap())
}

func (r *repl) cmdBench(args []string) {
	ops := 100_000

	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			ops = n
		}
	}

	result, err := runOneBench(benchOptions{
		variant:    r.variant,
		capacity:   16,
		loadFactor: 0,
		ops:        ops,
		seed:       1,
		workers:    1,
	})
	if err != nil {
		fmt.Printf("bench error: %v\n", err)

		return
	}

	printResult(os.Stdout, "", result)
}
