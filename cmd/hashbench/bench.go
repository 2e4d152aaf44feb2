package main

import (
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	flag "github.com/spf13/pflag"
)

// benchOptions holds parsed `bench` flags, mirroring the teacher's
// create.go/ls.go StringP/IntP pflag wiring.
type benchOptions struct {
	variant         string
	capacity        int
	loadFactor      float64
	ops             int
	seed            int64
	workers         int
	config          string
	keyDistribution string
}

func runBench(args []string) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)

	opts := benchOptions{}

	fs.StringVarP(&opts.variant, "variant", "m", "dense", "map variant: dense, blitz, or c")
	fs.IntVarP(&opts.capacity, "capacity", "n", 16, "initial capacity")
	fs.Float64Var(&opts.loadFactor, "load-factor", 0, "load factor (0 = variant default; ignored by c)")
	fs.IntVarP(&opts.ops, "ops", "o", 100_000, "number of distinct keys to insert/get/remove")
	fs.Int64Var(&opts.seed, "seed", 1, "PRNG seed for key generation")
	fs.IntVarP(&opts.workers, "workers", "w", 1, "concurrent workers (c variant only)")
	fs.StringVarP(&opts.config, "config", "c", "", "scenario file (JSONC) to run instead of single-run flags")
	fs.StringVar(&opts.keyDistribution, "key-distribution", "random", "key order: sequential or random")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: hashbench bench [options]")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.config != "" {
		return runScenarioFile(opts.config)
	}

	result, err := runOneBench(opts)
	if err != nil {
		return err
	}

	printResult(os.Stdout, "", result)

	return nil
}

type benchResult struct {
	insertOpsPerSec float64
	getOpsPerSec    float64
	removeOpsPerSec float64
	finalLen        int
}

// runOneBench inserts opts.ops distinct keys, reads them all back, then
// removes the first half of the generated key list, timing each phase. With
// workers > 1 against the "c" variant, insert/get/remove are fanned out
// across goroutines over disjoint key ranges (mirroring spec.md S6's concurrent scenario); dense and blitz are
// always run single-threaded since they're not safe for concurrent mutation
// (spec.md §5).
func runOneBench(opts benchOptions) (benchResult, error) {
	v, err := newVariant(opts.variant, opts.capacity, opts.loadFactor)
	if err != nil {
		return benchResult{}, err
	}

	workers := opts.workers
	if workers < 1 {
		workers = 1
	}

	if workers > 1 && opts.variant != "c" && opts.variant != "cmap" {
		return benchResult{}, fmt.Errorf("--workers > 1 requires the c variant, got %q", opts.variant)
	}

	keys := generateKeys(opts.ops, opts.seed, opts.keyDistribution)

	var result benchResult

	insertElapsed := timeParallel(workers, keys, func(k string) {
		v.InsertOrUpdate(k, k)
	})
	result.insertOpsPerSec = rate(len(keys), insertElapsed)

	getElapsed := timeParallel(workers, keys, func(k string) {
		v.Get(k)
	})
	result.getOpsPerSec = rate(len(keys), getElapsed)

	toRemove := keys[:len(keys)/2]
	removeElapsed := timeParallel(workers, toRemove, func(k string) {
		v.Remove(k)
	})
	result.removeOpsPerSec = rate(len(toRemove), removeElapsed)

	result.finalLen = v.Len()

	return result, nil
}

// timeParallel splits items across n workers (n==1 runs inline) and returns
// the wall-clock duration of the whole batch.
func timeParallel(n int, items []string, fn func(string)) time.Duration {
	start := time.Now()

	if n <= 1 {
		for _, it := range items {
			fn(it)
		}

		return time.Since(start)
	}

	chunk := (len(items) + n - 1) / n

	var wg sync.WaitGroup

	for w := 0; w < n; w++ {
		lo := w * chunk
		if lo >= len(items) {
			break
		}

		hi := lo + chunk
		if hi > len(items) {
			hi = len(items)
		}

		wg.Add(1)

		go func(part []string) {
			defer wg.Done()

			for _, it := range part {
				fn(it)
			}
		}(items[lo:hi])
	}

	wg.Wait()

	return time.Since(start)
}

func rate(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}

	return float64(n) / d.Seconds()
}

// generateKeys produces n distinct "k-<index>" strings, either in ascending
// index order ("sequential", exercising spec.md S3's resize-preservation
// shape) or shuffled by a seeded PRNG ("random", the default — non-sequential
// hash scatter stresses probe chains differently than monotonic insertion).
func generateKeys(n int, seed int64, distribution string) []string {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	if distribution != "sequential" {
		rng := rand.New(rand.NewSource(seed)) //nolint:gosec // benchmark key shuffling, not security-sensitive
		rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	}

	keys := make([]string, n)
	for i, v := range idx {
		keys[i] = fmt.Sprintf("k-%d", v)
	}

	return keys
}

func printResult(w *os.File, name string, r benchResult) {
	if name != "" {
		fmt.Fprintf(w, "scenario %s:\n", name)
	}

	fmt.Fprintf(w, "  insert: %12.0f ops/sec\n", r.insertOpsPerSec)
	fmt.Fprintf(w, "  get:    %12.0f ops/sec\n", r.getOpsPerSec)
	fmt.Fprintf(w, "  remove: %12.0f ops/sec\n", r.removeOpsPerSec)
	fmt.Fprintf(w, "  final len: %d\n", r.finalLen)
}
