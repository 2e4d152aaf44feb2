package cmap

import "runtime"

// spinBackoff implements the spin-wait-with-exponential-back-off idiom used
// for both per-slot lock acquisition and migration-progress waiting
// (spec.md §6.3). attempt is caller-owned state, incremented on every call.
func spinBackoff(attempt *int) {
	spins := 1 << *attempt
	if spins > 1024 {
		spins = 1024
	} else {
		*attempt++
	}

	for range spins {
		runtime.Gosched()
	}
}
