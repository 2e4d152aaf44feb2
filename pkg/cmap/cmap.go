// Package cmap implements CMap: a lock-free, multi-producer/multi-consumer
// concurrent open-addressed hash table with group-parallel resize
// migration.
//
// Unlike [densemap] and [blitzmap], a Map is safe for concurrent use by
// multiple goroutines without external synchronization: readers never
// block, and writers contend only at the granularity of a single slot
// (spec.md §4.3/§5).
package cmap

import (
	"errors"
	"fmt"
	"math/bits"
	"sync/atomic"

	"github.com/swisskv/hashtable/pkg/hashkit"
)

// Sentinel errors returned by Map operations.
var (
	// ErrKeyNotFound is returned by indexed Set when the key is absent.
	ErrKeyNotFound = errors.New("cmap: key not found")

	// ErrArgumentOutOfRange is returned by [NewConcurrent] for invalid
	// options.
	ErrArgumentOutOfRange = errors.New("cmap: argument out of range")
)

// Meta encoding, bit-exact per spec.md §6.4. Occupied slots store a
// non-negative value: bits 0-5 carry a 6-bit short hash (h2), bit 6 is the
// per-slot spin-lock flag, bit 7 (the sign bit) is always 0 while occupied.
// The four sentinel states are negative and mutually exclusive with any
// occupied encoding.
const (
	metaEmpty      int32 = -127
	metaTombstone  int32 = -126
	metaResized    int32 = -125
	metaInProgress int32 = -124

	h2Mask  int32 = 0x3F
	lockBit int32 = 1 << 6

	minCapacity = 16
)

// Options configures construction of a Map.
type Options struct {
	// InitialCapacity is rounded up to the next power of two, clamped to
	// >= 16.
	InitialCapacity int
}

// Map is a CMap instance keyed by K with values of type V, safe for
// concurrent use by multiple goroutines.
//
// The zero value is not usable; construct with [NewConcurrent].
type Map[K comparable, V any] struct {
	hasher hashkit.Hasher[K]
	active atomic.Pointer[table[K, V]]
}

// NewConcurrent constructs a Map using hasher as its hash capability.
func NewConcurrent[K comparable, V any](opts Options, hasher hashkit.Hasher[K]) (*Map[K, V], error) {
	if opts.InitialCapacity < 0 {
		return nil, fmt.Errorf("initial capacity %d must be >= 0: %w", opts.InitialCapacity, ErrArgumentOutOfRange)
	}

	n := nextPow2(opts.InitialCapacity)
	if n < minCapacity {
		n = minCapacity
	}

	m := &Map[K, V]{hasher: hasher}
	m.active.Store(newTable[K, V](n))

	return m, nil
}

func nextPow2(n int) uint64 {
	if n <= 0 {
		return minCapacity
	}

	u := uint64(n)
	if u&(u-1) == 0 {
		return u
	}

	return uint64(1) << bits.Len64(u)
}

// Len returns an approximate count of live entries. During an in-progress
// migration the value reflects whichever table (old or new) is currently
// published as active; spec.md models this as "a global approximate count".
func (m *Map[K, V]) Len() int {
	return int(m.active.Load().count.Load())
}

// Cap returns the capacity of the currently active table.
func (m *Map[K, V]) Cap() int {
	return int(m.active.Load().n)
}

// Stats is a snapshot of migration progress, useful for observability while
// a resize is in flight.
type Stats struct {
	ApproxCount    int64
	Migrating      bool
	GroupsDepleted uint64
	GroupsTotal    uint64
}

// Stats returns a point-in-time snapshot of the active table's state.
func (m *Map[K, V]) Stats() Stats {
	t := m.active.Load()

	succ := t.migration.Load()

	return Stats{
		ApproxCount:    t.count.Load(),
		Migrating:      succ != nil,
		GroupsDepleted: t.depletedGroups.Load(),
		GroupsTotal:    t.totalGroups,
	}
}

// Clear atomically swaps in a freshly allocated empty table (at the same
// capacity) and resets the counter. Operations in flight on the old table
// complete harmlessly against that snapshot.
func (m *Map[K, V]) Clear() {
	old := m.active.Load()
	m.active.Store(newTable[K, V](old.n))
}
