// Package blitzmap implements BlitzMap: a sequential open-addressed hash
// table with a two-array layout — a bucket directory (signature + next) and
// a dense entry array — using explicit bucket-chaining with root eviction
// ("kickout") for locality.
//
// Grounded on the teacher's pkg/slotcache bucket/dense-entry-array design
// (writer.go's insertSlot probe-then-place loop and findLiveSlotLocked's
// chain walk), generalized from a fixed-width on-disk slot format to a
// generic in-memory entry array.
//
// A Map is not safe for concurrent mutation; concurrent reads of an
// otherwise-unmutated Map are safe.
package blitzmap

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/swisskv/hashtable/pkg/hashkit"
)

// Sentinel errors returned by Map operations.
var (
	// ErrKeyNotFound is returned by indexed Set when the key is absent.
	ErrKeyNotFound = errors.New("blitzmap: key not found")

	// ErrArgumentOutOfRange is returned by [New] for invalid options.
	ErrArgumentOutOfRange = errors.New("blitzmap: argument out of range")
)

const (
	minCapacity       = 2
	defaultLoadFactor = 0.9
	maxLoadFactor     = 0.9

	quadraticProbeLen = 6
)

// Options configures construction of a Map.
type Options struct {
	// InitialCapacity is rounded up to the next power of two, clamped to
	// >= 2.
	InitialCapacity int

	// LoadFactor bounds count as a fraction of capacity before a resize is
	// forced. Must be in (0, 1); values above 0.9 are clamped to 0.9. Zero
	// means "use the default" (0.9).
	LoadFactor float64
}

// bucket is a directory node: signature==0 means inactive. Active:
// signature = ((hash &^ mask) | entryIndex) + 1. next==0 means end of
// chain; otherwise next-1 is the index of the next bucket in the chain.
type bucket struct {
	signature uint64
	next      uint64
}

func (b bucket) active() bool { return b.signature != 0 }

type entry[K comparable, V any] struct {
	key   K
	value V
}

// Map is a BlitzMap instance keyed by K with values of type V.
//
// The zero value is not usable; construct with [New].
type Map[K comparable, V any] struct {
	hasher hashkit.Hasher[K]

	buckets []bucket
	entries []entry[K, V]

	capacity   uint64 // number of buckets, power of two
	mask       uint64
	count      uint64
	loadFactor float64

	lastCursor uint64 // persistent FindEmptyBucket linear-fallback cursor
}

// New constructs a Map using hasher as its hash capability.
func New[K comparable, V any](opts Options, hasher hashkit.Hasher[K]) (*Map[K, V], error) {
	loadFactor := opts.LoadFactor
	if loadFactor == 0 {
		loadFactor = defaultLoadFactor
	}

	if loadFactor <= 0 || loadFactor >= 1 {
		return nil, fmt.Errorf("load factor %v must be in (0, 1): %w", loadFactor, ErrArgumentOutOfRange)
	}

	if loadFactor > maxLoadFactor {
		loadFactor = maxLoadFactor
	}

	capacity := nextPow2(opts.InitialCapacity)
	if capacity < minCapacity {
		capacity = minCapacity
	}

	m := &Map[K, V]{
		hasher:     hasher,
		loadFactor: loadFactor,
	}
	m.allocate(capacity)

	return m, nil
}

func (m *Map[K, V]) allocate(capacity uint64) {
	m.buckets = make([]bucket, capacity)
	m.entries = make([]entry[K, V], 0, uint64(float64(capacity)*m.loadFactor))
	m.capacity = capacity
	m.mask = capacity - 1
	m.count = 0
	m.lastCursor = 0
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

func (m *Map[K, V]) maxCountBeforeResize() uint64 {
	return uint64(float64(m.capacity) * m.loadFactor)
}

// homeOf returns hash(key) & mask.
func (m *Map[K, V]) homeOf(key K) uint64 {
	return m.hasher.Hash(key) & m.mask
}

func (m *Map[K, V]) sigHigh(hash uint64) uint64 {
	return hash &^ m.mask
}

// Count returns the number of live entries.
func (m *Map[K, V]) Count() int { return int(m.count) }

// Cap returns the current bucket-directory capacity.
func (m *Map[K, V]) Cap() int { return int(m.capacity) }
