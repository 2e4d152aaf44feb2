// Package densemap implements DenseMap: a sequential, open-addressed hash
// table using 1-byte control metadata and 16-wide group scans (the
// "SSE/Swiss-table" family).
//
// A Map is not safe for concurrent mutation; concurrent reads of an
// otherwise-unmutated Map are safe. See [blitzmap] for the two-array,
// bucket-chained variant and [cmap] for the lock-free concurrent variant.
package densemap

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/swisskv/hashtable/internal/simdfeature"
	"github.com/swisskv/hashtable/pkg/hashkit"
)

// Sentinel errors returned by Map operations. Callers should use [errors.Is].
var (
	// ErrKeyNotFound is returned by indexed Set when the key is absent.
	ErrKeyNotFound = errors.New("densemap: key not found")

	// ErrArgumentOutOfRange is returned by [New] for invalid options.
	ErrArgumentOutOfRange = errors.New("densemap: argument out of range")

	// ErrPlatformNotSupported is returned by [New] when
	// [Options.RequireHardwareSIMD] is set and the host CPU has no vector
	// group-scan support. Without that option, New always succeeds: the
	// scalar fallback scan preserves identical probe-sequence behavior.
	ErrPlatformNotSupported = errors.New("densemap: platform not supported")
)

const (
	groupWidth = 16

	emptyCtrl     int8 = -127
	tombstoneCtrl int8 = -126

	minCapacity        = 16
	defaultLoadFactor  = 0.875
	maxLoadFactorLimit = 0.875
	rebuildFraction    = 0.125
)

// Options configures construction of a Map.
type Options struct {
	// InitialCapacity is rounded up to the next power of two, clamped to
	// >= 16.
	InitialCapacity int

	// LoadFactor bounds count+tombstones as a fraction of capacity before a
	// resize is forced. Must be in (0, 1); values above 0.875 are clamped to
	// 0.875. Zero means "use the default" (0.875).
	LoadFactor float64

	// RequireHardwareSIMD, when true, makes [New] fail with
	// [ErrPlatformNotSupported] if the host CPU cannot run a vector group
	// scan, instead of silently using the scalar fallback.
	RequireHardwareSIMD bool
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// Map is a DenseMap instance keyed by K with values of type V.
//
// The zero value is not usable; construct with [New].
type Map[K comparable, V any] struct {
	hasher hashkit.Hasher[K]

	ctrl    []int8 // length n+groupWidth; [n:n+groupWidth] mirrors [0:groupWidth]
	entries []entry[K, V]

	n          uint64 // capacity, power of two >= minCapacity
	mask       uint64
	count      uint64
	tombstones uint64
	loadFactor float64

	bulkRemoving bool
	rebuilds     uint64 // incremented once per completed rebuild; test introspection only
}

// New constructs a Map using hasher as its hash capability.
func New[K comparable, V any](opts Options, hasher hashkit.Hasher[K]) (*Map[K, V], error) {
	if opts.RequireHardwareSIMD && !simdfeature.HasGroupScan() {
		return nil, ErrPlatformNotSupported
	}

	loadFactor := opts.LoadFactor
	if loadFactor == 0 {
		loadFactor = defaultLoadFactor
	}

	if loadFactor < 0 || loadFactor >= 1 {
		return nil, fmt.Errorf("load factor %v must be in (0, 1): %w", loadFactor, ErrArgumentOutOfRange)
	}

	if loadFactor > maxLoadFactorLimit {
		loadFactor = maxLoadFactorLimit
	}

	n := nextPow2(opts.InitialCapacity)
	if n < minCapacity {
		n = minCapacity
	}

	m := &Map[K, V]{
		hasher:     hasher,
		n:          n,
		mask:       n - 1,
		loadFactor: loadFactor,
	}
	m.allocate(n)

	return m, nil
}

func (m *Map[K, V]) allocate(n uint64) {
	m.ctrl = make([]int8, n+groupWidth)
	for i := range m.ctrl {
		m.ctrl[i] = emptyCtrl
	}

	m.entries = make([]entry[K, V], n)
	m.n = n
	m.mask = n - 1
	m.count = 0
	m.tombstones = 0
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

// maxLookupsBeforeResize returns floor(n * loadFactor).
func (m *Map[K, V]) maxLookupsBeforeResize() uint64 {
	return uint64(float64(m.n) * m.loadFactor)
}

// splitHash derives the home index and the 7-bit short hash tag from a raw
// 64-bit hash, following spec.md §4.1's h2 formula (folded to 32 bits first
// since the formula is defined in terms of a 32-bit hash).
func (m *Map[K, V]) splitHash(hash uint64) (index uint64, h2 int8) {
	hash32 := uint32(hash ^ (hash >> 32))
	tag := ((hash32 ^ (hash32 >> 16)) >> 25) & 0x7F

	return hash & m.mask, int8(tag) //nolint:gosec // tag is masked to 7 bits
}

// writeCtrl writes ctrl[i] and, for i < groupWidth, its mirror at i+n so an
// unchecked 16-wide group load anywhere in [0, n) stays valid.
func (m *Map[K, V]) writeCtrl(i uint64, v int8) {
	m.ctrl[i] = v
	if i < groupWidth {
		m.ctrl[i+m.n] = v
	}
}

// Count returns the number of live entries.
func (m *Map[K, V]) Count() int { return int(m.count) }

// Cap returns the current capacity (number of control-byte slots).
func (m *Map[K, V]) Cap() int { return int(m.n) }

// Tombstones returns the current tombstone count (test/introspection use).
func (m *Map[K, V]) Tombstones() int { return int(m.tombstones) }
