package blitzmap

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/swisskv/hashtable/pkg/hashkit"
)

func newIntMap(t *testing.T, opts Options) *Map[int, int] {
	t.Helper()

	m, err := New[int, int](opts, hashkit.IntHasher[int]{})
	require.NoError(t, err)

	return m
}

func TestSequentialInsertGet(t *testing.T) {
	m := newIntMap(t, Options{})

	for i := range 10_000 {
		require.True(t, m.Insert(i, i*2))
	}

	for i := range 10_000 {
		v, ok := m.Get(i)
		require.True(t, ok)
		require.Equal(t, i*2, v)
	}

	for i := 0; i < 10_000; i += 2 {
		require.True(t, m.Remove(i))
	}

	require.Equal(t, 5000, m.Count())

	_, ok := m.Get(2)
	require.False(t, ok)

	v, ok := m.Get(3)
	require.True(t, ok)
	require.Equal(t, 6, v)
}

func TestInsertDuplicateRejected(t *testing.T) {
	m := newIntMap(t, Options{})

	require.True(t, m.Insert(1, 10))
	require.False(t, m.Insert(1, 20))

	v, ok := m.Get(1)
	require.True(t, ok)
	require.Equal(t, 10, v)
}

func TestInsertOrUpdateOverwrites(t *testing.T) {
	m := newIntMap(t, Options{})

	m.InsertOrUpdate(1, 10)
	m.InsertOrUpdate(1, 20)

	v, ok := m.Get(1)
	require.True(t, ok)
	require.Equal(t, 20, v)
}

func TestDensityInvariant(t *testing.T) {
	m := newIntMap(t, Options{})

	for i := range 5000 {
		m.Insert(i, i)
	}

	for i := 0; i < 5000; i += 3 {
		m.Remove(i)
	}

	require.Equal(t, len(m.entries), m.Count())

	// every remaining key must still be reachable
	m.ForEach(func(k, v int) bool {
		got, ok := m.Get(k)
		require.True(t, ok)
		require.Equal(t, v, got)

		return true
	})
}

// TestKickout forces a foreign root collision at bucket 0 and verifies the
// displaced entry survives at its new location with the chain correctly
// spliced (spec.md S4).
func TestKickout(t *testing.T) {
	m := newIntMap(t, Options{InitialCapacity: 8})

	// k1 and k2 share the last bucket as home, so k2 is chained into the
	// next free bucket, which wraps around to bucket 0. k3's home is bucket
	// 0, so inserting it evicts k2 from there.
	var k1, k2, k3 int

	for candidate := 1; candidate < 1_000_000 && (k2 == 0 || k3 == 0); candidate++ {
		switch m.homeOf(candidate) {
		case m.mask:
			if k1 == 0 {
				k1 = candidate
			} else if k2 == 0 {
				k2 = candidate
			}
		case 0:
			if k3 == 0 {
				k3 = candidate
			}
		}
	}

	require.NotZero(t, k2)
	require.NotZero(t, k3)

	require.True(t, m.Insert(k1, 100))
	require.True(t, m.Insert(k2, 200))
	require.True(t, m.Insert(k3, 300))

	// bucket 0 now holds its own home key
	require.Equal(t, k3, m.entries[m.entryIndexOf(m.buckets[0])].key)

	v1, ok := m.Get(k1)
	require.True(t, ok)
	require.Equal(t, 100, v1)

	v2, ok := m.Get(k2)
	require.True(t, ok)
	require.Equal(t, 200, v2)

	v3, ok := m.Get(k3)
	require.True(t, ok)
	require.Equal(t, 300, v3)

	require.Equal(t, 3, m.Count())
}

func TestRemoveAndGet(t *testing.T) {
	m := newIntMap(t, Options{})

	_, ok := m.RemoveAndGet(1)
	require.False(t, ok)

	m.Insert(1, 42)

	v, ok := m.RemoveAndGet(1)
	require.True(t, ok)
	require.Equal(t, 42, v)

	_, ok = m.Get(1)
	require.False(t, ok)

	_, ok = m.RemoveAndGet(1)
	require.False(t, ok)
}

func TestClearRetainsCapacity(t *testing.T) {
	m := newIntMap(t, Options{})

	for i := range 1000 {
		m.Insert(i, i)
	}

	capBefore := m.Cap()
	m.Clear()

	require.Equal(t, 0, m.Count())
	require.Equal(t, capBefore, m.Cap())
}

func TestResizePreservesAllEntries(t *testing.T) {
	m := newIntMap(t, Options{InitialCapacity: 4})

	const count = 200_000

	for i := range count {
		m.Insert(i, i)
	}

	require.Equal(t, count, m.Count())

	for _, k := range []int{0, 1, 12345, 99999, count - 1} {
		v, ok := m.Get(k)
		require.True(t, ok)
		require.Equal(t, k, v)
	}
}

func TestIndexGetSet(t *testing.T) {
	m := newIntMap(t, Options{})

	_, err := m.IndexGet(1)
	require.ErrorIs(t, err, ErrKeyNotFound)

	m.Insert(1, 10)

	v, err := m.IndexGet(1)
	require.NoError(t, err)
	require.Equal(t, 10, v)

	require.NoError(t, m.IndexSet(1, 20))
	require.ErrorIs(t, m.IndexSet(2, 99), ErrKeyNotFound)
}

func TestInvalidLoadFactor(t *testing.T) {
	_, err := New[int, int](Options{LoadFactor: 1.5}, hashkit.IntHasher[int]{})
	require.ErrorIs(t, err, ErrArgumentOutOfRange)
}

func TestModelAgainstNativeMap(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	m := newIntMap(t, Options{InitialCapacity: 4})
	oracle := make(map[int]int)

	for range 20_000 {
		key := rng.Intn(500)

		switch rng.Intn(3) {
		case 0:
			value := rng.Int()
			m.InsertOrUpdate(key, value)
			oracle[key] = value
		case 1:
			m.Remove(key)
			delete(oracle, key)
		case 2:
			wantV, wantOK := oracle[key]
			gotV, gotOK := m.Get(key)
			require.Equal(t, wantOK, gotOK)

			if wantOK {
				require.Equal(t, wantV, gotV)
			}
		}
	}

	got := make(map[int]int, m.Count())
	m.ForEach(func(k, v int) bool {
		got[k] = v

		return true
	})

	require.Empty(t, cmp.Diff(oracle, got))
	require.Equal(t, len(oracle), m.Count())
	require.Equal(t, len(m.entries), m.Count())
}
