package densemap

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

func TestUpdateAbsentReturnsFalse(t *testing.T) {
	m := newIntMap(t, Options{})

	require.False(t, m.Update(1, 10))
	m.Insert(1, 10)
	require.True(t, m.Update(1, 20))

	v, _ := m.Get(1)
	require.Equal(t, 20, v)
}

func TestTombstoneReuse(t *testing.T) {
	m := newIntMap(t, Options{InitialCapacity: 16})

	k1 := 1

	home, _ := m.splitHash(m.hasher.Hash(k1))

	var k2 int

	for candidate := 2; candidate < 100_000; candidate++ {
		h, _ := m.splitHash(m.hasher.Hash(candidate))
		if h == home {
			k2 = candidate

			break
		}
	}

	require.NotZero(t, k2, "expected to find a key colliding with k1's home bucket")

	m.Insert(k1, 100)
	require.True(t, m.Remove(k1))

	tombBefore := m.Tombstones()
	require.Positive(t, tombBefore)

	m.Insert(k2, 200)

	require.Less(t, m.Tombstones(), tombBefore+1)

	_, ok := m.Get(k1)
	require.False(t, ok)

	v, ok := m.Get(k2)
	require.True(t, ok)
	require.Equal(t, 200, v)
}

func TestMirrorInvariant(t *testing.T) {
	m := newIntMap(t, Options{})

	for i := range 500 {
		m.Insert(i, i)
	}

	for i := range 16 {
		require.Equal(t, m.ctrl[i], m.ctrl[i+int(m.n)], "mirror mismatch at %d", i)
	}
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

	_, ok := m.Get(5)
	require.False(t, ok)
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

func TestGetOrAddDefaultRef(t *testing.T) {
	m := newIntMap(t, Options{})

	ref := m.GetOrAddDefaultRef(1)
	require.Equal(t, 0, *ref)

	*ref = 42

	v, ok := m.Get(1)
	require.True(t, ok)
	require.Equal(t, 42, v)

	ref2 := m.GetOrAddDefaultRef(1)
	require.Equal(t, 42, *ref2)
}

func TestBulkRemoveSuppressesRebuildUntilEnd(t *testing.T) {
	m := newIntMap(t, Options{InitialCapacity: 16})

	for i := range 20 {
		m.Insert(i, i)
	}

	m.BeginBulkRemove()

	for i := 0; i < 20; i += 2 {
		m.Remove(i)
	}

	// still bulk-removing: tombstones accumulated without an interim rebuild
	tombBeforeEnd := m.Tombstones()
	require.Positive(t, tombBeforeEnd)
	require.GreaterOrEqual(t, tombBeforeEnd, int(float64(m.n)*rebuildFraction), "test setup should cross the rebuild threshold")
	require.Zero(t, m.rebuilds, "no rebuild should have run while bulk-removing")

	m.EndBulkRemove()

	require.Equal(t, uint64(1), m.rebuilds, "exactly one rebuild should run at EndBulkRemove")
	require.Zero(t, m.Tombstones(), "rebuild clears tombstones")

	for i := 0; i < 20; i += 2 {
		_, ok := m.Get(i)
		require.False(t, ok)
	}

	for i := 1; i < 20; i += 2 {
		v, ok := m.Get(i)
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestResizePreservesAllEntries(t *testing.T) {
	m := newIntMap(t, Options{InitialCapacity: 16})

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

func TestCopy(t *testing.T) {
	src := newIntMap(t, Options{})
	for i := range 50 {
		src.Insert(i, i*i)
	}

	dst := newIntMap(t, Options{})
	dst.Copy(src)

	require.Equal(t, src.Count(), dst.Count())

	for i := range 50 {
		v, ok := dst.Get(i)
		require.True(t, ok)
		require.Equal(t, i*i, v)
	}
}

// TestModelAgainstNativeMap runs a randomized sequence of insert/update/
// remove operations against both a Map and a plain Go map oracle, then
// compares final contents with go-cmp — grounded on the teacher's
// model-based tests (pkg/slotcache/state_model_*_test.go), rebuilt against
// a native-map oracle instead of a file-backed reference implementation.
func TestModelAgainstNativeMap(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	m := newIntMap(t, Options{InitialCapacity: 16})
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
}
