package cmap

import "github.com/swisskv/hashtable/pkg/hashkit"

// ensureSuccessor returns t's migration target, allocating it (electing
// exactly one caller to do so via a CAS on t.allocated) if none exists yet.
func ensureSuccessor[K comparable, V any](t *table[K, V]) *table[K, V] {
	if succ := t.migration.Load(); succ != nil {
		return succ
	}

	if t.allocated.CompareAndSwap(false, true) {
		succ := newTable[K, V](t.n * 2)
		t.migration.Store(succ)

		return succ
	}

	attempt := 0

	for {
		if succ := t.migration.Load(); succ != nil {
			return succ
		}

		spinBackoff(&attempt)
	}
}

// driveMigration cooperatively processes groups of old until every group is
// depleted, then publishes succ as m's active table. Any number of
// goroutines may call this concurrently against the same old/succ pair;
// the atomic groupCursor ensures each group is migrated exactly once.
func driveMigration[K comparable, V any](m *Map[K, V], old, succ *table[K, V], hasher hashkit.Hasher[K]) {
	attempt := 0

	for {
		if old.depletedGroups.Load() >= old.totalGroups {
			m.active.CompareAndSwap(old, succ)

			return
		}

		g := old.groupCursor.Add(1) - 1
		if g >= old.totalGroups {
			spinBackoff(&attempt)

			continue
		}

		start := g * old.groupSize

		end := start + old.groupSize
		if end > old.n {
			end = old.n
		}

		for i := start; i < end; i++ {
			migrateSlot(&old.slots[i], succ, hasher)
		}

		if old.depletedGroups.Add(1) >= old.totalGroups {
			m.active.CompareAndSwap(old, succ)
		}
	}
}

// migrateSlot retires one slot of the old generation: EMPTY, TOMBSTONE, and
// occupied slots all transition to RESIZED via CAS; IN_PROGRESS is retried
// rather than forced, since a concurrent inserter is still publishing its
// entry there. A live occupant (non-negative meta at the moment of the
// winning CAS) is copied into succ before returning.
func migrateSlot[K comparable, V any](s *slot[K, V], succ *table[K, V], hasher hashkit.Hasher[K]) {
	attempt := 0

	for {
		cur := s.meta.Load()

		if cur == metaResized {
			return
		}

		if cur == metaInProgress {
			spinBackoff(&attempt)

			continue
		}

		if s.meta.CompareAndSwap(cur, metaResized) {
			if cur >= 0 {
				emplaceNoDuplicateCheck(succ, hasher, s.key, s.value)
			}

			return
		}
	}
}

// helpMigrate is called by any operation that observes metaResized while
// probing t. It ensures a successor exists, drives migration to
// completion, and returns the successor for the caller to retry against.
func helpMigrate[K comparable, V any](m *Map[K, V], t *table[K, V], hasher hashkit.Hasher[K]) *table[K, V] {
	succ := ensureSuccessor(t)
	driveMigration(m, t, succ, hasher)

	return succ
}

// emplaceNoDuplicateCheck inserts key/value into t without scanning for an
// existing entry, used only for migration where the source table is
// already duplicate-free.
func emplaceNoDuplicateCheck[K comparable, V any](t *table[K, V], hasher hashkit.Hasher[K], key K, value V) {
	hash := hasher.Hash(key)
	idx := probeStart(hash, t.n)
	h2 := int32(hash & uint64(h2Mask))

	step := uint64(1)

	for {
		s := &t.slots[idx]
		meta := s.meta.Load()

		if meta == metaEmpty || meta == metaTombstone {
			s.key = key
			s.value = value
			s.meta.Store(h2)
			t.count.Add(1)

			return
		}

		idx = (idx + step) & t.mask
		step++
	}
}
