package cmap

import "github.com/swisskv/hashtable/pkg/hashkit"

type probeStatus int

const (
	statusFound probeStatus = iota
	statusNotFound
	statusResized
)

// Get retrieves the value for key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	t := m.active.Load()

	for {
		v, status := tryGet(t, m.hasher, key)

		switch status {
		case statusFound:
			return v, true
		case statusNotFound:
			var zero V

			return zero, false
		default: // statusResized
			t = helpMigrate(m, t, m.hasher)
		}
	}
}

func tryGet[K comparable, V any](t *table[K, V], hasher hashkit.Hasher[K], key K) (V, probeStatus) {
	var zero V

	hash := hasher.Hash(key)
	idx := probeStart(hash, t.n)
	h2 := int32(hash & uint64(h2Mask))
	maxJump := maxJumpDistance(t.n)
	step := uint64(1)

	for probes := uint64(0); probes < maxJump; probes++ {
		s := &t.slots[idx]
		meta := s.meta.Load()

		switch meta {
		case metaEmpty:
			return zero, statusNotFound
		case metaResized:
			return zero, statusResized
		case metaTombstone, metaInProgress:
			// keep scanning; this slot doesn't terminate the chain.
		default:
			if meta&h2Mask == h2 && hasher.Equal(s.key, key) {
				return s.value, statusFound
			}
		}

		idx = (idx + step) & t.mask
		step++
	}

	return zero, statusNotFound
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.Get(key)

	return ok
}

// Insert inserts a new key, rejecting (returning false) on a duplicate.
func (m *Map[K, V]) Insert(key K, value V) bool {
	t := m.active.Load()

	for {
		added, status := tryInsert(t, m.hasher, key, value, false)

		switch status {
		case statusResized:
			t = helpMigrate(m, t, m.hasher)
		default:
			return added
		}
	}
}

// InsertOrUpdate inserts key/value, overwriting any existing entry.
func (m *Map[K, V]) InsertOrUpdate(key K, value V) {
	t := m.active.Load()

	for {
		_, status := tryInsert(t, m.hasher, key, value, true)

		if status != statusResized {
			return
		}

		t = helpMigrate(m, t, m.hasher)
	}
}

func tryInsert[K comparable, V any](t *table[K, V], hasher hashkit.Hasher[K], key K, value V, overwrite bool) (added bool, status probeStatus) {
	hash := hasher.Hash(key)
	idx := probeStart(hash, t.n)
	h2 := int32(hash & uint64(h2Mask))
	maxJump := maxJumpDistance(t.n)
	step := uint64(1)

	attempt := 0

	for probes := uint64(0); probes < maxJump; {
		s := &t.slots[idx]
		meta := s.meta.Load()

		switch meta {
		case metaEmpty, metaTombstone:
			if meta == metaTombstone {
				if _, st := tryGet(t, hasher, key); st == statusFound {
					break // key lives further along the chain; don't add a second copy
				}
			}

			if s.meta.CompareAndSwap(meta, metaInProgress) {
				s.key = key
				s.value = value
				s.meta.Store(h2)
				t.count.Add(1)

				return true, statusFound
			}

			continue
		case metaResized:
			return false, statusResized
		case metaInProgress:
			spinBackoff(&attempt)

			continue
		default:
			if meta&h2Mask == h2 && hasher.Equal(s.key, key) {
				if overwrite && !lockAndSet(s, value) {
					continue // slot was removed or migrated meanwhile; re-examine it
				}

				return false, statusFound
			}
		}

		idx = (idx + step) & t.mask
		step++
		probes++
	}

	return false, statusResized
}

// lockAndSet acquires s's spin-lock bit, writes value, and releases it. Used
// by InsertOrUpdate's overwrite path.
func lockAndSet[K comparable, V any](s *slot[K, V], value V) bool {
	locked, _, ok := acquireLock(s)
	if !ok {
		return false
	}

	s.value = value
	s.meta.Store(locked &^ lockBit)

	return true
}

// acquireLock spins until it wins a CAS from an unlocked occupied meta to
// its locked form, or observes a terminal state (the slot is no longer this
// entry). IN_PROGRESS is retried, since it always resolves to the claiming
// key's h2.
func acquireLock[K comparable, V any](s *slot[K, V]) (lockedMeta int32, observed int32, ok bool) {
	attempt := 0

	for {
		cur := s.meta.Load()

		switch cur {
		case metaTombstone, metaEmpty, metaResized:
			return 0, cur, false
		case metaInProgress:
			spinBackoff(&attempt)

			continue
		}

		if cur&lockBit != 0 {
			spinBackoff(&attempt)

			continue
		}

		if s.meta.CompareAndSwap(cur, cur|lockBit) {
			return cur | lockBit, cur, true
		}
	}
}

// Update replaces the value for an existing key, returning false if absent.
func (m *Map[K, V]) Update(key K, value V) bool {
	t := m.active.Load()

	for {
		ok, status := tryUpdate(t, m.hasher, key, value)

		switch status {
		case statusResized:
			t = helpMigrate(m, t, m.hasher)
		default:
			return ok
		}
	}
}

// UpdateExpected performs a compare-and-set: the value is replaced only if
// it currently equals expected under eq. It returns false both when the
// key is absent and when the current value doesn't match expected.
func (m *Map[K, V]) UpdateExpected(key K, expected, newValue V, eq func(a, b V) bool) bool {
	t := m.active.Load()

	for {
		ok, status := tryUpdateExpected(t, m.hasher, key, expected, newValue, eq)

		switch status {
		case statusResized:
			t = helpMigrate(m, t, m.hasher)
		default:
			return ok
		}
	}
}

func tryUpdate[K comparable, V any](t *table[K, V], hasher hashkit.Hasher[K], key K, value V) (bool, probeStatus) {
	return tryUpdateExpected(t, hasher, key, value, value, nil)
}

func tryUpdateExpected[K comparable, V any](t *table[K, V], hasher hashkit.Hasher[K], key K, expected, newValue V, eq func(a, b V) bool) (bool, probeStatus) {
	hash := hasher.Hash(key)
	idx := probeStart(hash, t.n)
	h2 := int32(hash & uint64(h2Mask))
	maxJump := maxJumpDistance(t.n)
	step := uint64(1)

	for probes := uint64(0); probes < maxJump; probes++ {
		s := &t.slots[idx]
		meta := s.meta.Load()

		switch meta {
		case metaEmpty:
			return false, statusNotFound
		case metaResized:
			return false, statusResized
		case metaTombstone, metaInProgress:
			// keep scanning
		default:
			if meta&h2Mask == h2 && hasher.Equal(s.key, key) {
				locked, observed, ok := acquireLock(s)
				if !ok {
					if observed == metaResized {
						return false, statusResized // retry on the successor
					}

					// removed between our read and the lock attempt
					return false, statusNotFound
				}

				if eq != nil && !eq(s.value, expected) {
					s.meta.Store(locked &^ lockBit)

					return false, statusNotFound
				}

				s.value = newValue
				s.meta.Store(locked &^ lockBit)

				return true, statusFound
			}
		}

		idx = (idx + step) & t.mask
		step++
	}

	return false, statusNotFound
}

// Remove logically deletes key, returning false if it was absent.
func (m *Map[K, V]) Remove(key K) bool {
	_, ok := m.RemoveAndGet(key)

	return ok
}

// RemoveAndGet logically deletes key, returning its value and true if it was
// present, or the zero value and false if it was absent (spec.md §6.1,
// §7: "Remove returning out-parameter returns default when the key is
// absent"). The value is read before the slot's key/value are cleared
// (spec.md §9: "Variant returning the old value must read value before
// clearing").
func (m *Map[K, V]) RemoveAndGet(key K) (V, bool) {
	t := m.active.Load()

	for {
		value, ok, status := tryRemove(t, m.hasher, key)

		switch status {
		case statusResized:
			t = helpMigrate(m, t, m.hasher)
		default:
			return value, ok
		}
	}
}

func tryRemove[K comparable, V any](t *table[K, V], hasher hashkit.Hasher[K], key K) (V, bool, probeStatus) {
	var zeroV V

	hash := hasher.Hash(key)
	idx := probeStart(hash, t.n)
	h2 := int32(hash & uint64(h2Mask))
	maxJump := maxJumpDistance(t.n)
	step := uint64(1)

	for probes := uint64(0); probes < maxJump; probes++ {
		s := &t.slots[idx]
		meta := s.meta.Load()

		switch meta {
		case metaEmpty:
			return zeroV, false, statusNotFound
		case metaResized:
			return zeroV, false, statusResized
		case metaTombstone, metaInProgress:
			// keep scanning
		default:
			if meta&h2Mask == h2 && hasher.Equal(s.key, key) {
				_, observed, ok := acquireLock(s)
				if !ok {
					if observed == metaResized {
						return zeroV, false, statusResized // retry on the successor
					}

					return zeroV, false, statusNotFound
				}

				value := s.value

				var zeroK K

				s.key = zeroK
				s.value = zeroV
				s.meta.Store(metaTombstone)
				t.count.Add(-1)

				return value, true, statusFound
			}
		}

		idx = (idx + step) & t.mask
		step++
	}

	return zeroV, false, statusNotFound
}

// ForEach calls fn for every live entry in the currently active table.
// Concurrent mutation may cause entries to be visited zero or one time but
// never produces a torn key/value pair.
func (m *Map[K, V]) ForEach(fn func(K, V) bool) {
	t := m.active.Load()

	for i := range t.slots {
		s := &t.slots[i]

		meta := s.meta.Load()
		if meta < 0 {
			continue
		}

		if !fn(s.key, s.value) {
			return
		}
	}
}

// All returns an iter.Seq2-shaped sequence over the currently active
// table's live entries.
func (m *Map[K, V]) All() func(yield func(K, V) bool) {
	return func(yield func(K, V) bool) {
		m.ForEach(yield)
	}
}

// IndexGet returns the value for key, or [ErrKeyNotFound] if absent.
func (m *Map[K, V]) IndexGet(key K) (V, error) {
	v, ok := m.Get(key)
	if !ok {
		return v, ErrKeyNotFound
	}

	return v, nil
}

// IndexSet replaces the value for an existing key, or returns
// [ErrKeyNotFound] if absent.
func (m *Map[K, V]) IndexSet(key K, value V) error {
	if !m.Update(key, value) {
		return ErrKeyNotFound
	}

	return nil
}
