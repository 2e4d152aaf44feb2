package densemap

// lookup searches for key, returning its slot index if present.
func (m *Map[K, V]) lookup(key K) (slot uint64, found bool) {
	hash := m.hasher.Hash(key)
	home, h2 := m.splitHash(hash)

	var matches []int

	m.probeSeq(home, func(groupStart uint64) bool {
		matches = matches[:0]
		matches = m.groupMatchH2(groupStart, h2, matches)

		for _, off := range matches {
			idx := (groupStart + uint64(off)) & m.mask
			if m.hasher.Equal(m.entries[idx].key, key) {
				slot = idx
				found = true

				return true
			}
		}

		if _, ok := m.groupAnyEmpty(groupStart); ok {
			return true // terminator: key is certainly absent
		}

		return false
	})

	return slot, found
}

// findInsertionPoint locates where key should be written: either its
// existing slot (found=true), or a fresh slot to claim (tombstone reuse
// preferred over a virgin EMPTY slot, per spec.md §4.1's insert-time
// tombstone policy).
func (m *Map[K, V]) findInsertionPoint(key K) (slot uint64, found bool) {
	hash := m.hasher.Hash(key)
	home, h2 := m.splitHash(hash)

	var (
		matches       []int
		firstTomb     uint64
		haveFirstTomb bool
	)

	resultSlot := uint64(0)
	resultFound := false

	m.probeSeq(home, func(groupStart uint64) bool {
		matches = matches[:0]
		matches = m.groupMatchH2(groupStart, h2, matches)

		for _, off := range matches {
			idx := (groupStart + uint64(off)) & m.mask
			if m.hasher.Equal(m.entries[idx].key, key) {
				resultSlot = idx
				resultFound = true

				return true
			}
		}

		if !haveFirstTomb {
			if off, ok := m.groupFirstTombstone(groupStart); ok {
				firstTomb = (groupStart + uint64(off)) & m.mask
				haveFirstTomb = true
			}
		}

		if off, ok := m.groupAnyEmpty(groupStart); ok {
			if haveFirstTomb {
				resultSlot = firstTomb
			} else {
				resultSlot = (groupStart + uint64(off)) & m.mask
			}

			return true
		}

		return false
	})

	return resultSlot, resultFound
}

func (m *Map[K, V]) maybeGrow() {
	if m.count+m.tombstones >= m.maxLookupsBeforeResize() {
		m.grow()
	}
}

// Get retrieves the value for key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	slot, found := m.lookup(key)
	if !found {
		var zero V

		return zero, false
	}

	return m.entries[slot].value, true
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	_, found := m.lookup(key)

	return found
}

// Insert inserts a new key. Behavior on a duplicate key is: the existing
// entry is left untouched and false is returned (spec.md §9 leaves this
// case implementation-defined; see DESIGN.md/SPEC_FULL.md §6 Open Question
// 1 for the rationale — callers that want overwrite-on-duplicate semantics
// should use [Map.InsertOrUpdate]).
func (m *Map[K, V]) Insert(key K, value V) bool {
	m.maybeGrow()

	slot, found := m.findInsertionPoint(key)
	if found {
		return false
	}

	m.place(slot, key, value)

	return true
}

// InsertOrUpdate inserts key/value, overwriting any existing entry for key.
func (m *Map[K, V]) InsertOrUpdate(key K, value V) {
	m.maybeGrow()

	slot, found := m.findInsertionPoint(key)
	if found {
		m.entries[slot].value = value

		return
	}

	m.place(slot, key, value)
}

// place writes key/value into slot, transitioning its control byte from
// EMPTY/TOMBSTONE to h2 and updating counters.
func (m *Map[K, V]) place(slot uint64, key K, value V) {
	hash := m.hasher.Hash(key)
	_, h2 := m.splitHash(hash)

	wasTombstone := m.ctrl[slot] == tombstoneCtrl

	m.entries[slot] = entry[K, V]{key: key, value: value}
	m.writeCtrl(slot, h2)

	m.count++

	if wasTombstone {
		m.tombstones--
	}
}

// Update replaces the value for an existing key, returning false if absent.
func (m *Map[K, V]) Update(key K, value V) bool {
	slot, found := m.lookup(key)
	if !found {
		return false
	}

	m.entries[slot].value = value

	return true
}

// Remove logically deletes key, returning false if it was absent. May
// trigger a rebuild unless a bulk-remove session is active (see
// [Map.BeginBulkRemove]).
func (m *Map[K, V]) Remove(key K) bool {
	_, ok := m.RemoveAndGet(key)

	return ok
}

// RemoveAndGet logically deletes key, returning its value and true if it was
// present, or the zero value and false if it was absent. The value is read
// before the slot is cleared (spec.md §9: "Variant returning the old value
// must read value before clearing").
func (m *Map[K, V]) RemoveAndGet(key K) (V, bool) {
	slot, found := m.lookup(key)
	if !found {
		var zero V

		return zero, false
	}

	value := m.entries[slot].value

	var zero entry[K, V]

	m.entries[slot] = zero
	m.writeCtrl(slot, tombstoneCtrl)
	m.count--
	m.tombstones++

	if !m.bulkRemoving && m.tombstones >= uint64(float64(m.n)*rebuildFraction) {
		m.rebuild()
	}

	return value, true
}

// GetOrAddDefaultRef returns a pointer to the existing or newly-inserted
// (zero-valued) entry for key. The pointer is valid until the next mutating
// call on m (insert, update, remove, resize or rebuild may relocate
// entries).
func (m *Map[K, V]) GetOrAddDefaultRef(key K) *V {
	m.maybeGrow()

	slot, found := m.findInsertionPoint(key)
	if found {
		return &m.entries[slot].value
	}

	var zero V

	m.place(slot, key, zero)

	return &m.entries[slot].value
}

// Clear resets the map to empty, retaining its current capacity.
func (m *Map[K, V]) Clear() {
	m.allocate(m.n)
}

// Copy replaces m's contents with a deep copy of other's live entries. m
// takes on other's capacity and load factor.
func (m *Map[K, V]) Copy(other *Map[K, V]) {
	m.allocate(other.n)
	m.loadFactor = other.loadFactor

	other.ForEach(func(k K, v V) bool {
		m.InsertOrUpdate(k, v)

		return true
	})
}

// BeginBulkRemove suspends rebuild-on-threshold until [Map.EndBulkRemove] is
// called, so a batch of removals triggers at most one rebuild.
func (m *Map[K, V]) BeginBulkRemove() {
	m.bulkRemoving = true
}

// EndBulkRemove resumes normal rebuild behavior, performing exactly one
// rebuild now if the tombstone threshold was crossed during the bulk
// session.
func (m *Map[K, V]) EndBulkRemove() {
	m.bulkRemoving = false

	if m.tombstones >= uint64(float64(m.n)*rebuildFraction) {
		m.rebuild()
	}
}

// ForEach calls fn for every live entry in storage order, stopping early if
// fn returns false. Iteration order is unstable across mutations.
func (m *Map[K, V]) ForEach(fn func(K, V) bool) {
	for i := uint64(0); i < m.n; i++ {
		if m.ctrl[i] < 0 {
			continue
		}

		if !fn(m.entries[i].key, m.entries[i].value) {
			return
		}
	}
}

// All returns an iter.Seq2-shaped sequence over live entries, mirroring the
// teacher's slotcache.Seq shape generalized from one Entry value to a (K, V)
// pair.
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
// [ErrKeyNotFound] if the key is absent (mirrors the spec's indexed-set
// contract, which throws KeyNotFound rather than inserting).
func (m *Map[K, V]) IndexSet(key K, value V) error {
	if !m.Update(key, value) {
		return ErrKeyNotFound
	}

	return nil
}
