package densemap

// grow doubles capacity and re-emplaces every live entry without duplicate
// checking (the old table is already duplicate-free). Resets tombstones.
func (m *Map[K, V]) grow() {
	oldEntries := m.entries
	oldCtrl := m.ctrl
	oldN := m.n

	m.allocate(m.n * 2)

	for i := uint64(0); i < oldN; i++ {
		if oldCtrl[i] < 0 {
			continue
		}

		m.emplaceNoDuplicateCheck(oldEntries[i].key, oldEntries[i].value)
	}
}

// rebuild reinserts all live entries into a fresh pair of arrays of the same
// size, clearing tombstones without growing capacity.
func (m *Map[K, V]) rebuild() {
	oldEntries := m.entries
	oldCtrl := m.ctrl
	oldN := m.n

	m.allocate(oldN)

	for i := uint64(0); i < oldN; i++ {
		if oldCtrl[i] < 0 {
			continue
		}

		m.emplaceNoDuplicateCheck(oldEntries[i].key, oldEntries[i].value)
	}

	m.rebuilds++
}

// emplaceNoDuplicateCheck inserts key/value at the first available slot
// (tombstone-free since the table was just reallocated) without checking
// for an existing entry. Used only when re-emplacing a set of entries
// already known to be duplicate-free.
func (m *Map[K, V]) emplaceNoDuplicateCheck(key K, value V) {
	hash := m.hasher.Hash(key)
	home, h2 := m.splitHash(hash)

	m.probeSeq(home, func(groupStart uint64) bool {
		off, ok := m.groupAnyEmpty(groupStart)
		if !ok {
			return false
		}

		slot := (groupStart + uint64(off)) & m.mask
		m.entries[slot] = entry[K, V]{key: key, value: value}
		m.writeCtrl(slot, h2)
		m.count++

		return true
	})
}
