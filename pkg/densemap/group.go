package densemap

// group scan results. Implemented as a sequential byte-parallel (SWAR)
// fallback per spec.md §4.1: "implementations must provide an equivalent
// byte-parallel fallback (sequential scan within the group)... preserving
// identical external behavior." This module always uses that scalar path;
// [Options.RequireHardwareSIMD] only gates whether [New] demands a real
// vector unit be present (see internal/simdfeature), it does not change
// which scan loop runs.

// groupMatchH2 appends to dst every offset in [0, groupWidth) within the
// group starting at start where ctrl == h2.
func (m *Map[K, V]) groupMatchH2(start uint64, h2 int8, dst []int) []int {
	for i := range uint64(groupWidth) {
		if m.ctrl[start+i] == h2 {
			dst = append(dst, int(i))
		}
	}

	return dst
}

// groupAnyEmpty reports whether any control byte in the group starting at
// start is EMPTY, and the offset of the first one.
func (m *Map[K, V]) groupAnyEmpty(start uint64) (offset int, ok bool) {
	for i := range uint64(groupWidth) {
		if m.ctrl[start+i] == emptyCtrl {
			return int(i), true
		}
	}

	return 0, false
}

// groupFirstTombstone returns the offset of the first TOMBSTONE byte in the
// group starting at start, if any.
func (m *Map[K, V]) groupFirstTombstone(start uint64) (offset int, ok bool) {
	for i := range uint64(groupWidth) {
		if m.ctrl[start+i] == tombstoneCtrl {
			return int(i), true
		}
	}

	return 0, false
}

// probeSeq walks the triangular probe sequence starting at home, visiting
// every group of groupWidth consecutive slots exactly once before repeating
// (guaranteed because n is a power of two multiple of groupWidth). visit is
// called with the starting index of each group; it returns true to stop.
func (m *Map[K, V]) probeSeq(home uint64, visit func(groupStart uint64) (stop bool)) {
	idx := home
	step := uint64(0)

	for {
		if visit(idx) {
			return
		}

		step += groupWidth
		idx = (idx + step) & m.mask
	}
}
