// Package hashkit models the "hash capability" that every container in this
// module depends on: a pure, deterministic hash function paired with a key
// equality predicate.
//
// The capability is intentionally abstract. Cached-hashcode key wrappers and
// custom hashing schemes are external collaborators; only their contract —
// [Hasher] — is modeled here.
package hashkit

// Hasher supplies a deterministic hash and an equality test for keys of type
// K. Hash must be pure: calling it twice with equal keys (per Equal) must
// yield the same value for the lifetime of a key's membership in a
// container. No particular bit distribution is required for correctness.
// cmap mixes the returned value with a golden-ratio multiply before indexing
// its table; densemap and blitzmap take the table index from its low bits
// directly, without further mixing.
type Hasher[K any] interface {
	Hash(k K) uint64
	Equal(a, b K) bool
}

// fnv1a64 hashes b with 64-bit FNV-1a. Grounded on the teacher's fnv1a64
// helper (pkg/slotcache/writer.go), generalized from a fixed-width key
// buffer to an arbitrary byte slice.
func fnv1a64(b []byte) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)

	h := uint64(offset64)
	for _, c := range b {
		h ^= uint64(c)
		h *= prime64
	}

	return h
}

// mix64 is a splitmix64-style finalizer for integer keys, mirroring the
// h1/h2 multiplicative mixing the Go runtime's swiss-table map applies to
// raw hash bits (internal/runtime/maps) before splitting them into an index
// and a short tag.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31

	return x
}

// StringHasher hashes string keys with FNV-1a over their bytes.
type StringHasher struct{}

func (StringHasher) Hash(k string) uint64 { return fnv1a64([]byte(k)) }

func (StringHasher) Equal(a, b string) bool { return a == b }

// BytesHasher hashes []byte keys with FNV-1a, comparing for equality by
// content rather than identity.
type BytesHasher struct{}

func (BytesHasher) Hash(k []byte) uint64 { return fnv1a64(k) }

func (BytesHasher) Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// Integer is the set of key kinds IntHasher accepts.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// IntHasher hashes integer keys of any width with a splitmix64 finalizer.
type IntHasher[K Integer] struct{}

func (IntHasher[K]) Hash(k K) uint64 { return mix64(uint64(k)) }

func (IntHasher[K]) Equal(a, b K) bool { return a == b }
