package blitzmap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swisskv/hashtable/pkg/hashkit"
)

// FuzzModelVsReal decodes fuzz bytes into insert/remove/get operations over a
// small key space against a small initial capacity, comparing the map
// against a native Go map oracle after every step. Few buckets and many
// candidate keys force repeated foreign-root collisions, so the sequence
// regularly drives the kickout/chain-splice path exercised by TestKickout,
// just under fuzz-generated orderings instead of one hand-picked pair.
// Grounded on the teacher's FuzzBehavior_ModelVsReal
// (pkg/slotcache/behavior_fuzz_test.go): decode byte stream into ops, apply
// to model and real, assert they agree at every step.
func FuzzModelVsReal(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x00, 0x01, 0x02, 0x01, 0x00, 0x02})
	f.Add([]byte{0x01, 0x00, 0x01, 0x00, 0x01, 0x00, 0x01, 0x01})

	const keySpace = 32

	f.Fuzz(func(t *testing.T, data []byte) {
		m, err := New[int, int](Options{InitialCapacity: 4}, hashkit.IntHasher[int]{})
		require.NoError(t, err)

		oracle := make(map[int]int)

		for i := 0; i+1 < len(data); i += 2 {
			key := int(data[i]) % keySpace

			switch data[i+1] % 3 {
			case 0:
				value := int(data[i+1])
				m.InsertOrUpdate(key, value)
				oracle[key] = value
			case 1:
				m.Remove(key)
				delete(oracle, key)
			case 2:
				wantV, wantOK := oracle[key]
				gotV, gotOK := m.Get(key)
				require.Equal(t, wantOK, gotOK, "key %d", key)

				if wantOK {
					require.Equal(t, wantV, gotV, "key %d", key)
				}
			}
		}

		require.Equal(t, len(oracle), m.Count())
		require.Equal(t, len(m.entries), m.Count())

		for k, wantV := range oracle {
			gotV, ok := m.Get(k)
			require.True(t, ok, "key %d", k)
			require.Equal(t, wantV, gotV, "key %d", k)
		}
	})
}
