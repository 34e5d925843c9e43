package collections

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testSpace struct{}

func TestTypedID(t *testing.T) {
	id := IDFromInt[testSpace](7)
	require.Equal(t, 7, id.AsInt())
	require.Equal(t, "7", id.String())

	b := id.Bytes()
	require.Len(t, b, 8)
	require.Equal(t, byte(7), b[7])
}

func TestIDMap(t *testing.T) {
	m := NewIDMap[testSpace]([]string{"a", "b", "c"})
	require.Equal(t, 3, m.Len())

	ids := m.IDs()
	require.Len(t, ids, 3)
	for i, id := range ids {
		require.Equal(t, i, id.AsInt())
	}

	v, err := m.Get(IDFromInt[testSpace](1))
	require.NoError(t, err)
	require.Equal(t, "b", v)

	require.NoError(t, m.Set(IDFromInt[testSpace](1), "z"))
	v, err = m.Get(IDFromInt[testSpace](1))
	require.NoError(t, err)
	require.Equal(t, "z", v)

	_, err = m.Get(IDFromInt[testSpace](3))
	require.Error(t, err)
	_, err = m.Get(IDFromInt[testSpace](-1))
	require.Error(t, err)
}

func TestPeerMapExcludesSelf(t *testing.T) {
	self := IDFromInt[testSpace](2)
	m, err := NewPeerMap[testSpace, int](self, 5)
	require.NoError(t, err)
	require.Equal(t, 4, m.Len())

	require.Error(t, m.Set(self, 1))
	require.False(t, m.Has(self))

	for _, id := range m.IDs() {
		require.NotEqual(t, self, id)
		require.False(t, m.Has(id))
		require.NoError(t, m.Set(id, id.AsInt()*10))
	}
	for _, id := range m.IDs() {
		require.True(t, m.Has(id))
		v, err := m.Get(id)
		require.NoError(t, err)
		require.Equal(t, id.AsInt()*10, v)
	}

	require.Error(t, m.Set(IDFromInt[testSpace](5), 1))
	_, err = m.Get(IDFromInt[testSpace](-1))
	require.Error(t, err)
}

func TestPeerMapRejectsBadSelf(t *testing.T) {
	_, err := NewPeerMap[testSpace, int](IDFromInt[testSpace](3), 3)
	require.Error(t, err)
	_, err = NewPeerMap[testSpace, int](IDFromInt[testSpace](-1), 3)
	require.Error(t, err)
}

func TestSubset(t *testing.T) {
	s := NewSubset[testSpace](4)
	require.Equal(t, 0, s.Count())
	require.Equal(t, 4, s.MaxSize())

	require.NoError(t, s.Add(IDFromInt[testSpace](3)))
	require.NoError(t, s.Add(IDFromInt[testSpace](1)))
	require.Error(t, s.Add(IDFromInt[testSpace](1)), "duplicate add must fail")
	require.Error(t, s.Add(IDFromInt[testSpace](4)))

	require.True(t, s.Contains(IDFromInt[testSpace](1)))
	require.False(t, s.Contains(IDFromInt[testSpace](0)))
	require.Equal(t, 2, s.Count())

	ids := s.IDs()
	require.Len(t, ids, 2)
	require.Equal(t, 1, ids[0].AsInt())
	require.Equal(t, 3, ids[1].AsInt())
}
