package port_test

import (
	"reflect"
	"testing"

	"github.com/arborix/dataflowgraph/port"
	"github.com/stretchr/testify/require"
)

// TestResizePreservesPrefix: growing
// then shrinking then regrowing a port array preserves every source
// written at an index that stayed continuously in range.
func TestResizePreservesPrefix(t *testing.T) {
	a, err := port.NewArray[int](5, -1)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.True(t, a.Set(i, i*10))
	}

	require.NoError(t, a.Resize(3))
	require.Equal(t, 3, a.Size())

	require.NoError(t, a.Resize(5))
	require.Equal(t, 5, a.Size())

	for i := 0; i < 3; i++ {
		v, ok := a.Get(i)
		require.True(t, ok)
		require.Equal(t, i*10, v, "index %d should survive shrink+grow", i)
	}
	for i := 3; i < 5; i++ {
		v, ok := a.Get(i)
		require.True(t, ok)
		require.Equal(t, -1, v, "new index %d should default to blank", i)
	}
}

func TestResizeOutOfRange(t *testing.T) {
	a, err := port.NewArray[int](1, 0)
	require.NoError(t, err)
	require.ErrorIs(t, a.Resize(port.MaxArraySize+1), port.ErrOutOfRange)

	_, err = port.NewArray[int](-1, 0)
	require.ErrorIs(t, err, port.ErrOutOfRange)
}

func TestGetSetOutOfRange(t *testing.T) {
	a, err := port.NewArray[int](2, 0)
	require.NoError(t, err)
	require.False(t, a.Set(5, 1))
	_, ok := a.Get(5)
	require.False(t, ok)
}

func TestBlankPagesShared(t *testing.T) {
	bp := port.NewBlankPages()
	intType := reflect.TypeOf(0)

	v1 := bp.For(intType)
	v2 := bp.For(intType)
	require.Equal(t, v1, v2)
	require.Equal(t, 0, v1)
}
