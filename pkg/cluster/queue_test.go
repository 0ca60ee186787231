package cluster

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(3)
	require.NoError(t, q.Push("a"))
	require.NoError(t, q.Push("b"))
	require.NoError(t, q.Push("c"))

	assert.True(t, q.Full())
	assert.Equal(t, []string{"a", "b", "c"}, q.IDs())

	err := q.Push("d")
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 3, q.Len())

	assert.True(t, q.Remove("b"))
	assert.False(t, q.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, q.IDs())
	assert.True(t, q.Contains("c"))
	assert.False(t, q.Contains("b"))
}

func TestQueueDefaultCapacity(t *testing.T) {
	q := NewQueue(0)
	assert.Equal(t, DefaultQueueCapacity, q.Capacity())

	for i := 0; i < DefaultQueueCapacity; i++ {
		require.NoError(t, q.Push(fmt.Sprintf("pod-%d", i)))
	}
	assert.ErrorIs(t, q.Push("overflow"), ErrQueueFull)
}

func TestQueueIDsIsACopy(t *testing.T) {
	q := NewQueue(2)
	require.NoError(t, q.Push("a"))

	ids := q.IDs()
	ids[0] = "mutated"

	assert.Equal(t, []string{"a"}, q.IDs())
}

func TestQueueClear(t *testing.T) {
	q := NewQueue(2)
	require.NoError(t, q.Push("a"))
	require.NoError(t, q.Push("b"))

	q.Clear()
	assert.Zero(t, q.Len())
	assert.False(t, q.Full())
	require.NoError(t, q.Push("c"))
}
