package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentbackplane/abp/queue"
)

func TestPriorityOrdering(t *testing.T) {
	q := queue.NewBounded(0)
	now := time.Now()
	require.NoError(t, q.Push("low", 10, now))
	require.NoError(t, q.Push("high", 1, now))
	require.NoError(t, q.Push("mid", 5, now))

	first, err := q.Pop()
	require.NoError(t, err)
	require.Equal(t, "high", first.Value)

	second, err := q.Pop()
	require.NoError(t, err)
	require.Equal(t, "mid", second.Value)
}

func TestFIFOTieBreak(t *testing.T) {
	q := queue.NewBounded(0)
	base := time.Now()
	require.NoError(t, q.Push("a", 1, base))
	require.NoError(t, q.Push("b", 1, base.Add(time.Millisecond)))

	first, err := q.Pop()
	require.NoError(t, err)
	require.Equal(t, "a", first.Value)
}

func TestBoundedRejectsWhenFull(t *testing.T) {
	q := queue.NewBounded(1)
	require.NoError(t, q.Push("one", 1, time.Now()))
	require.ErrorIs(t, q.Push("two", 1, time.Now()), queue.ErrFull)
}

func TestPopEmpty(t *testing.T) {
	q := queue.NewBounded(0)
	_, err := q.Pop()
	require.ErrorIs(t, err, queue.ErrEmpty)
}

func TestLen(t *testing.T) {
	q := queue.NewBounded(0)
	require.Equal(t, 0, q.Len())
	require.NoError(t, q.Push("x", 1, time.Now()))
	require.Equal(t, 1, q.Len())
}
