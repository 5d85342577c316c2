package buffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircularBufferBasicOperations(t *testing.T) {
	buf, err := NewCircularBuffer[string](3)
	require.NoError(t, err)
	defer buf.Close()

	assert.True(t, buf.IsEmpty())
	assert.Equal(t, 3, buf.Capacity())

	require.NoError(t, buf.Write("first"))
	require.NoError(t, buf.Write("second"))
	require.NoError(t, buf.Write("third"))
	assert.True(t, buf.IsFull())

	item, ok := buf.Peek()
	require.True(t, ok)
	assert.Equal(t, "first", item)
	assert.Equal(t, 3, buf.Size(), "peek must not consume")

	item, ok = buf.Read()
	require.True(t, ok)
	assert.Equal(t, "first", item)
	assert.Equal(t, 2, buf.Size())
}

func TestCircularBufferPreservesArrivalOrder(t *testing.T) {
	buf, err := NewCircularBuffer[int](8)
	require.NoError(t, err)
	defer buf.Close()

	for i := 0; i < 8; i++ {
		require.NoError(t, buf.Write(i))
	}

	got := buf.Drain()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, got)
	assert.True(t, buf.IsEmpty())
}

func TestCircularBufferWrapAround(t *testing.T) {
	buf, err := NewCircularBuffer[int](3)
	require.NoError(t, err)
	defer buf.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, buf.Write(i))
	}
	_, _ = buf.Read()
	_, _ = buf.Read()
	require.NoError(t, buf.Write(3))
	require.NoError(t, buf.Write(4))

	assert.Equal(t, []int{2, 3, 4}, buf.Drain())
}

func TestDropOldestPolicy(t *testing.T) {
	var dropped []int
	buf, err := NewCircularBuffer[int](2,
		WithOverflowPolicy[int](DropOldest),
		WithDropCallback[int](func(item int) { dropped = append(dropped, item) }),
	)
	require.NoError(t, err)
	defer buf.Close()

	require.NoError(t, buf.Write(1))
	require.NoError(t, buf.Write(2))
	require.NoError(t, buf.Write(3))

	assert.Equal(t, []int{2, 3}, buf.Drain())
	assert.Equal(t, []int{1}, dropped)
	assert.Equal(t, int64(1), buf.Stats().Drops())
}

func TestDropNewestPolicy(t *testing.T) {
	var dropped []int
	buf, err := NewCircularBuffer[int](2,
		WithOverflowPolicy[int](DropNewest),
		WithDropCallback[int](func(item int) { dropped = append(dropped, item) }),
	)
	require.NoError(t, err)
	defer buf.Close()

	require.NoError(t, buf.Write(1))
	require.NoError(t, buf.Write(2))
	require.NoError(t, buf.Write(3))

	assert.Equal(t, []int{1, 2}, buf.Drain())
	assert.Equal(t, []int{3}, dropped)
}

func TestReadBatchPartial(t *testing.T) {
	buf, err := NewCircularBuffer[int](5)
	require.NoError(t, err)
	defer buf.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, buf.Write(i))
	}

	assert.Equal(t, []int{0, 1}, buf.ReadBatch(2))
	assert.Equal(t, []int{2}, buf.ReadBatch(10))
	assert.Nil(t, buf.ReadBatch(1))
}

func TestWriteAfterCloseFails(t *testing.T) {
	buf, err := NewCircularBuffer[int](2)
	require.NoError(t, err)

	require.NoError(t, buf.Write(1))
	require.NoError(t, buf.Close())
	assert.Error(t, buf.Write(2))

	// Buffered items remain readable after close
	item, ok := buf.Read()
	require.True(t, ok)
	assert.Equal(t, 1, item)
}

func TestClear(t *testing.T) {
	buf, err := NewCircularBuffer[int](4)
	require.NoError(t, err)
	defer buf.Close()

	for i := 0; i < 4; i++ {
		require.NoError(t, buf.Write(i))
	}
	buf.Clear()
	assert.True(t, buf.IsEmpty())
	assert.Equal(t, int64(0), buf.Stats().CurrentSize())
}

func TestConcurrentWritesAndDrains(t *testing.T) {
	buf, err := NewCircularBuffer[int](64)
	require.NoError(t, err)
	defer buf.Close()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = buf.Write(base + i)
			}
		}(w * 1000)
	}

	stop := make(chan struct{})
	drained := make(chan int, 1)
	go func() {
		n := 0
		for {
			n += len(buf.Drain())
			select {
			case <-stop:
				n += len(buf.Drain())
				drained <- n
				return
			default:
			}
		}
	}()

	wg.Wait()
	close(stop)

	total := <-drained + int(buf.Stats().Drops())
	assert.Equal(t, 400, total, "every write is either drained or dropped")
}

func TestStatsTracking(t *testing.T) {
	buf, err := NewCircularBuffer[int](2)
	require.NoError(t, err)
	defer buf.Close()

	require.NoError(t, buf.Write(1))
	require.NoError(t, buf.Write(2))
	_, _ = buf.Peek()
	_, _ = buf.Read()

	stats := buf.Stats()
	assert.Equal(t, int64(2), stats.Writes())
	assert.Equal(t, int64(1), stats.Reads())
	assert.Equal(t, int64(1), stats.Peeks())
	assert.Equal(t, int64(2), stats.MaxSize())
}
