package queue

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrencyBound(t *testing.T) {
	const limit = 3
	const total = 10

	q := New(limit)
	defer q.Close()

	var active, peak int32
	release := make(chan struct{})

	var tasks []*Task
	for i := 0; i < total; i++ {
		tasks = append(tasks, q.Enqueue("blocker", func() error {
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&active, -1)
			return nil
		}))
	}

	// Let the workers pick up as much as they are allowed to.
	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt32(&active), int32(limit))

	close(release)
	for _, task := range tasks {
		require.NoError(t, task.Wait())
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(limit))
	assert.Equal(t, int32(0), atomic.LoadInt32(&active))
}

func TestFIFOAdmission(t *testing.T) {
	q := New(1)
	defer q.Close()

	var mu sync.Mutex
	var order []int
	var tasks []*Task
	for i := 0; i < 8; i++ {
		i := i
		tasks = append(tasks, q.Enqueue("ordered", func() error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}))
	}
	for _, task := range tasks {
		require.NoError(t, task.Wait())
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, order)
}

func TestTaskErrorIsObservable(t *testing.T) {
	q := New(2)
	defer q.Close()

	want := errors.New("send failed")
	task := q.Enqueue("failing", func() error { return want })
	assert.ErrorIs(t, task.Wait(), want)
}

func TestPanickingTaskSettles(t *testing.T) {
	q := New(1)
	defer q.Close()

	task := q.Enqueue("panicky", func() error { panic("boom") })
	assert.Error(t, task.Wait())

	// The worker survives and keeps serving.
	ok := q.Enqueue("after", func() error { return nil })
	assert.NoError(t, ok.Wait())
}

func TestEnqueueAfterClose(t *testing.T) {
	q := New(1)
	q.Close()

	task := q.Enqueue("late", func() error { return nil })
	assert.ErrorIs(t, task.Wait(), ErrClosed)
}

func TestCloseDrainsPending(t *testing.T) {
	q := New(1)

	var done int32
	var tasks []*Task
	for i := 0; i < 5; i++ {
		tasks = append(tasks, q.Enqueue("drain", func() error {
			atomic.AddInt32(&done, 1)
			return nil
		}))
	}
	q.Close()

	for _, task := range tasks {
		require.NoError(t, task.Wait())
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&done))
}
