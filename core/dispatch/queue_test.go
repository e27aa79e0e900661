package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startQueue(t *testing.T) *Queue {
	t.Helper()
	q := NewQueue()
	go func() { _ = q.Run(context.Background()) }()
	t.Cleanup(q.Close)
	return q
}

// TestQueue_FIFO tests that posted functions run in order on one goroutine.
func TestQueue_FIFO(t *testing.T) {
	q := startQueue(t)

	var (
		mu  sync.Mutex
		got []int
		wg  sync.WaitGroup
	)
	wg.Add(100)
	for i := 0; i < 100; i++ {
		q.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()

	for i := range got {
		assert.Equal(t, i, got[i])
	}
}

// TestQueue_NoOverlap tests that functions posted from many goroutines never
// run concurrently.
func TestQueue_NoOverlap(t *testing.T) {
	q := startQueue(t)

	running, maxRunning, counter := 0, 0, 0
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				assert.NoError(t, q.Do(context.Background(), func() {
					running++
					if running > maxRunning {
						maxRunning = running
					}
					counter++
					running--
				}))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxRunning)
	assert.Equal(t, 400, counter)
}

// TestQueue_Close tests that a closed queue rejects and drops work.
func TestQueue_Close(t *testing.T) {
	q := NewQueue()
	done := make(chan error, 1)
	go func() { done <- q.Run(context.Background()) }()

	require.NoError(t, q.Do(context.Background(), func() {}))
	select {
	case <-q.Done():
		t.Fatal("Done closed before Close")
	default:
	}
	q.Close()
	q.Close()
	<-q.Done()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}

	assert.True(t, q.Closed())
	assert.ErrorIs(t, q.Do(context.Background(), func() {}), ErrClosed)

	ran := false
	q.Post(func() { ran = true })
	assert.False(t, ran)
}

// TestQueue_ContextCancel tests that Run and Do honor their contexts.
func TestQueue_ContextCancel(t *testing.T) {
	q := NewQueue()
	t.Cleanup(q.Close)

	// No Run loop: Do can only finish through its context.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Do(ctx, func() {}), context.DeadlineExceeded)

	runCtx, stop := context.WithCancel(context.Background())
	stop()
	assert.ErrorIs(t, q.Run(runCtx), context.Canceled)
}

func TestExecutorFunc(t *testing.T) {
	var calls int
	var e Executor = ExecutorFunc(func(fn func()) {
		calls++
		fn()
	})

	ran := false
	e.Post(func() { ran = true })
	assert.True(t, ran)
	assert.Equal(t, 1, calls)
}
