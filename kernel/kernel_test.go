package kernel

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// counterState is a minimal state type exercising Call/Cast ordering.
type counterState struct {
	value int
	log   []string
}

func counterHandler(tag string, args any, s *counterState) (any, error) {
	switch tag {
	case "inc":
		s.value++
		s.log = append(s.log, fmt.Sprintf("inc:%d", args.(int)))
		return s.value, nil
	case "get":
		return s.value, nil
	default:
		return nil, fmt.Errorf("unknown tag %s", tag)
	}
}

func newTestKernel(t *testing.T) *Kernel[counterState] {
	k := New("counter", counterHandler, func() counterState { return counterState{} }, 0)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = k.Run(ctx) }()
	return k
}

func TestKernel_CallAppliesInOrder(t *testing.T) {
	req := require.New(t)
	k := newTestKernel(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		v, err := k.Call(ctx, "inc", i)
		req.NoError(err)
		req.Equal(i+1, v)
	}
}

func TestKernel_ConcurrentCallsAreSerialized(t *testing.T) {
	req := require.New(t)
	k := newTestKernel(t)
	ctx := context.Background()

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := k.Call(ctx, "inc", i)
			req.NoError(err)
		}(i)
	}
	wg.Wait()

	v, err := k.Call(ctx, "get", nil)
	req.NoError(err)
	req.Equal(n, v)
}

func TestKernel_TimeoutStillApplies(t *testing.T) {
	req := require.New(t)
	k := New("counter", func(tag string, args any, s *counterState) (any, error) {
		if tag == "inc" {
			time.Sleep(50 * time.Millisecond)
			s.value++
		}
		return s.value, nil
	}, func() counterState { return counterState{} }, 0)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = k.Run(ctx) }()

	shortCtx, shortCancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer shortCancel()

	_, err := k.Call(shortCtx, "inc", nil)
	req.Error(err)

	// The kernel still processed the request after the caller gave up.
	time.Sleep(100 * time.Millisecond)
	v, err := k.Call(context.Background(), "get", nil)
	req.NoError(err)
	req.Equal(1, v)
}

func TestKernel_BufferSizeBoundsQueueDepth(t *testing.T) {
	block := make(chan struct{})
	k := New("counter", func(tag string, args any, s *counterState) (any, error) {
		<-block
		return nil, nil
	}, func() counterState { return counterState{} }, 2)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = k.Run(ctx) }()

	// The handler blocks on the first request (dequeued immediately), so
	// the next two casts fill the 2-slot queue; a 4th blocks the caller
	// until block is closed and the handler starts draining the queue.
	k.Cast("inc", 0)
	k.Cast("inc", 1)
	k.Cast("inc", 2)

	done := make(chan struct{})
	go func() {
		k.Cast("inc", 3)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Cast should have blocked on a full queue")
	case <-time.After(20 * time.Millisecond):
	}

	close(block)
	<-done
}

func TestKernel_Cast(t *testing.T) {
	req := require.New(t)
	k := newTestKernel(t)

	k.Cast("inc", 1)
	time.Sleep(20 * time.Millisecond)

	v, err := k.Call(context.Background(), "get", nil)
	req.NoError(err)
	req.Equal(1, v)
}
