package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_Coalesces(t *testing.T) {
	d := NewDebouncer(context.Background(), 20*time.Millisecond)

	var calls atomic.Int32
	var last atomic.Int32
	for i := 1; i <= 5; i++ {
		d.Trigger(func(context.Context) {
			calls.Add(1)
			last.Store(int32(i))
		})
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(5), last.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(context.Background(), 10*time.Millisecond)

	var calls atomic.Int32
	d.Trigger(func(context.Context) { calls.Add(1) })
	assert.True(t, d.Pending())
	d.Cancel()

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestDebouncer_TriggerCancelsRunning(t *testing.T) {
	d := NewDebouncer(context.Background(), time.Millisecond)

	started := make(chan struct{})
	cancelled := make(chan struct{})
	d.Trigger(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(cancelled)
	})

	<-started
	d.Trigger(func(context.Context) {})

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("running func was not cancelled")
	}
}

func TestDebouncer_ReleasesContextAfterRun(t *testing.T) {
	d := NewDebouncer(context.Background(), time.Millisecond)

	ran := make(chan context.Context, 1)
	d.Trigger(func(ctx context.Context) { ran <- ctx })

	var ctx context.Context
	select {
	case ctx = <-ran:
	case <-time.After(time.Second):
		t.Fatal("debounced func did not run")
	}

	assert.Eventually(t, func() bool { return errors.Is(ctx.Err(), context.Canceled) }, time.Second, time.Millisecond)
	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Nil(t, d.cancel)
}

func TestDebouncer_DefaultDelay(t *testing.T) {
	assert.Equal(t, DefaultDelay, NewDebouncer(context.Background(), 0).Delay())
}

func TestLatest_OnlyLatestDelivers(t *testing.T) {
	l := NewLatest[[]string](nil)

	release := make(chan struct{})
	var mu sync.Mutex
	var delivered [][]string

	l.Run(context.Background(), func(ctx context.Context) ([]string, error) {
		select {
		case <-release:
			return []string{"stale"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, func(v []string) {
		mu.Lock()
		delivered = append(delivered, v)
		mu.Unlock()
	})

	l.Run(context.Background(), func(context.Context) ([]string, error) {
		return []string{"fresh"}, nil
	}, func(v []string) {
		mu.Lock()
		delivered = append(delivered, v)
		mu.Unlock()
	})

	close(release)
	l.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, delivered, 1)
	assert.Equal(t, []string{"fresh"}, delivered[0])
	assert.False(t, l.InFlight())
}

func TestLatest_ErrorDegradesToEmpty(t *testing.T) {
	var sink []error
	l := NewLatest[[]string](func(err error) { sink = append(sink, err) })

	boom := errors.New("provider failed")
	var got []string
	delivered := false
	l.Run(context.Background(), func(context.Context) ([]string, error) {
		return []string{"partial"}, boom
	}, func(v []string) {
		got = v
		delivered = true
	})
	l.Wait()

	assert.True(t, delivered)
	assert.Nil(t, got)
	require.Len(t, sink, 1)
	assert.ErrorIs(t, sink[0], boom)
}

func TestLatest_CancelSwallowed(t *testing.T) {
	var sink []error
	l := NewLatest[int](func(err error) { sink = append(sink, err) })

	started := make(chan struct{})
	delivered := false
	l.Run(context.Background(), func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	}, func(int) { delivered = true })

	<-started
	l.Cancel()
	l.Wait()

	assert.False(t, delivered)
	assert.Empty(t, sink)
	assert.False(t, l.InFlight())
}
