package diagnostics_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agora/pkg/platform/circuit"
	"agora/pkg/platform/diagnostics"
	"agora/pkg/platform/diagnostics/memory"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func runAsync(t *testing.T, a *diagnostics.Async) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func TestAsync_DeliversInOrder(t *testing.T) {
	sink := memory.NewPublisher()
	m := diagnostics.NewMetrics(prometheus.NewRegistry())
	a := diagnostics.NewAsync(sink, diagnostics.WithLogger(quiet), diagnostics.WithMetrics(m))
	stop := runAsync(t, a)

	ctx := context.Background()
	require.NoError(t, a.Publish(ctx, diagnostics.Event{Kind: diagnostics.EventUnmappedStatus, RawStatus: "archived"}))
	require.NoError(t, a.Publish(ctx, diagnostics.Event{Kind: diagnostics.EventMalformedRecord, Index: 3}))

	assert.Eventually(t, func() bool { return len(sink.List()) == 2 }, time.Second, 5*time.Millisecond)
	stop()

	events := sink.List()
	assert.Equal(t, "archived", events[0].RawStatus)
	assert.Equal(t, 3, events[1].Index)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Published.WithLabelValues("unmapped_status")))
}

func TestAsync_DropsWhenQueueFull(t *testing.T) {
	m := diagnostics.NewMetrics(prometheus.NewRegistry())
	a := diagnostics.NewAsync(memory.NewPublisher(),
		diagnostics.WithQueueSize(1),
		diagnostics.WithLogger(quiet),
		diagnostics.WithMetrics(m),
	)

	// Not running: the second event has nowhere to go.
	ctx := context.Background()
	require.NoError(t, a.Publish(ctx, diagnostics.Event{Kind: diagnostics.EventSourceFailed}))
	require.NoError(t, a.Publish(ctx, diagnostics.Event{Kind: diagnostics.EventSourceFailed}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dropped.WithLabelValues("queue_full")))
}

type failingSink struct {
	mu    sync.Mutex
	calls int
}

func (f *failingSink) Publish(context.Context, diagnostics.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("broker unreachable")
}

func (f *failingSink) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestAsync_BreakerStopsHammeringSink(t *testing.T) {
	sink := &failingSink{}
	m := diagnostics.NewMetrics(prometheus.NewRegistry())
	a := diagnostics.NewAsync(sink,
		diagnostics.WithBreaker(circuit.New("diagnostics", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))),
		diagnostics.WithLogger(quiet),
		diagnostics.WithMetrics(m),
	)
	stop := runAsync(t, a)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, a.Publish(ctx, diagnostics.Event{Kind: diagnostics.EventMalformedRecord, Index: i}))
	}
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.Dropped.WithLabelValues("circuit_open")) == 3
	}, time.Second, 5*time.Millisecond)
	stop()

	assert.Equal(t, 2, sink.Calls())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PublishFailures))
}

func TestAsync_DrainsOnShutdown(t *testing.T) {
	sink := memory.NewPublisher()
	a := diagnostics.NewAsync(sink, diagnostics.WithLogger(quiet))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, a.Publish(ctx, diagnostics.Event{Kind: diagnostics.EventUnmappedStatus}))
	}

	runCtx, cancel := context.WithCancel(context.Background())
	cancel()
	err := a.Run(runCtx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, sink.List(), 3)
}
