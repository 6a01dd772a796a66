package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCountersSnapshotReflectsRecordedEvents(t *testing.T) {
	c := &RunCounters{}
	c.RunStarted()
	c.RunStarted()
	c.RunCompleted()
	c.RunFailed()
	c.EventObserved()
	c.EventObserved()
	c.EventObserved()

	snap := c.Snapshot()
	require.Equal(t, CounterSnapshot{Started: 2, Completed: 1, Failed: 1, Events: 3}, snap)
}

func TestRunCountersConcurrentIncrementsAreConsistent(t *testing.T) {
	c := &RunCounters{}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RunStarted()
			c.EventObserved()
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	require.Equal(t, int64(100), snap.Started)
	require.Equal(t, int64(100), snap.Events)
}

func TestNoopImplementationsDoNothingAndDontPanic(t *testing.T) {
	logger := NewNoopLogger()
	logger.Debug(context.Background(), "msg", "k", "v")
	logger.Info(context.Background(), "msg")
	logger.Warn(context.Background(), "msg")
	logger.Error(context.Background(), "msg")

	metrics := NewNoopMetrics()
	metrics.IncCounter("c", 1)
	metrics.RecordTimer("t", 0)
	metrics.RecordGauge("g", 1.5)

	tracer := NewNoopTracer()
	ctx, span := tracer.Start(context.Background(), "op")
	require.NotNil(t, ctx)
	span.AddEvent("e")
	span.SetStatus(0, "")
	span.RecordError(nil)
	span.End()
}
