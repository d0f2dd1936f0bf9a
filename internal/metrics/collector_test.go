package metrics_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torosent/kipbench/internal/metrics"
)

type testError struct{}

func (e *testError) Error() string { return "testError" }

func TestCollectorCountsOutcomes(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordResult(nil)
	c.RecordResult(nil)
	c.RecordResult(errors.New("boom"))
	c.RecordResult(&testError{})
	c.RecordResult(&testError{})

	stats := c.Stats()
	assert.Equal(t, int64(5), stats.Invocations)
	assert.Equal(t, int64(2), stats.Successes)
	assert.Equal(t, int64(3), stats.Failures)
	assert.InDelta(t, 0.6, stats.FailureRate(), 1e-12)
	require.Len(t, stats.Errors, 2)
	assert.Equal(t, int64(1), stats.Errors["Error"])
	assert.Equal(t, int64(2), stats.Errors["Test Error (metrics_test)"])
}

func TestCollectorSampleQuantiles(t *testing.T) {
	c := metrics.NewCollector()
	for i := 1; i <= 100; i++ {
		c.RecordSample(float64(i))
	}

	stats := c.Stats()
	assert.Equal(t, int64(100), stats.Samples)
	assert.InDelta(t, 50, stats.P50Kips, 1)
	assert.InDelta(t, 90, stats.P90Kips, 1)
	assert.InDelta(t, 99, stats.P99Kips, 1)
}

func TestCollectorClampsTinySamples(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordSample(0)
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Samples)
	assert.InDelta(t, 0.001, stats.P50Kips, 0.0005)
}

func TestCollectorReset(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordResult(nil)
	c.RecordResult(context.DeadlineExceeded)
	c.RecordSample(3)
	c.Reset()

	stats := c.Stats()
	assert.Zero(t, stats.Invocations)
	assert.Zero(t, stats.Samples)
	assert.Nil(t, stats.Errors)
	assert.Zero(t, stats.FailureRate())
}

func TestCollectorConcurrentRecording(t *testing.T) {
	c := metrics.NewCollector()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if i%10 == 0 {
					c.RecordResult(fmt.Errorf("worker %d: %w", w, context.Canceled))
				} else {
					c.RecordResult(nil)
				}
				if i%100 == 0 {
					c.RecordSample(float64(i + 1))
				}
			}
		}(w)
	}
	wg.Wait()

	stats := c.Stats()
	assert.Equal(t, int64(8000), stats.Invocations)
	assert.Equal(t, int64(800), stats.Failures)
	assert.Equal(t, int64(80), stats.Samples)
	assert.Equal(t, int64(800), stats.Errors["Context canceled"])
}
