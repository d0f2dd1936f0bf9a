package stats_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torosent/kipbench/internal/stats"
)

var sample = []float64{5.0, 4.3, 8.7, 4.3, 8.2, 1.3, 9.1, 10.8}

func TestAccumulatorAggregates(t *testing.T) {
	a := stats.Load(sample)

	assert.Equal(t, int64(8), a.Count())
	assert.Equal(t, 1.3, a.Min())
	assert.Equal(t, 10.8, a.Max())
	assert.Equal(t, 51.7, a.Sum())
	assert.Equal(t, 10.8, a.Last())
	assert.InDelta(t, 6.600000000000001, a.Mean(), 1e-12)
	assert.Equal(t, 6.4625, a.Average())
	assert.Equal(t, 5.0, a.Median())
	assert.InDelta(t, 13.644309949884349, a.Log(), 1e-12)
	assert.InDelta(t, 406.04999999999995, a.Sqr(), 1e-9)
	assert.InDelta(t, 842652.5136119999, a.Product(), 1e-6)
	assert.InDelta(t, 8.99234375, a.Variance(), 1e-12)
	assert.InDelta(t, 2.998723686837452, a.Sdev(), 1e-12)
	assert.InDelta(t, 5.504350302794234, a.GeometricMean(), 1e-5)
}

func TestAccumulatorSingleSample(t *testing.T) {
	a := stats.New()
	a.Push(5.0)

	assert.Equal(t, int64(1), a.Count())
	assert.Equal(t, 5.0, a.Min())
	assert.Equal(t, 5.0, a.Max())
	assert.Equal(t, 5.0, a.Mean())
	assert.Equal(t, 5.0, a.Average())
	assert.Equal(t, 5.0, a.Median())
	assert.Equal(t, 5.0, a.Sum())
	assert.InDelta(t, 1.6094379124341003, a.Log(), 1e-15)
	assert.Equal(t, 25.0, a.Sqr())
	assert.Equal(t, 5.0, a.Product())
	assert.Equal(t, 0.0, a.Variance())
	assert.Equal(t, 0.0, a.Sdev())
	assert.InDelta(t, 5.0, a.GeometricMean(), 1e-12)
}

func TestAccumulatorMeanFallsBackToAverage(t *testing.T) {
	tests := []struct {
		name string
		data []float64
	}{
		{"one", []float64{2}},
		{"two", []float64{2, 4}},
		{"three", []float64{2, 4, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := stats.Load(tt.data)
			assert.Equal(t, a.Average(), a.Mean())
		})
	}

	a := stats.Load([]float64{2, 4, 9, 1})
	assert.InDelta(t, (16.0-9-1)/2, a.Mean(), 1e-12)
}

func TestAccumulatorAverageTracksSum(t *testing.T) {
	a := stats.New()
	for i := 1; i <= 100; i++ {
		a.Push(float64(i) * 0.37)
		assert.Equal(t, int64(i), a.Count())
		assert.InDelta(t, a.Sum()/float64(a.Count()), a.Average(), 1e-12)
		assert.LessOrEqual(t, a.Min(), a.Last())
		assert.GreaterOrEqual(t, a.Max(), a.Last())
	}
}

func TestAccumulatorMedianIsStreamingApproximation(t *testing.T) {
	a := stats.Load([]float64{5.0, 4.3, 8.7, 6.2, 4.3, 8.2, 1.3, 9.1, 10.8})
	assert.Equal(t, 5.0, a.Median())

	// 1 is exact at push time (deviation 0 from itself), later samples never beat it.
	b := stats.Load([]float64{1, 100, 50, 51})
	assert.Equal(t, 1.0, b.Median())
}

func TestAccumulatorNormalize(t *testing.T) {
	a := stats.Load(sample)
	z := a.Normalize()
	require.Len(t, z, len(sample))

	n := stats.Load(z)
	assert.InDelta(t, 0.0, n.Average(), 1e-9)
	assert.InDelta(t, 1.0, n.Variance(), 1e-9)

	// arrival order is preserved
	assert.InDelta(t, (5.0-6.4625)/2.998723686837452, z[0], 1e-12)
}

func TestAccumulatorNormalizeZeroDeviation(t *testing.T) {
	a := stats.Load([]float64{3, 3})
	for _, v := range a.Normalize() {
		assert.True(t, math.IsNaN(v))
	}
}

func TestAccumulatorClear(t *testing.T) {
	a := stats.Load(sample)
	a.Clear()

	assert.Equal(t, int64(0), a.Count())
	assert.Equal(t, 0.0, a.Sum())
	assert.True(t, math.IsInf(a.Min(), 1))
	assert.True(t, math.IsInf(a.Max(), -1))
	assert.Empty(t, a.Values())

	a.Push(7.5)
	fresh := stats.New()
	fresh.Push(7.5)
	assert.Equal(t, fresh.String(), a.String())
	assert.Equal(t, 7.5, a.Min())
	assert.Equal(t, 7.5, a.Max())
	assert.Equal(t, 7.5, a.Median())
	assert.InDelta(t, 7.5, a.GeometricMean(), 1e-12)
	assert.Equal(t, int64(1), a.Count())
}

func TestAccumulatorOverflowClears(t *testing.T) {
	a := stats.Load([]float64{1, 2, 3})
	a.Push(math.MaxFloat64)
	assert.Equal(t, int64(0), a.Count())
	assert.Empty(t, a.Values())

	a.Push(4)
	assert.Equal(t, int64(1), a.Count())
	assert.Equal(t, 4.0, a.Min())
}

func TestAccumulatorEmpty(t *testing.T) {
	var a stats.Accumulator
	assert.Equal(t, int64(0), a.Count())
	assert.Equal(t, 0.0, a.Average())
	assert.Equal(t, 0.0, a.Mean())
	assert.Equal(t, 0.0, a.Variance())
	assert.Equal(t, 0.0, a.GeometricMean())
	assert.Equal(t, 1.0, a.Product())
	assert.Empty(t, a.Normalize())
}

func TestAccumulatorValuesIsCopy(t *testing.T) {
	a := stats.Load([]float64{1, 2})
	v := a.Values()
	v[0] = 99
	assert.Equal(t, []float64{1, 2}, a.Values())
}

func TestLoadSeq(t *testing.T) {
	seq := func(yield func(float64) bool) {
		for _, v := range sample {
			if !yield(v) {
				return
			}
		}
	}
	a := stats.LoadSeq(seq)
	assert.Equal(t, stats.Load(sample).String(), a.String())
}

func TestAccumulatorString(t *testing.T) {
	a := stats.Load(sample)
	assert.Equal(t, "{count=8, sum=51.7, min=1.3, max=10.8, last=10.8, squares=406.05, mean=6.6, sdev=2.999}", a.String())
}
