// Package stats provides a streaming accumulator for throughput samples.
package stats

import (
	"iter"
	"math"
	"strconv"
	"strings"
)

// Accumulator aggregates an ordered stream of float64 samples.
//
// Besides the running sums it keeps the full history, which Variance and
// Normalize walk on every call. The zero value is ready to use.
// An Accumulator is not safe for concurrent use.
type Accumulator struct {
	count   int64
	min     float64
	max     float64
	sum     float64
	squares float64
	last    float64
	avg     float64
	log     float64
	prod    float64
	minDev  float64
	median  float64
	values  []float64
}

// New returns an empty Accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// Load returns an Accumulator holding data in order.
func Load(data []float64) *Accumulator {
	a := New()
	for _, v := range data {
		a.Push(v)
	}
	return a
}

// LoadSeq drains seq into a new Accumulator.
func LoadSeq(seq iter.Seq[float64]) *Accumulator {
	a := New()
	for v := range seq {
		a.Push(v)
	}
	return a
}

// Push records one sample.
func (a *Accumulator) Push(x float64) {
	if a.count == 0 {
		a.min = math.Inf(1)
		a.max = math.Inf(-1)
		a.prod = 1
		a.minDev = math.Inf(1)
	}
	a.sum += x
	a.squares += float64(x * x)
	if x < a.min {
		a.min = x
	}
	if x > a.max {
		a.max = x
	}
	a.last = x
	a.count++
	a.avg = a.sum / float64(a.count)

	// Nearest-to-mean tracking: order dependent, only an approximation of the median.
	if d := math.Abs(x - a.avg); d < a.minDev {
		a.minDev = d
		a.median = x
	}

	a.log += math.Log(x)
	a.prod *= x
	a.values = append(a.values, x)

	if math.IsInf(a.squares, 0) || math.IsNaN(a.squares) {
		a.Clear()
	}
}

// Count returns the number of samples pushed since the last Clear.
func (a *Accumulator) Count() int64 { return a.count }

// Last returns the most recent sample.
func (a *Accumulator) Last() float64 { return a.last }

// Min returns the smallest sample, or +Inf when empty.
func (a *Accumulator) Min() float64 {
	if a.count == 0 {
		return math.Inf(1)
	}
	return a.min
}

// Max returns the largest sample, or -Inf when empty.
func (a *Accumulator) Max() float64 {
	if a.count == 0 {
		return math.Inf(-1)
	}
	return a.max
}

// Sum returns the sum of samples.
func (a *Accumulator) Sum() float64 { return a.sum }

// Sqr returns the sum of squares.
func (a *Accumulator) Sqr() float64 { return a.squares }

// Log returns the sum of natural logarithms.
func (a *Accumulator) Log() float64 { return a.log }

// Product returns the product of samples, 1 when empty.
func (a *Accumulator) Product() float64 {
	if a.count == 0 {
		return 1
	}
	return a.prod
}

// Mean returns the trimmed mean: one minimum and one maximum sample are
// discarded once more than three samples exist.
func (a *Accumulator) Mean() float64 {
	if a.count > 3 {
		return (a.sum - a.max - a.min) / float64(a.count-2)
	}
	return a.avg
}

// Average returns sum/count.
func (a *Accumulator) Average() float64 { return a.avg }

// GeometricMean returns exp(log/count), which equals product^(1/count)
// without overflowing the product for long runs.
func (a *Accumulator) GeometricMean() float64 {
	if a.count == 0 {
		return 0
	}
	return math.Exp(a.log / float64(a.count))
}

// Variance returns the population variance of the history around Average.
func (a *Accumulator) Variance() float64 {
	if a.count == 0 {
		return 0
	}
	var v float64
	for _, x := range a.values {
		d := x - a.avg
		v += float64(d * d)
	}
	return v / float64(a.count)
}

// Sdev returns the population standard deviation.
func (a *Accumulator) Sdev() float64 {
	return math.Sqrt(a.Variance())
}

// Median returns the sample that was closest to the running average at the
// time it was pushed. It is not an order statistic.
func (a *Accumulator) Median() float64 { return a.median }

// Normalize returns the z-score of every sample in arrival order.
// With a zero standard deviation every entry is NaN.
func (a *Accumulator) Normalize() []float64 {
	out := make([]float64, len(a.values))
	sd := a.Sdev()
	for i, x := range a.values {
		out[i] = (x - a.avg) / sd
	}
	return out
}

// Values returns a copy of the retained history.
func (a *Accumulator) Values() []float64 {
	return append([]float64(nil), a.values...)
}

// Clear discards every sample and resets all running state.
func (a *Accumulator) Clear() {
	values := a.values[:0]
	*a = Accumulator{values: values}
}

func (a *Accumulator) String() string {
	var b strings.Builder
	b.WriteString("{count=")
	b.WriteString(strconv.FormatInt(a.count, 10))
	b.WriteString(", sum=")
	b.WriteString(formatFloat(a.sum))
	b.WriteString(", min=")
	b.WriteString(formatFloat(a.Min()))
	b.WriteString(", max=")
	b.WriteString(formatFloat(a.Max()))
	b.WriteString(", last=")
	b.WriteString(formatFloat(a.last))
	b.WriteString(", squares=")
	b.WriteString(formatRounded(a.squares))
	b.WriteString(", mean=")
	b.WriteString(formatRounded(a.Mean()))
	b.WriteString(", sdev=")
	b.WriteString(formatRounded(a.Sdev()))
	b.WriteString("}")
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// formatRounded keeps at most three fraction digits.
func formatRounded(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return formatFloat(v)
	}
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
