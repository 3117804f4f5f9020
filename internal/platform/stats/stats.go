// Package stats wraps the descriptive and inferential statistics the
// simulation core needs. It is the only package that talks to gonum, so the
// numeric policies (unbiased variance, Welch correction, degenerate-spread
// handling) live in one place.
package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInsufficientData is returned when a computation needs at least two
// observations per sample and receives fewer.
var ErrInsufficientData = errors.New("stats: at least two observations required")

// Summary holds descriptive statistics for a single sample.
type Summary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
}

// Describe computes descriptive statistics for a sample. The standard
// deviation uses the unbiased (n-1) estimator and is reported as 0 for
// samples with fewer than two observations. An empty sample yields a zero
// Summary.
func Describe(sample []float64) Summary {
	if len(sample) == 0 {
		return Summary{}
	}

	s := Summary{
		Min:    sample[0],
		Max:    sample[0],
		Mean:   stat.Mean(sample, nil),
		Median: median(sample),
	}
	for _, v := range sample[1:] {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	if len(sample) >= 2 {
		s.StdDev = stat.StdDev(sample, nil)
	}
	return s
}

// median returns the sample median without mutating the input.
func median(sample []float64) float64 {
	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// PooledStdDev combines two group standard deviations into the pooled
// estimate used for standardized mean differences.
func PooledStdDev(sd1 float64, n1 int, sd2 float64, n2 int) float64 {
	num := float64(n1-1)*sd1*sd1 + float64(n2-1)*sd2*sd2
	return math.Sqrt(num / float64(n1+n2-2))
}

// TTestResult holds the outcome of a two-sample t-test.
type TTestResult struct {
	T  float64 `json:"t"`
	DF float64 `json:"df"`
	P  float64 `json:"p"`
}

// WelchTTest runs Welch's unequal-variance t-test on two samples and returns
// the two-sided p-value. When both samples have zero spread there is no
// standard error to test against; the result is t=0, p=1 rather than an
// error, so identical groups read as "no detectable difference".
func WelchTTest(a, b []float64) (TTestResult, error) {
	if len(a) < 2 || len(b) < 2 {
		return TTestResult{}, ErrInsufficientData
	}

	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)
	na := float64(len(a))
	nb := float64(len(b))

	seSq := varA/na + varB/nb
	if seSq == 0 {
		return TTestResult{T: 0, DF: na + nb - 2, P: 1}, nil
	}

	t := (meanA - meanB) / math.Sqrt(seSq)

	// Welch-Satterthwaite degrees of freedom.
	df := seSq * seSq / ((varA/na)*(varA/na)/(na-1) + (varB/nb)*(varB/nb)/(nb-1))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(t))
	if p > 1 {
		p = 1
	}

	return TTestResult{T: t, DF: df, P: p}, nil
}
