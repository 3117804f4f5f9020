package stats

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// ── Describe ──

func TestDescribe_Basic(t *testing.T) {
	s := Describe([]float64{1, 2, 3, 4, 5})

	if s.Min != 1 || s.Max != 5 {
		t.Errorf("expected min 1 max 5, got %g/%g", s.Min, s.Max)
	}
	if s.Mean != 3 {
		t.Errorf("expected mean 3, got %g", s.Mean)
	}
	if !almostEqual(s.StdDev, math.Sqrt(2.5), 1e-12) {
		t.Errorf("expected stddev sqrt(2.5), got %g", s.StdDev)
	}
	if s.Median != 3 {
		t.Errorf("expected median 3, got %g", s.Median)
	}
}

func TestDescribe_EvenCount(t *testing.T) {
	s := Describe([]float64{4, 1, 3, 2})
	if s.Median != 2.5 {
		t.Errorf("expected median 2.5, got %g", s.Median)
	}
}

func TestDescribe_DoesNotMutateInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Describe(in)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("expected input order preserved, got %v", in)
	}
}

func TestDescribe_Empty(t *testing.T) {
	s := Describe(nil)
	if s.Min != 0 || s.Max != 0 || s.Mean != 0 || s.StdDev != 0 || s.Median != 0 {
		t.Errorf("expected zero summary for empty sample, got %+v", s)
	}
}

func TestDescribe_SingleObservation(t *testing.T) {
	s := Describe([]float64{7})
	if s.Mean != 7 || s.Median != 7 || s.Min != 7 || s.Max != 7 {
		t.Errorf("expected all stats 7, got %+v", s)
	}
	if s.StdDev != 0 {
		t.Errorf("expected stddev 0 for single observation, got %g", s.StdDev)
	}
}

// ── PooledStdDev ──

func TestPooledStdDev_EqualGroups(t *testing.T) {
	if got := PooledStdDev(2, 5, 2, 5); !almostEqual(got, 2, 1e-12) {
		t.Errorf("expected pooled sd 2, got %g", got)
	}
}

func TestPooledStdDev_ZeroVariance(t *testing.T) {
	if got := PooledStdDev(0, 4, 0, 4); got != 0 {
		t.Errorf("expected pooled sd 0, got %g", got)
	}
}

// ── WelchTTest ──

func TestWelchTTest_IdenticalGroups(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	res, err := WelchTTest(a, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.T != 0 {
		t.Errorf("expected t 0 for identical groups, got %g", res.T)
	}
	if !almostEqual(res.P, 1, 1e-9) {
		t.Errorf("expected p 1 for identical groups, got %g", res.P)
	}
}

func TestWelchTTest_ZeroVarianceBothGroups(t *testing.T) {
	res, err := WelchTTest([]float64{2, 2, 2}, []float64{1, 1, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.T != 0 {
		t.Errorf("expected t 0 when standard error is 0, got %g", res.T)
	}
	if res.DF != 4 {
		t.Errorf("expected fallback df n1+n2-2 = 4, got %g", res.DF)
	}
	if res.P != 1 {
		t.Errorf("expected p 1 when standard error is 0, got %g", res.P)
	}
}

func TestWelchTTest_ClearlySeparatedGroups(t *testing.T) {
	a := []float64{10, 11, 12, 10.5, 11.5}
	b := []float64{1, 2, 1.5, 2.5, 1}

	res, err := WelchTTest(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.T <= 0 {
		t.Errorf("expected positive t for a > b, got %g", res.T)
	}
	if res.P >= 0.05 {
		t.Errorf("expected significant p for well-separated groups, got %g", res.P)
	}
	if res.DF <= 0 {
		t.Errorf("expected positive degrees of freedom, got %g", res.DF)
	}
}

func TestWelchTTest_Antisymmetric(t *testing.T) {
	a := []float64{5.1, 5.4, 5.0, 5.3}
	b := []float64{4.2, 4.5, 4.1, 4.4}

	ab, err := WelchTTest(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ba, err := WelchTTest(b, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !almostEqual(ab.T, -ba.T, 1e-12) {
		t.Errorf("expected t antisymmetric, got %g and %g", ab.T, ba.T)
	}
	if !almostEqual(ab.P, ba.P, 1e-12) {
		t.Errorf("expected identical p either direction, got %g and %g", ab.P, ba.P)
	}
}

func TestWelchTTest_InsufficientData(t *testing.T) {
	_, err := WelchTTest([]float64{1}, []float64{1, 2})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	_, err = WelchTTest([]float64{1, 2}, nil)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}
