package effect

import (
	"errors"
	"math"
	"testing"

	"github.com/neurotwin/neurotwin/pkg/neuromodels"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// ── Compute ──

func TestCompute_Basic(t *testing.T) {
	baseline := []float64{4, 5, 6}
	intervention := []float64{7, 8, 9}

	eff, err := Compute(neuromodels.Serotonin, intervention, baseline, neuromodels.SignificanceModerate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Means 8 and 5, pooled sd exactly 1.
	if eff.EffectSize != 3 {
		t.Errorf("expected effect size 3, got %g", eff.EffectSize)
	}
	if eff.SampleSize != 6 {
		t.Errorf("expected sample size 6, got %d", eff.SampleSize)
	}
	if eff.Neurotransmitter != neuromodels.Serotonin {
		t.Errorf("expected serotonin, got %s", eff.Neurotransmitter)
	}
	if eff.ClinicalSignificance != neuromodels.SignificanceModerate {
		t.Errorf("expected moderate significance, got %s", eff.ClinicalSignificance)
	}
	if eff.CILower >= eff.EffectSize || eff.CIUpper <= eff.EffectSize {
		t.Errorf("expected CI to bracket the effect, got [%g, %g]", eff.CILower, eff.CIUpper)
	}
	if eff.PValue >= 0.05 {
		t.Errorf("expected significant p for well-separated groups, got %g", eff.PValue)
	}
	if !eff.IsStatisticallySignificant() {
		t.Error("expected statistical significance")
	}
}

func TestCompute_CIWidthMatchesFormula(t *testing.T) {
	baseline := []float64{4, 5, 6}
	intervention := []float64{7, 8, 9}

	eff, err := Compute(neuromodels.Dopamine, intervention, baseline, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := eff.EffectSize
	se := math.Sqrt(6.0/9.0 + d*d/12.0)
	if !almostEqual(eff.CILower, d-1.96*se, 1e-12) {
		t.Errorf("expected ci lower %g, got %g", d-1.96*se, eff.CILower)
	}
	if !almostEqual(eff.CIUpper, d+1.96*se, 1e-12) {
		t.Errorf("expected ci upper %g, got %g", d+1.96*se, eff.CIUpper)
	}
}

// Swapping the groups negates the effect exactly.
func TestCompute_Symmetry(t *testing.T) {
	a := []float64{5.2, 6.1, 5.8, 6.4}
	b := []float64{4.1, 4.4, 3.9, 4.6}

	ab, err := Compute(neuromodels.Serotonin, a, b, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ba, err := Compute(neuromodels.Serotonin, b, a, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ab.EffectSize != -ba.EffectSize {
		t.Errorf("expected negated effect, got %g and %g", ab.EffectSize, ba.EffectSize)
	}
	if !almostEqual(ab.PValue, ba.PValue, 1e-12) {
		t.Errorf("expected identical p either direction, got %g and %g", ab.PValue, ba.PValue)
	}
}

// Zero spread in both groups is a defined-zero, not an error.
func TestCompute_ZeroVariance(t *testing.T) {
	eff, err := Compute(neuromodels.Dopamine, []float64{2, 2, 2, 2}, []float64{1, 1, 1, 1}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if eff.EffectSize != 0 {
		t.Errorf("expected effect size exactly 0, got %g", eff.EffectSize)
	}
	if math.IsNaN(eff.EffectSize) || math.IsInf(eff.EffectSize, 0) {
		t.Error("expected a finite effect size")
	}
	if eff.PValue != 1 {
		t.Errorf("expected p 1 with no detectable spread, got %g", eff.PValue)
	}
	if eff.CILower >= 0 || eff.CIUpper <= 0 {
		t.Errorf("expected CI around 0, got [%g, %g]", eff.CILower, eff.CIUpper)
	}
}

func TestCompute_AllIdenticalSamples(t *testing.T) {
	same := []float64{3, 3, 3}
	eff, err := Compute(neuromodels.GABA, same, same, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eff.EffectSize != 0 {
		t.Errorf("expected effect size 0, got %g", eff.EffectSize)
	}
}

func TestCompute_InsufficientData(t *testing.T) {
	_, err := Compute(neuromodels.Serotonin, []float64{1}, []float64{1, 2}, "")
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	_, err = Compute(neuromodels.Serotonin, []float64{1, 2}, nil, "")
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCompute_UnknownNeurotransmitter(t *testing.T) {
	_, err := Compute("caffeine", []float64{1, 2}, []float64{1, 2}, "")
	if err == nil {
		t.Fatal("expected error for unknown neurotransmitter")
	}
}

func TestCompute_DefaultsSignificance(t *testing.T) {
	eff, err := Compute(neuromodels.Serotonin, []float64{1, 2}, []float64{1, 2}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eff.ClinicalSignificance != neuromodels.SignificanceNone {
		t.Errorf("expected default significance none, got %s", eff.ClinicalSignificance)
	}
}

func TestCompute_InvalidSignificance(t *testing.T) {
	_, err := Compute(neuromodels.Serotonin, []float64{1, 2}, []float64{1, 2}, "severe")
	if err == nil {
		t.Fatal("expected error for unknown significance grade")
	}
}

// ── Magnitude ──

func TestMagnitude(t *testing.T) {
	cases := []struct {
		effectSize float64
		want       string
	}{
		{0.0, MagnitudeNegligible},
		{0.1, MagnitudeNegligible},
		{0.2, MagnitudeSmall},
		{-0.3, MagnitudeSmall},
		{0.5, MagnitudeMedium},
		{-0.6, MagnitudeMedium},
		{0.8, MagnitudeLarge},
		{-1.5, MagnitudeLarge},
	}
	for _, tc := range cases {
		e := &NeurotransmitterEffect{EffectSize: tc.effectSize}
		if got := e.Magnitude(); got != tc.want {
			t.Errorf("Magnitude(%g) = %s, want %s", tc.effectSize, got, tc.want)
		}
	}
}

func TestMagnitudeWith_CustomThresholds(t *testing.T) {
	e := &NeurotransmitterEffect{EffectSize: 0.3}
	tight := Thresholds{Small: 0.1, Medium: 0.25, Large: 0.4}
	if got := e.MagnitudeWith(tight); got != MagnitudeMedium {
		t.Errorf("expected medium under tight thresholds, got %s", got)
	}
}

// ── Direction ──

func TestDirection(t *testing.T) {
	cases := []struct {
		effectSize float64
		want       string
	}{
		{0.5, DirectionIncrease},
		{0.11, DirectionIncrease},
		{0.1, DirectionNone},
		{0.0, DirectionNone},
		{-0.1, DirectionNone},
		{-0.11, DirectionDecrease},
		{-0.7, DirectionDecrease},
	}
	for _, tc := range cases {
		e := &NeurotransmitterEffect{EffectSize: tc.effectSize}
		if got := e.Direction(); got != tc.want {
			t.Errorf("Direction(%g) = %s, want %s", tc.effectSize, got, tc.want)
		}
	}
}

// ── Significance and precision ──

func TestIsStatisticallySignificant(t *testing.T) {
	if !(&NeurotransmitterEffect{PValue: 0.04}).IsStatisticallySignificant() {
		t.Error("expected p=0.04 to be significant")
	}
	if (&NeurotransmitterEffect{PValue: 0.05}).IsStatisticallySignificant() {
		t.Error("expected p=0.05 to not be significant")
	}
}

func TestPrecision(t *testing.T) {
	e := &NeurotransmitterEffect{CILower: 0, CIUpper: 0.5}
	if got := e.Precision(); got != 2 {
		t.Errorf("expected precision 2, got %g", got)
	}

	degenerate := &NeurotransmitterEffect{CILower: 1, CIUpper: 1}
	if got := degenerate.Precision(); got != 0 {
		t.Errorf("expected precision 0 for zero-width interval, got %g", got)
	}
}
