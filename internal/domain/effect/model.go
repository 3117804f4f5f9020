// Package effect quantifies how an intervention shifted a neurotransmitter
// relative to baseline, as a standardized effect size with its inferential
// statistics. Effects come out of Compute; callers do not assemble them by
// hand.
package effect

import (
	"errors"
	"math"

	"github.com/neurotwin/neurotwin/pkg/neuromodels"
)

// ErrInsufficientData reports a group with fewer than two samples.
var ErrInsufficientData = errors.New("effect: at least two samples per group required")

// Effect magnitude classes ordered by |effect size|.
const (
	MagnitudeNegligible = "negligible"
	MagnitudeSmall      = "small"
	MagnitudeMedium     = "medium"
	MagnitudeLarge      = "large"
)

// Effect direction values.
const (
	DirectionIncrease = "increase"
	DirectionDecrease = "decrease"
	DirectionNone     = "no_change"
)

// NeurotransmitterEffect is the standardized mean difference between an
// intervention group and a baseline group for one neurotransmitter, with a
// 95% confidence interval and a Welch two-sample p-value.
type NeurotransmitterEffect struct {
	Neurotransmitter     neuromodels.Neurotransmitter     `json:"neurotransmitter"`
	EffectSize           float64                          `json:"effect_size"`
	CILower              float64                          `json:"ci_lower"`
	CIUpper              float64                          `json:"ci_upper"`
	PValue               float64                          `json:"p_value"`
	SampleSize           int                              `json:"sample_size"`
	ClinicalSignificance neuromodels.ClinicalSignificance `json:"clinical_significance"`
}

// Thresholds are the |effect size| cut points between magnitude classes.
type Thresholds struct {
	Small  float64
	Medium float64
	Large  float64
}

// DefaultThresholds returns the conventional Cohen cut points.
func DefaultThresholds() Thresholds {
	return Thresholds{Small: 0.2, Medium: 0.5, Large: 0.8}
}

// Magnitude classifies the effect size with the default thresholds.
func (e *NeurotransmitterEffect) Magnitude() string {
	return e.MagnitudeWith(DefaultThresholds())
}

// MagnitudeWith classifies |effect size| against the given cut points.
func (e *NeurotransmitterEffect) MagnitudeWith(t Thresholds) string {
	abs := math.Abs(e.EffectSize)
	switch {
	case abs >= t.Large:
		return MagnitudeLarge
	case abs >= t.Medium:
		return MagnitudeMedium
	case abs >= t.Small:
		return MagnitudeSmall
	default:
		return MagnitudeNegligible
	}
}

// Direction reports whether the neurotransmitter went up or down. Effects
// inside the ±0.1 dead band count as no change.
func (e *NeurotransmitterEffect) Direction() string {
	switch {
	case e.EffectSize > 0.1:
		return DirectionIncrease
	case e.EffectSize < -0.1:
		return DirectionDecrease
	default:
		return DirectionNone
	}
}

// IsStatisticallySignificant reports p < 0.05.
func (e *NeurotransmitterEffect) IsStatisticallySignificant() bool {
	return e.PValue < 0.05
}

// Precision is the reciprocal of the confidence interval width; wider
// intervals mean less precise estimates. A degenerate zero-width interval
// yields 0 rather than +Inf.
func (e *NeurotransmitterEffect) Precision() float64 {
	width := e.CIUpper - e.CILower
	if width <= 0 {
		return 0
	}
	return 1 / width
}
