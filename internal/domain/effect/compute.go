package effect

import (
	"fmt"
	"math"

	"github.com/neurotwin/neurotwin/internal/platform/stats"
	"github.com/neurotwin/neurotwin/pkg/neuromodels"
)

// ci95Z is the two-sided 95% normal critical value used for the effect size
// confidence interval.
const ci95Z = 1.96

// Compute derives the standardized effect of an intervention on one
// neurotransmitter from two raw sample groups.
//
// The effect size is Cohen's d with the pooled standard deviation. When the
// pooled standard deviation is zero the effect size is defined as 0: no
// detectable spread means no standardized effect, not a failure. The p-value
// comes from Welch's unequal-variance t-test on the raw samples, and the 95%
// confidence interval from the large-sample standard error of d.
//
// An empty significance defaults to neuromodels.SignificanceNone.
func Compute(nt neuromodels.Neurotransmitter, intervention, baseline []float64, significance neuromodels.ClinicalSignificance) (*NeurotransmitterEffect, error) {
	if significance == "" {
		significance = neuromodels.SignificanceNone
	}
	if !nt.Valid() {
		return nil, fmt.Errorf("unsupported neurotransmitter: %s", nt)
	}
	if !significance.Valid() {
		return nil, fmt.Errorf("unsupported clinical significance: %s", significance)
	}
	if len(intervention) < 2 || len(baseline) < 2 {
		return nil, fmt.Errorf("%w: got %d intervention and %d baseline",
			ErrInsufficientData, len(intervention), len(baseline))
	}

	descIntervention := stats.Describe(intervention)
	descBaseline := stats.Describe(baseline)

	n1 := len(intervention)
	n2 := len(baseline)

	pooled := stats.PooledStdDev(descIntervention.StdDev, n1, descBaseline.StdDev, n2)

	d := 0.0
	if pooled > 0 {
		d = (descIntervention.Mean - descBaseline.Mean) / pooled
	}

	ttest, err := stats.WelchTTest(intervention, baseline)
	if err != nil {
		return nil, fmt.Errorf("welch t-test: %w", err)
	}

	total := float64(n1 + n2)
	se := math.Sqrt(total/float64(n1*n2) + d*d/(2*total))

	return &NeurotransmitterEffect{
		Neurotransmitter:     nt,
		EffectSize:           d,
		CILower:              d - ci95Z*se,
		CIUpper:              d + ci95Z*se,
		PValue:               ttest.P,
		SampleSize:           n1 + n2,
		ClinicalSignificance: significance,
	}, nil
}
