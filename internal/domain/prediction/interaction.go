package prediction

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/neurotwin/neurotwin/pkg/neuromodels"
)

// InteractionMatrix holds pairwise interaction strengths in [-1,1].
// Matrix[p][s] is how strongly an effect on s carries over onto p: positive
// amplifies, negative opposes, absent means no known interaction. The table
// is domain-curated, not learned, and read-only after construction.
type InteractionMatrix map[neuromodels.Neurotransmitter]map[neuromodels.Neurotransmitter]float64

// Strength returns the influence of secondary on primary, 0 for absent pairs.
func (m InteractionMatrix) Strength(primary, secondary neuromodels.Neurotransmitter) float64 {
	return m[primary][secondary]
}

// Validate checks that every strength is in [-1,1].
func (m InteractionMatrix) Validate() error {
	for p, row := range m {
		for s, v := range row {
			if v < -1 || v > 1 {
				return fmt.Errorf("interaction %s <- %s out of range: %g", p, s, v)
			}
		}
	}
	return nil
}

// DefaultInteractions returns the curated interaction table: monoamine
// antagonisms and synergies plus the GABA/glutamate opposition. Values are
// plausible placeholders, not measurements. The table is rebuilt on every
// call so callers can mutate their copy freely.
func DefaultInteractions() InteractionMatrix {
	return InteractionMatrix{
		neuromodels.Serotonin: {
			neuromodels.Dopamine:       -0.30,
			neuromodels.Norepinephrine: 0.20,
			neuromodels.GABA:           0.15,
			neuromodels.Oxytocin:       0.20,
		},
		neuromodels.Dopamine: {
			neuromodels.Serotonin:      -0.30,
			neuromodels.Norepinephrine: 0.40,
			neuromodels.Glutamate:      0.30,
			neuromodels.GABA:           -0.20,
			neuromodels.Acetylcholine:  -0.25,
			neuromodels.Endorphins:     0.30,
		},
		neuromodels.Norepinephrine: {
			neuromodels.Dopamine:  0.40,
			neuromodels.Serotonin: 0.20,
			neuromodels.GABA:      -0.30,
		},
		neuromodels.GABA: {
			neuromodels.Glutamate:  -0.70,
			neuromodels.Serotonin:  0.15,
			neuromodels.Endorphins: 0.20,
		},
		neuromodels.Glutamate: {
			neuromodels.GABA:          -0.70,
			neuromodels.Dopamine:      0.30,
			neuromodels.Acetylcholine: 0.20,
		},
		neuromodels.Acetylcholine: {
			neuromodels.Dopamine:       -0.25,
			neuromodels.Glutamate:      0.20,
			neuromodels.Norepinephrine: 0.15,
		},
		neuromodels.Endorphins: {
			neuromodels.Dopamine: 0.30,
			neuromodels.Oxytocin: 0.35,
			neuromodels.GABA:     0.20,
		},
		neuromodels.Oxytocin: {
			neuromodels.Endorphins: 0.35,
			neuromodels.Serotonin:  0.20,
			neuromodels.Dopamine:   0.15,
		},
	}
}

// Interaction is one secondary neurotransmitter's influence on the primary
// treatment target, with a clinician-facing description.
type Interaction struct {
	Primary         neuromodels.Neurotransmitter `json:"primary"`
	Secondary       neuromodels.Neurotransmitter `json:"secondary"`
	Strength        float64                      `json:"strength"`
	SecondaryEffect float64                      `json:"secondary_effect"`
	EffectOnPrimary float64                      `json:"effect_on_primary"`
	IsSynergistic   bool                         `json:"is_synergistic"`
	NetInteraction  float64                      `json:"net_interaction"`
	Description     string                       `json:"description"`
}

// InteractionReport aggregates every pairwise interaction against one primary
// treatment target. Interactions are ordered by secondary code.
type InteractionReport struct {
	Primary                    neuromodels.Neurotransmitter `json:"primary"`
	PrimaryEffect              float64                      `json:"primary_effect"`
	Interactions               []Interaction                `json:"interactions"`
	NetInteractionScore        float64                      `json:"net_interaction_score"`
	HasSignificantInteractions bool                         `json:"has_significant_interactions"`
}

// Analyzer evaluates how concurrent effects on other neurotransmitter systems
// interact with a primary treatment target.
type Analyzer struct {
	matrix    InteractionMatrix
	threshold float64
	logger    zerolog.Logger
}

// NewAnalyzer creates an analyzer over the curated default table with the
// standard 0.2 significance threshold.
func NewAnalyzer(logger zerolog.Logger) *Analyzer {
	return NewAnalyzerWithMatrix(DefaultInteractions(), 0.2, logger)
}

// NewAnalyzerWithMatrix creates an analyzer over a custom table. Strengths
// are expected in [-1,1]; see InteractionMatrix.Validate. A nil matrix falls
// back to the default table.
func NewAnalyzerWithMatrix(matrix InteractionMatrix, significanceThreshold float64, logger zerolog.Logger) *Analyzer {
	if matrix == nil {
		matrix = DefaultInteractions()
	}
	return &Analyzer{
		matrix:    matrix,
		threshold: significanceThreshold,
		logger:    logger.With().Str("component", "interaction_analyzer").Logger(),
	}
}

// Analyze scores each secondary effect's influence on the primary target.
// A secondary effect counts as synergistic when its carried-over effect
// points the same way as the primary effect; antagonistic contributions enter
// the net score negated. Pairs without a known interaction contribute exactly
// zero regardless of their own effect size.
func (a *Analyzer) Analyze(primary neuromodels.Neurotransmitter, primaryEffect float64, secondaryEffects map[neuromodels.Neurotransmitter]float64) (*InteractionReport, error) {
	if !primary.Valid() {
		return nil, fmt.Errorf("unsupported neurotransmitter: %s", primary)
	}

	secondaries := make([]neuromodels.Neurotransmitter, 0, len(secondaryEffects))
	for s := range secondaryEffects {
		secondaries = append(secondaries, s)
	}
	sort.Slice(secondaries, func(i, j int) bool { return secondaries[i] < secondaries[j] })

	report := &InteractionReport{
		Primary:       primary,
		PrimaryEffect: primaryEffect,
	}
	for _, s := range secondaries {
		strength := a.matrix.Strength(primary, s)
		effectOnPrimary := secondaryEffects[s] * strength
		synergistic := sign(primaryEffect) == sign(effectOnPrimary)

		net := effectOnPrimary
		if !synergistic {
			net = -effectOnPrimary
		}

		report.Interactions = append(report.Interactions, Interaction{
			Primary:         primary,
			Secondary:       s,
			Strength:        strength,
			SecondaryEffect: secondaryEffects[s],
			EffectOnPrimary: effectOnPrimary,
			IsSynergistic:   synergistic,
			NetInteraction:  net,
			Description:     describeInteraction(primary, s, strength),
		})
		report.NetInteractionScore += net
	}
	report.HasSignificantInteractions = math.Abs(report.NetInteractionScore) > a.threshold

	a.logger.Debug().
		Str("primary", primary.String()).
		Int("pairs", len(report.Interactions)).
		Float64("net_score", report.NetInteractionScore).
		Bool("significant", report.HasSignificantInteractions).
		Msg("interaction analysis complete")

	return report, nil
}

// describeInteraction phrases one pair for clinicians.
func describeInteraction(primary, secondary neuromodels.Neurotransmitter, strength float64) string {
	switch {
	case strength > 0:
		return fmt.Sprintf("%s enhances the effects of %s", secondary, primary)
	case strength < 0:
		return fmt.Sprintf("%s reduces the effects of %s", secondary, primary)
	default:
		return fmt.Sprintf("no known interaction between %s and %s", secondary, primary)
	}
}

// sign returns -1, 0 or 1. Zero is its own sign: a zero effect is neither
// aligned nor opposed.
func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
