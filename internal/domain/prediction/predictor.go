package prediction

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/neurotwin/neurotwin/pkg/neuromodels"
)

// PredictorParams tune the reported confidence. BaseConfidence applies to
// every prediction; ContextBonus is added when baseline covariates were
// supplied. Richer input raises reported confidence but this component alone
// never exceeds BaseConfidence+ContextBonus.
type PredictorParams struct {
	BaseConfidence float64
	ContextBonus   float64
}

// DefaultPredictorParams returns the standard confidence rule: 0.6 base,
// +0.2 with baseline context.
func DefaultPredictorParams() PredictorParams {
	return PredictorParams{BaseConfidence: 0.6, ContextBonus: 0.2}
}

// Prediction is one treatment-response estimate with its audit trail: the
// inputs echoed, the normalized feature importances, and the coarse
// confidence of the estimate.
type Prediction struct {
	SubjectID         uuid.UUID                    `json:"subject_id"`
	Region            neuromodels.BrainRegion      `json:"region"`
	Neurotransmitter  neuromodels.Neurotransmitter `json:"neurotransmitter"`
	PredictedResponse float64                      `json:"predicted_response"`
	Confidence        float64                      `json:"confidence"`
	TimeframeDays     int                          `json:"timeframe_days"`
	FeatureImportance map[string]float64           `json:"feature_importance"`
}

// Predictor estimates a subject's response to shifting one neurotransmitter
// in one region. Predict is a pure function of its inputs: identical calls
// return identical predictions, which is what makes the estimates auditable.
type Predictor struct {
	encoder *Encoder
	scorer  Scorer
	params  PredictorParams
	logger  zerolog.Logger
}

// NewPredictor creates a predictor with the default hash scorer and
// confidence rule.
func NewPredictor(logger zerolog.Logger) *Predictor {
	return NewPredictorWithScorer(HashScorer{}, DefaultPredictorParams(), logger)
}

// NewPredictorWithScorer creates a predictor around a custom scoring
// capability, typically a trained-model client. A nil scorer falls back to
// the hash scorer.
func NewPredictorWithScorer(scorer Scorer, params PredictorParams, logger zerolog.Logger) *Predictor {
	if scorer == nil {
		scorer = HashScorer{}
	}
	return &Predictor{
		encoder: NewEncoder(),
		scorer:  scorer,
		params:  params,
		logger:  logger.With().Str("component", "response_predictor").Logger(),
	}
}

// Predict estimates the response to a treatment that produced the given
// standardized effect on one neurotransmitter in one region. baselineContext
// optionally carries pre-treatment covariates by name (typically baseline
// neurotransmitter levels); it may be nil.
func (p *Predictor) Predict(subjectID uuid.UUID, region neuromodels.BrainRegion, nt neuromodels.Neurotransmitter, treatmentEffect float64, baselineContext map[string]float64) (*Prediction, error) {
	if subjectID == uuid.Nil {
		return nil, fmt.Errorf("subject_id is required")
	}

	// Stable categorical encodings; unknown codes hash deterministically.
	regionEnc := p.encoder.EncodeRegion(region)
	ntEnc := p.encoder.EncodeNeurotransmitter(nt)

	// Reproducible base score standing in for a trained model's output.
	base := p.scorer.BaseScore(subjectID, regionEnc, ntEnc)

	// Effect modifier: positive effects push the response up, negative ones
	// down, bounded away from both 0 and 1.
	modifier := clamp(0.5+treatmentEffect/2, 0.1, 0.9)
	response := math.Round(base*modifier*1000) / 1000

	confidence := p.params.BaseConfidence
	if len(baselineContext) > 0 {
		confidence += p.params.ContextBonus
	}

	pred := &Prediction{
		SubjectID:         subjectID,
		Region:            region,
		Neurotransmitter:  nt,
		PredictedResponse: response,
		Confidence:        confidence,
		TimeframeDays:     timeframeDays(treatmentEffect),
		FeatureImportance: featureImportance(nt, baselineContext),
	}

	p.logger.Debug().
		Str("subject_id", subjectID.String()).
		Str("region", region.String()).
		Str("neurotransmitter", nt.String()).
		Float64("predicted_response", pred.PredictedResponse).
		Int("timeframe_days", pred.TimeframeDays).
		Msg("treatment response predicted")

	return pred, nil
}

// featureImportance assigns proportional weights to the model inputs,
// normalized to sum 1. The baseline covariate matching the target
// neurotransmitter is double-weighted: its interaction with the treatment
// dominates the other covariates.
func featureImportance(nt neuromodels.Neurotransmitter, baselineContext map[string]float64) map[string]float64 {
	raw := map[string]float64{
		"brain_region":     1,
		"neurotransmitter": 1,
		"treatment_effect": 1,
	}
	for name := range baselineContext {
		weight := 1.0
		if name == string(nt) {
			weight = 2.0
		}
		raw["baseline_"+name] = weight
	}

	total := 0.0
	for _, w := range raw {
		total += w
	}
	out := make(map[string]float64, len(raw))
	for k, w := range raw {
		out[k] = w / total
	}
	return out
}

// timeframeDays estimates when the response should manifest. Strong effects
// are expected sooner, floored at 3 days.
func timeframeDays(effect float64) int {
	days := int(math.Round(14 * (1 - 0.5*math.Abs(effect))))
	if days < 3 {
		return 3
	}
	return days
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
