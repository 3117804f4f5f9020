// Package twin maintains the digital-twin snapshot of a subject's
// neurochemistry and orchestrates simulation scenarios over it.
package twin

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/neurotwin/neurotwin/internal/domain/cascade"
	"github.com/neurotwin/neurotwin/internal/domain/effect"
	"github.com/neurotwin/neurotwin/internal/domain/events"
	"github.com/neurotwin/neurotwin/internal/domain/prediction"
	"github.com/neurotwin/neurotwin/pkg/neuromodels"
)

// Confidence bookkeeping for simulated values: a simulated update is worth
// less than an observation, and a region the twin never saw before starts at
// the floor.
const (
	simulatedConfidenceDecay = 0.9
	simulatedConfidenceFloor = 0.5
)

// Metric is one tracked quantity with the confidence of its current value.
type Metric struct {
	Value      float64 `json:"value"`
	Confidence float64 `json:"confidence"`
}

// DigitalTwinState is a point-in-time snapshot of a subject's modeled
// neurochemistry. Snapshots are immutable: updates produce a new snapshot
// and leave the input untouched.
type DigitalTwinState struct {
	SubjectID              uuid.UUID                               `json:"subject_id"`
	Timestamp              time.Time                               `json:"timestamp"`
	RegionActivations      map[neuromodels.BrainRegion]Metric      `json:"region_activations"`
	NeurotransmitterLevels map[neuromodels.Neurotransmitter]Metric `json:"neurotransmitter_levels"`
}

// NewState creates an empty snapshot for a subject, stamped now.
func NewState(subjectID uuid.UUID) *DigitalTwinState {
	return &DigitalTwinState{
		SubjectID:              subjectID,
		Timestamp:              time.Now().UTC(),
		RegionActivations:      make(map[neuromodels.BrainRegion]Metric),
		NeurotransmitterLevels: make(map[neuromodels.Neurotransmitter]Metric),
	}
}

// Clone returns a deep copy of the snapshot.
func (s *DigitalTwinState) Clone() *DigitalTwinState {
	out := &DigitalTwinState{
		SubjectID:              s.SubjectID,
		Timestamp:              s.Timestamp,
		RegionActivations:      make(map[neuromodels.BrainRegion]Metric, len(s.RegionActivations)),
		NeurotransmitterLevels: make(map[neuromodels.Neurotransmitter]Metric, len(s.NeurotransmitterLevels)),
	}
	for r, m := range s.RegionActivations {
		out.RegionActivations[r] = m
	}
	for n, m := range s.NeurotransmitterLevels {
		out.NeurotransmitterLevels[n] = m
	}
	return out
}

// ApplyCascade folds a simulated cascade into a snapshot and returns the
// updated copy. Region activations take the cascade's final-step levels;
// confidence decays for regions the twin already tracked and starts at the
// floor for new ones. The simulated neurotransmitter's level becomes the mean
// final level across all simulated regions. A nil state starts from an empty
// snapshot.
func ApplyCascade(state *DigitalTwinState, result *cascade.Result) *DigitalTwinState {
	var out *DigitalTwinState
	if state == nil {
		out = NewState(uuid.Nil)
	} else {
		out = state.Clone()
	}
	out.Timestamp = time.Now().UTC()

	finals := result.FinalLevels()

	// Fixed region order keeps the mean bit-for-bit reproducible.
	regions := make([]neuromodels.BrainRegion, 0, len(finals))
	for r := range finals {
		regions = append(regions, r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })

	sum := 0.0
	for _, r := range regions {
		level := finals[r]
		sum += level

		confidence := simulatedConfidenceFloor
		if prev, ok := out.RegionActivations[r]; ok {
			confidence = prev.Confidence * simulatedConfidenceDecay
		}
		out.RegionActivations[r] = Metric{Value: level, Confidence: confidence}
	}

	if len(regions) > 0 {
		confidence := simulatedConfidenceFloor
		if prev, ok := out.NeurotransmitterLevels[result.Neurotransmitter]; ok {
			confidence = prev.Confidence * simulatedConfidenceDecay
		}
		out.NeurotransmitterLevels[result.Neurotransmitter] = Metric{
			Value:      sum / float64(len(regions)),
			Confidence: confidence,
		}
	}
	return out
}

// CandidateTreatment is one intervention to evaluate in a scenario. Either
// raw sample groups or a pre-computed Effect must be supplied; raw samples
// win when both are present.
type CandidateTreatment struct {
	Name                 string                           `json:"name"`
	Neurotransmitter     neuromodels.Neurotransmitter     `json:"neurotransmitter"`
	Region               neuromodels.BrainRegion          `json:"region"`
	Baseline             []float64                        `json:"baseline,omitempty"`
	Intervention         []float64                        `json:"intervention,omitempty"`
	Effect               *effect.NeurotransmitterEffect   `json:"effect,omitempty"`
	ClinicalSignificance neuromodels.ClinicalSignificance `json:"clinical_significance,omitempty"`
}

// ScenarioRequest describes one simulation scenario: an origin perturbation
// to cascade through the connectivity graph plus candidate treatments to
// rank against the primary neurotransmitter target.
type ScenarioRequest struct {
	SubjectID        uuid.UUID                    `json:"subject_id"`
	State            *DigitalTwinState            `json:"state,omitempty"`
	Neurotransmitter neuromodels.Neurotransmitter `json:"neurotransmitter"`
	Origin           neuromodels.BrainRegion      `json:"origin"`
	InitialLevel     float64                      `json:"initial_level"`
	Steps            int                          `json:"steps"`
	Graph            cascade.Graph                `json:"graph,omitempty"`
	Candidates       []CandidateTreatment         `json:"candidates"`
	BaselineContext  map[string]float64           `json:"baseline_context,omitempty"`
}

// RankedPrediction pairs a candidate treatment with its predicted response
// and the effect it was derived from.
type RankedPrediction struct {
	Treatment  string                         `json:"treatment"`
	Effect     *effect.NeurotransmitterEffect `json:"effect"`
	Prediction *prediction.Prediction         `json:"prediction"`
}

// ScenarioResult is everything one scenario run produced: ranked candidate
// predictions, the interaction report against the primary target, the
// cascade trajectory, the updated twin snapshot, and the provenance chain
// recording how each piece came to be.
type ScenarioResult struct {
	SubjectID    uuid.UUID                     `json:"subject_id"`
	Predictions  []RankedPrediction            `json:"predictions"`
	Interactions *prediction.InteractionReport `json:"interactions"`
	Trajectory   *cascade.Result               `json:"trajectory"`
	UpdatedState *DigitalTwinState             `json:"updated_state"`
	Chain        *events.EventChain            `json:"chain"`
}
