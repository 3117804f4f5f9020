package twin

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/neurotwin/neurotwin/internal/domain/cascade"
	"github.com/neurotwin/neurotwin/internal/domain/effect"
	"github.com/neurotwin/neurotwin/internal/domain/events"
	"github.com/neurotwin/neurotwin/internal/domain/prediction"
	"github.com/neurotwin/neurotwin/internal/platform/telemetry"
	"github.com/neurotwin/neurotwin/pkg/neuromodels"
)

// Event types recorded on a scenario's provenance chain.
const (
	EventScenarioStarted   = "scenario.started"
	EventEffectComputed    = "effect.computed"
	EventCascadeCompleted  = "cascade.completed"
	EventPredictionEmitted = "prediction.emitted"
)

// Pipeline stages reported to telemetry.
const (
	stageEffects     = "effects"
	stageCascade     = "cascade"
	stagePrediction  = "prediction"
	stageInteraction = "interaction"
)

// Service runs simulation scenarios against a subject's digital twin. It
// wires the four computation components together and records a provenance
// chain for every run; it holds no mutable state of its own, so one Service
// serves concurrent scenarios safely.
type Service struct {
	engine    *cascade.Engine
	predictor *prediction.Predictor
	analyzer  *prediction.Analyzer
	telemetry *telemetry.Provider
	logger    zerolog.Logger
}

// NewService creates a scenario service. The telemetry provider may be nil
// to disable stage metrics.
func NewService(engine *cascade.Engine, predictor *prediction.Predictor, analyzer *prediction.Analyzer, tel *telemetry.Provider, logger zerolog.Logger) *Service {
	return &Service{
		engine:    engine,
		predictor: predictor,
		analyzer:  analyzer,
		telemetry: tel,
		logger:    logger.With().Str("component", "twin_service").Logger(),
	}
}

// RunScenario executes one simulation scenario end to end: per-candidate
// effect computation, cascade propagation from the origin perturbation,
// per-candidate response prediction, and interaction analysis against the
// primary neurotransmitter. Predictions come back ranked by predicted
// response, confidence breaking ties. Every step lands on the result's
// provenance chain.
func (s *Service) RunScenario(ctx context.Context, req ScenarioRequest) (*ScenarioResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if s.telemetry != nil {
		s.telemetry.AddActiveScenarios(1)
		defer s.telemetry.AddActiveScenarios(-1)
	}

	s.logger.Debug().
		Str("subject_id", req.SubjectID.String()).
		Str("neurotransmitter", req.Neurotransmitter.String()).
		Str("origin", req.Origin.String()).
		Int("candidates", len(req.Candidates)).
		Msg("starting scenario")

	chain := events.NewChain(uuid.Nil)
	root, err := events.NewEvent(EventScenarioStarted, chain.CorrelationID, map[string]string{
		"subject_id":       req.SubjectID.String(),
		"neurotransmitter": req.Neurotransmitter.String(),
		"origin":           req.Origin.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start provenance chain: %w", err)
	}
	if err := chain.Append(root); err != nil {
		return nil, fmt.Errorf("failed to start provenance chain: %w", err)
	}

	graph := req.Graph
	if graph == nil {
		graph = cascade.DefaultConnectivity()
	}

	// -- Per-candidate effects --

	type resolved struct {
		candidate CandidateTreatment
		effect    *effect.NeurotransmitterEffect
		event     events.CorrelatedEvent
	}

	stageStart := time.Now()
	resolvedCandidates := make([]resolved, 0, len(req.Candidates))
	for _, cand := range req.Candidates {
		eff, err := resolveEffect(cand)
		if err != nil {
			s.recordStage(stageEffects, stageStart, err, nil)
			return nil, err
		}
		ev, err := appendChild(chain, root, EventEffectComputed, map[string]string{
			"treatment":        cand.Name,
			"neurotransmitter": cand.Neurotransmitter.String(),
			"effect_size":      formatFloat(eff.EffectSize),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to record effect event: %w", err)
		}
		resolvedCandidates = append(resolvedCandidates, resolved{candidate: cand, effect: eff, event: ev})
	}
	s.recordStage(stageEffects, stageStart, nil, map[string]string{
		"candidates": strconv.Itoa(len(resolvedCandidates)),
	})

	// -- Cascade propagation --

	stageStart = time.Now()
	trajectory, err := s.engine.Simulate(ctx, graph, req.Origin, req.Neurotransmitter, req.InitialLevel, req.Steps)
	s.recordStage(stageCascade, stageStart, err, map[string]string{
		"origin": req.Origin.String(),
		"steps":  strconv.Itoa(req.Steps),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to simulate cascade: %w", err)
	}
	if _, err := appendChild(chain, root, EventCascadeCompleted, map[string]string{
		"origin": req.Origin.String(),
		"steps":  strconv.Itoa(trajectory.Steps),
	}); err != nil {
		return nil, fmt.Errorf("failed to record cascade event: %w", err)
	}

	state := req.State
	if state == nil {
		state = NewState(req.SubjectID)
	}
	updated := ApplyCascade(state, trajectory)

	// -- Per-candidate predictions --

	stageStart = time.Now()
	predictions := make([]RankedPrediction, 0, len(resolvedCandidates))
	for _, rc := range resolvedCandidates {
		pred, err := s.predictor.Predict(req.SubjectID, rc.candidate.Region, rc.candidate.Neurotransmitter, rc.effect.EffectSize, req.BaselineContext)
		if err != nil {
			s.recordStage(stagePrediction, stageStart, err, nil)
			return nil, fmt.Errorf("failed to predict response for candidate %q: %w", rc.candidate.Name, err)
		}
		if _, err := appendChild(chain, rc.event, EventPredictionEmitted, map[string]string{
			"treatment":          rc.candidate.Name,
			"predicted_response": formatFloat(pred.PredictedResponse),
		}); err != nil {
			return nil, fmt.Errorf("failed to record prediction event: %w", err)
		}
		predictions = append(predictions, RankedPrediction{
			Treatment:  rc.candidate.Name,
			Effect:     rc.effect,
			Prediction: pred,
		})
	}
	s.recordStage(stagePrediction, stageStart, nil, nil)

	// -- Interactions against the primary target --

	primaryEffect := 0.0
	for _, rc := range resolvedCandidates {
		if rc.candidate.Neurotransmitter == req.Neurotransmitter {
			primaryEffect = rc.effect.EffectSize
			break
		}
	}
	secondary := make(map[neuromodels.Neurotransmitter]float64)
	for _, rc := range resolvedCandidates {
		if rc.candidate.Neurotransmitter != req.Neurotransmitter {
			secondary[rc.candidate.Neurotransmitter] = rc.effect.EffectSize
		}
	}

	stageStart = time.Now()
	interactions, err := s.analyzer.Analyze(req.Neurotransmitter, primaryEffect, secondary)
	s.recordStage(stageInteraction, stageStart, err, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze interactions: %w", err)
	}

	// Rank by predicted response, best first; confidence breaks ties.
	sort.SliceStable(predictions, func(i, j int) bool {
		a, b := predictions[i].Prediction, predictions[j].Prediction
		if a.PredictedResponse != b.PredictedResponse {
			return a.PredictedResponse > b.PredictedResponse
		}
		return a.Confidence > b.Confidence
	})

	s.logger.Info().
		Str("subject_id", req.SubjectID.String()).
		Str("neurotransmitter", req.Neurotransmitter.String()).
		Int("predictions", len(predictions)).
		Int("chain_events", chain.Len()).
		Bool("significant_interactions", interactions.HasSignificantInteractions).
		Msg("scenario complete")

	return &ScenarioResult{
		SubjectID:    req.SubjectID,
		Predictions:  predictions,
		Interactions: interactions,
		Trajectory:   trajectory,
		UpdatedState: updated,
		Chain:        chain,
	}, nil
}

func validateRequest(req ScenarioRequest) error {
	if req.SubjectID == uuid.Nil {
		return fmt.Errorf("subject_id is required")
	}
	if !req.Neurotransmitter.Valid() {
		return fmt.Errorf("unsupported neurotransmitter: %s", req.Neurotransmitter)
	}
	for i, cand := range req.Candidates {
		if cand.Name == "" {
			return fmt.Errorf("candidate %d has no name", i)
		}
	}
	return nil
}

// resolveEffect turns a candidate into its standardized effect: raw samples
// are computed fresh and win over a pre-computed effect.
func resolveEffect(cand CandidateTreatment) (*effect.NeurotransmitterEffect, error) {
	if len(cand.Baseline) > 0 || len(cand.Intervention) > 0 {
		eff, err := effect.Compute(cand.Neurotransmitter, cand.Intervention, cand.Baseline, cand.ClinicalSignificance)
		if err != nil {
			return nil, fmt.Errorf("failed to compute effect for candidate %q: %w", cand.Name, err)
		}
		return eff, nil
	}
	if cand.Effect == nil {
		return nil, fmt.Errorf("candidate %q has neither samples nor a pre-computed effect", cand.Name)
	}
	if cand.Effect.Neurotransmitter != cand.Neurotransmitter {
		return nil, fmt.Errorf("candidate %q effect is for %s, not %s",
			cand.Name, cand.Effect.Neurotransmitter, cand.Neurotransmitter)
	}
	return cand.Effect, nil
}

func appendChild(chain *events.EventChain, parent events.CorrelatedEvent, eventType string, metadata map[string]string) (events.CorrelatedEvent, error) {
	e, err := events.ChildEvent(parent, eventType, metadata)
	if err != nil {
		return events.CorrelatedEvent{}, err
	}
	if err := chain.Append(e); err != nil {
		return events.CorrelatedEvent{}, err
	}
	return e, nil
}

func (s *Service) recordStage(stage string, start time.Time, err error, attrs map[string]string) {
	if s.telemetry == nil {
		return
	}
	end := time.Now()
	s.telemetry.RecordStage(stage, start, end, err, attrs)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.telemetry.StageCounter(stage, outcome)
	s.telemetry.ObserveStageDuration(stage, end.Sub(start))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
