package cascade

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/neurotwin/neurotwin/pkg/neuromodels"
)

// ErrUnknownRegion reports a starting region the connectivity graph does not
// contain.
var ErrUnknownRegion = errors.New("cascade: unknown region")

// Params tune the propagation dynamics. DecayFactor is the fraction of a
// region's level that survives one step; PropagationGain bounds how much of a
// neighbor's level transfers per step. Both live in (0,1] — the defaults keep
// total system level strictly decreasing, so feedback loops cannot run away.
type Params struct {
	DecayFactor     float64
	PropagationGain float64
}

// DefaultParams returns the standard dynamics: 10% clearance per step and a
// 0.2 transfer bound.
func DefaultParams() Params {
	return Params{DecayFactor: 0.9, PropagationGain: 0.2}
}

// Result is one simulated cascade: an ordered level trajectory per region,
// each of length Steps, with the inputs echoed for auditability.
type Result struct {
	Origin           neuromodels.BrainRegion               `json:"origin"`
	Neurotransmitter neuromodels.Neurotransmitter          `json:"neurotransmitter"`
	InitialLevel     float64                               `json:"initial_level"`
	Steps            int                                   `json:"steps"`
	Trajectories     map[neuromodels.BrainRegion][]float64 `json:"trajectories"`
}

// FinalLevels returns each region's level at the last simulated step.
func (r *Result) FinalLevels() map[neuromodels.BrainRegion]float64 {
	out := make(map[neuromodels.BrainRegion]float64, len(r.Trajectories))
	for region, levels := range r.Trajectories {
		if len(levels) == 0 {
			continue
		}
		out[region] = levels[len(levels)-1]
	}
	return out
}

// PeakLevel returns the highest level the region reached and the step it
// happened at. Unknown regions report (0, -1).
func (r *Result) PeakLevel(region neuromodels.BrainRegion) (float64, int) {
	levels, ok := r.Trajectories[region]
	if !ok || len(levels) == 0 {
		return 0, -1
	}
	peak, at := levels[0], 0
	for t, v := range levels[1:] {
		if v > peak {
			peak, at = v, t+1
		}
	}
	return peak, at
}

// Engine propagates a perturbation across a connectivity graph. Given
// identical graph, inputs and params, trajectories are bit-for-bit
// reproducible: region order is fixed up front and every step reads only the
// previous step's completed snapshot.
type Engine struct {
	params Params
	logger zerolog.Logger
}

// NewEngine creates an engine with the default dynamics.
func NewEngine(logger zerolog.Logger) *Engine {
	return NewEngineWithParams(DefaultParams(), logger)
}

// NewEngineWithParams creates an engine with custom dynamics, typically
// sourced from configuration.
func NewEngineWithParams(params Params, logger zerolog.Logger) *Engine {
	return &Engine{
		params: params,
		logger: logger.With().Str("component", "cascade_engine").Logger(),
	}
}

// Params returns the dynamics the engine was built with.
func (e *Engine) Params() Params {
	return e.params
}

// Simulate runs a cascade for the given number of steps. Step 0 is the
// initial condition: the origin at the (clamped to [0,1]) initial level and
// every other region at zero. Each later step decays every region's level and
// adds the gain-scaled inbound contributions from neighbors that were active
// at the previous step, clamping to [0,1].
func (e *Engine) Simulate(ctx context.Context, graph Graph, origin neuromodels.BrainRegion, nt neuromodels.Neurotransmitter, initialLevel float64, steps int) (*Result, error) {
	if !nt.Valid() {
		return nil, fmt.Errorf("unsupported neurotransmitter: %s", nt)
	}
	if steps < 1 {
		return nil, fmt.Errorf("steps must be at least 1, got %d", steps)
	}
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid connectivity graph: %w", err)
	}
	if !graph.Contains(origin) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRegion, origin)
	}

	level := clamp01(initialLevel)

	regions := graph.Regions()
	index := make(map[neuromodels.BrainRegion]int, len(regions))
	for i, r := range regions {
		index[r] = i
	}

	// Inbound edges per region, in fixed sorted order so the floating-point
	// summation order never varies between runs.
	type inbound struct {
		src    int
		weight float64
	}
	inputs := make([][]inbound, len(regions))
	for i, r := range regions {
		row := graph[r]
		if len(row) == 0 {
			continue
		}
		sources := make([]neuromodels.BrainRegion, 0, len(row))
		for n := range row {
			sources = append(sources, n)
		}
		sort.Slice(sources, func(a, b int) bool { return sources[a] < sources[b] })
		for _, n := range sources {
			inputs[i] = append(inputs[i], inbound{src: index[n], weight: row[n]})
		}
	}

	e.logger.Debug().
		Str("origin", origin.String()).
		Str("neurotransmitter", nt.String()).
		Float64("initial_level", level).
		Int("steps", steps).
		Int("regions", len(regions)).
		Msg("starting cascade simulation")

	trajectories := make(map[neuromodels.BrainRegion][]float64, len(regions))
	for _, r := range regions {
		trajectories[r] = make([]float64, 0, steps)
	}

	prev := make([]float64, len(regions))
	next := make([]float64, len(regions))
	prev[index[origin]] = level
	for i, r := range regions {
		trajectories[r] = append(trajectories[r], prev[i])
	}

	for t := 1; t < steps; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range regions {
			v := prev[i] * e.params.DecayFactor
			for _, in := range inputs[i] {
				if prev[in.src] > 0 {
					v += prev[in.src] * in.weight * e.params.PropagationGain
				}
			}
			next[i] = clamp01(v)
		}
		for i, r := range regions {
			trajectories[r] = append(trajectories[r], next[i])
		}
		prev, next = next, prev
	}

	e.logger.Debug().
		Str("origin", origin.String()).
		Int("steps", steps).
		Msg("cascade simulation complete")

	return &Result{
		Origin:           origin,
		Neurotransmitter: nt,
		InitialLevel:     level,
		Steps:            steps,
		Trajectories:     trajectories,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
