package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/neurotwin/neurotwin/internal/config"
	"github.com/neurotwin/neurotwin/internal/domain/cascade"
	"github.com/neurotwin/neurotwin/internal/domain/effect"
	"github.com/neurotwin/neurotwin/internal/domain/prediction"
	"github.com/neurotwin/neurotwin/internal/domain/twin"
	"github.com/neurotwin/neurotwin/internal/platform/telemetry"
	"github.com/neurotwin/neurotwin/pkg/neuromodels"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "twin-sim",
		Short: "Neurotransmitter digital-twin simulation core",
	}

	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(cascadeCmd())
	rootCmd.AddCommand(effectCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a full treatment scenario from a JSON request file",
		RunE: func(cmd *cobra.Command, args []string) error {
			requestFile, _ := cmd.Flags().GetString("request")
			if requestFile == "" {
				return fmt.Errorf("--request is required")
			}
			return runSimulate(requestFile)
		},
	}
	cmd.Flags().String("request", "", "Scenario request JSON file")
	return cmd
}

func cascadeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cascade",
		Short: "Propagate a perturbation through the default connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			origin, _ := cmd.Flags().GetString("origin")
			nt, _ := cmd.Flags().GetString("neurotransmitter")
			level, _ := cmd.Flags().GetFloat64("level")
			steps, _ := cmd.Flags().GetInt("steps")
			if origin == "" {
				return fmt.Errorf("--origin is required")
			}
			if nt == "" {
				return fmt.Errorf("--neurotransmitter is required")
			}
			return runCascade(origin, nt, level, steps)
		},
	}
	cmd.Flags().String("origin", "", "Starting brain region")
	cmd.Flags().String("neurotransmitter", "", "Neurotransmitter being perturbed")
	cmd.Flags().Float64("level", 0.8, "Initial perturbation level in [0,1]")
	cmd.Flags().Int("steps", 10, "Number of time steps")
	return cmd
}

func effectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "effect",
		Short: "Compute a standardized effect from two sample groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			nt, _ := cmd.Flags().GetString("neurotransmitter")
			baseline, _ := cmd.Flags().GetString("baseline")
			intervention, _ := cmd.Flags().GetString("intervention")
			significance, _ := cmd.Flags().GetString("significance")
			if nt == "" {
				return fmt.Errorf("--neurotransmitter is required")
			}
			if baseline == "" || intervention == "" {
				return fmt.Errorf("--baseline and --intervention are required")
			}
			return runEffect(nt, baseline, intervention, significance)
		},
	}
	cmd.Flags().String("neurotransmitter", "", "Neurotransmitter the samples measure")
	cmd.Flags().String("baseline", "", "Comma-separated baseline samples")
	cmd.Flags().String("intervention", "", "Comma-separated intervention samples")
	cmd.Flags().String("significance", "none", "Clinician-assessed significance grade")
	return cmd
}

func runSimulate(requestFile string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(requestFile)
	if err != nil {
		return fmt.Errorf("read request file: %w", err)
	}
	var req twin.ScenarioRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("parse request file: %w", err)
	}
	if req.SubjectID == uuid.Nil {
		req.SubjectID = uuid.New()
		logger.Warn().Str("subject_id", req.SubjectID.String()).Msg("request had no subject_id, generated one")
	}

	tel := telemetry.NewProvider(telemetry.Config{
		ServiceName: "twin-sim",
		Environment: cfg.Env,
	})
	svc := buildService(cfg, tel, logger)

	ctx := context.Background()
	result, err := svc.RunScenario(ctx, req)
	if err != nil {
		return fmt.Errorf("run scenario: %w", err)
	}

	if err := printJSON(result); err != nil {
		return err
	}
	return tel.Shutdown(ctx)
}

func runCascade(originArg, ntArg string, level float64, steps int) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	origin, err := neuromodels.ParseBrainRegion(originArg)
	if err != nil {
		return err
	}
	nt, err := neuromodels.ParseNeurotransmitter(ntArg)
	if err != nil {
		return err
	}

	engine := cascade.NewEngineWithParams(cascade.Params{
		DecayFactor:     cfg.CascadeDecayFactor,
		PropagationGain: cfg.CascadeGain,
	}, logger)

	result, err := engine.Simulate(context.Background(), cascade.DefaultConnectivity(), origin, nt, level, steps)
	if err != nil {
		return fmt.Errorf("simulate cascade: %w", err)
	}
	return printJSON(result)
}

func runEffect(ntArg, baselineArg, interventionArg, significanceArg string) error {
	cfg, _, err := bootstrap()
	if err != nil {
		return err
	}

	nt, err := neuromodels.ParseNeurotransmitter(ntArg)
	if err != nil {
		return err
	}
	significance, err := neuromodels.ParseClinicalSignificance(significanceArg)
	if err != nil {
		return err
	}
	baseline, err := parseSamples(baselineArg)
	if err != nil {
		return fmt.Errorf("baseline: %w", err)
	}
	intervention, err := parseSamples(interventionArg)
	if err != nil {
		return fmt.Errorf("intervention: %w", err)
	}

	eff, err := effect.Compute(nt, intervention, baseline, significance)
	if err != nil {
		return fmt.Errorf("compute effect: %w", err)
	}

	thresholds := effect.Thresholds{
		Small:  cfg.EffectSmall,
		Medium: cfg.EffectMedium,
		Large:  cfg.EffectLarge,
	}
	return printJSON(struct {
		*effect.NeurotransmitterEffect
		Magnitude   string `json:"magnitude"`
		Direction   string `json:"direction"`
		Significant bool   `json:"statistically_significant"`
	}{
		NeurotransmitterEffect: eff,
		Magnitude:              eff.MagnitudeWith(thresholds),
		Direction:              eff.Direction(),
		Significant:            eff.IsStatisticallySignificant(),
	})
}

// bootstrap loads configuration and builds the process logger. Results go to
// stdout, so logs go to stderr to keep the output parseable.
func bootstrap() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("invalid config: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
	}
	return cfg, logger, nil
}

func buildService(cfg *config.Config, tel *telemetry.Provider, logger zerolog.Logger) *twin.Service {
	engine := cascade.NewEngineWithParams(cascade.Params{
		DecayFactor:     cfg.CascadeDecayFactor,
		PropagationGain: cfg.CascadeGain,
	}, logger)
	predictor := prediction.NewPredictorWithScorer(prediction.HashScorer{}, prediction.PredictorParams{
		BaseConfidence: cfg.BaseConfidence,
		ContextBonus:   cfg.ContextBonus,
	}, logger)
	analyzer := prediction.NewAnalyzerWithMatrix(prediction.DefaultInteractions(), cfg.InteractionThreshold, logger)
	return twin.NewService(engine, predictor, analyzer, tel, logger)
}

// parseSamples splits a comma-separated list of float samples.
func parseSamples(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sample %q", p)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no samples supplied")
	}
	return out, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
