package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Env                  string  `mapstructure:"ENV"`
	LogLevel             string  `mapstructure:"LOG_LEVEL"`
	CascadeDecayFactor   float64 `mapstructure:"CASCADE_DECAY_FACTOR"`
	CascadeGain          float64 `mapstructure:"CASCADE_PROPAGATION_GAIN"`
	EffectSmall          float64 `mapstructure:"EFFECT_SMALL_THRESHOLD"`
	EffectMedium         float64 `mapstructure:"EFFECT_MEDIUM_THRESHOLD"`
	EffectLarge          float64 `mapstructure:"EFFECT_LARGE_THRESHOLD"`
	InteractionThreshold float64 `mapstructure:"INTERACTION_SIGNIFICANCE_THRESHOLD"`
	BaseConfidence       float64 `mapstructure:"PREDICTION_BASE_CONFIDENCE"`
	ContextBonus         float64 `mapstructure:"PREDICTION_CONTEXT_BONUS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults: the published simulation constants.
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CASCADE_DECAY_FACTOR", 0.9)
	v.SetDefault("CASCADE_PROPAGATION_GAIN", 0.2)
	v.SetDefault("EFFECT_SMALL_THRESHOLD", 0.2)
	v.SetDefault("EFFECT_MEDIUM_THRESHOLD", 0.5)
	v.SetDefault("EFFECT_LARGE_THRESHOLD", 0.8)
	v.SetDefault("INTERACTION_SIGNIFICANCE_THRESHOLD", 0.2)
	v.SetDefault("PREDICTION_BASE_CONFIDENCE", 0.6)
	v.SetDefault("PREDICTION_CONTEXT_BONUS", 0.2)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("CASCADE_DECAY_FACTOR")
	v.BindEnv("CASCADE_PROPAGATION_GAIN")
	v.BindEnv("EFFECT_SMALL_THRESHOLD")
	v.BindEnv("EFFECT_MEDIUM_THRESHOLD")
	v.BindEnv("EFFECT_LARGE_THRESHOLD")
	v.BindEnv("INTERACTION_SIGNIFICANCE_THRESHOLD")
	v.BindEnv("PREDICTION_BASE_CONFIDENCE")
	v.BindEnv("PREDICTION_CONTEXT_BONUS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true,
	"error": true, "fatal": true, "panic": true, "disabled": true,
}

// Validate checks that the configuration describes runnable dynamics. The
// cascade factors must keep total system level non-increasing, the magnitude
// thresholds must be ordered, and the confidence rule must stay within [0,1].
func (c *Config) Validate() error {
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be a zerolog level, got %q", c.LogLevel)
	}
	if c.CascadeDecayFactor <= 0 || c.CascadeDecayFactor > 1 {
		return fmt.Errorf("CASCADE_DECAY_FACTOR must be in (0,1], got %g", c.CascadeDecayFactor)
	}
	if c.CascadeGain <= 0 || c.CascadeGain > 1 {
		return fmt.Errorf("CASCADE_PROPAGATION_GAIN must be in (0,1], got %g", c.CascadeGain)
	}
	if c.EffectSmall <= 0 {
		return fmt.Errorf("EFFECT_SMALL_THRESHOLD must be positive, got %g", c.EffectSmall)
	}
	if c.EffectSmall >= c.EffectMedium || c.EffectMedium >= c.EffectLarge {
		return fmt.Errorf("effect thresholds must be strictly ascending, got %g/%g/%g",
			c.EffectSmall, c.EffectMedium, c.EffectLarge)
	}
	if c.InteractionThreshold < 0 {
		return fmt.Errorf("INTERACTION_SIGNIFICANCE_THRESHOLD must not be negative, got %g", c.InteractionThreshold)
	}
	if c.BaseConfidence < 0 || c.BaseConfidence > 1 {
		return fmt.Errorf("PREDICTION_BASE_CONFIDENCE must be in [0,1], got %g", c.BaseConfidence)
	}
	if c.ContextBonus < 0 || c.BaseConfidence+c.ContextBonus > 1 {
		return fmt.Errorf("PREDICTION_CONTEXT_BONUS must keep base+bonus within [0,1], got %g+%g",
			c.BaseConfidence, c.ContextBonus)
	}
	return nil
}
