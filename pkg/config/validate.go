package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
)

// ErrInvalidConfig marks any configuration that the engine must refuse to
// run a negotiation under. A deal is never created against a config that
// fails Validate.
var ErrInvalidConfig = errors.New("invalid negotiation config")

// Validate checks a negotiation config for semantic soundness. It requires
// at least one positively weighted parameter, weights within 0-100,
// thresholds within [0,1], and the per-utility-type fields each scoring
// function needs.
func Validate(cfg *contracts.NegotiationConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if len(cfg.Parameters) == 0 {
		return fmt.Errorf("%w: no parameters", ErrInvalidConfig)
	}

	for _, t := range []struct {
		name  string
		value float64
	}{
		{"accept", cfg.AcceptThreshold},
		{"escalate", cfg.EscalateThreshold},
		{"walkaway", cfg.WalkawayThreshold},
	} {
		if t.value < 0 || t.value > 1 || math.IsNaN(t.value) {
			return fmt.Errorf("%w: %s threshold %v outside [0,1]", ErrInvalidConfig, t.name, t.value)
		}
	}
	if cfg.AcceptThreshold < cfg.EscalateThreshold || cfg.EscalateThreshold < cfg.WalkawayThreshold {
		return fmt.Errorf("%w: thresholds must satisfy accept >= escalate >= walkaway", ErrInvalidConfig)
	}

	if cfg.MaxRounds < 1 {
		return fmt.Errorf("%w: max_rounds must be at least 1", ErrInvalidConfig)
	}
	if cfg.HardMaxRounds != 0 && cfg.HardMaxRounds < cfg.MaxRounds {
		return fmt.Errorf("%w: hard_max_rounds %d below max_rounds %d",
			ErrInvalidConfig, cfg.HardMaxRounds, cfg.MaxRounds)
	}

	seen := make(map[string]bool, len(cfg.Parameters))
	var totalWeight float64
	for i := range cfg.Parameters {
		p := &cfg.Parameters[i]
		if p.ID == "" {
			return fmt.Errorf("%w: parameter %d has empty id", ErrInvalidConfig, i)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate parameter id %q", ErrInvalidConfig, p.ID)
		}
		seen[p.ID] = true

		if p.Weight < 0 || p.Weight > 100 || math.IsNaN(p.Weight) {
			return fmt.Errorf("%w: parameter %s weight %v outside [0,100]", ErrInvalidConfig, p.ID, p.Weight)
		}
		totalWeight += p.Weight

		if err := validateParameter(p); err != nil {
			return err
		}
	}
	if totalWeight <= 0 {
		return fmt.Errorf("%w: no positively weighted parameter", ErrInvalidConfig)
	}
	return nil
}

func validateParameter(p *contracts.ParameterConfig) error {
	switch p.UtilityType {
	case contracts.UtilityLinear, contracts.UtilityPercentage:
		switch p.Direction {
		case contracts.DirectionLowerBetter:
			if p.Max == nil || *p.Max <= p.Target {
				return fmt.Errorf("%w: parameter %s needs max above target", ErrInvalidConfig, p.ID)
			}
		case contracts.DirectionHigherBetter:
			if p.Min == nil || *p.Min >= p.Target {
				return fmt.Errorf("%w: parameter %s needs min below target", ErrInvalidConfig, p.ID)
			}
		case contracts.DirectionMatchTarget:
			// At least one bound must sit away from the target, or the
			// decay has zero width and any miss scores 0.
			hasLow := p.Min != nil && *p.Min < p.Target
			hasHigh := p.Max != nil && *p.Max > p.Target
			if !hasLow && !hasHigh {
				return fmt.Errorf("%w: parameter %s needs min below or max above target", ErrInvalidConfig, p.ID)
			}
		default:
			return fmt.Errorf("%w: parameter %s direction %q unsupported for %s utility",
				ErrInvalidConfig, p.ID, p.Direction, p.UtilityType)
		}
	case contracts.UtilityDate:
		if p.Direction != contracts.DirectionCloserBetter {
			return fmt.Errorf("%w: parameter %s date utility requires closer_better", ErrInvalidConfig, p.ID)
		}
		if p.TargetDate == nil {
			return fmt.Errorf("%w: parameter %s date utility requires target_date", ErrInvalidConfig, p.ID)
		}
	case contracts.UtilityStepped:
		if len(p.Options) == 0 || len(p.OptionUtilities) == 0 {
			return fmt.Errorf("%w: parameter %s stepped utility requires options and option_utilities",
				ErrInvalidConfig, p.ID)
		}
		for _, opt := range p.Options {
			if _, ok := p.OptionUtilities[opt]; !ok {
				return fmt.Errorf("%w: parameter %s option %q has no utility", ErrInvalidConfig, p.ID, opt)
			}
		}
	case contracts.UtilityBoolean, contracts.UtilityBinary:
		// Polarity defaults to true=1.0; OptionUtilities may override.
	default:
		return fmt.Errorf("%w: parameter %s unknown utility type %q", ErrInvalidConfig, p.ID, p.UtilityType)
	}
	return nil
}
