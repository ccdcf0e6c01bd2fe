//go:build property
// +build property

package utility_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
	"github.com/accordo-ai/negotiation-core/pkg/utility"
)

// TestLinearLowerBetterMonotonic verifies the ramp law for lower_better
// linear parameters.
// Property: utility is non-increasing in the raw value, 1.0 at/below
// target, 0.0 at/above max.
func TestLinearLowerBetterMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("utility non-increasing in raw value", prop.ForAll(
		func(target, span, a, b float64) bool {
			max := target + span
			p := &contracts.ParameterConfig{
				ID:          utility.ParamPrice,
				Weight:      50,
				UtilityType: contracts.UtilityLinear,
				Direction:   contracts.DirectionLowerBetter,
				Target:      target,
				Max:         &max,
			}
			lo, hi := a, b
			if lo > hi {
				lo, hi = hi, lo
			}
			uLo := utility.Score(p, &contracts.Offer{TotalPrice: &lo})
			uHi := utility.Score(p, &contracts.Offer{TotalPrice: &hi})
			if uLo.Utility == nil || uHi.Utility == nil {
				return false
			}
			if *uLo.Utility < *uHi.Utility {
				return false
			}
			atTarget := utility.Score(p, &contracts.Offer{TotalPrice: &target})
			atMax := utility.Score(p, &contracts.Offer{TotalPrice: &max})
			return *atTarget.Utility == 1.0 && *atMax.Utility == 0.0
		},
		gen.Float64Range(1, 1e6),
		gen.Float64Range(1, 1e6),
		gen.Float64Range(0, 2e6),
		gen.Float64Range(0, 2e6),
	))

	properties.TestingRun(t)
}

// TestTotalUtilityBounded verifies totals stay in [0,1] and survive uniform
// weight rescaling for arbitrary weight vectors.
func TestTotalUtilityBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("total in [0,1] and rescale-invariant", prop.ForAll(
		func(wPrice, wTerms, scale, price float64, terms int) bool {
			build := func(s float64) *contracts.NegotiationConfig {
				maxPrice := 130.0
				minTerms, maxTerms := 0.0, 90.0
				return &contracts.NegotiationConfig{
					Parameters: []contracts.ParameterConfig{
						{
							ID:          utility.ParamPrice,
							Weight:      wPrice * s,
							UtilityType: contracts.UtilityLinear,
							Direction:   contracts.DirectionLowerBetter,
							Target:      100,
							Max:         &maxPrice,
						},
						{
							ID:          utility.ParamPaymentTerms,
							Weight:      wTerms * s,
							UtilityType: contracts.UtilityLinear,
							Direction:   contracts.DirectionMatchTarget,
							Target:      60,
							Min:         &minTerms,
							Max:         &maxTerms,
						},
					},
					AcceptThreshold:   0.8,
					EscalateThreshold: 0.5,
					WalkawayThreshold: 0.3,
					MaxRounds:         10,
				}
			}
			offer := &contracts.Offer{TotalPrice: &price, PaymentTermsDays: &terms}

			base, err := utility.Aggregate(build(1), offer)
			if err != nil {
				return false
			}
			if base.Total < 0 || base.Total > 1 {
				return false
			}
			scaled, err := utility.Aggregate(build(scale), offer)
			if err != nil {
				return false
			}
			diff := base.Total - scaled.Total
			return diff < 1e-9 && diff > -1e-9
		},
		gen.Float64Range(0.1, 100),
		gen.Float64Range(0.1, 100),
		gen.Float64Range(0.01, 50),
		gen.Float64Range(50, 200),
		gen.IntRange(0, 120),
	))

	properties.TestingRun(t)
}
