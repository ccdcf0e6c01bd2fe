package meso_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
	"github.com/accordo-ai/negotiation-core/pkg/meso"
	"github.com/accordo-ai/negotiation-core/pkg/utility"
)

func generationConfig() *contracts.NegotiationConfig {
	maxPrice := 130000.0
	minTerms, maxTerms := 0.0, 90.0
	maxDelivery := 45.0
	return &contracts.NegotiationConfig{
		Parameters: []contracts.ParameterConfig{
			{
				ID:          utility.ParamPrice,
				Weight:      50,
				UtilityType: contracts.UtilityLinear,
				Direction:   contracts.DirectionLowerBetter,
				Target:      100000,
				Max:         &maxPrice,
			},
			{
				ID:          utility.ParamPaymentTerms,
				Weight:      30,
				UtilityType: contracts.UtilityLinear,
				Direction:   contracts.DirectionMatchTarget,
				Target:      60,
				Min:         &minTerms,
				Max:         &maxTerms,
			},
			{
				ID:          utility.ParamDelivery,
				Weight:      20,
				UtilityType: contracts.UtilityLinear,
				Direction:   contracts.DirectionLowerBetter,
				Target:      14,
				Max:         &maxDelivery,
			},
		},
		AcceptThreshold:   0.8,
		EscalateThreshold: 0.5,
		WalkawayThreshold: 0.3,
		MaxRounds:         10,
	}
}

// TestGenerate_UtilityBand verifies the equivalence guarantee: every option
// in a generated set scores within the tolerance band of the target.
func TestGenerate_UtilityBand(t *testing.T) {
	g := meso.NewGenerator()
	set, err := g.Generate(generationConfig(), 0.7, 1, false)
	require.NoError(t, err)

	require.Len(t, set.Options, 3)
	for _, opt := range set.Options {
		assert.LessOrEqual(t, math.Abs(opt.Utility-0.7), 0.05, "option %s", opt.Label)
	}
	assert.Equal(t, 0.7, set.TargetUtility)
	assert.Equal(t, 1, set.Cycle)
}

// TestGenerate_OptionsScoreNearTarget re-scores each generated offer through
// the aggregator to confirm the inversion round-trips.
func TestGenerate_OptionsScoreNearTarget(t *testing.T) {
	cfg := generationConfig()
	g := meso.NewGenerator()
	set, err := g.Generate(cfg, 0.7, 1, false)
	require.NoError(t, err)

	for _, opt := range set.Options {
		res, err := utility.Aggregate(cfg, &opt.Offer)
		require.NoError(t, err)
		// Integer rounding of day counts costs a little precision beyond
		// the generator's own band.
		assert.LessOrEqual(t, math.Abs(res.Total-0.7), 0.07, "option %s", opt.Label)
	}
}

// TestGenerate_DistinctEmphases verifies each option emphasizes a different
// parameter and tags the others as trade-offs.
func TestGenerate_DistinctEmphases(t *testing.T) {
	g := meso.NewGenerator()
	set, err := g.Generate(generationConfig(), 0.7, 1, false)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, opt := range set.Options {
		assert.False(t, seen[opt.Emphasis], "duplicate emphasis %s", opt.Emphasis)
		seen[opt.Emphasis] = true
		assert.Len(t, opt.Tradeoffs, 2)
		assert.NotContains(t, opt.Tradeoffs, opt.Emphasis)
	}
}

// TestGenerate_FinalPhaseOmitsOthers verifies the closing-set rule.
func TestGenerate_FinalPhaseOmitsOthers(t *testing.T) {
	g := meso.NewGenerator()

	set, err := g.Generate(generationConfig(), 0.7, 3, false)
	require.NoError(t, err)
	assert.True(t, set.IncludesOthers)

	final, err := g.Generate(generationConfig(), 0.7, 4, true)
	require.NoError(t, err)
	assert.False(t, final.IncludesOthers)
	assert.Equal(t, 4, final.Cycle)
}

// TestGenerate_TwoParameterSetCapsOptionCount verifies that a profile with
// only two weighted parameters yields two options rather than padding the
// set with a repeat of the first offer.
func TestGenerate_TwoParameterSetCapsOptionCount(t *testing.T) {
	maxPrice := 130000.0
	maxDelivery := 45.0
	cfg := &contracts.NegotiationConfig{
		Parameters: []contracts.ParameterConfig{
			{
				ID:          utility.ParamPrice,
				Weight:      60,
				UtilityType: contracts.UtilityLinear,
				Direction:   contracts.DirectionLowerBetter,
				Target:      100000,
				Max:         &maxPrice,
			},
			{
				ID:          utility.ParamDelivery,
				Weight:      40,
				UtilityType: contracts.UtilityLinear,
				Direction:   contracts.DirectionLowerBetter,
				Target:      14,
				Max:         &maxDelivery,
			},
		},
		AcceptThreshold:   0.85,
		EscalateThreshold: 0.5,
		WalkawayThreshold: 0.3,
		MaxRounds:         10,
	}

	set, err := meso.NewGenerator().Generate(cfg, 0.85, 1, false)
	require.NoError(t, err)
	require.Len(t, set.Options, 2)

	a, b := set.Options[0], set.Options[1]
	assert.NotEqual(t, a.Emphasis, b.Emphasis)
	require.NotNil(t, a.Offer.TotalPrice)
	require.NotNil(t, b.Offer.TotalPrice)
	assert.NotEqual(t, *a.Offer.TotalPrice, *b.Offer.TotalPrice)
	require.NotNil(t, a.Offer.DeliveryDays)
	require.NotNil(t, b.Offer.DeliveryDays)
	assert.NotEqual(t, *a.Offer.DeliveryDays, *b.Offer.DeliveryDays)
}

func TestGenerate_NeedsTwoWeightedParameters(t *testing.T) {
	maxPrice := 130000.0
	cfg := &contracts.NegotiationConfig{
		Parameters: []contracts.ParameterConfig{
			{
				ID:          utility.ParamPrice,
				Weight:      100,
				UtilityType: contracts.UtilityLinear,
				Direction:   contracts.DirectionLowerBetter,
				Target:      100000,
				Max:         &maxPrice,
			},
			{
				ID:          utility.ParamPaymentTerms,
				Weight:      0, // unweighted, cannot carry a trade-off
				UtilityType: contracts.UtilityLinear,
				Direction:   contracts.DirectionMatchTarget,
				Target:      60,
			},
		},
	}

	_, err := meso.NewGenerator().Generate(cfg, 0.7, 1, false)
	assert.ErrorIs(t, err, meso.ErrCannotGenerate)
}
