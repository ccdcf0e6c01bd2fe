package utility_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
	"github.com/accordo-ai/negotiation-core/pkg/utility"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }
func b(v bool) *bool       { return &v }

func priceParam(target, max float64) *contracts.ParameterConfig {
	return &contracts.ParameterConfig{
		ID:          utility.ParamPrice,
		Weight:      70,
		UtilityType: contracts.UtilityLinear,
		Direction:   contracts.DirectionLowerBetter,
		Target:      target,
		Max:         &max,
	}
}

// TestScore_LinearLowerBetter pins the documented ramp: 1.0 at or below
// target, 0.0 at or above max, linear in between.
func TestScore_LinearLowerBetter(t *testing.T) {
	p := priceParam(100, 130)

	cases := []struct {
		price float64
		want  float64
	}{
		{90, 1.0},
		{100, 1.0},
		{115, 0.5},
		{130, 0.0},
		{150, 0.0},
	}
	for _, tc := range cases {
		pu := utility.Score(p, &contracts.Offer{TotalPrice: f(tc.price)})
		require.NotNil(t, pu.Utility, "price %v", tc.price)
		assert.InDelta(t, tc.want, *pu.Utility, 1e-9, "price %v", tc.price)
		assert.False(t, pu.Clamped)
	}
}

func TestScore_LinearHigherBetter(t *testing.T) {
	min := 6.0
	p := &contracts.ParameterConfig{
		ID:          utility.ParamWarranty,
		Weight:      10,
		UtilityType: contracts.UtilityLinear,
		Direction:   contracts.DirectionHigherBetter,
		Target:      24,
		Min:         &min,
	}

	pu := utility.Score(p, &contracts.Offer{WarrantyMonths: i(15)})
	require.NotNil(t, pu.Utility)
	assert.InDelta(t, 0.5, *pu.Utility, 1e-9)

	pu = utility.Score(p, &contracts.Offer{WarrantyMonths: i(36)})
	require.NotNil(t, pu.Utility)
	assert.Equal(t, 1.0, *pu.Utility)

	pu = utility.Score(p, &contracts.Offer{WarrantyMonths: i(3)})
	require.NotNil(t, pu.Utility)
	assert.Equal(t, 0.0, *pu.Utility)
}

func TestScore_MatchTarget(t *testing.T) {
	min, max := 0.0, 90.0
	p := &contracts.ParameterConfig{
		ID:          utility.ParamPaymentTerms,
		Weight:      30,
		UtilityType: contracts.UtilityLinear,
		Direction:   contracts.DirectionMatchTarget,
		Target:      60,
		Min:         &min,
		Max:         &max,
	}

	exact := utility.Score(p, &contracts.Offer{PaymentTermsDays: i(60)})
	require.NotNil(t, exact.Utility)
	assert.Equal(t, 1.0, *exact.Utility)

	// 45 days is 15 below target with a 60-wide low side: 1 - 15/60 = 0.75.
	below := utility.Score(p, &contracts.Offer{PaymentTermsDays: i(45)})
	require.NotNil(t, below.Utility)
	assert.InDelta(t, 0.75, *below.Utility, 1e-9)

	// 75 days is 15 above target with a 30-wide high side: 1 - 15/30 = 0.5.
	above := utility.Score(p, &contracts.Offer{PaymentTermsDays: i(75)})
	require.NotNil(t, above.Utility)
	assert.InDelta(t, 0.5, *above.Utility, 1e-9)
}

func TestScore_DateCloserBetter(t *testing.T) {
	target := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	p := &contracts.ParameterConfig{
		ID:              utility.ParamDelivery,
		Weight:          20,
		UtilityType:     contracts.UtilityDate,
		Direction:       contracts.DirectionCloserBetter,
		TargetDate:      &target,
		MaxDistanceDays: 30,
	}

	onTarget := target
	pu := utility.Score(p, &contracts.Offer{DeliveryDate: &onTarget})
	require.NotNil(t, pu.Utility)
	assert.Equal(t, 1.0, *pu.Utility)

	late := target.AddDate(0, 0, 15)
	pu = utility.Score(p, &contracts.Offer{DeliveryDate: &late})
	require.NotNil(t, pu.Utility)
	assert.InDelta(t, 0.5, *pu.Utility, 1e-9)

	far := target.AddDate(0, 0, 45)
	pu = utility.Score(p, &contracts.Offer{DeliveryDate: &far})
	require.NotNil(t, pu.Utility)
	assert.Equal(t, 0.0, *pu.Utility)
}

func TestScore_SteppedOptionTable(t *testing.T) {
	p := &contracts.ParameterConfig{
		ID:          utility.ParamPaymentTerms,
		Weight:      30,
		UtilityType: contracts.UtilityStepped,
		Direction:   contracts.DirectionMatchTarget,
		Options:     []string{"Net 30", "Net 60", "Net 90"},
		OptionUtilities: map[string]float64{
			"Net 30": 0.4,
			"Net 60": 1.0,
			"Net 90": 0.7,
		},
	}

	terms := "Net 60"
	pu := utility.Score(p, &contracts.Offer{PaymentTerms: &terms})
	require.NotNil(t, pu.Utility)
	assert.Equal(t, 1.0, *pu.Utility)

	unknown := "Net 120"
	pu = utility.Score(p, &contracts.Offer{PaymentTerms: &unknown})
	require.NotNil(t, pu.Utility)
	assert.Equal(t, 0.0, *pu.Utility)
}

func TestScore_BooleanPolarity(t *testing.T) {
	p := &contracts.ParameterConfig{
		ID:          utility.ParamPartialDelivery,
		Weight:      5,
		UtilityType: contracts.UtilityBoolean,
		Direction:   contracts.DirectionHigherBetter,
		OptionUtilities: map[string]float64{
			"true":  1.0,
			"false": 0.2,
		},
	}

	pu := utility.Score(p, &contracts.Offer{PartialDeliveryAllowed: b(true)})
	require.NotNil(t, pu.Utility)
	assert.Equal(t, 1.0, *pu.Utility)

	pu = utility.Score(p, &contracts.Offer{PartialDeliveryAllowed: b(false)})
	require.NotNil(t, pu.Utility)
	assert.InDelta(t, 0.2, *pu.Utility, 1e-9)
}

// TestScore_MissingValue verifies that an unstated parameter yields a nil
// utility rather than zero, and that mandatory parameters surface critical.
func TestScore_MissingValue(t *testing.T) {
	p := priceParam(100, 130)
	pu := utility.Score(p, &contracts.Offer{})
	assert.Nil(t, pu.Utility)
	assert.Empty(t, string(pu.Band))

	p.Mandatory = true
	pu = utility.Score(p, &contracts.Offer{})
	assert.Nil(t, pu.Utility)
	assert.Equal(t, contracts.BandCritical, pu.Band)
}

// TestScore_ClampsMisconfiguredOutput verifies that out-of-range option
// utilities are clamped into [0,1] and flagged instead of crashing the turn.
func TestScore_ClampsMisconfiguredOutput(t *testing.T) {
	p := &contracts.ParameterConfig{
		ID:          utility.ParamPaymentTerms,
		Weight:      10,
		UtilityType: contracts.UtilityStepped,
		Direction:   contracts.DirectionMatchTarget,
		Options:     []string{"Net 30"},
		OptionUtilities: map[string]float64{
			"Net 30": 1.7,
		},
	}
	terms := "Net 30"
	pu := utility.Score(p, &contracts.Offer{PaymentTerms: &terms})
	require.NotNil(t, pu.Utility)
	assert.Equal(t, 1.0, *pu.Utility)
	assert.True(t, pu.Clamped)

	p.OptionUtilities["Net 30"] = math.NaN()
	pu = utility.Score(p, &contracts.Offer{PaymentTerms: &terms})
	require.NotNil(t, pu.Utility)
	assert.Equal(t, 0.0, *pu.Utility)
	assert.True(t, pu.Clamped)
}

func TestScore_UnknownCombinationClampsToZero(t *testing.T) {
	p := &contracts.ParameterConfig{
		ID:          utility.ParamPrice,
		Weight:      10,
		UtilityType: contracts.UtilityLinear,
		Direction:   contracts.DirectionCloserBetter, // not a linear direction
		Target:      100,
	}
	pu := utility.Score(p, &contracts.Offer{TotalPrice: f(90)})
	require.NotNil(t, pu.Utility)
	assert.Equal(t, 0.0, *pu.Utility)
	assert.True(t, pu.Clamped)
}

func TestBands(t *testing.T) {
	p := priceParam(100, 130)

	cases := []struct {
		price float64
		band  contracts.UtilityBand
	}{
		{100, contracts.BandExcellent}, // 1.0
		{110, contracts.BandGood},      // ~0.67
		{120, contracts.BandWarning},   // ~0.33
		{129, contracts.BandCritical},  // ~0.03
	}
	for _, tc := range cases {
		pu := utility.Score(p, &contracts.Offer{TotalPrice: f(tc.price)})
		assert.Equal(t, tc.band, pu.Band, "price %v", tc.price)
	}
}
