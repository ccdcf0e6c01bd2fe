package meso_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
	"github.com/accordo-ai/negotiation-core/pkg/meso"
	"github.com/accordo-ai/negotiation-core/pkg/utility"
)

func setWithEmphases() contracts.MesoSet {
	return contracts.MesoSet{
		Options: []contracts.MesoOption{
			{Label: "A", Emphasis: utility.ParamPrice},
			{Label: "B", Emphasis: utility.ParamPaymentTerms},
			{Label: "C", Emphasis: utility.ParamDelivery},
		},
	}
}

func TestInferPreferences_NoObservations(t *testing.T) {
	prefs := meso.InferPreferences(nil)
	assert.Empty(t, prefs.Weights)
	assert.Zero(t, prefs.Confidence)
	assert.Zero(t, prefs.ObservedRounds)
}

// TestInferPreferences_EmphasisCounts verifies the inference rule: picking
// the price-emphasized option twice and the terms one once yields 2/3 vs
// 1/3 weights.
func TestInferPreferences_EmphasisCounts(t *testing.T) {
	set := setWithEmphases()
	selections := []contracts.MesoSelection{
		{Set: set, Label: "A"},
		{Set: set, Label: "A"},
		{Set: set, Label: "B"},
	}

	prefs := meso.InferPreferences(selections)
	require.Len(t, prefs.Weights, 2)
	assert.InDelta(t, 2.0/3.0, prefs.Weights[utility.ParamPrice], 1e-9)
	assert.InDelta(t, 1.0/3.0, prefs.Weights[utility.ParamPaymentTerms], 1e-9)
	assert.Equal(t, 3, prefs.ObservedRounds)
	assert.InDelta(t, 0.6, prefs.Confidence, 1e-9) // 3/(3+2)
}

// TestConcessionBoost verifies the multiplier the counter builder applies:
// neutral without observations, doubled on a parameter every pick favored,
// untouched on parameters never picked.
func TestConcessionBoost(t *testing.T) {
	assert.Equal(t, 1.0, meso.ConcessionBoost(nil, utility.ParamPrice))

	set := setWithEmphases()
	prefs := meso.InferPreferences([]contracts.MesoSelection{{Set: set, Label: "A"}})
	assert.InDelta(t, 2.0, meso.ConcessionBoost(&prefs, utility.ParamPrice), 1e-9)
	assert.InDelta(t, 1.0, meso.ConcessionBoost(&prefs, utility.ParamPaymentTerms), 1e-9)

	// An "Others" pick carries no emphasis, so nothing speeds up.
	othersOnly := meso.InferPreferences([]contracts.MesoSelection{{Set: set, Others: true}})
	assert.Equal(t, 1.0, meso.ConcessionBoost(&othersOnly, utility.ParamPrice))
}

// TestInferPreferences_OthersCarriesNoSignal verifies that an "Others" pick
// counts toward observations but not toward any parameter weight.
func TestInferPreferences_OthersCarriesNoSignal(t *testing.T) {
	set := setWithEmphases()
	selections := []contracts.MesoSelection{
		{Set: set, Label: "A"},
		{Set: set, Others: true},
	}

	prefs := meso.InferPreferences(selections)
	assert.InDelta(t, 1.0, prefs.Weights[utility.ParamPrice], 1e-9)
	assert.Equal(t, 2, prefs.ObservedRounds)
	assert.InDelta(t, 0.5, prefs.Confidence, 1e-9)
}
