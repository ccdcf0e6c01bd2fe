package meso

import "github.com/accordo-ai/negotiation-core/pkg/contracts"

// InferPreferences derives the relative parameter weighting implied by the
// trade-offs a vendor accepted. Picking an option emphasized on a parameter
// means the vendor values that parameter; repeated observations sharpen the
// weighting and raise the confidence.
func InferPreferences(selections []contracts.MesoSelection) contracts.InferredPreferences {
	counts := make(map[string]float64)
	observed := 0

	for _, sel := range selections {
		observed++
		if sel.Others {
			continue
		}
		for _, opt := range sel.Set.Options {
			if opt.Label == sel.Label {
				counts[opt.Emphasis]++
				break
			}
		}
	}

	prefs := contracts.InferredPreferences{
		Weights:        make(map[string]float64, len(counts)),
		ObservedRounds: observed,
	}

	var total float64
	for _, c := range counts {
		total += c
	}
	if total > 0 {
		for id, c := range counts {
			prefs.Weights[id] = c / total
		}
	}

	// Confidence grows with observations and saturates toward 1.
	prefs.Confidence = float64(observed) / float64(observed+2)
	return prefs
}

// minBoostConfidence is the confidence floor below which inferred
// preferences are too thin to steer concessions.
const minBoostConfidence = 0.25

// ConcessionBoost converts inferred preferences into a concession multiplier
// for one parameter. A parameter the vendor has shown they value concedes
// faster; without observations the multiplier is neutral.
func ConcessionBoost(prefs *contracts.InferredPreferences, paramID string) float64 {
	if prefs == nil || prefs.Confidence < minBoostConfidence {
		return 1
	}
	return 1 + prefs.Weights[paramID]
}
