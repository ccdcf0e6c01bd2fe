package utility

import (
	"errors"
	"fmt"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
)

// ErrNoUsableParameters is returned when a config carries no parameter with
// positive weight. This is a configuration failure, never a negotiation
// outcome.
var ErrNoUsableParameters = errors.New("utility: config has no usable parameters")

// Aggregate scores every configured parameter against the offer and combines
// the results into a weighted total:
//
//	total = Σ(utility_i × weight_i) / Σ(weight_i)
//
// summed over parameters with a known value only. Parameters the vendor has
// not addressed are excluded from both numerator and denominator; missing
// data is ignored, not zero-filled.
func Aggregate(cfg *contracts.NegotiationConfig, offer *contracts.Offer) (*contracts.WeightedUtilityResult, error) {
	usable := 0.0
	for _, p := range cfg.Parameters {
		if p.Weight > 0 {
			usable += p.Weight
		}
	}
	if usable <= 0 {
		return nil, fmt.Errorf("%w: %d parameters, zero total weight", ErrNoUsableParameters, len(cfg.Parameters))
	}

	res := &contracts.WeightedUtilityResult{
		Parameters: make(map[string]contracts.ParameterUtility, len(cfg.Parameters)),
	}

	var weightedSum float64
	for i := range cfg.Parameters {
		p := &cfg.Parameters[i]
		pu := Score(p, offer)
		res.Parameters[p.ID] = pu
		if pu.Utility == nil {
			res.Missing = append(res.Missing, p.ID)
			continue
		}
		if p.Weight <= 0 {
			continue
		}
		weightedSum += *pu.Utility * p.Weight
		res.UsedWeight += p.Weight
	}

	if res.UsedWeight > 0 {
		res.Total = weightedSum / res.UsedWeight
	}
	res.Recommendation = Recommend(cfg, res.Total)
	return res, nil
}

// Recommend maps a total utility to the advisory threshold band. The
// decision engine may override this with round-limit and stall logic.
func Recommend(cfg *contracts.NegotiationConfig, total float64) contracts.DecisionAction {
	switch {
	case total >= cfg.AcceptThreshold:
		return contracts.ActionAccept
	case total >= cfg.EscalateThreshold:
		return contracts.ActionCounter
	case total >= cfg.WalkawayThreshold:
		return contracts.ActionEscalate
	default:
		return contracts.ActionWalkAway
	}
}
