// Package anchor adjusts the opening anchor price from the outcome history
// with the same counterpart. If past deals consistently closed above target,
// the next opening anchor is raised by a damped fraction of that overshoot
// so the engine stops repeating an overly aggressive opening.
package anchor

import (
	"context"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
)

// HistoryProvider supplies prior closed deals with a vendor. Implemented by
// a collaborator; the engine only reads tuples.
type HistoryProvider interface {
	PriorDeals(ctx context.Context, vendorID string) ([]contracts.PriorDeal, error)
}

// dampingFactor scales the observed overshoot into the adjustment; full
// correction would overreact to a small sample.
const dampingFactor = 0.5

// maxAdjustment caps the adjustment fraction either way.
const maxAdjustment = 0.25

// Adjustment computes the anchor adjustment fraction from prior deals.
// The result is a signed fraction of the target price: +0.06 means "open 6%
// above target". Only deals that actually closed (ACCEPTED) count; no
// history means a neutral zero.
func Adjustment(history []contracts.PriorDeal) float64 {
	var sum float64
	var n int
	for _, d := range history {
		if d.Outcome != contracts.StatusAccepted || d.TargetPrice <= 0 {
			continue
		}
		sum += (d.FinalPrice - d.TargetPrice) / d.TargetPrice
		n++
	}
	if n == 0 {
		return 0
	}

	adj := (sum / float64(n)) * dampingFactor
	if adj > maxAdjustment {
		adj = maxAdjustment
	}
	if adj < -maxAdjustment {
		adj = -maxAdjustment
	}
	return adj
}

// AdjustedAnchor applies the adjustment fraction to a target price.
func AdjustedAnchor(targetPrice float64, history []contracts.PriorDeal) float64 {
	return targetPrice * (1 + Adjustment(history))
}
