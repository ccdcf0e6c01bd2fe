// Package behavior extracts trend signals from the cross-round offer
// history: concession velocity, convergence and momentum. The resulting
// strategy label sizes the engine's concessions; it never decides
// accept/reject by itself. The package also owns the round-limit policy
// (soft cap, bounded extension, early escalation on stall).
package behavior

import (
	"math"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
)

// Strategy classifies the vendor's observed negotiation behavior.
type Strategy string

// Strategy labels.
const (
	StrategyHoldingFirm  Strategy = "HOLDING_FIRM"
	StrategyAccelerating Strategy = "ACCELERATING"
	StrategyMatchingPace Strategy = "MATCHING_PACE"
	StrategyFinalPush    Strategy = "FINAL_PUSH"
)

// Fixed classification bands, expressed as fractions of the vendor's
// current price.
const (
	stallVelocityFrac = 0.005 // below this per-round movement the vendor is holding
	fastVelocityFrac  = 0.03  // above this the vendor is accelerating
	closeGapFrac      = 0.05  // both sides within this gap is the final push
)

// Analysis is the signal set for one turn.
type Analysis struct {
	// ConcessionVelocity is the vendor's average price movement per round
	// over the recent window; positive means the vendor is conceding.
	ConcessionVelocity float64 `json:"concession_velocity"`
	// ConvergenceGap is the latest absolute gap between own and vendor
	// prices, when both are known.
	ConvergenceGap *float64 `json:"convergence_gap,omitempty"`
	// ConvergenceSlope is the per-round change of the gap; negative means
	// the sides are converging.
	ConvergenceSlope float64 `json:"convergence_slope"`
	// Momentum is the acceleration of convergence over the last rounds;
	// positive means convergence is speeding up.
	Momentum float64 `json:"momentum"`

	Strategy Strategy `json:"strategy"`
	// Stalled is set when vendor movement has been near zero this round.
	Stalled bool `json:"stalled"`
}

// analysisWindow bounds how many recent deltas feed velocity and momentum.
const analysisWindow = 3

// Analyze computes trend signals from the ordered round-indexed offer
// history. With fewer than two vendor offers there is nothing to measure
// and the label defaults to MATCHING_PACE.
func Analyze(history []contracts.RoundOffer) Analysis {
	vendorPrices := sidePrices(history, contracts.SideVendor)
	ownPrices := sidePrices(history, contracts.SideOwn)

	a := Analysis{Strategy: StrategyMatchingPace}

	if len(vendorPrices) >= 2 {
		a.ConcessionVelocity = meanDelta(vendorPrices, analysisWindow)
		last := vendorPrices[len(vendorPrices)-1]
		sec := vendorPrices[len(vendorPrices)-2]
		a.Stalled = relAbs(sec-last, last) < stallVelocityFrac
	}

	gaps := convergenceGaps(vendorPrices, ownPrices)
	if len(gaps) > 0 {
		g := gaps[len(gaps)-1]
		a.ConvergenceGap = &g
	}
	if len(gaps) >= 2 {
		a.ConvergenceSlope = gaps[len(gaps)-1] - gaps[len(gaps)-2]
	}
	if len(gaps) >= 3 {
		prevSlope := gaps[len(gaps)-2] - gaps[len(gaps)-3]
		// Negative slope is convergence, so momentum is the drop in slope.
		a.Momentum = prevSlope - a.ConvergenceSlope
	}

	a.Strategy = classify(a, vendorPrices)
	return a
}

func classify(a Analysis, vendorPrices []float64) Strategy {
	if len(vendorPrices) < 2 {
		return StrategyMatchingPace
	}
	ref := vendorPrices[len(vendorPrices)-1]
	relVelocity := relAbs(a.ConcessionVelocity, ref)

	if a.ConvergenceGap != nil && relAbs(*a.ConvergenceGap, ref) < closeGapFrac && a.ConcessionVelocity > 0 {
		return StrategyFinalPush
	}
	if relVelocity < stallVelocityFrac {
		return StrategyHoldingFirm
	}
	if relVelocity >= fastVelocityFrac && a.Momentum >= 0 {
		return StrategyAccelerating
	}
	return StrategyMatchingPace
}

// sidePrices returns the ordered price series for one side, skipping rounds
// without a price.
func sidePrices(history []contracts.RoundOffer, side contracts.OfferSide) []float64 {
	var prices []float64
	for _, ro := range history {
		if ro.Side != side {
			continue
		}
		if p, ok := ro.Offer.Price(); ok {
			prices = append(prices, p)
		}
	}
	return prices
}

// meanDelta averages the per-round price drop over the most recent window.
// A dropping vendor price yields a positive concession velocity.
func meanDelta(prices []float64, window int) float64 {
	n := len(prices) - 1
	if n <= 0 {
		return 0
	}
	if n > window {
		n = window
	}
	start := len(prices) - 1 - n
	var sum float64
	for i := start; i < len(prices)-1; i++ {
		sum += prices[i] - prices[i+1]
	}
	return sum / float64(n)
}

// convergenceGaps pairs the two series round by round (trailing alignment)
// and returns the absolute gaps.
func convergenceGaps(vendor, own []float64) []float64 {
	n := len(vendor)
	if len(own) < n {
		n = len(own)
	}
	gaps := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := vendor[len(vendor)-n+i]
		o := own[len(own)-n+i]
		gaps = append(gaps, math.Abs(v-o))
	}
	return gaps
}

func relAbs(delta, ref float64) float64 {
	if ref == 0 {
		return math.Abs(delta)
	}
	return math.Abs(delta / ref)
}
