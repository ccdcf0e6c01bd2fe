package engine

import (
	"fmt"
	"math"

	"github.com/accordo-ai/negotiation-core/pkg/behavior"
	"github.com/accordo-ai/negotiation-core/pkg/contracts"
	"github.com/accordo-ai/negotiation-core/pkg/meso"
	"github.com/accordo-ai/negotiation-core/pkg/utility"
)

// Concession fractions per behavioral strategy label. The fraction is how
// much of the remaining gap to the vendor's position one counter gives up.
var concessionFractions = map[behavior.Strategy]float64{
	behavior.StrategyHoldingFirm:  0.05,
	behavior.StrategyMatchingPace: 0.10,
	behavior.StrategyAccelerating: 0.15,
	behavior.StrategyFinalPush:    0.20,
}

// priorityDamping slows concession on the parameter the deal cares most
// about; the remaining gap closes at half speed there.
const priorityDamping = 0.5

// buildCounter constructs the next counter offer by conceding a
// strategy-sized fraction of the remaining gap between our previous
// position and the vendor's. Preferences inferred from trade-off picks
// speed concession on the parameters the vendor values. The price component
// is hard-capped at the vendor's own price; a triggered cap is compensated
// by pulling payment terms back to target.
func buildCounter(cfg *contracts.NegotiationConfig, state *contracts.NegotiationState, a behavior.Analysis, anchorAdjust float64) (contracts.Offer, []string) {
	frac, ok := concessionFractions[a.Strategy]
	if !ok {
		frac = concessionFractions[behavior.StrategyMatchingPace]
	}

	vendor := state.LatestVendorOffer
	prev := state.LatestCounterOffer
	prefs := state.InferredPreferences
	var counter contracts.Offer
	var reasons []string
	reasons = append(reasons, fmt.Sprintf("countering under %s strategy, conceding %.0f%% of remaining gap", a.Strategy, frac*100))

	priceCapped := false

	if pp := cfg.Parameter(utility.ParamPrice); pp != nil {
		prevPrice := pp.Target * (1 + anchorAdjust)
		if prev != nil {
			if v, ok := prev.Price(); ok {
				prevPrice = v
			}
		} else if anchorAdjust != 0 {
			reasons = append(reasons, fmt.Sprintf("opening anchor adjusted %+.1f%% from prior deal outcomes", anchorAdjust*100))
		}

		price := prevPrice
		if vendorPrice, ok := vendor.Price(); ok {
			price = prevPrice + fracFor(cfg, prefs, utility.ParamPrice, frac)*(vendorPrice-prevPrice)
			// Countering above what the vendor already asked would give
			// money away; cap at their price and claw value back on terms.
			if price > vendorPrice {
				price = vendorPrice
				priceCapped = true
			}
		}
		price = math.Round(price*100) / 100
		counter.TotalPrice = &price
	}

	if tp := cfg.Parameter(utility.ParamPaymentTerms); tp != nil {
		target := int(math.Round(tp.Target))
		days := target
		if prev != nil && prev.PaymentTermsDays != nil {
			days = *prev.PaymentTermsDays
		}
		if priceCapped {
			// Compensation for the price cap: hold terms at target instead
			// of conceding this round.
			days = target
			reasons = append(reasons, "price capped at vendor's offered price; holding payment terms at target as compensation")
		} else if vendor.PaymentTermsDays != nil {
			days = concedeInt(days, *vendor.PaymentTermsDays, fracFor(cfg, prefs, utility.ParamPaymentTerms, frac))
		}
		label := fmt.Sprintf("Net %d", days)
		counter.PaymentTermsDays = &days
		counter.PaymentTerms = &label
	}

	if dp := cfg.Parameter(utility.ParamDelivery); dp != nil && dp.UtilityType != contracts.UtilityDate {
		days := int(math.Round(dp.Target))
		if prev != nil && prev.DeliveryDays != nil {
			days = *prev.DeliveryDays
		}
		if vendor.DeliveryDays != nil {
			days = concedeInt(days, *vendor.DeliveryDays, fracFor(cfg, prefs, utility.ParamDelivery, frac))
		}
		counter.DeliveryDays = &days
	}

	if wp := cfg.Parameter(utility.ParamWarranty); wp != nil {
		months := int(math.Round(wp.Target))
		if prev != nil && prev.WarrantyMonths != nil {
			months = *prev.WarrantyMonths
		}
		if vendor.WarrantyMonths != nil {
			months = concedeInt(months, *vendor.WarrantyMonths, fracFor(cfg, prefs, utility.ParamWarranty, frac))
		}
		counter.WarrantyMonths = &months
	}

	if bp := cfg.Parameter(utility.ParamPartialDelivery); bp != nil {
		pref := preferredBool(bp)
		counter.PartialDeliveryAllowed = &pref
	}

	return counter, reasons
}

// fracFor applies priority damping and the inferred-preference boost to the
// concession fraction for one parameter.
func fracFor(cfg *contracts.NegotiationConfig, prefs *contracts.InferredPreferences, paramID string, frac float64) float64 {
	if priorityParam(cfg.Priority) == paramID {
		frac *= priorityDamping
	}
	return frac * meso.ConcessionBoost(prefs, paramID)
}

func priorityParam(priority string) string {
	switch priority {
	case contracts.PriorityPrice:
		return utility.ParamPrice
	case contracts.PriorityTerms:
		return utility.ParamPaymentTerms
	case contracts.PriorityDelivery:
		return utility.ParamDelivery
	}
	return ""
}

func concedeInt(from, to int, frac float64) int {
	return from + int(math.Round(frac*float64(to-from)))
}

// preferredBool reads the polarity the config scores highest.
func preferredBool(p *contracts.ParameterConfig) bool {
	trueU, falseU := 1.0, 0.0
	if u, ok := p.OptionUtilities["true"]; ok {
		trueU = u
	}
	if u, ok := p.OptionUtilities["false"]; ok {
		falseU = u
	}
	return trueU >= falseU
}
