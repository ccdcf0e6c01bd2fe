// Package meso generates Multiple Equivalent Simultaneous Offers: several
// counter-proposals with (near) equal utility for our side but different
// parameter trade-offs, used to elicit the vendor's true preferences, plus
// the preference inference over the vendor's subsequent choices.
package meso

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
	"github.com/accordo-ai/negotiation-core/pkg/utility"
)

// ErrCannotGenerate is returned when no valid equivalent set exists for the
// parameter configuration (fewer than two weighted parameters, or the
// spread cannot be narrowed into the tolerance band).
var ErrCannotGenerate = errors.New("meso: cannot generate equivalent offer set")

// Generator produces MESO sets.
type Generator struct {
	// N is the number of options per set (default 3).
	N int
	// Tolerance is the allowed utility band around the target (default 0.05).
	Tolerance float64
	// Spread is the initial utility distance between the emphasized
	// parameter and the rest (default 0.15). Dominated or out-of-band sets
	// are regenerated with a tighter spread.
	Spread float64
}

// NewGenerator returns a generator with the default knobs.
func NewGenerator() *Generator {
	return &Generator{N: 3, Tolerance: 0.05, Spread: 0.15}
}

var optionLabels = []string{"A", "B", "C", "D", "E"}

// Generate builds a set of N utility-equivalent offers around the target
// utility. Each option emphasizes a different parameter: the vendor gets a
// better deal on the emphasized parameter and we claw it back elsewhere.
// finalPhase omits the free-form "Others" option per the final-MESO rules.
func (g *Generator) Generate(cfg *contracts.NegotiationConfig, targetUtility float64, cycle int, finalPhase bool) (*contracts.MesoSet, error) {
	params := weightedParams(cfg)
	if len(params) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 weighted parameters, have %d", ErrCannotGenerate, len(params))
	}

	n := g.N
	if n <= 0 {
		n = 3
	}
	if n > len(optionLabels) {
		n = len(optionLabels)
	}
	// One distinct emphasis per option; asking for more options than there
	// are weighted parameters would repeat an offer verbatim.
	if n > len(params) {
		n = len(params)
	}

	// Dominated or out-of-band sets are invalid; retry with adjusted spread.
	spread := g.Spread
	if spread <= 0 {
		spread = 0.15
	}
	for attempt := 0; attempt < 4; attempt++ {
		set, err := g.build(cfg, params, targetUtility, n, spread)
		if err != nil {
			return nil, err
		}
		if g.valid(set, targetUtility) {
			set.IncludesOthers = !finalPhase
			set.Cycle = cycle
			return set, nil
		}
		spread /= 2
	}
	return nil, fmt.Errorf("%w: no non-dominated set within tolerance %.2f of target %.2f", ErrCannotGenerate, g.tolerance(), targetUtility)
}

func (g *Generator) build(cfg *contracts.NegotiationConfig, params []*contracts.ParameterConfig, target float64, n int, spread float64) (*contracts.MesoSet, error) {
	var totalWeight float64
	for _, p := range params {
		totalWeight += p.Weight
	}

	set := &contracts.MesoSet{TargetUtility: target}
	for k := 0; k < n; k++ {
		emph := params[k]

		// Utility vector: the emphasized parameter drops by the spread,
		// the rest rise to keep the weighted mean at the target.
		utilities := make(map[string]float64, len(params))
		restWeight := totalWeight - emph.Weight
		for _, p := range params {
			if p.ID == emph.ID {
				utilities[p.ID] = clamp01(target - spread)
			} else {
				utilities[p.ID] = clamp01(target + spread*emph.Weight/restWeight)
			}
		}

		offer, err := offerFromUtilities(cfg, params, utilities)
		if err != nil {
			return nil, err
		}

		opt := contracts.MesoOption{
			Label:    optionLabels[k],
			Offer:    offer,
			Utility:  weightedMean(params, utilities),
			Emphasis: emph.ID,
		}
		for _, p := range params {
			if p.ID != emph.ID {
				opt.Tradeoffs = append(opt.Tradeoffs, p.ID)
			}
		}
		set.Options = append(set.Options, opt)
	}
	return set, nil
}

// valid checks the tolerance band and rejects sets where one option weakly
// dominates every other (such a set elicits nothing).
func (g *Generator) valid(set *contracts.MesoSet, target float64) bool {
	tol := g.tolerance()
	for _, opt := range set.Options {
		if math.Abs(opt.Utility-target) > tol {
			return false
		}
	}
	for i := range set.Options {
		dominatesAll := true
		for j := range set.Options {
			if i == j {
				continue
			}
			if !dominates(&set.Options[i].Offer, &set.Options[j].Offer) {
				dominatesAll = false
				break
			}
		}
		if dominatesAll {
			return false
		}
	}
	return true
}

func (g *Generator) tolerance() float64 {
	if g.Tolerance > 0 {
		return g.Tolerance
	}
	return 0.05
}

// dominates reports whether offer a is at least as vendor-favorable as b on
// every populated numeric field and strictly better on one.
func dominates(a, b *contracts.Offer) bool {
	better := false
	cmp := func(av, bv *float64, higherFavors bool) bool {
		if av == nil || bv == nil {
			return true
		}
		if *av == *bv {
			return true
		}
		if (higherFavors && *av > *bv) || (!higherFavors && *av < *bv) {
			better = true
			return true
		}
		return false
	}
	if !cmp(a.TotalPrice, b.TotalPrice, true) { // vendor favors a higher price
		return false
	}
	if !cmp(intPtrFloat(a.PaymentTermsDays), intPtrFloat(b.PaymentTermsDays), false) { // vendor favors being paid sooner
		return false
	}
	if !cmp(intPtrFloat(a.DeliveryDays), intPtrFloat(b.DeliveryDays), true) { // vendor favors more delivery time
		return false
	}
	if !cmp(intPtrFloat(a.WarrantyMonths), intPtrFloat(b.WarrantyMonths), false) { // vendor favors less warranty
		return false
	}
	return better
}

func intPtrFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

// weightedParams returns the positively-weighted parameters in descending
// weight order, so emphasis rotation starts with the heaviest parameter.
func weightedParams(cfg *contracts.NegotiationConfig) []*contracts.ParameterConfig {
	var params []*contracts.ParameterConfig
	for i := range cfg.Parameters {
		if cfg.Parameters[i].Weight > 0 {
			params = append(params, &cfg.Parameters[i])
		}
	}
	sort.SliceStable(params, func(i, j int) bool { return params[i].Weight > params[j].Weight })
	return params
}

func weightedMean(params []*contracts.ParameterConfig, utilities map[string]float64) float64 {
	var sum, weight float64
	for _, p := range params {
		sum += utilities[p.ID] * p.Weight
		weight += p.Weight
	}
	if weight == 0 {
		return 0
	}
	return sum / weight
}

// offerFromUtilities inverts the parameter utility functions to produce the
// raw offer values realizing the requested utility vector.
func offerFromUtilities(cfg *contracts.NegotiationConfig, params []*contracts.ParameterConfig, utilities map[string]float64) (contracts.Offer, error) {
	var offer contracts.Offer
	for _, p := range params {
		u := utilities[p.ID]
		switch p.ID {
		case utility.ParamPrice:
			v := invertNumeric(p, u)
			offer.TotalPrice = &v
		case utility.ParamPaymentTerms:
			days := int(math.Round(invertNumeric(p, u)))
			label := fmt.Sprintf("Net %d", days)
			offer.PaymentTermsDays = &days
			offer.PaymentTerms = &label
		case utility.ParamDelivery:
			if p.UtilityType == contracts.UtilityDate && p.TargetDate != nil {
				d := invertDate(p, u)
				offer.DeliveryDate = &d
			} else {
				days := int(math.Round(invertNumeric(p, u)))
				offer.DeliveryDays = &days
			}
		case utility.ParamWarranty:
			months := int(math.Round(invertNumeric(p, u)))
			offer.WarrantyMonths = &months
		case utility.ParamPartialDelivery:
			b := invertBool(p, u)
			offer.PartialDeliveryAllowed = &b
		default:
			// Custom parameters have no offer field to carry them; they
			// contribute to the utility vector only.
		}
	}
	return offer, nil
}

// invertNumeric maps a utility back to a raw value under the parameter's
// semantics. For match_target the vendor-favorable side of the target is
// used, which keeps inversion deterministic.
func invertNumeric(p *contracts.ParameterConfig, u float64) float64 {
	u = clamp01(u)
	switch p.Direction {
	case contracts.DirectionLowerBetter:
		maxV := p.Target
		if p.Max != nil {
			maxV = *p.Max
		}
		return p.Target + (1-u)*(maxV-p.Target)
	case contracts.DirectionHigherBetter:
		minV := p.Target
		if p.Min != nil {
			minV = *p.Min
		}
		return p.Target - (1-u)*(p.Target-minV)
	default: // match_target
		var high float64
		if p.Max != nil {
			high = *p.Max - p.Target
		} else if p.Min != nil {
			high = p.Target - *p.Min
		}
		return p.Target + (1-u)*high
	}
}

func invertDate(p *contracts.ParameterConfig, u float64) time.Time {
	maxDist := p.MaxDistanceDays
	if maxDist <= 0 {
		maxDist = 30
	}
	days := (1 - clamp01(u)) * float64(maxDist)
	return p.TargetDate.Add(time.Duration(days*24) * time.Hour)
}

func invertBool(p *contracts.ParameterConfig, u float64) bool {
	trueU := 1.0
	if v, ok := p.OptionUtilities["true"]; ok {
		trueU = v
	}
	falseU := 0.0
	if v, ok := p.OptionUtilities["false"]; ok {
		falseU = v
	}
	return math.Abs(u-trueU) <= math.Abs(u-falseU)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
