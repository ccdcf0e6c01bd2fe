package utility

import (
	"math"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
)

// scoreFunc computes a [0,1] utility for a raw value under one
// (utility type, direction) combination. The bool result reports whether
// the input had to be clamped back into range.
type scoreFunc func(p *contracts.ParameterConfig, raw RawValue) (float64, bool)

type scoreKey struct {
	Type      contracts.UtilityType
	Direction contracts.Direction
}

// scorers is the closed dispatch table. Stepped, binary and boolean
// parameters score the same way regardless of direction, so they are
// registered under every direction they can carry.
var scorers = map[scoreKey]scoreFunc{
	{contracts.UtilityLinear, contracts.DirectionLowerBetter}:      scoreLinearLower,
	{contracts.UtilityLinear, contracts.DirectionHigherBetter}:     scoreLinearHigher,
	{contracts.UtilityLinear, contracts.DirectionMatchTarget}:      scoreMatchTarget,
	{contracts.UtilityPercentage, contracts.DirectionLowerBetter}:  scoreLinearLower,
	{contracts.UtilityPercentage, contracts.DirectionHigherBetter}: scoreLinearHigher,
	{contracts.UtilityPercentage, contracts.DirectionMatchTarget}:  scoreMatchTarget,
	{contracts.UtilityDate, contracts.DirectionCloserBetter}:       scoreDateCloser,
	{contracts.UtilityDate, contracts.DirectionMatchTarget}:        scoreDateCloser,
	{contracts.UtilityStepped, contracts.DirectionLowerBetter}:     scoreStepped,
	{contracts.UtilityStepped, contracts.DirectionHigherBetter}:    scoreStepped,
	{contracts.UtilityStepped, contracts.DirectionMatchTarget}:     scoreStepped,
	{contracts.UtilityStepped, contracts.DirectionCloserBetter}:    scoreStepped,
	{contracts.UtilityBinary, contracts.DirectionLowerBetter}:      scoreBoolean,
	{contracts.UtilityBinary, contracts.DirectionHigherBetter}:     scoreBoolean,
	{contracts.UtilityBinary, contracts.DirectionMatchTarget}:      scoreBoolean,
	{contracts.UtilityBoolean, contracts.DirectionLowerBetter}:     scoreBoolean,
	{contracts.UtilityBoolean, contracts.DirectionHigherBetter}:    scoreBoolean,
	{contracts.UtilityBoolean, contracts.DirectionMatchTarget}:     scoreBoolean,
}

// Score computes the utility of one parameter against an offer. A missing
// raw value yields a nil utility (the parameter is excluded from
// aggregation, not scored as zero); mandatory parameters surface a critical
// band in that case for visibility.
func Score(p *contracts.ParameterConfig, offer *contracts.Offer) contracts.ParameterUtility {
	raw := ExtractRaw(p, offer)
	if raw.IsMissing() {
		band := contracts.UtilityBand("")
		if p.Mandatory {
			band = contracts.BandCritical
		}
		return contracts.ParameterUtility{ParameterID: p.ID, Band: band}
	}

	fn, ok := scorers[scoreKey{p.UtilityType, p.Direction}]
	if !ok {
		// Unknown combination counts as misconfiguration: clamp to zero
		// rather than crash the turn.
		zero := 0.0
		return contracts.ParameterUtility{
			ParameterID: p.ID,
			Utility:     &zero,
			Band:        bandOf(zero),
			Clamped:     true,
		}
	}

	u, clamped := fn(p, raw)
	if math.IsNaN(u) || math.IsInf(u, 0) {
		u = 0
		clamped = true
	}
	if u < 0 {
		u = 0
		clamped = true
	}
	if u > 1 {
		u = 1
		clamped = true
	}
	return contracts.ParameterUtility{
		ParameterID: p.ID,
		Utility:     &u,
		Band:        bandOf(u),
		Clamped:     clamped,
	}
}

// bandOf maps a utility to its explainability band.
func bandOf(u float64) contracts.UtilityBand {
	switch {
	case u >= 0.85:
		return contracts.BandExcellent
	case u >= 0.6:
		return contracts.BandGood
	case u >= 0.3:
		return contracts.BandWarning
	default:
		return contracts.BandCritical
	}
}

// scoreLinearLower: 1.0 at or below target, 0.0 at or above max, linear
// in between.
func scoreLinearLower(p *contracts.ParameterConfig, raw RawValue) (float64, bool) {
	if raw.Number == nil {
		return 0, true
	}
	v := *raw.Number
	maxV := p.Target
	if p.Max != nil {
		maxV = *p.Max
	}
	if v <= p.Target {
		return 1, false
	}
	if v >= maxV || maxV <= p.Target {
		return 0, false
	}
	return (maxV - v) / (maxV - p.Target), false
}

// scoreLinearHigher mirrors scoreLinearLower using min as the zero point.
func scoreLinearHigher(p *contracts.ParameterConfig, raw RawValue) (float64, bool) {
	if raw.Number == nil {
		return 0, true
	}
	v := *raw.Number
	minV := p.Target
	if p.Min != nil {
		minV = *p.Min
	}
	if v >= p.Target {
		return 1, false
	}
	if v <= minV || minV >= p.Target {
		return 0, false
	}
	return (v - minV) / (p.Target - minV), false
}

// scoreMatchTarget: 1.0 at the exact target, decaying linearly to 0 at the
// tolerance bound on each side. Min and Max define the decay width; a side
// without a bound uses the other side's width.
func scoreMatchTarget(p *contracts.ParameterConfig, raw RawValue) (float64, bool) {
	if raw.Number == nil {
		return 0, true
	}
	v := *raw.Number
	lowWidth, highWidth := matchWidths(p)
	if v == p.Target {
		return 1, false
	}
	if v < p.Target {
		if lowWidth <= 0 {
			return 0, false
		}
		return 1 - (p.Target-v)/lowWidth, false
	}
	if highWidth <= 0 {
		return 0, false
	}
	return 1 - (v-p.Target)/highWidth, false
}

func matchWidths(p *contracts.ParameterConfig) (low, high float64) {
	if p.Min != nil {
		low = p.Target - *p.Min
	}
	if p.Max != nil {
		high = *p.Max - p.Target
	}
	if low <= 0 {
		low = high
	}
	if high <= 0 {
		high = low
	}
	return low, high
}

// scoreDateCloser: utility decays linearly with absolute day distance from
// the target date, hitting 0 at the configured maximum distance.
func scoreDateCloser(p *contracts.ParameterConfig, raw RawValue) (float64, bool) {
	if raw.Date == nil || p.TargetDate == nil {
		return 0, true
	}
	maxDist := p.MaxDistanceDays
	if maxDist <= 0 {
		maxDist = 30
	}
	days := math.Abs(raw.Date.Sub(*p.TargetDate).Hours() / 24)
	if days >= float64(maxDist) {
		return 0, false
	}
	return 1 - days/float64(maxDist), false
}

// scoreStepped looks the selected option up in the option utility table;
// unrecognized options score 0.
func scoreStepped(p *contracts.ParameterConfig, raw RawValue) (float64, bool) {
	if raw.Option == nil {
		return 0, true
	}
	if u, ok := p.OptionUtilities[*raw.Option]; ok {
		return u, false
	}
	return 0, false
}

// scoreBoolean uses the configured polarity via the "true"/"false" option
// utilities, defaulting to 1.0 for true and 0.0 for false.
func scoreBoolean(p *contracts.ParameterConfig, raw RawValue) (float64, bool) {
	if raw.Bool == nil {
		return 0, true
	}
	key := "false"
	def := 0.0
	if *raw.Bool {
		key = "true"
		def = 1.0
	}
	if u, ok := p.OptionUtilities[key]; ok {
		return u, false
	}
	return def, false
}
