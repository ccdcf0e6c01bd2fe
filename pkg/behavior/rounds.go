package behavior

// RoundPolicy governs the soft and hard round caps. The soft cap starts at
// the config's max rounds; when the negotiation is converging near the soft
// cap the policy extends it by a fixed increment, bounded by the hard cap.
// When the vendor has been stalling near the soft cap it signals early
// escalation instead of waiting the cap out.
type RoundPolicy struct {
	HardMax int // absolute ceiling; extensions never pass it
	// ExtendBy is the fixed extension increment. Zero means the default.
	ExtendBy int
	// NearWindow is how many rounds before the soft cap count as "near".
	NearWindow int
	// StallRoundsToEscalate is how many consecutive stalled rounds near the
	// cap trigger early escalation.
	StallRoundsToEscalate int
}

// Default policy knobs.
const (
	defaultExtendBy   = 3
	defaultNearWindow = 2
	defaultStallLimit = 3
	// defaultHardMargin is the room past the soft cap when no hard cap is
	// configured.
	defaultHardMargin = 6
)

// NewRoundPolicy builds a policy from the config caps. hardMax of zero
// derives a hard cap from the soft cap plus the default margin.
func NewRoundPolicy(softMax, hardMax int) RoundPolicy {
	if hardMax <= 0 {
		hardMax = softMax + defaultHardMargin
	}
	return RoundPolicy{
		HardMax:               hardMax,
		ExtendBy:              defaultExtendBy,
		NearWindow:            defaultNearWindow,
		StallRoundsToEscalate: defaultStallLimit,
	}
}

// RoundSignal is the per-turn output of the round-limit policy.
type RoundSignal struct {
	// SoftMax is the effective soft cap after this turn, possibly extended.
	SoftMax int
	// Extended is set when this turn extended the cap.
	Extended bool
	// EarlyEscalate is set when stalling near the cap should cut the
	// negotiation short rather than ride it to the limit.
	EarlyEscalate bool
	// LimitExceeded is set once the round has passed the effective cap.
	LimitExceeded bool
}

// Evaluate applies the round-limit policy for the current round.
// softMax is the deal's current effective soft cap; stallRounds is the
// number of consecutive stalled rounds observed so far.
func (p RoundPolicy) Evaluate(round, softMax, stallRounds int, a Analysis) RoundSignal {
	sig := RoundSignal{SoftMax: softMax}

	near := round >= softMax-p.nearWindow()
	converging := a.ConvergenceSlope < 0 && a.ConcessionVelocity > 0

	if near && converging && softMax < p.HardMax {
		extended := softMax + p.extendBy()
		if extended > p.HardMax {
			extended = p.HardMax
		}
		sig.SoftMax = extended
		sig.Extended = true
	}

	if near && a.Stalled && stallRounds >= p.stallLimit() {
		sig.EarlyEscalate = true
	}

	sig.LimitExceeded = round >= sig.SoftMax
	return sig
}

func (p RoundPolicy) extendBy() int {
	if p.ExtendBy > 0 {
		return p.ExtendBy
	}
	return defaultExtendBy
}

func (p RoundPolicy) nearWindow() int {
	if p.NearWindow > 0 {
		return p.NearWindow
	}
	return defaultNearWindow
}

func (p RoundPolicy) stallLimit() int {
	if p.StallRoundsToEscalate > 0 {
		return p.StallRoundsToEscalate
	}
	return defaultStallLimit
}
