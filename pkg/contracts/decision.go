package contracts

import "time"

// DecisionAction is the engine's per-turn verdict.
type DecisionAction string

// Decision action constants.
const (
	ActionAccept     DecisionAction = "ACCEPT"
	ActionCounter    DecisionAction = "COUNTER"
	ActionWalkAway   DecisionAction = "WALK_AWAY"
	ActionEscalate   DecisionAction = "ESCALATE"
	ActionAskClarify DecisionAction = "ASK_CLARIFY"
)

// UtilityBand is the per-parameter status band surfaced for explainability.
// Bands feed the UI, never the decision itself.
type UtilityBand string

// Utility band constants.
const (
	BandExcellent UtilityBand = "excellent"
	BandGood      UtilityBand = "good"
	BandWarning   UtilityBand = "warning"
	BandCritical  UtilityBand = "critical"
)

// ParameterUtility is the scored result for one parameter. Utility is nil
// when the vendor has not supplied a value; such parameters are excluded
// from aggregation rather than scored as zero.
type ParameterUtility struct {
	ParameterID string      `json:"parameter_id"`
	Utility     *float64    `json:"utility,omitempty"` // [0,1]
	Band        UtilityBand `json:"band"`
	// Clamped is set when a misconfigured parameter produced a value
	// outside [0,1] (or NaN) that was forced back into range.
	Clamped bool `json:"clamped,omitempty"`
}

// WeightedUtilityResult is the aggregate scoring outcome for one offer.
type WeightedUtilityResult struct {
	// Total is the weighted mean utility over parameters with a known
	// value, in [0,1].
	Total float64 `json:"total"`
	// Recommendation is the advisory threshold band; the decision engine
	// may override it.
	Recommendation DecisionAction `json:"recommendation"`
	// Parameters maps parameter id to its scored utility.
	Parameters map[string]ParameterUtility `json:"parameters"`
	// UsedWeight is the weight mass of parameters that contributed.
	UsedWeight float64 `json:"used_weight"`
	// Missing lists parameter ids excluded for lack of a raw value.
	Missing []string `json:"missing,omitempty"`
}

// Decision is the immutable per-turn output record. It is appended to the
// deal's message history and never edited afterwards.
type Decision struct {
	DecisionID string         `json:"decision_id"`
	DealID     string         `json:"deal_id"`
	MessageID  string         `json:"message_id"`
	Round      int            `json:"round"`
	Action     DecisionAction `json:"action"`

	// UtilityScore is nil for ASK_CLARIFY turns, where no utility is
	// computed.
	UtilityScore       *float64                    `json:"utility_score,omitempty"`
	CounterOffer       *Offer                      `json:"counter_offer,omitempty"`
	Reasons            []string                    `json:"reasons"`
	ParameterUtilities map[string]ParameterUtility `json:"parameter_utilities,omitempty"`

	// ContentHash is the SHA-256 of the canonical (RFC 8785) form of the
	// record with this field empty, for audit linkage.
	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
