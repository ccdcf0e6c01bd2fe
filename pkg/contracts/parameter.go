package contracts

import "time"

// UtilityType selects the scoring semantics for a negotiable parameter.
type UtilityType string

// Utility type constants.
const (
	UtilityLinear     UtilityType = "linear"
	UtilityBinary     UtilityType = "binary"
	UtilityStepped    UtilityType = "stepped"
	UtilityDate       UtilityType = "date"
	UtilityPercentage UtilityType = "percentage"
	UtilityBoolean    UtilityType = "boolean"
)

// Direction states which way a raw value improves for our side.
type Direction string

// Direction constants.
const (
	DirectionLowerBetter  Direction = "lower_better"
	DirectionHigherBetter Direction = "higher_better"
	DirectionMatchTarget  Direction = "match_target"
	DirectionCloserBetter Direction = "closer_better"
)

// ParameterConfig describes one negotiable attribute of a deal.
// It is created at deal-configuration time and never mutated once the
// negotiation starts; the engine only ever reads it.
type ParameterConfig struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Weight      float64     `json:"weight"` // 0-100; the aggregator normalizes
	UtilityType UtilityType `json:"utility_type"`
	Direction   Direction   `json:"direction"`

	// Target is the value at which utility is 1.0 for numeric semantics.
	Target float64 `json:"target"`

	// TargetDate replaces Target for date-typed parameters.
	TargetDate *time.Time `json:"target_date,omitempty"`

	// Min and Max bound the utility ramp. For lower_better, Max is the
	// zero-utility point; for higher_better, Min is. For match_target they
	// define the decay width on each side of the target.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	// MaxDistanceDays is the zero-utility day distance for date parameters.
	MaxDistanceDays int `json:"max_distance_days,omitempty"`

	// Options and OptionUtilities configure stepped parameters. Boolean
	// parameters may use the "true"/"false" keys of OptionUtilities to
	// override the default 1.0/0.0 polarity.
	Options         []string           `json:"options,omitempty"`
	OptionUtilities map[string]float64 `json:"option_utilities,omitempty"`

	// Mandatory parameters surface a critical status when the vendor has
	// not supplied a value yet.
	Mandatory bool `json:"mandatory,omitempty"`
}

// Priority hints used as a tie-break in concession allocation.
const (
	PriorityPrice    = "price"
	PriorityDelivery = "delivery"
	PriorityTerms    = "terms"
)

// NegotiationConfig is the frozen per-deal negotiation profile. It is built
// once from a requisition or template and snapshotted on the deal, so later
// template edits never alter an in-flight negotiation.
type NegotiationConfig struct {
	Parameters []ParameterConfig `json:"parameters"`

	// Thresholds are fractions of 1.0. accept >= escalate >= walkaway is
	// not enforced but expected to hold.
	AcceptThreshold   float64 `json:"accept_threshold"`
	EscalateThreshold float64 `json:"escalate_threshold"`
	WalkawayThreshold float64 `json:"walkaway_threshold"`

	// MaxRounds is the soft round cap; HardMaxRounds bounds extensions.
	// HardMaxRounds == 0 means MaxRounds plus the default extension room.
	MaxRounds     int `json:"max_rounds"`
	HardMaxRounds int `json:"hard_max_rounds,omitempty"`

	// Priority is the concession tie-break hint: price, delivery or terms.
	Priority string `json:"priority,omitempty"`

	// Currency is the deal currency used by the offer parser (ISO 4217).
	Currency string `json:"currency,omitempty"`
}

// Parameter returns the parameter with the given id, or nil.
func (c *NegotiationConfig) Parameter(id string) *ParameterConfig {
	for i := range c.Parameters {
		if c.Parameters[i].ID == id {
			return &c.Parameters[i]
		}
	}
	return nil
}
