package contracts

// MesoOption is one of several equivalent simultaneous offers: equal utility
// for the proposing side, different parameter trade-offs.
type MesoOption struct {
	Label     string   `json:"label"` // "A", "B", "C"
	Offer     Offer    `json:"offer"`
	Utility   float64  `json:"utility"`
	Emphasis  string   `json:"emphasis"` // parameter id this option favors the vendor on
	Tradeoffs []string `json:"tradeoffs,omitempty"`
}

// MesoSet is a generated set of equivalent offers presented in place of a
// single counter. IncludesOthers is false once the negotiation has entered
// its final-MESO phase.
type MesoSet struct {
	Options        []MesoOption `json:"options"`
	IncludesOthers bool         `json:"includes_others"`
	TargetUtility  float64      `json:"target_utility"`
	Cycle          int          `json:"cycle"`
}

// MesoSelection records which option a vendor picked from a presented set.
// Others selections carry no emphasis signal and only count toward the
// observation total.
type MesoSelection struct {
	Set    MesoSet `json:"set"`
	Label  string  `json:"label,omitempty"`
	Others bool    `json:"others,omitempty"`
}

// InferredPreferences is the relative parameter weighting implied by which
// trade-offs a vendor accepted across MESO rounds.
type InferredPreferences struct {
	// Weights maps parameter id to an inferred relative weight; weights
	// sum to 1 over the parameters observed.
	Weights map[string]float64 `json:"weights"`
	// Confidence grows with the number of MESO selections observed.
	Confidence float64 `json:"confidence"`
	// ObservedRounds is the number of MESO selections the inference rests on.
	ObservedRounds int `json:"observed_rounds"`
}
