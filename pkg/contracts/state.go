package contracts

import "time"

// NegotiationStatus is the deal-level negotiation lifecycle state.
// Once a deal leaves NEGOTIATING the status is terminal; there are no
// transitions out of ACCEPTED, WALKED_AWAY or ESCALATED.
type NegotiationStatus string

// Negotiation status constants.
const (
	StatusNegotiating NegotiationStatus = "NEGOTIATING"
	StatusAccepted    NegotiationStatus = "ACCEPTED"
	StatusWalkedAway  NegotiationStatus = "WALKED_AWAY"
	StatusEscalated   NegotiationStatus = "ESCALATED"
)

// Terminal reports whether the status permits no further transitions.
func (s NegotiationStatus) Terminal() bool {
	return s != StatusNegotiating && s != ""
}

// OfferSide identifies which party produced an offer in the round history.
type OfferSide string

// Offer side constants.
const (
	SideVendor OfferSide = "vendor"
	SideOwn    OfferSide = "own"
)

// RoundOffer is one entry of the ordered round-indexed offer history
// consumed by the behavioral analyzer.
type RoundOffer struct {
	Round int       `json:"round"`
	Side  OfferSide `json:"side"`
	Offer Offer     `json:"offer"`
}

// MesoCycleState tracks where the deal sits in the MESO phase sequence.
type MesoCycleState struct {
	// Cycle counts completed MESO cycles for the deal.
	Cycle int `json:"cycle"`
	// RoundsSinceOthers counts plain rounds since the vendor last picked
	// the free-form "Others" option.
	RoundsSinceOthers int `json:"rounds_since_others"`
	// OthersSelections counts how often the vendor chose "Others".
	OthersSelections int `json:"others_selections"`
	// InPostOthersPhase is set after an "Others" selection until the next
	// MESO boundary.
	InPostOthersPhase bool `json:"in_post_others_phase"`
}

// FinalOfferState tracks the endgame signals of a stalled negotiation.
type FinalOfferState struct {
	// VendorConfirmedFinal is set when the vendor explicitly confirmed
	// their latest offer as final.
	VendorConfirmedFinal bool `json:"vendor_confirmed_final"`
	// StalledPrice is the price the vendor is holding at, if stalled.
	StalledPrice *float64 `json:"stalled_price,omitempty"`
	// FinalMesoShown is set once the final MESO set (without "Others")
	// has been presented.
	FinalMesoShown bool `json:"final_meso_shown"`
}

// NegotiationState is the per-deal mutable negotiation state. It has a
// single writer (the decision engine), advances once per vendor turn, and
// freezes on a terminal status. It is passed by value through the engine
// and persisted as one atomic write per turn.
type NegotiationState struct {
	DealID string            `json:"deal_id"`
	Round  int               `json:"round"` // monotonic, one per decided turn
	Status NegotiationStatus `json:"status"`

	Accumulated        AccumulatedOffer `json:"accumulated"`
	LatestVendorOffer  *Offer           `json:"latest_vendor_offer,omitempty"`
	LatestCounterOffer *Offer           `json:"latest_counter_offer,omitempty"`
	LatestUtility      *float64         `json:"latest_utility,omitempty"`

	Meso       MesoCycleState  `json:"meso"`
	FinalOffer FinalOfferState `json:"final_offer"`

	// LatestMesoSet is the most recently presented MESO set, kept so the
	// next vendor message can be matched against its option labels.
	LatestMesoSet *MesoSet `json:"latest_meso_set,omitempty"`

	// MesoSelections is the ordered record of option picks, consumed by
	// the preference inference pass.
	MesoSelections []MesoSelection `json:"meso_selections,omitempty"`

	// InferredPreferences is the weighting implied by those picks,
	// refreshed after every matched selection.
	InferredPreferences *InferredPreferences `json:"inferred_preferences,omitempty"`

	// History is the ordered round-indexed offer history (both sides).
	History []RoundOffer `json:"history,omitempty"`

	// SoftMaxRounds is the current effective soft cap, starting at the
	// config's MaxRounds and extended by the round-limit policy.
	SoftMaxRounds int `json:"soft_max_rounds"`

	// StallRounds counts consecutive rounds of near-zero vendor concession.
	StallRounds int `json:"stall_rounds"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewNegotiationState returns the initial state for a deal entering
// negotiation under the given config.
func NewNegotiationState(dealID string, cfg *NegotiationConfig) NegotiationState {
	return NegotiationState{
		DealID:        dealID,
		Round:         0,
		Status:        StatusNegotiating,
		SoftMaxRounds: cfg.MaxRounds,
		Accumulated:   AccumulatedOffer{Sources: map[string]string{}},
	}
}

// PriorDeal is one prior closed deal with the same counterpart, consumed by
// the historical anchor adjuster.
type PriorDeal struct {
	VendorID    string            `json:"vendor_id"`
	Outcome     NegotiationStatus `json:"outcome"`
	FinalPrice  float64           `json:"final_price"`
	TargetPrice float64           `json:"target_price"`
	ClosedAt    time.Time         `json:"closed_at"`
}
