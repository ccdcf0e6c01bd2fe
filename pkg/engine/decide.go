package engine

import (
	"fmt"

	"github.com/accordo-ai/negotiation-core/pkg/behavior"
	"github.com/accordo-ai/negotiation-core/pkg/contracts"
	"github.com/accordo-ai/negotiation-core/pkg/meso"
	"github.com/accordo-ai/negotiation-core/pkg/parser"
	"github.com/accordo-ai/negotiation-core/pkg/utility"
)

// mesoInterval is how many decided rounds of plain negotiation sit between
// MESO presentations.
const mesoInterval = 5

// maxMesoCycles is the stall ceiling: once this many MESO cycles have run
// without movement the negotiation escalates to a human.
const maxMesoCycles = 5

// turnInput is everything a single vendor turn needs beyond the frozen
// config and current state. The engine resolves the anchor adjustment and
// message id before calling decide, keeping decide itself pure.
type turnInput struct {
	MessageID    string
	Text         string
	AnchorAdjust float64 // signed fraction of the target price
}

// turnOutcome is the full result of one decided turn before persistence
// metadata (id, hash, timestamps) is attached.
type turnOutcome struct {
	Decision contracts.Decision
	State    contracts.NegotiationState
	MesoSet  *contracts.MesoSet
	Missing  []string
}

// decide runs one vendor turn through the negotiation state machine. It is
// pure and total over its inputs: it never blocks, never performs I/O, and
// always produces a decision. State is taken by value and the advanced copy
// is returned.
func decide(cfg *contracts.NegotiationConfig, state contracts.NegotiationState, gen *meso.Generator, in turnInput) (turnOutcome, error) {
	raw := parser.Parse(in.Text, cfg.Currency)
	reasons := []string{}

	// A pending MESO set is matched against the vendor's reply before
	// anything else; the pick both reveals preferences and may carry the
	// picked option's values into this turn's offer.
	if state.LatestMesoSet != nil {
		if label, others, ok := parser.MesoSelection(in.Text); ok {
			sel := contracts.MesoSelection{Set: *state.LatestMesoSet, Label: label, Others: others}
			state.MesoSelections = append(state.MesoSelections, sel)
			if others {
				state.Meso.OthersSelections++
				state.Meso.InPostOthersPhase = true
				state.Meso.RoundsSinceOthers = 0
				reasons = append(reasons, "vendor declined presented options and proposed their own terms")
			} else if opt := findOption(state.LatestMesoSet, label); opt != nil {
				raw = overlayOffer(raw, opt.Offer)
				reasons = append(reasons, fmt.Sprintf("vendor selected presented option %s", label))
			}
			state.LatestMesoSet = nil

			prefs := meso.InferPreferences(state.MesoSelections)
			state.InferredPreferences = &prefs
		}
	}

	if parser.IsFinalOfferSignal(in.Text) {
		state.FinalOffer.VendorConfirmedFinal = true
		if price, ok := raw.Price(); ok {
			state.FinalOffer.StalledPrice = &price
		}
	}

	// Accumulate. A complete single message supersedes earlier fragments.
	if parser.ShouldResetAccumulation(&raw) {
		state.Accumulated = parser.Reset(&raw, in.MessageID)
	} else {
		state.Accumulated = parser.Merge(state.Accumulated, &raw, in.MessageID)
	}

	if !state.Accumulated.IsComplete {
		missing := parser.MissingComponents(&state.Accumulated)
		for _, m := range missing {
			reasons = append(reasons, fmt.Sprintf("offer incomplete: %s not stated", m))
		}
		return turnOutcome{
			Decision: contracts.Decision{
				DealID:    state.DealID,
				MessageID: in.MessageID,
				Round:     state.Round, // not incremented on clarify
				Action:    contracts.ActionAskClarify,
				Reasons:   reasons,
			},
			State:   state,
			Missing: missing,
		}, nil
	}

	// The accumulated offer is decidable: this is a real round.
	state.Round++
	vendorOffer := state.Accumulated.Offer
	state.LatestVendorOffer = &vendorOffer
	state.History = append(state.History, contracts.RoundOffer{
		Round: state.Round,
		Side:  contracts.SideVendor,
		Offer: vendorOffer,
	})

	result, err := utility.Aggregate(cfg, &vendorOffer)
	if err != nil {
		return turnOutcome{}, fmt.Errorf("aggregate utility for deal %s: %w", state.DealID, err)
	}
	total := result.Total
	state.LatestUtility = &total
	for id, pu := range result.Parameters {
		if pu.Clamped {
			reasons = append(reasons, fmt.Sprintf("utility for %s clamped into [0,1]", id))
		}
	}

	analysis := behavior.Analyze(state.History)
	if analysis.Stalled {
		state.StallRounds++
	} else {
		state.StallRounds = 0
	}

	policy := behavior.NewRoundPolicy(cfg.MaxRounds, cfg.HardMaxRounds)
	sig := policy.Evaluate(state.Round, state.SoftMaxRounds, state.StallRounds, analysis)
	state.SoftMaxRounds = sig.SoftMax
	if sig.Extended {
		reasons = append(reasons, fmt.Sprintf("negotiation converging, round cap extended to %d", sig.SoftMax))
	}

	decision := contracts.Decision{
		DealID:             state.DealID,
		MessageID:          in.MessageID,
		Round:              state.Round,
		UtilityScore:       &total,
		ParameterUtilities: result.Parameters,
	}

	switch {
	case total >= cfg.AcceptThreshold:
		decision.Action = contracts.ActionAccept
		state.Status = contracts.StatusAccepted
		reasons = append(reasons, fmt.Sprintf("utility %.3f meets accept threshold %.2f", total, cfg.AcceptThreshold))

	case total < cfg.WalkawayThreshold && (sig.LimitExceeded || vendorFinalAndStalled(state, analysis)):
		decision.Action = contracts.ActionWalkAway
		state.Status = contracts.StatusWalkedAway
		reasons = append(reasons, fmt.Sprintf("utility %.3f below walkaway threshold %.2f", total, cfg.WalkawayThreshold))
		if sig.LimitExceeded {
			reasons = append(reasons, fmt.Sprintf("round limit %d exhausted", sig.SoftMax))
		} else {
			reasons = append(reasons, "vendor confirmed final offer at an unacceptable level")
		}

	case shouldEscalate(cfg, state, analysis, sig, total):
		decision.Action = contracts.ActionEscalate
		state.Status = contracts.StatusEscalated
		if state.Meso.Cycle >= maxMesoCycles && analysis.Stalled {
			reasons = append(reasons, fmt.Sprintf("negotiation stalled across %d trade-off cycles", state.Meso.Cycle))
		} else {
			reasons = append(reasons, fmt.Sprintf("utility %.3f below escalate threshold %.2f at round limit", total, cfg.EscalateThreshold))
		}

	default:
		var mesoSet *contracts.MesoSet
		decision.Action = contracts.ActionCounter

		switch {
		case finalMesoDue(state, analysis):
			set, genErr := gen.Generate(cfg, cfg.AcceptThreshold, state.Meso.Cycle+1, true)
			if genErr == nil {
				mesoSet = set
				state.FinalOffer.FinalMesoShown = true
				state.Meso.Cycle++
				state.LatestMesoSet = set
				reasons = append(reasons, "vendor holding at final price, presenting closing trade-off options")
			}
		case mesoDue(state):
			set, genErr := gen.Generate(cfg, cfg.AcceptThreshold, state.Meso.Cycle+1, false)
			if genErr == nil {
				mesoSet = set
				state.Meso.Cycle++
				state.Meso.InPostOthersPhase = false
				state.LatestMesoSet = set
				reasons = append(reasons, fmt.Sprintf("presenting equivalent trade-off options, cycle %d", state.Meso.Cycle))
			}
		}

		if mesoSet == nil {
			counter, counterReasons := buildCounter(cfg, &state, analysis, in.AnchorAdjust)
			decision.CounterOffer = &counter
			state.LatestCounterOffer = &counter
			state.History = append(state.History, contracts.RoundOffer{
				Round: state.Round,
				Side:  contracts.SideOwn,
				Offer: counter,
			})
			reasons = append(reasons, counterReasons...)
		}

		state.Meso.RoundsSinceOthers++

		return finishTurn(decision, reasons, state, mesoSet), nil
	}

	return finishTurn(decision, reasons, state, nil), nil
}

func finishTurn(decision contracts.Decision, reasons []string, state contracts.NegotiationState, set *contracts.MesoSet) turnOutcome {
	decision.Reasons = reasons
	return turnOutcome{Decision: decision, State: state, MesoSet: set}
}

func vendorFinalAndStalled(state contracts.NegotiationState, a behavior.Analysis) bool {
	return state.FinalOffer.VendorConfirmedFinal && a.Stalled
}

func shouldEscalate(cfg *contracts.NegotiationConfig, state contracts.NegotiationState, a behavior.Analysis, sig behavior.RoundSignal, total float64) bool {
	if state.Meso.Cycle >= maxMesoCycles && a.Stalled {
		return true
	}
	return total < cfg.EscalateThreshold && total >= cfg.WalkawayThreshold &&
		(sig.LimitExceeded || sig.EarlyEscalate)
}

// finalMesoDue gates the one-shot closing MESO: the vendor has confirmed a
// final offer, movement has stopped, and the closing set has not yet been
// shown.
func finalMesoDue(state contracts.NegotiationState, a behavior.Analysis) bool {
	return state.FinalOffer.VendorConfirmedFinal && a.Stalled && !state.FinalOffer.FinalMesoShown
}

// mesoDue gates the periodic MESO boundary: every mesoInterval decided
// rounds of plain negotiation.
func mesoDue(state contracts.NegotiationState) bool {
	return state.Round > 0 && state.Round%mesoInterval == 0
}

func findOption(set *contracts.MesoSet, label string) *contracts.MesoOption {
	for i := range set.Options {
		if set.Options[i].Label == label {
			return &set.Options[i]
		}
	}
	return nil
}

// overlayOffer fills fields the vendor's message left unstated with the
// values of the option they picked. Explicit message values win.
func overlayOffer(msg contracts.Offer, opt contracts.Offer) contracts.Offer {
	if msg.TotalPrice == nil {
		msg.TotalPrice = opt.TotalPrice
	}
	if msg.UnitPrice == nil {
		msg.UnitPrice = opt.UnitPrice
	}
	if msg.PaymentTerms == nil {
		msg.PaymentTerms = opt.PaymentTerms
	}
	if msg.PaymentTermsDays == nil {
		msg.PaymentTermsDays = opt.PaymentTermsDays
	}
	if msg.DeliveryDays == nil {
		msg.DeliveryDays = opt.DeliveryDays
	}
	if msg.DeliveryDate == nil {
		msg.DeliveryDate = opt.DeliveryDate
	}
	if msg.WarrantyMonths == nil {
		msg.WarrantyMonths = opt.WarrantyMonths
	}
	if msg.PartialDeliveryAllowed == nil {
		msg.PartialDeliveryAllowed = opt.PartialDeliveryAllowed
	}
	return msg
}
