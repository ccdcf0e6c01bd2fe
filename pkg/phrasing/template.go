package phrasing

import (
	"fmt"
	"strings"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
)

// TemplateResponse renders a deterministic response for a decision. It is
// the zero-LLM fallback and must read acceptably on its own.
func TemplateResponse(decision *contracts.Decision, mesoSet *contracts.MesoSet, missing []string) string {
	switch decision.Action {
	case contracts.ActionAskClarify:
		return clarifyText(missing)
	case contracts.ActionAccept:
		return "Thank you, we accept your offer. We will send the purchase order shortly."
	case contracts.ActionWalkAway:
		return "Thank you for your time. Unfortunately the terms remain too far from what we can work with, so we will not be moving forward on this occasion."
	case contracts.ActionEscalate:
		return "Thank you for the updated terms. We are reviewing them internally with our procurement team and will come back to you."
	case contracts.ActionCounter:
		if mesoSet != nil {
			return mesoText(mesoSet)
		}
		return counterText(decision.CounterOffer)
	default:
		return "Thank you for your message. We will come back to you shortly."
	}
}

func clarifyText(missing []string) string {
	if len(missing) == 0 {
		return "Could you confirm the full commercial terms of your offer?"
	}
	labels := make([]string, 0, len(missing))
	for _, f := range missing {
		switch f {
		case contracts.FieldTotalPrice, contracts.FieldUnitPrice:
			labels = append(labels, "the price")
		case contracts.FieldPaymentTerms, contracts.FieldPaymentTermsDays:
			labels = append(labels, "the payment terms")
		case contracts.FieldDeliveryDays, contracts.FieldDeliveryDate:
			labels = append(labels, "the delivery timeline")
		default:
			labels = append(labels, strings.ReplaceAll(f, "_", " "))
		}
	}
	return fmt.Sprintf("Thanks for the details so far. To evaluate your offer we still need %s. Could you confirm?", joinNatural(labels))
}

func counterText(offer *contracts.Offer) string {
	if offer == nil {
		return "We appreciate the offer, but we need improved terms to move forward. Could you sharpen your proposal?"
	}
	var parts []string
	if p, ok := offer.Price(); ok {
		parts = append(parts, fmt.Sprintf("a price of %.2f", p))
	}
	if offer.PaymentTerms != nil {
		parts = append(parts, fmt.Sprintf("%s payment terms", *offer.PaymentTerms))
	} else if offer.PaymentTermsDays != nil {
		parts = append(parts, fmt.Sprintf("payment within %d days", *offer.PaymentTermsDays))
	}
	if offer.DeliveryDays != nil {
		parts = append(parts, fmt.Sprintf("delivery in %d days", *offer.DeliveryDays))
	}
	if offer.WarrantyMonths != nil {
		parts = append(parts, fmt.Sprintf("%d months of warranty", *offer.WarrantyMonths))
	}
	if len(parts) == 0 {
		return "We appreciate the offer, but we need improved terms to move forward."
	}
	return fmt.Sprintf("Thank you for your offer. To move forward we would need %s. Can you work with that?", joinNatural(parts))
}

func mesoText(set *contracts.MesoSet) string {
	var sb strings.Builder
	sb.WriteString("To find the best fit for both sides, here are a few equivalent packages we could work with:\n")
	for _, opt := range set.Options {
		sb.WriteString(fmt.Sprintf("- Option %s: %s\n", opt.Label, offerSummary(&opt.Offer)))
	}
	if set.IncludesOthers {
		sb.WriteString("- Others: if none of these work, tell us what package would.\n")
	}
	sb.WriteString("Which option works best for you?")
	return sb.String()
}

func offerSummary(offer *contracts.Offer) string {
	var parts []string
	if p, ok := offer.Price(); ok {
		parts = append(parts, fmt.Sprintf("price %.2f", p))
	}
	if offer.PaymentTerms != nil {
		parts = append(parts, *offer.PaymentTerms)
	} else if offer.PaymentTermsDays != nil {
		parts = append(parts, fmt.Sprintf("payment in %d days", *offer.PaymentTermsDays))
	}
	if offer.DeliveryDays != nil {
		parts = append(parts, fmt.Sprintf("delivery in %d days", *offer.DeliveryDays))
	}
	if offer.WarrantyMonths != nil {
		parts = append(parts, fmt.Sprintf("%d-month warranty", *offer.WarrantyMonths))
	}
	if len(parts) == 0 {
		return "terms as discussed"
	}
	return strings.Join(parts, ", ")
}

func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}
