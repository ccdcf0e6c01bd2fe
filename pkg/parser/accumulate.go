package parser

import (
	"github.com/accordo-ai/negotiation-core/pkg/contracts"
)

// ShouldResetAccumulation reports whether a raw offer is a complete
// single-message offer (price and terms both present). Such an offer
// replaces the accumulation state instead of merging into it, so stale
// partial data never mixes with a fresh complete offer.
func ShouldResetAccumulation(raw *contracts.Offer) bool {
	return raw.HasPrice() && raw.HasTerms()
}

// Merge folds a raw offer into the previous accumulation state. Every field
// present in raw overwrites; every field absent in raw keeps the previous
// value and its source message id. A previously-known field is only ever
// replaced by an explicit overriding value for that exact field.
func Merge(prev contracts.AccumulatedOffer, raw *contracts.Offer, messageID string) contracts.AccumulatedOffer {
	out := prev
	out.Sources = make(map[string]string, len(prev.Sources)+4)
	for k, v := range prev.Sources {
		out.Sources[k] = v
	}

	if raw.TotalPrice != nil {
		out.Offer.TotalPrice = raw.TotalPrice
		out.Sources[contracts.FieldTotalPrice] = messageID
	}
	if raw.UnitPrice != nil {
		out.Offer.UnitPrice = raw.UnitPrice
		out.Sources[contracts.FieldUnitPrice] = messageID
	}
	if raw.PaymentTerms != nil {
		out.Offer.PaymentTerms = raw.PaymentTerms
		out.Sources[contracts.FieldPaymentTerms] = messageID
	}
	if raw.PaymentTermsDays != nil {
		out.Offer.PaymentTermsDays = raw.PaymentTermsDays
		out.Sources[contracts.FieldPaymentTermsDays] = messageID
	}
	if raw.DeliveryDays != nil {
		out.Offer.DeliveryDays = raw.DeliveryDays
		out.Sources[contracts.FieldDeliveryDays] = messageID
	}
	if raw.DeliveryDate != nil {
		out.Offer.DeliveryDate = raw.DeliveryDate
		out.Sources[contracts.FieldDeliveryDate] = messageID
	}
	if raw.WarrantyMonths != nil {
		out.Offer.WarrantyMonths = raw.WarrantyMonths
		out.Sources[contracts.FieldWarrantyMonths] = messageID
	}
	if raw.PartialDeliveryAllowed != nil {
		out.Offer.PartialDeliveryAllowed = raw.PartialDeliveryAllowed
		out.Sources[contracts.FieldPartialDeliveryAllowed] = messageID
	}

	out.RecomputeComplete()
	return out
}

// Reset replaces the accumulation state with a fresh complete offer.
func Reset(raw *contracts.Offer, messageID string) contracts.AccumulatedOffer {
	return Merge(contracts.AccumulatedOffer{}, raw, messageID)
}

// MissingComponents returns the field names the decision engine still needs
// before it can score the offer. Price counts as provided in either form,
// as do payment terms.
func MissingComponents(acc *contracts.AccumulatedOffer) []string {
	var missing []string
	if !acc.Offer.HasPrice() {
		missing = append(missing, contracts.FieldTotalPrice)
	}
	if !acc.Offer.HasTerms() {
		missing = append(missing, contracts.FieldPaymentTerms)
	}
	return missing
}

// ProvidedComponents returns the field names the accumulated offer has
// values for.
func ProvidedComponents(acc *contracts.AccumulatedOffer) []string {
	var provided []string
	o := &acc.Offer
	if o.TotalPrice != nil {
		provided = append(provided, contracts.FieldTotalPrice)
	}
	if o.UnitPrice != nil {
		provided = append(provided, contracts.FieldUnitPrice)
	}
	if o.PaymentTerms != nil || o.PaymentTermsDays != nil {
		provided = append(provided, contracts.FieldPaymentTerms)
	}
	if o.DeliveryDays != nil || o.DeliveryDate != nil {
		provided = append(provided, contracts.FieldDeliveryDays)
	}
	if o.WarrantyMonths != nil {
		provided = append(provided, contracts.FieldWarrantyMonths)
	}
	if o.PartialDeliveryAllowed != nil {
		provided = append(provided, contracts.FieldPartialDeliveryAllowed)
	}
	return provided
}
