// Package utility scores offers: a per-parameter utility calculator built as
// a closed set of pure functions selected by (utility type, direction), and a
// weighted aggregator that turns per-parameter utilities into one total score
// and an advisory recommendation.
package utility

import (
	"time"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
)

// Well-known parameter ids bound to offer fields. Custom parameters use any
// other id and simply have no extractable raw value until a collaborator
// supplies one.
const (
	ParamPrice           = "price"
	ParamPaymentTerms    = "payment_terms"
	ParamDelivery        = "delivery"
	ParamWarranty        = "warranty"
	ParamPartialDelivery = "partial_delivery"
)

// RawValue is the typed raw reading of one parameter from an offer. All
// fields nil means the vendor has not stated the parameter yet.
type RawValue struct {
	Number *float64
	Option *string
	Bool   *bool
	Date   *time.Time
}

// IsMissing reports whether no reading is available.
func (r RawValue) IsMissing() bool {
	return r.Number == nil && r.Option == nil && r.Bool == nil && r.Date == nil
}

// ExtractRaw reads the raw value for a parameter out of an offer. The
// mapping follows the fixed field menu: price, payment terms (days),
// delivery (days or date), warranty (months), partial delivery (bool).
func ExtractRaw(p *contracts.ParameterConfig, offer *contracts.Offer) RawValue {
	switch p.ID {
	case ParamPrice:
		if v, ok := offer.Price(); ok {
			return RawValue{Number: &v}
		}
	case ParamPaymentTerms:
		if offer.PaymentTermsDays != nil {
			v := float64(*offer.PaymentTermsDays)
			return RawValue{Number: &v, Option: offer.PaymentTerms}
		}
		if offer.PaymentTerms != nil {
			return RawValue{Option: offer.PaymentTerms}
		}
	case ParamDelivery:
		if p.UtilityType == contracts.UtilityDate {
			if offer.DeliveryDate != nil {
				return RawValue{Date: offer.DeliveryDate}
			}
			return RawValue{}
		}
		if offer.DeliveryDays != nil {
			v := float64(*offer.DeliveryDays)
			return RawValue{Number: &v}
		}
	case ParamWarranty:
		if offer.WarrantyMonths != nil {
			v := float64(*offer.WarrantyMonths)
			return RawValue{Number: &v}
		}
	case ParamPartialDelivery:
		if offer.PartialDeliveryAllowed != nil {
			return RawValue{Bool: offer.PartialDeliveryAllowed}
		}
	}
	return RawValue{}
}
