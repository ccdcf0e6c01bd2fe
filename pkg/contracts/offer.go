package contracts

import "time"

// Offer is a structured vendor or buyer offer. Every field is a pointer:
// nil means "not stated in any message so far", which is distinct from an
// explicit zero. The parser never guesses a field it cannot anchor to an
// explicit phrase.
type Offer struct {
	TotalPrice             *float64   `json:"total_price,omitempty"`
	UnitPrice              *float64   `json:"unit_price,omitempty"`
	PaymentTerms           *string    `json:"payment_terms,omitempty"` // label, e.g. "Net 30"
	PaymentTermsDays       *int       `json:"payment_terms_days,omitempty"`
	DeliveryDays           *int       `json:"delivery_days,omitempty"`
	DeliveryDate           *time.Time `json:"delivery_date,omitempty"`
	WarrantyMonths         *int       `json:"warranty_months,omitempty"`
	PartialDeliveryAllowed *bool      `json:"partial_delivery_allowed,omitempty"`
}

// Offer field names used for provenance tracking and clarify prompts.
const (
	FieldTotalPrice             = "total_price"
	FieldUnitPrice              = "unit_price"
	FieldPaymentTerms           = "payment_terms"
	FieldPaymentTermsDays       = "payment_terms_days"
	FieldDeliveryDays           = "delivery_days"
	FieldDeliveryDate           = "delivery_date"
	FieldWarrantyMonths         = "warranty_months"
	FieldPartialDeliveryAllowed = "partial_delivery_allowed"
)

// HasPrice reports whether either price form is known.
func (o *Offer) HasPrice() bool {
	return o.TotalPrice != nil || o.UnitPrice != nil
}

// HasTerms reports whether payment terms are known in either form.
func (o *Offer) HasTerms() bool {
	return o.PaymentTerms != nil || o.PaymentTermsDays != nil
}

// Price returns the effective price (total preferred over unit) and whether
// one is set.
func (o *Offer) Price() (float64, bool) {
	if o.TotalPrice != nil {
		return *o.TotalPrice, true
	}
	if o.UnitPrice != nil {
		return *o.UnitPrice, true
	}
	return 0, false
}

// IsEmpty reports whether no field at all is populated.
func (o *Offer) IsEmpty() bool {
	return o.TotalPrice == nil && o.UnitPrice == nil &&
		o.PaymentTerms == nil && o.PaymentTermsDays == nil &&
		o.DeliveryDays == nil && o.DeliveryDate == nil &&
		o.WarrantyMonths == nil && o.PartialDeliveryAllowed == nil
}

// AccumulatedOffer is an offer whose fields were progressively filled in
// across multiple vendor messages. Sources records, per field name, the id
// of the vendor message that last supplied the field.
type AccumulatedOffer struct {
	Offer      Offer             `json:"offer"`
	Sources    map[string]string `json:"sources,omitempty"`
	IsComplete bool              `json:"is_complete"`
}

// RecomputeComplete refreshes IsComplete: an accumulated offer is complete
// once price and payment terms are both known.
func (a *AccumulatedOffer) RecomputeComplete() {
	a.IsComplete = a.Offer.HasPrice() && a.Offer.HasTerms()
}
