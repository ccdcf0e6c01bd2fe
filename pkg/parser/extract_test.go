package parser_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accordo-ai/negotiation-core/pkg/parser"
)

// TestParse_PriceAndNetTerms pins the reference message: "We can do $95
// with Net 30" yields total_price 95 and payment terms Net 30 / 30 days,
// with every other field unset.
func TestParse_PriceAndNetTerms(t *testing.T) {
	offer := parser.Parse("We can do $95 with Net 30", "USD")

	require.NotNil(t, offer.TotalPrice)
	assert.Equal(t, 95.0, *offer.TotalPrice)
	require.NotNil(t, offer.PaymentTerms)
	assert.Equal(t, "Net 30", *offer.PaymentTerms)
	require.NotNil(t, offer.PaymentTermsDays)
	assert.Equal(t, 30, *offer.PaymentTermsDays)

	assert.Nil(t, offer.UnitPrice)
	assert.Nil(t, offer.DeliveryDays)
	assert.Nil(t, offer.DeliveryDate)
	assert.Nil(t, offer.WarrantyMonths)
	assert.Nil(t, offer.PartialDeliveryAllowed)
}

func TestParse_WordCurrencyAndThousands(t *testing.T) {
	offer := parser.Parse("Our quote is 1,250.50 USD all-in", "USD")
	require.NotNil(t, offer.TotalPrice)
	assert.Equal(t, 1250.50, *offer.TotalPrice)
}

// TestParse_CurrencyConversion verifies the fixed-table conversion into the
// deal currency: 100 EUR at 1.08 USD/EUR is 108 USD.
func TestParse_CurrencyConversion(t *testing.T) {
	offer := parser.Parse("We can offer €100 per order", "USD")
	require.NotNil(t, offer.TotalPrice)
	assert.InDelta(t, 108.0, *offer.TotalPrice, 1e-9)

	// GBP deal currency: 100 USD -> 100/1.27 GBP.
	offer = parser.Parse("Final number is $100", "GBP")
	require.NotNil(t, offer.TotalPrice)
	assert.InDelta(t, 100.0/1.27, *offer.TotalPrice, 1e-9)
}

func TestParse_UnitPriceHint(t *testing.T) {
	offer := parser.Parse("We can do $12.50 per unit", "USD")
	require.NotNil(t, offer.UnitPrice)
	assert.Equal(t, 12.50, *offer.UnitPrice)
	assert.Nil(t, offer.TotalPrice)
}

// TestParse_FirstLabeledPriceWins verifies the ambiguity rule: with two
// explicit prices in one message, the earliest wins; nothing is averaged or
// guessed.
func TestParse_FirstLabeledPriceWins(t *testing.T) {
	offer := parser.Parse("We quoted $110 before, but can now do $104", "USD")
	require.NotNil(t, offer.TotalPrice)
	assert.Equal(t, 110.0, *offer.TotalPrice)
}

// TestParse_BareNumbersIgnored verifies that numbers without a currency or
// label never populate the price.
func TestParse_BareNumbersIgnored(t *testing.T) {
	offer := parser.Parse("We shipped 500 units to 3 sites last quarter", "USD")
	assert.Nil(t, offer.TotalPrice)
	assert.Nil(t, offer.UnitPrice)
}

func TestParse_PaymentTermsVariants(t *testing.T) {
	offer := parser.Parse("Payment within 45 days of invoice", "USD")
	require.NotNil(t, offer.PaymentTermsDays)
	assert.Equal(t, 45, *offer.PaymentTermsDays)

	offer = parser.Parse("We require 60 day terms", "USD")
	require.NotNil(t, offer.PaymentTermsDays)
	assert.Equal(t, 60, *offer.PaymentTermsDays)
}

func TestParse_DeliveryDays(t *testing.T) {
	offer := parser.Parse("We can deliver in 21 days", "USD")
	require.NotNil(t, offer.DeliveryDays)
	assert.Equal(t, 21, *offer.DeliveryDays)

	offer = parser.Parse("10-day delivery is doable", "USD")
	require.NotNil(t, offer.DeliveryDays)
	assert.Equal(t, 10, *offer.DeliveryDays)
}

func TestParse_DeliveryDates(t *testing.T) {
	offer := parser.Parse("We would ship by 2026-09-15", "USD")
	require.NotNil(t, offer.DeliveryDate)
	assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), *offer.DeliveryDate)

	offer = parser.Parse("Delivery on October 3rd, 2026", "USD")
	require.NotNil(t, offer.DeliveryDate)
	assert.Equal(t, time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC), *offer.DeliveryDate)
}

func TestParse_Warranty(t *testing.T) {
	offer := parser.Parse("Includes a 2-year warranty", "USD")
	require.NotNil(t, offer.WarrantyMonths)
	assert.Equal(t, 24, *offer.WarrantyMonths)

	offer = parser.Parse("Warranty of 18 months as standard", "USD")
	require.NotNil(t, offer.WarrantyMonths)
	assert.Equal(t, 18, *offer.WarrantyMonths)
}

func TestParse_PartialDelivery(t *testing.T) {
	offer := parser.Parse("Partial shipments are acceptable on our side", "USD")
	require.NotNil(t, offer.PartialDeliveryAllowed)
	assert.True(t, *offer.PartialDeliveryAllowed)

	// The negative phrasing contains the affirmative stem; it must still
	// resolve to false.
	offer = parser.Parse("Partial delivery is not allowed", "USD")
	require.NotNil(t, offer.PartialDeliveryAllowed)
	assert.False(t, *offer.PartialDeliveryAllowed)
}

func TestIsFinalOfferSignal(t *testing.T) {
	assert.True(t, parser.IsFinalOfferSignal("This is our final offer."))
	assert.True(t, parser.IsFinalOfferSignal("We can't go any lower than that"))
	assert.False(t, parser.IsFinalOfferSignal("We can sharpen the pencil a bit more"))
}

func TestMesoSelection(t *testing.T) {
	label, others, ok := parser.MesoSelection("We take option B")
	assert.True(t, ok)
	assert.False(t, others)
	assert.Equal(t, "B", label)

	_, others, ok = parser.MesoSelection("None of these work for us")
	assert.True(t, ok)
	assert.True(t, others)

	_, _, ok = parser.MesoSelection("Let me check with my manager")
	assert.False(t, ok)
}
