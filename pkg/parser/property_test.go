//go:build property
// +build property

package parser_test

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
	"github.com/accordo-ai/negotiation-core/pkg/parser"
)

// TestAccumulationNeverLosesFields replays randomized fragment sequences.
// Property: once a field has been stated it stays populated through any
// later fragments, and the latest explicit statement for a field wins.
func TestAccumulationNeverLosesFields(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("later fragments extend, never erase", prop.ForAll(
		func(prices []int, termFlags []bool) bool {
			n := len(prices)
			if len(termFlags) < n {
				n = len(termFlags)
			}

			acc := contracts.AccumulatedOffer{}
			var lastPrice *float64
			var lastTerms *int
			for i := 0; i < n; i++ {
				var raw contracts.Offer
				if prices[i] > 0 {
					p := float64(prices[i])
					raw.TotalPrice = &p
					lastPrice = &p
				}
				if termFlags[i] {
					d := 30 + i
					raw.PaymentTermsDays = &d
					lastTerms = &d
				}
				acc = parser.Merge(acc, &raw, fmt.Sprintf("m%d", i))
			}

			if lastPrice != nil {
				if acc.Offer.TotalPrice == nil || *acc.Offer.TotalPrice != *lastPrice {
					return false
				}
			} else if acc.Offer.TotalPrice != nil {
				return false
			}
			if lastTerms != nil {
				if acc.Offer.PaymentTermsDays == nil || *acc.Offer.PaymentTermsDays != *lastTerms {
					return false
				}
			} else if acc.Offer.PaymentTermsDays != nil {
				return false
			}

			wantComplete := lastPrice != nil && lastTerms != nil
			return acc.IsComplete == wantComplete
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
