//go:build property
// +build property

package engine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
	"github.com/accordo-ai/negotiation-core/pkg/engine"
	"github.com/accordo-ai/negotiation-core/pkg/store"
)

// TestCounterNeverExceedsVendorPrice drives randomized vendor price walks
// through the full turn pipeline.
// Property: every counter's price is at or below the vendor's latest price,
// the round counter never decreases, and no decision follows a terminal
// status.
func TestCounterNeverExceedsVendorPrice(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("counter price capped and rounds monotonic", prop.ForAll(
		func(prices []int, terms int) bool {
			ctx := context.Background()
			e := engine.New(store.NewMemoryStore())
			if err := e.CreateDeal(ctx, "deal-p", procurementConfig()); err != nil {
				return false
			}

			lastRound := 0
			terminal := false
			for _, p := range prices {
				msg := fmt.Sprintf("We can do %d USD with Net %d payment terms.", p, terms)
				res, err := e.ProcessVendorTurn(ctx, "deal-p", msg)
				if terminal {
					// A closed deal must have refused the turn.
					return err != nil
				}
				if err != nil {
					return false
				}

				if res.UpdatedState.Round < lastRound {
					return false
				}
				lastRound = res.UpdatedState.Round

				if res.Decision.Action == contracts.ActionCounter && res.Decision.CounterOffer != nil {
					counterPrice, ok := res.Decision.CounterOffer.Price()
					if !ok {
						return false
					}
					if counterPrice > float64(p)+1e-6 {
						return false
					}
				}
				terminal = res.UpdatedState.Status.Terminal()
			}
			return true
		},
		gen.SliceOfN(6, gen.IntRange(90000, 140000)),
		gen.IntRange(0, 90),
	))

	properties.TestingRun(t)
}
