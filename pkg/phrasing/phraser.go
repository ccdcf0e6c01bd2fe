package phrasing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
)

// Phraser words a pre-computed decision as a chat message. The LLM, when
// configured, is consulted under a hard timeout and a rate limit; any
// failure falls back to the deterministic template. Phrase never returns an
// error: the negotiation always produces some response text.
type Phraser struct {
	client  Client
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger
}

// defaultTimeout bounds the LLM call; the decision is already made and the
// template fallback is always available, so the bound is tight.
const defaultTimeout = 3 * time.Second

// NewPhraser creates a phraser. client may be nil for template-only
// operation.
func NewPhraser(client Client, timeout time.Duration) *Phraser {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Phraser{
		client:  client,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(2), 4),
		logger:  slog.Default().With("component", "phrasing"),
	}
}

// Phrase renders response text for the decision. The decision is never
// altered here; the LLM is asked only to wordsmith a message consistent
// with it.
func (p *Phraser) Phrase(ctx context.Context, decision *contracts.Decision, mesoSet *contracts.MesoSet, missing []string, vendorMessage string) string {
	fallback := TemplateResponse(decision, mesoSet, missing)
	if p.client == nil {
		return fallback
	}
	if !p.limiter.Allow() {
		p.logger.DebugContext(ctx, "phrasing rate limited, using template", "deal_id", decision.DealID)
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	text, err := p.client.Complete(ctx, p.systemPrompt(decision, mesoSet), []Message{
		{Role: "user", Content: vendorMessage},
	}, &Options{Temperature: 0.4, MaxTokens: 400})
	if err != nil {
		// Recovered locally; phrasing failures never reach the caller.
		p.logger.WarnContext(ctx, "phrasing call failed, using template",
			"deal_id", decision.DealID, "action", decision.Action, "error", err)
		return fallback
	}
	text = strings.TrimSpace(text)
	if text == "" {
		p.logger.WarnContext(ctx, "phrasing returned empty text, using template", "deal_id", decision.DealID)
		return fallback
	}
	return text
}

// systemPrompt binds the LLM to the already-made decision: it may rephrase,
// never renegotiate.
func (p *Phraser) systemPrompt(decision *contracts.Decision, mesoSet *contracts.MesoSet) string {
	var sb strings.Builder
	sb.WriteString("You are a procurement negotiator writing one short reply to a vendor.\n")
	sb.WriteString("The negotiation decision below is FINAL. Word a courteous, professional message consistent with it. ")
	sb.WriteString("Do not change any number, term, or the action. Do not invent concessions.\n\n")

	payload := struct {
		Action       contracts.DecisionAction `json:"action"`
		CounterOffer *contracts.Offer         `json:"counter_offer,omitempty"`
		Reasons      []string                 `json:"reasons,omitempty"`
		MesoSet      *contracts.MesoSet       `json:"meso_set,omitempty"`
	}{decision.Action, decision.CounterOffer, decision.Reasons, mesoSet}

	b, err := json.Marshal(payload)
	if err != nil {
		b = []byte("{}")
	}
	sb.WriteString(fmt.Sprintf("Decision:\n%s\n", string(b)))
	return sb.String()
}
