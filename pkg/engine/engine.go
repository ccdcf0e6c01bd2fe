// Package engine is the negotiation decision engine: the single writer of
// per-deal negotiation state. Each vendor turn runs the full pipeline
// (parse, accumulate, score, analyze, decide) synchronously and purely, then
// persists the decision record and state update in one transaction, and only
// then asks the phraser to word the response.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/accordo-ai/negotiation-core/pkg/anchor"
	"github.com/accordo-ai/negotiation-core/pkg/canonicalize"
	"github.com/accordo-ai/negotiation-core/pkg/config"
	"github.com/accordo-ai/negotiation-core/pkg/contracts"
	"github.com/accordo-ai/negotiation-core/pkg/dealock"
	"github.com/accordo-ai/negotiation-core/pkg/meso"
	"github.com/accordo-ai/negotiation-core/pkg/observability"
	"github.com/accordo-ai/negotiation-core/pkg/phrasing"
	"github.com/accordo-ai/negotiation-core/pkg/store"
	"github.com/accordo-ai/negotiation-core/pkg/utility"
)

// ErrNegotiationClosed is returned when a turn arrives for a deal whose
// status is already terminal.
var ErrNegotiationClosed = errors.New("engine: negotiation already closed")

// TurnResult is the outcome of one processed vendor turn.
type TurnResult struct {
	Decision     contracts.Decision         `json:"decision"`
	UpdatedState contracts.NegotiationState `json:"updated_state"`
	// MesoSet is present when this turn presented trade-off options
	// instead of a single counter.
	MesoSet *contracts.MesoSet `json:"meso_set,omitempty"`
	// ResponseText is the worded reply, always populated.
	ResponseText string `json:"response_text"`
}

// Engine serializes turns per deal and drives the negotiation state machine.
type Engine struct {
	store   store.DealStore
	locker  dealock.Locker
	phraser *phrasing.Phraser
	history anchor.HistoryProvider
	gen     *meso.Generator
	obs     *observability.Provider
	logger  *slog.Logger
	clock   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocker replaces the default in-process per-deal mutex, e.g. with the
// Redis locker when several replicas share the deal store.
func WithLocker(l dealock.Locker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithPhraser sets the response phraser. Without one, responses use the
// deterministic templates.
func WithPhraser(p *phrasing.Phraser) Option {
	return func(e *Engine) { e.phraser = p }
}

// WithHistoryProvider enables anchor adjustment from prior deal outcomes.
// The provider resolves the deal id to its counterpart internally.
func WithHistoryProvider(h anchor.HistoryProvider) Option {
	return func(e *Engine) { e.history = h }
}

// WithObservability attaches tracing and metrics.
func WithObservability(p *observability.Provider) Option {
	return func(e *Engine) { e.obs = p }
}

// WithClock overrides time for tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// New creates an engine over the given deal store.
func New(s store.DealStore, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		locker: dealock.NewKeyedMutex(),
		gen:    meso.NewGenerator(),
		logger: slog.Default().With("component", "engine"),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateDeal validates the config and opens a new negotiation. The config
// is snapshotted on the deal; template edits after this point never affect
// the running negotiation.
func (e *Engine) CreateDeal(ctx context.Context, dealID string, cfg contracts.NegotiationConfig) error {
	if err := config.Validate(&cfg); err != nil {
		return err
	}
	if err := e.store.CreateDeal(ctx, dealID, cfg); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "deal created",
		"deal_id", dealID,
		"parameters", len(cfg.Parameters),
		"max_rounds", cfg.MaxRounds,
	)
	return nil
}

// ProcessVendorTurn runs one vendor message through the decision pipeline.
// Exactly one turn per deal is in flight at a time; unrelated deals process
// in parallel. The decision is computed and persisted before any wording
// work starts, so an aborted request never leaves a partial turn behind.
func (e *Engine) ProcessVendorTurn(ctx context.Context, dealID, rawText string) (_ *TurnResult, err error) {
	ctx, done := e.obs.TrackTurn(ctx, dealID)
	defer func() { done(err) }()

	release, err := e.locker.Acquire(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("acquire deal lock: %w", err)
	}
	defer release()

	deal, err := e.store.GetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal.State.Status.Terminal() {
		return nil, fmt.Errorf("%w: deal %s is %s", ErrNegotiationClosed, dealID, deal.State.Status)
	}

	in := turnInput{
		MessageID:    uuid.NewString(),
		Text:         rawText,
		AnchorAdjust: e.anchorAdjustment(ctx, dealID, &deal.State),
	}

	outcome, err := decide(&deal.Config, deal.State, e.gen, in)
	if err != nil {
		return nil, err
	}

	now := e.clock().UTC()
	outcome.Decision.DecisionID = uuid.NewString()
	outcome.Decision.CreatedAt = now
	outcome.State.UpdatedAt = now

	hash, err := canonicalize.CanonicalHash(outcome.Decision)
	if err != nil {
		return nil, fmt.Errorf("hash decision: %w", err)
	}
	outcome.Decision.ContentHash = hash

	if err = e.store.AppendTurn(ctx, store.Turn{
		DealID:   dealID,
		Decision: outcome.Decision,
		State:    outcome.State,
	}); err != nil {
		return nil, fmt.Errorf("persist turn: %w", err)
	}

	e.obs.RecordDecision(ctx, string(outcome.Decision.Action))
	e.logger.InfoContext(ctx, "turn decided",
		"deal_id", dealID,
		"round", outcome.State.Round,
		"action", outcome.Decision.Action,
		"status", outcome.State.Status,
		"utility", utilityLog(outcome.Decision.UtilityScore),
	)

	result := &TurnResult{
		Decision:     outcome.Decision,
		UpdatedState: outcome.State,
		MesoSet:      outcome.MesoSet,
	}
	if e.phraser != nil {
		result.ResponseText = e.phraser.Phrase(ctx, &outcome.Decision, outcome.MesoSet, outcome.Missing, rawText)
	} else {
		result.ResponseText = phrasing.TemplateResponse(&outcome.Decision, outcome.MesoSet, outcome.Missing)
	}
	return result, nil
}

// ComputeUtility scores an offer against a config without touching any
// state, for preview use.
func (e *Engine) ComputeUtility(cfg *contracts.NegotiationConfig, offer *contracts.Offer) (*contracts.WeightedUtilityResult, error) {
	return utility.Aggregate(cfg, offer)
}

// anchorAdjustment resolves the opening-anchor correction from prior deal
// outcomes. It only matters before our first counter; provider errors
// degrade to no adjustment.
func (e *Engine) anchorAdjustment(ctx context.Context, dealID string, state *contracts.NegotiationState) float64 {
	if e.history == nil || state.LatestCounterOffer != nil {
		return 0
	}
	prior, err := e.history.PriorDeals(ctx, dealID)
	if err != nil {
		e.logger.WarnContext(ctx, "prior deal lookup failed, using neutral anchor",
			"deal_id", dealID, "error", err)
		return 0
	}
	return anchor.Adjustment(prior)
}

func utilityLog(u *float64) any {
	if u == nil {
		return "n/a"
	}
	return *u
}
