// Package store persists deals, negotiation state and the append-only
// decision history. Decisions are immutable once appended; the decision
// append and the deal aggregate update happen in one transaction so a turn
// is either fully recorded or not at all.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
)

var (
	// ErrDealNotFound is returned when no deal exists for the id.
	ErrDealNotFound = errors.New("store: deal not found")
	// ErrDealExists is returned when creating a deal that already exists.
	ErrDealExists = errors.New("store: deal already exists")
)

// Deal is the persisted aggregate for one negotiation. Config is the frozen
// snapshot taken when the deal entered negotiation; later template edits
// never reach an in-flight deal.
type Deal struct {
	DealID string                      `json:"deal_id"`
	Config contracts.NegotiationConfig `json:"config"`
	State  contracts.NegotiationState  `json:"state"`

	LatestDecisionAction contracts.DecisionAction `json:"latest_decision_action,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Turn is one persisted negotiation turn: the immutable decision record plus
// the post-turn state the deal aggregate is updated to.
type Turn struct {
	DealID   string
	Decision contracts.Decision
	State    contracts.NegotiationState
}

// DealStore is the persistence collaborator of the decision engine.
type DealStore interface {
	// CreateDeal stores a new deal with its frozen config snapshot.
	CreateDeal(ctx context.Context, dealID string, cfg contracts.NegotiationConfig) error
	// GetDeal loads the deal aggregate.
	GetDeal(ctx context.Context, dealID string) (*Deal, error)
	// AppendTurn atomically appends the decision record and updates the
	// deal aggregate. On error, nothing is persisted.
	AppendTurn(ctx context.Context, turn Turn) error
	// Decisions returns the deal's decision history, newest first.
	Decisions(ctx context.Context, dealID string, limit int) ([]contracts.Decision, error)
}
