package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a DealStore backed by SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open SQLite handle and runs migrations.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS deals (
        deal_id TEXT PRIMARY KEY,
        config_json TEXT NOT NULL,
        state_json TEXT NOT NULL,
        round INTEGER NOT NULL DEFAULT 0,
        status TEXT NOT NULL,
        latest_decision_action TEXT NOT NULL DEFAULT '',
        latest_offer_json TEXT NOT NULL DEFAULT '',
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL
    );
    CREATE TABLE IF NOT EXISTS decisions (
        decision_id TEXT PRIMARY KEY,
        deal_id TEXT NOT NULL,
        message_id TEXT,
        round INTEGER NOT NULL,
        action TEXT NOT NULL,
        payload_json TEXT NOT NULL,
        content_hash TEXT,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_decisions_deal ON decisions(deal_id, created_at);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// CreateDeal stores a new deal with its frozen config snapshot.
func (s *SQLiteStore) CreateDeal(ctx context.Context, dealID string, cfg contracts.NegotiationConfig) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("store: marshal config: %w", err)
	}
	state := contracts.NewNegotiationState(dealID, &cfg)
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("store: marshal state: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO deals (deal_id, config_json, state_json, round, status, created_at, updated_at)
        VALUES (?, ?, ?, 0, ?, ?, ?)`,
		dealID, string(cfgJSON), string(stateJSON), string(contracts.StatusNegotiating), now, now,
	)
	if err != nil {
		return fmt.Errorf("store: insert deal %s: %w", dealID, err)
	}
	return nil
}

// GetDeal loads the deal aggregate.
func (s *SQLiteStore) GetDeal(ctx context.Context, dealID string) (*Deal, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT deal_id, config_json, state_json, latest_decision_action, created_at, updated_at
        FROM deals WHERE deal_id = ?`, dealID)

	var (
		id, cfgJSON, stateJSON, latestAction string
		createdAt, updatedAt                 string
	)
	if err := row.Scan(&id, &cfgJSON, &stateJSON, &latestAction, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrDealNotFound, dealID)
		}
		return nil, err
	}

	d := &Deal{
		DealID:               id,
		LatestDecisionAction: contracts.DecisionAction(latestAction),
		CreatedAt:            parseTime(createdAt),
		UpdatedAt:            parseTime(updatedAt),
	}
	if err := json.Unmarshal([]byte(cfgJSON), &d.Config); err != nil {
		return nil, fmt.Errorf("store: decode config for %s: %w", dealID, err)
	}
	if err := json.Unmarshal([]byte(stateJSON), &d.State); err != nil {
		return nil, fmt.Errorf("store: decode state for %s: %w", dealID, err)
	}
	return d, nil
}

// AppendTurn appends the decision record and updates the deal aggregate in
// one transaction. A failure at any point rolls everything back.
func (s *SQLiteStore) AppendTurn(ctx context.Context, turn Turn) error {
	payload, err := json.Marshal(turn.Decision)
	if err != nil {
		return fmt.Errorf("store: marshal decision: %w", err)
	}
	stateJSON, err := json.Marshal(turn.State)
	if err != nil {
		return fmt.Errorf("store: marshal state: %w", err)
	}
	offerJSON := ""
	if turn.State.LatestVendorOffer != nil {
		b, err := json.Marshal(turn.State.LatestVendorOffer)
		if err != nil {
			return fmt.Errorf("store: marshal offer: %w", err)
		}
		offerJSON = string(b)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO decisions (decision_id, deal_id, message_id, round, action, payload_json, content_hash, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.Decision.DecisionID, turn.DealID, turn.Decision.MessageID, turn.Decision.Round,
		string(turn.Decision.Action), string(payload), turn.Decision.ContentHash,
		turn.Decision.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store: insert decision: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
        UPDATE deals
        SET state_json = ?, round = ?, status = ?, latest_decision_action = ?, latest_offer_json = ?, updated_at = ?
        WHERE deal_id = ?`,
		string(stateJSON), turn.State.Round, string(turn.State.Status),
		string(turn.Decision.Action), offerJSON,
		time.Now().UTC().Format(time.RFC3339Nano), turn.DealID,
	)
	if err != nil {
		return fmt.Errorf("store: update deal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrDealNotFound, turn.DealID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit turn: %w", err)
	}
	return nil
}

// Decisions returns the decision history, newest first.
func (s *SQLiteStore) Decisions(ctx context.Context, dealID string, limit int) ([]contracts.Decision, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT payload_json FROM decisions
        WHERE deal_id = ?
        ORDER BY created_at DESC
        LIMIT ?`, dealID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var decisions []contracts.Decision
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var d contracts.Decision
		if err := json.Unmarshal([]byte(payload), &d); err != nil {
			return nil, fmt.Errorf("store: decode decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

func parseTime(value string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
