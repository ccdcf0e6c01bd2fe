package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accordo-ai/negotiation-core/pkg/contracts"
	"github.com/accordo-ai/negotiation-core/pkg/store"
)

func newPostgresMock(t *testing.T) (*store.PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return store.NewPostgresStore(db), mock
}

func TestPostgresStore_CreateDeal(t *testing.T) {
	s, mock := newPostgresMock(t)

	mock.ExpectExec(`INSERT INTO deals`).
		WithArgs("deal-1", sqlmock.AnyArg(), sqlmock.AnyArg(),
			string(contracts.StatusNegotiating), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.CreateDeal(context.Background(), "deal-1", testConfig()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendTurnCommits(t *testing.T) {
	s, mock := newPostgresMock(t)

	turn := store.Turn{
		DealID:   "deal-1",
		Decision: decisionAt("deal-1", 1, contracts.ActionCounter, time.Now().UTC()),
		State: contracts.NegotiationState{
			DealID: "deal-1",
			Round:  1,
			Status: contracts.StatusNegotiating,
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO decisions`).
		WithArgs(turn.Decision.DecisionID, "deal-1", turn.Decision.MessageID, 1,
			string(contracts.ActionCounter), sqlmock.AnyArg(), turn.Decision.ContentHash, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE deals`).
		WithArgs(sqlmock.AnyArg(), 1, string(contracts.StatusNegotiating),
			string(contracts.ActionCounter), nil, sqlmock.AnyArg(), "deal-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.AppendTurn(context.Background(), turn))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendTurnRollsBackOnFailure(t *testing.T) {
	s, mock := newPostgresMock(t)

	turn := store.Turn{
		DealID:   "deal-1",
		Decision: decisionAt("deal-1", 1, contracts.ActionCounter, time.Now().UTC()),
		State: contracts.NegotiationState{
			DealID: "deal-1",
			Round:  1,
			Status: contracts.StatusNegotiating,
		},
	}

	boom := errors.New("deadlock detected")
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO decisions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE deals`).WillReturnError(boom)
	mock.ExpectRollback()

	err := s.AppendTurn(context.Background(), turn)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendTurnUnknownDeal(t *testing.T) {
	s, mock := newPostgresMock(t)

	turn := store.Turn{
		DealID:   "missing",
		Decision: decisionAt("missing", 1, contracts.ActionCounter, time.Now().UTC()),
		State: contracts.NegotiationState{
			DealID: "missing",
			Round:  1,
			Status: contracts.StatusNegotiating,
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO decisions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE deals`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.AppendTurn(context.Background(), turn)
	assert.ErrorIs(t, err, store.ErrDealNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDealNotFound(t *testing.T) {
	s, mock := newPostgresMock(t)

	mock.ExpectQuery(`SELECT deal_id, config_json`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"deal_id", "config_json", "state_json", "latest_decision_action", "created_at", "updated_at",
		}))

	_, err := s.GetDeal(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrDealNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
