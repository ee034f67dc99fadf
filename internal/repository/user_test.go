package repository

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchSetsBothReferences(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Both rows are locked in sorted ID order, then both partner
	// references are written inside the same transaction.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT partner_id FROM users").
		WithArgs("a").
		WillReturnRows(pgxmock.NewRows([]string{"partner_id"}).AddRow(nil))
	mock.ExpectQuery("SELECT partner_id FROM users").
		WithArgs("b").
		WillReturnRows(pgxmock.NewRows([]string{"partner_id"}).AddRow(nil))
	mock.ExpectExec("UPDATE users SET partner_id").
		WithArgs("b", "a").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE users SET partner_id").
		WithArgs("a", "b").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	repo := NewUserRepository(mock)
	require.NoError(t, repo.Match(context.Background(), "a", "b"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchPartnerTakenWritesNothing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	taken := "c"
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT partner_id FROM users").
		WithArgs("a").
		WillReturnRows(pgxmock.NewRows([]string{"partner_id"}).AddRow(nil))
	mock.ExpectQuery("SELECT partner_id FROM users").
		WithArgs("b").
		WillReturnRows(pgxmock.NewRows([]string{"partner_id"}).AddRow(&taken))
	mock.ExpectRollback()

	repo := NewUserRepository(mock)
	err = repo.Match(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrPartnerTaken)
	// No UPDATE expectations: the transaction rolled back untouched.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchUserAlreadyMatchedWritesNothing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	existing := "c"
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT partner_id FROM users").
		WithArgs("a").
		WillReturnRows(pgxmock.NewRows([]string{"partner_id"}).AddRow(&existing))
	mock.ExpectQuery("SELECT partner_id FROM users").
		WithArgs("b").
		WillReturnRows(pgxmock.NewRows([]string{"partner_id"}).AddRow(nil))
	mock.ExpectRollback()

	repo := NewUserRepository(mock)
	err = repo.Match(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrAlreadyMatched)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnmatchClearsBothReferences(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	partner := "b"
	mock.ExpectQuery("SELECT partner_id FROM users").
		WithArgs("a").
		WillReturnRows(pgxmock.NewRows([]string{"partner_id"}).AddRow(&partner))
	mock.ExpectBegin()
	mock.ExpectExec("SELECT 1 FROM users").
		WithArgs("a").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec("SELECT 1 FROM users").
		WithArgs("b").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery("SELECT partner_id FROM users").
		WithArgs("a").
		WillReturnRows(pgxmock.NewRows([]string{"partner_id"}).AddRow(&partner))
	mock.ExpectExec("UPDATE users SET partner_id = NULL").
		WithArgs("a", "b").
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectCommit()

	repo := NewUserRepository(mock)
	partnerID, err := repo.Unmatch(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "b", partnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnmatchWithoutPartner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT partner_id FROM users").
		WithArgs("a").
		WillReturnRows(pgxmock.NewRows([]string{"partner_id"}).AddRow(nil))

	repo := NewUserRepository(mock)
	_, err = repo.Unmatch(context.Background(), "a")
	assert.ErrorIs(t, err, ErrNotMatched)
	assert.NoError(t, mock.ExpectationsWereMet())
}
