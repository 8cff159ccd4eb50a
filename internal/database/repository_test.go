package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &DB{conn: conn}, mock
}

func TestDeleteTrade_rowsAffected(t *testing.T) {
	ctx := context.Background()
	userID, tradeID := uuid.NewString(), uuid.NewString()

	t.Run("driver error is returned, not reported as missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("DELETE FROM trades").
			WithArgs(userID, tradeID).
			WillReturnResult(sqlmock.NewErrorResult(errors.New("rows affected unsupported")))

		err := db.DeleteTrade(ctx, userID, tradeID)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrNotFound))
		assert.Contains(t, err.Error(), "failed to get rows affected")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows is not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("DELETE FROM trades").
			WithArgs(userID, tradeID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := db.DeleteTrade(ctx, userID, tradeID)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("one row deletes", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("DELETE FROM trades").
			WithArgs(userID, tradeID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, db.DeleteTrade(ctx, userID, tradeID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
