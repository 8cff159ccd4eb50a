package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/trade-journal/internal/models"
)

func TestUsersRepository(t *testing.T) {
	testDB := newJournalDB(t)
	ctx := context.Background()

	t.Run("CreateUser normalizes email and round trips", func(t *testing.T) {
		testDB.reset(t)

		u := &models.User{DisplayName: "Jerry", Email: " Jerry@Example.com ", PasswordHash: "hash"}
		require.NoError(t, testDB.CreateUser(ctx, u))
		assert.NotEmpty(t, u.ID)
		assert.Equal(t, "jerry@example.com", u.Email)

		byID, err := testDB.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Jerry", byID.DisplayName)
		assert.Equal(t, "hash", byID.PasswordHash)
		assert.False(t, byID.Anonymous)

		byEmail, err := testDB.GetUserByEmail(ctx, "JERRY@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		testDB.reset(t)

		require.NoError(t, testDB.CreateUser(ctx, &models.User{Email: "a@b.c"}))
		err := testDB.CreateUser(ctx, &models.User{Email: "A@b.c"})
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("many anonymous users may share an empty email", func(t *testing.T) {
		testDB.reset(t)

		require.NoError(t, testDB.CreateUser(ctx, &models.User{Anonymous: true}))
		require.NoError(t, testDB.CreateUser(ctx, &models.User{Anonymous: true}))
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		testDB.reset(t)

		_, err := testDB.GetUserByEmail(ctx, "nobody@example.com")
		assert.True(t, errors.Is(err, ErrNotFound))

		_, err = testDB.GetUserByID(ctx, "bogus")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}
