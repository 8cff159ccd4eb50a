package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/trade-journal/internal/cache"
	"github.com/trogers1052/trade-journal/internal/database"
	"github.com/trogers1052/trade-journal/internal/models"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type mockUsers struct {
	byID   map[string]*models.User
	nextID int
}

func newMockUsers() *mockUsers {
	return &mockUsers{byID: make(map[string]*models.User)}
}

func (m *mockUsers) CreateUser(ctx context.Context, u *models.User) error {
	if u.Email != "" {
		for _, existing := range m.byID {
			if existing.Email == u.Email {
				return fmt.Errorf("user %s: %w", u.Email, database.ErrConflict)
			}
		}
	}
	m.nextID++
	u.ID = fmt.Sprintf("user-%d", m.nextID)
	m.byID[u.ID] = u
	return nil
}

func (m *mockUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return u, nil
}

func (m *mockUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.byID {
		if u.Email != "" && u.Email == email {
			return u, nil
		}
	}
	return nil, database.ErrNotFound
}

type mockSessions struct {
	tokens map[string]string
	next   int
	err    error
}

func newMockSessions() *mockSessions {
	return &mockSessions{tokens: make(map[string]string)}
}

func (m *mockSessions) CreateSession(ctx context.Context, userID string) (string, error) {
	m.next++
	token := fmt.Sprintf("token-%d", m.next)
	m.tokens[token] = userID
	return token, nil
}

func (m *mockSessions) LookupSession(ctx context.Context, token string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	userID, ok := m.tokens[token]
	if !ok {
		return "", cache.ErrSessionNotFound
	}
	return userID, nil
}

func (m *mockSessions) DeleteSession(ctx context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}

func newTestService() (*Service, *mockUsers, *mockSessions) {
	users := newMockUsers()
	sessions := newMockSessions()
	svc := NewService(users, sessions, zap.NewNop())
	svc.cost = bcrypt.MinCost
	return svc, users, sessions
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("register then login", func(t *testing.T) {
		svc, _, _ := newTestService()

		session, err := svc.Register(ctx, " Jerry@Example.com", "secret1", "")
		require.NoError(t, err)
		assert.NotEmpty(t, session.Token)
		assert.Equal(t, "jerry@example.com", session.User.Email)
		assert.Equal(t, "jerry", session.User.DisplayName)
		assert.NotEqual(t, "secret1", session.User.PasswordHash)

		login, err := svc.Login(ctx, "jerry@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, session.User.ID, login.User.ID)
		assert.NotEqual(t, session.Token, login.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.Register(ctx, "a@b.co", "secret1", "A")
		require.NoError(t, err)

		_, err = svc.Login(ctx, "a@b.co", "wrong-password")
		assert.True(t, errors.Is(err, ErrInvalidCredentials))
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Login(ctx, "nobody@b.co", "secret1")
		assert.True(t, errors.Is(err, ErrInvalidCredentials))
	})

	t.Run("registration reports every problem", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Register(ctx, "not-an-email", "123", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidRegistration))
		assert.Len(t, multierr.Errors(err), 2)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.Register(ctx, "a@b.co", "secret1", "A")
		require.NoError(t, err)

		_, err = svc.Register(ctx, "a@b.co", "secret2", "B")
		assert.True(t, errors.Is(err, database.ErrConflict))
	})
}

func TestAnonymous(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	session, err := svc.Anonymous(ctx)
	require.NoError(t, err)
	assert.True(t, session.User.Anonymous)
	assert.Empty(t, session.User.Email)

	_, err = svc.Login(ctx, "", "")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestAuthenticateAndLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token resolves to its user", func(t *testing.T) {
		svc, _, _ := newTestService()
		session, err := svc.Register(ctx, "a@b.co", "secret1", "A")
		require.NoError(t, err)

		user, err := svc.Authenticate(ctx, session.Token)
		require.NoError(t, err)
		assert.Equal(t, session.User.ID, user.ID)

		require.NoError(t, svc.Logout(ctx, session.Token))
		_, err = svc.Authenticate(ctx, session.Token)
		assert.True(t, errors.Is(err, ErrUnauthenticated))
	})

	t.Run("unknown token", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, err := svc.Authenticate(ctx, "bogus")
		assert.True(t, errors.Is(err, ErrUnauthenticated))
	})

	t.Run("session store outage is not reported as signed out", func(t *testing.T) {
		svc, _, sessions := newTestService()
		sessions.err = errors.New("redis down")

		_, err := svc.Authenticate(ctx, "token-1")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrUnauthenticated))
	})

	t.Run("session for a deleted user", func(t *testing.T) {
		svc, users, _ := newTestService()
		session, err := svc.Anonymous(ctx)
		require.NoError(t, err)
		delete(users.byID, session.User.ID)

		_, err = svc.Authenticate(ctx, session.Token)
		assert.True(t, errors.Is(err, ErrUnauthenticated))
	})
}
