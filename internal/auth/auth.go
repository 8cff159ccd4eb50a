package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/trogers1052/trade-journal/internal/cache"
	"github.com/trogers1052/trade-journal/internal/database"
	"github.com/trogers1052/trade-journal/internal/models"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or wrong password
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthenticated is returned when a session token is missing or unknown
	ErrUnauthenticated = errors.New("not signed in")
	// ErrInvalidRegistration wraps every registration validation failure
	ErrInvalidRegistration = errors.New("invalid registration")
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

const anonymousDisplayName = "Guest"

// UserStore persists users
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionStore maps opaque tokens to user IDs
type SessionStore interface {
	CreateSession(ctx context.Context, userID string) (string, error)
	LookupSession(ctx context.Context, token string) (string, error)
	DeleteSession(ctx context.Context, token string) error
}

// Session is the result of a successful sign-in
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Service signs users in and out
type Service struct {
	users    UserStore
	sessions SessionStore
	logger   *zap.Logger
	cost     int
}

// NewService creates an auth service
func NewService(users UserStore, sessions SessionStore, logger *zap.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

// Register creates an email/password account and signs it in
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)

	var verr error
	if _, err := mail.ParseAddress(email); err != nil {
		verr = multierr.Append(verr, fmt.Errorf("%w: email %q is not valid", ErrInvalidRegistration, email))
	}
	if len(password) < MinPasswordLength {
		verr = multierr.Append(verr, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidRegistration, MinPasswordLength))
	}
	if verr != nil {
		return nil, verr
	}
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.start(ctx, user)
}

// Login signs in an existing email/password account
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.start(ctx, user)
}

// Anonymous creates a guest account and signs it in
func (s *Service) Anonymous(ctx context.Context) (*Session, error) {
	user := &models.User{DisplayName: anonymousDisplayName, Anonymous: true}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create guest: %w", err)
	}

	s.logger.Info("guest signed in", zap.String("user_id", user.ID))
	return s.start(ctx, user)
}

// Authenticate resolves a session token to its user
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.sessions.LookupSession(ctx, token)
	if errors.Is(err, cache.ErrSessionNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// Logout ends the session
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

func (s *Service) start(ctx context.Context, user *models.User) (*Session, error) {
	token, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}
