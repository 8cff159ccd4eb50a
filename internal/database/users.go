package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/trogers1052/trade-journal/internal/models"
)

// CreateUser inserts a new user and assigns its ID.
// A duplicate email returns ErrConflict.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, display_name, email, photo_url, anonymous, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	id := uuid.NewString()
	now := time.Now().UTC()
	email := strings.ToLower(strings.TrimSpace(u.Email))

	_, err := db.conn.ExecContext(ctx, query,
		id, u.DisplayName, nullString(email), nullString(u.PhotoURL), u.Anonymous,
		nullString(u.PasswordHash), now,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", email, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.ID = id
	u.Email = email
	u.CreatedAt = now
	return nil
}

// GetUserByID retrieves a user by ID
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	query := `
		SELECT id, display_name, email, photo_url, anonymous, password_hash, created_at
		FROM users
		WHERE id = $1
	`
	return db.scanUser(db.conn.QueryRowContext(ctx, query, id), id)
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	query := `
		SELECT id, display_name, email, photo_url, anonymous, password_hash, created_at
		FROM users
		WHERE email = $1
	`
	return db.scanUser(db.conn.QueryRowContext(ctx, query, email), email)
}

func (db *DB) scanUser(row *sql.Row, key string) (*models.User, error) {
	var u models.User
	var email, photoURL, passwordHash sql.NullString

	err := row.Scan(&u.ID, &u.DisplayName, &email, &photoURL, &u.Anonymous, &passwordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if email.Valid {
		u.Email = email.String
	}
	if photoURL.Valid {
		u.PhotoURL = photoURL.String
	}
	if passwordHash.Valid {
		u.PasswordHash = passwordHash.String
	}
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
