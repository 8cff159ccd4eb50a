package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/trade-journal/internal/models"
	"github.com/trogers1052/trade-journal/internal/portfolio"
)

const tradeColumns = `
	id, user_id, symbol, entry_price, exit_price, quantity,
	trade_date, costs, created_at, updated_at
`

// CreateTrade inserts a new trade and assigns its ID and timestamps
func (db *DB) CreateTrade(ctx context.Context, t *models.Trade) error {
	query := `
		INSERT INTO trades (
			id, user_id, symbol, entry_price, exit_price, quantity,
			trade_date, costs, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`
	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := db.conn.ExecContext(ctx, query,
		id, t.UserID, t.Symbol, t.EntryPrice, t.ExitPrice, t.Quantity,
		t.Date, nullDecimal(t.Costs), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}

	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

// GetTradeByID retrieves one of a user's trades
func (db *DB) GetTradeByID(ctx context.Context, userID, id string) (*models.Trade, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("trade %s: %w", id, ErrNotFound)
	}

	query := `SELECT ` + tradeColumns + ` FROM trades WHERE user_id = $1 AND id = $2`
	t, err := scanTrade(db.conn.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trade %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return t, nil
}

// GetTradesByUser retrieves all of a user's trades ordered by close date, then creation
func (db *DB) GetTradesByUser(ctx context.Context, userID string) ([]*models.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = $1
		ORDER BY trade_date ASC, created_at ASC
	`
	rows, err := db.conn.QueryContext(ctx, query, userID)
	return scanTrades(rows, err)
}

// GetTradesByUserDateRange retrieves a user's trades closed between from and to, inclusive
func (db *DB) GetTradesByUserDateRange(ctx context.Context, userID, from, to string) ([]*models.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = $1 AND trade_date >= $2 AND trade_date <= $3
		ORDER BY trade_date ASC, created_at ASC
	`
	rows, err := db.conn.QueryContext(ctx, query, userID, from, to)
	return scanTrades(rows, err)
}

// UpdateTrade overwrites the editable fields and costs of an existing trade
func (db *DB) UpdateTrade(ctx context.Context, t *models.Trade) error {
	if _, err := uuid.Parse(t.ID); err != nil {
		return fmt.Errorf("trade %s: %w", t.ID, ErrNotFound)
	}

	query := `
		UPDATE trades SET
			symbol = $3, entry_price = $4, exit_price = $5, quantity = $6,
			trade_date = $7, costs = $8, updated_at = $9
		WHERE user_id = $1 AND id = $2
		RETURNING created_at
	`
	now := time.Now().UTC()
	err := db.conn.QueryRowContext(ctx, query,
		t.UserID, t.ID, t.Symbol, t.EntryPrice, t.ExitPrice, t.Quantity,
		t.Date, nullDecimal(t.Costs), now,
	).Scan(&t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("trade %s: %w", t.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}

	t.UpdatedAt = now
	return nil
}

// DeleteTrade permanently removes one of a user's trades
func (db *DB) DeleteTrade(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("trade %s: %w", id, ErrNotFound)
	}

	query := `DELETE FROM trades WHERE user_id = $1 AND id = $2`
	result, err := db.conn.ExecContext(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTrade reads one row and derives the trade's profit.
// Rows without costs get them from the fallback cost model.
func scanTrade(row rowScanner) (*models.Trade, error) {
	var t models.Trade
	var tradeDate time.Time
	var costs sql.NullString

	err := row.Scan(
		&t.ID, &t.UserID, &t.Symbol, &t.EntryPrice, &t.ExitPrice, &t.Quantity,
		&tradeDate, &costs, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Date = tradeDate.Format(models.DateLayout)
	if costs.Valid {
		c, err := decimal.NewFromString(costs.String)
		if err != nil {
			return nil, fmt.Errorf("invalid costs %q on trade %s: %w", costs.String, t.ID, err)
		}
		t.Costs = &c
	}

	portfolio.Hydrate([]*models.Trade{&t})
	return &t, nil
}

func scanTrades(rows *sql.Rows, err error) ([]*models.Trade, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := []*models.Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trades: %w", err)
	}

	return trades, nil
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}
