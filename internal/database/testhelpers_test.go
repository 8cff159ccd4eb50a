package database

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/trogers1052/trade-journal/internal/models"
)

// journalDB is a migrated journal database in a throwaway container
type journalDB struct {
	*DB
	connStr string
}

// newJournalDB starts postgres, applies db/migrations through Migrate and
// registers teardown with t.Cleanup.
func newJournalDB(t *testing.T) *journalDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("journal"),
		tcpostgres.WithUsername("journal"),
		tcpostgres.WithPassword("journal"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Errorf("terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	if err := Migrate(connStr, migrationsSource()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	db, err := New(connStr)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &journalDB{DB: db, connStr: connStr}
}

// migrationsSource is the file:// URL of db/migrations
func migrationsSource() string {
	_, filename, _, _ := runtime.Caller(0)
	return "file://" + filepath.Join(filepath.Dir(filename), "..", "..", "db", "migrations")
}

// reset empties the journal; trades go with their users
func (j *journalDB) reset(t *testing.T) {
	t.Helper()
	if _, err := j.conn.Exec(`TRUNCATE TABLE users CASCADE`); err != nil {
		t.Fatalf("reset journal: %v", err)
	}
}

// newUser creates an anonymous owner for trades
func (j *journalDB) newUser(t *testing.T) *models.User {
	t.Helper()
	u := &models.User{DisplayName: "Tester", Anonymous: true}
	if err := j.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}
