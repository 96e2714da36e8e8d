package database

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/divawifi/wifi/internal/config"
)

// NewTestDB returns a migrated in-memory SQLite database closed at test end.
func NewTestDB(t testing.TB) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, config.DatabaseConfig{Provider: "sqlite3", ConnectionString: ":memory:"})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
