// Package database opens the grid database and creates the tables the
// repositories read and write.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/divawifi/wifi/internal/config"
)

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	driver, err := driverName(cfg.Provider)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver == "sqlite3" {
		// A single writer avoids "database is locked" and keeps :memory:
		// databases on one connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}
	return db, nil
}

func driverName(provider string) (string, error) {
	switch provider {
	case "", "sqlite", "sqlite3":
		return "sqlite3", nil
	case "mysql", "mariadb":
		return "mysql", nil
	case "postgres", "postgresql", "pgsql":
		return "postgres", nil
	}
	return "", fmt.Errorf("unsupported storage provider %q", provider)
}
