// Package repository implements the grid service interfaces on top of a SQL
// grid database.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/divawifi/wifi/internal/grid"
)

// New returns SQL-backed implementations of every grid service sharing db.
func New(db *sqlx.DB) grid.Services {
	return grid.Services{
		Accounts:  NewUserAccountRepository(db),
		Auth:      NewAuthRepository(db),
		Grid:      NewRegionRepository(db),
		Inventory: NewInventoryRepository(db),
		Groups:    NewGroupRepository(db),
		Presence:  NewPresenceRepository(db),
		GridUsers: NewGridUserRepository(db),
		Assets:    NewAssetRepository(db),
	}
}

// notFound maps sql.ErrNoRows to grid.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return grid.ErrNotFound
	}
	return err
}

// likePattern builds a case-insensitive substring pattern.
func likePattern(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	q = strings.NewReplacer("%", "", "_", "").Replace(q)
	return "%" + q + "%"
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
