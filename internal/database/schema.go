package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS useraccounts (
		principal_id VARCHAR(36) NOT NULL PRIMARY KEY,
		scope_id VARCHAR(36) NOT NULL,
		first_name VARCHAR(64) NOT NULL,
		last_name VARCHAR(64) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		service_urls TEXT,
		created BIGINT NOT NULL DEFAULT 0,
		user_level INTEGER NOT NULL DEFAULT 0,
		user_flags INTEGER NOT NULL DEFAULT 0,
		user_title VARCHAR(64) NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS useraccounts_name ON useraccounts (first_name, last_name)`,
	`CREATE TABLE IF NOT EXISTS auth (
		principal_id VARCHAR(36) NOT NULL PRIMARY KEY,
		password_hash VARCHAR(32) NOT NULL,
		password_salt VARCHAR(32) NOT NULL,
		account_type VARCHAR(32) NOT NULL DEFAULT 'UserAccount'
	)`,
	`CREATE TABLE IF NOT EXISTS regions (
		region_id VARCHAR(36) NOT NULL PRIMARY KEY,
		region_name VARCHAR(128) NOT NULL,
		loc_x INTEGER NOT NULL,
		loc_y INTEGER NOT NULL,
		size_x INTEGER NOT NULL DEFAULT 256,
		size_y INTEGER NOT NULL DEFAULT 256,
		server_uri VARCHAR(255) NOT NULL DEFAULT '',
		owner_id VARCHAR(36) NOT NULL,
		flags INTEGER NOT NULL DEFAULT 0,
		last_seen BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS inventoryfolders (
		folder_id VARCHAR(36) NOT NULL PRIMARY KEY,
		parent_id VARCHAR(36) NOT NULL,
		owner_id VARCHAR(36) NOT NULL,
		name VARCHAR(64) NOT NULL,
		type INTEGER NOT NULL DEFAULT -1,
		version INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS inventoryfolders_owner ON inventoryfolders (owner_id)`,
	`CREATE TABLE IF NOT EXISTS inventoryitems (
		item_id VARCHAR(36) NOT NULL PRIMARY KEY,
		folder_id VARCHAR(36) NOT NULL,
		owner_id VARCHAR(36) NOT NULL,
		name VARCHAR(64) NOT NULL,
		description VARCHAR(128) NOT NULL DEFAULT '',
		asset_id VARCHAR(36) NOT NULL,
		asset_type INTEGER NOT NULL,
		inv_type INTEGER NOT NULL,
		created BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS inventoryitems_folder ON inventoryitems (folder_id)`,
	`CREATE TABLE IF NOT EXISTS os_groups_groups (
		group_id VARCHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		charter TEXT,
		founder_id VARCHAR(36) NOT NULL,
		show_in_list BOOLEAN NOT NULL DEFAULT TRUE,
		open_enrollment BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS os_groups_groups_name ON os_groups_groups (name)`,
	`CREATE TABLE IF NOT EXISTS os_groups_membership (
		group_id VARCHAR(36) NOT NULL,
		principal_id VARCHAR(255) NOT NULL,
		title VARCHAR(255) NOT NULL DEFAULT '',
		PRIMARY KEY (group_id, principal_id)
	)`,
	`CREATE TABLE IF NOT EXISTS presence (
		user_id VARCHAR(255) NOT NULL,
		region_id VARCHAR(36) NOT NULL,
		session_id VARCHAR(36) NOT NULL PRIMARY KEY,
		secure_session_id VARCHAR(36) NOT NULL,
		last_seen BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS griduser (
		user_id VARCHAR(255) NOT NULL PRIMARY KEY,
		home_region_id VARCHAR(36) NOT NULL DEFAULT '00000000-0000-0000-0000-000000000000',
		last_region_id VARCHAR(36) NOT NULL DEFAULT '00000000-0000-0000-0000-000000000000',
		online BOOLEAN NOT NULL DEFAULT FALSE,
		login BIGINT NOT NULL DEFAULT 0,
		logout BIGINT NOT NULL DEFAULT 0,
		tos_accepted BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS assets (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(64) NOT NULL DEFAULT '',
		asset_type INTEGER NOT NULL,
		content_type VARCHAR(64) NOT NULL DEFAULT '',
		data BLOB NOT NULL
	)`,
}

// Migrate creates any missing tables and indexes. It is safe to run on every
// start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		stmt = dialect(db.DriverName(), stmt)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w\n%s", err, stmt)
		}
	}
	return nil
}

func dialect(driver, stmt string) string {
	switch driver {
	case "postgres":
		return strings.ReplaceAll(stmt, " BLOB ", " BYTEA ")
	case "mysql":
		// MySQL has no CREATE INDEX IF NOT EXISTS; the unique keys are
		// declared again here and duplicate-key errors avoided by skipping.
		if strings.HasPrefix(stmt, "CREATE UNIQUE INDEX") || strings.HasPrefix(stmt, "CREATE INDEX") {
			return "SELECT 1"
		}
		return strings.ReplaceAll(stmt, " BLOB ", " LONGBLOB ")
	}
	return stmt
}
