package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/models"
)

const accountColumns = `principal_id, scope_id, first_name, last_name, email,
	service_urls, created, user_level, user_flags, user_title`

type accountRow struct {
	models.UserAccount
	ServiceURLs *string `db:"service_urls"`
}

func (r accountRow) toModel() *models.UserAccount {
	acc := r.UserAccount
	if r.ServiceURLs != nil {
		acc.ServiceURLs = decodeServiceURLs(*r.ServiceURLs)
	}
	return &acc
}

// UserAccountRepository stores accounts in the useraccounts table.
type UserAccountRepository struct {
	db *sqlx.DB
}

// NewUserAccountRepository creates a user account repository.
func NewUserAccountRepository(db *sqlx.DB) *UserAccountRepository {
	return &UserAccountRepository{db: db}
}

var _ grid.UserAccountService = (*UserAccountRepository)(nil)

func (r *UserAccountRepository) getOne(ctx context.Context, where string, args ...any) (*models.UserAccount, error) {
	var row accountRow
	query := r.db.Rebind(`SELECT ` + accountColumns + ` FROM useraccounts WHERE ` + where)
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, notFound(err)
	}
	return row.toModel(), nil
}

// GetUserAccount looks an account up by principal ID.
func (r *UserAccountRepository) GetUserAccount(ctx context.Context, id uuid.UUID) (*models.UserAccount, error) {
	return r.getOne(ctx, `principal_id = ?`, id.String())
}

// GetUserAccountByName looks an account up by first and last name, ignoring case.
func (r *UserAccountRepository) GetUserAccountByName(ctx context.Context, first, last string) (*models.UserAccount, error) {
	return r.getOne(ctx, `LOWER(first_name) = ? AND LOWER(last_name) = ?`,
		strings.ToLower(strings.TrimSpace(first)), strings.ToLower(strings.TrimSpace(last)))
}

// GetUserAccountByEmail returns the first account registered with email.
func (r *UserAccountRepository) GetUserAccountByEmail(ctx context.Context, email string) (*models.UserAccount, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, grid.ErrNotFound
	}
	return r.getOne(ctx, `LOWER(email) = ? ORDER BY created LIMIT 1`, email)
}

// SearchUserAccounts lists accounts matching query, ordered by name.
func (r *UserAccountRepository) SearchUserAccounts(ctx context.Context, query string) ([]*models.UserAccount, error) {
	var rows []accountRow
	var err error
	if strings.TrimSpace(query) == "" {
		err = r.db.SelectContext(ctx, &rows,
			`SELECT `+accountColumns+` FROM useraccounts ORDER BY last_name, first_name`)
	} else {
		pattern := likePattern(query)
		err = r.db.SelectContext(ctx, &rows, r.db.Rebind(`SELECT `+accountColumns+` FROM useraccounts
			WHERE LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?
			ORDER BY last_name, first_name`), pattern, pattern, pattern)
	}
	if err != nil {
		return nil, fmt.Errorf("search user accounts: %w", err)
	}
	out := make([]*models.UserAccount, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

// StoreUserAccount inserts or updates acc. A new account whose name is
// already taken returns grid.ErrConflict.
func (r *UserAccountRepository) StoreUserAccount(ctx context.Context, acc *models.UserAccount) error {
	if acc.PrincipalID == uuid.Nil {
		return fmt.Errorf("store user account: principal ID is required")
	}
	if acc.Created == 0 {
		acc.Created = time.Now().Unix()
	}
	urls := encodeServiceURLs(acc.ServiceURLs)

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE useraccounts SET
		scope_id = ?, first_name = ?, last_name = ?, email = ?, service_urls = ?,
		user_level = ?, user_flags = ?, user_title = ?
		WHERE principal_id = ?`),
		acc.ScopeID.String(), acc.FirstName, acc.LastName, acc.Email, urls,
		acc.UserLevel, acc.UserFlags, acc.UserTitle, acc.PrincipalID.String())
	if err != nil {
		return fmt.Errorf("update user account: %w", err)
	}
	if rowsAffected(res) > 0 {
		return nil
	}

	if existing, err := r.GetUserAccountByName(ctx, acc.FirstName, acc.LastName); err == nil && existing.PrincipalID != acc.PrincipalID {
		return grid.ErrConflict
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO useraccounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		acc.PrincipalID.String(), acc.ScopeID.String(), acc.FirstName, acc.LastName, acc.Email,
		urls, acc.Created, acc.UserLevel, acc.UserFlags, acc.UserTitle)
	if err != nil {
		return fmt.Errorf("insert user account: %w", err)
	}
	return nil
}

// DeleteUserAccount removes the account row only; credentials, inventory and
// memberships are removed by their own services.
func (r *UserAccountRepository) DeleteUserAccount(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM useraccounts WHERE principal_id = ?`), id.String())
	if err != nil {
		return fmt.Errorf("delete user account: %w", err)
	}
	if rowsAffected(res) == 0 {
		return grid.ErrNotFound
	}
	return nil
}

// CountUserAccounts returns the number of accounts.
func (r *UserAccountRepository) CountUserAccounts(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM useraccounts`); err != nil {
		return 0, fmt.Errorf("count user accounts: %w", err)
	}
	return n, nil
}

// Service URLs are stored as "key=value;key=value".
func encodeServiceURLs(urls map[string]string) string {
	if len(urls) == 0 {
		return ""
	}
	keys := make([]string, 0, len(urls))
	for k := range urls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+urls[k])
	}
	return strings.Join(parts, ";")
}

func decodeServiceURLs(s string) map[string]string {
	if s == "" {
		return nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
