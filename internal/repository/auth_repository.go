package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/models"
)

// AuthRepository stores credentials in the auth table using the grid's salted
// md5 scheme.
type AuthRepository struct {
	db *sqlx.DB
}

// NewAuthRepository creates an authentication repository.
func NewAuthRepository(db *sqlx.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

var _ grid.AuthenticationService = (*AuthRepository)(nil)

// Authenticate verifies password and issues a fresh token. Tokens are not
// stored here; the caller binds the token to its own session and TTL.
func (r *AuthRepository) Authenticate(ctx context.Context, principalID uuid.UUID, password string, _ time.Duration) (string, error) {
	info, err := r.GetAuthInfo(ctx, principalID)
	if err != nil {
		if errors.Is(err, grid.ErrNotFound) {
			return "", grid.ErrAuthFailed
		}
		return "", err
	}
	if !CheckPassword(password, info.PasswordHash, info.PasswordSalt) {
		return "", grid.ErrAuthFailed
	}
	return uuid.NewString(), nil
}

// SetPassword stores a new salted hash for principalID.
func (r *AuthRepository) SetPassword(ctx context.Context, principalID uuid.UUID, password string) error {
	salt, err := NewSalt()
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	hash := HashPassword(password, salt)

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE auth SET password_hash = ?, password_salt = ?
		WHERE principal_id = ?`), hash, salt, principalID.String())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if rowsAffected(res) > 0 {
		return nil
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO auth (principal_id, password_hash, password_salt, account_type)
		VALUES (?, ?, ?, ?)`), principalID.String(), hash, salt, "UserAccount")
	if err != nil {
		return fmt.Errorf("insert password: %w", err)
	}
	return nil
}

// GetAuthInfo returns the stored credential row.
func (r *AuthRepository) GetAuthInfo(ctx context.Context, principalID uuid.UUID) (*models.Auth, error) {
	var info models.Auth
	err := r.db.GetContext(ctx, &info, r.db.Rebind(`SELECT principal_id, password_hash, password_salt, account_type
		FROM auth WHERE principal_id = ?`), principalID.String())
	if err != nil {
		return nil, notFound(err)
	}
	return &info, nil
}

// DeleteAuth removes the credential row. Missing rows are not an error.
func (r *AuthRepository) DeleteAuth(ctx context.Context, principalID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM auth WHERE principal_id = ?`), principalID.String()); err != nil {
		return fmt.Errorf("delete auth: %w", err)
	}
	return nil
}
