package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/models"
)

// EnsureAdmin creates the configured administrator account when it does not
// exist yet. It reports whether an account was created. Without a configured
// name and password it does nothing.
func (s *Services) EnsureAdmin(ctx context.Context) (bool, error) {
	a := s.cfg.Admin
	if a.FirstName == "" || a.LastName == "" || a.Password == "" {
		return false, nil
	}
	_, err := s.grid.Accounts.GetUserAccountByName(ctx, a.FirstName, a.LastName)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, grid.ErrNotFound) {
		return false, fmt.Errorf("look up admin account: %w", err)
	}

	acc := &models.UserAccount{
		PrincipalID: uuid.New(),
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Email:       a.Email,
		UserLevel:   a.UserLevel,
		Created:     s.now().Unix(),
	}
	if err := s.grid.Accounts.StoreUserAccount(ctx, acc); err != nil {
		return false, fmt.Errorf("store admin account: %w", err)
	}
	if err := s.grid.Auth.SetPassword(ctx, acc.PrincipalID, a.Password); err != nil {
		return false, fmt.Errorf("set admin password: %w", err)
	}
	if err := s.grid.Inventory.CreateUserInventory(ctx, acc.PrincipalID); err != nil {
		return false, fmt.Errorf("create admin inventory: %w", err)
	}
	s.logger.Info("administrator account created", "name", acc.Name(), "principal", acc.PrincipalID, "level", acc.UserLevel)
	return true, nil
}
