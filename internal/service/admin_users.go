package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/divawifi/wifi/internal/models"
	"github.com/divawifi/wifi/internal/webapp"
	"github.com/divawifi/wifi/internal/wifiscript"
)

// UserEditForm is the POST body of /wifi/admin/users/:id.
type UserEditForm struct {
	FirstName string
	LastName  string
	Email     string
	Title     string
	Level     string
	Password  string
}

// accountItems joins accounts with their grid user rows.
func (s *Services) accountItems(ctx context.Context, accounts []*models.UserAccount) []any {
	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.PrincipalID.String()
	}
	infos := make(map[string]*models.GridUserInfo, len(accounts))
	if len(ids) > 0 {
		rows, err := s.grid.GridUsers.GetGridUserInfos(ctx, ids)
		if err != nil {
			s.logger.Warn("load grid users failed", "error", err)
		}
		for _, r := range rows {
			infos[r.UserID] = r
		}
	}
	data := make([]any, len(accounts))
	for i, a := range accounts {
		data[i] = &webapp.AccountItem{Account: a, Info: infos[a.PrincipalID.String()], AdminLevel: s.cfg.Admin.UserLevel}
	}
	return data
}

// UserList searches the accounts. An empty query lists everyone.
func (s *Services) UserList(ctx context.Context, env *wifiscript.Environment, query string) string {
	if page, ok := s.requireAdmin(env); !ok {
		return page
	}
	accounts, err := s.grid.Accounts.SearchUserAccounts(ctx, strings.TrimSpace(query))
	if err != nil {
		return s.failed(env, "search accounts", err)
	}
	env.Data = s.accountItems(ctx, accounts)
	return s.render(env, webapp.StateUserList)
}

// UserEdit renders the edit form of one account.
func (s *Services) UserEdit(ctx context.Context, env *wifiscript.Environment, id uuid.UUID) string {
	if page, ok := s.requireAdmin(env); !ok {
		return page
	}
	acc, err := s.grid.Accounts.GetUserAccount(ctx, id)
	if err != nil {
		return s.failed(env, "load account", err)
	}
	env.Data = s.accountItems(ctx, []*models.UserAccount{acc})
	return s.render(env, webapp.StateUserEdit)
}

// UpdateUser stores the administrator's edits. Empty fields are left
// unchanged.
func (s *Services) UpdateUser(ctx context.Context, env *wifiscript.Environment, id uuid.UUID, form UserEditForm) string {
	if page, ok := s.requireAdmin(env); !ok {
		return page
	}
	acc, err := s.grid.Accounts.GetUserAccount(ctx, id)
	if err != nil {
		return s.failed(env, "load account", err)
	}
	updated := *acc
	if v := strings.TrimSpace(form.FirstName); v != "" {
		if !validName(v) {
			return s.message(env, "The action could not be performed.")
		}
		updated.FirstName = v
	}
	if v := strings.TrimSpace(form.LastName); v != "" {
		if !validName(v) {
			return s.message(env, "The action could not be performed.")
		}
		updated.LastName = v
	}
	if v := strings.TrimSpace(form.Email); v != "" {
		updated.Email = v
	}
	updated.UserTitle = strings.TrimSpace(form.Title)
	if v := strings.TrimSpace(form.Level); v != "" {
		level, err := strconv.Atoi(v)
		if err != nil {
			return s.message(env, "The action could not be performed.")
		}
		updated.UserLevel = level
	}
	if err := s.grid.Accounts.StoreUserAccount(ctx, &updated); err != nil {
		return s.failed(env, "store account", err)
	}
	if form.Password != "" {
		if err := s.grid.Auth.SetPassword(ctx, id, form.Password); err != nil {
			return s.failed(env, "set password", err)
		}
	}
	s.logger.Info("account edited", "admin", s.principal(env), "principal", id, "level", updated.UserLevel)
	return s.notify(ctx, env, "Your changes have been saved.", "/wifi/admin/users")
}

// ActivateUser lifts a pending account to the default level and tells the
// owner by mail.
func (s *Services) ActivateUser(ctx context.Context, env *wifiscript.Environment, id uuid.UUID) string {
	if page, ok := s.requireAdmin(env); !ok {
		return page
	}
	acc, err := s.grid.Accounts.GetUserAccount(ctx, id)
	if err != nil {
		return s.failed(env, "load account", err)
	}
	if acc.IsPending() {
		updated := *acc
		updated.UserLevel = 0
		if err := s.grid.Accounts.StoreUserAccount(ctx, &updated); err != nil {
			return s.failed(env, "activate account", err)
		}
		s.logger.Info("account activated", "admin", s.principal(env), "principal", id)
		s.sendMail(acc.Email,
			s.app.Tf(env, "Your account on %s", s.cfg.GridName),
			fmt.Sprintf("Dear %s,\n\nyour account on %s has been activated. You can now log in at %s\n",
				acc.Name(), s.cfg.GridName, s.cfg.LoginURL))
	}
	return s.notify(ctx, env, "Your changes have been saved.", "/wifi/admin/users")
}

// DeleteUser removes an account and everything the panel knows about it.
// Administrators cannot delete themselves.
func (s *Services) DeleteUser(ctx context.Context, env *wifiscript.Environment, id uuid.UUID) string {
	if page, ok := s.requireAdmin(env); !ok {
		return page
	}
	if id == s.principal(env) {
		return s.message(env, "You are not allowed to do that.")
	}
	if _, err := s.grid.Accounts.GetUserAccount(ctx, id); err != nil {
		return s.failed(env, "load account", err)
	}
	if err := s.grid.Accounts.DeleteUserAccount(ctx, id); err != nil {
		return s.failed(env, "delete account", err)
	}
	// The account is gone; the rest is best effort.
	steps := []struct {
		name string
		run  func() error
	}{
		{"auth", func() error { return s.grid.Auth.DeleteAuth(ctx, id) }},
		{"inventory", func() error { return s.grid.Inventory.DeleteInventory(ctx, id) }},
		{"memberships", func() error { return s.grid.Groups.RemoveMemberships(ctx, id.String()) }},
		{"grid user", func() error { return s.grid.GridUsers.DeleteGridUser(ctx, id.String()) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			s.logger.Warn("delete user cleanup failed", "principal", id, "step", step.name, "error", err)
		}
	}
	sessions := s.sessions.ListByAccount(ctx, id)
	for _, sess := range sessions {
		if err := s.sessions.Remove(ctx, sess.ID); err != nil {
			s.logger.Warn("remove session failed", "principal", id, "error", err)
		}
	}
	s.logger.Info("account deleted", "admin", s.principal(env), "principal", id, "sessions", len(sessions))
	return s.notify(ctx, env, "Your changes have been saved.", "/wifi/admin/users")
}

var exportHeader = []any{"PrincipalID", "FirstName", "LastName", "Email", "UserLevel", "UserTitle", "Created", "LastLogin"}

// ExportUsers returns the account list as an xlsx workbook.
func (s *Services) ExportUsers(ctx context.Context, env *wifiscript.Environment) ([]byte, error) {
	if !s.IsAdmin(env) {
		return nil, ErrForbidden
	}
	accounts, err := s.grid.Accounts.SearchUserAccounts(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Users"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, item := range s.accountItems(ctx, accounts) {
		a := item.(*webapp.AccountItem)
		lastLogin := ""
		if t := a.LastSeen(); !t.IsZero() {
			lastLogin = t.UTC().Format("2006-01-02 15:04")
		}
		row := []any{
			a.Account.PrincipalID.String(), a.Account.FirstName, a.Account.LastName, a.Account.Email,
			a.Account.UserLevel, a.Account.UserTitle, a.Account.CreatedTime().UTC().Format("2006-01-02"), lastLogin,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	s.logger.Info("users exported", "admin", s.principal(env), "rows", len(accounts))
	return buf.Bytes(), nil
}
