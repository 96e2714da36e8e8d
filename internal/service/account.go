package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/divawifi/wifi/internal/constants"
	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/models"
	"github.com/divawifi/wifi/internal/webapp"
	"github.com/divawifi/wifi/internal/wifiscript"
)

// AccountForm is the POST body of /wifi/user/account.
type AccountForm struct {
	Email           string
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

// NewAccountForm is the POST body of /wifi/user/newaccount.
type NewAccountForm struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	AvatarType      string
}

func validName(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	return strings.IndexFunc(s, unicode.IsSpace) < 0
}

// currentAccount reloads the session account so edits made elsewhere are
// visible; the session's own reference never changes.
func (s *Services) currentAccount(ctx context.Context, env *wifiscript.Environment) *models.UserAccount {
	acc, err := s.grid.Accounts.GetUserAccount(ctx, s.principal(env))
	if err != nil {
		s.logger.Warn("reload account failed", "principal", s.principal(env), "error", err)
		return env.Session.Account
	}
	return acc
}

// AccountPage renders the user's own account form.
func (s *Services) AccountPage(ctx context.Context, env *wifiscript.Environment) string {
	if page, ok := s.requireUser(env); !ok {
		return page
	}
	env.Data = []any{&webapp.AccountItem{Account: s.currentAccount(ctx, env), AdminLevel: s.cfg.Admin.UserLevel}}
	return s.render(env, webapp.StateAccountForm)
}

// UpdateAccount changes the user's email and/or password. The current
// password is always required.
func (s *Services) UpdateAccount(ctx context.Context, env *wifiscript.Environment, form AccountForm) string {
	if page, ok := s.requireUser(env); !ok {
		return page
	}
	id := s.principal(env)
	if _, err := s.grid.Auth.Authenticate(ctx, id, form.OldPassword, 0); err != nil {
		s.logger.Info("account update refused", "principal", id, "reason", "bad password")
		return s.message(env, "You are not allowed to do that.")
	}
	if form.NewPassword != form.ConfirmPassword {
		return s.message(env, "The action could not be performed.")
	}
	if form.NewPassword != "" && !s.passwordAllowed(form.NewPassword) {
		return s.message(env, msgWeakPassword)
	}

	acc := s.currentAccount(ctx, env)
	if email := strings.TrimSpace(form.Email); email != "" && email != acc.Email {
		updated := *acc
		updated.Email = email
		if err := s.grid.Accounts.StoreUserAccount(ctx, &updated); err != nil {
			return s.failed(env, "update email", err)
		}
	}
	if form.NewPassword != "" {
		if err := s.grid.Auth.SetPassword(ctx, id, form.NewPassword); err != nil {
			return s.failed(env, "set password", err)
		}
	}
	s.logger.Info("account updated", "principal", id)
	return s.notify(ctx, env, "Your changes have been saved.", "/wifi/user/account")
}

// NewAccountPage renders the registration form.
func (s *Services) NewAccountPage(_ context.Context, env *wifiscript.Environment) string {
	return s.render(env, webapp.StateNewAccountForm)
}

// CreateAccount registers a new grid user. With account confirmation
// enabled the account starts pending and an administrator is told by mail.
func (s *Services) CreateAccount(ctx context.Context, env *wifiscript.Environment, form NewAccountForm) string {
	first, last := strings.TrimSpace(form.FirstName), strings.TrimSpace(form.LastName)
	email := strings.TrimSpace(form.Email)
	if !validName(first) || !validName(last) || form.Password == "" || form.Password != form.ConfirmPassword {
		return s.message(env, "The action could not be performed.")
	}
	if !s.passwordAllowed(form.Password) {
		return s.message(env, msgWeakPassword)
	}
	if _, err := s.grid.Accounts.GetUserAccountByName(ctx, first, last); err == nil {
		s.logger.Info("account name taken", "first", first, "last", last)
		return s.message(env, "The action could not be performed.")
	} else if !errors.Is(err, grid.ErrNotFound) {
		return s.failed(env, "check account name", err)
	}

	level := constants.UserLevelDefault
	if s.cfg.AccountConfirmationRequired {
		level = constants.UserLevelPending
	}
	acc := &models.UserAccount{
		PrincipalID: uuid.New(),
		FirstName:   first,
		LastName:    last,
		Email:       email,
		UserLevel:   level,
		Created:     s.now().Unix(),
	}
	if err := s.grid.Accounts.StoreUserAccount(ctx, acc); err != nil {
		return s.failed(env, "create account", err)
	}
	if err := s.grid.Auth.SetPassword(ctx, acc.PrincipalID, form.Password); err != nil {
		return s.failed(env, "set password", err)
	}
	if err := s.grid.Inventory.CreateUserInventory(ctx, acc.PrincipalID); err != nil {
		return s.failed(env, "create inventory", err)
	}
	if n, err := s.copyAvatar(ctx, acc.PrincipalID, form.AvatarType); err != nil {
		s.logger.Warn("avatar inventory copy failed", "principal", acc.PrincipalID, "type", form.AvatarType, "error", err)
	} else if n > 0 {
		s.logger.Info("avatar inventory copied", "principal", acc.PrincipalID, "type", form.AvatarType, "items", n)
	}
	s.logger.Info("account created", "user", acc.Name(), "principal", acc.PrincipalID, "pending", acc.IsPending())

	env.Message = acc.Name()
	if acc.IsPending() {
		s.sendMail(s.cfg.Admin.Email,
			fmt.Sprintf("%s: new account %s awaits activation", s.cfg.GridName, acc.Name()),
			fmt.Sprintf("%s (%s) registered on %s.\n\nActivate the account at %s/wifi/admin/users\n",
				acc.Name(), acc.Email, s.cfg.GridName, s.cfg.WebAddress))
		return s.render(env, webapp.StateNewAccountPending)
	}
	return s.render(env, webapp.StateNewAccountCreated)
}

// copyAvatar copies the clothing and body parts of the account configured
// for avatarType into the matching folders of owner. It returns the number
// of items copied.
func (s *Services) copyAvatar(ctx context.Context, owner uuid.UUID, avatarType string) (int, error) {
	name, ok := s.cfg.AvatarAccounts[strings.ToLower(strings.TrimSpace(avatarType))]
	if !ok {
		return 0, nil
	}
	first, last, _ := strings.Cut(name, " ")
	src, err := s.grid.Accounts.GetUserAccountByName(ctx, first, last)
	if err != nil {
		return 0, fmt.Errorf("load avatar account %q: %w", name, err)
	}
	folders, err := s.grid.Inventory.GetInventorySkeleton(ctx, src.PrincipalID)
	if err != nil {
		return 0, fmt.Errorf("load avatar inventory: %w", err)
	}

	copied := 0
	for _, f := range folders {
		if f.Type != constants.FolderTypeClothing && f.Type != constants.FolderTypeBodyPart {
			continue
		}
		dst, err := s.grid.Inventory.GetFolderForType(ctx, owner, f.Type)
		if err != nil {
			return copied, fmt.Errorf("target folder type %d: %w", f.Type, err)
		}
		content, err := s.grid.Inventory.GetFolderContent(ctx, src.PrincipalID, f.FolderID)
		if err != nil {
			return copied, fmt.Errorf("read folder %s: %w", f.FolderID, err)
		}
		for _, item := range content.Items {
			cp := *item
			cp.ItemID = uuid.New()
			cp.OwnerID = owner
			cp.FolderID = dst.FolderID
			cp.Created = s.now().Unix()
			if err := s.grid.Inventory.AddItem(ctx, &cp); err != nil {
				return copied, fmt.Errorf("copy item %s: %w", item.ItemID, err)
			}
			copied++
		}
	}
	return copied, nil
}
