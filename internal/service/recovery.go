package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/divawifi/wifi/internal/recovery"
	"github.com/divawifi/wifi/internal/webapp"
	"github.com/divawifi/wifi/internal/wifiscript"
)

var errNoMailer = errors.New("no mailer configured")

// ForgotPasswordPage renders the recovery request form.
func (s *Services) ForgotPasswordPage(_ context.Context, env *wifiscript.Environment) string {
	return s.render(env, webapp.StateForgotPasswordForm)
}

// ForgotPassword mails a recovery link to the account registered with
// email. The same page is shown whether or not the address is known.
func (s *Services) ForgotPassword(ctx context.Context, env *wifiscript.Environment, email string) string {
	email = strings.TrimSpace(email)
	if email != "" && s.recovery != nil {
		if err := s.sendRecovery(ctx, env, email); err != nil {
			s.logger.Info("recovery not sent", "email", email, "error", err)
		}
	}
	return s.render(env, webapp.StateForgotPasswordSent)
}

func (s *Services) sendRecovery(ctx context.Context, env *wifiscript.Environment, email string) error {
	acc, err := s.grid.Accounts.GetUserAccountByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("look up account: %w", err)
	}
	auth, err := s.grid.Auth.GetAuthInfo(ctx, acc.PrincipalID)
	if err != nil {
		return fmt.Errorf("load auth: %w", err)
	}
	token, err := s.recovery.Issue(acc.PrincipalID, recovery.Fingerprint(auth))
	if err != nil {
		return err
	}
	link := s.cfg.WebAddress + "/wifi/recover?token=" + url.QueryEscape(token)
	body := fmt.Sprintf("Dear %s,\n\nsomeone asked to reset the password of your account on %s.\n"+
		"To choose a new password, open this link within the next hour:\n\n%s\n\n"+
		"If you did not ask for this, ignore this message.\n", acc.Name(), s.cfg.GridName, link)
	if !s.sendMail(acc.Email, s.app.Tf(env, "Password recovery for %s", acc.Name()), body) {
		return errNoMailer
	}
	s.logger.Info("recovery mail queued", "principal", acc.PrincipalID)
	return nil
}

// RecoverPage renders the new password form for a valid token.
func (s *Services) RecoverPage(_ context.Context, env *wifiscript.Environment, token string) string {
	if s.recovery == nil {
		return s.message(env, "The action could not be performed.")
	}
	if _, err := s.recovery.Subject(token); err != nil {
		s.logger.Info("recovery token rejected", "error", err)
		return s.message(env, "The action could not be performed.")
	}
	return s.render(env, webapp.StateRecoverForm)
}

// Recover sets a new password. The token must still match the current
// credential, so a used link cannot be replayed.
func (s *Services) Recover(ctx context.Context, env *wifiscript.Environment, token, password, confirm string) string {
	if s.recovery == nil || password == "" || password != confirm {
		return s.message(env, "The action could not be performed.")
	}
	if !s.passwordAllowed(password) {
		return s.message(env, msgWeakPassword)
	}
	id, err := s.recovery.Subject(token)
	if err != nil {
		s.logger.Info("recovery token rejected", "error", err)
		return s.message(env, "The action could not be performed.")
	}
	auth, err := s.grid.Auth.GetAuthInfo(ctx, id)
	if err != nil {
		return s.failed(env, "load auth", err)
	}
	if _, err := s.recovery.Verify(token, recovery.Fingerprint(auth)); err != nil {
		s.logger.Info("recovery token rejected", "principal", id, "error", err)
		return s.message(env, "The action could not be performed.")
	}
	if err := s.grid.Auth.SetPassword(ctx, id, password); err != nil {
		return s.failed(env, "set password", err)
	}
	s.logger.Info("password recovered", "principal", id, "ip", env.Request.RemoteIP)
	return s.message(env, "Your changes have been saved.")
}
