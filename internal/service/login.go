package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/divawifi/wifi/internal/metrics"
	"github.com/divawifi/wifi/internal/models"
	"github.com/divawifi/wifi/internal/webapp"
	"github.com/divawifi/wifi/internal/wifiscript"
)

// Stats are the grid totals shown on the home page.
type Stats struct {
	Users   int
	Online  int
	Regions int
}

// Field exposes the totals to templates.
func (st *Stats) Field(name string) (string, bool) {
	switch name {
	case "Users":
		return strconv.Itoa(st.Users), true
	case "Online":
		return strconv.Itoa(st.Online), true
	case "Regions":
		return strconv.Itoa(st.Regions), true
	}
	return "", false
}

// Stats counts accounts, online users and regions. Failed counts are
// logged and left at zero.
func (s *Services) Stats(ctx context.Context) *Stats {
	st := &Stats{}
	var err error
	if st.Users, err = s.grid.Accounts.CountUserAccounts(ctx); err != nil {
		s.logger.Warn("count accounts failed", "error", err)
	}
	if st.Online, err = s.grid.Presence.CountOnline(ctx); err != nil {
		s.logger.Warn("count online failed", "error", err)
	}
	regions, err := s.grid.Grid.GetRegions(ctx)
	if err != nil {
		s.logger.Warn("list regions failed", "error", err)
	}
	st.Regions = len(regions)
	return st
}

// Default renders the home page.
func (s *Services) Default(ctx context.Context, env *wifiscript.Environment) string {
	env.Data = []any{s.Stats(ctx)}
	return s.render(env, webapp.StateHome)
}

// LoginForm renders the login form, or the home page for a logged-in user.
func (s *Services) LoginForm(ctx context.Context, env *wifiscript.Environment) string {
	if env.Session != nil {
		return s.Default(ctx, env)
	}
	return s.render(env, webapp.StateLoginForm)
}

// Login authenticates first/last/password. On success a session keyed by
// the authentication token is stored and bound to env.
func (s *Services) Login(ctx context.Context, env *wifiscript.Environment, first, last, password string) string {
	logins := metrics.Get().Logins
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)
	fail := func(reason string, err error) string {
		s.logger.Info("login failed", "first", first, "last", last, "ip", env.Request.RemoteIP, "reason", reason, "error", err)
		logins.WithLabelValues("failure").Inc()
		return s.render(env, webapp.StateLoginFailed)
	}
	if first == "" || last == "" || password == "" {
		return fail("missing credentials", nil)
	}

	acc, err := s.grid.Accounts.GetUserAccountByName(ctx, first, last)
	if err != nil {
		return fail("unknown account", err)
	}
	if acc.IsPending() {
		return fail("account pending", nil)
	}
	token, err := s.grid.Auth.Authenticate(ctx, acc.PrincipalID, password, s.sessions.TTL())
	if err != nil {
		return fail("bad password", err)
	}

	sess := &models.Session{ID: token, ClientIP: env.Request.RemoteIP, Account: acc}
	if err := s.sessions.Add(ctx, sess, 0); err != nil {
		return fail("session store", err)
	}
	env.Session = sess
	logins.WithLabelValues("success").Inc()
	s.logger.Info("login", "user", acc.Name(), "principal", acc.PrincipalID, "ip", env.Request.RemoteIP)
	env.Message = acc.Name()
	return s.render(env, webapp.StateLoginSuccess)
}

// Logout removes the session.
func (s *Services) Logout(ctx context.Context, env *wifiscript.Environment) string {
	if env.Session != nil {
		if err := s.sessions.Remove(ctx, env.Session.ID); err != nil {
			s.logger.Warn("remove session failed", "error", err)
		}
		env.Session = nil
	}
	return s.render(env, webapp.StateLogout)
}
