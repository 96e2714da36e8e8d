// Package service is the facade between the HTTP handlers and the grid
// services. Every operation checks the session and privilege level, calls
// the grid, then sets the environment's state, flags and data and renders
// the page.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/divawifi/wifi/internal/config"
	"github.com/divawifi/wifi/internal/console"
	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/models"
	"github.com/divawifi/wifi/internal/notifications"
	"github.com/divawifi/wifi/internal/recovery"
	"github.com/divawifi/wifi/internal/session"
	"github.com/divawifi/wifi/internal/tos"
	"github.com/divawifi/wifi/internal/webapp"
	"github.com/divawifi/wifi/internal/wifiscript"
)

// ErrForbidden is returned by non-page operations when the caller lacks the
// required level.
var ErrForbidden = errors.New("forbidden")

// RemoteAdmin is the simulator remote admin surface behind the server page.
type RemoteAdmin interface {
	Shutdown(ctx context.Context, delay time.Duration) error
	Restart(ctx context.Context, regionID uuid.UUID) error
	Broadcast(ctx context.Context, message string) error
}

// Console is the simulator REST console behind the console page.
type Console interface {
	Configured() bool
	Start(ctx context.Context) (*console.Session, []byte, error)
	Command(ctx context.Context, sessionID, command string) ([]byte, error)
	Read(ctx context.Context, sessionID string) ([]byte, error)
	Close(ctx context.Context, sessionID string) ([]byte, error)
}

// Services implements every page operation.
type Services struct {
	app      *webapp.WebApp
	cfg      *config.Config
	grid     grid.Services
	sessions *session.Table

	mailer   notifications.EmailProvider
	mailDone func(error)
	recovery *recovery.Issuer
	remote   RemoteAdmin
	console  Console
	tos      *tos.Gate

	logger *slog.Logger
	now    func() time.Time
}

// Option configures Services.
type Option func(*Services)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Services) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Services) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMailer enables outbound mail. done, when non-nil, is called after
// every asynchronous delivery.
func WithMailer(m notifications.EmailProvider, done func(error)) Option {
	return func(s *Services) {
		s.mailer = m
		s.mailDone = done
	}
}

// WithRecovery enables password recovery.
func WithRecovery(i *recovery.Issuer) Option {
	return func(s *Services) { s.recovery = i }
}

// WithRemoteAdmin enables the server page actions.
func WithRemoteAdmin(r RemoteAdmin) Option {
	return func(s *Services) { s.remote = r }
}

// WithConsole enables the console page.
func WithConsole(c Console) Option {
	return func(s *Services) { s.console = c }
}

// WithTOS enables the terms of service page and gate.
func WithTOS(g *tos.Gate) Option {
	return func(s *Services) { s.tos = g }
}

// New creates the facade.
func New(app *webapp.WebApp, services grid.Services, sessions *session.Table, opts ...Option) *Services {
	s := &Services{
		app:      app,
		cfg:      app.Config(),
		grid:     services,
		sessions: sessions,
		logger:   app.Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Grid returns the upstream services.
func (s *Services) Grid() grid.Services { return s.grid }

// Sessions returns the session table.
func (s *Services) Sessions() *session.Table { return s.sessions }

// TOSGate returns the terms gate, or nil when none is configured.
func (s *Services) TOSGate() *tos.Gate { return s.tos }

// Attach looks sid up in the session table and binds the session to env.
// An unknown or foreign session leaves env anonymous.
func (s *Services) Attach(ctx context.Context, env *wifiscript.Environment, sid string) {
	if sid == "" {
		return
	}
	if sess, ok := s.sessions.TryGet(ctx, sid, env.Request.RemoteIP); ok {
		env.Session = sess
	}
}

// Level returns the session user's level and whether there is a session.
func Level(env *wifiscript.Environment) (int, bool) {
	if env.Session == nil || env.Session.Account == nil {
		return 0, false
	}
	return env.Session.Account.UserLevel, true
}

// IsAdmin reports whether env belongs to an administrator.
func (s *Services) IsAdmin(env *wifiscript.Environment) bool {
	level, ok := Level(env)
	return ok && s.cfg.IsAdminLevel(level)
}

func (s *Services) flags(env *wifiscript.Environment) wifiscript.Flags {
	level, ok := Level(env)
	if !ok {
		return 0
	}
	f := wifiscript.FlagLoggedIn | wifiscript.FlagValidSession
	if s.cfg.IsAdminLevel(level) {
		f |= wifiscript.FlagAdmin
		if s.console != nil && s.console.Configured() {
			f |= wifiscript.FlagConsole
		}
	}
	if level >= s.cfg.Hyperlinks.UserLevel {
		f |= wifiscript.FlagHyperlinks
	}
	if env.Session.Notify != nil {
		f |= wifiscript.FlagNotify
	}
	return f
}

// render fixes flags and state for env and renders the page frame.
func (s *Services) render(env *wifiscript.Environment, state wifiscript.State) string {
	env.SetFlags(s.flags(env))
	env.SetState(state)
	return s.app.Render(env)
}

func (s *Services) message(env *wifiscript.Environment, key string) string {
	env.Message = s.app.T(env, key)
	return s.render(env, webapp.StateMessage)
}

const msgWeakPassword = "The password does not meet the requirements."

// passwordAllowed checks a user-chosen password against the configured
// policy. Administrators editing other accounts are not held to it.
func (s *Services) passwordAllowed(password string) bool {
	if err := s.cfg.Password.Check(password); err != nil {
		s.logger.Info("password rejected", "reason", err)
		return false
	}
	return true
}

// failed logs err and renders the generic failure page.
func (s *Services) failed(env *wifiscript.Environment, op string, err error) string {
	s.logger.Error(op+" failed", "path", env.Request.Path, "error", err)
	return s.message(env, "The action could not be performed.")
}

// requireUser returns the page to serve instead when env has no session.
func (s *Services) requireUser(env *wifiscript.Environment) (string, bool) {
	if _, ok := Level(env); !ok {
		return s.render(env, webapp.StateHome), false
	}
	return "", true
}

// requireAdmin returns the page to serve instead when env is not an
// administrator.
func (s *Services) requireAdmin(env *wifiscript.Environment) (string, bool) {
	if page, ok := s.requireUser(env); !ok {
		return page, false
	}
	if !s.IsAdmin(env) {
		s.logger.Warn("admin page refused", "path", env.Request.Path, "user", env.Session.Account.PrincipalID)
		env.Message = s.app.T(env, "You are not allowed to do that.")
		return s.render(env, webapp.StateForbidden), false
	}
	return "", true
}

// notify stores a follow-up notification on the session and asks the
// handler to redirect to the notification page. The returned page shows the
// same notification for clients that do not follow redirects.
func (s *Services) notify(ctx context.Context, env *wifiscript.Environment, key, redirect string) string {
	if env.Session == nil {
		return s.message(env, key)
	}
	env.Session.Notify = &models.Notification{
		Message:     s.app.T(env, key),
		RedirectURL: redirect,
		Seconds:     3,
	}
	if err := s.sessions.Update(ctx, env.Session, 0); err != nil {
		s.logger.Warn("store notification failed", "error", err)
	} else {
		env.Redirect = webapp.Link(env, "/wifi/notify")
	}
	return s.render(env, webapp.StateNotify)
}

// Notify shows the pending notification once, then clears it.
func (s *Services) Notify(ctx context.Context, env *wifiscript.Environment) string {
	if env.Session == nil || env.Session.Notify == nil {
		return s.Default(ctx, env)
	}
	page := s.render(env, webapp.StateNotify)
	cleared := env.Session.Clone()
	cleared.Notify = nil
	if err := s.sessions.Update(ctx, cleared, 0); err != nil {
		s.logger.Warn("clear notification failed", "error", err)
	}
	return page
}

// sendMail delivers in the background when a mailer is configured.
func (s *Services) sendMail(to, subject, body string) bool {
	if s.mailer == nil || to == "" {
		s.logger.Info("mail not sent", "to", to, "subject", subject, "reason", "no mailer or recipient")
		return false
	}
	notifications.SendAsync(s.mailer, notifications.EmailMessage{
		To:      []string{to},
		Subject: subject,
		Body:    body,
	}, s.logger, s.mailDone)
	return true
}

func (s *Services) principal(env *wifiscript.Environment) uuid.UUID {
	return env.Session.Account.PrincipalID
}
