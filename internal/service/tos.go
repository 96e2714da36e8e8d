package service

import (
	"context"

	"github.com/divawifi/wifi/internal/tos"
	"github.com/divawifi/wifi/internal/webapp"
	"github.com/divawifi/wifi/internal/wifiscript"
)

// termsItem exposes the sanitized terms. Text is already safe HTML.
type termsItem struct {
	html     string
	accepted bool
}

func (t *termsItem) Field(name string) (string, bool) {
	switch name {
	case "Text", "HTML":
		return t.html, true
	case "Accepted":
		if t.accepted {
			return "yes", true
		}
		return "no", true
	}
	return "", false
}

// TOSPage renders the terms of service.
func (s *Services) TOSPage(ctx context.Context, env *wifiscript.Environment) string {
	if !s.tos.Enabled() {
		return s.Default(ctx, env)
	}
	item := &termsItem{html: s.tos.HTML()}
	if _, ok := Level(env); ok {
		d, err := s.tos.Check(ctx, s.principal(env).String())
		if err != nil {
			s.logger.Warn("terms check failed", "error", err)
		}
		item.accepted = d.Accepted
	}
	env.Data = []any{item}
	return s.render(env, webapp.StateTOS)
}

// AcceptTOS records that the session user accepted the terms.
func (s *Services) AcceptTOS(ctx context.Context, env *wifiscript.Environment) string {
	if page, ok := s.requireUser(env); !ok {
		return page
	}
	if !s.tos.Enabled() {
		return s.Default(ctx, env)
	}
	if err := s.tos.Accept(ctx, s.principal(env).String()); err != nil {
		return s.failed(env, "accept terms", err)
	}
	s.logger.Info("terms accepted", "principal", s.principal(env))
	return s.notify(ctx, env, "Your changes have been saved.", "/wifi")
}

// CheckTOS answers the region module question: must userID accept the
// terms before entering?
func (s *Services) CheckTOS(ctx context.Context, userID string) (tos.Decision, error) {
	return s.tos.Check(ctx, userID)
}
