// Package tos renders the terms of service and decides whether a user still
// has to accept them before entering the grid.
package tos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/divawifi/wifi/internal/grid"
)

// Markdown converts TOS markdown to sanitized HTML.
func Markdown(src []byte) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("render terms of service: %w", err)
	}
	return bluemonday.UGCPolicy().Sanitize(buf.String()), nil
}

// Load reads the TOS file. Files ending in .html or .htm are only sanitized;
// anything else is treated as markdown. An empty path disables the gate.
func Load(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read terms of service %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return bluemonday.UGCPolicy().Sanitize(string(raw)), nil
	}
	return Markdown(raw)
}

// Decision is the JSON answer to a TOS check.
type Decision struct {
	Accepted bool   `json:"accepted"`
	URL      string `json:"url,omitempty"`
}

// Gate checks and records TOS acceptance on the grid user record.
type Gate struct {
	html  string
	users grid.GridUserService
	url   string
}

// NewGate creates a gate for the rendered html. url is where users read and
// accept the terms.
func NewGate(html string, users grid.GridUserService, url string) *Gate {
	return &Gate{html: html, users: users, url: url}
}

// Enabled reports whether terms are configured.
func (g *Gate) Enabled() bool { return g != nil && g.html != "" }

// HTML returns the sanitized terms.
func (g *Gate) HTML() string {
	if g == nil {
		return ""
	}
	return g.html
}

// Check reports whether userID has accepted the terms. Users without a grid
// user record have not.
func (g *Gate) Check(ctx context.Context, userID string) (Decision, error) {
	if !g.Enabled() {
		return Decision{Accepted: true}, nil
	}
	info, err := g.users.GetGridUserInfo(ctx, userID)
	if errors.Is(err, grid.ErrNotFound) {
		return Decision{URL: g.url}, nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("check terms for %s: %w", userID, err)
	}
	if info.TOSAccepted {
		return Decision{Accepted: true}, nil
	}
	return Decision{URL: g.url}, nil
}

// Accept records acceptance for userID.
func (g *Gate) Accept(ctx context.Context, userID string) error {
	if err := g.users.SetTOSAccepted(ctx, userID, true); err != nil {
		return fmt.Errorf("accept terms for %s: %w", userID, err)
	}
	return nil
}
