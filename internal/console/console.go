// Package console proxies the simulator's REST console so administrators
// can drive it from the browser without the simulator port being public.
package console

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no console URL is set.
var ErrNotConfigured = errors.New("remote console not configured")

// Session is the reply to StartSession.
type Session struct {
	XMLName   xml.Name `xml:"ConsoleSession"`
	SessionID string   `xml:"SessionID"`
	Prompt    string   `xml:"Prompt"`
}

// Line is one line of console output.
type Line struct {
	Number  int    `xml:"Number,attr"`
	Level   string `xml:"Level,attr"`
	Prompt  bool   `xml:"Prompt,attr"`
	Command bool   `xml:"Command,attr"`
	Input   bool   `xml:"Input,attr"`
	Text    string `xml:",chardata"`
}

type responses struct {
	XMLName xml.Name `xml:"ConsoleSession"`
	Lines   []Line   `xml:"Line"`
}

// ParseLines decodes a ReadResponses reply.
func ParseLines(raw []byte) ([]Line, error) {
	var r responses
	if err := xml.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parse console output: %w", err)
	}
	return r.Lines, nil
}

// Proxy talks to one simulator console.
type Proxy struct {
	base   string
	user   string
	pass   string
	client *http.Client
}

// New creates a proxy. An empty baseURL yields a proxy whose calls fail
// with ErrNotConfigured.
func New(baseURL, user, pass string) *Proxy {
	return &Proxy{
		base:   strings.TrimRight(baseURL, "/"),
		user:   user,
		pass:   pass,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether a console URL is set.
func (p *Proxy) Configured() bool { return p != nil && p.base != "" }

// Start opens a console session. The raw XML is returned for pass-through.
func (p *Proxy) Start(ctx context.Context) (*Session, []byte, error) {
	raw, err := p.post(ctx, "/StartSession/", url.Values{"USER": {p.user}, "PASS": {p.pass}})
	if err != nil {
		return nil, nil, err
	}
	var s Session
	if err := xml.Unmarshal(raw, &s); err != nil {
		return nil, raw, fmt.Errorf("parse console session: %w", err)
	}
	if s.SessionID == "" {
		return nil, raw, errors.New("console refused session")
	}
	return &s, raw, nil
}

// Command sends one command line.
func (p *Proxy) Command(ctx context.Context, sessionID, command string) ([]byte, error) {
	return p.post(ctx, "/SessionCommand/", url.Values{"ID": {sessionID}, "COMMAND": {command}})
}

// Read returns the output lines buffered since the last read.
func (p *Proxy) Read(ctx context.Context, sessionID string) ([]byte, error) {
	return p.post(ctx, "/ReadResponses/"+url.PathEscape(sessionID)+"/", url.Values{"ID": {sessionID}})
}

// Close ends the session.
func (p *Proxy) Close(ctx context.Context, sessionID string) ([]byte, error) {
	return p.post(ctx, "/CloseSession/", url.Values{"ID": {sessionID}})
}

func (p *Proxy) post(ctx context.Context, path string, form url.Values) ([]byte, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create console request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("console %s: %w", path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read console %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("console %s: HTTP %d", path, resp.StatusCode)
	}
	return raw, nil
}
