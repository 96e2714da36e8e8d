package wifiscript

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/divawifi/wifi/internal/models"
)

// State identifies the logical page a request renders. Values are defined by
// the application; zero means no state was set.
type State int

// Flags is the per-request bit set consulted by templates.
type Flags uint32

const (
	FlagLoggedIn Flags = 1 << iota
	FlagAdmin
	FlagValidSession
	FlagHyperlinks
	FlagNotify
	FlagConsole
)

// Request is the part of the HTTP request templates may see.
type Request struct {
	Method         string
	Path           string
	RemoteIP       string
	Query          url.Values
	Form           url.Values
	Cookies        map[string]string
	AcceptLanguage string
}

// Param returns a form value, falling back to the query string.
func (r *Request) Param(key string) string {
	if r == nil {
		return ""
	}
	if v := strings.TrimSpace(r.Form.Get(key)); v != "" {
		return v
	}
	return strings.TrimSpace(r.Query.Get(key))
}

// Environment carries one request through the services and the processor.
// State and flags are write-once: the first Set wins.
type Environment struct {
	Request  *Request
	Session  *models.Session
	Language string
	Data     []any

	// Message is a one-line result shown by message templates.
	Message string

	// Redirect, when set, asks the handler to answer with a 303 to this
	// location instead of the rendered page.
	Redirect string

	state    State
	stateSet bool
	flags    Flags
	flagsSet bool

	logger *slog.Logger
	active *render
}

// NewEnvironment wraps a request snapshot.
func NewEnvironment(req *Request, logger *slog.Logger) *Environment {
	if req == nil {
		req = &Request{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Environment{Request: req, Language: "en", logger: logger}
}

// SetState records the page state. Later calls are ignored and reported
// false.
func (e *Environment) SetState(s State) bool {
	if e.stateSet {
		e.logger.Debug("state already set", "current", int(e.state), "ignored", int(s), "path", e.Request.Path)
		return false
	}
	e.state = s
	e.stateSet = true
	return true
}

// State returns the page state.
func (e *Environment) State() State { return e.state }

// SetFlags records the flag set. Later calls are ignored and reported false.
func (e *Environment) SetFlags(f Flags) bool {
	if e.flagsSet {
		e.logger.Debug("flags already set", "current", e.flags, "ignored", f, "path", e.Request.Path)
		return false
	}
	e.flags = f
	e.flagsSet = true
	return true
}

// Flags returns the flag set.
func (e *Environment) Flags() Flags { return e.flags }

// Has reports whether every bit of f is set.
func (e *Environment) Has(f Flags) bool { return e.flags&f == f }

// Include renders file inside the active render, as an include directive
// would. Outside a render it returns "".
func (e *Environment) Include(file string) string {
	if e.active == nil {
		return ""
	}
	return e.active.include(file, -1)
}

// Current returns the data element under the cursor of the active render.
func (e *Environment) Current() any {
	if e.active == nil {
		return nil
	}
	return e.active.current()
}
