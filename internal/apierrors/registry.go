package apierrors

import (
	"net/http"
	"sort"
	"strings"
	"sync"
)

// defaultNamespace is assumed for codes registered without a prefix.
const defaultNamespace = "wifi"

// ErrorCode is one entry of the JSON error vocabulary.
type ErrorCode struct {
	Code       string `json:"code"` // namespace:name
	Message    string `json:"message"`
	HTTPStatus int    `json:"http_status"`
}

// Namespace returns the part of the code before the colon.
func (e ErrorCode) Namespace() string {
	if ns, _, ok := strings.Cut(e.Code, ":"); ok && ns != "" {
		return ns
	}
	return defaultNamespace
}

// ErrorEnumerator is implemented by addons that answer with their own codes.
type ErrorEnumerator interface {
	EnumerateErrors() []ErrorCode
}

type codeTable struct {
	mu    sync.RWMutex
	codes map[string]ErrorCode
}

// Registry holds every code the panel can answer with.
var Registry = &codeTable{codes: make(map[string]ErrorCode)}

// Register adds or replaces e. A code without a namespace is filed under
// "wifi".
func (t *codeTable) Register(e ErrorCode) {
	if !strings.Contains(e.Code, ":") {
		e.Code = defaultNamespace + ":" + e.Code
	}
	t.mu.Lock()
	t.codes[e.Code] = e
	t.mu.Unlock()
}

// RegisterAddon files the addon's codes under its lower-cased name unless a
// code already carries a namespace.
func (t *codeTable) RegisterAddon(name string, addon ErrorEnumerator) {
	ns := strings.ToLower(name)
	for _, e := range addon.EnumerateErrors() {
		if !strings.Contains(e.Code, ":") {
			e.Code = ns + ":" + e.Code
		}
		t.Register(e)
	}
}

// Get looks a code up.
func (t *codeTable) Get(code string) (ErrorCode, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.codes[code]
	return e, ok
}

// ByNamespace returns the codes of one namespace, sorted by code.
func (t *codeTable) ByNamespace(ns string) []ErrorCode {
	t.mu.RLock()
	var out []ErrorCode
	for _, e := range t.codes {
		if e.Namespace() == ns {
			out = append(out, e)
		}
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// HTTPStatus is the status to answer code with; unknown codes are 500.
func (t *codeTable) HTTPStatus(code string) int {
	if e, ok := t.Get(code); ok {
		return e.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Message is the default text for code, or the code itself when unknown.
func (t *codeTable) Message(code string) string {
	if e, ok := t.Get(code); ok {
		return e.Message
	}
	return code
}
