package wifiscript

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// Loader reads template files from a directory tree, preferring a
// per-language subdirectory, and caches their contents until Invalidate.
type Loader struct {
	root string

	mu    sync.RWMutex
	cache map[string]string
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{root: dir, cache: make(map[string]string)}
}

// Root returns the template directory.
func (l *Loader) Root() string { return l.root }

// ReadFile returns <root>/<lang>/<name> when it exists, else <root>/<name>.
func (l *Loader) ReadFile(env *Environment, name string) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	lang := ""
	if env != nil {
		lang = env.Language
	}

	candidates := []string{clean}
	if lang != "" && !strings.ContainsAny(lang, `/\.`) {
		candidates = []string{path.Join(lang, clean), clean}
	}
	for _, rel := range candidates {
		if text, ok := l.cached(rel); ok {
			return text, nil
		}
		raw, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(rel)))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("read template %s: %w", rel, err)
		}
		text := string(raw)
		l.mu.Lock()
		l.cache[rel] = text
		l.mu.Unlock()
		return text, nil
	}
	return "", fmt.Errorf("%w: %s", ErrMissingFile, clean)
}

func (l *Loader) cached(rel string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	text, ok := l.cache[rel]
	return text, ok
}

// Invalidate drops every cached file.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]string)
}

// cleanName rejects names that would escape the template root.
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: invalid name %q", ErrMissingFile, name)
		}
	}
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if clean == "" {
		return "", fmt.Errorf("%w: empty name", ErrMissingFile)
	}
	return clean, nil
}
