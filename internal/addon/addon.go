// Package addon registers optional panel extensions. Each addon contributes
// routes under its configured path and a menu entry shown to users whose level
// is high enough.
package addon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/divawifi/wifi/internal/apierrors"
	"github.com/divawifi/wifi/internal/config"
	"github.com/divawifi/wifi/internal/grid"
)

// Addon is implemented by panel extensions.
type Addon interface {
	Name() string
	Init(ctx context.Context, host Host) error
	Routes() []Route
	Shutdown(ctx context.Context) error
}

// Route is relative to the addon's configured path; "" is the path itself.
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// Host is what the panel exposes to addons.
type Host interface {
	Grid() grid.Services
	Logger() *slog.Logger
}

// Factory builds a fresh addon instance.
type Factory func() Addon

var builtins = map[string]Factory{
	"stats": func() Addon { return &StatsAddon{} },
}

// Lookup returns the built-in factory for name, ignoring case.
func Lookup(name string) (Factory, bool) {
	f, ok := builtins[strings.ToLower(name)]
	return f, ok
}

// Available lists the built-in addon names.
func Available() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MenuItem is one addon entry in the navigation menu.
type MenuItem struct {
	Name  string
	Label string
	Path  string
	Level int
}

// Binding is one addon route resolved to an absolute path.
type Binding struct {
	Addon   string
	Method  string
	Path    string
	Level   int
	Handler gin.HandlerFunc
}

type registration struct {
	addon Addon
	decl  config.AddonDecl
}

// Registry holds registered addons in registration order. Registration is
// append-only.
type Registry struct {
	mu     sync.RWMutex
	host   Host
	order  []*registration
	byName map[string]*registration
}

// NewRegistry creates an empty registry.
func NewRegistry(host Host) *Registry {
	return &Registry{host: host, byName: make(map[string]*registration)}
}

// Register initializes a and records its menu entry.
func (r *Registry) Register(ctx context.Context, a Addon, decl config.AddonDecl) error {
	key := strings.ToLower(decl.Name)
	if key == "" {
		key = strings.ToLower(a.Name())
		decl.Name = a.Name()
	}
	if decl.Path == "" || !strings.HasPrefix(decl.Path, "/") {
		return fmt.Errorf("addon %q: path must start with /", decl.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[key]; exists {
		return fmt.Errorf("addon %q already registered", decl.Name)
	}
	if err := a.Init(ctx, r.host); err != nil {
		return fmt.Errorf("addon %q init failed: %w", decl.Name, err)
	}
	if codes, ok := a.(apierrors.ErrorEnumerator); ok {
		apierrors.Registry.RegisterAddon(key, codes)
	}
	reg := &registration{addon: a, decl: decl}
	r.order = append(r.order, reg)
	r.byName[key] = reg
	return nil
}

// RegisterConfigured instantiates every declared addon that has a built-in
// factory. Unknown names are logged and skipped.
func (r *Registry) RegisterConfigured(ctx context.Context, decls []config.AddonDecl, logger *slog.Logger) error {
	for _, decl := range decls {
		factory, ok := Lookup(decl.Name)
		if !ok {
			logger.Warn("unknown addon in configuration", "name", decl.Name, "available", Available())
			continue
		}
		if err := r.Register(ctx, factory(), decl); err != nil {
			return err
		}
		logger.Info("addon registered", "name", decl.Name, "path", decl.Path, "level", decl.Level)
	}
	return nil
}

// Get returns a registered addon by name.
func (r *Registry) Get(name string) (Addon, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return reg.addon, true
}

// MenuItems returns the entries visible at userLevel.
func (r *Registry) MenuItems(userLevel int) []MenuItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []MenuItem
	for _, reg := range r.order {
		if userLevel < reg.decl.Level {
			continue
		}
		items = append(items, MenuItem{
			Name:  reg.decl.Name,
			Label: reg.decl.Label,
			Path:  reg.decl.Path,
			Level: reg.decl.Level,
		})
	}
	return items
}

// Bindings returns every addon route with its absolute path and required
// level.
func (r *Registry) Bindings() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Binding
	for _, reg := range r.order {
		for _, route := range reg.addon.Routes() {
			method := route.Method
			if method == "" {
				method = http.MethodGet
			}
			out = append(out, Binding{
				Addon:   reg.decl.Name,
				Method:  method,
				Path:    joinPath(reg.decl.Path, route.Path),
				Level:   reg.decl.Level,
				Handler: route.Handler,
			})
		}
	}
	return out
}

// ShutdownAll shuts every addon down and empties the registry.
func (r *Registry) ShutdownAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, reg := range r.order {
		if err := reg.addon.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("addon %q: %w", reg.decl.Name, err))
		}
	}
	r.order = nil
	r.byName = make(map[string]*registration)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

func joinPath(base, rel string) string {
	base = strings.TrimRight(base, "/")
	rel = strings.Trim(rel, "/")
	if rel == "" {
		if base == "" {
			return "/"
		}
		return base
	}
	return base + "/" + rel
}
