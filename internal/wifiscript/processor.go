// Package wifiscript expands <!-- #include -->, <!-- #get --> and
// <!-- #call --> directives in HTML pages.
//
// Names are resolved through registries fixed at construction: the Face
// (application-wide getters and calls), the current data element
// (Fielder/Invoker) and the extension table. The first match wins.
package wifiscript

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/divawifi/wifi/internal/metrics"
)

// maxIncludeDepth bounds nesting of distinct include files.
const maxIncludeDepth = 64

// Face is the application object templates talk to.
type Face struct {
	// Getters back <!-- #get var=Name -->.
	Getters map[string]func(env *Environment) string
	// Calls back <!-- #call method=Name -->.
	Calls map[string]func(env *Environment) string
}

// Fielder is implemented by data elements that expose named values.
type Fielder interface {
	Field(name string) (string, bool)
}

// Invoker is implemented by data elements that expose named methods.
type Invoker interface {
	Invoke(name string, env *Environment) (string, bool)
}

// Extension is a helper callable on any data element.
type Extension func(item any, env *Environment) (string, bool)

// FileReader resolves include file names to template text.
type FileReader interface {
	ReadFile(env *Environment, name string) (string, error)
}

// ErrMissingFile is returned when a template file cannot be found.
var ErrMissingFile = errors.New("template file not found")

// Processor renders templates. It holds no per-request state and is safe for
// concurrent use.
type Processor struct {
	face       Face
	extensions map[string]Extension
	files      FileReader
	logger     *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger used for resolution failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithExtensions registers extension helpers by name.
func WithExtensions(ext map[string]Extension) Option {
	return func(p *Processor) {
		for name, fn := range ext {
			p.extensions[name] = fn
		}
	}
}

// NewProcessor creates a processor over face and files.
func NewProcessor(face Face, files FileReader, opts ...Option) *Processor {
	p := &Processor{
		face:       face,
		extensions: make(map[string]Extension),
		files:      files,
		logger:     slog.Default(),
	}
	if p.face.Getters == nil {
		p.face.Getters = map[string]func(*Environment) string{}
	}
	if p.face.Calls == nil {
		p.face.Calls = map[string]func(*Environment) string{}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Render loads file and expands it for env. The error is ErrMissingFile
// (wrapped) when the top-level file does not exist; failures inside the page
// only produce empty substitutions.
func (p *Processor) Render(env *Environment, file string) (string, error) {
	text, err := p.files.ReadFile(env, file)
	if err != nil {
		return "", err
	}
	start := time.Now()
	m := metrics.Get()
	defer func() {
		m.Renders.WithLabelValues(file).Inc()
		m.RenderDuration.Observe(time.Since(start).Seconds())
	}()
	return p.Process(env, text), nil
}

// Process expands text for env.
func (p *Processor) Process(env *Environment, text string) string {
	r := &render{
		p:      p,
		env:    env,
		counts: make(map[string]int),
		cursor: -1,
	}
	prev := env.active
	env.active = r
	defer func() { env.active = prev }()
	return r.expand(text)
}

// render is the state of one top-level Process call.
type render struct {
	p      *Processor
	env    *Environment
	counts map[string]int
	cursor int
	depth  int
}

func (r *render) expand(text string) string {
	return directiveRe.ReplaceAllStringFunc(text, func(marker string) string {
		d, ok := ParseDirective(marker)
		if !ok || len(d.Args) == 0 {
			return ""
		}
		out, ok := r.resolve(d)
		if !ok {
			metrics.Get().Directives.WithLabelValues(d.Kind).Inc()
		}
		return out
	})
}

func (r *render) resolve(d Directive) (string, bool) {
	switch d.Kind {
	case "include":
		file, ok := d.Arg("file")
		if !ok {
			return "", false
		}
		from := -1
		if v, ok := d.Arg("from"); ok {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return "", false
			}
			from = n
		}
		return r.include(file, from), true
	case "get":
		name, ok := d.Arg("var", "field", "method")
		if !ok {
			return "", false
		}
		return r.get(name)
	case "call":
		name, ok := d.Arg("method")
		if !ok {
			return "", false
		}
		return r.call(name)
	}
	r.p.logger.Debug("unknown directive", "kind", d.Kind)
	return "", false
}

func (r *render) data() []any { return r.env.Data }

func (r *render) current() any {
	data := r.data()
	idx := r.cursor
	if idx < 0 {
		idx = 0
	}
	if idx >= len(data) {
		return nil
	}
	return data[idx]
}

// include renders file. The k-th inclusion of the same file in this render
// binds data element k; once k runs past the data list it renders empty. A
// first inclusion without from keeps the current cursor and always renders.
// One with from (0 included) starts a list at element from, so an empty
// list renders nothing.
func (r *render) include(file string, from int) string {
	k := r.counts[file]
	list := k > 0 || from >= 0
	if k == 0 && from >= 0 {
		k = from
	}
	r.counts[file] = k + 1

	idx := k
	if list {
		if k >= len(r.data()) {
			return ""
		}
	} else {
		idx = max(r.cursor, 0)
		if r.depth >= maxIncludeDepth {
			r.p.logger.Warn("include depth exceeded", "file", file, "depth", r.depth)
			return ""
		}
		r.depth++
		defer func() { r.depth-- }()
	}

	text, err := r.p.files.ReadFile(r.env, file)
	if err != nil {
		r.p.logger.Warn("include failed", "file", file, "error", err)
		return ""
	}

	saved := r.cursor
	r.cursor = idx
	defer func() { r.cursor = saved }()
	return r.expand(text)
}

func (r *render) get(name string) (string, bool) {
	if fn, ok := r.p.face.Getters[name]; ok {
		if out, ok := r.attempt("face getter", name, func() (string, bool) { return fn(r.env), true }); ok {
			return out, true
		}
	}
	if f, ok := r.current().(Fielder); ok {
		if out, ok := r.attempt("data field", name, func() (string, bool) { return f.Field(name) }); ok {
			return out, true
		}
	}
	return "", false
}

func (r *render) call(name string) (string, bool) {
	if fn, ok := r.p.face.Calls[name]; ok {
		if out, ok := r.attempt("face call", name, func() (string, bool) { return fn(r.env), true }); ok {
			return out, true
		}
	}
	item := r.current()
	if inv, ok := item.(Invoker); ok {
		if out, ok := r.attempt("data method", name, func() (string, bool) { return inv.Invoke(name, r.env) }); ok {
			return out, true
		}
	}
	if ext, ok := r.p.extensions[name]; ok {
		if out, ok := r.attempt("extension", name, func() (string, bool) { return ext(item, r.env) }); ok {
			return out, true
		}
	}
	return "", false
}

// attempt runs one resolution strategy, turning a panic into a miss.
func (r *render) attempt(strategy, name string, fn func() (string, bool)) (out string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.p.logger.Error("directive handler panicked",
				"strategy", strategy, "name", name, "panic", fmt.Sprint(rec))
			out, ok = "", false
		}
	}()
	return fn()
}
