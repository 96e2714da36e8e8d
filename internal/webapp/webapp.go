// Package webapp is the application face templates talk to: site-wide
// getters, the navigation menus and the page frame that wraps every state's
// content file.
package webapp

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/divawifi/wifi/internal/addon"
	"github.com/divawifi/wifi/internal/config"
	"github.com/divawifi/wifi/internal/i18n"
	"github.com/divawifi/wifi/internal/wifiscript"
)

// FrameFile is the page layout rendered for every HTML response. It pulls
// the state's content in through <!-- #call method=GetContent -->.
const FrameFile = "index.html"

// MissingPage is served with status 200 when the frame itself is missing.
const MissingPage = `<html><head><title>Wifi</title></head><body>
<p>The Wifi pages could not be found. Check TemplateDir in Wifi.ini.</p>
</body></html>`

// WebApp renders pages for one configured grid.
type WebApp struct {
	cfg     *config.Config
	catalog *i18n.Catalog
	addons  *addon.Registry
	files   wifiscript.FileReader
	proc    *wifiscript.Processor

	version string
	now     func() time.Time
	logger  *slog.Logger
	ext     map[string]wifiscript.Extension
}

// Option configures a WebApp.
type Option func(*WebApp)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *WebApp) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithVersion sets the value of the Version getter.
func WithVersion(v string) Option {
	return func(w *WebApp) { w.version = v }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *WebApp) {
		if now != nil {
			w.now = now
		}
	}
}

// WithExtensions adds extension helpers on top of the built-in ones.
func WithExtensions(ext map[string]wifiscript.Extension) Option {
	return func(w *WebApp) {
		for name, fn := range ext {
			w.ext[name] = fn
		}
	}
}

// New builds the face and its template processor. addons may be nil.
func New(cfg *config.Config, catalog *i18n.Catalog, addons *addon.Registry, files wifiscript.FileReader, opts ...Option) *WebApp {
	w := &WebApp{
		cfg:     cfg,
		catalog: catalog,
		addons:  addons,
		files:   files,
		version: "dev",
		now:     time.Now,
		logger:  slog.Default(),
		ext:     make(map[string]wifiscript.Extension),
	}
	for name, fn := range w.builtinExtensions() {
		w.ext[name] = fn
	}
	for _, opt := range opts {
		opt(w)
	}
	w.proc = wifiscript.NewProcessor(w.face(), files,
		wifiscript.WithLogger(w.logger),
		wifiscript.WithExtensions(w.ext))
	return w
}

// Config returns the configuration the app was built with.
func (w *WebApp) Config() *config.Config { return w.cfg }

// Logger returns the app logger.
func (w *WebApp) Logger() *slog.Logger { return w.logger }

// Now returns the current time from the app clock.
func (w *WebApp) Now() time.Time { return w.now() }

// Processor returns the template processor.
func (w *WebApp) Processor() *wifiscript.Processor { return w.proc }

// T translates key into the request language without formatting.
func (w *WebApp) T(env *wifiscript.Environment, key string) string {
	if w.catalog == nil {
		return key
	}
	return w.catalog.T(env.Language, key)
}

// Tf translates format into the request language and formats args.
func (w *WebApp) Tf(env *wifiscript.Environment, format string, args ...any) string {
	if w.catalog == nil {
		return fmt.Sprintf(format, args...)
	}
	return w.catalog.Tf(env.Language, format, args...)
}

// Render renders the page frame for env. A missing frame yields
// MissingPage.
func (w *WebApp) Render(env *wifiscript.Environment) string {
	out, err := w.proc.Render(env, FrameFile)
	if err != nil {
		if !errors.Is(err, wifiscript.ErrMissingFile) {
			w.logger.Error("render page failed", "state", int(env.State()), "error", err)
		} else {
			w.logger.Warn("page frame missing", "file", FrameFile, "language", env.Language)
		}
		return MissingPage
	}
	return out
}

// RenderFile renders a single template without the frame, for fragments
// such as mail bodies.
func (w *WebApp) RenderFile(env *wifiscript.Environment, file string) (string, error) {
	return w.proc.Render(env, file)
}

// UserLevel returns the level of the session account, or -2 when there is
// no session.
func UserLevel(env *wifiscript.Environment) int {
	if env.Session == nil || env.Session.Account == nil {
		return -2
	}
	return env.Session.Account.UserLevel
}

// Link builds an href for path carrying the session id, so pages keep
// working without cookies.
func Link(env *wifiscript.Environment, path string) string {
	if env.Session == nil || env.Session.ID == "" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "sid=" + url.QueryEscape(env.Session.ID)
}

func (w *WebApp) face() wifiscript.Face {
	account := func(pick func(env *wifiscript.Environment) string) func(*wifiscript.Environment) string {
		return func(env *wifiscript.Environment) string {
			if env.Session == nil || env.Session.Account == nil {
				return ""
			}
			return html.EscapeString(pick(env))
		}
	}
	return wifiscript.Face{
		Getters: map[string]func(*wifiscript.Environment) string{
			"SystemName": func(*wifiscript.Environment) string { return html.EscapeString(w.cfg.GridName) },
			"SystemURL":  func(*wifiscript.Environment) string { return html.EscapeString(w.cfg.WebAddress) },
			"LoginURL":   func(*wifiscript.Environment) string { return html.EscapeString(w.cfg.LoginURL) },
			"Version":    func(*wifiscript.Environment) string { return html.EscapeString(w.version) },
			"Year":       func(*wifiscript.Environment) string { return strconv.Itoa(w.now().Year()) },
			"SID": func(env *wifiscript.Environment) string {
				if env.Session == nil {
					return ""
				}
				return url.QueryEscape(env.Session.ID)
			},
			"LanguageCode": func(env *wifiscript.Environment) string { return html.EscapeString(env.Language) },
			"Message":      func(env *wifiscript.Environment) string { return html.EscapeString(env.Message) },
			"Token":        func(env *wifiscript.Environment) string { return html.EscapeString(env.Request.Param("token")) },

			"UserID":        account(func(env *wifiscript.Environment) string { return env.Session.Account.PrincipalID.String() }),
			"UserName":      account(func(env *wifiscript.Environment) string { return env.Session.Account.Name() }),
			"UserFirstName": account(func(env *wifiscript.Environment) string { return env.Session.Account.FirstName }),
			"UserLastName":  account(func(env *wifiscript.Environment) string { return env.Session.Account.LastName }),
			"UserEmail":     account(func(env *wifiscript.Environment) string { return env.Session.Account.Email }),
			"UserTitle":     account(func(env *wifiscript.Environment) string { return env.Session.Account.UserTitle }),
			"UserLevel":     account(func(env *wifiscript.Environment) string { return strconv.Itoa(env.Session.Account.UserLevel) }),

			"NotifyMessage": func(env *wifiscript.Environment) string {
				if env.Session == nil || env.Session.Notify == nil {
					return ""
				}
				return html.EscapeString(env.Session.Notify.Message)
			},
			"NotifyURL": func(env *wifiscript.Environment) string {
				if env.Session == nil || env.Session.Notify == nil {
					return ""
				}
				return html.EscapeString(Link(env, env.Session.Notify.RedirectURL))
			},
			"NotifySeconds": func(env *wifiscript.Environment) string {
				if env.Session == nil || env.Session.Notify == nil {
					return "0"
				}
				return strconv.Itoa(env.Session.Notify.Seconds)
			},
		},
		Calls: map[string]func(*wifiscript.Environment) string{
			"GetContent": func(env *wifiscript.Environment) string {
				return env.Include(ContentFile(env.State()))
			},
			"MainMenu":        w.mainMenu,
			"AdminMenu":       w.adminMenu,
			"AvatarOptions":   w.avatarOptions,
			"LanguageOptions": w.languageOptions,
		},
	}
}

type menuEntry struct {
	path  string
	label string
}

func (w *WebApp) menu(env *wifiscript.Environment, entries []menuEntry, class string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<ul class="%s">`, class)
	for _, e := range entries {
		fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`,
			html.EscapeString(Link(env, e.path)), html.EscapeString(e.label))
	}
	b.WriteString("</ul>")
	return b.String()
}

func (w *WebApp) mainMenu(env *wifiscript.Environment) string {
	entries := []menuEntry{{"/wifi", w.T(env, "Home")}}
	if !env.Has(wifiscript.FlagLoggedIn) {
		entries = append(entries,
			menuEntry{"/wifi/login", w.T(env, "Login")},
			menuEntry{"/wifi/user/newaccount", w.T(env, "Create account")},
			menuEntry{"/wifi/forgotpassword", w.T(env, "Forgot password?")},
		)
		return w.menu(env, entries, "menu")
	}
	entries = append(entries,
		menuEntry{"/wifi/user/account", w.T(env, "My account")},
		menuEntry{"/wifi/user/inventory", w.T(env, "Inventory")},
	)
	if env.Has(wifiscript.FlagHyperlinks) {
		entries = append(entries, menuEntry{"/wifi/linkregion", w.T(env, "Hyperlinks")})
	}
	if w.addons != nil {
		for _, item := range w.addons.MenuItems(UserLevel(env)) {
			entries = append(entries, menuEntry{item.Path, item.Label})
		}
	}
	entries = append(entries, menuEntry{"/wifi/logout", w.T(env, "Logout")})
	return w.menu(env, entries, "menu")
}

func (w *WebApp) adminMenu(env *wifiscript.Environment) string {
	if !env.Has(wifiscript.FlagAdmin) {
		return ""
	}
	entries := []menuEntry{
		{"/wifi/admin/users", w.T(env, "Users")},
		{"/wifi/admin/groups", w.T(env, "Groups")},
		{"/wifi/admin/regions", w.T(env, "Regions")},
		{"/wifi/admin/server", w.T(env, "Server")},
	}
	if env.Has(wifiscript.FlagConsole) {
		entries = append(entries, menuEntry{"/wifi/admin/console", w.T(env, "Console")})
	}
	return w.menu(env, entries, "adminmenu")
}

func (w *WebApp) avatarOptions(*wifiscript.Environment) string {
	var b strings.Builder
	for _, t := range w.cfg.AvatarTypes() {
		v := html.EscapeString(t)
		fmt.Fprintf(&b, `<option value="%s">%s</option>`, v, v)
	}
	return b.String()
}

func (w *WebApp) languageOptions(env *wifiscript.Environment) string {
	var b strings.Builder
	for _, tag := range i18n.Supported {
		base, _ := tag.Base()
		code := base.String()
		selected := ""
		if code == env.Language {
			selected = ` selected="selected"`
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, code, selected, code)
	}
	return b.String()
}
