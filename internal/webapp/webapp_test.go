package webapp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divawifi/wifi/internal/addon"
	"github.com/divawifi/wifi/internal/config"
	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/i18n"
	"github.com/divawifi/wifi/internal/models"
	"github.com/divawifi/wifi/internal/wifiscript"
)

type mapFiles map[string]string

func (m mapFiles) ReadFile(_ *wifiscript.Environment, name string) (string, error) {
	if text, ok := m[name]; ok {
		return text, nil
	}
	return "", fmt.Errorf("%w: %s", wifiscript.ErrMissingFile, name)
}

type host struct{}

func (host) Grid() grid.Services  { return grid.Services{} }
func (host) Logger() *slog.Logger { return slog.Default() }

type menuAddon struct{}

func (menuAddon) Name() string                           { return "Stats" }
func (menuAddon) Init(context.Context, addon.Host) error { return nil }
func (menuAddon) Routes() []addon.Route                  { return nil }
func (menuAddon) Shutdown(context.Context) error         { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.GridName = "Test <Grid>"
	cfg.AvatarAccounts = map[string]string{"female": "Female Avatar", "male": "Male Avatar"}
	return cfg
}

func newApp(t *testing.T, files mapFiles) *WebApp {
	t.Helper()
	catalog, err := i18n.New()
	require.NoError(t, err)
	reg := addon.NewRegistry(host{})
	require.NoError(t, reg.Register(context.Background(), menuAddon{},
		config.AddonDecl{Name: "Stats", Path: "/wifi/stats", Label: "Statistics", Level: 200}))
	clock := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return New(testConfig(t), catalog, reg, files, WithVersion("1.2.3"), WithClock(clock))
}

func loggedIn(level int) *wifiscript.Environment {
	env := wifiscript.NewEnvironment(&wifiscript.Request{Path: "/wifi"}, nil)
	env.Session = &models.Session{
		ID: "tok-1",
		Account: &models.UserAccount{
			PrincipalID: uuid.MustParse("11111111-2222-3333-4444-555555555555"),
			FirstName:   "Jane",
			LastName:    "Doe",
			Email:       "jane@example.com",
			UserLevel:   level,
		},
	}
	return env
}

func TestContentFile(t *testing.T) {
	assert.Equal(t, "loginform.html", ContentFile(StateLoginForm))
	assert.Equal(t, "admin/userlist.html", ContentFile(StateUserList))
	assert.Equal(t, "splash.html", ContentFile(0))
	assert.Equal(t, "splash.html", ContentFile(wifiscript.State(9999)))
}

func TestRenderFrameWithContent(t *testing.T) {
	app := newApp(t, mapFiles{
		FrameFile:        `<title><!-- #get var="SystemName" --></title><main><!-- #call method="GetContent" --></main><footer><!-- #get var="Version" --> <!-- #get var="Year" --></footer>`,
		"loginform.html": `<form>login</form>`,
	})
	env := wifiscript.NewEnvironment(&wifiscript.Request{Path: "/wifi/login"}, nil)
	env.SetState(StateLoginForm)

	out := app.Render(env)
	assert.Equal(t, `<title>Test &lt;Grid&gt;</title><main><form>login</form></main><footer>1.2.3 2026</footer>`, out)
}

func TestRenderMissingFrame(t *testing.T) {
	app := newApp(t, mapFiles{})
	env := wifiscript.NewEnvironment(nil, nil)
	assert.Equal(t, MissingPage, app.Render(env))
}

func TestMenus(t *testing.T) {
	app := newApp(t, mapFiles{
		FrameFile: `<!-- #call method="MainMenu" -->|<!-- #call method="AdminMenu" -->`,
	})

	t.Run("Anonymous", func(t *testing.T) {
		env := wifiscript.NewEnvironment(nil, nil)
		out := app.Render(env)
		assert.Contains(t, out, `href="/wifi/login"`)
		assert.Contains(t, out, `href="/wifi/forgotpassword"`)
		assert.NotContains(t, out, "logout")
		assert.NotContains(t, out, "adminmenu")
	})

	t.Run("UserWithoutAddonLevel", func(t *testing.T) {
		env := loggedIn(0)
		env.SetFlags(wifiscript.FlagLoggedIn | wifiscript.FlagValidSession)
		out := app.Render(env)
		assert.Contains(t, out, `href="/wifi/logout?sid=tok-1"`)
		assert.NotContains(t, out, "Statistics")
		assert.NotContains(t, out, "/wifi/linkregion")
		assert.NotContains(t, out, "adminmenu")
	})

	t.Run("Admin", func(t *testing.T) {
		env := loggedIn(200)
		env.Language = "fr"
		env.SetFlags(wifiscript.FlagLoggedIn | wifiscript.FlagAdmin | wifiscript.FlagHyperlinks | wifiscript.FlagConsole)
		out := app.Render(env)
		assert.Contains(t, out, `<a href="/wifi/stats?sid=tok-1">Statistics</a>`)
		assert.Contains(t, out, `/wifi/linkregion?sid=tok-1`)
		assert.Contains(t, out, "Déconnexion")
		assert.Contains(t, out, `<ul class="adminmenu">`)
		assert.Contains(t, out, "/wifi/admin/console?sid=tok-1")
	})
}

func TestUserGettersEscape(t *testing.T) {
	app := newApp(t, mapFiles{
		FrameFile: `<!-- #get var="UserName" -->/<!-- #get var="UserEmail" -->/<!-- #get var="SID" -->`,
	})
	env := loggedIn(0)
	env.Session.Account.LastName = "<b>Doe</b>"
	assert.Equal(t, "Jane &lt;b&gt;Doe&lt;/b&gt;/jane@example.com/tok-1", app.Render(env))

	anon := wifiscript.NewEnvironment(nil, nil)
	assert.Equal(t, "//", app.Render(anon))
}

func TestNotifyGetters(t *testing.T) {
	app := newApp(t, mapFiles{
		FrameFile: `<!-- #get var="NotifyMessage" -->|<!-- #get var="NotifyURL" -->|<!-- #get var="NotifySeconds" -->`,
	})
	env := loggedIn(0)
	env.Session.Notify = &models.Notification{Message: "Saved", RedirectURL: "/wifi/user/account", Seconds: 3}
	assert.Equal(t, "Saved|/wifi/user/account?sid=tok-1|3", app.Render(env))
}

func TestAvatarAndLanguageOptions(t *testing.T) {
	app := newApp(t, mapFiles{
		FrameFile: `<!-- #call method="AvatarOptions" -->|<!-- #call method="LanguageOptions" -->`,
	})
	env := wifiscript.NewEnvironment(nil, nil)
	env.Language = "de"
	out := app.Render(env)
	assert.Contains(t, out, `<option value="female">female</option><option value="male">male</option>|`)
	assert.Contains(t, out, `<option value="de" selected="selected">de</option>`)
}

func TestItemsAndExtensions(t *testing.T) {
	app := newApp(t, mapFiles{
		FrameFile: `<!-- #include file="row.html" --><!-- #include file="row.html" --><!-- #include file="row.html" -->`,
		"row.html": `[<!-- #get field="Name" -->:<!-- #call method="LevelName" -->:<!-- #call method="LastSeen" -->]`,
	})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env := wifiscript.NewEnvironment(nil, nil)
	env.Data = []any{
		&AccountItem{Account: &models.UserAccount{FirstName: "A", LastName: "<x>", UserLevel: -1}},
		&AccountItem{
			Account: &models.UserAccount{FirstName: "B", LastName: "Admin", UserLevel: 250},
			Info:    &models.GridUserInfo{Login: now.Add(-2 * time.Hour).Unix()},
		},
		&RegionItem{Region: &models.Region{RegionName: "Sandbox"}},
	}
	out := app.Render(env)
	assert.Contains(t, out, "[A &lt;x&gt;:Pending:Never]")
	assert.Contains(t, out, "[B Admin:Administrator:")
	assert.Contains(t, out, "hours ago]")
	assert.Contains(t, out, "[Sandbox::Never]")
}

func TestAccountItemInvoke(t *testing.T) {
	item := &AccountItem{
		Account:    &models.UserAccount{PrincipalID: uuid.New(), UserLevel: -1},
		AdminLevel: 200,
	}
	env := loggedIn(200)

	opts, ok := item.Invoke("LevelOptions", env)
	require.True(t, ok)
	assert.Contains(t, opts, `<option value="-1" selected="selected">-1</option>`)
	assert.Contains(t, opts, `<option value="200">200</option>`)

	button, ok := item.Invoke("ActivateButton", env)
	require.True(t, ok)
	assert.Contains(t, button, `value="activate"`)
	assert.Contains(t, button, "sid=tok-1")

	_, ok = item.Invoke("Nope", env)
	assert.False(t, ok)
}

func TestGroupCharterSanitized(t *testing.T) {
	g := &GroupItem{Group: &models.Group{Name: "<Builders>", Charter: `<p>Build <script>alert(1)</script>things</p>`}}
	name, _ := g.Field("Name")
	charter, _ := g.Field("Charter")
	assert.Equal(t, "&lt;Builders&gt;", name)
	assert.Equal(t, "<p>Build things</p>", charter)
}

func TestShippedPagesCoverEveryState(t *testing.T) {
	root := filepath.Join("..", "..", "WifiPages")
	_, err := os.Stat(filepath.Join(root, FrameFile))
	require.NoError(t, err)
	for state, file := range contentFiles {
		_, err := os.Stat(filepath.Join(root, filepath.FromSlash(file)))
		assert.NoError(t, err, "state %d", state)
	}

	problems, err := wifiscript.CheckDir(root)
	require.NoError(t, err)
	assert.Empty(t, wifiscript.SortedKeys(problems))
}

func TestShippedListPageRendersRowsOnly(t *testing.T) {
	catalog, err := i18n.New()
	require.NoError(t, err)
	loader := wifiscript.NewLoader(filepath.Join("..", "..", "WifiPages"))
	app := New(testConfig(t), catalog, addon.NewRegistry(host{}), loader)

	env := loggedIn(0)
	env.SetState(StateHyperlinks)
	out := app.Render(env)
	assert.Contains(t, out, "<h2>Hyperlinks</h2>")
	assert.NotContains(t, out, "Unlink")

	env = loggedIn(0)
	env.SetState(StateHyperlinks)
	env.Data = []any{
		&RegionItem{Region: &models.Region{RegionID: uuid.New(), RegionName: "Harbor", ServerURI: "http://grid.example.org:9000/"}},
		&RegionItem{Region: &models.Region{RegionID: uuid.New(), RegionName: "Summit", ServerURI: "http://grid.example.org:9010/"}},
	}
	out = app.Render(env)
	assert.Contains(t, out, "Harbor")
	assert.Contains(t, out, "Summit")
	assert.Equal(t, 2, strings.Count(out, "Unlink"))
}

func TestTranslateKeepsPercent(t *testing.T) {
	app := newApp(t, mapFiles{})
	env := wifiscript.NewEnvironment(nil, nil)
	env.Language = "fr"
	assert.Equal(t, "Quota at 90%", app.T(env, "Quota at 90%"))
	assert.Equal(t, "Accueil", app.T(env, "Home"))
	assert.Equal(t, "7 users", app.Tf(env, "%d users", 7))
}
