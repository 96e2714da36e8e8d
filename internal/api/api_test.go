package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divawifi/wifi/internal/addon"
	"github.com/divawifi/wifi/internal/config"
	"github.com/divawifi/wifi/internal/constants"
	"github.com/divawifi/wifi/internal/database"
	"github.com/divawifi/wifi/internal/events"
	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/i18n"
	"github.com/divawifi/wifi/internal/imaging"
	"github.com/divawifi/wifi/internal/middleware"
	"github.com/divawifi/wifi/internal/models"
	"github.com/divawifi/wifi/internal/repository"
	"github.com/divawifi/wifi/internal/service"
	"github.com/divawifi/wifi/internal/session"
	"github.com/divawifi/wifi/internal/webapp"
	"github.com/divawifi/wifi/internal/wifiscript"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubFiles renders every content file as "[file]message".
type stubFiles struct{}

func (stubFiles) ReadFile(_ *wifiscript.Environment, name string) (string, error) {
	if name == webapp.FrameFile {
		return `<!-- #call method="GetContent" -->`, nil
	}
	return "[" + name + `]<!-- #get var="Message" -->`, nil
}

type host struct{ g grid.Services }

func (h host) Grid() grid.Services  { return h.g }
func (h host) Logger() *slog.Logger { return slog.Default() }

type harness struct {
	grid     grid.Services
	assets   *repository.AssetRepository
	sessions *session.Table
	bus      *events.MemoryBus
	router   *gin.Engine
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	db := database.NewTestDB(t)
	services := repository.New(db)

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.GridName = "Testgrid"

	catalog, err := i18n.New()
	require.NoError(t, err)

	addons := addon.NewRegistry(host{services})
	ctx := context.Background()
	require.NoError(t, addons.Register(ctx, &addon.StatsAddon{}, config.AddonDecl{Name: "Stats", Path: "/wifi/stats"}))
	require.NoError(t, addons.Register(ctx, &addon.StatsAddon{}, config.AddonDecl{Name: "AdminStats", Path: "/wifi/adminstats", Level: 200}))

	app := webapp.New(cfg, catalog, addons, stubFiles{})
	sessions := session.NewTable(session.NewMemoryStore(), 30*time.Minute)
	svc := service.New(app, services, sessions)

	bus := events.NewMemoryBus(nil)
	t.Cleanup(func() { _ = bus.Close() })

	base := []Option{
		WithAddons(addons),
		WithEventBus(bus),
		WithImages(imaging.NewServer(services.Assets)),
	}
	srv := NewServer(svc, catalog, append(base, opts...)...)
	return &harness{
		grid:     services,
		assets:   repository.NewAssetRepository(db),
		sessions: sessions,
		bus:      bus,
		router:   srv.Router(),
	}
}

func (h *harness) user(t *testing.T, first, last string, level int) *models.UserAccount {
	t.Helper()
	ctx := context.Background()
	acc := &models.UserAccount{PrincipalID: uuid.New(), FirstName: first, LastName: last, UserLevel: level}
	require.NoError(t, h.grid.Accounts.StoreUserAccount(ctx, acc))
	require.NoError(t, h.grid.Auth.SetPassword(ctx, acc.PrincipalID, "secret"))
	return acc
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// login posts the credentials and returns the session cookie.
func (h *harness) login(t *testing.T, first, last string) *http.Cookie {
	t.Helper()
	w := h.do(postForm("/wifi/login", url.Values{"firstname": {first}, "lastname": {last}, "password": {"secret"}}))
	require.Equal(t, http.StatusOK, w.Code)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == constants.SessionCookieName {
			return ck
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func withCookie(req *http.Request, ck *http.Cookie) *http.Request {
	req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	return req
}

func TestLoginSetsSessionCookie(t *testing.T) {
	h := newHarness(t)
	h.user(t, "Jane", "Doe", 0)

	w := h.do(postForm("/wifi/login", url.Values{"firstname": {"Jane"}, "lastname": {"Doe"}, "password": {"secret"}}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[loginsuccess.html]Jane Doe", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	var sid string
	for _, ck := range w.Result().Cookies() {
		if ck.Name == constants.SessionCookieName {
			sid = ck.Value
			assert.True(t, ck.HttpOnly)
		}
	}
	require.NotEmpty(t, sid)
	_, ok := h.sessions.TryGet(context.Background(), sid, "192.0.2.1")
	assert.True(t, ok)

	t.Run("WrongPassword", func(t *testing.T) {
		w := h.do(postForm("/wifi/login", url.Values{"firstname": {"Jane"}, "lastname": {"Doe"}, "password": {"nope"}}))
		assert.Equal(t, "[loginfailed.html]", w.Body.String())
		assert.Empty(t, w.Result().Cookies())
	})
}

func TestSessionFromQueryAndCookie(t *testing.T) {
	h := newHarness(t)
	h.user(t, "Jane", "Doe", 0)
	ck := h.login(t, "Jane", "Doe")

	w := h.do(withCookie(httptest.NewRequest(http.MethodGet, "/wifi/user/account", nil), ck))
	assert.True(t, strings.HasPrefix(w.Body.String(), "[accountform.html]"), w.Body.String())

	w = h.do(httptest.NewRequest(http.MethodGet, "/wifi/user/account?sid="+url.QueryEscape(ck.Value), nil))
	assert.True(t, strings.HasPrefix(w.Body.String(), "[accountform.html]"), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/wifi/user/account?sid="+url.QueryEscape(ck.Value), nil)
	req.RemoteAddr = "198.51.100.9:5000"
	w = h.do(req)
	assert.True(t, strings.HasPrefix(w.Body.String(), "[splash.html]"), "foreign IP must not reuse the session")
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newHarness(t)
	h.user(t, "Jane", "Doe", 0)
	ck := h.login(t, "Jane", "Doe")

	w := h.do(withCookie(httptest.NewRequest(http.MethodGet, "/wifi/logout", nil), ck))
	assert.Equal(t, "[logout.html]", w.Body.String())
	assert.Contains(t, w.Header().Get("Set-Cookie"), constants.SessionCookieName+"=;")
	assert.Equal(t, 0, h.sessions.Count(context.Background()))
}

func TestAdminPagesForbiddenForUsers(t *testing.T) {
	h := newHarness(t)
	h.user(t, "Jane", "Doe", 0)
	ck := h.login(t, "Jane", "Doe")

	for _, path := range []string{"/wifi/admin/users", "/wifi/admin/groups", "/wifi/admin/regions", "/wifi/admin/server"} {
		w := h.do(withCookie(httptest.NewRequest(http.MethodGet, path, nil), ck))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.True(t, strings.HasPrefix(w.Body.String(), "[forbidden.html]"), path)
	}

	w := h.do(withCookie(httptest.NewRequest(http.MethodGet, "/wifi/admin/users/export", nil), ck))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(httptest.NewRequest(http.MethodGet, "/wifi/admin/users", nil))
	assert.True(t, strings.HasPrefix(w.Body.String(), "[splash.html]"))
}

func TestAdminUserListAndExport(t *testing.T) {
	h := newHarness(t)
	h.user(t, "Grid", "Admin", 200)
	h.user(t, "Jane", "Doe", 0)
	ck := h.login(t, "Grid", "Admin")

	w := h.do(withCookie(httptest.NewRequest(http.MethodGet, "/wifi/admin/users?terms=jane", nil), ck))
	assert.True(t, strings.HasPrefix(w.Body.String(), "[admin/userlist.html]"), w.Body.String())

	w = h.do(withCookie(httptest.NewRequest(http.MethodGet, "/wifi/admin/users/export", nil), ck))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "users.xlsx")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestAccountUpdateRedirectsToNotification(t *testing.T) {
	h := newHarness(t)
	jane := h.user(t, "Jane", "Doe", 0)
	ck := h.login(t, "Jane", "Doe")

	w := h.do(withCookie(postForm("/wifi/user/account", url.Values{
		"email":       {"jane@new.test"},
		"oldpassword": {"secret"},
	}), ck))
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc := w.Header().Get("Location")
	assert.True(t, strings.HasPrefix(loc, "/wifi/notify?sid="), loc)

	acc, err := h.grid.Accounts.GetUserAccount(context.Background(), jane.PrincipalID)
	require.NoError(t, err)
	assert.Equal(t, "jane@new.test", acc.Email)

	w = h.do(httptest.NewRequest(http.MethodGet, loc, nil))
	assert.True(t, strings.HasPrefix(w.Body.String(), "[notify.html]"), w.Body.String())

	w = h.do(httptest.NewRequest(http.MethodGet, loc, nil))
	assert.True(t, strings.HasPrefix(w.Body.String(), "[splash.html]"), "notification is shown once")
}

func TestLanguageCookie(t *testing.T) {
	h := newHarness(t)
	w := h.do(httptest.NewRequest(http.MethodGet, "/wifi?lang=de", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), constants.LanguageCookie+"=de")

	w = h.do(httptest.NewRequest(http.MethodGet, "/wifi?lang=xx", nil))
	assert.Empty(t, w.Header().Get("Set-Cookie"))
}

func TestTOSCheck(t *testing.T) {
	h := newHarness(t)

	w := h.do(httptest.NewRequest(http.MethodGet, "/wifi/tos/check?uid=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "wifi:invalid_id")

	w = h.do(httptest.NewRequest(http.MethodGet, "/wifi/tos/check?uid="+uuid.NewString(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	var d map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, true, d["accepted"])
}

func TestImage(t *testing.T) {
	h := newHarness(t)
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	id := uuid.New()
	require.NoError(t, h.assets.Store(context.Background(), &models.Asset{ID: id, Name: "tex", Data: buf.Bytes()}))

	w := h.do(httptest.NewRequest(http.MethodGet, "/wifi/image/"+id.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	w = h.do(httptest.NewRequest(http.MethodGet, "/wifi/image/"+id.String()+"?format=png&w=10", nil))
	require.Equal(t, http.StatusOK, w.Code)
	decoded, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 10, decoded.Bounds().Dx())

	assert.Equal(t, http.StatusBadRequest, h.do(httptest.NewRequest(http.MethodGet, "/wifi/image/"+id.String()+"?format=gif", nil)).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(httptest.NewRequest(http.MethodGet, "/wifi/image/nope", nil)).Code)
	assert.Equal(t, http.StatusNotFound, h.do(httptest.NewRequest(http.MethodGet, "/wifi/image/"+uuid.NewString(), nil)).Code)

	notImage := uuid.New()
	require.NoError(t, h.assets.Store(context.Background(), &models.Asset{ID: notImage, Data: []byte("plain text")}))
	assert.Equal(t, http.StatusBadRequest, h.do(httptest.NewRequest(http.MethodGet, "/wifi/image/"+notImage.String(), nil)).Code)
}

func TestPublishEventValidation(t *testing.T) {
	h := newHarness(t)

	w := h.do(postForm("/wifi/scriptevent", url.Values{"channel": {"bad channel"}, "body": {"x"}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "wifi:invalid_channel")

	got := make(chan *events.Event, 1)
	sub, err := h.bus.Subscribe(context.Background(), "doors", func(ev *events.Event) { got <- ev })
	require.NoError(t, err)
	defer sub.Unsubscribe()

	req := httptest.NewRequest(http.MethodPost, "/wifi/scriptevent", strings.NewReader(`{"channel":"doors","object_id":"obj-1","body":"open"}`))
	req.Header.Set("Content-Type", "application/json")
	w = h.do(req)
	require.Equal(t, http.StatusAccepted, w.Code)

	select {
	case ev := <-got:
		assert.Equal(t, "open", ev.Body)
		assert.Equal(t, "obj-1", ev.ObjectID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestEventStream(t *testing.T) {
	h := newHarness(t)
	srv := httptest.NewServer(h.router)
	defer srv.Close()

	ctx := context.Background()
	acc := h.user(t, "Jane", "Doe", 0)
	require.NoError(t, h.sessions.Add(ctx, &models.Session{ID: "ws-1", ClientIP: "127.0.0.1", Account: acc}, 0))

	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/wifi/scriptevent"
	conn, _, err := websocket.DefaultDialer.Dial(base+"?channel=doors&sid=ws-1", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, h.bus.Publish(ctx, events.NewEvent("lights", "", "ignored")))
	require.NoError(t, h.bus.Publish(ctx, events.NewEvent("doors", "obj-2", "closed")))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev events.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "doors", ev.Channel)
	assert.Equal(t, "closed", ev.Body)

	_, _, err = websocket.DefaultDialer.Dial(base+"?channel=a.b&sid=ws-1", nil)
	assert.Error(t, err)
}

func TestEventStreamRequiresSessionOrToken(t *testing.T) {
	h := newHarness(t, WithScriptToken("s3cret"))
	srv := httptest.NewServer(h.router)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/wifi/scriptevent"

	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(base+"?sid=unknown", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base, http.Header{"Authorization": {"Bearer s3cret"}})
	require.NoError(t, err)
	conn.Close()
}

func TestServePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(dir), "secret.txt"), []byte("x"), 0o644))

	h := newHarness(t, WithServePaths([]config.ServePath{{Name: "Assets", URLPath: "/wifi/assets", Dir: dir}}))

	w := h.do(httptest.NewRequest(http.MethodGet, "/wifi/assets/style.css", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/css; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "body{}", w.Body.String())

	w = h.do(httptest.NewRequest(http.MethodGet, "/wifi/assets/logo.png", nil))
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusNotFound, h.do(httptest.NewRequest(http.MethodGet, "/wifi/assets/missing.js", nil)).Code)
	assert.Equal(t, http.StatusNotFound, h.do(httptest.NewRequest(http.MethodGet, "/wifi/assets/../secret.txt", nil)).Code)
}

func TestAddonLevelGating(t *testing.T) {
	h := newHarness(t)
	h.user(t, "Jane", "Doe", 0)
	h.user(t, "Grid", "Admin", 200)

	assert.Equal(t, http.StatusOK, h.do(httptest.NewRequest(http.MethodGet, "/wifi/stats", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(httptest.NewRequest(http.MethodGet, "/wifi/adminstats", nil)).Code)

	jane := h.login(t, "Jane", "Doe")
	assert.Equal(t, http.StatusForbidden, h.do(withCookie(httptest.NewRequest(http.MethodGet, "/wifi/adminstats", nil), jane)).Code)

	admin := h.login(t, "Grid", "Admin")
	w := h.do(withCookie(httptest.NewRequest(http.MethodGet, "/wifi/adminstats", nil), admin))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"users":2`)
}

func TestConsoleOpUnconfigured(t *testing.T) {
	h := newHarness(t)
	h.user(t, "Grid", "Admin", 200)
	h.user(t, "Jane", "Doe", 0)

	admin := h.login(t, "Grid", "Admin")
	w := h.do(withCookie(postForm("/wifi/admin/console/start", url.Values{}), admin))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = h.do(withCookie(postForm("/wifi/admin/console/reboot", url.Values{}), admin))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	jane := h.login(t, "Jane", "Doe")
	w = h.do(withCookie(postForm("/wifi/admin/console/start", url.Values{}), jane))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginRateLimited(t *testing.T) {
	h := newHarness(t, WithRateLimiter(middleware.NewRateLimiter(2)))
	form := url.Values{"firstname": {"No"}, "lastname": {"Body"}, "password": {"x"}}

	assert.Equal(t, http.StatusOK, h.do(postForm("/wifi/login", form)).Code)
	assert.Equal(t, http.StatusOK, h.do(postForm("/wifi/login", form)).Code)
	assert.Equal(t, http.StatusTooManyRequests, h.do(postForm("/wifi/login", form)).Code)
	assert.Equal(t, http.StatusOK, h.do(httptest.NewRequest(http.MethodGet, "/wifi/login", nil)).Code)
}

func TestMetricsAndHealth(t *testing.T) {
	h := newHarness(t)
	h.do(httptest.NewRequest(http.MethodGet, "/wifi", nil))

	w := h.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "wifi_http_requests_total")

	assert.Equal(t, http.StatusOK, h.do(httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
}
