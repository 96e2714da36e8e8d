package addon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divawifi/wifi/internal/apierrors"
	"github.com/divawifi/wifi/internal/config"
	"github.com/divawifi/wifi/internal/database"
	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/models"
	"github.com/divawifi/wifi/internal/repository"
)

type testHost struct{ svc grid.Services }

func (h testHost) Grid() grid.Services  { return h.svc }
func (h testHost) Logger() *slog.Logger { return slog.Default() }

type fakeAddon struct {
	name        string
	initErr     error
	shutdownErr error
	shut        bool
}

func (f *fakeAddon) Name() string                     { return f.name }
func (f *fakeAddon) Init(context.Context, Host) error { return f.initErr }

func (f *fakeAddon) Shutdown(context.Context) error {
	f.shut = true
	return f.shutdownErr
}

func (f *fakeAddon) Routes() []Route {
	return []Route{
		{Path: "", Handler: func(c *gin.Context) { c.String(http.StatusOK, f.name) }},
		{Method: http.MethodPost, Path: "/save", Handler: func(c *gin.Context) { c.Status(http.StatusNoContent) }},
	}
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(testHost{})

	a := &fakeAddon{name: "Alpha"}
	b := &fakeAddon{name: "Beta"}
	require.NoError(t, r.Register(ctx, a, config.AddonDecl{Name: "Alpha", Path: "/wifi/alpha", Label: "Alpha", Level: 0}))
	require.NoError(t, r.Register(ctx, b, config.AddonDecl{Name: "Beta", Path: "/wifi/beta/", Label: "Beta", Level: 200}))

	t.Run("DuplicateRejected", func(t *testing.T) {
		err := r.Register(ctx, &fakeAddon{name: "alpha"}, config.AddonDecl{Name: "ALPHA", Path: "/x"})
		assert.Error(t, err)
	})

	t.Run("InitFailure", func(t *testing.T) {
		err := r.Register(ctx, &fakeAddon{name: "Bad", initErr: errors.New("nope")}, config.AddonDecl{Name: "Bad", Path: "/bad"})
		assert.Error(t, err)
		_, ok := r.Get("bad")
		assert.False(t, ok)
	})

	t.Run("BadPath", func(t *testing.T) {
		assert.Error(t, r.Register(ctx, &fakeAddon{name: "P"}, config.AddonDecl{Name: "P", Path: "relative"}))
	})

	t.Run("MenuGating", func(t *testing.T) {
		items := r.MenuItems(0)
		require.Len(t, items, 1)
		assert.Equal(t, "Alpha", items[0].Label)

		items = r.MenuItems(250)
		require.Len(t, items, 2)
		assert.Equal(t, "Beta", items[1].Name)
	})

	t.Run("Bindings", func(t *testing.T) {
		bindings := r.Bindings()
		require.Len(t, bindings, 4)
		assert.Equal(t, "/wifi/alpha", bindings[0].Path)
		assert.Equal(t, http.MethodGet, bindings[0].Method)
		assert.Equal(t, "/wifi/alpha/save", bindings[1].Path)
		assert.Equal(t, "/wifi/beta", bindings[2].Path)
		assert.Equal(t, 200, bindings[3].Level)
	})

	t.Run("Shutdown", func(t *testing.T) {
		require.NoError(t, r.ShutdownAll(ctx))
		assert.True(t, a.shut)
		assert.True(t, b.shut)
		assert.Empty(t, r.MenuItems(1000))
	})
}

func TestRegisterConfigured(t *testing.T) {
	r := NewRegistry(testHost{})
	err := r.RegisterConfigured(context.Background(), []config.AddonDecl{
		{Name: "Stats", Path: "/wifi/stats", Label: "Statistics"},
		{Name: "Unknown", Path: "/wifi/unknown", Label: "?"},
	}, slog.Default())
	require.NoError(t, err)

	_, ok := r.Get("stats")
	assert.True(t, ok)
	_, ok = r.Get("unknown")
	assert.False(t, ok)
}

func TestStatsAddon(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	svc := repository.New(database.NewTestDB(t))
	require.NoError(t, svc.Accounts.StoreUserAccount(ctx, &models.UserAccount{PrincipalID: uuid.New(), FirstName: "A", LastName: "B"}))
	require.NoError(t, svc.Grid.RegisterRegion(ctx, &models.Region{RegionName: "R", LocX: 256000, LocY: 256000}))

	r := NewRegistry(testHost{svc: svc})
	require.NoError(t, r.Register(ctx, &StatsAddon{}, config.AddonDecl{Name: "Stats", Path: "/wifi/stats"}))

	router := gin.New()
	for _, b := range r.Bindings() {
		router.Handle(b.Method, b.Path, b.Handler)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wifi/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["users"])
	assert.Equal(t, float64(1), body["regions"])
	assert.Equal(t, float64(0), body["online"])
}

func TestStatsAddonUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	db := database.NewTestDB(t)
	r := NewRegistry(testHost{svc: repository.New(db)})
	require.NoError(t, r.Register(ctx, &StatsAddon{}, config.AddonDecl{Name: "Stats", Path: "/wifi/stats"}))
	require.NoError(t, db.Close())

	e, ok := apierrors.Registry.Get(CodeStatsUnavailable)
	require.True(t, ok, "stats codes are registered with the addon")
	assert.Equal(t, http.StatusServiceUnavailable, e.HTTPStatus)

	router := gin.New()
	for _, b := range r.Bindings() {
		router.Handle(b.Method, b.Path, b.Handler)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wifi/stats", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), CodeStatsUnavailable)
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/a", joinPath("/a/", ""))
	assert.Equal(t, "/a/b", joinPath("/a", "/b/"))
	assert.Equal(t, "/", joinPath("/", ""))
}
