package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTable(opts ...Option) (*Table, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore()
	store.SetClock(clock.Now)
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewTable(store, 30*time.Minute, opts...), clock
}

func testSession(id, ip string) *models.Session {
	return &models.Session{
		ID:       id,
		ClientIP: ip,
		Account:  &models.UserAccount{PrincipalID: uuid.New(), FirstName: "Jane", LastName: "Doe"},
	}
}

func TestTableTTL(t *testing.T) {
	ctx := context.Background()
	table, clock := newTestTable()
	s := testSession("tok", "10.0.0.1")
	require.NoError(t, table.Add(ctx, s, 0))

	clock.Advance(29 * time.Minute)
	got, ok := table.TryGet(ctx, "tok", "10.0.0.1")
	require.True(t, ok)
	assert.Equal(t, s.Account.PrincipalID, got.Account.PrincipalID)

	// Sliding: the lookup above pushed expiry another 30 minutes.
	clock.Advance(29 * time.Minute)
	_, ok = table.TryGet(ctx, "tok", "10.0.0.1")
	assert.True(t, ok)

	clock.Advance(31 * time.Minute)
	_, ok = table.TryGet(ctx, "tok", "10.0.0.1")
	assert.False(t, ok)
}

func TestTableIPBinding(t *testing.T) {
	ctx := context.Background()
	table, _ := newTestTable()
	require.NoError(t, table.Add(ctx, testSession("tok", "10.0.0.1"), 0))

	_, ok := table.TryGet(ctx, "tok", "10.0.0.2")
	assert.False(t, ok)
	_, ok = table.TryGet(ctx, "tok", "10.0.0.1")
	assert.True(t, ok)
	_, ok = table.TryGet(ctx, "", "10.0.0.1")
	assert.False(t, ok)
}

func TestTableUpdate(t *testing.T) {
	ctx := context.Background()
	table, _ := newTestTable()
	s := testSession("tok", "10.0.0.1")
	require.NoError(t, table.Add(ctx, s, 0))

	withNote := s.Clone()
	withNote.Notify = &models.Notification{Message: "Saved", RedirectURL: "/wifi"}
	require.NoError(t, table.Update(ctx, withNote, 0))

	got, ok := table.TryGet(ctx, "tok", "10.0.0.1")
	require.True(t, ok)
	require.NotNil(t, got.Notify)
	assert.Equal(t, "Saved", got.Notify.Message)

	hijack := s.Clone()
	hijack.Account = &models.UserAccount{PrincipalID: uuid.New()}
	assert.ErrorIs(t, table.Update(ctx, hijack, 0), ErrAccountChanged)

	assert.ErrorIs(t, table.Update(ctx, testSession("missing", "x"), 0), ErrNotFound)
}

func TestTableReturnsCopies(t *testing.T) {
	ctx := context.Background()
	table, _ := newTestTable()
	require.NoError(t, table.Add(ctx, testSession("tok", "10.0.0.1"), 0))

	got, ok := table.TryGet(ctx, "tok", "10.0.0.1")
	require.True(t, ok)
	got.Account.FirstName = "Mallory"

	again, _ := table.TryGet(ctx, "tok", "10.0.0.1")
	assert.Equal(t, "Jane", again.Account.FirstName)
}

func TestTableRemoveCountSweep(t *testing.T) {
	ctx := context.Background()
	table, clock := newTestTable()
	a := testSession("a", "ip")
	b := testSession("b", "ip")
	b.Account = a.Account
	require.NoError(t, table.Add(ctx, a, 0))
	require.NoError(t, table.Add(ctx, b, 0))
	require.NoError(t, table.Add(ctx, testSession("c", "ip"), 0))

	assert.Equal(t, 3, table.Count(ctx))
	assert.Len(t, table.ListByAccount(ctx, a.Account.PrincipalID), 2)

	require.NoError(t, table.Remove(ctx, "c"))
	require.NoError(t, table.Remove(ctx, "c"))
	assert.Equal(t, 2, table.Count(ctx))

	clock.Advance(time.Hour)
	n, err := table.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, table.Count(ctx))
}

type fakePresence struct {
	grid.PresenceService
	byID map[uuid.UUID]*models.PresenceInfo
}

func (f *fakePresence) GetAgentBySession(_ context.Context, id uuid.UUID) (*models.PresenceInfo, error) {
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, grid.ErrNotFound
}

type fakeAccounts struct {
	grid.UserAccountService
	byID map[uuid.UUID]*models.UserAccount
}

func (f *fakeAccounts) GetUserAccount(_ context.Context, id uuid.UUID) (*models.UserAccount, error) {
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, grid.ErrNotFound
}

func TestTablePresenceSynthesis(t *testing.T) {
	ctx := context.Background()
	acc := &models.UserAccount{PrincipalID: uuid.New(), FirstName: "Viewer", LastName: "User"}
	viewerSession := uuid.New()
	presence := &fakePresence{byID: map[uuid.UUID]*models.PresenceInfo{
		viewerSession: {UserID: acc.PrincipalID.String(), SessionID: viewerSession},
	}}
	accounts := &fakeAccounts{byID: map[uuid.UUID]*models.UserAccount{acc.PrincipalID: acc}}
	table, _ := newTestTable(WithPresence(presence, accounts))

	got, ok := table.TryGet(ctx, viewerSession.String(), "192.168.1.5")
	require.True(t, ok)
	assert.Equal(t, "Viewer User", got.Account.Name())

	// The synthesized session is now a regular, IP-bound entry.
	_, ok = table.TryGet(ctx, viewerSession.String(), "192.168.1.6")
	assert.False(t, ok)
	assert.Equal(t, 1, table.Count(ctx))

	_, ok = table.TryGet(ctx, uuid.NewString(), "192.168.1.5")
	assert.False(t, ok)
	_, ok = table.TryGet(ctx, "not-a-uuid", "192.168.1.5")
	assert.False(t, ok)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisStore(client)

	s := testSession("tok", "10.0.0.1")
	s.Account.ServiceURLs = map[string]string{"HomeURI": "http://grid"}
	require.NoError(t, store.Set(ctx, s, 10*time.Minute))

	got, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, s.Account.PrincipalID, got.Account.PrincipalID)
	assert.Equal(t, "http://grid", got.Account.ServiceURLs["HomeURI"])

	mr.FastForward(9 * time.Minute)
	require.NoError(t, store.Touch(ctx, "tok", 10*time.Minute))
	mr.FastForward(9 * time.Minute)
	_, err = store.Get(ctx, "tok")
	require.NoError(t, err)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	mr.FastForward(11 * time.Minute)
	_, err = store.Get(ctx, "tok")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Touch(ctx, "tok", time.Minute), ErrNotFound)

	require.NoError(t, store.Set(ctx, s, time.Minute))
	require.NoError(t, store.Delete(ctx, "tok"))
	_, err = store.Get(ctx, "tok")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTableOverRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	table := NewTable(NewRedisStore(client), 30*time.Minute)

	require.NoError(t, table.Add(ctx, testSession("tok", "10.0.0.1"), 0))
	_, ok := table.TryGet(ctx, "tok", "10.0.0.1")
	assert.True(t, ok)
	_, ok = table.TryGet(ctx, "tok", "10.0.0.9")
	assert.False(t, ok)

	mr.FastForward(31 * time.Minute)
	_, ok = table.TryGet(ctx, "tok", "10.0.0.1")
	assert.False(t, ok)
}
