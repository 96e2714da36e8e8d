package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/divawifi/wifi/internal/constants"
	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/metrics"
	"github.com/divawifi/wifi/internal/models"
)

// ErrAccountChanged is returned by Update when the caller tries to rebind a
// session to another account.
var ErrAccountChanged = errors.New("session account cannot change")

// Table is the process-wide session table. All methods are safe for
// concurrent use; locking is owned by the Store.
type Table struct {
	store    Store
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
	presence grid.PresenceService
	accounts grid.UserAccountService
}

// Option configures a Table.
type Option func(*Table)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock replaces the time source used for CreatedAt/LastSeen stamps.
func WithClock(now func() time.Time) Option {
	return func(t *Table) { t.now = now }
}

// WithPresence enables sessions synthesized from viewer presence: a session
// ID that is a viewer's session UUID logs the browser in as that user.
func WithPresence(presence grid.PresenceService, accounts grid.UserAccountService) Option {
	return func(t *Table) {
		t.presence = presence
		t.accounts = accounts
	}
}

// NewTable creates a table over store with the given idle timeout.
func NewTable(store Store, ttl time.Duration, opts ...Option) *Table {
	t := &Table{
		store:  store,
		ttl:    constants.ClampSessionTimeout(ttl),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TTL returns the idle timeout applied by Add and TryGet.
func (t *Table) TTL() time.Duration { return t.ttl }

// TryGet returns the session for sid when it exists, has not expired and was
// created for clientIP. A successful lookup refreshes the expiry.
func (t *Table) TryGet(ctx context.Context, sid, clientIP string) (*models.Session, bool) {
	if sid == "" {
		return nil, false
	}
	s, err := t.store.Get(ctx, sid)
	if errors.Is(err, ErrNotFound) {
		return t.fromPresence(ctx, sid, clientIP)
	}
	if err != nil {
		t.logger.Warn("session lookup failed", "error", err)
		return nil, false
	}
	if s.ClientIP != clientIP {
		t.logger.Debug("session IP mismatch", "sid", sid, "expected", s.ClientIP, "got", clientIP)
		return nil, false
	}
	if err := t.store.Touch(ctx, sid, t.ttl); err != nil {
		t.logger.Warn("session touch failed", "sid", sid, "error", err)
	}
	s.LastSeen = t.now()
	return s, true
}

func (t *Table) fromPresence(ctx context.Context, sid, clientIP string) (*models.Session, bool) {
	if t.presence == nil || t.accounts == nil {
		return nil, false
	}
	sessionID, err := uuid.Parse(sid)
	if err != nil {
		return nil, false
	}
	pinfo, err := t.presence.GetAgentBySession(ctx, sessionID)
	if err != nil {
		return nil, false
	}
	principal, err := uuid.Parse(pinfo.UserID)
	if err != nil {
		return nil, false
	}
	acc, err := t.accounts.GetUserAccount(ctx, principal)
	if err != nil {
		t.logger.Warn("presence session for unknown account", "user", pinfo.UserID, "error", err)
		return nil, false
	}
	now := t.now()
	s := &models.Session{ID: sid, ClientIP: clientIP, Account: acc, CreatedAt: now, LastSeen: now}
	if err := t.Add(ctx, s, t.ttl); err != nil {
		t.logger.Warn("store presence session failed", "error", err)
		return nil, false
	}
	t.logger.Info("session created from viewer presence", "user", acc.Name())
	return s, true
}

// Add inserts s with the given ttl; a non-positive ttl uses the table default.
func (t *Table) Add(ctx context.Context, s *models.Session, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = t.ttl
	}
	now := t.now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.LastSeen = now
	return t.store.Set(ctx, s, ttl)
}

// Update replaces the mutable parts of an existing session (notification,
// last seen). The account must be the same principal.
func (t *Table) Update(ctx context.Context, s *models.Session, ttl time.Duration) error {
	current, err := t.store.Get(ctx, s.ID)
	if err != nil {
		return err
	}
	if accountID(current) != accountID(s) {
		return ErrAccountChanged
	}
	if ttl <= 0 {
		ttl = t.ttl
	}
	next := s.Clone()
	next.Account = current.Account
	next.ClientIP = current.ClientIP
	next.CreatedAt = current.CreatedAt
	next.LastSeen = t.now()
	return t.store.Set(ctx, next, ttl)
}

// Remove deletes the session. Removing a missing session is not an error.
func (t *Table) Remove(ctx context.Context, sid string) error {
	return t.store.Delete(ctx, sid)
}

// Count returns the number of live sessions.
func (t *Table) Count(ctx context.Context) int {
	all, err := t.store.List(ctx)
	if err != nil {
		t.logger.Warn("session list failed", "error", err)
		return 0
	}
	return len(all)
}

// ListByAccount returns the live sessions of one principal.
func (t *Table) ListByAccount(ctx context.Context, principalID uuid.UUID) []*models.Session {
	all, err := t.store.List(ctx)
	if err != nil {
		t.logger.Warn("session list failed", "error", err)
		return nil
	}
	var out []*models.Session
	for _, s := range all {
		if accountID(s) == principalID {
			out = append(out, s)
		}
	}
	return out
}

// Sweep drops expired sessions and refreshes the active-sessions gauge.
func (t *Table) Sweep(ctx context.Context) (int, error) {
	n, err := t.store.Sweep(ctx)
	if err != nil {
		return 0, err
	}
	metrics.Get().SessionsActive.Set(float64(t.Count(ctx)))
	return n, nil
}

func accountID(s *models.Session) uuid.UUID {
	if s == nil || s.Account == nil {
		return uuid.Nil
	}
	return s.Account.PrincipalID
}
