// Package session holds the web session table: expiring, IP-bound sessions
// with a sliding timeout, kept in memory or in Redis.
package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/divawifi/wifi/internal/models"
)

// ErrNotFound is returned by a Store for a missing or expired session.
var ErrNotFound = errors.New("session not found")

// Store persists sessions with a per-entry time to live.
type Store interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Set(ctx context.Context, s *models.Session, ttl time.Duration) error
	// Touch pushes the expiry of id to now+ttl.
	Touch(ctx context.Context, id string, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Session, error)
	// Sweep drops expired entries and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
}

type memoryEntry struct {
	session *models.Session
	expires time.Time
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// SetClock replaces the time source; used by tests.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok || !m.now().Before(e.expires) {
		return nil, ErrNotFound
	}
	return e.session.Clone(), nil
}

func (m *MemoryStore) Set(_ context.Context, s *models.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[s.ID] = &memoryEntry{session: s.Clone(), expires: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Touch(_ context.Context, id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	now := m.now()
	if !ok || !now.Before(e.expires) {
		return ErrNotFound
	}
	e.expires = now.Add(ttl)
	e.session.LastSeen = now
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	out := make([]*models.Session, 0, len(m.entries))
	for _, e := range m.entries {
		if now.Before(e.expires) {
			out = append(out, e.session.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) Sweep(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed, nil
}
