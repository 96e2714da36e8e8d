package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/models"
)

const presenceColumns = `user_id, region_id, session_id, secure_session_id, last_seen`

// PresenceRepository reads viewer sessions from the presence table.
type PresenceRepository struct {
	db *sqlx.DB
}

// NewPresenceRepository creates a presence repository.
func NewPresenceRepository(db *sqlx.DB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

var _ grid.PresenceService = (*PresenceRepository)(nil)

// GetAgentBySession returns the presence record for a viewer session ID.
func (r *PresenceRepository) GetAgentBySession(ctx context.Context, sessionID uuid.UUID) (*models.PresenceInfo, error) {
	var p models.PresenceInfo
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+presenceColumns+` FROM presence WHERE session_id = ?`), sessionID.String())
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// GetAgents returns presence records for the given users.
func (r *PresenceRepository) GetAgents(ctx context.Context, userIDs []string) ([]*models.PresenceInfo, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+presenceColumns+` FROM presence WHERE user_id IN (?)`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("build presence query: %w", err)
	}
	var out []*models.PresenceInfo
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get agents: %w", err)
	}
	return out, nil
}

// CountOnline returns the number of distinct users with a viewer session in a
// region.
func (r *PresenceRepository) CountOnline(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(DISTINCT user_id) FROM presence WHERE region_id <> ?`), uuid.Nil.String())
	if err != nil {
		return 0, fmt.Errorf("count online: %w", err)
	}
	return n, nil
}

// Record stores a presence row. Used by seeding and tests; the simulators own
// this table in production.
func (r *PresenceRepository) Record(ctx context.Context, p *models.PresenceInfo) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO presence (`+presenceColumns+`) VALUES (?, ?, ?, ?, ?)`),
		p.UserID, p.RegionID.String(), p.SessionID.String(), p.SecureSessionID.String(), p.LastSeen)
	if err != nil {
		return fmt.Errorf("record presence: %w", err)
	}
	return nil
}

const gridUserColumns = `user_id, home_region_id, last_region_id, online, login, logout, tos_accepted`

// GridUserRepository reads and updates the griduser table.
type GridUserRepository struct {
	db *sqlx.DB
}

// NewGridUserRepository creates a grid user repository.
func NewGridUserRepository(db *sqlx.DB) *GridUserRepository {
	return &GridUserRepository{db: db}
}

var _ grid.GridUserService = (*GridUserRepository)(nil)

// GetGridUserInfo returns a user's grid record.
func (r *GridUserRepository) GetGridUserInfo(ctx context.Context, userID string) (*models.GridUserInfo, error) {
	var g models.GridUserInfo
	err := r.db.GetContext(ctx, &g, r.db.Rebind(`SELECT `+gridUserColumns+` FROM griduser WHERE user_id = ?`), userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

// GetGridUserInfos returns the records that exist for userIDs.
func (r *GridUserRepository) GetGridUserInfos(ctx context.Context, userIDs []string) ([]*models.GridUserInfo, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+gridUserColumns+` FROM griduser WHERE user_id IN (?)`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("build griduser query: %w", err)
	}
	var out []*models.GridUserInfo
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get grid users: %w", err)
	}
	return out, nil
}

// SetTOSAccepted records the user's terms-of-service decision, creating the
// record when needed.
func (r *GridUserRepository) SetTOSAccepted(ctx context.Context, userID string, accepted bool) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE griduser SET tos_accepted = ? WHERE user_id = ?`), accepted, userID)
	if err != nil {
		return fmt.Errorf("update tos: %w", err)
	}
	if rowsAffected(res) > 0 {
		return nil
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO griduser (user_id, tos_accepted) VALUES (?, ?)`), userID, accepted)
	if err != nil {
		return fmt.Errorf("insert griduser: %w", err)
	}
	return nil
}

// Store inserts or replaces a grid user record.
func (r *GridUserRepository) Store(ctx context.Context, g *models.GridUserInfo) error {
	if err := r.DeleteGridUser(ctx, g.UserID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO griduser (`+gridUserColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		g.UserID, g.HomeRegionID.String(), g.LastRegionID.String(), g.Online, g.Login, g.Logout, g.TOSAccepted)
	if err != nil {
		return fmt.Errorf("store griduser: %w", err)
	}
	return nil
}

// DeleteGridUser removes a user's grid record.
func (r *GridUserRepository) DeleteGridUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM griduser WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("delete griduser: %w", err)
	}
	return nil
}
