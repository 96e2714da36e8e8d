package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/models"
)

const groupSelect = `SELECT g.group_id, g.name, COALESCE(g.charter, '') AS charter, g.founder_id,
	g.show_in_list, g.open_enrollment,
	(SELECT COUNT(*) FROM os_groups_membership m WHERE m.group_id = g.group_id) AS member_count
	FROM os_groups_groups g`

// GroupRepository stores groups in os_groups_groups and memberships in
// os_groups_membership.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository creates a group repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

var _ grid.GroupsService = (*GroupRepository)(nil)

// ListGroups returns groups whose name contains query, or all groups.
func (r *GroupRepository) ListGroups(ctx context.Context, query string) ([]*models.Group, error) {
	var groups []*models.Group
	var err error
	if strings.TrimSpace(query) == "" {
		err = r.db.SelectContext(ctx, &groups, groupSelect+` ORDER BY g.name`)
	} else {
		err = r.db.SelectContext(ctx, &groups, r.db.Rebind(groupSelect+` WHERE LOWER(g.name) LIKE ? ORDER BY g.name`), likePattern(query))
	}
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// GetGroup returns a group by ID.
func (r *GroupRepository) GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	var g models.Group
	if err := r.db.GetContext(ctx, &g, r.db.Rebind(groupSelect+` WHERE g.group_id = ?`), id.String()); err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

// GetGroupByName matches the group name ignoring case.
func (r *GroupRepository) GetGroupByName(ctx context.Context, name string) (*models.Group, error) {
	var g models.Group
	err := r.db.GetContext(ctx, &g, r.db.Rebind(groupSelect+` WHERE LOWER(g.name) = ?`), strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return nil, notFound(err)
	}
	return &g, nil
}

// CreateGroup inserts g and makes its founder the first member.
func (r *GroupRepository) CreateGroup(ctx context.Context, g *models.Group) error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("create group: name is required")
	}
	if _, err := r.GetGroupByName(ctx, g.Name); err == nil {
		return grid.ErrConflict
	} else if !errors.Is(err, grid.ErrNotFound) {
		return err
	}
	if g.GroupID == uuid.Nil {
		g.GroupID = uuid.New()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO os_groups_groups
		(group_id, name, charter, founder_id, show_in_list, open_enrollment)
		VALUES (?, ?, ?, ?, ?, ?)`),
		g.GroupID.String(), g.Name, g.Charter, g.FounderID.String(), g.ShowInList, g.OpenEnrollment)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	if g.FounderID != uuid.Nil {
		_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO os_groups_membership (group_id, principal_id, title)
			VALUES (?, ?, ?)`), g.GroupID.String(), g.FounderID.String(), "Owner")
		if err != nil {
			return fmt.Errorf("insert founder membership: %w", err)
		}
		g.MemberCount = 1
	}
	return tx.Commit()
}

// DeleteGroup removes the group and its memberships.
func (r *GroupRepository) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM os_groups_membership WHERE group_id = ?`), id.String()); err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM os_groups_groups WHERE group_id = ?`), id.String())
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if rowsAffected(res) == 0 {
		return grid.ErrNotFound
	}
	return tx.Commit()
}

// GetMembers lists a group's memberships.
func (r *GroupRepository) GetMembers(ctx context.Context, groupID uuid.UUID) ([]*models.GroupMember, error) {
	var members []*models.GroupMember
	err := r.db.SelectContext(ctx, &members, r.db.Rebind(`SELECT group_id, principal_id, title
		FROM os_groups_membership WHERE group_id = ? ORDER BY principal_id`), groupID.String())
	if err != nil {
		return nil, fmt.Errorf("get members: %w", err)
	}
	return members, nil
}

// AddMember adds principalID to the group; existing members are left as is.
func (r *GroupRepository) AddMember(ctx context.Context, groupID uuid.UUID, principalID string) error {
	if _, err := r.GetGroup(ctx, groupID); err != nil {
		return err
	}
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM os_groups_membership
		WHERE group_id = ? AND principal_id = ?`), groupID.String(), principalID); err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if n > 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO os_groups_membership (group_id, principal_id, title)
		VALUES (?, ?, ?)`), groupID.String(), principalID, "")
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember removes principalID from the group.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID uuid.UUID, principalID string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM os_groups_membership
		WHERE group_id = ? AND principal_id = ?`), groupID.String(), principalID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if rowsAffected(res) == 0 {
		return grid.ErrNotFound
	}
	return nil
}

// RemoveMemberships drops principalID from every group.
func (r *GroupRepository) RemoveMemberships(ctx context.Context, principalID string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM os_groups_membership WHERE principal_id = ?`), principalID); err != nil {
		return fmt.Errorf("remove memberships: %w", err)
	}
	return nil
}
