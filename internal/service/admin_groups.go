package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/divawifi/wifi/internal/grid"
	"github.com/divawifi/wifi/internal/models"
	"github.com/divawifi/wifi/internal/webapp"
	"github.com/divawifi/wifi/internal/wifiscript"
)

// GroupForm is the POST body of /wifi/admin/groups.
type GroupForm struct {
	Name    string
	Charter string
	Open    bool
}

// GroupList lists groups matching query.
func (s *Services) GroupList(ctx context.Context, env *wifiscript.Environment, query string) string {
	if page, ok := s.requireAdmin(env); !ok {
		return page
	}
	groups, err := s.grid.Groups.ListGroups(ctx, strings.TrimSpace(query))
	if err != nil {
		return s.failed(env, "list groups", err)
	}
	data := make([]any, len(groups))
	for i, g := range groups {
		data[i] = &webapp.GroupItem{Group: g}
	}
	env.Data = data
	return s.render(env, webapp.StateGroupList)
}

// GroupView renders a group followed by its members. Element 0 of the data
// list is the group.
func (s *Services) GroupView(ctx context.Context, env *wifiscript.Environment, id uuid.UUID) string {
	if page, ok := s.requireAdmin(env); !ok {
		return page
	}
	g, err := s.grid.Groups.GetGroup(ctx, id)
	if err != nil {
		return s.failed(env, "load group", err)
	}
	members, err := s.grid.Groups.GetMembers(ctx, id)
	if err != nil {
		return s.failed(env, "load members", err)
	}
	data := make([]any, 0, len(members)+1)
	data = append(data, &webapp.GroupItem{Group: g})
	for _, m := range members {
		data = append(data, &webapp.MemberItem{Member: m, Name: s.memberName(ctx, m.PrincipalID)})
	}
	env.Data = data
	return s.render(env, webapp.StateGroupView)
}

// memberName resolves a local member id to "First Last". Foreign members
// (uui;url;name) keep their embedded name.
func (s *Services) memberName(ctx context.Context, principal string) string {
	id, err := uuid.Parse(principal)
	if err != nil {
		if parts := strings.Split(principal, ";"); len(parts) >= 3 {
			return parts[2]
		}
		return ""
	}
	acc, err := s.grid.Accounts.GetUserAccount(ctx, id)
	if err != nil {
		return ""
	}
	return acc.Name()
}

// CreateGroup creates a group founded by the administrator, who also
// becomes its first member.
func (s *Services) CreateGroup(ctx context.Context, env *wifiscript.Environment, form GroupForm) string {
	if page, ok := s.requireAdmin(env); !ok {
		return page
	}
	name := strings.TrimSpace(form.Name)
	if name == "" {
		return s.message(env, "The action could not be performed.")
	}
	g := &models.Group{
		GroupID:        uuid.New(),
		Name:           name,
		Charter:        form.Charter,
		FounderID:      s.principal(env),
		ShowInList:     true,
		OpenEnrollment: form.Open,
	}
	if err := s.grid.Groups.CreateGroup(ctx, g); err != nil {
		if errors.Is(err, grid.ErrConflict) {
			return s.message(env, "The action could not be performed.")
		}
		return s.failed(env, "create group", err)
	}
	if err := s.grid.Groups.AddMember(ctx, g.GroupID, g.FounderID.String()); err != nil {
		s.logger.Warn("add founder failed", "group", g.GroupID, "error", err)
	}
	s.logger.Info("group created", "admin", s.principal(env), "group", g.GroupID, "name", name)
	return s.notify(ctx, env, "Your changes have been saved.", "/wifi/admin/groups/"+g.GroupID.String())
}

// DeleteGroup removes a group and its memberships.
func (s *Services) DeleteGroup(ctx context.Context, env *wifiscript.Environment, id uuid.UUID) string {
	if page, ok := s.requireAdmin(env); !ok {
		return page
	}
	if err := s.grid.Groups.DeleteGroup(ctx, id); err != nil {
		return s.failed(env, "delete group", err)
	}
	s.logger.Info("group deleted", "admin", s.principal(env), "group", id)
	return s.notify(ctx, env, "Your changes have been saved.", "/wifi/admin/groups")
}

// AddGroupMember adds the local user "First Last" to a group.
func (s *Services) AddGroupMember(ctx context.Context, env *wifiscript.Environment, id uuid.UUID, name string) string {
	if page, ok := s.requireAdmin(env); !ok {
		return page
	}
	first, last, ok := strings.Cut(strings.TrimSpace(name), " ")
	if !ok {
		return s.message(env, "The action could not be performed.")
	}
	acc, err := s.grid.Accounts.GetUserAccountByName(ctx, first, strings.TrimSpace(last))
	if err != nil {
		s.logger.Info("group member not found", "group", id, "name", name, "error", err)
		return s.message(env, "The action could not be performed.")
	}
	if err := s.grid.Groups.AddMember(ctx, id, acc.PrincipalID.String()); err != nil && !errors.Is(err, grid.ErrConflict) {
		return s.failed(env, "add member", err)
	}
	return s.notify(ctx, env, "Your changes have been saved.", "/wifi/admin/groups/"+id.String())
}

// RemoveGroupMember drops a membership.
func (s *Services) RemoveGroupMember(ctx context.Context, env *wifiscript.Environment, id uuid.UUID, principal string) string {
	if page, ok := s.requireAdmin(env); !ok {
		return page
	}
	if err := s.grid.Groups.RemoveMember(ctx, id, principal); err != nil {
		return s.failed(env, "remove member", err)
	}
	return s.notify(ctx, env, "Your changes have been saved.", "/wifi/admin/groups/"+id.String())
}
