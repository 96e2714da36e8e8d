package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/divawifi/wifi/internal/apierrors"
	"github.com/divawifi/wifi/internal/console"
	"github.com/divawifi/wifi/internal/service"
	"github.com/divawifi/wifi/internal/wifiscript"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleUserList(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.UserList(c.Request.Context(), env, env.Request.Param("terms"))
}

func (s *Server) handleUserEdit(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.UserEdit(c.Request.Context(), env, paramUUID(c, "id"))
}

func (s *Server) handleUserAction(c *gin.Context, env *wifiscript.Environment) string {
	ctx := c.Request.Context()
	id := paramUUID(c, "id")
	r := env.Request
	switch r.Param("action") {
	case "activate":
		return s.svc.ActivateUser(ctx, env, id)
	case "delete":
		return s.svc.DeleteUser(ctx, env, id)
	}
	return s.svc.UpdateUser(ctx, env, id, service.UserEditForm{
		FirstName: r.Param("firstname"),
		LastName:  r.Param("lastname"),
		Email:     r.Param("email"),
		Title:     r.Form.Get("title"),
		Level:     r.Param("level"),
		Password:  r.Form.Get("password"),
	})
}

// handleUserExport sends the account list as a spreadsheet.
func (s *Server) handleUserExport(c *gin.Context) {
	env := s.environment(c)
	data, err := s.svc.ExportUsers(c.Request.Context(), env)
	if errors.Is(err, service.ErrForbidden) {
		apierrors.Error(c, apierrors.CodeForbidden)
		return
	}
	if err != nil {
		s.logger.Error("export users failed", "error", err)
		apierrors.Error(c, apierrors.CodeInternalError)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="users.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (s *Server) handleGroupList(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.GroupList(c.Request.Context(), env, env.Request.Param("terms"))
}

func (s *Server) handleGroupCreate(c *gin.Context, env *wifiscript.Environment) string {
	r := env.Request
	return s.svc.CreateGroup(c.Request.Context(), env, service.GroupForm{
		Name:    r.Param("name"),
		Charter: r.Form.Get("charter"),
		Open:    r.Param("open") != "",
	})
}

func (s *Server) handleGroupView(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.GroupView(c.Request.Context(), env, paramUUID(c, "id"))
}

func (s *Server) handleGroupAction(c *gin.Context, env *wifiscript.Environment) string {
	ctx := c.Request.Context()
	id := paramUUID(c, "id")
	switch env.Request.Param("action") {
	case "delete":
		return s.svc.DeleteGroup(ctx, env, id)
	case "addmember":
		return s.svc.AddGroupMember(ctx, env, id, env.Request.Param("member"))
	case "removemember":
		return s.svc.RemoveGroupMember(ctx, env, id, env.Request.Param("principal"))
	}
	return s.svc.GroupView(ctx, env, id)
}

func (s *Server) handleRegions(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.RegionList(c.Request.Context(), env)
}

func (s *Server) handleServerPage(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.ServerPage(c.Request.Context(), env)
}

func (s *Server) handleServerAction(c *gin.Context, env *wifiscript.Environment) string {
	r := env.Request
	return s.svc.ServerAction(c.Request.Context(), env, service.ServerForm{
		Action:   r.Param("action"),
		Delay:    r.Param("delay"),
		RegionID: r.Param("region"),
		Message:  r.Param("message"),
	})
}

func (s *Server) handleConsolePage(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.ConsolePage(c.Request.Context(), env)
}

// handleConsoleOp relays one console call and passes the simulator's XML
// through unchanged.
func (s *Server) handleConsoleOp(c *gin.Context) {
	env := s.environment(c)
	op := c.Param("op")
	switch op {
	case "start", "command", "read", "close":
	default:
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}
	raw, err := s.svc.ConsoleOp(c.Request.Context(), env, op, env.Request.Param("id"), env.Request.Param("command"))
	switch {
	case errors.Is(err, service.ErrForbidden):
		apierrors.Error(c, apierrors.CodeForbidden)
		return
	case errors.Is(err, console.ErrNotConfigured):
		apierrors.Error(c, apierrors.CodeServiceUnavailable)
		return
	case err != nil:
		s.logger.Warn("console call failed", "op", op, "error", err)
		apierrors.Error(c, apierrors.CodeUpstreamFailed)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", raw)
}
