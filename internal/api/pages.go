package api

import (
	"github.com/gin-gonic/gin"

	"github.com/divawifi/wifi/internal/service"
	"github.com/divawifi/wifi/internal/wifiscript"
)

func (s *Server) handleHome(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.Default(c.Request.Context(), env)
}

func (s *Server) handleLoginForm(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.LoginForm(c.Request.Context(), env)
}

func (s *Server) handleLogin(c *gin.Context, env *wifiscript.Environment) string {
	r := env.Request
	return s.svc.Login(c.Request.Context(), env, r.Param("firstname"), r.Param("lastname"), r.Form.Get("password"))
}

func (s *Server) handleLogout(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.Logout(c.Request.Context(), env)
}

func (s *Server) handleNotify(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.Notify(c.Request.Context(), env)
}

func (s *Server) handleAccount(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.AccountPage(c.Request.Context(), env)
}

func (s *Server) handleAccountUpdate(c *gin.Context, env *wifiscript.Environment) string {
	f := env.Request.Form
	return s.svc.UpdateAccount(c.Request.Context(), env, service.AccountForm{
		Email:           env.Request.Param("email"),
		OldPassword:     f.Get("oldpassword"),
		NewPassword:     f.Get("newpassword"),
		ConfirmPassword: f.Get("confirmpassword"),
	})
}

func (s *Server) handleNewAccount(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.NewAccountPage(c.Request.Context(), env)
}

func (s *Server) handleNewAccountCreate(c *gin.Context, env *wifiscript.Environment) string {
	r := env.Request
	return s.svc.CreateAccount(c.Request.Context(), env, service.NewAccountForm{
		FirstName:       r.Param("firstname"),
		LastName:        r.Param("lastname"),
		Email:           r.Param("email"),
		Password:        r.Form.Get("password"),
		ConfirmPassword: r.Form.Get("confirmpassword"),
		AvatarType:      r.Param("avatartype"),
	})
}

func (s *Server) handleInventory(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.Inventory(c.Request.Context(), env, paramUUID(c, "folder"))
}

// handleInventoryAction moves or trashes the submitted items, then shows
// the folder again.
func (s *Server) handleInventoryAction(c *gin.Context, env *wifiscript.Environment) string {
	ctx := c.Request.Context()
	items := formUUIDs(env, "item")
	switch env.Request.Param("action") {
	case "move":
		return s.svc.MoveItems(ctx, env, items, formUUID(env, "destination"))
	case "delete":
		return s.svc.DeleteItems(ctx, env, items)
	}
	return s.svc.Inventory(ctx, env, paramUUID(c, "folder"))
}

func (s *Server) handleHyperlinks(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.Hyperlinks(c.Request.Context(), env)
}

func (s *Server) handleHyperlinkAction(c *gin.Context, env *wifiscript.Environment) string {
	ctx := c.Request.Context()
	r := env.Request
	switch r.Param("action") {
	case "delete":
		return s.svc.DeleteHyperlink(ctx, env, formUUID(env, "id"))
	case "add", "":
		return s.svc.AddHyperlink(ctx, env, service.HyperlinkForm{
			Address: r.Param("address"),
			X:       r.Param("x"),
			Y:       r.Param("y"),
		})
	}
	return s.svc.Hyperlinks(ctx, env)
}

func (s *Server) handleForgotPasswordForm(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.ForgotPasswordPage(c.Request.Context(), env)
}

func (s *Server) handleForgotPassword(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.ForgotPassword(c.Request.Context(), env, env.Request.Param("email"))
}

func (s *Server) handleRecoverForm(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.RecoverPage(c.Request.Context(), env, env.Request.Param("token"))
}

func (s *Server) handleRecover(c *gin.Context, env *wifiscript.Environment) string {
	f := env.Request.Form
	return s.svc.Recover(c.Request.Context(), env, env.Request.Param("token"), f.Get("password"), f.Get("confirmpassword"))
}

func (s *Server) handleTOS(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.TOSPage(c.Request.Context(), env)
}

func (s *Server) handleTOSAccept(c *gin.Context, env *wifiscript.Environment) string {
	return s.svc.AcceptTOS(c.Request.Context(), env)
}
