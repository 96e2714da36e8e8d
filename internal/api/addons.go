package api

import (
	"github.com/gin-gonic/gin"

	"github.com/divawifi/wifi/internal/apierrors"
	"github.com/divawifi/wifi/internal/service"
)

// mountAddons binds every addon route. Routes with a level above zero
// need a session at that level.
func (s *Server) mountAddons(r gin.IRouter) {
	if s.addons == nil {
		return
	}
	for _, b := range s.addons.Bindings() {
		handlers := []gin.HandlerFunc{b.Handler}
		if b.Level > 0 {
			handlers = append([]gin.HandlerFunc{s.requireLevel(b.Level)}, handlers...)
		}
		r.Handle(b.Method, b.Path, handlers...)
		s.logger.Debug("addon route", "addon", b.Addon, "method", b.Method, "path", b.Path, "level", b.Level)
	}
}

// requireLevel aborts unless the request carries a session whose user
// level is at least level.
func (s *Server) requireLevel(level int) gin.HandlerFunc {
	return func(c *gin.Context) {
		env := s.environment(c)
		current, ok := service.Level(env)
		if !ok {
			apierrors.Abort(c, apierrors.CodeUnauthorized)
			return
		}
		if current < level {
			apierrors.Abort(c, apierrors.CodeForbidden)
			return
		}
		c.Next()
	}
}
