// Package api maps the /wifi HTTP surface onto the services facade. Handlers
// build a request environment, call one service operation and write the
// rendered page.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/divawifi/wifi/internal/addon"
	"github.com/divawifi/wifi/internal/config"
	"github.com/divawifi/wifi/internal/events"
	"github.com/divawifi/wifi/internal/i18n"
	"github.com/divawifi/wifi/internal/imaging"
	"github.com/divawifi/wifi/internal/middleware"
	"github.com/divawifi/wifi/internal/service"
)

// Server holds the handler dependencies.
type Server struct {
	svc     *service.Services
	catalog *i18n.Catalog
	addons  *addon.Registry
	bus     events.Bus
	images  *imaging.Server
	static  []config.ServePath
	limiter *middleware.RateLimiter
	token   string
	secure  bool
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAddons mounts the registered addon routes.
func WithAddons(r *addon.Registry) Option {
	return func(s *Server) { s.addons = r }
}

// WithEventBus enables /wifi/scriptevent.
func WithEventBus(b events.Bus) Option {
	return func(s *Server) { s.bus = b }
}

// WithImages enables /wifi/image.
func WithImages(i *imaging.Server) Option {
	return func(s *Server) { s.images = i }
}

// WithServePaths serves static directories.
func WithServePaths(paths []config.ServePath) Option {
	return func(s *Server) { s.static = paths }
}

// WithRateLimiter throttles login and recovery submissions.
func WithRateLimiter(rl *middleware.RateLimiter) Option {
	return func(s *Server) { s.limiter = rl }
}

// WithScriptToken requires token on script event publishes.
func WithScriptToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithSecureCookies marks the session cookie Secure.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) { s.secure = secure }
}

// NewServer creates the handler set.
func NewServer(svc *service.Services, catalog *i18n.Catalog, opts ...Option) *Server {
	s := &Server{svc: svc, catalog: catalog, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(s.logger))
	s.Mount(r)
	return r
}

// Mount registers the routes on r.
func (s *Server) Mount(r gin.IRouter) {
	limited := middleware.RateLimitByIP(s.limiter)

	w := r.Group("/wifi")
	w.GET("", s.page(s.handleHome))
	w.GET("/", s.page(s.handleHome))
	w.GET("/login", s.page(s.handleLoginForm))
	w.POST("/login", limited, s.page(s.handleLogin))
	w.GET("/logout", s.page(s.handleLogout))
	w.POST("/logout", s.page(s.handleLogout))
	w.GET("/notify", s.page(s.handleNotify))

	w.GET("/user/account", s.page(s.handleAccount))
	w.POST("/user/account", s.page(s.handleAccountUpdate))
	w.GET("/user/newaccount", s.page(s.handleNewAccount))
	w.POST("/user/newaccount", limited, s.page(s.handleNewAccountCreate))
	w.GET("/user/inventory", s.page(s.handleInventory))
	w.GET("/user/inventory/:folder", s.page(s.handleInventory))
	w.POST("/user/inventory", s.page(s.handleInventoryAction))
	w.POST("/user/inventory/:folder", s.page(s.handleInventoryAction))

	w.GET("/linkregion", s.page(s.handleHyperlinks))
	w.POST("/linkregion", s.page(s.handleHyperlinkAction))

	w.GET("/forgotpassword", s.page(s.handleForgotPasswordForm))
	w.POST("/forgotpassword", limited, s.page(s.handleForgotPassword))
	w.GET("/recover", s.page(s.handleRecoverForm))
	w.POST("/recover", limited, s.page(s.handleRecover))

	w.GET("/tos", s.page(s.handleTOS))
	w.POST("/tos", s.page(s.handleTOSAccept))
	w.GET("/tos/check", s.handleTOSCheck)

	admin := w.Group("/admin")
	admin.GET("/users", s.page(s.handleUserList))
	admin.GET("/users/export", s.handleUserExport)
	admin.GET("/users/:id", s.page(s.handleUserEdit))
	admin.POST("/users/:id", s.page(s.handleUserAction))
	admin.GET("/groups", s.page(s.handleGroupList))
	admin.POST("/groups", s.page(s.handleGroupCreate))
	admin.GET("/groups/:id", s.page(s.handleGroupView))
	admin.POST("/groups/:id", s.page(s.handleGroupAction))
	admin.GET("/regions", s.page(s.handleRegions))
	admin.GET("/server", s.page(s.handleServerPage))
	admin.POST("/server", s.page(s.handleServerAction))
	admin.GET("/console", s.page(s.handleConsolePage))
	admin.POST("/console/:op", s.handleConsoleOp)

	if s.images != nil {
		w.GET("/image/:id", s.handleImage)
	}
	if s.bus != nil {
		w.POST("/scriptevent", middleware.ScriptToken(s.token), s.handlePublishEvent)
		w.GET("/scriptevent", s.handleEventStream)
	}

	s.mountStatic(r)
	s.mountAddons(r)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
