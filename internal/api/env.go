package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/divawifi/wifi/internal/constants"
	"github.com/divawifi/wifi/internal/i18n"
	"github.com/divawifi/wifi/internal/wifiscript"
)

// pageHandler runs one service operation and returns the rendered page.
type pageHandler func(c *gin.Context, env *wifiscript.Environment) string

// sessionID takes the sid from the query, the form, then the cookie.
func sessionID(c *gin.Context) string {
	if sid := c.Query(constants.SessionQueryParam); sid != "" {
		return sid
	}
	if c.Request.Method == http.MethodPost {
		if sid := c.PostForm(constants.SessionQueryParam); sid != "" {
			return sid
		}
	}
	sid, _ := c.Cookie(constants.SessionCookieName)
	return sid
}

// environment snapshots the request and binds its session.
func (s *Server) environment(c *gin.Context) *wifiscript.Environment {
	req := &wifiscript.Request{
		Method:         c.Request.Method,
		Path:           c.Request.URL.Path,
		RemoteIP:       c.ClientIP(),
		Query:          c.Request.URL.Query(),
		Form:           url.Values{},
		Cookies:        make(map[string]string),
		AcceptLanguage: c.GetHeader("Accept-Language"),
	}
	if c.Request.Method == http.MethodPost {
		if err := c.Request.ParseForm(); err == nil {
			req.Form = c.Request.PostForm
		}
	}
	for _, ck := range c.Request.Cookies() {
		req.Cookies[ck.Name] = ck.Value
	}

	env := wifiscript.NewEnvironment(req, s.logger)
	env.Language = s.language(c, req)
	s.svc.Attach(c.Request.Context(), env, sessionID(c))
	return env
}

// language picks ?lang=, then the language cookie, then Accept-Language. An
// explicit supported ?lang= is remembered in the cookie.
func (s *Server) language(c *gin.Context, req *wifiscript.Request) string {
	preferred := req.Query.Get("lang")
	if preferred != "" && i18n.Supports(preferred) {
		c.SetCookie(constants.LanguageCookie, preferred, 365*24*3600, "/", "", s.secure, true)
	} else {
		preferred = req.Cookies[constants.LanguageCookie]
	}
	return s.catalog.Match(preferred, req.AcceptLanguage)
}

// page wraps h with environment construction and page output.
func (s *Server) page(h pageHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		env := s.environment(c)
		attached := ""
		if env.Session != nil {
			attached = env.Session.ID
		}
		body := h(c, env)
		s.syncCookie(c, env, attached)
		if env.Redirect != "" {
			c.Redirect(http.StatusSeeOther, env.Redirect)
			return
		}
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(body))
	}
}

// syncCookie sets the session cookie after a login and clears it after a
// logout.
func (s *Server) syncCookie(c *gin.Context, env *wifiscript.Environment, attached string) {
	switch {
	case env.Session != nil && env.Session.ID != attached:
		maxAge := int(s.svc.Sessions().TTL().Seconds())
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(constants.SessionCookieName, env.Session.ID, maxAge, "/", "", s.secure, true)
	case env.Session == nil && attached != "":
		c.SetCookie(constants.SessionCookieName, "", -1, "/", "", s.secure, true)
	}
}

// formUUID parses a uuid form or query value; malformed input is uuid.Nil.
func formUUID(env *wifiscript.Environment, key string) uuid.UUID {
	id, err := uuid.Parse(env.Request.Param(key))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// paramUUID parses a path parameter; malformed input is uuid.Nil.
func paramUUID(c *gin.Context, key string) uuid.UUID {
	id, err := uuid.Parse(c.Param(key))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// formUUIDs collects every valid uuid submitted under key.
func formUUIDs(env *wifiscript.Environment, key string) []uuid.UUID {
	var ids []uuid.UUID
	for _, raw := range env.Request.Form[key] {
		for _, part := range strings.Split(raw, ",") {
			if id, err := uuid.Parse(strings.TrimSpace(part)); err == nil {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
