package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/divawifi/wifi/internal/apierrors"
)

// ScriptToken admits requests carrying secret as a bearer token or in the
// X-Wifi-Token header. An empty secret admits everything.
func ScriptToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		token := extractToken(c)
		if token == "" {
			apierrors.Abort(c, apierrors.CodeUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			apierrors.Abort(c, apierrors.CodeInvalidToken)
			return
		}
		c.Next()
	}
}

// HasScriptToken reports whether c carries secret. It is false when secret
// is empty.
func HasScriptToken(c *gin.Context, secret string) bool {
	token := extractToken(c)
	return secret != "" && token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

func extractToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(c.GetHeader("X-Wifi-Token"))
}
