package apierrors

import (
	"github.com/gin-gonic/gin"
)

// APIError is the JSON error body.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func body(code, message string) gin.H {
	return gin.H{"success": false, "error": APIError{Code: code, Message: message}}
}

// Error writes the registered status and message for code.
func Error(c *gin.Context, code string) {
	c.JSON(Registry.HTTPStatus(code), body(code, Registry.Message(code)))
}

// ErrorWithMessage writes code with a message of the caller's choosing.
func ErrorWithMessage(c *gin.Context, code, message string) {
	c.JSON(Registry.HTTPStatus(code), body(code, message))
}

// Abort is Error for middleware: the rest of the chain does not run.
func Abort(c *gin.Context, code string) {
	c.AbortWithStatusJSON(Registry.HTTPStatus(code), body(code, Registry.Message(code)))
}
