package apierrors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryWifiCodes(t *testing.T) {
	for _, code := range []string{CodeUnauthorized, CodeForbidden, CodeNotFound, CodeInvalidChannel, CodeUpstreamFailed} {
		_, ok := Registry.Get(code)
		assert.True(t, ok, code)
	}
	for _, e := range Registry.ByNamespace("wifi") {
		assert.Regexp(t, `^wifi:`, e.Code)
	}
}

func TestRegistryHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeInvalidRequest, http.StatusBadRequest},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeUpstreamFailed, http.StatusBadGateway},
		{"unknown:code", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, Registry.HTTPStatus(tt.code))
		})
	}
	assert.Equal(t, "unknown:code", Registry.Message("unknown:code"))
}

type addonCodes []ErrorCode

func (a addonCodes) EnumerateErrors() []ErrorCode { return a }

func TestRegisterAddon(t *testing.T) {
	Registry.RegisterAddon("Stats", addonCodes{
		{Code: "export_failed", Message: "Export failed", HTTPStatus: http.StatusInternalServerError},
		{Code: "wifi:already_namespaced", Message: "kept", HTTPStatus: http.StatusBadRequest},
	})
	e, ok := Registry.Get("stats:export_failed")
	require.True(t, ok)
	assert.Equal(t, "Export failed", e.Message)
	_, ok = Registry.Get("wifi:already_namespaced")
	assert.True(t, ok)
	assert.Len(t, Registry.ByNamespace("stats"), 1)
}

func TestAbortWritesBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		Abort(c, CodeForbidden)
	})
	r.GET("/y", func(c *gin.Context) {
		Error(c, CodeNotFound)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body struct {
		Success bool     `json:"success"`
		Error   APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, CodeForbidden, body.Error.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/y", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), CodeNotFound)
}
