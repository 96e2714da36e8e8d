// Package apierrors provides the error codes returned by the JSON endpoints
// (TOS check, script events, console). Codes are namespaced: "wifi:..." for
// the panel itself, "<addon>:..." for addon-declared codes.
package apierrors

import "net/http"

// Panel error codes, registered at init.
const (
	CodeUnauthorized = "wifi:unauthorized"
	CodeForbidden    = "wifi:forbidden"
	CodeInvalidToken = "wifi:invalid_token"

	CodeInvalidRequest = "wifi:invalid_request"
	CodeInvalidID      = "wifi:invalid_id"
	CodeInvalidChannel = "wifi:invalid_channel"

	CodeNotFound = "wifi:not_found"
	CodeConflict = "wifi:conflict"

	CodeRateLimited = "wifi:rate_limited"

	CodeInternalError      = "wifi:internal_error"
	CodeUpstreamFailed     = "wifi:upstream_failed"
	CodeServiceUnavailable = "wifi:service_unavailable"
)

var wifiErrors = []ErrorCode{
	{Code: CodeUnauthorized, Message: "Authentication required", HTTPStatus: http.StatusUnauthorized},
	{Code: CodeForbidden, Message: "Permission denied", HTTPStatus: http.StatusForbidden},
	{Code: CodeInvalidToken, Message: "Invalid or expired token", HTTPStatus: http.StatusUnauthorized},

	{Code: CodeInvalidRequest, Message: "Invalid request", HTTPStatus: http.StatusBadRequest},
	{Code: CodeInvalidID, Message: "Invalid ID format", HTTPStatus: http.StatusBadRequest},
	{Code: CodeInvalidChannel, Message: "Invalid event channel", HTTPStatus: http.StatusBadRequest},

	{Code: CodeNotFound, Message: "Resource not found", HTTPStatus: http.StatusNotFound},
	{Code: CodeConflict, Message: "Resource conflict", HTTPStatus: http.StatusConflict},

	{Code: CodeRateLimited, Message: "Too many requests", HTTPStatus: http.StatusTooManyRequests},

	{Code: CodeInternalError, Message: "Internal server error", HTTPStatus: http.StatusInternalServerError},
	{Code: CodeUpstreamFailed, Message: "The simulator did not answer", HTTPStatus: http.StatusBadGateway},
	{Code: CodeServiceUnavailable, Message: "Service not configured", HTTPStatus: http.StatusServiceUnavailable},
}

func init() {
	for _, e := range wifiErrors {
		Registry.Register(e)
	}
}
