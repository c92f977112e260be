package utils

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"ms-ordering/internal/apperrors"
)

// WriteJSON serializes payload with the given status code.
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError maps an application error onto the response envelope. Unknown
// errors are reported as generic storage failures so driver detail never
// reaches public clients.
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Storage("unexpected error", err)
	}

	if len(appErr.Fields) > 0 {
		WriteJSON(w, appErr.HTTPStatus(), ValidationErrorResponse(appErr.PublicMessage(), string(appErr.Kind), appErr.Fields))
		return
	}
	WriteJSON(w, appErr.HTTPStatus(), ErrorResponse(appErr.PublicMessage(), string(appErr.Kind)))
}

// ClientIP picks the caller's address for rate limiting, honouring the proxy
// header Railway-style deployments set.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
