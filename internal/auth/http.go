// ABOUTME: HTTP middleware extracting the caller's API key from Authorization
// ABOUTME: Rejects credential-less requests with a JSON-RPC shaped 401 body

package auth

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// missingKeyBody is the exact 401 body MCP clients expect when no key is sent.
const missingKeyBody = `{"jsonrpc":"2.0","error":{"code":401,"message":"Missing Authorization API key"},"id":null}`

// ExtractBearerToken extracts an API key from an Authorization header value.
// Accepts both "Bearer <token>" (case-insensitive scheme) and a bare token.
// Returns the token and an error message (empty if successful).
func ExtractBearerToken(header string) (string, string) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", "missing authorization header"
	}
	// The scheme word counts as the prefix only when it stands alone or is
	// followed by a space; a bare token that merely starts with "Bearer"
	// (e.g. "Bearer123") is kept whole.
	if len(header) >= 6 && strings.EqualFold(header[:6], "Bearer") {
		rest := header[6:]
		if rest == "" || rest[0] == ' ' {
			header = strings.TrimSpace(rest)
		}
	}
	if header == "" {
		return "", "empty token"
	}
	return header, ""
}

// Middleware creates an HTTP middleware that extracts the caller's API key
// and binds it into the request context with WithCredential. Requests
// without a key are rejected with 401 before any downstream handler runs,
// so no outbound call can ever be attempted on their behalf.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := ExtractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				logger.Warn("rejected request without API key",
					"reason", errMsg,
					"remote", r.RemoteAddr,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, missingKeyBody)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCredential(r.Context(), token)))
		})
	}
}
