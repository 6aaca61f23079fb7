// internal/handlers/session.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/quizbuzz/quizbuzz/internal/auth"
)

const sessionCookieName = "session_token"

// EnsureSession resolves the caller's session ID from the session cookie,
// minting a fresh one when the cookie is absent or invalid. The session ID
// is the opaque connection identity used across rooms; there is no account
// behind it. Must be called before a websocket upgrade so the Set-Cookie
// header can still go out.
func EnsureSession(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	cookieHeader := r.Header.Get("Cookie")
	if strings.Contains(cookieHeader, sessionCookieName+"=") {
		token := extractCookieToken(cookieHeader, sessionCookieName)
		if sub, err := auth.VerifySessionToken(token); err == nil {
			sessionID, parseErr := uuid.Parse(sub)
			if parseErr == nil {
				return sessionID, nil
			}
		}
		// Fall through and replace a bad cookie with a fresh session.
	}

	sessionID := uuid.New()
	token, err := auth.CreateSessionToken(sessionID.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create session token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	return sessionID, nil
}

// extractCookieToken extracts a named cookie value from a raw "Cookie"
// header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}
