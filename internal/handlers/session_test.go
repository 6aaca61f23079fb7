// internal/handlers/session_test.go
package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizbuzz/quizbuzz/internal/auth"
)

func TestEnsureSessionMintsAndReuses(t *testing.T) {
	auth.Init() // ephemeral keys

	req := httptest.NewRequest("GET", "/ws", nil)
	w := httptest.NewRecorder()

	first, err := EnsureSession(w, req)
	require.NoError(t, err)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)

	// A second request carrying the cookie resolves to the same session.
	req2 := httptest.NewRequest("GET", "/ws", nil)
	req2.AddCookie(cookies[0])
	w2 := httptest.NewRecorder()

	second, err := EnsureSession(w2, req2)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Empty(t, w2.Result().Cookies(), "no new cookie for a valid session")
}

func TestEnsureSessionReplacesBadToken(t *testing.T) {
	auth.Init()

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Cookie", sessionCookieName+"=garbage")
	w := httptest.NewRecorder()

	id, err := EnsureSession(w, req)
	require.NoError(t, err)
	assert.NotEqual(t, id.String(), "")
	require.Len(t, w.Result().Cookies(), 1, "bad token replaced with a fresh session")
}
