// internal/middleware/logging.go
package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// LogMiddleware is an HTTP middleware that logs incoming requests using
// Logrus: method, path, remote address, and duration.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"remote":   r.RemoteAddr,
				"duration": time.Since(start),
			}).Info("HTTP request")
		})
	}
}

// LogWebSocketConnect logs a message once a WebSocket upgrade is accepted.
func LogWebSocketConnect(logger *logrus.Logger, sessionID, remoteAddr string) {
	logger.WithFields(logrus.Fields{
		"session": sessionID,
		"remote":  remoteAddr,
	}).Info("WebSocket connected")
}

// LogWebSocketDisconnect logs a message when a WebSocket client disconnects.
func LogWebSocketDisconnect(logger *logrus.Logger, sessionID, remoteAddr string, err error) {
	fields := logrus.Fields{
		"session": sessionID,
		"remote":  remoteAddr,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("WebSocket disconnected")
}
