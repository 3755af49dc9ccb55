package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"moodtune/internal/auth"
)

type contextKey string

const sessionContextKey contextKey = "session"

// withSession stores the authenticated session on the request context.
func withSession(ctx context.Context, session *auth.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// sessionFromRequest returns the session placed on the context by the auth
// middleware.
func sessionFromRequest(r *http.Request) (*auth.Session, bool) {
	session, ok := r.Context().Value(sessionContextKey).(*auth.Session)
	return session, ok
}

// respondJSON writes a JSON response body.
func (ms *MoodServer) respondJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		ms.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// respondWithError sends a structured error response.
func (ms *MoodServer) respondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	logEntry := ms.logger.WithFields(logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"status_code": statusCode,
		"message":     message,
	})
	if err != nil {
		logEntry = logEntry.WithError(err)
	}

	if statusCode >= 500 {
		logEntry.Error("Server error")
	} else {
		logEntry.Warn("Client error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	ms.respondJSON(w, map[string]interface{}{
		"error":   message,
		"code":    statusCode,
		"success": false,
	})
}
