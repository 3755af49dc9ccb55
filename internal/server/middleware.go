package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// responseWriter wraps http.ResponseWriter to capture status code & size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(data []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(data)
	rw.size += size
	return size, err
}

// requestLoggingMiddleware logs HTTP requests (if enabled) with latency & size.
func (ms *MoodServer) requestLoggingMiddleware(next http.Handler) http.Handler {
	if !ms.config.Logging.RequestLogging {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     200,
		}

		next.ServeHTTP(rw, r)

		if r.URL.Path == "/health" {
			return
		}

		ms.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"remote":   r.RemoteAddr,
			"status":   rw.statusCode,
			"bytes":    rw.size,
			"duration": time.Since(start).Round(time.Millisecond).String(),
		}).Info("Request handled")
	})
}

// corsMiddleware injects CORS headers if enabled in configuration.
func (ms *MoodServer) corsMiddleware(next http.Handler) http.Handler {
	if !ms.config.Server.EnableCORS {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// panicRecoveryMiddleware intercepts panics returning HTTP 500 without
// crashing the process.
func (ms *MoodServer) panicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				ms.logger.WithFields(logrus.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"panic":  err,
				}).Error("Panic in handler")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware requires a valid session for account-scoped routes.
func (ms *MoodServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isProtectedPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		sessions := ms.authService.Sessions()
		session, valid := sessions.GetSessionFromRequest(r)
		if !valid {
			ms.respondWithError(w, r, http.StatusUnauthorized, "Authentication required", nil)
			return
		}

		sessions.RefreshSession(session.ID)
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
	})
}

// isProtectedPath reports whether a path requires a logged-in user.
func isProtectedPath(path string) bool {
	protectedPrefixes := []string{
		"/api/users/",
		"/api/playlists",
		"/api/history",
	}

	for _, prefix := range protectedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
