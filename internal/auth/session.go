package auth

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session represents an active user session
type Session struct {
	ID        string
	UserID    string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionManager manages in-memory user sessions
type SessionManager struct {
	sessions      map[string]*Session
	mutex         sync.RWMutex
	duration      time.Duration
	cookieName    string
	secureCookies bool
}

// NewSessionManager creates a new session manager
func NewSessionManager(duration time.Duration, secureCookies bool) *SessionManager {
	sm := &SessionManager{
		sessions:      make(map[string]*Session),
		duration:      duration,
		cookieName:    "moodtune_session",
		secureCookies: secureCookies,
	}

	go sm.cleanupExpiredSessions()

	return sm
}

// CreateSession opens a new session for the user
func (sm *SessionManager) CreateSession(userID, username string) *Session {
	now := time.Now()
	session := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(sm.duration),
	}

	sm.mutex.Lock()
	sm.sessions[session.ID] = session
	sm.mutex.Unlock()

	return session
}

// GetSession retrieves a session by ID
func (sm *SessionManager) GetSession(sessionID string) (*Session, bool) {
	sm.mutex.RLock()
	session, exists := sm.sessions[sessionID]
	sm.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Now().After(session.ExpiresAt) {
		sm.DeleteSession(sessionID)
		return nil, false
	}

	return session, true
}

// DeleteSession removes a session
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mutex.Lock()
	delete(sm.sessions, sessionID)
	sm.mutex.Unlock()
}

// DeleteUserSessions removes all sessions for a specific user
func (sm *SessionManager) DeleteUserSessions(userID string) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	for id, session := range sm.sessions {
		if session.UserID == userID {
			delete(sm.sessions, id)
		}
	}
}

// RefreshSession extends the session expiration time
func (sm *SessionManager) RefreshSession(sessionID string) bool {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	session, exists := sm.sessions[sessionID]
	if !exists {
		return false
	}

	if time.Now().After(session.ExpiresAt) {
		delete(sm.sessions, sessionID)
		return false
	}

	session.ExpiresAt = time.Now().Add(sm.duration)
	return true
}

// SetSessionCookie sets the session cookie on the response
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    session.ID,
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   sm.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
}

// ClearSessionCookie removes the session cookie
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   sm.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
}

// GetSessionFromRequest extracts the session from the request cookie,
// falling back to a bearer token header for non-browser clients.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) (*Session, bool) {
	if cookie, err := r.Cookie(sm.cookieName); err == nil {
		return sm.GetSession(cookie.Value)
	}

	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return sm.GetSession(header[len(prefix):])
	}

	return nil, false
}

// cleanupExpiredSessions periodically removes expired sessions
func (sm *SessionManager) cleanupExpiredSessions() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		sm.mutex.Lock()
		for id, session := range sm.sessions {
			if now.After(session.ExpiresAt) {
				delete(sm.sessions, id)
			}
		}
		sm.mutex.Unlock()
	}
}
