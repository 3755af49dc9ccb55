package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"moodtune/internal/auth"
	"moodtune/internal/database"
	"moodtune/pkg/models"
)

// handleAuthRegister creates a new account.
func (ms *MoodServer) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var request struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	user, err := ms.authService.Register(request.Username, request.Password, request.Email, request.Phone)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrUsernameTaken):
			ms.respondWithError(w, r, http.StatusConflict, "Username already exists", nil)
		case errors.Is(err, database.ErrEmailTaken):
			ms.respondWithError(w, r, http.StatusConflict, "Email already exists", nil)
		default:
			ms.respondWithError(w, r, http.StatusBadRequest, err.Error(), nil)
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	ms.respondJSON(w, user)
}

// handleAuthLogin verifies credentials and opens a session.
func (ms *MoodServer) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if credentials.Username == "" || credentials.Password == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Username and password required", nil)
		return
	}

	user, session, err := ms.authService.Login(credentials.Username, credentials.Password, r.UserAgent())
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			ms.logger.WithField("username", credentials.Username).Warn("Failed login attempt")
			ms.respondWithError(w, r, http.StatusUnauthorized, "Invalid credentials", nil)
			return
		}
		ms.respondWithError(w, r, http.StatusInternalServerError, "Login failed", err)
		return
	}

	ms.authService.Sessions().SetSessionCookie(w, session)

	ms.respondJSON(w, map[string]interface{}{
		"user":  user,
		"token": session.ID,
	})
}

// handleAuthLogout invalidates the current session.
func (ms *MoodServer) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	sessions := ms.authService.Sessions()
	if session, valid := sessions.GetSessionFromRequest(r); valid {
		ms.authService.Logout(session.ID)
		ms.logger.WithField("username", session.Username).Info("User logged out")
	}
	sessions.ClearSessionCookie(w)

	ms.respondJSON(w, map[string]string{"status": "success"})
}

// handleProfile reads or updates the logged-in user's account.
func (ms *MoodServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(r)
	if !ok {
		ms.respondWithError(w, r, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := ms.authService.GetUser(session.UserID)
		if err != nil {
			ms.respondWithError(w, r, http.StatusNotFound, "User not found", err)
			return
		}
		ms.respondJSON(w, user)

	case http.MethodPut:
		var request struct {
			Email    string `json:"email"`
			Phone    string `json:"phone"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
			return
		}

		if err := ms.authService.UpdateProfile(session.UserID, request.Email, request.Phone, request.Password); err != nil {
			if errors.Is(err, database.ErrEmailTaken) {
				ms.respondWithError(w, r, http.StatusConflict, "Email already exists", nil)
				return
			}
			ms.respondWithError(w, r, http.StatusBadRequest, err.Error(), nil)
			return
		}

		user, err := ms.authService.GetUser(session.UserID)
		if err != nil {
			ms.respondWithError(w, r, http.StatusInternalServerError, "Failed to load user", err)
			return
		}
		ms.respondJSON(w, user)

	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// handleLoginHistory returns the user's recent logins.
func (ms *MoodServer) handleLoginHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	session, ok := sessionFromRequest(r)
	if !ok {
		ms.respondWithError(w, r, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	events, err := ms.db.GetLoginEvents(session.UserID, 20)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving login history", err)
		return
	}
	if events == nil {
		events = []models.LoginEvent{}
	}

	ms.respondJSON(w, map[string]interface{}{"logins": events})
}
