package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"moodtune/pkg/models"
)

// handleHistory reads or appends to the user's listening history.
func (ms *MoodServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(r)
	if !ok {
		ms.respondWithError(w, r, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	switch r.Method {
	case http.MethodGet:
		songs, err := ms.db.GetHistorySongs(session.UserID)
		if err != nil {
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving history", err)
			return
		}
		ms.respondJSON(w, songs)

	case http.MethodPost:
		var song models.HistorySong
		if err := json.NewDecoder(r.Body).Decode(&song); err != nil {
			ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
			return
		}
		if strings.TrimSpace(song.Title) == "" {
			ms.respondWithError(w, r, http.StatusBadRequest, "Song title is required", nil)
			return
		}

		if err := ms.db.AddHistorySong(session.UserID, song); err != nil {
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error recording history", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		ms.respondJSON(w, map[string]string{"status": "success"})

	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}
