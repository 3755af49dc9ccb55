package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"moodtune/internal/database"
	"moodtune/pkg/models"
)

// parsePlaylistID extracts the playlist ID from /api/playlists/{id}/... paths.
func parsePlaylistID(path string) (int, error) {
	pathParts := strings.Split(path, "/")
	if len(pathParts) < 4 || pathParts[3] == "" {
		return 0, errors.New("playlist ID is required")
	}
	playlistID, err := strconv.Atoi(pathParts[3])
	if err != nil || playlistID <= 0 {
		return 0, errors.New("playlist ID must be a positive integer")
	}
	return playlistID, nil
}

// mapPlaylistError translates store errors into HTTP responses.
func (ms *MoodServer) mapPlaylistError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrPlaylistNotFound):
		ms.respondWithError(w, r, http.StatusNotFound, "Playlist not found", nil)
	case errors.Is(err, database.ErrPlaylistLimit):
		ms.respondWithError(w, r, http.StatusConflict, "Playlist limit reached", nil)
	case errors.Is(err, database.ErrPlaylistTitleTaken):
		ms.respondWithError(w, r, http.StatusConflict, "Playlist title already exists", nil)
	default:
		ms.respondWithError(w, r, http.StatusInternalServerError, "Playlist operation failed", err)
	}
}

// handlePlaylists lists the user's playlists or creates a new one.
func (ms *MoodServer) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(r)
	if !ok {
		ms.respondWithError(w, r, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	switch r.Method {
	case http.MethodGet:
		playlists, err := ms.db.GetPlaylists(session.UserID)
		if err != nil {
			ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving playlists", err)
			return
		}
		ms.respondJSON(w, playlists)

	case http.MethodPost:
		var request struct {
			Title string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
			return
		}

		title := strings.TrimSpace(request.Title)
		if title == "" {
			ms.respondWithError(w, r, http.StatusBadRequest, "Playlist title is required", nil)
			return
		}
		if len(title) > 255 {
			ms.respondWithError(w, r, http.StatusBadRequest, "Playlist title too long", nil)
			return
		}

		playlist, err := ms.db.CreatePlaylist(session.UserID, title)
		if err != nil {
			ms.mapPlaylistError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		ms.respondJSON(w, playlist)

	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// handleGetPlaylistSongs returns the songs of one playlist in order.
func (ms *MoodServer) handleGetPlaylistSongs(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(r)
	if !ok {
		ms.respondWithError(w, r, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	playlistID, err := parsePlaylistID(r.URL.Path)
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	songs, err := ms.db.GetPlaylistSongs(session.UserID, playlistID)
	if err != nil {
		ms.mapPlaylistError(w, r, err)
		return
	}

	ms.respondJSON(w, songs)
}

// handleAddPlaylistSong appends a song to a playlist.
func (ms *MoodServer) handleAddPlaylistSong(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(r)
	if !ok {
		ms.respondWithError(w, r, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	playlistID, err := parsePlaylistID(r.URL.Path)
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var song models.PlaylistSong
	if err := json.NewDecoder(r.Body).Decode(&song); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if strings.TrimSpace(song.Title) == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Song title is required", nil)
		return
	}

	if err := ms.db.AddSongToPlaylist(session.UserID, playlistID, song); err != nil {
		ms.mapPlaylistError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	ms.respondJSON(w, map[string]string{"status": "success"})
}

// handleRemovePlaylistSong deletes the song at the given position.
func (ms *MoodServer) handleRemovePlaylistSong(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(r)
	if !ok {
		ms.respondWithError(w, r, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	playlistID, err := parsePlaylistID(r.URL.Path)
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	positionParam := r.URL.Query().Get("position")
	position, err := strconv.Atoi(positionParam)
	if err != nil || position < 0 {
		ms.respondWithError(w, r, http.StatusBadRequest, "position must be a non-negative integer", err)
		return
	}

	if err := ms.db.RemovePlaylistSong(session.UserID, playlistID, position); err != nil {
		ms.mapPlaylistError(w, r, err)
		return
	}

	ms.respondJSON(w, map[string]string{"status": "success"})
}

// handleRenamePlaylist changes a playlist's title.
func (ms *MoodServer) handleRenamePlaylist(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(r)
	if !ok {
		ms.respondWithError(w, r, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	playlistID, err := parsePlaylistID(r.URL.Path)
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var request struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	title := strings.TrimSpace(request.Title)
	if title == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Playlist title is required", nil)
		return
	}

	if err := ms.db.RenamePlaylist(session.UserID, playlistID, title); err != nil {
		ms.mapPlaylistError(w, r, err)
		return
	}

	ms.respondJSON(w, map[string]string{"status": "success"})
}

// handleDeletePlaylist removes a playlist and its songs.
func (ms *MoodServer) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromRequest(r)
	if !ok {
		ms.respondWithError(w, r, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	playlistID, err := parsePlaylistID(r.URL.Path)
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := ms.db.DeletePlaylist(session.UserID, playlistID); err != nil {
		ms.mapPlaylistError(w, r, err)
		return
	}

	ms.respondJSON(w, map[string]string{"status": "success"})
}
