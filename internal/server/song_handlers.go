package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"moodtune/pkg/models"
)

const defaultSongLimit = 100

// handleGetSongs returns songs, optionally filtered by a search query.
func (ms *MoodServer) handleGetSongs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	searchQuery := strings.TrimSpace(r.URL.Query().Get("search"))
	if len(searchQuery) > 1000 {
		ms.respondWithError(w, r, http.StatusBadRequest, "Search query too long", nil)
		return
	}

	var songs []models.Song
	var err error
	if searchQuery != "" {
		songs, err = ms.db.SearchSongs(searchQuery, defaultSongLimit)
	} else {
		songs, err = ms.db.GetAllSongs()
	}
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving songs", err)
		return
	}

	ms.respondJSON(w, songs)
}

// handleGetSongCount responds with a JSON count of all songs.
func (ms *MoodServer) handleGetSongCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	songs, err := ms.db.GetAllSongs()
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving song count", err)
		return
	}
	ms.respondJSON(w, map[string]int{"count": len(songs)})
}

// handleGetSongsByGenre returns songs matching comma-separated genres.
func (ms *MoodServer) handleGetSongsByGenre(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	raw := r.URL.Query().Get("genres")
	if raw == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "genres parameter is required", nil)
		return
	}

	genres := strings.Split(raw, ",")
	songs, err := ms.db.GetSongsByGenres(genres, defaultSongLimit)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving songs", err)
		return
	}

	ms.respondJSON(w, songs)
}

// handleGetSongsByArtist returns songs whose artist matches the name fragment.
func (ms *MoodServer) handleGetSongsByArtist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "name parameter is required", nil)
		return
	}

	songs, err := ms.db.GetSongsByArtist(name, defaultSongLimit)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving songs", err)
		return
	}

	ms.respondJSON(w, songs)
}

// handleStreamSong streams an individual song by ID with Range support.
func (ms *MoodServer) handleStreamSong(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 3 {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid song ID", nil)
		return
	}

	songID, err := strconv.Atoi(pathParts[2])
	if err != nil || songID <= 0 {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid song ID", err)
		return
	}

	song, err := ms.findSongByID(songID)
	if err != nil {
		ms.respondWithError(w, r, http.StatusNotFound, "Song not found", err)
		return
	}

	file, err := os.Open(song.FilePath)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error opening audio file", err)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error reading file info", err)
		return
	}

	w.Header().Set("Content-Type", ms.extractor.GetContentType(song.FilePath))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", stat.Size()))
	w.Header().Set("Accept-Ranges", "bytes")

	rangeHeader := r.Header.Get("Range")
	if rangeHeader != "" {
		ms.handleRangeRequest(w, file, stat.Size(), rangeHeader)
		return
	}

	if _, err := io.Copy(w, file); err != nil {
		ms.logger.WithError(err).WithField("file_path", song.FilePath).Error("Error streaming file")
	}
}

// findSongByID looks a song up in the catalog snapshot, falling back to the
// database when the snapshot is stale.
func (ms *MoodServer) findSongByID(songID int) (*models.Song, error) {
	for _, song := range ms.catalog.Songs() {
		if song.ID == songID {
			return &song, nil
		}
	}

	songs, err := ms.db.GetAllSongs()
	if err != nil {
		return nil, err
	}
	for _, song := range songs {
		if song.ID == songID {
			return &song, nil
		}
	}
	return nil, fmt.Errorf("song %d not found", songID)
}

// handleRangeRequest implements simple single-range byte serving for seeking.
func (ms *MoodServer) handleRangeRequest(w http.ResponseWriter, file *os.File, fileSize int64, rangeHeader string) {
	ranges := strings.TrimPrefix(rangeHeader, "bytes=")
	rangeParts := strings.Split(ranges, "-")

	start, err := strconv.ParseInt(rangeParts[0], 10, 64)
	if err != nil {
		start = 0
	}

	var end int64
	if len(rangeParts) > 1 && rangeParts[1] != "" {
		end, err = strconv.ParseInt(rangeParts[1], 10, 64)
		if err != nil {
			end = fileSize - 1
		}
	} else {
		end = fileSize - 1
	}

	if start < 0 || end >= fileSize || start > end {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	contentLength := end - start + 1
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", contentLength))
	w.WriteHeader(http.StatusPartialContent)

	file.Seek(start, io.SeekStart)
	io.CopyN(w, file, contentLength)
}

// handleCover serves cached cover art by content hash.
func (ms *MoodServer) handleCover(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 3 || pathParts[2] == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid cover ID", nil)
		return
	}

	data, exists := ms.extractor.GetCover(pathParts[2])
	if !exists {
		ms.respondWithError(w, r, http.StatusNotFound, "Cover not found", nil)
		return
	}

	w.Header().Set("Content-Type", ms.extractor.GetCoverMimeType(data))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}
