package server

import (
	"io"
	"net/http"
	"strconv"

	"moodtune/internal/classifier"
	"moodtune/internal/emotion"
	"moodtune/pkg/models"
)

// maxImageBytes caps uploaded face images at 10 MB.
const maxImageBytes = 10 << 20

// PredictResponse is the payload returned by the predict endpoint.
type PredictResponse struct {
	Emotion    string                 `json:"emotion"`
	Confidence float64                `json:"confidence"`
	Playlist   []models.PlaylistEntry `json:"playlist"`
	Note       string                 `json:"note,omitempty"`
}

// handlePredict classifies an uploaded face image and returns the mood
// together with a ranked playlist for it. Classification problems never
// fail the request: the mood degrades to neutral with zero confidence.
func (ms *MoodServer) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Image file is required", err)
		return
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Failed to read image", err)
		return
	}

	outcome := ms.classifier.Classify(r.Context(), imageBytes)

	mood := emotion.MoodNeutral
	confidence := 0.0
	if outcome.Kind == classifier.OutcomeClassified {
		normalized, err := emotion.Normalize(outcome.Label)
		if err != nil {
			ms.logger.WithError(err).WithField("label", outcome.Label).Warn("Unknown emotion label, using neutral")
		}
		mood = normalized
		confidence = outcome.Confidence
	}

	playlist := ms.recommendPlaylist(string(mood), ms.config.Recommender.TopK)

	ms.recorder.Record(string(mood), confidence)

	response := PredictResponse{
		Emotion:    string(mood),
		Confidence: confidence,
		Playlist:   playlist,
	}
	if len(playlist) == 0 {
		response.Note = "no songs available for this mood"
	}

	ms.respondJSON(w, response)
}

// recommendPlaylist returns the ranked playlist for a mood, memoized until
// the catalog changes.
func (ms *MoodServer) recommendPlaylist(mood string, topK int) []models.PlaylistEntry {
	key := ms.playlists.Key(mood, topK)
	if playlist, ok := ms.playlists.GetPlaylist(key); ok {
		return playlist
	}

	playlist := ms.engine.Recommend(mood, topK)
	ms.playlists.SetPlaylist(key, playlist)
	return playlist
}

// handleRecommend returns a ranked playlist for an explicitly named emotion.
func (ms *MoodServer) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	emotionParam := r.URL.Query().Get("emotion")
	if emotionParam == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "emotion parameter is required", nil)
		return
	}

	topK := ms.config.Recommender.TopK
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			ms.respondWithError(w, r, http.StatusBadRequest, "top_k must be a positive integer", err)
			return
		}
		topK = parsed
	}

	playlist := ms.recommendPlaylist(emotionParam, topK)

	response := map[string]interface{}{
		"emotion":  emotionParam,
		"playlist": playlist,
	}
	if len(playlist) == 0 {
		response["note"] = "no songs available for this mood"
	}

	ms.respondJSON(w, response)
}

// handleRecentEmotions returns the latest classification outcomes.
func (ms *MoodServer) handleRecentEmotions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	ms.respondJSON(w, map[string]interface{}{
		"events": ms.recorder.Recent(limit),
	})
}
