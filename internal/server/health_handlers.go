package server

import (
	"net/http"
	"os"
	"time"
)

// HealthStatus represents operational status for the /health endpoint.
type HealthStatus struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Database   string                 `json:"database"`
	Library    string                 `json:"library"`
	Classifier string                 `json:"classifier"`
	Songs      int                    `json:"songCount"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// handleHealthCheck returns basic liveness + dependency checks.
func (ms *MoodServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := &HealthStatus{
		Status:     "healthy",
		Timestamp:  time.Now(),
		Database:   "ok",
		Library:    "ok",
		Classifier: "ok",
		Details:    make(map[string]interface{}),
	}

	if _, err := ms.db.GetAllSongs(); err != nil {
		health.Status = "unhealthy"
		health.Database = "error"
		health.Details["database_error"] = err.Error()
	}

	if _, err := os.Stat(ms.config.Music.LibraryPath); err != nil {
		health.Status = "unhealthy"
		health.Library = "error"
		health.Details["library_error"] = err.Error()
	}

	// A missing model degrades predictions to neutral but does not make
	// the service unhealthy.
	if !ms.classifier.Available() {
		health.Classifier = "unavailable"
	}

	health.Songs = ms.catalog.Len()

	if health.Status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	ms.respondJSON(w, health)
}
