package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"moodtune/pkg/models"
)

// EventStore persists classification outcomes.
type EventStore interface {
	InsertEmotionEvent(event models.EmotionEvent) error
	GetRecentEmotionEvents(limit int) ([]models.EmotionEvent, error)
}

// Recorder writes emotion events to the store. Failures are logged but
// never propagated so a broken audit trail cannot fail a prediction.
type Recorder struct {
	store  EventStore
	logger *logrus.Logger
}

// NewRecorder creates a Recorder backed by the given store.
func NewRecorder(store EventStore, logger *logrus.Logger) *Recorder {
	if logger == nil {
		logger = logrus.New()
	}
	return &Recorder{store: store, logger: logger}
}

// Record stores one classification outcome with a fresh ID and timestamp.
func (r *Recorder) Record(emotion string, confidence float64) {
	if r.store == nil {
		return
	}

	event := models.EmotionEvent{
		ID:         uuid.New().String(),
		Emotion:    emotion,
		Confidence: confidence,
		Timestamp:  time.Now().UTC(),
	}

	if err := r.store.InsertEmotionEvent(event); err != nil {
		r.logger.WithError(err).WithField("emotion", emotion).Warn("Failed to record emotion event")
	}
}

// Recent returns the latest recorded events, newest first.
func (r *Recorder) Recent(limit int) []models.EmotionEvent {
	if r.store == nil {
		return []models.EmotionEvent{}
	}

	events, err := r.store.GetRecentEmotionEvents(limit)
	if err != nil {
		r.logger.WithError(err).Warn("Failed to load emotion events")
		return []models.EmotionEvent{}
	}
	return events
}
