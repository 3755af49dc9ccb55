package history

import (
	"errors"
	"testing"

	"moodtune/pkg/models"
)

type stubStore struct {
	events    []models.EmotionEvent
	insertErr error
	queryErr  error
}

func (s *stubStore) InsertEmotionEvent(event models.EmotionEvent) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.events = append(s.events, event)
	return nil
}

func (s *stubStore) GetRecentEmotionEvents(limit int) ([]models.EmotionEvent, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if limit < len(s.events) {
		return s.events[:limit], nil
	}
	return s.events, nil
}

func TestRecordAssignsIDAndTimestamp(t *testing.T) {
	store := &stubStore{}
	recorder := NewRecorder(store, nil)

	recorder.Record("happy", 0.87)

	if len(store.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(store.events))
	}
	event := store.events[0]
	if event.ID == "" {
		t.Error("event ID not assigned")
	}
	if event.Timestamp.IsZero() {
		t.Error("event timestamp not assigned")
	}
	if event.Emotion != "happy" || event.Confidence != 0.87 {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestRecordSwallowsStoreErrors(t *testing.T) {
	store := &stubStore{insertErr: errors.New("disk full")}
	recorder := NewRecorder(store, nil)

	// Must not panic or propagate the error.
	recorder.Record("sad", 0.42)
}

func TestRecentReturnsEmptyOnError(t *testing.T) {
	store := &stubStore{queryErr: errors.New("closed")}
	recorder := NewRecorder(store, nil)

	events := recorder.Recent(10)
	if events == nil {
		t.Fatal("expected non-nil slice")
	}
	if len(events) != 0 {
		t.Errorf("expected empty slice, got %d events", len(events))
	}
}

func TestRecorderWithoutStore(t *testing.T) {
	recorder := NewRecorder(nil, nil)
	recorder.Record("neutral", 0.0)
	if events := recorder.Recent(5); len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}
