package catalog

import (
	"errors"
	"testing"

	"moodtune/pkg/models"

	"github.com/sirupsen/logrus"
)

type stubStore struct {
	songs []models.Song
	err   error
	calls int
}

func (s *stubStore) GetSongsByMoods(moods []string) ([]models.Song, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.songs, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return logger
}

func TestRefreshFiltersUnsupportedMoods(t *testing.T) {
	store := &stubStore{songs: []models.Song{
		{Title: "A", Mood: "happy"},
		{Title: "B", Mood: "angry"}, // not a supported mood
		{Title: "C", Mood: "Sad"},
	}}

	snap := NewSnapshot(store, testLogger())
	if err := snap.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	songs := snap.Songs()
	if len(songs) != 2 {
		t.Fatalf("Expected 2 songs after filtering, got %d", len(songs))
	}
	for _, song := range songs {
		if song.Title == "B" {
			t.Error("Song with unsupported mood survived the refresh filter")
		}
	}
}

func TestRefreshKeepsPreviousSnapshotOnError(t *testing.T) {
	store := &stubStore{songs: []models.Song{{Title: "A", Mood: "neutral"}}}
	snap := NewSnapshot(store, testLogger())

	if err := snap.Refresh(); err != nil {
		t.Fatalf("Initial refresh failed: %v", err)
	}

	store.err = errors.New("store unreachable")
	if err := snap.Refresh(); err == nil {
		t.Error("Expected error when store is unreachable")
	}

	if snap.Len() != 1 {
		t.Errorf("Expected previous snapshot to survive failed refresh, got %d songs", snap.Len())
	}
}

func TestByMoodIsCaseInsensitive(t *testing.T) {
	store := &stubStore{songs: []models.Song{
		{Title: "A", Mood: "Happy"},
		{Title: "B", Mood: "sad"},
		{Title: "C", Mood: "happy"},
	}}

	snap := NewSnapshot(store, testLogger())
	if err := snap.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	happy := snap.ByMood("HAPPY")
	if len(happy) != 2 {
		t.Errorf("Expected 2 happy songs, got %d", len(happy))
	}

	if got := snap.ByMood("angry"); len(got) != 0 {
		t.Errorf("Expected no songs for unsupported mood, got %d", len(got))
	}
}

func TestEmptyStore(t *testing.T) {
	snap := NewSnapshot(&stubStore{}, testLogger())
	if err := snap.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if snap.Len() != 0 {
		t.Errorf("Expected empty snapshot, got %d songs", snap.Len())
	}
}

func TestOnRefreshFiresOnSuccessOnly(t *testing.T) {
	store := &stubStore{songs: []models.Song{{Title: "A", Mood: "happy"}}}
	snap := NewSnapshot(store, testLogger())

	fired := 0
	snap.OnRefresh(func() { fired++ })

	if err := snap.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if fired != 1 {
		t.Fatalf("Expected callback after successful refresh, fired %d times", fired)
	}

	store.err = errors.New("store down")
	if err := snap.Refresh(); err == nil {
		t.Fatal("Expected refresh error")
	}
	if fired != 1 {
		t.Errorf("Callback must not fire on a failed refresh, fired %d times", fired)
	}
}
