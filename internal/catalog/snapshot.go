package catalog

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"moodtune/internal/emotion"
	"moodtune/pkg/models"

	"github.com/sirupsen/logrus"
)

// SongStore is the catalog's view of the persistent song store.
type SongStore interface {
	GetSongsByMoods(moods []string) ([]models.Song, error)
}

// Snapshot holds an in-memory, point-in-time copy of the song catalog,
// restricted to songs whose mood the recommender supports. The whole song
// slice is swapped under a write lock on refresh, so concurrent readers
// never observe a partially-updated catalog. Staleness between refreshes
// is tolerated.
type Snapshot struct {
	store  SongStore
	logger *logrus.Logger

	mu    sync.RWMutex
	songs []models.Song

	onRefresh func()

	stopOnce sync.Once
	stop     chan struct{}
}

// NewSnapshot creates an empty snapshot over the given store. Call Refresh
// to perform the initial load.
func NewSnapshot(store SongStore, logger *logrus.Logger) *Snapshot {
	return &Snapshot{
		store:  store,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

// Refresh re-queries the song store and atomically swaps in the new catalog.
// On store failure the previous snapshot is kept and the error is returned
// so the caller can retry later.
func (s *Snapshot) Refresh() error {
	moods := make([]string, len(emotion.SupportedMoods))
	for i, m := range emotion.SupportedMoods {
		moods[i] = string(m)
	}

	songs, err := s.store.GetSongsByMoods(moods)
	if err != nil {
		return fmt.Errorf("failed to load song catalog: %w", err)
	}

	// The store already filters by mood; drop anything that slipped
	// through so the snapshot invariant holds regardless of the backend.
	filtered := songs[:0]
	for _, song := range songs {
		if emotion.IsSupported(song.Mood) {
			filtered = append(filtered, song)
		}
	}

	s.mu.Lock()
	s.songs = filtered
	s.mu.Unlock()

	s.logger.WithField("songs", len(filtered)).Debug("Catalog snapshot refreshed")

	if s.onRefresh != nil {
		s.onRefresh()
	}
	return nil
}

// OnRefresh registers a callback invoked after every successful refresh,
// including periodic ones. Set it before StartAutoRefresh; it must not
// call back into the snapshot.
func (s *Snapshot) OnRefresh(fn func()) {
	s.onRefresh = fn
}

// Songs returns the current snapshot. The returned slice is shared and
// read-only; it must not be modified.
func (s *Snapshot) Songs() []models.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.songs
}

// ByMood returns the snapshot entries matching the given mood
// (case-insensitive).
func (s *Snapshot) ByMood(mood string) []models.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Song
	for _, song := range s.songs {
		if strings.EqualFold(song.Mood, mood) {
			matched = append(matched, song)
		}
	}
	return matched
}

// Len returns the number of songs in the current snapshot.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.songs)
}

// StartAutoRefresh refreshes the snapshot on the given interval until Close
// is called. A zero or negative interval disables periodic refresh.
func (s *Snapshot) StartAutoRefresh(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.Refresh(); err != nil {
					s.logger.WithError(err).Warn("Periodic catalog refresh failed, keeping previous snapshot")
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Close stops the periodic refresh goroutine if one is running.
func (s *Snapshot) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}
