package server

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// startFileWatcher initializes fsnotify for recursive library monitoring.
func (ms *MoodServer) startFileWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	ms.watcher = watcher

	go ms.watchFiles()

	if err := ms.addDirectoryToWatcher(ms.config.Music.LibraryPath); err != nil {
		return err
	}

	ms.logger.WithField("library_path", ms.config.Music.LibraryPath).Info("File watcher started")
	return nil
}

// addDirectoryToWatcher recursively walks and adds subdirectories to watcher.
func (ms *MoodServer) addDirectoryToWatcher(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return ms.watcher.Add(path)
		}
		return nil
	})
}

// watchFiles selects on watcher channels and dispatches events.
func (ms *MoodServer) watchFiles() {
	defer ms.watcher.Close()

	for {
		select {
		case event, ok := <-ms.watcher.Events:
			if !ok {
				return
			}
			ms.handleFileEvent(event)

		case err, ok := <-ms.watcher.Errors:
			if !ok {
				return
			}
			ms.logger.WithError(err).Error("File watcher error")
		}
	}
}

// handleFileEvent applies filtering & delegates creation/removal actions.
func (ms *MoodServer) handleFileEvent(event fsnotify.Event) {
	// Ignore temporary files and hidden files
	fileName := filepath.Base(event.Name)
	if strings.HasPrefix(fileName, ".") || strings.HasSuffix(fileName, ".tmp") {
		return
	}

	isAudioFile := ms.extractor.IsAudioFile(event.Name)

	switch {
	case event.Has(fsnotify.Create) && isAudioFile:
		go func(name string) {
			time.Sleep(500 * time.Millisecond) // Ensure file is fully written
			ms.handleNewFile(name)
		}(event.Name)

	case event.Has(fsnotify.Remove) && isAudioFile:
		go ms.handleRemovedFile(event.Name)

	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			ms.watcher.Add(event.Name)
			ms.logger.WithField("directory", event.Name).Info("Watching new directory")
		}
	}
}

// handleNewFile extracts metadata & inserts the song if unseen, then keeps
// the recommendation snapshot current.
func (ms *MoodServer) handleNewFile(filePath string) {
	ms.logger.WithField("file_path", filePath).Info("New audio file detected")

	exists, err := ms.db.SongExists(filePath)
	if err != nil {
		ms.logger.WithError(err).WithField("file_path", filePath).Error("Error checking if song exists")
		return
	}
	if exists {
		ms.logger.WithField("file_path", filePath).Debug("Song already exists in database")
		return
	}

	song, err := ms.extractor.ExtractFromFile(filePath)
	if err != nil {
		ms.logger.WithError(err).WithField("file_path", filePath).Error("Error extracting metadata")
		return
	}

	id, err := ms.db.InsertSong(song)
	if err != nil {
		ms.logger.WithError(err).Error("Error inserting new song into database")
		return
	}

	ms.logger.WithFields(logrus.Fields{
		"artist": song.Artist,
		"title":  song.Title,
		"mood":   song.Mood,
		"id":     id,
	}).Info("Added new song")

	if err := ms.catalog.Refresh(); err != nil {
		ms.logger.WithError(err).Error("Failed to refresh catalog snapshot")
	}
}

// handleRemovedFile removes song rows referencing deleted audio files.
func (ms *MoodServer) handleRemovedFile(filePath string) {
	ms.logger.WithField("file_path", filePath).Info("Audio file removed")

	if err := ms.db.RemoveSongByPath(filePath); err != nil {
		ms.logger.WithError(err).WithField("file_path", filePath).Error("Error removing song from database")
		return
	}

	if err := ms.catalog.Refresh(); err != nil {
		ms.logger.WithError(err).Error("Failed to refresh catalog snapshot")
	}

	ms.logger.WithField("file_path", filePath).Info("Removed song from database")
}

// stopFileWatcher closes the watcher (idempotent).
func (ms *MoodServer) stopFileWatcher() {
	if ms.watcher != nil {
		ms.watcher.Close()
	}
}
