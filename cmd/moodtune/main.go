package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moodtune/internal/classifier"
	"moodtune/internal/config"
	"moodtune/internal/database"
	"moodtune/internal/server"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := "./config.toml"

	// Initialize basic logger for startup
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Load .env if present (ngrok token and other secrets)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			logger.WithError(err).Warn("Could not load .env file")
		}
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Error loading configuration")
	}

	// Check if music directory exists
	if _, err := os.Stat(cfg.Music.LibraryPath); os.IsNotExist(err) {
		logger.WithField("library_path", cfg.Music.LibraryPath).Fatal("Music directory does not exist. Please create it and add your music files.")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("Error initializing database")
	}
	defer db.Close()

	// Load the emotion classifier. A missing model or cascade is not
	// fatal: predictions degrade to neutral.
	adapter := buildClassifier(cfg, logger)

	// Create and configure the server
	moodServer, err := server.NewMoodServer(cfg, db, adapter)
	if err != nil {
		logger.WithError(err).Fatal("Error creating server")
	}

	// Scan the music library
	if err := moodServer.ScanMusicLibrary(); err != nil {
		logger.WithError(err).Fatal("Error scanning music library")
	}

	// Check song count and warn if empty
	if cfg.Music.ScanOnStartup {
		songs, err := db.GetAllSongs()
		if err != nil {
			logger.WithError(err).Warn("Could not get song count")
		} else if len(songs) == 0 {
			logger.WithField("supported_formats", cfg.Music.SupportedFormats).Warn("No supported audio files found in music directory")
		}
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		if err := moodServer.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for shutdown signal
	<-c

	logger.Info("Received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := moodServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}

// buildClassifier wires the prototype model and face detector into the
// classification adapter, degrading gracefully when either is missing.
func buildClassifier(cfg *config.Config, logger *logrus.Logger) *classifier.Adapter {
	timeout := time.Duration(cfg.Classifier.TimeoutSeconds) * time.Second

	var model classifier.Model
	if loaded, err := classifier.NewPrototypeModelFromFile(cfg.Classifier.ModelPath); err != nil {
		logger.WithError(err).WithField("model_path", cfg.Classifier.ModelPath).
			Warn("Emotion model not available, predictions will be neutral")
	} else {
		model = loaded
	}

	var detector classifier.Detector
	if faceDetector, err := classifier.NewFaceDetector(cfg.Classifier.CascadePath); err != nil {
		logger.WithError(err).WithField("cascade_path", cfg.Classifier.CascadePath).
			Warn("Face cascade not available, classifying whole images")
	} else {
		detector = faceDetector
	}

	return classifier.NewAdapter(model, detector, timeout, logger)
}
