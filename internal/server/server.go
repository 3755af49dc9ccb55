package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"moodtune/internal/auth"
	"moodtune/internal/cache"
	"moodtune/internal/catalog"
	"moodtune/internal/classifier"
	"moodtune/internal/config"
	"moodtune/internal/database"
	"moodtune/internal/history"
	"moodtune/internal/metadata"
	"moodtune/internal/ngrok"
	"moodtune/internal/recommend"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// MoodServer is the main HTTP server tying the classifier, catalog,
// recommender and persistence together.
type MoodServer struct {
	config       *config.Config
	db           *database.Database
	logger       *logrus.Logger
	extractor    *metadata.Extractor
	classifier   *classifier.Adapter
	catalog      *catalog.Snapshot
	engine       *recommend.Engine
	playlists    *cache.PlaylistCache
	recorder     *history.Recorder
	authService  *auth.Service
	ngrokService *ngrok.Service
	watcher      *fsnotify.Watcher
	mux          *http.ServeMux
	httpServer   *http.Server
}

// NewMoodServer creates a server instance. The classifier adapter may be
// backed by a nil model, in which case predictions degrade to neutral.
func NewMoodServer(cfg *config.Config, db *database.Database, adapter *classifier.Adapter) (*MoodServer, error) {
	logger := buildLogger(&cfg.Logging)

	sessionDuration, err := time.ParseDuration(cfg.Auth.SessionDuration)
	if err != nil {
		return nil, fmt.Errorf("invalid session duration: %w", err)
	}

	ngrokSvc, err := ngrok.NewService(&cfg.Ngrok)
	if err != nil {
		logger.WithError(err).Warn("Ngrok service not available")
		ngrokSvc = nil
	}

	snapshot := catalog.NewSnapshot(db, logger)
	engine := recommend.NewEngine(snapshot, logger)

	server := &MoodServer{
		config:       cfg,
		db:           db,
		logger:       logger,
		extractor:    metadata.NewExtractor(cfg.Music.SupportedFormats),
		classifier:   adapter,
		catalog:      snapshot,
		engine:       engine,
		playlists:    cache.NewPlaylistCache(),
		recorder:     history.NewRecorder(db, logger),
		authService:  auth.NewService(db, sessionDuration, cfg.Auth.SecureCookies),
		ngrokService: ngrokSvc,
		mux:          http.NewServeMux(),
	}

	// Memoized playlists must not outlive the catalog they were ranked
	// from, so every successful refresh drops them.
	snapshot.OnRefresh(server.playlists.Clear)

	return server, nil
}

// buildLogger creates the logrus logger per the logging configuration.
func buildLogger(cfg *config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logger.WithError(err).Warn("Failed to open log file, logging to stderr")
		} else {
			logger.SetOutput(file)
		}
	}

	return logger
}

// ScanMusicLibrary walks the library directory and upserts every audio file
// into the catalog, then refreshes the in-memory snapshot.
func (ms *MoodServer) ScanMusicLibrary() error {
	if !ms.config.Music.ScanOnStartup {
		ms.logger.Info("Skipping library scan (disabled in config)")
		return nil
	}

	ms.logger.WithField("library_path", ms.config.Music.LibraryPath).Info("Scanning music library")

	var wg sync.WaitGroup
	var songCount int64
	jobs := make(chan string, 100)

	numWorkers := runtime.NumCPU()
	for i := 0; i < numWorkers; i++ {
		go func() {
			for path := range jobs {
				song, err := ms.extractor.ExtractFromFile(path)
				if err != nil {
					ms.logger.WithError(err).WithField("file_path", path).Error("Failed to extract metadata")
					wg.Done()
					continue
				}
				if _, err := ms.db.InsertSong(song); err != nil {
					ms.logger.WithError(err).WithField("file_path", path).Error("Failed to insert song")
				} else {
					atomic.AddInt64(&songCount, 1)
				}
				wg.Done()
			}
		}()
	}

	walkErr := filepath.Walk(ms.config.Music.LibraryPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ms.extractor.IsAudioFile(path) {
			wg.Add(1)
			jobs <- path
		}
		return nil
	})

	close(jobs)
	wg.Wait()

	ms.logger.WithField("count", atomic.LoadInt64(&songCount)).Info("Library scan complete")

	if err := ms.catalog.Refresh(); err != nil {
		ms.logger.WithError(err).Error("Failed to refresh catalog snapshot")
	}

	return walkErr
}

// Start runs the HTTP server. It blocks until the listener fails or the
// server is shut down.
func (ms *MoodServer) Start() error {
	if ms.config.Music.WatchForChanges {
		if err := ms.startFileWatcher(); err != nil {
			ms.logger.WithError(err).Warn("Could not start file watcher")
		}
	}

	if interval := ms.config.Recommender.RefreshIntervalMinutes; interval > 0 {
		ms.catalog.StartAutoRefresh(time.Duration(interval) * time.Minute)
	}

	ms.setupRoutes()

	localAddress := fmt.Sprintf("http://%s", ms.config.GetAddress())
	ms.logger.WithFields(logrus.Fields{
		"address": localAddress,
		"songs":   ms.catalog.Len(),
	}).Info("MoodTune server starting")

	if ms.ngrokService != nil {
		if err := ms.ngrokService.StartTunnel(context.Background(), localAddress); err != nil {
			ms.logger.WithError(err).Warn("Could not start ngrok tunnel")
		}
	}

	ms.httpServer = &http.Server{
		Addr:        ms.config.GetAddress(),
		Handler:     ms.buildHandler(),
		ReadTimeout: time.Duration(ms.config.Server.ReadTimeout) * time.Second,
	}

	err := ms.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// buildHandler wraps the mux in the middleware chain.
func (ms *MoodServer) buildHandler() http.Handler {
	var handler http.Handler = ms.mux
	handler = ms.authMiddleware(handler)
	handler = ms.corsMiddleware(handler)
	handler = ms.requestLoggingMiddleware(handler)
	handler = ms.panicRecoveryMiddleware(handler)
	return handler
}

func (ms *MoodServer) setupRoutes() {
	ms.mux.HandleFunc("/health", ms.handleHealthCheck)

	// Prediction and recommendation
	ms.mux.HandleFunc("/api/predict", ms.handlePredict)
	ms.mux.HandleFunc("/api/recommend", ms.handleRecommend)
	ms.mux.HandleFunc("/api/emotions/recent", ms.handleRecentEmotions)

	// Catalog browsing
	ms.mux.HandleFunc("/api/songs", ms.handleGetSongs)
	ms.mux.HandleFunc("/api/songs/count", ms.handleGetSongCount)
	ms.mux.HandleFunc("/api/songs/genre", ms.handleGetSongsByGenre)
	ms.mux.HandleFunc("/api/songs/artist", ms.handleGetSongsByArtist)
	ms.mux.HandleFunc("/stream/", ms.handleStreamSong)
	ms.mux.HandleFunc("/cover/", ms.handleCover)

	// Accounts and sessions
	ms.mux.HandleFunc("/api/auth/register", ms.handleAuthRegister)
	ms.mux.HandleFunc("/api/auth/login", ms.handleAuthLogin)
	ms.mux.HandleFunc("/api/auth/logout", ms.handleAuthLogout)
	ms.mux.HandleFunc("/api/users/me", ms.handleProfile)
	ms.mux.HandleFunc("/api/users/me/logins", ms.handleLoginHistory)

	// Playlists
	ms.mux.HandleFunc("/api/playlists", ms.handlePlaylists)
	ms.mux.HandleFunc("/api/playlists/", func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(r.URL.Path, "/")
		if len(pathParts) >= 5 && pathParts[4] == "songs" {
			switch r.Method {
			case http.MethodGet:
				ms.handleGetPlaylistSongs(w, r)
			case http.MethodPost:
				ms.handleAddPlaylistSong(w, r)
			case http.MethodDelete:
				ms.handleRemovePlaylistSong(w, r)
			default:
				ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
			}
			return
		}
		switch r.Method {
		case http.MethodPut:
			ms.handleRenamePlaylist(w, r)
		case http.MethodDelete:
			ms.handleDeletePlaylist(w, r)
		default:
			ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		}
	})

	// Listening history
	ms.mux.HandleFunc("/api/history", ms.handleHistory)
}

// Shutdown gracefully stops the server and its background workers.
func (ms *MoodServer) Shutdown(ctx context.Context) error {
	ms.logger.Info("Shutting down server")

	ms.stopFileWatcher()
	ms.catalog.Close()

	if ms.ngrokService != nil {
		ms.ngrokService.Stop()
	}

	if ms.httpServer != nil {
		return ms.httpServer.Shutdown(ctx)
	}
	return nil
}
