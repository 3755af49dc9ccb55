package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Database wraps a *sql.DB providing higher-level helper methods for the
// application's persistent store. It is safe for concurrent use because the
// underlying *sql.DB is concurrency-safe.
type Database struct {
	conn   *sql.DB
	logger *logrus.Logger

	// Prepared statements for the hot song-catalog paths
	insertSongStmt  *sql.Stmt
	updateSongStmt  *sql.Stmt
	songByPathStmt  *sql.Stmt
	searchSongsStmt *sql.Stmt
}

// NewDatabase opens (or creates) a SQLite database at the provided path and
// ensures all required tables and indices exist. It also applies lightweight
// performance-oriented pragmas (WAL, cache sizing). Caller should Close() it
// when finished.
func NewDatabase(dbPath string) (*Database, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	conn, err := sql.Open("sqlite3", dbPath+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works better with fewer connections
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=2000;",
		"PRAGMA temp_store=memory;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA auto_vacuum=INCREMENTAL;",
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	db := &Database{
		conn:   conn,
		logger: logger,
	}

	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := db.prepareStatements(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.WithField("db_path", dbPath).Info("Database initialized successfully")
	return db, nil
}

// createTables creates tables and indices if they do not already exist.
// This is idempotent and safe to call multiple times.
func (db *Database) createTables() error {
	songsTable := `
	CREATE TABLE IF NOT EXISTS songs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		genre TEXT NOT NULL DEFAULT '',
		mood TEXT NOT NULL,
		bpm REAL DEFAULT 0,
		file_path TEXT NOT NULL UNIQUE,
		cover TEXT,
		duration INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	usersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT UNIQUE,
		phone TEXT,
		password TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	playlistsTable := `
	CREATE TABLE IF NOT EXISTS playlists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);`

	playlistSongsTable := `
	CREATE TABLE IF NOT EXISTS playlist_songs (
		playlist_id INTEGER,
		position INTEGER,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		file_path TEXT,
		cover TEXT,
		FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
		PRIMARY KEY (playlist_id, position)
	);`

	historySongsTable := `
	CREATE TABLE IF NOT EXISTS history_songs (
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		artist TEXT,
		file_path TEXT,
		cover TEXT,
		listened_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	loginHistoryTable := `
	CREATE TABLE IF NOT EXISTS login_history (
		user_id TEXT NOT NULL,
		username TEXT NOT NULL,
		device TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	emotionEventsTable := `
	CREATE TABLE IF NOT EXISTS emotion_events (
		id TEXT PRIMARY KEY,
		emotion TEXT NOT NULL,
		confidence REAL NOT NULL,
		created_at DATETIME NOT NULL
	);`

	indices := []string{
		"CREATE INDEX IF NOT EXISTS idx_songs_mood ON songs(mood);",
		"CREATE INDEX IF NOT EXISTS idx_songs_artist ON songs(artist);",
		"CREATE INDEX IF NOT EXISTS idx_songs_genre ON songs(genre);",
		"CREATE INDEX IF NOT EXISTS idx_songs_search ON songs(title, artist);",
		"CREATE INDEX IF NOT EXISTS idx_songs_file_path ON songs(file_path);",
		"CREATE INDEX IF NOT EXISTS idx_playlists_user ON playlists(user_id);",
		"CREATE INDEX IF NOT EXISTS idx_playlist_songs_playlist ON playlist_songs(playlist_id, position);",
		"CREATE INDEX IF NOT EXISTS idx_history_songs_user ON history_songs(user_id, listened_at);",
		"CREATE INDEX IF NOT EXISTS idx_login_history_user ON login_history(user_id, created_at);",
		"CREATE INDEX IF NOT EXISTS idx_emotion_events_created ON emotion_events(created_at);",
	}

	tables := []string{songsTable, usersTable, playlistsTable, playlistSongsTable, historySongsTable, loginHistoryTable, emotionEventsTable}
	for _, table := range tables {
		if _, err := db.conn.Exec(table); err != nil {
			return err
		}
	}

	for _, index := range indices {
		if _, err := db.conn.Exec(index); err != nil {
			return err
		}
	}

	return nil
}

// prepareStatements prepares commonly used SQL statements for better performance
func (db *Database) prepareStatements() error {
	var err error

	db.insertSongStmt, err = db.conn.Prepare(`
		INSERT INTO songs (title, artist, genre, mood, bpm, file_path, cover, duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert song statement: %w", err)
	}

	db.updateSongStmt, err = db.conn.Prepare(`
		UPDATE songs SET title = ?, artist = ?, genre = ?, mood = ?, bpm = ?, cover = ?, duration = ?
		WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare update song statement: %w", err)
	}

	db.songByPathStmt, err = db.conn.Prepare(`SELECT id FROM songs WHERE file_path = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare song by path statement: %w", err)
	}

	db.searchSongsStmt, err = db.conn.Prepare(`
		SELECT id, title, artist, genre, mood, bpm, file_path, cover, duration
		FROM songs
		WHERE title LIKE ? OR artist LIKE ?
		ORDER BY artist, title
		LIMIT ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare search songs statement: %w", err)
	}

	return nil
}

// Close closes the underlying database connection and prepared statements.
func (db *Database) Close() error {
	statements := []*sql.Stmt{
		db.insertSongStmt,
		db.updateSongStmt,
		db.songByPathStmt,
		db.searchSongsStmt,
	}

	for _, stmt := range statements {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				db.logger.WithError(err).Error("Failed to close prepared statement")
			}
		}
	}

	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
