package database

import (
	"database/sql"
	"time"

	"moodtune/pkg/models"
)

// historyLimit caps how many recently-played entries are kept per user.
const historyLimit = 10

// AddHistorySong records a play for the user. A song already present in
// the history (matched by title and file path) is moved to the top rather
// than duplicated, and the history is trimmed to the newest entries.
func (db *Database) AddHistorySong(userID string, song models.HistorySong) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		DELETE FROM history_songs
		WHERE user_id = ? AND LOWER(title) = LOWER(?) AND IFNULL(file_path, '') = ?`,
		userID, song.Title, song.FilePath)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO history_songs (user_id, title, artist, file_path, cover, listened_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, song.Title, song.Artist, song.FilePath, song.Cover, time.Now().UTC())
	if err != nil {
		db.logger.WithError(err).WithField("user_id", userID).Error("Failed to add history song")
		return err
	}

	_, err = tx.Exec(`
		DELETE FROM history_songs
		WHERE user_id = ? AND rowid NOT IN (
			SELECT rowid FROM history_songs
			WHERE user_id = ?
			ORDER BY listened_at DESC, rowid DESC
			LIMIT ?
		)`, userID, userID, historyLimit)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetHistorySongs returns the user's recently-played songs, newest first.
func (db *Database) GetHistorySongs(userID string) ([]models.HistorySong, error) {
	rows, err := db.conn.Query(`
		SELECT title, artist, file_path, cover, listened_at
		FROM history_songs
		WHERE user_id = ?
		ORDER BY listened_at DESC, rowid DESC
		LIMIT ?`, userID, historyLimit)
	if err != nil {
		db.logger.WithError(err).Error("Failed to query history songs")
		return nil, err
	}
	defer rows.Close()

	songs := []models.HistorySong{}
	for rows.Next() {
		var s models.HistorySong
		var artist, filePath, cover sql.NullString
		if err := rows.Scan(&s.Title, &artist, &filePath, &cover, &s.ListenedAt); err != nil {
			return nil, err
		}
		s.Artist = artist.String
		s.FilePath = filePath.String
		s.Cover = cover.String
		songs = append(songs, s)
	}
	return songs, rows.Err()
}

// AddLoginEvent records a successful login.
func (db *Database) AddLoginEvent(userID, username, device string) error {
	_, err := db.conn.Exec(`
		INSERT INTO login_history (user_id, username, device)
		VALUES (?, ?, ?)`, userID, username, device)
	if err != nil {
		db.logger.WithError(err).WithField("username", username).Error("Failed to record login")
	}
	return err
}

// GetLoginEvents returns recent logins for the user, newest first.
func (db *Database) GetLoginEvents(userID string, limit int) ([]models.LoginEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT username, device, created_at
		FROM login_history
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.LoginEvent{}
	for rows.Next() {
		var e models.LoginEvent
		var device sql.NullString
		if err := rows.Scan(&e.Username, &device, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Device = device.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// InsertEmotionEvent stores the outcome of one classification request.
func (db *Database) InsertEmotionEvent(event models.EmotionEvent) error {
	_, err := db.conn.Exec(`
		INSERT INTO emotion_events (id, emotion, confidence, created_at)
		VALUES (?, ?, ?, ?)`,
		event.ID, event.Emotion, event.Confidence, event.Timestamp)
	if err != nil {
		db.logger.WithError(err).Error("Failed to insert emotion event")
	}
	return err
}

// GetRecentEmotionEvents returns the latest classification outcomes.
func (db *Database) GetRecentEmotionEvents(limit int) ([]models.EmotionEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, emotion, confidence, created_at
		FROM emotion_events
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.EmotionEvent{}
	for rows.Next() {
		var e models.EmotionEvent
		if err := rows.Scan(&e.ID, &e.Emotion, &e.Confidence, &e.Timestamp); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
