package database

import (
	"database/sql"
	"errors"

	"moodtune/pkg/models"
)

// MaxPlaylistsPerUser caps how many playlists one account may hold.
const MaxPlaylistsPerUser = 4

var (
	// ErrPlaylistLimit is returned when a user already holds the maximum
	// number of playlists.
	ErrPlaylistLimit = errors.New("playlist limit reached")
	// ErrPlaylistNotFound is returned when a playlist does not exist or
	// is not owned by the requesting user.
	ErrPlaylistNotFound = errors.New("playlist not found")
	// ErrPlaylistTitleTaken is returned when the user already has a
	// playlist with the same title.
	ErrPlaylistTitleTaken = errors.New("playlist title already exists")
)

// CountPlaylists returns how many playlists the user currently owns.
func (db *Database) CountPlaylists(userID string) (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM playlists WHERE user_id = ?", userID).Scan(&count)
	return count, err
}

// CreatePlaylist creates a new empty playlist for the user. It enforces
// the per-user playlist cap and rejects duplicate titles.
func (db *Database) CreatePlaylist(userID, title string) (*models.Playlist, error) {
	count, err := db.CountPlaylists(userID)
	if err != nil {
		return nil, err
	}
	if count >= MaxPlaylistsPerUser {
		return nil, ErrPlaylistLimit
	}

	var existing int
	err = db.conn.QueryRow(
		"SELECT id FROM playlists WHERE user_id = ? AND LOWER(title) = LOWER(?)",
		userID, title).Scan(&existing)
	if err == nil {
		return nil, ErrPlaylistTitleTaken
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	result, err := db.conn.Exec(
		"INSERT INTO playlists (user_id, title) VALUES (?, ?)", userID, title)
	if err != nil {
		db.logger.WithError(err).WithField("user_id", userID).Error("Failed to create playlist")
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.getPlaylist(userID, int(id))
}

// GetPlaylists returns all playlists owned by the user with their song counts.
func (db *Database) GetPlaylists(userID string) ([]models.Playlist, error) {
	rows, err := db.conn.Query(`
		SELECT p.id, p.user_id, p.title, p.created_at,
		       (SELECT COUNT(*) FROM playlist_songs ps WHERE ps.playlist_id = p.id)
		FROM playlists p
		WHERE p.user_id = ?
		ORDER BY p.id`, userID)
	if err != nil {
		db.logger.WithError(err).Error("Failed to query playlists")
		return nil, err
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.CreatedAt, &p.SongCount); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

func (db *Database) getPlaylist(userID string, playlistID int) (*models.Playlist, error) {
	var p models.Playlist
	err := db.conn.QueryRow(`
		SELECT p.id, p.user_id, p.title, p.created_at,
		       (SELECT COUNT(*) FROM playlist_songs ps WHERE ps.playlist_id = p.id)
		FROM playlists p
		WHERE p.id = ? AND p.user_id = ?`, playlistID, userID).
		Scan(&p.ID, &p.UserID, &p.Title, &p.CreatedAt, &p.SongCount)
	if err == sql.ErrNoRows {
		return nil, ErrPlaylistNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPlaylistSongs returns the songs of a playlist in position order.
// Ownership is checked so users cannot read each other's playlists.
func (db *Database) GetPlaylistSongs(userID string, playlistID int) ([]models.PlaylistSong, error) {
	if _, err := db.getPlaylist(userID, playlistID); err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(`
		SELECT playlist_id, position, title, artist, file_path, cover
		FROM playlist_songs
		WHERE playlist_id = ?
		ORDER BY position`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	songs := []models.PlaylistSong{}
	for rows.Next() {
		var s models.PlaylistSong
		var filePath, cover sql.NullString
		if err := rows.Scan(&s.PlaylistID, &s.Position, &s.Title, &s.Artist, &filePath, &cover); err != nil {
			return nil, err
		}
		s.FilePath = filePath.String
		s.Cover = cover.String
		songs = append(songs, s)
	}
	return songs, rows.Err()
}

// AddSongToPlaylist appends a song to the end of the playlist.
func (db *Database) AddSongToPlaylist(userID string, playlistID int, song models.PlaylistSong) error {
	if _, err := db.getPlaylist(userID, playlistID); err != nil {
		return err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRow(
		"SELECT COALESCE(MAX(position), -1) + 1 FROM playlist_songs WHERE playlist_id = ?",
		playlistID).Scan(&next)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO playlist_songs (playlist_id, position, title, artist, file_path, cover)
		VALUES (?, ?, ?, ?, ?, ?)`,
		playlistID, next, song.Title, song.Artist, song.FilePath, song.Cover)
	if err != nil {
		db.logger.WithError(err).WithField("playlist_id", playlistID).Error("Failed to add playlist song")
		return err
	}

	return tx.Commit()
}

// RemovePlaylistSong deletes the song at the given position and closes the
// gap so positions stay contiguous.
func (db *Database) RemovePlaylistSong(userID string, playlistID, position int) error {
	if _, err := db.getPlaylist(userID, playlistID); err != nil {
		return err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		"DELETE FROM playlist_songs WHERE playlist_id = ? AND position = ?",
		playlistID, position)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPlaylistNotFound
	}

	_, err = tx.Exec(`
		UPDATE playlist_songs SET position = position - 1
		WHERE playlist_id = ? AND position > ?`, playlistID, position)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// RenamePlaylist changes a playlist's title, rejecting duplicates within
// the same account.
func (db *Database) RenamePlaylist(userID string, playlistID int, title string) error {
	var existing int
	err := db.conn.QueryRow(
		"SELECT id FROM playlists WHERE user_id = ? AND LOWER(title) = LOWER(?) AND id != ?",
		userID, title, playlistID).Scan(&existing)
	if err == nil {
		return ErrPlaylistTitleTaken
	}
	if err != sql.ErrNoRows {
		return err
	}

	result, err := db.conn.Exec(
		"UPDATE playlists SET title = ? WHERE id = ? AND user_id = ?",
		title, playlistID, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPlaylistNotFound
	}
	return nil
}

// DeletePlaylist removes a playlist and its songs.
func (db *Database) DeletePlaylist(userID string, playlistID int) error {
	result, err := db.conn.Exec(
		"DELETE FROM playlists WHERE id = ? AND user_id = ?", playlistID, userID)
	if err != nil {
		db.logger.WithError(err).WithField("playlist_id", playlistID).Error("Failed to delete playlist")
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPlaylistNotFound
	}

	// Cascade handles playlist_songs, but older databases may have been
	// created before foreign_keys was enabled.
	if _, err := db.conn.Exec("DELETE FROM playlist_songs WHERE playlist_id = ?", playlistID); err != nil {
		db.logger.WithError(err).Warn("Failed to clear playlist songs")
	}
	return nil
}
