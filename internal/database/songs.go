package database

import (
	"database/sql"
	"fmt"
	"strings"

	"moodtune/pkg/models"
)

// InsertSong inserts a new song or updates an existing song (matched by
// file_path) returning the song's database ID.
func (db *Database) InsertSong(song models.Song) (int, error) {
	var existingID int
	err := db.songByPathStmt.QueryRow(song.FilePath).Scan(&existingID)
	if err == nil {
		_, err = db.updateSongStmt.Exec(
			song.Title, song.Artist, song.Genre, song.Mood,
			song.BPM, song.Cover, song.Duration, existingID)
		if err != nil {
			db.logger.WithError(err).WithField("song_id", existingID).Error("Failed to update existing song")
		}
		return existingID, err
	}

	result, err := db.insertSongStmt.Exec(
		song.Title, song.Artist, song.Genre, song.Mood,
		song.BPM, song.FilePath, song.Cover, song.Duration)
	if err != nil {
		db.logger.WithError(err).WithField("file_path", song.FilePath).Error("Failed to insert new song")
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		db.logger.WithError(err).Error("Failed to get last insert ID")
		return 0, err
	}

	return int(id), nil
}

// GetSongsByMoods returns songs whose mood (case-insensitive) is in the
// given set, in insertion order.
func (db *Database) GetSongsByMoods(moods []string) ([]models.Song, error) {
	if len(moods) == 0 {
		return []models.Song{}, nil
	}

	placeholders := make([]string, len(moods))
	args := make([]interface{}, len(moods))
	for i, mood := range moods {
		placeholders[i] = "?"
		args[i] = strings.ToLower(mood)
	}

	query := fmt.Sprintf(`
		SELECT id, title, artist, genre, mood, bpm, file_path, cover, duration
		FROM songs
		WHERE LOWER(mood) IN (%s)
		ORDER BY id`, strings.Join(placeholders, ", "))

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSongRows(rows)
}

// SearchSongs performs a LIKE-based search over title and artist.
func (db *Database) SearchSongs(query string, limit int) ([]models.Song, error) {
	searchQuery := "%" + query + "%"
	rows, err := db.searchSongsStmt.Query(searchQuery, searchQuery, limit)
	if err != nil {
		db.logger.WithError(err).WithField("query", query).Error("Failed to search songs")
		return nil, err
	}
	defer rows.Close()
	return scanSongRows(rows)
}

// GetSongsByArtist returns songs whose artist name contains the given
// fragment (case-insensitive).
func (db *Database) GetSongsByArtist(artist string, limit int) ([]models.Song, error) {
	rows, err := db.conn.Query(`
		SELECT id, title, artist, genre, mood, bpm, file_path, cover, duration
		FROM songs
		WHERE artist LIKE ?
		ORDER BY title
		LIMIT ?`, "%"+artist+"%", limit)
	if err != nil {
		db.logger.WithError(err).WithField("artist", artist).Error("Failed to get songs by artist")
		return nil, err
	}
	defer rows.Close()
	return scanSongRows(rows)
}

// GetSongsByGenres returns songs matching any of the given genres
// (case-insensitive exact match).
func (db *Database) GetSongsByGenres(genres []string, limit int) ([]models.Song, error) {
	if len(genres) == 0 {
		return []models.Song{}, nil
	}

	placeholders := make([]string, len(genres))
	args := make([]interface{}, 0, len(genres)+1)
	for i, genre := range genres {
		placeholders[i] = "?"
		args = append(args, strings.ToLower(strings.TrimSpace(genre)))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT id, title, artist, genre, mood, bpm, file_path, cover, duration
		FROM songs
		WHERE LOWER(genre) IN (%s)
		ORDER BY artist, title
		LIMIT ?`, strings.Join(placeholders, ", "))

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		db.logger.WithError(err).Error("Failed to get songs by genre")
		return nil, err
	}
	defer rows.Close()
	return scanSongRows(rows)
}

// GetAllSongs returns every song ordered by artist/title.
func (db *Database) GetAllSongs() ([]models.Song, error) {
	rows, err := db.conn.Query(`
		SELECT id, title, artist, genre, mood, bpm, file_path, cover, duration
		FROM songs
		ORDER BY artist, title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSongRows(rows)
}

// RemoveSongByPath deletes a song row identified by its file path.
func (db *Database) RemoveSongByPath(filePath string) error {
	_, err := db.conn.Exec("DELETE FROM songs WHERE file_path = ?", filePath)
	if err != nil {
		db.logger.WithError(err).WithField("file_path", filePath).Error("Failed to remove song by path")
	}
	return err
}

// SongExists returns true if a song exists with the given file path.
func (db *Database) SongExists(filePath string) (bool, error) {
	var id int
	err := db.songByPathStmt.QueryRow(filePath).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		db.logger.WithError(err).WithField("file_path", filePath).Error("Failed to check if song exists")
		return false, err
	}
	return true, nil
}

// scanSongRows scans standard song result sets into a slice of models.Song.
// Callers must have already deferred rows.Close().
func scanSongRows(rows *sql.Rows) ([]models.Song, error) {
	var songs []models.Song
	for rows.Next() {
		var song models.Song
		var cover sql.NullString
		var bpm sql.NullFloat64

		if err := rows.Scan(&song.ID, &song.Title, &song.Artist, &song.Genre,
			&song.Mood, &bpm, &song.FilePath, &cover, &song.Duration); err != nil {
			return nil, err
		}

		if cover.Valid {
			song.Cover = cover.String
		}
		if bpm.Valid {
			song.BPM = bpm.Float64
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}
