package models

import "time"

// Song represents a catalog entry in the system
type Song struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Genre     string    `json:"genre"`
	Mood      string    `json:"mood"`
	BPM       float64   `json:"bpm,omitempty"` // 0 when unknown
	FilePath  string    `json:"file_path"`
	Cover     string    `json:"cover,omitempty"`
	Duration  int       `json:"duration,omitempty"` // in seconds
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// PlaylistEntry is the projection of a Song returned to players.
// Mood and bpm are internal ranking inputs and are not exposed.
type PlaylistEntry struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Genre    string `json:"genre"`
	FilePath string `json:"file_path"`
	Cover    string `json:"cover"`
}

// User represents a registered account
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"-"` // bcrypt hash, never serialized
}

// Playlist represents a user-created playlist
type Playlist struct {
	ID        int       `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	SongCount int       `json:"songCount"`
}

// PlaylistSong is a song pinned into a user playlist. Entries are
// denormalized copies so a playlist survives catalog rescans.
type PlaylistSong struct {
	PlaylistID int    `json:"playlistId"`
	Position   int    `json:"position"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	FilePath   string `json:"file_path"`
	Cover      string `json:"cover"`
}

// HistorySong is a recently-played entry for a user
type HistorySong struct {
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	FilePath   string    `json:"file_path"`
	Cover      string    `json:"cover"`
	ListenedAt time.Time `json:"listenedAt"`
}

// EmotionEvent records the outcome of one classification request
type EmotionEvent struct {
	ID         string    `json:"id"`
	Emotion    string    `json:"emotion"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// LoginEvent records a successful login for a user
type LoginEvent struct {
	Username  string    `json:"username"`
	Device    string    `json:"device"`
	Timestamp time.Time `json:"timestamp"`
}
