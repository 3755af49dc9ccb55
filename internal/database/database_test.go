package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"moodtune/pkg/models"
)

func timestampForTest(i int) time.Time {
	return time.Date(2024, 6, 1, 12, 0, i, 0, time.UTC)
}

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUser(t *testing.T, db *Database, username string) models.User {
	t.Helper()

	user := models.User{
		ID:       uuid.New().String(),
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed-password",
	}
	if err := db.CreateUser(user); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func TestInsertSongAndUpsert(t *testing.T) {
	db := newTestDatabase(t)

	song := models.Song{
		Title:    "Clair de Lune",
		Artist:   "Debussy",
		Genre:    "classical",
		Mood:     "neutral",
		BPM:      66,
		FilePath: "music/clair.mp3",
		Duration: 300,
	}

	id, err := db.InsertSong(song)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero song ID")
	}

	song.Title = "Clair de Lune (Remastered)"
	song.BPM = 68
	id2, err := db.InsertSong(song)
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if id2 != id {
		t.Errorf("upsert created a new row: got ID %d, want %d", id2, id)
	}

	songs, err := db.GetAllSongs()
	if err != nil {
		t.Fatalf("GetAllSongs failed: %v", err)
	}
	if len(songs) != 1 {
		t.Fatalf("expected 1 song, got %d", len(songs))
	}
	if songs[0].Title != "Clair de Lune (Remastered)" {
		t.Errorf("title not updated: got %q", songs[0].Title)
	}
	if songs[0].BPM != 68 {
		t.Errorf("bpm not updated: got %v", songs[0].BPM)
	}
}

func TestGetSongsByMoods(t *testing.T) {
	db := newTestDatabase(t)

	seed := []models.Song{
		{Title: "A", Artist: "X", Mood: "happy", FilePath: "a.mp3"},
		{Title: "B", Artist: "X", Mood: "Sad", FilePath: "b.mp3"},
		{Title: "C", Artist: "X", Mood: "neutral", FilePath: "c.mp3"},
	}
	for _, s := range seed {
		if _, err := db.InsertSong(s); err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}

	songs, err := db.GetSongsByMoods([]string{"HAPPY", "sad"})
	if err != nil {
		t.Fatalf("GetSongsByMoods failed: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("expected 2 songs, got %d", len(songs))
	}
	if songs[0].Title != "A" || songs[1].Title != "B" {
		t.Errorf("unexpected order: %q, %q", songs[0].Title, songs[1].Title)
	}
}

func TestSearchSongs(t *testing.T) {
	db := newTestDatabase(t)

	seed := []models.Song{
		{Title: "Morning Light", Artist: "Aurora", Mood: "happy", FilePath: "1.mp3"},
		{Title: "Night Drive", Artist: "Aurora", Mood: "sad", FilePath: "2.mp3"},
		{Title: "Daylight", Artist: "Other", Mood: "happy", FilePath: "3.mp3"},
	}
	for _, s := range seed {
		if _, err := db.InsertSong(s); err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}

	byTitle, err := db.SearchSongs("light", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(byTitle) != 2 {
		t.Errorf("title search: expected 2 results, got %d", len(byTitle))
	}

	byArtist, err := db.SearchSongs("Aurora", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(byArtist) != 2 {
		t.Errorf("artist search: expected 2 results, got %d", len(byArtist))
	}

	limited, err := db.SearchSongs("light", 1)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit not applied: got %d results", len(limited))
	}
}

func TestRemoveSongByPath(t *testing.T) {
	db := newTestDatabase(t)

	if _, err := db.InsertSong(models.Song{Title: "A", Artist: "X", Mood: "happy", FilePath: "a.mp3"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	exists, err := db.SongExists("a.mp3")
	if err != nil || !exists {
		t.Fatalf("expected song to exist, got exists=%v err=%v", exists, err)
	}

	if err := db.RemoveSongByPath("a.mp3"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	exists, err = db.SongExists("a.mp3")
	if err != nil {
		t.Fatalf("SongExists failed: %v", err)
	}
	if exists {
		t.Error("song still exists after removal")
	}
}

func TestCreateUserDuplicates(t *testing.T) {
	db := newTestDatabase(t)
	user := newTestUser(t, db, "alice")

	dup := models.User{ID: uuid.New().String(), Username: "alice", Password: "h"}
	if err := db.CreateUser(dup); err != ErrUsernameTaken {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}

	dupEmail := models.User{ID: uuid.New().String(), Username: "bob", Email: user.Email, Password: "h"}
	if err := db.CreateUser(dupEmail); err != ErrEmailTaken {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	// Two users with no email must both be allowed.
	for _, name := range []string{"carol", "dave"} {
		u := models.User{ID: uuid.New().String(), Username: name, Password: "h"}
		if err := db.CreateUser(u); err != nil {
			t.Errorf("user %s without email rejected: %v", name, err)
		}
	}
}

func TestGetUserLookups(t *testing.T) {
	db := newTestDatabase(t)
	user := newTestUser(t, db, "alice")

	byName, err := db.GetUserByUsername("alice")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if byName.ID != user.ID || byName.Email != user.Email {
		t.Errorf("unexpected user: %+v", byName)
	}

	byID, err := db.GetUserByID(user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID.Username != "alice" {
		t.Errorf("unexpected username: %q", byID.Username)
	}

	if _, err := db.GetUserByUsername("nobody"); err != ErrUserNotFound {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	db := newTestDatabase(t)
	user := newTestUser(t, db, "alice")
	other := newTestUser(t, db, "bob")

	if err := db.UpdateUser(user.ID, "new@example.com", "555-0100", ""); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	updated, err := db.GetUserByID(user.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if updated.Email != "new@example.com" || updated.Phone != "555-0100" {
		t.Errorf("update not applied: %+v", updated)
	}
	if updated.Password != user.Password {
		t.Error("password changed without request")
	}

	if err := db.UpdateUser(user.ID, other.Email, "", ""); err != ErrEmailTaken {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	if err := db.UpdateUser("missing-id", "x@example.com", "", ""); err != ErrUserNotFound {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPlaylistLimit(t *testing.T) {
	db := newTestDatabase(t)
	user := newTestUser(t, db, "alice")

	for i := 0; i < MaxPlaylistsPerUser; i++ {
		title := string(rune('A' + i))
		if _, err := db.CreatePlaylist(user.ID, title); err != nil {
			t.Fatalf("create playlist %d failed: %v", i, err)
		}
	}

	if _, err := db.CreatePlaylist(user.ID, "overflow"); err != ErrPlaylistLimit {
		t.Errorf("expected ErrPlaylistLimit, got %v", err)
	}

	// The cap is per user, not global.
	other := newTestUser(t, db, "bob")
	if _, err := db.CreatePlaylist(other.ID, "mine"); err != nil {
		t.Errorf("other user's playlist rejected: %v", err)
	}
}

func TestPlaylistDuplicateTitle(t *testing.T) {
	db := newTestDatabase(t)
	user := newTestUser(t, db, "alice")

	if _, err := db.CreatePlaylist(user.ID, "Focus"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := db.CreatePlaylist(user.ID, "focus"); err != ErrPlaylistTitleTaken {
		t.Errorf("expected ErrPlaylistTitleTaken, got %v", err)
	}
}

func TestPlaylistSongsOrderAndResequencing(t *testing.T) {
	db := newTestDatabase(t)
	user := newTestUser(t, db, "alice")

	playlist, err := db.CreatePlaylist(user.ID, "Focus")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for _, title := range []string{"A", "B", "C"} {
		song := models.PlaylistSong{Title: title, Artist: "X", FilePath: title + ".mp3"}
		if err := db.AddSongToPlaylist(user.ID, playlist.ID, song); err != nil {
			t.Fatalf("add song %s failed: %v", title, err)
		}
	}

	if err := db.RemovePlaylistSong(user.ID, playlist.ID, 1); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	songs, err := db.GetPlaylistSongs(user.ID, playlist.ID)
	if err != nil {
		t.Fatalf("get songs failed: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("expected 2 songs, got %d", len(songs))
	}
	if songs[0].Title != "A" || songs[0].Position != 0 {
		t.Errorf("unexpected first song: %+v", songs[0])
	}
	if songs[1].Title != "C" || songs[1].Position != 1 {
		t.Errorf("position not resequenced: %+v", songs[1])
	}
}

func TestPlaylistOwnership(t *testing.T) {
	db := newTestDatabase(t)
	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")

	playlist, err := db.CreatePlaylist(alice.ID, "Private")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := db.GetPlaylistSongs(bob.ID, playlist.ID); err != ErrPlaylistNotFound {
		t.Errorf("expected ErrPlaylistNotFound for foreign playlist, got %v", err)
	}
	if err := db.DeletePlaylist(bob.ID, playlist.ID); err != ErrPlaylistNotFound {
		t.Errorf("expected ErrPlaylistNotFound on foreign delete, got %v", err)
	}
	if err := db.DeletePlaylist(alice.ID, playlist.ID); err != nil {
		t.Errorf("owner delete failed: %v", err)
	}
}

func TestHistoryDedupeAndCap(t *testing.T) {
	db := newTestDatabase(t)
	user := newTestUser(t, db, "alice")

	for i := 0; i < 12; i++ {
		song := models.HistorySong{
			Title:    "Song " + string(rune('A'+i)),
			Artist:   "X",
			FilePath: string(rune('a'+i)) + ".mp3",
		}
		if err := db.AddHistorySong(user.ID, song); err != nil {
			t.Fatalf("add history %d failed: %v", i, err)
		}
	}

	songs, err := db.GetHistorySongs(user.ID)
	if err != nil {
		t.Fatalf("get history failed: %v", err)
	}
	if len(songs) != historyLimit {
		t.Fatalf("expected %d history songs, got %d", historyLimit, len(songs))
	}
	if songs[0].Title != "Song L" {
		t.Errorf("expected newest first, got %q", songs[0].Title)
	}

	// Replaying an existing song moves it to the top without growing
	// the history.
	replay := models.HistorySong{Title: "song e", Artist: "X", FilePath: "e.mp3"}
	if err := db.AddHistorySong(user.ID, replay); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	songs, err = db.GetHistorySongs(user.ID)
	if err != nil {
		t.Fatalf("get history failed: %v", err)
	}
	if len(songs) != historyLimit {
		t.Errorf("replay changed history size: got %d", len(songs))
	}
	if songs[0].Title != "song e" {
		t.Errorf("replayed song not at top: got %q", songs[0].Title)
	}
}

func TestEmotionEvents(t *testing.T) {
	db := newTestDatabase(t)

	events := []models.EmotionEvent{
		{ID: uuid.New().String(), Emotion: "happy", Confidence: 0.91},
		{ID: uuid.New().String(), Emotion: "sad", Confidence: 0.55},
	}
	for i, e := range events {
		e.Timestamp = timestampForTest(i)
		if err := db.InsertEmotionEvent(e); err != nil {
			t.Fatalf("insert event failed: %v", err)
		}
	}

	got, err := db.GetRecentEmotionEvents(10)
	if err != nil {
		t.Fatalf("get events failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Emotion != "sad" {
		t.Errorf("expected newest event first, got %q", got[0].Emotion)
	}
}
