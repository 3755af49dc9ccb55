package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dhowden/tag"
)

type stubMetadata struct {
	tag.Metadata
	raw map[string]interface{}
}

func (s stubMetadata) Raw() map[string]interface{} { return s.raw }

func TestExtractBPM(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]interface{}
		want float64
	}{
		{"id3v2 frame", map[string]interface{}{"TBPM": "128"}, 128},
		{"vorbis comment", map[string]interface{}{"BPM": "96.5"}, 96.5},
		{"whitespace", map[string]interface{}{"TBPM": " 140 "}, 140},
		{"integer value", map[string]interface{}{"tmpo": 112}, 112},
		{"unparseable", map[string]interface{}{"TBPM": "fast"}, 0},
		{"negative", map[string]interface{}{"TBPM": "-10"}, 0},
		{"absent", map[string]interface{}{}, 0},
		{"nil raw", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractBPM(stubMetadata{raw: tt.raw})
			if got != tt.want {
				t.Errorf("extractBPM() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAudioFile(t *testing.T) {
	e := NewExtractor([]string{".mp3", ".flac", ".wav"})

	tests := []struct {
		path string
		want bool
	}{
		{"song.mp3", true},
		{"song.MP3", true},
		{"song.flac", true},
		{"song.wav", true},
		{"song.ogg", false},
		{"song.txt", false},
		{"song", false},
	}

	for _, tt := range tests {
		if got := e.IsAudioFile(tt.path); got != tt.want {
			t.Errorf("IsAudioFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestGetContentType(t *testing.T) {
	e := NewExtractor([]string{".mp3"})

	tests := []struct {
		path string
		want string
	}{
		{"a.mp3", "audio/mpeg"},
		{"a.flac", "audio/flac"},
		{"a.wav", "audio/wav"},
		{"a.bin", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := e.GetContentType(tt.path); got != tt.want {
			t.Errorf("GetContentType(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestGetCoverMimeType(t *testing.T) {
	e := NewExtractor(nil)

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47}, "image/png"},
		{"gif", []byte{0x47, 0x49, 0x46, 0x38}, "image/gif"},
		{"short", []byte{0x00}, "application/octet-stream"},
		{"unknown", []byte{0x01, 0x02, 0x03, 0x04}, "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.GetCoverMimeType(tt.data); got != tt.want {
				t.Errorf("GetCoverMimeType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractFromUntaggedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Mystery Song.mp3")
	if err := os.WriteFile(path, []byte("not real audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor([]string{".mp3"})
	song, err := e.ExtractFromFile(path)
	if err != nil {
		t.Fatalf("ExtractFromFile failed: %v", err)
	}
	if song.Title != "Mystery Song" {
		t.Errorf("expected filename fallback title, got %q", song.Title)
	}
	if song.Artist != "Unknown Artist" {
		t.Errorf("expected placeholder artist, got %q", song.Artist)
	}
	if song.Mood != "neutral" {
		t.Errorf("expected neutral mood for untagged file, got %q", song.Mood)
	}
	if song.FilePath != path {
		t.Errorf("file path not preserved: %q", song.FilePath)
	}
}
