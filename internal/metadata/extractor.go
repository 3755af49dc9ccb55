package metadata

import (
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"moodtune/internal/emotion"
	"moodtune/pkg/models"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
	"github.com/tcolgate/mp3"
)

// Extractor reads tags, tempo and duration from audio files and maps them
// into catalog songs.
type Extractor struct {
	supportedFormats []string
	logger           *logrus.Logger
	coverCache       map[string][]byte
	coverMux         sync.RWMutex
}

// NewExtractor creates a new metadata extractor for the given file extensions.
func NewExtractor(supportedFormats []string) *Extractor {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &Extractor{
		supportedFormats: supportedFormats,
		logger:           logger,
		coverCache:       make(map[string][]byte),
	}
}

// ExtractFromFile builds a catalog song from an audio file. The song's mood
// is derived from its genre tag, and tempo comes from the BPM tag frame when
// the file carries one.
func (e *Extractor) ExtractFromFile(filePath string) (models.Song, error) {
	startTime := time.Now()

	file, err := os.Open(filePath)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"filePath": filePath,
			"error":    err.Error(),
		}).Error("Failed to open audio file")
		return models.Song{}, err
	}
	defer file.Close()

	duration, err := e.calculateDuration(filePath)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"filePath": filePath,
			"error":    err.Error(),
		}).Warn("Failed to calculate duration, setting to 0")
		duration = 0
	}

	meta, err := tag.ReadFrom(file)
	if err != nil {
		// Untagged files still enter the catalog under their filename.
		name := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))

		e.logger.WithFields(logrus.Fields{
			"filePath": filePath,
			"error":    err.Error(),
		}).Warn("Failed to read tags, using filename")

		return models.Song{
			Title:    name,
			Artist:   "Unknown Artist",
			Mood:     string(emotion.MoodNeutral),
			Duration: duration,
			FilePath: filePath,
		}, nil
	}

	title := meta.Title()
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}

	artist := meta.Artist()
	if artist == "" {
		artist = "Unknown Artist"
	}

	genre := strings.TrimSpace(meta.Genre())
	mood := emotion.FromGenre(genre)
	bpm := extractBPM(meta)
	coverID, hasCover := e.extractCover(meta)

	song := models.Song{
		Title:    title,
		Artist:   artist,
		Genre:    genre,
		Mood:     string(mood),
		BPM:      bpm,
		Duration: duration,
		FilePath: filePath,
	}
	if hasCover {
		song.Cover = coverID
	}

	e.logger.WithFields(logrus.Fields{
		"filePath":       filePath,
		"title":          title,
		"artist":         artist,
		"genre":          genre,
		"mood":           song.Mood,
		"bpm":            bpm,
		"processingTime": time.Since(startTime),
	}).Debug("Extracted song metadata")

	return song, nil
}

// extractBPM reads the tempo from raw tag frames. ID3v2 stores it as TBPM,
// vorbis comments as BPM. Returns 0 when absent or unparseable.
func extractBPM(meta tag.Metadata) float64 {
	raw := meta.Raw()
	if raw == nil {
		return 0
	}

	for _, key := range []string{"TBPM", "BPM", "bpm", "tmpo"} {
		value, ok := raw[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if bpm, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && bpm > 0 {
				return bpm
			}
		case int:
			if v > 0 {
				return float64(v)
			}
		case uint8:
			return float64(v)
		}
	}
	return 0
}

// calculateDuration returns an audio file's play time in seconds.
func (e *Extractor) calculateDuration(filePath string) (int, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".mp3":
		return e.durationMP3(filePath)
	case ".flac":
		return e.durationFLAC(filePath)
	case ".wav":
		return e.durationWAV(filePath)
	default:
		return 0, fmt.Errorf("unsupported format: %s", ext)
	}
}

// MP3 duration by decoding frames; falls back to a bitrate estimate when no
// frame decodes at all.
func (e *Extractor) durationMP3(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	dec := mp3.NewDecoder(f)
	var total time.Duration
	var skipped int
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if frames == 0 {
				return e.estimateFromFileSize(path, 192000)
			}
			break // partial decode; use what we have
		}
		total += fr.Duration()
		frames++
	}
	return int(total.Seconds()), nil
}

// FLAC duration via the STREAMINFO metadata block.
func (e *Extractor) durationFLAC(path string) (int, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return 0, err
	}
	si := stream.Info
	if si.NSamples > 0 && si.SampleRate > 0 {
		secs := float64(si.NSamples) / float64(si.SampleRate)
		return int(secs + 0.5), nil
	}
	return 0, fmt.Errorf("flac stream missing sample info")
}

// WAV duration from the header plus file size.
func (e *Extractor) durationWAV(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("invalid wav file")
	}
	if dec.SampleRate == 0 || dec.BitDepth == 0 || dec.NumChans == 0 {
		return 0, fmt.Errorf("invalid wav header")
	}
	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	headerSize := int64(44)
	pcmBytes := st.Size() - headerSize
	if pcmBytes < 0 {
		pcmBytes = 0
	}
	bytesPerSampleFrame := int64(dec.BitDepth/8) * int64(dec.NumChans)
	if bytesPerSampleFrame <= 0 {
		return 0, fmt.Errorf("invalid sample frame size")
	}
	sampleFrames := pcmBytes / bytesPerSampleFrame
	secs := float64(sampleFrames) / float64(dec.SampleRate)
	return int(secs + 0.5), nil
}

// estimateFromFileSize provides last-resort estimation if parsing fails.
func (e *Extractor) estimateFromFileSize(path string, bitrate int) (int, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if bitrate <= 0 {
		return 0, fmt.Errorf("invalid bitrate")
	}
	return int((st.Size() * 8) / int64(bitrate)), nil
}

// extractCover pulls embedded cover art and caches it under a content hash.
func (e *Extractor) extractCover(meta tag.Metadata) (string, bool) {
	if meta == nil {
		return "", false
	}
	picture := meta.Picture()
	if picture == nil {
		return "", false
	}

	hash := md5.Sum(picture.Data)
	coverID := fmt.Sprintf("%x", hash)

	e.coverMux.Lock()
	e.coverCache[coverID] = picture.Data
	e.coverMux.Unlock()

	return coverID, true
}

// GetCover retrieves cached cover art by ID.
func (e *Extractor) GetCover(coverID string) ([]byte, bool) {
	e.coverMux.RLock()
	data, exists := e.coverCache[coverID]
	e.coverMux.RUnlock()
	return data, exists
}

// GetCoverMimeType guesses the MIME type of cover art data.
func (e *Extractor) GetCoverMimeType(data []byte) string {
	if len(data) < 4 {
		return "application/octet-stream"
	}
	if data[0] == 0xFF && data[1] == 0xD8 {
		return "image/jpeg"
	}
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 {
		return "image/gif"
	}
	return "application/octet-stream"
}

// IsAudioFile checks if a file is a supported audio format.
func (e *Extractor) IsAudioFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, format := range e.supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// GetContentType returns the MIME type for an audio file.
func (e *Extractor) GetContentType(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".wav":
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}
