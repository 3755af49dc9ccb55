package recommend

import (
	"math"
	"sort"
	"strings"

	"moodtune/pkg/models"

	"github.com/sirupsen/logrus"
)

// DefaultTopK is the playlist size used when the caller does not ask for a
// specific limit.
const DefaultTopK = 30

// Catalog is the engine's view of the catalog snapshot.
type Catalog interface {
	// ByMood returns snapshot songs matching the mood, case-insensitively.
	ByMood(mood string) []models.Song
	// Songs returns the full supported-mood snapshot.
	Songs() []models.Song
}

// Engine selects and ranks a bounded-size playlist from the catalog
// snapshot. It never fails: sparse or empty catalogs degrade to smaller or
// empty playlists.
type Engine struct {
	catalog Catalog
	logger  *logrus.Logger
}

// NewEngine creates a recommendation engine over the given catalog.
func NewEngine(catalog Catalog, logger *logrus.Logger) *Engine {
	return &Engine{catalog: catalog, logger: logger}
}

// Recommend returns up to topK song projections for the requested mood.
// Songs matching the mood are preferred; if none exist the whole
// supported-mood snapshot is used instead, so a mood with no songs still
// yields music. A non-positive topK falls back to DefaultTopK. The result
// is empty only when the snapshot itself is empty.
func (e *Engine) Recommend(mood string, topK int) []models.PlaylistEntry {
	if topK <= 0 {
		topK = DefaultTopK
	}

	candidates := e.catalog.ByMood(mood)
	if len(candidates) == 0 {
		candidates = e.catalog.Songs()
		if len(candidates) > 0 {
			e.logger.WithField("mood", mood).Debug("No songs for requested mood, falling back to full catalog")
		}
	}
	if len(candidates) == 0 {
		e.logger.Warn("Song catalog is empty, returning empty playlist")
		return []models.PlaylistEntry{}
	}

	ranked := rankBySimilarity(candidates)
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	playlist := make([]models.PlaylistEntry, len(ranked))
	for i, song := range ranked {
		playlist[i] = models.PlaylistEntry{
			Title:    song.Title,
			Artist:   song.Artist,
			Genre:    song.Genre,
			FilePath: NormalizePath(song.FilePath),
			Cover:    song.Cover,
		}
	}
	return playlist
}

// featureVector extracts the numeric ranking features of a song. Currently
// a single bpm dimension; the similarity code below is generic over the
// vector width so more features can be added without changing the ranking.
func featureVector(song models.Song) []float64 {
	return []float64{song.BPM}
}

// rankBySimilarity orders songs by how typical their features are of the
// whole candidate group: each song is scored by its mean cosine similarity
// to every other candidate, computed over mean-centered feature vectors,
// and sorted descending. The sort is stable, so ties keep the catalog's
// original relative order. Groups of 0 or 1 songs are returned as-is.
func rankBySimilarity(songs []models.Song) []models.Song {
	if len(songs) < 2 {
		return songs
	}

	features := make([][]float64, len(songs))
	for i, song := range songs {
		features[i] = featureVector(song)
	}
	centerFeatures(features)

	scores := make([]float64, len(songs))
	for i := range features {
		var sum float64
		for j := range features {
			if i == j {
				continue
			}
			sum += cosineSimilarity(features[i], features[j])
		}
		scores[i] = sum / float64(len(features)-1)
	}

	ranked := make([]models.Song, len(songs))
	copy(ranked, songs)
	order := make([]int, len(songs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	for i, idx := range order {
		ranked[i] = songs[idx]
	}
	return ranked
}

// centerFeatures subtracts the per-dimension mean from every vector.
// Centering is what makes cosine similarity meaningful for a single
// dimension: songs on the same side of the group's mean tempo score as
// similar, outliers score as dissimilar.
func centerFeatures(features [][]float64) {
	if len(features) == 0 {
		return
	}
	dims := len(features[0])
	for d := 0; d < dims; d++ {
		var mean float64
		for _, f := range features {
			mean += f[d]
		}
		mean /= float64(len(features))
		for _, f := range features {
			f[d] -= mean
		}
	}
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// A zero-magnitude vector has no direction, so any pair involving one
// scores 0.
func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// NormalizePath ensures a non-empty song path starts with "/" so players
// can resolve it against the media root. Empty paths stay empty. The
// operation is idempotent.
func NormalizePath(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}
