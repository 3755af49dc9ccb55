package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"moodtune/internal/emotion"
)

// prototypeFile is the on-disk model format: one feature prototype per
// native emotion class.
type prototypeFile struct {
	Classes []prototypeClass `json:"classes"`
}

type prototypeClass struct {
	Label     string    `json:"label"`
	Prototype []float32 `json:"prototype"`
}

// PrototypeModel is a nearest-prototype scorer: each native emotion class
// is represented by a mean-pixel prototype vector, and an input is scored
// by its distance to every prototype, converted to a probability vector
// with a softmax over the negated distances.
type PrototypeModel struct {
	// prototypes[i] corresponds to emotion.NativeLabels[i].
	prototypes [][]float32
}

// NewPrototypeModelFromFile loads and validates a prototype model. The
// file must contain exactly one prototype of length InputSize*InputSize
// for every native label.
func NewPrototypeModelFromFile(path string) (*PrototypeModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var file prototypeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse model file %s: %w", path, err)
	}

	byLabel := make(map[string][]float32, len(file.Classes))
	for _, class := range file.Classes {
		label := strings.ToLower(class.Label)
		if _, dup := byLabel[label]; dup {
			return nil, fmt.Errorf("model file %s has duplicate prototype for label %q", path, label)
		}
		if len(class.Prototype) != InputSize*InputSize {
			return nil, fmt.Errorf("prototype for label %q has %d values, expected %d", label, len(class.Prototype), InputSize*InputSize)
		}
		byLabel[label] = class.Prototype
	}

	prototypes := make([][]float32, len(emotion.NativeLabels))
	for i, label := range emotion.NativeLabels {
		proto, ok := byLabel[string(label)]
		if !ok {
			return nil, fmt.Errorf("model file %s is missing a prototype for label %q", path, label)
		}
		prototypes[i] = proto
	}

	return &PrototypeModel{prototypes: prototypes}, nil
}

// Predict returns a probability vector over the native label set.
func (m *PrototypeModel) Predict(pixels []float32) ([]float64, error) {
	if len(pixels) != InputSize*InputSize {
		return nil, fmt.Errorf("expected %d pixels, got %d", InputSize*InputSize, len(pixels))
	}

	scores := make([]float64, len(m.prototypes))
	for i, proto := range m.prototypes {
		scores[i] = -meanSquaredDistance(pixels, proto)
	}
	return softmax(scores), nil
}

func meanSquaredDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum / float64(len(a))
}

// softmax converts raw scores to probabilities. The max score is
// subtracted first to keep the exponentials in range.
func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}

	probs := make([]float64, len(scores))
	var total float64
	for i, s := range scores {
		probs[i] = math.Exp(s - max)
		total += probs[i]
	}
	for i := range probs {
		probs[i] /= total
	}
	return probs
}
