package classifier

import (
	"context"
	"fmt"
	"image"
	"time"

	"moodtune/internal/emotion"

	"github.com/sirupsen/logrus"
)

// InputSize is the fixed edge length (in pixels) of the grayscale square
// the model expects.
const InputSize = 48

// OutcomeKind discriminates the three possible classification results.
type OutcomeKind int

const (
	// OutcomeUnavailable means the classifier could not produce a
	// prediction (model missing, decode failure, timeout). Callers treat
	// it as a neutral prediction with confidence 0.
	OutcomeUnavailable OutcomeKind = iota

	// OutcomeNoSubject means no face was found in the image. Callers
	// treat it as neutral with confidence 0.
	OutcomeNoSubject

	// OutcomeClassified carries a native label and its probability mass.
	OutcomeClassified
)

// Outcome is the result of one classification request.
type Outcome struct {
	Kind       OutcomeKind
	Label      emotion.NativeLabel
	Confidence float64
}

// Model scores a normalized grayscale image. Pixels are row-major,
// InputSize*InputSize values in [0,1]. The returned slice is a probability
// vector aligned with emotion.NativeLabels.
type Model interface {
	Predict(pixels []float32) ([]float64, error)
}

// Detector locates the most prominent subject (face) in a grayscale image.
type Detector interface {
	DetectSubject(img *image.Gray) (image.Rectangle, bool)
}

// Adapter wraps the opaque emotion model behind the always-answers contract:
// whatever goes wrong internally, Classify returns an Outcome rather than an
// error, so the caller can keep the music playing.
type Adapter struct {
	model    Model
	detector Detector
	timeout  time.Duration
	logger   *logrus.Logger
}

// NewAdapter creates a classification adapter. A nil model yields an
// adapter that always reports Unavailable; a nil detector makes the whole
// image the subject region. A non-positive timeout disables the deadline.
func NewAdapter(model Model, detector Detector, timeout time.Duration, logger *logrus.Logger) *Adapter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Adapter{
		model:    model,
		detector: detector,
		timeout:  timeout,
		logger:   logger,
	}
}

// Available reports whether a model is loaded.
func (a *Adapter) Available() bool {
	return a != nil && a.model != nil
}

// Classify decodes the image, finds a face, and runs the model over the
// cropped, resized region. Every internal failure converts to Unavailable
// and a missing face to NoSubject; Classify never returns an error.
func (a *Adapter) Classify(ctx context.Context, imageBytes []byte) Outcome {
	if !a.Available() {
		return Outcome{Kind: OutcomeUnavailable}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	done := make(chan Outcome, 1)
	go func() {
		done <- a.classify(imageBytes)
	}()

	select {
	case outcome := <-done:
		return outcome
	case <-ctx.Done():
		a.logger.WithError(ctx.Err()).Warn("Classification did not finish in time, treating as unavailable")
		return Outcome{Kind: OutcomeUnavailable}
	}
}

func (a *Adapter) classify(imageBytes []byte) Outcome {
	gray, err := decodeGray(imageBytes)
	if err != nil {
		a.logger.WithError(err).Warn("Could not decode image, treating classifier as unavailable")
		return Outcome{Kind: OutcomeUnavailable}
	}

	region := gray.Bounds()
	if a.detector != nil {
		rect, found := a.detector.DetectSubject(gray)
		if !found {
			return Outcome{Kind: OutcomeNoSubject}
		}
		region = rect.Intersect(gray.Bounds())
		if region.Empty() {
			return Outcome{Kind: OutcomeNoSubject}
		}
	}

	pixels := normalizedPixels(resizeGray(cropGray(gray, region), InputSize, InputSize))

	probs, err := a.model.Predict(pixels)
	if err != nil {
		a.logger.WithError(err).Warn("Model prediction failed, treating as unavailable")
		return Outcome{Kind: OutcomeUnavailable}
	}
	if len(probs) != len(emotion.NativeLabels) {
		a.logger.WithError(fmt.Errorf("expected %d class probabilities, got %d", len(emotion.NativeLabels), len(probs))).
			Error("Model output shape mismatch")
		return Outcome{Kind: OutcomeUnavailable}
	}

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}

	return Outcome{
		Kind:       OutcomeClassified,
		Label:      emotion.NativeLabels[best],
		Confidence: probs[best],
	}
}
