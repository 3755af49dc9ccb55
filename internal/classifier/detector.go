package classifier

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

// minDetectionQuality is the pigo cluster score below which a detection is
// discarded as noise.
const minDetectionQuality = 5.0

// FaceDetector finds faces with the pigo pixel-intensity cascade. The
// cascade is unpacked once at construction and shared read-only across
// requests.
type FaceDetector struct {
	cascade *pigo.Pigo
}

// NewFaceDetector loads and unpacks a pigo cascade file.
func NewFaceDetector(cascadePath string) (*FaceDetector, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file: %w", err)
	}

	cascade, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade file %s: %w", cascadePath, err)
	}

	return &FaceDetector{cascade: cascade}, nil
}

// DetectSubject returns the bounding square of the highest-scoring face in
// the image, or false when no face clears the quality threshold.
func (d *FaceDetector) DetectSubject(img *image.Gray) (image.Rectangle, bool) {
	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()
	if rows == 0 || cols == 0 {
		return image.Rectangle{}, false
	}

	maxSize := rows
	if cols < maxSize {
		maxSize = cols
	}

	params := pigo.CascadeParams{
		MinSize:     20,
		MaxSize:     maxSize,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: img.Pix,
			Rows:   rows,
			Cols:   cols,
			Dim:    img.Stride,
		},
	}

	detections := d.cascade.RunCascade(params, 0.0)
	detections = d.cascade.ClusterDetections(detections, 0.2)

	var best *pigo.Detection
	for i := range detections {
		if detections[i].Q < minDetectionQuality {
			continue
		}
		if best == nil || detections[i].Q > best.Q {
			best = &detections[i]
		}
	}
	if best == nil {
		return image.Rectangle{}, false
	}

	half := best.Scale / 2
	rect := image.Rect(best.Col-half, best.Row-half, best.Col+half, best.Row+half)
	return rect, true
}
