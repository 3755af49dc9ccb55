package classifier

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	// Decoders for the capture formats browsers submit.
	_ "image/jpeg"
	_ "image/png"
)

// decodeGray decodes raw image bytes and converts the result to grayscale.
func decodeGray(data []byte) (*image.Gray, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x-bounds.Min.X, y-bounds.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray, nil
}

// cropGray copies the given region into a new zero-origin grayscale image.
func cropGray(img *image.Gray, region image.Rectangle) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, region.Dx(), region.Dy()))
	for y := 0; y < region.Dy(); y++ {
		for x := 0; x < region.Dx(); x++ {
			out.SetGray(x, y, img.GrayAt(region.Min.X+x, region.Min.Y+y))
		}
	}
	return out
}

// resizeGray scales the image to w x h using nearest-neighbor sampling.
func resizeGray(img *image.Gray, w, h int) *image.Gray {
	src := img.Bounds()
	if src.Dx() == w && src.Dy() == h {
		return img
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srcY := y * src.Dy() / h
		for x := 0; x < w; x++ {
			srcX := x * src.Dx() / w
			out.SetGray(x, y, img.GrayAt(srcX, srcY))
		}
	}
	return out
}

// normalizedPixels flattens a grayscale image into row-major [0,1] floats.
func normalizedPixels(img *image.Gray) []float32 {
	bounds := img.Bounds()
	pixels := make([]float32, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pixels = append(pixels, float32(img.GrayAt(x, y).Y)/255.0)
		}
	}
	return pixels
}
