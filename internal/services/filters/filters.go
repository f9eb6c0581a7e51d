package filters

import (
	"image"
	"math"

	"github.com/ternarybob/pdfdesk/internal/models"
)

// PixelFunc transforms one opaque RGB pixel
type PixelFunc func(r, g, b uint8) (uint8, uint8, uint8)

func clamp(v float64) uint8 {
	v = math.Round(v)
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}

// Grayscale sets every channel to the luma 0.299R + 0.587G + 0.114B
func Grayscale(r, g, b uint8) (uint8, uint8, uint8) {
	gray := clamp(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b))
	return gray, gray, gray
}

// Sepia applies the classic sepia matrix, clamped at 255
func Sepia(r, g, b uint8) (uint8, uint8, uint8) {
	fr, fg, fb := float64(r), float64(g), float64(b)
	return clamp(0.393*fr + 0.769*fg + 0.189*fb),
		clamp(0.349*fr + 0.686*fg + 0.168*fb),
		clamp(0.272*fr + 0.534*fg + 0.131*fb)
}

// Brighten multiplies each channel by 1.3, clamped at 255
func Brighten(r, g, b uint8) (uint8, uint8, uint8) {
	return clamp(float64(r) * 1.3), clamp(float64(g) * 1.3), clamp(float64(b) * 1.3)
}

// Darken multiplies each channel by 0.7
func Darken(r, g, b uint8) (uint8, uint8, uint8) {
	return clamp(float64(r) * 0.7), clamp(float64(g) * 0.7), clamp(float64(b) * 0.7)
}

// Func returns the pixel transform for a filter, or nil for FilterNone
func Func(name models.FilterName) PixelFunc {
	switch name {
	case models.FilterGrayscale:
		return Grayscale
	case models.FilterSepia:
		return Sepia
	case models.FilterBrighten:
		return Brighten
	case models.FilterDarken:
		return Darken
	default:
		return nil
	}
}

// PreviewCSS returns the CSS filter descriptor that previews name on screen
func PreviewCSS(name models.FilterName) string {
	switch name {
	case models.FilterGrayscale:
		return "grayscale(100%)"
	case models.FilterSepia:
		return "sepia(100%)"
	case models.FilterBrighten:
		return "brightness(1.3)"
	case models.FilterDarken:
		return "brightness(0.7)"
	default:
		return ""
	}
}

// Apply runs the filter over every pixel of img in place. Alpha is left untouched.
func Apply(img *image.RGBA, name models.FilterName) {
	fn := Func(name)
	if fn == nil || img == nil {
		return
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			i := row + x*4
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = fn(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
		}
	}
}
