package filters

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/pdfdesk/internal/models"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestSepiaOnWhite(t *testing.T) {
	img := solid(4, 3, color.RGBA{255, 255, 255, 255})
	Apply(img, models.FilterSepia)

	want := color.RGBA{
		R: clamp(0.393*255 + 0.769*255 + 0.189*255),
		G: clamp(0.349*255 + 0.686*255 + 0.168*255),
		B: clamp(0.272*255 + 0.534*255 + 0.131*255),
		A: 255,
	}
	assert.Equal(t, color.RGBA{255, 255, 239, 255}, want)

	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, want, img.RGBAAt(x, y))
		}
	}
}

func TestGrayscaleIdempotent(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = uint8((i * 37) % 256)
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}

	Apply(img, models.FilterGrayscale)
	once := append([]uint8(nil), img.Pix...)
	Apply(img, models.FilterGrayscale)

	assert.Equal(t, once, img.Pix)
	for i := 0; i < len(once); i += 4 {
		assert.Equal(t, once[i], once[i+1])
		assert.Equal(t, once[i], once[i+2])
	}
}

func TestPixelFuncs(t *testing.T) {
	tests := []struct {
		name    string
		fn      PixelFunc
		r, g, b uint8
		want    [3]uint8
	}{
		{"grayscale red", Grayscale, 255, 0, 0, [3]uint8{76, 76, 76}},
		{"brighten clamps", Brighten, 200, 100, 0, [3]uint8{255, 130, 0}},
		{"darken", Darken, 200, 100, 10, [3]uint8{140, 70, 7}},
		{"sepia black", Sepia, 0, 0, 0, [3]uint8{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b := tt.fn(tt.r, tt.g, tt.b)
			assert.Equal(t, tt.want, [3]uint8{r, g, b})
		})
	}
}

func TestApplyLeavesAlpha(t *testing.T) {
	img := solid(2, 2, color.RGBA{10, 20, 30, 128})
	Apply(img, models.FilterBrighten)
	assert.Equal(t, uint8(128), img.RGBAAt(0, 0).A)
}

func TestApplyNoneIsNoop(t *testing.T) {
	img := solid(2, 2, color.RGBA{10, 20, 30, 255})
	before := append([]uint8(nil), img.Pix...)
	Apply(img, models.FilterNone)
	assert.Equal(t, before, img.Pix)
}

func TestEngineStateMachine(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, models.FilterNone, e.Active())
	assert.Empty(t, e.Preview())

	e.Select(models.FilterSepia)
	assert.Equal(t, "sepia(100%)", e.Preview())

	e.Select(models.FilterDarken)
	assert.Equal(t, models.FilterDarken, e.Active(), "selection replaces, never stacks")
	assert.Equal(t, "brightness(0.7)", e.Preview())

	e.Remove()
	assert.Equal(t, models.FilterNone, e.Active())
}
