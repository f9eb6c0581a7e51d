package coords

import (
	"image"

	"github.com/ternarybob/pdfdesk/internal/models"
)

// UnrotatePoint maps a point on a page shown rotated clockwise by deg back
// onto the un-rotated page. size is the un-rotated page size.
func UnrotatePoint(q models.Point, size models.PageSize, deg int) models.Point {
	switch models.NormalizeRotation(deg) {
	case 90:
		return models.Point{X: q.Y, Y: size.Height - q.X}
	case 180:
		return models.Point{X: size.Width - q.X, Y: size.Height - q.Y}
	case 270:
		return models.Point{X: size.Width - q.Y, Y: q.X}
	default:
		return q
	}
}

// RotateImage returns src turned clockwise by deg. Angles other than 90, 180
// and 270 return src unchanged.
func RotateImage(src *image.RGBA, deg int) *image.RGBA {
	deg = models.NormalizeRotation(deg)
	if deg == 0 {
		return src
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	var dst *image.RGBA
	if deg == 180 {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	}

	for y := 0; y < h; y++ {
		srcRow := src.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			var dx, dy int
			switch deg {
			case 90:
				dx, dy = h-1-y, x
			case 180:
				dx, dy = w-1-x, h-1-y
			case 270:
				dx, dy = y, w-1-x
			}
			si := srcRow + x*4
			di := dst.PixOffset(dx, dy)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}
