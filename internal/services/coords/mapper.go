package coords

import (
	"fmt"

	"github.com/ternarybob/pdfdesk/internal/models"
)

// ToPageCoords converts a pointer position in client pixels into page-local
// pixels by subtracting the container's top-left offset
func ToPageCoords(client models.Point, box models.BoundingBox) models.Point {
	return models.Point{X: client.X - box.Left, Y: client.Y - box.Top}
}

// ToExportCoords maps page-local display pixels into the export raster
func ToExportCoords(p models.Point, displayScale, exportScale float64) models.Point {
	return p.Scale(ScaleFactor(displayScale, exportScale))
}

// ScaleFactor is the multiplier from display pixels to export pixels
func ScaleFactor(displayScale, exportScale float64) float64 {
	if displayScale <= 0 {
		return exportScale
	}
	return exportScale / displayScale
}

// DisplayScale derives the on-screen scale of a page from the canvas the client
// reported and the intrinsic page size. The canvas shows the page rotated, so
// the rotated width is the reference. Fails with KindMissingElement when there
// is no usable canvas.
func DisplayScale(vp *models.Viewport, size models.PageSize, rotation int) (float64, error) {
	if vp == nil || vp.CanvasWidth <= 0 || vp.CanvasHeight <= 0 {
		return 0, models.NewError(models.KindMissingElement, "display scale", fmt.Errorf("no canvas reported"))
	}
	rotated := size.Rotated(rotation)
	if rotated.Width <= 0 {
		return 0, models.NewError(models.KindMissingElement, "display scale", fmt.Errorf("page has zero width"))
	}
	return vp.CanvasWidth / rotated.Width, nil
}

// Mapper holds the fixed scales used when flattening annotations
type Mapper struct {
	ExportScale   float64
	FallbackScale float64
}

// NewMapper creates a mapper. Non-positive scales fall back to 1.
func NewMapper(exportScale, fallbackScale float64) Mapper {
	if exportScale <= 0 {
		exportScale = 1
	}
	if fallbackScale <= 0 {
		fallbackScale = 1
	}
	return Mapper{ExportScale: exportScale, FallbackScale: fallbackScale}
}

// Resolve returns the display scale for a page, using the fallback constant
// when no canvas is known. fellBack reports that the fallback was used; the
// result is then approximate.
func (m Mapper) Resolve(vp *models.Viewport, size models.PageSize, rotation int) (scale float64, fellBack bool) {
	s, err := DisplayScale(vp, size, rotation)
	if err != nil {
		return m.FallbackScale, true
	}
	return s, false
}

// Factor returns the display-to-export multiplier for a display scale
func (m Mapper) Factor(displayScale float64) float64 {
	return ScaleFactor(displayScale, m.ExportScale)
}
