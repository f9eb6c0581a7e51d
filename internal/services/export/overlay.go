package export

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ternarybob/pdfdesk/internal/models"
)

// overlay draws annotations onto an export raster. factor maps display
// pixels to raster pixels.
type overlay struct {
	dst     *image.RGBA
	factor  float64
	font    *opentype.Font
	opacity float64
}

var regularFont *opentype.Font

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		panic(fmt.Sprintf("parse embedded font: %v", err))
	}
	regularFont = f
}

func (o *overlay) highlight(h models.HighlightAnnotation) {
	r := h.Rect.Scale(o.factor)
	rect := image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.X+r.Width)),
		int(math.Round(r.Y+r.Height)),
	)
	draw.Draw(o.dst, rect.Intersect(o.dst.Bounds()), image.NewUniform(h.Color.NRGBA(o.opacity)), image.Point{}, draw.Over)
}

func (o *overlay) drawing(d models.DrawingAnnotation) {
	if len(d.Points) == 0 {
		return
	}
	width := d.StrokeWidth
	if width <= 0 {
		width = 2
	}
	radius := width * o.factor / 2

	b := o.dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over

	pts := make([]models.Point, len(d.Points))
	for i, p := range d.Points {
		pts[i] = p.Scale(o.factor)
	}
	for i := 1; i < len(pts); i++ {
		addSegment(z, pts[i-1], pts[i], radius)
	}
	for _, p := range pts {
		addDisc(z, p, radius)
	}
	z.Draw(o.dst, b, image.NewUniform(d.Color.NRGBA(1)), image.Point{})
}

func (o *overlay) text(t models.TextAnnotation, size float64) error {
	face, err := opentype.NewFace(o.font, &opentype.FaceOptions{
		Size:    size * o.factor,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("create font face: %w", err)
	}
	defer face.Close()

	// Position is the top-left of the text box; the drawer wants the baseline
	pos := t.Position.Scale(o.factor)
	ascent := face.Metrics().Ascent
	drawer := font.Drawer{
		Dst:  o.dst,
		Src:  image.NewUniform(t.Color.NRGBA(1)),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(pos.X * 64), Y: fixed.Int26_6(pos.Y*64) + ascent},
	}
	drawer.DrawString(t.Content)
	return nil
}

func (o *overlay) signature(s models.SignatureAnnotation) error {
	src, _, err := image.Decode(bytes.NewReader(s.ImageData))
	if err != nil {
		return models.NewError(models.KindInvalidInput, "decode signature", err)
	}
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 || s.DisplayWidth <= 0 {
		return nil
	}
	w := s.DisplayWidth * o.factor
	h := w * float64(sb.Dy()) / float64(sb.Dx())
	pos := s.Position.Scale(o.factor)
	rect := image.Rect(
		int(math.Round(pos.X)),
		int(math.Round(pos.Y)),
		int(math.Round(pos.X+w)),
		int(math.Round(pos.Y+h)),
	)
	xdraw.CatmullRom.Scale(o.dst, rect, src, sb, xdraw.Over, nil)
	return nil
}

// addSegment adds the rectangle covering a stroke segment of the given half-width
func addSegment(z *vector.Rasterizer, a, b models.Point, radius float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*radius, dx/length*radius
	addPolygon(z, []models.Point{
		{X: a.X + nx, Y: a.Y + ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: a.X - nx, Y: a.Y - ny},
	})
}

// addDisc adds a round join or cap
func addDisc(z *vector.Rasterizer, c models.Point, radius float64) {
	const steps = 16
	pts := make([]models.Point, steps)
	for i := range pts {
		angle := 2 * math.Pi * float64(i) / steps
		pts[i] = models.Point{X: c.X + radius*math.Cos(angle), Y: c.Y + radius*math.Sin(angle)}
	}
	addPolygon(z, pts)
}

// addPolygon adds a closed path with a consistent winding so overlapping
// pieces of one stroke accumulate instead of cancelling
func addPolygon(z *vector.Rasterizer, pts []models.Point) {
	var area float64
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	if area < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
}
