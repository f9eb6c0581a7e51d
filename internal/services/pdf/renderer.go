// -----------------------------------------------------------------------
// PDF Renderer - on-demand page rasterization through MuPDF (go-fitz)
// -----------------------------------------------------------------------

package pdf

import (
	"context"
	"fmt"
	"image"
	"image/draw"

	"github.com/gen2brain/go-fitz"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/models"
	"github.com/ternarybob/pdfdesk/internal/services/coords"
)

// FitzRenderer implements interfaces.PDFRenderer with MuPDF
type FitzRenderer struct {
	text   interfaces.TextExtractor
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.PDFRenderer = (*FitzRenderer)(nil)

// NewFitzRenderer creates a renderer. Text runs come from the given extractor.
func NewFitzRenderer(text interfaces.TextExtractor, logger arbor.ILogger) *FitzRenderer {
	return &FitzRenderer{
		text:   text,
		logger: logger,
	}
}

// LoadDocument opens data for rendering. The returned document must be closed.
func (r *FitzRenderer) LoadDocument(ctx context.Context, data []byte) (interfaces.RenderedDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, models.NewError(models.KindRenderFailure, "load document", err)
	}
	return &fitzDocument{
		doc:    doc,
		data:   data,
		text:   r.text,
		logger: r.logger,
	}, nil
}

type fitzDocument struct {
	doc    *fitz.Document
	data   []byte
	text   interfaces.TextExtractor
	logger arbor.ILogger
}

func (d *fitzDocument) PageCount() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) PageSize(page int) (models.PageSize, error) {
	if page < 1 || page > d.doc.NumPage() {
		return models.PageSize{}, models.Errorf(models.KindInvalidInput, "page size", "page %d out of range 1..%d", page, d.doc.NumPage())
	}
	b, err := d.doc.Bound(page - 1)
	if err != nil {
		return models.PageSize{}, models.NewError(models.KindRenderFailure, "page size", err)
	}
	return models.PageSize{Width: float64(b.Dx()), Height: float64(b.Dy())}, nil
}

// RenderPage rasterizes at 72*scale dpi and then turns the raster clockwise
func (d *fitzDocument) RenderPage(ctx context.Context, page int, scale float64, rotation int) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page < 1 || page > d.doc.NumPage() {
		return nil, models.Errorf(models.KindInvalidInput, "render page", "page %d out of range 1..%d", page, d.doc.NumPage())
	}
	if scale <= 0 {
		scale = 1
	}

	img, err := d.doc.ImageDPI(page-1, 72*scale)
	if err != nil {
		return nil, models.NewError(models.KindRenderFailure, fmt.Sprintf("render page %d", page), err)
	}

	// MuPDF returns a sub-image with a non-zero origin for some documents
	if img.Bounds().Min != (image.Point{}) {
		normalized := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
		draw.Draw(normalized, normalized.Bounds(), img, img.Bounds().Min, draw.Src)
		img = normalized
	}

	d.logger.Debug().
		Int("page", page).
		Float64("scale", scale).
		Int("rotation", rotation).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Rendered page")

	return coords.RotateImage(img, rotation), nil
}

func (d *fitzDocument) TextContent(ctx context.Context, page int) ([]models.TextRun, error) {
	return d.text.ExtractPage(ctx, d.data, page)
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
