// Package pdftest builds small PDFs and provides a deterministic renderer for
// tests that cannot rely on MuPDF being available.
package pdftest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"testing"

	"github.com/go-pdf/fpdf"
	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/models"
	"github.com/ternarybob/pdfdesk/internal/services/coords"
)

// Letter is a US Letter page in points
var Letter = models.PageSize{Width: 612, Height: 792}

// NewDocument builds an uncompressed PDF with one page per size. Each page
// carries the text "Page N".
func NewDocument(t testing.TB, sizes ...models.PageSize) []byte {
	t.Helper()
	data, err := Build(sizes...)
	if err != nil {
		t.Fatalf("build test PDF: %v", err)
	}
	return data
}

// Build is NewDocument without a testing.TB
func Build(sizes ...models.PageSize) ([]byte, error) {
	if len(sizes) == 0 {
		sizes = []models.PageSize{Letter}
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: sizes[0].Width, Ht: sizes[0].Height},
	})
	pdf.SetCompression(false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 12)
	for i, size := range sizes {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: size.Width, Ht: size.Height})
		pdf.Text(36, 48, fmt.Sprintf("Page %d", i+1))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PageSizes reads the page sizes of data with ledongthuc/pdf, independently of
// the pdfcpu and MuPDF code under test. MediaBox and Rotate are resolved
// through the page tree.
func PageSizes(t testing.TB, data []byte) []models.PageSize {
	t.Helper()
	sizes, err := ReadPageSizes(data)
	if err != nil {
		t.Fatalf("read page sizes: %v", err)
	}
	return sizes
}

// ReadPageSizes is PageSizes without a testing.TB. Pages with /Rotate 90 or
// 270 report their displayed, swapped size.
func ReadPageSizes(data []byte) (sizes []models.PageSize, err error) {
	// ledongthuc/pdf panics on some malformed input
	defer func() {
		if p := recover(); p != nil {
			sizes, err = nil, fmt.Errorf("read page sizes: %v", p)
		}
	}()

	r, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	sizes = make([]models.PageSize, r.NumPage())
	for i := range sizes {
		page := r.Page(i + 1).V
		box := inherited(page, "MediaBox")
		if box.Len() != 4 {
			return nil, fmt.Errorf("page %d has no MediaBox", i+1)
		}
		size := models.PageSize{
			Width:  math.Abs(box.Index(2).Float64() - box.Index(0).Float64()),
			Height: math.Abs(box.Index(3).Float64() - box.Index(1).Float64()),
		}
		if rot := models.NormalizeRotation(int(inherited(page, "Rotate").Int64())); rot == 90 || rot == 270 {
			size.Width, size.Height = size.Height, size.Width
		}
		sizes[i] = size
	}
	return sizes, nil
}

// inherited looks key up on v and then on its ancestors in the page tree
func inherited(v ledongthuc.Value, key string) ledongthuc.Value {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		if val := v.Key(key); !val.IsNull() {
			return val
		}
		v = v.Key("Parent")
	}
	return ledongthuc.Value{}
}

// PageCount reads the page count of data with pdfcpu
func PageCount(t testing.TB, data []byte) int {
	t.Helper()
	n, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		t.Fatalf("count pages: %v", err)
	}
	return n
}

// Renderer renders every page as a solid fill of the page's displayed size,
// read from the document with ReadPageSizes. Page colors can be set per page.
type Renderer struct {
	mu sync.Mutex

	// Fill is the color of pages without an entry in PageColors
	Fill color.RGBA
	// PageColors maps 1-based page numbers to fill colors
	PageColors map[int]color.RGBA
	// FailOn makes RenderPage fail for the given page numbers
	FailOn map[int]bool
	// Text is returned by TextContent for every page
	Text []models.TextRun

	renders []RenderCall
}

// RenderCall records one RenderPage invocation
type RenderCall struct {
	Page     int
	Scale    float64
	Rotation int
}

// NewRenderer creates a renderer that paints white pages
func NewRenderer() *Renderer {
	return &Renderer{
		Fill:       color.RGBA{255, 255, 255, 255},
		PageColors: map[int]color.RGBA{},
		FailOn:     map[int]bool{},
	}
}

var _ interfaces.PDFRenderer = (*Renderer)(nil)

// Calls returns the recorded render calls
func (r *Renderer) Calls() []RenderCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RenderCall(nil), r.renders...)
}

func (r *Renderer) LoadDocument(ctx context.Context, data []byte) (interfaces.RenderedDocument, error) {
	sizes, err := ReadPageSizes(data)
	if err != nil {
		return nil, models.NewError(models.KindRenderFailure, "load document", err)
	}
	return &document{renderer: r, sizes: sizes}, nil
}

type document struct {
	renderer *Renderer
	sizes    []models.PageSize
}

func (d *document) PageCount() int {
	return len(d.sizes)
}

func (d *document) PageSize(page int) (models.PageSize, error) {
	if page < 1 || page > len(d.sizes) {
		return models.PageSize{}, models.Errorf(models.KindInvalidInput, "page size", "page %d out of range", page)
	}
	return d.sizes[page-1], nil
}

func (d *document) RenderPage(ctx context.Context, page int, scale float64, rotation int) (*image.RGBA, error) {
	r := d.renderer
	r.mu.Lock()
	r.renders = append(r.renders, RenderCall{Page: page, Scale: scale, Rotation: rotation})
	fail := r.FailOn[page]
	fill, ok := r.PageColors[page]
	if !ok {
		fill = r.Fill
	}
	r.mu.Unlock()

	if fail {
		return nil, models.Errorf(models.KindRenderFailure, "render page", "page %d failed", page)
	}
	size, err := d.PageSize(page)
	if err != nil {
		return nil, err
	}

	w := int(size.Width*scale + 0.5)
	h := int(size.Height*scale + 0.5)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = fill.R, fill.G, fill.B, fill.A
	}
	return coords.RotateImage(img, rotation), nil
}

func (d *document) TextContent(ctx context.Context, page int) ([]models.TextRun, error) {
	if _, err := d.PageSize(page); err != nil {
		return nil, err
	}
	return append([]models.TextRun{}, d.renderer.Text...), nil
}

func (d *document) Close() error {
	return nil
}
