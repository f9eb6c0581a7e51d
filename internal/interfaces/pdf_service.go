package interfaces

import (
	"context"
	"image"
	"io"

	"github.com/ternarybob/pdfdesk/internal/models"
)

// PDFRenderer opens documents for rasterization. Pages are rendered on demand.
type PDFRenderer interface {
	LoadDocument(ctx context.Context, data []byte) (RenderedDocument, error)
}

// RenderedDocument is an opened document. Page numbers are 1-based.
type RenderedDocument interface {
	PageCount() int

	// PageSize returns the page size in points as the renderer draws it at rotation 0
	PageSize(page int) (models.PageSize, error)

	// RenderPage rasterizes a page at scale (1.0 = 72 dpi), rotated clockwise by rotation degrees
	RenderPage(ctx context.Context, page int, scale float64, rotation int) (*image.RGBA, error)

	// TextContent returns the positioned text runs of a page
	TextContent(ctx context.Context, page int) ([]models.TextRun, error)

	Close() error
}

// PDFDocumentEditor mutates PDF bytes. Every call returns a new buffer and
// leaves its input untouched.
type PDFDocumentEditor interface {
	Validate(ctx context.Context, data []byte) error

	// CopyPages builds a document from the given 1-based pages, in that order
	CopyPages(ctx context.Context, data []byte, pages []int) ([]byte, error)

	// RotatePages adds a clockwise rotation to each listed page's /Rotate attribute
	RotatePages(ctx context.Context, data []byte, rotations map[int]int) ([]byte, error)
}

// ImageHandle references an image embedded in a ComposedDocument
type ImageHandle string

// PDFComposer builds new documents out of full-page images
type PDFComposer interface {
	NewDocument() ComposedDocument
}

// ComposedDocument is a document under construction
type ComposedDocument interface {
	// EmbedImage registers encoded image bytes ("png" or "jpeg") for later drawing
	EmbedImage(data []byte, format string) (ImageHandle, error)

	// AddPage appends a page of the given size in points
	AddPage(size models.PageSize) ComposedPage

	PageCount() int

	// Save serializes the document. Nothing is written when an earlier step failed.
	Save(ctx context.Context, w io.Writer) error
}

// ComposedPage is one page of a ComposedDocument
type ComposedPage interface {
	Number() int
	DrawImage(img ImageHandle, rect models.Rect) error

	// SetRotation stores a clockwise page-level /Rotate, leaving the drawn content as is
	SetRotation(angle int) error
}
