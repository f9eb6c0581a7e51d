// -----------------------------------------------------------------------
// PDF Composer - assembles flattened documents from page rasters with fpdf
// -----------------------------------------------------------------------

package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/models"
)

// Composer implements interfaces.PDFComposer using fpdf. Page rotation
// attributes are applied after serialization through the editor, since fpdf
// has no /Rotate support.
type Composer struct {
	editor interfaces.PDFDocumentEditor
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.PDFComposer = (*Composer)(nil)

// NewComposer creates a composer
func NewComposer(editor interfaces.PDFDocumentEditor, logger arbor.ILogger) *Composer {
	return &Composer{editor: editor, logger: logger}
}

// NewDocument starts an empty document
func (c *Composer) NewDocument() interfaces.ComposedDocument {
	return &composedDocument{
		composer:  c,
		images:    make(map[interfaces.ImageHandle]bool),
		rotations: make(map[int]int),
	}
}

type composedDocument struct {
	composer  *Composer
	pdf       *fpdf.Fpdf
	images    map[interfaces.ImageHandle]bool
	rotations map[int]int
	pages     int
	err       error
}

func (d *composedDocument) ensure(size models.PageSize) {
	if d.pdf != nil {
		return
	}
	d.pdf = fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: size.Width, Ht: size.Height},
	})
	d.pdf.SetMargins(0, 0, 0)
	d.pdf.SetAutoPageBreak(false, 0)
	d.pdf.SetCompression(true)
	d.pdf.SetCreator("pdfdesk", true)
}

// EmbedImage registers an encoded image. The document must have at least one
// page, or the first page size is taken from the next AddPage call.
func (d *composedDocument) EmbedImage(data []byte, format string) (interfaces.ImageHandle, error) {
	if d.err != nil {
		return "", d.err
	}
	imageType := strings.ToUpper(format)
	switch imageType {
	case "PNG", "JPEG", "JPG":
	default:
		return "", fmt.Errorf("unsupported image format %q", format)
	}
	d.ensure(models.PageSize{Width: 612, Height: 792})

	handle := interfaces.ImageHandle(fmt.Sprintf("img%d", len(d.images)+1))
	d.pdf.RegisterImageOptionsReader(string(handle), fpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	if err := d.pdf.Error(); err != nil {
		d.err = fmt.Errorf("failed to embed image: %w", err)
		return "", d.err
	}
	d.images[handle] = true
	return handle, nil
}

// AddPage appends a page of exactly size points
func (d *composedDocument) AddPage(size models.PageSize) interfaces.ComposedPage {
	d.ensure(size)
	d.pdf.AddPageFormat("P", fpdf.SizeType{Wd: size.Width, Ht: size.Height})
	d.pages++
	return &composedPage{doc: d, number: d.pages, size: size}
}

func (d *composedDocument) PageCount() int {
	return d.pages
}

// Save writes the document. Output is fully buffered so a failure never
// leaves a partial document in w.
func (d *composedDocument) Save(ctx context.Context, w io.Writer) error {
	if d.err != nil {
		return d.err
	}
	if d.pages == 0 {
		return fmt.Errorf("document has no pages")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return fmt.Errorf("failed to serialize PDF: %w", err)
	}

	data := buf.Bytes()
	if len(d.rotations) > 0 {
		rotated, err := d.composer.editor.RotatePages(ctx, data, d.rotations)
		if err != nil {
			return fmt.Errorf("failed to apply page rotation: %w", err)
		}
		data = rotated
	}

	d.composer.logger.Debug().Int("pages", d.pages).Int("bytes", len(data)).Msg("Composed PDF")
	_, err := w.Write(data)
	return err
}

type composedPage struct {
	doc    *composedDocument
	number int
	size   models.PageSize
}

func (p *composedPage) Number() int {
	return p.number
}

// DrawImage places an embedded image on this page. rect is in points from the
// top-left corner.
func (p *composedPage) DrawImage(img interfaces.ImageHandle, rect models.Rect) error {
	d := p.doc
	if d.err != nil {
		return d.err
	}
	if !d.images[img] {
		return fmt.Errorf("unknown image %q", img)
	}
	if p.number != d.pages {
		return fmt.Errorf("page %d is no longer the current page", p.number)
	}
	d.pdf.ImageOptions(string(img), rect.X, rect.Y, rect.Width, rect.Height, false, fpdf.ImageOptions{}, 0, "")
	if err := d.pdf.Error(); err != nil {
		d.err = fmt.Errorf("failed to draw image: %w", err)
		return d.err
	}
	return nil
}

// SetRotation records a page-level rotation, applied on Save
func (p *composedPage) SetRotation(angle int) error {
	if angle%90 != 0 {
		return models.Errorf(models.KindInvalidInput, "set rotation", "rotation %d is not a multiple of 90", angle)
	}
	if deg := models.NormalizeRotation(angle); deg != 0 {
		p.doc.rotations[p.number] = deg
	} else {
		delete(p.doc.rotations, p.number)
	}
	return nil
}
