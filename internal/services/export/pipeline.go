package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/pdfdesk/internal/common"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/models"
	"github.com/ternarybob/pdfdesk/internal/services/coords"
	"github.com/ternarybob/pdfdesk/internal/services/filters"
)

// Pipeline rasterizes pages, bakes overlays and filters into them and
// assembles the results. Pages are processed one at a time, in order, so
// at most one page raster is alive.
type Pipeline struct {
	renderer interfaces.PDFRenderer
	composer interfaces.PDFComposer
	config   common.EditorConfig
	mapper   coords.Mapper
	logger   arbor.ILogger
}

// NewPipeline creates an export pipeline
func NewPipeline(renderer interfaces.PDFRenderer, composer interfaces.PDFComposer, config common.EditorConfig, logger arbor.ILogger) *Pipeline {
	return &Pipeline{
		renderer: renderer,
		composer: composer,
		config:   config,
		mapper:   coords.NewMapper(config.ExportScale, config.FallbackDisplayScale),
		logger:   logger,
	}
}

// Mapper returns the coordinate mapper built from the editor config
func (p *Pipeline) Mapper() coords.Mapper {
	return p.mapper
}

// FlattenPage runs the per-page steps: rasterize the base page at the export
// scale, draw highlights, drawings, text and signatures, apply the filter and
// turn the raster by the page rotation.
func (p *Pipeline) FlattenPage(ctx context.Context, doc interfaces.RenderedDocument, st PageState, opts Options) (*image.RGBA, error) {
	img, err := doc.RenderPage(ctx, st.Original, p.mapper.ExportScale, 0)
	if err != nil {
		return nil, err
	}

	if opts.Annotations && !st.Annotations.Empty() {
		o := &overlay{
			dst:     img,
			factor:  p.mapper.Factor(st.DisplayScale),
			font:    regularFont,
			opacity: p.config.HighlightOpacity,
		}
		for _, h := range st.Annotations.Highlights {
			o.highlight(h)
		}
		for _, d := range st.Annotations.Drawings {
			o.drawing(d)
		}
		for _, t := range st.Annotations.Texts {
			if err := o.text(t, p.config.TextFontSize); err != nil {
				return nil, err
			}
		}
		for _, s := range st.Annotations.Signatures {
			if err := o.signature(s); err != nil {
				return nil, err
			}
		}
	}

	if opts.Filter {
		filters.Apply(img, st.Filter)
	}

	if opts.Rotate {
		img = coords.RotateImage(img, st.Rotation)
	}
	return img, nil
}

// ExportPDF flattens every page of src into a new PDF. Any failure discards
// the whole document.
func (p *Pipeline) ExportPDF(ctx context.Context, base []byte, src Source, opts Options) ([]byte, error) {
	start := time.Now()

	doc, err := p.renderer.LoadDocument(ctx, base)
	if err != nil {
		return nil, renderFailure("load document", err)
	}
	defer doc.Close()

	out := p.composer.NewDocument()
	// PageCount is re-read every iteration so a live source sees deletions
	for n := 1; n <= src.PageCount(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, renderFailure("export", err)
		}
		st, err := src.PageState(n)
		if err != nil {
			return nil, renderFailure(fmt.Sprintf("read page %d", n), err)
		}

		// with nothing rasterized onto it, a page keeps its turn as a /Rotate attribute
		pageOpts := opts
		rotateAttr := opts.Rotate && models.NormalizeRotation(st.Rotation) != 0 &&
			(!opts.Annotations || st.Annotations.Empty())
		if rotateAttr {
			pageOpts.Rotate = false
		}

		img, err := p.FlattenPage(ctx, doc, st, pageOpts)
		if err != nil {
			return nil, renderFailure(fmt.Sprintf("flatten page %d", n), err)
		}

		size, err := doc.PageSize(st.Original)
		if err != nil {
			return nil, renderFailure(fmt.Sprintf("page %d size", n), err)
		}
		if pageOpts.Rotate {
			size = size.Rotated(st.Rotation)
		}

		encoded, err := EncodePNG(img)
		if err != nil {
			return nil, renderFailure(fmt.Sprintf("encode page %d", n), err)
		}
		handle, err := out.EmbedImage(encoded, "png")
		if err != nil {
			return nil, renderFailure(fmt.Sprintf("embed page %d", n), err)
		}
		page := out.AddPage(size)
		if err := page.DrawImage(handle, models.Rect{Width: size.Width, Height: size.Height}); err != nil {
			return nil, renderFailure(fmt.Sprintf("draw page %d", n), err)
		}
		if rotateAttr {
			if err := page.SetRotation(st.Rotation); err != nil {
				return nil, renderFailure(fmt.Sprintf("rotate page %d", n), err)
			}
		}

		p.logger.Debug().
			Int("page", n).
			Int("original", st.Original).
			Int("rotation", st.Rotation).
			Bool("rotate_attribute", rotateAttr).
			Str("filter", string(st.Filter)).
			Msg("Flattened page")
	}

	var buf bytes.Buffer
	if err := out.Save(ctx, &buf); err != nil {
		return nil, renderFailure("save document", err)
	}

	p.logger.Info().
		Int("pages", out.PageCount()).
		Int("bytes", buf.Len()).
		Dur("duration", time.Since(start)).
		Msg("PDF export complete")

	return buf.Bytes(), nil
}

// ExportImages renders the selected pages to PNG. One page yields a PNG, more
// yield a ZIP with one page-{n}.png entry per page. pages holds current page
// numbers; empty selects every page.
func (p *Pipeline) ExportImages(ctx context.Context, base []byte, src Source, pages []int, filename string, opts Options) (*models.ExportResult, error) {
	start := time.Now()

	if len(pages) == 0 {
		for n := 1; n <= src.PageCount(); n++ {
			pages = append(pages, n)
		}
	}
	if len(pages) == 0 {
		return nil, models.Errorf(models.KindInvalidInput, "export images", "no pages selected")
	}

	doc, err := p.renderer.LoadDocument(ctx, base)
	if err != nil {
		return nil, renderFailure("load document", err)
	}
	defer doc.Close()

	render := func(n int) ([]byte, error) {
		st, err := src.PageState(n)
		if err != nil {
			return nil, err
		}
		img, err := p.FlattenPage(ctx, doc, st, opts)
		if err != nil {
			return nil, renderFailure(fmt.Sprintf("flatten page %d", n), err)
		}
		encoded, err := EncodePNG(img)
		if err != nil {
			return nil, renderFailure(fmt.Sprintf("encode page %d", n), err)
		}
		return encoded, nil
	}

	if len(pages) == 1 {
		data, err := render(pages[0])
		if err != nil {
			return nil, err
		}
		return &models.ExportResult{
			Filename:    withExtension(filename, fmt.Sprintf("page-%d", pages[0]), ".png"),
			ContentType: "image/png",
			Data:        data,
		}, nil
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, n := range pages {
		data, err := render(n)
		if err != nil {
			return nil, err
		}
		w, err := zw.Create(fmt.Sprintf("page-%d.png", n))
		if err != nil {
			return nil, renderFailure("zip entry", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, renderFailure("zip entry", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, renderFailure("zip close", err)
	}

	p.logger.Info().
		Int("pages", len(pages)).
		Int("bytes", buf.Len()).
		Dur("duration", time.Since(start)).
		Msg("Image export complete")

	return &models.ExportResult{
		Filename:    withExtension(filename, "pages", ".zip"),
		ContentType: "application/zip",
		Data:        buf.Bytes(),
	}, nil
}

// PDFFilename applies the configured default and the .pdf extension
func (p *Pipeline) PDFFilename(name string) string {
	return withExtension(name, strings.TrimSuffix(p.config.DefaultFilename, ".pdf"), ".pdf")
}

func withExtension(name, fallback, ext string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fallback
	}
	if !strings.HasSuffix(strings.ToLower(name), ext) {
		name = strings.TrimSuffix(name, ".pdf")
		name += ext
	}
	return name
}

// EncodePNG encodes a raster with fast compression
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderFailure tags err as a render failure unless it already carries a kind
func renderFailure(op string, err error) error {
	var ee *models.EditorError
	if errors.As(err, &ee) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return models.NewError(models.KindRenderFailure, op, err)
}
