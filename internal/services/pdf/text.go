// -----------------------------------------------------------------------
// Text Extractor - positioned text runs through ledongthuc/pdf
// -----------------------------------------------------------------------

package pdf

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/models"
)

// TextExtractor implements interfaces.TextExtractor. Glyphs reported by the
// reader are merged into runs along a baseline.
type TextExtractor struct {
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.TextExtractor = (*TextExtractor)(nil)

// NewTextExtractor creates a text extractor
func NewTextExtractor(logger arbor.ILogger) *TextExtractor {
	return &TextExtractor{logger: logger}
}

// ExtractPage returns the text runs of a 1-based page, top-left origin
func (x *TextExtractor) ExtractPage(ctx context.Context, data []byte, page int) (runs []models.TextRun, err error) {
	// The reader panics on some malformed content streams
	defer func() {
		if r := recover(); r != nil {
			x.logger.Warn().Int("page", page).Str("panic", fmt.Sprintf("%v", r)).Msg("Text extraction panicked")
			runs = nil
			err = models.Errorf(models.KindRenderFailure, "extract text", "page %d: %v", page, r)
		}
	}()

	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	if page < 1 || page > reader.NumPage() {
		return nil, models.Errorf(models.KindInvalidInput, "extract text", "page %d out of range 1..%d", page, reader.NumPage())
	}

	p := reader.Page(page)
	if p.V.IsNull() {
		return []models.TextRun{}, nil
	}

	height := mediaBoxHeight(p.V)
	return mergeGlyphs(p.Content().Text, height), nil
}

// mediaBoxHeight walks up the page tree for an inherited MediaBox
func mediaBoxHeight(v ledongthuc.Value) float64 {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			return box.Index(3).Float64() - box.Index(1).Float64()
		}
		v = v.Key("Parent")
	}
	return 0
}

// mergeGlyphs joins adjacent glyphs that share a baseline and font size.
// When height is known, Y is flipped so it grows downward from the top.
func mergeGlyphs(glyphs []ledongthuc.Text, height float64) []models.TextRun {
	runs := []models.TextRun{}
	var cur *models.TextRun
	var end float64

	flush := func() {
		if cur != nil && strings.TrimSpace(cur.Text) != "" {
			cur.Text = strings.TrimSpace(cur.Text)
			runs = append(runs, *cur)
		}
		cur = nil
	}

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		y := g.Y
		if height > 0 {
			y = height - g.Y
		}
		tolerance := math.Max(g.FontSize*0.3, 1)
		if cur != nil && math.Abs(cur.Y-y) < 0.5 && cur.FontSize == g.FontSize && math.Abs(g.X-end) <= tolerance {
			cur.Text += g.S
			end = g.X + g.W
			cur.Width = end - cur.X
			continue
		}
		flush()
		cur = &models.TextRun{Text: g.S, X: g.X, Y: y, Width: g.W, FontSize: g.FontSize, Font: g.Font}
		end = g.X + g.W
	}
	flush()

	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Y != runs[j].Y {
			return runs[i].Y < runs[j].Y
		}
		return runs[i].X < runs[j].X
	})
	return runs
}
