// -----------------------------------------------------------------------
// PDF Editor - byte-level page mutation through pdfcpu
// -----------------------------------------------------------------------

package pdf

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/models"
)

func init() {
	// Keep pdfcpu from creating a config directory under the user's home
	model.ConfigPath = "disable"
}

// Editor implements interfaces.PDFDocumentEditor using pdfcpu
type Editor struct {
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.PDFDocumentEditor = (*Editor)(nil)

// NewEditor creates a new pdfcpu-backed editor
func NewEditor(logger arbor.ILogger) *Editor {
	return &Editor{logger: logger}
}

func (e *Editor) conf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	// Plain xref tables keep the output readable by the text extractor
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}

// Validate checks that data parses as a PDF
func (e *Editor) Validate(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty PDF content")
	}
	if err := api.Validate(bytes.NewReader(data), e.conf()); err != nil {
		return fmt.Errorf("invalid PDF: %w", err)
	}
	return nil
}

// CopyPages builds a document from the listed pages in the listed order
func (e *Editor) CopyPages(ctx context.Context, data []byte, pages []int) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages selected")
	}
	selected := make([]string, len(pages))
	for i, p := range pages {
		selected[i] = strconv.Itoa(p)
	}

	var out bytes.Buffer
	if err := api.Collect(bytes.NewReader(data), &out, selected, e.conf()); err != nil {
		return nil, fmt.Errorf("failed to collect pages %v: %w", pages, err)
	}
	e.logger.Debug().Int("pages", len(pages)).Int("bytes", out.Len()).Msg("Collected pages")
	return out.Bytes(), nil
}

// RotatePages adds each page's clockwise rotation to its /Rotate attribute.
// Pages sharing an angle are rotated in one pass.
func (e *Editor) RotatePages(ctx context.Context, data []byte, rotations map[int]int) ([]byte, error) {
	byAngle := make(map[int][]string)
	for page, deg := range rotations {
		deg = models.NormalizeRotation(deg)
		if deg == 0 {
			continue
		}
		byAngle[deg] = append(byAngle[deg], strconv.Itoa(page))
	}
	if len(byAngle) == 0 {
		return data, nil
	}

	angles := make([]int, 0, len(byAngle))
	for deg := range byAngle {
		angles = append(angles, deg)
	}
	sort.Ints(angles)

	current := data
	for _, deg := range angles {
		pages := byAngle[deg]
		sort.Strings(pages)
		var out bytes.Buffer
		if err := api.Rotate(bytes.NewReader(current), &out, deg, pages, e.conf()); err != nil {
			return nil, fmt.Errorf("failed to rotate pages %v by %d: %w", pages, deg, err)
		}
		current = out.Bytes()
	}
	return current, nil
}
