package export

import (
	"github.com/ternarybob/pdfdesk/internal/models"
)

// PageState is everything needed to flatten one page
type PageState struct {
	Number       int // 1-based position in the current order
	Original     int // 1-based page of the base document
	Rotation     int
	DisplayScale float64 // Canvas pixels per point the annotations were placed at
	Annotations  models.PageAnnotations
	Filter       models.FilterName
}

// Source supplies page states while an export runs. A live source reads the
// editor state at the moment each page is processed; a static source returns
// the state captured when the export was triggered.
type Source interface {
	PageCount() int
	PageState(page int) (PageState, error)
}

// StaticSource is a Source frozen at creation
type StaticSource []PageState

func (s StaticSource) PageCount() int {
	return len(s)
}

func (s StaticSource) PageState(page int) (PageState, error) {
	if page < 1 || page > len(s) {
		return PageState{}, models.Errorf(models.KindInvalidInput, "page state", "page %d out of range 1..%d", page, len(s))
	}
	return s[page-1], nil
}

// Options selects which flattening steps run
type Options struct {
	Annotations bool // Draw overlays onto the raster
	Filter      bool // Apply the page filter
	Rotate      bool // Turn the raster by the page rotation
}

// FullFlatten runs every step
var FullFlatten = Options{Annotations: true, Filter: true, Rotate: true}
