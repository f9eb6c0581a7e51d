package filters

import (
	"image"

	"github.com/ternarybob/pdfdesk/internal/models"
)

// Engine holds the single active filter. Selecting a filter replaces the
// previous one; filters never stack. Not safe for concurrent use.
type Engine struct {
	active models.FilterName
}

// NewEngine creates an engine with no filter
func NewEngine() *Engine {
	return &Engine{active: models.FilterNone}
}

// Select makes name the active filter
func (e *Engine) Select(name models.FilterName) {
	if name == "" {
		name = models.FilterNone
	}
	e.active = name
}

// Remove returns to no filter
func (e *Engine) Remove() {
	e.active = models.FilterNone
}

// Active returns the active filter
func (e *Engine) Active() models.FilterName {
	return e.active
}

// Preview returns the CSS descriptor for the live view
func (e *Engine) Preview() string {
	return PreviewCSS(e.active)
}

// ApplyTo runs the active filter over img in place
func (e *Engine) ApplyTo(img *image.RGBA) {
	Apply(img, e.active)
}
