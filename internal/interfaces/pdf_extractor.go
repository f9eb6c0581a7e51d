package interfaces

import (
	"context"

	"github.com/ternarybob/pdfdesk/internal/models"
)

// TextExtractor reads positioned text runs from PDF bytes.
// Coordinates are points from the top-left of the un-rotated page.
type TextExtractor interface {
	ExtractPage(ctx context.Context, data []byte, page int) ([]models.TextRun, error)
}
