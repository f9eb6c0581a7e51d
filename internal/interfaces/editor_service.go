package interfaces

import (
	"context"

	"github.com/ternarybob/pdfdesk/internal/models"
)

// EditorSession is one open document with its annotations, page edits,
// undo stack and export pipeline. All methods are safe for concurrent use;
// mutations are serialized per session.
type EditorSession interface {
	ID() string
	Filename() string
	View() models.SessionView

	// Document returns the current page-edited PDF bytes
	Document() []byte

	// Tool and gesture input
	SetTool(tool models.Tool)
	ResetTool()
	LoadSignature(imageData []byte, displayWidth float64) error
	HandlePointer(ctx context.Context, ev models.PointerEvent) error
	CommitText(content string, color string) (string, error)
	CancelText()

	// Annotations. Page 0 means the current page.
	AddText(page int, pos models.Point, content string, color string) (string, error)
	AddHighlight(page int, from, to models.Point, color string) (string, error)
	AddDrawing(page int, points []models.Point, color string) (string, error)
	AddSignature(ctx context.Context, page int, pos models.Point, imageData []byte, displayWidth float64) (string, error)
	RemoveAnnotation(kind models.AnnotationKind, id string)
	MoveAnnotation(kind models.AnnotationKind, id string, pos models.Point) error
	Annotations(page int) (models.PageAnnotations, error)

	// Navigation
	GoToPage(page int) error
	NavigateBack() bool
	NavigateForward() bool

	// Page edits
	RotatePage(ctx context.Context, page int) error
	DeletePage(ctx context.Context, page int) error
	ReorderPages(ctx context.Context, order []int) error
	Undo(ctx context.Context) (bool, error)

	// Filters
	SetFilter(name models.FilterName)
	BakeFilter(ctx context.Context) error

	// Rendering
	RegisterViewport(page int, vp models.Viewport) error
	RenderPreview(ctx context.Context, page int, scale float64) ([]byte, error)
	TextContent(ctx context.Context, page int) ([]models.TextRun, error)

	// Export
	Export(ctx context.Context, req models.ExportRequest) (*models.ExportResult, error)
	StartExport(req models.ExportRequest) error
	ExportState() models.ExportState
	ExportResult() (*models.ExportResult, error)
	DismissExport()
}

// EditorService owns the open sessions
type EditorService interface {
	Open(ctx context.Context, filename string, data []byte) (EditorSession, error)
	Get(id string) (EditorSession, error)
	List() []models.SessionSummary
	CloseSession(ctx context.Context, id string) error
	EvictIdle(ctx context.Context) int
	Close() error
}
