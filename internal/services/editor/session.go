package editor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pdfdesk/internal/common"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/models"
	"github.com/ternarybob/pdfdesk/internal/services/annotations"
	"github.com/ternarybob/pdfdesk/internal/services/coords"
	"github.com/ternarybob/pdfdesk/internal/services/export"
	"github.com/ternarybob/pdfdesk/internal/services/filters"
	"github.com/ternarybob/pdfdesk/internal/services/pages"
	"github.com/ternarybob/pdfdesk/internal/services/undo"
)

// maxPreviewScale bounds RenderPreview so one request cannot allocate a huge raster
const maxPreviewScale = 8.0

// signature is the image loaded for the Signature tool
type signature struct {
	data  []byte
	width float64
}

// deps are the collaborators shared by all sessions of a Service
type deps struct {
	editor   interfaces.PDFDocumentEditor
	renderer interfaces.PDFRenderer
	pipeline *export.Pipeline
	storage  interfaces.SnapshotStorage
	events   interfaces.EventService
	config   *common.Config
	logger   arbor.ILogger
}

// Session is one open document. Every exported method takes the session
// lock, so mutations are applied one at a time in arrival order.
type Session struct {
	id        string
	filename  string
	createdAt time.Time

	mu           sync.Mutex
	base         []byte // document the page transform indexes into
	document     []byte // base with the page transform applied
	sizes        []models.PageSize
	annotations  *annotations.Store
	pages        *pages.Store
	history      *pages.History
	undo         *undo.Stack
	filter       *filters.Engine
	tool         models.Tool
	gesture      gesture
	signature    *signature
	viewports    map[int]models.Viewport // keyed by original page index
	exportState  models.ExportState
	exportResult *models.ExportResult
	version      uint64
	updatedAt    time.Time
	lastActivity time.Time

	deps
}

var _ interfaces.EditorSession = (*Session)(nil)

func newSession(id, filename string, data []byte, sizes []models.PageSize, d deps) *Session {
	now := time.Now()
	return &Session{
		id:           id,
		filename:     filename,
		createdAt:    now,
		base:         data,
		document:     data,
		sizes:        sizes,
		annotations:  annotations.NewStore(),
		pages:        pages.NewStore(len(sizes)),
		history:      pages.NewHistory(1),
		undo:         undo.NewStack(d.storage, d.config.Undo.Capacity, d.logger),
		filter:       filters.NewEngine(),
		tool:         models.NoTool(),
		viewports:    make(map[int]models.Viewport),
		exportState:  models.ExportState{Status: models.ExportIdle},
		updatedAt:    now,
		lastActivity: now,
		deps:         d,
	}
}

// lock takes the session lock and records activity for idle eviction
func (s *Session) lock() {
	s.mu.Lock()
	s.lastActivity = time.Now()
}

func (s *Session) unlock() {
	s.mu.Unlock()
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Filename() string {
	return s.filename
}

// LastActivity returns the time of the last call into the session
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) summary() models.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SessionSummary{
		ID:           s.id,
		Filename:     s.filename,
		PageCount:    s.pages.PageCount(),
		CreatedAt:    s.createdAt,
		LastActivity: s.lastActivity,
	}
}

// View returns the read-only projection of the session
func (s *Session) View() models.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() models.SessionView {
	n := s.pages.PageCount()
	views := make([]models.PageView, n)
	for i := 0; i < n; i++ {
		page := i + 1
		orig, _ := s.pages.Original(page)
		views[i] = models.PageView{
			Number:      page,
			Original:    orig,
			Rotation:    s.pages.Rotation(page),
			Size:        s.sizes[orig-1],
			Annotations: s.annotations.Page(page),
		}
	}

	return models.SessionView{
		ID:            s.id,
		Filename:      s.filename,
		PageCount:     n,
		CurrentPage:   s.pages.CurrentPage(),
		Pages:         views,
		Tool:          s.tool,
		Filter:        s.filter.Active(),
		FilterPreview: s.filter.Preview(),
		Gesture:       s.gesture.view(s.tool.Kind),
		CanUndo:       s.undo.CanUndo(),
		UndoDepth:     s.undo.Len(),
		CanGoBack:     s.history.CanBack(),
		CanGoForward:  s.history.CanForward(),
		Export:        s.exportState,
		Version:       s.version,
		UpdatedAt:     s.updatedAt,
	}
}

// notifyLocked bumps the version and publishes the new projection
func (s *Session) notifyLocked() {
	s.version++
	s.updatedAt = time.Now()
	s.publish(interfaces.EventSessionUpdated, s.viewLocked())
}

func (s *Session) publish(eventType interfaces.EventType, payload interface{}) {
	if s.events == nil {
		return
	}
	event := interfaces.Event{Type: eventType, SessionID: s.id, Payload: payload}
	if err := s.events.Publish(context.Background(), event); err != nil {
		s.logger.Warn().Err(err).Str("session_id", s.id).Str("event_type", string(eventType)).Msg("Failed to publish event")
	}
}

// Document returns the current page-edited PDF bytes
func (s *Session) Document() []byte {
	s.lock()
	defer s.unlock()
	return s.document
}

// SetTool switches the interaction mode and cancels any gesture in progress.
// Entering the filter mode selects its filter.
func (s *Session) SetTool(tool models.Tool) {
	s.lock()
	defer s.unlock()

	s.gesture.reset()
	s.tool = tool
	if tool.Kind == models.ToolFilter {
		s.filter.Select(tool.Filter)
	}

	s.logger.Debug().Str("session_id", s.id).Str("tool", string(tool.Kind)).Msg("Tool selected")
	s.notifyLocked()
}

// ResetTool returns to no tool and cancels pending placements
func (s *Session) ResetTool() {
	s.lock()
	defer s.unlock()
	s.resetToolLocked()
	s.notifyLocked()
}

func (s *Session) resetToolLocked() {
	s.gesture.reset()
	s.tool = models.NoTool()
}

// LoadSignature keeps a signature image for placement and activates the
// Signature tool. A non-positive width uses the configured default.
func (s *Session) LoadSignature(imageData []byte, displayWidth float64) error {
	if err := checkImage(imageData); err != nil {
		return err
	}

	s.lock()
	defer s.unlock()

	if displayWidth <= 0 {
		displayWidth = s.config.Editor.SignatureWidth
	}
	s.signature = &signature{data: append([]byte(nil), imageData...), width: displayWidth}
	s.gesture.reset()
	s.tool = models.Tool{Kind: models.ToolSignature}
	s.notifyLocked()
	return nil
}

// HandlePointer feeds one pointer event through the gesture state machine of
// the active tool. Client coordinates are mapped to the current page using
// the viewport the client registered for it, then turned back into the
// un-rotated page frame annotations are stored in.
func (s *Session) HandlePointer(ctx context.Context, ev models.PointerEvent) error {
	s.lock()
	defer s.unlock()

	page := s.pages.CurrentPage()
	orig, err := s.pages.Original(page)
	if err != nil {
		return err
	}

	var box models.BoundingBox
	if vp, ok := s.viewports[orig]; ok {
		box = vp.Box
	} else {
		s.logger.Debug().Str("session_id", s.id).Int("page", page).Msg("No viewport registered, using client coordinates")
	}
	p := coords.ToPageCoords(models.Point{X: ev.ClientX, Y: ev.ClientY}, box)
	p = s.unrotateLocked(p, orig, s.pages.Rotation(page))

	res := s.gesture.handle(s.tool, ev, p, page, s.annotations.Find)

	switch res.action {
	case actionNone:
		return nil
	case actionReset:
		s.resetToolLocked()
	case actionAddHighlight:
		c, err := s.tool.ColorOr(models.DefaultHighlightColor)
		if err != nil {
			return err
		}
		s.annotations.AddHighlight(res.page, res.from, res.to, c)
	case actionAddDrawing:
		c, err := s.tool.ColorOr(models.DefaultDrawingColor)
		if err != nil {
			return err
		}
		s.annotations.AddDrawing(res.page, res.points, c, s.config.Editor.DrawingStrokeWidth)
	case actionPlaceSignature:
		if s.signature == nil {
			return models.Errorf(models.KindInvalidInput, "place signature", "no signature loaded")
		}
		if _, err := s.addSignatureLocked(ctx, res.page, res.at, s.signature.data, s.signature.width); err != nil {
			return err
		}
	case actionMove:
		if err := s.annotations.Move(res.kind, res.id, res.at); err != nil {
			s.gesture.reset()
			return err
		}
	case actionRemove:
		s.removeLocked(res.kind, res.id)
	}

	s.notifyLocked()
	return nil
}

// unrotateLocked maps a point on the page as displayed, turned by rotation,
// onto the un-rotated page at the same display scale
func (s *Session) unrotateLocked(p models.Point, orig, rotation int) models.Point {
	if models.NormalizeRotation(rotation) == 0 {
		return p
	}
	size := s.sizes[orig-1]
	var vp *models.Viewport
	if v, ok := s.viewports[orig]; ok {
		vp = &v
	}
	scale, _ := s.pipeline.Mapper().Resolve(vp, size, rotation)
	return coords.UnrotatePoint(p.Scale(1/scale), size, rotation).Scale(scale)
}

// CommitText completes a pending text placement. Blank content discards the
// placement and returns an empty id.
func (s *Session) CommitText(content string, color string) (string, error) {
	s.lock()
	defer s.unlock()

	if s.gesture.pendingText == nil {
		return "", models.Errorf(models.KindRefused, "commit text", "no text placement pending")
	}
	fallback, err := s.tool.ColorOr(models.DefaultTextColor)
	if err != nil {
		return "", err
	}
	c, err := models.ParseColorOr(color, fallback)
	if err != nil {
		return "", err
	}

	pos, page := *s.gesture.pendingText, s.gesture.pendingPage
	s.gesture.pendingText = nil
	id, _ := s.annotations.AddText(page, pos, content, c)

	s.notifyLocked()
	return id, nil
}

// CancelText drops a pending text placement
func (s *Session) CancelText() {
	s.lock()
	defer s.unlock()
	if s.gesture.pendingText == nil {
		return
	}
	s.gesture.pendingText = nil
	s.notifyLocked()
}

// AddText places a text annotation directly. Blank content is discarded and
// returns an empty id.
func (s *Session) AddText(page int, pos models.Point, content string, color string) (string, error) {
	c, err := models.ParseColorOr(color, models.DefaultTextColor)
	if err != nil {
		return "", err
	}

	s.lock()
	defer s.unlock()

	page, err = s.pages.Resolve(page)
	if err != nil {
		return "", err
	}
	id, ok := s.annotations.AddText(page, pos, content, c)
	if !ok {
		return "", nil
	}

	s.logger.Debug().Str("session_id", s.id).Str("annotation_id", id).Int("page", page).Msg("Text annotation added")
	s.notifyLocked()
	return id, nil
}

// AddHighlight places a highlight spanning two drag points
func (s *Session) AddHighlight(page int, from, to models.Point, color string) (string, error) {
	c, err := models.ParseColorOr(color, models.DefaultHighlightColor)
	if err != nil {
		return "", err
	}

	s.lock()
	defer s.unlock()

	page, err = s.pages.Resolve(page)
	if err != nil {
		return "", err
	}
	id := s.annotations.AddHighlight(page, from, to, c)

	s.logger.Debug().Str("session_id", s.id).Str("annotation_id", id).Int("page", page).Msg("Highlight added")
	s.notifyLocked()
	return id, nil
}

// AddDrawing places an ink stroke
func (s *Session) AddDrawing(page int, points []models.Point, color string) (string, error) {
	if len(points) == 0 {
		return "", models.Errorf(models.KindInvalidInput, "add drawing", "a stroke needs at least one point")
	}
	c, err := models.ParseColorOr(color, models.DefaultDrawingColor)
	if err != nil {
		return "", err
	}

	s.lock()
	defer s.unlock()

	page, err = s.pages.Resolve(page)
	if err != nil {
		return "", err
	}
	id := s.annotations.AddDrawing(page, points, c, s.config.Editor.DrawingStrokeWidth)

	s.logger.Debug().Str("session_id", s.id).Str("annotation_id", id).Int("page", page).Int("points", len(points)).Msg("Drawing added")
	s.notifyLocked()
	return id, nil
}

// AddSignature places a signature image. Placement is undoable.
func (s *Session) AddSignature(ctx context.Context, page int, pos models.Point, imageData []byte, displayWidth float64) (string, error) {
	if err := checkImage(imageData); err != nil {
		return "", err
	}

	s.lock()
	defer s.unlock()

	page, err := s.pages.Resolve(page)
	if err != nil {
		return "", err
	}
	if displayWidth <= 0 {
		displayWidth = s.config.Editor.SignatureWidth
	}
	id, err := s.addSignatureLocked(ctx, page, pos, append([]byte(nil), imageData...), displayWidth)
	if err != nil {
		return "", err
	}

	s.notifyLocked()
	return id, nil
}

func (s *Session) addSignatureLocked(ctx context.Context, page int, pos models.Point, imageData []byte, width float64) (string, error) {
	before := s.snapshotLocked("place signature")
	id := s.annotations.AddSignature(page, pos, imageData, width)
	if err := s.undo.Push(ctx, before); err != nil {
		s.annotations.Remove(models.AnnotationSignature, id)
		return "", models.NewError(models.KindRenderFailure, "place signature", err)
	}

	s.logger.Debug().Str("session_id", s.id).Str("annotation_id", id).Int("page", page).Msg("Signature placed")
	return id, nil
}

// RemoveAnnotation deletes an annotation. An empty kind searches every
// variant; unknown ids are ignored.
func (s *Session) RemoveAnnotation(kind models.AnnotationKind, id string) {
	s.lock()
	defer s.unlock()
	if s.removeLocked(kind, id) {
		s.notifyLocked()
	}
}

func (s *Session) removeLocked(kind models.AnnotationKind, id string) bool {
	var removed bool
	if kind == "" {
		_, removed = s.annotations.RemoveAny(id)
	} else {
		removed = s.annotations.Remove(kind, id)
	}
	if removed {
		s.logger.Debug().Str("session_id", s.id).Str("annotation_id", id).Msg("Annotation removed")
	}
	return removed
}

// MoveAnnotation sets the anchor of an annotation. Positions are not clamped.
func (s *Session) MoveAnnotation(kind models.AnnotationKind, id string, pos models.Point) error {
	s.lock()
	defer s.unlock()

	if kind == "" {
		a, ok := s.annotations.Find(id)
		if !ok {
			return models.Errorf(models.KindNotFound, "move annotation", "annotation %s not found", id)
		}
		kind = a.Kind()
	}
	if err := s.annotations.Move(kind, id, pos); err != nil {
		return err
	}
	s.notifyLocked()
	return nil
}

// Annotations returns the annotations of a page grouped by variant
func (s *Session) Annotations(page int) (models.PageAnnotations, error) {
	s.lock()
	defer s.unlock()

	page, err := s.pages.Resolve(page)
	if err != nil {
		return models.PageAnnotations{}, err
	}
	return s.annotations.Page(page), nil
}

// GoToPage makes page current and records it in the navigation history
func (s *Session) GoToPage(page int) error {
	s.lock()
	defer s.unlock()

	if err := s.pages.SetCurrentPage(page); err != nil {
		return err
	}
	s.history.Navigate(page)
	s.gesture.reset()
	s.notifyLocked()
	return nil
}

// NavigateBack returns to the previously visited page
func (s *Session) NavigateBack() bool {
	s.lock()
	defer s.unlock()

	page, ok := s.history.Back()
	return ok && s.visitLocked(page)
}

// NavigateForward re-visits a page left with NavigateBack
func (s *Session) NavigateForward() bool {
	s.lock()
	defer s.unlock()

	page, ok := s.history.Forward()
	return ok && s.visitLocked(page)
}

func (s *Session) visitLocked(page int) bool {
	if err := s.pages.SetCurrentPage(page); err != nil {
		return false
	}
	s.gesture.reset()
	s.notifyLocked()
	return true
}

// RegisterViewport records the on-screen canvas of a page. The display
// scale used for export is derived from it.
func (s *Session) RegisterViewport(page int, vp models.Viewport) error {
	if vp.CanvasWidth <= 0 || vp.CanvasHeight <= 0 {
		return models.Errorf(models.KindInvalidInput, "register viewport", "canvas size must be positive")
	}

	s.lock()
	defer s.unlock()

	page, err := s.pages.Resolve(page)
	if err != nil {
		return err
	}
	orig, _ := s.pages.Original(page)
	s.viewports[orig] = vp

	s.logger.Debug().
		Str("session_id", s.id).
		Int("page", page).
		Float64("canvas_width", vp.CanvasWidth).
		Float64("canvas_height", vp.CanvasHeight).
		Msg("Viewport registered")
	return nil
}

// RenderPreview renders a page in the current order and rotation to PNG
func (s *Session) RenderPreview(ctx context.Context, page int, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	if scale > maxPreviewScale {
		return nil, models.Errorf(models.KindInvalidInput, "render preview", "scale %.2f above %.0f", scale, maxPreviewScale)
	}

	s.lock()
	page, err := s.pages.Resolve(page)
	if err != nil {
		s.unlock()
		return nil, err
	}
	orig, _ := s.pages.Original(page)
	rotation := s.pages.Rotation(page)
	base := s.base
	s.unlock()

	doc, err := s.renderer.LoadDocument(ctx, base)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	img, err := doc.RenderPage(ctx, orig, scale, rotation)
	if err != nil {
		return nil, err
	}
	return export.EncodePNG(img)
}

// TextContent returns the positioned text runs of a page
func (s *Session) TextContent(ctx context.Context, page int) ([]models.TextRun, error) {
	s.lock()
	page, err := s.pages.Resolve(page)
	if err != nil {
		s.unlock()
		return nil, err
	}
	orig, _ := s.pages.Original(page)
	base := s.base
	s.unlock()

	doc, err := s.renderer.LoadDocument(ctx, base)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return doc.TextContent(ctx, orig)
}

// close drops the undo snapshots of the session
func (s *Session) close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.undo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear undo stack: %w", err)
	}
	if err := s.storage.DeleteSessionSnapshots(ctx, s.id); err != nil {
		return fmt.Errorf("failed to delete session snapshots: %w", err)
	}
	s.publish(interfaces.EventSessionClosed, s.id)
	return nil
}

func checkImage(data []byte) error {
	if len(data) == 0 {
		return models.Errorf(models.KindInvalidInput, "signature image", "image is empty")
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return models.NewError(models.KindInvalidInput, "signature image", err)
	}
	return nil
}
