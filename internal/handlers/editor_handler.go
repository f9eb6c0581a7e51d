package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pdfdesk/internal/common"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/models"
)

// multipart overhead allowed on top of the configured upload limit
const uploadSlack = 1 << 20

// EditorHandler exposes editor sessions over REST
type EditorHandler struct {
	editor interfaces.EditorService
	config *common.EditorConfig
	logger arbor.ILogger
}

// NewEditorHandler creates the session REST handler
func NewEditorHandler(editor interfaces.EditorService, config *common.EditorConfig, logger arbor.ILogger) *EditorHandler {
	return &EditorHandler{
		editor: editor,
		config: config,
		logger: logger,
	}
}

type toolRequest struct {
	Kind   string `json:"kind" validate:"required"`
	Filter string `json:"filter"`
	Color  string `json:"color"`
}

type signatureRequest struct {
	ImageData    []byte  `json:"image_data" validate:"required"`
	DisplayWidth float64 `json:"display_width" validate:"gte=0"`
}

type commitTextRequest struct {
	Content string `json:"content"`
	Color   string `json:"color"`
}

type annotationRequest struct {
	Kind         string         `json:"kind" validate:"required,oneof=text highlight drawing signature"`
	Page         int            `json:"page" validate:"gte=0"`
	Position     models.Point   `json:"position"`
	To           models.Point   `json:"to"`
	Points       []models.Point `json:"points"`
	Content      string         `json:"content"`
	Color        string         `json:"color"`
	ImageData    []byte         `json:"image_data"`
	DisplayWidth float64        `json:"display_width" validate:"gte=0"`
}

type moveRequest struct {
	Position models.Point `json:"position"`
}

type navigateRequest struct {
	Page      int    `json:"page" validate:"gte=0"`
	Direction string `json:"direction" validate:"omitempty,oneof=back forward"`
}

type viewportRequest struct {
	Page     int             `json:"page" validate:"gte=0"`
	Viewport models.Viewport `json:"viewport"`
}

type reorderRequest struct {
	Order []int `json:"order" validate:"required,min=1,dive,gte=1"`
}

type filterRequest struct {
	Filter string `json:"filter"`
}

// session resolves the session named in the request path
func (h *EditorHandler) session(w http.ResponseWriter, r *http.Request) (interfaces.EditorSession, []string, bool) {
	id, rest := SessionPath(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing session id")
		return nil, nil, false
	}
	s, err := h.editor.Get(id)
	if err != nil {
		WriteEditorError(w, err)
		return nil, nil, false
	}
	return s, rest, true
}

// pageArg parses the page number at rest[i], with 0 meaning the current page
func pageArg(rest []string, i int) (int, error) {
	if len(rest) <= i {
		return 0, nil
	}
	page, err := strconv.Atoi(rest[i])
	if err != nil || page < 0 {
		return 0, models.Errorf(models.KindInvalidInput, "page", "invalid page %q", rest[i])
	}
	return page, nil
}

func writeView(w http.ResponseWriter, s interfaces.EditorSession) {
	WriteJSON(w, http.StatusOK, s.View())
}

func writeFile(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ListSessionsHandler handles GET /api/sessions
func (h *EditorHandler) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, h.editor.List())
}

// UploadHandler handles POST /api/sessions. Accepts a multipart "file" field
// or a raw PDF body with the name in ?filename=.
func (h *EditorHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes+uploadSlack)

	var (
		filename string
		data     []byte
		err      error
	)
	if err = r.ParseMultipartForm(32 << 20); err == nil {
		file, header, ferr := r.FormFile("file")
		if ferr != nil {
			WriteError(w, http.StatusBadRequest, "Missing file field")
			return
		}
		defer file.Close()
		filename = header.Filename
		data, err = io.ReadAll(file)
	} else {
		filename = r.URL.Query().Get("filename")
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to read upload")
		WriteError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	s, err := h.editor.Open(r.Context(), filename, data)
	if err != nil {
		h.logger.Warn().Err(err).Str("filename", filename).Msg("Upload rejected")
		WriteEditorError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, s.View())
}

// GetSessionHandler handles GET /api/sessions/{id}
func (h *EditorHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	writeView(w, s)
}

// CloseSessionHandler handles DELETE /api/sessions/{id}
func (h *EditorHandler) CloseSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}
	id, _ := SessionPath(r.URL.Path)
	if err := h.editor.CloseSession(r.Context(), id); err != nil {
		WriteEditorError(w, err)
		return
	}
	WriteSuccess(w, "Session closed")
}

// DocumentHandler handles GET /api/sessions/{id}/document, the page-edited PDF without flattening
func (h *EditorHandler) DocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	writeFile(w, s.Filename(), "application/pdf", s.Document())
}

// SetToolHandler handles POST /api/sessions/{id}/tool
func (h *EditorHandler) SetToolHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	var req toolRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	tool, err := models.ParseTool(req.Kind, req.Filter, req.Color)
	if err != nil {
		WriteEditorError(w, err)
		return
	}
	s.SetTool(tool)
	writeView(w, s)
}

// ResetToolHandler handles POST /api/sessions/{id}/tool/reset
func (h *EditorHandler) ResetToolHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	s.ResetTool()
	writeView(w, s)
}

// SignatureHandler handles POST /api/sessions/{id}/signature, loading the image placed by signature clicks
func (h *EditorHandler) SignatureHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	var req signatureRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := s.LoadSignature(req.ImageData, req.DisplayWidth); err != nil {
		WriteEditorError(w, err)
		return
	}
	writeView(w, s)
}

// PointerHandler handles POST /api/sessions/{id}/pointer
func (h *EditorHandler) PointerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	var ev models.PointerEvent
	if !DecodeJSON(w, r, &ev) {
		return
	}
	if err := s.HandlePointer(r.Context(), ev); err != nil {
		WriteEditorError(w, err)
		return
	}
	writeView(w, s)
}

// TextHandler handles POST /api/sessions/{id}/text/commit and /text/cancel
func (h *EditorHandler) TextHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	s, rest, ok := h.session(w, r)
	if !ok {
		return
	}
	if len(rest) == 2 && rest[1] == "cancel" {
		s.CancelText()
		writeView(w, s)
		return
	}

	var req commitTextRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	id, err := s.CommitText(req.Content, req.Color)
	if err != nil {
		WriteEditorError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"id":   id,
		"view": s.View(),
	})
}

// AnnotationsHandler handles /api/sessions/{id}/annotations[/{kind}/{annotation}]
func (h *EditorHandler) AnnotationsHandler(w http.ResponseWriter, r *http.Request) {
	s, rest, ok := h.session(w, r)
	if !ok {
		return
	}

	if len(rest) == 1 {
		switch r.Method {
		case "GET":
			page, err := QueryInt(r, "page", 0)
			if err != nil {
				WriteEditorError(w, err)
				return
			}
			anns, err := s.Annotations(page)
			if err != nil {
				WriteEditorError(w, err)
				return
			}
			WriteJSON(w, http.StatusOK, anns)
		case "POST":
			h.addAnnotation(w, r, s)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if len(rest) != 3 {
		WriteError(w, http.StatusNotFound, "Unknown annotation path")
		return
	}
	kind, err := models.ParseAnnotationKind(rest[1])
	if err != nil {
		WriteEditorError(w, err)
		return
	}
	id := rest[2]

	switch r.Method {
	case "DELETE":
		s.RemoveAnnotation(kind, id)
		writeView(w, s)
	case "PUT":
		var req moveRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		if err := s.MoveAnnotation(kind, id, req.Position); err != nil {
			WriteEditorError(w, err)
			return
		}
		writeView(w, s)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *EditorHandler) addAnnotation(w http.ResponseWriter, r *http.Request, s interfaces.EditorSession) {
	var req annotationRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	var (
		id  string
		err error
	)
	switch models.AnnotationKind(req.Kind) {
	case models.AnnotationText:
		id, err = s.AddText(req.Page, req.Position, req.Content, req.Color)
	case models.AnnotationHighlight:
		id, err = s.AddHighlight(req.Page, req.Position, req.To, req.Color)
	case models.AnnotationDrawing:
		id, err = s.AddDrawing(req.Page, req.Points, req.Color)
	case models.AnnotationSignature:
		id, err = s.AddSignature(r.Context(), req.Page, req.Position, req.ImageData, req.DisplayWidth)
	}
	if err != nil {
		WriteEditorError(w, err)
		return
	}

	h.logger.Debug().
		Str("session_id", s.ID()).
		Str("kind", req.Kind).
		Str("annotation_id", id).
		Msg("Annotation added")

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"id":   id,
		"view": s.View(),
	})
}

// NavigateHandler handles POST /api/sessions/{id}/navigate
func (h *EditorHandler) NavigateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	var req navigateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	switch req.Direction {
	case "back":
		s.NavigateBack()
	case "forward":
		s.NavigateForward()
	default:
		if err := s.GoToPage(req.Page); err != nil {
			WriteEditorError(w, err)
			return
		}
	}
	writeView(w, s)
}

// ViewportHandler handles POST /api/sessions/{id}/viewport
func (h *EditorHandler) ViewportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	var req viewportRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := s.RegisterViewport(req.Page, req.Viewport); err != nil {
		WriteEditorError(w, err)
		return
	}
	WriteSuccess(w, "Viewport registered")
}

// PagesHandler handles the page routes:
//
//	POST   /api/sessions/{id}/pages/reorder
//	POST   /api/sessions/{id}/pages/{n}/rotate
//	DELETE /api/sessions/{id}/pages/{n}
//	GET    /api/sessions/{id}/pages/{n}/preview?scale=
//	GET    /api/sessions/{id}/pages/{n}/text
func (h *EditorHandler) PagesHandler(w http.ResponseWriter, r *http.Request) {
	s, rest, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if len(rest) == 2 && rest[1] == "reorder" {
		if !RequireMethod(w, r, "POST") {
			return
		}
		var req reorderRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		if err := s.ReorderPages(ctx, req.Order); err != nil {
			WriteEditorError(w, err)
			return
		}
		writeView(w, s)
		return
	}

	page, err := pageArg(rest, 1)
	if err != nil || len(rest) < 2 {
		WriteError(w, http.StatusBadRequest, "Missing or invalid page number")
		return
	}

	action := ""
	if len(rest) > 2 {
		action = rest[2]
	}

	switch {
	case action == "" && r.Method == "DELETE":
		if err := s.DeletePage(ctx, page); err != nil {
			WriteEditorError(w, err)
			return
		}
		writeView(w, s)
	case action == "rotate" && r.Method == "POST":
		if err := s.RotatePage(ctx, page); err != nil {
			WriteEditorError(w, err)
			return
		}
		writeView(w, s)
	case action == "preview" && r.Method == "GET":
		scale, err := QueryFloat(r, "scale", 1)
		if err != nil {
			WriteEditorError(w, err)
			return
		}
		data, err := s.RenderPreview(ctx, page, scale)
		if err != nil {
			WriteEditorError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(data)
	case action == "text" && r.Method == "GET":
		runs, err := s.TextContent(ctx, page)
		if err != nil {
			WriteEditorError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, runs)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// UndoHandler handles POST /api/sessions/{id}/undo
func (h *EditorHandler) UndoHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	s, _, ok := h.session(w, r)
	if !ok {
		return
	}
	reverted, err := s.Undo(r.Context())
	if err != nil {
		WriteEditorError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reverted": reverted,
		"view":     s.View(),
	})
}

// FilterHandler handles POST /api/sessions/{id}/filter and /filter/bake
func (h *EditorHandler) FilterHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	s, rest, ok := h.session(w, r)
	if !ok {
		return
	}

	if len(rest) == 2 && rest[1] == "bake" {
		if err := s.BakeFilter(r.Context()); err != nil {
			WriteEditorError(w, err)
			return
		}
		writeView(w, s)
		return
	}

	var req filterRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	name, err := models.ParseFilterName(req.Filter)
	if err != nil {
		WriteEditorError(w, err)
		return
	}
	s.SetFilter(name)
	writeView(w, s)
}

// ExportHandler handles the export routes:
//
//	POST   /api/sessions/{id}/export          start a tracked export (?wait=true returns the file)
//	GET    /api/sessions/{id}/export          export state
//	GET    /api/sessions/{id}/export/download finished artifact
//	DELETE /api/sessions/{id}/export          dismiss a finished or failed export
func (h *EditorHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	s, rest, ok := h.session(w, r)
	if !ok {
		return
	}

	if len(rest) == 2 && rest[1] == "download" {
		if !RequireMethod(w, r, "GET") {
			return
		}
		res, err := s.ExportResult()
		if err != nil {
			WriteEditorError(w, err)
			return
		}
		writeFile(w, res.Filename, res.ContentType, res.Data)
		return
	}

	switch r.Method {
	case "GET":
		WriteJSON(w, http.StatusOK, s.ExportState())
	case "DELETE":
		s.DismissExport()
		WriteJSON(w, http.StatusOK, s.ExportState())
	case "POST":
		var req models.ExportRequest
		if r.ContentLength != 0 && !DecodeJSON(w, r, &req) {
			return
		}
		if r.URL.Query().Get("wait") == "true" {
			res, err := s.Export(r.Context(), req)
			if err != nil {
				WriteEditorError(w, err)
				return
			}
			writeFile(w, res.Filename, res.ContentType, res.Data)
			return
		}
		if err := s.StartExport(req); err != nil {
			WriteEditorError(w, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, s.ExportState())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
