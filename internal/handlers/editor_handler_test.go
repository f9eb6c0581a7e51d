package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/pdfdesk/internal/models"
	"github.com/ternarybob/pdfdesk/internal/services/pdf/pdftest"
)

func TestEditorHandler_Upload(t *testing.T) {
	f := newFixture(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "contract.pdf")
	require.NoError(t, err)
	_, err = part.Write(pdftest.NewDocument(t, letter, wide))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/sessions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := serve(f.handler.UploadHandler, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	view := decodeView(t, rec)
	assert.Equal(t, "contract.pdf", view.Filename)
	assert.Equal(t, 2, view.PageCount)
	assert.Equal(t, wide, view.Pages[1].Size)

	raw := httptest.NewRequest("POST", "/api/sessions?filename=raw.pdf", bytes.NewReader(pdftest.NewDocument(t, letter)))
	raw.Header.Set("Content-Type", "application/pdf")
	rec = serve(f.handler.UploadHandler, raw)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "raw.pdf", decodeView(t, rec).Filename)

	rec = serve(f.handler.ListSessionsHandler, httptest.NewRequest("GET", "/api/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.SessionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestEditorHandler_UploadRejects(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest("POST", "/api/sessions?filename=notes.txt", bytes.NewBufferString("just some text"))
	rec := serve(f.handler.UploadHandler, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not a PDF")

	rec = serve(f.handler.UploadHandler, httptest.NewRequest("GET", "/api/sessions", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Empty(t, f.editor.List())
}

func TestEditorHandler_SessionLifecycle(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, letter)

	rec := serve(f.handler.GetSessionHandler, httptest.NewRequest("GET", sessionURL(s.ID()), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, s.ID(), decodeView(t, rec).ID)

	rec = serve(f.handler.DocumentHandler, httptest.NewRequest("GET", sessionURL(s.ID(), "document"), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, s.Document(), rec.Body.Bytes())

	rec = serve(f.handler.CloseSessionHandler, httptest.NewRequest("DELETE", sessionURL(s.ID()), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(f.handler.GetSessionHandler, httptest.NewRequest("GET", sessionURL(s.ID()), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = serve(f.handler.CloseSessionHandler, httptest.NewRequest("DELETE", sessionURL(s.ID()), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditorHandler_Annotations(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, letter, letter)
	url := sessionURL(s.ID(), "annotations")

	rec := serve(f.handler.AnnotationsHandler, jsonRequest(t, "POST", url, map[string]interface{}{
		"kind":     "text",
		"page":     2,
		"position": models.Point{X: 40, Y: 60},
		"content":  "Approved",
		"color":    "#0000ff",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	rec = serve(f.handler.AnnotationsHandler, httptest.NewRequest("GET", url+"?page=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var anns models.PageAnnotations
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &anns))
	require.Len(t, anns.Texts, 1)
	assert.Equal(t, "Approved", anns.Texts[0].Content)

	moveURL := sessionURL(s.ID(), "annotations", "text", created.ID)
	rec = serve(f.handler.AnnotationsHandler, jsonRequest(t, "PUT", moveURL, moveRequest{Position: models.Point{X: 5, Y: 6}}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got, _ := s.Annotations(2)
	assert.Equal(t, models.Point{X: 5, Y: 6}, got.Texts[0].Position)

	rec = serve(f.handler.AnnotationsHandler, httptest.NewRequest("DELETE", moveURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	got, _ = s.Annotations(2)
	assert.Empty(t, got.Texts)
}

func TestEditorHandler_AnnotationErrors(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, letter)
	url := sessionURL(s.ID(), "annotations")

	tests := []struct {
		name string
		req  *http.Request
		code int
	}{
		{"unknown kind", jsonRequest(t, "POST", url, map[string]interface{}{"kind": "stamp"}), http.StatusBadRequest},
		{"bad color", jsonRequest(t, "POST", url, map[string]interface{}{"kind": "text", "content": "x", "color": "blue"}), http.StatusBadRequest},
		{"page out of range", jsonRequest(t, "POST", url, map[string]interface{}{"kind": "highlight", "page": 9}), http.StatusBadRequest},
		{"empty drawing", jsonRequest(t, "POST", url, map[string]interface{}{"kind": "drawing"}), http.StatusBadRequest},
		{"move unknown", jsonRequest(t, "PUT", url+"/text/missing", moveRequest{}), http.StatusNotFound},
		{"bad path", httptest.NewRequest("DELETE", url+"/text", nil), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(f.handler.AnnotationsHandler, tt.req)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestEditorHandler_PageEdits(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, letter, wide)

	rec := serve(f.handler.PagesHandler, httptest.NewRequest("POST", sessionURL(s.ID(), "pages", 1, "rotate"), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 90, decodeView(t, rec).Pages[0].Rotation)

	rec = serve(f.handler.PagesHandler, jsonRequest(t, "POST", sessionURL(s.ID(), "pages", "reorder"), reorderRequest{Order: []int{2, 1}}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeView(t, rec)
	assert.Equal(t, 2, view.Pages[0].Original)
	assert.Equal(t, 1, view.Pages[1].Original)

	rec = serve(f.handler.PagesHandler, httptest.NewRequest("DELETE", sessionURL(s.ID(), "pages", 1), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decodeView(t, rec).PageCount)

	rec = serve(f.handler.PagesHandler, httptest.NewRequest("DELETE", sessionURL(s.ID(), "pages", 1), nil))
	assert.Equal(t, http.StatusConflict, rec.Code, "last page cannot be deleted")

	rec = serve(f.handler.UndoHandler, httptest.NewRequest("POST", sessionURL(s.ID(), "undo"), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var undo struct {
		Reverted bool               `json:"reverted"`
		View     models.SessionView `json:"view"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &undo))
	assert.True(t, undo.Reverted)
	assert.Equal(t, 2, undo.View.PageCount)

	rec = serve(f.handler.PagesHandler, httptest.NewRequest("POST", sessionURL(s.ID(), "pages", "x", "rotate"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditorHandler_PreviewAndText(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, letter)

	rec := serve(f.handler.PagesHandler, httptest.NewRequest("GET", sessionURL(s.ID(), "pages", 1, "preview")+"?scale=0.5", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = serve(f.handler.PagesHandler, httptest.NewRequest("GET", sessionURL(s.ID(), "pages", 1, "preview")+"?scale=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(f.handler.PagesHandler, httptest.NewRequest("GET", sessionURL(s.ID(), "pages", 1, "text"), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestEditorHandler_ToolPointerAndText(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, letter)

	rec := serve(f.handler.SetToolHandler, jsonRequest(t, "POST", sessionURL(s.ID(), "tool"), toolRequest{Kind: "add_text", Color: "#0000ff"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tool := decodeView(t, rec).Tool
	assert.Equal(t, models.ToolAddText, tool.Kind)
	assert.Equal(t, "#0000ff", tool.Color)

	rec = serve(f.handler.PointerHandler, jsonRequest(t, "POST", sessionURL(s.ID(), "pointer"), models.PointerEvent{Type: models.PointerClick, ClientX: 20, ClientY: 30}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, decodeView(t, rec).Gesture.PendingText)

	rec = serve(f.handler.TextHandler, jsonRequest(t, "POST", sessionURL(s.ID(), "text", "commit"), commitTextRequest{Content: "Signed"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	anns, _ := s.Annotations(1)
	require.Len(t, anns.Texts, 1)
	assert.Equal(t, models.Point{X: 20, Y: 30}, anns.Texts[0].Position)
	assert.Equal(t, models.Color{B: 0xff}, anns.Texts[0].Color, "text takes the tool color")

	rec = serve(f.handler.TextHandler, jsonRequest(t, "POST", sessionURL(s.ID(), "text", "commit"), commitTextRequest{Content: "again"}))
	assert.Equal(t, http.StatusConflict, rec.Code, "nothing pending")

	rec = serve(f.handler.SetToolHandler, jsonRequest(t, "POST", sessionURL(s.ID(), "tool"), toolRequest{Kind: "lasso"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(f.handler.SetToolHandler, jsonRequest(t, "POST", sessionURL(s.ID(), "tool"), toolRequest{Kind: "draw", Color: "purple"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(f.handler.ResetToolHandler, httptest.NewRequest("POST", sessionURL(s.ID(), "tool", "reset"), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ToolNone, decodeView(t, rec).Tool.Kind)
}

func TestEditorHandler_NavigateAndViewport(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, letter, letter, letter)

	rec := serve(f.handler.NavigateHandler, jsonRequest(t, "POST", sessionURL(s.ID(), "navigate"), navigateRequest{Page: 3}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 3, decodeView(t, rec).CurrentPage)

	rec = serve(f.handler.NavigateHandler, jsonRequest(t, "POST", sessionURL(s.ID(), "navigate"), navigateRequest{Direction: "back"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeView(t, rec).CurrentPage)

	rec = serve(f.handler.NavigateHandler, jsonRequest(t, "POST", sessionURL(s.ID(), "navigate"), navigateRequest{Page: 7}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(f.handler.ViewportHandler, jsonRequest(t, "POST", sessionURL(s.ID(), "viewport"), viewportRequest{
		Page:     1,
		Viewport: models.Viewport{CanvasWidth: 600, CanvasHeight: 800},
	}))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(f.handler.ViewportHandler, jsonRequest(t, "POST", sessionURL(s.ID(), "viewport"), viewportRequest{Page: 1}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditorHandler_Filter(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, letter)

	rec := serve(f.handler.FilterHandler, httptest.NewRequest("POST", sessionURL(s.ID(), "filter", "bake"), nil))
	assert.Equal(t, http.StatusConflict, rec.Code, "nothing to bake")

	rec = serve(f.handler.FilterHandler, jsonRequest(t, "POST", sessionURL(s.ID(), "filter"), filterRequest{Filter: "sepia"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.FilterSepia, decodeView(t, rec).Filter)

	rec = serve(f.handler.FilterHandler, httptest.NewRequest("POST", sessionURL(s.ID(), "filter", "bake"), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeView(t, rec)
	assert.Equal(t, models.FilterNone, view.Filter)
	assert.True(t, view.CanUndo)

	rec = serve(f.handler.FilterHandler, jsonRequest(t, "POST", sessionURL(s.ID(), "filter"), filterRequest{Filter: "neon"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditorHandler_Export(t *testing.T) {
	f := newFixture(t)
	s := f.open(t, letter, letter)
	_, err := s.AddText(1, models.Point{X: 10, Y: 10}, "Hi", "")
	require.NoError(t, err)
	url := sessionURL(s.ID(), "export")

	rec := serve(f.handler.ExportHandler, jsonRequest(t, "POST", url+"?wait=true", models.ExportRequest{Filename: "final"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "final.pdf")
	assert.Equal(t, 2, pdftest.PageCount(t, rec.Body.Bytes()))

	rec = serve(f.handler.ExportHandler, httptest.NewRequest("GET", url+"/download", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "untracked export leaves no artifact")

	rec = serve(f.handler.ExportHandler, jsonRequest(t, "POST", url, models.ExportRequest{Format: models.ExportImages, Pages: []int{2}}))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	require.Eventually(t, func() bool {
		return s.ExportState().Status == models.ExportDone
	}, 5*time.Second, 10*time.Millisecond)

	rec = serve(f.handler.ExportHandler, httptest.NewRequest("GET", url, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var state models.ExportState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, models.ExportDone, state.Status)

	rec = serve(f.handler.ExportHandler, httptest.NewRequest("GET", url+"/download", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = serve(f.handler.ExportHandler, httptest.NewRequest("DELETE", url, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ExportIdle, s.ExportState().Status)

	rec = serve(f.handler.ExportHandler, jsonRequest(t, "POST", url, map[string]string{"format": "tiff"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
