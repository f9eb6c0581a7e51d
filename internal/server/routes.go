package server

import (
	"net/http"

	"github.com/ternarybob/pdfdesk/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (session projections)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Sessions
	mux.HandleFunc("/api/sessions", s.handleSessionsRoute)   // GET (list), POST (upload)
	mux.HandleFunc("/api/sessions/", s.handleSessionRoutes) // /{id} and subpaths

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleSessionsRoute routes /api/sessions requests (list and upload)
func (s *Server) handleSessionsRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r, s.app.EditorHandler.ListSessionsHandler, s.app.EditorHandler.UploadHandler)
}

// handleSessionRoutes routes /api/sessions/{id}[/...] by the first segment after the id
func (s *Server) handleSessionRoutes(w http.ResponseWriter, r *http.Request) {
	h := s.app.EditorHandler

	id, rest := handlers.SessionPath(r.URL.Path)
	if id == "" {
		s.handleSessionsRoute(w, r)
		return
	}

	if len(rest) == 0 {
		RouteResourceItem(w, r, h.GetSessionHandler, nil, h.CloseSessionHandler)
		return
	}

	switch rest[0] {
	case "document":
		h.DocumentHandler(w, r)
	case "tool":
		if len(rest) == 2 && rest[1] == "reset" {
			h.ResetToolHandler(w, r)
			return
		}
		h.SetToolHandler(w, r)
	case "signature":
		h.SignatureHandler(w, r)
	case "pointer":
		h.PointerHandler(w, r)
	case "text":
		h.TextHandler(w, r)
	case "annotations":
		h.AnnotationsHandler(w, r)
	case "navigate":
		h.NavigateHandler(w, r)
	case "viewport":
		h.ViewportHandler(w, r)
	case "pages":
		h.PagesHandler(w, r)
	case "undo":
		h.UndoHandler(w, r)
	case "filter":
		h.FilterHandler(w, r)
	case "export":
		h.ExportHandler(w, r)
	default:
		s.app.APIHandler.NotFoundHandler(w, r)
	}
}
