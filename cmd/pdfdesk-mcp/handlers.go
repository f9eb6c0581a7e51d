package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/models"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(format string, args ...interface{}) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf(format, args...)),
		},
		IsError: true,
	}
}

// sessionTool resolves the session_id argument before running fn
func sessionTool(editor interfaces.EditorService, fn func(ctx context.Context, s interfaces.EditorSession, request mcp.CallToolRequest) *mcp.CallToolResult) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("session_id")
		if err != nil || id == "" {
			return errorResult("Error: session_id parameter is required"), nil
		}
		s, err := editor.Get(id)
		if err != nil {
			return errorResult("Session not found: %v", err), nil
		}
		return fn(ctx, s, request), nil
	}
}

// handleOpenPDF implements the open_pdf tool
func handleOpenPDF(editor interfaces.EditorService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil || path == "" {
			return errorResult("Error: path parameter is required"), nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error().Err(err).Str("path", path).Msg("Failed to read PDF")
			return errorResult("Failed to read %s: %v", path, err), nil
		}

		s, err := editor.Open(ctx, filepath.Base(path), data)
		if err != nil {
			return errorResult("Failed to open %s: %v", path, err), nil
		}
		return textResult(formatSession(s.View())), nil
	}
}

// handleListSessions implements the list_sessions tool
func handleListSessions(editor interfaces.EditorService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(formatSessionList(editor.List())), nil
	}
}

// handleCloseSession implements the close_session tool
func handleCloseSession(editor interfaces.EditorService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("session_id")
		if err != nil || id == "" {
			return errorResult("Error: session_id parameter is required"), nil
		}
		if err := editor.CloseSession(ctx, id); err != nil {
			return errorResult("Close failed: %v", err), nil
		}
		return textResult(fmt.Sprintf("Session %s closed", id)), nil
	}
}

func handleGetSession(editor interfaces.EditorService) server.ToolHandlerFunc {
	return sessionTool(editor, func(ctx context.Context, s interfaces.EditorSession, request mcp.CallToolRequest) *mcp.CallToolResult {
		return textResult(formatSession(s.View()))
	})
}

func handleAddText(editor interfaces.EditorService) server.ToolHandlerFunc {
	return sessionTool(editor, func(ctx context.Context, s interfaces.EditorSession, request mcp.CallToolRequest) *mcp.CallToolResult {
		pos := models.Point{X: request.GetFloat("x", 0), Y: request.GetFloat("y", 0)}
		id, err := s.AddText(request.GetInt("page", 0), pos, request.GetString("content", ""), request.GetString("color", ""))
		if err != nil {
			return errorResult("add_text failed: %v", err)
		}
		if id == "" {
			return textResult("Blank text discarded")
		}
		return textResult(fmt.Sprintf("Added text %s", id))
	})
}

func handleAddHighlight(editor interfaces.EditorService) server.ToolHandlerFunc {
	return sessionTool(editor, func(ctx context.Context, s interfaces.EditorSession, request mcp.CallToolRequest) *mcp.CallToolResult {
		from := models.Point{X: request.GetFloat("x", 0), Y: request.GetFloat("y", 0)}
		to := from.Add(models.Point{X: request.GetFloat("width", 0), Y: request.GetFloat("height", 0)})
		id, err := s.AddHighlight(request.GetInt("page", 0), from, to, request.GetString("color", ""))
		if err != nil {
			return errorResult("add_highlight failed: %v", err)
		}
		return textResult(fmt.Sprintf("Added highlight %s", id))
	})
}

func handleRemoveAnnotation(editor interfaces.EditorService) server.ToolHandlerFunc {
	return sessionTool(editor, func(ctx context.Context, s interfaces.EditorSession, request mcp.CallToolRequest) *mcp.CallToolResult {
		kind, err := models.ParseAnnotationKind(request.GetString("kind", ""))
		if err != nil {
			return errorResult("remove_annotation failed: %v", err)
		}
		s.RemoveAnnotation(kind, request.GetString("annotation_id", ""))
		return textResult(formatSession(s.View()))
	})
}

func handleRotatePage(editor interfaces.EditorService) server.ToolHandlerFunc {
	return sessionTool(editor, func(ctx context.Context, s interfaces.EditorSession, request mcp.CallToolRequest) *mcp.CallToolResult {
		if err := s.RotatePage(ctx, request.GetInt("page", 0)); err != nil {
			return errorResult("rotate_page failed: %v", err)
		}
		return textResult(formatSession(s.View()))
	})
}

func handleDeletePage(editor interfaces.EditorService) server.ToolHandlerFunc {
	return sessionTool(editor, func(ctx context.Context, s interfaces.EditorSession, request mcp.CallToolRequest) *mcp.CallToolResult {
		if err := s.DeletePage(ctx, request.GetInt("page", 0)); err != nil {
			return errorResult("delete_page failed: %v", err)
		}
		return textResult(formatSession(s.View()))
	})
}

func handleReorderPages(editor interfaces.EditorService) server.ToolHandlerFunc {
	return sessionTool(editor, func(ctx context.Context, s interfaces.EditorSession, request mcp.CallToolRequest) *mcp.CallToolResult {
		order := request.GetIntSlice("order", nil)
		if len(order) == 0 {
			return errorResult("Error: order parameter is required")
		}
		if err := s.ReorderPages(ctx, order); err != nil {
			return errorResult("reorder_pages failed: %v", err)
		}
		return textResult(formatSession(s.View()))
	})
}

func handleSetFilter(editor interfaces.EditorService) server.ToolHandlerFunc {
	return sessionTool(editor, func(ctx context.Context, s interfaces.EditorSession, request mcp.CallToolRequest) *mcp.CallToolResult {
		name, err := models.ParseFilterName(request.GetString("filter", ""))
		if err != nil {
			return errorResult("set_filter failed: %v", err)
		}
		s.SetFilter(name)
		if request.GetBool("bake", false) {
			if err := s.BakeFilter(ctx); err != nil {
				return errorResult("bake failed: %v", err)
			}
		}
		return textResult(formatSession(s.View()))
	})
}

func handleUndo(editor interfaces.EditorService) server.ToolHandlerFunc {
	return sessionTool(editor, func(ctx context.Context, s interfaces.EditorSession, request mcp.CallToolRequest) *mcp.CallToolResult {
		reverted, err := s.Undo(ctx)
		if err != nil {
			return errorResult("undo failed: %v", err)
		}
		if !reverted {
			return textResult("Nothing to undo")
		}
		return textResult(formatSession(s.View()))
	})
}

func handleExportPDF(editor interfaces.EditorService, logger arbor.ILogger) server.ToolHandlerFunc {
	return sessionTool(editor, func(ctx context.Context, s interfaces.EditorSession, request mcp.CallToolRequest) *mcp.CallToolResult {
		req := models.ExportRequest{Format: models.ExportPDF}
		if v, ok := request.GetArguments()["flatten"].(bool); ok {
			req.Flatten = &v
		}
		return writeExport(ctx, s, request, req, logger)
	})
}

func handleExportImages(editor interfaces.EditorService, logger arbor.ILogger) server.ToolHandlerFunc {
	return sessionTool(editor, func(ctx context.Context, s interfaces.EditorSession, request mcp.CallToolRequest) *mcp.CallToolResult {
		req := models.ExportRequest{
			Format: models.ExportImages,
			Pages:  request.GetIntSlice("pages", nil),
		}
		return writeExport(ctx, s, request, req, logger)
	})
}

func writeExport(ctx context.Context, s interfaces.EditorSession, request mcp.CallToolRequest, req models.ExportRequest, logger arbor.ILogger) *mcp.CallToolResult {
	out, err := request.RequireString("output_path")
	if err != nil || out == "" {
		return errorResult("Error: output_path parameter is required")
	}
	req.Filename = filepath.Base(out)

	res, err := s.Export(ctx, req)
	if err != nil {
		logger.Error().Err(err).Str("session_id", s.ID()).Msg("Export failed")
		return errorResult("Export failed: %v", err)
	}
	if err := os.WriteFile(out, res.Data, 0o644); err != nil {
		return errorResult("Failed to write %s: %v", out, err)
	}
	return textResult(formatExport(out, res))
}
