package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/pdfdesk/internal/common"
	"github.com/ternarybob/pdfdesk/internal/services/editor"
	"github.com/ternarybob/pdfdesk/internal/services/pdf"
	"github.com/ternarybob/pdfdesk/internal/storage"
)

func main() {
	// Load configuration; a missing default file falls back to built-in defaults
	configPath := os.Getenv("PDFDESK_CONFIG")
	if configPath == "" {
		if _, err := os.Stat("pdfdesk.toml"); err == nil {
			configPath = "pdfdesk.toml"
		}
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Sessions here are driven by tool calls only, so nothing evicts them on a timer
	config.Sessions.EvictionSchedule = ""

	// Initialize minimal logger for MCP server (console only, no file output)
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn") // Minimal logging to avoid cluttering MCP stdio

	snapshots, err := storage.NewSnapshotStorage(logger, &config.Undo)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize snapshot storage")
	}
	defer snapshots.Close()

	pdfEditor := pdf.NewEditor(logger)
	composer := pdf.NewComposer(pdfEditor, logger)
	renderer := pdf.NewFitzRenderer(pdf.NewTextExtractor(logger), logger)

	// No event service: there are no live clients to push projections to
	editorService := editor.NewService(pdfEditor, renderer, composer, snapshots, nil, config, logger)
	if err := editorService.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start editor service")
	}
	defer editorService.Close()

	mcpServer := server.NewMCPServer(
		"pdfdesk",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	registerTools(mcpServer, editorService, logger)

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}

func registerTools(s *server.MCPServer, editorService *editor.Service, logger arbor.ILogger) {
	// Session tools
	s.AddTool(createOpenPDFTool(), handleOpenPDF(editorService, logger))
	s.AddTool(createListSessionsTool(), handleListSessions(editorService))
	s.AddTool(createGetSessionTool(), handleGetSession(editorService))
	s.AddTool(createCloseSessionTool(), handleCloseSession(editorService))

	// Annotation tools
	s.AddTool(createAddTextTool(), handleAddText(editorService))
	s.AddTool(createAddHighlightTool(), handleAddHighlight(editorService))
	s.AddTool(createRemoveAnnotationTool(), handleRemoveAnnotation(editorService))

	// Page tools
	s.AddTool(createRotatePageTool(), handleRotatePage(editorService))
	s.AddTool(createDeletePageTool(), handleDeletePage(editorService))
	s.AddTool(createReorderPagesTool(), handleReorderPages(editorService))
	s.AddTool(createSetFilterTool(), handleSetFilter(editorService))
	s.AddTool(createUndoTool(), handleUndo(editorService))

	// Export tools
	s.AddTool(createExportPDFTool(), handleExportPDF(editorService, logger))
	s.AddTool(createExportImagesTool(), handleExportImages(editorService, logger))
}
