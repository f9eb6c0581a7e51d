package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pdfdesk/internal/common"
	"github.com/ternarybob/pdfdesk/internal/handlers"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/services/editor"
	"github.com/ternarybob/pdfdesk/internal/services/events"
	"github.com/ternarybob/pdfdesk/internal/services/pdf"
	"github.com/ternarybob/pdfdesk/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	SnapshotStorage interfaces.SnapshotStorage

	// Event-driven services
	EventService interfaces.EventService

	// PDF capabilities
	PDFEditor   *pdf.Editor
	PDFRenderer interfaces.PDFRenderer
	PDFComposer *pdf.Composer

	// Editor sessions
	EditorService *editor.Service

	// HTTP handlers
	APIHandler    *handlers.APIHandler
	EditorHandler *handlers.EditorHandler
	WSHandler     *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	return NewWithRenderer(cfg, logger, nil)
}

// NewWithRenderer is New with a caller-supplied page renderer. A nil renderer
// selects the MuPDF renderer.
func NewWithRenderer(cfg *common.Config, logger arbor.ILogger, renderer interfaces.PDFRenderer) (*App, error) {
	app := &App{
		Config:      cfg,
		Logger:      logger,
		PDFRenderer: renderer,
	}

	// Initialize storage
	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Initialize services
	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	app.initHandlers()

	logger.Info().
		Str("undo_backend", cfg.Undo.Backend).
		Int("undo_capacity", cfg.Undo.Capacity).
		Float64("export_scale", cfg.Editor.ExportScale).
		Bool("renumber_after_delete", cfg.Editor.RenumberAfterDelete).
		Bool("snapshot_export_state", cfg.Editor.SnapshotExportState).
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initStorage() error {
	snapshots, err := storage.NewSnapshotStorage(a.Logger, &a.Config.Undo)
	if err != nil {
		return fmt.Errorf("failed to create snapshot storage: %w", err)
	}
	a.SnapshotStorage = snapshots

	a.Logger.Debug().
		Str("backend", a.Config.Undo.Backend).
		Str("path", a.Config.Undo.Path).
		Msg("Snapshot storage initialized")
	return nil
}

// initServices initializes business services in dependency order:
// events, PDF capabilities, then the editor session manager.
func (a *App) initServices() error {
	a.EventService = events.NewService(a.Logger)
	if a.Config.Logging.Level == "debug" {
		if err := events.SubscribeLoggerToAllEvents(a.EventService, a.Logger); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to subscribe event logger")
		}
	}

	a.PDFEditor = pdf.NewEditor(a.Logger)
	a.PDFComposer = pdf.NewComposer(a.PDFEditor, a.Logger)
	if a.PDFRenderer == nil {
		a.PDFRenderer = pdf.NewFitzRenderer(pdf.NewTextExtractor(a.Logger), a.Logger)
	}

	a.EditorService = editor.NewService(
		a.PDFEditor,
		a.PDFRenderer,
		a.PDFComposer,
		a.SnapshotStorage,
		a.EventService,
		a.Config,
		a.Logger,
	)
	if err := a.EditorService.Start(); err != nil {
		return fmt.Errorf("failed to start editor service: %w", err)
	}

	a.Logger.Debug().Msg("Editor service initialized")
	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.EditorService, a.Logger)
	a.EditorHandler = handlers.NewEditorHandler(a.EditorService, &a.Config.Editor, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.EditorService, a.EventService, a.Config.ThrottleInterval(), a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close closes all application resources in reverse dependency order
func (a *App) Close() error {
	if a.WSHandler != nil {
		a.WSHandler.Close()
	}

	if a.EditorService != nil {
		if err := a.EditorService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close editor service")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.SnapshotStorage != nil {
		if err := a.SnapshotStorage.Close(); err != nil {
			return fmt.Errorf("failed to close snapshot storage: %w", err)
		}
		a.Logger.Info().Msg("Snapshot storage closed")
	}

	return nil
}
