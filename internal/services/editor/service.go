package editor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pdfdesk/internal/common"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/models"
	"github.com/ternarybob/pdfdesk/internal/services/export"
)

// Service owns the open editor sessions and evicts idle ones on a cron schedule
type Service struct {
	deps

	mu       sync.RWMutex
	sessions map[string]*Session
	cron     *cron.Cron
	running  bool
}

var _ interfaces.EditorService = (*Service)(nil)

// NewService creates the session manager
func NewService(
	editor interfaces.PDFDocumentEditor,
	renderer interfaces.PDFRenderer,
	composer interfaces.PDFComposer,
	storage interfaces.SnapshotStorage,
	eventService interfaces.EventService,
	config *common.Config,
	logger arbor.ILogger,
) *Service {
	return &Service{
		deps: deps{
			editor:   editor,
			renderer: renderer,
			pipeline: export.NewPipeline(renderer, composer, config.Editor, logger),
			storage:  storage,
			events:   eventService,
			config:   config,
			logger:   logger,
		},
		sessions: make(map[string]*Session),
		cron:     cron.New(cron.WithSeconds()),
	}
}

// Start schedules idle session eviction
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("editor service already running")
	}
	schedule := s.config.Sessions.EvictionSchedule
	if schedule == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, func() {
		s.EvictIdle(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to schedule session eviction: %w", err)
	}
	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Dur("idle_timeout", s.config.IdleTimeout()).
		Msg("Session eviction scheduled")
	return nil
}

// Open validates an uploaded PDF and starts a session for it
func (s *Service) Open(ctx context.Context, filename string, data []byte) (interfaces.EditorSession, error) {
	if len(data) == 0 {
		return nil, models.Errorf(models.KindInvalidInput, "open", "file is empty")
	}
	if limit := s.config.Editor.MaxUploadBytes; limit > 0 && int64(len(data)) > limit {
		return nil, models.Errorf(models.KindInvalidInput, "open", "file is %d bytes, limit is %d", len(data), limit)
	}
	if mt := mimetype.Detect(data); !mt.Is("application/pdf") {
		return nil, models.Errorf(models.KindInvalidInput, "open", "%s is not a PDF (detected %s)", filename, mt.String())
	}

	if err := s.editor.Validate(ctx, data); err != nil {
		return nil, models.NewError(models.KindInvalidInput, "open", err)
	}
	sizes, err := s.pageSizes(ctx, data)
	if err != nil {
		return nil, models.NewError(models.KindInvalidInput, "open", err)
	}
	if len(sizes) == 0 {
		return nil, models.Errorf(models.KindInvalidInput, "open", "document has no pages")
	}

	if filename == "" {
		filename = s.config.Editor.DefaultFilename
	}
	session := newSession(common.NewSessionID(), filename, append([]byte(nil), data...), sizes, s.deps)

	s.mu.Lock()
	s.sessions[session.id] = session
	count := len(s.sessions)
	s.mu.Unlock()

	s.logger.Info().
		Str("session_id", session.id).
		Str("filename", filename).
		Int("pages", len(sizes)).
		Int("bytes", len(data)).
		Int("open_sessions", count).
		Msg("Session opened")

	return session, nil
}

// Get returns an open session
func (s *Service) Get(id string) (interfaces.EditorSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, models.Errorf(models.KindNotFound, "get session", "session %s not found", id)
	}
	return session, nil
}

// List returns the open sessions, oldest first
func (s *Service) List() []models.SessionSummary {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	out := make([]models.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, session.summary())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// CloseSession drops a session and its undo snapshots
func (s *Service) CloseSession(ctx context.Context, id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return models.Errorf(models.KindNotFound, "close session", "session %s not found", id)
	}
	if err := session.close(ctx); err != nil {
		s.logger.Warn().Err(err).Str("session_id", id).Msg("Session closed with errors")
		return err
	}

	s.logger.Info().Str("session_id", id).Msg("Session closed")
	return nil
}

// EvictIdle closes sessions idle for longer than the configured timeout.
// Sessions with a running export are kept. Returns the number evicted.
func (s *Service) EvictIdle(ctx context.Context) int {
	cutoff := time.Now().Add(-s.config.IdleTimeout())

	// session locks are taken without s.mu held, so a long bake or export
	// on one session never blocks Open, Get or List
	s.mu.RLock()
	candidates := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		candidates = append(candidates, session)
	}
	s.mu.RUnlock()

	var stale []*Session
	for _, session := range candidates {
		if session.LastActivity().After(cutoff) || session.ExportState().Busy() {
			continue
		}
		stale = append(stale, session)
	}

	var idle []*Session
	s.mu.Lock()
	for _, session := range stale {
		// closed or replaced while unlocked
		if s.sessions[session.id] != session {
			continue
		}
		idle = append(idle, session)
		delete(s.sessions, session.id)
	}
	s.mu.Unlock()

	for _, session := range idle {
		if err := session.close(ctx); err != nil {
			s.logger.Warn().Err(err).Str("session_id", session.id).Msg("Failed to clean up evicted session")
		}
	}

	if len(idle) > 0 {
		s.logger.Info().Int("evicted", len(idle)).Msg("Evicted idle sessions")
	}
	return len(idle)
}

// Close stops eviction and closes every session
func (s *Service) Close() error {
	s.mu.Lock()
	running := s.running
	s.running = false
	s.mu.Unlock()

	// a running eviction takes s.mu, so wait for it unlocked
	if running {
		<-s.cron.Stop().Done()
	}

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	ctx := context.Background()
	var firstErr error
	for _, session := range sessions {
		if err := session.close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.logger.Info().Int("sessions", len(sessions)).Msg("Editor service closed")
	return firstErr
}

// pageSizes reads the page sizes through the renderer so overlays and
// rasters agree on one page box, inherited MediaBox entries included
func (d deps) pageSizes(ctx context.Context, data []byte) ([]models.PageSize, error) {
	doc, err := d.renderer.LoadDocument(ctx, data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	sizes := make([]models.PageSize, doc.PageCount())
	for i := range sizes {
		size, err := doc.PageSize(i + 1)
		if err != nil {
			return nil, err
		}
		sizes[i] = size
	}
	return sizes, nil
}
