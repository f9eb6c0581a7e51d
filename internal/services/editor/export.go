package editor

import (
	"context"
	"time"

	"github.com/ternarybob/pdfdesk/internal/common"
	"github.com/ternarybob/pdfdesk/internal/interfaces"
	"github.com/ternarybob/pdfdesk/internal/models"
	"github.com/ternarybob/pdfdesk/internal/services/export"
)

// exportJob is an export prepared under the session lock and run without it
type exportJob struct {
	req      models.ExportRequest
	base     []byte
	document []byte
	source   export.Source
	plain    bool
	opts     export.Options
}

// liveSource reads the session state at the moment each page is flattened,
// so edits made while an export runs may or may not appear in it
type liveSource struct {
	s *Session
}

func (l liveSource) PageCount() int {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.s.pages.PageCount()
}

func (l liveSource) PageState(page int) (export.PageState, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.s.pageStateLocked(page)
}

func (s *Session) pageStateLocked(page int) (export.PageState, error) {
	orig, err := s.pages.Original(page)
	if err != nil {
		return export.PageState{}, err
	}
	rotation := s.pages.Rotation(page)

	var vp *models.Viewport
	if v, ok := s.viewports[orig]; ok {
		vp = &v
	}
	scale, fellBack := s.pipeline.Mapper().Resolve(vp, s.sizes[orig-1], rotation)
	if fellBack {
		s.logger.Debug().
			Str("session_id", s.id).
			Int("page", page).
			Float64("display_scale", scale).
			Msg("No canvas for page, using fallback display scale")
	}

	return export.PageState{
		Number:       page,
		Original:     orig,
		Rotation:     rotation,
		DisplayScale: scale,
		Annotations:  s.annotations.Page(page),
		Filter:       s.filter.Active(),
	}, nil
}

// prepareExportLocked validates req and captures what the export reads. In
// snapshot mode every page state is frozen now.
func (s *Session) prepareExportLocked(req models.ExportRequest) (*exportJob, error) {
	if req.Format == "" {
		req.Format = models.ExportPDF
	}
	if req.Format != models.ExportPDF && req.Format != models.ExportImages {
		return nil, models.Errorf(models.KindInvalidInput, "export", "unknown format %q", req.Format)
	}
	n := s.pages.PageCount()
	for _, page := range req.Pages {
		if page < 1 || page > n {
			return nil, models.Errorf(models.KindInvalidInput, "export", "page %d out of range 1..%d", page, n)
		}
	}

	job := &exportJob{
		req:      req,
		base:     s.base,
		document: s.document,
		opts:     export.FullFlatten,
	}

	flatten := s.annotations.Len() > 0 || s.filter.Active().Active()
	if req.Flatten != nil {
		flatten = *req.Flatten
	}
	if !flatten {
		if req.Format == models.ExportPDF {
			job.plain = true
			return job, nil
		}
		job.opts = export.Options{Rotate: true}
	}

	if !s.config.Editor.SnapshotExportState {
		job.source = liveSource{s: s}
		return job, nil
	}

	src := make(export.StaticSource, n)
	for page := 1; page <= n; page++ {
		st, err := s.pageStateLocked(page)
		if err != nil {
			return nil, err
		}
		src[page-1] = st
	}
	job.source = src
	return job, nil
}

func (s *Session) runExport(ctx context.Context, job *exportJob) (*models.ExportResult, error) {
	switch {
	case job.plain:
		return &models.ExportResult{
			Filename:    s.pipeline.PDFFilename(job.req.Filename),
			ContentType: "application/pdf",
			Data:        job.document,
		}, nil
	case job.req.Format == models.ExportImages:
		return s.pipeline.ExportImages(ctx, job.base, job.source, job.req.Pages, job.req.Filename, job.opts)
	default:
		data, err := s.pipeline.ExportPDF(ctx, job.base, job.source, job.opts)
		if err != nil {
			return nil, err
		}
		return &models.ExportResult{
			Filename:    s.pipeline.PDFFilename(job.req.Filename),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	}
}

// Export runs an export and returns its artifact. It does not touch the
// export status; StartExport is the tracked variant.
func (s *Session) Export(ctx context.Context, req models.ExportRequest) (*models.ExportResult, error) {
	s.lock()
	job, err := s.prepareExportLocked(req)
	s.unlock()
	if err != nil {
		return nil, err
	}
	return s.runExport(ctx, job)
}

// StartExport triggers a tracked export in the background. A running export
// refuses new triggers. The export is never cancelled once started.
func (s *Session) StartExport(req models.ExportRequest) error {
	s.lock()
	defer s.unlock()

	if s.exportState.Busy() {
		return models.Errorf(models.KindRefused, "start export", "an export is already running")
	}
	job, err := s.prepareExportLocked(req)
	if err != nil {
		return err
	}

	now := time.Now()
	s.exportResult = nil
	s.exportState = models.ExportState{
		Status:    models.ExportProcessing,
		Format:    job.req.Format,
		StartedAt: &now,
	}
	s.publishExportLocked()

	s.logger.Info().
		Str("session_id", s.id).
		Str("format", string(job.req.Format)).
		Bool("snapshot", s.config.Editor.SnapshotExportState).
		Msg("Export started")

	common.SafeGo(s.logger, "export:"+s.id, func() {
		result, err := s.runExport(context.Background(), job)
		s.finishExport(result, err)
	})
	return nil
}

func (s *Session) finishExport(result *models.ExportResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.exportState.FinishedAt = &now
	if err != nil {
		s.exportState.Status = models.ExportFailed
		s.exportState.Error = err.Error()
		s.logger.Error().Err(err).Str("session_id", s.id).Msg("Export failed")
	} else {
		s.exportResult = result
		s.exportState.Status = models.ExportDone
		s.exportState.Filename = result.Filename
		s.exportState.ContentType = result.ContentType
		s.exportState.Size = len(result.Data)
		s.logger.Info().
			Str("session_id", s.id).
			Str("filename", result.Filename).
			Int("bytes", len(result.Data)).
			Dur("duration", now.Sub(*s.exportState.StartedAt)).
			Msg("Export complete")
	}
	s.publishExportLocked()
}

func (s *Session) publishExportLocked() {
	s.publish(interfaces.EventExportStatus, s.exportState)
	s.notifyLocked()
}

// ExportState returns the status of the tracked export
func (s *Session) ExportState() models.ExportState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportState
}

// ExportResult returns the artifact of a finished export
func (s *Session) ExportResult() (*models.ExportResult, error) {
	s.lock()
	defer s.unlock()

	switch s.exportState.Status {
	case models.ExportDone:
		return s.exportResult, nil
	case models.ExportFailed:
		return nil, models.Errorf(models.KindRenderFailure, "export result", "%s", s.exportState.Error)
	case models.ExportProcessing:
		return nil, models.Errorf(models.KindRefused, "export result", "export still running")
	default:
		return nil, models.Errorf(models.KindNotFound, "export result", "no export has run")
	}
}

// DismissExport returns a finished or failed export to idle and drops its
// artifact. A running export cannot be dismissed.
func (s *Session) DismissExport() {
	s.lock()
	defer s.unlock()

	if s.exportState.Status == models.ExportIdle || s.exportState.Busy() {
		return
	}
	s.exportState = models.ExportState{Status: models.ExportIdle}
	s.exportResult = nil
	s.publishExportLocked()
}
