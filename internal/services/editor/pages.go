package editor

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/pdfdesk/internal/models"
	"github.com/ternarybob/pdfdesk/internal/services/export"
)

// state is the restorable part of a session
type state struct {
	base        []byte
	document    []byte
	sizes       []models.PageSize
	annotations models.AnnotationSet
	pages       models.PageTransform
	filter      models.FilterName
	viewports   map[int]models.Viewport
}

func (s *Session) captureLocked() state {
	vps := make(map[int]models.Viewport, len(s.viewports))
	for k, v := range s.viewports {
		vps[k] = v
	}
	return state{
		base:        s.base,
		document:    s.document,
		sizes:       s.sizes,
		annotations: s.annotations.Snapshot(),
		pages:       s.pages.Transform(),
		filter:      s.filter.Active(),
		viewports:   vps,
	}
}

func (s *Session) rollbackLocked(st state) {
	s.base = st.base
	s.document = st.document
	s.sizes = st.sizes
	s.annotations.Restore(st.annotations)
	s.pages.Restore(st.pages)
	s.filter.Select(st.filter)
	s.viewports = st.viewports
}

func (s *Session) snapshotLocked(reason string) *models.Snapshot {
	return &models.Snapshot{
		SessionID:   s.id,
		Reason:      reason,
		Base:        s.base,
		Document:    s.document,
		Annotations: s.annotations.Snapshot(),
		Pages:       s.pages.Transform(),
		Filter:      s.filter.Active(),
		CreatedAt:   time.Now(),
	}
}

// editDocumentLocked runs a destructive edit. apply mutates the in-memory
// stores; the document is then re-derived from the base. The prior state is
// pushed on the undo stack only when everything succeeded, otherwise the
// session is rolled back untouched.
func (s *Session) editDocumentLocked(ctx context.Context, reason string, apply func() error) error {
	start := time.Now()
	before := s.captureLocked()
	snapshot := s.snapshotLocked(reason)

	fail := func(err error) error {
		s.rollbackLocked(before)
		s.logger.Warn().Err(err).Str("session_id", s.id).Str("operation", reason).Msg("Document edit failed")
		return err
	}

	if err := apply(); err != nil {
		return fail(err)
	}
	doc, err := s.deriveLocked(ctx)
	if err != nil {
		return fail(err)
	}
	s.document = doc

	if err := s.undo.Push(ctx, snapshot); err != nil {
		return fail(models.NewError(models.KindRenderFailure, reason, err))
	}

	s.gesture.reset()
	s.history.Reset(s.pages.CurrentPage())

	s.logger.Debug().
		Str("session_id", s.id).
		Str("operation", reason).
		Int("page_count", s.pages.PageCount()).
		Int("undo_depth", s.undo.Len()).
		Dur("duration", time.Since(start)).
		Msg("Document edited")

	s.notifyLocked()
	return nil
}

// deriveLocked builds the page-edited document: the base pages in the
// current order, with each page's rotation added to its /Rotate attribute
func (s *Session) deriveLocked(ctx context.Context) ([]byte, error) {
	if s.pages.IsIdentity(len(s.sizes)) {
		return s.base, nil
	}

	doc, err := s.editor.CopyPages(ctx, s.base, s.pages.Order())
	if err != nil {
		return nil, models.NewError(models.KindRenderFailure, "copy pages", err)
	}

	rotations := make(map[int]int)
	for page := 1; page <= s.pages.PageCount(); page++ {
		if r := s.pages.Rotation(page); r != 0 {
			rotations[page] = r
		}
	}
	if len(rotations) == 0 {
		return doc, nil
	}

	doc, err = s.editor.RotatePages(ctx, doc, rotations)
	if err != nil {
		return nil, models.NewError(models.KindRenderFailure, "rotate pages", err)
	}
	return doc, nil
}

// RotatePage turns a page a quarter clockwise
func (s *Session) RotatePage(ctx context.Context, page int) error {
	s.lock()
	defer s.unlock()

	page, err := s.pages.Resolve(page)
	if err != nil {
		return err
	}
	return s.editDocumentLocked(ctx, fmt.Sprintf("rotate page %d", page), func() error {
		_, err := s.pages.Rotate(page)
		return err
	})
}

// DeletePage removes a page and every annotation on it. The last page cannot
// be deleted. With renumbering on, annotations of later pages follow their
// page down by one.
func (s *Session) DeletePage(ctx context.Context, page int) error {
	s.lock()
	defer s.unlock()

	page, err := s.pages.Resolve(page)
	if err != nil {
		return err
	}
	return s.editDocumentLocked(ctx, fmt.Sprintf("delete page %d", page), func() error {
		if err := s.pages.DeletePage(page); err != nil {
			return err
		}
		removed := s.annotations.RemovePage(page, s.config.Editor.RenumberAfterDelete)
		s.logger.Debug().
			Str("session_id", s.id).
			Int("page", page).
			Int("annotations_removed", removed).
			Bool("renumbered", s.config.Editor.RenumberAfterDelete).
			Msg("Page deleted")
		return nil
	})
}

// ReorderPages applies a new page order. order lists current page numbers in
// their new sequence; annotations follow their pages.
func (s *Session) ReorderPages(ctx context.Context, order []int) error {
	s.lock()
	defer s.unlock()

	return s.editDocumentLocked(ctx, "reorder pages", func() error {
		mapping, err := s.pages.SetOrder(order)
		if err != nil {
			return err
		}
		s.annotations.Renumber(mapping)
		return nil
	})
}

// Undo restores the most recent snapshot. It reports false when there was
// nothing to undo.
func (s *Session) Undo(ctx context.Context) (bool, error) {
	s.lock()
	defer s.unlock()

	snapshot, ok, err := s.undo.Pop(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	// undoing a bake swaps the base; viewports of the baked pages no longer apply
	if !bytes.Equal(snapshot.Base, s.base) {
		sizes, err := s.pageSizes(ctx, snapshot.Base)
		if err != nil {
			return false, models.NewError(models.KindRenderFailure, "undo", err)
		}
		s.sizes = sizes
		s.viewports = make(map[int]models.Viewport)
	}
	s.base = snapshot.Base
	s.document = snapshot.Document
	s.annotations.Restore(snapshot.Annotations)
	s.pages.Restore(snapshot.Pages)
	s.filter.Select(snapshot.Filter)
	s.gesture.reset()
	s.history.Reset(s.pages.CurrentPage())

	s.logger.Debug().
		Str("session_id", s.id).
		Str("reason", snapshot.Reason).
		Int("undo_depth", s.undo.Len()).
		Msg("Undo applied")

	s.notifyLocked()
	return true, nil
}

// SetFilter selects the active filter. FilterNone removes it.
func (s *Session) SetFilter(name models.FilterName) {
	s.lock()
	defer s.unlock()

	if name == models.FilterNone || name == "" {
		s.filter.Remove()
	} else {
		s.filter.Select(name)
	}
	s.notifyLocked()
}

// BakeFilter applies the active filter to every page and makes the result
// the new base document. Rotations are kept as page attributes, the order
// becomes the identity and the filter returns to none. Undoable.
func (s *Session) BakeFilter(ctx context.Context) error {
	s.lock()
	defer s.unlock()

	active := s.filter.Active()
	if !active.Active() {
		return models.Errorf(models.KindRefused, "bake filter", "no filter selected")
	}

	n := s.pages.PageCount()
	src := make(export.StaticSource, n)
	for page := 1; page <= n; page++ {
		orig, _ := s.pages.Original(page)
		src[page-1] = export.PageState{
			Number:   page,
			Original: orig,
			Filter:   active,
		}
	}

	return s.editDocumentLocked(ctx, "bake filter "+string(active), func() error {
		baked, err := s.pipeline.ExportPDF(ctx, s.base, src, export.Options{Filter: true})
		if err != nil {
			return err
		}
		sizes, err := s.pageSizes(ctx, baked)
		if err != nil {
			return models.NewError(models.KindRenderFailure, "bake filter", err)
		}

		transform := s.pages.Transform()
		rebased := models.IdentityTransform(n)
		rebased.CurrentPage = transform.CurrentPage
		viewports := make(map[int]models.Viewport, len(s.viewports))
		for pos, orig := range transform.Order {
			if r := transform.Rotations[orig]; r != 0 {
				rebased.Rotations[pos+1] = r
			}
			if vp, ok := s.viewports[orig]; ok {
				viewports[pos+1] = vp
			}
		}

		s.base = baked
		s.sizes = sizes
		s.pages.Restore(rebased)
		s.viewports = viewports
		s.filter.Remove()
		return nil
	})
}
