package annotations

import (
	"fmt"
	"strings"

	"github.com/ternarybob/pdfdesk/internal/common"
	"github.com/ternarybob/pdfdesk/internal/models"
)

// Store holds the annotations of one document. It is not safe for concurrent
// use; the owning session serializes access.
type Store struct {
	set   models.AnnotationSet
	newID func() string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{newID: common.NewAnnotationID}
}

// AddText appends a text annotation. Blank content is discarded and returns
// an empty id with ok false.
func (s *Store) AddText(page int, pos models.Point, content string, color models.Color) (id string, ok bool) {
	if strings.TrimSpace(content) == "" {
		return "", false
	}
	id = s.newID()
	s.set.Texts = append(s.set.Texts, models.TextAnnotation{
		ID:       id,
		Page:     page,
		Position: pos,
		Content:  content,
		Color:    color,
	})
	return id, true
}

// AddHighlight appends a highlight spanning two drag points
func (s *Store) AddHighlight(page int, from, to models.Point, color models.Color) string {
	id := s.newID()
	s.set.Highlights = append(s.set.Highlights, models.HighlightAnnotation{
		ID:    id,
		Page:  page,
		Rect:  models.NormalizeRect(from, to),
		Color: color,
	})
	return id
}

// AddDrawing appends an ink stroke
func (s *Store) AddDrawing(page int, points []models.Point, color models.Color, width float64) string {
	id := s.newID()
	s.set.Drawings = append(s.set.Drawings, models.DrawingAnnotation{
		ID:          id,
		Page:        page,
		Points:      append([]models.Point(nil), points...),
		Color:       color,
		StrokeWidth: width,
	})
	return id
}

// AddSignature appends a signature image
func (s *Store) AddSignature(page int, pos models.Point, imageData []byte, displayWidth float64) string {
	id := s.newID()
	s.set.Signatures = append(s.set.Signatures, models.SignatureAnnotation{
		ID:           id,
		Page:         page,
		Position:     pos,
		ImageData:    imageData,
		DisplayWidth: displayWidth,
	})
	return id
}

// Remove deletes an annotation by id. Unknown ids are ignored.
func (s *Store) Remove(kind models.AnnotationKind, id string) bool {
	switch kind {
	case models.AnnotationText:
		n := len(s.set.Texts)
		s.set.Texts = filter(s.set.Texts, func(a models.TextAnnotation) bool { return a.ID != id })
		return len(s.set.Texts) != n
	case models.AnnotationHighlight:
		n := len(s.set.Highlights)
		s.set.Highlights = filter(s.set.Highlights, func(a models.HighlightAnnotation) bool { return a.ID != id })
		return len(s.set.Highlights) != n
	case models.AnnotationDrawing:
		n := len(s.set.Drawings)
		s.set.Drawings = filter(s.set.Drawings, func(a models.DrawingAnnotation) bool { return a.ID != id })
		return len(s.set.Drawings) != n
	case models.AnnotationSignature:
		n := len(s.set.Signatures)
		s.set.Signatures = filter(s.set.Signatures, func(a models.SignatureAnnotation) bool { return a.ID != id })
		return len(s.set.Signatures) != n
	}
	return false
}

// RemoveAny deletes an annotation by id whatever its variant
func (s *Store) RemoveAny(id string) (models.AnnotationKind, bool) {
	for _, kind := range models.AnnotationKinds {
		if s.Remove(kind, id) {
			return kind, true
		}
	}
	return "", false
}

// Find returns the annotation with the given id
func (s *Store) Find(id string) (models.Annotation, bool) {
	for _, a := range s.set.Texts {
		if a.ID == id {
			return a, true
		}
	}
	for _, a := range s.set.Highlights {
		if a.ID == id {
			return a, true
		}
	}
	for _, a := range s.set.Drawings {
		if a.ID == id {
			return a, true
		}
	}
	for _, a := range s.set.Signatures {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// Move sets the anchor of an annotation. Highlights keep their size and
// drawings are translated as a whole. Positions are not clamped to the page.
func (s *Store) Move(kind models.AnnotationKind, id string, pos models.Point) error {
	switch kind {
	case models.AnnotationText:
		for i := range s.set.Texts {
			if s.set.Texts[i].ID == id {
				s.set.Texts[i].Position = pos
				return nil
			}
		}
	case models.AnnotationHighlight:
		for i := range s.set.Highlights {
			if s.set.Highlights[i].ID == id {
				s.set.Highlights[i].Rect.X = pos.X
				s.set.Highlights[i].Rect.Y = pos.Y
				return nil
			}
		}
	case models.AnnotationDrawing:
		for i := range s.set.Drawings {
			d := &s.set.Drawings[i]
			if d.ID == id {
				delta := pos.Sub(d.Anchor())
				for j := range d.Points {
					d.Points[j] = d.Points[j].Add(delta)
				}
				return nil
			}
		}
	case models.AnnotationSignature:
		for i := range s.set.Signatures {
			if s.set.Signatures[i].ID == id {
				s.set.Signatures[i].Position = pos
				return nil
			}
		}
	}
	return models.NewError(models.KindNotFound, "move annotation", fmt.Errorf("%s %s not found", kind, id))
}

// QueryByPage returns the annotations of one page in draw order
func (s *Store) QueryByPage(page int) []models.Annotation {
	return s.set.ForPage(page).Layered()
}

// Page returns the annotations of one page grouped by variant
func (s *Store) Page(page int) models.PageAnnotations {
	return s.set.ForPage(page)
}

// RemovePage deletes every annotation on page. When renumber is set,
// annotations on later pages move down by one so they stay on the same
// physical page. Returns the number removed.
func (s *Store) RemovePage(page int, renumber bool) int {
	before := s.set.Len()
	s.set.Texts = filter(s.set.Texts, func(a models.TextAnnotation) bool { return a.Page != page })
	s.set.Highlights = filter(s.set.Highlights, func(a models.HighlightAnnotation) bool { return a.Page != page })
	s.set.Drawings = filter(s.set.Drawings, func(a models.DrawingAnnotation) bool { return a.Page != page })
	s.set.Signatures = filter(s.set.Signatures, func(a models.SignatureAnnotation) bool { return a.Page != page })
	removed := before - s.set.Len()

	if renumber {
		s.remap(func(p int) int {
			if p > page {
				return p - 1
			}
			return p
		})
	}
	return removed
}

// Renumber rewrites page references after a reorder. mapping[old] = new;
// pages missing from the mapping are left alone.
func (s *Store) Renumber(mapping map[int]int) {
	s.remap(func(p int) int {
		if n, ok := mapping[p]; ok {
			return n
		}
		return p
	})
}

func (s *Store) remap(fn func(int) int) {
	for i := range s.set.Texts {
		s.set.Texts[i].Page = fn(s.set.Texts[i].Page)
	}
	for i := range s.set.Highlights {
		s.set.Highlights[i].Page = fn(s.set.Highlights[i].Page)
	}
	for i := range s.set.Drawings {
		s.set.Drawings[i].Page = fn(s.set.Drawings[i].Page)
	}
	for i := range s.set.Signatures {
		s.set.Signatures[i].Page = fn(s.set.Signatures[i].Page)
	}
}

// Len returns the total number of annotations
func (s *Store) Len() int {
	return s.set.Len()
}

// Snapshot returns a deep copy of the contents
func (s *Store) Snapshot() models.AnnotationSet {
	return s.set.Clone()
}

// Restore replaces the contents with a copy of set
func (s *Store) Restore(set models.AnnotationSet) {
	s.set = set.Clone()
}

// Clear drops every annotation
func (s *Store) Clear() {
	s.set = models.AnnotationSet{}
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := items[:0]
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
