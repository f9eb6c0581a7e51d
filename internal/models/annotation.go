package models

import "fmt"

// AnnotationKind names an annotation variant
type AnnotationKind string

const (
	AnnotationHighlight AnnotationKind = "highlight"
	AnnotationDrawing   AnnotationKind = "drawing"
	AnnotationText      AnnotationKind = "text"
	AnnotationSignature AnnotationKind = "signature"
)

// AnnotationKinds lists every variant in layer order, bottom first
var AnnotationKinds = []AnnotationKind{
	AnnotationHighlight,
	AnnotationDrawing,
	AnnotationText,
	AnnotationSignature,
}

// Layer returns the fixed z-order of the variant; higher layers draw on top
func (k AnnotationKind) Layer() int {
	for i, kind := range AnnotationKinds {
		if kind == k {
			return i
		}
	}
	return -1
}

// ParseAnnotationKind validates a variant name
func ParseAnnotationKind(s string) (AnnotationKind, error) {
	k := AnnotationKind(s)
	if k.Layer() < 0 {
		return "", NewError(KindInvalidInput, "parse annotation kind", fmt.Errorf("unknown annotation kind %q", s))
	}
	return k, nil
}

// Annotation is the read-only view shared by all variants.
// Coordinates are page-local pixels of the un-rotated page at display scale.
type Annotation interface {
	AnnotationID() string
	Kind() AnnotationKind
	PageNumber() int
	Anchor() Point
}

// TextAnnotation is a line of text placed with a click
type TextAnnotation struct {
	ID       string `json:"id"`
	Page     int    `json:"page"`
	Position Point  `json:"position"`
	Content  string `json:"content"`
	Color    Color  `json:"color"`
}

func (a TextAnnotation) AnnotationID() string { return a.ID }
func (a TextAnnotation) Kind() AnnotationKind { return AnnotationText }
func (a TextAnnotation) PageNumber() int      { return a.Page }
func (a TextAnnotation) Anchor() Point        { return a.Position }

// HighlightAnnotation is a translucent rectangle dragged over the page
type HighlightAnnotation struct {
	ID    string `json:"id"`
	Page  int    `json:"page"`
	Rect  Rect   `json:"rect"`
	Color Color  `json:"color"`
}

func (a HighlightAnnotation) AnnotationID() string { return a.ID }
func (a HighlightAnnotation) Kind() AnnotationKind { return AnnotationHighlight }
func (a HighlightAnnotation) PageNumber() int      { return a.Page }
func (a HighlightAnnotation) Anchor() Point        { return a.Rect.Origin() }

// DrawingAnnotation is a freehand ink stroke
type DrawingAnnotation struct {
	ID          string  `json:"id"`
	Page        int     `json:"page"`
	Points      []Point `json:"points"`
	Color       Color   `json:"color"`
	StrokeWidth float64 `json:"stroke_width"`
}

func (a DrawingAnnotation) AnnotationID() string { return a.ID }
func (a DrawingAnnotation) Kind() AnnotationKind { return AnnotationDrawing }
func (a DrawingAnnotation) PageNumber() int      { return a.Page }

// Anchor is the top-left corner of the stroke's bounding box
func (a DrawingAnnotation) Anchor() Point {
	if len(a.Points) == 0 {
		return Point{}
	}
	corner := a.Points[0]
	for _, p := range a.Points[1:] {
		if p.X < corner.X {
			corner.X = p.X
		}
		if p.Y < corner.Y {
			corner.Y = p.Y
		}
	}
	return corner
}

// SignatureAnnotation is an image stamped at a fixed display width
type SignatureAnnotation struct {
	ID           string  `json:"id"`
	Page         int     `json:"page"`
	Position     Point   `json:"position"`
	ImageData    []byte  `json:"image_data"`
	DisplayWidth float64 `json:"display_width"`
}

func (a SignatureAnnotation) AnnotationID() string { return a.ID }
func (a SignatureAnnotation) Kind() AnnotationKind { return AnnotationSignature }
func (a SignatureAnnotation) PageNumber() int      { return a.Page }
func (a SignatureAnnotation) Anchor() Point        { return a.Position }

// AnnotationSet holds every annotation of a document, one ordered slice per variant
type AnnotationSet struct {
	Texts      []TextAnnotation      `json:"texts"`
	Highlights []HighlightAnnotation `json:"highlights"`
	Drawings   []DrawingAnnotation   `json:"drawings"`
	Signatures []SignatureAnnotation `json:"signatures"`
}

// Clone returns a deep copy. Signature image bytes are shared since they are never mutated.
func (s AnnotationSet) Clone() AnnotationSet {
	out := AnnotationSet{
		Texts:      append([]TextAnnotation(nil), s.Texts...),
		Highlights: append([]HighlightAnnotation(nil), s.Highlights...),
		Drawings:   make([]DrawingAnnotation, len(s.Drawings)),
		Signatures: append([]SignatureAnnotation(nil), s.Signatures...),
	}
	for i, d := range s.Drawings {
		d.Points = append([]Point(nil), d.Points...)
		out.Drawings[i] = d
	}
	return out
}

// Len returns the total number of annotations
func (s AnnotationSet) Len() int {
	return len(s.Texts) + len(s.Highlights) + len(s.Drawings) + len(s.Signatures)
}

// ForPage returns the annotations on one page, grouped by variant
func (s AnnotationSet) ForPage(page int) PageAnnotations {
	out := PageAnnotations{
		Page:       page,
		Texts:      []TextAnnotation{},
		Highlights: []HighlightAnnotation{},
		Drawings:   []DrawingAnnotation{},
		Signatures: []SignatureAnnotation{},
	}
	for _, a := range s.Highlights {
		if a.Page == page {
			out.Highlights = append(out.Highlights, a)
		}
	}
	for _, a := range s.Drawings {
		if a.Page == page {
			out.Drawings = append(out.Drawings, a)
		}
	}
	for _, a := range s.Texts {
		if a.Page == page {
			out.Texts = append(out.Texts, a)
		}
	}
	for _, a := range s.Signatures {
		if a.Page == page {
			out.Signatures = append(out.Signatures, a)
		}
	}
	return out
}

// PageAnnotations groups the annotations of one page by variant
type PageAnnotations struct {
	Page       int                   `json:"page"`
	Texts      []TextAnnotation      `json:"texts"`
	Highlights []HighlightAnnotation `json:"highlights"`
	Drawings   []DrawingAnnotation   `json:"drawings"`
	Signatures []SignatureAnnotation `json:"signatures"`
}

// Empty reports whether the page has no annotations
func (p PageAnnotations) Empty() bool {
	return len(p.Texts)+len(p.Highlights)+len(p.Drawings)+len(p.Signatures) == 0
}

// Layered returns the annotations in draw order: highlights, drawings, texts, signatures,
// each group in insertion order
func (p PageAnnotations) Layered() []Annotation {
	out := make([]Annotation, 0, len(p.Texts)+len(p.Highlights)+len(p.Drawings)+len(p.Signatures))
	for _, a := range p.Highlights {
		out = append(out, a)
	}
	for _, a := range p.Drawings {
		out = append(out, a)
	}
	for _, a := range p.Texts {
		out = append(out, a)
	}
	for _, a := range p.Signatures {
		out = append(out, a)
	}
	return out
}
