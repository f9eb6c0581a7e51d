package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRect_OrderIndependent(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
	}{
		{"top-left to bottom-right", Point{10, 20}, Point{110, 70}},
		{"bottom-right to top-left", Point{110, 70}, Point{10, 20}},
		{"top-right to bottom-left", Point{110, 20}, Point{10, 70}},
		{"bottom-left to top-right", Point{10, 70}, Point{110, 20}},
	}

	want := Rect{X: 10, Y: 20, Width: 100, Height: 50}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, want, NormalizeRect(tt.a, tt.b))
			assert.Equal(t, NormalizeRect(tt.a, tt.b), NormalizeRect(tt.b, tt.a))
		})
	}
}

func TestNormalizeRect_Degenerate(t *testing.T) {
	r := NormalizeRect(Point{5, 5}, Point{5, 5})
	assert.Equal(t, Rect{X: 5, Y: 5}, r)
}

func TestNormalizeRotation(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 0},
		{90, 90},
		{360, 0},
		{450, 90},
		{-90, 270},
		{-270, 90},
		{720, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeRotation(tt.in), "rotation %d", tt.in)
		assert.True(t, IsRightAngle(NormalizeRotation(tt.in)))
	}
}

func TestPageSize_Rotated(t *testing.T) {
	s := PageSize{Width: 612, Height: 792}
	assert.Equal(t, s, s.Rotated(0))
	assert.Equal(t, PageSize{Width: 792, Height: 612}, s.Rotated(90))
	assert.Equal(t, s, s.Rotated(180))
	assert.Equal(t, PageSize{Width: 792, Height: 612}, s.Rotated(270))
}

func TestDrawingAnchor(t *testing.T) {
	d := DrawingAnnotation{Points: []Point{{30, 40}, {10, 50}, {20, 5}}}
	assert.Equal(t, Point{10, 5}, d.Anchor())
	assert.Equal(t, Point{}, DrawingAnnotation{}.Anchor())
}

func TestAnnotationSet_CloneIsDeep(t *testing.T) {
	set := AnnotationSet{
		Texts:    []TextAnnotation{{ID: "t1", Page: 1, Content: "Hi"}},
		Drawings: []DrawingAnnotation{{ID: "d1", Page: 1, Points: []Point{{1, 1}, {2, 2}}}},
	}

	clone := set.Clone()
	clone.Texts[0].Content = "changed"
	clone.Drawings[0].Points[0] = Point{99, 99}

	assert.Equal(t, "Hi", set.Texts[0].Content)
	assert.Equal(t, Point{1, 1}, set.Drawings[0].Points[0])
}

func TestPageAnnotations_Layered(t *testing.T) {
	set := AnnotationSet{
		Signatures: []SignatureAnnotation{{ID: "s1", Page: 2}},
		Texts:      []TextAnnotation{{ID: "t1", Page: 2}, {ID: "t2", Page: 1}, {ID: "t3", Page: 2}},
		Highlights: []HighlightAnnotation{{ID: "h1", Page: 2}},
		Drawings:   []DrawingAnnotation{{ID: "d1", Page: 2}},
	}

	var ids []string
	for _, a := range set.ForPage(2).Layered() {
		ids = append(ids, a.AnnotationID())
	}
	assert.Equal(t, []string{"h1", "d1", "t1", "t3", "s1"}, ids)
	assert.True(t, set.ForPage(3).Empty())
}
