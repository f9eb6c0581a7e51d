package annotations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/pdfdesk/internal/models"
)

func ids(list []models.Annotation) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.AnnotationID())
	}
	return out
}

func TestStore_AddTextDiscardsBlank(t *testing.T) {
	s := NewStore()

	for _, content := range []string{"", "   ", "\t\n"} {
		id, ok := s.AddText(1, models.Point{X: 1, Y: 1}, content, models.DefaultTextColor)
		assert.False(t, ok)
		assert.Empty(t, id)
	}
	assert.Equal(t, 0, s.Len())

	id, ok := s.AddText(1, models.Point{X: 50, Y: 50}, "Hi", models.DefaultTextColor)
	require.True(t, ok)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, s.Len())
}

func TestStore_IDsAreUnique(t *testing.T) {
	s := NewStore()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := s.AddHighlight(1, models.Point{}, models.Point{X: 1, Y: 1}, models.DefaultHighlightColor)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestStore_HighlightIsNormalized(t *testing.T) {
	s := NewStore()
	s.AddHighlight(2, models.Point{X: 120, Y: 80}, models.Point{X: 20, Y: 30}, models.DefaultHighlightColor)

	page := s.Page(2)
	require.Len(t, page.Highlights, 1)
	assert.Equal(t, models.Rect{X: 20, Y: 30, Width: 100, Height: 50}, page.Highlights[0].Rect)
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	s := NewStore()
	id, _ := s.AddText(1, models.Point{}, "a", models.DefaultTextColor)

	assert.True(t, s.Remove(models.AnnotationText, id))
	assert.False(t, s.Remove(models.AnnotationText, id))
	assert.False(t, s.Remove(models.AnnotationHighlight, "missing"))
	assert.Equal(t, 0, s.Len())
}

func TestStore_RemoveAny(t *testing.T) {
	s := NewStore()
	id := s.AddDrawing(1, []models.Point{{X: 1, Y: 1}}, models.DefaultDrawingColor, 2)

	kind, ok := s.RemoveAny(id)
	assert.True(t, ok)
	assert.Equal(t, models.AnnotationDrawing, kind)

	_, ok = s.RemoveAny(id)
	assert.False(t, ok)
}

func TestStore_QueryByPageLayering(t *testing.T) {
	s := NewStore()
	sig := s.AddSignature(1, models.Point{}, []byte{1}, 150)
	t1, _ := s.AddText(1, models.Point{}, "first", models.DefaultTextColor)
	h1 := s.AddHighlight(1, models.Point{}, models.Point{X: 5, Y: 5}, models.DefaultHighlightColor)
	s.AddText(2, models.Point{}, "other page", models.DefaultTextColor)
	d1 := s.AddDrawing(1, []models.Point{{X: 1, Y: 2}}, models.DefaultDrawingColor, 2)
	t2, _ := s.AddText(1, models.Point{}, "second", models.DefaultTextColor)

	assert.Equal(t, []string{h1, d1, t1, t2, sig}, ids(s.QueryByPage(1)))
	assert.Len(t, s.QueryByPage(2), 1)
	assert.Empty(t, s.QueryByPage(3))
}

func TestStore_MoveDoesNotClamp(t *testing.T) {
	s := NewStore()
	text, _ := s.AddText(1, models.Point{X: 10, Y: 10}, "a", models.DefaultTextColor)
	hl := s.AddHighlight(1, models.Point{X: 0, Y: 0}, models.Point{X: 30, Y: 20}, models.DefaultHighlightColor)
	ink := s.AddDrawing(1, []models.Point{{X: 10, Y: 10}, {X: 20, Y: 30}}, models.DefaultDrawingColor, 2)

	require.NoError(t, s.Move(models.AnnotationText, text, models.Point{X: -500, Y: 9000}))
	require.NoError(t, s.Move(models.AnnotationHighlight, hl, models.Point{X: 100, Y: 100}))
	require.NoError(t, s.Move(models.AnnotationDrawing, ink, models.Point{X: 0, Y: 0}))

	page := s.Page(1)
	assert.Equal(t, models.Point{X: -500, Y: 9000}, page.Texts[0].Position)
	assert.Equal(t, models.Rect{X: 100, Y: 100, Width: 30, Height: 20}, page.Highlights[0].Rect)
	assert.Equal(t, []models.Point{{X: 0, Y: 0}, {X: 10, Y: 20}}, page.Drawings[0].Points)

	err := s.Move(models.AnnotationSignature, "missing", models.Point{})
	assert.True(t, errors.Is(err, models.KindNotFound))
}

func TestStore_RemovePage(t *testing.T) {
	tests := []struct {
		name      string
		renumber  bool
		wantPages []int
	}{
		{"renumber shifts later pages", true, []int{1, 2}},
		{"legacy keeps page numbers", false, []int{1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			s.AddText(1, models.Point{X: 1}, "one", models.DefaultTextColor)
			s.AddText(2, models.Point{X: 2}, "two", models.DefaultTextColor)
			s.AddHighlight(2, models.Point{}, models.Point{X: 1, Y: 1}, models.DefaultHighlightColor)
			s.AddText(3, models.Point{X: 3}, "three", models.DefaultTextColor)

			removed := s.RemovePage(2, tt.renumber)
			assert.Equal(t, 2, removed)

			set := s.Snapshot()
			require.Len(t, set.Texts, 2)
			assert.Equal(t, "one", set.Texts[0].Content)
			assert.Equal(t, "three", set.Texts[1].Content)
			assert.Equal(t, models.Point{X: 3}, set.Texts[1].Position)
			assert.Equal(t, tt.wantPages, []int{set.Texts[0].Page, set.Texts[1].Page})
			assert.Empty(t, set.Highlights)
		})
	}
}

func TestStore_Renumber(t *testing.T) {
	s := NewStore()
	s.AddText(1, models.Point{}, "a", models.DefaultTextColor)
	s.AddText(3, models.Point{}, "c", models.DefaultTextColor)

	s.Renumber(map[int]int{1: 2, 3: 1})

	set := s.Snapshot()
	assert.Equal(t, 2, set.Texts[0].Page)
	assert.Equal(t, 1, set.Texts[1].Page)
}

func TestStore_SnapshotRestore(t *testing.T) {
	s := NewStore()
	s.AddText(1, models.Point{}, "keep", models.DefaultTextColor)
	snap := s.Snapshot()

	s.Clear()
	s.AddText(1, models.Point{}, "new", models.DefaultTextColor)
	s.Restore(snap)

	set := s.Snapshot()
	require.Len(t, set.Texts, 1)
	assert.Equal(t, "keep", set.Texts[0].Content)
}
