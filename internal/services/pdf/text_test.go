package pdf

import (
	"context"
	"errors"
	"strings"
	"testing"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/pdfdesk/internal/models"
)

func TestTextExtractor_ExtractPage(t *testing.T) {
	x := NewTextExtractor(arbor.NewLogger())
	data := threePages(t)

	runs, err := x.ExtractPage(context.Background(), data, 2)
	require.NoError(t, err)
	require.NotEmpty(t, runs)

	var joined []string
	for _, r := range runs {
		joined = append(joined, r.Text)
	}
	text := strings.Join(joined, " ")
	assert.Contains(t, text, "Page")
	assert.Contains(t, text, "2")
	assert.InDelta(t, 48, runs[0].Y, 1, "baseline measured from the top")

	_, err = x.ExtractPage(context.Background(), data, 7)
	assert.True(t, errors.Is(err, models.KindInvalidInput))
}

func TestMergeGlyphs(t *testing.T) {
	glyphs := []ledongthuc.Text{
		{S: "H", X: 10, Y: 700, W: 6, FontSize: 12},
		{S: "i", X: 16, Y: 700, W: 3, FontSize: 12},
		{S: "x", X: 200, Y: 700, W: 6, FontSize: 12},
		{S: "y", X: 10, Y: 650, W: 6, FontSize: 12},
		{S: " ", X: 16, Y: 650, W: 3, FontSize: 12},
	}

	runs := mergeGlyphs(glyphs, 800)
	require.Len(t, runs, 3)
	assert.Equal(t, models.TextRun{Text: "Hi", X: 10, Y: 100, Width: 9, FontSize: 12}, runs[0])
	assert.Equal(t, "x", runs[1].Text)
	assert.Equal(t, "y", runs[2].Text)
	assert.Equal(t, 150.0, runs[2].Y)
}
