package pdftest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/pdfdesk/internal/models"
)

func TestReadPageSizes_InheritedMediaBox(t *testing.T) {
	// the first size is the document default, so page 1 and page 3 inherit
	// their MediaBox from the page tree root
	first := models.PageSize{Width: 120, Height: 100}
	second := models.PageSize{Width: 100, Height: 150}
	data := NewDocument(t, first, second, first)

	sizes, err := ReadPageSizes(data)
	require.NoError(t, err)
	assert.Equal(t, []models.PageSize{first, second, first}, sizes)
	assert.Equal(t, 3, PageCount(t, data))
}

func TestReadPageSizes_RejectsGarbage(t *testing.T) {
	_, err := ReadPageSizes([]byte("not a pdf"))
	assert.Error(t, err)
}

func TestRenderer_UsesDocumentSizes(t *testing.T) {
	ctx := context.Background()
	r := NewRenderer()
	doc, err := r.LoadDocument(ctx, NewDocument(t, models.PageSize{Width: 120, Height: 100}, models.PageSize{Width: 100, Height: 150}))
	require.NoError(t, err)
	defer doc.Close()

	require.Equal(t, 2, doc.PageCount())
	size, err := doc.PageSize(1)
	require.NoError(t, err)
	assert.Equal(t, models.PageSize{Width: 120, Height: 100}, size)

	img, err := doc.RenderPage(ctx, 1, 2, 90)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())

	_, err = doc.PageSize(3)
	assert.Error(t, err)
	assert.Len(t, r.Calls(), 1)
}
